package site

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Sriram-PR/folio/pkg/config"
	"github.com/Sriram-PR/folio/pkg/models"
	"github.com/Sriram-PR/folio/pkg/process"
	"github.com/Sriram-PR/folio/pkg/utils"
)

// wordsPerMinute drives the reading-time estimate on post pages
const wordsPerMinute = 200

// Renderer turns loaded posts into rendered posts. It is safe for concurrent use.
type Renderer struct {
	converter *process.Converter
	counter   *process.TokenCounter
	chunking  process.ChunkerConfig
}

// NewRenderer configures the Markdown converter and tokenizer from cfg
func NewRenderer(cfg *config.AppConfig) (*Renderer, error) {
	counter, err := process.NewTokenCounter(cfg.TokenizerEncoding)
	if err != nil {
		return nil, err
	}
	chunking := process.DefaultChunkerConfig()
	if cfg.ChunkMaxTokens > 0 {
		chunking.MaxChunkSize = cfg.ChunkMaxTokens
		chunking.ChunkOverlap = cfg.ChunkOverlap
	}
	chunking.Counter = counter

	return &Renderer{
		converter: process.NewConverter(process.ConverterOptions{
			Extensions: cfg.MarkdownExtensions,
			HardWraps:  cfg.HardWraps,
			UnsafeHTML: cfg.UnsafeHTML,
			MaxLevel:   cfg.TOC.MaxLevel,
		}),
		counter:  counter,
		chunking: chunking,
	}, nil
}

// Render converts post. A post with an empty body renders to an empty page
// and no headings; callers show it as unavailable.
func (r *Renderer) Render(post models.Post) (*models.RenderedPost, error) {
	rp := &models.RenderedPost{
		Post:        post,
		Headings:    []*models.Heading{},
		ContentHash: PostHash(post),
	}
	if Unavailable(post) {
		return rp, nil
	}

	result, err := r.converter.Render([]byte(post.Source))
	if err != nil {
		return nil, err
	}
	rp.HTML = result.HTML
	rp.Headings = result.Headings
	rp.Anchors = result.Anchors
	rp.TokenCount = r.counter.Count(post.Source)
	return rp, nil
}

// Chunks splits a rendered post for chunks.jsonl
func (r *Renderer) Chunks(rp *models.RenderedPost, postURL string) ([]models.ChunkJSONL, error) {
	chunks, err := process.ChunkMarkdown(rp.Post.Source, r.chunking)
	if err != nil {
		return nil, fmt.Errorf("chunking '%s': %w", rp.Post.Slug, err)
	}
	out := make([]models.ChunkJSONL, 0, len(chunks))
	for i, c := range chunks {
		out = append(out, models.ChunkJSONL{
			URL:              postURL,
			ChunkIndex:       i,
			Content:          c.Content,
			HeadingHierarchy: c.HeadingHierarchy,
			TokenCount:       c.TokenCount,
			PostTitle:        rp.Post.Metadata.Title,
			PublishedAt:      rp.Post.Metadata.PublishedAt,
		})
	}
	return out, nil
}

// Unavailable reports whether post has no content to show
func Unavailable(post models.Post) bool {
	return strings.TrimSpace(post.Source) == ""
}

// PostHash fingerprints a post's source and front matter
func PostHash(post models.Post) string {
	meta, _ := json.Marshal(post.Metadata)
	return utils.CalculateContentHash(post.Slug, string(meta), post.Source)
}

// ReadingMinutes estimates reading time, at least one minute for any text
func ReadingMinutes(source string) int {
	words := len(strings.Fields(source))
	if words == 0 {
		return 0
	}
	return (words + wordsPerMinute - 1) / wordsPerMinute
}
