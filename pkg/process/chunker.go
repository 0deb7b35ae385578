package process

import (
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Chunk is one retrieval-sized piece of a post
type Chunk struct {
	Content          string   // Includes the parent heading lines prepended by the splitter
	HeadingHierarchy []string // Heading texts found in the chunk, outermost first
	TokenCount       int
}

// ChunkerConfig holds configuration for the chunker.
type ChunkerConfig struct {
	MaxChunkSize int // In tokens; oversized sections are split again recursively
	ChunkOverlap int // In tokens, for the recursive fallback
	Counter      *TokenCounter
}

// DefaultChunkerConfig returns the defaults used when config leaves chunking unset.
func DefaultChunkerConfig() ChunkerConfig {
	return ChunkerConfig{
		MaxChunkSize: 512,
		ChunkOverlap: 50,
	}
}

// ChunkMarkdown splits a post body by its headings, keeping the heading path
// of every section, and falls back to recursive character splitting for
// sections above MaxChunkSize.
func ChunkMarkdown(markdown string, cfg ChunkerConfig) ([]Chunk, error) {
	if strings.TrimSpace(markdown) == "" {
		return nil, nil
	}

	lenFunc := cfg.Counter.Count

	recursiveSplitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(cfg.MaxChunkSize),
		textsplitter.WithChunkOverlap(cfg.ChunkOverlap),
		textsplitter.WithLenFunc(lenFunc),
	)

	splitter := textsplitter.NewMarkdownTextSplitter(
		textsplitter.WithHeadingHierarchy(true),
		textsplitter.WithChunkSize(cfg.MaxChunkSize),
		textsplitter.WithChunkOverlap(cfg.ChunkOverlap),
		textsplitter.WithSecondSplitter(recursiveSplitter),
		textsplitter.WithLenFunc(lenFunc),
	)

	parts, err := splitter.SplitText(markdown)
	if err != nil {
		return nil, err
	}

	chunks := make([]Chunk, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		chunks = append(chunks, Chunk{
			Content:          part,
			HeadingHierarchy: extractHeadingHierarchy(part),
			TokenCount:       cfg.Counter.Count(part),
		})
	}
	return chunks, nil
}

// extractHeadingHierarchy returns the text of every heading in content, in order
func extractHeadingHierarchy(content string) []string {
	source := []byte(content)
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	var hierarchy []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if heading, ok := n.(*ast.Heading); ok {
			if txt := strings.TrimSpace(headingText(heading, source)); txt != "" {
				hierarchy = append(hierarchy, txt)
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return hierarchy
}
