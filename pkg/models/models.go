package models

import "time"

// PublishedAtLayout is the front matter date format
const PublishedAtLayout = "2006-01-02"

// Post formats
const (
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// PostMetadata is the front matter block of a post
type PostMetadata struct {
	Title       string   `yaml:"title" json:"title"`
	PublishedAt string   `yaml:"publishedAt" json:"publishedAt"` // YYYY-MM-DD
	Summary     string   `yaml:"summary" json:"summary"`
	Image       string   `yaml:"image,omitempty" json:"image,omitempty"` // Site-relative path or absolute URL
	Tags        []string `yaml:"tags,omitempty" json:"tags,omitempty"`
	Draft       bool     `yaml:"draft,omitempty" json:"draft,omitempty"`
	Slug        string   `yaml:"slug,omitempty" json:"-"` // Overrides the slug derived from the file name
}

// Date parses PublishedAt. The zero time is returned with the error on malformed input.
func (m PostMetadata) Date() (time.Time, error) {
	return time.Parse(PublishedAtLayout, m.PublishedAt)
}

// Post is a loaded but not yet rendered post
type Post struct {
	Slug       string
	Metadata   PostMetadata
	Source     string // Markdown body (HTML posts are converted on load)
	SourcePath string // Relative to the content directory
	Format     string // FormatMarkdown or FormatHTML
}

// Anchor marks where a heading starts in the post source
type Anchor struct {
	ID    string `json:"id"`
	Level int    `json:"level"`
	Line  int    `json:"line"` // 0-based source line
}

// RenderedPost is the output of converting one post
type RenderedPost struct {
	Post        Post
	HTML        string
	Headings    []*Heading // Forest, levels 1-3
	Anchors     []Anchor   // Every heading in document order, any level
	TokenCount  int
	ContentHash string
}

// PostDBEntry stores the result of building a post in the cache database
type PostDBEntry struct {
	Status      PostStatus `json:"status"`
	ContentHash string     `json:"content_hash,omitempty"` // Hash of source + metadata at the last successful build
	ErrorType   string     `json:"error_type,omitempty"`   // Error category (on failure)
	BuiltAt     time.Time  `json:"built_at,omitempty"`     // Timestamp of the last successful build
	LastAttempt time.Time  `json:"last_attempt"`
}

// SiteManifest holds all metadata for a single build of the site.
type SiteManifest struct {
	BuildID        string         `yaml:"build_id"`
	SiteURL        string         `yaml:"site_url"`
	SiteName       string         `yaml:"site_name"`
	BuildStartTime time.Time      `yaml:"build_start_time"`
	BuildEndTime   time.Time      `yaml:"build_end_time"`
	TotalPosts     int            `yaml:"total_posts"`
	FailedPosts    int            `yaml:"failed_posts,omitempty"`
	SkippedPosts   int            `yaml:"skipped_posts,omitempty"` // Unchanged since the last incremental build
	Pages          []PageManifest `yaml:"pages"`
}

// PageManifest holds metadata for a single generated page.
type PageManifest struct {
	URL           string   `yaml:"url"`
	LocalFilePath string   `yaml:"local_file_path"` // Relative to output_dir
	Title         string   `yaml:"title,omitempty"`
	Slug          string   `yaml:"slug,omitempty"`
	PublishedAt   string   `yaml:"published_at,omitempty"`
	ContentHash   string   `yaml:"content_hash,omitempty"`
	HeadingCount  int      `yaml:"heading_count,omitempty"`
	TokenCount    int      `yaml:"token_count,omitempty"`
	Tags          []string `yaml:"tags,omitempty"`
}

// PostJSONL is one line of posts.jsonl
type PostJSONL struct {
	URL         string     `json:"url"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Summary     string     `json:"summary,omitempty"`
	PublishedAt string     `json:"published_at"`
	Tags        []string   `json:"tags,omitempty"`
	Content     string     `json:"content"` // Markdown source
	Headings    []*Heading `json:"headings,omitempty"`
	ContentHash string     `json:"content_hash"`
	TokenCount  int        `json:"token_count,omitempty"`
}

// ChunkJSONL is one line of chunks.jsonl
type ChunkJSONL struct {
	URL              string   `json:"url"`
	ChunkIndex       int      `json:"chunk_index"`
	Content          string   `json:"content"`
	HeadingHierarchy []string `json:"heading_hierarchy,omitempty"`
	TokenCount       int      `json:"token_count"`
	PostTitle        string   `json:"post_title"`
	PublishedAt      string   `json:"published_at"`
}
