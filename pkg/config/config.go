package config

// AppConfig holds the site configuration loaded from folio.yaml
type AppConfig struct {
	SiteURL     string `yaml:"site_url"`
	SiteName    string `yaml:"site_name"`
	Author      string `yaml:"author"`
	Description string `yaml:"description,omitempty"`

	ContentDir string `yaml:"content_dir"`
	OutputDir  string `yaml:"output_dir"`
	StateDir   string `yaml:"state_dir"`

	NumWorkers         int      `yaml:"num_workers"`
	Incremental        bool     `yaml:"incremental,omitempty"`    // Skip posts whose content hash is unchanged since the last build
	IncludeDrafts      bool     `yaml:"include_drafts,omitempty"` // Render posts marked draft: true
	MarkdownExtensions []string `yaml:"markdown_extensions,omitempty"`
	HardWraps          bool     `yaml:"hard_wraps,omitempty"`
	UnsafeHTML         bool     `yaml:"unsafe_html,omitempty"` // Pass raw HTML in Markdown through to the page

	TOC     TOCConfig     `yaml:"toc,omitempty"`
	Reader  ReaderConfig  `yaml:"reader,omitempty"`
	About   AboutConfig   `yaml:"about,omitempty"`
	Outputs OutputsConfig `yaml:"outputs,omitempty"`

	RobotsTxt string `yaml:"robots_txt,omitempty"` // Custom robots.txt body; generated when empty

	TokenizerEncoding string `yaml:"tokenizer_encoding,omitempty"`
	ChunkMaxTokens    int    `yaml:"chunk_max_tokens,omitempty"`
	ChunkOverlap      int    `yaml:"chunk_overlap,omitempty"`
}

// TOCConfig controls which headings enter the table of contents and how the
// active section is detected. Margins are fractions of the viewport height,
// negative values shrink the trigger zone the way CSS rootMargin does.
type TOCConfig struct {
	MaxLevel         int      `yaml:"max_level,omitempty"`
	RootMarginTop    *float64 `yaml:"root_margin_top,omitempty"`
	RootMarginBottom *float64 `yaml:"root_margin_bottom,omitempty"`
	Threshold        float64  `yaml:"threshold,omitempty"` // Emitted into the browser script only
}

// ReaderConfig holds settings for MCP reading sessions
type ReaderConfig struct {
	ViewportHeight int `yaml:"viewport_height,omitempty"` // In source lines
}

// AboutConfig holds the About page content
type AboutConfig struct {
	Name     string    `yaml:"name,omitempty"`
	Headline string    `yaml:"headline,omitempty"`
	Avatar   string    `yaml:"avatar,omitempty"`
	Bio      []string  `yaml:"bio,omitempty"`
	Skills   []string  `yaml:"skills,omitempty"`
	Contacts []Contact `yaml:"contacts,omitempty"`
}

// Contact is a single link on the About page
type Contact struct {
	Label string `yaml:"label"`
	URL   string `yaml:"url"`
}

// OutputsConfig toggles the auxiliary build outputs.
// Pointers give tri-state semantics: nil means "use the default".
type OutputsConfig struct {
	Sitemap          *bool  `yaml:"sitemap,omitempty"`
	Robots           *bool  `yaml:"robots,omitempty"`
	PostsJSONL       *bool  `yaml:"posts_jsonl,omitempty"`
	ChunksJSONL      *bool  `yaml:"chunks_jsonl,omitempty"`
	MetadataYAML     *bool  `yaml:"metadata_yaml,omitempty"`
	JSONLFilename    string `yaml:"jsonl_filename,omitempty"`
	ChunksFilename   string `yaml:"chunks_filename,omitempty"`
	MetadataFilename string `yaml:"metadata_filename,omitempty"`
}

const (
	DefaultRootMarginTop    = -0.20
	DefaultRootMarginBottom = -0.80
	DefaultThreshold        = 0.1
	DefaultViewportHeight   = 40
	DefaultMaxLevel         = 3
)

func boolOr(p *bool, def bool) bool {
	if p != nil {
		return *p
	}
	return def
}

// GetEffectiveEnableSitemap reports whether sitemap.xml is written (default on)
func GetEffectiveEnableSitemap(cfg AppConfig) bool {
	return boolOr(cfg.Outputs.Sitemap, true)
}

// GetEffectiveEnableRobots reports whether robots.txt is written (default on)
func GetEffectiveEnableRobots(cfg AppConfig) bool {
	return boolOr(cfg.Outputs.Robots, true)
}

// GetEffectiveEnableMetadataYAML determines if the YAML build manifest should be generated (default on).
func GetEffectiveEnableMetadataYAML(cfg AppConfig) bool {
	return boolOr(cfg.Outputs.MetadataYAML, true)
}

// GetEffectiveEnablePostsJSONL determines if posts.jsonl should be generated (default off)
func GetEffectiveEnablePostsJSONL(cfg AppConfig) bool {
	return boolOr(cfg.Outputs.PostsJSONL, false)
}

// GetEffectiveEnableChunksJSONL determines if chunks.jsonl should be generated (default off)
func GetEffectiveEnableChunksJSONL(cfg AppConfig) bool {
	return boolOr(cfg.Outputs.ChunksJSONL, false)
}

// GetEffectiveJSONLFilename determines the filename for the per-post JSONL export
func GetEffectiveJSONLFilename(cfg AppConfig) string {
	if cfg.Outputs.JSONLFilename != "" {
		return cfg.Outputs.JSONLFilename
	}
	return "posts.jsonl"
}

// GetEffectiveChunksFilename determines the filename for the chunk export
func GetEffectiveChunksFilename(cfg AppConfig) string {
	if cfg.Outputs.ChunksFilename != "" {
		return cfg.Outputs.ChunksFilename
	}
	return "chunks.jsonl"
}

// GetEffectiveMetadataYAMLFilename determines the filename for the YAML manifest.
func GetEffectiveMetadataYAMLFilename(cfg AppConfig) string {
	if cfg.Outputs.MetadataFilename != "" {
		return cfg.Outputs.MetadataFilename
	}
	return "metadata.yaml"
}

// GetEffectiveRootMargins returns the top and bottom trigger-zone margins
func GetEffectiveRootMargins(cfg AppConfig) (top, bottom float64) {
	top, bottom = DefaultRootMarginTop, DefaultRootMarginBottom
	if cfg.TOC.RootMarginTop != nil {
		top = *cfg.TOC.RootMarginTop
	}
	if cfg.TOC.RootMarginBottom != nil {
		bottom = *cfg.TOC.RootMarginBottom
	}
	return top, bottom
}
