package config

import (
	"fmt"
	"strings"

	"github.com/Sriram-PR/folio/pkg/parse"
	"github.com/Sriram-PR/folio/pkg/utils"
)

// Validate checks AppConfig fields and applies sensible defaults.
// Returns collected warnings and any fatal error.
// Modifies receiver in place to apply defaults.
func (c *AppConfig) Validate() (warnings []string, err error) {
	// Required: SiteURL
	if c.SiteURL == "" {
		return nil, fmt.Errorf("%w: site_url is required", utils.ErrConfigValidation)
	}
	u, ok := parse.ParseSiteURL(c.SiteURL)
	if !ok {
		return nil, fmt.Errorf("%w: site_url '%s' must be an absolute http(s) URL", utils.ErrConfigValidation, c.SiteURL)
	}
	c.SiteURL = strings.TrimRight(strings.TrimSpace(c.SiteURL), "/")

	if c.SiteName == "" {
		warnings = append(warnings, fmt.Sprintf("site_name is empty, defaulting to host '%s'", u.Host))
		c.SiteName = u.Host
	}

	if c.Author == "" {
		warnings = append(warnings, "author is empty, structured data will carry an empty author name")
	}

	// NumWorkers
	if c.NumWorkers <= 0 {
		warnings = append(warnings, "num_workers should be > 0, defaulting to 4")
		c.NumWorkers = 4
	}

	// Paths
	if c.ContentDir == "" {
		warnings = append(warnings, "content_dir is empty, defaulting to './content'")
		c.ContentDir = "./content"
	}
	if c.OutputDir == "" {
		warnings = append(warnings, "output_dir is empty, defaulting to './public'")
		c.OutputDir = "./public"
	}
	if c.StateDir == "" {
		if c.Incremental {
			warnings = append(warnings, "state_dir is empty, defaulting to './.folio_state'")
		}
		c.StateDir = "./.folio_state"
	}

	if len(c.MarkdownExtensions) == 0 {
		c.MarkdownExtensions = []string{"gfm", "footnote", "definition_list"}
	}

	warnings = append(warnings, c.validateTOC()...)

	if c.Reader.ViewportHeight <= 0 {
		c.Reader.ViewportHeight = DefaultViewportHeight
	}

	// Chunking
	if c.TokenizerEncoding == "" {
		c.TokenizerEncoding = "cl100k_base"
	}
	if c.ChunkMaxTokens <= 0 {
		c.ChunkMaxTokens = 512
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkMaxTokens {
		warnings = append(warnings, fmt.Sprintf(
			"chunk_overlap (%d) must be in [0, chunk_max_tokens), defaulting to 50", c.ChunkOverlap))
		c.ChunkOverlap = 50
		if c.ChunkOverlap >= c.ChunkMaxTokens {
			c.ChunkOverlap = 0
		}
	}

	for i, contact := range c.About.Contacts {
		if contact.URL == "" {
			warnings = append(warnings, fmt.Sprintf("about.contacts[%d] (%s) has no url", i, contact.Label))
		}
	}

	return warnings, nil
}

// validateTOC applies defaults to the TOC settings.
func (c *AppConfig) validateTOC() (warnings []string) {
	t := &c.TOC
	if t.MaxLevel == 0 {
		t.MaxLevel = DefaultMaxLevel
	} else if t.MaxLevel < 1 || t.MaxLevel > 3 {
		warnings = append(warnings, fmt.Sprintf("toc.max_level %d outside 1..3, defaulting to 3", t.MaxLevel))
		t.MaxLevel = DefaultMaxLevel
	}

	top, bottom := GetEffectiveRootMargins(*c)
	if top < -1 || top > 0 || bottom < -1 || bottom > 0 || top+bottom < -1-1e-9 {
		warnings = append(warnings, fmt.Sprintf(
			"toc root margins (%.2f, %.2f) leave no trigger zone, using defaults (%.2f, %.2f)",
			top, bottom, DefaultRootMarginTop, DefaultRootMarginBottom))
		top, bottom = DefaultRootMarginTop, DefaultRootMarginBottom
	}
	t.RootMarginTop = &top
	t.RootMarginBottom = &bottom

	if t.Threshold <= 0 || t.Threshold > 1 {
		t.Threshold = DefaultThreshold
	}
	return warnings
}
