package config

import (
	"strings"
	"testing"

	"github.com/Sriram-PR/folio/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func containsWarning(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

func TestAppConfig_Validate_Defaults(t *testing.T) {
	cfg := AppConfig{SiteURL: "https://example.com/"}
	warnings, err := cfg.Validate()

	require.NoError(t, err)

	assert.Equal(t, "https://example.com", cfg.SiteURL)
	assert.Equal(t, "example.com", cfg.SiteName)
	assert.Equal(t, 4, cfg.NumWorkers)
	assert.Equal(t, "./content", cfg.ContentDir)
	assert.Equal(t, "./public", cfg.OutputDir)
	assert.Equal(t, "./.folio_state", cfg.StateDir)
	assert.Equal(t, []string{"gfm", "footnote", "definition_list"}, cfg.MarkdownExtensions)
	assert.Equal(t, DefaultMaxLevel, cfg.TOC.MaxLevel)
	assert.Equal(t, DefaultRootMarginTop, *cfg.TOC.RootMarginTop)
	assert.Equal(t, DefaultRootMarginBottom, *cfg.TOC.RootMarginBottom)
	assert.Equal(t, DefaultThreshold, cfg.TOC.Threshold)
	assert.Equal(t, DefaultViewportHeight, cfg.Reader.ViewportHeight)
	assert.Equal(t, "cl100k_base", cfg.TokenizerEncoding)
	assert.Equal(t, 512, cfg.ChunkMaxTokens)

	assert.True(t, containsWarning(warnings, "site_name is empty"))
	assert.True(t, containsWarning(warnings, "num_workers should be > 0"))
	assert.True(t, containsWarning(warnings, "content_dir is empty"))
	assert.True(t, containsWarning(warnings, "output_dir is empty"))
	assert.True(t, containsWarning(warnings, "author is empty"))
	// state_dir only matters for incremental builds
	assert.False(t, containsWarning(warnings, "state_dir"))
}

func TestAppConfig_Validate_ValidConfig(t *testing.T) {
	cfg := AppConfig{
		SiteURL:        "https://blog.example.com",
		SiteName:       "My Blog",
		Author:         "Jane",
		ContentDir:     "/content",
		OutputDir:      "/public",
		StateDir:       "/state",
		NumWorkers:     8,
		ChunkMaxTokens: 256,
		ChunkOverlap:   32,
		TOC:            TOCConfig{MaxLevel: 2, Threshold: 0.5},
	}

	warnings, err := cfg.Validate()

	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, 8, cfg.NumWorkers)
	assert.Equal(t, "/public", cfg.OutputDir)
	assert.Equal(t, 2, cfg.TOC.MaxLevel)
	assert.Equal(t, 0.5, cfg.TOC.Threshold)
	assert.Equal(t, 32, cfg.ChunkOverlap)
}

func TestAppConfig_Validate_SiteURL(t *testing.T) {
	tests := []struct {
		name    string
		siteURL string
	}{
		{"missing", ""},
		{"relative", "/blog"},
		{"no scheme", "example.com"},
		{"ftp scheme", "ftp://example.com"},
		{"unparseable", "http://[::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := AppConfig{SiteURL: tt.siteURL}
			_, err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, utils.ErrConfigValidation)
		})
	}
}

func TestAppConfig_Validate_TOC(t *testing.T) {
	t.Run("max level out of range", func(t *testing.T) {
		cfg := AppConfig{SiteURL: "https://example.com", TOC: TOCConfig{MaxLevel: 5}}
		warnings, err := cfg.Validate()
		require.NoError(t, err)
		assert.Equal(t, 3, cfg.TOC.MaxLevel)
		assert.True(t, containsWarning(warnings, "toc.max_level 5"))
	})

	t.Run("margins leaving no zone reset", func(t *testing.T) {
		cfg := AppConfig{SiteURL: "https://example.com", TOC: TOCConfig{
			RootMarginTop:    floatPtr(-0.7),
			RootMarginBottom: floatPtr(-0.7),
		}}
		warnings, err := cfg.Validate()
		require.NoError(t, err)
		assert.Equal(t, DefaultRootMarginTop, *cfg.TOC.RootMarginTop)
		assert.Equal(t, DefaultRootMarginBottom, *cfg.TOC.RootMarginBottom)
		assert.True(t, containsWarning(warnings, "leave no trigger zone"))
	})

	t.Run("full viewport margins kept", func(t *testing.T) {
		cfg := AppConfig{SiteURL: "https://example.com", TOC: TOCConfig{
			RootMarginTop:    floatPtr(0),
			RootMarginBottom: floatPtr(0),
		}}
		warnings, err := cfg.Validate()
		require.NoError(t, err)
		assert.Equal(t, 0.0, *cfg.TOC.RootMarginTop)
		assert.False(t, containsWarning(warnings, "trigger zone"))
	})
}

func TestAppConfig_Validate_ChunkOverlap(t *testing.T) {
	cfg := AppConfig{SiteURL: "https://example.com", ChunkMaxTokens: 100, ChunkOverlap: 100}
	warnings, err := cfg.Validate()
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.ChunkOverlap)
	assert.True(t, containsWarning(warnings, "chunk_overlap (100)"))
}

func TestAppConfig_Validate_IncrementalStateDir(t *testing.T) {
	cfg := AppConfig{SiteURL: "https://example.com", Incremental: true}
	warnings, err := cfg.Validate()
	require.NoError(t, err)
	assert.True(t, containsWarning(warnings, "state_dir is empty"))
}

func TestAppConfig_Validate_ContactWithoutURL(t *testing.T) {
	cfg := AppConfig{SiteURL: "https://example.com", About: AboutConfig{
		Contacts: []Contact{{Label: "Email"}},
	}}
	warnings, err := cfg.Validate()
	require.NoError(t, err)
	assert.True(t, containsWarning(warnings, "about.contacts[0] (Email)"))
}
