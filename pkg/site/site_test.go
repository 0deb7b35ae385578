package site

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/folio/pkg/config"
	"github.com/Sriram-PR/folio/pkg/models"
	"github.com/Sriram-PR/folio/pkg/utils"
)

func TestRoutes(t *testing.T) {
	assert.Equal(t, "/blog/hello/", PostPath("hello"))
	assert.Equal(t, "https://example.com/blog/hello", PostURL("https://example.com", "hello"))

	tests := []struct{ route, file string }{
		{HomePath, "index.html"},
		{BlogPath, "blog/index.html"},
		{PostPath("hello"), "blog/hello/index.html"},
		{TOCScript, "assets/toc.js"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.file, OutputFile(tt.route), tt.route)
	}
}

func TestImageURL(t *testing.T) {
	tests := []struct {
		name, image, title, want string
	}{
		{"site image", "/img/a.png", "T", "https://example.com/img/a.png"},
		{"absolute image", "https://cdn.example.org/a.png", "T", "https://cdn.example.org/a.png"},
		{"og fallback", "", "Hello World & Co", "https://example.com/og?title=Hello+World+%26+Co"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ImageURL("https://example.com", tt.image, tt.title))
		})
	}
}

func TestMarshalJSONLD(t *testing.T) {
	post := models.Post{
		Slug:     "hello",
		Metadata: models.PostMetadata{Title: "Hello <World>", PublishedAt: "2024-01-02", Summary: "S"},
	}
	js, err := MarshalJSONLD(NewBlogPosting("https://example.com", "Ada", post))
	require.NoError(t, err)

	out := string(js)
	assert.Contains(t, out, `"@context":"https://schema.org"`)
	assert.Contains(t, out, `"@type":"BlogPosting"`)
	assert.Contains(t, out, `"url":"https://example.com/blog/hello"`)
	assert.Contains(t, out, `"image":"https://example.com/og?title=Hello+%3CWorld%3E"`)
	assert.NotContains(t, out, "<World>")
}

func TestMarshalJSONLD_Invalid(t *testing.T) {
	bp := NewBlogPosting("https://example.com", "Ada", models.Post{
		Slug:     "x",
		Metadata: models.PostMetadata{Title: "", PublishedAt: "01/02/2024"},
	})
	_, err := MarshalJSONLD(bp)
	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrStructuredData)
	assert.Contains(t, err.Error(), "/headline")
}

func TestRobotsTxt(t *testing.T) {
	body := RobotsTxt("https://example.com", "", true)
	assert.Equal(t, "User-agent: *\nAllow: /\n\nSitemap: https://example.com/sitemap.xml\n", body)
	assert.Equal(t, "User-agent: *\nAllow: /\n", RobotsTxt("https://example.com", "", false))
	assert.Equal(t, "User-agent: *\nDisallow:\n", RobotsTxt("https://example.com", "User-agent: *\nDisallow:", true))

	blocked, err := DisallowedPaths(body, []string{"/", "/blog/a/"})
	require.NoError(t, err)
	assert.Empty(t, blocked)

	blocked, err = DisallowedPaths("User-agent: *\nDisallow: /drafts/\n", []string{"/blog/a/", "/drafts/b/"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/drafts/b/"}, blocked)
}

func TestRenderTOCScript(t *testing.T) {
	js, err := RenderTOCScript(ScriptOptions{
		RootMarginTop:    config.DefaultRootMarginTop,
		RootMarginBottom: config.DefaultRootMarginBottom,
		Threshold:        config.DefaultThreshold,
	})
	require.NoError(t, err)
	out := string(js)
	assert.Contains(t, out, `var ROOT_MARGIN = "-20% 0px -80% 0px";`)
	assert.Contains(t, out, `var THRESHOLD = 0.1;`)
	assert.Contains(t, out, "IntersectionObserver")
	// Duplicate ids are kept, so every matching link is highlighted
	assert.Contains(t, out, `toc.querySelectorAll('.toc-link[data-target="' + CSS.escape(id) + '"]').forEach(`)
}

func TestWriteFileAtomic(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, WriteFileAtomic(fs, "out/a/b.txt", []byte("one")))
	require.NoError(t, WriteFileAtomic(fs, "out/a/b.txt", []byte("two")))

	data, err := afero.ReadFile(fs, "out/a/b.txt")
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := afero.ReadDir(fs, "out/a")
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files are cleaned up")
}

func TestWriteFileAtomic_ReadOnly(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	err := WriteFileAtomic(fs, "out/x.txt", []byte("x"))
	assert.ErrorIs(t, err, utils.ErrFilesystem)
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "January 2, 2006", FormatDate("2006-01-02"))
	assert.Equal(t, "December 31, 2024", FormatDate("2024-12-31"))
	assert.Equal(t, "not a date", FormatDate("not a date"))
}

func TestReadingMinutes(t *testing.T) {
	assert.Equal(t, 0, ReadingMinutes("   "))
	assert.Equal(t, 1, ReadingMinutes("a few words"))
	assert.Equal(t, 2, ReadingMinutes(strings.Repeat("word ", 201)))
}

func TestContactViews(t *testing.T) {
	views := contactViews([]config.Contact{
		{Label: "LinkedIn", URL: "https://linkedin.com/in/ada"},
		{Label: "Mail", URL: "MAILTO:ada@example.com"},
		{Label: "Broken"},
		{URL: "https://example.org"},
	})
	require.Len(t, views, 3)
	assert.Equal(t, "LinkedIn Profile", views[0].AriaLabel)
	assert.True(t, views[0].External)
	assert.Equal(t, "Email Me", views[1].AriaLabel)
	assert.False(t, views[1].External)
	assert.Equal(t, "https://example.org", views[2].Label)
}

func TestPostHash(t *testing.T) {
	a := models.Post{Slug: "a", Source: "body", Metadata: models.PostMetadata{Title: "T"}}
	b := a
	b.Metadata.Title = "U"
	assert.Equal(t, PostHash(a), PostHash(a))
	assert.NotEqual(t, PostHash(a), PostHash(b))
}
