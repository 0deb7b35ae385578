package mcp

import (
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/folio/pkg/config"
)

func TestExtractSnippet(t *testing.T) {
	tests := []struct {
		name    string
		content string
		query   string
		maxLen  int
		wantHas string // substring that must appear
		wantPfx string // expected prefix (if any)
		wantSfx string // expected suffix (if any)
	}{
		{
			name:    "match in middle with ellipsis",
			content: "The quick brown fox jumps over the lazy dog and then keeps running forever",
			query:   "jumps",
			maxLen:  20,
			wantHas: "jumps",
			wantPfx: "...",
			wantSfx: "...",
		},
		{
			name:    "match at start",
			content: "Hello world this is a test",
			query:   "Hello",
			maxLen:  20,
			wantHas: "Hello",
		},
		{
			name:    "match at end",
			content: "This is a very long string that ends with target",
			query:   "target",
			maxLen:  20,
			wantHas: "target",
		},
		{
			name:    "no match truncated beginning",
			content: "abcdefghijklmnopqrstuvwxyz",
			query:   "zzz",
			maxLen:  10,
			wantHas: "abcdefghij",
			wantSfx: "...",
		},
		{
			name:    "short content returned as-is",
			content: "hi",
			query:   "missing",
			maxLen:  100,
			wantHas: "hi",
		},
		{
			name:    "empty content",
			content: "",
			query:   "test",
			maxLen:  50,
			wantHas: "",
		},
		{
			name:    "case insensitive",
			content: "The Quick Brown Fox",
			query:   "quick",
			maxLen:  100,
			wantHas: "Quick",
		},
		{
			name:    "unicode safety",
			content: "こんにちは世界、テストです。Unicode文字列のテスト。",
			query:   "テスト",
			maxLen:  15,
			wantHas: "テスト",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractSnippet(tt.content, tt.query, tt.maxLen)
			if tt.wantHas != "" {
				assert.Contains(t, got, tt.wantHas)
			}
			if tt.wantPfx != "" {
				assert.Contains(t, got, tt.wantPfx, "expected prefix ellipsis")
			}
			if tt.wantSfx != "" {
				assert.True(t, len(got) > 0 && got[len(got)-3:] == "...", "expected suffix ellipsis")
			}
		})
	}
}

const guidePost = `---
title: Reading Guide
publishedAt: 2024-05-01
summary: How to read a long post.
tags: [docs]
---
# Guide

Intro text.

## Setup

Install it.

### Linux

apt install folio.

## Usage

Run it.

# Appendix

Extra notes.
`

const shortPost = `---
title: Short Note
publishedAt: 2024-02-01
summary: Nothing much.
---
Just a paragraph about linux kernels.
`

const emptyPost = `---
title: Coming Soon
publishedAt: 2024-01-01
summary: Placeholder.
---
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, body := range map[string]string{
		"guide.md":       guidePost,
		"short-note.md":  shortPost,
		"coming-soon.md": emptyPost,
	} {
		require.NoError(t, afero.WriteFile(fs, filepath.Join("content", "posts", name), []byte(body), 0o644))
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	s, err := NewServer(&ServerConfig{
		AppConfig: &config.AppConfig{
			SiteURL:    "https://example.com",
			SiteName:   "Example",
			Author:     "Jane Doe",
			ContentDir: "content",
			OutputDir:  "public",
			Reader:     config.ReaderConfig{ViewportHeight: 10},
		},
		Fs:     fs,
		Logger: logger,
	})
	require.NoError(t, err)
	t.Cleanup(s.sessions.CloseAll)
	return s
}

func toolRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return tc.Text
}

func decodeResult(t *testing.T, res *mcp.CallToolResult) map[string]any {
	t.Helper()
	require.False(t, res.IsError, resultText(t, res))
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	return out
}

func openGuide(t *testing.T, s *Server) string {
	t.Helper()
	res, err := s.handleOpenPost(context.Background(), toolRequest(map[string]any{"slug": "guide"}))
	require.NoError(t, err)
	out := decodeResult(t, res)
	id, ok := out["session_id"].(string)
	require.True(t, ok)
	return id
}

func TestHandleListPosts(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleListPosts(context.Background(), toolRequest(nil))
	require.NoError(t, err)
	out := decodeResult(t, res)

	assert.EqualValues(t, 3, out["count"])
	posts := out["posts"].([]any)
	require.Len(t, posts, 3)

	first := posts[0].(map[string]any)
	assert.Equal(t, "guide", first["slug"])
	assert.Equal(t, "Reading Guide", first["title"])
	assert.Equal(t, "https://example.com/blog/guide", first["url"])
	assert.Equal(t, true, first["available"])

	last := posts[2].(map[string]any)
	assert.Equal(t, "coming-soon", last["slug"])
	assert.Equal(t, false, last["available"])
	assert.NotContains(t, out, "last_build")
}

func TestHandleListPosts_LastBuild(t *testing.T) {
	s := newTestServer(t)
	manifest := "build_id: x\nbuild_end_time: 2024-06-01T10:00:00Z\n"
	require.NoError(t, afero.WriteFile(s.fs, filepath.Join("public", "metadata.yaml"), []byte(manifest), 0o644))

	res, err := s.handleListPosts(context.Background(), toolRequest(nil))
	require.NoError(t, err)
	out := decodeResult(t, res)
	assert.Equal(t, "2024-06-01T10:00:00Z", out["last_build"])
}

func TestHandleSearchPosts(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	t.Run("missing query", func(t *testing.T) {
		res, err := s.handleSearchPosts(ctx, toolRequest(map[string]any{}))
		require.NoError(t, err)
		assert.True(t, res.IsError)
	})

	t.Run("matches headings before content", func(t *testing.T) {
		res, err := s.handleSearchPosts(ctx, toolRequest(map[string]any{"query": "LINUX"}))
		require.NoError(t, err)
		out := decodeResult(t, res)
		results := out["results"].([]any)
		require.Len(t, results, 2)
		assert.Equal(t, "guide", results[0].(map[string]any)["slug"])
		assert.Equal(t, "headings", results[0].(map[string]any)["match_location"])
		assert.Equal(t, "short-note", results[1].(map[string]any)["slug"])
		assert.Equal(t, "content", results[1].(map[string]any)["match_location"])
	})

	t.Run("title match and limit", func(t *testing.T) {
		res, err := s.handleSearchPosts(ctx, toolRequest(map[string]any{"query": "e", "max_results": 1}))
		require.NoError(t, err)
		out := decodeResult(t, res)
		results := out["results"].([]any)
		require.Len(t, results, 1)
		assert.Equal(t, "title", results[0].(map[string]any)["match_location"])
	})
}

func TestHandleOpenPost(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	t.Run("opens a session", func(t *testing.T) {
		res, err := s.handleOpenPost(ctx, toolRequest(map[string]any{"slug": "guide"}))
		require.NoError(t, err)
		out := decodeResult(t, res)

		assert.NotEmpty(t, out["session_id"])
		assert.Equal(t, "Reading Guide", out["title"])
		assert.EqualValues(t, 5, out["heading_count"])
		outline := out["outline"].(string)
		assert.Contains(t, outline, "[+] Guide")
		assert.Contains(t, outline, "Appendix")
		assert.NotContains(t, outline, "Setup")
		assert.NotContains(t, out, "warning")
		assert.Len(t, s.sessions.List(), 1)
	})

	t.Run("unavailable post warns", func(t *testing.T) {
		res, err := s.handleOpenPost(ctx, toolRequest(map[string]any{"slug": "coming-soon"}))
		require.NoError(t, err)
		out := decodeResult(t, res)
		assert.Contains(t, out["warning"], "currently unavailable")
		assert.Contains(t, out["outline"], "No headings found in this post.")
	})

	t.Run("unknown slug", func(t *testing.T) {
		res, err := s.handleOpenPost(ctx, toolRequest(map[string]any{"slug": "nope"}))
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), "post 'nope' not found")
	})

	t.Run("missing slug", func(t *testing.T) {
		res, err := s.handleOpenPost(ctx, toolRequest(map[string]any{}))
		require.NoError(t, err)
		assert.True(t, res.IsError)
	})
}

func TestHandleToggleAndTOC(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	id := openGuide(t, s)

	res, err := s.handleToggleHeading(ctx, toolRequest(map[string]any{"session_id": id, "heading_id": "guide"}))
	require.NoError(t, err)
	out := decodeResult(t, res)
	assert.Equal(t, true, out["expanded"])
	assert.Equal(t, []any{"guide"}, out["expanded_headings"])

	res, err = s.handleGetTOC(ctx, toolRequest(map[string]any{"session_id": id}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	outline := resultText(t, res)
	assert.Contains(t, outline, "[-] Guide")
	assert.Contains(t, outline, "[+] Setup")
	assert.Contains(t, outline, "Usage")
	assert.NotContains(t, outline, "Linux")

	res, err = s.handleToggleHeading(ctx, toolRequest(map[string]any{"session_id": id, "heading_id": "missing"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "heading not found")
}

func TestHandleGetTOC_ExpandAllAndReset(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	id := openGuide(t, s)

	res, err := s.handleGetTOC(ctx, toolRequest(map[string]any{"session_id": id, "expand_all": true}))
	require.NoError(t, err)
	outline := resultText(t, res)
	assert.Contains(t, outline, "[-] Guide")
	assert.Contains(t, outline, "[-] Setup")
	assert.Contains(t, outline, "Linux (#linux)")

	_, err = s.handleScrollToHeading(ctx, toolRequest(map[string]any{"session_id": id, "heading_id": "appendix"}))
	require.NoError(t, err)

	res, err = s.handleResetView(ctx, toolRequest(map[string]any{"session_id": id}))
	require.NoError(t, err)
	out := decodeResult(t, res)
	assert.EqualValues(t, 0, out["viewport"].(map[string]any)["offset"])
	assert.Contains(t, out["outline"], "[+] Guide")
	assert.NotContains(t, out["outline"], "* Appendix")
}

func TestHandleScrollToHeading(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	id := openGuide(t, s)

	res, err := s.handleScrollToHeading(ctx, toolRequest(map[string]any{"session_id": id, "heading_id": "usage"}))
	require.NoError(t, err)
	out := decodeResult(t, res)
	assert.Equal(t, "usage", out["active"])
	assert.True(t, len(out["visible"].(string)) > 0)
	assert.Contains(t, out["visible"], "## Usage")

	res, err = s.handleGetActiveHeading(ctx, toolRequest(map[string]any{"session_id": id}))
	require.NoError(t, err)
	out = decodeResult(t, res)
	assert.Equal(t, "usage", out["active"])
	assert.Equal(t, "Usage", out["text"])
	assert.EqualValues(t, 2, out["level"])

	res, err = s.handleScrollToHeading(ctx, toolRequest(map[string]any{"session_id": id, "heading_id": "missing"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestHandleScroll(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	id := openGuide(t, s)
	sess := s.sessions.Get(id)
	require.NotNil(t, sess)

	line, ok := sess.layout.Line("appendix")
	require.True(t, ok)
	// The default zone is the line 20% down a 10-line viewport
	offset := line - 2

	res, err := s.handleScroll(ctx, toolRequest(map[string]any{"session_id": id, "offset": offset}))
	require.NoError(t, err)
	out := decodeResult(t, res)
	assert.Equal(t, []any{"appendix"}, out["in_zone"])
	assert.Contains(t, out["visible"], "# Appendix")

	require.Eventually(t, func() bool { return sess.Active() == "appendix" }, time.Second, 5*time.Millisecond)

	res, err = s.handleScroll(ctx, toolRequest(map[string]any{"session_id": id, "offset": -1}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestHandleReadSection(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	id := openGuide(t, s)

	res, err := s.handleReadSection(ctx, toolRequest(map[string]any{"session_id": id, "heading_id": "setup"}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	text := resultText(t, res)
	assert.True(t, len(text) > 0 && text[:8] == "## Setup", text)
	assert.Contains(t, text, "apt install folio.")
	assert.NotContains(t, text, "## Usage")

	res, err = s.handleReadSection(ctx, toolRequest(map[string]any{"session_id": id, "heading_id": "missing"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestHandleClosePost(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	id := openGuide(t, s)

	res, err := s.handleClosePost(ctx, toolRequest(map[string]any{"session_id": id}))
	require.NoError(t, err)
	out := decodeResult(t, res)
	assert.Equal(t, "closed", out["status"])
	assert.Empty(t, s.sessions.List())

	for _, handler := range []func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		s.handleClosePost, s.handleGetTOC, s.handleGetActiveHeading,
	} {
		res, err := handler(ctx, toolRequest(map[string]any{"session_id": id}))
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), "not found")
	}
}

func TestShutdownClosesSessions(t *testing.T) {
	s := newTestServer(t)
	openGuide(t, s)
	openGuide(t, s)
	require.Len(t, s.sessions.List(), 2)

	require.NoError(t, s.Shutdown(context.Background()))
	assert.Empty(t, s.sessions.List())
}

func TestFormatJSON(t *testing.T) {
	assert.Equal(t, "{\n  \"a\": 1\n}", formatJSON(map[string]interface{}{"a": 1}))
	assert.Contains(t, formatJSON(map[string]interface{}{"bad": make(chan int)}), "failed to marshal JSON")
}
