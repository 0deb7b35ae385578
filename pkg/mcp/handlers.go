package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/Sriram-PR/folio/pkg/config"
	"github.com/Sriram-PR/folio/pkg/models"
	"github.com/Sriram-PR/folio/pkg/site"
	"github.com/Sriram-PR/folio/pkg/tracker"
	"github.com/Sriram-PR/folio/pkg/utils"
)

// handleListPosts handles the list_posts tool
func (s *Server) handleListPosts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.loader.LoadPosts(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load posts: %v", err)), nil
	}

	posts := make([]map[string]interface{}, 0, len(res.Posts))
	for _, p := range res.Posts {
		posts = append(posts, map[string]interface{}{
			"slug":         p.Slug,
			"title":        p.Metadata.Title,
			"published_at": p.Metadata.PublishedAt,
			"summary":      p.Metadata.Summary,
			"tags":         p.Metadata.Tags,
			"url":          site.PostURL(s.cfg.AppConfig.SiteURL, p.Slug),
			"available":    !site.Unavailable(p),
		})
	}

	result := map[string]interface{}{
		"posts": posts,
		"count": len(posts),
	}
	if len(res.Failures) > 0 {
		failed := make([]string, 0, len(res.Failures))
		for _, f := range res.Failures {
			failed = append(failed, f.Error())
		}
		result["failed"] = failed
	}
	if lastBuild := s.getLastBuildTime(); !lastBuild.IsZero() {
		result["last_build"] = lastBuild.Format(time.RFC3339)
	}

	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleSearchPosts handles the search_posts tool
func (s *Server) handleSearchPosts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := request.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("query parameter is required"), nil
	}

	maxResults := request.GetInt("max_results", 10)
	if maxResults <= 0 {
		maxResults = 10
	}
	if maxResults > 100 {
		maxResults = 100
	}

	res, err := s.loader.LoadPosts(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load posts: %v", err)), nil
	}

	queryLower := strings.ToLower(query)
	results := make([]map[string]interface{}, 0)
	for _, p := range res.Posts {
		if len(results) >= maxResults {
			break
		}

		matchLocation := ""
		if strings.Contains(strings.ToLower(p.Metadata.Title), queryLower) {
			matchLocation = "title"
		} else if rp, err := s.renderer.Render(p); err == nil && headingMatches(rp.Headings, queryLower) {
			matchLocation = "headings"
		} else if strings.Contains(strings.ToLower(p.Source), queryLower) {
			matchLocation = "content"
		}
		if matchLocation == "" {
			continue
		}

		results = append(results, map[string]interface{}{
			"slug":           p.Slug,
			"title":          p.Metadata.Title,
			"url":            site.PostURL(s.cfg.AppConfig.SiteURL, p.Slug),
			"snippet":        extractSnippet(p.Source, query, 150),
			"match_location": matchLocation,
		})
	}

	response := map[string]interface{}{
		"query":         query,
		"results":       results,
		"total_matches": len(results),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleOpenPost handles the open_post tool
func (s *Server) handleOpenPost(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug := request.GetString("slug", "")
	if slug == "" {
		return mcp.NewToolResultError("slug parameter is required"), nil
	}

	post, err := s.loader.LoadPost(ctx, slug)
	if err != nil {
		if errors.Is(err, utils.ErrPostNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("post '%s' not found", slug)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to load post '%s': %v", slug, err)), nil
	}

	rp, err := s.renderer.Render(post)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to render post '%s': %v", slug, err)), nil
	}

	sess := s.sessions.Open(rp)
	s.log.WithFields(logrus.Fields{"session": sess.ID, "slug": slug}).Debug("Opened reading session")

	result := map[string]interface{}{
		"session_id":    sess.ID,
		"slug":          sess.Slug,
		"title":         sess.Title,
		"published_at":  post.Metadata.PublishedAt,
		"heading_count": models.CountHeadings(rp.Headings),
		"outline":       sess.Outline(),
		"viewport":      viewportJSON(sess.tracker.Viewport()),
	}
	if site.Unavailable(post) {
		result["warning"] = "The content for this blog post is currently unavailable."
	}
	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleGetTOC handles the get_toc tool
func (s *Server) handleGetTOC(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := s.session(request)
	if errResult != nil {
		return errResult, nil
	}
	if request.GetBool("expand_all", false) {
		sess.ExpandAll()
	}
	return mcp.NewToolResultText(sess.Outline()), nil
}

// handleResetView handles the reset_view tool
func (s *Server) handleResetView(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := s.session(request)
	if errResult != nil {
		return errResult, nil
	}

	v := sess.ResetView()
	result := map[string]interface{}{
		"viewport": viewportJSON(v),
		"outline":  sess.Outline(),
	}
	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleToggleHeading handles the toggle_heading tool
func (s *Server) handleToggleHeading(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := s.session(request)
	if errResult != nil {
		return errResult, nil
	}
	id := request.GetString("heading_id", "")
	if id == "" {
		return mcp.NewToolResultError("heading_id parameter is required"), nil
	}

	expanded, err := sess.Toggle(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := map[string]interface{}{
		"heading_id":        id,
		"expanded":          expanded,
		"expanded_headings": sess.Expanded(),
		"outline":           sess.Outline(),
	}
	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleScrollToHeading handles the scroll_to_heading tool
func (s *Server) handleScrollToHeading(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := s.session(request)
	if errResult != nil {
		return errResult, nil
	}
	id := request.GetString("heading_id", "")
	if id == "" {
		return mcp.NewToolResultError("heading_id parameter is required"), nil
	}

	v, err := sess.ScrollTo(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := map[string]interface{}{
		"active":   sess.Active(),
		"viewport": viewportJSON(v),
		"visible":  sess.Visible(v),
	}
	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleScroll handles the scroll tool
func (s *Server) handleScroll(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := s.session(request)
	if errResult != nil {
		return errResult, nil
	}
	offset := request.GetInt("offset", 0)
	if offset < 0 {
		return mcp.NewToolResultError("offset must be >= 0"), nil
	}

	v := sess.Scroll(offset)
	result := map[string]interface{}{
		"viewport": viewportJSON(v),
		"in_zone":  sess.InZone(v),
		"visible":  sess.Visible(v),
	}
	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleGetActiveHeading handles the get_active_heading tool
func (s *Server) handleGetActiveHeading(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := s.session(request)
	if errResult != nil {
		return errResult, nil
	}

	active := sess.Active()
	result := map[string]interface{}{
		"active":   active,
		"viewport": viewportJSON(sess.tracker.Viewport()),
	}
	if h := models.FindHeading(sess.Headings(), active); h != nil {
		result["text"] = h.Text
		result["level"] = h.Level
	}
	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleReadSection handles the read_section tool
func (s *Server) handleReadSection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := s.session(request)
	if errResult != nil {
		return errResult, nil
	}
	id := request.GetString("heading_id", "")
	if id == "" {
		return mcp.NewToolResultError("heading_id parameter is required"), nil
	}

	text, err := sess.ReadSection(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

// handleClosePost handles the close_post tool
func (s *Server) handleClosePost(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := request.GetString("session_id", "")
	if id == "" {
		return mcp.NewToolResultError("session_id parameter is required"), nil
	}
	if !s.sessions.Close(id) {
		return mcp.NewToolResultError(fmt.Sprintf("session '%s' not found", id)), nil
	}

	result := map[string]interface{}{
		"session_id": id,
		"status":     "closed",
	}
	return mcp.NewToolResultText(formatJSON(result)), nil
}

// session resolves the session_id argument
func (s *Server) session(request mcp.CallToolRequest) (*Session, *mcp.CallToolResult) {
	id := request.GetString("session_id", "")
	if id == "" {
		return nil, mcp.NewToolResultError("session_id parameter is required")
	}
	sess := s.sessions.Get(id)
	if sess == nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("session '%s' not found", id))
	}
	return sess, nil
}

// getLastBuildTime reads the build end time from the manifest in the output directory
func (s *Server) getLastBuildTime() time.Time {
	metadataPath := filepath.Join(s.cfg.AppConfig.OutputDir, config.GetEffectiveMetadataYAMLFilename(*s.cfg.AppConfig))

	data, err := afero.ReadFile(s.fs, metadataPath)
	if err != nil {
		return time.Time{}
	}

	var manifest models.SiteManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return time.Time{}
	}
	return manifest.BuildEndTime
}

func headingMatches(headings []*models.Heading, queryLower string) bool {
	return !models.WalkHeadings(headings, func(h *models.Heading) bool {
		return !strings.Contains(strings.ToLower(h.Text), queryLower)
	})
}

func viewportJSON(v tracker.Viewport) map[string]interface{} {
	return map[string]interface{}{
		"offset": v.Offset,
		"height": v.Height,
	}
}

// extractSnippet extracts a snippet around the query match, slicing on rune
// boundaries so multi-byte UTF-8 characters are never split.
func extractSnippet(content, query string, maxLen int) string {
	runes := []rune(content)
	queryRunes := []rune(strings.ToLower(query))
	contentLowerRunes := []rune(strings.ToLower(content))

	idx := -1
	for i := 0; i <= len(contentLowerRunes)-len(queryRunes); i++ {
		if string(contentLowerRunes[i:i+len(queryRunes)]) == string(queryRunes) {
			idx = i
			break
		}
	}

	if idx == -1 {
		if len(runes) > maxLen {
			return string(runes[:maxLen]) + "..."
		}
		return content
	}

	start := idx - maxLen/2
	if start < 0 {
		start = 0
	}

	end := idx + len(queryRunes) + maxLen/2
	if end > len(runes) {
		end = len(runes)
	}

	snippet := string(runes[start:end])
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(runes) {
		snippet = snippet + "..."
	}

	return snippet
}

// formatJSON formats data as an indented JSON string
func formatJSON(data map[string]interface{}) string {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": "failed to marshal JSON: %v"}`, err)
	}
	return string(b)
}
