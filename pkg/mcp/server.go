package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/Sriram-PR/folio/pkg/config"
	"github.com/Sriram-PR/folio/pkg/content"
	"github.com/Sriram-PR/folio/pkg/site"
	"github.com/Sriram-PR/folio/pkg/tracker"
)

const (
	serverName    = "folio"
	serverVersion = "1.0.0"
)

// ServerConfig holds configuration for the MCP server
type ServerConfig struct {
	AppConfig  *config.AppConfig
	ConfigPath string
	Fs         afero.Fs // Defaults to the OS filesystem
	Logger     *logrus.Logger
}

// Server exposes posts as reading sessions over MCP
type Server struct {
	mcpServer *server.MCPServer
	cfg       *ServerConfig
	log       *logrus.Entry
	fs        afero.Fs
	loader    *content.Loader
	renderer  *site.Renderer
	sessions  *SessionManager
}

// NewServer creates a new MCP server instance
func NewServer(cfg *ServerConfig) (*Server, error) {
	if cfg.AppConfig == nil {
		return nil, fmt.Errorf("AppConfig is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	fs := cfg.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	log := cfg.Logger.WithField("component", "mcp")

	renderer, err := site.NewRenderer(cfg.AppConfig)
	if err != nil {
		return nil, fmt.Errorf("creating renderer: %w", err)
	}

	height := cfg.AppConfig.Reader.ViewportHeight
	if height <= 0 {
		height = config.DefaultViewportHeight
	}
	top, bottom := config.GetEffectiveRootMargins(*cfg.AppConfig)

	mcpServer := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithLogging(),
	)

	s := &Server{
		mcpServer: mcpServer,
		cfg:       cfg,
		log:       log,
		fs:        fs,
		loader:    content.NewLoader(fs, cfg.AppConfig.ContentDir, cfg.AppConfig.SiteURL, cfg.AppConfig.IncludeDrafts, log),
		renderer:  renderer,
		sessions: NewSessionManager(SessionOptions{
			Band:   tracker.Band{TopMargin: top, BottomMargin: bottom},
			Height: height,
		}),
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	sessionParam := mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("The session ID returned by open_post"),
	)
	headingParam := mcp.WithString("heading_id",
		mcp.Required(),
		mcp.Description("Heading id as shown by get_toc (e.g. 'getting-started')"),
	)

	tools := []server.ServerTool{
		{
			Tool: mcp.NewTool("list_posts",
				mcp.WithDescription("List published posts, newest first"),
			),
			Handler: s.handleListPosts,
		},
		{
			Tool: mcp.NewTool("search_posts",
				mcp.WithDescription("Search post titles, headings and bodies"),
				mcp.WithString("query",
					mcp.Required(),
					mcp.Description("Search query (case-insensitive substring match)"),
				),
				mcp.WithNumber("max_results",
					mcp.Description("Maximum number of results to return (default: 10, max: 100)"),
				),
			),
			Handler: s.handleSearchPosts,
		},
		{
			Tool: mcp.NewTool("open_post",
				mcp.WithDescription("Open a post for reading. Returns a session ID and the table of contents."),
				mcp.WithString("slug",
					mcp.Required(),
					mcp.Description("Post slug as returned by list_posts"),
				),
			),
			Handler: s.handleOpenPost,
		},
		{
			Tool: mcp.NewTool("get_toc",
				mcp.WithDescription("Show the table of contents with collapse markers and the active heading"),
				sessionParam,
				mcp.WithBoolean("expand_all",
					mcp.Description("Expand every collapsible heading first"),
				),
			),
			Handler: s.handleGetTOC,
		},
		{
			Tool: mcp.NewTool("toggle_heading",
				mcp.WithDescription("Expand or collapse a heading's subsections in the table of contents"),
				sessionParam,
				headingParam,
			),
			Handler: s.handleToggleHeading,
		},
		{
			Tool: mcp.NewTool("scroll_to_heading",
				mcp.WithDescription("Jump to a heading; it becomes active immediately"),
				sessionParam,
				headingParam,
			),
			Handler: s.handleScrollToHeading,
		},
		{
			Tool: mcp.NewTool("scroll",
				mcp.WithDescription("Move the viewport so the given source line is at the top"),
				sessionParam,
				mcp.WithNumber("offset",
					mcp.Required(),
					mcp.Description("0-based source line"),
				),
			),
			Handler: s.handleScroll,
		},
		{
			Tool: mcp.NewTool("get_active_heading",
				mcp.WithDescription("Get the heading currently marked active"),
				sessionParam,
			),
			Handler: s.handleGetActiveHeading,
		},
		{
			Tool: mcp.NewTool("read_section",
				mcp.WithDescription("Read the Markdown of one section, up to the next heading of the same or higher level"),
				sessionParam,
				headingParam,
			),
			Handler: s.handleReadSection,
		},
		{
			Tool: mcp.NewTool("reset_view",
				mcp.WithDescription("Collapse every heading, clear the active heading and scroll back to the top"),
				sessionParam,
			),
			Handler: s.handleResetView,
		},
		{
			Tool: mcp.NewTool("close_post",
				mcp.WithDescription("Close a reading session"),
				sessionParam,
			),
			Handler: s.handleClosePost,
		},
	}
	s.mcpServer.AddTools(tools...)

	s.log.Infof("Registered %d MCP tools", len(tools))
}

// Run serves MCP over stdio until stdin closes
func (s *Server) Run() error {
	s.log.Info("Starting MCP server with stdio transport")
	return server.ServeStdio(s.mcpServer)
}

// Shutdown closes every open reading session
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down MCP server...")
	s.sessions.CloseAll()
	return nil
}
