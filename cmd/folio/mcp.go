package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	flog "github.com/Sriram-PR/folio/pkg/log"
	"github.com/Sriram-PR/folio/pkg/mcp"
)

func newMcpServerCmd(fs afero.Fs, opts *globalOptions, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-server",
		Short: "Start an MCP server (stdio) for reading posts",
		Long: `Start an MCP (Model Context Protocol) server on stdio.

Available MCP Tools:
  list_posts          List published posts
  search_posts        Search titles, headings and bodies
  open_post           Open a reading session for a post
  get_toc             Show the session's table of contents
  toggle_heading      Expand or collapse a heading
  scroll_to_heading   Jump to a heading and make it active
  scroll              Move the viewport to a source line
  get_active_heading  Show the active heading
  read_section        Read one section as Markdown
  reset_view          Collapse all headings and scroll to the top
  close_post          Close a reading session`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if code := doMcpServer(fs, opts.configPath, opts.logLevel, stderr); code != 0 {
				return exitCode(code)
			}
			return nil
		},
	}
}

// doMcpServer is the testable implementation of the MCP server
func doMcpServer(fs afero.Fs, configPath, logLevel string, stderr io.Writer) int {
	// MCP protocol uses stdout, logs go to stderr
	log := flog.Setup(logLevel, stderr)

	appCfg, err := loadAndValidateConfig(fs, configPath, log)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return 1
	}

	server, err := mcp.NewServer(&mcp.ServerConfig{
		AppConfig:  appCfg,
		ConfigPath: configPath,
		Fs:         fs,
		Logger:     log,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error creating MCP server: %v\n", err)
		return 1
	}
	defer server.Shutdown(context.Background())

	if err := server.Run(); err != nil {
		fmt.Fprintf(stderr, "MCP server error: %v\n", err)
		return 1
	}
	return 0
}
