package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Sriram-PR/folio/pkg/config"
	"github.com/Sriram-PR/folio/pkg/content"
	flog "github.com/Sriram-PR/folio/pkg/log"
	"github.com/Sriram-PR/folio/pkg/models"
	"github.com/Sriram-PR/folio/pkg/parse"
	"github.com/Sriram-PR/folio/pkg/process"
	"github.com/Sriram-PR/folio/pkg/site"
	"github.com/Sriram-PR/folio/pkg/storage"
	"github.com/Sriram-PR/folio/pkg/toc"
	"github.com/Sriram-PR/folio/pkg/utils"
	"github.com/Sriram-PR/folio/pkg/watch"
)

const version = "1.0.0"

// exitCode carries a non-zero exit status out of a command without printing it as an error
type exitCode int

func (e exitCode) Error() string { return fmt.Sprintf("exit status %d", int(e)) }

// globalOptions are the persistent flags shared by every command
type globalOptions struct {
	configPath string
	logLevel   string
}

func main() {
	os.Exit(run(os.Args[1:], afero.NewOsFs(), os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code
func run(args []string, fs afero.Fs, stdout, stderr io.Writer) int {
	root := newRootCmd(fs, stdout, stderr)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		var code exitCode
		if errors.As(err, &code) {
			return int(code)
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(fs afero.Fs, stdout, stderr io.Writer) *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "folio",
		Short:         "folio - static blog generator with a navigable table of contents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&opts.configPath, "config", "folio.yaml", "Path to config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "loglevel", "info", "Log level (debug, info, warn, error, fatal)")

	root.AddCommand(
		newBuildCmd(fs, opts, stdout, stderr),
		newValidateCmd(fs, opts, stdout, stderr),
		newListPostsCmd(fs, opts, stdout, stderr),
		newTOCCmd(fs, opts, stdout, stderr),
		newWatchCmd(fs, opts, stderr),
		newMcpServerCmd(fs, opts, stderr),
		&cobra.Command{
			Use:   "version",
			Short: "Show version info",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(stdout, "folio %s\n", version)
			},
		},
	)
	return root
}

// loadConfig loads and parses the config file
func loadConfig(fs afero.Fs, path string) (*config.AppConfig, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg config.AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

// loadAndValidateConfig loads the config file, applies defaults and logs warnings
func loadAndValidateConfig(fs afero.Fs, path string, log *logrus.Logger) (*config.AppConfig, error) {
	log.Infof("Loading configuration from %s", path)
	cfg, err := loadConfig(fs, path)
	if err != nil {
		return nil, err
	}
	warnings, err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		log.Warn(w)
	}
	return cfg, nil
}

func newBuildCmd(fs afero.Fs, opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	var incremental, full, drafts bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Render the site into output_dir",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := flog.Setup(opts.logLevel, stderr)
			cfg, err := loadAndValidateConfig(fs, opts.configPath, log)
			if err != nil {
				return err
			}
			if incremental {
				cfg.Incremental = true
				log.Info("Incremental mode enabled via CLI flag")
			}
			if full {
				cfg.Incremental = false
				log.Info("Full build forced via CLI flag")
			}
			if drafts {
				cfg.IncludeDrafts = true
			}
			return doBuild(ctx, fs, cfg, log, stdout)
		},
	}
	cmd.Flags().BoolVar(&incremental, "incremental", false, "Skip posts unchanged since the last build")
	cmd.Flags().BoolVar(&full, "full", false, "Force a full build (ignore incremental settings)")
	cmd.Flags().BoolVar(&drafts, "drafts", false, "Include posts marked draft")
	return cmd
}

// runBuild runs one build, opening the build cache when the build is incremental
func runBuild(ctx context.Context, fs afero.Fs, cfg *config.AppConfig, log *logrus.Logger) (*site.BuildResult, error) {
	var cache storage.BuildCache
	if cfg.Incremental {
		log.Info("Incremental build: ENABLED - unchanged posts are not rewritten")
		store, err := storage.NewBadgerStore(cfg.StateDir, cfg.SiteName, true, log.WithField("component", "storage"))
		if err != nil {
			return nil, err
		}
		defer store.Close()
		cache = store
	}

	loader := content.NewLoader(fs, cfg.ContentDir, cfg.SiteURL, cfg.IncludeDrafts, log.WithField("component", "content"))
	builder, err := site.NewBuilder(cfg, fs, loader, cache, log.WithField("component", "build"))
	if err != nil {
		return nil, err
	}
	return builder.Build(ctx)
}

// doBuild runs one build and prints the summary. Any failed post makes it return exit status 1.
func doBuild(ctx context.Context, fs afero.Fs, cfg *config.AppConfig, log *logrus.Logger, stdout io.Writer) error {
	result, err := runBuild(ctx, fs, cfg, log)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn("Build interrupted")
		}
		return err
	}

	fmt.Fprintf(stdout, "Built %d posts into %s (%d skipped, %d failed, %d drafts)\n",
		result.Manifest.TotalPosts, cfg.OutputDir, result.Skipped, len(result.Failures), result.Drafts)
	for _, w := range result.Warnings {
		fmt.Fprintf(stdout, "WARN: %s\n", w)
	}
	for _, f := range result.Failures {
		fmt.Fprintf(stdout, "FAIL: [%s] %v\n", utils.CategorizeError(f.Err), f)
	}
	if len(result.Failures) > 0 {
		return exitCode(1)
	}
	return nil
}

func newWatchCmd(fs afero.Fs, opts *globalOptions, stderr io.Writer) *cobra.Command {
	var interval string
	var drafts bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild incrementally whenever content or config changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := flog.Setup(opts.logLevel, stderr)
			every, err := watch.ParseInterval(interval)
			if err != nil {
				return err
			}
			cfg, err := loadAndValidateConfig(fs, opts.configPath, log)
			if err != nil {
				return err
			}

			// Config is reloaded for every build so edits to it take effect
			build := func(ctx context.Context) (*site.BuildResult, error) {
				cfg, err := loadAndValidateConfig(fs, opts.configPath, log)
				if err != nil {
					return nil, err
				}
				cfg.Incremental = true
				cfg.IncludeDrafts = cfg.IncludeDrafts || drafts
				return runBuild(ctx, fs, cfg, log)
			}

			scheduler := watch.NewScheduler(fs, cfg.StateDir, []string{cfg.ContentDir, opts.configPath},
				every, build, log.WithField("component", "watch"))
			if err := scheduler.Run(ctx); err != nil {
				return err
			}
			log.Info("Watch mode stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&interval, "interval", "2s", "Polling interval (e.g., 2s, 30s, 5m)")
	cmd.Flags().BoolVar(&drafts, "drafts", false, "Include posts marked draft")
	return cmd
}

func newValidateCmd(fs afero.Fs, opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file and post front matter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if code := doValidate(cmd.Context(), fs, opts.configPath, stdout, stderr); code != 0 {
				return exitCode(code)
			}
			return nil
		},
	}
}

// doValidate performs validation and writes output to provided writers.
// Returns exit code (0 = success, 1 = error).
func doValidate(ctx context.Context, fs afero.Fs, configPath string, stdout, stderr io.Writer) int {
	cfg, err := loadConfig(fs, configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	warnings, err := cfg.Validate()
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 1
	}
	for _, w := range warnings {
		fmt.Fprintf(stdout, "WARN: %s\n", w)
	}

	loader := content.NewLoader(fs, cfg.ContentDir, cfg.SiteURL, cfg.IncludeDrafts, flog.Discard())
	res, err := loader.LoadPosts(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 1
	}
	for _, f := range res.Failures {
		fmt.Fprintf(stderr, "ERROR: [%s] %v\n", f.Path, f.Err)
	}
	failed := len(res.Failures) > 0

	renderer, err := site.NewRenderer(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 1
	}
	for _, p := range res.Posts {
		if site.Unavailable(p) {
			fmt.Fprintf(stdout, "WARN: [%s] has no content\n", p.SourcePath)
			continue
		}
		rp, err := renderer.Render(p)
		if err != nil {
			fmt.Fprintf(stderr, "ERROR: [%s] %v\n", p.SourcePath, err)
			failed = true
			continue
		}
		// Raw HTML headings only show up in the rendered page
		if cfg.TOC.MaxLevel == config.DefaultMaxLevel {
			tree, err := process.ExtractHeadingTree(rp.HTML)
			if err == nil && models.CountHeadings(tree) != models.CountHeadings(rp.Headings) {
				fmt.Fprintf(stdout, "WARN: [%s] page has %d headings but the table of contents lists %d\n",
					p.SourcePath, models.CountHeadings(tree), models.CountHeadings(rp.Headings))
			}
		}
	}
	if failed {
		return 1
	}

	fmt.Fprintf(stdout, "OK: %d posts\n", len(res.Posts))

	if code := validateBuiltSitemap(fs, cfg, stdout, stderr); code != 0 {
		return code
	}

	fmt.Fprintln(stdout, "\nConfiguration valid.")
	return 0
}

// validateBuiltSitemap checks the sitemap of a previous build, when there is one
func validateBuiltSitemap(fs afero.Fs, cfg *config.AppConfig, stdout, stderr io.Writer) int {
	path := filepath.Join(cfg.OutputDir, "sitemap.xml")
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return 0
	}

	set, err := parse.ParseURLSet(data)
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: [%s] %v\n", path, err)
		return 1
	}
	base, _ := parse.ParseSiteURL(cfg.SiteURL)
	for _, u := range set.URLs {
		loc, err := url.Parse(u.Loc)
		if err != nil || !parse.SameSite(base, loc) {
			fmt.Fprintf(stdout, "WARN: [%s] %s is outside site_url (rebuild to refresh)\n", path, u.Loc)
		}
	}
	fmt.Fprintf(stdout, "OK: %s lists %d URLs\n", path, len(set.URLs))
	return 0
}

func newListPostsCmd(fs afero.Fs, opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "list-posts",
		Short: "List posts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if code := doListPosts(cmd.Context(), fs, opts.configPath, stdout, stderr); code != 0 {
				return exitCode(code)
			}
			return nil
		},
	}
}

// doListPosts lists posts and writes output to provided writers.
// Returns exit code (0 = success, 1 = error).
func doListPosts(ctx context.Context, fs afero.Fs, configPath string, stdout, stderr io.Writer) int {
	cfg, err := loadConfig(fs, configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if _, err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	loader := content.NewLoader(fs, cfg.ContentDir, cfg.SiteURL, cfg.IncludeDrafts, flog.Discard())
	res, err := loader.LoadPosts(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "Posts in %s:\n\n", cfg.ContentDir)
	for _, p := range res.Posts {
		fmt.Fprintf(stdout, "  %s\n", p.Slug)
		fmt.Fprintf(stdout, "    Title: %s\n", p.Metadata.Title)
		fmt.Fprintf(stdout, "    Published: %s\n", site.FormatDate(p.Metadata.PublishedAt))
		if len(p.Metadata.Tags) > 0 {
			fmt.Fprintf(stdout, "    Tags: %s\n", strings.Join(p.Metadata.Tags, ", "))
		}
		if p.Metadata.Draft {
			fmt.Fprintln(stdout, "    Draft: yes")
		}
		fmt.Fprintln(stdout)
	}
	for _, f := range res.Failures {
		fmt.Fprintf(stderr, "Skipped %s: %v\n", f.Path, f.Err)
	}
	return 0
}

func newTOCCmd(fs afero.Fs, opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "toc <slug>",
		Short: "Print a post's table of contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if code := doTOC(cmd.Context(), fs, opts.configPath, args[0], stdout, stderr); code != 0 {
				return exitCode(code)
			}
			return nil
		},
	}
}

// doTOC prints the fully expanded outline of one post.
// Returns exit code (0 = success, 1 = error).
func doTOC(ctx context.Context, fs afero.Fs, configPath, slug string, stdout, stderr io.Writer) int {
	cfg, err := loadConfig(fs, configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if _, err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	loader := content.NewLoader(fs, cfg.ContentDir, cfg.SiteURL, cfg.IncludeDrafts, flog.Discard())
	post, err := loader.LoadPost(ctx, slug)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	renderer, err := site.NewRenderer(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	rp, err := renderer.Render(post)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "%s\n\n", post.Metadata.Title)
	if err := toc.WriteOutline(stdout, rp.Headings, nil); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
