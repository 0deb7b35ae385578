package site

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/Sriram-PR/folio/pkg/config"
	"github.com/Sriram-PR/folio/pkg/content"
	"github.com/Sriram-PR/folio/pkg/models"
	"github.com/Sriram-PR/folio/pkg/process"
	"github.com/Sriram-PR/folio/pkg/sitemap"
	"github.com/Sriram-PR/folio/pkg/storage"
	"github.com/Sriram-PR/folio/pkg/toc"
	"github.com/Sriram-PR/folio/pkg/utils"
)

const (
	homePostCount = 5
	builtLogName  = "built.log"
	gcInterval    = 5 * time.Minute
)

// BuildResult summarizes a site build
type BuildResult struct {
	Manifest *models.SiteManifest
	Failures []content.PostError // Posts that failed to load or render
	Skipped  int                 // Posts unchanged since the last incremental build
	Drafts   int
	Warnings []string
}

// Builder renders the whole site into the output filesystem
type Builder struct {
	cfg       *config.AppConfig
	fs        afero.Fs
	loader    *content.Loader
	renderer  *Renderer
	templates *Templates
	cache     storage.BuildCache // nil unless incremental builds are enabled
	log       *logrus.Entry

	mu       sync.Mutex
	failures []content.PostError
	warnings []string
	skipped  int
}

// NewBuilder wires a Builder. cache may be nil.
func NewBuilder(cfg *config.AppConfig, fs afero.Fs, loader *content.Loader, cache storage.BuildCache, log *logrus.Entry) (*Builder, error) {
	renderer, err := NewRenderer(cfg)
	if err != nil {
		return nil, err
	}
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}
	return &Builder{
		cfg:       cfg,
		fs:        fs,
		loader:    loader,
		renderer:  renderer,
		templates: templates,
		cache:     cache,
		log:       log,
	}, nil
}

// Build loads every post, renders the pages in parallel and writes the
// auxiliary outputs. Single post failures are collected in the result and do
// not stop the build.
func (b *Builder) Build(ctx context.Context) (*BuildResult, error) {
	b.failures, b.warnings, b.skipped = nil, nil, 0

	loaded, err := b.loader.LoadPosts(ctx)
	if err != nil {
		return nil, err
	}
	b.failures = append(b.failures, loaded.Failures...)
	posts := loaded.Posts

	if b.cache != nil {
		gcCtx, stopGC := context.WithCancel(ctx)
		defer stopGC()
		go b.cache.RunGC(gcCtx, gcInterval)
	}

	om := NewOutputManager(b.fs, b.cfg, b.log.WithField("component", "output"))
	b.log.Infof("Build %s: rendering %d posts with %d workers", om.BuildID(), len(posts), b.cfg.NumWorkers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(b.cfg.NumWorkers, 1))
	for i := range posts {
		post := posts[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			b.buildPost(posts, post, om)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := b.writeIndexPages(posts, om); err != nil {
		return nil, err
	}
	if err := b.writeSiteFiles(posts); err != nil {
		return nil, err
	}

	b.syncCache(ctx, posts)

	manifest, err := om.Close(len(b.failures), b.skipped)
	if err != nil {
		return nil, err
	}

	return &BuildResult{
		Manifest: manifest,
		Failures: b.failures,
		Skipped:  b.skipped,
		Drafts:   loaded.Drafts,
		Warnings: b.warnings,
	}, nil
}

func (b *Builder) fail(post models.Post, err error, log *logrus.Entry) {
	category := utils.CategorizeError(err)
	log.WithField("category", category).Errorf("Failed to build post: %v", err)

	b.mu.Lock()
	b.failures = append(b.failures, content.PostError{Path: post.SourcePath, Err: err})
	b.mu.Unlock()

	if b.cache != nil {
		entry := &models.PostDBEntry{Status: models.PostStatusFailure, ErrorType: category, LastAttempt: time.Now()}
		if cacheErr := b.cache.UpdatePostStatus(post.Slug, entry); cacheErr != nil {
			log.Warnf("Failed to record failure in build cache: %v", cacheErr)
		}
	}
}

func (b *Builder) warn(log *logrus.Entry, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Warn(msg)
	b.mu.Lock()
	b.warnings = append(b.warnings, msg)
	b.mu.Unlock()
}

// buildPost renders and writes one post page and records its outputs
func (b *Builder) buildPost(posts []models.Post, post models.Post, om *OutputManager) {
	log := b.log.WithField("slug", post.Slug)
	route := PostPath(post.Slug)
	outPath := filepath.Join(b.cfg.OutputDir, OutputFile(route))

	rp, err := b.renderer.Render(post)
	if err != nil {
		b.fail(post, err, log)
		return
	}
	if Unavailable(post) {
		b.warn(log, "Post '%s' has no content; rendering the unavailable notice", post.Slug)
	}

	older, newer := content.Neighbors(posts, post.Slug)
	pageHash := utils.CalculateContentHash(rp.ContentHash, neighborKey(older), neighborKey(newer),
		b.cfg.SiteURL, b.cfg.SiteName, b.cfg.Author)

	if broken, err := process.BrokenFragmentLinks(rp.HTML); err == nil {
		for _, id := range broken {
			b.warn(log, "Post '%s' links to missing anchor '#%s'", post.Slug, id)
		}
	}

	skip := false
	if b.cache != nil {
		unchanged, err := b.cache.ShouldSkip(post.Slug, pageHash)
		if err != nil {
			log.Warnf("Build cache lookup failed, rebuilding: %v", err)
		}
		exists, _ := afero.Exists(b.fs, outPath)
		skip = unchanged && exists
	}

	if skip {
		log.Debug("Unchanged since last build, skipping page write")
		b.mu.Lock()
		b.skipped++
		b.mu.Unlock()
	} else {
		page, err := b.renderPostPage(rp, older, newer)
		if err != nil {
			b.fail(post, err, log)
			return
		}
		if err := WriteFileAtomic(b.fs, outPath, page); err != nil {
			b.fail(post, err, log)
			return
		}
		if b.cache != nil {
			now := time.Now()
			entry := &models.PostDBEntry{Status: models.PostStatusSuccess, ContentHash: pageHash, BuiltAt: now, LastAttempt: now}
			if err := b.cache.UpdatePostStatus(post.Slug, entry); err != nil {
				log.Warnf("Failed to record build in cache: %v", err)
			}
		}
	}

	postURL := PostURL(b.cfg.SiteURL, post.Slug)
	om.RecordPage(models.PageManifest{
		URL:           postURL,
		LocalFilePath: OutputFile(route),
		Title:         post.Metadata.Title,
		Slug:          post.Slug,
		PublishedAt:   post.Metadata.PublishedAt,
		ContentHash:   rp.ContentHash,
		HeadingCount:  models.CountHeadings(rp.Headings),
		TokenCount:    rp.TokenCount,
		Tags:          post.Metadata.Tags,
	})

	var chunks []models.ChunkJSONL
	if config.GetEffectiveEnableChunksJSONL(*b.cfg) && !Unavailable(post) {
		chunks, err = b.renderer.Chunks(rp, postURL)
		if err != nil {
			b.warn(log, "Skipping chunks for '%s': %v", post.Slug, err)
		}
	}
	om.RecordPost(models.PostJSONL{
		URL:         postURL,
		Slug:        post.Slug,
		Title:       post.Metadata.Title,
		Summary:     post.Metadata.Summary,
		PublishedAt: post.Metadata.PublishedAt,
		Tags:        post.Metadata.Tags,
		Content:     post.Source,
		Headings:    rp.Headings,
		ContentHash: rp.ContentHash,
		TokenCount:  rp.TokenCount,
	}, chunks)
}

func neighborKey(p *models.Post) string {
	if p == nil {
		return ""
	}
	return p.Slug + "\x00" + p.Metadata.Title
}

// renderPostPage renders the HTML page of a post with a fresh, collapsed TOC
func (b *Builder) renderPostPage(rp *models.RenderedPost, older, newer *models.Post) ([]byte, error) {
	post := rp.Post
	bp := NewBlogPosting(b.cfg.SiteURL, b.cfg.Author, post)
	jsonLD, err := MarshalJSONLD(bp)
	if err != nil {
		return nil, err
	}

	tocHTML, err := toc.RenderHTML(rp.Headings, toc.NewState(), toc.Options{KeepCollapsed: true})
	if err != nil {
		return nil, err
	}

	view := postView{
		Title:          post.Metadata.Title,
		PublishedAt:    post.Metadata.PublishedAt,
		DateText:       FormatDate(post.Metadata.PublishedAt),
		ReadingMinutes: ReadingMinutes(post.Source),
		Tags:           post.Metadata.Tags,
		TOC:            tocHTML,
		// Rendered by goldmark; raw HTML only passes through with unsafe_html
		Content:     template.HTML(rp.HTML),
		Unavailable: Unavailable(post),
		Newer:       linkFor(newer),
		Older:       linkFor(older),
	}

	return b.templates.render(pagePost, layoutData{
		Title:       post.Metadata.Title + " | " + b.cfg.SiteName,
		Description: post.Metadata.Summary,
		Canonical:   bp.URL,
		SiteName:    b.cfg.SiteName,
		JSONLD:      jsonLD,
		Script:      true,
		Body:        view,
	})
}

// writeIndexPages writes the home, blog index and about pages
func (b *Builder) writeIndexPages(posts []models.Post, om *OutputManager) error {
	links := make([]postLink, 0, len(posts))
	for i := range posts {
		links = append(links, *linkFor(&posts[i]))
	}

	home := links
	if len(home) > homePostCount {
		home = home[:homePostCount]
	}
	if err := b.writePage(HomePath, pageIndex, om, layoutData{
		Title:       b.cfg.SiteName,
		Description: b.cfg.Description,
		Body:        listView{SiteName: b.cfg.SiteName, Description: b.cfg.Description, Posts: home},
	}); err != nil {
		return err
	}

	if err := b.writePage(BlogPath, pageBlog, om, layoutData{
		Title:       "Blog | " + b.cfg.SiteName,
		Description: "All articles",
		Body:        listView{Heading: "Blog", Posts: links},
	}); err != nil {
		return err
	}

	about, err := b.aboutView()
	if err != nil {
		return err
	}
	return b.writePage(AboutPath, pageAbout, om, layoutData{
		Title:       "About | " + b.cfg.SiteName,
		Description: about.Headline,
		Body:        about,
	})
}

func (b *Builder) aboutView() (aboutView, error) {
	a := b.cfg.About
	view := aboutView{
		Name:     a.Name,
		Headline: a.Headline,
		Avatar:   a.Avatar,
		Bio:      a.Bio,
		Skills:   a.Skills,
		Contacts: contactViews(a.Contacts),
	}
	if view.Name == "" {
		view.Name = b.cfg.Author
	}

	body, err := b.loader.LoadAbout()
	if err != nil {
		return view, err
	}
	if body != "" {
		rp, err := b.renderer.Render(models.Post{Slug: "about", Source: body})
		if err != nil {
			return view, err
		}
		view.Body = template.HTML(rp.HTML)
	}
	return view, nil
}

func (b *Builder) writePage(route string, kind pageKind, om *OutputManager, page layoutData) error {
	page.SiteName = b.cfg.SiteName
	page.Canonical = sitemap.Loc(b.cfg.SiteURL, route)
	data, err := b.templates.render(kind, page)
	if err != nil {
		return err
	}
	file := OutputFile(route)
	if err := WriteFileAtomic(b.fs, filepath.Join(b.cfg.OutputDir, file), data); err != nil {
		return err
	}
	om.RecordPage(models.PageManifest{URL: page.Canonical, LocalFilePath: file, Title: page.Title})
	return nil
}

// writeSiteFiles writes toc.js, sitemap.xml and robots.txt
func (b *Builder) writeSiteFiles(posts []models.Post) error {
	top, bottom := config.GetEffectiveRootMargins(*b.cfg)
	script, err := RenderTOCScript(ScriptOptions{RootMarginTop: top, RootMarginBottom: bottom, Threshold: b.cfg.TOC.Threshold})
	if err != nil {
		return err
	}
	if err := WriteFileAtomic(b.fs, filepath.Join(b.cfg.OutputDir, OutputFile(TOCScript)), script); err != nil {
		return err
	}

	routes := []string{HomePath, BlogPath, AboutPath}
	pages := []sitemap.Page{{Path: HomePath, Priority: "1.0"}, {Path: BlogPath, Priority: "0.8"}, {Path: AboutPath, Priority: "0.5"}}
	for _, p := range posts {
		routes = append(routes, PostPath(p.Slug))
		pages = append(pages, sitemap.Page{Path: PostPath(p.Slug), LastMod: p.Metadata.PublishedAt, Priority: "0.7"})
	}

	withSitemap := config.GetEffectiveEnableSitemap(*b.cfg)
	if withSitemap {
		data, err := sitemap.Build(b.cfg.SiteURL, pages)
		if err != nil {
			return err
		}
		if err := WriteFileAtomic(b.fs, filepath.Join(b.cfg.OutputDir, "sitemap.xml"), data); err != nil {
			return err
		}
	}

	if !config.GetEffectiveEnableRobots(*b.cfg) {
		return nil
	}
	body := RobotsTxt(b.cfg.SiteURL, b.cfg.RobotsTxt, withSitemap)
	blocked, err := DisallowedPaths(body, routes)
	if err != nil {
		b.warn(b.log, "Could not parse robots.txt: %v", err)
	}
	for _, p := range blocked {
		b.warn(b.log, "robots.txt disallows %s for all crawlers", p)
	}
	return WriteFileAtomic(b.fs, filepath.Join(b.cfg.OutputDir, "robots.txt"), []byte(body))
}

// syncCache drops entries of deleted posts and refreshes the built log
func (b *Builder) syncCache(ctx context.Context, posts []models.Post) {
	if b.cache == nil {
		return
	}
	live := make(map[string]struct{}, len(posts))
	for _, p := range posts {
		live[p.Slug] = struct{}{}
	}
	if _, err := b.cache.Prune(ctx, live); err != nil && !errors.Is(err, context.Canceled) {
		b.log.Warnf("Failed to prune build cache: %v", err)
	}
	if err := b.cache.WriteBuiltLog(filepath.Join(b.cfg.StateDir, builtLogName)); err != nil {
		b.log.Warnf("Failed to write built log: %v", err)
	}
	if count, err := b.cache.GetPostCount(); err == nil {
		b.log.Debugf("Build cache holds %d posts", count)
	}
	if incomplete, err := b.cache.IncompletePosts(ctx); err == nil && len(incomplete) > 0 {
		b.log.Infof("%d posts will be retried on the next build: %s", len(incomplete), strings.Join(incomplete, ", "))
	}
}
