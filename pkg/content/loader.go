package content

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/Sriram-PR/folio/pkg/models"
	"github.com/Sriram-PR/folio/pkg/process"
	"github.com/Sriram-PR/folio/pkg/utils"
)

const (
	postsDir  = "posts"
	aboutFile = "about.md"
)

// PostError ties a load failure to the file it came from
type PostError struct {
	Path string
	Err  error
}

func (e PostError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }
func (e PostError) Unwrap() error { return e.Err }

// LoadResult is the outcome of scanning the posts directory
type LoadResult struct {
	Posts    []models.Post // Newest first
	Failures []PostError
	Drafts   int // Drafts skipped because include_drafts is off
}

// Loader reads posts from a content directory
type Loader struct {
	fs            afero.Fs
	dir           string
	includeDrafts bool
	importer      *process.HTMLImporter
	log           *logrus.Entry
}

// NewLoader creates a Loader over fs rooted at contentDir
func NewLoader(fs afero.Fs, contentDir, siteURL string, includeDrafts bool, log *logrus.Entry) *Loader {
	return &Loader{
		fs:            fs,
		dir:           contentDir,
		includeDrafts: includeDrafts,
		importer:      process.NewHTMLImporter(siteURL, log.WithField("component", "importer")),
		log:           log,
	}
}

// LoadPosts reads every .md and .html file under posts/. A file that fails to
// load is reported in Failures and does not stop the scan.
func (l *Loader) LoadPosts(ctx context.Context) (*LoadResult, error) {
	dir := filepath.Join(l.dir, postsDir)
	entries, err := afero.ReadDir(l.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("%w: reading posts directory '%s': %w", utils.ErrFilesystem, dir, err)
	}

	result := &LoadResult{}
	bySlug := make(map[string]string)

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !isPostFile(entry.Name()) {
			continue
		}
		rel := path.Join(postsDir, entry.Name())

		post, err := l.LoadFile(rel)
		if err != nil {
			if errors.Is(err, utils.ErrDraftSkipped) {
				result.Drafts++
				l.log.Debugf("Skipping draft '%s'", rel)
				continue
			}
			l.log.WithField("category", utils.CategorizeError(err)).Warnf("Failed to load '%s': %v", rel, err)
			result.Failures = append(result.Failures, PostError{Path: rel, Err: err})
			continue
		}

		if other, dup := bySlug[post.Slug]; dup {
			err := fmt.Errorf("%w: duplicate slug '%s' (already used by %s)", utils.ErrFrontMatter, post.Slug, other)
			l.log.Warn(err)
			result.Failures = append(result.Failures, PostError{Path: rel, Err: err})
			continue
		}
		bySlug[post.Slug] = rel
		result.Posts = append(result.Posts, post)
	}

	SortNewestFirst(result.Posts)
	l.log.Infof("Loaded %d posts (%d failed, %d drafts skipped)", len(result.Posts), len(result.Failures), result.Drafts)
	return result, nil
}

// LoadFile loads one post by its path relative to the content directory.
// Drafts return utils.ErrDraftSkipped unless drafts are included.
func (l *Loader) LoadFile(rel string) (models.Post, error) {
	full := filepath.Join(l.dir, filepath.FromSlash(rel))
	raw, err := afero.ReadFile(l.fs, full)
	if err != nil {
		return models.Post{}, fmt.Errorf("%w: reading '%s': %w", utils.ErrFilesystem, full, err)
	}

	meta, body, err := ParseFrontMatter(raw)
	if err != nil {
		return models.Post{}, err
	}
	if meta.Draft && !l.includeDrafts {
		return models.Post{}, fmt.Errorf("%w: %s", utils.ErrDraftSkipped, rel)
	}
	if err := ValidateMetadata(meta); err != nil {
		return models.Post{}, err
	}

	base := path.Base(rel)
	ext := strings.ToLower(path.Ext(base))
	post := models.Post{
		Slug:       PostSlug(meta, strings.TrimSuffix(base, path.Ext(base))),
		Metadata:   meta,
		SourcePath: rel,
		Format:     models.FormatMarkdown,
		Source:     string(body),
	}

	if ext == ".html" || ext == ".htm" {
		post.Format = models.FormatHTML
		if strings.TrimSpace(post.Source) != "" {
			markdown, err := l.importer.Import(post.Source)
			if err != nil {
				return models.Post{}, err
			}
			post.Source = markdown
		}
	}
	return post, nil
}

// LoadPost finds a single post by slug
func (l *Loader) LoadPost(ctx context.Context, slug string) (models.Post, error) {
	result, err := l.LoadPosts(ctx)
	if err != nil {
		return models.Post{}, err
	}
	for _, p := range result.Posts {
		if p.Slug == slug {
			return p, nil
		}
	}
	return models.Post{}, fmt.Errorf("%w: '%s'", utils.ErrPostNotFound, slug)
}

// LoadAbout returns the body of about.md, or "" when the file does not exist
func (l *Loader) LoadAbout() (string, error) {
	full := filepath.Join(l.dir, aboutFile)
	raw, err := afero.ReadFile(l.fs, full)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("%w: reading '%s': %w", utils.ErrFilesystem, full, err)
	}
	_, body, err := ParseFrontMatter(raw)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func isPostFile(name string) bool {
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
		return false
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".md", ".markdown", ".html", ".htm":
		return true
	}
	return false
}

// SortNewestFirst orders posts by publishedAt descending, then by slug
func SortNewestFirst(posts []models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i].Metadata.PublishedAt, posts[j].Metadata.PublishedAt
		if a != b {
			// YYYY-MM-DD sorts lexically
			return a > b
		}
		return posts[i].Slug < posts[j].Slug
	})
}
