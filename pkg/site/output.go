package site

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/Sriram-PR/folio/pkg/config"
	"github.com/Sriram-PR/folio/pkg/models"
)

// OutputManager collects per-page records from the render workers and writes
// the aggregate outputs (metadata.yaml, posts.jsonl, chunks.jsonl) at the end
// of a build.
type OutputManager struct {
	fs     afero.Fs
	cfg    *config.AppConfig
	outDir string
	log    *logrus.Entry

	buildID   string
	startTime time.Time

	mu     sync.Mutex
	pages  []models.PageManifest
	posts  []models.PostJSONL
	chunks map[string][]models.ChunkJSONL // By post URL
}

// NewOutputManager starts a build record with a fresh ULID build id
func NewOutputManager(fs afero.Fs, cfg *config.AppConfig, log *logrus.Entry) *OutputManager {
	now := time.Now()
	return &OutputManager{
		fs:        fs,
		cfg:       cfg,
		outDir:    cfg.OutputDir,
		log:       log,
		buildID:   ulid.MustNew(ulid.Timestamp(now), ulid.Monotonic(rand.Reader, 0)).String(),
		startTime: now,
		chunks:    make(map[string][]models.ChunkJSONL),
	}
}

// BuildID returns the ULID stamped into the manifest
func (om *OutputManager) BuildID() string { return om.buildID }

// RecordPage adds a generated page to the manifest
func (om *OutputManager) RecordPage(page models.PageManifest) {
	om.mu.Lock()
	defer om.mu.Unlock()
	om.pages = append(om.pages, page)
}

// RecordPost adds a rendered post to the JSONL outputs
func (om *OutputManager) RecordPost(post models.PostJSONL, chunks []models.ChunkJSONL) {
	om.mu.Lock()
	defer om.mu.Unlock()
	om.posts = append(om.posts, post)
	if len(chunks) > 0 {
		om.chunks[post.URL] = chunks
	}
}

// Close writes the enabled aggregate outputs and returns the manifest
func (om *OutputManager) Close(failed, skipped int) (*models.SiteManifest, error) {
	om.mu.Lock()
	pages := append([]models.PageManifest(nil), om.pages...)
	posts := append([]models.PostJSONL(nil), om.posts...)
	om.mu.Unlock()

	sort.Slice(pages, func(i, j int) bool { return pages[i].URL < pages[j].URL })
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].PublishedAt != posts[j].PublishedAt {
			return posts[i].PublishedAt > posts[j].PublishedAt
		}
		return posts[i].Slug < posts[j].Slug
	})

	if config.GetEffectiveEnablePostsJSONL(*om.cfg) {
		if err := writeJSONL(om, config.GetEffectiveJSONLFilename(*om.cfg), posts); err != nil {
			return nil, err
		}
	}

	if config.GetEffectiveEnableChunksJSONL(*om.cfg) {
		var all []models.ChunkJSONL
		for _, p := range posts {
			all = append(all, om.chunks[p.URL]...)
		}
		if err := writeJSONL(om, config.GetEffectiveChunksFilename(*om.cfg), all); err != nil {
			return nil, err
		}
	}

	totalPosts := 0
	for _, p := range pages {
		if p.Slug != "" {
			totalPosts++
		}
	}
	manifest := &models.SiteManifest{
		BuildID:        om.buildID,
		SiteURL:        om.cfg.SiteURL,
		SiteName:       om.cfg.SiteName,
		BuildStartTime: om.startTime,
		BuildEndTime:   time.Now(),
		TotalPosts:     totalPosts,
		FailedPosts:    failed,
		SkippedPosts:   skipped,
		Pages:          pages,
	}

	if !config.GetEffectiveEnableMetadataYAML(*om.cfg) {
		om.log.Info("YAML metadata output is disabled.")
		return manifest, nil
	}

	yamlData, err := yaml.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal site manifest to YAML: %w", err)
	}
	path := filepath.Join(om.outDir, config.GetEffectiveMetadataYAMLFilename(*om.cfg))
	if err := WriteFileAtomic(om.fs, path, yamlData); err != nil {
		return nil, err
	}
	om.log.Infof("Wrote site manifest (%d pages) to %s", len(pages), path)
	return manifest, nil
}

// writeJSONL writes one JSON document per line
func writeJSONL[T any](om *OutputManager, filename string, rows []T) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to marshal %s record to JSON: %w", filename, err)
		}
	}

	path := filepath.Join(om.outDir, filename)
	if err := WriteFileAtomic(om.fs, path, buf.Bytes()); err != nil {
		return err
	}
	om.log.Infof("Wrote %d records to %s", len(rows), path)
	return nil
}
