package storage

import (
	"context"
	"time"

	"github.com/Sriram-PR/folio/pkg/models"
)

// PostStore handles per-post build state
type PostStore interface {
	// GetPost retrieves the status and details of a post slug
	// Returns status (PostStatusSuccess, PostStatusFailure, PostStatusPending, PostStatusNotFound, PostStatusDBError),
	// the PostDBEntry if found and parsed, and any error
	GetPost(slug string) (status models.PostStatus, entry *models.PostDBEntry, err error)

	// UpdatePostStatus stores the build result for a post slug
	UpdatePostStatus(slug string, entry *models.PostDBEntry) error

	// ShouldSkip reports whether the post was built successfully with the same content hash
	ShouldSkip(slug, contentHash string) (bool, error)
}

// StoreAdmin handles lifecycle and administrative operations
type StoreAdmin interface {
	// GetPostCount returns the number of posts known to the cache
	GetPostCount() (int, error)

	// IncompletePosts returns the slugs whose last build failed or never finished
	IncompletePosts(ctx context.Context) ([]string, error)

	// Prune removes entries for slugs not present in live and returns how many were removed
	Prune(ctx context.Context, live map[string]struct{}) (int, error)

	// WriteBuiltLog writes every known slug and its status to the specified file path
	WriteBuiltLog(filePath string) error

	// RunGC runs periodic garbage collection. Should be run in a goroutine
	RunGC(ctx context.Context, interval time.Duration)

	// Close cleanly closes the database connection
	Close() error
}

// BuildCache combines all store interfaces for components that need full access
type BuildCache interface {
	PostStore
	StoreAdmin
}
