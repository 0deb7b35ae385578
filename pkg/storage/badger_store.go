package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/folio/pkg/log"
	"github.com/Sriram-PR/folio/pkg/models"
	"github.com/Sriram-PR/folio/pkg/utils"
)

const (
	postKeyPrefix = "post:"    // Prefix for post slug keys in DB
	buildDBDir    = "build_db" // Subdirectory name within stateDir for Badger DB files
)

// BadgerStore implements the BuildCache interface using BadgerDB
type BadgerStore struct {
	db       *badger.DB
	log      *logrus.Entry
	keyCount atomic.Int64 // Cached key count for O(1) GetPostCount
}

var _ BuildCache = (*BadgerStore)(nil)

// NewBadgerStore opens the build cache for siteName under stateDir. With
// resume false any previous cache is removed first.
func NewBadgerStore(stateDir, siteName string, resume bool, logger *logrus.Entry) (*BadgerStore, error) {
	store := &BadgerStore{log: logger}

	dbPath := filepath.Join(stateDir, utils.SanitizeFilename(siteName)+"_"+buildDBDir)

	if !resume {
		logger.Warnf("Incremental cache reset requested. REMOVING existing state directory: %s", dbPath)
		if err := os.RemoveAll(dbPath); err != nil {
			logger.Errorf("Failed to remove existing state directory %s: %v", dbPath, err)
		}
	}

	logger.Infof("Initializing build cache at: %s (Resume: %v)", dbPath, resume)

	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("%w: cannot create state directory %s: %w", utils.ErrFilesystem, dbPath, err)
	}

	opts := badger.DefaultOptions(dbPath).
		WithLogger(log.NewBadgerLogger(logger.WithField("component", "badgerdb"))).
		WithNumVersionsToKeep(1)

	var err error
	store.db, err = badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open badger database at %s: %w", utils.ErrDatabase, dbPath, err)
	}

	if resume {
		count, err := store.countKeys()
		if err != nil {
			logger.Warnf("Failed to count existing keys on resume: %v", err)
		} else {
			store.keyCount.Store(int64(count))
			logger.Debugf("Loaded existing cache entry count: %d", count)
		}
	}

	return store, nil
}

func (s *BadgerStore) countKeys() (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		prefix := []byte(postKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

const maxConflictRetries = 10

// dbUpdate wraps db.Update with a retry loop for BadgerDB transaction conflicts.
// Parallel workers can race on the same key and get badger.ErrConflict.
func (s *BadgerStore) dbUpdate(fn func(txn *badger.Txn) error) error {
	for i := range maxConflictRetries {
		err := s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		s.log.Debugf("BadgerDB transaction conflict (attempt %d/%d), retrying", i+1, maxConflictRetries)
	}
	return fmt.Errorf("%w: transaction conflict not resolved after %d retries", utils.ErrDatabase, maxConflictRetries)
}

// GetPost implements the PostStore interface
func (s *BadgerStore) GetPost(slug string) (models.PostStatus, *models.PostDBEntry, error) {
	status := models.PostStatusNotFound
	var entry *models.PostDBEntry
	key := []byte(postKeyPrefix + slug)

	errView := s.db.View(func(txn *badger.Txn) error {
		item, errGet := txn.Get(key)
		if errors.Is(errGet, badger.ErrKeyNotFound) {
			return nil
		}
		if errGet != nil {
			return fmt.Errorf("%w: failed getting post key '%s': %w", utils.ErrDatabase, string(key), errGet)
		}

		return item.Value(func(val []byte) error {
			var decoded models.PostDBEntry
			if errJSON := json.Unmarshal(val, &decoded); errJSON != nil {
				s.log.Warnf("Failed to unmarshal PostDBEntry for key '%s': %v. Treating as 'pending'.", string(key), errJSON)
				status = models.PostStatusPending
				return nil
			}
			if !decoded.Status.IsValid() {
				s.log.Warnf("Unknown status '%s' for key '%s'. Treating as 'pending'.", decoded.Status, string(key))
				status = models.PostStatusPending
				return nil
			}
			entry = &decoded
			status = decoded.Status
			return nil
		})
	})

	if errView != nil {
		s.log.Errorf("DB View error in GetPost for key '%s': %v", string(key), errView)
		return models.PostStatusDBError, nil, errView
	}
	return status, entry, nil
}

// UpdatePostStatus implements the PostStore interface
func (s *BadgerStore) UpdatePostStatus(slug string, entry *models.PostDBEntry) error {
	if s.db == nil {
		return fmt.Errorf("%w: build cache not initialized", utils.ErrDatabase)
	}
	key := []byte(postKeyPrefix + slug)

	entryBytes, errJSON := json.Marshal(entry)
	if errJSON != nil {
		return fmt.Errorf("%w: failed to marshal PostDBEntry JSON for key '%s': %w", utils.ErrParsing, string(key), errJSON)
	}

	isNew := false
	err := s.dbUpdate(func(txn *badger.Txn) error {
		isNew = false
		if _, errGet := txn.Get(key); errors.Is(errGet, badger.ErrKeyNotFound) {
			isNew = true
		}
		return txn.SetEntry(badger.NewEntry(key, entryBytes))
	})
	if err != nil {
		s.log.WithField("key", string(key)).Errorf("DB Update error in UpdatePostStatus: %v", err)
		return fmt.Errorf("%w: failed setting post status for key '%s': %w", utils.ErrDatabase, string(key), err)
	}
	if isNew {
		s.keyCount.Add(1)
	}

	s.log.Debugf("Updated post status for '%s' to '%s'", slug, entry.Status)
	return nil
}

// ShouldSkip implements the PostStore interface
func (s *BadgerStore) ShouldSkip(slug, contentHash string) (bool, error) {
	status, entry, err := s.GetPost(slug)
	if err != nil {
		return false, err
	}
	return status == models.PostStatusSuccess && entry != nil && contentHash != "" && entry.ContentHash == contentHash, nil
}

// GetPostCount implements the StoreAdmin interface
func (s *BadgerStore) GetPostCount() (int, error) {
	return int(s.keyCount.Load()), nil
}

// scan visits every post entry until fn returns an error
func (s *BadgerStore) scan(ctx context.Context, fn func(slug string, entry *models.PostDBEntry) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(postKeyPrefix)

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			slug := string(item.KeyCopy(nil)[len(prefix):])

			var entry *models.PostDBEntry
			err := item.Value(func(val []byte) error {
				var decoded models.PostDBEntry
				if errJSON := json.Unmarshal(val, &decoded); errJSON != nil {
					s.log.Warnf("Cache scan: failed to unmarshal entry for '%s': %v", slug, errJSON)
					return nil
				}
				entry = &decoded
				return nil
			})
			if err != nil {
				return fmt.Errorf("%w: reading value for '%s': %w", utils.ErrDatabase, slug, err)
			}
			if err := fn(slug, entry); err != nil {
				return err
			}
		}
		return nil
	})
}

// IncompletePosts implements the StoreAdmin interface
func (s *BadgerStore) IncompletePosts(ctx context.Context) ([]string, error) {
	var slugs []string
	err := s.scan(ctx, func(slug string, entry *models.PostDBEntry) error {
		if entry == nil || entry.Status == models.PostStatusFailure || entry.Status == models.PostStatusPending {
			slugs = append(slugs, slug)
		}
		return nil
	})
	return slugs, err
}

// Prune implements the StoreAdmin interface
func (s *BadgerStore) Prune(ctx context.Context, live map[string]struct{}) (int, error) {
	var stale []string
	err := s.scan(ctx, func(slug string, _ *models.PostDBEntry) error {
		if _, ok := live[slug]; !ok {
			stale = append(stale, slug)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, slug := range stale {
		key := []byte(postKeyPrefix + slug)
		if err := s.dbUpdate(func(txn *badger.Txn) error { return txn.Delete(key) }); err != nil {
			return removed, fmt.Errorf("%w: deleting stale key '%s': %w", utils.ErrDatabase, string(key), err)
		}
		removed++
		s.keyCount.Add(-1)
	}
	if removed > 0 {
		s.log.Infof("Pruned %d stale cache entries", removed)
	}
	return removed, nil
}

// WriteBuiltLog implements the StoreAdmin interface. Each line is "<slug>\t<status>".
func (s *BadgerStore) WriteBuiltLog(filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("%w: create built log '%s': %w", utils.ErrFilesystem, filePath, err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	written := 0
	var writeErr error

	iterErr := s.scan(context.Background(), func(slug string, entry *models.PostDBEntry) error {
		status := models.PostStatusPending
		if entry != nil {
			status = entry.Status
		}
		if _, err := fmt.Fprintf(writer, "%s\t%s\n", slug, status); err != nil && writeErr == nil {
			writeErr = err
		}
		written++
		return nil
	})

	if err := writer.Flush(); err != nil && writeErr == nil {
		writeErr = err
	}
	if err := file.Sync(); err != nil && writeErr == nil {
		writeErr = err
	}
	if iterErr != nil {
		return iterErr
	}
	if writeErr != nil {
		return fmt.Errorf("%w: writing built log '%s': %w", utils.ErrFilesystem, filePath, writeErr)
	}
	s.log.Infof("Wrote %d cache entries to built log: %s", written, filePath)
	return nil
}

// RunGC runs BadgerDB's value log garbage collection periodically
func (s *BadgerStore) RunGC(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if s.db == nil || s.db.IsClosed() {
				continue
			}
			var err error
			// Loop until nothing is left to rewrite
			for err == nil {
				err = s.db.RunValueLogGC(0.5)
			}
			if !errors.Is(err, badger.ErrNoRewrite) {
				s.log.Errorf("BadgerDB GC error: %v", err)
			}
		case <-ctx.Done():
			s.log.Debugf("Stopping BadgerDB garbage collection: %v", ctx.Err())
			return
		}
	}
}

// Close implements the StoreAdmin interface
func (s *BadgerStore) Close() error {
	if s.db != nil && !s.db.IsClosed() {
		if err := s.db.Close(); err != nil {
			s.log.Errorf("Error closing build cache: %v", err)
			return err
		}
		s.log.Debug("Build cache closed.")
	}
	return nil
}
