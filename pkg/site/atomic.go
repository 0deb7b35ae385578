package site

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/Sriram-PR/folio/pkg/utils"
)

// WriteFileAtomic writes data through a temp file in the target directory and
// renames it into place, so readers never see a half-written page.
func WriteFileAtomic(fs afero.Fs, path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create directory %s: %w", utils.ErrFilesystem, dir, err)
	}

	tmpFile, err := afero.TempFile(fs, dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp file in %s: %w", utils.ErrFilesystem, dir, err)
	}
	tmpPath := tmpFile.Name()
	// No-op after a successful rename
	defer fs.Remove(tmpPath)

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("%w: write temp file: %w", utils.ErrFilesystem, err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("%w: sync temp file: %w", utils.ErrFilesystem, err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("%w: close temp file: %w", utils.ErrFilesystem, err)
	}
	if err := fs.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("%w: rename temp file to %s: %w", utils.ErrFilesystem, path, err)
	}
	return nil
}
