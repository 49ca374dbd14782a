package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"versync/internal/domain"
)

// importedDir is the well-known subdirectory holding import markers.
const importedDir = "imported"

// MarkerStore records imports as symlinks in <base>/imported/, named after
// the artifact and pointing at its final path. Link existence alone is
// authoritative; the link target is informational.
type MarkerStore struct {
	dir string
}

var _ domain.MarkerStore = (*MarkerStore)(nil)

// NewMarkerStore returns a marker store rooted at base. The imported/
// subdirectory is created on first write.
func NewMarkerStore(base string) *MarkerStore {
	return &MarkerStore{dir: filepath.Join(base, importedDir)}
}

// HasMarker reports whether an import marker exists for name.
func (s *MarkerStore) HasMarker(name string) (bool, error) {
	_, err := os.Lstat(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SetMarker records that name was committed at target. Repeated calls for
// the same artifact are no-ops, so re-running a job over unchanged remote
// state never re-imports.
func (s *MarkerStore) SetMarker(name, target string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating marker directory: %w", err)
	}
	link := filepath.Join(s.dir, name)
	err := os.Symlink(target, link)
	if errors.Is(err, os.ErrExist) {
		return nil
	}
	return err
}
