package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"versync/internal/domain"
)

// AliasStore maintains stable-name symlinks in a directory. The alias swap
// goes through a temporary link renamed over the old one, so readers always
// resolve either the previous target or the new one, never neither.
type AliasStore struct {
	dir string
}

var _ domain.AliasStore = (*AliasStore)(nil)

// NewAliasStore returns an alias store rooted at dir.
func NewAliasStore(dir string) *AliasStore {
	return &AliasStore{dir: dir}
}

// SetCurrent atomically repoints alias at target.
func (s *AliasStore) SetCurrent(alias, target string) error {
	link := filepath.Join(s.dir, alias)
	tmp := link + ".tmp"

	// A stale temp link from an interrupted earlier run would fail the
	// Symlink call below; clear it first.
	if err := os.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clearing stale alias temp: %w", err)
	}
	if err := os.Symlink(target, tmp); err != nil {
		return err
	}
	if err := os.Rename(tmp, link); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// Current resolves alias to its target. The second result is false when the
// alias has never been published.
func (s *AliasStore) Current(alias string) (string, bool, error) {
	target, err := os.Readlink(filepath.Join(s.dir, alias))
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return target, true, nil
}
