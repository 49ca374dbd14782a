package inventory

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"versync/internal/domain"
	"versync/internal/pattern"
	"versync/internal/store"
)

// Service scans stores into immutable Inventory snapshots.
type Service struct {
	log logrus.FieldLogger
}

func New(log logrus.FieldLogger) *Service {
	return &Service{log: log}
}

// Remote lists dir on the store and keeps the names matching pat.
// An empty listing yields an empty inventory; only connection-level
// failures are errors.
func (s *Service) Remote(ctx context.Context, store domain.RemoteStore, dir string, pat *pattern.Pattern) (domain.Inventory, error) {
	names, err := store.ListNames(ctx, dir)
	if err != nil {
		return domain.Inventory{}, err
	}
	refs := make([]domain.ArtifactRef, 0, len(names))
	for _, name := range names {
		key, err := pat.Extract(name)
		if errors.Is(err, domain.ErrNoMatch) {
			s.log.WithField("name", name).Debug("skipping non-matching remote entry")
			continue
		}
		if err != nil {
			return domain.Inventory{}, err
		}
		refs = append(refs, domain.ArtifactRef{Name: name, Key: key, Location: dir})
	}
	s.log.WithFields(logrus.Fields{"dir": dir, "matched": len(refs), "listed": len(names)}).Info("scanned remote store")
	return domain.NewInventory(refs), nil
}

// Local scans dir for files matching pat, walking subdirectories when
// recursive is set. A missing directory is an empty inventory: the first
// run of a job starts with nothing downloaded.
func (s *Service) Local(dir string, pat *pattern.Pattern, recursive bool) (domain.Inventory, error) {
	var refs []domain.ArtifactRef

	add := func(name, location string) error {
		key, err := pat.Extract(name)
		if errors.Is(err, domain.ErrNoMatch) {
			return nil
		}
		if err != nil {
			return err
		}
		refs = append(refs, domain.ArtifactRef{Name: name, Key: key, Location: location})
		return nil
	}

	if recursive {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != dir && store.Internal(d.Name()) {
					return fs.SkipDir
				}
				return nil
			}
			rel, err := filepath.Rel(dir, filepath.Dir(path))
			if err != nil {
				return err
			}
			// Root-relative path as the name: basenames may repeat
			// across subdirectories and names must stay unique.
			return add(filepath.Join(rel, d.Name()), rel)
		})
		if errors.Is(err, os.ErrNotExist) {
			return domain.NewInventory(nil), nil
		}
		if err != nil {
			return domain.Inventory{}, err
		}
	} else {
		entries, err := os.ReadDir(dir)
		if errors.Is(err, os.ErrNotExist) {
			return domain.NewInventory(nil), nil
		}
		if err != nil {
			return domain.Inventory{}, err
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if err := add(e.Name(), "."); err != nil {
				return domain.Inventory{}, err
			}
		}
	}

	s.log.WithFields(logrus.Fields{"dir": dir, "matched": len(refs)}).Info("scanned local store")
	return domain.NewInventory(refs), nil
}
