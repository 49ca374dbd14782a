package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// stagingDir holds in-flight downloads. It lives inside the destination
// directory so Promote is a same-filesystem rename.
const stagingDir = ".staging"

// Staging writes incoming artifacts next to their final home and promotes
// them with an atomic rename once the transfer channel reports completion.
type Staging struct {
	dest string
}

// NewStaging returns a staging area for the destination directory dest.
func NewStaging(dest string) *Staging {
	return &Staging{dest: dest}
}

// Dest returns the destination directory staged files promote into.
func (s *Staging) Dest() string { return s.dest }

// Stage copies r into the staging area under name and returns the byte
// count written. A partial write from a broken stream surfaces as the
// copy error; the staged file is removed in that case.
func (s *Staging) Stage(name string, r io.Reader) (int64, error) {
	dir := filepath.Join(s.dest, stagingDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("creating staging directory: %w", err)
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, r)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return n, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return n, err
	}
	return n, nil
}

// Promote renames the staged file into the destination directory and
// returns its final path.
func (s *Staging) Promote(name string) (string, error) {
	final := filepath.Join(s.dest, name)
	if err := os.Rename(filepath.Join(s.dest, stagingDir, name), final); err != nil {
		return "", err
	}
	return final, nil
}

// Discard drops a staged file, ignoring a file that was never staged.
func (s *Staging) Discard(name string) {
	_ = os.Remove(filepath.Join(s.dest, stagingDir, name))
}
