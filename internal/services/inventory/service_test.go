package inventory_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"versync/internal/domain"
	"versync/internal/pattern"
	"versync/internal/services/inventory"
)

// fakeRemote serves a fixed name listing.
type fakeRemote struct {
	names []string
}

func (f *fakeRemote) ListNames(ctx context.Context, dir string) ([]string, error) {
	return f.names, nil
}
func (f *fakeRemote) Retrieve(ctx context.Context, dir, name string) (io.ReadCloser, error) {
	return nil, os.ErrNotExist
}
func (f *fakeRemote) Store(ctx context.Context, dir, name string, r io.Reader) error {
	return os.ErrInvalid
}
func (f *fakeRemote) Close() error { return nil }

func quietLog() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestRemote_DropsNonMatchingNames(t *testing.T) {
	svc := inventory.New(quietLog())
	rs := &fakeRemote{names: []string{"update_2024-01-01.jsonl", "README", "update_2024-01-02.jsonl"}}
	pat := pattern.MustCompile(`update_([\d-]+)\.jsonl`)

	inv, err := svc.Remote(context.Background(), rs, "/feed", pat)
	if err != nil {
		t.Fatalf("remote scan: %v", err)
	}
	if inv.Len() != 2 {
		t.Fatalf("got %d artifacts, want 2", inv.Len())
	}
	if inv.Contains("README") {
		t.Fatal("non-matching name kept")
	}
	newest, ok := inv.Newest()
	if !ok || newest.Name != "update_2024-01-02.jsonl" {
		t.Fatalf("newest = %v, %v", newest, ok)
	}
}

func TestLocal_MissingDirectoryIsEmpty(t *testing.T) {
	svc := inventory.New(quietLog())
	pat := pattern.MustCompile(`update_([\d-]+)\.jsonl`)

	inv, err := svc.Local(filepath.Join(t.TempDir(), "never-created"), pat, false)
	if err != nil {
		t.Fatalf("local scan: %v", err)
	}
	if inv.Len() != 0 {
		t.Fatalf("got %d artifacts, want 0", inv.Len())
	}
}

func TestLocal_FlatScan(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"update_2024-01-01.jsonl", "update_2024-01-02.jsonl", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "imported"), 0o755); err != nil {
		t.Fatal(err)
	}

	svc := inventory.New(quietLog())
	inv, err := svc.Local(dir, pattern.MustCompile(`update_([\d-]+)\.jsonl`), false)
	if err != nil {
		t.Fatalf("local scan: %v", err)
	}
	if inv.Len() != 2 {
		t.Fatalf("got %d artifacts, want 2", inv.Len())
	}
}

func TestLocal_RecursiveScanUsesRelativeNames(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "journal", "2024")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "issue-01.7z"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	svc := inventory.New(quietLog())
	inv, err := svc.Local(dir, pattern.MustCompile(`(.*)\.7z`), true)
	if err != nil {
		t.Fatalf("recursive scan: %v", err)
	}
	want := filepath.Join("journal", "2024", "issue-01.7z")
	if !inv.Contains(want) {
		t.Fatalf("inventory missing %q", want)
	}
	ref := inv.Ascending()[0]
	if ref.Location != filepath.Join("journal", "2024") {
		t.Fatalf("location = %q", ref.Location)
	}
}

func TestLocal_RecursiveScanSkipsStoreDirectories(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bundle.7z"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Marker and staging content must never count as artifacts.
	for _, sub := range []string{"imported", ".staging"} {
		if err := os.Mkdir(filepath.Join(dir, sub), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, sub, "stray.7z"), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	svc := inventory.New(quietLog())
	inv, err := svc.Local(dir, pattern.MustCompile(`(.*)\.7z`), true)
	if err != nil {
		t.Fatalf("recursive scan: %v", err)
	}
	if inv.Len() != 1 || !inv.Contains("bundle.7z") {
		t.Fatalf("inventory = %v", inv.Ascending())
	}
}

var _ domain.RemoteStore = (*fakeRemote)(nil)
