package transfer_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"versync/internal/domain"
	"versync/internal/services/transfer"
	"versync/internal/store"
)

// fakeRemote serves artifacts from a map and can be told to fail one.
type fakeRemote struct {
	files     map[string]string
	failOn    string
	retrieves []string
}

func (f *fakeRemote) ListNames(ctx context.Context, dir string) ([]string, error) {
	names := make([]string, 0, len(f.files))
	for n := range f.files {
		names = append(names, n)
	}
	return names, nil
}

func (f *fakeRemote) Retrieve(ctx context.Context, dir, name string) (io.ReadCloser, error) {
	f.retrieves = append(f.retrieves, name)
	if name == f.failOn {
		return nil, fmt.Errorf("simulated channel failure")
	}
	body, ok := f.files[name]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func (f *fakeRemote) Store(ctx context.Context, dir, name string, r io.Reader) error {
	return os.ErrInvalid
}
func (f *fakeRemote) Close() error { return nil }

var _ domain.RemoteStore = (*fakeRemote)(nil)

func quietLog() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func ref(name, key string) domain.ArtifactRef {
	return domain.ArtifactRef{Name: name, Key: domain.VersionKey(key)}
}

type fixture struct {
	dest    string
	remote  *fakeRemote
	markers *store.MarkerStore
	aliases *store.AliasStore
	svc     *transfer.Service
}

func newFixture(t *testing.T, remote *fakeRemote) *fixture {
	t.Helper()
	dest := t.TempDir()
	markers := store.NewMarkerStore(dest)
	aliases := store.NewAliasStore(dest)
	svc := transfer.New(remote, store.NewStaging(dest), aliases, markers, quietLog())
	return &fixture{dest: dest, remote: remote, markers: markers, aliases: aliases, svc: svc}
}

func aliasAll(string) (string, error) { return "current.jsonl", nil }

func TestExecute_CommitsInOrderAndMarks(t *testing.T) {
	remote := &fakeRemote{files: map[string]string{
		"update_2024-01-01.jsonl": "one",
		"update_2024-01-02.jsonl": "two",
	}}
	fx := newFixture(t, remote)

	plan := domain.DeltaPlan{
		ref("update_2024-01-01.jsonl", "2024-01-01"),
		ref("update_2024-01-02.jsonl", "2024-01-02"),
	}
	res, err := fx.svc.Execute(context.Background(), plan, transfer.Options{AliasFor: aliasAll})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(res.Committed) != 2 {
		t.Fatalf("committed %d, want 2", len(res.Committed))
	}

	// Oldest first on the wire.
	if remote.retrieves[0] != "update_2024-01-01.jsonl" {
		t.Fatalf("retrieve order: %v", remote.retrieves)
	}

	for _, name := range []string{"update_2024-01-01.jsonl", "update_2024-01-02.jsonl"} {
		if _, err := os.Stat(filepath.Join(fx.dest, name)); err != nil {
			t.Fatalf("artifact %s not in place: %v", name, err)
		}
		ok, err := fx.markers.HasMarker(name)
		if err != nil || !ok {
			t.Fatalf("marker for %s: ok=%v err=%v", name, ok, err)
		}
	}

	// Alias ends on the newest artifact.
	target, ok, err := fx.aliases.Current("current.jsonl")
	if err != nil || !ok {
		t.Fatalf("current: ok=%v err=%v", ok, err)
	}
	if filepath.Base(target) != "update_2024-01-02.jsonl" {
		t.Fatalf("alias points at %q", target)
	}
}

func TestExecute_FailureKeepsEarlierCommits(t *testing.T) {
	remote := &fakeRemote{
		files:  map[string]string{"v2.jsonl": "two", "v3.jsonl": "three"},
		failOn: "v3.jsonl",
	}
	fx := newFixture(t, remote)

	plan := domain.DeltaPlan{ref("v2.jsonl", "2"), ref("v3.jsonl", "3")}
	res, err := fx.svc.Execute(context.Background(), plan, transfer.Options{})

	var te *domain.TransferError
	if !errors.As(err, &te) || te.Artifact != "v3.jsonl" {
		t.Fatalf("err = %v, want TransferError for v3.jsonl", err)
	}
	if len(res.Committed) != 1 || res.Committed[0].Name != "v2.jsonl" {
		t.Fatalf("committed = %+v", res.Committed)
	}

	// v2 committed and marked; v3 absent and unmarked.
	if ok, _ := fx.markers.HasMarker("v2.jsonl"); !ok {
		t.Fatal("v2 marker missing")
	}
	if ok, _ := fx.markers.HasMarker("v3.jsonl"); ok {
		t.Fatal("v3 marked despite failure")
	}
	if _, err := os.Stat(filepath.Join(fx.dest, "v3.jsonl")); !os.IsNotExist(err) {
		t.Fatalf("v3 present despite failure: %v", err)
	}
}

func TestExecute_SkipsImportedArtifacts(t *testing.T) {
	remote := &fakeRemote{files: map[string]string{"v1.jsonl": "one"}}
	fx := newFixture(t, remote)
	if err := fx.markers.SetMarker("v1.jsonl", filepath.Join(fx.dest, "v1.jsonl")); err != nil {
		t.Fatal(err)
	}

	res, err := fx.svc.Execute(context.Background(), domain.DeltaPlan{ref("v1.jsonl", "1")}, transfer.Options{})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(res.Skipped) != 1 || len(res.Committed) != 0 {
		t.Fatalf("res = %+v", res)
	}
	if len(remote.retrieves) != 0 {
		t.Fatalf("retrieved despite marker: %v", remote.retrieves)
	}
}

func TestExecute_AdoptsPlacedButUnmarkedArtifact(t *testing.T) {
	remote := &fakeRemote{files: map[string]string{"v1.jsonl": "one"}}
	fx := newFixture(t, remote)

	// Simulate a crash after promote but before publish/marker.
	if err := os.WriteFile(filepath.Join(fx.dest, "v1.jsonl"), []byte("one"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := fx.svc.Execute(context.Background(), domain.DeltaPlan{ref("v1.jsonl", "1")}, transfer.Options{AliasFor: aliasAll})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(remote.retrieves) != 0 {
		t.Fatalf("re-transferred an adoptable artifact: %v", remote.retrieves)
	}
	if len(res.Committed) != 1 {
		t.Fatalf("res = %+v", res)
	}
	if ok, _ := fx.markers.HasMarker("v1.jsonl"); !ok {
		t.Fatal("adopted artifact not marked")
	}
	if _, ok, _ := fx.aliases.Current("current.jsonl"); !ok {
		t.Fatal("adopted artifact not aliased")
	}
}

func TestExecute_ImportFailureLeavesUnmarked(t *testing.T) {
	remote := &fakeRemote{files: map[string]string{"v1.jsonl": "one"}}
	fx := newFixture(t, remote)

	opts := transfer.Options{
		Import: func(ctx context.Context, finalPath string) error {
			return fmt.Errorf("importer exited 1")
		},
	}
	_, err := fx.svc.Execute(context.Background(), domain.DeltaPlan{ref("v1.jsonl", "1")}, opts)
	var te *domain.TransferError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want TransferError", err)
	}
	if ok, _ := fx.markers.HasMarker("v1.jsonl"); ok {
		t.Fatal("marker written despite failed import")
	}
	// The file stays in place; the next run adopts it and retries the import.
	if _, err := os.Stat(filepath.Join(fx.dest, "v1.jsonl")); err != nil {
		t.Fatalf("published file missing: %v", err)
	}
}

func TestExecute_CancellationStopsBetweenArtifacts(t *testing.T) {
	remote := &fakeRemote{files: map[string]string{"v1.jsonl": "one", "v2.jsonl": "two"}}
	fx := newFixture(t, remote)

	ctx, cancel := context.WithCancel(context.Background())
	opts := transfer.Options{
		Import: func(ctx context.Context, finalPath string) error {
			cancel() // arrives while v1 is mid-flight
			return nil
		},
	}
	res, err := fx.svc.Execute(ctx, domain.DeltaPlan{ref("v1.jsonl", "1"), ref("v2.jsonl", "2")}, opts)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	// v1 ran to completion; v2 never started.
	if len(res.Committed) != 1 || res.Committed[0].Name != "v1.jsonl" {
		t.Fatalf("committed = %+v", res.Committed)
	}
	if len(remote.retrieves) != 1 {
		t.Fatalf("retrieves = %v", remote.retrieves)
	}
}
