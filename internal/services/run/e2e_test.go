// End-to-end coverage of one sync-feed style run: change-feed listing,
// delta resolution, transfer, alias publication and import markers, driven
// through the coordinator.
package run_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"versync/internal/domain"
	"versync/internal/pattern"
	"versync/internal/remote"
	"versync/internal/services/delta"
	"versync/internal/services/inventory"
	"versync/internal/services/run"
	"versync/internal/services/transfer"
	"versync/internal/store"
)

// changefileServer serves two jsonl changefiles, optionally refusing one.
func changefileServer(t *testing.T, refuse string) *httptest.Server {
	t.Helper()
	files := map[string]string{
		"update_2024-01-01.jsonl": `{"doi":"10.1/a"}` + "\n",
		"update_2024-01-02.jsonl": `{"doi":"10.1/b"}` + "\n",
	}

	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/feed/changefile", func(w http.ResponseWriter, r *http.Request) {
		var list []map[string]any
		for name, body := range files {
			list = append(list, map[string]any{
				"filename": name, "url": srv.URL + "/files/" + name,
				"filetype": "jsonl", "size_bytes": len(body),
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"list": list})
	})
	mux.HandleFunc("/files/", func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Path[len("/files/"):]
		if name == refuse {
			http.Error(w, "gone fishing", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(files[name]))
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func feedJob(t *testing.T, srv *httptest.Server, dir string, imported *[]string) run.Job {
	t.Helper()
	pat := pattern.MustCompile(`update_([\d-]+)\.jsonl`)
	feed := remote.NewFeedStore(srv.URL+"/feed/changefile", "", srv.Client())
	scans := inventory.New(quietLog())

	return run.Job{
		Name: "changefiles",
		Phases: run.Phases{
			Scan: func(ctx context.Context) (domain.Inventory, domain.Inventory, error) {
				remoteInv, err := scans.Remote(ctx, feed, "", pat)
				if err != nil {
					return domain.Inventory{}, domain.Inventory{}, err
				}
				localInv, err := scans.Local(dir, pat, false)
				if err != nil {
					return domain.Inventory{}, domain.Inventory{}, err
				}
				return remoteInv, localInv, nil
			},
			Resolve: func(remoteInv, localInv domain.Inventory) domain.DeltaPlan {
				return delta.SinceContiguous(remoteInv, localInv, false)
			},
			Transfer: func(ctx context.Context, plan domain.DeltaPlan, report *domain.Report) error {
				exec := transfer.New(feed,
					store.NewStaging(dir),
					store.NewAliasStore(dir),
					store.NewMarkerStore(dir),
					quietLog())
				res, err := exec.Execute(ctx, plan, transfer.Options{
					AliasFor: pat.Alias,
					Import: func(ctx context.Context, finalPath string) error {
						*imported = append(*imported, filepath.Base(finalPath))
						return nil
					},
				})
				for _, ref := range res.Committed {
					report.Add("downloaded " + ref.Name)
				}
				return err
			},
		},
	}
}

func TestEndToEnd_EmptyLocalImportsEverything(t *testing.T) {
	srv := changefileServer(t, "")
	dir := t.TempDir()
	notifier := &fakeNotifier{}
	var imported []string

	c := run.New("Changefile Import", notifier, quietLog())
	if err := c.Run(context.Background(), feedJob(t, srv, dir, &imported)); err != nil {
		t.Fatalf("run: %v", err)
	}

	// Both changefiles imported, oldest first.
	if len(imported) != 2 || imported[0] != "update_2024-01-01.jsonl" || imported[1] != "update_2024-01-02.jsonl" {
		t.Fatalf("imported = %v", imported)
	}

	// Alias resolves to the newest changefile.
	target, ok, err := store.NewAliasStore(dir).Current("update_current.jsonl")
	if err != nil || !ok {
		t.Fatalf("alias: ok=%v err=%v", ok, err)
	}
	if filepath.Base(target) != "update_2024-01-02.jsonl" {
		t.Fatalf("alias target = %q", target)
	}

	// Two markers exist.
	markers := store.NewMarkerStore(dir)
	for _, name := range []string{"update_2024-01-01.jsonl", "update_2024-01-02.jsonl"} {
		if ok, _ := markers.HasMarker(name); !ok {
			t.Fatalf("marker for %s missing", name)
		}
	}

	// Exactly one notification.
	if len(notifier.sent) != 1 {
		t.Fatalf("sent %d notifications", len(notifier.sent))
	}
}

func TestEndToEnd_FailureMidPlanThenRecovery(t *testing.T) {
	dir := t.TempDir()
	var imported []string

	// First run: the newer changefile download fails.
	srv := changefileServer(t, "update_2024-01-02.jsonl")
	notifier := &fakeNotifier{}
	c := run.New("Changefile Import", notifier, quietLog())
	if err := c.Run(context.Background(), feedJob(t, srv, dir, &imported)); err == nil {
		t.Fatal("expected first run to fail")
	}
	if c.State() != run.StateFailed {
		t.Fatalf("state = %v", c.State())
	}

	// Partial progress: the older file is committed and marked, the newer
	// one absent and unmarked.
	markers := store.NewMarkerStore(dir)
	if ok, _ := markers.HasMarker("update_2024-01-01.jsonl"); !ok {
		t.Fatal("committed changefile unmarked")
	}
	if ok, _ := markers.HasMarker("update_2024-01-02.jsonl"); ok {
		t.Fatal("failed changefile marked")
	}
	if _, err := os.Stat(filepath.Join(dir, "update_2024-01-02.jsonl")); !os.IsNotExist(err) {
		t.Fatal("failed changefile present")
	}

	// Second run against a healthy server transfers exactly the missing
	// changefile.
	srv2 := changefileServer(t, "")
	imported = nil
	notifier2 := &fakeNotifier{}
	c2 := run.New("Changefile Import", notifier2, quietLog())
	if err := c2.Run(context.Background(), feedJob(t, srv2, dir, &imported)); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(imported) != 1 || imported[0] != "update_2024-01-02.jsonl" {
		t.Fatalf("second run imported %v, want only the missing file", imported)
	}

	// Third run is a no-op.
	notifier3 := &fakeNotifier{}
	c3 := run.New("Changefile Import", notifier3, quietLog())
	imported = nil
	if err := c3.Run(context.Background(), feedJob(t, srv2, dir, &imported)); err != nil {
		t.Fatalf("third run: %v", err)
	}
	if len(imported) != 0 {
		t.Fatalf("third run imported %v", imported)
	}
}
