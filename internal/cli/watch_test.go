package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/scenegraph/pkg/dsg"
	sgio "github.com/matzehuels/scenegraph/pkg/io"
)

func newTestServer(t *testing.T, g *dsg.Graph) (*httptest.Server, *liveGraph) {
	t.Helper()
	live := newLiveGraph(g, dsg.DefaultMergeConfig())
	srv := httptest.NewServer(newServer(live))
	t.Cleanup(srv.Close)
	return srv, live
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestServerHealthz(t *testing.T) {
	srv, _ := newTestServer(t, placesGraph(1))
	resp := get(t, srv.URL+"/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestServerGraph(t *testing.T) {
	srv, _ := newTestServer(t, placesGraph(3))
	resp := get(t, srv.URL+"/graph")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	g, err := sgio.ReadJSON(resp.Body)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if g.NumNodes(false) != 3 || g.NumEdges() != 2 {
		t.Errorf("served graph has %d nodes, %d edges; want 3, 2", g.NumNodes(false), g.NumEdges())
	}
}

func TestServerStatsAfterApply(t *testing.T) {
	srv, live := newTestServer(t, placesGraph(3))
	live.apply(context.Background(), placesGraph(2))

	resp := get(t, srv.URL+"/graph/stats")
	var stats graphStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatal(err)
	}
	if stats.Updates != 1 {
		t.Errorf("Updates = %d, want 1", stats.Updates)
	}
	if stats.LastRemoved != 1 {
		t.Errorf("LastRemoved = %d, want 1", stats.LastRemoved)
	}
	if stats.StaticNodes != 3 || stats.StaticEdges != 1 {
		t.Errorf("stats = %+v, want 3 nodes and 1 edge", stats)
	}
}

func TestServerNode(t *testing.T) {
	srv, _ := newTestServer(t, placesGraph(3))

	tests := []struct {
		name   string
		label  string
		status int
	}{
		{"found", "p1", http.StatusOK},
		{"bad label", "p-1", http.StatusBadRequest},
		{"missing", "p99", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := get(t, srv.URL+"/graph/nodes/"+tt.label)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if tt.status != http.StatusOK {
				return
			}
			var view nodeView
			if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
				t.Fatal(err)
			}
			if view.ID != "p1" || view.Dynamic {
				t.Errorf("view = %+v", view)
			}
			if strings.Join(view.Siblings, ",") != "p0,p2" {
				t.Errorf("Siblings = %v, want [p0 p2]", view.Siblings)
			}
		})
	}
}

func TestServerMetrics(t *testing.T) {
	srv, _ := newTestServer(t, placesGraph(1))
	resp := get(t, srv.URL+"/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestWatchFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.json")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reloads atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- watchFile(ctx, path, func() { reloads.Add(1) }, make(chan error))
	}()

	// Keep writing until the watcher is up and reports a change.
	deadline := time.After(5 * time.Second)
	for reloads.Load() == 0 {
		if err := os.WriteFile(path, []byte("{ }"), 0o644); err != nil {
			t.Fatal(err)
		}
		select {
		case <-deadline:
			t.Fatal("no reload after writing the watched file")
		case <-time.After(50 * time.Millisecond):
		}
	}

	before := reloads.Load()
	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)

	cancel()
	if err := <-done; err != context.Canceled {
		t.Errorf("watchFile() = %v, want context.Canceled", err)
	}
	if reloads.Load() > before+2 {
		t.Errorf("writes to other files should not reload (got %d extra)", reloads.Load()-before)
	}
}
