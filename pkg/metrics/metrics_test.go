package metrics

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/scenegraph/pkg/observability"
)

func TestInstall(t *testing.T) {
	Install()
	defer observability.Reset()

	if _, ok := observability.Graph().(GraphHooks); !ok {
		t.Errorf("Graph() = %T, want GraphHooks", observability.Graph())
	}
	if _, ok := observability.Store().(StoreHooks); !ok {
		t.Errorf("Store() = %T, want StoreHooks", observability.Store())
	}
}

func TestGraphHooks(t *testing.T) {
	merges := testutil.ToFloat64(MergesTotal)
	nodes := testutil.ToFloat64(MergedNodes)
	swept := testutil.ToFloat64(StaleEdgesRemoved)

	var h GraphHooks
	h.OnMerge(3, 2*time.Millisecond)
	h.OnStaleSweep(4)

	if got := testutil.ToFloat64(MergesTotal) - merges; got != 1 {
		t.Errorf("merges delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(MergedNodes) - nodes; got != 3 {
		t.Errorf("merged nodes delta = %v, want 3", got)
	}
	if got := testutil.ToFloat64(StaleEdgesRemoved) - swept; got != 4 {
		t.Errorf("stale edges delta = %v, want 4", got)
	}
}

func TestIOAndStoreHooks(t *testing.T) {
	var ioh IOHooks
	ioh.OnLoad("json", 7, time.Millisecond, nil)
	ioh.OnSave("binary", time.Millisecond, errors.New("disk full"))

	if got := testutil.ToFloat64(LoadedNodes); got != 7 {
		t.Errorf("loaded nodes = %v, want 7", got)
	}
	if got := testutil.ToFloat64(GraphIO.WithLabelValues("save", "binary", "error")); got < 1 {
		t.Errorf("failed saves = %v, want >= 1", got)
	}

	var s StoreHooks
	before := testutil.ToFloat64(SnapshotBytes.WithLabelValues("file"))
	s.OnSnapshotPut(context.Background(), "file", 128)
	if got := testutil.ToFloat64(SnapshotBytes.WithLabelValues("file")) - before; got != 128 {
		t.Errorf("snapshot bytes delta = %v, want 128", got)
	}
}

func TestHandler(t *testing.T) {
	HTTPHooks{}.OnResponse(context.Background(), "GET", "/graph", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "scenegraph_http_requests_total") {
		t.Error("metrics output lacks scenegraph_http_requests_total")
	}
}
