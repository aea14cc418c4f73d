// Package metrics records scene graph activity as Prometheus metrics by
// implementing the hook interfaces of package observability.
//
// Call [Install] once at startup and serve [Handler] to expose the values.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/scenegraph/pkg/observability"
)

var (
	MergesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scenegraph_merges_total",
		Help: "Total number of graph merges.",
	})

	MergedNodes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scenegraph_merged_nodes_total",
		Help: "Total number of nodes added to a graph by merges.",
	})

	MergeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scenegraph_merge_duration_ms",
		Help:    "Graph merge latency in milliseconds.",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 25, 50, 100, 250, 1000},
	})

	StaleEdgesRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scenegraph_stale_edges_removed_total",
		Help: "Total number of edges removed by stale sweeps.",
	})

	ClonesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scenegraph_clones_total",
		Help: "Total number of graph clones.",
	})

	GraphIO = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scenegraph_io_total",
		Help: "Graph saves and loads, labelled by operation, format and status.",
	}, []string{"op", "format", "status"})

	GraphIODuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scenegraph_io_duration_ms",
		Help:    "Graph save and load latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
	}, []string{"op", "format"})

	LoadedNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scenegraph_loaded_nodes",
		Help: "Node count of the most recently loaded graph.",
	})

	Snapshots = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scenegraph_snapshots_total",
		Help: "Snapshot store operations, labelled by backend and result.",
	}, []string{"backend", "result"})

	SnapshotBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scenegraph_snapshot_bytes_total",
		Help: "Bytes written to snapshot stores, labelled by backend.",
	}, []string{"backend"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scenegraph_http_requests_total",
		Help: "HTTP requests served, labelled by method, route and status code.",
	}, []string{"method", "path", "code"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scenegraph_http_request_duration_ms",
		Help:    "HTTP request latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
	}, []string{"method", "path"})
)

func ms(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }

// GraphHooks records merges, sweeps and clones.
type GraphHooks struct{}

func (GraphHooks) OnMerge(nodesAdded int, d time.Duration) {
	MergesTotal.Inc()
	MergedNodes.Add(float64(nodesAdded))
	MergeDuration.Observe(ms(d))
}

func (GraphHooks) OnStaleSweep(edgesRemoved int) { StaleEdgesRemoved.Add(float64(edgesRemoved)) }

func (GraphHooks) OnClone(int, time.Duration) { ClonesTotal.Inc() }

// IOHooks records saves and loads.
type IOHooks struct{}

func (IOHooks) OnSave(format string, d time.Duration, err error) {
	GraphIO.WithLabelValues("save", format, status(err)).Inc()
	GraphIODuration.WithLabelValues("save", format).Observe(ms(d))
}

func (IOHooks) OnLoad(format string, nodeCount int, d time.Duration, err error) {
	GraphIO.WithLabelValues("load", format, status(err)).Inc()
	GraphIODuration.WithLabelValues("load", format).Observe(ms(d))
	if err == nil {
		LoadedNodes.Set(float64(nodeCount))
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// StoreHooks records snapshot store traffic.
type StoreHooks struct{}

func (StoreHooks) OnSnapshotHit(_ context.Context, backend string) {
	Snapshots.WithLabelValues(backend, "hit").Inc()
}

func (StoreHooks) OnSnapshotMiss(_ context.Context, backend string) {
	Snapshots.WithLabelValues(backend, "miss").Inc()
}

func (StoreHooks) OnSnapshotPut(_ context.Context, backend string, size int) {
	Snapshots.WithLabelValues(backend, "put").Inc()
	SnapshotBytes.WithLabelValues(backend).Add(float64(size))
}

// HTTPHooks records served requests.
type HTTPHooks struct{}

func (HTTPHooks) OnRequest(context.Context, string, string) {}

func (HTTPHooks) OnResponse(_ context.Context, method, path string, code int, d time.Duration) {
	HTTPRequests.WithLabelValues(method, path, strconv.Itoa(code)).Inc()
	HTTPDuration.WithLabelValues(method, path).Observe(ms(d))
}

// Install registers all hooks with package observability.
func Install() {
	observability.SetGraphHooks(GraphHooks{})
	observability.SetIOHooks(IOHooks{})
	observability.SetStoreHooks(StoreHooks{})
	observability.SetHTTPHooks(HTTPHooks{})
}

// Handler serves the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
