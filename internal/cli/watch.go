package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/matzehuels/scenegraph/pkg/dsg"
	sgerrors "github.com/matzehuels/scenegraph/pkg/errors"
	sgio "github.com/matzehuels/scenegraph/pkg/io"
	"github.com/matzehuels/scenegraph/pkg/mergeconfig"
	"github.com/matzehuels/scenegraph/pkg/metrics"
	"github.com/matzehuels/scenegraph/pkg/observability"
)

// liveGraph is a graph kept up to date from a watched file.
type liveGraph struct {
	mu      sync.RWMutex
	g       *dsg.Graph
	config  dsg.GraphMergeConfig
	updates int
	last    sweepResult
	updated time.Time
}

func newLiveGraph(g *dsg.Graph, config dsg.GraphMergeConfig) *liveGraph {
	return &liveGraph{g: g, config: config, updated: time.Now()}
}

// apply sweeps update into the live graph.
func (l *liveGraph) apply(ctx context.Context, update *dsg.Graph) sweepResult {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.last = sweep(ctx, l.g, update, l.config)
	l.updates++
	l.updated = time.Now()
	return l.last
}

func (l *liveGraph) setConfig(config dsg.GraphMergeConfig) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config = config
}

// watchCommand creates the watch command.
func (c *CLI) watchCommand() *cobra.Command {
	var (
		flags mergeFlags
		addr  string
	)

	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Keep a live graph in sync with a file and serve it over HTTP",
		Long: `Watch loads a graph file and sweeps every new version of it into a live
graph: edges the new version no longer contains are removed, everything
else is merged in. The live graph is served on /graph, Prometheus metrics
on /metrics and a liveness probe on /healthz.

With --config, the merge config file is watched too.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			path := args[0]

			config, err := mergeConfig(cmd, flags)
			if err != nil {
				return err
			}
			g, err := loadGraph(ctx, path)
			if err != nil {
				return err
			}
			live := newLiveGraph(g, config)

			metrics.Install()
			defer observability.Reset()

			if flags.configFile != "" {
				loader, err := mergeconfig.NewLoader(flags.configFile, logger)
				if err != nil {
					return err
				}
				loader.OnChange(live.setConfig)
				stop, err := loader.Watch()
				if err != nil {
					logger.Warn("merge config watcher unavailable", "err", err)
				} else {
					defer stop()
				}
			}

			srv := &http.Server{
				Addr:         addr,
				Handler:      newServer(live),
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 30 * time.Second,
				IdleTimeout:  60 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				logger.Info("serving live graph", "addr", addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			watchErr := watchFile(ctx, path, func() {
				update, err := loadGraph(ctx, path)
				if err != nil {
					logger.Warn("reload failed, keeping live graph", "path", path, "err", err)
					return
				}
				res := live.apply(ctx, update)
				logger.Info("graph updated", "added", res.Added, "removed", res.Removed, "took", res.Took.Round(time.Millisecond))
			}, errCh)

			shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutCtx)
			return watchErr
		},
	}

	addMergeFlags(cmd, &flags)
	cmd.Flags().StringVar(&addr, "metrics-addr", ":9090", "address of the HTTP server")
	return cmd
}

// watchFile calls reload whenever path is written or recreated, until ctx is
// done or errCh delivers an error. The parent directory is watched so
// editors that replace files are handled.
func watchFile(ctx context.Context, path string, reload func(), errCh <-chan error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return sgerrors.Wrap(sgerrors.ErrCodeInternal, err, "file watcher")
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return sgerrors.Wrap(sgerrors.ErrCodeInvalidPath, err, "resolve %s", path)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return sgerrors.Wrap(sgerrors.ErrCodeInvalidPath, err, "watch %s", path)
	}

	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				reload()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			loggerFromContext(ctx).Warn("file watcher", "err", err)
		case err := <-errCh:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// =============================================================================
// HTTP
// =============================================================================

// newServer routes the live graph endpoints.
func newServer(live *liveGraph) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(hooksMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.Handler())
	r.Get("/graph", live.serveGraph)
	r.Get("/graph/stats", live.serveStats)
	r.Get("/graph/nodes/{id}", live.serveNode)
	return r
}

// hooksMiddleware reports requests to the HTTP hooks, labelled by route
// pattern.
func hooksMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		observability.HTTP().OnRequest(r.Context(), r.Method, r.URL.Path)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		observability.HTTP().OnResponse(r.Context(), r.Method, route, ww.Status(), time.Since(start))
	})
}

func (l *liveGraph) serveGraph(w http.ResponseWriter, r *http.Request) {
	includeMesh := r.URL.Query().Get("mesh") == "1"
	l.mu.RLock()
	defer l.mu.RUnlock()
	w.Header().Set("Content-Type", "application/json")
	if err := sgio.WriteJSON(l.g, w, includeMesh); err != nil {
		loggerFromContext(r.Context()).Error("encode live graph", "err", err)
	}
}

// graphStats is the body of /graph/stats.
type graphStats struct {
	StaticNodes   int       `json:"static_nodes"`
	DynamicNodes  int       `json:"dynamic_nodes"`
	StaticEdges   int       `json:"static_edges"`
	DynamicEdges  int       `json:"dynamic_edges"`
	Layers        int       `json:"layers"`
	DynamicLayers int       `json:"dynamic_layers"`
	Updates       int       `json:"updates"`
	LastAdded     int       `json:"last_added"`
	LastRemoved   int       `json:"last_removed"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (l *liveGraph) serveStats(w http.ResponseWriter, r *http.Request) {
	l.mu.RLock()
	stats := graphStats{
		StaticNodes:   l.g.NumStaticNodes(),
		DynamicNodes:  l.g.NumDynamicNodes(),
		StaticEdges:   l.g.NumStaticEdges(),
		DynamicEdges:  l.g.NumDynamicEdges(),
		Layers:        l.g.NumLayers(),
		DynamicLayers: l.g.NumDynamicLayers(),
		Updates:       l.updates,
		LastAdded:     l.last.Added,
		LastRemoved:   l.last.Removed,
		UpdatedAt:     l.updated,
	}
	l.mu.RUnlock()
	writeJSON(w, http.StatusOK, stats)
}

// nodeView is the body of /graph/nodes/{id}.
type nodeView struct {
	ID       string         `json:"id"`
	Layer    dsg.LayerID    `json:"layer"`
	Dynamic  bool           `json:"dynamic"`
	Parents  []string       `json:"parents"`
	Children []string       `json:"children"`
	Siblings []string       `json:"siblings"`
	Attrs    any            `json:"attributes,omitempty"`
	Stamp    *time.Duration `json:"timestamp,omitempty"`
}

func (l *liveGraph) serveNode(w http.ResponseWriter, r *http.Request) {
	label := chi.URLParam(r, "id")
	if err := sgerrors.ValidateNodeLabel(label); err != nil {
		writeError(w, http.StatusBadRequest, sgerrors.UserMessage(err))
		return
	}
	id, err := dsg.ParseNodeID(label)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	n, err := l.g.GetNode(id)
	if err != nil {
		writeError(w, http.StatusNotFound, sgerrors.UserMessage(err))
		return
	}
	view := nodeView{
		ID:       n.ID.Label(),
		Layer:    n.Layer,
		Dynamic:  l.g.IsDynamic(id),
		Parents:  labels(n.Parents()),
		Children: labels(n.Children()),
		Siblings: labels(n.Siblings()),
		Attrs:    n.Attributes(),
	}
	if stamp, ok := n.Timestamp(); ok {
		view.Stamp = &stamp
	}
	writeJSON(w, http.StatusOK, view)
}

func labels(ids []dsg.NodeID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Label()
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
