// Package observability provides hooks for metrics and logging.
//
// The graph, the file codecs, the snapshot stores and the watch server emit
// events through the hook interfaces defined here. Nothing is recorded unless
// an implementation is registered; pkg/metrics provides a Prometheus one.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, so libraries never import a metrics backend.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetGraphHooks(&myGraphHooks{})
//	    observability.SetStoreHooks(&myStoreHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	start := time.Now()
//	// ... merge ...
//	observability.Graph().OnMerge(added, time.Since(start))
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Graph Hooks
// =============================================================================

// GraphHooks receives events from scene graph maintenance operations.
// Graph operations take no context, so neither do these hooks.
type GraphHooks interface {
	// OnMerge records a completed graph merge and the number of nodes it added.
	OnMerge(nodesAdded int, duration time.Duration)

	// OnStaleSweep records how many edges a stale-edge sweep removed.
	OnStaleSweep(edgesRemoved int)

	// OnClone records a deep copy of a graph.
	OnClone(nodeCount int, duration time.Duration)
}

// =============================================================================
// IO Hooks
// =============================================================================

// IOHooks receives events from graph file reads and writes.
type IOHooks interface {
	OnSave(format string, duration time.Duration, err error)
	OnLoad(format string, nodeCount int, duration time.Duration, err error)
}

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from snapshot stores.
type StoreHooks interface {
	// OnSnapshotHit records a successful snapshot read.
	OnSnapshotHit(ctx context.Context, backend string)

	// OnSnapshotMiss records a read of an unknown snapshot.
	OnSnapshotMiss(ctx context.Context, backend string)

	// OnSnapshotPut records a snapshot write.
	OnSnapshotPut(ctx context.Context, backend string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the watch server.
type HTTPHooks interface {
	// OnRequest records an incoming request.
	OnRequest(ctx context.Context, method, path string)

	// OnResponse records a completed response.
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopGraphHooks is a no-op implementation of GraphHooks.
type NoopGraphHooks struct{}

func (NoopGraphHooks) OnMerge(int, time.Duration) {}
func (NoopGraphHooks) OnStaleSweep(int)           {}
func (NoopGraphHooks) OnClone(int, time.Duration) {}

// NoopIOHooks is a no-op implementation of IOHooks.
type NoopIOHooks struct{}

func (NoopIOHooks) OnSave(string, time.Duration, error)      {}
func (NoopIOHooks) OnLoad(string, int, time.Duration, error) {}

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnSnapshotHit(context.Context, string)      {}
func (NoopStoreHooks) OnSnapshotMiss(context.Context, string)     {}
func (NoopStoreHooks) OnSnapshotPut(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                         {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	graphHooks GraphHooks = NoopGraphHooks{}
	ioHooks    IOHooks    = NoopIOHooks{}
	storeHooks StoreHooks = NoopStoreHooks{}
	httpHooks  HTTPHooks  = NoopHTTPHooks{}
	hooksMu    sync.RWMutex
)

// SetGraphHooks registers custom graph hooks.
func SetGraphHooks(h GraphHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		graphHooks = h
	}
}

// SetIOHooks registers custom file IO hooks.
func SetIOHooks(h IOHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		ioHooks = h
	}
}

// SetStoreHooks registers custom snapshot store hooks.
// This should be called once at application startup before any store operations.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Graph returns the registered graph hooks.
func Graph() GraphHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return graphHooks
}

// IO returns the registered file IO hooks.
func IO() IOHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return ioHooks
}

// Store returns the registered snapshot store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	graphHooks = NoopGraphHooks{}
	ioHooks = NoopIOHooks{}
	storeHooks = NoopStoreHooks{}
	httpHooks = NoopHTTPHooks{}
}
