// Package pkg provides the libraries behind scenegraph, a toolkit for layered
// 3D scene graphs.
//
// # Overview
//
// A scene graph stores objects, places, rooms and buildings as static layers,
// and agent trajectories as dynamic layers keyed by a prefix. Nodes keep their
// parents, children and siblings in sync with the edges that connect them,
// and every layer records which nodes and edges are new or removed so a
// consumer can pick up incremental changes.
//
// The pkg directory is organized as follows:
//
//  1. [dsg] - The graph itself: ids, layers, edge containers, merging,
//     change tracking and the stale-edge sweep
//  2. [io] - JSON and binary codecs, registered with [dsg] on import
//  3. [store] - Snapshot stores for encoded graphs (file, Badger, Redis)
//  4. [mergeconfig] - Merge settings read from TOML or YAML files
//  5. [render/nodelink] - Graphviz diagrams of the layer hierarchy
//  6. [observability] and [metrics] - Hooks and their Prometheus implementation
//
// # Architecture
//
// The typical data flow:
//
//	graph file (.json / .dsg)
//	         ↓
//	    [io] package (decode)
//	         ↓
//	    [dsg] package (merge, sweep, inspect changes)
//	         ↓
//	    [io] / [store] / [render/nodelink]
//	         ↓
//	file, snapshot or DOT/SVG/PNG output
//
// # Quick Start
//
// Load two graphs, merge one into the other and save the result:
//
//	import (
//	    "github.com/matzehuels/scenegraph/pkg/dsg"
//	    _ "github.com/matzehuels/scenegraph/pkg/io"
//	)
//
//	base, _ := dsg.Load("backend.json")
//	update, _ := dsg.Load("frontend.dsg")
//	base.MergeGraph(update, dsg.DefaultMergeConfig())
//	_ = base.Save("merged.dsg", true)
//
// Keep only the edges a new observation still confirms:
//
//	base.MarkEdgesAsStale()
//	for _, e := range edges {
//	    base.AddOrUpdateEdge(e.Source, e.Target, nil)
//	}
//	removed := base.RemoveAllStaleEdges()
//
// Store a snapshot:
//
//	s, _ := store.NewFileStore(dir)
//	snap, _ := store.SaveGraph(ctx, s, base, dsg.FormatBinary)
//
// # Testing
//
//	go test ./pkg/...          # All tests
//	go test ./pkg/dsg/...      # Specific package
//	go test -run Example       # Examples only
//
// Redis store tests run only when SCENEGRAPH_REDIS_ADDR is set.
//
// [dsg]: https://pkg.go.dev/github.com/matzehuels/scenegraph/pkg/dsg
// [io]: https://pkg.go.dev/github.com/matzehuels/scenegraph/pkg/io
// [store]: https://pkg.go.dev/github.com/matzehuels/scenegraph/pkg/store
// [mergeconfig]: https://pkg.go.dev/github.com/matzehuels/scenegraph/pkg/mergeconfig
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/scenegraph/pkg/render/nodelink
// [observability]: https://pkg.go.dev/github.com/matzehuels/scenegraph/pkg/observability
// [metrics]: https://pkg.go.dev/github.com/matzehuels/scenegraph/pkg/metrics
package pkg
