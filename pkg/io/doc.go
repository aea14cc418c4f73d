// Package io reads and writes scene graphs as JSON or as a compact binary
// (MessagePack) encoding.
//
// # Overview
//
// Both encodings share one document layout, so a graph converts between them
// without loss:
//
//	{
//	  "version": 1,
//	  "metadata": {"site": "lab"},
//	  "layer_ids": [2, 3, 4, 5],
//	  "layer_names": {"objects": 2, "places": 3, "rooms": 4, "buildings": 5},
//	  "nodes": [
//	    {"id": 8070450532247928833, "layer": 3, "kind": "node", "attributes": {...}},
//	    {"id": 6989586621679009792, "layer": 2, "timestamp": 1000000000, "kind": "node", "attributes": {...}}
//	  ],
//	  "edges": [
//	    {"source": 8070450532247928833, "target": 6989586621679009792, "kind": "edge", "attributes": {...}}
//	  ]
//	}
//
// Node ids are written as raw 64-bit integers. Nodes with a timestamp
// (nanoseconds) are dynamic and are placed in the dynamic layer named by
// their id's category on import. The mesh and map views are optional.
//
// # Attribute Kinds
//
// Payloads are written with the kind tag reported by [dsg.Kinded] and decoded
// through a registry. The built-in [dsg.NodeAttrs] and [dsg.EdgeAttrs] are
// always registered; applications register their own payload types with
// [RegisterNodeAttributes] and [RegisterEdgeAttributes].
//
// # Files
//
// Importing this package registers both codecs with [dsg.RegisterCodec], so
// [dsg.Graph.Save] and [dsg.Load] pick the encoding from the file extension:
//
//	import _ "github.com/matzehuels/scenegraph/pkg/io"
//
//	if err := g.Save("graph.json", true); err != nil {
//	    log.Fatal(err)
//	}
//
// [ReadJSON], [WriteJSON], [ReadBinary] and [WriteBinary] work on any
// io.Reader or io.Writer.
//
// # Change Tracking
//
// Only structure and payloads are written. A decoded graph reports every node
// and edge as new, and has no stale flags.
package io
