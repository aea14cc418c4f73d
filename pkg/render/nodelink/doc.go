// Package nodelink renders scene graphs as layered node-link diagrams.
//
// # Overview
//
// Each layer of the graph becomes a Graphviz cluster, stacked so that
// buildings sit above rooms, rooms above places and places above objects.
// Intralayer edges are drawn as plain lines; interlayer edges are arrows from
// parent to child. Dynamic layers use dashed outlines and grey nodes.
//
// # Usage
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [RenderPNG] produces a raster image instead.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process rendering;
// no Graphviz installation is needed.
package nodelink
