// Package render groups the visual outputs of scene graphs.
//
// The [nodelink] subpackage draws layered node-link diagrams through
// Graphviz:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [nodelink]: github.com/matzehuels/scenegraph/pkg/render/nodelink
package render
