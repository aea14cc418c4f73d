package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/scenegraph/pkg/dsg"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds names, positions and timestamps to node labels.
	// When false, only the node label ("p12") is shown.
	Detailed bool

	// Layers restricts the diagram to the given layer ids. Empty means all.
	Layers []dsg.LayerID
}

func (o Options) includes(id dsg.LayerID) bool {
	return len(o.Layers) == 0 || slices.Contains(o.Layers, id)
}

// ToDOT converts a scene graph to Graphviz DOT. Every layer becomes a
// cluster, higher layers are drawn above lower ones, intralayer edges are
// drawn without arrows and interlayer edges point from parent to child.
//
// Dynamic layers are drawn with dashed outlines.
func ToDOT(g *dsg.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  compound=true;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.15,0.05\"];\n")
	buf.WriteString("  ranksep=0.8;\n")
	buf.WriteString("  nodesep=0.3;\n")

	names := layerNames(g)
	keys := g.LayerKeys()
	slices.SortStableFunc(keys, func(a, b dsg.LayerKey) int {
		return int(b.Layer) - int(a.Layer)
	})

	shown := make(map[dsg.NodeID]bool)
	for i, key := range keys {
		if !opts.includes(key.Layer) {
			continue
		}
		layer := g.FindKey(key)
		if layer == nil || layer.NumNodes() == 0 {
			continue
		}
		fmt.Fprintf(&buf, "\n  subgraph cluster_%d {\n", i)
		fmt.Fprintf(&buf, "    label=%q;\n", clusterLabel(key, names))
		buf.WriteString("    rank=same;\n")
		if key.Dynamic {
			buf.WriteString("    style=dashed;\n")
		} else {
			buf.WriteString("    style=rounded;\n")
		}
		for _, n := range layer.Nodes() {
			shown[n.ID] = true
			fmt.Fprintf(&buf, "    %q [%s];\n", n.ID.Label(), strings.Join(fmtAttrs(n, key, opts.Detailed), ", "))
		}
		for _, e := range layer.Edges() {
			fmt.Fprintf(&buf, "    %q -> %q [dir=none];\n", e.Source.Label(), e.Target.Label())
		}
		buf.WriteString("  }\n")
	}

	buf.WriteString("\n")
	for _, edges := range [][]*dsg.Edge{g.InterlayerEdges(), g.DynamicInterlayerEdges()} {
		for _, e := range edges {
			if !shown[e.Source] || !shown[e.Target] {
				continue
			}
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.Source.Label(), e.Target.Label())
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// layerNames joins all names registered for a layer id, e.g.
// "agents/objects" for the shared object level.
func layerNames(g *dsg.Graph) map[dsg.LayerID]string {
	byID := make(map[dsg.LayerID]string)
	names := g.LayerNames()
	for _, name := range slices.Sorted(maps.Keys(names)) {
		id := names[name]
		if prev, ok := byID[id]; ok {
			byID[id] = prev + "/" + name
		} else {
			byID[id] = name
		}
	}
	return byID
}

func clusterLabel(key dsg.LayerKey, names map[dsg.LayerID]string) string {
	name, ok := names[key.Layer]
	if !ok {
		name = "layer " + strconv.Itoa(int(key.Layer))
	}
	if key.Dynamic {
		return fmt.Sprintf("%s (%s)", name, key.Prefix)
	}
	return name
}

func fmtLabel(n *dsg.Node, detailed bool) string {
	if !detailed {
		return n.ID.Label()
	}
	parts := []string{n.ID.Label()}
	if attrs, ok := n.Attributes().(*dsg.NodeAttrs); ok {
		if attrs.Name != "" {
			parts = append(parts, attrs.Name)
		}
		p := attrs.Position
		parts = append(parts, fmt.Sprintf("(%.2f, %.2f, %.2f)", p[0], p[1], p[2]))
	}
	if stamp, ok := n.Timestamp(); ok {
		parts = append(parts, "t="+stamp.String())
	}
	return strings.Join(parts, "\n")
}

func fmtAttrs(n *dsg.Node, key dsg.LayerKey, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, detailed))}
	if key.Dynamic {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := render(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.PNG)
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
