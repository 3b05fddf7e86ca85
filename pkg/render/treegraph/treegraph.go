// Package treegraph renders a tile's subdivision tree as a node-link
// diagram.
//
// [ToDOT] produces Graphviz DOT source in which interior nodes are small
// circles and leaves are boxes labeled with their rectangle. [RenderSVG]
// lays the DOT out with Graphviz.
//
//	dot := treegraph.ToDOT(tile.Tree, treegraph.Options{Title: "tile (3,1)"})
//	svg, err := treegraph.RenderSVG(ctx, dot)
package treegraph

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/tileview/pkg/tilecache"
)

// MaxDepth bounds the walk; deeper nodes are omitted.
const MaxDepth = tilecache.MaxTreeDepth

// Options configures DOT generation.
type Options struct {
	// Title labels the graph. Empty means no label.
	Title string
	// Leaves includes leaf rectangles in labels when true; otherwise
	// leaves show only their index.
	Leaves bool
}

// ToDOT converts a tile tree to Graphviz DOT. Nodes are numbered in
// pre-order, so the same tree always yields the same source.
func ToDOT(root *tilecache.Node, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	if opts.Title != "" {
		fmt.Fprintf(&buf, "  label=%q;\n  labelloc=t;\n", opts.Title)
	}
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.2;\n")
	buf.WriteString("\n")

	w := walker{buf: &buf, opts: opts}
	w.visit(root, 0)

	buf.WriteString("}\n")
	return buf.String()
}

type walker struct {
	buf    *bytes.Buffer
	opts   Options
	next   int
	leaves int
}

// visit emits n and its subtree and returns n's id, or -1 if omitted.
func (w *walker) visit(n *tilecache.Node, depth int) int {
	if n == nil || depth > MaxDepth {
		return -1
	}
	id := w.next
	w.next++

	if n.IsLeaf() {
		label := "leaf " + strconv.Itoa(w.leaves)
		if w.opts.Leaves {
			label += "\n" + n.Rect.String()
		}
		w.leaves++
		fmt.Fprintf(w.buf, "  n%d [label=%q];\n", id, label)
		return id
	}

	fmt.Fprintf(w.buf, "  n%d [label=\"\", shape=circle, width=0.2, fillcolor=lightgrey];\n", id)
	for _, child := range n.Children {
		if c := w.visit(child, depth+1); c >= 0 {
			fmt.Fprintf(w.buf, "  n%d -> n%d;\n", id, c)
		}
	}
	return id
}

// RenderSVG lays out DOT source with Graphviz and returns SVG bytes.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
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
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based svg element with one
// sized in user units so the diagram scales in a browser.
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

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
