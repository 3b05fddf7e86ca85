package tile

import (
	"bytes"
	"fmt"
	"html"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/tileview/pkg/assets"
	"github.com/matzehuels/tileview/pkg/invalidation"
	"github.com/matzehuels/tileview/pkg/tilecache"
)

// Option configures Render.
type Option func(*renderer)

type renderer struct {
	settings Settings
	tree     bool
	workers  int
	names    tilecache.Names
}

// WithSettings sets the device-to-document mapping.
func WithSettings(s Settings) Option { return func(r *renderer) { r.settings = s } }

// WithTree draws each tile's subdivision tree on top of the tile.
func WithTree() Option { return func(r *renderer) { r.tree = true } }

// WithWorkers renders up to n slices concurrently. Output order is the
// input order regardless of n.
func WithWorkers(n int) Option { return func(r *renderer) { r.workers = n } }

// Result holds the markup produced for one frame.
type Result struct {
	SVG      string // complete SVG document
	Report   string // invalidation report fragment
	MaxSlice int    // largest slice index seen
	Tiles    int    // tiles drawn
	Skipped  int    // tiles dropped because their rect could not be projected
}

// Render draws every tile of slices and explains each invalidated tile
// relative to prev, the slices of the preceding frame (nil for the first
// frame). Slices are paired by slice index, first match wins; tiles are
// paired by key.
func Render(slices, prev []tilecache.Snapshot, names tilecache.Names, opts ...Option) Result {
	r := renderer{settings: DefaultSettings(), workers: 1, names: names}
	for _, opt := range opts {
		opt(&r)
	}
	r.settings = r.settings.withDefaults()

	parts := make([]slicePart, len(slices))
	if r.workers > 1 && len(slices) > 1 {
		var g errgroup.Group
		g.SetLimit(r.workers)
		for i := range slices {
			g.Go(func() error {
				parts[i] = r.renderSlice(&slices[i], findSlice(prev, slices[i].Slice))
				return nil
			})
		}
		// The workers never return an error; Wait only joins them.
		_ = g.Wait()
	} else {
		for i := range slices {
			parts[i] = r.renderSlice(&slices[i], findSlice(prev, slices[i].Slice))
		}
	}

	return r.assemble(slices, parts)
}

// SliceGroupID is the id of the SVG group holding every tile of a slice.
// Viewers toggle slices by this id, for slice indices up to MaxSlice.
func SliceGroupID(slice int) string { return fmt.Sprintf("tile_slice%d_everything", slice) }

// SliceReportID is the id of the report block holding a slice's entries.
func SliceReportID(slice int) string { return fmt.Sprintf("invalidation_slice%d", slice) }

// slicePart is the markup of a single slice.
type slicePart struct {
	svg     string
	report  string
	tiles   int
	skipped int
}

// findSlice returns the first snapshot in prev with the given index.
func findSlice(prev []tilecache.Snapshot, slice int) *tilecache.Snapshot {
	for i := range prev {
		if prev[i].Slice == slice {
			return &prev[i]
		}
	}
	return nil
}

func (r *renderer) renderSlice(s, prev *tilecache.Snapshot) slicePart {
	var p slicePart
	var svg, report bytes.Buffer
	fmt.Fprintf(&svg, "  <g id=\"%s\">\n", SliceGroupID(s.Slice))
	fmt.Fprintf(&report, "<div id=\"%s\">\n", SliceReportID(s.Slice))
	fmt.Fprintf(&report, "<div class=\"subheader\">slice %d</div>\n", s.Slice)

	for i := range s.Cache.Tiles {
		t := &s.Cache.Tiles[i]

		rect, err := r.settings.place(t.Rect, s.Transform)
		if err != nil {
			p.skipped++
			continue
		}
		p.tiles++

		var prevTile *tilecache.Tile
		if prev != nil {
			prevTile, _ = prev.Cache.Tile(t.Key)
		}

		style, explanation := invalidation.Classify(t.Cause, t.Background, s.Cache.Background, r.names)

		var title string
		if t.Cause != nil && prevTile != nil {
			title = fmt.Sprintf("<title>slice %d tile %s - %s</title>", s.Slice, t.Key, t.Cause.Kind())
			fmt.Fprintf(&report, "<div class=\"tile_entry\">\n<div class=\"tile_key\">tile %s</div>\n%s</div>\n",
				html.EscapeString(t.Key.String()), explanation)
		}

		fmt.Fprintf(&svg, "    <!-- tile %s -->\n", t.Key)
		svg.WriteString("    " + rectFragment(rect, style.Attr(), ""))
		if r.tree && t.Tree != nil {
			for _, frag := range Flatten(t.Tree, s.Transform, r.settings) {
				svg.WriteString("    " + frag)
			}
		}
		svg.WriteString("    " + rectFragment(rect, ` class="svg_tile_hover" fill="white" fill-opacity="0.01"`, title))
	}

	svg.WriteString("  </g>\n")
	report.WriteString("</div>\n")
	p.svg, p.report = svg.String(), report.String()
	return p
}

func (r *renderer) assemble(slices []tilecache.Snapshot, parts []slicePart) Result {
	var res Result
	var svg, report bytes.Buffer

	w, h := r.settings.Width, r.settings.Height
	svg.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	fmt.Fprintf(&svg, "<?xml-stylesheet type=\"text/css\" href=\"%s\"?>\n", assets.BaseStylesheet)
	fmt.Fprintf(&svg, "<?xml-stylesheet type=\"text/css\" href=\"%s\"?>\n", assets.Stylesheet)
	fmt.Fprintf(&svg, `<svg version="1.1" xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.0f %.0f" width="%.0f" height="%.0f">`+"\n",
		w, h, w, h)
	svg.WriteString("  <rect x=\"0\" y=\"0\" width=\"100%\" height=\"100%\" fill=\"black\"/>\n")

	report.WriteString("<div class=\"header\">Invalidation</div>\n")

	for i := range parts {
		svg.WriteString(parts[i].svg)
		report.WriteString(parts[i].report)
		res.Tiles += parts[i].tiles
		res.Skipped += parts[i].skipped
		res.MaxSlice = max(res.MaxSlice, slices[i].Slice)
	}

	svg.WriteString("</svg>\n")
	res.SVG = svg.String()
	res.Report = report.String()
	return res
}
