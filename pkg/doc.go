// Package pkg holds the libraries behind tileview, a viewer for captured
// compositor tile caches.
//
// # Data Flow
//
//	capture directory (one JSON snapshot per frame)
//	         ↓
//	    [io] package (decode frames and the display-name table)
//	         ↓
//	    [tilecache] package (frames, slices, tiles, invalidation causes)
//	         ↓
//	    [render/tile] package (SVG per frame, invalidation report)
//	    [render/intern] package (report page with the interning ledger)
//	         ↓
//	tile_cache<N>.svg, tile_cache<N>.html, index.html
//
// [pipeline] runs these stages with a frame cache ([cache]) and emits
// events through [observability].
//
// # Main Packages
//
//   - [geom]: rectangles, 4x4 transforms and projection to device space
//   - [tilecache]: the captured data model
//   - [invalidation]: maps a cause to a drawing style and explanation
//   - [render/tile]: tile tree flattening, per-frame SVG and report
//   - [render/intern]: interning ledger and report page
//   - [render/treegraph]: one tile tree as a Graphviz diagram
//   - [assets]: bundled stylesheets
//   - [io]: JSON snapshot format
//   - [errors]: coded errors
package pkg
