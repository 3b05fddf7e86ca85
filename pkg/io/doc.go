// Package io reads and writes captured tile cache frames.
//
// # Overview
//
// A capture is a directory of JSON frame files, one per logged frame,
// plus an optional display-name table ([NamesFile]). [ImportDir] loads
// the frames in natural file order; [ReadFrame] and [ImportFrame] load a
// single frame.
//
// # JSON Format
//
// A frame holds its picture cache slices and its interning update logs:
//
//	{
//	  "slices": [
//	    {
//	      "slice": 0,
//	      "transform": [1,0,0,0, 0,1,0,0, 0,0,1,0, 0,0,0,1],
//	      "background": {"r": 1, "g": 1, "b": 1, "a": 1},
//	      "tiles": [
//	        {
//	          "key": {"x": 0, "y": 0},
//	          "rect": {"min": {"x": 0, "y": 0}, "max": {"x": 256, "y": 256}},
//	          "cause": {"kind": "PrimCount", "old": [1, 2], "new": [2, 3]},
//	          "tree": {"children": [{"rect": {...}}, {"rect": {...}}]}
//	        }
//	      ]
//	    }
//	  ],
//	  "interns": [
//	    {"name": "clip", "batches": [{"insertions": [{"uid": 7, "value": {...}}], "removals": [3]}]}
//	  ]
//	}
//
// The transform is 16 values in row-major order and defaults to the
// identity. Tile keys must be unique within a slice; slice indices need
// not be.
//
// # Causes
//
// A cause is an envelope tagged by "kind", one of the names returned by
// [tilecache.Kind.String]. Payload fields by kind:
//
//   - FractionalOffset: "old", "new" points
//   - BackgroundColor: "old", "new" colors (null for none)
//   - SurfaceOpacityChanged: "became_opaque"
//   - PrimCount: "old", "new" identifier lists
//   - Content: "detail", itself tagged by "kind": DescriptorChanged
//     (descriptors with prim_uid, origin, clip_box, transform_deps,
//     clip_deps), ClipCount, ClipReplaced; any other detail kind is kept
//     with its fields as [tilecache.OtherDetail]
//   - all others: no payload
//
// # Names
//
// The name table maps decimal identifiers to display strings:
//
//	{"7": "clip rounded rect", "12": "text run 'Hello'"}
//
// # Export
//
// [WriteFrame] and [ExportFrame] write the same format, so fixtures can be
// generated from in-memory frames.
package io
