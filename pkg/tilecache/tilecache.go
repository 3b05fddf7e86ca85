// Package tilecache defines the in-memory model of captured tile cache
// snapshots.
//
// A capture is a sequence of [Frame] values, one per logged frame. Each
// frame holds the picture cache slices ([Snapshot]) that existed at that
// point, and the interning update lists recorded since the previous
// frame. Everything in this package is read-only once loaded; renderers
// never mutate snapshots.
//
// # Invalidation causes
//
// A [Tile] optionally records why it was invalidated. The cause is a
// closed sum type: [Cause] is implemented only by the variant types in
// this package, and [Kinds] enumerates them. Content changes carry a
// second-level [ContentDetail] describing what the primitive comparison
// found.
package tilecache

import (
	"fmt"
	"strconv"

	"github.com/matzehuels/tileview/pkg/geom"
)

// Frame is one captured frame.
type Frame struct {
	// Index is the position of the frame in the capture (0-based).
	Index int
	// Source names where the frame was loaded from (file path), if any.
	Source string
	// Slices are the picture cache slices in capture order.
	Slices []Snapshot
	// Interns are the interning update lists, one per category.
	Interns []InternCategory
}

// TileCount returns the total number of tiles across all slices.
func (f *Frame) TileCount() int {
	n := 0
	for _, s := range f.Slices {
		n += len(s.Cache.Tiles)
	}
	return n
}

// Snapshot is the state of a single picture cache slice in one frame.
type Snapshot struct {
	Slice     int         // slice index, used to pair with the previous frame
	Transform geom.Matrix // local space to device space
	Cache     State
}

// State is the tile cache of a slice.
type State struct {
	Tiles      []Tile // capture order, keys unique
	Background *Color // slice-wide background, if known
}

// Tile returns the tile stored under key.
func (s *State) Tile(key TileKey) (*Tile, bool) {
	for i := range s.Tiles {
		if s.Tiles[i].Key == key {
			return &s.Tiles[i], true
		}
	}
	return nil, false
}

// TileKey is the integer grid coordinate of a tile.
type TileKey struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// String formats the key as "(x,y)".
func (k TileKey) String() string {
	return fmt.Sprintf("(%d,%d)", k.X, k.Y)
}

// Tile is one cached rectangular region.
type Tile struct {
	Key        TileKey
	Rect       geom.Rect // local space
	Cause      Cause     // nil when the tile was not invalidated
	Background *Color    // per-tile override of the slice background
	Tree       *Node     // dirty-region tree, optional
}

// Color is a linear RGBA color with components in [0, 1].
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// RGB8 returns the color scaled to 8-bit channels, clamped.
func (c Color) RGB8() (r, g, b uint8) {
	return channel(c.R), channel(c.G), channel(c.B)
}

// String formats the color as "rgba(r,g,b,a)" with 8-bit channels.
func (c Color) String() string {
	r, g, b := c.RGB8()
	return fmt.Sprintf("rgba(%d,%d,%d,%g)", r, g, b, c.A)
}

func channel(f float64) uint8 {
	switch {
	case !(f > 0):
		return 0
	case f >= 1:
		return 255
	}
	return uint8(f * 255)
}

// MaxTreeDepth bounds the depth of tile trees. Captured trees are
// shallow; the loader rejects deeper ones and walkers stop there.
const MaxTreeDepth = 32

// Node is a node of a tile's spatial subdivision tree. A node with no
// children is a leaf and carries Rect; an interior node carries only
// Children.
type Node struct {
	Rect     geom.Rect
	Children []*Node
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// Leaf builds a leaf node.
func Leaf(r geom.Rect) *Node { return &Node{Rect: r} }

// Interior builds an interior node with the given children.
func Interior(children ...*Node) *Node { return &Node{Children: children} }

// ItemUID is an opaque identifier of an interned item or primitive.
type ItemUID uint64

// String formats the identifier in decimal.
func (u ItemUID) String() string { return strconv.FormatUint(uint64(u), 10) }

// Names maps item identifiers to human-readable strings.
type Names map[ItemUID]string

// Lookup returns the display string for uid, or "" when unknown.
func (n Names) Lookup(uid ItemUID) string {
	return n[uid]
}

// InternCategory is the update log of one kind of interned object.
type InternCategory struct {
	Name    string
	Batches []InternBatch
}

// InternBatch is one entry of an update log, in capture order.
type InternBatch struct {
	Insertions []InternInsert
	Removals   []ItemUID
}

// InternInsert records an item added to an interner.
type InternInsert struct {
	UID   ItemUID
	Value any
}
