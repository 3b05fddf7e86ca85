package tilecache

import "github.com/matzehuels/tileview/pkg/geom"

// Kind identifies an invalidation cause variant.
type Kind int

// Cause variants. KindNone is the zero value and is never returned by a
// non-nil Cause.
const (
	KindNone Kind = iota
	KindFractionalOffset
	KindBackgroundColor
	KindSurfaceOpacity
	KindNoTexture
	KindNoSurface
	KindPrimCount
	KindContent
	KindCompositorKind
	KindValidRect
	KindScaleChanged

	kindCount
)

var kindNames = [kindCount]string{
	KindNone:             "None",
	KindFractionalOffset: "FractionalOffset",
	KindBackgroundColor:  "BackgroundColor",
	KindSurfaceOpacity:   "SurfaceOpacityChanged",
	KindNoTexture:        "NoTexture",
	KindNoSurface:        "NoSurface",
	KindPrimCount:        "PrimCount",
	KindContent:          "Content",
	KindCompositorKind:   "CompositorKindChanged",
	KindValidRect:        "ValidRectChanged",
	KindScaleChanged:     "ScaleChanged",
}

// String returns the capture-format name of the kind.
func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return "Unknown"
	}
	return kindNames[k]
}

// Kinds returns every cause kind except KindNone, in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount-1)
	for k := KindNone + 1; k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}

// ParseKind returns the kind with the given capture-format name.
func ParseKind(name string) (Kind, bool) {
	for k := KindNone + 1; k < kindCount; k++ {
		if kindNames[k] == name {
			return k, true
		}
	}
	return KindNone, false
}

// Cause is the reason a tile was invalidated. It is implemented only by
// the variant types below.
type Cause interface {
	Kind() Kind
	isCause()
}

// FractionalOffset: the sub-pixel offset of the slice changed.
type FractionalOffset struct{ Old, New geom.Point }

// BackgroundColor: the opaque background behind the tile changed.
type BackgroundColor struct{ Old, New *Color }

// SurfaceOpacity: the backing surface switched between opaque and
// translucent.
type SurfaceOpacity struct{ BecameOpaque bool }

// NoTexture: the tile had no texture allocated.
type NoTexture struct{}

// NoSurface: the tile had no compositor surface.
type NoSurface struct{}

// PrimCount: the set of primitives drawn into the tile changed.
type PrimCount struct{ Old, New []ItemUID }

// Content: a primitive's content changed; Detail says how.
type Content struct{ Detail ContentDetail }

// CompositorKind: the compositor surface kind changed.
type CompositorKind struct{}

// ValidRect: the valid region of the tile changed.
type ValidRect struct{}

// ScaleChanged: the raster scale of the slice changed.
type ScaleChanged struct{}

func (FractionalOffset) Kind() Kind { return KindFractionalOffset }
func (BackgroundColor) Kind() Kind  { return KindBackgroundColor }
func (SurfaceOpacity) Kind() Kind   { return KindSurfaceOpacity }
func (NoTexture) Kind() Kind        { return KindNoTexture }
func (NoSurface) Kind() Kind        { return KindNoSurface }
func (PrimCount) Kind() Kind        { return KindPrimCount }
func (Content) Kind() Kind          { return KindContent }
func (CompositorKind) Kind() Kind   { return KindCompositorKind }
func (ValidRect) Kind() Kind        { return KindValidRect }
func (ScaleChanged) Kind() Kind     { return KindScaleChanged }

func (FractionalOffset) isCause() {}
func (BackgroundColor) isCause()  {}
func (SurfaceOpacity) isCause()   {}
func (NoTexture) isCause()        {}
func (NoSurface) isCause()        {}
func (PrimCount) isCause()        {}
func (Content) isCause()          {}
func (CompositorKind) isCause()   {}
func (ValidRect) isCause()        {}
func (ScaleChanged) isCause()     {}

// KindOf returns c.Kind(), or KindNone for a nil cause.
func KindOf(c Cause) Kind {
	if c == nil {
		return KindNone
	}
	return c.Kind()
}

// ContentDetail describes what a primitive comparison found.
type ContentDetail interface {
	DetailName() string
	isDetail()
}

// Descriptor is the comparable summary of a primitive.
type Descriptor struct {
	PrimUID       ItemUID
	Origin        geom.Point
	ClipBox       geom.Rect
	TransformDeps int
	ClipDeps      int
}

// DescriptorChanged: the primitive descriptors differ.
type DescriptorChanged struct{ Old, New Descriptor }

// ClipCount: the number of clips in the clip list changed.
type ClipCount struct{ Old, New int }

// ClipReplaced: one clip in the clip list was replaced by another.
type ClipReplaced struct{ Old, New ItemUID }

// OtherDetail is any comparison result without a dedicated type
// (transform, image, opacity or color bindings). Fields holds the
// decoded payload.
type OtherDetail struct {
	Name   string
	Fields map[string]any
}

func (DescriptorChanged) DetailName() string { return "Descriptor" }
func (ClipCount) DetailName() string         { return "Clip" }
func (ClipReplaced) DetailName() string      { return "Clip" }
func (d OtherDetail) DetailName() string     { return d.Name }

func (DescriptorChanged) isDetail() {}
func (ClipCount) isDetail()         {}
func (ClipReplaced) isDetail()      {}
func (OtherDetail) isDetail()       {}
