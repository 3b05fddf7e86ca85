package invalidation

import (
	"fmt"
	"html"

	"github.com/matzehuels/tileview/pkg/tilecache"
)

// FillOpacity is the opacity applied to background-derived tile fills.
const FillOpacity = 0.3

// Style is the visual style of a tile rectangle. Exactly one of Class
// and Fill is set.
type Style struct {
	Class string // CSS class for invalidated tiles
	Fill  string // inline style for tiles drawn with their background
}

// NoFill is the style of a valid tile with no known background.
var NoFill = Style{Fill: "fill:none"}

// Attr renders the style as an SVG attribute, including a leading space.
func (s Style) Attr() string {
	if s.Class != "" {
		return fmt.Sprintf(` class="%s"`, html.EscapeString(s.Class))
	}
	return fmt.Sprintf(` style="%s"`, html.EscapeString(s.Fill))
}

// styleClasses maps every cause kind to its CSS class. The stylesheet in
// pkg/assets defines one rule per entry.
var styleClasses = map[tilecache.Kind]string{
	tilecache.KindFractionalOffset: "svg_changed_fractional_offset",
	tilecache.KindBackgroundColor:  "svg_changed_background_color",
	tilecache.KindSurfaceOpacity:   "svg_changed_surface_opacity",
	tilecache.KindNoTexture:        "svg_changed_no_texture",
	tilecache.KindNoSurface:        "svg_changed_no_surface",
	tilecache.KindPrimCount:        "svg_changed_prim_count",
	tilecache.KindContent:          "svg_changed_content",
	tilecache.KindCompositorKind:   "svg_changed_compositor_kind",
	tilecache.KindValidRect:        "svg_changed_valid_rect",
	tilecache.KindScaleChanged:     "svg_changed_scale",
}

// StyleClass returns the CSS class for k, or "" for KindNone.
func StyleClass(k tilecache.Kind) string {
	return styleClasses[k]
}

// StyleFor selects the tile style. An invalidated tile is styled by the
// kind of its cause alone. A valid tile uses its own background, then
// the slice background, then NoFill.
func StyleFor(c tilecache.Cause, current, fallback *tilecache.Color) Style {
	if c != nil {
		if class := styleClasses[c.Kind()]; class != "" {
			return Style{Class: class}
		}
	}
	switch {
	case current != nil:
		return ColorFill(*current)
	case fallback != nil:
		return ColorFill(*fallback)
	}
	return NoFill
}

// ColorFill returns the inline fill for a background color. Alpha is
// replaced by FillOpacity.
func ColorFill(c tilecache.Color) Style {
	r, g, b := c.RGB8()
	return Style{Fill: fmt.Sprintf("fill:rgb(%d,%d,%d);fill-opacity:%.1f", r, g, b, FillOpacity)}
}
