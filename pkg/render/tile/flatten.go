package tile

import (
	"fmt"

	"github.com/matzehuels/tileview/pkg/geom"
	"github.com/matzehuels/tileview/pkg/tilecache"
)

// MaxTreeDepth bounds recursion into tile trees; deeper nodes are dropped.
const MaxTreeDepth = tilecache.MaxTreeDepth

// Settings maps device space to SVG space and sizes the document.
type Settings struct {
	Scale   float64 `json:"scale" toml:"scale"`
	OffsetX float64 `json:"offset_x" toml:"offset_x"`
	OffsetY float64 `json:"offset_y" toml:"offset_y"`
	Width   float64 `json:"width" toml:"width"`
	Height  float64 `json:"height" toml:"height"`
}

// Default document settings.
const (
	DefaultScale  = 1.0
	DefaultWidth  = 1920.0
	DefaultHeight = 1080.0
)

// DefaultSettings returns identity scaling on a 1920x1080 document.
func DefaultSettings() Settings {
	return Settings{Scale: DefaultScale, Width: DefaultWidth, Height: DefaultHeight}
}

// withDefaults fills zero fields.
func (s Settings) withDefaults() Settings {
	if s.Scale == 0 {
		s.Scale = DefaultScale
	}
	if s.Width == 0 {
		s.Width = DefaultWidth
	}
	if s.Height == 0 {
		s.Height = DefaultHeight
	}
	return s
}

// place projects r through m and applies the document scale and offset.
func (s Settings) place(r geom.Rect, m geom.Matrix) (geom.Rect, error) {
	return geom.Project(r, m.Scale(s.Scale, s.Scale).Translate(s.OffsetX, s.OffsetY))
}

// Flatten walks a tile tree and returns one SVG rect fragment per leaf, in
// tree order. Leaves whose rectangle cannot be projected are skipped, as
// are nodes deeper than MaxTreeDepth.
func Flatten(n *tilecache.Node, m geom.Matrix, s Settings) []string {
	var out []string
	flatten(n, m, s.withDefaults(), 0, &out)
	return out
}

func flatten(n *tilecache.Node, m geom.Matrix, s Settings, depth int, out *[]string) {
	if n == nil || depth > MaxTreeDepth {
		return
	}
	if n.IsLeaf() {
		r, err := s.place(n.Rect, m)
		if err != nil {
			return
		}
		*out = append(*out, rectFragment(r, ` class="svg_quadtree"`, ""))
		return
	}
	for _, child := range n.Children {
		flatten(child, m, s, depth+1, out)
	}
}

// rectFragment renders one <rect>. attrs must start with a space; body,
// if non-empty, becomes the element content.
func rectFragment(r geom.Rect, attrs, body string) string {
	head := fmt.Sprintf(`<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f"%s`,
		r.Min.X, r.Min.Y, r.Width(), r.Height(), attrs)
	if body == "" {
		return head + "/>\n"
	}
	return head + ">" + body + "</rect>\n"
}
