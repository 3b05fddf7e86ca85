// Package geom provides the 2D geometry used to place tiles on screen.
//
// Tile rectangles are captured in the local space of their picture cache
// slice. Each slice carries a 4x4 transform (row-vector convention, the
// same layout the capture format writes) mapping local space into device
// space. [Project] applies that transform to a rectangle and returns the
// axis-aligned bounding box of the result.
//
//	m := geom.Identity().Translate(100, 50)
//	r, err := geom.Project(geom.Rect{Min: geom.Point{}, Max: geom.Point{X: 256, Y: 256}}, m)
//	if errors.Is(err, geom.ErrNotFinite) {
//	    // skip the tile
//	}
package geom

import (
	"errors"
	"fmt"
	"math"
)

// ErrNotFinite is returned when a transform maps a point to infinity or
// behind the viewer (w <= 0).
var ErrNotFinite = errors.New("projection is not finite")

// Point is a 2D position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// String formats the point as "(x,y)".
func (p Point) String() string {
	return fmt.Sprintf("(%g,%g)", p.X, p.Y)
}

// Rect is an axis-aligned rectangle given by its min and max corners.
type Rect struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// NewRect builds a rectangle from an origin and a size.
func NewRect(x, y, w, h float64) Rect {
	return Rect{Min: Point{X: x, Y: y}, Max: Point{X: x + w, Y: y + h}}
}

// Width returns the horizontal extent.
func (r Rect) Width() float64 { return r.Max.X - r.Min.X }

// Height returns the vertical extent.
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

// IsEmpty reports whether the rectangle has no area.
func (r Rect) IsEmpty() bool { return r.Width() <= 0 || r.Height() <= 0 }

// String formats the rectangle as "[(x0,y0)-(x1,y1)]".
func (r Rect) String() string {
	return fmt.Sprintf("[%s-%s]", r.Min, r.Max)
}

// Union returns the smallest rectangle containing both r and o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		Min: Point{X: math.Min(r.Min.X, o.Min.X), Y: math.Min(r.Min.Y, o.Min.Y)},
		Max: Point{X: math.Max(r.Max.X, o.Max.X), Y: math.Max(r.Max.Y, o.Max.Y)},
	}
}

// Matrix is a 4x4 transform in row-vector convention: a point p maps to
// p * M. M[row][col], so translation lives in row 3.
type Matrix [4][4]float64

// Identity returns the identity transform.
func Identity() Matrix {
	return Matrix{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// FromSlice builds a matrix from 16 values in row-major order
// (m11, m12, ..., m44). It returns an error for any other length.
func FromSlice(v []float64) (Matrix, error) {
	var m Matrix
	if len(v) != 16 {
		return m, fmt.Errorf("matrix needs 16 values, got %d", len(v))
	}
	for i, f := range v {
		m[i/4][i%4] = f
	}
	return m, nil
}

// Translate returns m followed by a translation of (x, y).
func (m Matrix) Translate(x, y float64) Matrix {
	t := Identity()
	t[3][0], t[3][1] = x, y
	return m.Then(t)
}

// Scale returns m followed by a scale of (sx, sy).
func (m Matrix) Scale(sx, sy float64) Matrix {
	s := Identity()
	s[0][0], s[1][1] = sx, sy
	return m.Then(s)
}

// Then returns the transform that applies m first and then o.
func (m Matrix) Then(o Matrix) Matrix {
	var r Matrix
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m[i][k] * o[k][j]
			}
			r[i][j] = sum
		}
	}
	return r
}

// IsAffine2D reports whether m has no perspective or z-dependent terms,
// in which case the image of a rectangle is spanned by two corners.
func (m Matrix) IsAffine2D() bool {
	return m[0][3] == 0 && m[1][3] == 0 && m[2][3] == 0 && m[3][3] == 1 &&
		m[0][1] == 0 && m[1][0] == 0
}

// TransformPoint maps p through m, dividing by w.
func (m Matrix) TransformPoint(p Point) (Point, error) {
	x := p.X*m[0][0] + p.Y*m[1][0] + m[3][0]
	y := p.X*m[0][1] + p.Y*m[1][1] + m[3][1]
	w := p.X*m[0][3] + p.Y*m[1][3] + m[3][3]
	if !(w > 0) || math.IsInf(w, 0) {
		return Point{}, ErrNotFinite
	}
	out := Point{X: x / w, Y: y / w}
	if !finite(out.X) || !finite(out.Y) {
		return Point{}, ErrNotFinite
	}
	return out, nil
}

// Project maps r through m and returns the axis-aligned bounding box of
// the transformed corners.
func Project(r Rect, m Matrix) (Rect, error) {
	corners := []Point{r.Min, r.Max}
	if !m.IsAffine2D() {
		corners = append(corners, Point{X: r.Max.X, Y: r.Min.Y}, Point{X: r.Min.X, Y: r.Max.Y})
	}

	var out Rect
	for i, c := range corners {
		p, err := m.TransformPoint(c)
		if err != nil {
			return Rect{}, fmt.Errorf("corner %s: %w", c, err)
		}
		if i == 0 {
			out = Rect{Min: p, Max: p}
			continue
		}
		out = out.Union(Rect{Min: p, Max: p})
	}
	return out, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
