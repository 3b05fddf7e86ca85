// Package invalidation explains why a tile was invalidated.
//
// [Classify] turns a tile's recorded [tilecache.Cause] into the style used
// to draw the tile and an HTML fragment describing the change. The style
// depends only on the cause kind (or, for valid tiles, on the background
// color); the explanation renders the cause payload, resolving item
// identifiers through a [tilecache.Names] table.
//
// Classification is pure: it performs no I/O, never mutates its inputs,
// and returns the same output for the same input.
//
// # Explanations
//
// Each explanation starts with a reason line naming the cause kind,
// followed by zero or more data lines:
//
//	<div class="reason">PrimCount</div>
//	<div class="data">primitives 3 &rarr; 3</div>
//	<div class="data">removed 1</div>
//	<ul class="uids"><li>11 rect</li></ul>
//	...
//
// List-valued causes are diffed with [Diff], so only the identifiers that
// actually entered or left the tile are listed.
package invalidation

import (
	"bytes"
	"fmt"
	"html"

	"github.com/matzehuels/tileview/pkg/tilecache"
)

// Classify returns the style and explanation for a tile. current is the
// tile's own background, fallback the slice background; both may be nil.
// The explanation is empty when c is nil.
func Classify(c tilecache.Cause, current, fallback *tilecache.Color, names tilecache.Names) (Style, string) {
	style := StyleFor(c, current, fallback)
	if c == nil {
		return style, ""
	}
	return style, Explain(c, names)
}

// Explain renders the HTML explanation of c.
func Explain(c tilecache.Cause, names tilecache.Names) string {
	var buf bytes.Buffer
	reason(&buf, c.Kind().String())

	switch c := c.(type) {
	case tilecache.FractionalOffset:
		data(&buf, "offset %s &rarr; %s", esc(c.Old), esc(c.New))
	case tilecache.BackgroundColor:
		data(&buf, "color %s &rarr; %s", colorText(c.Old), colorText(c.New))
	case tilecache.SurfaceOpacity:
		data(&buf, "opaque %t &rarr; %t", !c.BecameOpaque, c.BecameOpaque)
	case tilecache.PrimCount:
		explainPrimCount(&buf, c, names)
	case tilecache.Content:
		explainContent(&buf, c.Detail, names)
	case tilecache.NoTexture, tilecache.NoSurface, tilecache.CompositorKind,
		tilecache.ValidRect, tilecache.ScaleChanged:
		// The reason line says it all.
	default:
		dump(&buf, c)
	}
	return buf.String()
}

func explainPrimCount(buf *bytes.Buffer, c tilecache.PrimCount, names tilecache.Names) {
	removed, added := Diff(c.Old, c.New)
	data(buf, "primitives %d &rarr; %d", len(c.Old), len(c.New))
	data(buf, "removed %d", len(removed))
	uidList(buf, removed, names)
	data(buf, "added %d", len(added))
	uidList(buf, added, names)
}

func explainContent(buf *bytes.Buffer, d tilecache.ContentDetail, names tilecache.Names) {
	switch d := d.(type) {
	case tilecache.DescriptorChanged:
		explainDescriptor(buf, d, names)
	case tilecache.ClipCount:
		data(buf, "clip count %d &rarr; %d", d.Old, d.New)
	case tilecache.ClipReplaced:
		data(buf, "clip %s &rarr; %s", uidText(d.Old, names), uidText(d.New, names))
	case tilecache.OtherDetail:
		dump(buf, fmt.Sprintf("%s %v", d.Name, d.Fields))
	case nil:
		data(buf, "no comparison detail")
	default:
		dump(buf, d)
	}
}

func explainDescriptor(buf *bytes.Buffer, d tilecache.DescriptorChanged, names tilecache.Names) {
	if d.Old.PrimUID == d.New.PrimUID {
		data(buf, "descriptor changed in place: %s", uidText(d.New.PrimUID, names))
		if d.Old.ClipBox != d.New.ClipBox {
			data(buf, "clip box %s &rarr; %s", esc(d.Old.ClipBox), esc(d.New.ClipBox))
		}
		return
	}
	data(buf, "descriptor identifier changed")
	data(buf, "old %s", descriptorText(d.Old, names))
	data(buf, "new %s", descriptorText(d.New, names))
}

func descriptorText(d tilecache.Descriptor, names tilecache.Names) string {
	return fmt.Sprintf("%s origin %s clip box %s transform deps %d clip deps %d",
		uidText(d.PrimUID, names), esc(d.Origin), esc(d.ClipBox), d.TransformDeps, d.ClipDeps)
}

func uidList(buf *bytes.Buffer, uids []tilecache.ItemUID, names tilecache.Names) {
	if len(uids) == 0 {
		return
	}
	buf.WriteString(`<ul class="uids">`)
	for _, u := range uids {
		fmt.Fprintf(buf, "<li>%s</li>", uidText(u, names))
	}
	buf.WriteString("</ul>\n")
}

// uidText renders an identifier with its display name, escaped. Unknown
// identifiers resolve to an empty name.
func uidText(u tilecache.ItemUID, names tilecache.Names) string {
	name := names.Lookup(u)
	if name == "" {
		return u.String()
	}
	return esc(u.String() + " " + name)
}

func colorText(c *tilecache.Color) string {
	if c == nil {
		return "none"
	}
	return esc(c.String())
}

// dump is the fallback for payloads without a dedicated rendering.
func dump(buf *bytes.Buffer, v any) {
	fmt.Fprintf(buf, "<div class=\"data generic\">%s</div>\n", esc(fmt.Sprintf("%+v", v)))
}

func reason(buf *bytes.Buffer, kind string) {
	fmt.Fprintf(buf, "<div class=\"reason\">%s</div>\n", esc(kind))
}

// data writes one data line. Arguments must already be escaped.
func data(buf *bytes.Buffer, format string, args ...any) {
	buf.WriteString(`<div class="data">`)
	fmt.Fprintf(buf, format, args...)
	buf.WriteString("</div>\n")
}

func esc(v any) string {
	return html.EscapeString(fmt.Sprint(v))
}
