package io

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/tileview/pkg/geom"
	"github.com/matzehuels/tileview/pkg/tilecache"
)

type frame struct {
	Slices  []slice    `json:"slices"`
	Interns []category `json:"interns,omitempty"`
}

type slice struct {
	Slice      int              `json:"slice"`
	Transform  []float64        `json:"transform,omitempty"`
	Background *tilecache.Color `json:"background,omitempty"`
	Tiles      []tile           `json:"tiles"`
}

type tile struct {
	Key        tilecache.TileKey `json:"key"`
	Rect       geom.Rect         `json:"rect"`
	Background *tilecache.Color  `json:"background,omitempty"`
	Cause      *cause            `json:"cause,omitempty"`
	Tree       *node             `json:"tree,omitempty"`
}

type node struct {
	Rect     *geom.Rect `json:"rect,omitempty"`
	Children []*node    `json:"children,omitempty"`
}

// cause is the tagged envelope of an invalidation cause. Which of the
// payload fields are meaningful depends on Kind.
type cause struct {
	Kind         string          `json:"kind"`
	Old          json.RawMessage `json:"old,omitempty"`
	New          json.RawMessage `json:"new,omitempty"`
	BecameOpaque bool            `json:"became_opaque,omitempty"`
	Detail       json.RawMessage `json:"detail,omitempty"`
}

type descriptor struct {
	PrimUID       tilecache.ItemUID `json:"prim_uid"`
	Origin        geom.Point        `json:"origin"`
	ClipBox       geom.Rect         `json:"clip_box"`
	TransformDeps int               `json:"transform_deps"`
	ClipDeps      int               `json:"clip_deps"`
}

type category struct {
	Name    string  `json:"name"`
	Batches []batch `json:"batches"`
}

type batch struct {
	Insertions []insertion          `json:"insertions,omitempty"`
	Removals   []tilecache.ItemUID `json:"removals,omitempty"`
}

type insertion struct {
	UID   tilecache.ItemUID `json:"uid"`
	Value any               `json:"value"`
}

// Content detail kinds.
const (
	detailDescriptor   = "DescriptorChanged"
	detailClipCount    = "ClipCount"
	detailClipReplaced = "ClipReplaced"
)

func (n *node) toNode(depth int) (*tilecache.Node, error) {
	if depth > tilecache.MaxTreeDepth {
		return nil, fmt.Errorf("tree deeper than %d", tilecache.MaxTreeDepth)
	}
	if len(n.Children) == 0 {
		if n.Rect == nil {
			return nil, fmt.Errorf("leaf without rect")
		}
		return tilecache.Leaf(*n.Rect), nil
	}
	out := &tilecache.Node{Children: make([]*tilecache.Node, 0, len(n.Children))}
	for _, c := range n.Children {
		if c == nil {
			continue
		}
		child, err := c.toNode(depth + 1)
		if err != nil {
			return nil, err
		}
		out.Children = append(out.Children, child)
	}
	return out, nil
}

func fromNode(n *tilecache.Node) *node {
	if n == nil {
		return nil
	}
	if n.IsLeaf() {
		r := n.Rect
		return &node{Rect: &r}
	}
	out := &node{Children: make([]*node, len(n.Children))}
	for i, c := range n.Children {
		out.Children[i] = fromNode(c)
	}
	return out
}

// toCause decodes the envelope into its variant.
func (c *cause) toCause() (tilecache.Cause, error) {
	kind, ok := tilecache.ParseKind(c.Kind)
	if !ok {
		return nil, fmt.Errorf("unknown cause kind %q", c.Kind)
	}

	switch kind {
	case tilecache.KindFractionalOffset:
		var v tilecache.FractionalOffset
		err := c.oldNew(&v.Old, &v.New)
		return v, err
	case tilecache.KindBackgroundColor:
		var v tilecache.BackgroundColor
		err := c.oldNew(&v.Old, &v.New)
		return v, err
	case tilecache.KindSurfaceOpacity:
		return tilecache.SurfaceOpacity{BecameOpaque: c.BecameOpaque}, nil
	case tilecache.KindNoTexture:
		return tilecache.NoTexture{}, nil
	case tilecache.KindNoSurface:
		return tilecache.NoSurface{}, nil
	case tilecache.KindPrimCount:
		var v tilecache.PrimCount
		err := c.oldNew(&v.Old, &v.New)
		return v, err
	case tilecache.KindContent:
		d, err := decodeDetail(c.Detail)
		return tilecache.Content{Detail: d}, err
	case tilecache.KindCompositorKind:
		return tilecache.CompositorKind{}, nil
	case tilecache.KindValidRect:
		return tilecache.ValidRect{}, nil
	case tilecache.KindScaleChanged:
		return tilecache.ScaleChanged{}, nil
	}
	return nil, fmt.Errorf("unhandled cause kind %q", c.Kind)
}

func (c *cause) oldNew(from, to any) error {
	if err := unmarshalOptional(c.Old, from); err != nil {
		return fmt.Errorf("%s old: %w", c.Kind, err)
	}
	if err := unmarshalOptional(c.New, to); err != nil {
		return fmt.Errorf("%s new: %w", c.Kind, err)
	}
	return nil
}

func unmarshalOptional(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

// decodeDetail decodes a content detail. Kinds without a dedicated type
// are kept as OtherDetail with their remaining fields.
func decodeDetail(raw json.RawMessage) (tilecache.ContentDetail, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var env struct {
		Kind string          `json:"kind"`
		Old  json.RawMessage `json:"old"`
		New  json.RawMessage `json:"new"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("content detail: %w", err)
	}

	switch env.Kind {
	case detailDescriptor:
		var from, to descriptor
		if err := unmarshalOptional(env.Old, &from); err != nil {
			return nil, fmt.Errorf("%s old: %w", env.Kind, err)
		}
		if err := unmarshalOptional(env.New, &to); err != nil {
			return nil, fmt.Errorf("%s new: %w", env.Kind, err)
		}
		return tilecache.DescriptorChanged{Old: tilecache.Descriptor(from), New: tilecache.Descriptor(to)}, nil
	case detailClipCount:
		var v tilecache.ClipCount
		if err := unmarshalOptional(env.Old, &v.Old); err != nil {
			return nil, fmt.Errorf("%s old: %w", env.Kind, err)
		}
		if err := unmarshalOptional(env.New, &v.New); err != nil {
			return nil, fmt.Errorf("%s new: %w", env.Kind, err)
		}
		return v, nil
	case detailClipReplaced:
		var v tilecache.ClipReplaced
		if err := unmarshalOptional(env.Old, &v.Old); err != nil {
			return nil, fmt.Errorf("%s old: %w", env.Kind, err)
		}
		if err := unmarshalOptional(env.New, &v.New); err != nil {
			return nil, fmt.Errorf("%s new: %w", env.Kind, err)
		}
		return v, nil
	case "":
		return nil, fmt.Errorf("content detail without kind")
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("content detail: %w", err)
	}
	delete(fields, "kind")
	return tilecache.OtherDetail{Name: env.Kind, Fields: fields}, nil
}

// fromCause builds the envelope for a cause.
func fromCause(c tilecache.Cause) (*cause, error) {
	if c == nil {
		return nil, nil
	}
	out := &cause{Kind: c.Kind().String()}
	var err error
	switch v := c.(type) {
	case tilecache.FractionalOffset:
		err = out.setOldNew(v.Old, v.New)
	case tilecache.BackgroundColor:
		err = out.setOldNew(v.Old, v.New)
	case tilecache.SurfaceOpacity:
		out.BecameOpaque = v.BecameOpaque
	case tilecache.PrimCount:
		err = out.setOldNew(v.Old, v.New)
	case tilecache.Content:
		out.Detail, err = encodeDetail(v.Detail)
	}
	return out, err
}

func (c *cause) setOldNew(from, to any) (err error) {
	if c.Old, err = json.Marshal(from); err != nil {
		return err
	}
	c.New, err = json.Marshal(to)
	return err
}

func encodeDetail(d tilecache.ContentDetail) (json.RawMessage, error) {
	var v any
	switch d := d.(type) {
	case nil:
		return nil, nil
	case tilecache.DescriptorChanged:
		v = struct {
			Kind string     `json:"kind"`
			Old  descriptor `json:"old"`
			New  descriptor `json:"new"`
		}{detailDescriptor, descriptor(d.Old), descriptor(d.New)}
	case tilecache.ClipCount:
		v = struct {
			Kind string `json:"kind"`
			Old  int    `json:"old"`
			New  int    `json:"new"`
		}{detailClipCount, d.Old, d.New}
	case tilecache.ClipReplaced:
		v = struct {
			Kind string            `json:"kind"`
			Old  tilecache.ItemUID `json:"old"`
			New  tilecache.ItemUID `json:"new"`
		}{detailClipReplaced, d.Old, d.New}
	case tilecache.OtherDetail:
		fields := make(map[string]any, len(d.Fields)+1)
		for k, f := range d.Fields {
			fields[k] = f
		}
		fields["kind"] = d.Name
		v = fields
	default:
		return nil, fmt.Errorf("unsupported content detail %T", d)
	}
	return json.Marshal(v)
}
