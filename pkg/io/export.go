package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/tileview/pkg/tilecache"
)

// WriteFrame encodes a frame in the capture format read by [ReadFrame].
func WriteFrame(f *tilecache.Frame, w io.Writer) error {
	out := frame{Slices: make([]slice, len(f.Slices))}

	for i, s := range f.Slices {
		sl := slice{
			Slice:      s.Slice,
			Transform:  make([]float64, 0, 16),
			Background: s.Cache.Background,
			Tiles:      make([]tile, len(s.Cache.Tiles)),
		}
		for _, row := range s.Transform {
			sl.Transform = append(sl.Transform, row[:]...)
		}
		for j, t := range s.Cache.Tiles {
			c, err := fromCause(t.Cause)
			if err != nil {
				return fmt.Errorf("slice %d tile %s: %w", s.Slice, t.Key, err)
			}
			sl.Tiles[j] = tile{Key: t.Key, Rect: t.Rect, Background: t.Background, Cause: c, Tree: fromNode(t.Tree)}
		}
		out.Slices[i] = sl
	}

	for _, c := range f.Interns {
		cat := category{Name: c.Name, Batches: make([]batch, len(c.Batches))}
		for i, b := range c.Batches {
			ins := make([]insertion, len(b.Insertions))
			for j, in := range b.Insertions {
				ins[j] = insertion{UID: in.UID, Value: in.Value}
			}
			cat.Batches[i] = batch{Insertions: ins, Removals: b.Removals}
		}
		out.Interns = append(out.Interns, cat)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportFrame writes a frame to a file at path.
func ExportFrame(f *tilecache.Frame, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer out.Close()
	return WriteFrame(f, out)
}
