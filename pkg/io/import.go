package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/matzehuels/tileview/pkg/errors"
	"github.com/matzehuels/tileview/pkg/geom"
	"github.com/matzehuels/tileview/pkg/tilecache"
)

// NamesFile is the display-name table looked for next to captured frames.
const NamesFile = "names.json"

// ReadFrame decodes one captured frame from r.
//
// ReadFrame returns an error coded [errors.ErrCodeInvalidSnapshot] if:
//   - The JSON is malformed
//   - A transform does not have 16 values
//   - Two tiles in one slice share a key
//   - A cause or content detail has an unknown or missing kind
//   - A tile tree is deeper than [tilecache.MaxTreeDepth] or has a leaf
//     without a rect
//
// The error wraps an [*errors.SnapshotError] naming the slice. ReadFrame
// does not close r.
func ReadFrame(r io.Reader) (*tilecache.Frame, error) {
	return readFrame(r, "")
}

// DecodeFrame decodes a frame already read into memory. source names the
// frame in errors and is stored in [tilecache.Frame.Source].
func DecodeFrame(data []byte, source string) (*tilecache.Frame, error) {
	return readFrame(bytes.NewReader(data), source)
}

func readFrame(r io.Reader, source string) (*tilecache.Frame, error) {
	var data frame
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, invalid(source, -1, fmt.Errorf("decode: %w", err))
	}

	f := &tilecache.Frame{
		Source: source,
		Slices: make([]tilecache.Snapshot, 0, len(data.Slices)),
	}
	for i := range data.Slices {
		s, err := data.Slices[i].toSnapshot()
		if err != nil {
			return nil, invalid(source, data.Slices[i].Slice, err)
		}
		f.Slices = append(f.Slices, s)
	}
	for _, c := range data.Interns {
		f.Interns = append(f.Interns, c.toCategory())
	}
	return f, nil
}

func invalid(source string, slice int, err error) error {
	return errors.Wrap(errors.ErrCodeInvalidSnapshot,
		&errors.SnapshotError{File: source, Slice: slice, Err: err}, "invalid snapshot")
}

func (s *slice) toSnapshot() (tilecache.Snapshot, error) {
	out := tilecache.Snapshot{
		Slice:     s.Slice,
		Transform: geom.Identity(),
		Cache: tilecache.State{
			Background: s.Background,
			Tiles:      make([]tilecache.Tile, 0, len(s.Tiles)),
		},
	}
	if s.Transform != nil {
		m, err := geom.FromSlice(s.Transform)
		if err != nil {
			return out, fmt.Errorf("transform: %w", err)
		}
		out.Transform = m
	}

	seen := make(map[tilecache.TileKey]bool, len(s.Tiles))
	for i := range s.Tiles {
		t, err := s.Tiles[i].toTile()
		if err != nil {
			return out, fmt.Errorf("tile %s: %w", s.Tiles[i].Key, err)
		}
		if seen[t.Key] {
			return out, fmt.Errorf("duplicate tile key %s", t.Key)
		}
		seen[t.Key] = true
		out.Cache.Tiles = append(out.Cache.Tiles, t)
	}
	return out, nil
}

func (t *tile) toTile() (tilecache.Tile, error) {
	out := tilecache.Tile{Key: t.Key, Rect: t.Rect, Background: t.Background}
	if t.Cause != nil {
		c, err := t.Cause.toCause()
		if err != nil {
			return out, err
		}
		out.Cause = c
	}
	if t.Tree != nil {
		n, err := t.Tree.toNode(0)
		if err != nil {
			return out, fmt.Errorf("tree: %w", err)
		}
		out.Tree = n
	}
	return out, nil
}

func (c *category) toCategory() tilecache.InternCategory {
	out := tilecache.InternCategory{Name: c.Name, Batches: make([]tilecache.InternBatch, len(c.Batches))}
	for i, b := range c.Batches {
		ins := make([]tilecache.InternInsert, len(b.Insertions))
		for j, in := range b.Insertions {
			ins[j] = tilecache.InternInsert{UID: in.UID, Value: in.Value}
		}
		out.Batches[i] = tilecache.InternBatch{Insertions: ins, Removals: b.Removals}
	}
	return out
}

// ImportFrame reads the frame file at path.
func ImportFrame(path string) (*tilecache.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readFrame(f, path)
}

// ImportDir reads every *.json frame file in dir, except [NamesFile], in
// natural order: "tile_cache2.json" precedes "tile_cache10.json". Frame
// indices are assigned in that order.
func ImportDir(dir string) ([]*tilecache.Frame, error) {
	paths, err := FramePaths(dir)
	if err != nil {
		return nil, err
	}
	frames := make([]*tilecache.Frame, 0, len(paths))
	for i, p := range paths {
		f, err := ImportFrame(p)
		if err != nil {
			return nil, err
		}
		f.Index = i
		frames = append(frames, f)
	}
	return frames, nil
}

// FramePaths lists the frame files of dir in natural order. It returns an
// error coded [errors.ErrCodeNoSnapshots] when there are none.
func FramePaths(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", dir)
		}
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.EqualFold(filepath.Ext(name), ".json") || name == NamesFile {
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil, errors.New(errors.ErrCodeNoSnapshots, "no snapshot files in %s", dir)
	}

	sort.Slice(names, func(i, j int) bool { return naturalLess(names[i], names[j]) })
	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(dir, n)
	}
	return paths, nil
}

// naturalLess orders names by prefix, then by the number that ends the
// base name, then lexically.
func naturalLess(a, b string) bool {
	pa, na, oka := splitNumber(a)
	pb, nb, okb := splitNumber(b)
	if pa != pb || !oka || !okb {
		return a < b
	}
	if na != nb {
		return na < nb
	}
	return a < b
}

func splitNumber(name string) (string, uint64, bool) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	i := len(base)
	for i > 0 && base[i-1] >= '0' && base[i-1] <= '9' {
		i--
	}
	n, err := strconv.ParseUint(base[i:], 10, 64)
	if err != nil {
		return base, 0, false
	}
	return base[:i], n, true
}

// ReadNames decodes a display-name table: a JSON object mapping decimal
// item identifiers to names.
func ReadNames(r io.Reader) (tilecache.Names, error) {
	names := tilecache.Names{}
	if err := json.NewDecoder(r).Decode(&names); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode names")
	}
	return names, nil
}

// ImportNames reads the display-name table at path. A missing file yields
// an empty table.
func ImportNames(path string) (tilecache.Names, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return tilecache.Names{}, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadNames(f)
}
