package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/tileview/pkg/errors"
	"github.com/matzehuels/tileview/pkg/geom"
	tvio "github.com/matzehuels/tileview/pkg/io"
	"github.com/matzehuels/tileview/pkg/tilecache"
)

func TestParseTileKey(t *testing.T) {
	tests := []struct {
		in      string
		want    tilecache.TileKey
		wantErr bool
	}{
		{"2,0", tilecache.TileKey{X: 2, Y: 0}, false},
		{"(3,-1)", tilecache.TileKey{X: 3, Y: -1}, false},
		{" 4 , 5 ", tilecache.TileKey{X: 4, Y: 5}, false},
		{"4", tilecache.TileKey{}, true},
		{"a,b", tilecache.TileKey{}, true},
		{"", tilecache.TileKey{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseTileKey(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseTileKey(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("error code = %s", errors.GetCode(err))
			}
			if got != tt.want {
				t.Errorf("parseTileKey(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func treeFrame(t *testing.T) string {
	t.Helper()
	f := &tilecache.Frame{Slices: []tilecache.Snapshot{{
		Slice:     1,
		Transform: geom.Identity(),
		Cache: tilecache.State{Tiles: []tilecache.Tile{
			{
				Key:  tilecache.TileKey{X: 2, Y: 0},
				Rect: geom.NewRect(0, 0, 256, 256),
				Tree: tilecache.Interior(
					tilecache.Leaf(geom.NewRect(0, 0, 128, 256)),
					tilecache.Leaf(geom.NewRect(128, 0, 128, 256)),
				),
			},
			{Key: tilecache.TileKey{X: 3, Y: 0}, Rect: geom.NewRect(256, 0, 256, 256)},
		}},
	}}}
	path := filepath.Join(t.TempDir(), "tile_cache0.json")
	if err := tvio.ExportFrame(f, path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFindTile(t *testing.T) {
	f, err := tvio.ImportFrame(treeFrame(t))
	if err != nil {
		t.Fatal(err)
	}

	if tile, err := findTile(f, 1, tilecache.TileKey{X: 2, Y: 0}); err != nil || tile.Tree == nil {
		t.Errorf("findTile() = %v, %v", tile, err)
	}
	if _, err := findTile(f, 1, tilecache.TileKey{X: 9, Y: 9}); err == nil {
		t.Error("missing tile should fail")
	}
	if _, err := findTile(f, 7, tilecache.TileKey{X: 2, Y: 0}); err == nil {
		t.Error("missing slice should fail")
	}
}

func TestRunTree(t *testing.T) {
	input := treeFrame(t)
	c := New(&bytes.Buffer{}, LogInfo)
	ctx := context.Background()

	t.Run("dot to stdout", func(t *testing.T) {
		var buf bytes.Buffer
		swapOut(t, &buf)
		err := c.runTree(ctx, input, treeOpts{slice: 1, tile: "2,0", format: treeFormatDOT, leaves: true})
		if err != nil {
			t.Fatalf("runTree() error: %v", err)
		}
		got := buf.String()
		if !strings.HasPrefix(got, "digraph G {") || strings.Count(got, "->") != 2 {
			t.Errorf("DOT output:\n%s", got)
		}
		if !strings.Contains(got, "slice 1 tile (2,0)") {
			t.Errorf("DOT output should carry the title:\n%s", got)
		}
	})

	t.Run("dot to file", func(t *testing.T) {
		swapOut(t, &bytes.Buffer{})
		path := filepath.Join(t.TempDir(), "tree.dot")
		if err := c.runTree(ctx, input, treeOpts{slice: 1, tile: "(2,0)", format: treeFormatDOT, output: path}); err != nil {
			t.Fatal(err)
		}
		if data, err := os.ReadFile(path); err != nil || !bytes.Contains(data, []byte("digraph")) {
			t.Errorf("tree file: %v", err)
		}
	})

	t.Run("errors", func(t *testing.T) {
		swapOut(t, &bytes.Buffer{})
		cases := []treeOpts{
			{slice: 1, tile: "3,0", format: treeFormatDOT}, // no tree
			{slice: 1, tile: "2,0", format: "png"},
			{slice: 1, tile: "x", format: treeFormatDOT},
		}
		for _, o := range cases {
			if err := c.runTree(ctx, input, o); !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("runTree(%+v) = %v", o, err)
			}
		}
	})
}
