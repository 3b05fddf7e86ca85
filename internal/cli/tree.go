package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tileview/pkg/errors"
	tvio "github.com/matzehuels/tileview/pkg/io"
	"github.com/matzehuels/tileview/pkg/render/treegraph"
	"github.com/matzehuels/tileview/pkg/tilecache"
)

const (
	treeFormatDOT = "dot"
	treeFormatSVG = "svg"
)

type treeOpts struct {
	slice  int
	tile   string
	format string
	output string
	leaves bool
}

// treeCommand creates the tree command, which exports the dirty-region
// tree of one tile as a node-link diagram.
func (c *CLI) treeCommand() *cobra.Command {
	opts := treeOpts{format: treeFormatSVG}

	cmd := &cobra.Command{
		Use:   "tree [frame.json]",
		Short: "Export the tile tree of one tile as DOT or SVG",
		Long: `Export the tile tree of one tile as DOT or SVG.

The tile is chosen by slice index and tile key, for example:

  tileview tree capture/tile_cache3.json --slice 1 --tile 2,0 -o tree.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTree(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().IntVar(&opts.slice, "slice", 0, "slice index")
	cmd.Flags().StringVar(&opts.tile, "tile", "", "tile key as x,y (required)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: svg, dot")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&opts.leaves, "leaves", false, "label leaves with their rectangle")
	_ = cmd.MarkFlagRequired("tile")

	return cmd
}

func (c *CLI) runTree(ctx context.Context, input string, opts treeOpts) error {
	if opts.format != treeFormatDOT && opts.format != treeFormatSVG {
		return errors.New(errors.ErrCodeInvalidInput, "unknown format %q (want svg or dot)", opts.format)
	}
	key, err := parseTileKey(opts.tile)
	if err != nil {
		return err
	}

	frame, err := tvio.ImportFrame(input)
	if err != nil {
		return err
	}
	t, err := findTile(frame, opts.slice, key)
	if err != nil {
		return err
	}
	if t.Tree == nil {
		return errors.New(errors.ErrCodeInvalidInput, "tile %s of slice %d has no tree", key, opts.slice)
	}

	dot := treegraph.ToDOT(t.Tree, treegraph.Options{
		Title:  fmt.Sprintf("slice %d tile %s", opts.slice, key),
		Leaves: opts.leaves,
	})
	loggerFromContext(ctx).Debug("built tree", "slice", opts.slice, "tile", key.String(), "bytes", len(dot))

	data := []byte(dot)
	if opts.format == treeFormatSVG {
		if data, err = treegraph.RenderSVG(ctx, dot); err != nil {
			return errors.Wrap(errors.ErrCodeRenderFailed, err, "render tree")
		}
	}

	if opts.output == "" {
		_, err := out.Write(data)
		return err
	}
	if err := os.WriteFile(opts.output, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	printSuccess("Tree exported")
	printFile(opts.output)
	return nil
}

// parseTileKey parses "x,y" (optionally parenthesized, as printed in
// reports) into a tile key.
func parseTileKey(s string) (tilecache.TileKey, error) {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(s), "("), ")")
	xs, ys, ok := strings.Cut(trimmed, ",")
	if !ok {
		return tilecache.TileKey{}, errors.New(errors.ErrCodeInvalidInput, "tile key %q: want x,y", s)
	}
	x, errX := strconv.Atoi(strings.TrimSpace(xs))
	y, errY := strconv.Atoi(strings.TrimSpace(ys))
	if errX != nil || errY != nil {
		return tilecache.TileKey{}, errors.New(errors.ErrCodeInvalidInput, "tile key %q: coordinates must be integers", s)
	}
	return tilecache.TileKey{X: x, Y: y}, nil
}

// findTile returns the tile stored under key in the given slice of f.
func findTile(f *tilecache.Frame, slice int, key tilecache.TileKey) (*tilecache.Tile, error) {
	for i := range f.Slices {
		if f.Slices[i].Slice != slice {
			continue
		}
		if t, ok := f.Slices[i].Cache.Tile(key); ok {
			return t, nil
		}
		return nil, errors.New(errors.ErrCodeInvalidInput, "slice %d has no tile %s", slice, key)
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "frame has no slice %d", slice)
}
