package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tileview/pkg/pipeline"
)

// convertCommand creates the convert command, the main entry point of
// tileview.
func (c *CLI) convertCommand() *cobra.Command {
	var (
		configPath string
		noCache    bool
	)
	opts := pipeline.Options{}
	opts.SetDefaults()

	cmd := &cobra.Command{
		Use:   "convert [capture-dir]",
		Short: "Render a tile cache capture to SVG drawings and HTML reports",
		Long: `Render a tile cache capture to SVG drawings and HTML reports.

The capture directory holds one JSON snapshot per frame, ordered by the
number in the file name, and an optional names.json display-name table.
For every frame, convert writes tile_cache<N>.svg (the tile geometry of
all slices) and tile_cache<N>.html (why each tile was invalidated since
the previous frame, plus the interning ledger), the stylesheets and an
index.html.

Rendered frames are cached locally, so converting a growing capture only
renders the new frames.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				cfg, err := loadConfig(configPath)
				if err != nil {
					return err
				}
				cfg.apply(&opts, cmd.Flags())
			}
			opts.Input = args[0]
			return c.runConvert(cmd.Context(), opts, noCache)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "TOML file with default options")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", opts.Output, "output directory")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the frame cache")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "re-render frames even if cached")

	cmd.Flags().Float64Var(&opts.Scale, "scale", opts.Scale, "device to document scale")
	cmd.Flags().Float64Var(&opts.OffsetX, "offset-x", opts.OffsetX, "horizontal document offset")
	cmd.Flags().Float64Var(&opts.OffsetY, "offset-y", opts.OffsetY, "vertical document offset")
	cmd.Flags().Float64Var(&opts.Width, "width", opts.Width, "document width")
	cmd.Flags().Float64Var(&opts.Height, "height", opts.Height, "document height")
	cmd.Flags().BoolVar(&opts.Tree, "tree", false, "draw the tile tree of every tile")
	cmd.Flags().IntVarP(&opts.Workers, "workers", "j", opts.Workers, "frames rendered concurrently")

	return cmd
}

// runConvert executes the pipeline and prints a summary.
func (c *CLI) runConvert(ctx context.Context, opts pipeline.Options, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger
	prog := newProgress(c.Logger)

	spinner := newSpinner(ctx, fmt.Sprintf("Converting %s...", opts.Input))
	spinner.Start()

	res, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Conversion failed")
		return err
	}
	spinner.Stop()

	prog.done(fmt.Sprintf("Converted %d frames", res.Stats.FrameCount))

	printSuccess("Conversion complete")
	printFrames(res.Frames)
	printFile(filepath.Join(res.Output, pipeline.IndexFile))
	printNewline()
	printSummary(res)
	printNewline()
	printNextStep("Browse", appName+" serve "+res.Output)

	return nil
}
