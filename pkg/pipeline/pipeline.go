// Package pipeline converts a captured tile cache directory into a
// browsable set of documents.
//
// # Architecture
//
// The pipeline has three stages:
//
//  1. Load: decode every frame file of the capture and its name table
//  2. Render: draw each frame against its predecessor (SVG) and build
//     its report page (invalidation explanations plus interning ledger)
//  3. Write: store the documents, the stylesheets and an index page
//
// Rendered frames are cached by the hash of their inputs, so converting
// a capture again only re-renders frames that changed.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Input:  "wr-capture/tile_cache",
//	    Output: "out",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.MaxSlice)
//
// Run individual stages:
//
//	capture, err := runner.Load(ctx, opts)
//	docs, err := runner.Render(ctx, capture, opts)
//	err = runner.Write(ctx, docs, opts)
package pipeline

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tileview/pkg/cache"
	"github.com/matzehuels/tileview/pkg/errors"
	"github.com/matzehuels/tileview/pkg/render/tile"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Config Files
// =============================================================================

const (
	// DefaultOutput is the output directory when none is given.
	DefaultOutput = "tileview-out"

	// DefaultWorkers is the number of frames rendered concurrently.
	DefaultWorkers = 4

	// MaxWorkers caps Workers.
	MaxWorkers = 64

	// DefaultScale is the default device-to-document scale.
	DefaultScale = tile.DefaultScale

	// DefaultWidth is the default document width.
	DefaultWidth = tile.DefaultWidth

	// DefaultHeight is the default document height.
	DefaultHeight = tile.DefaultHeight
)

// IndexFile is the name of the generated index page.
const IndexFile = "index.html"

// FrameFile returns the output file name of frame index with extension
// ext ("svg" or "html").
func FrameFile(index int, ext string) string {
	return fmt.Sprintf("tile_cache%d.%s", index, ext)
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a conversion run.
type Options struct {
	// Load options
	Input string `json:"input"` // capture directory

	// Render options
	Scale   float64 `json:"scale,omitempty"`
	OffsetX float64 `json:"offset_x,omitempty"`
	OffsetY float64 `json:"offset_y,omitempty"`
	Width   float64 `json:"width,omitempty"`
	Height  float64 `json:"height,omitempty"`
	Tree    bool    `json:"tree,omitempty"`    // draw tile trees
	Workers int     `json:"workers,omitempty"` // frames rendered concurrently
	Refresh bool    `json:"refresh,omitempty"` // ignore cached frames

	// Write options
	Output string `json:"output,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	validated bool
}

// Result contains the outcome of a conversion run.
type Result struct {
	// RunID identifies the run in logs and on the index page.
	RunID string

	// Output is the directory the documents were written to.
	Output string

	// Frames describes each written frame in capture order.
	Frames []FrameResult

	// MaxSlice is the largest slice index across all frames.
	MaxSlice int

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo counts cached frames.
	CacheInfo CacheInfo
}

// FrameResult describes the documents of one frame.
type FrameResult struct {
	Index    int
	Source   string // frame file
	SVG      string // SVG file name, relative to Output
	HTML     string // report file name, relative to Output
	Tiles    int
	Skipped  int
	MaxSlice int
	Cached   bool
}

// Stats contains pipeline execution statistics.
type Stats struct {
	FrameCount int
	TileCount  int
	Skipped    int
	LoadTime   time.Duration
	RenderTime time.Duration
	WriteTime  time.Duration
}

// CacheInfo counts frame cache lookups.
type CacheInfo struct {
	Hits   int
	Misses int
}

// =============================================================================
// Options Methods
// =============================================================================

// SetDefaults fills zero fields with their defaults.
func (o *Options) SetDefaults() {
	if o.Output == "" {
		o.Output = DefaultOutput
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Workers == 0 {
		o.Workers = DefaultWorkers
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks the options. Call SetDefaults first.
func (o *Options) Validate() error {
	if o.Input == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "input directory is required")
	}
	if err := errors.ValidatePath(o.Input); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "input")
	}
	if err := errors.ValidatePath(o.Output); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "output")
	}
	if !positive(o.Scale) {
		return errors.New(errors.ErrCodeInvalidConfig, "scale must be a positive number, got %v", o.Scale)
	}
	if !positive(o.Width) || !positive(o.Height) {
		return errors.New(errors.ErrCodeInvalidConfig, "document size must be positive, got %vx%v", o.Width, o.Height)
	}
	if math.IsNaN(o.OffsetX) || math.IsInf(o.OffsetX, 0) || math.IsNaN(o.OffsetY) || math.IsInf(o.OffsetY, 0) {
		return errors.New(errors.ErrCodeInvalidConfig, "offset must be finite")
	}
	if o.Workers < 1 || o.Workers > MaxWorkers {
		return errors.New(errors.ErrCodeInvalidConfig, "workers must be between 1 and %d, got %d", MaxWorkers, o.Workers)
	}
	return nil
}

// ValidateAndSetDefaults applies defaults and validates. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetDefaults()
	if err := o.Validate(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// Settings returns the renderer settings.
func (o *Options) Settings() tile.Settings {
	return tile.Settings{
		Scale:   o.Scale,
		OffsetX: o.OffsetX,
		OffsetY: o.OffsetY,
		Width:   o.Width,
		Height:  o.Height,
	}
}

// FrameKeyOpts returns cache key options for rendered frames.
func (o *Options) FrameKeyOpts() cache.FrameKeyOpts {
	return cache.FrameKeyOpts{
		Scale:   o.Scale,
		OffsetX: o.OffsetX,
		OffsetY: o.OffsetY,
		Width:   o.Width,
		Height:  o.Height,
		Tree:    o.Tree,
	}
}

func positive(f float64) bool {
	return f > 0 && !math.IsInf(f, 0)
}
