package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/tileview/pkg/cache"
	"github.com/matzehuels/tileview/pkg/errors"
	tvio "github.com/matzehuels/tileview/pkg/io"
	"github.com/matzehuels/tileview/pkg/observability"
	"github.com/matzehuels/tileview/pkg/render/intern"
	"github.com/matzehuels/tileview/pkg/render/tile"
	"github.com/matzehuels/tileview/pkg/tilecache"
)

// Runner executes the pipeline with frame caching.
//
// The Runner holds no per-run state; multiple goroutines can use the
// same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil keyer means cache.NewDefaultKeyer, a
// nil cache disables caching and a nil logger means log.Default.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Capture is a loaded capture directory.
type Capture struct {
	Frames []*tilecache.Frame
	Names  tilecache.Names

	hashes    []string // content hash per frame file
	namesHash string
}

// Document is the rendered output of one frame.
type Document struct {
	Frame    int    `json:"frame"`
	Source   string `json:"source"`
	SVG      string `json:"svg"`
	HTML     string `json:"html"`
	Tiles    int    `json:"tiles"`
	Skipped  int    `json:"skipped"`
	MaxSlice int    `json:"max_slice"`
	Cached   bool   `json:"-"`
}

// Execute runs load, render and write.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{RunID: uuid.NewString(), Output: opts.Output}
	logger := opts.Logger.With("run", result.RunID[:8])

	// Stage 1: Load
	loadStart := time.Now()
	capture, err := r.Load(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.FrameCount = len(capture.Frames)

	logger.Info("loaded capture",
		"frames", len(capture.Frames),
		"names", len(capture.Names),
		"duration", result.Stats.LoadTime)

	// Stage 2: Render
	renderStart := time.Now()
	docs, err := r.Render(ctx, capture, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Stats.RenderTime = time.Since(renderStart)

	for _, d := range docs {
		result.Frames = append(result.Frames, FrameResult{
			Index:    d.Frame,
			Source:   d.Source,
			SVG:      FrameFile(d.Frame, "svg"),
			HTML:     FrameFile(d.Frame, "html"),
			Tiles:    d.Tiles,
			Skipped:  d.Skipped,
			MaxSlice: d.MaxSlice,
			Cached:   d.Cached,
		})
		result.MaxSlice = max(result.MaxSlice, d.MaxSlice)
		result.Stats.TileCount += d.Tiles
		result.Stats.Skipped += d.Skipped
		if d.Cached {
			result.CacheInfo.Hits++
		} else {
			result.CacheInfo.Misses++
		}
	}

	logger.Info("rendered frames",
		"tiles", result.Stats.TileCount,
		"skipped", result.Stats.Skipped,
		"cached", result.CacheInfo.Hits,
		"duration", result.Stats.RenderTime)

	// Stage 3: Write
	writeStart := time.Now()
	if err := r.Write(ctx, docs, opts); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}
	if err := writeIndex(ctx, result); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}
	result.Stats.WriteTime = time.Since(writeStart)

	logger.Info("wrote output",
		"dir", opts.Output,
		"max_slice", result.MaxSlice,
		"duration", result.Stats.WriteTime)

	return result, nil
}

// Load decodes every frame of opts.Input and its name table.
func (r *Runner) Load(ctx context.Context, opts Options) (capture *Capture, err error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	start := time.Now()
	observability.Pipeline().OnLoadStart(ctx, opts.Input)
	defer func() {
		n := 0
		if capture != nil {
			n = len(capture.Frames)
		}
		observability.Pipeline().OnLoadComplete(ctx, opts.Input, n, time.Since(start), err)
	}()

	paths, err := tvio.FramePaths(opts.Input)
	if err != nil {
		return nil, err
	}

	capture = &Capture{
		Frames: make([]*tilecache.Frame, len(paths)),
		hashes: make([]string, len(paths)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(p)
			if err != nil {
				return errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", p)
			}
			f, err := tvio.DecodeFrame(data, p)
			if err != nil {
				return err
			}
			f.Index = i
			capture.Frames[i] = f
			capture.hashes[i] = cache.Hash(data)
			opts.Logger.Debug("loaded frame", "frame", i, "file", filepath.Base(p), "slices", len(f.Slices))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	namesPath := filepath.Join(opts.Input, tvio.NamesFile)
	if data, err := os.ReadFile(namesPath); err == nil {
		names, err := tvio.ReadNames(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		capture.Names = names
		capture.namesHash = cache.Hash(data)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", namesPath, err)
	}

	return capture, nil
}

// Render draws every frame of the capture against its predecessor.
// Frames are rendered concurrently up to opts.Workers; a capture with a
// single frame renders its slices concurrently instead. Documents are
// returned in frame order.
func (r *Runner) Render(ctx context.Context, capture *Capture, opts Options) ([]Document, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	docs := make([]Document, len(capture.Frames))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i := range capture.Frames {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc, err := r.renderFrame(gctx, capture, i, opts)
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *Runner) renderFrame(ctx context.Context, capture *Capture, i int, opts Options) (doc Document, err error) {
	frame := capture.Frames[i]
	key := r.frameKey(capture, i, opts)

	if key != "" && !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if json.Unmarshal(data, &doc) == nil && doc.Frame == frame.Index {
				observability.Cache().OnCacheHit(ctx, "frame")
				doc.Cached = true
				opts.Logger.Debug("frame from cache", "frame", i)
				return doc, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "frame")
	}

	start := time.Now()
	observability.Pipeline().OnRenderStart(ctx, frame.Index)
	defer func() {
		observability.Pipeline().OnRenderComplete(ctx, frame.Index, doc.Tiles, time.Since(start), err)
	}()

	var prev []tilecache.Snapshot
	if i > 0 {
		prev = capture.Frames[i-1].Slices
	}

	renderOpts := []tile.Option{tile.WithSettings(opts.Settings())}
	if opts.Tree {
		renderOpts = append(renderOpts, tile.WithTree())
	}
	if len(capture.Frames) == 1 {
		renderOpts = append(renderOpts, tile.WithWorkers(opts.Workers))
	}
	res := tile.Render(frame.Slices, prev, capture.Names, renderOpts...)

	doc = Document{
		Frame:    frame.Index,
		Source:   frame.Source,
		SVG:      res.SVG,
		HTML:     intern.Build(frame.Interns, res.Report),
		Tiles:    res.Tiles,
		Skipped:  res.Skipped,
		MaxSlice: res.MaxSlice,
	}
	if res.Skipped > 0 {
		opts.Logger.Warn("skipped unprojectable tiles", "frame", frame.Index, "count", res.Skipped)
	}
	opts.Logger.Debug("rendered frame", "frame", frame.Index, "tiles", res.Tiles, "duration", time.Since(start))

	if key != "" {
		if data, err := json.Marshal(doc); err == nil {
			if err := r.Cache.Set(ctx, key, data, cache.TTLFrame); err == nil {
				observability.Cache().OnCacheSet(ctx, "frame", len(data))
			}
		}
	}
	return doc, nil
}

// frameKey identifies frame i by its own content, its predecessor's
// content, the name table and the render settings. Captures built in
// memory have no content hashes and are never cached.
func (r *Runner) frameKey(capture *Capture, i int, opts Options) string {
	if len(capture.hashes) != len(capture.Frames) {
		return ""
	}
	own, prev := capture.hashes[i], ""
	if i > 0 {
		prev = capture.hashes[i-1]
	}
	input := cache.HashAll(
		[]byte(fmt.Sprint(capture.Frames[i].Index)),
		[]byte(own), []byte(prev), []byte(capture.namesHash))
	return r.Keyer.FrameKey(input, opts.FrameKeyOpts())
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
