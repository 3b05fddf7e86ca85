package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/tileview/pkg/cache"
	"github.com/matzehuels/tileview/pkg/errors"
	"github.com/matzehuels/tileview/pkg/geom"
	tvio "github.com/matzehuels/tileview/pkg/io"
	"github.com/matzehuels/tileview/pkg/observability"
	"github.com/matzehuels/tileview/pkg/tilecache"
)

func TestOptionsDefaults(t *testing.T) {
	opts := Options{Input: "capture"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error: %v", err)
	}
	if opts.Output != DefaultOutput || opts.Workers != DefaultWorkers || opts.Scale != DefaultScale {
		t.Errorf("defaults not applied: %+v", opts)
	}
	if opts.Width != DefaultWidth || opts.Height != DefaultHeight || opts.Logger == nil {
		t.Errorf("defaults not applied: %+v", opts)
	}

	s := opts.Settings()
	if s.Scale != opts.Scale || s.Width != opts.Width {
		t.Errorf("Settings() = %+v", s)
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		wantCode errors.Code
	}{
		{"valid", Options{Input: "in"}, ""},
		{"missing input", Options{}, errors.ErrCodeInvalidConfig},
		{"bad input path", Options{Input: "in\x00"}, errors.ErrCodeInvalidPath},
		{"negative scale", Options{Input: "in", Scale: -1}, errors.ErrCodeInvalidConfig},
		{"negative width", Options{Input: "in", Width: -5}, errors.ErrCodeInvalidConfig},
		{"too many workers", Options{Input: "in", Workers: MaxWorkers + 1}, errors.ErrCodeInvalidConfig},
		{"negative workers", Options{Input: "in", Workers: -1}, errors.ErrCodeInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			opts.SetDefaults()
			err := opts.Validate()
			if tt.wantCode == "" {
				if err != nil {
					t.Errorf("Validate() error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantCode) {
				t.Errorf("Validate() = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestFrameFile(t *testing.T) {
	if got := FrameFile(12, "svg"); got != "tile_cache12.svg" {
		t.Errorf("FrameFile() = %s", got)
	}
}

// writeCapture writes two frames: frame 1 rescales tile (1,0) of slice 0.
func writeCapture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	tiles := func(cause tilecache.Cause, h float64) []tilecache.Tile {
		return []tilecache.Tile{
			{Key: tilecache.TileKey{X: 0, Y: 0}, Rect: geom.NewRect(0, 0, 100, 100)},
			{Key: tilecache.TileKey{X: 1, Y: 0}, Rect: geom.NewRect(100, 0, 100, h), Cause: cause},
		}
	}
	frames := []*tilecache.Frame{
		{Slices: []tilecache.Snapshot{{Slice: 0, Transform: geom.Identity(), Cache: tilecache.State{Tiles: tiles(nil, 100)}}}},
		{
			Slices: []tilecache.Snapshot{
				{Slice: 0, Transform: geom.Identity(), Cache: tilecache.State{Tiles: tiles(tilecache.ScaleChanged{}, 50)}},
				{Slice: 3, Transform: geom.Identity()},
			},
			Interns: []tilecache.InternCategory{{
				Name:    "clip",
				Batches: []tilecache.InternBatch{{Insertions: []tilecache.InternInsert{{UID: 7, Value: "rounded"}}}},
			}},
		},
	}
	for i, f := range frames {
		if err := tvio.ExportFrame(f, filepath.Join(dir, FrameFile(i, "json"))); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, tvio.NamesFile), []byte(`{"7": "clip rect"}`), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestExecute(t *testing.T) {
	in := writeCapture(t)
	out := filepath.Join(t.TempDir(), "out")

	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), Options{Input: in, Output: out})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	if res.RunID == "" || res.Stats.FrameCount != 2 || len(res.Frames) != 2 {
		t.Fatalf("result = %+v", res)
	}
	if res.MaxSlice != 3 {
		t.Errorf("MaxSlice = %d, want 3", res.MaxSlice)
	}
	if res.Stats.TileCount != 4 {
		t.Errorf("TileCount = %d, want 4", res.Stats.TileCount)
	}

	for _, name := range []string{
		"tile_cache0.svg", "tile_cache0.html", "tile_cache1.svg", "tile_cache1.html",
		"tilecache.css", "tilecache_base.css", IndexFile,
	} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("missing output %s: %v", name, err)
		}
	}

	report := readString(t, filepath.Join(out, "tile_cache1.html"))
	if strings.Count(report, `class="tile_entry"`) != 1 || !strings.Contains(report, "ScaleChanged") {
		t.Errorf("frame 1 report should explain one tile:\n%s", report)
	}
	if !strings.Contains(report, `<div class="intern insert">7: rounded</div>`) {
		t.Errorf("frame 1 report missing ledger:\n%s", report)
	}
	if first := readString(t, filepath.Join(out, "tile_cache0.html")); strings.Contains(first, "tile_entry") {
		t.Error("first frame has no predecessor and no entries")
	}

	index := readString(t, filepath.Join(out, IndexFile))
	for _, want := range []string{`href="tile_cache1.svg"`, `href="tile_cache0.html"`, "max slice 3", res.RunID} {
		if !strings.Contains(index, want) {
			t.Errorf("index missing %q", want)
		}
	}
}

func TestExecute_Cache(t *testing.T) {
	in := writeCapture(t)
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, nil, nil)
	ctx := context.Background()

	first, err := r.Execute(ctx, Options{Input: in, Output: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.Hits != 0 || first.CacheInfo.Misses != 2 {
		t.Errorf("first run cache = %+v", first.CacheInfo)
	}

	second, err := r.Execute(ctx, Options{Input: in, Output: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if second.CacheInfo.Hits != 2 {
		t.Errorf("second run cache = %+v, want 2 hits", second.CacheInfo)
	}

	tree, err := r.Execute(ctx, Options{Input: in, Output: t.TempDir(), Tree: true})
	if err != nil {
		t.Fatal(err)
	}
	if tree.CacheInfo.Hits != 0 {
		t.Error("changed settings should not hit the cache")
	}

	refresh, err := r.Execute(ctx, Options{Input: in, Output: t.TempDir(), Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if refresh.CacheInfo.Hits != 0 {
		t.Error("Refresh should bypass the cache")
	}
}

func TestExecute_Errors(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	ctx := context.Background()

	_, err := r.Execute(ctx, Options{Input: filepath.Join(t.TempDir(), "missing"), Output: t.TempDir()})
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing input: %v", err)
	}

	_, err = r.Execute(ctx, Options{Input: t.TempDir(), Output: t.TempDir()})
	if !errors.Is(err, errors.ErrCodeNoSnapshots) {
		t.Errorf("empty input: %v", err)
	}

	bad := t.TempDir()
	if err := os.WriteFile(filepath.Join(bad, "tile_cache0.json"), []byte(`{"slices": [{"slice": 0, "transform": [1]}]}`), 0644); err != nil {
		t.Fatal(err)
	}
	_, err = r.Execute(ctx, Options{Input: bad, Output: t.TempDir()})
	if !errors.Is(err, errors.ErrCodeInvalidSnapshot) {
		t.Errorf("bad snapshot: %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := r.Execute(cancelled, Options{Input: writeCapture(t), Output: t.TempDir()}); err == nil {
		t.Error("cancelled context should fail")
	}
}

func TestRender_InMemoryCapture(t *testing.T) {
	capture := &Capture{Frames: []*tilecache.Frame{{
		Slices: []tilecache.Snapshot{
			{Slice: 0, Transform: geom.Identity()},
			{Slice: 5, Transform: geom.Identity()},
		},
	}}}

	r := NewRunner(nil, nil, nil)
	docs, err := r.Render(context.Background(), capture, Options{Input: "mem", Workers: 2})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if len(docs) != 1 || docs[0].MaxSlice != 5 || docs[0].Cached {
		t.Errorf("docs = %+v", docs)
	}
	if !strings.Contains(docs[0].HTML, `<div class="header">Invalidation</div>`) {
		t.Error("report page should contain the invalidation report")
	}
}

type countingHooks struct {
	observability.NoopPipelineHooks
	mu      sync.Mutex
	loads   int
	renders int
	writes  int
}

func (h *countingHooks) OnLoadComplete(_ context.Context, _ string, frames int, _ time.Duration, _ error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.loads += frames
}

func (h *countingHooks) OnRenderComplete(context.Context, int, int, time.Duration, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.renders++
}

func (h *countingHooks) OnWrite(context.Context, string, int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.writes++
}

func TestExecute_Hooks(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetPipelineHooks(hooks)
	defer observability.Reset()

	r := NewRunner(nil, nil, nil)
	if _, err := r.Execute(context.Background(), Options{Input: writeCapture(t), Output: t.TempDir()}); err != nil {
		t.Fatal(err)
	}

	if hooks.loads != 2 || hooks.renders != 2 {
		t.Errorf("loads = %d, renders = %d, want 2 and 2", hooks.loads, hooks.renders)
	}
	// Two documents per frame plus the index page.
	if hooks.writes != 5 {
		t.Errorf("writes = %d, want 5", hooks.writes)
	}
}

func readString(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}
