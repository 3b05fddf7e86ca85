package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tileview/pkg/observability"
)

// logHooks reports pipeline and cache events to the debug log.
type logHooks struct {
	observability.NoopPipelineHooks
	logger *log.Logger
}

// RegisterHooks installs logging observability hooks backed by the CLI
// logger. They only emit at debug level, so they are silent unless
// --verbose is set.
func (c *CLI) RegisterHooks() {
	h := &logHooks{logger: c.Logger}
	observability.SetPipelineHooks(h)
	observability.SetCacheHooks(h)
}

func (h *logHooks) OnLoadComplete(_ context.Context, dir string, frames int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("load failed", "dir", dir, "err", err)
		return
	}
	h.logger.Debug("load complete", "dir", dir, "frames", frames, "duration", d)
}

func (h *logHooks) OnRenderComplete(_ context.Context, frame, tiles int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("render failed", "frame", frame, "err", err)
		return
	}
	h.logger.Debug("render complete", "frame", frame, "tiles", tiles, "duration", d)
}

func (h *logHooks) OnWrite(_ context.Context, path string, size int, err error) {
	if err != nil {
		h.logger.Debug("write failed", "path", path, "err", err)
		return
	}
	h.logger.Debug("wrote file", "path", path, "bytes", size)
}

func (h *logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}
