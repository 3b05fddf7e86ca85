// Package cache stores rendered frame documents between runs.
//
// Converting a long capture is dominated by rendering; most frames are
// unchanged between two conversions of the same directory. The pipeline
// keys each rendered frame by the content hash of its inputs (the frame,
// its predecessor and the name table) and the render settings, and skips
// frames whose key is already present.
//
// Two implementations are provided: [FileCache] for the CLI and
// [NullCache] when caching is disabled. Keys are built by a [Keyer];
// [NewScopedKeyer] namespaces keys, which the CLI uses to separate cache
// entries written by different tileview versions.
package cache

import (
	"context"
	"time"
)

// TTLFrame is how long a rendered frame stays cached.
const TTLFrame = 7 * 24 * time.Hour

// Cache is a byte store with per-entry expiry. Implementations must be
// safe for concurrent use.
type Cache interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases resources.
	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	// FrameKey returns the key of a rendered frame. inputHash identifies
	// the frame's inputs; opts are the settings that affect the output.
	FrameKey(inputHash string, opts FrameKeyOpts) string
}

// FrameKeyOpts are the render settings that change a frame's output.
type FrameKeyOpts struct {
	Scale   float64 `json:"scale"`
	OffsetX float64 `json:"offset_x"`
	OffsetY float64 `json:"offset_y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Tree    bool    `json:"tree"`
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// FrameKey implements Keyer.
func (DefaultKeyer) FrameKey(inputHash string, opts FrameKeyOpts) string {
	return hashKey("frame", inputHash, opts)
}
