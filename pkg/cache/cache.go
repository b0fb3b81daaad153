// Package cache provides the caching layer for bubblechart pipelines.
//
// A [Cache] stores opaque byte values under string keys with an optional
// TTL. Three backends are provided:
//
//   - [FileCache]: JSON entries under a local directory (CLI default)
//   - [RedisCache]: a shared Redis instance (server deployments)
//   - [NullCache]: stores nothing (--no-cache)
//
// Keys are produced by a [Keyer] so every stage of the pipeline hashes its
// inputs the same way. [ScopedKeyer] prefixes keys for namespace isolation.
package cache

import (
	"context"
	"time"
)

// TTLs for each cached stage.
const (
	TTLSource   = 10 * time.Minute
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with expiry.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the value for key. A miss is reported as (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// NullCache stores nothing; every Get is a miss. It backs --no-cache.
type NullCache struct{}

func NewNullCache() *NullCache { return &NullCache{} }

func (*NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (*NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (*NullCache) Delete(context.Context, string) error { return nil }
func (*NullCache) Close() error { return nil }

var (
	_ Cache = (*NullCache)(nil)
	_ Cache = (*FileCache)(nil)
	_ Cache = (*RedisCache)(nil)
)

// Keyer produces cache keys for each pipeline stage.
type Keyer interface {
	// SourceKey keys intents loaded from an external source.
	SourceKey(kind, ref string) string
	// LayoutKey keys a layout computed from a set of intents.
	LayoutKey(intentsHash string, opts LayoutKeyOpts) string
	// ArtifactKey keys a rendered artifact of a layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts holds every option that changes a computed layout.
type LayoutKeyOpts struct {
	VizType        string  `json:"viz_type"`
	Policy         string  `json:"policy"`
	Width          float64 `json:"width"`
	Height         float64 `json:"height"`
	Padding        float64 `json:"padding,omitempty"`
	GridShift      float64 `json:"grid_shift,omitempty"`
	NoLastRowShift bool    `json:"no_last_row_shift,omitempty"`
	Seed           uint64  `json:"seed,omitempty"`
	Detailed       bool    `json:"detailed,omitempty"`
}

// ArtifactKeyOpts holds every option that changes a rendered artifact.
type ArtifactKeyOpts struct {
	Format string  `json:"format"`
	Style  string  `json:"style"`
	Grid   bool    `json:"grid"`
	Scale  float64 `json:"scale,omitempty"`
	Seed   uint64  `json:"seed,omitempty"`
}

// DefaultKeyer builds keys of the form "<stage>:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// SourceKey keys intents loaded from kind (e.g. "mongo") at ref.
func (DefaultKeyer) SourceKey(kind, ref string) string {
	return hashKey("source", kind, ref)
}

// LayoutKey keys a layout by the hash of its input and its options.
func (DefaultKeyer) LayoutKey(intentsHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", intentsHash, opts)
}

// ArtifactKey keys an artifact by the hash of its layout and render options.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

var _ Keyer = DefaultKeyer{}
