package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/bubblechart/pkg/cache"
	"github.com/matzehuels/bubblechart/pkg/intent"
	"github.com/matzehuels/bubblechart/pkg/observability"
	"github.com/matzehuels/bubblechart/pkg/render/bubble/layout"
)

// LayoutStore persists bubble layouts beyond the cache TTL.
// source.LayoutStore implements it on MongoDB.
type LayoutStore interface {
	SaveLayout(ctx context.Context, key string, l layout.Layout) error
	LoadLayout(ctx context.Context, key string) (layout.Layout, bool, error)
}

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache, store and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Store  LayoutStore // optional
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
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
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	loadStart := time.Now()
	intents, loadHit, err := r.LoadWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	loadTime := time.Since(loadStart)

	r.Logger.Info("loaded intents",
		"count", len(intents),
		"source", sourceKind(opts),
		"duration", loadTime)

	result, err := r.ExecuteIntents(ctx, intents, opts)
	if err != nil {
		return nil, err
	}
	result.Stats.LoadTime = loadTime
	result.CacheInfo.LoadHit = loadHit
	return result, nil
}

// ExecuteIntents runs the layout → render stages on intents already in
// memory, such as an HTTP request body.
func (r *Runner) ExecuteIntents(ctx context.Context, intents []intent.Intent, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{
		Intents:   intents,
		Artifacts: make(map[string][]byte),
	}
	result.Stats.IntentCount = len(intents)
	if h, err := cache.HashJSON(intents); err == nil {
		result.IntentsHash = h
	}

	// Stage 2: Layout
	layoutStart := time.Now()
	l, layoutHit, err := r.GenerateLayoutWithCacheInfo(ctx, intents, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = l
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.BubbleCount = l.Size()
	result.Stats.DomainCount = l.DomainCount()
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"viz", l.VizType,
		"policy", opts.Policy,
		"bubbles", l.Size(),
		"domains", l.DomainCount(),
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, l, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// LoadWithCacheInfo loads intents and returns cache hit info.
// Only MongoDB sources are cached; files are read every time.
func (r *Runner) LoadWithCacheInfo(ctx context.Context, opts Options) (intents []intent.Intent, hit bool, err error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLoad(); err != nil {
		return nil, false, err
	}

	hooks := observability.Pipeline()
	kind := sourceKind(opts)
	hooks.OnLoadStart(ctx, kind)
	start := time.Now()
	defer func() {
		hooks.OnLoadComplete(ctx, kind, len(intents), time.Since(start), err)
	}()

	cacheable := kind != "file"
	cacheKey := r.Keyer.SourceKey(kind, opts.SourceKeyRef())

	if cacheable && !opts.Refresh {
		if data, ok := r.cacheGet(ctx, "source", cacheKey); ok {
			if cached, err := unmarshalIntents(data); err == nil {
				return cached, true, nil
			}
		}
	}

	intents, err = Load(ctx, opts)
	if err != nil {
		return nil, false, err
	}

	if cacheable {
		if data, err := marshalIntents(intents); err == nil {
			r.cacheSet(ctx, "source", cacheKey, data, cache.TTLSource)
		}
	}
	return intents, false, nil
}

// GenerateLayoutWithCacheInfo generates a layout with caching and returns cache hit info.
func (r *Runner) GenerateLayoutWithCacheInfo(ctx context.Context, intents []intent.Intent, opts Options) (l Layout, hit bool, err error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return Layout{}, false, err
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, opts.Policy, len(intents))
	start := time.Now()
	defer func() {
		hooks.OnLayoutComplete(ctx, opts.Policy, time.Since(start), err)
	}()

	// Compute cache key
	intentsHash, err := cache.HashJSON(intents)
	if err != nil {
		return Layout{}, false, fmt.Errorf("hash intents: %w", err)
	}
	cacheKey := r.Keyer.LayoutKey(intentsHash, opts.LayoutKeyOpts())

	// Try cache first
	if data, ok := r.cacheGet(ctx, "layout", cacheKey); ok {
		cached, err := UnmarshalLayout(data)
		if err == nil {
			return cached, true, nil
		}
		// If deserialization fails, fall through to recompute
		opts.Logger.Debug("discarding unreadable cached layout", "err", err)
	}

	// Then the persistent store
	if r.Store != nil && opts.IsBubble() {
		stored, ok, err := r.Store.LoadLayout(ctx, cacheKey)
		if err != nil {
			opts.Logger.Warn("layout store lookup failed", "err", err)
		} else if ok {
			l = Layout{VizType: VizTypeBubble, Bubble: stored}
			r.cacheLayout(ctx, cacheKey, l)
			return l, true, nil
		}
	}

	l = GenerateLayout(intents, opts)

	r.cacheLayout(ctx, cacheKey, l)
	if r.Store != nil && opts.IsBubble() {
		if err := r.Store.SaveLayout(ctx, cacheKey, l.Bubble); err != nil {
			opts.Logger.Warn("layout store save failed", "err", err)
		}
	}
	return l, false, nil
}

// GenerateLayout is a convenience wrapper that calls GenerateLayoutWithCacheInfo and discards the cache hit info.
func (r *Runner) GenerateLayout(ctx context.Context, intents []intent.Intent, opts Options) (Layout, error) {
	l, _, err := r.GenerateLayoutWithCacheInfo(ctx, intents, opts)
	return l, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l Layout, opts Options) (artifacts map[string][]byte, hit bool, err error) {
	if l.IsNodelink() {
		opts.VizType = VizTypeNodelink
	}
	if opts.Style == "" && l.Bubble.Style != "" {
		opts.Style = l.Bubble.Style
	}
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	defer func() {
		hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	}()

	// Compute cache key from layout data
	layoutData, err := MarshalLayout(l)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	layoutHash := cache.Hash(layoutData)

	// Try to get all formats from cache
	artifacts = make(map[string][]byte)
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		data, ok := r.cacheGet(ctx, "artifact", key)
		if !ok {
			break
		}
		artifacts[format] = data
	}
	if len(artifacts) == len(opts.Formats) {
		return artifacts, true, nil
	}

	rendered, err := RenderFromLayout(ctx, l, opts)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		r.cacheSet(ctx, "artifact", key, data, cache.TTLArtifact)
	}
	return rendered, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, l Layout, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, l, opts)
	return artifacts, err
}

// Close releases resources held by the runner: the cache, and the layout
// store when it implements io.Closer.
func (r *Runner) Close() error {
	var errs []error
	if r.Cache != nil {
		errs = append(errs, r.Cache.Close())
	}
	if c, ok := r.Store.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	return stderrors.Join(errs...)
}

func (r *Runner) cacheLayout(ctx context.Context, key string, l Layout) {
	if data, err := MarshalLayout(l); err == nil {
		r.cacheSet(ctx, "layout", key, data, cache.TTLLayout)
	}
}

// cacheGet reads key and reports the outcome to the cache hooks.
// Cache errors are logged and treated as misses.
func (r *Runner) cacheGet(ctx context.Context, keyType, key string) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Debug("cache read failed", "type", keyType, "err", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return data, true
}

func (r *Runner) cacheSet(ctx context.Context, keyType, key string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Debug("cache write failed", "type", keyType, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
