// Package pipeline provides the load → layout → render pipeline for
// bubblechart.
//
// The CLI and the HTTP server both run charts through this package so that
// defaults, validation and caching behave the same everywhere.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: read intents from a file, stdin or a MongoDB collection
//  2. Layout: size and position bubbles with one of the layout policies,
//     or build a node-link graph
//  3. Render: generate output in various formats (SVG, PNG, PDF, JSON)
//
// Each stage can be run independently or as part of the complete pipeline,
// and each stage's result is cached.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Source:  "intents.json",
//	    Policy:  "grid",
//	    Formats: []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/bubblechart/pkg/cache"
	"github.com/matzehuels/bubblechart/pkg/errors"
	"github.com/matzehuels/bubblechart/pkg/intent"
	"github.com/matzehuels/bubblechart/pkg/render/bubble/layout"
	"github.com/matzehuels/bubblechart/pkg/render/nodelink"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultWidth is the default canvas width in pixels.
	DefaultWidth = 800.0

	// DefaultHeight is the default canvas height in pixels.
	DefaultHeight = 600.0

	// DefaultSeed is the default random seed for reproducibility.
	DefaultSeed = uint64(42)

	// DefaultPolicy is the default layout policy.
	DefaultPolicy = string(layout.PolicyGrid)

	// DefaultScale is the default PNG scale factor.
	DefaultScale = 2.0
)

// Visualization types.
const (
	VizTypeBubble   = "bubble"
	VizTypeNodelink = nodelink.VizType
)

// Visual styles.
const (
	StyleSimple    = "simple"
	StyleHanddrawn = "handdrawn"
)

// DefaultVizType is the default visualization type.
const DefaultVizType = VizTypeBubble

// DefaultStyle is the default visual style.
const DefaultStyle = StyleSimple

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
}

// ValidStyles is the set of supported visual styles.
var ValidStyles = map[string]bool{
	StyleSimple:    true,
	StyleHanddrawn: true,
}

// ValidVizTypes is the set of supported visualization types.
var ValidVizTypes = map[string]bool{
	VizTypeBubble:   true,
	VizTypeNodelink: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options
	Source     string `json:"source,omitempty"` // file path, "-" or MongoDB URI
	Format     string `json:"format,omitempty"` // intents document format (json, yaml)
	Database   string `json:"database,omitempty"`
	Collection string `json:"collection,omitempty"`
	Domain     string `json:"domain,omitempty"`
	Refresh    bool   `json:"refresh,omitempty"`

	// Layout options
	VizType        string  `json:"viz_type,omitempty"`
	Policy         string  `json:"policy,omitempty"`
	Width          float64 `json:"width,omitempty"`
	Height         float64 `json:"height,omitempty"`
	Padding        float64 `json:"padding,omitempty"`
	GridShift      float64 `json:"grid_shift,omitempty"`
	NoLastRowShift bool    `json:"no_last_row_shift,omitempty"`
	Seed           uint64  `json:"seed,omitempty"`
	Detailed       bool    `json:"detailed,omitempty"` // nodelink: values in labels

	// Render options
	Formats []string `json:"formats,omitempty"`
	Style   string   `json:"style,omitempty"`
	NoGrid  bool     `json:"no_grid,omitempty"`
	Scale   float64  `json:"scale,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
	Stdin  io.Reader   `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Intents are the loaded intents, unfiltered.
	Intents []intent.Intent

	// IntentsHash is the content hash of the intents.
	IntentsHash string

	// Layout is the computed layout.
	Layout Layout

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	IntentCount int
	BubbleCount int
	DomainCount int
	LoadTime    time.Duration
	LayoutTime  time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LoadHit   bool // Whether intents came from cache
	LayoutHit bool // Whether layout result came from cache or the layout store
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

func sortedKeys(m map[string]bool) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return strings.Join(keys, ", ")
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: %s)", format, sortedKeys(ValidFormats))
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateStyle checks that a style is valid.
func ValidateStyle(style string) error {
	if !ValidStyles[style] {
		return errors.New(errors.ErrCodeInvalidStyle, "invalid style: %q (must be one of: %s)", style, sortedKeys(ValidStyles))
	}
	return nil
}

// ValidateVizType checks that a visualization type is valid.
func ValidateVizType(vizType string) error {
	if !ValidVizTypes[vizType] {
		return errors.New(errors.ErrCodeInvalidVizType, "invalid viz_type: %q (must be one of: %s)", vizType, sortedKeys(ValidVizTypes))
	}
	return nil
}

// ValidatePolicy checks that a layout policy is valid.
func ValidatePolicy(policy string) error {
	if _, err := layout.ParsePolicy(policy); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPolicy, err, "invalid policy: %q", policy)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks required fields for loading intents.
func (o *Options) ValidateForLoad() error {
	if o.Source == "" {
		return errors.New(errors.ErrCodeInvalidSource, "source is required")
	}
	if o.Format != "" && o.Format != intent.FormatJSON && o.Format != intent.FormatYAML {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid intents format: %q (must be json or yaml)", o.Format)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.VizType == "" {
		o.VizType = DefaultVizType
	}
	if o.Policy == "" {
		o.Policy = DefaultPolicy
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if err := ValidateVizType(o.VizType); err != nil {
		return err
	}
	p, err := layout.ParsePolicy(o.Policy)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPolicy, err, "invalid policy: %q", o.Policy)
	}
	o.Policy = string(p)
	return errors.ValidateDimensions(o.Width, o.Height)
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Style == "" {
		o.Style = DefaultStyle
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Scale < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "scale must be positive, got %g", o.Scale)
	}
	return ValidateStyle(o.Style)
}

// IsBubble returns true if this is a bubble chart.
func (o *Options) IsBubble() bool {
	return o.VizType == "" || o.VizType == VizTypeBubble
}

// IsNodelink returns true if this is a nodelink visualization.
func (o *Options) IsNodelink() bool {
	return o.VizType == VizTypeNodelink
}

// LayoutOptions converts the pipeline options to bubble layout options.
func (o *Options) LayoutOptions() layout.Options {
	return layout.Options{
		Policy:         layout.Policy(o.Policy),
		Padding:        o.Padding,
		GridShift:      o.GridShift,
		NoLastRowShift: o.NoLastRowShift,
		Seed:           o.Seed,
	}
}

// SourceKeyRef identifies the loaded collection for the source cache.
func (o *Options) SourceKeyRef() string {
	return o.Source + "|" + o.Database + "/" + o.Collection + "?domain=" + o.Domain
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	k := cache.LayoutKeyOpts{
		VizType: o.VizType,
		Width:   o.Width,
		Height:  o.Height,
	}
	if o.IsNodelink() {
		k.Detailed = o.Detailed
		return k
	}
	k.Policy = o.Policy
	k.Padding = o.Padding
	k.GridShift = o.GridShift
	k.NoLastRowShift = o.NoLastRowShift
	if o.Policy == string(layout.PolicyForce) {
		k.Seed = o.Seed
	}
	return k
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{
		Format: format,
		Style:  o.Style,
		Grid:   !o.NoGrid,
	}
	if format == FormatPNG {
		k.Scale = o.Scale
	}
	if o.Style == StyleHanddrawn {
		k.Seed = o.Seed
	}
	return k
}
