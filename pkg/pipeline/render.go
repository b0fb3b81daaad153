package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/bubblechart/pkg/render/bubble/layout"
	"github.com/matzehuels/bubblechart/pkg/render/bubble/sink"
	"github.com/matzehuels/bubblechart/pkg/render/bubble/styles"
	"github.com/matzehuels/bubblechart/pkg/render/bubble/styles/handdrawn"
	"github.com/matzehuels/bubblechart/pkg/render/nodelink"
)

// RenderFromLayout generates output artifacts in the requested formats.
// This is the preferred entry point when you have a Layout.
func RenderFromLayout(ctx context.Context, l Layout, opts Options) (map[string][]byte, error) {
	if l.IsNodelink() {
		return RenderNodelink(ctx, l.Nodelink, opts)
	}
	return renderBubble(ctx, l.Bubble, opts)
}

// RenderFromLayoutData renders output from serialized layout data.
// This is useful when the layout was computed elsewhere (e.g., a layout file).
func RenderFromLayoutData(ctx context.Context, layoutData []byte, opts Options) (map[string][]byte, error) {
	parsed, err := UnmarshalLayout(layoutData)
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	return RenderFromLayout(ctx, parsed, opts)
}

// RenderNodelink generates nodelink outputs from a layout.
// The layout must be a nodelink layout with a DOT string.
func RenderNodelink(ctx context.Context, l nodelink.Layout, opts Options) (map[string][]byte, error) {
	dot, err := nodelink.Parse(l)
	if err != nil {
		return nil, err
	}

	artifacts := make(map[string][]byte)
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data, err = nodelink.RenderSVG(ctx, dot)
		case FormatPNG:
			data, err = nodelink.RenderPNG(ctx, dot, opts.Scale)
		case FormatPDF:
			data, err = nodelink.RenderPDF(ctx, dot)
		case FormatJSON:
			data, err = nodelink.Marshal(l)
		default:
			return nil, fmt.Errorf("unsupported nodelink format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

// renderBubble generates bubble chart outputs.
func renderBubble(ctx context.Context, l layout.Layout, opts Options) (map[string][]byte, error) {
	opts = applyLayoutMetadata(opts, l)
	svgOpts := buildSVGOptions(opts)
	artifacts := make(map[string][]byte)

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data = sink.RenderSVG(l, svgOpts...)
		case FormatPNG:
			data, err = sink.RenderPNG(l, sink.WithScale(opts.Scale), sink.WithPNGGrid(!opts.NoGrid))
		case FormatPDF:
			data, err = sink.RenderPDF(l, sink.WithPDFSVGOptions(svgOpts...), sink.WithPDFContext(ctx))
		case FormatJSON:
			data, err = sink.RenderJSON(l)
		default:
			return nil, fmt.Errorf("unsupported bubble format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

// applyLayoutMetadata fills the style from the layout when the options
// leave it unset, so layout files keep their rendering settings.
func applyLayoutMetadata(opts Options, l layout.Layout) Options {
	if opts.Style == "" && l.Style != "" {
		opts.Style = l.Style
	}
	if opts.Scale == 0 {
		opts.Scale = DefaultScale
	}
	return opts
}

// buildSVGOptions builds SVG rendering options.
func buildSVGOptions(opts Options) []sink.SVGOption {
	svgOpts := []sink.SVGOption{sink.WithGrid(!opts.NoGrid)}

	switch opts.Style {
	case StyleHanddrawn:
		seed := opts.Seed
		if seed == 0 {
			seed = DefaultSeed
		}
		svgOpts = append(svgOpts, sink.WithStyle(handdrawn.New(seed)))
	default:
		svgOpts = append(svgOpts, sink.WithStyle(styles.Simple{}))
	}
	return svgOpts
}
