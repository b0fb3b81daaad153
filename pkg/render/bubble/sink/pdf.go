package sink

import (
	"context"

	"github.com/matzehuels/bubblechart/pkg/render"
	"github.com/matzehuels/bubblechart/pkg/render/bubble/layout"
)

// PDFOption configures PDF rendering.
type PDFOption func(*pdfRenderer)

type pdfRenderer struct {
	svgOpts []SVGOption
	ctx     context.Context
}

// WithPDFSVGOptions passes options through to the underlying SVG renderer.
func WithPDFSVGOptions(opts ...SVGOption) PDFOption {
	return func(r *pdfRenderer) { r.svgOpts = opts }
}

// WithPDFContext bounds the rsvg-convert subprocess by ctx.
func WithPDFContext(ctx context.Context) PDFOption {
	return func(r *pdfRenderer) { r.ctx = ctx }
}

// RenderPDF renders the layout as PDF via SVG conversion.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(l layout.Layout, opts ...PDFOption) ([]byte, error) {
	r := pdfRenderer{ctx: context.Background()}
	for _, opt := range opts {
		opt(&r)
	}
	svg := RenderSVG(l, r.svgOpts...)
	return render.ToPDF(r.ctx, svg)
}
