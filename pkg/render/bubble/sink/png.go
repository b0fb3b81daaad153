package sink

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/matzehuels/bubblechart/pkg/render/bubble/layout"
	"github.com/matzehuels/bubblechart/pkg/render/bubble/styles"
)

// supersample is the oversampling factor used before downscaling.
const supersample = 4

// PNGOption configures PNG rendering.
type PNGOption func(*pngRenderer)

type pngRenderer struct {
	scale   float64
	grid    bool
	palette *styles.Palette
}

// WithScale sets the output scale factor (default 2.0 for 2x resolution).
func WithScale(s float64) PNGOption {
	return func(r *pngRenderer) { r.scale = s }
}

// WithPNGGrid toggles the grid overlay (default on).
func WithPNGGrid(show bool) PNGOption {
	return func(r *pngRenderer) { r.grid = show }
}

// WithPNGPalette sets the colour scale.
func WithPNGPalette(p *styles.Palette) PNGOption {
	return func(r *pngRenderer) { r.palette = p }
}

// RenderPNG rasterizes the layout on a white background.
func RenderPNG(l layout.Layout, opts ...PNGOption) ([]byte, error) {
	r := pngRenderer{scale: 2.0, grid: true}
	for _, opt := range opts {
		opt(&r)
	}
	if r.palette == nil {
		r.palette = NewPalette(nil)
	}
	if !(r.scale > 0) {
		return nil, fmt.Errorf("invalid png scale %v", r.scale)
	}
	primePalette(r.palette, l)

	outW := int(math.Ceil(l.Width * r.scale))
	outH := int(math.Ceil(l.Height * r.scale))
	if outW <= 0 || outH <= 0 {
		return nil, fmt.Errorf("invalid canvas %vx%v", l.Width, l.Height)
	}

	k := r.scale * supersample
	large := image.NewRGBA(image.Rect(0, 0, outW*supersample, outH*supersample))
	draw.Draw(large, large.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	face, err := labelFace(styles.DefaultFontSize * k)
	if err != nil {
		return nil, err
	}
	defer face.Close()

	if r.grid {
		gc := hexColor(styles.GridLineColor)
		for _, g := range styles.NewGrid(l.Width, l.Height).Lines() {
			drawLine(large, g.X1*k, g.Y1*k, g.X2*k, g.Y2*k, math.Max(1, k/2), gc)
		}
	}

	for _, b := range l.Bubbles {
		fillCircle(large, b.X*k, b.Y*k, b.R*k, hexColor(r.palette.Color(b.ColorKey)))
	}
	for _, b := range l.Bubbles {
		if b.Label != "" {
			drawLabel(large, face, b.X*k, b.Y*k, b.Label, color.Black)
		}
	}

	out := image.NewRGBA(image.Rect(0, 0, outW, outH))
	draw.CatmullRom.Scale(out, out.Bounds(), large, large.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func labelFace(size float64) (font.Face, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("font face: %w", err)
	}
	return face, nil
}

func hexColor(hex string) color.RGBA {
	r, g, b, a := styles.RGBA(hex)
	return color.RGBA{R: r, G: g, B: b, A: a}
}

// fillCircle fills a disc by scanlines, sampling pixel centres.
func fillCircle(img *image.RGBA, cx, cy, r float64, c color.RGBA) {
	if r <= 0 {
		return
	}
	b := img.Bounds()
	y0 := max(b.Min.Y, int(math.Floor(cy-r)))
	y1 := min(b.Max.Y-1, int(math.Ceil(cy+r)))
	for y := y0; y <= y1; y++ {
		dy := float64(y) + 0.5 - cy
		if dy*dy > r*r {
			continue
		}
		half := math.Sqrt(r*r - dy*dy)
		x0 := max(b.Min.X, int(math.Ceil(cx-half-0.5)))
		x1 := min(b.Max.X-1, int(math.Floor(cx+half-0.5)))
		for x := x0; x <= x1; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

// drawLine draws an axis-agnostic line of the given thickness.
func drawLine(img *image.RGBA, x1, y1, x2, y2, thickness float64, c color.RGBA) {
	dx, dy := x2-x1, y2-y1
	steps := math.Max(math.Abs(dx), math.Abs(dy))
	if steps < 1 {
		steps = 1
	}
	dist := math.Hypot(dx, dy)
	if dist == 0 {
		return
	}
	px, py := -dy/dist, dx/dist
	half := thickness / 2
	for i := 0.0; i <= steps; i++ {
		t := i / steps
		x, y := x1+dx*t, y1+dy*t
		for o := -half; o <= half; o += 0.5 {
			ix, iy := int(x+px*o), int(y+py*o)
			if image.Pt(ix, iy).In(img.Bounds()) {
				img.SetRGBA(ix, iy, c)
			}
		}
	}
}

// drawLabel draws text centred horizontally on x with its baseline nudged
// below y the way an SVG dy of .2em does.
func drawLabel(img *image.RGBA, face font.Face, x, y float64, text string, c color.Color) {
	width := font.MeasureString(face, text)
	size := face.Metrics().Height
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.Int26_6(x*64) - width/2,
			Y: fixed.Int26_6(y*64) + size/5,
		},
	}
	d.DrawString(text)
}
