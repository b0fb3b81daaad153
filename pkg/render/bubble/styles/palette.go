package styles

import (
	"sync"

	"github.com/lucasb-eyer/go-colorful"
)

// Category20c is the twenty-colour scheme used for bubble fills.
var Category20c = []string{
	"#3182bd", "#6baed6", "#9ecae1", "#c6dbef",
	"#e6550d", "#fd8d3c", "#fdae6b", "#fdd0a2",
	"#31a354", "#74c476", "#a1d99b", "#c7e9c0",
	"#756bb1", "#9e9ac8", "#bcbddc", "#dadaeb",
	"#636363", "#969696", "#bdbdbd", "#d9d9d9",
}

const strokeDarken = 0.3

// Palette is an ordinal colour scale. The first key requested gets the first
// colour, the second key the second colour, and so on, wrapping around.
// It is safe for concurrent use.
type Palette struct {
	mu     sync.Mutex
	colors []string
	index  map[string]int
}

// NewPalette returns a palette over colors, or Category20c when none are
// given.
func NewPalette(colors ...string) *Palette {
	if len(colors) == 0 {
		colors = Category20c
	}
	return &Palette{colors: colors, index: make(map[string]int)}
}

// Color returns the fill colour for key.
func (p *Palette) Color(key string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	i, ok := p.index[key]
	if !ok {
		i = len(p.index)
		p.index[key] = i
	}
	return p.colors[i%len(p.colors)]
}

// Stroke returns a darker shade of the fill colour for key.
func (p *Palette) Stroke(key string) string {
	return Darken(p.Color(key), strokeDarken)
}

// Darken blends hex toward black by t in Lab space. Invalid colours are
// returned unchanged.
func Darken(hex string, t float64) string {
	c, err := colorful.Hex(hex)
	if err != nil {
		return hex
	}
	return c.BlendLab(colorful.Color{}, t).Clamped().Hex()
}

// RGBA returns the 8-bit channels of a hex colour, or opaque black when hex
// is invalid.
func RGBA(hex string) (r, g, b, a uint8) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return 0, 0, 0, 255
	}
	r, g, b = c.RGB255()
	return r, g, b, 255
}
