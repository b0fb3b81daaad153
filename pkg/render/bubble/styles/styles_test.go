package styles

import (
	"bytes"
	"math"
	"strings"
	"sync"
	"testing"
)

func TestPaletteOrdinal(t *testing.T) {
	p := NewPalette()
	if got := p.Color("banking"); got != "#3182bd" {
		t.Errorf("first key = %s, want #3182bd", got)
	}
	if got := p.Color("orders"); got != "#6baed6" {
		t.Errorf("second key = %s, want #6baed6", got)
	}
	if got := p.Color("banking"); got != "#3182bd" {
		t.Errorf("repeated key = %s, want #3182bd", got)
	}
}

func TestPaletteWraps(t *testing.T) {
	p := NewPalette("#000000", "#ffffff")
	p.Color("a")
	p.Color("b")
	if got := p.Color("c"); got != "#000000" {
		t.Errorf("third key = %s, want wrap to #000000", got)
	}
}

func TestPaletteConcurrent(t *testing.T) {
	p := NewPalette()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p.Color(string(rune('a' + i)))
		}(i)
	}
	wg.Wait()
	if len(p.index) != 20 {
		t.Errorf("palette has %d keys, want 20", len(p.index))
	}
}

func TestDarken(t *testing.T) {
	got := Darken("#9ecae1", 0.3)
	if got == "#9ecae1" || !strings.HasPrefix(got, "#") || len(got) != 7 {
		t.Errorf("Darken() = %q", got)
	}
	if got := Darken("not-a-colour", 0.3); got != "not-a-colour" {
		t.Errorf("Darken(invalid) = %q", got)
	}
}

func TestRGBA(t *testing.T) {
	r, g, b, a := RGBA("#3182bd")
	if r != 0x31 || g != 0x82 || b != 0xbd || a != 255 {
		t.Errorf("RGBA() = %d %d %d %d", r, g, b, a)
	}
}

func TestNewGrid(t *testing.T) {
	g := NewGrid(800, 560)
	if len(g.Vertical) != GridXTicks+1 || len(g.Horizontal) != GridYTicks+1 {
		t.Fatalf("grid has %d vertical and %d horizontal lines", len(g.Vertical), len(g.Horizontal))
	}

	last := g.Vertical[GridXTicks]
	if last.X1 != 802 || last.Y1 != 560 || last.Y2 != -2 {
		t.Errorf("last vertical line = %+v", last)
	}
	top := g.Horizontal[GridYTicks]
	if top.Y1 != -1 || top.X1 != -1 || top.X2 != 801 {
		t.Errorf("top horizontal line = %+v", top)
	}
	bottom := g.Horizontal[0]
	if math.Abs(bottom.Y1-561) > 1e-9 {
		t.Errorf("bottom horizontal line y = %v, want 561", bottom.Y1)
	}
}

func TestSimpleRender(t *testing.T) {
	s := Simple{}
	var buf bytes.Buffer
	s.RenderDefs(&buf)
	if buf.Len() != 0 {
		t.Errorf("RenderDefs() wrote %d bytes, want 0", buf.Len())
	}

	s.RenderBubble(&buf, Bubble{ID: "intent-1", R: 12.5, Fill: "#3182bd"})
	s.RenderLabel(&buf, Bubble{Label: "a<b"})
	s.RenderLabel(&buf, Bubble{Label: ""})
	out := buf.String()

	for _, want := range []string{
		`<circle id="intent-1" r="12.50" fill="#3182bd"/>`,
		`dy=".2em"`,
		`text-anchor="middle"`,
		`font-size="12"`,
		`a&lt;b`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "<text") != 1 {
		t.Errorf("empty label should not render text")
	}
}

func TestSimpleRenderGrid(t *testing.T) {
	var buf bytes.Buffer
	Simple{}.RenderGrid(&buf, NewGrid(100, 100))
	if got := strings.Count(buf.String(), `class="grid-line"`); got != 24 {
		t.Errorf("grid lines = %d, want 24", got)
	}
	if !strings.Contains(buf.String(), GridLineColor) {
		t.Errorf("grid missing line colour")
	}
}

func TestEscapeXML(t *testing.T) {
	if got := EscapeXML(`<a & "b">`); got != "&lt;a &amp; &#34;b&#34;&gt;" {
		t.Errorf("EscapeXML() = %q", got)
	}
}
