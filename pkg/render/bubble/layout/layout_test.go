package layout

import (
	"fmt"
	"math"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/matzehuels/bubblechart/pkg/intent"
)

const eps = 1e-6

func sample() []intent.Intent {
	return []intent.Intent{
		{ID: "1", Name: "greeting", Domain: "smalltalk", Value: 50},
		{ID: "2", Name: "goodbye", Domain: "smalltalk", Value: 40},
		{ID: "3", Name: "balance", Domain: "banking", Value: 30},
		{ID: "4", Name: "transfer", Domain: "banking", Value: 25},
		{ID: "5", Name: "card lost", Domain: "banking", Value: 20},
		{ID: "6", Name: "order status", Domain: "orders", Value: 15},
		{ID: "7", Name: "cancel order", Domain: "orders", Value: 12},
		{ID: "8", Name: "refund", Domain: "orders", Value: 10},
		{ID: "9", Name: "weather", Domain: "misc", Value: 8},
		{ID: "10", Name: "joke", Domain: "misc", Value: 5},
		{ID: "11", Name: "help", Domain: "support", Value: 3},
		{ID: "12", Name: "human", Domain: "support", Value: 1},
	}
}

func assertNoOverlap(t *testing.T, l Layout, tolerance float64) {
	t.Helper()
	for i, a := range l.Bubbles {
		for _, b := range l.Bubbles[i+1:] {
			d := math.Hypot(a.X-b.X, a.Y-b.Y)
			if o := a.R + b.R - d; o > tolerance {
				t.Errorf("%s and %s overlap by %.3f", a.ID, b.ID, o)
			}
		}
	}
}

func assertMonotonic(t *testing.T, l Layout) {
	t.Helper()
	for _, a := range l.Bubbles {
		for _, b := range l.Bubbles {
			if a.Value > b.Value && a.R < b.R-eps {
				t.Errorf("%s (value %v) has radius %v below %s (value %v, radius %v)",
					a.ID, a.Value, a.R, b.ID, b.Value, b.R)
			}
		}
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"flat", PolicyFlat, false},
		{"Grid", PolicyGrid, false},
		{" force ", PolicyForce, false},
		{"nested", PolicyNested, false},
		{"spiral", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePolicy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParsePolicy(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildExcludesNonPositive(t *testing.T) {
	data := append(sample(),
		intent.Intent{ID: "zero", Domain: "smalltalk", Value: 0},
		intent.Intent{ID: "neg", Domain: "ghost", Value: -4},
		intent.Intent{ID: "nan", Domain: "ghost", Value: math.NaN()},
	)
	for _, p := range Policies {
		t.Run(string(p), func(t *testing.T) {
			l := Build(data, 600, 400, Options{Policy: p})
			if len(l.Bubbles) != len(sample()) {
				t.Fatalf("got %d bubbles, want %d", len(l.Bubbles), len(sample()))
			}
			for _, b := range l.Bubbles {
				if b.Value <= 0 {
					t.Errorf("bubble %s with value %v kept", b.ID, b.Value)
				}
				if b.Domain == "ghost" {
					t.Errorf("domain of filtered intents leaked into layout")
				}
			}
		})
	}
}

func TestBuildEmpty(t *testing.T) {
	for _, p := range Policies {
		l := Build(nil, 300, 200, Options{Policy: p})
		if len(l.Bubbles) != 0 || len(l.Clusters) != 0 {
			t.Errorf("%s: empty input produced %d bubbles", p, len(l.Bubbles))
		}
		if l.Bubbles == nil {
			t.Errorf("%s: Bubbles is nil, want empty slice", p)
		}
	}
	if l := Build(sample(), 0, 200, Options{}); len(l.Bubbles) != 0 {
		t.Errorf("zero width produced bubbles")
	}
}

func TestRadiusMonotonic(t *testing.T) {
	for _, p := range Policies {
		t.Run(string(p), func(t *testing.T) {
			assertMonotonic(t, Build(sample(), 600, 400, Options{Policy: p}))
		})
	}
}

func TestFlat(t *testing.T) {
	l := Build(sample(), 600, 400, Options{Policy: PolicyFlat})

	if l.Padding != DefaultFlatPadding {
		t.Errorf("padding = %v, want %v", l.Padding, DefaultFlatPadding)
	}
	if len(l.Clusters) != 0 {
		t.Errorf("flat layout has %d clusters", len(l.Clusters))
	}

	var area float64
	for _, b := range l.Bubbles {
		area += math.Pi * b.R * b.R
		if b.X-b.R < -eps || b.X+b.R > 600+eps || b.Y-b.R < -eps || b.Y+b.R > 400+eps {
			t.Errorf("bubble %s leaves the canvas", b.ID)
		}
	}
	if area > 600*400 {
		t.Errorf("bubble area %v exceeds canvas", area)
	}
	assertNoOverlap(t, l, eps)
}

func TestNested(t *testing.T) {
	l := Build(sample(), 600, 400, Options{Policy: PolicyNested})

	if got := len(l.Clusters); got != 5 {
		t.Fatalf("got %d clusters, want 5", got)
	}
	for _, b := range l.Bubbles {
		c := l.Clusters[b.Cluster]
		if c.Domain != b.Domain {
			t.Fatalf("bubble %s in cluster %s, want %s", b.ID, c.Domain, b.Domain)
		}
		if math.Hypot(b.X-c.X, b.Y-c.Y)+b.R > c.R+eps {
			t.Errorf("bubble %s escapes its domain circle", b.ID)
		}
	}
	if l.Clusters[0].Representative != "1" {
		t.Errorf("smalltalk representative = %q, want 1", l.Clusters[0].Representative)
	}
}

func TestGridExample(t *testing.T) {
	data := []intent.Intent{
		{ID: "a1", Name: "a1", Domain: "A", Value: 10},
		{ID: "a2", Name: "a2", Domain: "A", Value: 5},
		{ID: "b1", Name: "b1", Domain: "B", Value: 20},
	}
	l := Build(data, 300, 200, Options{Policy: PolicyGrid})

	if l.Grid == nil || l.Grid.Cols != 2 || l.Grid.Rows != 1 {
		t.Fatalf("grid = %+v, want 2x1", l.Grid)
	}
	r := map[string]float64{}
	for _, b := range l.Bubbles {
		r[b.ID] = b.R
	}
	if !(r["b1"] > r["a1"] && r["b1"] > r["a2"]) {
		t.Errorf("radii = %v, want b1 strictly largest", r)
	}
	if len(l.Clusters) != 2 || l.Clusters[0].Domain != "A" || l.Clusters[1].Domain != "B" {
		t.Errorf("clusters = %+v", l.Clusters)
	}
}

func TestGridBubblesStayInCells(t *testing.T) {
	l := Build(sample(), 600, 400, Options{Policy: PolicyGrid})

	if l.Grid.Cols*l.Grid.Rows < len(l.Clusters) {
		t.Fatalf("grid %dx%d too small for %d clusters", l.Grid.Cols, l.Grid.Rows, len(l.Clusters))
	}
	for _, b := range l.Bubbles {
		cell := l.Clusters[b.Cluster].Cell
		if b.X-b.R < cell.X-eps || b.X+b.R > cell.X+cell.Width+eps ||
			b.Y-b.R < cell.Y-eps || b.Y+b.R > cell.Y+cell.Height+eps {
			t.Errorf("bubble %s leaves cell %+v", b.ID, *cell)
		}
	}
	assertNoOverlap(t, l, eps)
}

func TestGridLastRowShift(t *testing.T) {
	data := []intent.Intent{
		{ID: "a", Domain: "A", Value: 1},
		{ID: "b", Domain: "B", Value: 1},
		{ID: "c", Domain: "C", Value: 1},
	}
	l := Build(data, 200, 200, Options{Policy: PolicyGrid})
	if l.Grid.Cols != 2 || l.Grid.Rows != 2 {
		t.Fatalf("grid = %+v, want 2x2", l.Grid)
	}
	if got := l.Clusters[2].Cell.X; math.Abs(got-50) > eps {
		t.Errorf("last row cell x = %v, want 50", got)
	}

	l = Build(data, 200, 200, Options{Policy: PolicyGrid, NoLastRowShift: true})
	if got := l.Clusters[2].Cell.X; got != 0 {
		t.Errorf("last row cell x without shift = %v, want 0", got)
	}
}

func TestGridAlternatingShift(t *testing.T) {
	data := []intent.Intent{
		{ID: "a", Domain: "A", Value: 1},
		{ID: "b", Domain: "B", Value: 1},
		{ID: "c", Domain: "C", Value: 1},
		{ID: "d", Domain: "D", Value: 1},
	}
	l := Build(data, 400, 400, Options{Policy: PolicyGrid})
	top := l.Clusters[0]
	bottom := l.Clusters[2]
	topCentre := top.Cell.X + top.Cell.Width/2
	bottomCentre := bottom.Cell.X + bottom.Cell.Width/2
	if !(top.X < topCentre) {
		t.Errorf("even row not shifted left: x=%v centre=%v", top.X, topCentre)
	}
	if !(bottom.X > bottomCentre) {
		t.Errorf("odd row not shifted right: x=%v centre=%v", bottom.X, bottomCentre)
	}

	l = Build(data, 400, 400, Options{Policy: PolicyGrid, GridShift: -1})
	if c := l.Clusters[0]; math.Abs(c.X-(c.Cell.X+c.Cell.Width/2)) > eps {
		t.Errorf("disabled shift still moved cluster: x=%v", c.X)
	}
}

func TestGridSingleDomain(t *testing.T) {
	data := []intent.Intent{
		{ID: "a", Domain: "A", Value: 3},
		{ID: "b", Domain: "A", Value: 1},
	}
	grid := Build(data, 300, 200, Options{Policy: PolicyGrid})
	flat := Build(data, 300, 200, Options{Policy: PolicyFlat})

	if grid.Grid.Cols != 1 || grid.Grid.Rows != 1 {
		t.Errorf("grid = %+v, want 1x1", grid.Grid)
	}
	if !reflect.DeepEqual(grid.Bubbles, flat.Bubbles) {
		t.Errorf("single-domain grid differs from flat pack")
	}
	if grid.Policy != PolicyGrid {
		t.Errorf("policy = %q, want grid", grid.Policy)
	}
}

func TestGridDims(t *testing.T) {
	tests := []struct {
		n          int
		aspect     float64
		cols, rows int
	}{
		{0, 1.5, 0, 0},
		{1, 1.5, 1, 1},
		{2, 1.5, 2, 1},
		{2, 1, 1, 2},
		{3, 1, 2, 2},
		{5, 1.5, 3, 2},
		{12, 16.0 / 9, 4, 3},
		{4, math.NaN(), 2, 2},
	}
	for _, tt := range tests {
		cols, rows := GridDims(tt.n, tt.aspect)
		if cols != tt.cols || rows != tt.rows {
			t.Errorf("GridDims(%d, %v) = (%d, %d), want (%d, %d)", tt.n, tt.aspect, cols, rows, tt.cols, tt.rows)
		}
	}
}

func TestGridDimsMinimizesAspectError(t *testing.T) {
	for n := 1; n <= 40; n++ {
		for _, aspect := range []float64{0.3, 0.75, 1, 1.5, 16.0 / 9, 3} {
			cols, rows := GridDims(n, aspect)
			if cols*rows < n {
				t.Fatalf("GridDims(%d, %v) = %dx%d holds fewer than n", n, aspect, cols, rows)
			}
			got := math.Abs(float64(cols)/float64(rows) - aspect)
			for h := 1; h <= n; h++ {
				w := (n + h - 1) / h
				if d := math.Abs(float64(w)/float64(h) - aspect); d < got {
					t.Errorf("GridDims(%d, %v) = %dx%d, but %dx%d is closer", n, aspect, cols, rows, w, h)
				}
			}
		}
	}
}

func TestForce(t *testing.T) {
	l := Build(sample(), 600, 400, Options{Policy: PolicyForce})

	if l.Padding != 1 {
		t.Errorf("padding = %v, want 1", l.Padding)
	}
	if l.Ticks < 290 {
		t.Errorf("ticks = %d, want a cooled simulation", l.Ticks)
	}
	if l.Bubbles[0].ID != "1" || l.Bubbles[0].R != 100 {
		t.Errorf("first bubble = %s r=%v, want largest value with capped radius 100", l.Bubbles[0].ID, l.Bubbles[0].R)
	}
	assertNoOverlap(t, l, l.Padding)

	for _, b := range l.Bubbles {
		if b.R < ForceMinLabelR && b.Label != "" {
			t.Errorf("bubble %s (r=%v) has label %q", b.ID, b.R, b.Label)
		}
	}
	if len(l.Clusters) != 5 {
		t.Fatalf("got %d clusters, want 5", len(l.Clusters))
	}
	if l.Clusters[1].Domain != "banking" || l.Clusters[1].Representative != "3" {
		t.Errorf("banking cluster = %+v", l.Clusters[1])
	}
}

func TestForceLargePortraitNoOverlap(t *testing.T) {
	data := make([]intent.Intent, 250)
	for i := range data {
		data[i] = intent.Intent{
			ID:     fmt.Sprintf("i%d", i),
			Name:   fmt.Sprintf("intent %d", i),
			Domain: fmt.Sprintf("d%d", i%17),
			Value:  float64(1 + (i*37)%97),
		}
	}
	l := Build(data, 200, 900, Options{Policy: PolicyForce, Seed: 5})

	if l.Padding != 0 {
		t.Fatalf("padding = %v, want 0 on a portrait canvas", l.Padding)
	}
	if len(l.Bubbles) != len(data) {
		t.Fatalf("got %d bubbles, want %d", len(l.Bubbles), len(data))
	}
	assertNoOverlap(t, l, l.Padding+1e-4)
}

func TestForceDeterministic(t *testing.T) {
	a := Build(sample(), 500, 300, Options{Policy: PolicyForce, Seed: 9})
	b := Build(sample(), 500, 300, Options{Policy: PolicyForce, Seed: 9})
	if !reflect.DeepEqual(a, b) {
		t.Errorf("force layout differs between runs with the same seed")
	}
}

func TestForceParameters(t *testing.T) {
	if got := ForcePadding(1.5); got != 1 {
		t.Errorf("ForcePadding(1.5) = %v, want 1", got)
	}
	if got := ForcePadding(3); got != 6 {
		t.Errorf("ForcePadding(3) = %v, want 6", got)
	}
	if got := ForceXStrength(1.5); math.Abs(got-0.75) > eps {
		t.Errorf("ForceXStrength(1.5) = %v, want 0.75", got)
	}
	data := []intent.Intent{{Value: 1}, {Value: 1}}
	if got := ForceMaxRadius(100, 100, data, 0); math.Abs(got-25) > eps {
		t.Errorf("ForceMaxRadius capped = %v, want 25", got)
	}
}

func TestForceModelFrames(t *testing.T) {
	m := NewForceModel(sample(), 600, 400, Options{Policy: PolicyForce})
	m.Sim.Step()
	bubbles := m.Bubbles(m.Sim.Positions())
	if len(bubbles) != len(sample()) {
		t.Fatalf("got %d bubbles, want %d", len(bubbles), len(sample()))
	}
	n := m.Sim.Nodes()[0]
	if bubbles[0].X != n.X+300 || bubbles[0].Y != n.Y+200 {
		t.Errorf("bubble not translated to canvas centre")
	}
}

func TestLabels(t *testing.T) {
	tests := []struct {
		fn   func(string, float64) string
		name string
		r    float64
		want string
	}{
		{PackLabel, "checkout", 9, "che"},
		{PackLabel, "checkout", 2, ""},
		{PackLabel, "hi", 100, "hi"},
		{PackLabel, "héllo", 6.5, "hé"},
		{ForceLabel, "checkout", 12.9, ""},
		{ForceLabel, "checkout", 20, "check"},
	}
	for _, tt := range tests {
		if got := tt.fn(tt.name, tt.r); got != tt.want {
			t.Errorf("label(%q, %v) = %q, want %q", tt.name, tt.r, got, tt.want)
		}
	}
}

func TestTitleAndColorKey(t *testing.T) {
	l := Build(sample()[:1], 100, 100, Options{})
	b := l.Bubbles[0]
	if b.Title != "greeting\nsmalltalk" {
		t.Errorf("title = %q", b.Title)
	}
	if b.ColorKey != "smalltalk" {
		t.Errorf("color key = %q", b.ColorKey)
	}
}

func TestLayoutFileRoundTrip(t *testing.T) {
	l := Build(sample(), 600, 400, Options{Policy: PolicyGrid})
	path := filepath.Join(t.TempDir(), "layout.json")
	if err := WriteFile(l, path); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if !reflect.DeepEqual(got, l) {
		t.Errorf("round trip mismatch")
	}
}

func TestUnmarshalInvalid(t *testing.T) {
	if _, err := Unmarshal([]byte("{")); err == nil {
		t.Error("expected error for malformed JSON")
	}
}
