package pack

import (
	"fmt"
	"math"
	"testing"
)

const eps = 1e-6

func flatTree(values ...float64) *Node {
	root := NewNode(nil)
	for i, v := range values {
		root.Add(NewLeaf(i, v))
	}
	return Hierarchy(root)
}

func overlap(a, b *Node) float64 {
	return a.R + b.R - math.Hypot(a.X-b.X, a.Y-b.Y)
}

func TestHierarchySumsValues(t *testing.T) {
	a := NewNode("A").Add(NewLeaf("a1", 10), NewLeaf("a2", 5))
	b := NewNode("B").Add(NewLeaf("b1", 20), NewLeaf("bad", math.NaN()))
	root := Hierarchy(NewNode(nil).Add(a, b))

	if root.Value != 35 {
		t.Errorf("root value = %v, want 35", root.Value)
	}
	if a.Value != 15 || b.Value != 20 {
		t.Errorf("group values = %v, %v, want 15, 20", a.Value, b.Value)
	}
	if a.Depth != 1 || a.Children[0].Depth != 2 {
		t.Errorf("depths = %d, %d, want 1, 2", a.Depth, a.Children[0].Depth)
	}
}

func TestLeavesPreOrder(t *testing.T) {
	root := NewNode(nil).Add(
		NewNode("A").Add(NewLeaf("a1", 1), NewLeaf("a2", 1)),
		NewLeaf("c", 1),
		NewNode("B").Add(NewLeaf("b1", 1)),
	)
	var got []any
	for _, l := range root.Leaves() {
		got = append(got, l.Data)
	}
	want := []any{"a1", "a2", "c", "b1"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("Leaves() = %v, want %v", got, want)
	}
}

func TestSiblingsSmall(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		if r := Siblings(nil); r != 0 {
			t.Errorf("Siblings(nil) = %v, want 0", r)
		}
	})
	t.Run("one", func(t *testing.T) {
		c := []Circle{{R: 3}}
		if r := Siblings(c); r != 3 || c[0].X != 0 || c[0].Y != 0 {
			t.Errorf("Siblings(one) = %v, %+v", r, c[0])
		}
	})
	t.Run("two", func(t *testing.T) {
		c := []Circle{{R: 2}, {R: 3}}
		if r := Siblings(c); r != 5 {
			t.Errorf("Siblings(two) = %v, want 5", r)
		}
		if d := math.Abs(c[1].X - c[0].X); math.Abs(d-5) > eps {
			t.Errorf("centre distance = %v, want 5", d)
		}
	})
}

func TestSiblingsNoOverlap(t *testing.T) {
	circles := make([]Circle, 40)
	for i := range circles {
		circles[i].R = 1 + float64((i*7)%11)
	}
	r := Siblings(circles)

	for i := range circles {
		for j := i + 1; j < len(circles); j++ {
			a, b := circles[i], circles[j]
			d := math.Hypot(a.X-b.X, a.Y-b.Y)
			if d < a.R+b.R-1e-4 {
				t.Fatalf("circles %d and %d overlap: d=%v r=%v", i, j, d, a.R+b.R)
			}
		}
		c := circles[i]
		if math.Hypot(c.X, c.Y)+c.R > r+1e-4 {
			t.Errorf("circle %d escapes enclosing radius %v", i, r)
		}
	}
}

func TestEnclose(t *testing.T) {
	tests := []struct {
		name    string
		circles []Circle
		want    Circle
	}{
		{"empty", nil, Circle{}},
		{"single", []Circle{{X: 1, Y: 2, R: 3}}, Circle{X: 1, Y: 2, R: 3}},
		{"pair", []Circle{{X: -1, R: 1}, {X: 1, R: 1}}, Circle{R: 2}},
		{"nested", []Circle{{R: 5}, {X: 1, R: 1}}, Circle{R: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Enclose(tt.circles)
			if math.Abs(got.X-tt.want.X) > eps || math.Abs(got.Y-tt.want.Y) > eps || math.Abs(got.R-tt.want.R) > eps {
				t.Errorf("Enclose() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEncloseContainsAll(t *testing.T) {
	circles := []Circle{
		{X: 0, Y: 0, R: 1}, {X: 10, Y: 0, R: 2}, {X: 4, Y: 8, R: 1.5},
		{X: 3, Y: 3, R: 0.5}, {X: -2, Y: 5, R: 1},
	}
	e := Enclose(circles)
	for i, c := range circles {
		if math.Hypot(c.X-e.X, c.Y-e.Y)+c.R > e.R+1e-6 {
			t.Errorf("circle %d not enclosed by %+v", i, e)
		}
	}
}

func TestPackFitsFrame(t *testing.T) {
	root := flatTree(10, 5, 20, 1, 7, 3)
	Packer{Width: 300, Height: 200, Padding: 8}.Pack(root)

	if math.Abs(root.R-100) > eps {
		t.Errorf("root radius = %v, want 100", root.R)
	}
	if root.X != 150 || root.Y != 100 {
		t.Errorf("root centre = (%v, %v), want (150, 100)", root.X, root.Y)
	}

	leaves := root.Leaves()
	for i, a := range leaves {
		if math.Hypot(a.X-root.X, a.Y-root.Y)+a.R > root.R+1e-6 {
			t.Errorf("leaf %d escapes the root circle", i)
		}
		for _, b := range leaves[i+1:] {
			if overlap(a, b) > 1e-6 {
				t.Errorf("leaves %v and %v overlap", a.Data, b.Data)
			}
		}
	}
}

func TestPackRadiusMonotonic(t *testing.T) {
	root := flatTree(10, 5, 20, 1, 7, 3)
	Packer{Width: 300, Height: 200, Padding: 8}.Pack(root)

	leaves := root.Leaves()
	for _, a := range leaves {
		for _, b := range leaves {
			if a.Value > b.Value && a.R < b.R {
				t.Errorf("value %v has radius %v smaller than value %v radius %v", a.Value, a.R, b.Value, b.R)
			}
		}
	}
}

func TestPackPadding(t *testing.T) {
	root := flatTree(4, 4)
	Packer{Width: 100, Height: 100, Padding: 10}.Pack(root)

	a, b := root.Children[0], root.Children[1]
	gap := -overlap(a, b)
	if gap <= 0 {
		t.Errorf("gap between padded siblings = %v, want > 0", gap)
	}
	if gap > 10+eps {
		t.Errorf("gap between padded siblings = %v, want <= padding", gap)
	}
}

func TestPackNested(t *testing.T) {
	a := NewNode("A").Add(NewLeaf("a1", 10), NewLeaf("a2", 5))
	b := NewNode("B").Add(NewLeaf("b1", 20))
	root := Hierarchy(NewNode(nil).Add(a, b))
	Packer{Width: 300, Height: 200, Padding: 1.5}.Pack(root)

	for _, group := range root.Children {
		for _, leaf := range group.Children {
			if math.Hypot(leaf.X-group.X, leaf.Y-group.Y)+leaf.R > group.R+1e-6 {
				t.Errorf("leaf %v escapes group %v", leaf.Data, group.Data)
			}
		}
	}
	if overlap(a, b) > 1e-6 {
		t.Errorf("groups overlap")
	}
}

func TestPackDeterministic(t *testing.T) {
	values := []float64{3, 1, 4, 1, 5, 9, 2, 6, 5, 3, 5}
	r1 := flatTree(values...)
	r2 := flatTree(values...)
	Packer{Width: 400, Height: 300, Padding: 2}.Pack(r1)
	Packer{Width: 400, Height: 300, Padding: 2}.Pack(r2)

	l1, l2 := r1.Leaves(), r2.Leaves()
	for i := range l1 {
		if l1[i].X != l2[i].X || l1[i].Y != l2[i].Y || l1[i].R != l2[i].R {
			t.Fatalf("leaf %d differs between runs", i)
		}
	}
}

func TestPackZeroValues(t *testing.T) {
	root := flatTree(0, 0)
	Packer{Width: 100, Height: 100}.Pack(root)
	for _, l := range root.Leaves() {
		if l.R != 0 || math.IsNaN(l.X) {
			t.Errorf("zero-valued leaf = %+v", l)
		}
	}
}
