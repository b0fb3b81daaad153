package layout

import (
	"fmt"
	"math"
	"strings"

	"github.com/matzehuels/bubblechart/pkg/intent"
)

// Policy selects the layout algorithm.
type Policy string

const (
	PolicyFlat   Policy = "flat"
	PolicyNested Policy = "nested"
	PolicyGrid   Policy = "grid"
	PolicyForce  Policy = "force"
)

// Policies lists every supported policy.
var Policies = []Policy{PolicyFlat, PolicyNested, PolicyGrid, PolicyForce}

// ParsePolicy converts a policy name to a [Policy].
func ParsePolicy(s string) (Policy, error) {
	p := Policy(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Policies {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown layout policy %q", s)
}

// Default paddings between sibling circles, in pixels.
const (
	DefaultFlatPadding   = 8.0
	DefaultNestedPadding = 1.5
	DefaultGridPadding   = 8.0
)

// Grid constants.
const (
	// GridPackHeightFactor stretches the frame the grid policy packs into.
	GridPackHeightFactor = 1.3
	// DefaultGridShift is the alternating row shift as a fraction of cell width.
	DefaultGridShift = 0.125
)

// Label constants.
const (
	PackLabelDivisor  = 3.0
	ForceLabelDivisor = 4.0
	ForceMinLabelR    = 13.0
)

// Options controls layout computation. The zero value selects the flat
// policy with default padding.
type Options struct {
	Policy Policy

	// Padding overrides the policy's default padding when positive.
	Padding float64

	// GridShift is the alternating per-row horizontal shift of the grid
	// policy, as a fraction of cell width. Zero selects DefaultGridShift and a
	// negative value disables the shift.
	GridShift float64

	// NoLastRowShift disables centring an underfull last grid row.
	NoLastRowShift bool

	// Seed drives the force simulation's random source. Zero selects 1.
	Seed uint64
}

func (o Options) policy() Policy {
	if o.Policy == "" {
		return PolicyFlat
	}
	return o.Policy
}

func (o Options) padding(def float64) float64 {
	if o.Padding > 0 {
		return o.Padding
	}
	return def
}

func (o Options) gridShift() float64 {
	switch {
	case o.GridShift < 0:
		return 0
	case o.GridShift == 0:
		return DefaultGridShift
	default:
		return o.GridShift
	}
}

func (o Options) seed() uint64 {
	if o.Seed == 0 {
		return 1
	}
	return o.Seed
}

// Layout is a computed bubble chart.
type Layout struct {
	Policy   Policy    `json:"policy" bson:"policy"`
	Width    float64   `json:"width" bson:"width"`
	Height   float64   `json:"height" bson:"height"`
	Padding  float64   `json:"padding" bson:"padding"`
	Bubbles  []Bubble  `json:"bubbles" bson:"bubbles"`
	Clusters []Cluster `json:"clusters,omitempty" bson:"clusters,omitempty"`
	Grid     *Grid     `json:"grid,omitempty" bson:"grid,omitempty"`
	Ticks    int       `json:"ticks,omitempty" bson:"ticks,omitempty"`
	Style    string    `json:"style,omitempty" bson:"style,omitempty"`
}

// Bubble is one positioned intent.
type Bubble struct {
	ID       string  `json:"id" bson:"id"`
	Name     string  `json:"name" bson:"name"`
	Domain   string  `json:"domain" bson:"domain"`
	Value    float64 `json:"value" bson:"value"`
	X        float64 `json:"x" bson:"x"`
	Y        float64 `json:"y" bson:"y"`
	R        float64 `json:"r" bson:"r"`
	Cluster  int     `json:"cluster" bson:"cluster"`
	ColorKey string  `json:"color_key" bson:"color_key"`
	Label    string  `json:"label" bson:"label"`
	Title    string  `json:"title" bson:"title"`
}

// Cluster groups the bubbles of one domain.
type Cluster struct {
	Index          int     `json:"index" bson:"index"`
	Domain         string  `json:"domain" bson:"domain"`
	X              float64 `json:"x" bson:"x"`
	Y              float64 `json:"y" bson:"y"`
	R              float64 `json:"r,omitempty" bson:"r,omitempty"`
	Cell           *Cell   `json:"cell,omitempty" bson:"cell,omitempty"`
	Representative string  `json:"representative,omitempty" bson:"representative,omitempty"`
}

// Cell is a grid cell in canvas coordinates.
type Cell struct {
	Col    int     `json:"col" bson:"col"`
	Row    int     `json:"row" bson:"row"`
	X      float64 `json:"x" bson:"x"`
	Y      float64 `json:"y" bson:"y"`
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}

// Grid describes the cluster grid of the grid policy.
type Grid struct {
	Cols       int     `json:"cols" bson:"cols"`
	Rows       int     `json:"rows" bson:"rows"`
	CellWidth  float64 `json:"cell_width" bson:"cell_width"`
	CellHeight float64 `json:"cell_height" bson:"cell_height"`
}

// Build computes a layout of intents on a width×height canvas.
func Build(intents []intent.Intent, width, height float64, opts Options) Layout {
	l := Layout{
		Policy:  opts.policy(),
		Width:   width,
		Height:  height,
		Bubbles: []Bubble{},
	}

	data := intent.Filter(intents)
	if len(data) == 0 || !(width > 0) || !(height > 0) {
		return l
	}

	switch l.Policy {
	case PolicyNested:
		buildNested(&l, data, opts)
	case PolicyGrid:
		buildGrid(&l, data, opts)
	case PolicyForce:
		buildForce(&l, data, opts)
	default:
		buildFlat(&l, data, opts)
	}
	return l
}

// Domains returns the unique bubble domains in order of first appearance.
func (l Layout) Domains() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, b := range l.Bubbles {
		if _, ok := seen[b.Domain]; !ok {
			seen[b.Domain] = struct{}{}
			out = append(out, b.Domain)
		}
	}
	return out
}

// Bounds returns the bounding box of all bubbles.
func (l Layout) Bounds() (minX, minY, maxX, maxY float64) {
	if len(l.Bubbles) == 0 {
		return 0, 0, 0, 0
	}
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, b := range l.Bubbles {
		minX = math.Min(minX, b.X-b.R)
		minY = math.Min(minY, b.Y-b.R)
		maxX = math.Max(maxX, b.X+b.R)
		maxY = math.Max(maxY, b.Y+b.R)
	}
	return minX, minY, maxX, maxY
}

func newBubble(it intent.Intent, cluster int) Bubble {
	return Bubble{
		ID:       it.ID,
		Name:     it.Name,
		Domain:   it.Domain,
		Value:    it.Value,
		Cluster:  cluster,
		ColorKey: it.Domain,
		Title:    it.Name + "\n" + it.Domain,
	}
}

func domainIndex(data []intent.Intent) map[string]int {
	idx := make(map[string]int)
	for i, d := range intent.Domains(data) {
		idx[d] = i
	}
	return idx
}
