package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/bubblechart/pkg/intent"
	"github.com/matzehuels/bubblechart/pkg/render/bubble/layout"
	"github.com/matzehuels/bubblechart/pkg/render/nodelink"
)

// =============================================================================
// Layout
// =============================================================================

// Layout is the result of the layout stage: a bubble chart or a node-link
// graph, depending on the visualization type.
type Layout struct {
	VizType  string
	Bubble   layout.Layout
	Nodelink nodelink.Layout
}

// IsNodelink reports whether the layout is a node-link graph.
func (l Layout) IsNodelink() bool { return l.VizType == VizTypeNodelink }

// Size returns the number of drawn intents.
func (l Layout) Size() int {
	if l.IsNodelink() {
		return l.Nodelink.Intents
	}
	return len(l.Bubble.Bubbles)
}

// DomainCount returns the number of distinct domains drawn.
func (l Layout) DomainCount() int {
	if l.IsNodelink() {
		return l.Nodelink.Domains
	}
	return len(l.Bubble.Domains())
}

// MarshalLayout encodes the layout as the JSON document of its viz type.
func MarshalLayout(l Layout) ([]byte, error) {
	if l.IsNodelink() {
		return nodelink.Marshal(l.Nodelink)
	}
	return layout.Marshal(l.Bubble)
}

// UnmarshalLayout decodes a layout document written by [MarshalLayout].
// Node-link documents are recognized by their viz_type field.
func UnmarshalLayout(data []byte) (Layout, error) {
	var probe struct {
		VizType string `json:"viz_type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return Layout{}, fmt.Errorf("decode layout: %w", err)
	}
	if probe.VizType == VizTypeNodelink {
		nl, err := nodelink.Unmarshal(data)
		if err != nil {
			return Layout{}, err
		}
		if _, err := nodelink.Parse(nl); err != nil {
			return Layout{}, err
		}
		return Layout{VizType: VizTypeNodelink, Nodelink: nl}, nil
	}
	bl, err := layout.Unmarshal(data)
	if err != nil {
		return Layout{}, err
	}
	return Layout{VizType: VizTypeBubble, Bubble: bl}, nil
}

// GenerateLayout computes the layout of intents for the options' viz type.
// Options must have been validated with ValidateForLayout.
func GenerateLayout(intents []intent.Intent, opts Options) Layout {
	if opts.IsNodelink() {
		return generateNodelinkLayout(intents, opts)
	}
	l := layout.Build(intents, opts.Width, opts.Height, opts.LayoutOptions())
	l.Style = opts.Style
	return Layout{VizType: VizTypeBubble, Bubble: l}
}

// generateNodelinkLayout builds the DOT graph of domains and intents.
func generateNodelinkLayout(intents []intent.Intent, opts Options) Layout {
	data := intent.Filter(intents)
	dot := nodelink.ToDOT(data, nodelink.Options{Detailed: opts.Detailed})
	nl := nodelink.Export(dot, len(intent.Domains(data)), len(data), opts.Width, opts.Height)
	return Layout{VizType: VizTypeNodelink, Nodelink: nl}
}
