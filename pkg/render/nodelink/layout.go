package nodelink

import (
	"encoding/json"
	"fmt"
)

// VizType identifies node-link layouts in serialized form.
const VizType = "nodelink"

// Engine is the Graphviz layout engine used for node-link diagrams.
const Engine = "twopi"

// Layout is the serializable form of a node-link diagram.
type Layout struct {
	VizType string  `json:"viz_type" bson:"viz_type"`
	Engine  string  `json:"engine" bson:"engine"`
	DOT     string  `json:"dot" bson:"dot"`
	Width   float64 `json:"width,omitempty" bson:"width,omitempty"`
	Height  float64 `json:"height,omitempty" bson:"height,omitempty"`
	Domains int     `json:"domains" bson:"domains"`
	Intents int     `json:"intents" bson:"intents"`
}

// Export packages a DOT string for caching or file output.
func Export(dot string, domains, intents int, width, height float64) Layout {
	return Layout{
		VizType: VizType,
		Engine:  Engine,
		DOT:     dot,
		Width:   width,
		Height:  height,
		Domains: domains,
		Intents: intents,
	}
}

// Parse extracts the DOT string from a serialized node-link layout.
func Parse(l Layout) (string, error) {
	if l.VizType != "" && l.VizType != VizType {
		return "", fmt.Errorf("invalid viz_type for nodelink layout: %q", l.VizType)
	}
	if l.DOT == "" {
		return "", fmt.Errorf("nodelink layout must contain DOT string")
	}
	return l.DOT, nil
}

// Marshal encodes a layout as indented JSON.
func Marshal(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// Unmarshal decodes a JSON node-link layout.
func Unmarshal(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("decode nodelink layout: %w", err)
	}
	return l, nil
}
