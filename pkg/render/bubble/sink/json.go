package sink

import "github.com/matzehuels/bubblechart/pkg/render/bubble/layout"

// RenderJSON returns the layout as indented JSON.
func RenderJSON(l layout.Layout) ([]byte, error) {
	return layout.Marshal(l)
}
