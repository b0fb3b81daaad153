package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/matzehuels/bubblechart/pkg/cache"
	"github.com/matzehuels/bubblechart/pkg/intent"
	"github.com/matzehuels/bubblechart/pkg/render/bubble/layout"
)

func sampleIntents() []intent.Intent {
	return []intent.Intent{
		{ID: "1", Name: "refund", Domain: "billing", Value: 10},
		{ID: "2", Name: "invoice", Domain: "billing", Value: 5},
		{ID: "3", Name: "hello", Domain: "smalltalk", Value: 20},
		{ID: "4", Name: "ignored", Domain: "smalltalk", Value: 0},
	}
}

func writeIntents(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	if err := intent.WriteJSON(&buf, sampleIntents()); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "intents.json")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, nil, nil)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestExecute(t *testing.T) {
	r := newTestRunner(t)
	opts := Options{
		Source:  writeIntents(t),
		Policy:  "grid",
		Width:   300,
		Height:  200,
		Formats: []string{FormatSVG, FormatJSON},
	}

	result, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.Stats.IntentCount != 4 || result.Stats.BubbleCount != 3 || result.Stats.DomainCount != 2 {
		t.Errorf("Stats = %+v", result.Stats)
	}
	if !bytes.Contains(result.Artifacts[FormatSVG], []byte(`class="bubble"`)) {
		t.Error("svg artifact missing bubble root")
	}
	if _, err := layout.Unmarshal(result.Artifacts[FormatJSON]); err != nil {
		t.Errorf("json artifact is not a layout: %v", err)
	}
	if g := result.Layout.Bubble.Grid; g == nil || g.Cols != 2 || g.Rows != 1 {
		t.Errorf("Grid = %+v, want 2x1", g)
	}
	if result.CacheInfo.LayoutHit || result.CacheInfo.RenderHit {
		t.Error("first run should not hit the cache")
	}
	if result.IntentsHash == "" {
		t.Error("IntentsHash should be set")
	}
}

func TestExecuteCacheRoundTrip(t *testing.T) {
	r := newTestRunner(t)
	ctx := context.Background()

	for _, policy := range []string{"flat", "nested", "grid", "force"} {
		t.Run(policy, func(t *testing.T) {
			opts := Options{Policy: policy, Width: 300, Height: 200, Formats: []string{FormatSVG}}

			fresh, err := r.ExecuteIntents(ctx, sampleIntents(), opts)
			if err != nil {
				t.Fatalf("first run: %v", err)
			}
			cached, err := r.ExecuteIntents(ctx, sampleIntents(), opts)
			if err != nil {
				t.Fatalf("second run: %v", err)
			}

			if !cached.CacheInfo.LayoutHit || !cached.CacheInfo.RenderHit {
				t.Errorf("second run CacheInfo = %+v, want hits", cached.CacheInfo)
			}
			if !reflect.DeepEqual(fresh.Layout, cached.Layout) {
				t.Error("cached layout differs from the computed one")
			}
			if !bytes.Equal(fresh.Artifacts[FormatSVG], cached.Artifacts[FormatSVG]) {
				t.Error("cached artifact differs from the rendered one")
			}
		})
	}
}

func TestExecuteNodelink(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	opts := Options{VizType: VizTypeNodelink, Formats: []string{FormatJSON}}

	result, err := r.ExecuteIntents(context.Background(), sampleIntents(), opts)
	if err != nil {
		t.Fatalf("ExecuteIntents: %v", err)
	}
	if !result.Layout.IsNodelink() {
		t.Fatal("layout should be nodelink")
	}
	if !strings.Contains(result.Layout.Nodelink.DOT, "twopi") {
		t.Error("DOT should use the twopi engine")
	}

	parsed, err := UnmarshalLayout(result.Artifacts[FormatJSON])
	if err != nil {
		t.Fatalf("UnmarshalLayout: %v", err)
	}
	if !parsed.IsNodelink() || parsed.Nodelink.Intents != 3 || parsed.Nodelink.Domains != 2 {
		t.Errorf("parsed = %+v", parsed.Nodelink)
	}
}

func TestExecuteInvalidOptions(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	tests := []struct {
		name string
		opts Options
	}{
		{"no source", Options{}},
		{"bad policy", Options{Source: "x.json", Policy: "spiral"}},
		{"bad format", Options{Source: "x.json", Formats: []string{"gif"}}},
		{"bad style", Options{Source: "x.json", Style: "neon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.Execute(context.Background(), tt.opts); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRenderFromLayoutData(t *testing.T) {
	l := GenerateLayout(sampleIntents(), Options{Policy: "flat", Width: 200, Height: 200, Style: StyleHanddrawn})
	data, err := MarshalLayout(l)
	if err != nil {
		t.Fatal(err)
	}

	opts := Options{Formats: []string{FormatSVG}, Style: StyleHanddrawn}
	opts.SetLayoutDefaults()
	artifacts, err := RenderFromLayoutData(context.Background(), data, opts)
	if err != nil {
		t.Fatalf("RenderFromLayoutData: %v", err)
	}
	if !bytes.Contains(artifacts[FormatSVG], []byte("sketch")) {
		t.Error("handdrawn style should add the sketch filter")
	}

	if _, err := RenderFromLayoutData(context.Background(), []byte("{"), opts); err == nil {
		t.Error("invalid layout data should fail")
	}
}

type memStore struct {
	mu      sync.Mutex
	layouts map[string]layout.Layout
	loads   int
}

func (s *memStore) SaveLayout(_ context.Context, key string, l layout.Layout) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.layouts == nil {
		s.layouts = map[string]layout.Layout{}
	}
	s.layouts[key] = l
	return nil
}

func (s *memStore) LoadLayout(_ context.Context, key string) (layout.Layout, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	l, ok := s.layouts[key]
	return l, ok, nil
}

func TestLayoutStore(t *testing.T) {
	store := &memStore{}
	ctx := context.Background()
	opts := Options{Policy: "grid", Width: 300, Height: 200}

	first := NewRunner(nil, nil, nil)
	first.Store = store
	fresh, hit, err := first.GenerateLayoutWithCacheInfo(ctx, sampleIntents(), opts)
	if err != nil || hit {
		t.Fatalf("first layout = hit %v, err %v", hit, err)
	}
	if len(store.layouts) != 1 {
		t.Fatalf("store holds %d layouts, want 1", len(store.layouts))
	}

	// A runner with an empty cache finds the layout in the store.
	second := NewRunner(nil, nil, nil)
	second.Store = store
	stored, hit, err := second.GenerateLayoutWithCacheInfo(ctx, sampleIntents(), opts)
	if err != nil || !hit {
		t.Fatalf("second layout = hit %v, err %v", hit, err)
	}
	if !reflect.DeepEqual(fresh, stored) {
		t.Error("stored layout differs from the computed one")
	}
}

func TestMarshalLayoutRoundTrip(t *testing.T) {
	for _, viz := range []string{VizTypeBubble, VizTypeNodelink} {
		t.Run(viz, func(t *testing.T) {
			opts := Options{VizType: viz}
			opts.SetLayoutDefaults()
			l := GenerateLayout(sampleIntents(), opts)

			data, err := MarshalLayout(l)
			if err != nil {
				t.Fatal(err)
			}
			got, err := UnmarshalLayout(data)
			if err != nil {
				t.Fatal(err)
			}
			if got.VizType != viz {
				t.Errorf("VizType = %s, want %s", got.VizType, viz)
			}
			if got.Size() != 3 {
				t.Errorf("Size() = %d, want 3", got.Size())
			}
		})
	}
}
