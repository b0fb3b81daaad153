//go:build integration

package source

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/bubblechart/pkg/intent"
	"github.com/matzehuels/bubblechart/pkg/render/bubble/layout"
)

// Run with: BUBBLECHART_MONGO_URI=mongodb://localhost:27017 go test -tags integration ./pkg/source/
func mongoURI(t *testing.T) string {
	uri := os.Getenv("BUBBLECHART_MONGO_URI")
	if uri == "" {
		t.Skip("BUBBLECHART_MONGO_URI not set")
	}
	return uri
}

func TestMongoLoad(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	opts := MongoOptions{
		URI:        mongoURI(t),
		Database:   "bubblechart_test",
		Collection: "intents_" + uuid.NewString(),
	}
	m, err := NewMongo(ctx, opts)
	if err != nil {
		t.Fatalf("NewMongo: %v", err)
	}
	defer m.Close()
	defer m.coll.Drop(ctx)

	in := []intent.Intent{
		{ID: "1", Name: "refund", Domain: "billing", Value: 10},
		{ID: "2", Name: "hello", Domain: "smalltalk", Value: 4},
		{Name: "bye", Domain: "smalltalk", Value: 2},
	}
	if err := m.Insert(ctx, in); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := m.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("loaded %d intents, want 3", len(got))
	}
	if got[2].ID == "" {
		t.Error("document without id should fall back to _id")
	}

	opts.Domain = "smalltalk"
	filtered := NewMongoFromClient(m.Client(), opts)
	got, err = filtered.Load(ctx)
	if err != nil {
		t.Fatalf("Load filtered: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("filtered load returned %d intents, want 2", len(got))
	}
}

func TestLayoutStore(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := Connect(ctx, mongoURI(t))
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Disconnect(ctx)

	store := NewLayoutStore(client, "bubblechart_test", "layouts_"+uuid.NewString())
	defer store.coll.Drop(ctx)

	l := layout.Build([]intent.Intent{
		{ID: "a", Name: "a", Domain: "x", Value: 3},
		{ID: "b", Name: "b", Domain: "y", Value: 1},
	}, 300, 200, layout.Options{Policy: layout.PolicyGrid})

	if _, ok, err := store.LoadLayout(ctx, "k"); err != nil || ok {
		t.Fatalf("LoadLayout before save = %v, %v", ok, err)
	}
	if err := store.SaveLayout(ctx, "k", l); err != nil {
		t.Fatalf("SaveLayout: %v", err)
	}
	got, ok, err := store.LoadLayout(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("LoadLayout = %v, %v", ok, err)
	}
	if len(got.Bubbles) != 2 || got.Grid == nil || got.Grid.Cols != l.Grid.Cols {
		t.Errorf("stored layout differs: %+v", got)
	}
	if err := store.DeleteLayout(ctx, "k"); err != nil {
		t.Fatalf("DeleteLayout: %v", err)
	}
}
