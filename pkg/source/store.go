package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/bubblechart/pkg/render/bubble/layout"
)

// LayoutStore persists computed layouts in MongoDB, keyed by the pipeline's
// layout cache key. Unlike the cache, entries do not expire.
type LayoutStore struct {
	coll  *mongo.Collection
	owned bool
}

type layoutDoc struct {
	Key       string        `bson:"_id"`
	Layout    layout.Layout `bson:"layout"`
	UpdatedAt time.Time     `bson:"updated_at"`
}

// NewLayoutStore returns a store on database/collection of client.
func NewLayoutStore(client *mongo.Client, database, collection string) *LayoutStore {
	if database == "" {
		database = DefaultDatabase
	}
	if collection == "" {
		collection = DefaultLayoutCollection
	}
	return &LayoutStore{coll: client.Database(database).Collection(collection)}
}

// OpenLayoutStore connects to uri and returns a store that disconnects the
// client on Close.
func OpenLayoutStore(ctx context.Context, uri, database, collection string) (*LayoutStore, error) {
	client, err := Connect(ctx, uri)
	if err != nil {
		return nil, err
	}
	s := NewLayoutStore(client, database, collection)
	s.owned = true
	return s, nil
}

// SaveLayout upserts l under key.
func (s *LayoutStore) SaveLayout(ctx context.Context, key string, l layout.Layout) error {
	doc := layoutDoc{Key: key, Layout: l, UpdatedAt: time.Now().UTC()}
	_, err := s.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: key}}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save layout: %w", err)
	}
	return nil
}

// LoadLayout returns the layout stored under key.
func (s *LayoutStore) LoadLayout(ctx context.Context, key string) (layout.Layout, bool, error) {
	var doc layoutDoc
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: key}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return layout.Layout{}, false, nil
	}
	if err != nil {
		return layout.Layout{}, false, fmt.Errorf("load layout: %w", err)
	}
	return doc.Layout, true, nil
}

// DeleteLayout removes the layout stored under key.
func (s *LayoutStore) DeleteLayout(ctx context.Context, key string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: key}}); err != nil {
		return fmt.Errorf("delete layout: %w", err)
	}
	return nil
}

// Close disconnects the client when the store created it.
func (s *LayoutStore) Close() error {
	if !s.owned {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), DefaultConnectTimeout)
	defer cancel()
	return s.coll.Database().Client().Disconnect(ctx)
}
