package source

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/matzehuels/bubblechart/pkg/cache"
	"github.com/matzehuels/bubblechart/pkg/errors"
	"github.com/matzehuels/bubblechart/pkg/intent"
)

// MongoDB defaults.
const (
	DefaultDatabase         = "bubblechart"
	DefaultCollection       = "intents"
	DefaultLayoutCollection = "layouts"
	DefaultConnectTimeout   = 10 * time.Second
)

// MongoOptions configures [NewMongo] and [Connect].
type MongoOptions struct {
	URI        string
	Database   string
	Collection string
	// Domain, when set, loads only intents of that domain.
	Domain string
}

func (o *MongoOptions) setDefaults() {
	if o.Database == "" {
		o.Database = DefaultDatabase
	}
	if o.Collection == "" {
		o.Collection = DefaultCollection
	}
}

// Connect opens a MongoDB client and pings the primary. Network failures are
// retried with backoff.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	if err := errors.ValidateMongoURI(uri); err != nil {
		return nil, err
	}

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetConnectTimeout(DefaultConnectTimeout))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSource, err, "connect mongodb")
	}

	err = cache.RetryWithBackoff(ctx, func() error {
		pctx, cancel := context.WithTimeout(ctx, DefaultConnectTimeout)
		defer cancel()
		return transient(client.Ping(pctx, readpref.Primary()))
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping mongodb")
	}
	return client, nil
}

// transient marks network and timeout errors as retryable.
func transient(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return cache.Retryable(fmt.Errorf("%w: %w", cache.ErrNetwork, err))
	}
	return err
}

// Mongo loads intents from a MongoDB collection.
//
// Documents carry the intent fields (id, name, domain, value). A document
// without an id field uses its _id.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
	opts   MongoOptions
	owned  bool
}

// NewMongo connects to opts.URI and returns a source for the collection.
func NewMongo(ctx context.Context, opts MongoOptions) (*Mongo, error) {
	opts.setDefaults()
	client, err := Connect(ctx, opts.URI)
	if err != nil {
		return nil, err
	}
	m := NewMongoFromClient(client, opts)
	m.owned = true
	return m, nil
}

// NewMongoFromClient wraps an existing client. Close leaves the client open.
func NewMongoFromClient(client *mongo.Client, opts MongoOptions) *Mongo {
	opts.setDefaults()
	return &Mongo{
		client: client,
		coll:   client.Database(opts.Database).Collection(opts.Collection),
		opts:   opts,
	}
}

func (m *Mongo) Kind() string { return "mongo" }

// Ref is database/collection, with the domain filter appended.
func (m *Mongo) Ref() string {
	ref := m.opts.Database + "/" + m.opts.Collection
	if m.opts.Domain != "" {
		ref += "?domain=" + m.opts.Domain
	}
	return ref
}

// Client returns the underlying client.
func (m *Mongo) Client() *mongo.Client { return m.client }

// mongoIntent is the stored document shape.
type mongoIntent struct {
	ObjectID      any `bson:"_id,omitempty"`
	intent.Intent `bson:",inline"`
}

// Filter returns the query Load runs.
func (m *Mongo) Filter() bson.D {
	f := bson.D{}
	if m.opts.Domain != "" {
		f = append(f, bson.E{Key: "domain", Value: m.opts.Domain})
	}
	return f
}

// Load reads every matching document, sorted by _id.
func (m *Mongo) Load(ctx context.Context) ([]intent.Intent, error) {
	var docs []mongoIntent
	err := cache.RetryWithBackoff(ctx, func() error {
		cur, err := m.coll.Find(ctx, m.Filter(), options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
		if err != nil {
			return transient(err)
		}
		docs = docs[:0]
		return transient(cur.All(ctx, &docs))
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "load %s", m.Ref())
	}

	out := make([]intent.Intent, len(docs))
	for i, d := range docs {
		out[i] = d.Intent
		if out[i].ID == "" {
			out[i].ID = objectIDString(d.ObjectID)
		}
	}
	intent.AssignIDs(out)
	return out, nil
}

func objectIDString(v any) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}

// Insert stores intents in the collection.
func (m *Mongo) Insert(ctx context.Context, intents []intent.Intent) error {
	if len(intents) == 0 {
		return nil
	}
	docs := make([]any, len(intents))
	for i, it := range intents {
		docs[i] = it
	}
	if _, err := m.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert intents: %w", err)
	}
	return nil
}

// Close disconnects the client when the source created it.
func (m *Mongo) Close() error {
	if !m.owned {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), DefaultConnectTimeout)
	defer cancel()
	return m.client.Disconnect(ctx)
}

var _ Source = (*Mongo)(nil)
