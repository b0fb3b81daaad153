// Package source loads intents from where they are stored.
//
// Two sources are provided: [File] reads JSON or YAML documents from disk or
// stdin, and [Mongo] reads a MongoDB collection of intent documents. [Open]
// picks one from a source string:
//
//	src, err := source.Open(ctx, "intents.yaml", source.Options{})
//	src, err := source.Open(ctx, "mongodb://localhost:27017", source.Options{
//	    Database: "training", Collection: "intents",
//	})
//	intents, err := src.Load(ctx)
package source

import (
	"context"
	"strings"

	"github.com/matzehuels/bubblechart/pkg/intent"
)

// Source loads a set of intents.
type Source interface {
	// Kind names the source type ("file", "mongo"); used in cache keys and metrics.
	Kind() string
	// Ref identifies what is loaded (path, collection).
	Ref() string
	// Load returns the intents. Values are not filtered.
	Load(ctx context.Context) ([]intent.Intent, error)
	// Close releases connections.
	Close() error
}

// Options configures [Open].
type Options struct {
	// Format overrides the file format detected from the extension.
	Format string
	// Database and Collection select the MongoDB collection.
	Database   string
	Collection string
	// Domain restricts a MongoDB source to one domain.
	Domain string
}

// IsMongoURI reports whether ref is a MongoDB connection string.
func IsMongoURI(ref string) bool {
	return strings.HasPrefix(ref, "mongodb://") || strings.HasPrefix(ref, "mongodb+srv://")
}

// Open returns the source described by ref: a MongoDB URI, a file path or
// "-" for stdin.
func Open(ctx context.Context, ref string, opts Options) (Source, error) {
	if IsMongoURI(ref) {
		return NewMongo(ctx, MongoOptions{
			URI:        ref,
			Database:   opts.Database,
			Collection: opts.Collection,
			Domain:     opts.Domain,
		})
	}
	return NewFile(ref, opts.Format)
}
