package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/matzehuels/bubblechart/pkg/intent"
	"github.com/matzehuels/bubblechart/pkg/source"
)

// Load reads the intents named by opts.Source.
func Load(ctx context.Context, opts Options) ([]intent.Intent, error) {
	src, err := source.Open(ctx, opts.Source, source.Options{
		Format:     opts.Format,
		Database:   opts.Database,
		Collection: opts.Collection,
		Domain:     opts.Domain,
	})
	if err != nil {
		return nil, err
	}
	defer src.Close()

	if f, ok := src.(*source.File); ok && opts.Stdin != nil {
		f.Stdin = opts.Stdin
	}

	intents, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s %s: %w", src.Kind(), src.Ref(), err)
	}
	return intents, nil
}

// sourceKind classifies opts.Source without opening it.
func sourceKind(opts Options) string {
	if source.IsMongoURI(opts.Source) {
		return "mongo"
	}
	return "file"
}

func marshalIntents(intents []intent.Intent) ([]byte, error) {
	return json.Marshal(intents)
}

func unmarshalIntents(data []byte) ([]intent.Intent, error) {
	var intents []intent.Intent
	if err := json.Unmarshal(data, &intents); err != nil {
		return nil, err
	}
	return intents, nil
}
