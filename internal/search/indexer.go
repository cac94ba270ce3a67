package search

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

// Indexer mirrors product events into the vector index.
type Indexer struct {
	Embedder Embedder
	Index    VectorIndex
}

func PassageText(name, description string) string {
	if description == "" {
		return name
	}
	return name + ". " + description
}

// Handle is an events.Handler for the product topic.
func (ix *Indexer) Handle(ctx context.Context, key, value []byte) error {
	l := logging.FromContext(ctx).With("svc", "search.indexer")

	var ev events.ProductEvent
	if err := json.Unmarshal(value, &ev); err != nil {
		return fmt.Errorf("indexer: decode event: %w", err)
	}

	switch ev.Type {
	case events.ProductCreated, events.ProductUpdated:
		vec, err := ix.Embedder.Embed(ctx, PassageText(ev.Name, ev.Description), InputPassage)
		if err != nil {
			return fmt.Errorf("indexer: embed %s: %w", ev.ProductID, err)
		}
		if err := ix.Index.Upsert(ctx, Document{ProductID: ev.ProductID, Name: ev.Name, Embedding: vec}); err != nil {
			return err
		}
	case events.ProductDeleted:
		if err := ix.Index.Delete(ctx, ev.ProductID); err != nil {
			return err
		}
	default:
		l.Debug("indexer_skip", "type", ev.Type)
		return nil
	}

	l.Info("indexer_success", "type", ev.Type, "product_id", ev.ProductID)
	return nil
}
