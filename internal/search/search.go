// Package search embeds product text and keeps it in an Elasticsearch kNN index.
package search

import (
	"context"

	"github.com/google/uuid"
)

type InputType string

const (
	InputQuery   InputType = "query"
	InputPassage InputType = "passage"
)

type Hit struct {
	ProductID uuid.UUID
	Score     float64
}

type Document struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Embedding []float32 `json:"embedding"`
}

type Embedder interface {
	Embed(ctx context.Context, text string, input InputType) ([]float32, error)
}

type VectorIndex interface {
	Upsert(ctx context.Context, doc Document) error
	Delete(ctx context.Context, productID uuid.UUID) error
	KNN(ctx context.Context, vector []float32, k int) ([]Hit, error)
}
