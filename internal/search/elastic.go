package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/pkg/logging"
)

const (
	DefaultIndex  = "products"
	EmbeddingDims = 1024
	numCandidates = 50
)

type ESConfig struct {
	URL      string
	User     string
	Password string
}

// NewESClient connects and checks the cluster answers before returning.
func NewESClient(ctx context.Context, cfg ESConfig) (*elasticsearch.Client, error) {
	l := logging.FromContext(ctx)
	l.Info("es_connect", "url", cfg.URL)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("es: new client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("es: info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("es: info: %s: %s", res.Status(), body)
	}

	l.Info("es_connected")
	return client, nil
}

type ESIndex struct {
	Client *elasticsearch.Client
	Index  string
}

func NewESIndex(client *elasticsearch.Client, index string) *ESIndex {
	if index == "" {
		index = DefaultIndex
	}
	return &ESIndex{Client: client, Index: index}
}

// EnsureIndex creates the index with a dense_vector mapping when it does not exist yet.
func (s *ESIndex) EnsureIndex(ctx context.Context) error {
	res, err := s.Client.Indices.Exists([]string{s.Index}, s.Client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("es: exists: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	mapping := map[string]any{
		"mappings": map[string]any{
			"properties": map[string]any{
				"product_id": map[string]any{"type": "keyword"},
				"name":       map[string]any{"type": "text"},
				"embedding": map[string]any{
					"type":       "dense_vector",
					"dims":       EmbeddingDims,
					"index":      true,
					"similarity": "cosine",
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(mapping); err != nil {
		return err
	}

	res, err = s.Client.Indices.Create(s.Index,
		s.Client.Indices.Create.WithContext(ctx),
		s.Client.Indices.Create.WithBody(&buf),
	)
	if err != nil {
		return fmt.Errorf("es: create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("es: create index: %s", res.Status())
	}
	return nil
}

func (s *ESIndex) Upsert(ctx context.Context, doc Document) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(doc); err != nil {
		return err
	}

	res, err := s.Client.Index(s.Index, &buf,
		s.Client.Index.WithContext(ctx),
		s.Client.Index.WithDocumentID(doc.ProductID.String()),
	)
	if err != nil {
		return fmt.Errorf("es: index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("es: index: %s", res.Status())
	}
	return nil
}

// Delete treats a missing document as already deleted.
func (s *ESIndex) Delete(ctx context.Context, productID uuid.UUID) error {
	res, err := s.Client.Delete(s.Index, productID.String(), s.Client.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("es: delete: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("es: delete: %s", res.Status())
	}
	return nil
}

func (s *ESIndex) KNN(ctx context.Context, vector []float32, k int) ([]Hit, error) {
	body := map[string]any{
		"knn": map[string]any{
			"field":          "embedding",
			"query_vector":   vector,
			"k":              k,
			"num_candidates": max(numCandidates, k),
		},
		"_source": []string{"product_id", "name"},
		"size":    k,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}

	res, err := s.Client.Search(
		s.Client.Search.WithContext(ctx),
		s.Client.Search.WithIndex(s.Index),
		s.Client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("es: search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("es: search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Hits []struct {
				ID     string   `json:"_id"`
				Score  *float64 `json:"_score"`
				Source Document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("es: decode: %w", err)
	}

	hits := make([]Hit, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		id := h.Source.ProductID
		if id == uuid.Nil {
			parsed, err := uuid.Parse(h.ID)
			if err != nil {
				continue
			}
			id = parsed
		}
		var score float64
		if h.Score != nil {
			score = *h.Score
		}
		hits = append(hits, Hit{ProductID: id, Score: score})
	}
	return hits, nil
}
