package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

const DefaultTopK = 5

type SearchService struct {
	Repo     *repo.GormRepo
	Embedder search.Embedder
	Index    search.VectorIndex
	// Fallback switches to substring matching when the vector backend is down.
	Fallback bool
	TopK     int
}

// Search ranks products by semantic similarity to query. A blank query lists the
// whole catalog by name.
func (s *SearchService) Search(ctx context.Context, query string) ([]models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "search.search")

	query = strings.TrimSpace(query)
	if query == "" {
		return s.Repo.ProductsByName(ctx)
	}

	hits, err := s.semanticHits(ctx, query)
	if err != nil {
		if s.Fallback {
			l.Warn("search_fallback", "error", err)
			return s.Repo.SearchProductsSubstring(ctx, query)
		}
		l.Error("search_error", "status", 503, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrSearchUnavailable, err)
	}

	ids := make([]uuid.UUID, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.ProductID)
	}
	products, err := s.Repo.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := rankByScore(hits, products)
	l.Info("search_success", "hits", len(hits), "results", len(out))
	return out, nil
}

func (s *SearchService) semanticHits(ctx context.Context, query string) ([]search.Hit, error) {
	if s.Embedder == nil || s.Index == nil {
		return nil, fmt.Errorf("vector search is not configured")
	}
	vec, err := s.Embedder.Embed(ctx, query, search.InputQuery)
	if err != nil {
		return nil, err
	}
	k := s.TopK
	if k <= 0 {
		k = DefaultTopK
	}
	return s.Index.KNN(ctx, vec, k)
}

// rankByScore orders products by their best hit score, then by name. Hits for products
// no longer in the catalog are dropped.
func rankByScore(hits []search.Hit, products []models.Product) []models.Product {
	best := make(map[uuid.UUID]float64, len(hits))
	for _, h := range hits {
		if cur, ok := best[h.ProductID]; !ok || h.Score > cur {
			best[h.ProductID] = h.Score
		}
	}

	seen := make(map[uuid.UUID]struct{}, len(products))
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if _, ok := best[p.ID]; !ok {
			continue
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		si, sj := best[out[i].ID], best[out[j].ID]
		if si != sj {
			return si > sj
		}
		return out[i].Name < out[j].Name
	})
	return out
}
