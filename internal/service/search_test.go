package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/testutil"
)

type stubEmbedder struct {
	err   error
	calls int
}

func (e *stubEmbedder) Embed(ctx context.Context, text string, input search.InputType) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return []float32{1}, nil
}

type stubIndex struct {
	hits []search.Hit
	err  error
	k    int
}

func (s *stubIndex) Upsert(context.Context, search.Document) error { return nil }
func (s *stubIndex) Delete(context.Context, uuid.UUID) error       { return nil }
func (s *stubIndex) KNN(ctx context.Context, vector []float32, k int) ([]search.Hit, error) {
	s.k = k
	return s.hits, s.err
}

func names(ps []models.Product) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Name)
	}
	return out
}

func TestSearch_BlankQueryListsByName(t *testing.T) {
	t.Parallel()

	db := testutil.NewDB(t)
	emb := &stubEmbedder{}
	svc := &SearchService{Repo: &repo.GormRepo{DB: db}, Embedder: emb, Index: &stubIndex{}}

	testutil.CreateProduct(t, db, "Cup", "1.00", 1)
	testutil.CreateProduct(t, db, "Apron", "1.00", 0)
	testutil.CreateProduct(t, db, "Bowl", "1.00", 1)

	got, err := svc.Search(context.Background(), "   ")
	require.NoError(t, err)
	assert.Equal(t, []string{"Apron", "Bowl", "Cup"}, names(got))
	assert.Zero(t, emb.calls)
}

func TestSearch_RanksByScoreThenName(t *testing.T) {
	t.Parallel()

	db := testutil.NewDB(t)
	cup := testutil.CreateProduct(t, db, "Cup", "1.00", 1)
	bowl := testutil.CreateProduct(t, db, "Bowl", "1.00", 1)
	apron := testutil.CreateProduct(t, db, "Apron", "1.00", 1)

	idx := &stubIndex{hits: []search.Hit{
		{ProductID: cup.ID, Score: 0.7},
		{ProductID: uuid.New(), Score: 0.99},
		{ProductID: bowl.ID, Score: 0.9},
		{ProductID: apron.ID, Score: 0.7},
		{ProductID: cup.ID, Score: 0.2},
	}}
	svc := &SearchService{Repo: &repo.GormRepo{DB: db}, Embedder: &stubEmbedder{}, Index: idx}

	got, err := svc.Search(context.Background(), "kitchen")
	require.NoError(t, err)
	assert.Equal(t, []string{"Bowl", "Apron", "Cup"}, names(got))
	assert.Equal(t, DefaultTopK, idx.k)
}

func TestSearch_BackendFailure(t *testing.T) {
	t.Parallel()

	db := testutil.NewDB(t)
	testutil.CreateProduct(t, db, "Red Mug", "1.00", 1)
	testutil.CreateProduct(t, db, "Blue Plate", "1.00", 1)

	down := errors.New("connection refused")

	strict := &SearchService{Repo: &repo.GormRepo{DB: db}, Embedder: &stubEmbedder{err: down}, Index: &stubIndex{}}
	_, err := strict.Search(context.Background(), "mug")
	assert.ErrorIs(t, err, ErrSearchUnavailable)

	unconfigured := &SearchService{Repo: &repo.GormRepo{DB: db}}
	_, err = unconfigured.Search(context.Background(), "mug")
	assert.ErrorIs(t, err, ErrSearchUnavailable)

	lenient := &SearchService{
		Repo:     &repo.GormRepo{DB: db},
		Embedder: &stubEmbedder{},
		Index:    &stubIndex{err: down},
		Fallback: true,
	}
	got, err := lenient.Search(context.Background(), "MUG")
	require.NoError(t, err)
	assert.Equal(t, []string{"Red Mug"}, names(got))
}
