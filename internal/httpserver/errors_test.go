package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/testutil"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

func TestFail_StatusMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{err: service.ErrUnauthorized, want: http.StatusUnauthorized},
		{err: service.ErrInvalidCredentials, want: http.StatusUnauthorized},
		{err: service.ErrInvalidRefreshToken, want: http.StatusUnauthorized},
		{err: service.ErrForbidden, want: http.StatusForbidden},
		{err: fmt.Errorf("load: %w", service.ErrNotFound), want: http.StatusNotFound},
		{err: service.ErrInvalidQuantity, want: http.StatusBadRequest},
		{err: &service.ValidationError{Fields: map[string]string{"name": "required"}}, want: http.StatusBadRequest},
		{err: service.ErrEmptyCart, want: http.StatusConflict},
		{err: &service.StockError{ProductID: uuid.New(), Name: "Lamp", Requested: 3, Available: 2}, want: http.StatusConflict},
		{err: service.ErrConflict, want: http.StatusConflict},
		{err: fmt.Errorf("%w: es down", service.ErrSearchUnavailable), want: http.StatusServiceUnavailable},
		{err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	l := logging.NewWithWriter(&bytes.Buffer{}, "debug")
	for _, tt := range tests {
		tt := tt
		t.Run(tt.err.Error(), func(t *testing.T) {
			t.Parallel()

			var he *echo.HTTPError
			require.ErrorAs(t, fail(l, "op_error", tt.err), &he)
			assert.Equal(t, tt.want, he.Code)
		})
	}
}

func TestFail_ValidationCarriesFields(t *testing.T) {
	t.Parallel()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := fail(logging.NewWithWriter(&bytes.Buffer{}, "info"), "op_error",
		&service.ValidationError{Fields: map[string]string{"price": "price must be a number"}})
	e.HTTPErrorHandler(err, c)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body struct {
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "validation failed", body.Message)
	assert.Equal(t, "price must be a number", body.Fields["price"])
}

func TestGetProduct_DirectCall(t *testing.T) {
	db := testutil.NewDB(t)
	p := testutil.CreateProduct(t, db, "Lamp", "19.99", 2)
	h := &CatalogHTTP{Svc: &service.CatalogService{Repo: &repo.GormRepo{DB: db}}}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/products/"+p.ID.String(), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	require.NoError(t, h.GetProduct(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Lamp"`)

	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	var he *echo.HTTPError
	require.ErrorAs(t, h.GetProduct(c), &he)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}
