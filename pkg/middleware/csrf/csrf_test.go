package csrf

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEcho() *echo.Echo {
	e := echo.New()
	e.Use(Middleware(Config{SkipPrefixes: []string{"/health"}}))
	ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
	e.GET("/form", ok)
	e.POST("/submit", ok)
	e.POST("/health/ping", ok)
	return e
}

func TestCSRF_IssuesTokenOnSafeMethods(t *testing.T) {
	t.Parallel()

	e := newEcho()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://shop.test/form", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	token := rec.Header().Get("X-CSRF-Token")
	require.NotEmpty(t, token)

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "XSRF-TOKEN", cookies[0].Name)
	assert.Equal(t, token, cookies[0].Value)
}

func TestCSRF_UnsafeMethods(t *testing.T) {
	t.Parallel()

	e := newEcho()

	tests := []struct {
		name   string
		origin string
		header string
		want   int
	}{
		{name: "matching token", origin: "http://shop.test", header: "tok", want: http.StatusNoContent},
		{name: "missing token", origin: "http://shop.test", want: http.StatusForbidden},
		{name: "wrong token", origin: "http://shop.test", header: "other", want: http.StatusForbidden},
		{name: "foreign origin", origin: "http://evil.test", header: "tok", want: http.StatusForbidden},
		{name: "no origin", header: "tok", want: http.StatusForbidden},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, "http://shop.test/submit", nil)
			req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: "tok"})
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.header != "" {
				req.Header.Set("X-CSRF-Token", tt.header)
			}

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestCSRF_SkipPrefixes(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	newEcho().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "http://shop.test/health/ping", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
