// Package auth authenticates requests from the access cookie, silently rotating an expired
// access token when a valid refresh token is present.
package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

type Authenticator interface {
	Authenticate(accessToken string) (session.Session, *tokens.AccessClaims, error)
	Refresh(ctx context.Context, refreshToken string) (*service.LoginResult, error)
}

type AutoRefreshMiddleware struct {
	Auth         Authenticator
	SecureCookie bool
}

func NewAutoRefreshMiddleware(a Authenticator, secureCookie bool) *AutoRefreshMiddleware {
	return &AutoRefreshMiddleware{Auth: a, SecureCookie: secureCookie}
}

type validatorFunc func(s session.Session) error

func (m *AutoRefreshMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.require(next, nil)
}

func (m *AutoRefreshMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.require(next, func(s session.Session) error {
		if s.Role != models.RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return nil
	})
}

// Optional attaches a session when the caller has a valid access token and otherwise lets
// the request through anonymously. It never refreshes.
func (m *AutoRefreshMiddleware) Optional(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if ck, err := c.Cookie(tokens.AccessCookie); err == nil && ck.Value != "" {
			if sess, _, err := m.Auth.Authenticate(ck.Value); err == nil {
				setSession(c, sess)
			}
		}
		return next(c)
	}
}

func (m *AutoRefreshMiddleware) require(next echo.HandlerFunc, validate validatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		l := logging.FromContext(c.Request().Context()).With("middleware", "auth")

		accessCookie, err := c.Cookie(tokens.AccessCookie)
		access := ""
		if err == nil {
			access = accessCookie.Value
		}

		if access != "" {
			sess, _, err := m.Auth.Authenticate(access)
			if err == nil {
				return m.proceed(c, next, sess, validate)
			}
			if !errors.Is(err, jwt.ErrTokenExpired) {
				l.Warn("auth_error", "status", 401, "reason", "invalid access token", "error", err)
				m.clearCookies(c)
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
			}
		}

		refreshCookie, err := c.Cookie(tokens.RefreshCookie)
		if err != nil || refreshCookie.Value == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		res, err := m.Auth.Refresh(c.Request().Context(), refreshCookie.Value)
		if err != nil {
			l.Warn("auth_error", "status", 401, "reason", "refresh failed", "error", err)
			m.clearCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "session expired")
		}

		c.SetCookie(tokens.CreateCookie(tokens.AccessCookie, res.AccessToken, "/", res.AccessExp, m.SecureCookie))
		c.SetCookie(tokens.CreateCookie(tokens.RefreshCookie, res.RefreshToken, "/", res.RefreshExp, m.SecureCookie))

		l.Info("auth_refreshed", "user_id", res.UserID)
		return m.proceed(c, next, session.Session{UserID: res.UserID, Role: res.Role}, validate)
	}
}

func (m *AutoRefreshMiddleware) proceed(c echo.Context, next echo.HandlerFunc, sess session.Session, validate validatorFunc) error {
	if validate != nil {
		if err := validate(sess); err != nil {
			return err
		}
	}
	setSession(c, sess)
	return next(c)
}

func (m *AutoRefreshMiddleware) clearCookies(c echo.Context) {
	c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/", m.SecureCookie))
	c.SetCookie(tokens.DeleteCookie(tokens.RefreshCookie, "/", m.SecureCookie))
}

func setSession(c echo.Context, sess session.Session) {
	c.Set("user_id", sess.UserID.String())
	c.Set("role", string(sess.Role))

	req := c.Request()
	ctx := session.IntoContext(req.Context(), sess)
	ctx = logging.IntoContext(ctx, logging.FromContext(ctx).With("user_id", sess.UserID.String()))
	c.SetRequest(req.WithContext(ctx))
}
