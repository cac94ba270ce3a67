package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

type AuthHTTP struct {
	Svc          *service.AuthService
	SecureCookie bool
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "register_error", err)
	}

	user, err := h.Svc.Register(ctx, service.RegisterInput{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		FirstName:       req.FirstName,
		MiddleName:      req.MiddleName,
		LastName:        req.LastName,
		PhoneNumber:     req.PhoneNumber,
	})
	if err != nil {
		return fail(l, "register_error", err)
	}

	l.Info("register_success", "user_id", user.ID)
	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "login_error", err)
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return fail(l, "login_error", err)
	}

	h.setTokens(c, res)
	l.Info("login_success", "user_id", res.UserID)
	return c.JSON(http.StatusOK, authResponse(res))
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	ck, err := c.Cookie(tokens.RefreshCookie)
	if err != nil || ck.Value == "" {
		l.Warn("refresh_error", "status", 401, "reason", "missing refresh token")
		return echo.NewHTTPError(http.StatusUnauthorized, "missing refresh token")
	}

	res, err := h.Svc.Refresh(ctx, ck.Value)
	if err != nil {
		h.clearTokens(c)
		return fail(l, "refresh_error", err)
	}

	h.setTokens(c, res)
	l.Info("refresh_success", "user_id", res.UserID)
	return c.JSON(http.StatusOK, authResponse(res))
}

func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	refresh := ""
	if ck, err := c.Cookie(tokens.RefreshCookie); err == nil {
		refresh = ck.Value
	}
	if err := h.Svc.LogOut(ctx, refresh); err != nil {
		return fail(l, "logout_error", err)
	}

	h.clearTokens(c)
	l.Info("logout_success")
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.me")

	user, err := h.Svc.Me(ctx, session.FromContext(ctx))
	if err != nil {
		return fail(l, "me_error", err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AuthHTTP) setTokens(c echo.Context, res *service.LoginResult) {
	c.SetCookie(tokens.CreateCookie(tokens.AccessCookie, res.AccessToken, "/", res.AccessExp, h.SecureCookie))
	c.SetCookie(tokens.CreateCookie(tokens.RefreshCookie, res.RefreshToken, "/", res.RefreshExp, h.SecureCookie))
}

func (h *AuthHTTP) clearTokens(c echo.Context) {
	c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/", h.SecureCookie))
	c.SetCookie(tokens.DeleteCookie(tokens.RefreshCookie, "/", h.SecureCookie))
}

func authResponse(res *service.LoginResult) transport.AuthResponse {
	return transport.AuthResponse{
		UserID:    res.UserID,
		Role:      res.Role,
		IsAdmin:   res.IsAdmin,
		ExpiresAt: res.AccessExp,
	}
}
