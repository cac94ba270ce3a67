package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
)

// fail logs err under op and converts it into the HTTP error the client sees.
func fail(l *slog.Logger, op string, err error) error {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		l.Warn(op, "status", http.StatusBadRequest, "reason", "validation failed", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, transport.ErrorResponse{
			Message: "validation failed",
			Fields:  verr.Fields,
		})
	}

	var stock *service.StockError
	if errors.As(err, &stock) {
		l.Warn(op, "status", http.StatusConflict, "reason", "insufficient stock", "product_id", stock.ProductID, "error", err)
		return echo.NewHTTPError(http.StatusConflict, stock.Error())
	}

	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		l.Error(op, "status", status, "reason", msg, "error", err)
	} else {
		l.Warn(op, "status", status, "reason", msg, "error", err)
	}
	return echo.NewHTTPError(status, msg)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid email or password"
	case errors.Is(err, service.ErrInvalidRefreshToken):
		return http.StatusUnauthorized, "invalid refresh token"
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized, "authentication required"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "admin access required"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, service.ErrInvalidQuantity):
		return http.StatusBadRequest, "quantity must be at least 1"
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, "invalid body"
	case errors.Is(err, service.ErrEmptyCart):
		return http.StatusConflict, "cart is empty"
	case errors.Is(err, service.ErrInsufficientStock):
		return http.StatusConflict, "insufficient stock"
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, "already exists"
	case errors.Is(err, service.ErrSearchUnavailable):
		return http.StatusServiceUnavailable, "search is temporarily unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func parseID(c echo.Context, l *slog.Logger, op string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn(op, "status", http.StatusBadRequest, "reason", "id is not a uuid", "error", err)
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}
	return id, nil
}

func badBody(l *slog.Logger, op string, err error) error {
	l.Warn(op, "status", http.StatusBadRequest, "reason", "invalid body", "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
}
