package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type AdminHTTP struct {
	Customers *service.CustomerService
	Analytics *service.AnalyticsService
}

func (h *AdminHTTP) ListCustomers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_customers")

	users, err := h.Customers.ListCustomers(ctx, session.FromContext(ctx))
	if err != nil {
		return fail(l, "list_customers_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": users})
}

func (h *AdminHTTP) GetCustomer(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.get_customer")

	id, err := parseID(c, l, "get_customer_error")
	if err != nil {
		return err
	}

	user, err := h.Customers.GetCustomer(ctx, session.FromContext(ctx), id)
	if err != nil {
		return fail(l, "get_customer_error", err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AdminHTTP) Stats(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.stats")

	stats, err := h.Analytics.Stats(ctx, session.FromContext(ctx))
	if err != nil {
		return fail(l, "stats_error", err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *AdminHTTP) GetAnalytics(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.analytics")

	out, err := h.Analytics.Analytics(ctx, session.FromContext(ctx))
	if err != nil {
		return fail(l, "analytics_error", err)
	}

	l.Info("analytics_success", "total_orders", out.TotalOrders)
	return c.JSON(http.StatusOK, out)
}
