package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/pagination"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) ListMine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_mine")

	orders, err := h.Svc.ListMine(ctx, session.FromContext(ctx))
	if err != nil {
		return fail(l, "list_orders_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": orders})
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_order")

	id, err := parseID(c, l, "get_order_error")
	if err != nil {
		return err
	}

	order, err := h.Svc.GetOrder(ctx, session.FromContext(ctx), id)
	if err != nil {
		return fail(l, "get_order_error", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_orders")

	page := pagination.ParseIntDefault(c.QueryParam("page"), 1)
	size := pagination.ParseIntDefault(c.QueryParam("size"), pagination.DefaultPageSize)
	offset, limit := pagination.Calculate(page, size)

	total, orders, err := h.Svc.ListOrders(ctx, session.FromContext(ctx), c.QueryParam("status"), offset, limit)
	if err != nil {
		return fail(l, "list_orders_error", err)
	}

	l.Info("list_orders_success", "total", total)
	return c.JSON(http.StatusOK, map[string]any{
		"data": orders,
		"meta": pagination.NewMeta(page, offset, limit, total),
	})
}

func (h *OrderHTTP) ChangeStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.change_status")

	id, err := parseID(c, l, "change_status_error")
	if err != nil {
		return err
	}

	var req transport.ChangeStatusRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "change_status_error", err)
	}

	order, err := h.Svc.ChangeStatus(ctx, session.FromContext(ctx), id, req.Status)
	if err != nil {
		return fail(l, "change_status_error", err)
	}

	l.Info("change_status_success", "order_id", id, "status", order.Status)
	return c.JSON(http.StatusOK, order)
}
