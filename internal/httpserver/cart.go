package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type CartHTTP struct {
	Svc      *service.CartService
	Checkout *service.CheckoutService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get_cart")

	cart, err := h.Svc.GetCart(ctx, session.FromContext(ctx))
	if err != nil {
		return fail(l, "get_cart_error", err)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_to_cart")

	var req transport.AddToCartRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "add_to_cart_error", err)
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		l.Warn("add_to_cart_error", "status", 400, "reason", "product_id is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "product_id is not a uuid")
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	item, err := h.Svc.AddToCart(ctx, session.FromContext(ctx), productID, qty)
	if err != nil {
		return fail(l, "add_to_cart_error", err)
	}

	l.Info("add_to_cart_success", "product_id", productID, "quantity", item.Quantity)
	return c.JSON(http.StatusOK, item)
}

func (h *CartHTTP) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update_item")

	id, err := parseID(c, l, "update_cart_item_error")
	if err != nil {
		return err
	}

	var req transport.UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "update_cart_item_error", err)
	}

	item, err := h.Svc.UpdateQuantity(ctx, session.FromContext(ctx), id, req.Quantity)
	if err != nil {
		return fail(l, "update_cart_item_error", err)
	}

	l.Info("update_cart_item_success", "item_id", id, "quantity", item.Quantity)
	return c.JSON(http.StatusOK, item)
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_item")

	id, err := parseID(c, l, "remove_cart_item_error")
	if err != nil {
		return err
	}

	if err := h.Svc.RemoveItem(ctx, session.FromContext(ctx), id); err != nil {
		return fail(l, "remove_cart_item_error", err)
	}

	l.Info("remove_cart_item_success", "item_id", id)
	return c.JSON(http.StatusOK, transport.DeleteResponse{ID: id, Deleted: true})
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	if err := h.Svc.Clear(ctx, session.FromContext(ctx)); err != nil {
		return fail(l, "clear_cart_error", err)
	}

	l.Info("clear_cart_success")
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHTTP) CheckoutCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.checkout")

	order, err := h.Checkout.Checkout(ctx, session.FromContext(ctx))
	if err != nil {
		return fail(l, "checkout_error", err)
	}

	l.Info("checkout_success", "order_id", order.ID, "total", order.Total.StringFixed(2))
	return c.JSON(http.StatusCreated, order)
}
