package httpserver

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/internal/storage"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/pagination"
)

type CatalogHTTP struct {
	Svc      *service.CatalogService
	Search   *service.SearchService
	Checkout *service.CheckoutService
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	page := pagination.ParseIntDefault(c.QueryParam("page"), 1)
	size := pagination.ParseIntDefault(c.QueryParam("size"), pagination.DefaultPageSize)
	offset, limit := pagination.Calculate(page, size)

	total, items, err := h.Svc.ListProducts(ctx, session.FromContext(ctx), offset, limit)
	if err != nil {
		return fail(l, "get_products_error", err)
	}

	l.Info("get_products_success", "total", total)
	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": pagination.NewMeta(page, offset, limit, total),
	})
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	items, err := h.Search.Search(ctx, c.QueryParam("query"))
	if err != nil {
		return fail(l, "search_error", err)
	}

	l.Info("search_success", "results", len(items))
	return c.JSON(http.StatusOK, map[string]any{"data": items})
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, err := parseID(c, l, "get_product_error")
	if err != nil {
		return err
	}

	product, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return fail(l, "get_product_error", err)
	}
	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHTTP) BuyProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.buy")

	id, err := parseID(c, l, "buy_error")
	if err != nil {
		return err
	}

	var req transport.BuyRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "buy_error", err)
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	order, err := h.Checkout.Purchase(ctx, session.FromContext(ctx), id, qty)
	if err != nil {
		return fail(l, "buy_error", err)
	}

	l.Info("buy_success", "order_id", order.ID, "product_id", id)
	return c.JSON(http.StatusCreated, order)
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	img, closeImg, err := formImage(c)
	if err != nil {
		return badBody(l, "create_product_error", err)
	}
	defer closeImg()

	prod, err := h.Svc.CreateProduct(ctx, session.FromContext(ctx), productInput(c), img)
	if err != nil {
		return fail(l, "create_product_error", err)
	}

	l.Info("create_product_success", "product_id", prod.ID)
	return c.JSON(http.StatusCreated, prod)
}

func (h *CatalogHTTP) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.update")

	id, err := parseID(c, l, "update_product_error")
	if err != nil {
		return err
	}

	img, closeImg, err := formImage(c)
	if err != nil {
		return badBody(l, "update_product_error", err)
	}
	defer closeImg()

	prod, err := h.Svc.UpdateProduct(ctx, session.FromContext(ctx), id, productInput(c), img)
	if err != nil {
		return fail(l, "update_product_error", err)
	}

	l.Info("update_product_success", "product_id", id)
	return c.JSON(http.StatusOK, prod)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete")

	id, err := parseID(c, l, "delete_product_error")
	if err != nil {
		return err
	}

	if err := h.Svc.DeleteProduct(ctx, session.FromContext(ctx), id); err != nil {
		return fail(l, "delete_product_error", err)
	}

	l.Info("delete_product_success", "product_id", id)
	return c.JSON(http.StatusOK, transport.DeleteResponse{ID: id, Deleted: true})
}

func (h *CatalogHTTP) LowStock(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.low_stock")

	items, err := h.Svc.LowStock(ctx, session.FromContext(ctx))
	if err != nil {
		return fail(l, "low_stock_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": items})
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *CatalogHTTP) Export(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.export")

	var buf bytes.Buffer
	if err := h.Svc.ExportXLSX(ctx, session.FromContext(ctx), &buf); err != nil {
		return fail(l, "export_error", err)
	}

	l.Info("export_success", "bytes", buf.Len())
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="inventory.xlsx"`)
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

func productInput(c echo.Context) service.ProductInput {
	return service.ProductInput{
		Name:        c.FormValue("name"),
		Description: c.FormValue("description"),
		Price:       c.FormValue("price"),
		Quantity:    c.FormValue("quantity"),
		LowStockAt:  c.FormValue("low_stock_at"),
	}
}

// formImage returns a nil image when the request carries no "image" part.
func formImage(c echo.Context) (*storage.Image, func(), error) {
	noop := func() {}

	fh, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, noop, nil
		}
		return nil, noop, err
	}

	f, err := fh.Open()
	if err != nil {
		return nil, noop, err
	}
	return &storage.Image{Filename: fh.Filename, Size: fh.Size, Body: f}, func() { _ = f.Close() }, nil
}
