package service

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/internal/storage"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type CatalogService struct {
	Repo   *repo.GormRepo
	Images storage.ImageStore
	Events events.Publisher
}

// ProductInput holds raw form values; numbers are parsed during validation.
type ProductInput struct {
	Name        string
	Description string
	Price       string
	Quantity    string
	LowStockAt  string
}

// ListProducts hides sold-out products from everyone but the admin.
func (s *CatalogService) ListProducts(ctx context.Context, sess session.Session, offset, limit int) (int64, []models.Product, error) {
	return s.Repo.ListProducts(ctx, offset, limit, !sess.IsAdmin())
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, sess session.Session, in ProductInput, img *storage.Image) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.create")

	if err := requireAdmin(sess); err != nil {
		return nil, err
	}

	prod, verr := validateProduct(in)
	if img == nil {
		verr.add("image", "image is required")
	} else if err := storage.ValidateImage(*img); err != nil {
		verr.add("image", err.Error())
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	url, err := s.Images.Save(ctx, *img)
	if err != nil {
		l.Error("create_error", "reason", "cannot save image", "error", err)
		return nil, err
	}
	prod.ImageURL = url

	if err := s.Repo.CreateProduct(ctx, prod); err != nil {
		l.Error("create_error", "reason", "db write failed", "error", err)
		s.dropImage(ctx, url)
		return nil, err
	}
	prod.LowStock = prod.IsLowStock()

	l.Info("create_success", "product_id", prod.ID)
	publish(ctx, s.Events, events.TopicProducts, prod.ID.String(), events.NewProductEvent(events.ProductCreated, prod))
	return prod, nil
}

// UpdateProduct replaces every editable field. A new image replaces the old file.
func (s *CatalogService) UpdateProduct(ctx context.Context, sess session.Session, id uuid.UUID, in ProductInput, img *storage.Image) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.update", "product_id", id)

	if err := requireAdmin(sess); err != nil {
		return nil, err
	}

	next, verr := validateProduct(in)
	if img != nil {
		if err := storage.ValidateImage(*img); err != nil {
			verr.add("image", err.Error())
		}
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	current, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}

	next.ID = current.ID
	next.CreatedAt = current.CreatedAt
	next.ImageURL = current.ImageURL

	if img != nil {
		url, err := s.Images.Save(ctx, *img)
		if err != nil {
			l.Error("update_error", "reason", "cannot save image", "error", err)
			return nil, err
		}
		next.ImageURL = url
	}

	if err := s.Repo.SaveProduct(ctx, next); err != nil {
		if next.ImageURL != current.ImageURL {
			s.dropImage(ctx, next.ImageURL)
		}
		l.Error("update_error", "reason", "db write failed", "error", err)
		return nil, notFound(err)
	}
	if next.ImageURL != current.ImageURL {
		s.dropImage(ctx, current.ImageURL)
	}

	updated, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}

	l.Info("update_success")
	publish(ctx, s.Events, events.TopicProducts, id.String(), events.NewProductEvent(events.ProductUpdated, updated))
	return updated, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, sess session.Session, id uuid.UUID) error {
	l := logging.FromContext(ctx).With("svc", "catalog.delete", "product_id", id)

	if err := requireAdmin(sess); err != nil {
		return err
	}

	prod, err := s.Repo.DeleteProduct(ctx, id)
	if err != nil {
		return notFound(err)
	}
	s.dropImage(ctx, prod.ImageURL)

	l.Info("delete_success")
	publish(ctx, s.Events, events.TopicProducts, id.String(), events.NewProductEvent(events.ProductDeleted, prod))
	return nil
}

func (s *CatalogService) LowStock(ctx context.Context, sess session.Session) ([]models.Product, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	return s.Repo.LowStockProducts(ctx)
}

var exportHeaders = []string{"ID", "Name", "Price", "Quantity", "LowStockAt", "LowStock", "Image", "CreatedAt"}

// ExportXLSX writes the whole inventory, ordered by name, as a single-sheet workbook.
func (s *CatalogService) ExportXLSX(ctx context.Context, sess session.Session, w io.Writer) error {
	l := logging.FromContext(ctx).With("svc", "catalog.export")

	if err := requireAdmin(sess); err != nil {
		return err
	}

	products, err := s.Repo.ProductsByName(ctx)
	if err != nil {
		return err
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Inventory")
	if err != nil {
		return err
	}

	header := sheet.AddRow()
	for _, h := range exportHeaders {
		header.AddCell().SetString(h)
	}

	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetString(p.ID.String())
		row.AddCell().SetString(p.Name)
		row.AddCell().SetString(p.Price.StringFixed(2))
		row.AddCell().SetInt(p.Quantity)
		if p.LowStockAt != nil {
			row.AddCell().SetInt(*p.LowStockAt)
		} else {
			row.AddCell().SetString("")
		}
		row.AddCell().SetString(strconv.FormatBool(p.LowStock))
		row.AddCell().SetString(p.ImageURL)
		row.AddCell().SetString(p.CreatedAt.UTC().Format(time.DateTime))
	}

	if err := file.Write(w); err != nil {
		return err
	}
	l.Info("export_success", "rows", len(products))
	return nil
}

func (s *CatalogService) dropImage(ctx context.Context, url string) {
	if url == "" || s.Images == nil {
		return
	}
	if err := s.Images.Delete(ctx, url); err != nil {
		logging.FromContext(ctx).Error("image_delete_error", "url", url, "error", err)
	}
}

func validateProduct(in ProductInput) (*models.Product, *ValidationError) {
	verr := &ValidationError{}
	prod := &models.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
	}

	switch {
	case prod.Name == "":
		verr.add("name", "name is required")
	case hasEmoji(prod.Name):
		verr.add("name", "product name cannot contain emojis")
	}

	price, err := decimal.NewFromString(strings.TrimSpace(in.Price))
	switch {
	case err != nil:
		verr.add("price", "price must be a number")
	case price.IsNegative():
		verr.add("price", "price must be non-negative")
	default:
		prod.Price = price.Round(2)
	}

	qty, err := strconv.Atoi(strings.TrimSpace(in.Quantity))
	switch {
	case err != nil:
		verr.add("quantity", "quantity must be an integer")
	case qty < 0:
		verr.add("quantity", "quantity can not be negative")
	default:
		prod.Quantity = qty
	}

	if raw := strings.TrimSpace(in.LowStockAt); raw != "" {
		n, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			verr.add("low_stock_at", "low stock value must be an integer")
		case n < 0:
			verr.add("low_stock_at", "low stock value can not be negative")
		default:
			prod.LowStockAt = &n
		}
	}

	return prod, verr
}

func hasEmoji(s string) bool {
	for _, r := range s {
		switch {
		case r >= 0x1F000 && r <= 0x1FAFF,
			r >= 0x2600 && r <= 0x27BF,
			r >= 0x2B00 && r <= 0x2BFF,
			r == 0xFE0F, r == 0x200D:
			return true
		case unicode.Is(unicode.So, r) && r > 0x2000:
			return true
		}
	}
	return false
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
