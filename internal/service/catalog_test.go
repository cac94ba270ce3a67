package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/internal/storage"
	"github.com/Skotchmaster/storefront/internal/testutil"
)

type catalogFixture struct {
	db    *gorm.DB
	repo  *repo.GormRepo
	svc   *CatalogService
	pub   *recordingPublisher
	dir   string
	admin session.Session
}

func newCatalogFixture(t *testing.T) catalogFixture {
	t.Helper()

	db := testutil.NewDB(t)
	r := &repo.GormRepo{DB: db}
	pub := &recordingPublisher{}
	dir := t.TempDir()

	return catalogFixture{
		db:    db,
		repo:  r,
		svc:   &CatalogService{Repo: r, Images: storage.NewLocalImageStore(dir), Events: pub},
		pub:   pub,
		dir:   dir,
		admin: adminSession(uuid.New()),
	}
}

func pngImage(body string) *storage.Image {
	return &storage.Image{Filename: "photo.png", Size: int64(len(body)), Body: strings.NewReader(body)}
}

func validInput() ProductInput {
	return ProductInput{Name: "Desk Lamp", Description: "Warm light", Price: "19.99", Quantity: "7", LowStockAt: "2"}
}

func fileFor(dir, url string) string {
	return filepath.Join(dir, filepath.Base(url))
}

func TestCatalog_CreateProduct_Validation(t *testing.T) {
	t.Parallel()

	f := newCatalogFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		in    ProductInput
		img   *storage.Image
		field string
	}{
		{name: "missing name", in: ProductInput{Price: "1", Quantity: "1"}, img: pngImage("x"), field: "name"},
		{name: "emoji name", in: ProductInput{Name: "Lamp 🔥", Price: "1", Quantity: "1"}, img: pngImage("x"), field: "name"},
		{name: "negative price", in: ProductInput{Name: "Lamp", Price: "-1", Quantity: "1"}, img: pngImage("x"), field: "price"},
		{name: "bad price", in: ProductInput{Name: "Lamp", Price: "abc", Quantity: "1"}, img: pngImage("x"), field: "price"},
		{name: "negative quantity", in: ProductInput{Name: "Lamp", Price: "1", Quantity: "-3"}, img: pngImage("x"), field: "quantity"},
		{name: "fractional quantity", in: ProductInput{Name: "Lamp", Price: "1", Quantity: "1.5"}, img: pngImage("x"), field: "quantity"},
		{name: "negative low stock", in: ProductInput{Name: "Lamp", Price: "1", Quantity: "1", LowStockAt: "-1"}, img: pngImage("x"), field: "low_stock_at"},
		{name: "missing image", in: validInput(), field: "image"},
		{name: "gif image", in: validInput(), img: &storage.Image{Filename: "a.gif", Size: 1, Body: strings.NewReader("x")}, field: "image"},
		{name: "huge image", in: validInput(), img: &storage.Image{Filename: "a.png", Size: storage.MaxImageSize + 1, Body: strings.NewReader("x")}, field: "image"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateProduct(ctx, f.admin, tt.in, tt.img)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, verr.Fields, tt.field)
		})
	}

	var n int64
	require.NoError(t, f.db.Model(&models.Product{}).Count(&n).Error)
	assert.Zero(t, n)

	entries, err := os.ReadDir(f.dir)
	if err == nil {
		assert.Empty(t, entries)
	}
	assert.Empty(t, f.pub.all())
}

func TestCatalog_CreateProduct_RequiresAdmin(t *testing.T) {
	t.Parallel()

	f := newCatalogFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateProduct(ctx, session.Session{}, validInput(), pngImage("x"))
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.svc.CreateProduct(ctx, userSession(uuid.New()), validInput(), pngImage("x"))
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCatalog_CreateUpdateDelete(t *testing.T) {
	t.Parallel()

	f := newCatalogFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateProduct(ctx, f.admin, validInput(), pngImage("first"))
	require.NoError(t, err)
	assert.True(t, created.Price.Equal(decimal.RequireFromString("19.99")))
	assert.Equal(t, 7, created.Quantity)
	require.NotNil(t, created.LowStockAt)
	assert.Equal(t, 2, *created.LowStockAt)
	require.FileExists(t, fileFor(f.dir, created.ImageURL))

	in := validInput()
	in.Name = "Floor Lamp"
	in.Quantity = "1"
	in.LowStockAt = ""
	updated, err := f.svc.UpdateProduct(ctx, f.admin, created.ID, in, pngImage("second"))
	require.NoError(t, err)
	assert.Equal(t, "Floor Lamp", updated.Name)
	assert.Equal(t, 1, updated.Quantity)
	assert.Nil(t, updated.LowStockAt)
	assert.NotEqual(t, created.ImageURL, updated.ImageURL)
	assert.NoFileExists(t, fileFor(f.dir, created.ImageURL))
	require.FileExists(t, fileFor(f.dir, updated.ImageURL))

	in.Name = "Lamp 😀"
	_, err = f.svc.UpdateProduct(ctx, f.admin, created.ID, in, nil)
	assert.ErrorIs(t, err, ErrValidation)

	buyer := testutil.CreateUser(t, f.db, "cart@example.com", models.RoleUser)
	_, err = f.repo.AddToCart(ctx, buyer.ID, created.ID, 1)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteProduct(ctx, f.admin, created.ID))
	assert.NoFileExists(t, fileFor(f.dir, updated.ImageURL))

	_, err = f.svc.GetProduct(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	cart, err := f.repo.CartWithItems(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	assert.ErrorIs(t, f.svc.DeleteProduct(ctx, f.admin, created.ID), ErrNotFound)

	evs := f.pub.all()
	require.Len(t, evs, 3)
	types := make([]string, 0, len(evs))
	for _, ev := range evs {
		assert.Equal(t, events.TopicProducts, ev.topic)
		types = append(types, ev.event.(events.ProductEvent).Type)
	}
	assert.Equal(t, []string{events.ProductCreated, events.ProductUpdated, events.ProductDeleted}, types)
}

func TestCatalog_UpdateUnknownProduct(t *testing.T) {
	t.Parallel()

	f := newCatalogFixture(t)

	_, err := f.svc.UpdateProduct(context.Background(), f.admin, uuid.New(), validInput(), nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalog_ListHidesSoldOutFromShoppers(t *testing.T) {
	t.Parallel()

	f := newCatalogFixture(t)
	ctx := context.Background()

	testutil.CreateProduct(t, f.db, "In stock", "1.00", 3)
	testutil.CreateProduct(t, f.db, "Sold out", "1.00", 0)

	total, items, err := f.svc.ListProducts(ctx, userSession(uuid.New()), 0, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "In stock", items[0].Name)

	total, items, err = f.svc.ListProducts(ctx, session.Session{}, 0, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, items, 1)

	total, items, err = f.svc.ListProducts(ctx, f.admin, 0, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, items, 2)
}

func TestCatalog_LowStock(t *testing.T) {
	t.Parallel()

	f := newCatalogFixture(t)
	ctx := context.Background()

	low := testutil.CreateProduct(t, f.db, "Low", "1.00", 2)
	ok := testutil.CreateProduct(t, f.db, "Plenty", "1.00", 50)
	testutil.CreateProduct(t, f.db, "No threshold", "1.00", 0)
	require.NoError(t, f.db.Model(&models.Product{}).Where("id IN ?", []uuid.UUID{low.ID, ok.ID}).Update("low_stock_at", 5).Error)

	items, err := f.svc.LowStock(ctx, f.admin)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, low.ID, items[0].ID)
	assert.True(t, items[0].LowStock)

	_, err = f.svc.LowStock(ctx, userSession(uuid.New()))
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCatalog_ExportXLSX(t *testing.T) {
	t.Parallel()

	f := newCatalogFixture(t)
	ctx := context.Background()

	testutil.CreateProduct(t, f.db, "Beta", "2.50", 4)
	testutil.CreateProduct(t, f.db, "Alpha", "10.00", 1)

	var buf bytes.Buffer
	require.NoError(t, f.svc.ExportXLSX(ctx, f.admin, &buf))

	file, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)

	rows := file.Sheets[0].Rows
	require.Len(t, rows, 3)
	assert.Equal(t, "ID", rows[0].Cells[0].Value)
	assert.Equal(t, "Name", rows[0].Cells[1].Value)
	assert.Equal(t, "Alpha", rows[1].Cells[1].Value)
	assert.Equal(t, "10.00", rows[1].Cells[2].Value)
	assert.Equal(t, "Beta", rows[2].Cells[1].Value)
	assert.Equal(t, "4", rows[2].Cells[3].Value)

	assert.ErrorIs(t, f.svc.ExportXLSX(ctx, userSession(uuid.New()), &bytes.Buffer{}), ErrForbidden)
}
