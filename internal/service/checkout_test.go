package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/internal/testutil"
)

type checkoutFixture struct {
	db   *gorm.DB
	repo *repo.GormRepo
	svc  *CheckoutService
	pub  *recordingPublisher
	user models.User
}

func newCheckoutFixture(t *testing.T) checkoutFixture {
	t.Helper()

	db := testutil.NewDB(t)
	r := &repo.GormRepo{DB: db}
	pub := &recordingPublisher{}

	return checkoutFixture{
		db:   db,
		repo: r,
		svc:  &CheckoutService{UoW: r, Events: pub},
		pub:  pub,
		user: testutil.CreateUser(t, db, "buyer@example.com", models.RoleUser),
	}
}

func countOrders(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Order{}).Count(&n).Error)
	return n
}

func TestCheckout_TotalsCartAndClearsIt(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()

	a := testutil.CreateProduct(t, f.db, "Mug", "10.00", 5)
	b := testutil.CreateProduct(t, f.db, "Spoon", "5.00", 3)

	_, err := f.repo.AddToCart(ctx, f.user.ID, a.ID, 2)
	require.NoError(t, err)
	_, err = f.repo.AddToCart(ctx, f.user.ID, b.ID, 1)
	require.NoError(t, err)

	order, err := f.svc.Checkout(ctx, userSession(f.user.ID))
	require.NoError(t, err)

	assert.True(t, order.Total.Equal(decimal.RequireFromString("25.00")), "total %s", order.Total)
	assert.Equal(t, models.OrderStatusPaid, order.Status)
	assert.Equal(t, f.user.ID, order.UserID)
	require.Len(t, order.Items, 2)

	assert.Equal(t, 3, testutil.Reload(t, f.db, a.ID).Quantity)
	assert.Equal(t, 2, testutil.Reload(t, f.db, b.ID).Quantity)

	cart, err := f.repo.CartWithItems(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	evs := f.pub.all()
	require.Len(t, evs, 1)
	assert.Equal(t, events.TopicOrders, evs[0].topic)
	assert.Equal(t, order.ID.String(), evs[0].key)
}

func TestCheckout_InsufficientStockRollsBackEverything(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()

	a := testutil.CreateProduct(t, f.db, "Mug", "10.00", 5)
	b := testutil.CreateProduct(t, f.db, "Spoon", "5.00", 1)

	_, err := f.repo.AddToCart(ctx, f.user.ID, a.ID, 2)
	require.NoError(t, err)
	_, err = f.repo.AddToCart(ctx, f.user.ID, b.ID, 4)
	require.NoError(t, err)

	order, err := f.svc.Checkout(ctx, userSession(f.user.ID))
	require.Error(t, err)
	assert.Nil(t, order)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	var se *StockError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, b.ID, se.ProductID)
	assert.Equal(t, "Spoon", se.Name)
	assert.Equal(t, 4, se.Requested)
	assert.Equal(t, 1, se.Available)

	assert.Equal(t, 5, testutil.Reload(t, f.db, a.ID).Quantity)
	assert.Equal(t, 1, testutil.Reload(t, f.db, b.ID).Quantity)
	assert.Zero(t, countOrders(t, f.db))

	cart, err := f.repo.CartWithItems(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
	assert.Empty(t, f.pub.all())
}

func TestCheckout_EmptyCartAndNoSession(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()

	_, err := f.svc.Checkout(ctx, userSession(f.user.ID))
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = f.svc.Checkout(ctx, session.Session{})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestPurchase_ValidationOrder(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()

	_, err := f.svc.Purchase(ctx, session.Session{}, uuid.New(), 0)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.svc.Purchase(ctx, userSession(f.user.ID), uuid.New(), 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = f.svc.Purchase(ctx, userSession(f.user.ID), uuid.New(), 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPurchase_MoreThanStockLeavesStockUntouched(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()

	p := testutil.CreateProduct(t, f.db, "Lamp", "30.00", 2)

	_, err := f.svc.Purchase(ctx, userSession(f.user.ID), p.ID, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	assert.Equal(t, 2, testutil.Reload(t, f.db, p.ID).Quantity)
	assert.Zero(t, countOrders(t, f.db))
}

func TestPurchase_ConcurrentBuyersOfLastUnit(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()

	p := testutil.CreateProduct(t, f.db, "Last one", "12.50", 1)
	other := testutil.CreateUser(t, f.db, "second@example.com", models.RoleUser)

	buyers := []uuid.UUID{f.user.ID, other.ID}
	errs := make([]error, len(buyers))

	var wg sync.WaitGroup
	for i, id := range buyers {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			_, errs[i] = f.svc.Purchase(ctx, userSession(id), p.ID, 1)
		}(i, id)
	}
	wg.Wait()

	var ok, short int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrInsufficientStock):
			short++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, short)
	assert.Equal(t, 0, testutil.Reload(t, f.db, p.ID).Quantity)
	assert.EqualValues(t, 1, countOrders(t, f.db))
}

func TestPurchase_SnapshotsPrice(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()

	p := testutil.CreateProduct(t, f.db, "Chair", "40.00", 4)

	order, err := f.svc.Purchase(ctx, userSession(f.user.ID), p.ID, 2)
	require.NoError(t, err)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("80.00")))

	require.NoError(t, f.db.Model(&models.Product{}).Where("id = ?", p.ID).
		Updates(map[string]any{"price": decimal.RequireFromString("99.99"), "name": "Armchair"}).Error)

	stored, err := f.repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.True(t, stored.Items[0].Price.Equal(decimal.RequireFromString("40.00")))
	assert.Equal(t, "Chair", stored.Items[0].ProductName)
	assert.True(t, stored.Total.Equal(decimal.RequireFromString("80.00")))
	assert.Equal(t, 2, testutil.Reload(t, f.db, p.ID).Quantity)
}

func TestPurchase_PublishFailureKeepsOrder(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	f.pub.err = errors.New("broker down")
	ctx := context.Background()

	p := testutil.CreateProduct(t, f.db, "Desk", "100.00", 1)

	order, err := f.svc.Purchase(ctx, userSession(f.user.ID), p.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.EqualValues(t, 1, countOrders(t, f.db))
}
