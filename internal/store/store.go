// Package store defines the transactional contract the checkout flow runs against.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
)

var ErrNotFound = errors.New("store: not found")

// Tx is a handle valid only inside UnitOfWork.Do.
type Tx interface {
	// CartForUpdate returns the user's cart id and its items with products attached,
	// holding row locks on the products until the unit finishes. cartID is uuid.Nil when
	// the user has no cart yet.
	CartForUpdate(ctx context.Context, userID uuid.UUID) (cartID uuid.UUID, items []models.CartItem, err error)

	// ProductForUpdate returns ErrNotFound for unknown ids.
	ProductForUpdate(ctx context.Context, id uuid.UUID) (*models.Product, error)

	// DecrementStock reports false when fewer than qty units remain; nothing is changed then.
	DecrementStock(ctx context.Context, productID uuid.UUID, qty int) (bool, error)

	CreateOrder(ctx context.Context, order *models.Order) error

	ClearCart(ctx context.Context, cartID uuid.UUID) error
}

// UnitOfWork runs fn atomically: every write made through tx commits together or not at all.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(tx Tx) error) error
}
