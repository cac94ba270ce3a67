package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/store"
)

// Do implements store.UnitOfWork on top of a gorm transaction.
func (r *GormRepo) Do(ctx context.Context, fn func(tx store.Tx) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	})
}

type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) CartForUpdate(ctx context.Context, userID uuid.UUID) (uuid.UUID, []models.CartItem, error) {
	var cart models.Cart
	if err := t.db.WithContext(ctx).Where("user_id = ?", userID).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, nil, nil
		}
		return uuid.Nil, nil, err
	}

	var items []models.CartItem
	if err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("cart_id = ?", cart.ID).
		Order("created_at ASC").Order("id ASC").
		Find(&items).Error; err != nil {
		return uuid.Nil, nil, err
	}
	if len(items) == 0 {
		return cart.ID, items, nil
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}

	// lock in id order so concurrent checkouts over overlapping carts cannot deadlock
	var products []models.Product
	if err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&products).Error; err != nil {
		return uuid.Nil, nil, err
	}

	byID := make(map[uuid.UUID]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	for i := range items {
		items[i].Product = byID[items[i].ProductID]
	}

	return cart.ID, items, nil
}

func (t *gormTx) ProductForUpdate(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var prod models.Product
	if err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&prod).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &prod, nil
}

func (t *gormTx) DecrementStock(ctx context.Context, productID uuid.UUID, qty int) (bool, error) {
	res := t.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND quantity >= ?", productID, qty).
		Update("quantity", gorm.Expr("quantity - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (t *gormTx) CreateOrder(ctx context.Context, order *models.Order) error {
	return t.db.WithContext(ctx).Create(order).Error
}

func (t *gormTx) ClearCart(ctx context.Context, cartID uuid.UUID) error {
	return t.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}
