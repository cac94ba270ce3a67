package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/storefront/internal/models"
)

// CartWithItems returns the user's cart with items and products, creating the cart if needed.
func (r *GormRepo) CartWithItems(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := r.getOrCreateCart(r.DB.WithContext(ctx), userID)
	if err != nil {
		return nil, err
	}
	if err := r.DB.WithContext(ctx).
		Preload("Product").
		Where("cart_id = ?", cart.ID).
		Order("created_at ASC").Order("id ASC").
		Find(&cart.Items).Error; err != nil {
		return nil, err
	}
	return cart, nil
}

// AddToCart increments an existing line or creates a new one.
func (r *GormRepo) AddToCart(ctx context.Context, userID, productID uuid.UUID, qty int) (*models.CartItem, error) {
	var item models.CartItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prod models.Product
		if err := tx.Select("id").Where("id = ?", productID).First(&prod).Error; err != nil {
			return err
		}

		cart, err := r.getOrCreateCart(tx, userID)
		if err != nil {
			return err
		}

		res := tx.Model(&models.CartItem{}).
			Where("cart_id = ? AND product_id = ?", cart.ID, productID).
			Update("quantity", gorm.Expr("quantity + ?", qty))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return tx.Where("cart_id = ? AND product_id = ?", cart.ID, productID).First(&item).Error
		}

		item = models.CartItem{CartID: cart.ID, ProductID: productID, Quantity: qty}
		return tx.Create(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) UpdateCartItemQuantity(ctx context.Context, userID, itemID uuid.UUID, qty int) (*models.CartItem, error) {
	var item models.CartItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND cart_id IN (?)", itemID, cartIDs(tx, userID)).
			First(&item).Error; err != nil {
			return err
		}
		item.Quantity = qty
		return tx.Model(&item).Update("quantity", qty).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) RemoveCartItem(ctx context.Context, userID, itemID uuid.UUID) error {
	res := r.DB.WithContext(ctx).
		Where("id = ? AND cart_id IN (?)", itemID, cartIDs(r.DB.WithContext(ctx), userID)).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) ClearCart(ctx context.Context, userID uuid.UUID) error {
	return r.DB.WithContext(ctx).
		Where("cart_id IN (?)", cartIDs(r.DB.WithContext(ctx), userID)).
		Delete(&models.CartItem{}).Error
}

func (r *GormRepo) getOrCreateCart(db *gorm.DB, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := db.Where("user_id = ?", userID).First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	fresh := models.Cart{UserID: userID}
	if err := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&fresh).Error; err != nil {
		return nil, err
	}
	// a concurrent request may have won the insert
	var stored models.Cart
	if err := db.Where("user_id = ?", userID).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func cartIDs(db *gorm.DB, userID uuid.UUID) *gorm.DB {
	return db.Session(&gorm.Session{NewDB: true}).Model(&models.Cart{}).Select("id").Where("user_id = ?", userID)
}
