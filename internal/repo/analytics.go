package repo

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/models"
)

type ProductOrderCount struct {
	Name   string `json:"name"`
	Orders int64  `json:"orders"`
}

func (r *GormRepo) CountProducts(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Product{}).Count(&n).Error
	return n, err
}

func (r *GormRepo) CountOrders(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Order{}).Count(&n).Error
	return n, err
}

func (r *GormRepo) CountOrdersByStatus(ctx context.Context, statuses []models.OrderStatus) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Order{}).Where("status IN ?", statuses).Count(&n).Error
	return n, err
}

// TotalRevenue sums price*quantity over every order line.
func (r *GormRepo) TotalRevenue(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	row := r.DB.WithContext(ctx).Model(&models.OrderItem{}).Select("COALESCE(SUM(price * quantity), 0)").Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func (r *GormRepo) OrderTimesSince(ctx context.Context, since time.Time) ([]time.Time, error) {
	var out []time.Time
	err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("created_at >= ?", since).
		Order("created_at ASC").
		Pluck("created_at", &out).Error
	return out, err
}

func (r *GormRepo) ProductCreationTimesSince(ctx context.Context, since time.Time) ([]time.Time, error) {
	var out []time.Time
	err := r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("created_at >= ?", since).
		Order("created_at ASC").
		Pluck("created_at", &out).Error
	return out, err
}

// ProductOrderCounts counts order lines per snapshot product name, busiest first.
func (r *GormRepo) ProductOrderCounts(ctx context.Context) ([]ProductOrderCount, error) {
	var out []ProductOrderCount
	err := r.DB.WithContext(ctx).Model(&models.OrderItem{}).
		Select("product_name AS name, COUNT(*) AS orders").
		Group("product_name").
		Order("orders DESC").Order("name ASC").
		Scan(&out).Error
	return out, err
}
