package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPaid,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("unknown order status %q", s)
	}
}

// IsCompleted reports whether the order counts as a sale.
func (s OrderStatus) IsCompleted() bool {
	switch s {
	case OrderStatusShipped, OrderStatusDelivered:
		return true
	case OrderStatusPending, OrderStatusPaid, OrderStatusCancelled:
		return false
	default:
		return false
	}
}

func CompletedStatuses() []OrderStatus {
	out := make([]OrderStatus, 0, 2)
	for _, s := range OrderStatuses {
		if s.IsCompleted() {
			out = append(out, s)
		}
	}
	return out
}

type Order struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"           json:"id"`
	UserID    uuid.UUID       `gorm:"type:uuid;index;not null"       json:"user_id"`
	Total     decimal.Decimal `gorm:"type:numeric(12,2);not null"    json:"total"`
	Status    OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt time.Time       `gorm:"index"                          json:"created_at"`
	UpdatedAt time.Time       `                                      json:"updated_at"`
	Items     []OrderItem     `gorm:"foreignKey:OrderID"             json:"items,omitempty"`
}

// OrderItem snapshots name and price at purchase time; ProductID may dangle after a product is deleted.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"        json:"id"`
	OrderID     uuid.UUID       `gorm:"type:uuid;index;not null"    json:"order_id"`
	ProductID   uuid.UUID       `gorm:"type:uuid;index;not null"    json:"product_id"`
	ProductName string          `gorm:"not null"                    json:"product_name"`
	Quantity    int             `gorm:"not null;check:quantity > 0" json:"quantity"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (Order) TableName() string {
	return "orders"
}

func (OrderItem) TableName() string {
	return "order_items"
}
