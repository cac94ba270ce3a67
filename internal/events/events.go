// Package events publishes domain notifications. Events are informational: the database
// stays the source of truth and a failed publish never rolls back a committed change.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/models"
)

const (
	TopicProducts = "product_events"
	TopicCarts    = "cart_events"
	TopicOrders   = "order_events"
)

const (
	ProductCreated     = "product_created"
	ProductUpdated     = "product_updated"
	ProductDeleted     = "product_deleted"
	CartItemAdded      = "cart_item_added"
	OrderPlaced        = "order_placed"
	OrderStatusChanged = "order_status_changed"
)

type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

type ProductEvent struct {
	Type        string    `json:"type"`
	ProductID   uuid.UUID `json:"product_id"`
	Name        string    `json:"name,omitempty"`
	Description string    `json:"description,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type CartEvent struct {
	Type       string    `json:"type"`
	UserID     uuid.UUID `json:"user_id"`
	ProductID  uuid.UUID `json:"product_id"`
	Quantity   int       `json:"quantity"`
	OccurredAt time.Time `json:"occurred_at"`
}

type OrderEvent struct {
	Type       string             `json:"type"`
	OrderID    uuid.UUID          `json:"order_id"`
	UserID     uuid.UUID          `json:"user_id"`
	Status     models.OrderStatus `json:"status"`
	Total      decimal.Decimal    `json:"total"`
	Items      int                `json:"items"`
	OccurredAt time.Time          `json:"occurred_at"`
}

func NewProductEvent(typ string, p *models.Product) ProductEvent {
	return ProductEvent{
		Type:        typ,
		ProductID:   p.ID,
		Name:        p.Name,
		Description: p.Description,
		OccurredAt:  time.Now().UTC(),
	}
}

func NewOrderEvent(typ string, o *models.Order) OrderEvent {
	return OrderEvent{
		Type:       typ,
		OrderID:    o.ID,
		UserID:     o.UserID,
		Status:     o.Status,
		Total:      o.Total,
		Items:      len(o.Items),
		OccurredAt: time.Now().UTC(),
	}
}

// Discard drops every event.
type Discard struct{}

func (Discard) PublishEvent(context.Context, string, string, any) error { return nil }
