package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
)

func TestInline_DeliversToTopicSubscribers(t *testing.T) {
	t.Parallel()

	in := NewInline()

	var got []ProductEvent
	in.Subscribe(TopicProducts, func(ctx context.Context, key, value []byte) error {
		var ev ProductEvent
		require.NoError(t, json.Unmarshal(value, &ev))
		got = append(got, ev)
		return nil
	})
	in.Subscribe(TopicOrders, func(ctx context.Context, key, value []byte) error {
		t.Fatal("order handler must not see product events")
		return nil
	})

	p := &models.Product{ID: uuid.New(), Name: "Lamp", Description: "Warm light"}
	require.NoError(t, in.PublishEvent(context.Background(), TopicProducts, p.ID.String(), NewProductEvent(ProductCreated, p)))

	require.Len(t, got, 1)
	assert.Equal(t, ProductCreated, got[0].Type)
	assert.Equal(t, p.ID, got[0].ProductID)
	assert.Equal(t, "Lamp", got[0].Name)
}

func TestInline_JoinsHandlerErrors(t *testing.T) {
	t.Parallel()

	in := NewInline()
	boom := errors.New("boom")
	in.Subscribe(TopicCarts, func(context.Context, []byte, []byte) error { return boom })
	in.Subscribe(TopicCarts, func(context.Context, []byte, []byte) error { return nil })

	err := in.PublishEvent(context.Background(), TopicCarts, "k", CartEvent{Type: CartItemAdded})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	require.NoError(t, in.PublishEvent(context.Background(), "unknown_topic", "k", CartEvent{}))
}

func TestNewOrderEvent(t *testing.T) {
	t.Parallel()

	o := &models.Order{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Status: models.OrderStatusPaid,
		Total:  decimal.RequireFromString("25.00"),
		Items:  []models.OrderItem{{}, {}},
	}
	ev := NewOrderEvent(OrderPlaced, o)

	assert.Equal(t, OrderPlaced, ev.Type)
	assert.Equal(t, o.ID, ev.OrderID)
	assert.Equal(t, 2, ev.Items)
	assert.True(t, ev.Total.Equal(decimal.NewFromInt(25)))
}

func TestDiscard(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Discard{}.PublishEvent(context.Background(), TopicOrders, "k", nil))
}
