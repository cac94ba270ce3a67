package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/internal/store"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type CheckoutService struct {
	UoW    store.UnitOfWork
	Events events.Publisher
}

// Checkout turns the caller's whole cart into a paid order. Stock, order and cart change
// together or not at all.
func (s *CheckoutService) Checkout(ctx context.Context, sess session.Session) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "checkout.checkout")

	if err := requireUser(sess); err != nil {
		return nil, err
	}

	var order *models.Order
	err := s.UoW.Do(ctx, func(tx store.Tx) error {
		cartID, items, err := tx.CartForUpdate(ctx, sess.UserID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}

		lines := make([]orderLine, 0, len(items))
		for _, it := range items {
			if it.Product == nil {
				return &StockError{ProductID: it.ProductID, Name: it.ProductID.String(), Requested: it.Quantity}
			}
			lines = append(lines, orderLine{product: it.Product, qty: it.Quantity})
		}

		order, err = placeOrder(ctx, tx, sess.UserID, lines)
		if err != nil {
			return err
		}
		return tx.ClearCart(ctx, cartID)
	})
	if err != nil {
		l.Warn("checkout_error", "user_id", sess.UserID, "error", err)
		return nil, err
	}

	l.Info("checkout_success", "user_id", sess.UserID, "order_id", order.ID, "total", order.Total.StringFixed(2))
	publish(ctx, s.Events, events.TopicOrders, order.ID.String(), events.NewOrderEvent(events.OrderPlaced, order))
	return order, nil
}

// Purchase buys quantity units of one product directly, bypassing the cart.
func (s *CheckoutService) Purchase(ctx context.Context, sess session.Session, productID uuid.UUID, quantity int) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "checkout.purchase")

	if err := requireUser(sess); err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	var order *models.Order
	err := s.UoW.Do(ctx, func(tx store.Tx) error {
		prod, err := tx.ProductForUpdate(ctx, productID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}

		order, err = placeOrder(ctx, tx, sess.UserID, []orderLine{{product: prod, qty: quantity}})
		return err
	})
	if err != nil {
		l.Warn("purchase_error", "user_id", sess.UserID, "product_id", productID, "error", err)
		return nil, err
	}

	l.Info("purchase_success", "user_id", sess.UserID, "order_id", order.ID)
	publish(ctx, s.Events, events.TopicOrders, order.ID.String(), events.NewOrderEvent(events.OrderPlaced, order))
	return order, nil
}

type orderLine struct {
	product *models.Product
	qty     int
}

// placeOrder checks every line before writing anything, so a short line leaves no partial work
// even inside the unit.
func placeOrder(ctx context.Context, tx store.Tx, userID uuid.UUID, lines []orderLine) (*models.Order, error) {
	for _, ln := range lines {
		if ln.product.Quantity < ln.qty {
			return nil, &StockError{
				ProductID: ln.product.ID,
				Name:      ln.product.Name,
				Requested: ln.qty,
				Available: ln.product.Quantity,
			}
		}
	}

	order := &models.Order{
		UserID: userID,
		Status: models.OrderStatusPaid,
		Total:  decimal.Zero,
		Items:  make([]models.OrderItem, 0, len(lines)),
	}
	for _, ln := range lines {
		order.Items = append(order.Items, models.OrderItem{
			ProductID:   ln.product.ID,
			ProductName: ln.product.Name,
			Quantity:    ln.qty,
			Price:       ln.product.Price,
		})
		order.Total = order.Total.Add(ln.product.Price.Mul(decimal.NewFromInt(int64(ln.qty))))
	}
	order.Total = order.Total.Round(2)

	if err := tx.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	for _, ln := range lines {
		ok, err := tx.DecrementStock(ctx, ln.product.ID, ln.qty)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &StockError{
				ProductID: ln.product.ID,
				Name:      ln.product.Name,
				Requested: ln.qty,
				Available: ln.product.Quantity,
			}
		}
	}

	return order, nil
}
