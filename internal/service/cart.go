package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type CartService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

type CartLine struct {
	ItemID    uuid.UUID       `json:"item_id"`
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"image_url"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	InStock   int             `json:"in_stock"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type CartView struct {
	ID    uuid.UUID       `json:"id"`
	Items []CartLine      `json:"items"`
	Total decimal.Decimal `json:"total"`
}

// GetCart prices lines at current product prices; nothing is reserved until checkout.
func (s *CartService) GetCart(ctx context.Context, sess session.Session) (*CartView, error) {
	if err := requireUser(sess); err != nil {
		return nil, err
	}

	cart, err := s.Repo.CartWithItems(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}

	view := &CartView{ID: cart.ID, Items: make([]CartLine, 0, len(cart.Items)), Total: decimal.Zero}
	for _, it := range cart.Items {
		if it.Product == nil {
			continue
		}
		line := CartLine{
			ItemID:    it.ID,
			ProductID: it.ProductID,
			Name:      it.Product.Name,
			ImageURL:  it.Product.ImageURL,
			Price:     it.Product.Price,
			Quantity:  it.Quantity,
			InStock:   it.Product.Quantity,
			LineTotal: it.Product.Price.Mul(decimal.NewFromInt(int64(it.Quantity))),
		}
		view.Total = view.Total.Add(line.LineTotal)
		view.Items = append(view.Items, line)
	}
	return view, nil
}

func (s *CartService) AddToCart(ctx context.Context, sess session.Session, productID uuid.UUID, quantity int) (*models.CartItem, error) {
	l := logging.FromContext(ctx).With("svc", "cart.add")

	if err := requireUser(sess); err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	item, err := s.Repo.AddToCart(ctx, sess.UserID, productID, quantity)
	if err != nil {
		l.Warn("add_error", "user_id", sess.UserID, "product_id", productID, "error", err)
		return nil, notFound(err)
	}

	l.Info("add_success", "user_id", sess.UserID, "product_id", productID, "quantity", item.Quantity)
	publish(ctx, s.Events, events.TopicCarts, sess.UserID.String(), events.CartEvent{
		Type:       events.CartItemAdded,
		UserID:     sess.UserID,
		ProductID:  productID,
		Quantity:   quantity,
		OccurredAt: item.UpdatedAt,
	})
	return item, nil
}

func (s *CartService) UpdateQuantity(ctx context.Context, sess session.Session, itemID uuid.UUID, quantity int) (*models.CartItem, error) {
	if err := requireUser(sess); err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	item, err := s.Repo.UpdateCartItemQuantity(ctx, sess.UserID, itemID, quantity)
	if err != nil {
		return nil, notFound(err)
	}
	return item, nil
}

func (s *CartService) RemoveItem(ctx context.Context, sess session.Session, itemID uuid.UUID) error {
	if err := requireUser(sess); err != nil {
		return err
	}
	return notFound(s.Repo.RemoveCartItem(ctx, sess.UserID, itemID))
}

func (s *CartService) Clear(ctx context.Context, sess session.Session) error {
	if err := requireUser(sess); err != nil {
		return err
	}
	return s.Repo.ClearCart(ctx, sess.UserID)
}
