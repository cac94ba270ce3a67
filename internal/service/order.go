package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type OrderService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

func (s *OrderService) ListMine(ctx context.Context, sess session.Session) ([]models.Order, error) {
	if err := requireUser(sess); err != nil {
		return nil, err
	}
	return s.Repo.ListOrdersByUser(ctx, sess.UserID)
}

// GetOrder answers ErrNotFound for other users' orders so ids cannot be probed.
func (s *OrderService) GetOrder(ctx context.Context, sess session.Session, id uuid.UUID) (*models.Order, error) {
	if err := requireUser(sess); err != nil {
		return nil, err
	}

	order, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if order.UserID != sess.UserID && !sess.IsAdmin() {
		return nil, ErrNotFound
	}
	return order, nil
}

// ListOrders is the admin view. An empty status lists every order.
func (s *OrderService) ListOrders(ctx context.Context, sess session.Session, status string, offset, limit int) (int64, []models.Order, error) {
	if err := requireAdmin(sess); err != nil {
		return 0, nil, err
	}

	var filter *models.OrderStatus
	if status != "" {
		st, err := models.ParseOrderStatus(status)
		if err != nil {
			return 0, nil, &ValidationError{Fields: map[string]string{"status": err.Error()}}
		}
		filter = &st
	}
	return s.Repo.ListOrders(ctx, filter, offset, limit)
}

func (s *OrderService) ChangeStatus(ctx context.Context, sess session.Session, id uuid.UUID, status string) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.change_status", "order_id", id)

	if err := requireAdmin(sess); err != nil {
		return nil, err
	}

	st, err := models.ParseOrderStatus(status)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"status": err.Error()}}
	}

	order, err := s.Repo.UpdateOrderStatus(ctx, id, st)
	if err != nil {
		l.Warn("change_status_error", "error", err)
		return nil, notFound(err)
	}

	l.Info("change_status_success", "status", st)
	publish(ctx, s.Events, events.TopicOrders, order.ID.String(), events.NewOrderEvent(events.OrderStatusChanged, order))
	return order, nil
}
