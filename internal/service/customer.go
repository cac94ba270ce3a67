package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/session"
)

type CustomerService struct {
	Repo *repo.GormRepo
}

func (s *CustomerService) ListCustomers(ctx context.Context, sess session.Session) ([]models.User, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	return s.Repo.ListCustomers(ctx)
}

// GetCustomer includes the cart and order history. Admin accounts are not customers.
func (s *CustomerService) GetCustomer(ctx context.Context, sess session.Session, id uuid.UUID) (*models.User, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}

	u, err := s.Repo.CustomerDetail(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if u.Role == models.RoleAdmin {
		return nil, ErrNotFound
	}
	return u, nil
}
