// Package session carries the authenticated caller through a request.
package session

import (
	"context"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
)

type Session struct {
	UserID uuid.UUID
	Role   models.Role
}

func (s Session) Authenticated() bool {
	return s.UserID != uuid.Nil
}

func (s Session) IsAdmin() bool {
	return s.Authenticated() && s.Role == models.RoleAdmin
}

type ctxKey struct{}

func IntoContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the zero Session when the request is anonymous.
func FromContext(ctx context.Context) Session {
	if s, ok := ctx.Value(ctxKey{}).(Session); ok {
		return s
	}
	return Session{}
}
