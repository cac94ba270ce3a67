package service

import "github.com/Skotchmaster/storefront/internal/session"

func requireUser(s session.Session) error {
	if !s.Authenticated() {
		return ErrUnauthorized
	}
	return nil
}

func requireAdmin(s session.Session) error {
	if !s.Authenticated() {
		return ErrUnauthorized
	}
	if !s.IsAdmin() {
		return ErrForbidden
	}
	return nil
}
