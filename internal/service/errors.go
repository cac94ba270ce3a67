package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrUnauthorized        = errors.New("unauthorized")         // 401
	ErrForbidden           = errors.New("forbidden")            // 403
	ErrValidation          = errors.New("validation")           // 400
	ErrNotFound            = errors.New("not found")            // 404
	ErrConflict            = errors.New("conflict")             // 409
	ErrInvalidQuantity     = errors.New("invalid quantity")     // 400
	ErrEmptyCart           = errors.New("cart is empty")        // 409
	ErrInsufficientStock   = errors.New("insufficient stock")   // 409
	ErrSearchUnavailable   = errors.New("search unavailable")   // 503
	ErrInvalidCredentials  = errors.New("invalid credentials")  // 401
	ErrInvalidRefreshToken = errors.New("invalid refresh token") // 401
)

// ValidationError carries per-field messages and matches ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// StockError names the product that could not be covered and matches ErrInsufficientStock.
type StockError struct {
	ProductID uuid.UUID
	Name      string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("not enough stock for %s: requested %d, available %d", e.Name, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }
