package transport

import (
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
)

type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	FirstName       string `json:"first_name"`
	MiddleName      string `json:"middle_name"`
	LastName        string `json:"last_name"`
	PhoneNumber     string `json:"phone_number"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	UserID    uuid.UUID   `json:"user_id"`
	Role      models.Role `json:"role"`
	IsAdmin   bool        `json:"is_admin"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// AddToCartRequest leaves Quantity nil when the client omits it; the handler defaults it to 1.
type AddToCartRequest struct {
	ProductID string `json:"product_id"`
	Quantity  *int   `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

type BuyRequest struct {
	Quantity *int `json:"quantity"`
}

type ChangeStatusRequest struct {
	Status string `json:"status"`
}

type DeleteResponse struct {
	ID      uuid.UUID `json:"id"`
	Deleted bool      `json:"deleted"`
}

type ErrorResponse struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}
