package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleUser, RoleAdmin:
		return r, true
	default:
		return "", false
	}
}

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"         json:"id"`
	Email        string    `gorm:"uniqueIndex;not null"         json:"email"`
	FirstName    string    `gorm:"not null"                     json:"first_name"`
	MiddleName   string    `gorm:"not null;default:''"          json:"middle_name"`
	LastName     string    `gorm:"not null"                     json:"last_name"`
	PhoneNumber  string    `gorm:"not null;default:''"          json:"phone_number"`
	PasswordHash string    `gorm:"not null"                     json:"-"`
	Role         Role      `gorm:"type:varchar(10);not null;default:'user'" json:"role"`
	CreatedAt    time.Time `                                    json:"created_at"`
	UpdatedAt    time.Time `                                    json:"updated_at"`

	Cart   *Cart   `gorm:"foreignKey:UserID" json:"cart,omitempty"`
	Orders []Order `gorm:"foreignKey:UserID" json:"orders,omitempty"`
}

type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"     json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	JTI       string    `gorm:"uniqueIndex;not null"     json:"jti"`
	TokenHash string    `gorm:"uniqueIndex;not null"     json:"-"`
	ExpiresAt time.Time `gorm:"not null"                 json:"expires_at"`
	Revoked   bool      `gorm:"not null;default:false"   json:"revoked"`
	CreatedAt time.Time `                                json:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (t *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (User) TableName() string {
	return "users"
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

// All lists every model for AutoMigrate in tests.
func All() []any {
	return []any{&User{}, &RefreshToken{}, &Product{}, &Cart{}, &CartItem{}, &Order{}, &OrderItem{}}
}
