package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

var ErrUserAlreadyExist = errors.New("user already exist")

// CreateUserIfNotExists returns ErrUserAlreadyExist when the email is taken.
func (r *GormRepo) CreateUserIfNotExists(ctx context.Context, u *models.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	tx := r.DB.WithContext(ctx).Where("email = ?", u.Email).FirstOrCreate(u)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrDuplicatedKey) {
			return ErrUserAlreadyExist
		}
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrUserAlreadyExist
	}
	return nil
}

func (r *GormRepo) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// PromoteToAdmin sets the admin role and password hash for an existing account.
func (r *GormRepo) PromoteToAdmin(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(map[string]any{
		"role":          models.RoleAdmin,
		"password_hash": passwordHash,
	}).Error
}

func (r *GormRepo) ListCustomers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.DB.WithContext(ctx).
		Where("role <> ?", models.RoleAdmin).
		Order("created_at DESC").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// CustomerDetail loads the user with cart lines and orders, newest order first.
func (r *GormRepo) CustomerDetail(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).
		Preload("Cart").
		Preload("Cart.Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Cart.Items.Product").
		Preload("Orders", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		Preload("Orders.Items").
		Where("id = ?", id).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) CountCustomers(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.User{}).Where("role <> ?", models.RoleAdmin).Count(&n).Error
	return n, err
}
