// Package testutil builds throwaway databases and fixtures for package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Skotchmaster/storefront/internal/models"
)

// NewDB opens an in-memory sqlite database with the full schema. The pool is pinned to a
// single connection so every query sees the same memory database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
		Logger:  logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.All()...))

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func CreateUser(t *testing.T, db *gorm.DB, email string, role models.Role) models.User {
	t.Helper()

	u := models.User{
		Email:        email,
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: "x",
		Role:         role,
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func CreateProduct(t *testing.T, db *gorm.DB, name, price string, qty int) models.Product {
	t.Helper()

	p := models.Product{
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Quantity: qty,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func Reload(t *testing.T, db *gorm.DB, id uuid.UUID) models.Product {
	t.Helper()

	var p models.Product
	require.NoError(t, db.First(&p, "id = ?", id).Error)
	return p
}
