package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"             json:"id"`
	Name        string          `gorm:"not null;index"                   json:"name"`
	Description string          `gorm:"not null;default:''"              json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null"      json:"price"`
	Quantity    int             `gorm:"not null;check:quantity >= 0"     json:"quantity"`
	LowStockAt  *int            `                                        json:"low_stock_at"`
	ImageURL    string          `gorm:"not null;default:''"              json:"image_url"`
	CreatedAt   time.Time       `gorm:"index"                            json:"created_at"`
	UpdatedAt   time.Time       `                                        json:"updated_at"`

	LowStock bool `gorm:"-" json:"low_stock"`
}

// IsLowStock is advisory; nothing blocks sales below the threshold.
func (p *Product) IsLowStock() bool {
	return p.LowStockAt != nil && p.Quantity <= *p.LowStockAt
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (p *Product) AfterFind(tx *gorm.DB) error {
	p.LowStock = p.IsLowStock()
	return nil
}

func (Product) TableName() string {
	return "products"
}
