package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog article that merch quote lines reference.
type Product struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SKU       string           `gorm:"column:sku;not null"`
	Name      string           `gorm:"column:name;not null"`
	UnitPrice decimal.Decimal  `gorm:"column:unit_price;type:numeric(12,2);not null;default:0"`
	IsActive  bool             `gorm:"column:is_active;not null;default:true"`
	Variants  []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt   `gorm:"column:deleted_at;index"`
}

// ProductVariant is an optional concrete variation of a product (color,
// finish) a line item can pin down.
type ProductVariant struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Name      string    `gorm:"column:name;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
