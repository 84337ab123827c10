package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentCondition is a configurable surcharge or discount applied to a
// quote's subtotal. Percentage is stored in percentage points and signed:
// -5.00 is a discount, +10.00 a surcharge.
type PaymentCondition struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Description string          `gorm:"column:description;not null"`
	Percentage  decimal.Decimal `gorm:"column:percentage;type:numeric(6,2);not null;default:0"`
	IsActive    bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt   gorm.DeletedAt  `gorm:"column:deleted_at;index"`
}
