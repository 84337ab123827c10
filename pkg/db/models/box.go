package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Box is a packaging option from the catalog.
type Box struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Dimensions string          `gorm:"column:dimensions;not null"`
	UnitCost   decimal.Decimal `gorm:"column:unit_cost;type:numeric(12,2);not null;default:0"`
	IsActive   bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt  gorm.DeletedAt  `gorm:"column:deleted_at;index"`
}
