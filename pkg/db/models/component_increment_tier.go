package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ComponentIncrementTier maps the number of distinct components per kit to
// a surcharge applied over the services subtotal. Percentage is stored as a
// decimal fraction: 0.20 means +20%.
type ComponentIncrementTier struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ComponentsFrom int             `gorm:"column:components_from;not null"`
	ComponentsTo   *int            `gorm:"column:components_to"`
	Description    string          `gorm:"column:description;not null"`
	Percentage     decimal.Decimal `gorm:"column:percentage;type:numeric(6,4);not null;default:0"`
	IsActive       bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// RangeFrom returns the inclusive lower bound of the bracket.
func (t ComponentIncrementTier) RangeFrom() int { return t.ComponentsFrom }

// RangeTo returns the inclusive upper bound, nil meaning unbounded.
func (t ComponentIncrementTier) RangeTo() *int { return t.ComponentsTo }

// Active reports whether the bracket is eligible for resolution.
func (t ComponentIncrementTier) Active() bool { return t.IsActive }
