package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MerchQuote is a priced merchandise offer. Totals are always recomputed
// from the current line data plus the payment snapshot, never hand-edited.
type MerchQuote struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID   uuid.UUID `gorm:"column:user_id;type:uuid;not null"`
	ClientID uuid.UUID `gorm:"column:client_id;type:uuid;not null"`

	Lifecycle QuoteLifecycle  `gorm:"embedded"`
	Payment   PaymentSnapshot `gorm:"embedded"`

	Subtotal         decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null;default:0"`
	AdjustmentAmount decimal.Decimal `gorm:"column:adjustment_amount;type:numeric(12,2);not null;default:0"`
	TaxAmount        decimal.Decimal `gorm:"column:tax_amount;type:numeric(12,2);not null;default:0"`
	Total            decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null;default:0"`

	User             *User             `gorm:"foreignKey:UserID"`
	Client           *Client           `gorm:"foreignKey:ClientID"`
	PaymentCondition *PaymentCondition `gorm:"foreignKey:PaymentConditionID"`
	Items            []MerchQuoteItem  `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

// MerchQuoteItem is one product line on a merch quote. Lines sharing a
// variant group are mutually exclusive alternatives; exactly one of them is
// selected and only the selected one contributes to totals.
type MerchQuoteItem struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	QuoteID      uuid.UUID       `gorm:"column:quote_id;type:uuid;not null"`
	ProductID    uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	VariantID    *uuid.UUID      `gorm:"column:variant_id;type:uuid"`
	Description  string          `gorm:"column:description;not null"`
	Quantity     int             `gorm:"column:quantity;not null"`
	UnitPrice    decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	LineTotal    decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`
	VariantGroup *string         `gorm:"column:variant_group"`
	IsSelected   bool            `gorm:"column:is_selected;not null;default:true"`
	SortOrder    int             `gorm:"column:sort_order;not null;default:0"`

	Product *Product `gorm:"foreignKey:ProductID"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
