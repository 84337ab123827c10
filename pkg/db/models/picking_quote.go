package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/merchkit/quotes-backend/pkg/enums"
)

// PickingQuote prices a kitting/fulfillment job. On top of the shared
// lifecycle and payment snapshot it freezes the resolved component
// increment tier and production time, so tier edits never reprice history.
type PickingQuote struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID   uuid.UUID `gorm:"column:user_id;type:uuid;not null"`
	ClientID uuid.UUID `gorm:"column:client_id;type:uuid;not null"`

	Lifecycle QuoteLifecycle  `gorm:"embedded"`
	Payment   PaymentSnapshot `gorm:"embedded"`

	TotalKits        int `gorm:"column:total_kits;not null"`
	ComponentsPerKit int `gorm:"column:components_per_kit;not null"`

	IncrementDescription *string         `gorm:"column:increment_description"`
	IncrementPercentage  decimal.Decimal `gorm:"column:increment_percentage;type:numeric(6,4);not null;default:0"`
	ProductionTime       *string         `gorm:"column:production_time"`

	ServicesSubtotal      decimal.Decimal `gorm:"column:services_subtotal;type:numeric(12,2);not null;default:0"`
	IncrementAmount       decimal.Decimal `gorm:"column:increment_amount;type:numeric(12,2);not null;default:0"`
	SubtotalWithIncrement decimal.Decimal `gorm:"column:subtotal_with_increment;type:numeric(12,2);not null;default:0"`
	BoxTotal              decimal.Decimal `gorm:"column:box_total;type:numeric(12,2);not null;default:0"`
	Subtotal              decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null;default:0"`
	AdjustmentAmount      decimal.Decimal `gorm:"column:adjustment_amount;type:numeric(12,2);not null;default:0"`
	TaxAmount             decimal.Decimal `gorm:"column:tax_amount;type:numeric(12,2);not null;default:0"`
	Total                 decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null;default:0"`
	UnitPricePerKit       decimal.Decimal `gorm:"column:unit_price_per_kit;type:numeric(12,2);not null;default:0"`

	User             *User                 `gorm:"foreignKey:UserID"`
	Client           *Client               `gorm:"foreignKey:ClientID"`
	PaymentCondition *PaymentCondition     `gorm:"foreignKey:PaymentConditionID"`
	Services         []PickingQuoteService `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE"`
	Boxes            []PickingQuoteBox     `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

// PickingQuoteService is one priced service line. All service lines always
// count toward totals; there is no selection concept here.
type PickingQuoteService struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	QuoteID     uuid.UUID         `gorm:"column:quote_id;type:uuid;not null"`
	ServiceType enums.ServiceType `gorm:"column:service_type;not null"`
	Description string            `gorm:"column:description;not null"`
	UnitCost    decimal.Decimal   `gorm:"column:unit_cost;type:numeric(12,2);not null"`
	Quantity    int               `gorm:"column:quantity;not null"`
	Subtotal    decimal.Decimal   `gorm:"column:subtotal;type:numeric(12,2);not null"`
	SortOrder   int               `gorm:"column:sort_order;not null;default:0"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// PickingQuoteBox is one packaging line, optionally referencing a catalog
// box.
type PickingQuoteBox struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	QuoteID    uuid.UUID       `gorm:"column:quote_id;type:uuid;not null"`
	BoxID      *uuid.UUID      `gorm:"column:box_id;type:uuid"`
	Dimensions string          `gorm:"column:dimensions;not null"`
	UnitCost   decimal.Decimal `gorm:"column:unit_cost;type:numeric(12,2);not null"`
	Quantity   int             `gorm:"column:quantity;not null"`
	Subtotal   decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`

	Box *Box `gorm:"foreignKey:BoxID"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
