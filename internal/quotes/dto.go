package quotes

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/merchkit/quotes-backend/pkg/db/models"
	"github.com/merchkit/quotes-backend/pkg/enums"
	"github.com/merchkit/quotes-backend/pkg/pagination"
)

// MerchLineInput is one requested product line. Decimal amounts are
// validated in the service; struct tags cover the rest.
type MerchLineInput struct {
	ProductID    uuid.UUID       `json:"product_id" validate:"required"`
	VariantID    *uuid.UUID      `json:"variant_id,omitempty"`
	Description  string          `json:"description" validate:"required"`
	Quantity     int             `json:"quantity" validate:"required,gt=0"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	VariantGroup *string         `json:"variant_group,omitempty"`
	IsSelected   bool            `json:"is_selected"`
	SortOrder    int             `json:"sort_order" validate:"gte=0"`
}

// CreateMerchQuoteInput carries everything needed to price and persist a
// merch quote.
type CreateMerchQuoteInput struct {
	UserID             uuid.UUID        `json:"user_id" validate:"required"`
	ClientID           uuid.UUID        `json:"client_id" validate:"required"`
	IssueDate          time.Time        `json:"issue_date"`
	ExpiryDate         time.Time        `json:"expiry_date"`
	PaymentConditionID *uuid.UUID       `json:"payment_condition_id,omitempty"`
	Lines              []MerchLineInput `json:"lines" validate:"required,min=1,dive"`
	SaveAsDraft        bool             `json:"save_as_draft"`
	SendImmediately    bool             `json:"send_immediately"`
}

// UpdateMerchQuoteInput replaces the quote's content wholesale and
// recomputes totals. There is no incremental line diffing.
type UpdateMerchQuoteInput struct {
	IssueDate          *time.Time       `json:"issue_date,omitempty"`
	ExpiryDate         *time.Time       `json:"expiry_date,omitempty"`
	PaymentConditionID *uuid.UUID       `json:"payment_condition_id,omitempty"`
	ClearCondition     bool             `json:"clear_condition"`
	Lines              []MerchLineInput `json:"lines" validate:"required,min=1,dive"`
}

// ServiceLineInput is one requested picking service. UnitCost may be left
// nil to have the engine fill it from the resolved cost-scale tier; sized
// services (shavings, bag, bubble wrap) must then carry a size, and
// assembly, palletizing and labeling may set Variant to "without" to take
// the reduced rate.
type ServiceLineInput struct {
	ServiceType enums.ServiceType  `json:"service_type" validate:"required"`
	Description string             `json:"description" validate:"required"`
	Size        models.SizeVariant `json:"size,omitempty"`
	Variant     models.RateVariant `json:"variant,omitempty"`
	UnitCost    *decimal.Decimal   `json:"unit_cost,omitempty"`
	Quantity    int                `json:"quantity" validate:"required,gt=0"`
	SortOrder   int                `json:"sort_order" validate:"gte=0"`
}

// BoxLineInput is one requested packaging line.
type BoxLineInput struct {
	BoxID      *uuid.UUID      `json:"box_id,omitempty"`
	Dimensions string          `json:"dimensions" validate:"required"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	Quantity   int             `json:"quantity" validate:"required,gt=0"`
}

// CreatePickingQuoteInput carries everything needed to price and persist a
// picking quote.
type CreatePickingQuoteInput struct {
	UserID             uuid.UUID          `json:"user_id" validate:"required"`
	ClientID           uuid.UUID          `json:"client_id" validate:"required"`
	IssueDate          time.Time          `json:"issue_date"`
	ExpiryDate         time.Time          `json:"expiry_date"`
	TotalKits          int                `json:"total_kits" validate:"required,gt=0"`
	ComponentsPerKit   int                `json:"components_per_kit" validate:"required,gt=0"`
	PaymentConditionID *uuid.UUID         `json:"payment_condition_id,omitempty"`
	Services           []ServiceLineInput `json:"services" validate:"required,min=1,dive"`
	Boxes              []BoxLineInput     `json:"boxes" validate:"dive"`
	SaveAsDraft        bool               `json:"save_as_draft"`
	SendImmediately    bool               `json:"send_immediately"`
}

// UpdatePickingQuoteInput replaces the quote's content wholesale.
type UpdatePickingQuoteInput struct {
	IssueDate          *time.Time         `json:"issue_date,omitempty"`
	ExpiryDate         *time.Time         `json:"expiry_date,omitempty"`
	TotalKits          *int               `json:"total_kits,omitempty"`
	ComponentsPerKit   *int               `json:"components_per_kit,omitempty"`
	PaymentConditionID *uuid.UUID         `json:"payment_condition_id,omitempty"`
	ClearCondition     bool               `json:"clear_condition"`
	Services           []ServiceLineInput `json:"services" validate:"required,min=1,dive"`
	Boxes              []BoxLineInput     `json:"boxes" validate:"dive"`
}

// ListFilters narrows quote listings.
type ListFilters struct {
	ClientID *uuid.UUID
	UserID   *uuid.UUID
	Status   *enums.QuoteStatus
	DateFrom *time.Time
	DateTo   *time.Time
}

// MerchQuoteList is one cursor page of merch quotes.
type MerchQuoteList struct {
	Quotes     []models.MerchQuote
	NextCursor *string
}

// PickingQuoteList is one cursor page of picking quotes.
type PickingQuoteList struct {
	Quotes     []models.PickingQuote
	NextCursor *string
}

// ListParams bundles filters with cursor pagination.
type ListParams struct {
	Filters    ListFilters
	Pagination pagination.Params
}
