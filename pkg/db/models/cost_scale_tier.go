package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/merchkit/quotes-backend/pkg/enums"
)

// CostScaleTier is one bracket of the per-kit rate card. A tier applies to
// kit quantities in [QuantityFrom, QuantityTo]; a nil QuantityTo means the
// bracket is unbounded above. Ranges are operator-maintained and are not
// validated for overlap.
type CostScaleTier struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	QuantityFrom   int       `gorm:"column:quantity_from;not null"`
	QuantityTo     *int      `gorm:"column:quantity_to"`
	ProductionTime string    `gorm:"column:production_time;not null"`

	CostWithAssembly    decimal.Decimal `gorm:"column:cost_with_assembly;type:numeric(12,2);not null;default:0"`
	CostWithoutAssembly decimal.Decimal `gorm:"column:cost_without_assembly;type:numeric(12,2);not null;default:0"`

	PalletizingWithPallet    decimal.Decimal `gorm:"column:palletizing_with_pallet;type:numeric(12,2);not null;default:0"`
	PalletizingWithoutPallet decimal.Decimal `gorm:"column:palletizing_without_pallet;type:numeric(12,2);not null;default:0"`

	LabelingWithPrint    decimal.Decimal `gorm:"column:labeling_with_print;type:numeric(12,2);not null;default:0"`
	LabelingWithoutPrint decimal.Decimal `gorm:"column:labeling_without_print;type:numeric(12,2);not null;default:0"`

	AdditionalAssembly decimal.Decimal `gorm:"column:additional_assembly;type:numeric(12,2);not null;default:0"`
	QualityControl     decimal.Decimal `gorm:"column:quality_control;type:numeric(12,2);not null;default:0"`
	DomeSticking       decimal.Decimal `gorm:"column:dome_sticking;type:numeric(12,2);not null;default:0"`

	ShavingsSmall  decimal.Decimal `gorm:"column:shavings_small;type:numeric(12,2);not null;default:0"`
	ShavingsMedium decimal.Decimal `gorm:"column:shavings_medium;type:numeric(12,2);not null;default:0"`
	ShavingsLarge  decimal.Decimal `gorm:"column:shavings_large;type:numeric(12,2);not null;default:0"`

	BagSmall  decimal.Decimal `gorm:"column:bag_small;type:numeric(12,2);not null;default:0"`
	BagMedium decimal.Decimal `gorm:"column:bag_medium;type:numeric(12,2);not null;default:0"`
	BagLarge  decimal.Decimal `gorm:"column:bag_large;type:numeric(12,2);not null;default:0"`

	BubbleWrapSmall  decimal.Decimal `gorm:"column:bubble_wrap_small;type:numeric(12,2);not null;default:0"`
	BubbleWrapMedium decimal.Decimal `gorm:"column:bubble_wrap_medium;type:numeric(12,2);not null;default:0"`
	BubbleWrapLarge  decimal.Decimal `gorm:"column:bubble_wrap_large;type:numeric(12,2);not null;default:0"`

	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// RangeFrom returns the inclusive lower bound of the bracket.
func (t CostScaleTier) RangeFrom() int { return t.QuantityFrom }

// RangeTo returns the inclusive upper bound, nil meaning unbounded.
func (t CostScaleTier) RangeTo() *int { return t.QuantityTo }

// Active reports whether the bracket is eligible for resolution.
func (t CostScaleTier) Active() bool { return t.IsActive }

// SizeVariant selects between the small/medium/large columns of sized
// services.
type SizeVariant string

const (
	SizeSmall  SizeVariant = "small"
	SizeMedium SizeVariant = "medium"
	SizeLarge  SizeVariant = "large"
)

// RateVariant selects between the paired columns of services the rate card
// prices both ways: assembly with or without the base cost, palletizing
// with or without the pallet, labeling with or without the print. Empty
// means the full "with" rate.
type RateVariant string

const (
	RateWith    RateVariant = "with"
	RateWithout RateVariant = "without"
)

// IsValid reports whether the variant is one the rate card knows.
func (v RateVariant) IsValid() bool {
	return v == "" || v == RateWith || v == RateWithout
}

// UnitCostFor returns the per-unit rate for the given service type. Sized
// services (shavings, bag, bubble wrap) consult the size variant; assembly,
// palletizing and labeling consult the rate variant; the rest ignore both.
// The boolean is false when the tier has no rate for the combination.
func (t CostScaleTier) UnitCostFor(service enums.ServiceType, size SizeVariant, variant RateVariant) (decimal.Decimal, bool) {
	switch service {
	case enums.ServiceTypeAssembly:
		return t.paired(t.CostWithAssembly, t.CostWithoutAssembly, variant), true
	case enums.ServiceTypeAdditionalAssembly:
		return t.AdditionalAssembly, true
	case enums.ServiceTypeQualityControl:
		return t.QualityControl, true
	case enums.ServiceTypeDomeSticking:
		return t.DomeSticking, true
	case enums.ServiceTypePalletizing:
		return t.paired(t.PalletizingWithPallet, t.PalletizingWithoutPallet, variant), true
	case enums.ServiceTypeLabeling:
		return t.paired(t.LabelingWithPrint, t.LabelingWithoutPrint, variant), true
	case enums.ServiceTypeShavings:
		return t.sized(t.ShavingsSmall, t.ShavingsMedium, t.ShavingsLarge, size)
	case enums.ServiceTypeBag:
		return t.sized(t.BagSmall, t.BagMedium, t.BagLarge, size)
	case enums.ServiceTypeBubbleWrap:
		return t.sized(t.BubbleWrapSmall, t.BubbleWrapMedium, t.BubbleWrapLarge, size)
	default:
		return decimal.Zero, false
	}
}

func (t CostScaleTier) paired(with, without decimal.Decimal, variant RateVariant) decimal.Decimal {
	if variant == RateWithout {
		return without
	}
	return with
}

func (t CostScaleTier) sized(small, medium, large decimal.Decimal, size SizeVariant) (decimal.Decimal, bool) {
	switch size {
	case SizeSmall:
		return small, true
	case SizeMedium:
		return medium, true
	case SizeLarge:
		return large, true
	default:
		return decimal.Zero, false
	}
}
