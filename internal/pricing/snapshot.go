package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/merchkit/quotes-backend/pkg/db/models"
)

// SnapshotPayment freezes the payment condition onto a quote at
// calculation time. A nil condition produces the explicit "no condition"
// snapshot: id, description and percentage all cleared. The snapshot is
// never refreshed when the source row later changes; historical quotes
// keep the terms they were offered under.
func SnapshotPayment(cond *models.PaymentCondition) models.PaymentSnapshot {
	if cond == nil {
		return models.PaymentSnapshot{}
	}
	id := cond.ID
	description := cond.Description
	return models.PaymentSnapshot{
		PaymentConditionID:          &id,
		PaymentConditionDescription: &description,
		PaymentConditionPercentage:  cond.Percentage,
	}
}

// DanglingPaymentSnapshot marks a snapshot whose referenced condition the
// catalog no longer resolves: the id is retained for traceability while
// description and percentage fall back to neutral values. Saving still
// succeeds; the staleness is surfaced as a warning, not an error.
func DanglingPaymentSnapshot(id uuid.UUID) models.PaymentSnapshot {
	ref := id
	return models.PaymentSnapshot{PaymentConditionID: &ref}
}

// IncrementSnapshot is the component-increment tier copy frozen onto a
// picking quote, together with the production time of the resolved cost
// scale tier.
type IncrementSnapshot struct {
	Description    string
	Percentage     decimal.Decimal
	ProductionTime string
}

// SnapshotIncrement captures the resolved tiers for persistence on the
// quote row.
func SnapshotIncrement(increment models.ComponentIncrementTier, costScale models.CostScaleTier) IncrementSnapshot {
	return IncrementSnapshot{
		Description:    increment.Description,
		Percentage:     increment.Percentage,
		ProductionTime: costScale.ProductionTime,
	}
}
