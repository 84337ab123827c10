package quotes

import (
	"fmt"

	"github.com/merchkit/quotes-backend/pkg/db/models"
	"github.com/merchkit/quotes-backend/pkg/enums"
)

// Warning annotates a quote whose snapshot references catalog rows that no
// longer exist in the active catalog. Warnings never block rendering.
type Warning struct {
	Type    enums.WarningType `json:"type"`
	Message string            `json:"message"`
}

// CheckMerchReferences inspects a merch quote whose relations were loaded
// including soft-deleted rows and reports staleness in a fixed order:
// client, salesperson, payment condition, then a single aggregate product
// warning.
func CheckMerchReferences(q *models.MerchQuote) []Warning {
	warnings := checkCommonReferences(q.Client, q.User, q.Payment, q.PaymentCondition)

	stale := 0
	for _, item := range q.Items {
		if item.Product == nil || item.Product.DeletedAt.Valid {
			stale++
		}
	}
	if stale > 0 {
		warnings = append(warnings, Warning{
			Type:    enums.WarningTypeProductMissing,
			Message: fmt.Sprintf("%d referenced product(s) are no longer in the catalog", stale),
		})
	}
	return warnings
}

// CheckPickingReferences inspects a picking quote the same way; picking
// lines reference services and boxes only, so no product warning applies.
func CheckPickingReferences(q *models.PickingQuote) []Warning {
	return checkCommonReferences(q.Client, q.User, q.Payment, q.PaymentCondition)
}

func checkCommonReferences(client *models.Client, user *models.User, snapshot models.PaymentSnapshot, cond *models.PaymentCondition) []Warning {
	var warnings []Warning

	if client == nil || client.DeletedAt.Valid {
		warnings = append(warnings, Warning{
			Type:    enums.WarningTypeClientMissing,
			Message: "the client this quote was issued to has been removed",
		})
	}
	if user == nil || user.DeletedAt.Valid {
		warnings = append(warnings, Warning{
			Type:    enums.WarningTypeSalespersonMissing,
			Message: "the salesperson who owns this quote has been removed",
		})
	}
	if snapshot.HasCondition() && (cond == nil || cond.DeletedAt.Valid) {
		warnings = append(warnings, Warning{
			Type:    enums.WarningTypePaymentConditionMissing,
			Message: "the payment condition applied to this quote has been removed; the snapshotted terms still stand",
		})
	}
	return warnings
}
