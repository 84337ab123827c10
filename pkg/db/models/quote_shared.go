package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/merchkit/quotes-backend/pkg/enums"
)

// QuoteLifecycle holds the lifecycle fields shared by both quote kinds.
// Both MerchQuote and PickingQuote embed it, so the state machine is
// written once against this struct.
type QuoteLifecycle struct {
	Number            string            `gorm:"column:number;not null;uniqueIndex"`
	PublicToken       uuid.UUID         `gorm:"column:public_token;type:uuid;not null;uniqueIndex"`
	Status            enums.QuoteStatus `gorm:"column:status;not null;default:'unsent'"`
	IssueDate         time.Time         `gorm:"column:issue_date;not null"`
	ExpiryDate        time.Time         `gorm:"column:expiry_date;not null"`
	EmailSent         bool              `gorm:"column:email_sent;not null;default:false"`
	EmailSentAt       *time.Time        `gorm:"column:email_sent_at"`
	RejectionComments *string           `gorm:"column:rejection_comments"`
}

// IsDateExpired reports whether the validity window has passed. Expiry is
// derived from the date, never stored as a flag.
func (l QuoteLifecycle) IsDateExpired(today time.Time) bool {
	return dateOnly(today).After(dateOnly(l.ExpiryDate))
}

// DaysUntilExpiry returns whole days until the validity window closes,
// negative once past it.
func (l QuoteLifecycle) DaysUntilExpiry(today time.Time) int {
	return int(dateOnly(l.ExpiryDate).Sub(dateOnly(today)).Hours() / 24)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// PaymentSnapshot is the payment-condition copy frozen onto a quote when
// totals are computed. It is only rewritten by an explicit recalculation;
// later edits to the referenced PaymentCondition never touch it.
type PaymentSnapshot struct {
	PaymentConditionID          *uuid.UUID      `gorm:"column:payment_condition_id;type:uuid"`
	PaymentConditionDescription *string         `gorm:"column:payment_condition_description"`
	PaymentConditionPercentage  decimal.Decimal `gorm:"column:payment_condition_percentage;type:numeric(6,2);not null;default:0"`
}

// HasCondition reports whether a payment condition was snapshotted.
func (p PaymentSnapshot) HasCondition() bool {
	return p.PaymentConditionID != nil
}
