package quotes

import (
	"fmt"
	"time"

	"github.com/merchkit/quotes-backend/pkg/db/models"
	"github.com/merchkit/quotes-backend/pkg/enums"
	pkgerrors "github.com/merchkit/quotes-backend/pkg/errors"
)

var reopenable = map[enums.QuoteStatus]bool{
	enums.QuoteStatusSent:     true,
	enums.QuoteStatusApproved: true,
	enums.QuoteStatusRejected: true,
	enums.QuoteStatusExpired:  true,
}

// ApplyStatusChange transitions the lifecycle to next, applying the side
// effects each edge carries. The quote is left untouched when the change is
// refused.
//
// Rules:
//   - a date-expired quote refuses every transition; the only way forward
//     is duplication
//   - entering SENT for the first time stamps the email flags
//   - leaving REJECTED clears the rejection comments
//   - re-opening (SENT/APPROVED/REJECTED/EXPIRED back to UNSENT or DRAFT)
//     resets the email flags
func ApplyStatusChange(lc *models.QuoteLifecycle, next enums.QuoteStatus, now time.Time) error {
	if !next.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown quote status %q", next))
	}
	if lc.IsDateExpired(now) {
		return pkgerrors.New(pkgerrors.CodeQuoteExpired, "quote validity has passed; duplicate it to re-issue")
	}

	if next == enums.QuoteStatusSent && !lc.EmailSent {
		sentAt := now
		lc.EmailSent = true
		lc.EmailSentAt = &sentAt
	}

	if lc.Status == enums.QuoteStatusRejected && next != enums.QuoteStatusRejected {
		lc.RejectionComments = nil
	}

	if (next == enums.QuoteStatusUnsent || next == enums.QuoteStatusDraft) && reopenable[lc.Status] {
		lc.EmailSent = false
		lc.EmailSentAt = nil
	}

	lc.Status = next
	return nil
}

// EnsureEditable refuses line-content mutation outside DRAFT/UNSENT.
func EnsureEditable(lc models.QuoteLifecycle) error {
	if lc.Status.IsEditable() {
		return nil
	}
	return pkgerrors.New(
		pkgerrors.CodeNotEditable,
		fmt.Sprintf("quote %s is %s and can no longer be edited; duplicate it instead", lc.Number, lc.Status),
	)
}

// InitialStatus derives the status a freshly created quote starts in.
func InitialStatus(saveAsDraft, sendImmediately bool) enums.QuoteStatus {
	switch {
	case sendImmediately:
		return enums.QuoteStatusSent
	case saveAsDraft:
		return enums.QuoteStatusDraft
	default:
		return enums.QuoteStatusUnsent
	}
}

// ExpiringSoon reports whether the quote should carry the UI early-warning
// signal. It has no transition semantics.
func ExpiringSoon(lc models.QuoteLifecycle, today time.Time, warningDays int) bool {
	if lc.IsDateExpired(today) {
		return false
	}
	return lc.DaysUntilExpiry(today) <= warningDays
}
