package enums

import "fmt"

// QuoteStatus is the lifecycle state shared by merchandise and picking quotes.
type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "draft"
	QuoteStatusUnsent   QuoteStatus = "unsent"
	QuoteStatusSent     QuoteStatus = "sent"
	QuoteStatusApproved QuoteStatus = "approved"
	QuoteStatusRejected QuoteStatus = "rejected"
	QuoteStatusExpired  QuoteStatus = "expired"
)

var validQuoteStatuses = []QuoteStatus{
	QuoteStatusDraft,
	QuoteStatusUnsent,
	QuoteStatusSent,
	QuoteStatusApproved,
	QuoteStatusRejected,
	QuoteStatusExpired,
}

// String implements fmt.Stringer.
func (s QuoteStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known QuoteStatus.
func (s QuoteStatus) IsValid() bool {
	for _, candidate := range validQuoteStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsEditable reports whether line content may still be mutated in this state.
// Anything past unsent is frozen; the only way to a new priced version is
// duplication.
func (s QuoteStatus) IsEditable() bool {
	return s == QuoteStatusDraft || s == QuoteStatusUnsent
}

// Label returns the human-facing display label for the status.
func (s QuoteStatus) Label() string {
	switch s {
	case QuoteStatusDraft:
		return "Draft"
	case QuoteStatusUnsent:
		return "Not sent"
	case QuoteStatusSent:
		return "Sent"
	case QuoteStatusApproved:
		return "Approved"
	case QuoteStatusRejected:
		return "Rejected"
	case QuoteStatusExpired:
		return "Expired"
	default:
		return string(s)
	}
}

// ParseQuoteStatus converts the raw string to QuoteStatus.
func ParseQuoteStatus(value string) (QuoteStatus, error) {
	for _, candidate := range validQuoteStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quote status %q", value)
}
