package enums

import "fmt"

// QuoteKind distinguishes the two quote document types.
type QuoteKind string

const (
	QuoteKindMerch   QuoteKind = "merch"
	QuoteKindPicking QuoteKind = "picking"
)

var validQuoteKinds = []QuoteKind{
	QuoteKindMerch,
	QuoteKindPicking,
}

// String implements fmt.Stringer.
func (k QuoteKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known QuoteKind.
func (k QuoteKind) IsValid() bool {
	for _, candidate := range validQuoteKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// NumberPrefix returns the document-number prefix for the kind.
func (k QuoteKind) NumberPrefix() string {
	switch k {
	case QuoteKindPicking:
		return "PQ"
	default:
		return "MQ"
	}
}

// ParseQuoteKind converts the raw string to QuoteKind.
func ParseQuoteKind(value string) (QuoteKind, error) {
	for _, candidate := range validQuoteKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quote kind %q", value)
}
