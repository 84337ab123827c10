package enums

// WarningType classifies staleness warnings produced when a quote references
// catalog rows that have since been removed.
type WarningType string

const (
	WarningTypeClientMissing           WarningType = "client_missing"
	WarningTypeSalespersonMissing      WarningType = "salesperson_missing"
	WarningTypePaymentConditionMissing WarningType = "payment_condition_missing"
	WarningTypeProductMissing          WarningType = "product_missing"
)

// String implements fmt.Stringer.
func (w WarningType) String() string {
	return string(w)
}
