package enums

import "fmt"

// ServiceType is the closed set of picking services a kit quote can include.
type ServiceType string

const (
	ServiceTypeAssembly           ServiceType = "assembly"
	ServiceTypeDomeSticking       ServiceType = "dome_sticking"
	ServiceTypeAdditionalAssembly ServiceType = "additional_assembly"
	ServiceTypeQualityControl     ServiceType = "quality_control"
	ServiceTypeShavings           ServiceType = "shavings"
	ServiceTypeBag                ServiceType = "bag"
	ServiceTypeBubbleWrap         ServiceType = "bubble_wrap"
	ServiceTypePalletizing        ServiceType = "palletizing"
	ServiceTypeLabeling           ServiceType = "labeling"
)

var validServiceTypes = []ServiceType{
	ServiceTypeAssembly,
	ServiceTypeDomeSticking,
	ServiceTypeAdditionalAssembly,
	ServiceTypeQualityControl,
	ServiceTypeShavings,
	ServiceTypeBag,
	ServiceTypeBubbleWrap,
	ServiceTypePalletizing,
	ServiceTypeLabeling,
}

// String implements fmt.Stringer.
func (s ServiceType) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ServiceType.
func (s ServiceType) IsValid() bool {
	for _, candidate := range validServiceTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseServiceType converts the raw string to ServiceType.
func ParseServiceType(value string) (ServiceType, error) {
	for _, candidate := range validServiceTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid service type %q", value)
}
