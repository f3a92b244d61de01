package enums

import "fmt"

// CommissionType labels how a commission was earned.
type CommissionType string

const (
	// CommissionTypeReferral is paid to the buyer's direct sponsor (level 1).
	CommissionTypeReferral CommissionType = "referral"
	// CommissionTypeLevel is paid to deeper upline ancestors (level 2+).
	CommissionTypeLevel CommissionType = "level"
	// CommissionTypeBonus covers discretionary admin grants.
	CommissionTypeBonus CommissionType = "bonus"
)

var validCommissionTypes = []CommissionType{
	CommissionTypeReferral,
	CommissionTypeLevel,
	CommissionTypeBonus,
}

// String implements fmt.Stringer.
func (t CommissionType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known CommissionType.
func (t CommissionType) IsValid() bool {
	for _, candidate := range validCommissionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseCommissionType converts raw input into a CommissionType.
func ParseCommissionType(value string) (CommissionType, error) {
	for _, candidate := range validCommissionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid commission type %q", value)
}
