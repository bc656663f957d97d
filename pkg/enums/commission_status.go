package enums

import "fmt"

// CommissionPaidStatus marks whether an agent has been paid for a delivery.
type CommissionPaidStatus string

const (
	CommissionUnpaid CommissionPaidStatus = "unpaid"
	CommissionPaid   CommissionPaidStatus = "paid"
)

var validCommissionPaidStatuses = []CommissionPaidStatus{
	CommissionUnpaid,
	CommissionPaid,
}

// String implements fmt.Stringer.
func (c CommissionPaidStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CommissionPaidStatus.
func (c CommissionPaidStatus) IsValid() bool {
	for _, candidate := range validCommissionPaidStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCommissionPaidStatus converts raw input into a CommissionPaidStatus.
func ParseCommissionPaidStatus(value string) (CommissionPaidStatus, error) {
	for _, candidate := range validCommissionPaidStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid commission paid status %q", value)
}
