package enums

import "fmt"

// MovementReason describes the allowed values for the `reason` column in
// inventory_movements.
type MovementReason string

const (
	MovementReasonPurchase   MovementReason = "purchase"
	MovementReasonTicketUse  MovementReason = "ticket_use"
	MovementReasonReturn     MovementReason = "return"
	MovementReasonAdjustment MovementReason = "adjustment"
)

var validMovementReasons = []MovementReason{
	MovementReasonPurchase,
	MovementReasonTicketUse,
	MovementReasonReturn,
	MovementReasonAdjustment,
}

func (m MovementReason) String() string {
	return string(m)
}

// IsValid reports whether the value matches the canonical movement reason enum.
func (m MovementReason) IsValid() bool {
	for _, candidate := range validMovementReasons {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMovementReason converts the raw string to MovementReason.
func ParseMovementReason(value string) (MovementReason, error) {
	for _, candidate := range validMovementReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement reason %q", value)
}
