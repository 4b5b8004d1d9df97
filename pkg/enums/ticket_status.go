package enums

import "fmt"

// TicketStatus describes the allowed values for the `status` column in
// service_tickets.
type TicketStatus string

const (
	TicketStatusIntake     TicketStatus = "intake"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusCompleted  TicketStatus = "completed"
	TicketStatusDelivered  TicketStatus = "delivered"
	TicketStatusCancelled  TicketStatus = "cancelled"
)

var validTicketStatuses = []TicketStatus{
	TicketStatusIntake,
	TicketStatusInProgress,
	TicketStatusCompleted,
	TicketStatusDelivered,
	TicketStatusCancelled,
}

// ticketTransitions holds the forward edges of the ticket lifecycle.
// Delivered and cancelled are terminal.
var ticketTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusIntake:     {TicketStatusInProgress, TicketStatusCancelled},
	TicketStatusInProgress: {TicketStatusCompleted, TicketStatusCancelled},
	TicketStatusCompleted:  {TicketStatusDelivered, TicketStatusCancelled},
}

func (s TicketStatus) String() string {
	return string(s)
}

// IsValid reports whether the value matches the canonical ticket status enum.
func (s TicketStatus) IsValid() bool {
	for _, candidate := range validTicketStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (s TicketStatus) IsTerminal() bool {
	return len(ticketTransitions[s]) == 0
}

// CanTransitionTo reports whether the lifecycle allows moving to next.
func (s TicketStatus) CanTransitionTo(next TicketStatus) bool {
	for _, candidate := range ticketTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParseTicketStatus converts the raw string to TicketStatus.
func ParseTicketStatus(value string) (TicketStatus, error) {
	for _, candidate := range validTicketStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ticket status %q", value)
}
