package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketStatusTransitions(t *testing.T) {
	cases := []struct {
		from    TicketStatus
		to      TicketStatus
		allowed bool
	}{
		{TicketStatusIntake, TicketStatusInProgress, true},
		{TicketStatusIntake, TicketStatusCancelled, true},
		{TicketStatusIntake, TicketStatusCompleted, false},
		{TicketStatusIntake, TicketStatusDelivered, false},
		{TicketStatusInProgress, TicketStatusCompleted, true},
		{TicketStatusInProgress, TicketStatusDelivered, false},
		{TicketStatusInProgress, TicketStatusIntake, false},
		{TicketStatusCompleted, TicketStatusDelivered, true},
		{TicketStatusCompleted, TicketStatusCancelled, true},
		{TicketStatusDelivered, TicketStatusCancelled, false},
		{TicketStatusCancelled, TicketStatusIntake, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestTicketStatusTerminal(t *testing.T) {
	assert.True(t, TicketStatusDelivered.IsTerminal())
	assert.True(t, TicketStatusCancelled.IsTerminal())
	assert.False(t, TicketStatusIntake.IsTerminal())
	assert.False(t, TicketStatusCompleted.IsTerminal())
}

func TestInvoiceStatusTransitions(t *testing.T) {
	cases := []struct {
		from    InvoiceStatus
		to      InvoiceStatus
		allowed bool
	}{
		{InvoiceStatusPending, InvoiceStatusPartial, true},
		{InvoiceStatusPending, InvoiceStatusPaid, true},
		{InvoiceStatusPending, InvoiceStatusVoided, true},
		{InvoiceStatusPartial, InvoiceStatusPaid, true},
		{InvoiceStatusPartial, InvoiceStatusVoided, true},
		{InvoiceStatusPartial, InvoiceStatusPending, false},
		{InvoiceStatusPaid, InvoiceStatusVoided, false},
		{InvoiceStatusVoided, InvoiceStatusPending, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestParseRejectsUnknownValues(t *testing.T) {
	_, err := ParseTicketStatus("finished")
	require.Error(t, err)

	_, err = ParseInvoiceStatus("open")
	require.Error(t, err)

	_, err = ParseRole("manager")
	require.Error(t, err)

	_, err = ParseMovementReason("shrinkage")
	require.Error(t, err)

	_, err = ParseAppointmentStatus("pending")
	require.Error(t, err)

	_, err = ParseLineItemKind("fee")
	require.Error(t, err)
}

func TestParseRoundTrips(t *testing.T) {
	role, err := ParseRole("shop_lead")
	require.NoError(t, err)
	assert.Equal(t, RoleShopLead, role)

	status, err := ParseTicketStatus("in_progress")
	require.NoError(t, err)
	assert.Equal(t, TicketStatusInProgress, status)

	reason, err := ParseMovementReason("ticket_use")
	require.NoError(t, err)
	assert.Equal(t, MovementReasonTicketUse, reason)
}
