package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeliveryStatus(t *testing.T) {
	assert.True(t, StatusPickedUp.IsDeliveryStatus())
	assert.False(t, StatusCreated.IsDeliveryStatus(), "created only appears in the log")
	assert.False(t, DeliveryStatus("lost").IsDeliveryStatus())

	for _, s := range TerminalStatuses {
		assert.True(t, s.IsTerminal(), s)
	}
	assert.False(t, StatusOutForDelivery.IsTerminal())
}

func TestPermissiveTransitions(t *testing.T) {
	table := PermissiveTransitions()
	assert.Equal(t, "permissive", table.Name())

	for _, from := range DeliveryStatuses {
		for _, to := range DeliveryStatuses {
			assert.True(t, table.Allows(from, to), "%s -> %s", from, to)
		}
	}
	assert.False(t, table.Allows(StatusPending, StatusCreated))
}

func TestStrictTransitions(t *testing.T) {
	table := StrictTransitions()

	tests := []struct {
		from, to DeliveryStatus
		allowed  bool
	}{
		{StatusPending, StatusAssigned, true},
		{StatusAssigned, StatusPickedUp, true},
		{StatusInTransit, StatusInTransit, true},
		{StatusOutForDelivery, StatusDelivered, true},
		{StatusPickedUp, StatusFailed, true},
		{StatusFailed, StatusReturned, true},
		{StatusPending, StatusDelivered, false},
		{StatusDelivered, StatusPending, false},
		{StatusReturned, StatusAssigned, false},
		{StatusInTransit, StatusPickedUp, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, table.Allows(tt.from, tt.to))
			if tt.allowed {
				assert.NoError(t, table.Check(tt.from, tt.to))
			} else {
				assert.EqualError(t, table.Check(tt.from, tt.to),
					"cannot move parcel from "+string(tt.from)+" to "+string(tt.to))
			}
		})
	}
}
