package domain

import "fmt"

// DeliveryStatus is the delivery state of a parcel. StatusCreated only
// appears in the tracking log, never as a current status.
type DeliveryStatus string

const (
	StatusCreated        DeliveryStatus = "created"
	StatusPending        DeliveryStatus = "pending"
	StatusAssigned       DeliveryStatus = "assigned"
	StatusPickedUp       DeliveryStatus = "picked_up"
	StatusInTransit      DeliveryStatus = "in_transit"
	StatusOutForDelivery DeliveryStatus = "out_for_delivery"
	StatusDelivered      DeliveryStatus = "delivered"
	StatusFailed         DeliveryStatus = "failed"
	StatusReturned       DeliveryStatus = "returned"
)

// DeliveryStatuses lists the current-status values in lifecycle order.
var DeliveryStatuses = []DeliveryStatus{
	StatusPending,
	StatusAssigned,
	StatusPickedUp,
	StatusInTransit,
	StatusOutForDelivery,
	StatusDelivered,
	StatusFailed,
	StatusReturned,
}

// IsDeliveryStatus reports whether s may be a parcel's current status.
func (s DeliveryStatus) IsDeliveryStatus() bool {
	for _, d := range DeliveryStatuses {
		if s == d {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further movement is expected.
func (s DeliveryStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusFailed || s == StatusReturned
}

// TerminalStatuses are the statuses that end a parcel's active life.
var TerminalStatuses = []DeliveryStatus{StatusDelivered, StatusFailed, StatusReturned}

// TransitionTable is the explicit set of allowed status moves.
type TransitionTable struct {
	name  string
	edges map[DeliveryStatus]map[DeliveryStatus]bool
}

// NewTransitionTable builds a table from an adjacency list.
func NewTransitionTable(name string, edges map[DeliveryStatus][]DeliveryStatus) TransitionTable {
	t := TransitionTable{name: name, edges: make(map[DeliveryStatus]map[DeliveryStatus]bool, len(edges))}
	for from, tos := range edges {
		set := make(map[DeliveryStatus]bool, len(tos))
		for _, to := range tos {
			set[to] = true
		}
		t.edges[from] = set
	}
	return t
}

// PermissiveTransitions allows any delivery status to follow any other,
// so agents can correct mistakes.
func PermissiveTransitions() TransitionTable {
	edges := make(map[DeliveryStatus][]DeliveryStatus, len(DeliveryStatuses))
	for _, from := range DeliveryStatuses {
		edges[from] = DeliveryStatuses
	}
	return NewTransitionTable("permissive", edges)
}

// StrictTransitions only moves forward along the delivery chain, with failed
// and returned reachable from any active status. Active statuses may repeat
// to record location updates.
func StrictTransitions() TransitionTable {
	sideBranches := []DeliveryStatus{StatusFailed, StatusReturned}
	return NewTransitionTable("strict", map[DeliveryStatus][]DeliveryStatus{
		StatusPending:        append([]DeliveryStatus{StatusPending, StatusAssigned}, sideBranches...),
		StatusAssigned:       append([]DeliveryStatus{StatusAssigned, StatusPickedUp}, sideBranches...),
		StatusPickedUp:       append([]DeliveryStatus{StatusPickedUp, StatusInTransit}, sideBranches...),
		StatusInTransit:      append([]DeliveryStatus{StatusInTransit, StatusOutForDelivery}, sideBranches...),
		StatusOutForDelivery: append([]DeliveryStatus{StatusOutForDelivery, StatusDelivered}, sideBranches...),
		StatusFailed:         {StatusAssigned, StatusReturned},
	})
}

// Name identifies the table in logs.
func (t TransitionTable) Name() string { return t.name }

// Allows reports whether from -> to is permitted.
func (t TransitionTable) Allows(from, to DeliveryStatus) bool {
	return t.edges[from][to]
}

// Check returns a descriptive error when from -> to is not permitted.
func (t TransitionTable) Check(from, to DeliveryStatus) error {
	if !t.Allows(from, to) {
		return fmt.Errorf("cannot move parcel from %s to %s", from, to)
	}
	return nil
}
