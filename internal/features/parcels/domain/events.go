package domain

import "time"

// EventType names a real-time or notification event.
type EventType string

const (
	EventParcelCreated EventType = "parcel-created"
	EventStatusUpdated EventType = "status-updated"
)

// AllParcelsChannel carries every event, for admin dashboards.
const AllParcelsChannel = "parcels"

// ParcelChannel is the channel of one parcel.
func ParcelChannel(id string) string { return "parcel:" + id }

// CustomerChannel is the channel of one customer's parcels.
func CustomerChannel(id string) string { return "customer:" + id }

// AgentChannel is the channel of one agent's assigned parcels.
func AgentChannel(id string) string { return "agent:" + id }

// ChangeEvent describes a parcel mutation to subscribers and notifiers.
type ChangeEvent struct {
	Type           EventType      `json:"type"`
	ParcelID       string         `json:"parcelId"`
	CustomerID     string         `json:"customerId"`
	AgentID        string         `json:"agentId,omitempty"`
	TrackingNumber string         `json:"trackingNumber"`
	Status         DeliveryStatus `json:"status"`
	Notes          string         `json:"notes,omitempty"`
	Location       *Location      `json:"location,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
}

// NewChangeEvent snapshots p and the log entry that changed it.
func NewChangeEvent(t EventType, p *Parcel, ev TrackingEvent) ChangeEvent {
	return ChangeEvent{
		Type:           t,
		ParcelID:       p.ID,
		CustomerID:     p.CustomerID,
		AgentID:        p.Delivery.AgentID,
		TrackingNumber: p.TrackingNumber,
		Status:         ev.Status,
		Notes:          ev.Notes,
		Location:       ev.Location,
		Timestamp:      ev.Timestamp,
	}
}

// Channels lists every channel the event is published on.
func (e ChangeEvent) Channels() []string {
	chs := []string{ParcelChannel(e.ParcelID), CustomerChannel(e.CustomerID)}
	if e.AgentID != "" {
		chs = append(chs, AgentChannel(e.AgentID))
	}
	return append(chs, AllParcelsChannel)
}

// Result is a mutated parcel plus the side effects that could not be scheduled.
type Result struct {
	Parcel   *Parcel
	Warnings []string
}
