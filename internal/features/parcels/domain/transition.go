package domain

import (
	"time"

	"parcel-tracker/internal/core/validation"
)

// TransitionRequest is the metadata of a status change.
type TransitionRequest struct {
	Status   DeliveryStatus `json:"status" validate:"required"`
	Notes    string         `json:"notes"`
	Location *Location      `json:"location"`
	// ProofImage and Signature are only kept when Status is delivered.
	ProofImage string `json:"proofImage"`
	Signature  string `json:"signature"`
	// FailedReason overrides Notes as the failure reason when Status is failed.
	FailedReason string `json:"failedReason"`
	// AgentID assigns the parcel to an agent. Admin only.
	AgentID           string     `json:"agent" validate:"omitempty,uuid"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery"`
}

// Validate checks the request shape. Table rules are checked by the engine.
func (r *TransitionRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}
	if !r.Status.IsDeliveryStatus() {
		return validation.Var("status", string(r.Status), "oneof=pending assigned picked_up in_transit out_for_delivery delivered failed returned")
	}
	return nil
}

// ApplyTransition mutates p for the new status and returns the log entry
// to append. The caller persists both in one write.
func (p *Parcel) ApplyTransition(r TransitionRequest, actor string, now time.Time) TrackingEvent {
	p.Delivery.Status = r.Status
	p.Delivery.DeliveryNotes = r.Notes

	if r.AgentID != "" {
		p.Delivery.AgentID = r.AgentID
	}
	if r.EstimatedDelivery != nil {
		p.Delivery.EstimatedDelivery = r.EstimatedDelivery
	}

	switch r.Status {
	case StatusDelivered:
		delivered := now
		p.Delivery.ActualDelivery = &delivered
		p.Payment.Status = PaymentPaid
		if r.ProofImage != "" {
			p.Delivery.Proof.Image = r.ProofImage
		}
		if r.Signature != "" {
			p.Delivery.Proof.Signature = r.Signature
		}
		if r.Notes != "" {
			p.Delivery.Proof.Notes = r.Notes
		}
	case StatusFailed:
		p.Delivery.FailedReason = r.Notes
		if r.FailedReason != "" {
			p.Delivery.FailedReason = r.FailedReason
		}
	}

	p.UpdatedAt = now
	return TrackingEvent{
		ParcelID:  p.ID,
		Status:    r.Status,
		Location:  r.Location,
		Notes:     r.Notes,
		Timestamp: now,
		UpdatedBy: actor,
	}
}

// CreatedEvent is the synthetic first log entry written with the parcel.
func CreatedEvent(parcelID, actor string, now time.Time) TrackingEvent {
	return TrackingEvent{
		ParcelID:  parcelID,
		Status:    StatusCreated,
		Notes:     "Parcel booking created",
		Timestamp: now,
		UpdatedBy: actor,
	}
}
