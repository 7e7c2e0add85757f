package service

import (
	"context"
	"encoding/json"
	"fmt"

	"parcel-tracker/internal/core/logger"
	"parcel-tracker/internal/features/parcels/domain"

	"go.uber.org/zap"
)

// Task kinds handled by the engine's background workers.
const (
	TaskGenerateArtifacts = "parcels.generate_artifacts"
	TaskNotifyCustomer    = "parcels.notify_customer"
	TaskPublishEvent      = "parcels.publish_event"
)

type artifactTask struct {
	ParcelID string `json:"parcelId"`
}

type notifyTask struct {
	Event domain.ChangeEvent `json:"event"`
}

type publishTask struct {
	Event domain.ChangeEvent `json:"event"`
}

// registerTasks wires a handler for every side effect with a collaborator.
// Kinds without one are never scheduled.
func (e *Engine) registerTasks() {
	e.handled = make(map[string]bool, 3)
	register := func(kind string, enabled bool, h func(context.Context, []byte) error) {
		if enabled {
			e.queue.Handle(kind, h)
			e.handled[kind] = true
		}
	}
	register(TaskGenerateArtifacts, e.artifacts != nil, e.handleGenerateArtifacts)
	register(TaskNotifyCustomer, e.notifier != nil, e.handleNotifyCustomer)
	register(TaskPublishEvent, e.publisher != nil, e.handlePublishEvent)
}

func (e *Engine) handleGenerateArtifacts(ctx context.Context, payload []byte) error {
	var t artifactTask
	if err := json.Unmarshal(payload, &t); err != nil {
		return fmt.Errorf("decode artifact task: %w", err)
	}

	parcel, err := e.repo.FindByID(ctx, t.ParcelID)
	if err != nil {
		return fmt.Errorf("load parcel %s: %w", t.ParcelID, err)
	}
	qr, barcode, err := e.artifacts.Generate(ctx, parcel)
	if err != nil {
		return fmt.Errorf("generate artifacts for %s: %w", parcel.TrackingNumber, err)
	}
	if err := e.repo.SetArtifacts(ctx, parcel.ID, qr, barcode); err != nil {
		return fmt.Errorf("store artifacts for %s: %w", parcel.TrackingNumber, err)
	}
	e.cache.Invalidate(ctx, parcel.TrackingNumber)

	logger.Get().Debug("Parcel artifacts generated", zap.String("tracking_number", parcel.TrackingNumber), zap.String("qr_code", qr))
	return nil
}

func (e *Engine) handleNotifyCustomer(ctx context.Context, payload []byte) error {
	var t notifyTask
	if err := json.Unmarshal(payload, &t); err != nil {
		return fmt.Errorf("decode notify task: %w", err)
	}

	to, err := e.directory.Contact(ctx, t.Event.CustomerID)
	if err != nil {
		return fmt.Errorf("resolve customer %s: %w", t.Event.CustomerID, err)
	}
	if to.Email == "" {
		logger.Get().Debug("Customer has no email, skipping notification", zap.String("customer_id", to.ID))
		return nil
	}
	return e.notifier.Notify(ctx, to, t.Event)
}

func (e *Engine) handlePublishEvent(ctx context.Context, payload []byte) error {
	var t publishTask
	if err := json.Unmarshal(payload, &t); err != nil {
		return fmt.Errorf("decode publish task: %w", err)
	}
	return e.publisher.Publish(ctx, t.Event)
}
