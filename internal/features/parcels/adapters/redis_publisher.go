package adapters

import (
	"context"
	"encoding/json"
	"fmt"

	"parcel-tracker/internal/features/parcels/domain"
)

// Broker is the pub/sub surface the publisher needs.
type Broker interface {
	Publish(ctx context.Context, payload []byte, channels ...string) error
}

// BrokerPublisher implements ports.EventPublisher on a pub/sub broker.
type BrokerPublisher struct {
	broker Broker
}

// NewBrokerPublisher creates a new BrokerPublisher.
func NewBrokerPublisher(b Broker) *BrokerPublisher {
	return &BrokerPublisher{broker: b}
}

// Publish sends ev to the parcel, customer, agent and broadcast channels.
func (p *BrokerPublisher) Publish(ctx context.Context, ev domain.ChangeEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}
	if err := p.broker.Publish(ctx, data, ev.Channels()...); err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}
	return nil
}
