package pubsub

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Subscription delivers messages published to its channels until closed.
type Subscription struct {
	ps   *redis.PubSub
	msgs <-chan *redis.Message
}

// Messages returns the payload stream.
func (s *Subscription) Messages() <-chan *redis.Message {
	return s.msgs
}

// Close stops delivery and releases the connection.
func (s *Subscription) Close() error {
	return s.ps.Close()
}

// RedisBroker fans real-time events out over Redis channels.
// Delivery is at-most-once: nothing is stored for offline subscribers.
type RedisBroker struct {
	client *redis.Client
}

// NewRedisBroker wraps an existing client.
func NewRedisBroker(client *redis.Client) *RedisBroker {
	return &RedisBroker{client: client}
}

// Publish sends payload to every channel. The first failure is returned
// after all channels have been attempted.
func (b *RedisBroker) Publish(ctx context.Context, payload []byte, channels ...string) error {
	var firstErr error
	for _, ch := range channels {
		if err := b.client.Publish(ctx, ch, payload).Err(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("pubsub: publish to %s: %w", ch, err)
		}
	}
	return firstErr
}

// Subscribe listens on the given channels. The subscription is confirmed
// before returning so no message published afterwards is missed.
func (b *RedisBroker) Subscribe(ctx context.Context, channels ...string) (*Subscription, error) {
	ps := b.client.Subscribe(ctx, channels...)
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("pubsub: subscribe: %w", err)
	}
	return &Subscription{ps: ps, msgs: ps.Channel()}, nil
}
