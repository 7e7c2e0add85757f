package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"parcel-tracker/internal/core/logger"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const natsQueueGroup = "parcel-tracker-workers"

// NATSQueue publishes tasks to per-kind subjects and consumes them through a
// queue group, so each task reaches one worker across all instances.
type NATSQueue struct {
	*dispatcher

	conn   *nats.Conn
	prefix string

	mu   sync.Mutex
	subs []*nats.Subscription
}

// NewNATSQueue connects to NATS.
func NewNATSQueue(url string, timeout time.Duration) (*NATSQueue, error) {
	nc, err := nats.Connect(url, nats.Name("parcel-tracker"), nats.Timeout(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logger.Get().Info("Connected to NATS", zap.String("url", nc.ConnectedUrlRedacted()))
	return &NATSQueue{
		dispatcher: newDispatcher(timeout),
		conn:       nc,
		prefix:     "parcel-tracker.tasks.",
	}, nil
}

// Enqueue implements Queue.
func (q *NATSQueue) Enqueue(_ context.Context, kind string, payload any) error {
	data, _, err := newEnvelope(kind, payload)
	if err != nil {
		return err
	}
	if err := q.conn.Publish(q.prefix+kind, data); err != nil {
		return fmt.Errorf("tasks: nats publish %s: %w", kind, err)
	}
	return nil
}

// Start implements Queue.
func (q *NATSQueue) Start(_ context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, kind := range q.kinds() {
		sub, err := q.conn.QueueSubscribe(q.prefix+kind, natsQueueGroup, func(msg *nats.Msg) {
			q.dispatchRaw(msg.Data)
		})
		if err != nil {
			return fmt.Errorf("tasks: nats subscribe %s: %w", kind, err)
		}
		q.subs = append(q.subs, sub)
	}
	return nil
}

// Close implements Queue.
func (q *NATSQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, sub := range q.subs {
		_ = sub.Unsubscribe()
	}
	q.subs = nil
	q.conn.Close()
	return nil
}
