package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"parcel-tracker/internal/core/logger"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// RabbitMQQueue publishes tasks to one durable queue per kind. Deliveries are
// acknowledged after the handler runs, whatever its outcome, so nothing is redelivered.
type RabbitMQQueue struct {
	*dispatcher

	conn    *amqp.Connection
	pub     *amqp.Channel
	workers int
	prefix  string

	mu       sync.Mutex
	declared map[string]bool
	consume  []*amqp.Channel
	wg       sync.WaitGroup
}

// NewRabbitMQQueue dials RabbitMQ and opens the publishing channel.
func NewRabbitMQQueue(url string, workers int, timeout time.Duration) (*RabbitMQQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}

	if workers <= 0 {
		workers = 1
	}

	logger.Get().Info("Connected to RabbitMQ")
	return &RabbitMQQueue{
		dispatcher: newDispatcher(timeout),
		conn:       conn,
		pub:        ch,
		workers:    workers,
		prefix:     "parcel-tracker.tasks.",
		declared:   make(map[string]bool),
	}, nil
}

func (q *RabbitMQQueue) declare(ch *amqp.Channel, kind string) (string, error) {
	name := q.prefix + kind
	if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
		return "", fmt.Errorf("rabbitmq: declare queue %s: %w", name, err)
	}
	return name, nil
}

// Enqueue implements Queue.
func (q *RabbitMQQueue) Enqueue(ctx context.Context, kind string, payload any) error {
	data, _, err := newEnvelope(kind, payload)
	if err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	name := q.prefix + kind
	if !q.declared[kind] {
		if name, err = q.declare(q.pub, kind); err != nil {
			return err
		}
		q.declared[kind] = true
	}

	err = q.pub.PublishWithContext(ctx, "", name, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         data,
	})
	if err != nil {
		return fmt.Errorf("rabbitmq: publish %s: %w", kind, err)
	}
	return nil
}

// Start implements Queue.
func (q *RabbitMQQueue) Start(_ context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, kind := range q.kinds() {
		ch, err := q.conn.Channel()
		if err != nil {
			return fmt.Errorf("rabbitmq: open consumer channel: %w", err)
		}
		if err := ch.Qos(q.workers, 0, false); err != nil {
			ch.Close()
			return fmt.Errorf("rabbitmq: qos: %w", err)
		}
		name, err := q.declare(ch, kind)
		if err != nil {
			ch.Close()
			return err
		}
		deliveries, err := ch.Consume(name, "", false, false, false, false, nil)
		if err != nil {
			ch.Close()
			return fmt.Errorf("rabbitmq: consume %s: %w", name, err)
		}
		q.consume = append(q.consume, ch)

		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func() {
				defer q.wg.Done()
				for d := range deliveries {
					q.dispatchRaw(d.Body)
					if err := d.Ack(false); err != nil {
						logger.Get().Warn("RabbitMQ ack failed", zap.String("queue", name), zap.Error(err))
					}
				}
			}()
		}
		logger.Get().Info("Consuming RabbitMQ queue", zap.String("queue", name))
	}
	return nil
}

// Close implements Queue.
func (q *RabbitMQQueue) Close() error {
	q.mu.Lock()
	for _, ch := range q.consume {
		ch.Close()
	}
	q.consume = nil
	q.mu.Unlock()

	q.wg.Wait()
	q.pub.Close()
	return q.conn.Close()
}
