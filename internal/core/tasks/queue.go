package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"parcel-tracker/internal/core/logger"
	"parcel-tracker/internal/core/telemetry"

	"go.uber.org/zap"
)

var (
	// ErrQueueFull is returned when the queue cannot take more work without blocking.
	ErrQueueFull = errors.New("tasks: queue full")
	// ErrClosed is returned when enqueuing after Close.
	ErrClosed = errors.New("tasks: queue closed")
)

// Handler runs one task. Returned errors are logged and counted, never retried.
type Handler func(ctx context.Context, payload []byte) error

// Queue is the boundary for best-effort side effects. Enqueue must not block
// the caller; delivery is at most once.
type Queue interface {
	// Enqueue schedules a task of the given kind with a JSON-encodable payload.
	Enqueue(ctx context.Context, kind string, payload any) error
	// Handle registers the handler for a kind. Call before Start.
	Handle(kind string, h Handler)
	// Start begins consuming tasks.
	Start(ctx context.Context) error
	// Close stops consuming and releases resources.
	Close() error
}

type envelope struct {
	Kind       string          `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueuedAt"`
}

func newEnvelope(kind string, payload any) ([]byte, envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, envelope{}, fmt.Errorf("tasks: encode %s payload: %w", kind, err)
	}
	env := envelope{Kind: kind, Payload: raw, EnqueuedAt: time.Now().UTC()}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, envelope{}, fmt.Errorf("tasks: encode %s envelope: %w", kind, err)
	}
	return data, env, nil
}

// dispatcher holds registered handlers and runs tasks with a timeout.
type dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	timeout  time.Duration
}

func newDispatcher(timeout time.Duration) *dispatcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &dispatcher{handlers: make(map[string]Handler), timeout: timeout}
}

// Handle registers h for kind, replacing any previous handler.
func (d *dispatcher) Handle(kind string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[kind] = h
}

func (d *dispatcher) kinds() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.handlers))
	for k := range d.handlers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (d *dispatcher) dispatchRaw(data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		telemetry.TasksProcessed.WithLabelValues("unknown", "malformed").Inc()
		logger.Get().Error("Discarding malformed task", zap.Error(err))
		return
	}
	d.dispatch(env)
}

func (d *dispatcher) dispatch(env envelope) {
	d.mu.RLock()
	h, ok := d.handlers[env.Kind]
	d.mu.RUnlock()

	l := logger.Get().With(zap.String("task_kind", env.Kind))
	if !ok {
		telemetry.TasksProcessed.WithLabelValues(env.Kind, "unhandled").Inc()
		l.Warn("No handler registered for task")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			telemetry.TasksProcessed.WithLabelValues(env.Kind, "panic").Inc()
			l.Error("Task panicked", zap.Any("panic", r))
		}
	}()

	start := time.Now()
	if err := h(ctx, env.Payload); err != nil {
		telemetry.TasksProcessed.WithLabelValues(env.Kind, "failed").Inc()
		l.Warn("Task failed", zap.Duration("duration", time.Since(start)), zap.Error(err))
		return
	}
	telemetry.TasksProcessed.WithLabelValues(env.Kind, "ok").Inc()
	l.Debug("Task completed", zap.Duration("duration", time.Since(start)))
}
