package tasks

import (
	"context"
	"sync"
	"time"
)

// MemoryQueue runs tasks in-process on a fixed pool of workers fed by a
// bounded channel. Tasks still buffered at Close are drained first.
type MemoryQueue struct {
	*dispatcher

	workers int
	ch      chan envelope
	wg      sync.WaitGroup

	mu      sync.RWMutex
	closed  bool
	started bool
}

// NewMemoryQueue creates an in-process queue.
func NewMemoryQueue(workers, buffer int, timeout time.Duration) *MemoryQueue {
	if workers <= 0 {
		workers = 1
	}
	if buffer <= 0 {
		buffer = 64
	}
	return &MemoryQueue{
		dispatcher: newDispatcher(timeout),
		workers:    workers,
		ch:         make(chan envelope, buffer),
	}
}

// Enqueue implements Queue. It returns ErrQueueFull instead of blocking.
func (q *MemoryQueue) Enqueue(ctx context.Context, kind string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, env, err := newEnvelope(kind, payload)
	if err != nil {
		return err
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrClosed
	}

	select {
	case q.ch <- env:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start implements Queue.
func (q *MemoryQueue) Start(_ context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.closed {
		return nil
	}
	q.started = true

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for env := range q.ch {
				q.dispatch(env)
			}
		}()
	}
	return nil
}

// Close implements Queue.
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.ch)
	started := q.started
	q.mu.Unlock()

	if started {
		q.wg.Wait()
	}
	return nil
}
