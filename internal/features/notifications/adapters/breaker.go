package adapters

import (
	"context"
	"time"

	"parcel-tracker/internal/core/logger"
	"parcel-tracker/internal/features/notifications/ports"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Get().Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// BreakerMailer stops calling a failing provider for a while.
// While open, Send returns gobreaker.ErrOpenState.
type BreakerMailer struct {
	next ports.Mailer
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerMailer wraps next.
func NewBreakerMailer(next ports.Mailer) *BreakerMailer {
	return &BreakerMailer{next: next, cb: newBreaker("mailer")}
}

func (m *BreakerMailer) Send(ctx context.Context, to, subject, html string) error {
	_, err := m.cb.Execute(func() (interface{}, error) {
		return nil, m.next.Send(ctx, to, subject, html)
	})
	return err
}

// BreakerHook is the Hook counterpart of BreakerMailer.
type BreakerHook struct {
	next ports.Hook
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerHook wraps next.
func NewBreakerHook(next ports.Hook) *BreakerHook {
	return &BreakerHook{next: next, cb: newBreaker("webhook")}
}

func (h *BreakerHook) Post(ctx context.Context, payload any) error {
	_, err := h.cb.Execute(func() (interface{}, error) {
		return nil, h.next.Post(ctx, payload)
	})
	return err
}
