package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"parcel-tracker/internal/core/apperr"
	"parcel-tracker/internal/core/identity"
	"parcel-tracker/internal/core/tasks"
	"parcel-tracker/internal/features/parcels/domain"

	"github.com/stretchr/testify/mock"
)

// memRepo is an in-memory Repository with the same write semantics as the
// gorm store: each SaveTransition is atomic, no row locking across calls.
type memRepo struct {
	mu      sync.Mutex
	parcels map[string]*domain.Parcel
	seq     int64
}

func newMemRepo() *memRepo {
	return &memRepo{parcels: make(map[string]*domain.Parcel)}
}

func (r *memRepo) Create(_ context.Context, p *domain.Parcel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.parcels {
		if existing.TrackingNumber == p.TrackingNumber {
			return fmt.Errorf("insert parcel: %w", apperr.ErrDuplicateKey)
		}
	}
	c := p.Clone()
	for i := range c.Tracking {
		r.seq++
		c.Tracking[i].Seq = r.seq
	}
	r.parcels[p.ID] = c
	return nil
}

func (r *memRepo) FindByID(_ context.Context, id string) (*domain.Parcel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.parcels[id]
	if !ok {
		return nil, apperr.NotFound("Parcel not found")
	}
	return p.Clone(), nil
}

func (r *memRepo) FindByTrackingNumber(_ context.Context, code string) (*domain.Parcel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.parcels {
		if p.TrackingNumber == code {
			return p.Clone(), nil
		}
	}
	return nil, apperr.NotFound("Parcel not found")
}

// racingRepo runs afterLoad once a tracking lookup has read the parcel.
type racingRepo struct {
	*memRepo
	afterLoad func()
}

func (r *racingRepo) FindByTrackingNumber(ctx context.Context, code string) (*domain.Parcel, error) {
	p, err := r.memRepo.FindByTrackingNumber(ctx, code)
	if r.afterLoad != nil {
		r.afterLoad()
		r.afterLoad = nil
	}
	return p, err
}

func (r *memRepo) all(scope domain.Scope) []*domain.Parcel {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Parcel
	for _, p := range r.parcels {
		if scope.Contains(p) {
			out = append(out, p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *memRepo) List(_ context.Context, q domain.ListQuery) ([]domain.Parcel, int64, error) {
	var matched []domain.Parcel
	for _, p := range r.all(q.Scope) {
		if q.Matches(p) {
			matched = append(matched, *p)
		}
	}
	total := int64(len(matched))
	start := min(q.Offset(), len(matched))
	end := min(start+q.Limit, len(matched))
	return matched[start:end], total, nil
}

func (r *memRepo) SaveTransition(_ context.Context, p *domain.Parcel, ev domain.TrackingEvent) (*domain.Parcel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.parcels[p.ID]
	if !ok {
		return nil, apperr.NotFound("Parcel not found")
	}
	stored.Delivery = p.Delivery
	stored.Payment = p.Payment
	stored.UpdatedAt = p.UpdatedAt
	r.seq++
	ev.Seq = r.seq
	stored.Tracking = append(stored.Tracking, ev)
	return stored.Clone(), nil
}

func (r *memRepo) SetArtifacts(_ context.Context, id, qr, barcode string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.parcels[id]
	if !ok {
		return apperr.NotFound("Parcel not found")
	}
	p.QRCode, p.Barcode = qr, barcode
	return nil
}

func (r *memRepo) AggregateByStatus(_ context.Context, scope domain.Scope) ([]domain.StatusAggregate, error) {
	byStatus := map[domain.DeliveryStatus]*domain.StatusAggregate{}
	for _, p := range r.all(scope) {
		a, ok := byStatus[p.Delivery.Status]
		if !ok {
			a = &domain.StatusAggregate{Status: p.Delivery.Status}
			byStatus[p.Delivery.Status] = a
		}
		a.Count++
		a.TotalAmount += p.Payment.Amount
	}
	out := make([]domain.StatusAggregate, 0, len(byStatus))
	for _, a := range byStatus {
		out = append(out, *a)
	}
	return out, nil
}

func (r *memRepo) CountCreatedBetween(_ context.Context, scope domain.Scope, from, to time.Time) (int64, error) {
	var n int64
	for _, p := range r.all(scope) {
		if !p.CreatedAt.Before(from) && p.CreatedAt.Before(to) {
			n++
		}
	}
	return n, nil
}

func (r *memRepo) SumOutstandingCOD(_ context.Context, scope domain.Scope) (float64, error) {
	var sum float64
	for _, p := range r.all(scope) {
		if p.Payment.Method == domain.PaymentCOD && p.Payment.Status == domain.PaymentPending {
			sum += p.Payment.Amount
		}
	}
	return sum, nil
}

func (r *memRepo) ActivitySince(_ context.Context, scope domain.Scope, since time.Time) ([]domain.Activity, error) {
	var out []domain.Activity
	for _, p := range r.all(scope) {
		if !p.CreatedAt.Before(since) {
			out = append(out, domain.Activity{CreatedAt: p.CreatedAt, Status: p.Delivery.Status})
		}
	}
	return out, nil
}

func (r *memRepo) CountActive(_ context.Context, scope domain.Scope) (int64, error) {
	var n int64
	for _, p := range r.all(scope) {
		if !p.Delivery.Status.IsTerminal() {
			n++
		}
	}
	return n, nil
}

// directory is a static ContactDirectory.
type directory map[string]identity.Contact

func (d directory) Contact(_ context.Context, id string) (identity.Contact, error) {
	c, ok := d[id]
	if !ok {
		return identity.Contact{}, apperr.NotFound("User not found")
	}
	return c, nil
}

func (d directory) IsActiveAgent(_ context.Context, id string) (bool, error) {
	c, ok := d[id]
	return ok && c.Role == identity.RoleAgent, nil
}

// MockNotifier is a mock implementation of ports.Notifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, to identity.Contact, ev domain.ChangeEvent) error {
	args := m.Called(ctx, to, ev)
	return args.Error(0)
}

// recorder collects published events, generated artifacts and cache calls.
type recorder struct {
	mu          sync.Mutex
	events      []domain.ChangeEvent
	invalidated []string
	cached      map[string]*domain.Parcel
	cachedAt    map[string]string
	versions    map[string]string
}

func (r *recorder) Publish(_ context.Context, ev domain.ChangeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) Generate(_ context.Context, p *domain.Parcel) (string, string, error) {
	return "/uploads/qrcodes/" + p.TrackingNumber + ".png", p.TrackingNumber, nil
}

func (r *recorder) Get(_ context.Context, code string) (*domain.Parcel, string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	version := r.versions[code]
	p, ok := r.cached[code]
	if !ok || r.cachedAt[code] != version {
		return nil, version, false
	}
	return p.Clone(), version, true
}

func (r *recorder) Set(_ context.Context, p *domain.Parcel, version string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cached == nil {
		r.cached = map[string]*domain.Parcel{}
		r.cachedAt = map[string]string{}
	}
	r.cached[p.TrackingNumber] = p.Clone()
	r.cachedAt[p.TrackingNumber] = version
}

func (r *recorder) Invalidate(_ context.Context, code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.versions == nil {
		r.versions = map[string]string{}
	}
	r.versions[code] = fmt.Sprintf("v%d", len(r.invalidated)+1)
	delete(r.cached, code)
	r.invalidated = append(r.invalidated, code)
}

func (r *recorder) published() []domain.ChangeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.ChangeEvent(nil), r.events...)
}

// fullQueue refuses every task.
type fullQueue struct{}

func (fullQueue) Enqueue(context.Context, string, any) error { return tasks.ErrQueueFull }
func (fullQueue) Handle(string, tasks.Handler)               {}

// clock advances one second per reading.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

// codes returns the given tracking numbers in order, then unique ones.
func codes(fixed ...string) func(time.Time) string {
	var mu sync.Mutex
	n := 0
	return func(t time.Time) string {
		mu.Lock()
		defer mu.Unlock()
		n++
		if n <= len(fixed) {
			return fixed[n-1]
		}
		return fmt.Sprintf("TRK%d%04d", t.UnixMilli(), n)
	}
}

func countType(events []domain.ChangeEvent, t domain.EventType) int {
	n := 0
	for _, ev := range events {
		if ev.Type == t {
			n++
		}
	}
	return n
}
