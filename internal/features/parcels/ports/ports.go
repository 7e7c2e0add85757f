package ports

import (
	"context"
	"time"

	"parcel-tracker/internal/core/identity"
	"parcel-tracker/internal/core/tasks"
	"parcel-tracker/internal/features/parcels/domain"
)

// Repository is the Parcel Record Store.
type Repository interface {
	// Create persists the parcel and its initial tracking log in one write.
	// A tracking number clash yields an error wrapping apperr.ErrDuplicateKey.
	Create(ctx context.Context, p *domain.Parcel) error
	// FindByID loads a parcel with its log in insertion order.
	FindByID(ctx context.Context, id string) (*domain.Parcel, error)
	// FindByTrackingNumber loads a parcel by its public code.
	FindByTrackingNumber(ctx context.Context, code string) (*domain.Parcel, error)
	// List returns one page of parcels, newest first, and the total match count.
	List(ctx context.Context, q domain.ListQuery) ([]domain.Parcel, int64, error)
	// SaveTransition writes the delivery and payment state of p and appends ev
	// in one write, without locking, and returns the reloaded parcel.
	SaveTransition(ctx context.Context, p *domain.Parcel, ev domain.TrackingEvent) (*domain.Parcel, error)
	// SetArtifacts stores the generated artifact references.
	SetArtifacts(ctx context.Context, id, qrCode, barcode string) error
	// AggregateByStatus counts parcels and sums payment amounts per status.
	AggregateByStatus(ctx context.Context, scope domain.Scope) ([]domain.StatusAggregate, error)
	// CountCreatedBetween counts parcels created in [from, to).
	CountCreatedBetween(ctx context.Context, scope domain.Scope, from, to time.Time) (int64, error)
	// SumOutstandingCOD sums payment.amount of cod parcels with pending payment.
	SumOutstandingCOD(ctx context.Context, scope domain.Scope) (float64, error)
	// ActivitySince returns creation time and status of parcels created at or after since.
	ActivitySince(ctx context.Context, scope domain.Scope, since time.Time) ([]domain.Activity, error)
	// CountActive counts parcels not in a terminal status.
	CountActive(ctx context.Context, scope domain.Scope) (int64, error)
}

// ContactDirectory resolves users referenced by parcels.
type ContactDirectory interface {
	// Contact returns the user's contact details or an apperr.ErrNotFound error.
	Contact(ctx context.Context, userID string) (identity.Contact, error)
	// IsActiveAgent reports whether userID is an active agent account.
	IsActiveAgent(ctx context.Context, userID string) (bool, error)
}

// TrackCache caches public tracking lookups. Implementations must treat
// every failure as a miss.
//
// Get returns the code's current version along with the lookup. Set must be
// given the version from the Get that preceded the database read, and the
// entry it stores is only served while no Invalidate has happened since.
type TrackCache interface {
	Get(ctx context.Context, code string) (p *domain.Parcel, version string, ok bool)
	Set(ctx context.Context, p *domain.Parcel, version string)
	Invalidate(ctx context.Context, code string)
}

// Notifier tells the owning customer about a change.
type Notifier interface {
	Notify(ctx context.Context, to identity.Contact, ev domain.ChangeEvent) error
}

// ArtifactGenerator renders derived artifacts for a parcel and returns their references.
type ArtifactGenerator interface {
	Generate(ctx context.Context, p *domain.Parcel) (qrCode, barcode string, err error)
}

// EventPublisher pushes change events to real-time subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, ev domain.ChangeEvent) error
}

// TaskQueue is the background-worker boundary for best-effort side effects.
type TaskQueue interface {
	Enqueue(ctx context.Context, kind string, payload any) error
	Handle(kind string, h tasks.Handler)
}

// Service is the tracking engine as seen by the HTTP layer.
type Service interface {
	Create(ctx context.Context, p identity.Principal, req *domain.BookingRequest) (*domain.Result, error)
	Transition(ctx context.Context, p identity.Principal, id string, req *domain.TransitionRequest) (*domain.Result, error)
	TrackByCode(ctx context.Context, code string) (*domain.Parcel, error)
	Get(ctx context.Context, p identity.Principal, id string) (*domain.Parcel, error)
	List(ctx context.Context, p identity.Principal, params domain.ListParams) (domain.Page, error)
	MyParcels(ctx context.Context, p identity.Principal, params domain.ListParams) (domain.Page, error)
	ComputeMetrics(ctx context.Context, p identity.Principal) (*domain.Metrics, error)
}
