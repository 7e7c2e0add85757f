package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"parcel-tracker/internal/core/apperr"
	"parcel-tracker/internal/core/identity"
	"parcel-tracker/internal/core/logger"
	"parcel-tracker/internal/core/telemetry"
	"parcel-tracker/internal/features/parcels/domain"
	"parcel-tracker/internal/features/parcels/ports"

	"github.com/google/uuid"
	"github.com/jinzhu/now"
	"go.uber.org/zap"
)

// maxCodeAttempts bounds tracking code regeneration on collision.
const maxCodeAttempts = 3

// Options tunes the engine. Zero values fall back to production defaults.
type Options struct {
	DefaultCountry string
	Transitions    domain.TransitionTable
	// HideForbidden reports parcels outside the caller's scope as not found.
	HideForbidden bool
	// Location is the time zone used for "today" and the weekly series.
	Location *time.Location

	Now     func() time.Time
	NewID   func() string
	NewCode func(time.Time) string
}

// Deps are the collaborators of the engine. Cache, Notifier, Artifacts and
// Publisher are optional.
type Deps struct {
	Repo      ports.Repository
	Directory ports.ContactDirectory
	Queue     ports.TaskQueue
	Cache     ports.TrackCache
	Notifier  ports.Notifier
	Artifacts ports.ArtifactGenerator
	Publisher ports.EventPublisher
}

var _ ports.Service = (*Engine)(nil)

// Engine owns parcel creation, status transitions and the read paths.
type Engine struct {
	repo      ports.Repository
	directory ports.ContactDirectory
	queue     ports.TaskQueue
	cache     ports.TrackCache
	notifier  ports.Notifier
	artifacts ports.ArtifactGenerator
	publisher ports.EventPublisher
	opts      Options
	handled   map[string]bool
}

// NewEngine creates an Engine and registers its background task handlers on deps.Queue.
func NewEngine(deps Deps, opts Options) *Engine {
	if opts.Transitions.Name() == "" {
		opts.Transitions = domain.PermissiveTransitions()
	}
	if opts.DefaultCountry == "" {
		opts.DefaultCountry = "Bangladesh"
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.NewString() }
	}
	if opts.NewCode == nil {
		opts.NewCode = domain.NewTrackingCode
	}
	if deps.Cache == nil {
		deps.Cache = noCache{}
	}

	e := &Engine{
		repo:      deps.Repo,
		directory: deps.Directory,
		queue:     deps.Queue,
		cache:     deps.Cache,
		notifier:  deps.Notifier,
		artifacts: deps.Artifacts,
		publisher: deps.Publisher,
		opts:      opts,
	}
	e.registerTasks()
	return e
}

// Create books a parcel for the caller, or for req.Customer when the caller is an admin.
func (e *Engine) Create(ctx context.Context, p identity.Principal, req *domain.BookingRequest) (*domain.Result, error) {
	if !domain.CanCreate(p) {
		return nil, apperr.Forbidden("Only customers and admins can book parcels")
	}
	if req == nil {
		return nil, apperr.NewValidation("request body is required")
	}

	owner, err := e.owner(ctx, p, req.Customer)
	if err != nil {
		return nil, err
	}

	parcel, err := domain.BuildParcel(req, owner, e.opts.DefaultCountry)
	if err != nil {
		return nil, err
	}

	ts := e.opts.Now()
	parcel.ID = e.opts.NewID()
	parcel.CreatedAt = ts
	parcel.UpdatedAt = ts
	parcel.Tracking = []domain.TrackingEvent{domain.CreatedEvent(parcel.ID, p.ID, ts)}

	l := logger.Get().With(zap.String("parcel_id", parcel.ID), zap.String("customer_id", parcel.CustomerID))
	for attempt := 1; ; attempt++ {
		parcel.TrackingNumber = e.opts.NewCode(e.opts.Now())
		err = e.repo.Create(ctx, parcel)
		if err == nil {
			break
		}
		if !errors.Is(err, apperr.ErrDuplicateKey) {
			return nil, fmt.Errorf("service: create parcel: %w", err)
		}
		if attempt == maxCodeAttempts {
			return nil, fmt.Errorf("service: create parcel: %w", apperr.Duplicate("Could not allocate a tracking number, please retry"))
		}
		l.Warn("Tracking number collision, regenerating", zap.String("tracking_number", parcel.TrackingNumber), zap.Int("attempt", attempt))
	}

	telemetry.ParcelsBooked.Inc()
	l.Info("Parcel booked", zap.String("tracking_number", parcel.TrackingNumber))

	change := domain.NewChangeEvent(domain.EventParcelCreated, parcel, parcel.Tracking[0])
	var warnings []string
	e.schedule(ctx, &warnings, TaskGenerateArtifacts, artifactTask{ParcelID: parcel.ID}, "QR code generation could not be scheduled")
	e.schedule(ctx, &warnings, TaskNotifyCustomer, notifyTask{Event: change}, "Booking confirmation email could not be scheduled")
	e.schedule(ctx, &warnings, TaskPublishEvent, publishTask{Event: change}, "Real-time update could not be scheduled")

	return &domain.Result{Parcel: parcel.NewestFirst(), Warnings: warnings}, nil
}

// owner resolves the customer a booking belongs to. Admins without an
// explicit customer book under their own account.
func (e *Engine) owner(ctx context.Context, p identity.Principal, onBehalfOf string) (identity.Contact, error) {
	if p.Is(identity.RoleAdmin) && onBehalfOf != "" {
		c, err := e.directory.Contact(ctx, onBehalfOf)
		if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return identity.Contact{}, fmt.Errorf("service: resolve customer: %w", err)
		}
		if err != nil || c.Role != identity.RoleCustomer {
			return identity.Contact{}, apperr.NewValidation("customer must reference an existing customer account")
		}
		return c, nil
	}

	c, err := e.directory.Contact(ctx, p.ID)
	if errors.Is(err, apperr.ErrNotFound) {
		return identity.Contact{}, apperr.Unauthorized("User account no longer exists")
	}
	if err != nil {
		return identity.Contact{}, fmt.Errorf("service: resolve owner: %w", err)
	}
	return c, nil
}

// Transition moves a parcel to a new status and appends one log entry.
func (e *Engine) Transition(ctx context.Context, p identity.Principal, id string, req *domain.TransitionRequest) (*domain.Result, error) {
	if !p.Is(identity.RoleAdmin) && !p.Is(identity.RoleAgent) {
		return nil, apperr.Forbidden("Only agents and admins can update parcel status")
	}
	if err := validID(id); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, apperr.NewValidation("status is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.AgentID != "" && !p.Is(identity.RoleAdmin) {
		return nil, apperr.Forbidden("Only admins can assign agents")
	}

	parcel, err := e.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service: load parcel: %w", err)
	}
	if !domain.CanTransition(p, parcel) {
		return nil, e.denied("You cannot update this parcel")
	}
	if err := e.opts.Transitions.Check(parcel.Delivery.Status, req.Status); err != nil {
		return nil, apperr.Invalid(err.Error())
	}
	if req.AgentID != "" {
		ok, err := e.directory.IsActiveAgent(ctx, req.AgentID)
		if err != nil {
			return nil, fmt.Errorf("service: check agent: %w", err)
		}
		if !ok {
			return nil, apperr.NewValidation("agent must reference an active agent account")
		}
	}

	from := parcel.Delivery.Status
	ev := parcel.ApplyTransition(*req, p.ID, e.opts.Now())
	updated, err := e.repo.SaveTransition(ctx, parcel, ev)
	if err != nil {
		return nil, fmt.Errorf("service: save transition: %w", err)
	}

	telemetry.StatusTransitions.WithLabelValues(string(req.Status)).Inc()
	logger.Get().Info("Parcel status updated",
		zap.String("parcel_id", updated.ID),
		zap.String("from", string(from)),
		zap.String("to", string(req.Status)),
		zap.String("actor", p.ID),
	)
	e.cache.Invalidate(ctx, updated.TrackingNumber)

	change := domain.NewChangeEvent(domain.EventStatusUpdated, updated, ev)
	var warnings []string
	e.schedule(ctx, &warnings, TaskNotifyCustomer, notifyTask{Event: change}, "Status notification could not be scheduled")
	e.schedule(ctx, &warnings, TaskPublishEvent, publishTask{Event: change}, "Real-time update could not be scheduled")

	return &domain.Result{Parcel: updated.NewestFirst(), Warnings: warnings}, nil
}

// TrackByCode returns the parcel with the given tracking number to any
// authenticated caller, with its history newest first.
func (e *Engine) TrackByCode(ctx context.Context, code string) (*domain.Parcel, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperr.NewValidation("trackingNumber is required")
	}
	if !domain.ValidTrackingCode(code) {
		return nil, apperr.NewValidation("trackingNumber is not a valid tracking number")
	}

	cached, version, ok := e.cache.Get(ctx, code)
	if ok {
		telemetry.TrackCacheLookups.WithLabelValues("hit").Inc()
		return cached.NewestFirst(), nil
	}
	telemetry.TrackCacheLookups.WithLabelValues("miss").Inc()

	parcel, err := e.repo.FindByTrackingNumber(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("service: track %s: %w", code, err)
	}
	e.cache.Set(ctx, parcel, version)
	return parcel.NewestFirst(), nil
}

// Get returns one parcel if the caller may view it.
func (e *Engine) Get(ctx context.Context, p identity.Principal, id string) (*domain.Parcel, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	parcel, err := e.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service: get parcel: %w", err)
	}
	if !domain.CanView(p, parcel) {
		return nil, e.denied("You cannot view this parcel")
	}
	return parcel.NewestFirst(), nil
}

// List returns the caller's scoped, filtered page of parcels.
func (e *Engine) List(ctx context.Context, p identity.Principal, params domain.ListParams) (domain.Page, error) {
	return e.list(ctx, domain.ScopeFor(p), params)
}

// MyParcels is the customer shortcut for their own parcels.
func (e *Engine) MyParcels(ctx context.Context, p identity.Principal, params domain.ListParams) (domain.Page, error) {
	if !p.Is(identity.RoleCustomer) {
		return domain.Page{}, apperr.Forbidden("Only customers have their own parcels")
	}
	return e.list(ctx, domain.Scope{CustomerID: p.ID}, params)
}

func (e *Engine) list(ctx context.Context, scope domain.Scope, params domain.ListParams) (domain.Page, error) {
	q, err := domain.NewListQuery(scope, params.Status, params.Search, params.Page, params.Limit)
	if err != nil {
		return domain.Page{}, err
	}
	parcels, total, err := e.repo.List(ctx, q)
	if err != nil {
		return domain.Page{}, fmt.Errorf("service: list parcels: %w", err)
	}
	for i := range parcels {
		parcels[i] = *parcels[i].NewestFirst()
	}
	return domain.NewPage(q, parcels, total), nil
}

// ComputeMetrics returns dashboard counters over the caller's scope.
func (e *Engine) ComputeMetrics(ctx context.Context, p identity.Principal) (*domain.Metrics, error) {
	scope := domain.ScopeFor(p)

	rows, err := e.repo.AggregateByStatus(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("service: aggregate by status: %w", err)
	}
	var m domain.Metrics
	m.ApplyAggregates(rows)

	dayStart := now.New(e.opts.Now().In(e.opts.Location)).BeginningOfDay()
	if m.Today, err = e.repo.CountCreatedBetween(ctx, scope, dayStart, dayStart.AddDate(0, 0, 1)); err != nil {
		return nil, fmt.Errorf("service: count today: %w", err)
	}
	if m.TotalCOD, err = e.repo.SumOutstandingCOD(ctx, scope); err != nil {
		return nil, fmt.Errorf("service: sum cod: %w", err)
	}

	weekStart := dayStart.AddDate(0, 0, -(domain.WeeklyWindow - 1))
	activity, err := e.repo.ActivitySince(ctx, scope, weekStart)
	if err != nil {
		return nil, fmt.Errorf("service: weekly activity: %w", err)
	}
	m.Weekly = domain.BuildWeekly(activity, weekStart, domain.WeeklyWindow)
	return &m, nil
}

// denied hides existence when configured to.
func (e *Engine) denied(msg string) error {
	if e.opts.HideForbidden {
		return apperr.NotFound("Parcel not found")
	}
	return apperr.Forbidden(msg)
}

func validID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.Invalid("Invalid parcel id")
	}
	return nil
}

// schedule enqueues a side effect, turning a scheduling failure into a warning.
// The task outlives the request, so the request's cancellation is dropped.
func (e *Engine) schedule(ctx context.Context, warnings *[]string, kind string, payload any, warning string) {
	if !e.handled[kind] {
		return
	}
	if err := e.queue.Enqueue(context.WithoutCancel(ctx), kind, payload); err != nil {
		logger.Get().Warn("Failed to schedule side effect", zap.String("task_kind", kind), zap.Error(err))
		*warnings = append(*warnings, warning)
	}
}

type noCache struct{}

func (noCache) Get(context.Context, string) (*domain.Parcel, string, bool) { return nil, "", false }
func (noCache) Set(context.Context, *domain.Parcel, string)                {}
func (noCache) Invalidate(context.Context, string)                         {}
