package adapters

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"parcel-tracker/internal/core/apperr"
	"parcel-tracker/internal/features/parcels/domain"

	"gorm.io/gorm"
)

// Models lists the tables owned by the parcel store, for migrations.
func Models() []any {
	return []any{&domain.Parcel{}, &domain.TrackingEvent{}}
}

// GormRepository implements ports.Repository on Postgres through gorm.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a new GormRepository.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Create inserts the parcel and its tracking log in one transaction.
func (r *GormRepository) Create(ctx context.Context, p *domain.Parcel) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return translate("insert parcel", err)
	}
	return nil
}

// FindByID loads a parcel and its log in insertion order.
func (r *GormRepository) FindByID(ctx context.Context, id string) (*domain.Parcel, error) {
	return r.findOne(r.db.WithContext(ctx), "id = ?", id)
}

// FindByTrackingNumber loads a parcel by its public code.
func (r *GormRepository) FindByTrackingNumber(ctx context.Context, code string) (*domain.Parcel, error) {
	return r.findOne(r.db.WithContext(ctx), "tracking_number = ?", code)
}

func (r *GormRepository) findOne(tx *gorm.DB, query string, arg any) (*domain.Parcel, error) {
	var p domain.Parcel
	err := withTracking(tx).Where(query, arg).First(&p).Error
	if err != nil {
		return nil, translate("find parcel", err)
	}
	return &p, nil
}

// List returns one page of parcels, newest first, and the total match count.
func (r *GormRepository) List(ctx context.Context, q domain.ListQuery) ([]domain.Parcel, int64, error) {
	base := scoped(r.db.WithContext(ctx).Model(&domain.Parcel{}), q.Scope)
	if q.Status != "" {
		base = base.Where("delivery_status = ?", q.Status)
	}
	if q.Search != "" {
		like := "%" + escapeLike(q.Search) + "%"
		base = base.Where(
			"tracking_number ILIKE ? OR sender_name ILIKE ? OR receiver_name ILIKE ? OR sender_phone ILIKE ? OR receiver_phone ILIKE ?",
			like, like, like, like, like,
		)
	}
	base = base.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, translate("count parcels", err)
	}

	var parcels []domain.Parcel
	err := withTracking(base).
		Order("created_at DESC").
		Offset(q.Offset()).
		Limit(q.Limit).
		Find(&parcels).Error
	if err != nil {
		return nil, 0, translate("list parcels", err)
	}
	return parcels, total, nil
}

// SaveTransition updates the mutable delivery and payment columns and
// appends ev in one transaction. Concurrent transitions are not serialized:
// the last writer wins on the columns and every event is kept.
func (r *GormRepository) SaveTransition(ctx context.Context, p *domain.Parcel, ev domain.TrackingEvent) (*domain.Parcel, error) {
	var out *domain.Parcel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Parcel{}).Where("id = ?", p.ID).Updates(map[string]any{
			"delivery_status":             p.Delivery.Status,
			"delivery_agent_id":           p.Delivery.AgentID,
			"delivery_estimated_delivery": nullableTime(p.Delivery.EstimatedDelivery),
			"delivery_actual_delivery":    nullableTime(p.Delivery.ActualDelivery),
			"delivery_delivery_notes":     p.Delivery.DeliveryNotes,
			"delivery_failed_reason":      p.Delivery.FailedReason,
			"delivery_proof_image":        p.Delivery.Proof.Image,
			"delivery_proof_signature":    p.Delivery.Proof.Signature,
			"delivery_proof_notes":        p.Delivery.Proof.Notes,
			"payment_status":              p.Payment.Status,
			"updated_at":                  p.UpdatedAt,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		ev.ParcelID = p.ID
		if err := tx.Create(&ev).Error; err != nil {
			return err
		}

		var err error
		out, err = r.findOne(tx, "id = ?", p.ID)
		return err
	})
	if err != nil {
		return nil, translate("save transition", err)
	}
	return out, nil
}

// SetArtifacts stores the generated artifact references.
func (r *GormRepository) SetArtifacts(ctx context.Context, id, qrCode, barcode string) error {
	res := r.db.WithContext(ctx).Model(&domain.Parcel{}).Where("id = ?", id).
		Updates(map[string]any{"qr_code": qrCode, "barcode": barcode})
	if res.Error != nil {
		return translate("set artifacts", res.Error)
	}
	if res.RowsAffected == 0 {
		return translate("set artifacts", gorm.ErrRecordNotFound)
	}
	return nil
}

// AggregateByStatus counts parcels and sums payment amounts per status.
func (r *GormRepository) AggregateByStatus(ctx context.Context, scope domain.Scope) ([]domain.StatusAggregate, error) {
	var rows []domain.StatusAggregate
	err := scoped(r.db.WithContext(ctx).Model(&domain.Parcel{}), scope).
		Select("delivery_status AS status, COUNT(*) AS count, COALESCE(SUM(payment_amount), 0) AS total_amount").
		Group("delivery_status").
		Scan(&rows).Error
	if err != nil {
		return nil, translate("aggregate by status", err)
	}
	return rows, nil
}

// CountCreatedBetween counts parcels created in [from, to).
func (r *GormRepository) CountCreatedBetween(ctx context.Context, scope domain.Scope, from, to time.Time) (int64, error) {
	var n int64
	err := scoped(r.db.WithContext(ctx).Model(&domain.Parcel{}), scope).
		Where("created_at >= ? AND created_at < ?", from, to).
		Count(&n).Error
	if err != nil {
		return 0, translate("count created", err)
	}
	return n, nil
}

// SumOutstandingCOD sums payment.amount of cod parcels with pending payment.
func (r *GormRepository) SumOutstandingCOD(ctx context.Context, scope domain.Scope) (float64, error) {
	var sum float64
	err := scoped(r.db.WithContext(ctx).Model(&domain.Parcel{}), scope).
		Select("COALESCE(SUM(payment_amount), 0)").
		Where("payment_method = ? AND payment_status = ?", domain.PaymentCOD, domain.PaymentPending).
		Scan(&sum).Error
	if err != nil {
		return 0, translate("sum cod", err)
	}
	return sum, nil
}

// ActivitySince returns creation time and status of parcels created at or after since.
func (r *GormRepository) ActivitySince(ctx context.Context, scope domain.Scope, since time.Time) ([]domain.Activity, error) {
	var rows []domain.Activity
	err := scoped(r.db.WithContext(ctx).Model(&domain.Parcel{}), scope).
		Select("created_at, delivery_status AS status").
		Where("created_at >= ?", since).
		Scan(&rows).Error
	if err != nil {
		return nil, translate("weekly activity", err)
	}
	return rows, nil
}

// CountActive counts parcels not in a terminal status.
func (r *GormRepository) CountActive(ctx context.Context, scope domain.Scope) (int64, error) {
	var n int64
	err := scoped(r.db.WithContext(ctx).Model(&domain.Parcel{}), scope).
		Where("delivery_status NOT IN ?", domain.TerminalStatuses).
		Count(&n).Error
	if err != nil {
		return 0, translate("count active", err)
	}
	return n, nil
}

func withTracking(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Tracking", func(db *gorm.DB) *gorm.DB {
		return db.Order("seq ASC")
	})
}

func scoped(tx *gorm.DB, s domain.Scope) *gorm.DB {
	if s.None {
		return tx.Where("1 = 0")
	}
	if s.CustomerID != "" {
		tx = tx.Where("customer_id = ?", s.CustomerID)
	}
	if s.AgentID != "" {
		tx = tx.Where("delivery_agent_id = ?", s.AgentID)
	}
	return tx
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

// translate maps gorm errors onto the shared error kinds.
func translate(op string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, apperr.NotFound("Parcel not found"))
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, apperr.ErrDuplicateKey)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
