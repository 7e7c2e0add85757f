package adapters

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"parcel-tracker/internal/core/apperr"
	"parcel-tracker/internal/features/users/domain"

	"gorm.io/gorm"
)

// Models lists the tables owned by the user store, for migrations.
func Models() []any {
	return []any{&domain.User{}}
}

// GormRepository implements ports.Repository on Postgres through gorm.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a new GormRepository.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Create(ctx context.Context, u *domain.User) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		return translate("insert user", err)
	}
	return nil
}

func (r *GormRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, translate("find user", err)
	}
	return &u, nil
}

func (r *GormRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate("find user by email", err)
	}
	return &u, nil
}

// Save writes every column, including zero values such as is_active=false.
func (r *GormRepository) Save(ctx context.Context, u *domain.User) error {
	res := r.db.WithContext(ctx).Model(u).Select("*").Omit("id", "created_at").Updates(u)
	if res.Error != nil {
		return translate("update user", res.Error)
	}
	if res.RowsAffected == 0 {
		return translate("update user", gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *GormRepository) TouchLogin(ctx context.Context, id string, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login", at).Error
	if err != nil {
		return translate("touch login", err)
	}
	return nil
}

// List filters by role and a case-insensitive search over name, email and phone.
func (r *GormRepository) List(ctx context.Context, q domain.Query) ([]domain.User, int64, error) {
	base := r.db.WithContext(ctx).Model(&domain.User{})
	if q.Role != "" {
		base = base.Where("role = ?", q.Role)
	}
	if q.Search != "" {
		like := "%" + escapeLike(q.Search) + "%"
		base = base.Where("name ILIKE ? OR email ILIKE ? OR phone ILIKE ?", like, like, like)
	}
	base = base.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, translate("count users", err)
	}

	var users []domain.User
	err := base.Order("created_at DESC").Offset(q.Offset()).Limit(q.Limit).Find(&users).Error
	if err != nil {
		return nil, 0, translate("list users", err)
	}
	return users, total, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func translate(op string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, apperr.NotFound("User not found"))
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, apperr.ErrDuplicateKey)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
