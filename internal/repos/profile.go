package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adopaw/adopaw-backend/internal/domain/profile"
	"github.com/adopaw/adopaw-backend/internal/pkg/logger"
)

type ProfileRepo interface {
	Create(ctx context.Context, tx *gorm.DB, p *profile.Profile) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*profile.Profile, error)
	GetBySupaID(ctx context.Context, tx *gorm.DB, supaID string) (*profile.Profile, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*profile.Profile, error)
	// UpdateBySupaID applies the given column updates; email and supa_id are
	// not updatable through this path.
	UpdateBySupaID(ctx context.Context, tx *gorm.DB, supaID string, fields map[string]any) (*profile.Profile, error)
	DeleteBySupaID(ctx context.Context, tx *gorm.DB, supaID string) (bool, error)
}

type profileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProfileRepo(db *gorm.DB, baseLog *logger.Logger) ProfileRepo {
	return &profileRepo{db: db, log: baseLog.With("repo", "ProfileRepo")}
}

func (r *profileRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *profileRepo) Create(ctx context.Context, tx *gorm.DB, p *profile.Profile) error {
	return r.conn(tx).WithContext(ctx).Create(p).Error
}

func (r *profileRepo) getBy(ctx context.Context, tx *gorm.DB, query string, args ...any) (*profile.Profile, error) {
	var p profile.Profile
	err := r.conn(tx).WithContext(ctx).Where(query, args...).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *profileRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*profile.Profile, error) {
	return r.getBy(ctx, tx, "id = ?", id)
}

func (r *profileRepo) GetBySupaID(ctx context.Context, tx *gorm.DB, supaID string) (*profile.Profile, error) {
	return r.getBy(ctx, tx, "supa_id = ?", supaID)
}

func (r *profileRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*profile.Profile, error) {
	return r.getBy(ctx, tx, "email = ?", email)
}

func (r *profileRepo) UpdateBySupaID(ctx context.Context, tx *gorm.DB, supaID string, fields map[string]any) (*profile.Profile, error) {
	delete(fields, "email")
	delete(fields, "supa_id")
	conn := r.conn(tx).WithContext(ctx)
	res := conn.Model(&profile.Profile{}).Where("supa_id = ?", supaID).Updates(fields)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return r.GetBySupaID(ctx, tx, supaID)
}

func (r *profileRepo) DeleteBySupaID(ctx context.Context, tx *gorm.DB, supaID string) (bool, error) {
	res := r.conn(tx).WithContext(ctx).Where("supa_id = ?", supaID).Delete(&profile.Profile{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
