package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adopaw/adopaw-backend/internal/domain/pet"
	"github.com/adopaw/adopaw-backend/internal/pkg/logger"
)

// PetFilters narrows pet listings. Zero values mean "no filter".
type PetFilters struct {
	Species string
	Status  string
	City    string
	OwnerID *uuid.UUID
}

type PetRepo interface {
	Create(ctx context.Context, tx *gorm.DB, p *pet.Pet) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*pet.Pet, error)
	List(ctx context.Context, tx *gorm.DB, filters PetFilters) ([]*pet.Pet, error)
	ListPaginated(ctx context.Context, tx *gorm.DB, filters PetFilters, page, limit int) ([]*pet.Pet, int64, error)
	// ListAvailableWithCoords returns available pets that carry coordinates;
	// distance sorting happens in the service.
	ListAvailableWithCoords(ctx context.Context, tx *gorm.DB) ([]*pet.Pet, error)
	Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) (*pet.Pet, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
}

type petRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPetRepo(db *gorm.DB, baseLog *logger.Logger) PetRepo {
	return &petRepo{db: db, log: baseLog.With("repo", "PetRepo")}
}

func (r *petRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func applyPetFilters(q *gorm.DB, filters PetFilters) *gorm.DB {
	if filters.Species != "" {
		q = q.Where("species = ?", filters.Species)
	}
	if filters.Status != "" {
		q = q.Where("status = ?", filters.Status)
	}
	if filters.City != "" {
		q = q.Where("city = ?", filters.City)
	}
	if filters.OwnerID != nil {
		q = q.Where("posted_by = ?", *filters.OwnerID)
	}
	return q
}

func (r *petRepo) Create(ctx context.Context, tx *gorm.DB, p *pet.Pet) error {
	return r.conn(tx).WithContext(ctx).Create(p).Error
}

func (r *petRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*pet.Pet, error) {
	var p pet.Pet
	err := r.conn(tx).WithContext(ctx).
		Preload("PostedBy").
		Where("id = ?", id).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *petRepo) List(ctx context.Context, tx *gorm.DB, filters PetFilters) ([]*pet.Pet, error) {
	var pets []*pet.Pet
	q := applyPetFilters(r.conn(tx).WithContext(ctx).Model(&pet.Pet{}), filters)
	err := q.Preload("PostedBy").Order("created_at DESC").Find(&pets).Error
	if err != nil {
		return nil, err
	}
	return pets, nil
}

func (r *petRepo) ListPaginated(ctx context.Context, tx *gorm.DB, filters PetFilters, page, limit int) ([]*pet.Pet, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	conn := r.conn(tx).WithContext(ctx)
	var total int64
	if err := applyPetFilters(conn.Model(&pet.Pet{}), filters).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var pets []*pet.Pet
	q := applyPetFilters(conn.Model(&pet.Pet{}), filters)
	err := q.Preload("PostedBy").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&pets).Error
	if err != nil {
		return nil, 0, err
	}
	return pets, total, nil
}

func (r *petRepo) ListAvailableWithCoords(ctx context.Context, tx *gorm.DB) ([]*pet.Pet, error) {
	var pets []*pet.Pet
	err := r.conn(tx).WithContext(ctx).
		Where("status = ?", pet.StatusAvailable).
		Where("latitude IS NOT NULL AND longitude IS NOT NULL").
		Find(&pets).Error
	if err != nil {
		return nil, err
	}
	return pets, nil
}

func (r *petRepo) Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) (*pet.Pet, error) {
	conn := r.conn(tx).WithContext(ctx)
	res := conn.Model(&pet.Pet{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return r.GetByID(ctx, tx, id)
}

func (r *petRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	res := r.conn(tx).WithContext(ctx).Where("id = ?", id).Delete(&pet.Pet{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
