package tiers

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/padmaajarasooi/padmaaja-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a tiers repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, tier *models.PartnershipTier) (*models.PartnershipTier, error) {
	if err := r.db.WithContext(ctx).Create(tier).Error; err != nil {
		return nil, err
	}
	return tier, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PartnershipTier, error) {
	var tier models.PartnershipTier
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&tier).Error
	if err != nil {
		return nil, err
	}
	return &tier, nil
}

func (r *repository) FindByName(ctx context.Context, name string) (*models.PartnershipTier, error) {
	var tier models.PartnershipTier
	err := r.db.WithContext(ctx).
		Where("lower(name) = lower(?)", strings.TrimSpace(name)).
		First(&tier).Error
	if err != nil {
		return nil, err
	}
	return &tier, nil
}

func (r *repository) List(ctx context.Context, activeOnly bool) ([]models.PartnershipTier, error) {
	q := r.db.WithContext(ctx).Order("price ASC").Order("name ASC")
	if activeOnly {
		q = q.Where("is_active = TRUE")
	}
	var rows []models.PartnershipTier
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.PartnershipTier{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// ClaimSeat takes one seat with a conditional increment so concurrent
// allocations can never exceed capacity. The boolean reports whether a seat
// was taken.
func (r *repository) ClaimSeat(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PartnershipTier{}).
		Where("id = ?", id).
		Where("is_active = TRUE").
		Where("current_count < max_capacity").
		Update("current_count", gorm.Expr("current_count + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ReleaseSeat(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.PartnershipTier{}).
		Where("id = ?", id).
		Where("current_count > 0").
		Update("current_count", gorm.Expr("current_count - 1")).Error
}
