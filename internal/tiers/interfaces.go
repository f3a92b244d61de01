package tiers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/padmaajarasooi/padmaaja-backend/pkg/db/models"
)

// Repository defines persistence operations for partnership tiers.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, tier *models.PartnershipTier) (*models.PartnershipTier, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.PartnershipTier, error)
	FindByName(ctx context.Context, name string) (*models.PartnershipTier, error)
	List(ctx context.Context, activeOnly bool) ([]models.PartnershipTier, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ClaimSeat(ctx context.Context, id uuid.UUID) (bool, error)
	ReleaseSeat(ctx context.Context, id uuid.UUID) error
}
