package payouts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/padmaajarasooi/padmaaja-backend/pkg/db/models"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/pagination"
)

// Repository defines persistence operations for payouts and their funding
// commission links.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, payout *models.Payout, commissionIDs []uuid.UUID) (*models.Payout, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payout, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Payout, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params, filters Filters) (*List, error)
	List(ctx context.Context, params pagination.Params, filters Filters) (*List, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, updates map[string]any) error
	FundingCommissionIDs(ctx context.Context, payoutID uuid.UUID) ([]uuid.UUID, error)
	ReleaseFunding(ctx context.Context, payoutID uuid.UUID) error
}
