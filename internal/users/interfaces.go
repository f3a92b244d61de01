package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/padmaajarasooi/padmaaja-backend/pkg/db/models"
)

// Repository defines persistence operations for the users table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByReferralCode(ctx context.Context, code string) (*models.User, error)
	ListBySponsorIDs(ctx context.Context, sponsorIDs []uuid.UUID) ([]models.User, error)
	CountBySponsor(ctx context.Context, sponsorID uuid.UUID) (int64, error)
	CountBySponsors(ctx context.Context, sponsorIDs []uuid.UUID) (map[uuid.UUID]int64, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}
