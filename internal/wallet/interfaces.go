package wallet

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/padmaajarasooi/padmaaja-backend/pkg/db/models"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/pagination"
)

// Repository defines persistence operations for wallet entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateEntry(ctx context.Context, entry *models.WalletEntry) (*models.WalletEntry, error)
	ListEntries(ctx context.Context, userID uuid.UUID, params pagination.Params) (*EntryList, error)
}
