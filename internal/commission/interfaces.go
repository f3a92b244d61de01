package commission

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/padmaajarasooi/padmaaja-backend/pkg/db/models"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/enums"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/pagination"
)

// Repository defines persistence operations for commissions and the rate
// schedule.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateCommissions(ctx context.Context, rows []models.Commission) error
	ExistsForOrder(ctx context.Context, orderID uuid.UUID) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Commission, error)
	ListByEarner(ctx context.Context, earnerID uuid.UUID, params pagination.Params, filters Filters) (*List, error)
	List(ctx context.Context, params pagination.Params, filters Filters) (*List, error)
	SummaryByEarner(ctx context.Context, earnerID uuid.UUID) (*Summary, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.CommissionStatus, updates map[string]any) error
	CancelPendingByOrder(ctx context.Context, orderID uuid.UUID) (int64, error)
	SumApprovedUnallocated(ctx context.Context, earnerID uuid.UUID) (decimal.Decimal, error)
	ListApprovedUnallocated(ctx context.Context, earnerID uuid.UUID) ([]models.Commission, error)
	SumByEarners(ctx context.Context, earnerIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
	ExportQuery(ctx context.Context, filters Filters) *gorm.DB

	ListRates(ctx context.Context) ([]models.CommissionRate, error)
	ReplaceRates(ctx context.Context, rows []models.CommissionRate) error
}
