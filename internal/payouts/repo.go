package payouts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/padmaajarasooi/padmaaja-backend/pkg/db/models"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a payouts repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create persists the payout together with the links to the commissions
// funding it.
func (r *repository) Create(ctx context.Context, payout *models.Payout, commissionIDs []uuid.UUID) (*models.Payout, error) {
	if err := r.db.WithContext(ctx).Create(payout).Error; err != nil {
		return nil, err
	}
	if len(commissionIDs) > 0 {
		links := make([]models.PayoutCommission, 0, len(commissionIDs))
		for _, id := range commissionIDs {
			links = append(links, models.PayoutCommission{PayoutID: payout.ID, CommissionID: id})
		}
		if err := r.db.WithContext(ctx).Create(&links).Error; err != nil {
			return nil, err
		}
	}
	return payout, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payout, error) {
	var payout models.Payout
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&payout).Error
	if err != nil {
		return nil, err
	}
	return &payout, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Payout, error) {
	var payout models.Payout
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&payout).Error
	if err != nil {
		return nil, err
	}
	return &payout, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params, filters Filters) (*List, error) {
	q := r.listQuery(ctx, filters).Where("user_id = ?", userID)
	return r.paginate(q, params)
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters Filters) (*List, error) {
	return r.paginate(r.listQuery(ctx, filters), params)
}

func (r *repository) listQuery(ctx context.Context, filters Filters) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Payout{})
	if filters.Status != nil {
		q = q.Where("status = ?", *filters.Status)
	}
	return q
}

func (r *repository) paginate(q *gorm.DB, params pagination.Params) (*List, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	q = q.Order("created_at DESC").Order("id DESC").Limit(limit)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Payout
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &List{}
	pageSize := pagination.NormalizeLimit(params.Limit)
	if len(rows) > pageSize {
		last := rows[pageSize-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		rows = rows[:pageSize]
	}
	list.Payouts = rows
	return list, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Payout{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) FundingCommissionIDs(ctx context.Context, payoutID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.PayoutCommission{}).
		Where("payout_id = ?", payoutID).
		Pluck("commission_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ReleaseFunding detaches the funding commissions from a rejected payout so
// they count as available again.
func (r *repository) ReleaseFunding(ctx context.Context, payoutID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("payout_id = ?", payoutID).
		Delete(&models.PayoutCommission{}).Error
}
