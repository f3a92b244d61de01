package commission

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/padmaajarasooi/padmaaja-backend/pkg/db/models"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/enums"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a commission repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateCommissions(ctx context.Context, rows []models.Commission) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *repository) ExistsForOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Commission{}).
		Where("order_id = ?", orderID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Commission, error) {
	var row models.Commission
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) ListByEarner(ctx context.Context, earnerID uuid.UUID, params pagination.Params, filters Filters) (*List, error) {
	q := r.listQuery(ctx, filters).Where("earner_id = ?", earnerID)
	return r.paginate(q, params)
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters Filters) (*List, error) {
	return r.paginate(r.listQuery(ctx, filters), params)
}

func (r *repository) listQuery(ctx context.Context, filters Filters) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Commission{})
	if filters.Status != nil {
		q = q.Where("status = ?", *filters.Status)
	}
	if filters.Level != nil {
		q = q.Where("level = ?", *filters.Level)
	}
	if filters.DateFrom != nil {
		q = q.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		q = q.Where("created_at < ?", *filters.DateTo)
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

	var rows []models.Commission
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
	list.Commissions = rows
	return list, nil
}

func (r *repository) SummaryByEarner(ctx context.Context, earnerID uuid.UUID) (*Summary, error) {
	type bucket struct {
		Status enums.CommissionStatus
		Total  decimal.Decimal
		Count  int64
	}
	var buckets []bucket
	err := r.db.WithContext(ctx).
		Model(&models.Commission{}).
		Select("status, COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
		Where("earner_id = ?", earnerID).
		Group("status").
		Scan(&buckets).Error
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		PendingTotal:   decimal.Zero,
		ApprovedTotal:  decimal.Zero,
		PaidTotal:      decimal.Zero,
		CancelledTotal: decimal.Zero,
		LifetimeTotal:  decimal.Zero,
	}
	for _, b := range buckets {
		summary.Count += b.Count
		switch b.Status {
		case enums.CommissionStatusPending:
			summary.PendingTotal = b.Total
		case enums.CommissionStatusApproved:
			summary.ApprovedTotal = b.Total
		case enums.CommissionStatusPaid:
			summary.PaidTotal = b.Total
		case enums.CommissionStatusCancelled:
			summary.CancelledTotal = b.Total
		}
		if b.Status != enums.CommissionStatusCancelled {
			summary.LifetimeTotal = summary.LifetimeTotal.Add(b.Total)
		}
	}
	return summary, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.CommissionStatus, updates map[string]any) error {
	if updates == nil {
		updates = map[string]any{}
	}
	updates["status"] = status
	return r.db.WithContext(ctx).
		Model(&models.Commission{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// CancelPendingByOrder flips an order's not-yet-reviewed commissions when the
// order itself is cancelled. Approved and paid rows are left alone.
func (r *repository) CancelPendingByOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Commission{}).
		Where("order_id = ?", orderID).
		Where("status = ?", enums.CommissionStatusPending).
		Update("status", enums.CommissionStatusCancelled)
	return res.RowsAffected, res.Error
}

func (r *repository) SumApprovedUnallocated(ctx context.Context, earnerID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&models.Commission{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("earner_id = ?", earnerID).
		Where("status = ?", enums.CommissionStatusApproved).
		Where("id NOT IN (SELECT commission_id FROM payout_commissions)").
		Scan(&total).Error
	return total, err
}

// ListApprovedUnallocated locks the funding candidates so two concurrent
// payout requests cannot claim the same commission.
func (r *repository) ListApprovedUnallocated(ctx context.Context, earnerID uuid.UUID) ([]models.Commission, error) {
	var rows []models.Commission
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("earner_id = ?", earnerID).
		Where("status = ?", enums.CommissionStatusApproved).
		Where("id NOT IN (SELECT commission_id FROM payout_commissions)").
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) SumByEarners(ctx context.Context, earnerIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	result := make(map[uuid.UUID]decimal.Decimal, len(earnerIDs))
	if len(earnerIDs) == 0 {
		return result, nil
	}
	type row struct {
		EarnerID uuid.UUID
		Total    decimal.Decimal
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Commission{}).
		Select("earner_id, COALESCE(SUM(amount), 0) AS total").
		Where("earner_id IN ?", earnerIDs).
		Where("status <> ?", enums.CommissionStatusCancelled).
		Group("earner_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		result[r.EarnerID] = r.Total
	}
	return result, nil
}

// ExportQuery returns the filtered query used by the CSV export streamer.
func (r *repository) ExportQuery(ctx context.Context, filters Filters) *gorm.DB {
	return r.listQuery(ctx, filters).Order("created_at ASC").Order("id ASC")
}

func (r *repository) ListRates(ctx context.Context) ([]models.CommissionRate, error) {
	var rows []models.CommissionRate
	err := r.db.WithContext(ctx).
		Order("level ASC").
		Find(&rows).Error
	return rows, err
}

// ReplaceRates swaps the whole schedule in one statement pair; callers run it
// inside a transaction.
func (r *repository) ReplaceRates(ctx context.Context, rows []models.CommissionRate) error {
	if err := r.db.WithContext(ctx).
		Where("1 = 1").
		Delete(&models.CommissionRate{}).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}
