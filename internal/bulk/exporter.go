package bulk

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/padmaajarasooi/padmaaja-backend/internal/commission"
	"github.com/padmaajarasooi/padmaaja-backend/internal/orders"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/db/models"
	pkgerrors "github.com/padmaajarasooi/padmaaja-backend/pkg/errors"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/metrics"
)

const exportBatchSize = 500

type commissionExportSource interface {
	ExportQuery(ctx context.Context, filters commission.Filters) *gorm.DB
}

type orderExportSource interface {
	ExportQuery(ctx context.Context, filters orders.Filters) *gorm.DB
}

// Exporter streams commission and order CSV files, batching reads so exports
// stay flat on memory regardless of table size.
type Exporter struct {
	commissions commissionExportSource
	orders      orderExportSource
	metrics     *metrics.JobMetrics
}

// ExporterParams bundles the exporter dependencies.
type ExporterParams struct {
	Commissions commissionExportSource
	Orders      orderExportSource
	Metrics     *metrics.JobMetrics
}

// NewExporter builds a CSV exporter.
func NewExporter(params ExporterParams) (*Exporter, error) {
	if params.Commissions == nil {
		return nil, errors.New("commission export source required")
	}
	if params.Orders == nil {
		return nil, errors.New("order export source required")
	}
	return &Exporter{
		commissions: params.Commissions,
		orders:      params.Orders,
		metrics:     params.Metrics,
	}, nil
}

// ExportCommissions writes the filtered commissions as CSV.
func (e *Exporter) ExportCommissions(ctx context.Context, output io.Writer, filters commission.Filters) error {
	const job = "commission_export"
	start := time.Now()

	writer := csv.NewWriter(output)
	header := []string{"id", "order_id", "earner_id", "level", "type", "status", "base_amount", "amount", "created_at", "paid_at"}
	if err := writer.Write(header); err != nil {
		e.metrics.IncFailure(job)
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write csv header")
	}

	var batch []models.Commission
	err := e.commissions.ExportQuery(ctx, filters).
		FindInBatches(&batch, exportBatchSize, func(_ *gorm.DB, _ int) error {
			for _, row := range batch {
				record := []string{
					row.ID.String(),
					row.OrderID.String(),
					row.EarnerID.String(),
					strconv.Itoa(row.Level),
					string(row.Type),
					string(row.Status),
					row.BaseAmount.StringFixed(2),
					row.Amount.StringFixed(2),
					row.CreatedAt.UTC().Format(time.RFC3339),
					formatTime(row.PaidAt),
				}
				if err := writer.Write(record); err != nil {
					return err
				}
			}
			return nil
		}).Error
	e.metrics.ObserveDuration(job, time.Since(start))
	if err != nil {
		e.metrics.IncFailure(job)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "export commissions")
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		e.metrics.IncFailure(job)
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "flush csv")
	}
	e.metrics.IncSuccess(job)
	return nil
}

// ExportOrders writes the filtered orders as CSV.
func (e *Exporter) ExportOrders(ctx context.Context, output io.Writer, filters orders.Filters) error {
	const job = "order_export"
	start := time.Now()

	writer := csv.NewWriter(output)
	header := []string{"id", "order_number", "buyer_id", "status", "total", "created_at", "paid_at", "delivered_at"}
	if err := writer.Write(header); err != nil {
		e.metrics.IncFailure(job)
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write csv header")
	}

	var batch []models.Order
	err := e.orders.ExportQuery(ctx, filters).
		FindInBatches(&batch, exportBatchSize, func(_ *gorm.DB, _ int) error {
			for _, row := range batch {
				record := []string{
					row.ID.String(),
					row.OrderNumber,
					row.BuyerID.String(),
					string(row.Status),
					row.Total.StringFixed(2),
					row.CreatedAt.UTC().Format(time.RFC3339),
					formatTime(row.PaidAt),
					formatTime(row.DeliveredAt),
				}
				if err := writer.Write(record); err != nil {
					return err
				}
			}
			return nil
		}).Error
	e.metrics.ObserveDuration(job, time.Since(start))
	if err != nil {
		e.metrics.IncFailure(job)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "export orders")
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		e.metrics.IncFailure(job)
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "flush csv")
	}
	e.metrics.IncSuccess(job)
	return nil
}

func formatTime(value *time.Time) string {
	if value == nil {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}
