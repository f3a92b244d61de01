package bulk

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/padmaajarasooi/padmaaja-backend/internal/catalog"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/db/models"
	pkgerrors "github.com/padmaajarasooi/padmaaja-backend/pkg/errors"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/logger"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/metrics"
)

// productColumns is the required CSV header, in order.
var productColumns = []string{"sku", "name", "description", "category_slug", "price", "stock_qty", "is_active"}

const importJobName = "product_import"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ImportResult reports what a product import did.
type ImportResult struct {
	Rows     int `json:"rows"`
	Imported int `json:"imported"`
}

// Importer loads product CSV files. An import is all-or-nothing: any bad row
// fails the whole file with every row error reported at once.
type Importer struct {
	catalog catalog.Repository
	tx      txRunner
	logg    *logger.Logger
	metrics *metrics.JobMetrics
}

// ImporterParams bundles the importer dependencies.
type ImporterParams struct {
	Catalog catalog.Repository
	Tx      txRunner
	Logger  *logger.Logger
	Metrics *metrics.JobMetrics
}

// NewImporter builds a CSV product importer.
func NewImporter(params ImporterParams) (*Importer, error) {
	if params.Catalog == nil {
		return nil, errors.New("catalog repository required")
	}
	if params.Tx == nil {
		return nil, errors.New("transaction runner required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	return &Importer{
		catalog: params.Catalog,
		tx:      params.Tx,
		logg:    params.Logger,
		metrics: params.Metrics,
	}, nil
}

// ImportProducts reads the CSV stream and creates every product in one
// transaction.
func (i *Importer) ImportProducts(ctx context.Context, input io.Reader) (*ImportResult, error) {
	start := time.Now()

	result, err := i.importProducts(ctx, input)
	i.metrics.ObserveDuration(importJobName, time.Since(start))
	if err != nil {
		i.metrics.IncFailure(importJobName)
		return nil, err
	}
	i.metrics.IncSuccess(importJobName)

	ctx = i.logg.WithFields(ctx, map[string]any{"rows": result.Rows, "imported": result.Imported})
	i.logg.Info(ctx, "product import finished")
	return result, nil
}

func (i *Importer) importProducts(ctx context.Context, input io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(input)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "csv file is empty")
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	categories, err := i.categoryIndex(ctx)
	if err != nil {
		return nil, err
	}

	var (
		rows     []models.Product
		rowErrs  error
		seenSKUs = map[string]int{}
		rowNum   = 1
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++
		if err != nil {
			rowErrs = multierr.Append(rowErrs, fmt.Errorf("row %d: %w", rowNum, err))
			continue
		}

		product, err := parseProductRow(record, categories)
		if err != nil {
			rowErrs = multierr.Append(rowErrs, fmt.Errorf("row %d: %w", rowNum, err))
			continue
		}
		if first, dup := seenSKUs[product.SKU]; dup {
			rowErrs = multierr.Append(rowErrs, fmt.Errorf("row %d: sku %s duplicates row %d", rowNum, product.SKU, first))
			continue
		}
		seenSKUs[product.SKU] = rowNum
		rows = append(rows, *product)
	}

	if rowErrs != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, rowErrs,
			fmt.Sprintf("%d rows rejected", len(multierr.Errors(rowErrs))))
	}
	if len(rows) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "csv file has no data rows")
	}

	err = i.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := i.catalog.WithTx(tx).CreateProducts(ctx, rows); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert products")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &ImportResult{Rows: rowNum - 1, Imported: len(rows)}, nil
}

func (i *Importer) categoryIndex(ctx context.Context) (map[string]uuid.UUID, error) {
	categories, err := i.catalog.ListCategories(ctx, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load categories")
	}
	index := make(map[string]uuid.UUID, len(categories))
	for _, category := range categories {
		index[category.Slug] = category.ID
	}
	return index, nil
}

func checkHeader(header []string) error {
	if len(header) != len(productColumns) {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("expected %d columns, got %d", len(productColumns), len(header)))
	}
	for idx, want := range productColumns {
		if strings.ToLower(strings.TrimSpace(header[idx])) != want {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("column %d must be %q", idx+1, want))
		}
	}
	return nil
}

func parseProductRow(record []string, categories map[string]uuid.UUID) (*models.Product, error) {
	if len(record) != len(productColumns) {
		return nil, fmt.Errorf("expected %d fields, got %d", len(productColumns), len(record))
	}

	sku := strings.TrimSpace(record[0])
	if sku == "" {
		return nil, fmt.Errorf("sku is required")
	}
	name := strings.TrimSpace(record[1])
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}

	var description *string
	if text := strings.TrimSpace(record[2]); text != "" {
		description = &text
	}

	slug := strings.ToLower(strings.TrimSpace(record[3]))
	if slug == "" {
		return nil, fmt.Errorf("category_slug is required")
	}
	categoryID, ok := categories[slug]
	if !ok {
		return nil, fmt.Errorf("unknown category %q", slug)
	}

	price, err := decimal.NewFromString(strings.TrimSpace(record[4]))
	if err != nil || price.IsNegative() {
		return nil, fmt.Errorf("invalid price %q", record[4])
	}

	stock, err := strconv.Atoi(strings.TrimSpace(record[5]))
	if err != nil || stock < 0 {
		return nil, fmt.Errorf("invalid stock_qty %q", record[5])
	}

	active := true
	if raw := strings.TrimSpace(record[6]); raw != "" {
		active, err = strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid is_active %q", record[6])
		}
	}

	return &models.Product{
		SKU:         sku,
		Name:        name,
		Description: description,
		CategoryID:  categoryID,
		Price:       price.Round(2),
		StockQty:    stock,
		IsActive:    active,
	}, nil
}
