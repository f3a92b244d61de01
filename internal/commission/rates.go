package commission

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/padmaajarasooi/padmaaja-backend/pkg/db/models"
	pkgerrors "github.com/padmaajarasooi/padmaaja-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// RatesService manages the admin-owned level->percent schedule.
type RatesService interface {
	List(ctx context.Context) ([]RateView, error)
	Replace(ctx context.Context, req UpdateRatesRequest, adminID uuid.UUID) ([]RateView, error)
}

type ratesService struct {
	repo Repository
	tx   txRunner
}

// NewRatesService builds the rate schedule service.
func NewRatesService(repo Repository, tx txRunner) (RatesService, error) {
	if repo == nil {
		return nil, errors.New("commission repository required")
	}
	if tx == nil {
		return nil, errors.New("transaction runner required")
	}
	return &ratesService{repo: repo, tx: tx}, nil
}

func (s *ratesService) List(ctx context.Context) ([]RateView, error) {
	rows, err := s.repo.ListRates(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list rates")
	}
	views := make([]RateView, 0, len(rows))
	for _, row := range rows {
		views = append(views, RateView{Level: row.Level, Percent: row.Percent})
	}
	return views, nil
}

// Replace swaps the entire schedule atomically. Levels must be contiguous
// from 1 and percents must sit in [0,100]; a rejected write leaves the
// previous schedule untouched.
func (s *ratesService) Replace(ctx context.Context, req UpdateRatesRequest, adminID uuid.UUID) ([]RateView, error) {
	rows, err := buildSchedule(req, adminID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).ReplaceRates(ctx, rows)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace rates")
	}

	views := make([]RateView, 0, len(rows))
	for _, row := range rows {
		views = append(views, RateView{Level: row.Level, Percent: row.Percent})
	}
	return views, nil
}

func buildSchedule(req UpdateRatesRequest, adminID uuid.UUID) ([]models.CommissionRate, error) {
	if len(req.Rates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one rate level is required")
	}

	inputs := make([]RateInput, len(req.Rates))
	copy(inputs, req.Rates)
	sort.Slice(inputs, func(i, j int) bool { return inputs[i].Level < inputs[j].Level })

	var updatedBy *uuid.UUID
	if adminID != uuid.Nil {
		updatedBy = &adminID
	}

	rows := make([]models.CommissionRate, 0, len(inputs))
	for i, input := range inputs {
		if input.Level != i+1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("levels must be contiguous from 1; missing level %d", i+1))
		}
		percent, err := decimal.NewFromString(strings.TrimSpace(input.Percent))
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("percent for level %d must be a decimal number", input.Level))
		}
		if percent.IsNegative() || percent.GreaterThan(oneHundred) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("percent for level %d must be between 0 and 100", input.Level))
		}
		rows = append(rows, models.CommissionRate{
			Level:     input.Level,
			Percent:   percent.Round(2),
			UpdatedBy: updatedBy,
		})
	}
	return rows, nil
}
