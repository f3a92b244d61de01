package commission

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/padmaajarasooi/padmaaja-backend/pkg/db/models"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/enums"
	pkgerrors "github.com/padmaajarasooi/padmaaja-backend/pkg/errors"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/metrics"
)

var oneHundred = decimal.NewFromInt(100)

type rateSource interface {
	ListRates(ctx context.Context) ([]models.CommissionRate, error)
}

type ancestorSource interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type commissionSink interface {
	ExistsForOrder(ctx context.Context, orderID uuid.UUID) (bool, error)
	CreateCommissions(ctx context.Context, rows []models.Commission) error
}

// Engine walks the buyer's sponsor chain and writes one pending commission
// row per ancestor reached. All dependencies must already be bound to the
// transaction that carries the order's paid transition, so the rows commit
// or roll back together with the status change.
type Engine struct {
	rates       rateSource
	users       ancestorSource
	commissions commissionSink
	maxLevels   int
	metrics     *metrics.CommissionMetrics
}

// EngineParams bundles the engine dependencies.
type EngineParams struct {
	Rates       rateSource
	Users       ancestorSource
	Commissions commissionSink
	MaxLevels   int
	Metrics     *metrics.CommissionMetrics
}

// NewEngine builds a commission engine.
func NewEngine(params EngineParams) (*Engine, error) {
	if params.Rates == nil {
		return nil, errors.New("rate source required")
	}
	if params.Users == nil {
		return nil, errors.New("ancestor source required")
	}
	if params.Commissions == nil {
		return nil, errors.New("commission sink required")
	}
	maxLevels := params.MaxLevels
	if maxLevels <= 0 {
		maxLevels = 5
	}
	return &Engine{
		rates:       params.Rates,
		users:       params.Users,
		commissions: params.Commissions,
		maxLevels:   maxLevels,
		metrics:     params.Metrics,
	}, nil
}

// Compute creates the commission rows for a freshly paid order. Calling it
// twice for the same order is a conflict.
func (e *Engine) Compute(ctx context.Context, order *models.Order) ([]models.Commission, error) {
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order required")
	}

	exists, err := e.commissions.ExistsForOrder(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing commissions")
	}
	if exists {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "commissions already computed for order")
	}

	schedule, err := e.loadSchedule(ctx)
	if err != nil {
		return nil, err
	}

	buyer, err := e.users.FindByID(ctx, order.BuyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load buyer")
	}

	visited := map[uuid.UUID]bool{buyer.ID: true}
	rows := make([]models.Commission, 0, e.maxLevels)

	current := buyer.SponsorID
	for level := 1; current != nil && level <= e.maxLevels; level++ {
		if visited[*current] {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "sponsor chain cycle detected")
		}

		ancestor, err := e.users.FindByID(ctx, *current)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeInternal, "sponsor chain references missing user")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ancestor")
		}
		visited[ancestor.ID] = true

		percent, ok := schedule[level]
		if ok && percent.IsPositive() {
			amount := order.Total.Mul(percent).Div(oneHundred).Round(2)
			rows = append(rows, models.Commission{
				OrderID:     order.ID,
				EarnerID:    ancestor.ID,
				SourceID:    buyer.ID,
				Level:       level,
				Type:        typeForLevel(level),
				BaseAmount:  order.Total,
				RatePercent: percent,
				Amount:      amount,
				Status:      enums.CommissionStatusPending,
			})
			e.metrics.ObserveCreated(strconv.Itoa(level), amount.InexactFloat64())
		} else {
			e.metrics.IncSkipped("zero_rate")
		}

		current = ancestor.SponsorID
	}

	if err := e.commissions.CreateCommissions(ctx, rows); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert commissions")
	}
	e.metrics.ObserveDepth(len(rows))
	return rows, nil
}

func (e *Engine) loadSchedule(ctx context.Context) (map[int]decimal.Decimal, error) {
	rates, err := e.rates.ListRates(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load rate schedule")
	}
	schedule := make(map[int]decimal.Decimal, len(rates))
	for _, rate := range rates {
		schedule[rate.Level] = rate.Percent
	}
	return schedule, nil
}

func typeForLevel(level int) enums.CommissionType {
	if level == 1 {
		return enums.CommissionTypeReferral
	}
	return enums.CommissionTypeLevel
}
