package commission

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/padmaajarasooi/padmaaja-backend/pkg/enums"
	pkgerrors "github.com/padmaajarasooi/padmaaja-backend/pkg/errors"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/pagination"
)

type walletCrediter interface {
	Credit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount decimal.Decimal, reference *uuid.UUID, note *string) error
}

// Service exposes commission queries and the admin review action.
type Service interface {
	ListMine(ctx context.Context, earnerID uuid.UUID, params pagination.Params, filters Filters) (*List, error)
	ListAll(ctx context.Context, params pagination.Params, filters Filters) (*List, error)
	Summary(ctx context.Context, earnerID uuid.UUID) (*Summary, error)
	Review(ctx context.Context, commissionID, adminID uuid.UUID, req ReviewRequest) error
}

type service struct {
	repo   Repository
	tx     txRunner
	wallet walletCrediter
}

// ServiceParams bundles the commission service dependencies.
type ServiceParams struct {
	Repo   Repository
	Tx     txRunner
	Wallet walletCrediter
}

// NewService builds a commission service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, errors.New("commission repository required")
	}
	if params.Tx == nil {
		return nil, errors.New("transaction runner required")
	}
	if params.Wallet == nil {
		return nil, errors.New("wallet crediter required")
	}
	return &service{
		repo:   params.Repo,
		tx:     params.Tx,
		wallet: params.Wallet,
	}, nil
}

func (s *service) ListMine(ctx context.Context, earnerID uuid.UUID, params pagination.Params, filters Filters) (*List, error) {
	list, err := s.repo.ListByEarner(ctx, earnerID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list commissions")
	}
	return list, nil
}

func (s *service) ListAll(ctx context.Context, params pagination.Params, filters Filters) (*List, error) {
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list commissions")
	}
	return list, nil
}

func (s *service) Summary(ctx context.Context, earnerID uuid.UUID) (*Summary, error) {
	summary, err := s.repo.SummaryByEarner(ctx, earnerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summarize commissions")
	}
	return summary, nil
}

// Review moves a pending commission to approved (crediting the earner's
// wallet) or cancelled. Any other starting state is a conflict with no side
// effects.
func (s *service) Review(ctx context.Context, commissionID, adminID uuid.UUID, req ReviewRequest) error {
	if commissionID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "commission id required")
	}
	if adminID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "admin identity missing")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		row, err := repo.FindByID(ctx, commissionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "commission not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load commission")
		}
		if row.Status != enums.CommissionStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "commission already reviewed")
		}

		switch req.Decision {
		case ReviewDecisionApprove:
			if err := repo.UpdateStatus(ctx, row.ID, enums.CommissionStatusApproved, nil); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve commission")
			}
			ref := row.ID
			return s.wallet.Credit(ctx, tx, row.EarnerID, row.Amount, &ref, nil)

		case ReviewDecisionCancel:
			if err := repo.UpdateStatus(ctx, row.ID, enums.CommissionStatusCancelled, nil); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel commission")
			}
			return nil

		default:
			return pkgerrors.New(pkgerrors.CodeValidation, "decision must be approve or cancel")
		}
	})
}
