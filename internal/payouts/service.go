package payouts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/padmaajarasooi/padmaaja-backend/internal/commission"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/db/models"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/enums"
	pkgerrors "github.com/padmaajarasooi/padmaaja-backend/pkg/errors"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/outbox"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type walletDebiter interface {
	Debit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount decimal.Decimal, reference *uuid.UUID, note *string) error
}

// Service defines the payout request and review lifecycle.
type Service interface {
	Request(ctx context.Context, userID uuid.UUID, req RequestPayoutRequest) (*models.Payout, error)
	Get(ctx context.Context, payoutID, userID uuid.UUID, isAdmin bool) (*models.Payout, error)
	ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params, filters Filters) (*List, error)
	ListAll(ctx context.Context, params pagination.Params, filters Filters) (*List, error)
	Review(ctx context.Context, payoutID, adminID uuid.UUID, req ReviewRequest) (*models.Payout, error)
	MarkPaid(ctx context.Context, payoutID, adminID uuid.UUID) (*models.Payout, error)
}

type service struct {
	repo        Repository
	commissions commission.Repository
	wallet      walletDebiter
	tx          txRunner
	outbox      outboxPublisher
}

// ServiceParams bundles the payout service dependencies.
type ServiceParams struct {
	Repo        Repository
	Commissions commission.Repository
	Wallet      walletDebiter
	Tx          txRunner
	Outbox      outboxPublisher
}

// NewService builds a payout service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, errors.New("payouts repository required")
	}
	if params.Commissions == nil {
		return nil, errors.New("commission repository required")
	}
	if params.Wallet == nil {
		return nil, errors.New("wallet service required")
	}
	if params.Tx == nil {
		return nil, errors.New("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, errors.New("outbox publisher required")
	}
	return &service{
		repo:        params.Repo,
		commissions: params.Commissions,
		wallet:      params.Wallet,
		tx:          params.Tx,
		outbox:      params.Outbox,
	}, nil
}

// Request creates a pending payout funded by the user's approved commissions,
// oldest first. The amount must equal the funding rows exactly, so settlement
// debits precisely what the funding commissions carry. The rows are locked and
// linked inside the transaction so two concurrent requests can never spend the
// same commission.
func (s *service) Request(ctx context.Context, userID uuid.UUID, req RequestPayoutRequest) (*models.Payout, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, err
	}

	var created *models.Payout
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		commissions := s.commissions.WithTx(tx)

		available, err := commissions.ListApprovedUnallocated(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load approved commissions")
		}

		funding := make([]uuid.UUID, 0, len(available))
		covered := decimal.Zero
		for _, row := range available {
			if covered.GreaterThanOrEqual(amount) {
				break
			}
			funding = append(funding, row.ID)
			covered = covered.Add(row.Amount)
		}
		if covered.LessThan(amount) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("requested %s exceeds approved balance %s", amount.StringFixed(2), covered.StringFixed(2)))
		}
		// Funding rows settle whole: a partial commission would leave the
		// remainder in wallet_balance with nothing backing a later request.
		if !covered.Equal(amount) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("amount must settle whole commissions; nearest claimable amount is %s", covered.StringFixed(2)))
		}

		payout := &models.Payout{
			UserID:        userID,
			Amount:        amount,
			AccountName:   strings.TrimSpace(req.AccountName),
			AccountNumber: strings.TrimSpace(req.AccountNumber),
			IFSC:          strings.ToUpper(strings.TrimSpace(req.IFSC)),
			Status:        enums.PayoutStatusPending,
		}
		created, err = s.repo.WithTx(tx).Create(ctx, payout, funding)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payout")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, payoutID, userID uuid.UUID, isAdmin bool) (*models.Payout, error) {
	payout, err := s.repo.FindByID(ctx, payoutID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payout not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payout")
	}
	if !isAdmin && payout.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "payout does not belong to user")
	}
	return payout, nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params, filters Filters) (*List, error) {
	list, err := s.repo.ListByUser(ctx, userID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payouts")
	}
	return list, nil
}

func (s *service) ListAll(ctx context.Context, params pagination.Params, filters Filters) (*List, error) {
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payouts")
	}
	return list, nil
}

// Review decides a pending payout. Rejection releases the funding commissions
// so they become available for a future request. Reviewed payouts cannot be
// reviewed again.
func (s *service) Review(ctx context.Context, payoutID, adminID uuid.UUID, req ReviewRequest) (*models.Payout, error) {
	var reviewed *models.Payout
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		payout, err := repo.FindByIDForUpdate(ctx, payoutID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "payout not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payout")
		}
		if payout.Status != enums.PayoutStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payout already reviewed")
		}

		target := enums.PayoutStatusApproved
		if req.Decision == DecisionReject {
			target = enums.PayoutStatusRejected
		}

		now := time.Now().UTC()
		updates := map[string]any{
			"status":      target,
			"reviewed_by": adminID,
			"reviewed_at": now,
		}
		if req.Notes != nil {
			updates["admin_notes"] = *req.Notes
		}
		if err := repo.UpdateStatus(ctx, payout.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payout status")
		}

		if target == enums.PayoutStatusRejected {
			if err := repo.ReleaseFunding(ctx, payout.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release funding commissions")
			}
		}

		payout.Status = target
		payout.ReviewedBy = &adminID
		payout.ReviewedAt = &now
		payout.AdminNotes = req.Notes

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPayoutReviewed,
			AggregateType: enums.AggregatePayout,
			AggregateID:   payout.ID,
			Actor:         &outbox.ActorRef{UserID: adminID, Role: string(enums.UserRoleAdmin)},
			Data: PayoutReviewedEvent{
				PayoutID:   payout.ID,
				UserID:     payout.UserID,
				Status:     target,
				ReviewedBy: adminID,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit payout reviewed event")
		}

		reviewed = payout
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reviewed, nil
}

// MarkPaid settles an approved payout: the wallet debit, the commission
// flips, and the status change commit together.
func (s *service) MarkPaid(ctx context.Context, payoutID, adminID uuid.UUID) (*models.Payout, error) {
	var paid *models.Payout
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		payout, err := repo.FindByIDForUpdate(ctx, payoutID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "payout not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payout")
		}
		if payout.Status != enums.PayoutStatusApproved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only approved payouts can be paid")
		}

		now := time.Now().UTC()
		if err := repo.UpdateStatus(ctx, payout.ID, map[string]any{
			"status":  enums.PayoutStatusPaid,
			"paid_at": now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payout status")
		}

		fundingIDs, err := repo.FundingCommissionIDs(ctx, payout.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load funding commissions")
		}
		commissions := s.commissions.WithTx(tx)
		for _, id := range fundingIDs {
			err := commissions.UpdateStatus(ctx, id, enums.CommissionStatusPaid, map[string]any{"paid_at": now})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark commission paid")
			}
		}

		if err := s.wallet.Debit(ctx, tx, payout.UserID, payout.Amount, &payout.ID, nil); err != nil {
			return err
		}

		payout.Status = enums.PayoutStatusPaid
		payout.PaidAt = &now

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPayoutPaid,
			AggregateType: enums.AggregatePayout,
			AggregateID:   payout.ID,
			Actor:         &outbox.ActorRef{UserID: adminID, Role: string(enums.UserRoleAdmin)},
			Data: PayoutPaidEvent{
				PayoutID: payout.ID,
				UserID:   payout.UserID,
				Amount:   payout.Amount.StringFixed(2),
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit payout paid event")
		}

		paid = payout
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paid, nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "amount must be a decimal number")
	}
	if !amount.IsPositive() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	return amount.Round(2), nil
}
