package wallet

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/padmaajarasooi/padmaaja-backend/pkg/db/models"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/enums"
	pkgerrors "github.com/padmaajarasooi/padmaaja-backend/pkg/errors"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/pagination"
)

// Service moves money in and out of user wallets. Credit and Debit run
// inside a caller-owned transaction so the balance change, the ledger entry,
// and the triggering domain write commit together.
type Service interface {
	Credit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount decimal.Decimal, reference *uuid.UUID, note *string) error
	Debit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount decimal.Decimal, reference *uuid.UUID, note *string) error
	Statement(ctx context.Context, userID uuid.UUID, params pagination.Params) (*Statement, error)
}

type userReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type service struct {
	repo  Repository
	users userReader
}

// NewService builds a wallet service.
func NewService(repo Repository, users userReader) (Service, error) {
	if repo == nil {
		return nil, errors.New("wallet repository required")
	}
	if users == nil {
		return nil, errors.New("user reader required")
	}
	return &service{repo: repo, users: users}, nil
}

func (s *service) Credit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount decimal.Decimal, reference *uuid.UUID, note *string) error {
	return s.move(ctx, tx, userID, enums.WalletEntryCommissionCredit, amount, reference, note)
}

func (s *service) Debit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount decimal.Decimal, reference *uuid.UUID, note *string) error {
	return s.move(ctx, tx, userID, enums.WalletEntryPayoutDebit, amount.Neg(), reference, note)
}

func (s *service) move(ctx context.Context, tx *gorm.DB, userID uuid.UUID, entryType enums.WalletEntryType, delta decimal.Decimal, reference *uuid.UUID, note *string) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if delta.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount cannot be zero")
	}

	var balanceAfter decimal.Decimal
	err := tx.WithContext(ctx).
		Raw(
			`UPDATE users SET wallet_balance = wallet_balance + ?, updated_at = now()
			 WHERE id = ? RETURNING wallet_balance`,
			delta, userID,
		).
		Scan(&balanceAfter).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update wallet balance")
	}
	if balanceAfter.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient wallet balance")
	}

	entry := &models.WalletEntry{
		UserID:       userID,
		Type:         entryType,
		Amount:       delta,
		BalanceAfter: balanceAfter,
		ReferenceID:  reference,
		Note:         note,
	}
	if _, err := s.repo.WithTx(tx).CreateEntry(ctx, entry); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record wallet entry")
	}
	return nil
}

func (s *service) Statement(ctx context.Context, userID uuid.UUID, params pagination.Params) (*Statement, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	entries, err := s.repo.ListEntries(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wallet entries")
	}

	return &Statement{
		Balance:    user.WalletBalance,
		Entries:    entries.Entries,
		NextCursor: entries.NextCursor,
	}, nil
}
