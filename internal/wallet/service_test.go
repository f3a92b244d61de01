package wallet

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/padmaajarasooi/padmaaja-backend/pkg/db/models"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/enums"
	pkgerrors "github.com/padmaajarasooi/padmaaja-backend/pkg/errors"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/pagination"
)

type stubWalletRepo struct {
	entries EntryList
}

func (s *stubWalletRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubWalletRepo) CreateEntry(ctx context.Context, entry *models.WalletEntry) (*models.WalletEntry, error) {
	return entry, nil
}

func (s *stubWalletRepo) ListEntries(ctx context.Context, userID uuid.UUID, params pagination.Params) (*EntryList, error) {
	return &s.entries, nil
}

type stubUserReader map[uuid.UUID]*models.User

func (s stubUserReader) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := s[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func TestStatementReturnsBalanceAndEntries(t *testing.T) {
	userID := uuid.New()
	repo := &stubWalletRepo{
		entries: EntryList{
			Entries: []models.WalletEntry{
				{UserID: userID, Type: enums.WalletEntryCommissionCredit, Amount: decimal.RequireFromString("80.00")},
			},
			NextCursor: "next",
		},
	}
	svc, err := NewService(repo, stubUserReader{
		userID: {ID: userID, WalletBalance: decimal.RequireFromString("80.00")},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	statement, err := svc.Statement(context.Background(), userID, pagination.Params{Limit: 25})
	if err != nil {
		t.Fatalf("statement: %v", err)
	}
	if !statement.Balance.Equal(decimal.RequireFromString("80.00")) {
		t.Fatalf("wrong balance: %s", statement.Balance)
	}
	if len(statement.Entries) != 1 {
		t.Fatalf("wrong entry count: %d", len(statement.Entries))
	}
	if statement.NextCursor != "next" {
		t.Fatalf("cursor not forwarded: %q", statement.NextCursor)
	}
}

func TestStatementUnknownUser(t *testing.T) {
	svc, err := NewService(&stubWalletRepo{}, stubUserReader{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.Statement(context.Background(), uuid.New(), pagination.Params{Limit: 25})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMoveRequiresTransaction(t *testing.T) {
	svc, err := NewService(&stubWalletRepo{}, stubUserReader{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	err = svc.Credit(context.Background(), nil, uuid.New(), decimal.RequireFromString("10.00"), nil, nil)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInternal {
		t.Fatalf("expected internal error for missing tx, got %v", err)
	}
}
