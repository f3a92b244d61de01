package payouts

import (
	"context"
	"strings"
	"testing"

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

func TestRequestLocksFundingCommissions(t *testing.T) {
	user := uuid.New()
	env := newPayoutEnv(t)
	env.commissions.approved[user] = []models.Commission{
		approvedCommission(user, "50.00"),
		approvedCommission(user, "30.00"),
		approvedCommission(user, "40.00"),
	}

	payout, err := env.svc.Request(context.Background(), user, RequestPayoutRequest{
		Amount:        "80.00",
		AccountName:   "Asha Rao",
		AccountNumber: "123456789012",
		IFSC:          "hdfc0001234",
	})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if payout.Status != enums.PayoutStatusPending {
		t.Fatalf("expected pending, got %s", payout.Status)
	}
	if payout.IFSC != "HDFC0001234" {
		t.Fatalf("expected normalized IFSC, got %q", payout.IFSC)
	}
	// 50 + 30 settle the 80 request exactly; the third row stays free
	if got := len(env.payouts.funding[payout.ID]); got != 2 {
		t.Fatalf("expected two funding commissions, got %d", got)
	}
	if !payout.Amount.Equal(decimal.RequireFromString("80.00")) {
		t.Fatalf("expected payout amount to match the funding rows, got %s", payout.Amount)
	}
}

func TestRequestRejectsPartialCommissionCoverage(t *testing.T) {
	user := uuid.New()
	env := newPayoutEnv(t)
	env.commissions.approved[user] = []models.Commission{
		approvedCommission(user, "50.00"),
		approvedCommission(user, "30.00"),
		approvedCommission(user, "40.00"),
	}

	_, err := env.svc.Request(context.Background(), user, RequestPayoutRequest{
		Amount:        "60.00",
		AccountName:   "Asha Rao",
		AccountNumber: "123456789012",
		IFSC:          "HDFC0001234",
	})
	if err == nil {
		t.Fatalf("expected rejection of an amount inside a commission")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if !strings.Contains(typed.Message(), "80.00") {
		t.Fatalf("expected nearest claimable amount in message, got %q", typed.Message())
	}
	if len(env.payouts.byID) != 0 {
		t.Fatalf("expected no payout created")
	}
}

func TestSettlementMatchesFundingCommissions(t *testing.T) {
	user := uuid.New()
	env := newPayoutEnv(t)
	rows := []models.Commission{
		approvedCommission(user, "50.00"),
		approvedCommission(user, "30.00"),
		approvedCommission(user, "40.00"),
	}
	env.commissions.approved[user] = rows

	payout, err := env.svc.Request(context.Background(), user, RequestPayoutRequest{
		Amount:        "80.00",
		AccountName:   "Asha Rao",
		AccountNumber: "123456789012",
		IFSC:          "HDFC0001234",
	})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := env.svc.Review(context.Background(), payout.ID, uuid.New(), ReviewRequest{Decision: DecisionApprove}); err != nil {
		t.Fatalf("review: %v", err)
	}
	paid, err := env.svc.MarkPaid(context.Background(), payout.ID, uuid.New())
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}

	flipped := decimal.Zero
	for _, row := range rows {
		if env.commissions.statuses[row.ID] == enums.CommissionStatusPaid {
			flipped = flipped.Add(row.Amount)
		}
	}
	if !flipped.Equal(paid.Amount) {
		t.Fatalf("commissions flipped %s do not match payout amount %s", flipped.StringFixed(2), paid.Amount.StringFixed(2))
	}
	if len(env.wallet.debits) != 1 || !env.wallet.debits[0].amount.Equal(flipped) {
		t.Fatalf("expected wallet debit to equal the flipped commissions")
	}
	if env.commissions.statuses[rows[2].ID] == enums.CommissionStatusPaid {
		t.Fatalf("expected the unallocated commission to stay approved")
	}
}

func TestRequestRejectsOverdraw(t *testing.T) {
	user := uuid.New()
	env := newPayoutEnv(t)
	env.commissions.approved[user] = []models.Commission{approvedCommission(user, "25.00")}

	_, err := env.svc.Request(context.Background(), user, RequestPayoutRequest{
		Amount:        "100.00",
		AccountName:   "Asha Rao",
		AccountNumber: "123456789012",
		IFSC:          "HDFC0001234",
	})
	if err == nil {
		t.Fatalf("expected overdraw rejection")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestRequestValidatesAmount(t *testing.T) {
	env := newPayoutEnv(t)
	for _, amount := range []string{"", "abc", "-5", "0"} {
		_, err := env.svc.Request(context.Background(), uuid.New(), RequestPayoutRequest{Amount: amount})
		if err == nil {
			t.Fatalf("expected validation failure for %q", amount)
		}
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error for %q, got %v", amount, err)
		}
	}
}

func TestReviewApprove(t *testing.T) {
	env := newPayoutEnv(t)
	payout := env.seedPayout(uuid.New(), "80.00", enums.PayoutStatusPending)
	admin := uuid.New()

	reviewed, err := env.svc.Review(context.Background(), payout.ID, admin, ReviewRequest{Decision: DecisionApprove})
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if reviewed.Status != enums.PayoutStatusApproved {
		t.Fatalf("expected approved, got %s", reviewed.Status)
	}
	if reviewed.ReviewedBy == nil || *reviewed.ReviewedBy != admin || reviewed.ReviewedAt == nil {
		t.Fatalf("expected review audit fields set")
	}
	if len(env.outbox.events) != 1 || env.outbox.events[0].EventType != enums.EventPayoutReviewed {
		t.Fatalf("expected payout.reviewed event")
	}
}

func TestReviewRejectReleasesFunding(t *testing.T) {
	env := newPayoutEnv(t)
	payout := env.seedPayout(uuid.New(), "80.00", enums.PayoutStatusPending)
	env.payouts.funding[payout.ID] = []uuid.UUID{uuid.New(), uuid.New()}
	notes := "bank details unverified"

	reviewed, err := env.svc.Review(context.Background(), payout.ID, uuid.New(), ReviewRequest{
		Decision: DecisionReject,
		Notes:    &notes,
	})
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if reviewed.Status != enums.PayoutStatusRejected {
		t.Fatalf("expected rejected, got %s", reviewed.Status)
	}
	if len(env.payouts.funding[payout.ID]) != 0 {
		t.Fatalf("expected funding commissions released on rejection")
	}
}

func TestReviewIsFinal(t *testing.T) {
	env := newPayoutEnv(t)
	for _, status := range []enums.PayoutStatus{
		enums.PayoutStatusApproved,
		enums.PayoutStatusRejected,
		enums.PayoutStatusPaid,
	} {
		payout := env.seedPayout(uuid.New(), "10.00", status)
		_, err := env.svc.Review(context.Background(), payout.ID, uuid.New(), ReviewRequest{Decision: DecisionApprove})
		if err == nil {
			t.Fatalf("expected state conflict reviewing %s payout", status)
		}
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
			t.Fatalf("expected state conflict for %s, got %v", status, err)
		}
	}
}

func TestMarkPaidSettlesEverythingTogether(t *testing.T) {
	user := uuid.New()
	env := newPayoutEnv(t)
	payout := env.seedPayout(user, "80.00", enums.PayoutStatusApproved)
	funding := []uuid.UUID{uuid.New(), uuid.New()}
	env.payouts.funding[payout.ID] = funding

	paid, err := env.svc.MarkPaid(context.Background(), payout.ID, uuid.New())
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if paid.Status != enums.PayoutStatusPaid || paid.PaidAt == nil {
		t.Fatalf("expected paid with timestamp")
	}
	if len(env.wallet.debits) != 1 || !env.wallet.debits[0].amount.Equal(decimal.RequireFromString("80.00")) {
		t.Fatalf("expected one wallet debit of 80.00")
	}
	for _, id := range funding {
		if env.commissions.statuses[id] != enums.CommissionStatusPaid {
			t.Fatalf("expected funding commission %s marked paid", id)
		}
	}
	if len(env.outbox.events) != 1 || env.outbox.events[0].EventType != enums.EventPayoutPaid {
		t.Fatalf("expected payout.paid event")
	}
}

func TestMarkPaidRequiresApproval(t *testing.T) {
	env := newPayoutEnv(t)
	payout := env.seedPayout(uuid.New(), "80.00", enums.PayoutStatusPending)

	_, err := env.svc.MarkPaid(context.Background(), payout.ID, uuid.New())
	if err == nil {
		t.Fatalf("expected state conflict paying a pending payout")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if len(env.wallet.debits) != 0 {
		t.Fatalf("expected no wallet movement")
	}
}

// --- test doubles -----------------------------------------------------------

type payoutEnv struct {
	svc         Service
	payouts     *stubPayoutRepo
	commissions *stubCommissionRepo
	wallet      *stubWallet
	outbox      *stubOutbox
}

func newPayoutEnv(t *testing.T) *payoutEnv {
	t.Helper()
	payouts := &stubPayoutRepo{
		byID:    map[uuid.UUID]*models.Payout{},
		funding: map[uuid.UUID][]uuid.UUID{},
	}
	commissions := &stubCommissionRepo{
		approved: map[uuid.UUID][]models.Commission{},
		statuses: map[uuid.UUID]enums.CommissionStatus{},
	}
	wallet := &stubWallet{}
	ob := &stubOutbox{}

	svc, err := NewService(ServiceParams{
		Repo:        payouts,
		Commissions: commissions,
		Wallet:      wallet,
		Tx:          stubTxRunner{},
		Outbox:      ob,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return &payoutEnv{svc: svc, payouts: payouts, commissions: commissions, wallet: wallet, outbox: ob}
}

func (e *payoutEnv) seedPayout(userID uuid.UUID, amount string, status enums.PayoutStatus) *models.Payout {
	payout := &models.Payout{
		ID:     uuid.New(),
		UserID: userID,
		Amount: decimal.RequireFromString(amount),
		Status: status,
	}
	e.payouts.byID[payout.ID] = payout
	return payout
}

func approvedCommission(earnerID uuid.UUID, amount string) models.Commission {
	return models.Commission{
		ID:       uuid.New(),
		EarnerID: earnerID,
		Amount:   decimal.RequireFromString(amount),
		Status:   enums.CommissionStatusApproved,
	}
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubWallet struct {
	debits []walletMove
}

type walletMove struct {
	userID uuid.UUID
	amount decimal.Decimal
}

func (s *stubWallet) Debit(_ context.Context, _ *gorm.DB, userID uuid.UUID, amount decimal.Decimal, _ *uuid.UUID, _ *string) error {
	s.debits = append(s.debits, walletMove{userID: userID, amount: amount})
	return nil
}

type stubPayoutRepo struct {
	byID    map[uuid.UUID]*models.Payout
	funding map[uuid.UUID][]uuid.UUID
}

func (s *stubPayoutRepo) WithTx(_ *gorm.DB) Repository { return s }

func (s *stubPayoutRepo) Create(_ context.Context, payout *models.Payout, commissionIDs []uuid.UUID) (*models.Payout, error) {
	payout.ID = uuid.New()
	s.byID[payout.ID] = payout
	s.funding[payout.ID] = commissionIDs
	return payout, nil
}

func (s *stubPayoutRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Payout, error) {
	if p, ok := s.byID[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPayoutRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Payout, error) {
	return s.FindByID(ctx, id)
}

func (s *stubPayoutRepo) ListByUser(_ context.Context, _ uuid.UUID, _ pagination.Params, _ Filters) (*List, error) {
	return &List{}, nil
}

func (s *stubPayoutRepo) List(_ context.Context, _ pagination.Params, _ Filters) (*List, error) {
	return &List{}, nil
}

func (s *stubPayoutRepo) UpdateStatus(_ context.Context, id uuid.UUID, updates map[string]any) error {
	if p, ok := s.byID[id]; ok {
		if status, ok := updates["status"].(enums.PayoutStatus); ok {
			p.Status = status
		}
	}
	return nil
}

func (s *stubPayoutRepo) FundingCommissionIDs(_ context.Context, payoutID uuid.UUID) ([]uuid.UUID, error) {
	return s.funding[payoutID], nil
}

func (s *stubPayoutRepo) ReleaseFunding(_ context.Context, payoutID uuid.UUID) error {
	delete(s.funding, payoutID)
	return nil
}

type stubCommissionRepo struct {
	commission.Repository

	approved map[uuid.UUID][]models.Commission
	statuses map[uuid.UUID]enums.CommissionStatus
}

func (s *stubCommissionRepo) WithTx(_ *gorm.DB) commission.Repository { return s }

func (s *stubCommissionRepo) ListApprovedUnallocated(_ context.Context, earnerID uuid.UUID) ([]models.Commission, error) {
	return s.approved[earnerID], nil
}

func (s *stubCommissionRepo) UpdateStatus(_ context.Context, id uuid.UUID, status enums.CommissionStatus, _ map[string]any) error {
	s.statuses[id] = status
	return nil
}
