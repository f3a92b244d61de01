package tiers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/padmaajarasooi/padmaaja-backend/internal/users"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/db/models"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/enums"
	pkgerrors "github.com/padmaajarasooi/padmaaja-backend/pkg/errors"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/outbox"
)

func TestAllocateClaimsSeatAndPromotesUser(t *testing.T) {
	env := newTierEnv(t)
	tier := env.seedTier("Silver", 10, 3, true)
	user := env.seedUser(enums.UserRoleCustomer, nil)

	allocated, err := env.svc.Allocate(context.Background(), user.ID, tier.ID)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if allocated.CurrentCount != 4 {
		t.Fatalf("expected seat count 4, got %d", allocated.CurrentCount)
	}
	if got := env.users.updates[user.ID]["tier_id"]; got != tier.ID {
		t.Fatalf("expected tier assigned to user")
	}
	if got := env.users.updates[user.ID]["role"]; got != enums.UserRolePartner {
		t.Fatalf("expected customer promoted to partner")
	}
	if len(env.outbox.events) != 1 || env.outbox.events[0].EventType != enums.EventTierAllocated {
		t.Fatalf("expected tier.allocated event")
	}
}

func TestAllocateFullTier(t *testing.T) {
	env := newTierEnv(t)
	tier := env.seedTier("Gold", 5, 5, true)
	user := env.seedUser(enums.UserRoleCustomer, nil)

	_, err := env.svc.Allocate(context.Background(), user.ID, tier.ID)
	if err == nil {
		t.Fatalf("expected capacity error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeCapacity {
		t.Fatalf("expected CAPACITY_EXCEEDED, got %v", err)
	}
	if len(env.users.updates) != 0 {
		t.Fatalf("expected no user change on full tier")
	}
}

func TestAllocateRejectsSecondSeat(t *testing.T) {
	env := newTierEnv(t)
	existing := uuid.New()
	tier := env.seedTier("Silver", 10, 0, true)
	user := env.seedUser(enums.UserRolePartner, &existing)

	_, err := env.svc.Allocate(context.Background(), user.ID, tier.ID)
	if err == nil {
		t.Fatalf("expected conflict for user with a tier")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAllocateInactiveTier(t *testing.T) {
	env := newTierEnv(t)
	tier := env.seedTier("Closed", 10, 0, false)
	user := env.seedUser(enums.UserRoleCustomer, nil)

	_, err := env.svc.Allocate(context.Background(), user.ID, tier.ID)
	if err == nil {
		t.Fatalf("expected validation error for inactive tier")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateCannotShrinkBelowClaimedSeats(t *testing.T) {
	env := newTierEnv(t)
	tier := env.seedTier("Silver", 10, 7, true)
	smaller := 5

	_, err := env.svc.Update(context.Background(), tier.ID, UpdateTierRequest{MaxCapacity: &smaller})
	if err == nil {
		t.Fatalf("expected validation error shrinking capacity")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateValidatesPrice(t *testing.T) {
	env := newTierEnv(t)
	for _, price := range []string{"abc", "-10"} {
		_, err := env.svc.Create(context.Background(), CreateTierRequest{
			Name:        "Silver",
			MaxCapacity: 10,
			Price:       price,
		})
		if err == nil {
			t.Fatalf("expected validation failure for price %q", price)
		}
	}
}

// --- test doubles -----------------------------------------------------------

type tierEnv struct {
	svc    Service
	tiers  *stubTierRepo
	users  *stubUserRepo
	outbox *stubOutbox
}

func newTierEnv(t *testing.T) *tierEnv {
	t.Helper()
	tiers := &stubTierRepo{byID: map[uuid.UUID]*models.PartnershipTier{}}
	userRepo := &stubUserRepo{
		byID:    map[uuid.UUID]*models.User{},
		updates: map[uuid.UUID]map[string]any{},
	}
	ob := &stubOutbox{}

	svc, err := NewService(ServiceParams{
		Repo:   tiers,
		Users:  userRepo,
		Tx:     stubTxRunner{},
		Outbox: ob,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return &tierEnv{svc: svc, tiers: tiers, users: userRepo, outbox: ob}
}

func (e *tierEnv) seedTier(name string, capacity, claimed int, active bool) *models.PartnershipTier {
	tier := &models.PartnershipTier{
		ID:           uuid.New(),
		Name:         name,
		MaxCapacity:  capacity,
		CurrentCount: claimed,
		IsActive:     active,
	}
	e.tiers.byID[tier.ID] = tier
	return tier
}

func (e *tierEnv) seedUser(role enums.UserRole, tierID *uuid.UUID) *models.User {
	user := &models.User{
		ID:       uuid.New(),
		Role:     role,
		TierID:   tierID,
		IsActive: true,
	}
	e.users.byID[user.ID] = user
	return user
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

type stubTierRepo struct {
	byID map[uuid.UUID]*models.PartnershipTier
}

func (s *stubTierRepo) WithTx(_ *gorm.DB) Repository { return s }

func (s *stubTierRepo) Create(_ context.Context, tier *models.PartnershipTier) (*models.PartnershipTier, error) {
	tier.ID = uuid.New()
	s.byID[tier.ID] = tier
	return tier, nil
}

func (s *stubTierRepo) FindByID(_ context.Context, id uuid.UUID) (*models.PartnershipTier, error) {
	if tier, ok := s.byID[id]; ok {
		copied := *tier
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubTierRepo) FindByName(_ context.Context, _ string) (*models.PartnershipTier, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubTierRepo) List(_ context.Context, _ bool) ([]models.PartnershipTier, error) {
	return nil, nil
}

func (s *stubTierRepo) Update(_ context.Context, id uuid.UUID, updates map[string]any) error {
	return nil
}

func (s *stubTierRepo) ClaimSeat(_ context.Context, id uuid.UUID) (bool, error) {
	tier, ok := s.byID[id]
	if !ok || !tier.IsActive || tier.CurrentCount >= tier.MaxCapacity {
		return false, nil
	}
	tier.CurrentCount++
	return true, nil
}

func (s *stubTierRepo) ReleaseSeat(_ context.Context, id uuid.UUID) error {
	if tier, ok := s.byID[id]; ok && tier.CurrentCount > 0 {
		tier.CurrentCount--
	}
	return nil
}

type stubUserRepo struct {
	users.Repository

	byID    map[uuid.UUID]*models.User
	updates map[uuid.UUID]map[string]any
}

func (s *stubUserRepo) WithTx(_ *gorm.DB) users.Repository { return s }

func (s *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := s.byID[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) Update(_ context.Context, id uuid.UUID, updates map[string]any) error {
	s.updates[id] = updates
	return nil
}
