package tiers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/padmaajarasooi/padmaaja-backend/internal/users"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/db"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/db/models"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/enums"
	pkgerrors "github.com/padmaajarasooi/padmaaja-backend/pkg/errors"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines partnership tier management and seat allocation.
type Service interface {
	List(ctx context.Context, activeOnly bool) ([]models.PartnershipTier, error)
	Create(ctx context.Context, req CreateTierRequest) (*models.PartnershipTier, error)
	Update(ctx context.Context, tierID uuid.UUID, req UpdateTierRequest) (*models.PartnershipTier, error)
	Allocate(ctx context.Context, userID, tierID uuid.UUID) (*models.PartnershipTier, error)
}

type service struct {
	repo   Repository
	users  users.Repository
	tx     txRunner
	outbox outboxPublisher
}

// ServiceParams bundles the tier service dependencies.
type ServiceParams struct {
	Repo   Repository
	Users  users.Repository
	Tx     txRunner
	Outbox outboxPublisher
}

// NewService builds a tier service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, errors.New("tiers repository required")
	}
	if params.Users == nil {
		return nil, errors.New("users repository required")
	}
	if params.Tx == nil {
		return nil, errors.New("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, errors.New("outbox publisher required")
	}
	return &service{
		repo:   params.Repo,
		users:  params.Users,
		tx:     params.Tx,
		outbox: params.Outbox,
	}, nil
}

func (s *service) List(ctx context.Context, activeOnly bool) ([]models.PartnershipTier, error) {
	rows, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tiers")
	}
	return rows, nil
}

func (s *service) Create(ctx context.Context, req CreateTierRequest) (*models.PartnershipTier, error) {
	price, err := parsePrice(req.Price)
	if err != nil {
		return nil, err
	}

	tier := &models.PartnershipTier{
		Name:        strings.TrimSpace(req.Name),
		MaxCapacity: req.MaxCapacity,
		Price:       price,
		IsActive:    true,
	}
	created, err := s.repo.Create(ctx, tier)
	if err != nil {
		if db.IsUniqueViolation(err, "ux_partnership_tiers_name") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "tier name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create tier")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, tierID uuid.UUID, req UpdateTierRequest) (*models.PartnershipTier, error) {
	tier, err := s.repo.FindByID(ctx, tierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tier not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tier")
	}

	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.MaxCapacity != nil {
		// capacity can only grow, claimed seats are never evicted
		if *req.MaxCapacity < tier.CurrentCount {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("capacity %d is below the %d seats already claimed", *req.MaxCapacity, tier.CurrentCount))
		}
		updates["max_capacity"] = *req.MaxCapacity
	}
	if req.Price != nil {
		price, err := parsePrice(*req.Price)
		if err != nil {
			return nil, err
		}
		updates["price"] = price
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return tier, nil
	}

	if err := s.repo.Update(ctx, tierID, updates); err != nil {
		if db.IsUniqueViolation(err, "ux_partnership_tiers_name") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "tier name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update tier")
	}
	return s.repo.FindByID(ctx, tierID)
}

// Allocate claims a seat for the user. The conditional increment is the only
// capacity gate: a full tier makes it a no-op, reported as CAPACITY_EXCEEDED.
func (s *service) Allocate(ctx context.Context, userID, tierID uuid.UUID) (*models.PartnershipTier, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var allocated *models.PartnershipTier
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		userRepo := s.users.WithTx(tx)

		user, err := userRepo.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}
		if user.TierID != nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "user already holds a tier seat")
		}

		tier, err := repo.FindByID(ctx, tierID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "tier not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tier")
		}
		if !tier.IsActive {
			return pkgerrors.New(pkgerrors.CodeValidation, "tier is not open for allocation")
		}

		claimed, err := repo.ClaimSeat(ctx, tier.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim tier seat")
		}
		if !claimed {
			return pkgerrors.New(pkgerrors.CodeCapacity,
				fmt.Sprintf("tier %s has no remaining seats", tier.Name))
		}

		updates := map[string]any{"tier_id": tier.ID}
		if user.Role == enums.UserRoleCustomer {
			updates["role"] = enums.UserRolePartner
		}
		if err := userRepo.Update(ctx, user.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign tier to user")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventTierAllocated,
			AggregateType: enums.AggregateUser,
			AggregateID:   user.ID,
			Actor:         &outbox.ActorRef{UserID: user.ID, Role: string(user.Role)},
			Data: TierAllocatedEvent{
				UserID:   user.ID,
				TierID:   tier.ID,
				TierName: tier.Name,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit tier allocated event")
		}

		tier.CurrentCount++
		allocated = tier
		return nil
	})
	if err != nil {
		return nil, err
	}
	return allocated, nil
}

func parsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "price must be a decimal number")
	}
	if price.IsNegative() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	return price.Round(2), nil
}
