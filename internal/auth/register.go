package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/padmaajarasooi/padmaaja-backend/internal/users"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/config"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/db"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/db/models"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/enums"
	pkgerrors "github.com/padmaajarasooi/padmaaja-backend/pkg/errors"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/security"
)

const (
	referralCodeLength   = 8
	referralCodeAttempts = 5
)

// RegisterRequest contains the payload required to create an account. The
// referral code, when present, binds the new user into the sponsor graph
// permanently.
type RegisterRequest struct {
	FirstName    string  `json:"first_name" validate:"required"`
	LastName     string  `json:"last_name" validate:"required"`
	Email        string  `json:"email" validate:"required,email"`
	Password     string  `json:"password" validate:"required,min=8"`
	Phone        *string `json:"phone,omitempty"`
	ReferralCode *string `json:"referral_code,omitempty"`
}

// RegisterService handles the onboarding transaction.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	DB             *db.Client
	PasswordConfig config.PasswordConfig
}

type registerService struct {
	db          *db.Client
	passwordCfg config.PasswordConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	return &registerService{
		db:          params.DB,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *models.User
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		sponsorID, err := resolveSponsor(ctx, userRepo, req.ReferralCode)
		if err != nil {
			return err
		}

		user := &models.User{
			Email:        email,
			PasswordHash: passwordHash,
			FirstName:    strings.TrimSpace(req.FirstName),
			LastName:     strings.TrimSpace(req.LastName),
			Phone:        req.Phone,
			Role:         enums.UserRoleCustomer,
			SponsorID:    sponsorID,
			IsActive:     true,
		}

		created, err = createWithReferralCode(ctx, userRepo, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &RegisterResponse{User: users.NewProfile(created)}, nil
}

func resolveSponsor(ctx context.Context, repo users.Repository, code *string) (*uuid.UUID, error) {
	if code == nil || strings.TrimSpace(*code) == "" {
		return nil, nil
	}
	sponsor, err := repo.FindByReferralCode(ctx, *code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "referral code not recognized")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup sponsor")
	}
	if !sponsor.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "referral code not recognized")
	}
	return &sponsor.ID, nil
}

// createWithReferralCode retries code generation on the rare unique collision.
func createWithReferralCode(ctx context.Context, repo users.Repository, user *models.User) (*models.User, error) {
	for attempt := 0; attempt < referralCodeAttempts; attempt++ {
		code, err := security.GenerateReferralCode(referralCodeLength)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate referral code")
		}
		user.ReferralCode = code

		created, err := repo.Create(ctx, user)
		if err == nil {
			return created, nil
		}
		if db.IsUniqueViolation(err, "ux_users_referral_code") {
			continue
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "could not assign a referral code")
}
