package users

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/padmaajarasooi/padmaaja-backend/pkg/db/models"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/enums"
)

// Profile is the shape of a user returned by the API. Password hash never
// leaves the package.
type Profile struct {
	ID            uuid.UUID       `json:"id"`
	Email         string          `json:"email"`
	FirstName     string          `json:"first_name"`
	LastName      string          `json:"last_name"`
	Phone         *string         `json:"phone,omitempty"`
	Role          enums.UserRole  `json:"role"`
	ReferralCode  string          `json:"referral_code"`
	SponsorID     *uuid.UUID      `json:"sponsor_id,omitempty"`
	TierID        *uuid.UUID      `json:"tier_id,omitempty"`
	IsActive      bool            `json:"is_active"`
	WalletBalance decimal.Decimal `json:"wallet_balance"`
	CreatedAt     time.Time       `json:"created_at"`
}

// NewProfile maps a user row into its API representation.
func NewProfile(u *models.User) Profile {
	return Profile{
		ID:            u.ID,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Phone:         u.Phone,
		Role:          u.Role,
		ReferralCode:  u.ReferralCode,
		SponsorID:     u.SponsorID,
		TierID:        u.TierID,
		IsActive:      u.IsActive,
		WalletBalance: u.WalletBalance,
		CreatedAt:     u.CreatedAt,
	}
}
