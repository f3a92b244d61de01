package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/padmaajarasooi/padmaaja-backend/pkg/enums"
)

// User is the canonical identity entity. SponsorID points at the user who
// referred this one; it is set at registration and never changes, so the
// sponsor graph is an append-only forest.
type User struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email         string          `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash  string          `gorm:"column:password_hash;not null"`
	FirstName     string          `gorm:"column:first_name;not null"`
	LastName      string          `gorm:"column:last_name;not null"`
	Phone         *string         `gorm:"column:phone"`
	Role          enums.UserRole  `gorm:"column:role;type:user_role;not null;default:'customer'"`
	ReferralCode  string          `gorm:"column:referral_code;not null;uniqueIndex"`
	SponsorID     *uuid.UUID      `gorm:"column:sponsor_id;type:uuid;index"`
	TierID        *uuid.UUID      `gorm:"column:tier_id;type:uuid"`
	IsActive      bool            `gorm:"column:is_active;not null;default:true"`
	WalletBalance decimal.Decimal `gorm:"column:wallet_balance;type:numeric(12,2);not null;default:0"`
	LastLoginAt   *time.Time      `gorm:"column:last_login_at"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
