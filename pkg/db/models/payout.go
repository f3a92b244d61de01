package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/padmaajarasooi/padmaaja-backend/pkg/enums"
)

// Payout is a user-initiated withdrawal request. Only admins move it through
// the state machine; paid and rejected are terminal.
type Payout struct {
	ID            uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID          `gorm:"column:user_id;type:uuid;not null;index"`
	Amount        decimal.Decimal    `gorm:"column:amount;type:numeric(12,2);not null"`
	AccountName   string             `gorm:"column:account_name;not null"`
	AccountNumber string             `gorm:"column:account_number;not null"`
	IFSC          string             `gorm:"column:ifsc;not null"`
	Status        enums.PayoutStatus `gorm:"column:status;type:payout_status;not null;default:'pending'"`
	AdminNotes    *string            `gorm:"column:admin_notes"`
	ReviewedBy    *uuid.UUID         `gorm:"column:reviewed_by;type:uuid"`
	ReviewedAt    *time.Time         `gorm:"column:reviewed_at"`
	PaidAt        *time.Time         `gorm:"column:paid_at"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`

	User        User               `gorm:"foreignKey:UserID"`
	Commissions []PayoutCommission `gorm:"foreignKey:PayoutID"`
}

// PayoutCommission links a payout to the approved commissions funding it,
// snapshotted when the request is created.
type PayoutCommission struct {
	PayoutID     uuid.UUID `gorm:"column:payout_id;type:uuid;not null;primaryKey"`
	CommissionID uuid.UUID `gorm:"column:commission_id;type:uuid;not null;primaryKey;uniqueIndex"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}
