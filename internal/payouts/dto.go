package payouts

import (
	"github.com/google/uuid"

	"github.com/padmaajarasooi/padmaaja-backend/pkg/db/models"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/enums"
)

// Filters narrows payout listings.
type Filters struct {
	Status *enums.PayoutStatus
}

// List is one page of payouts.
type List struct {
	Payouts    []models.Payout `json:"payouts"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

// RequestPayoutRequest asks to withdraw approved commission earnings.
type RequestPayoutRequest struct {
	Amount        string `json:"amount" validate:"required"`
	AccountName   string `json:"account_name" validate:"required,max=120"`
	AccountNumber string `json:"account_number" validate:"required,min=6,max=24"`
	IFSC          string `json:"ifsc" validate:"required,len=11"`
}

// ReviewDecision is the admin verdict on a pending payout.
type ReviewDecision string

const (
	DecisionApprove ReviewDecision = "approve"
	DecisionReject  ReviewDecision = "reject"
)

// ReviewRequest carries the admin decision and optional notes.
type ReviewRequest struct {
	Decision ReviewDecision `json:"decision" validate:"required,oneof=approve reject"`
	Notes    *string        `json:"notes" validate:"omitempty,max=500"`
}

// PayoutReviewedEvent is published when an admin approves or rejects a payout.
type PayoutReviewedEvent struct {
	PayoutID   uuid.UUID          `json:"payout_id"`
	UserID     uuid.UUID          `json:"user_id"`
	Status     enums.PayoutStatus `json:"status"`
	ReviewedBy uuid.UUID          `json:"reviewed_by"`
}

// PayoutPaidEvent is published when an approved payout is settled.
type PayoutPaidEvent struct {
	PayoutID uuid.UUID `json:"payout_id"`
	UserID   uuid.UUID `json:"user_id"`
	Amount   string    `json:"amount"`
}
