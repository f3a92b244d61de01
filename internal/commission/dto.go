package commission

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/padmaajarasooi/padmaaja-backend/pkg/db/models"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/enums"
)

// Filters describe the inputs supported by the commission lists and exports.
type Filters struct {
	Status   *enums.CommissionStatus
	Level    *int
	DateFrom *time.Time
	DateTo   *time.Time
}

// List wraps the paginated commissions plus the next page cursor.
type List struct {
	Commissions []models.Commission `json:"commissions"`
	NextCursor  string              `json:"next_cursor,omitempty"`
}

// Summary aggregates an earner's commissions by status.
type Summary struct {
	PendingTotal   decimal.Decimal `json:"pending_total"`
	ApprovedTotal  decimal.Decimal `json:"approved_total"`
	PaidTotal      decimal.Decimal `json:"paid_total"`
	CancelledTotal decimal.Decimal `json:"cancelled_total"`
	LifetimeTotal  decimal.Decimal `json:"lifetime_total"`
	Count          int64           `json:"count"`
}

// RateView is the admin representation of one schedule level.
type RateView struct {
	Level   int             `json:"level"`
	Percent decimal.Decimal `json:"percent"`
}

// UpdateRatesRequest replaces the whole schedule in one write.
type UpdateRatesRequest struct {
	Rates []RateInput `json:"rates" validate:"required,min=1,dive"`
}

// RateInput is one level of the submitted schedule.
type RateInput struct {
	Level   int    `json:"level" validate:"required,gte=1"`
	Percent string `json:"percent" validate:"required"`
}

// ReviewDecision is the action an admin takes on a pending commission.
type ReviewDecision string

const (
	ReviewDecisionApprove ReviewDecision = "approve"
	ReviewDecisionCancel  ReviewDecision = "cancel"
)

// ReviewRequest is the admin payload for a commission review.
type ReviewRequest struct {
	Decision ReviewDecision `json:"decision" validate:"required,oneof=approve cancel"`
}
