package genealogy

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/padmaajarasooi/padmaaja-backend/pkg/enums"
)

// TreeNode is one member of the downline tree. Team figures cover the
// descendants fetched within the requested depth, plus the node itself.
type TreeNode struct {
	UserID          uuid.UUID       `json:"user_id"`
	Name            string          `json:"name"`
	ReferralCode    string          `json:"referral_code"`
	Role            enums.UserRole  `json:"role"`
	JoinedAt        time.Time       `json:"joined_at"`
	Level           int             `json:"level"`
	DirectCount     int64           `json:"direct_count"`
	PersonalVolume  decimal.Decimal `json:"personal_volume"`
	CommissionTotal decimal.Decimal `json:"commission_total"`
	TeamSize        int             `json:"team_size"`
	TeamVolume      decimal.Decimal `json:"team_volume"`
	Children        []*TreeNode     `json:"children"`
}
