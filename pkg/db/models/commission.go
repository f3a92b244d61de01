package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/padmaajarasooi/padmaaja-backend/pkg/enums"
)

// Commission is one ancestor's share of a paid order. Level is the distance
// in sponsor hops between the buyer and the earner. Rows are never deleted
// once paid; cancellation flips the status instead.
type Commission struct {
	ID          uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID              `gorm:"column:order_id;type:uuid;not null;index;uniqueIndex:ux_commissions_order_level,priority:1"`
	EarnerID    uuid.UUID              `gorm:"column:earner_id;type:uuid;not null;index"`
	SourceID    uuid.UUID              `gorm:"column:source_id;type:uuid;not null"`
	Level       int                    `gorm:"column:level;not null;uniqueIndex:ux_commissions_order_level,priority:2"`
	Type        enums.CommissionType   `gorm:"column:type;type:commission_type;not null"`
	BaseAmount  decimal.Decimal        `gorm:"column:base_amount;type:numeric(12,2);not null"`
	RatePercent decimal.Decimal        `gorm:"column:rate_percent;type:numeric(5,2);not null"`
	Amount      decimal.Decimal        `gorm:"column:amount;type:numeric(12,2);not null"`
	Status      enums.CommissionStatus `gorm:"column:status;type:commission_status;not null;default:'pending'"`
	PaidAt      *time.Time             `gorm:"column:paid_at"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time              `gorm:"column:updated_at;autoUpdateTime"`

	Order  Order `gorm:"foreignKey:OrderID"`
	Earner User  `gorm:"foreignKey:EarnerID"`
}
