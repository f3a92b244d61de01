package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CommissionRate is one row of the admin-managed level->percent schedule.
// Levels must stay contiguous from 1; the rates service enforces that on
// every write.
type CommissionRate struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Level     int             `gorm:"column:level;not null;uniqueIndex"`
	Percent   decimal.Decimal `gorm:"column:percent;type:numeric(5,2);not null"`
	UpdatedBy *uuid.UUID      `gorm:"column:updated_by;type:uuid"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
