package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PartnershipTier is a capacity-bounded partner category. CurrentCount must
// never exceed MaxCapacity; the allocator enforces this with a conditional
// update, never a read-then-write.
type PartnershipTier struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string          `gorm:"column:name;not null;uniqueIndex"`
	MaxCapacity  int             `gorm:"column:max_capacity;not null"`
	CurrentCount int             `gorm:"column:current_count;not null;default:0"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null;default:0"`
	IsActive     bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
