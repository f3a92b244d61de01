package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/padmaajarasooi/padmaaja-backend/pkg/enums"
)

// Order records a purchase. Total is the snapshot the commission engine
// computes from; it never changes after creation.
type Order struct {
	ID          uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber string            `gorm:"column:order_number;not null;uniqueIndex"`
	BuyerID     uuid.UUID         `gorm:"column:buyer_id;type:uuid;not null;index"`
	Status      enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'pending'"`
	Total       decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null"`
	PaidAt      *time.Time        `gorm:"column:paid_at"`
	DeliveredAt *time.Time        `gorm:"column:delivered_at"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`

	Buyer User        `gorm:"foreignKey:BuyerID"`
	Items []OrderItem `gorm:"foreignKey:OrderID"`
}
