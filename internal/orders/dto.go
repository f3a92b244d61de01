package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/padmaajarasooi/padmaaja-backend/pkg/db/models"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/enums"
)

// Filters describe the inputs supported by order lists and exports.
type Filters struct {
	Status   *enums.OrderStatus
	DateFrom *time.Time
	DateTo   *time.Time
}

// List wraps the paginated orders plus the next page cursor.
type List struct {
	Orders     []models.Order `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// CreateOrderRequest is the payload for placing an order.
type CreateOrderRequest struct {
	Items []CreateOrderItem `json:"items" validate:"required,min=1,dive"`
}

// CreateOrderItem selects a product and quantity.
type CreateOrderItem struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Qty       int       `json:"qty" validate:"required,gte=1"`
}

// StatusRequest is the admin payload for moving an order through its
// lifecycle.
type StatusRequest struct {
	Status enums.OrderStatus `json:"status" validate:"required"`
}

// OrderPaidEvent is emitted when an order transitions to paid.
type OrderPaidEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	BuyerID     uuid.UUID `json:"buyer_id"`
	Total       string    `json:"total"`
}

// OrderCancelledEvent is emitted when an order is cancelled.
type OrderCancelledEvent struct {
	OrderID              uuid.UUID `json:"order_id"`
	OrderNumber          string    `json:"order_number"`
	BuyerID              uuid.UUID `json:"buyer_id"`
	CancelledCommissions int64     `json:"cancelled_commissions"`
}

// CommissionsCreatedEvent surfaces what the engine produced for an order.
type CommissionsCreatedEvent struct {
	OrderID uuid.UUID `json:"order_id"`
	Levels  int       `json:"levels"`
	Total   string    `json:"total"`
}
