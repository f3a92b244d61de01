package tiers

import (
	"github.com/google/uuid"
)

// CreateTierRequest defines a new partnership tier.
type CreateTierRequest struct {
	Name        string `json:"name" validate:"required,max=80"`
	MaxCapacity int    `json:"max_capacity" validate:"required,gt=0"`
	Price       string `json:"price" validate:"required"`
}

// UpdateTierRequest changes tier attributes. Capacity can only grow; the
// allocator depends on current_count never exceeding max_capacity.
type UpdateTierRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=80"`
	MaxCapacity *int    `json:"max_capacity" validate:"omitempty,gt=0"`
	Price       *string `json:"price"`
	IsActive    *bool   `json:"is_active"`
}

// AllocateRequest assigns the calling user a seat in the named tier.
type AllocateRequest struct {
	TierID uuid.UUID `json:"tier_id" validate:"required"`
}

// TierAllocatedEvent is published when a user claims a tier seat.
type TierAllocatedEvent struct {
	UserID   uuid.UUID `json:"user_id"`
	TierID   uuid.UUID `json:"tier_id"`
	TierName string    `json:"tier_name"`
}
