package enums

// OutboxEventType names the domain events fanned out through the outbox.
type OutboxEventType string

const (
	EventOrderPaid          OutboxEventType = "order.paid"
	EventOrderCancelled     OutboxEventType = "order.cancelled"
	EventCommissionsCreated OutboxEventType = "commissions.created"
	EventPayoutReviewed     OutboxEventType = "payout.reviewed"
	EventPayoutPaid         OutboxEventType = "payout.paid"
	EventTierAllocated      OutboxEventType = "tier.allocated"
)

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder  OutboxAggregateType = "order"
	AggregatePayout OutboxAggregateType = "payout"
	AggregateUser   OutboxAggregateType = "user"
)
