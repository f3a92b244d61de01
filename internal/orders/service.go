package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/padmaajarasooi/padmaaja-backend/internal/catalog"
	"github.com/padmaajarasooi/padmaaja-backend/internal/commission"
	"github.com/padmaajarasooi/padmaaja-backend/internal/users"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/db/models"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/enums"
	pkgerrors "github.com/padmaajarasooi/padmaaja-backend/pkg/errors"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/metrics"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/outbox"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/pagination"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/security"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Actor identifies who triggered an operation, for events and audit fields.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// Service defines order placement and lifecycle operations.
type Service interface {
	Create(ctx context.Context, buyerID uuid.UUID, req CreateOrderRequest) (*models.Order, error)
	Get(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error)
	ListMine(ctx context.Context, buyerID uuid.UUID, params pagination.Params, filters Filters) (*List, error)
	ListAll(ctx context.Context, params pagination.Params, filters Filters) (*List, error)
	Transition(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, actor Actor) (*models.Order, error)
}

type service struct {
	repo        Repository
	products    catalog.Repository
	userRepo    users.Repository
	commissions commission.Repository
	tx          txRunner
	outbox      outboxPublisher
	maxLevels   int
	metrics     *metrics.CommissionMetrics
}

// ServiceParams bundles the order service dependencies.
type ServiceParams struct {
	Repo        Repository
	Products    catalog.Repository
	Users       users.Repository
	Commissions commission.Repository
	Tx          txRunner
	Outbox      outboxPublisher
	MaxLevels   int
	Metrics     *metrics.CommissionMetrics
}

// NewService builds an order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, errors.New("orders repository required")
	}
	if params.Products == nil {
		return nil, errors.New("catalog repository required")
	}
	if params.Users == nil {
		return nil, errors.New("users repository required")
	}
	if params.Commissions == nil {
		return nil, errors.New("commission repository required")
	}
	if params.Tx == nil {
		return nil, errors.New("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, errors.New("outbox publisher required")
	}
	return &service{
		repo:        params.Repo,
		products:    params.Products,
		userRepo:    params.Users,
		commissions: params.Commissions,
		tx:          params.Tx,
		outbox:      params.Outbox,
		maxLevels:   params.MaxLevels,
		metrics:     params.Metrics,
	}, nil
}

func (s *service) Create(ctx context.Context, buyerID uuid.UUID, req CreateOrderRequest) (*models.Order, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if len(req.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order needs at least one item")
	}

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		products := s.products.WithTx(tx)

		items := make([]models.OrderItem, 0, len(req.Items))
		total := decimal.Zero
		for _, line := range req.Items {
			if line.Qty <= 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "qty must be positive")
			}
			product, err := products.FindProductByID(ctx, line.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeValidation, "product not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
			}
			if !product.IsActive {
				return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("product %s is not available", product.SKU))
			}

			ok, err := products.DecrementStock(ctx, product.ID, line.Qty)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve stock")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("insufficient stock for %s", product.SKU))
			}

			lineTotal := product.Price.Mul(decimal.NewFromInt(int64(line.Qty))).Round(2)
			productID := product.ID
			items = append(items, models.OrderItem{
				ProductID: &productID,
				Name:      product.Name,
				UnitPrice: product.Price,
				Qty:       line.Qty,
				LineTotal: lineTotal,
			})
			total = total.Add(lineTotal)
		}

		number, err := newOrderNumber()
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order number")
		}

		order := &models.Order{
			OrderNumber: number,
			BuyerID:     buyerID,
			Status:      enums.OrderStatusPending,
			Total:       total.Round(2),
			Items:       items,
		}
		created, err = s.repo.WithTx(tx).Create(ctx, order)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if actor.Role != enums.UserRoleAdmin && order.BuyerID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	return order, nil
}

func (s *service) ListMine(ctx context.Context, buyerID uuid.UUID, params pagination.Params, filters Filters) (*List, error) {
	list, err := s.repo.ListByBuyer(ctx, buyerID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *service) ListAll(ctx context.Context, params pagination.Params, filters Filters) (*List, error) {
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

// Transition moves an order through its lifecycle. The paid transition also
// runs the commission engine so the status change and the commission rows
// commit atomically.
func (s *service) Transition(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, actor Actor) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if !order.Status.CanTransitionTo(target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot move order from %s to %s", order.Status, target))
		}
		wasPaid := order.Status == enums.OrderStatusPaid

		now := time.Now().UTC()
		updates := map[string]any{"status": target}
		switch target {
		case enums.OrderStatusPaid:
			updates["paid_at"] = now
		case enums.OrderStatusDelivered:
			updates["delivered_at"] = now
		}
		if err := repo.UpdateStatus(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}

		order.Status = target
		switch target {
		case enums.OrderStatusPaid:
			order.PaidAt = &now
			if err := s.onPaid(ctx, tx, order, actor); err != nil {
				return err
			}
		case enums.OrderStatusDelivered:
			order.DeliveredAt = &now
		case enums.OrderStatusCancelled:
			if err := s.onCancelled(ctx, tx, order, actor, wasPaid); err != nil {
				return err
			}
		}

		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) onPaid(ctx context.Context, tx *gorm.DB, order *models.Order, actor Actor) error {
	engine, err := commission.NewEngine(commission.EngineParams{
		Rates:       s.commissions.WithTx(tx),
		Users:       s.userRepo.WithTx(tx),
		Commissions: s.commissions.WithTx(tx),
		MaxLevels:   s.maxLevels,
		Metrics:     s.metrics,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build commission engine")
	}
	rows, err := engine.Compute(ctx, order)
	if err != nil {
		return err
	}

	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderPaid,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         buildActor(actor),
		Data: OrderPaidEvent{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			BuyerID:     order.BuyerID,
			Total:       order.Total.StringFixed(2),
		},
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order paid event")
	}

	if len(rows) == 0 {
		return nil
	}
	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.Amount)
	}
	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventCommissionsCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         buildActor(actor),
		Data: CommissionsCreatedEvent{
			OrderID: order.ID,
			Levels:  len(rows),
			Total:   total.StringFixed(2),
		},
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit commissions created event")
	}
	return nil
}

func (s *service) onCancelled(ctx context.Context, tx *gorm.DB, order *models.Order, actor Actor, wasPaid bool) error {
	var cancelled int64
	if wasPaid {
		var err error
		cancelled, err = s.commissions.WithTx(tx).CancelPendingByOrder(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order commissions")
		}
	}

	// return reserved stock
	items, err := s.repo.WithTx(tx).FindByID(ctx, order.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order items")
	}
	products := s.products.WithTx(tx)
	for _, item := range items.Items {
		if item.ProductID == nil {
			continue
		}
		if err := products.IncrementStock(ctx, *item.ProductID, item.Qty); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restock product")
		}
	}

	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderCancelled,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         buildActor(actor),
		Data: OrderCancelledEvent{
			OrderID:              order.ID,
			OrderNumber:          order.OrderNumber,
			BuyerID:              order.BuyerID,
			CancelledCommissions: cancelled,
		},
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order cancelled event")
	}
	return nil
}

func buildActor(actor Actor) *outbox.ActorRef {
	if actor.UserID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: actor.UserID, Role: string(actor.Role)}
}

func newOrderNumber() (string, error) {
	suffix, err := security.GenerateReferralCode(6)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("PR-%s-%s", time.Now().UTC().Format("20060102"), suffix), nil
}
