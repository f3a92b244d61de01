package orders

import (
	"context"
	"errors"
	"strings"
	"testing"
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
	"github.com/padmaajarasooi/padmaaja-backend/pkg/outbox"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/pagination"
)

func TestServiceCreateReservesStockAndSnapshotsItems(t *testing.T) {
	buyer := uuid.New()
	product := &models.Product{
		ID:       uuid.New(),
		SKU:      "GHEE-500",
		Name:     "Ghee 500ml",
		Price:    decimal.RequireFromString("450.00"),
		StockQty: 10,
		IsActive: true,
	}
	env := newTestEnv(t, []*models.User{{ID: buyer}}, []*models.Product{product})

	order, err := env.svc.Create(context.Background(), buyer, CreateOrderRequest{
		Items: []CreateOrderItem{{ProductID: product.ID, Qty: 3}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !order.Total.Equal(decimal.RequireFromString("1350.00")) {
		t.Fatalf("expected total 1350.00, got %s", order.Total)
	}
	if len(order.Items) != 1 || order.Items[0].Name != product.Name {
		t.Fatalf("expected item snapshot with product name")
	}
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("expected new order pending, got %s", order.Status)
	}
	if !strings.HasPrefix(order.OrderNumber, "PR-") {
		t.Fatalf("unexpected order number %q", order.OrderNumber)
	}
	if env.products.stock[product.ID] != 7 {
		t.Fatalf("expected stock decremented to 7, got %d", env.products.stock[product.ID])
	}
}

func TestServiceCreateInsufficientStock(t *testing.T) {
	buyer := uuid.New()
	product := &models.Product{
		ID:       uuid.New(),
		SKU:      "RICE-1KG",
		Name:     "Rice 1kg",
		Price:    decimal.RequireFromString("80.00"),
		StockQty: 2,
		IsActive: true,
	}
	env := newTestEnv(t, []*models.User{{ID: buyer}}, []*models.Product{product})

	_, err := env.svc.Create(context.Background(), buyer, CreateOrderRequest{
		Items: []CreateOrderItem{{ProductID: product.ID, Qty: 5}},
	})
	if err == nil {
		t.Fatalf("expected conflict when stock is short")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestServiceTransitionPaidRunsEngineAndEmits(t *testing.T) {
	sponsor := &models.User{ID: uuid.New(), IsActive: true}
	buyer := &models.User{ID: uuid.New(), SponsorID: &sponsor.ID, IsActive: true}
	env := newTestEnv(t, []*models.User{buyer, sponsor}, nil)

	order := env.seedOrder(buyer.ID, "1000.00", enums.OrderStatusPending)

	updated, err := env.svc.Transition(context.Background(), order.ID, enums.OrderStatusPaid, Actor{
		UserID: uuid.New(),
		Role:   enums.UserRoleAdmin,
	})
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if updated.Status != enums.OrderStatusPaid {
		t.Fatalf("expected paid, got %s", updated.Status)
	}
	if len(env.commissions.created) != 1 {
		t.Fatalf("expected one commission row, got %d", len(env.commissions.created))
	}
	if !env.commissions.created[0].Amount.Equal(decimal.RequireFromString("80")) {
		t.Fatalf("expected level-1 commission 80, got %s", env.commissions.created[0].Amount)
	}
	if len(env.outbox.events) != 2 {
		t.Fatalf("expected order.paid and commissions.created events, got %d", len(env.outbox.events))
	}
	if env.outbox.events[0].EventType != enums.EventOrderPaid {
		t.Fatalf("expected order.paid first, got %s", env.outbox.events[0].EventType)
	}
}

func TestServiceTransitionRejectsIllegalMove(t *testing.T) {
	buyer := &models.User{ID: uuid.New(), IsActive: true}
	env := newTestEnv(t, []*models.User{buyer}, nil)
	order := env.seedOrder(buyer.ID, "100.00", enums.OrderStatusDelivered)

	_, err := env.svc.Transition(context.Background(), order.ID, enums.OrderStatusPaid, Actor{
		UserID: uuid.New(),
		Role:   enums.UserRoleAdmin,
	})
	if err == nil {
		t.Fatalf("expected state conflict for delivered -> paid")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if len(env.outbox.events) != 0 {
		t.Fatalf("expected no events on rejected transition")
	}
}

func TestServiceTransitionCancelAfterPaidCancelsCommissions(t *testing.T) {
	buyer := &models.User{ID: uuid.New(), IsActive: true}
	env := newTestEnv(t, []*models.User{buyer}, nil)
	order := env.seedOrder(buyer.ID, "100.00", enums.OrderStatusPaid)

	updated, err := env.svc.Transition(context.Background(), order.ID, enums.OrderStatusCancelled, Actor{
		UserID: uuid.New(),
		Role:   enums.UserRoleAdmin,
	})
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if updated.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", updated.Status)
	}
	if !env.commissions.cancelledFor[order.ID] {
		t.Fatalf("expected pending commissions cancelled for order")
	}
	if len(env.outbox.events) != 1 || env.outbox.events[0].EventType != enums.EventOrderCancelled {
		t.Fatalf("expected order.cancelled event")
	}
}

func TestServiceTransitionCancelAbortsWhenItemsUnavailable(t *testing.T) {
	buyer := &models.User{ID: uuid.New(), IsActive: true}
	env := newTestEnv(t, []*models.User{buyer}, nil)
	order := env.seedOrder(buyer.ID, "100.00", enums.OrderStatusPaid)
	env.orders.findErr = errors.New("connection reset")

	_, err := env.svc.Transition(context.Background(), order.ID, enums.OrderStatusCancelled, Actor{
		UserID: uuid.New(),
		Role:   enums.UserRoleAdmin,
	})
	if err == nil {
		t.Fatalf("expected cancellation to fail when items cannot be loaded for restock")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if len(env.outbox.events) != 0 {
		t.Fatalf("expected no cancelled event when the transaction aborts")
	}
}

func TestServiceGetEnforcesOwnership(t *testing.T) {
	buyer := &models.User{ID: uuid.New(), IsActive: true}
	env := newTestEnv(t, []*models.User{buyer}, nil)
	order := env.seedOrder(buyer.ID, "100.00", enums.OrderStatusPending)

	if _, err := env.svc.Get(context.Background(), order.ID, Actor{UserID: buyer.ID, Role: enums.UserRoleCustomer}); err != nil {
		t.Fatalf("owner get: %v", err)
	}
	if _, err := env.svc.Get(context.Background(), order.ID, Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}); err != nil {
		t.Fatalf("admin get: %v", err)
	}

	_, err := env.svc.Get(context.Background(), order.ID, Actor{UserID: uuid.New(), Role: enums.UserRoleCustomer})
	if err == nil {
		t.Fatalf("expected forbidden for stranger")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

// --- test doubles -----------------------------------------------------------

type testEnv struct {
	svc         Service
	orders      *stubOrderRepo
	products    *stubCatalogRepo
	commissions *stubCommissionRepo
	outbox      *stubOutbox
}

func newTestEnv(t *testing.T, people []*models.User, goods []*models.Product) *testEnv {
	t.Helper()
	userRepo := stubUserRepo{}
	for _, u := range people {
		userRepo[u.ID] = u
	}
	products := &stubCatalogRepo{
		products: map[uuid.UUID]*models.Product{},
		stock:    map[uuid.UUID]int{},
	}
	for _, p := range goods {
		products.products[p.ID] = p
		products.stock[p.ID] = p.StockQty
	}
	orders := &stubOrderRepo{orders: map[uuid.UUID]*models.Order{}}
	commissions := &stubCommissionRepo{
		rates:        defaultRates(),
		cancelledFor: map[uuid.UUID]bool{},
	}
	ob := &stubOutbox{}

	svc, err := NewService(ServiceParams{
		Repo:        orders,
		Products:    products,
		Users:       userRepo,
		Commissions: commissions,
		Tx:          stubTxRunner{},
		Outbox:      ob,
		MaxLevels:   5,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return &testEnv{svc: svc, orders: orders, products: products, commissions: commissions, outbox: ob}
}

func (e *testEnv) seedOrder(buyerID uuid.UUID, total string, status enums.OrderStatus) *models.Order {
	order := &models.Order{
		ID:          uuid.New(),
		OrderNumber: "PR-20260101-TEST42",
		BuyerID:     buyerID,
		Status:      status,
		Total:       decimal.RequireFromString(total),
	}
	e.orders.orders[order.ID] = order
	return order
}

func defaultRates() []models.CommissionRate {
	percents := []string{"8", "4", "2", "1", "0.5"}
	rows := make([]models.CommissionRate, len(percents))
	for i, p := range percents {
		rows[i] = models.CommissionRate{Level: i + 1, Percent: decimal.RequireFromString(p)}
	}
	return rows
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubOrderRepo struct {
	orders  map[uuid.UUID]*models.Order
	findErr error
}

func (s *stubOrderRepo) WithTx(_ *gorm.DB) Repository { return s }

func (s *stubOrderRepo) Create(_ context.Context, order *models.Order) (*models.Order, error) {
	order.ID = uuid.New()
	s.orders[order.ID] = order
	return order, nil
}

func (s *stubOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if o, ok := s.orders[id]; ok {
		return o, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrderRepo) FindByIDForUpdate(_ context.Context, id uuid.UUID) (*models.Order, error) {
	if o, ok := s.orders[id]; ok {
		// Return a copy so the stub matches the real repo's non-aliasing
		// semantics: UpdateStatus must not mutate the loaded struct.
		cp := *o
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrderRepo) ListByBuyer(_ context.Context, _ uuid.UUID, _ pagination.Params, _ Filters) (*List, error) {
	return &List{}, nil
}

func (s *stubOrderRepo) List(_ context.Context, _ pagination.Params, _ Filters) (*List, error) {
	return &List{}, nil
}

func (s *stubOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, updates map[string]any) error {
	if o, ok := s.orders[id]; ok {
		if status, ok := updates["status"].(enums.OrderStatus); ok {
			o.Status = status
		}
	}
	return nil
}

func (s *stubOrderRepo) SumDeliveredByBuyers(_ context.Context, _ []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	return nil, nil
}

func (s *stubOrderRepo) ExportQuery(_ context.Context, _ Filters) *gorm.DB { return nil }

type stubUserRepo map[uuid.UUID]*models.User

func (s stubUserRepo) WithTx(_ *gorm.DB) users.Repository { return s }

func (s stubUserRepo) Create(_ context.Context, user *models.User) (*models.User, error) {
	s[user.ID] = user
	return user, nil
}

func (s stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s stubUserRepo) FindByEmail(_ context.Context, _ string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s stubUserRepo) FindByReferralCode(_ context.Context, _ string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s stubUserRepo) ListBySponsorIDs(_ context.Context, _ []uuid.UUID) ([]models.User, error) {
	return nil, nil
}

func (s stubUserRepo) CountBySponsor(_ context.Context, _ uuid.UUID) (int64, error) {
	return 0, nil
}

func (s stubUserRepo) CountBySponsors(_ context.Context, _ []uuid.UUID) (map[uuid.UUID]int64, error) {
	return nil, nil
}

func (s stubUserRepo) UpdateLastLogin(_ context.Context, _ uuid.UUID, _ time.Time) error {
	return nil
}

func (s stubUserRepo) Update(_ context.Context, _ uuid.UUID, _ map[string]any) error {
	return nil
}

type stubCatalogRepo struct {
	products map[uuid.UUID]*models.Product
	stock    map[uuid.UUID]int
}

func (s *stubCatalogRepo) WithTx(_ *gorm.DB) catalog.Repository { return s }

func (s *stubCatalogRepo) CreateCategory(_ context.Context, c *models.Category) (*models.Category, error) {
	return c, nil
}

func (s *stubCatalogRepo) FindCategoryByID(_ context.Context, _ uuid.UUID) (*models.Category, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCatalogRepo) FindCategoryBySlug(_ context.Context, _ string) (*models.Category, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCatalogRepo) ListCategories(_ context.Context, _ bool) ([]models.Category, error) {
	return nil, nil
}

func (s *stubCatalogRepo) UpdateCategory(_ context.Context, _ uuid.UUID, _ map[string]any) error {
	return nil
}

func (s *stubCatalogRepo) CreateProduct(_ context.Context, p *models.Product) (*models.Product, error) {
	return p, nil
}

func (s *stubCatalogRepo) CreateProducts(_ context.Context, _ []models.Product) error { return nil }

func (s *stubCatalogRepo) FindProductByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	if p, ok := s.products[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCatalogRepo) FindProductBySKU(_ context.Context, _ string) (*models.Product, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCatalogRepo) ListProducts(_ context.Context, _ pagination.Params, _ catalog.ProductFilters) (*catalog.ProductList, error) {
	return &catalog.ProductList{}, nil
}

func (s *stubCatalogRepo) UpdateProduct(_ context.Context, _ uuid.UUID, _ map[string]any) error {
	return nil
}

func (s *stubCatalogRepo) DecrementStock(_ context.Context, id uuid.UUID, qty int) (bool, error) {
	if s.stock[id] < qty {
		return false, nil
	}
	s.stock[id] -= qty
	return true, nil
}

func (s *stubCatalogRepo) IncrementStock(_ context.Context, id uuid.UUID, qty int) error {
	s.stock[id] += qty
	return nil
}

type stubCommissionRepo struct {
	commission.Repository

	rates        []models.CommissionRate
	created      []models.Commission
	cancelledFor map[uuid.UUID]bool
}

func (s *stubCommissionRepo) WithTx(_ *gorm.DB) commission.Repository { return s }

func (s *stubCommissionRepo) ListRates(_ context.Context) ([]models.CommissionRate, error) {
	return s.rates, nil
}

func (s *stubCommissionRepo) ExistsForOrder(_ context.Context, _ uuid.UUID) (bool, error) {
	return false, nil
}

func (s *stubCommissionRepo) CreateCommissions(_ context.Context, rows []models.Commission) error {
	s.created = append(s.created, rows...)
	return nil
}

func (s *stubCommissionRepo) CancelPendingByOrder(_ context.Context, orderID uuid.UUID) (int64, error) {
	s.cancelledFor[orderID] = true
	return 1, nil
}
