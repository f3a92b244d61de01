package commission

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/padmaajarasooi/padmaaja-backend/pkg/db/models"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/enums"
	pkgerrors "github.com/padmaajarasooi/padmaaja-backend/pkg/errors"
)

func TestEngineComputeFullChain(t *testing.T) {
	// buyer -> s1 -> s2 -> s3 -> s4 -> s5 -> s6 (beyond the cap)
	chain := buildChain(t, 7)
	buyer := chain[0]
	order := testOrder(buyer.ID, "1000.00")

	sink := &stubSink{}
	engine := buildEngine(t, chain, defaultSchedule(), sink)

	rows, err := engine.Compute(context.Background(), order)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("expected 5 commission rows, got %d", len(rows))
	}

	wantAmounts := []string{"80", "40", "20", "10", "5"}
	for i, row := range rows {
		if row.Level != i+1 {
			t.Fatalf("row %d: expected level %d, got %d", i, i+1, row.Level)
		}
		if row.EarnerID != chain[i+1].ID {
			t.Fatalf("row %d: wrong earner", i)
		}
		if row.SourceID != buyer.ID {
			t.Fatalf("row %d: source should be the buyer", i)
		}
		if !row.Amount.Equal(decimal.RequireFromString(wantAmounts[i])) {
			t.Fatalf("row %d: expected amount %s, got %s", i, wantAmounts[i], row.Amount)
		}
		if row.Status != enums.CommissionStatusPending {
			t.Fatalf("row %d: expected pending status, got %s", i, row.Status)
		}
		if !row.BaseAmount.Equal(order.Total) {
			t.Fatalf("row %d: base amount should snapshot the order total", i)
		}
	}
	if rows[0].Type != enums.CommissionTypeReferral {
		t.Fatalf("level 1 should be a referral commission, got %s", rows[0].Type)
	}
	if rows[1].Type != enums.CommissionTypeLevel {
		t.Fatalf("level 2 should be a level commission, got %s", rows[1].Type)
	}
	if len(sink.created) != 5 {
		t.Fatalf("expected rows persisted through the sink")
	}
}

func TestEngineComputeShortChain(t *testing.T) {
	chain := buildChain(t, 3) // buyer + two ancestors
	order := testOrder(chain[0].ID, "500.00")

	engine := buildEngine(t, chain, defaultSchedule(), &stubSink{})
	rows, err := engine.Compute(context.Background(), order)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected chain to end after 2 levels, got %d rows", len(rows))
	}
}

func TestEngineComputeNoSponsor(t *testing.T) {
	chain := buildChain(t, 1)
	order := testOrder(chain[0].ID, "500.00")

	engine := buildEngine(t, chain, defaultSchedule(), &stubSink{})
	rows, err := engine.Compute(context.Background(), order)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows for a buyer without sponsor, got %d", len(rows))
	}
}

func TestEngineComputeSkipsZeroRate(t *testing.T) {
	chain := buildChain(t, 4)
	order := testOrder(chain[0].ID, "1000.00")

	schedule := []models.CommissionRate{
		{Level: 1, Percent: decimal.RequireFromString("8")},
		{Level: 2, Percent: decimal.Zero},
		{Level: 3, Percent: decimal.RequireFromString("2")},
	}

	engine := buildEngine(t, chain, schedule, &stubSink{})
	rows, err := engine.Compute(context.Background(), order)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected zero-rate level skipped, got %d rows", len(rows))
	}
	if rows[0].Level != 1 || rows[1].Level != 3 {
		t.Fatalf("expected levels 1 and 3, got %d and %d", rows[0].Level, rows[1].Level)
	}
}

func TestEngineComputeRoundsHalfUp(t *testing.T) {
	chain := buildChain(t, 2)
	order := testOrder(chain[0].ID, "33.33")

	engine := buildEngine(t, chain, defaultSchedule(), &stubSink{})
	rows, err := engine.Compute(context.Background(), order)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	// 33.33 * 8% = 2.6664 -> 2.67
	if !rows[0].Amount.Equal(decimal.RequireFromString("2.67")) {
		t.Fatalf("expected 2.67, got %s", rows[0].Amount)
	}
}

func TestEngineComputeCycleAborts(t *testing.T) {
	chain := buildChain(t, 3)
	// point the top of the chain back at the buyer
	chain[2].SponsorID = &chain[0].ID
	order := testOrder(chain[0].ID, "100.00")

	sink := &stubSink{}
	engine := buildEngine(t, chain, defaultSchedule(), sink)

	_, err := engine.Compute(context.Background(), order)
	if err == nil {
		t.Fatalf("expected cycle to abort computation")
	}
	if len(sink.created) != 0 {
		t.Fatalf("expected no rows fabricated on cycle, got %d", len(sink.created))
	}
}

func TestEngineComputeDuplicateOrderConflicts(t *testing.T) {
	chain := buildChain(t, 2)
	order := testOrder(chain[0].ID, "100.00")

	sink := &stubSink{existing: true}
	engine := buildEngine(t, chain, defaultSchedule(), sink)

	_, err := engine.Compute(context.Background(), order)
	if err == nil {
		t.Fatalf("expected conflict on duplicate computation")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

// buildChain returns users[0] (the buyer) through users[n-1], each sponsored
// by the next.
func buildChain(t *testing.T, n int) []*models.User {
	t.Helper()
	chain := make([]*models.User, n)
	for i := range chain {
		chain[i] = &models.User{ID: uuid.New(), IsActive: true}
	}
	for i := 0; i < n-1; i++ {
		chain[i].SponsorID = &chain[i+1].ID
	}
	return chain
}

func buildEngine(t *testing.T, chain []*models.User, schedule []models.CommissionRate, sink *stubSink) *Engine {
	t.Helper()
	users := stubUsers{}
	for _, u := range chain {
		users[u.ID] = u
	}
	engine, err := NewEngine(EngineParams{
		Rates:       stubRates(schedule),
		Users:       users,
		Commissions: sink,
		MaxLevels:   5,
	})
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	return engine
}

func testOrder(buyerID uuid.UUID, total string) *models.Order {
	return &models.Order{
		ID:      uuid.New(),
		BuyerID: buyerID,
		Status:  enums.OrderStatusPaid,
		Total:   decimal.RequireFromString(total),
	}
}

func defaultSchedule() []models.CommissionRate {
	percents := []string{"8", "4", "2", "1", "0.5"}
	rows := make([]models.CommissionRate, len(percents))
	for i, p := range percents {
		rows[i] = models.CommissionRate{Level: i + 1, Percent: decimal.RequireFromString(p)}
	}
	return rows
}

type stubRates []models.CommissionRate

func (s stubRates) ListRates(_ context.Context) ([]models.CommissionRate, error) {
	return s, nil
}

type stubUsers map[uuid.UUID]*models.User

func (s stubUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubSink struct {
	existing bool
	created  []models.Commission
}

func (s *stubSink) ExistsForOrder(_ context.Context, _ uuid.UUID) (bool, error) {
	return s.existing, nil
}

func (s *stubSink) CreateCommissions(_ context.Context, rows []models.Commission) error {
	s.created = append(s.created, rows...)
	return nil
}
