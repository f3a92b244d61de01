package genealogy

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/padmaajarasooi/padmaaja-backend/pkg/db/models"
	pkgerrors "github.com/padmaajarasooi/padmaaja-backend/pkg/errors"
)

func TestTreeRollsUpTeamFigures(t *testing.T) {
	root := member("Asha", nil)
	childA := member("Bina", &root.ID)
	childB := member("Chand", &root.ID)
	grand := member("Divya", &childA.ID)

	users := newMemberStub(root, childA, childB, grand)
	orders := volumeStub{
		root.ID:   decimal.RequireFromString("100.00"),
		childA.ID: decimal.RequireFromString("250.00"),
		grand.ID:  decimal.RequireFromString("50.00"),
	}
	earnings := earningsStub{childA.ID: decimal.RequireFromString("20.00")}

	svc := buildService(t, users, orders, earnings)

	tree, err := svc.Tree(context.Background(), root.ID, 3)
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	if tree.TeamSize != 4 {
		t.Fatalf("expected team size 4, got %d", tree.TeamSize)
	}
	if !tree.TeamVolume.Equal(decimal.RequireFromString("400.00")) {
		t.Fatalf("expected team volume 400.00, got %s", tree.TeamVolume)
	}
	if len(tree.Children) != 2 {
		t.Fatalf("expected two direct children, got %d", len(tree.Children))
	}

	var a *TreeNode
	for _, child := range tree.Children {
		if child.UserID == childA.ID {
			a = child
		}
	}
	if a == nil {
		t.Fatalf("child A missing from tree")
	}
	if a.Level != 1 || len(a.Children) != 1 || a.Children[0].Level != 2 {
		t.Fatalf("unexpected levels in subtree")
	}
	if a.TeamSize != 2 || !a.TeamVolume.Equal(decimal.RequireFromString("300.00")) {
		t.Fatalf("unexpected rollup for child A: size=%d volume=%s", a.TeamSize, a.TeamVolume)
	}
	if !a.CommissionTotal.Equal(decimal.RequireFromString("20.00")) {
		t.Fatalf("expected commission total 20.00, got %s", a.CommissionTotal)
	}
}

func TestTreeDepthIsClamped(t *testing.T) {
	root := member("Asha", nil)
	level1 := member("Bina", &root.ID)
	level2 := member("Chand", &level1.ID)
	users := newMemberStub(root, level1, level2)

	svc := buildService(t, users, volumeStub{}, earningsStub{})

	tree, err := svc.Tree(context.Background(), root.ID, 1)
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	if tree.TeamSize != 2 {
		t.Fatalf("expected depth-1 tree of size 2, got %d", tree.TeamSize)
	}
	if len(tree.Children) != 1 || len(tree.Children[0].Children) != 0 {
		t.Fatalf("expected level-2 member excluded at depth 1")
	}
}

func TestTreeUsesDefaultDepthWhenUnset(t *testing.T) {
	root := member("Asha", nil)
	prev := root
	chain := []*models.User{root}
	for i := 0; i < 5; i++ {
		next := member("Member", &prev.ID)
		chain = append(chain, next)
		prev = next
	}
	users := newMemberStub(chain...)

	svc := buildService(t, users, volumeStub{}, earningsStub{})

	tree, err := svc.Tree(context.Background(), root.ID, 0)
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	// default depth is 3: root plus three levels
	if tree.TeamSize != 4 {
		t.Fatalf("expected default-depth tree of size 4, got %d", tree.TeamSize)
	}
}

func TestTreeUnknownRoot(t *testing.T) {
	svc := buildService(t, newMemberStub(), volumeStub{}, earningsStub{})

	_, err := svc.Tree(context.Background(), uuid.New(), 2)
	if err == nil {
		t.Fatalf("expected not found")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTreeDetectsSponsorCycle(t *testing.T) {
	root := member("Asha", nil)
	loop := member("Bina", &root.ID)
	root.SponsorID = &loop.ID

	svc := buildService(t, newMemberStub(root, loop), volumeStub{}, earningsStub{})

	_, err := svc.Tree(context.Background(), root.ID, 5)
	if err == nil {
		t.Fatalf("expected cycle error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInternal {
		t.Fatalf("expected internal error on cycle, got %v", err)
	}
}

// --- test doubles -----------------------------------------------------------

func buildService(t *testing.T, users *memberStub, orders volumeStub, earnings earningsStub) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Users:        users,
		Orders:       orders,
		Commissions:  earnings,
		DefaultDepth: 3,
		MaxDepth:     10,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func member(name string, sponsorID *uuid.UUID) *models.User {
	return &models.User{
		ID:           uuid.New(),
		FirstName:    name,
		LastName:     "Rao",
		ReferralCode: "REF" + name,
		SponsorID:    sponsorID,
		IsActive:     true,
	}
}

type memberStub struct {
	byID map[uuid.UUID]*models.User
}

func newMemberStub(people ...*models.User) *memberStub {
	s := &memberStub{byID: map[uuid.UUID]*models.User{}}
	for _, u := range people {
		s.byID[u.ID] = u
	}
	return s
}

func (s *memberStub) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := s.byID[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memberStub) ListBySponsorIDs(_ context.Context, sponsorIDs []uuid.UUID) ([]models.User, error) {
	wanted := map[uuid.UUID]bool{}
	for _, id := range sponsorIDs {
		wanted[id] = true
	}
	var rows []models.User
	for _, u := range s.byID {
		if u.SponsorID != nil && wanted[*u.SponsorID] {
			rows = append(rows, *u)
		}
	}
	return rows, nil
}

func (s *memberStub) CountBySponsors(_ context.Context, sponsorIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := map[uuid.UUID]int64{}
	for _, u := range s.byID {
		if u.SponsorID != nil {
			counts[*u.SponsorID]++
		}
	}
	result := map[uuid.UUID]int64{}
	for _, id := range sponsorIDs {
		result[id] = counts[id]
	}
	return result, nil
}

type volumeStub map[uuid.UUID]decimal.Decimal

func (s volumeStub) SumDeliveredByBuyers(_ context.Context, buyerIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	result := map[uuid.UUID]decimal.Decimal{}
	for _, id := range buyerIDs {
		if v, ok := s[id]; ok {
			result[id] = v
		}
	}
	return result, nil
}

type earningsStub map[uuid.UUID]decimal.Decimal

func (s earningsStub) SumByEarners(_ context.Context, earnerIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	result := map[uuid.UUID]decimal.Decimal{}
	for _, id := range earnerIDs {
		if v, ok := s[id]; ok {
			result[id] = v
		}
	}
	return result, nil
}
