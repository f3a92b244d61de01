package genealogy

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/padmaajarasooi/padmaaja-backend/pkg/db/models"
	pkgerrors "github.com/padmaajarasooi/padmaaja-backend/pkg/errors"
)

type memberSource interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListBySponsorIDs(ctx context.Context, sponsorIDs []uuid.UUID) ([]models.User, error)
	CountBySponsors(ctx context.Context, sponsorIDs []uuid.UUID) (map[uuid.UUID]int64, error)
}

type volumeSource interface {
	SumDeliveredByBuyers(ctx context.Context, buyerIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
}

type earningsSource interface {
	SumByEarners(ctx context.Context, earnerIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
}

// Service builds downline trees rooted at a given member.
type Service interface {
	Tree(ctx context.Context, rootID uuid.UUID, depth int) (*TreeNode, error)
}

type service struct {
	users        memberSource
	orders       volumeSource
	commissions  earningsSource
	defaultDepth int
	maxDepth     int
}

// ServiceParams bundles the genealogy service dependencies.
type ServiceParams struct {
	Users        memberSource
	Orders       volumeSource
	Commissions  earningsSource
	DefaultDepth int
	MaxDepth     int
}

// NewService builds a genealogy service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Users == nil {
		return nil, errors.New("users source required")
	}
	if params.Orders == nil {
		return nil, errors.New("orders source required")
	}
	if params.Commissions == nil {
		return nil, errors.New("commissions source required")
	}
	if params.DefaultDepth <= 0 {
		params.DefaultDepth = 3
	}
	if params.MaxDepth <= 0 {
		params.MaxDepth = 10
	}
	return &service{
		users:        params.Users,
		orders:       params.Orders,
		commissions:  params.Commissions,
		defaultDepth: params.DefaultDepth,
		maxDepth:     params.MaxDepth,
	}, nil
}

// Tree walks the downline breadth first, one query per level, then attaches
// batch-loaded stats and rolls team figures up from the leaves.
func (s *service) Tree(ctx context.Context, rootID uuid.UUID, depth int) (*TreeNode, error) {
	if rootID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "root user id required")
	}
	depth = s.clampDepth(depth)

	root, err := s.users.FindByID(ctx, rootID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load root user")
	}

	nodes := map[uuid.UUID]*TreeNode{rootID: newNode(root, 0)}
	children := map[uuid.UUID][]uuid.UUID{}
	visited := map[uuid.UUID]bool{rootID: true}

	frontier := []uuid.UUID{rootID}
	for level := 1; level <= depth && len(frontier) > 0; level++ {
		members, err := s.users.ListBySponsorIDs(ctx, frontier)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load downline level")
		}

		next := make([]uuid.UUID, 0, len(members))
		for i := range members {
			member := members[i]
			if visited[member.ID] {
				return nil, pkgerrors.New(pkgerrors.CodeInternal,
					fmt.Sprintf("sponsor graph cycle at user %s", member.ID))
			}
			visited[member.ID] = true
			nodes[member.ID] = newNode(&member, level)
			if member.SponsorID != nil {
				children[*member.SponsorID] = append(children[*member.SponsorID], member.ID)
			}
			next = append(next, member.ID)
		}
		frontier = next
	}

	if err := s.attachStats(ctx, nodes); err != nil {
		return nil, err
	}

	for parentID, childIDs := range children {
		parent := nodes[parentID]
		for _, childID := range childIDs {
			parent.Children = append(parent.Children, nodes[childID])
		}
	}

	rollUp(nodes[rootID])
	return nodes[rootID], nil
}

func (s *service) clampDepth(depth int) int {
	if depth <= 0 {
		return s.defaultDepth
	}
	if depth > s.maxDepth {
		return s.maxDepth
	}
	return depth
}

func (s *service) attachStats(ctx context.Context, nodes map[uuid.UUID]*TreeNode) error {
	ids := make([]uuid.UUID, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}

	directCounts, err := s.users.CountBySponsors(ctx, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count direct referrals")
	}
	volumes, err := s.orders.SumDeliveredByBuyers(ctx, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum personal volumes")
	}
	earnings, err := s.commissions.SumByEarners(ctx, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum commission earnings")
	}

	for id, node := range nodes {
		node.DirectCount = directCounts[id]
		if volume, ok := volumes[id]; ok {
			node.PersonalVolume = volume
		}
		if earned, ok := earnings[id]; ok {
			node.CommissionTotal = earned
		}
	}
	return nil
}

func newNode(user *models.User, level int) *TreeNode {
	return &TreeNode{
		UserID:          user.ID,
		Name:            user.FirstName + " " + user.LastName,
		ReferralCode:    user.ReferralCode,
		Role:            user.Role,
		JoinedAt:        user.CreatedAt,
		Level:           level,
		PersonalVolume:  decimal.Zero,
		CommissionTotal: decimal.Zero,
		TeamVolume:      decimal.Zero,
		Children:        []*TreeNode{},
	}
}

func rollUp(node *TreeNode) {
	node.TeamSize = 1
	node.TeamVolume = node.PersonalVolume
	for _, child := range node.Children {
		rollUp(child)
		node.TeamSize += child.TeamSize
		node.TeamVolume = node.TeamVolume.Add(child.TeamVolume)
	}
}
