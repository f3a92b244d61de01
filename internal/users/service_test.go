package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/padmaajarasooi/padmaaja-backend/pkg/db/models"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/enums"
	pkgerrors "github.com/padmaajarasooi/padmaaja-backend/pkg/errors"
)

type stubProfileRepo struct {
	Repository
	byID    map[uuid.UUID]*models.User
	updates map[uuid.UUID]map[string]any
}

func (s *stubProfileRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubProfileRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if s.updates == nil {
		s.updates = map[uuid.UUID]map[string]any{}
	}
	s.updates[id] = updates
	if user, ok := s.byID[id]; ok {
		if v, ok := updates["first_name"].(string); ok {
			user.FirstName = v
		}
		if v, ok := updates["phone"].(string); ok {
			user.Phone = &v
		}
	}
	return nil
}

func TestMeStripsSensitiveFields(t *testing.T) {
	userID := uuid.New()
	repo := &stubProfileRepo{byID: map[uuid.UUID]*models.User{
		userID: {
			ID:           userID,
			Email:        "asha@example.com",
			FirstName:    "Asha",
			Role:         enums.UserRolePartner,
			ReferralCode: "PRASHA01",
			IsActive:     true,
		},
	}}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	profile, err := svc.Me(context.Background(), userID)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if profile.Email != "asha@example.com" || profile.ReferralCode != "PRASHA01" {
		t.Fatalf("profile fields not mapped: %+v", profile)
	}
}

func TestMeUnknownUser(t *testing.T) {
	svc, err := NewService(&stubProfileRepo{byID: map[uuid.UUID]*models.User{}})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.Me(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateProfileTrimsAndApplies(t *testing.T) {
	userID := uuid.New()
	repo := &stubProfileRepo{byID: map[uuid.UUID]*models.User{
		userID: {ID: userID, FirstName: "Asha"},
	}}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	name := "  Meera "
	phone := " 9876543210 "
	profile, err := svc.UpdateProfile(context.Background(), userID, UpdateProfileRequest{
		FirstName: &name,
		Phone:     &phone,
	})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if profile.FirstName != "Meera" {
		t.Fatalf("name not trimmed: %q", profile.FirstName)
	}
	if repo.updates[userID]["phone"] != "9876543210" {
		t.Fatalf("phone not trimmed: %v", repo.updates[userID]["phone"])
	}
}

func TestUpdateProfileRejectsEmptyPatch(t *testing.T) {
	svc, err := NewService(&stubProfileRepo{byID: map[uuid.UUID]*models.User{}})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.UpdateProfile(context.Background(), uuid.New(), UpdateProfileRequest{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
