package usecase

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/cheekoai/cheeko-server/adapters"
	"github.com/cheekoai/cheeko-server/domain/entities"
)

func TestProfileLazyCreateThenUpdate(t *testing.T) {
	svc := NewProfileService(adapters.NewMemoryProfileRepository(), zap.NewNop())
	ctx := context.Background()

	profile, err := svc.Get(ctx, session())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if profile != nil {
		t.Fatal("Expected no profile before first save")
	}

	// First save inserts.
	saved, err := svc.Save(ctx, session(), "Priya", "priya@example.com", "+911234567890")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if saved.ParentName != "Priya" {
		t.Errorf("Expected name Priya, got %s", saved.ParentName)
	}

	// Second save updates the same profile.
	if _, err := svc.Save(ctx, session(), "Priya S", "priya@example.com", ""); err != nil {
		t.Fatalf("Second save failed: %v", err)
	}

	profile, err = svc.Get(ctx, session())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if profile == nil || profile.ParentName != "Priya S" {
		t.Errorf("Expected updated profile, got %+v", profile)
	}
	if profile.ParentPhoneNumber != "" {
		t.Errorf("Expected phone cleared, got %s", profile.ParentPhoneNumber)
	}
}

func TestProfileValidation(t *testing.T) {
	svc := NewProfileService(adapters.NewMemoryProfileRepository(), zap.NewNop())
	ctx := context.Background()

	if _, err := svc.Save(ctx, session(), "", "priya@example.com", ""); !IsFault(err, FaultInvalidOption) {
		t.Errorf("Expected validation fault for missing name, got %v", err)
	}
	if _, err := svc.Save(ctx, session(), "Priya", "", ""); !IsFault(err, FaultInvalidOption) {
		t.Errorf("Expected validation fault for missing email, got %v", err)
	}
	if _, err := svc.Save(ctx, entities.Session{}, "Priya", "priya@example.com", ""); !IsFault(err, FaultUnauthenticated) {
		t.Errorf("Expected unauthenticated fault, got %v", err)
	}
}
