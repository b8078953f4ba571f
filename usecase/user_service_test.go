package usecase

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/cheekoai/cheeko-server/adapters"
)

func TestRegisterAndLogin(t *testing.T) {
	svc := NewUserService(adapters.NewMemoryUserRepository(), zap.NewNop())
	ctx := context.Background()

	user, err := svc.Register(ctx, "Parent@Example.com", "Parent One", "correct horse")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Email != "parent@example.com" {
		t.Errorf("Expected normalized email, got %s", user.Email)
	}
	if user.PasswordHash == "correct horse" {
		t.Error("Password must not be stored in clear")
	}

	logged, err := svc.Login(ctx, "parent@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if logged.ID != user.ID {
		t.Errorf("Expected user %s, got %s", user.ID, logged.ID)
	}

	if _, err := svc.Login(ctx, "parent@example.com", "wrong password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected invalid credentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "correct horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected invalid credentials for unknown email, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := NewUserService(adapters.NewMemoryUserRepository(), zap.NewNop())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "not-an-email", "Name", "long enough"); err == nil {
		t.Error("Expected rejection of malformed email")
	}
	if _, err := svc.Register(ctx, "a@b.com", "", "long enough"); err == nil {
		t.Error("Expected rejection of empty name")
	}
	if _, err := svc.Register(ctx, "a@b.com", "Name", "short"); err == nil {
		t.Error("Expected rejection of short password")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewUserService(adapters.NewMemoryUserRepository(), zap.NewNop())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "parent@example.com", "One", "long enough"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := svc.Register(ctx, "parent@example.com", "Two", "long enough"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("Expected email taken, got %v", err)
	}
}
