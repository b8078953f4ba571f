package repositories

import (
	"context"
	"errors"

	"github.com/cheekoai/cheeko-server/domain/entities"
)

// Sentinel errors adapters translate store-specific faults into, so usecases
// never inspect driver error text.
var (
	// ErrDuplicateMac is returned when a toy insert hits the unique index on
	// the mac id: the device is already bound to some account.
	ErrDuplicateMac = errors.New("mac id already registered")

	// ErrDuplicateEmail is returned when a user insert hits the unique index
	// on the email address.
	ErrDuplicateEmail = errors.New("email already registered")
)

// CredentialRepository defines data access methods for the broker auth table.
type CredentialRepository interface {
	// GetByActivationCode returns the credential matching code, or nil
	// without error when no row matches.
	GetByActivationCode(ctx context.Context, code string) (*entities.ActivationCredential, error)
	// GetByMacID returns the credential for a device, or nil when unknown.
	GetByMacID(ctx context.Context, macID string) (*entities.ActivationCredential, error)
	// SetActive flips the active flag for a device and returns the number of
	// rows matched. Setting an already-equal flag still matches the row.
	SetActive(ctx context.Context, macID string, active bool) (int64, error)
}

// ToyRepository defines data access methods for bound toys.
type ToyRepository interface {
	// Create inserts a toy, returning ErrDuplicateMac when the mac id is
	// already bound.
	Create(ctx context.Context, toy *entities.Toy) error
	// GetByID returns the toy only when it belongs to ownerID, nil otherwise.
	GetByID(ctx context.Context, id, ownerID string) (*entities.Toy, error)
	// GetByOwnerID returns the owner's toys, newest first.
	GetByOwnerID(ctx context.Context, ownerID string) ([]*entities.Toy, error)
	// UpdateFields writes the present patch fields for the toy scoped by both
	// id and owner, returning the number of rows matched.
	UpdateFields(ctx context.Context, id, ownerID string, patch entities.ToyPatch) (int64, error)
	// Delete removes the toy scoped by both id and owner, returning the
	// number of rows deleted.
	Delete(ctx context.Context, id, ownerID string) (int64, error)
}

// ProfileRepository defines data access methods for parent profiles.
type ProfileRepository interface {
	// GetByUserID returns the user's profile, or nil when none saved yet.
	GetByUserID(ctx context.Context, userID string) (*entities.ParentProfile, error)
	// Upsert updates the user's profile, inserting it on first save.
	Upsert(ctx context.Context, profile *entities.ParentProfile) error
}

// UserRepository defines data access methods for parent accounts.
type UserRepository interface {
	// Create inserts a user, returning ErrDuplicateEmail when taken.
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id string) (*entities.User, error)
	// GetByEmail returns the user, or nil when unknown.
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
}
