package adapters

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cheekoai/cheeko-server/domain/entities"
	"github.com/cheekoai/cheeko-server/domain/repositories"
)

// MemoryCredentialRepository is an in-memory implementation of
// CredentialRepository. Suitable as a simple storage backend for development
// and as a fake in tests; credentials are seeded with AddCredential.
type MemoryCredentialRepository struct {
	mu    sync.RWMutex
	byMac map[string]*entities.ActivationCredential
}

// NewMemoryCredentialRepository creates a new in-memory credential repository
func NewMemoryCredentialRepository() *MemoryCredentialRepository {
	return &MemoryCredentialRepository{
		byMac: make(map[string]*entities.ActivationCredential),
	}
}

// AddCredential seeds a provisioning row, replacing any row for the same mac.
func (m *MemoryCredentialRepository) AddCredential(code, macID string) error {
	cred := &entities.ActivationCredential{
		ID:             uuid.New().String(),
		ActivationCode: code,
		MacID:          macID,
		CreatedAt:      time.Now(),
	}
	if err := cred.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.byMac[macID] = cred
	return nil
}

// GetByActivationCode implements repositories.CredentialRepository
func (m *MemoryCredentialRepository) GetByActivationCode(ctx context.Context, code string) (*entities.ActivationCredential, error) {
	if code == "" {
		return nil, errors.New("activation code cannot be empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, cred := range m.byMac {
		if cred.ActivationCode == code {
			credCopy := *cred
			return &credCopy, nil
		}
	}
	return nil, nil
}

// GetByMacID implements repositories.CredentialRepository
func (m *MemoryCredentialRepository) GetByMacID(ctx context.Context, macID string) (*entities.ActivationCredential, error) {
	if macID == "" {
		return nil, errors.New("mac id cannot be empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	cred, exists := m.byMac[macID]
	if !exists {
		return nil, nil
	}
	credCopy := *cred
	return &credCopy, nil
}

// SetActive implements repositories.CredentialRepository
func (m *MemoryCredentialRepository) SetActive(ctx context.Context, macID string, active bool) (int64, error) {
	if macID == "" {
		return 0, errors.New("mac id cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cred, exists := m.byMac[macID]
	if !exists {
		return 0, nil
	}
	cred.IsActive = active
	return 1, nil
}

// MemoryToyRepository is an in-memory implementation of ToyRepository with
// the same uniqueness guarantee the MongoDB index provides: at most one toy
// per mac id.
type MemoryToyRepository struct {
	mu   sync.RWMutex
	toys map[string]*entities.Toy // id -> toy
	macs map[string]string        // mac id -> toy id
}

// NewMemoryToyRepository creates a new in-memory toy repository
func NewMemoryToyRepository() *MemoryToyRepository {
	return &MemoryToyRepository{
		toys: make(map[string]*entities.Toy),
		macs: make(map[string]string),
	}
}

// Create implements repositories.ToyRepository
func (m *MemoryToyRepository) Create(ctx context.Context, toy *entities.Toy) error {
	if toy == nil {
		return errors.New("toy cannot be nil")
	}
	if err := toy.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.macs[toy.MacID]; exists {
		return repositories.ErrDuplicateMac
	}

	if toy.ID == "" {
		toy.ID = uuid.New().String()
	}
	if toy.CreatedAt.IsZero() {
		toy.CreatedAt = time.Now()
	}

	toyCopy := *toy
	m.toys[toy.ID] = &toyCopy
	m.macs[toy.MacID] = toy.ID

	return nil
}

// GetByID implements repositories.ToyRepository
func (m *MemoryToyRepository) GetByID(ctx context.Context, id, ownerID string) (*entities.Toy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	toy, exists := m.toys[id]
	if !exists || toy.UserID != ownerID {
		return nil, nil
	}

	toyCopy := *toy
	return &toyCopy, nil
}

// GetByOwnerID implements repositories.ToyRepository
func (m *MemoryToyRepository) GetByOwnerID(ctx context.Context, ownerID string) ([]*entities.Toy, error) {
	if ownerID == "" {
		return nil, errors.New("owner id cannot be empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []*entities.Toy{}
	for _, toy := range m.toys {
		if toy.UserID == ownerID {
			toyCopy := *toy
			result = append(result, &toyCopy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

// UpdateFields implements repositories.ToyRepository
func (m *MemoryToyRepository) UpdateFields(ctx context.Context, id, ownerID string, patch entities.ToyPatch) (int64, error) {
	if patch.Empty() {
		return 0, errors.New("patch cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	toy, exists := m.toys[id]
	if !exists || toy.UserID != ownerID {
		return 0, nil
	}

	if patch.Name != nil {
		toy.Name = *patch.Name
	}
	if patch.RoleType != nil {
		toy.RoleType = *patch.RoleType
	}
	if patch.Language != nil {
		toy.Language = *patch.Language
	}
	if patch.Voice != nil {
		toy.Voice = *patch.Voice
	}
	if patch.KidName != nil {
		toy.KidName = *patch.KidName
	}
	if patch.Sensitivity != nil {
		toy.Sensitivity = *patch.Sensitivity
	}

	return 1, nil
}

// Delete implements repositories.ToyRepository
func (m *MemoryToyRepository) Delete(ctx context.Context, id, ownerID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	toy, exists := m.toys[id]
	if !exists || toy.UserID != ownerID {
		return 0, nil
	}

	delete(m.toys, id)
	delete(m.macs, toy.MacID)
	return 1, nil
}

// MemoryProfileRepository is an in-memory implementation of ProfileRepository.
type MemoryProfileRepository struct {
	mu       sync.RWMutex
	profiles map[string]*entities.ParentProfile // user id -> profile
}

// NewMemoryProfileRepository creates a new in-memory profile repository
func NewMemoryProfileRepository() *MemoryProfileRepository {
	return &MemoryProfileRepository{
		profiles: make(map[string]*entities.ParentProfile),
	}
}

// GetByUserID implements repositories.ProfileRepository
func (m *MemoryProfileRepository) GetByUserID(ctx context.Context, userID string) (*entities.ParentProfile, error) {
	if userID == "" {
		return nil, errors.New("user id cannot be empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	profile, exists := m.profiles[userID]
	if !exists {
		return nil, nil
	}
	profileCopy := *profile
	return &profileCopy, nil
}

// Upsert implements repositories.ProfileRepository
func (m *MemoryProfileRepository) Upsert(ctx context.Context, profile *entities.ParentProfile) error {
	if profile == nil {
		return errors.New("profile cannot be nil")
	}
	if err := profile.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, exists := m.profiles[profile.UserID]; exists {
		profile.ID = existing.ID
	} else if profile.ID == "" {
		profile.ID = uuid.New().String()
	}

	profileCopy := *profile
	m.profiles[profile.UserID] = &profileCopy
	return nil
}

// MemoryUserRepository is an in-memory implementation of UserRepository.
type MemoryUserRepository struct {
	mu     sync.RWMutex
	users  map[string]*entities.User // id -> user
	emails map[string]string         // email -> id
}

// NewMemoryUserRepository creates a new in-memory user repository
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users:  make(map[string]*entities.User),
		emails: make(map[string]string),
	}
}

// Create implements repositories.UserRepository
func (m *MemoryUserRepository) Create(ctx context.Context, user *entities.User) error {
	if user == nil {
		return errors.New("user cannot be nil")
	}
	if err := user.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.emails[user.Email]; exists {
		return repositories.ErrDuplicateEmail
	}

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	userCopy := *user
	m.users[user.ID] = &userCopy
	m.emails[user.Email] = user.ID

	return nil
}

// GetByID implements repositories.UserRepository
func (m *MemoryUserRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, exists := m.users[id]
	if !exists {
		return nil, nil
	}
	userCopy := *user
	return &userCopy, nil
}

// GetByEmail implements repositories.UserRepository
func (m *MemoryUserRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	if email == "" {
		return nil, errors.New("email cannot be empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	id, exists := m.emails[email]
	if !exists {
		return nil, nil
	}
	userCopy := *m.users[id]
	return &userCopy, nil
}
