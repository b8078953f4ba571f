package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/cheekoai/cheeko-server/domain/entities"
	"github.com/cheekoai/cheeko-server/domain/repositories"
)

// ProfileService reads and saves the parent profile for an account. The
// profile is created lazily on first save and never deleted.
type ProfileService struct {
	profiles repositories.ProfileRepository
	logger   *zap.Logger
}

// NewProfileService creates a new profile service.
func NewProfileService(profiles repositories.ProfileRepository, logger *zap.Logger) *ProfileService {
	return &ProfileService{profiles: profiles, logger: logger}
}

// Get returns the session's profile, or nil when none has been saved yet.
func (s *ProfileService) Get(ctx context.Context, session entities.Session) (*entities.ParentProfile, error) {
	if !session.Authenticated() {
		return nil, fault(FaultUnauthenticated, nil)
	}
	profile, err := s.profiles.GetByUserID(ctx, session.UserID)
	if err != nil {
		return nil, fault(FaultStoreUnavailable, err)
	}
	return profile, nil
}

// Save writes the session's profile, inserting it on first save.
func (s *ProfileService) Save(ctx context.Context, session entities.Session, name, email, phone string) (*entities.ParentProfile, error) {
	if !session.Authenticated() {
		return nil, fault(FaultUnauthenticated, nil)
	}

	profile := &entities.ParentProfile{
		UserID:            session.UserID,
		ParentName:        name,
		ParentEmail:       email,
		ParentPhoneNumber: phone,
	}
	if err := profile.Validate(); err != nil {
		return nil, fault(FaultInvalidOption, err)
	}

	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return nil, fault(FaultStoreUnavailable, err)
	}

	s.logger.Info("Parent profile saved", zap.String("user_id", session.UserID))
	return profile, nil
}
