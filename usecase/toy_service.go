package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/cheekoai/cheeko-server/domain/entities"
	"github.com/cheekoai/cheeko-server/domain/repositories"
	"github.com/cheekoai/cheeko-server/internal/saga"
)

// Step ids for the unbind workflow
const (
	StepDelete  saga.StepID = "delete"
	StepRelease saga.StepID = "release"
)

// ToyService reads and edits toys owned by the session's account, and
// unbinds them. Unbind is the reverse of activation: drop the ownership row,
// then release the device flag.
type ToyService struct {
	toys        repositories.ToyRepository
	credentials repositories.CredentialRepository
	runner      *saga.Runner
	events      EventPublisher
	logger      *zap.Logger
}

// NewToyService creates a new toy service.
func NewToyService(
	toys repositories.ToyRepository,
	credentials repositories.CredentialRepository,
	runner *saga.Runner,
	events EventPublisher,
	logger *zap.Logger,
) *ToyService {
	if events == nil {
		events = NoopPublisher()
	}
	return &ToyService{
		toys:        toys,
		credentials: credentials,
		runner:      runner,
		events:      events,
		logger:      logger,
	}
}

// List returns the session's toys, newest first.
func (s *ToyService) List(ctx context.Context, session entities.Session) ([]*entities.Toy, error) {
	if !session.Authenticated() {
		return nil, fault(FaultUnauthenticated, nil)
	}
	toys, err := s.toys.GetByOwnerID(ctx, session.UserID)
	if err != nil {
		return nil, fault(FaultStoreUnavailable, err)
	}
	return toys, nil
}

// Get returns one of the session's toys.
func (s *ToyService) Get(ctx context.Context, session entities.Session, toyID string) (*entities.Toy, error) {
	if !session.Authenticated() {
		return nil, fault(FaultUnauthenticated, nil)
	}
	toy, err := s.toys.GetByID(ctx, toyID, session.UserID)
	if err != nil {
		return nil, fault(FaultStoreUnavailable, err)
	}
	if toy == nil {
		return nil, fault(FaultNotOwned, nil)
	}
	return toy, nil
}

// Update writes the present patch fields to one of the session's toys.
// Omitted fields are left untouched. A write matching zero rows means the toy
// does not exist or belongs to someone else; it is never a silent success.
func (s *ToyService) Update(ctx context.Context, session entities.Session, toyID string, patch entities.ToyPatch) (*entities.Toy, error) {
	if !session.Authenticated() {
		return nil, fault(FaultUnauthenticated, nil)
	}
	if err := patch.Validate(); err != nil {
		return nil, fault(FaultInvalidOption, err)
	}
	if patch.Empty() {
		// Nothing to write, nothing to announce.
		return s.Get(ctx, session, toyID)
	}

	affected, err := s.toys.UpdateFields(ctx, toyID, session.UserID, patch)
	if err != nil {
		return nil, fault(FaultStoreUnavailable, err)
	}
	if affected == 0 {
		return nil, fault(FaultNotOwned, nil)
	}

	toy, err := s.toys.GetByID(ctx, toyID, session.UserID)
	if err != nil {
		return nil, fault(FaultStoreUnavailable, err)
	}
	if toy == nil {
		return nil, fault(FaultNotOwned, nil)
	}

	s.events.Publish(toy.UserID, ToyEvent{
		Type:  EventToyUpdated,
		ToyID: toy.ID,
		MacID: toy.MacID,
		Name:  toy.Name,
	})
	return toy, nil
}

// Unbind removes one of the session's toys and releases its device flag.
//
// The delete runs first and is scoped by owner, so a mismatch aborts with the
// device flag untouched. A release fault leaves the flag claiming active with
// no ownership row behind it; the error carries the mac id so the caller can
// retry the release alone. Releasing an already-inactive device succeeds.
func (s *ToyService) Unbind(ctx context.Context, session entities.Session, toyID string) error {
	if !session.Authenticated() {
		return fault(FaultUnauthenticated, nil)
	}

	toy, err := s.toys.GetByID(ctx, toyID, session.UserID)
	if err != nil {
		return fault(FaultStoreUnavailable, err)
	}
	if toy == nil {
		return fault(FaultNotOwned, nil)
	}

	data := saga.Data{
		dataKeyUserID: session.UserID,
		dataKeyToy:    toy,
	}
	exec := s.runner.Run(ctx, &unbindDefinition{svc: s}, data)

	if exec.Failed() {
		var we *WorkflowError
		if !errors.As(exec.Err, &we) {
			we = fault(FaultStoreUnavailable, exec.Err)
		}
		if we.Kind == FaultReleaseFailed {
			// Partial state: ownership row is gone, the device flag still
			// claims active.
			s.logger.Error("Toy unbound but device not released",
				zap.String("mac_id", we.MacID),
				zap.String("toy_id", we.ToyID),
				zap.String("step", string(exec.FailedStep)),
				zap.Error(we.Cause))
		}
		return we
	}

	s.logger.Info("Toy unbound",
		zap.String("mac_id", toy.MacID),
		zap.String("toy_id", toy.ID),
		zap.String("user_id", toy.UserID))
	s.events.Publish(toy.UserID, ToyEvent{
		Type:  EventToyUnbound,
		ToyID: toy.ID,
		MacID: toy.MacID,
		Name:  toy.Name,
	})
	return nil
}

// ReleaseDevice retries the release step alone after a partial unbind.
// Setting an already-inactive flag is a no-op success.
func (s *ToyService) ReleaseDevice(ctx context.Context, session entities.Session, macID string) error {
	if !session.Authenticated() {
		return fault(FaultUnauthenticated, nil)
	}
	if _, err := s.credentials.SetActive(ctx, macID, false); err != nil {
		return &WorkflowError{Kind: FaultReleaseFailed, MacID: macID, Cause: err}
	}
	return nil
}

// unbindDefinition is the unbind workflow: delete the ownership row, then
// release the device flag.
type unbindDefinition struct {
	svc *ToyService
}

func (d *unbindDefinition) ID() string {
	return "toy_unbind"
}

func (d *unbindDefinition) Steps() []saga.Step {
	return []saga.Step{
		&deleteStep{svc: d.svc},
		&releaseStep{svc: d.svc},
	}
}

// deleteStep removes the ownership row, scoped by both toy id and owner.
type deleteStep struct {
	svc *ToyService
}

func (s *deleteStep) ID() saga.StepID {
	return StepDelete
}

func (s *deleteStep) Execute(ctx context.Context, data saga.Data) saga.Result {
	toy := data[dataKeyToy].(*entities.Toy)
	userID := data[dataKeyUserID].(string)

	affected, err := s.svc.toys.Delete(ctx, toy.ID, userID)
	if err != nil {
		return saga.Result{Err: &WorkflowError{Kind: FaultDeleteFailed, ToyID: toy.ID, Cause: err}}
	}
	if affected == 0 {
		// Already gone or owned by someone else; either way nothing was
		// deleted, so the device flag stays untouched.
		return saga.Result{Err: &WorkflowError{Kind: FaultNotOwned, ToyID: toy.ID}}
	}
	return saga.Result{Success: true}
}

// releaseStep clears the device's active flag. Skipped for toys with no
// recorded mac id.
type releaseStep struct {
	svc *ToyService
}

func (s *releaseStep) ID() saga.StepID {
	return StepRelease
}

func (s *releaseStep) Execute(ctx context.Context, data saga.Data) saga.Result {
	toy := data[dataKeyToy].(*entities.Toy)
	if toy.MacID == "" {
		return saga.Result{Success: true}
	}

	if _, err := s.svc.credentials.SetActive(ctx, toy.MacID, false); err != nil {
		return saga.Result{Err: &WorkflowError{
			Kind:  FaultReleaseFailed,
			MacID: toy.MacID,
			ToyID: toy.ID,
			Cause: err,
		}}
	}
	return saga.Result{Success: true}
}
