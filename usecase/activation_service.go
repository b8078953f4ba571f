package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/cheekoai/cheeko-server/domain/entities"
	"github.com/cheekoai/cheeko-server/domain/repositories"
	"github.com/cheekoai/cheeko-server/internal/saga"
)

// ErrDeviceAuth is returned when a device presents credentials that do not
// match an active provisioning row.
var ErrDeviceAuth = errors.New("invalid device credentials")

// Data keys for the activation workflow
const (
	dataKeyCode       = "code"
	dataKeyUserID     = "user_id"
	dataKeyCredential = "credential"
	dataKeyToy        = "toy"
)

// Step ids for the activation workflow
const (
	StepLookup   saga.StepID = "lookup"
	StepGuard    saga.StepID = "guard"
	StepBind     saga.StepID = "bind"
	StepFinalize saga.StepID = "finalize"
)

// ActivationService binds toys to parent accounts. Activation is a four-step
// workflow over the store: look the code up, guard against reuse, insert the
// ownership row, then flip the device's active flag. Each step has its own
// failure exit; nothing is retried automatically.
type ActivationService struct {
	credentials repositories.CredentialRepository
	toys        repositories.ToyRepository
	runner      *saga.Runner
	events      EventPublisher
	logger      *zap.Logger
}

// NewActivationService creates a new activation service.
func NewActivationService(
	credentials repositories.CredentialRepository,
	toys repositories.ToyRepository,
	runner *saga.Runner,
	events EventPublisher,
	logger *zap.Logger,
) *ActivationService {
	if events == nil {
		events = NoopPublisher()
	}
	return &ActivationService{
		credentials: credentials,
		toys:        toys,
		runner:      runner,
		events:      events,
		logger:      logger,
	}
}

// Activate exchanges a spoken 6-digit code for a toy bound to the session's
// account. The code format is checked before any store access. On success the
// returned toy carries the default configuration.
//
// A finalize fault means the ownership row exists but the device flag was not
// flipped; the error carries the mac id and toy id so the caller can retry
// the finalize step alone via RetryFinalize.
func (s *ActivationService) Activate(ctx context.Context, session entities.Session, code string) (*entities.Toy, error) {
	if err := entities.ValidateActivationCode(code); err != nil {
		return nil, fault(FaultInvalidCode, err)
	}

	data := saga.Data{
		dataKeyCode:   code,
		dataKeyUserID: session.UserID,
	}
	exec := s.runner.Run(ctx, &activationDefinition{svc: s}, data)

	if exec.Failed() {
		var we *WorkflowError
		if !errors.As(exec.Err, &we) {
			we = fault(FaultStoreUnavailable, exec.Err)
		}
		if we.Kind == FaultFinalizeFailed {
			// Partial state: the toy row exists, the flag does not. Keep the
			// row and log enough to reconcile.
			s.logger.Error("Toy bound but activation not finalized",
				zap.String("mac_id", we.MacID),
				zap.String("toy_id", we.ToyID),
				zap.String("step", string(exec.FailedStep)),
				zap.Error(we.Cause))
		}
		return nil, we
	}

	toy := exec.Data[dataKeyToy].(*entities.Toy)
	s.logger.Info("Toy activated",
		zap.String("mac_id", toy.MacID),
		zap.String("toy_id", toy.ID),
		zap.String("user_id", toy.UserID))
	s.events.Publish(toy.UserID, ToyEvent{
		Type:  EventToyActivated,
		ToyID: toy.ID,
		MacID: toy.MacID,
		Name:  toy.Name,
	})
	return toy, nil
}

// RetryFinalize flips the device's active flag for an already-bound toy
// without re-inserting it. Safe to call repeatedly.
func (s *ActivationService) RetryFinalize(ctx context.Context, session entities.Session, toyID string) (*entities.Toy, error) {
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

	affected, err := s.credentials.SetActive(ctx, toy.MacID, true)
	if err != nil || affected == 0 {
		if err == nil {
			err = errors.New("no credential row for mac id")
		}
		s.logger.Error("Finalize retry failed",
			zap.String("mac_id", toy.MacID),
			zap.String("toy_id", toy.ID),
			zap.Error(err))
		return nil, &WorkflowError{Kind: FaultFinalizeFailed, MacID: toy.MacID, ToyID: toy.ID, Cause: err}
	}

	s.logger.Info("Toy activation finalized",
		zap.String("mac_id", toy.MacID),
		zap.String("toy_id", toy.ID))
	s.events.Publish(toy.UserID, ToyEvent{
		Type:  EventToyActivated,
		ToyID: toy.ID,
		MacID: toy.MacID,
		Name:  toy.Name,
	})
	return toy, nil
}

// AuthenticateDevice checks a device's mac id and activation code against its
// provisioning row. Only activated devices may authenticate.
func (s *ActivationService) AuthenticateDevice(ctx context.Context, macID, code string) (*entities.ActivationCredential, error) {
	cred, err := s.credentials.GetByMacID(ctx, macID)
	if err != nil {
		return nil, fault(FaultStoreUnavailable, err)
	}
	if cred == nil || cred.ActivationCode != code || !cred.IsActive {
		return nil, ErrDeviceAuth
	}
	return cred, nil
}

// activationDefinition is the activation workflow: lookup, guard, bind,
// finalize, in that order.
type activationDefinition struct {
	svc *ActivationService
}

func (d *activationDefinition) ID() string {
	return "toy_activation"
}

func (d *activationDefinition) Steps() []saga.Step {
	return []saga.Step{
		&lookupStep{svc: d.svc},
		&guardStep{},
		&bindStep{svc: d.svc},
		&finalizeStep{svc: d.svc},
	}
}

// lookupStep fetches the credential row for the entered code.
type lookupStep struct {
	svc *ActivationService
}

func (s *lookupStep) ID() saga.StepID {
	return StepLookup
}

func (s *lookupStep) Execute(ctx context.Context, data saga.Data) saga.Result {
	code := data[dataKeyCode].(string)

	cred, err := s.svc.credentials.GetByActivationCode(ctx, code)
	if err != nil {
		return saga.Result{Err: fault(FaultLookupFailed, err)}
	}
	if cred == nil {
		return saga.Result{Err: fault(FaultCodeNotFound, nil)}
	}

	data[dataKeyCredential] = cred
	return saga.Result{Success: true, Data: cred}
}

// guardStep rejects codes whose device is already activated. A consumed code
// must never reach the bind step.
type guardStep struct{}

func (s *guardStep) ID() saga.StepID {
	return StepGuard
}

func (s *guardStep) Execute(ctx context.Context, data saga.Data) saga.Result {
	cred := data[dataKeyCredential].(*entities.ActivationCredential)
	if cred.IsActive {
		return saga.Result{Err: &WorkflowError{Kind: FaultAlreadyActivated, MacID: cred.MacID}}
	}
	return saga.Result{Success: true}
}

// bindStep inserts the ownership row with default configuration. Two
// concurrent activations for the same code can both pass the guard; the
// unique index on the mac id makes exactly one bind win, so a duplicate here
// is an expected race outcome, not a store bug.
type bindStep struct {
	svc *ActivationService
}

func (s *bindStep) ID() saga.StepID {
	return StepBind
}

func (s *bindStep) Execute(ctx context.Context, data saga.Data) saga.Result {
	userID := data[dataKeyUserID].(string)
	if userID == "" {
		return saga.Result{Err: fault(FaultUnauthenticated, nil)}
	}

	cred := data[dataKeyCredential].(*entities.ActivationCredential)
	code := data[dataKeyCode].(string)

	toy := entities.NewToy(userID, cred.MacID, code)
	if err := s.svc.toys.Create(ctx, toy); err != nil {
		if errors.Is(err, repositories.ErrDuplicateMac) {
			return saga.Result{Err: &WorkflowError{Kind: FaultAlreadyRegistered, MacID: cred.MacID, Cause: err}}
		}
		return saga.Result{Err: &WorkflowError{Kind: FaultBindFailed, MacID: cred.MacID, Cause: err}}
	}

	data[dataKeyToy] = toy
	return saga.Result{Success: true, Data: toy}
}

// finalizeStep marks the device's credential row active.
type finalizeStep struct {
	svc *ActivationService
}

func (s *finalizeStep) ID() saga.StepID {
	return StepFinalize
}

func (s *finalizeStep) Execute(ctx context.Context, data saga.Data) saga.Result {
	cred := data[dataKeyCredential].(*entities.ActivationCredential)
	toy := data[dataKeyToy].(*entities.Toy)

	affected, err := s.svc.credentials.SetActive(ctx, cred.MacID, true)
	if err == nil && affected == 0 {
		err = errors.New("no credential row for mac id")
	}
	if err != nil {
		return saga.Result{Err: &WorkflowError{
			Kind:  FaultFinalizeFailed,
			MacID: cred.MacID,
			ToyID: toy.ID,
			Cause: err,
		}}
	}
	return saga.Result{Success: true}
}
