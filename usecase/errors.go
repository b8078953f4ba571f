package usecase

import (
	"errors"
	"fmt"
)

// FaultKind classifies a workflow failure. Every fault a workflow can surface
// is one of these, so handlers can switch exhaustively instead of matching
// error text.
type FaultKind string

const (
	FaultInvalidCode       FaultKind = "invalid_code"
	FaultInvalidOption     FaultKind = "invalid_option"
	FaultUnauthenticated   FaultKind = "unauthenticated"
	FaultCodeNotFound      FaultKind = "code_not_found"
	FaultLookupFailed      FaultKind = "lookup_failed"
	FaultAlreadyActivated  FaultKind = "already_activated"
	FaultAlreadyRegistered FaultKind = "already_registered"
	FaultBindFailed        FaultKind = "bind_failed"
	FaultFinalizeFailed    FaultKind = "finalize_failed"
	FaultNotOwned          FaultKind = "not_owned"
	FaultDeleteFailed      FaultKind = "delete_failed"
	FaultReleaseFailed     FaultKind = "release_failed"
	FaultStoreUnavailable  FaultKind = "store_unavailable"
)

// WorkflowError is a classified workflow failure. MacID and ToyID are filled
// in for the faults that leave a reconcilable inconsistent state (finalize
// and release failures) so the log line and the response carry enough context
// to repair it.
type WorkflowError struct {
	Kind  FaultKind
	MacID string
	ToyID string
	Cause error
}

func (e *WorkflowError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	}
	return string(e.Kind)
}

func (e *WorkflowError) Unwrap() error {
	return e.Cause
}

// fault builds a WorkflowError with just a kind and cause.
func fault(kind FaultKind, cause error) *WorkflowError {
	return &WorkflowError{Kind: kind, Cause: cause}
}

// FaultOf extracts the fault kind from err, or "" when err is not a
// workflow error.
func FaultOf(err error) FaultKind {
	var we *WorkflowError
	if errors.As(err, &we) {
		return we.Kind
	}
	return ""
}

// IsFault reports whether err is a workflow error of the given kind.
func IsFault(err error, kind FaultKind) bool {
	return FaultOf(err) == kind
}

// faultMessages are the short human-readable messages surfaced to callers.
var faultMessages = map[FaultKind]string{
	FaultInvalidCode:       "Please enter the 6-digit code.",
	FaultInvalidOption:     "One of the selected options is not available.",
	FaultUnauthenticated:   "You are not logged in.",
	FaultCodeNotFound:      "Invalid activation code.",
	FaultLookupFailed:      "Could not verify the activation code. Please try again.",
	FaultAlreadyActivated:  "This toy has already been activated.",
	FaultAlreadyRegistered: "This toy is already registered to an account.",
	FaultBindFailed:        "A database error occurred while adding the toy.",
	FaultFinalizeFailed:    "Could not finalize toy activation in the database.",
	FaultNotOwned:          "Toy not found.",
	FaultDeleteFailed:      "An unexpected error occurred while unbinding the toy.",
	FaultReleaseFailed:     "The toy was removed but could not be released. Please try again.",
	FaultStoreUnavailable:  "An unexpected error occurred. Please try again.",
}

// Message returns the user-facing message for a workflow error.
func (e *WorkflowError) Message() string {
	if msg, ok := faultMessages[e.Kind]; ok {
		return msg
	}
	return faultMessages[FaultStoreUnavailable]
}
