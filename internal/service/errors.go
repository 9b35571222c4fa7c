package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"docspot/internal/identity"
	"docspot/internal/model"
	"docspot/internal/repository"
)

// Error kinds surfaced to callers. Handlers map each to a stable error code.
var (
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrMissingAsset        = errors.New("document has no file url")
	ErrTimeout             = errors.New("store call timed out")
	ErrLoggingFailure      = errors.New("access logging failed")
	ErrAlreadyExists       = errors.New("already exists")
	ErrUploadFailed        = errors.New("upload failed")
)

// TimeoutError reports a store deadline together with whether the purchase transfer had committed.
// A nil Committed means the outcome could not be determined.
type TimeoutError struct {
	Op        string
	Committed *bool
}

func (e *TimeoutError) Error() string {
	state := "unknown"
	if e.Committed != nil {
		state = strconv.FormatBool(*e.Committed)
	}
	return fmt.Sprintf("%s: %v (transfer committed: %s)", e.Op, ErrTimeout, state)
}

func committedState(b bool) *bool { return &b }

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// translate maps repository and context errors onto the service error kinds.
// Unknown errors are wrapped with op and returned as is.
func translate(op string, err error) error {
	var ve model.ValidationError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return &TimeoutError{Op: op, Committed: committedState(false)}
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, repository.ErrAlreadyExists):
		return fmt.Errorf("%s: %w", op, ErrAlreadyExists)
	case errors.Is(err, repository.ErrInsufficientBalance):
		return fmt.Errorf("%s: %w", op, ErrInsufficientBalance)
	case errors.Is(err, repository.ErrInvalidTransfer):
		return fmt.Errorf("%s: %w", op, ErrInvalidRequest)
	case errors.Is(err, identity.ErrUnauthorized):
		return fmt.Errorf("%s: %w", op, ErrUnauthorized)
	case errors.As(err, &ve):
		return fmt.Errorf("%w: %s", ErrInvalidRequest, ve.Error())
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// StepWarning is a best-effort step that failed after access was granted.
// It matches ErrLoggingFailure and the underlying cause.
type StepWarning struct {
	Step string
	Err  error
}

func (w *StepWarning) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrLoggingFailure, w.Step, w.Err)
}

func (w *StepWarning) Unwrap() []error { return []error{ErrLoggingFailure, w.Err} }

// warning wraps a step failure. A timed out step also matches ErrTimeout and carries
// whether the purchase transfer had committed.
func warning(step string, err error, committed bool) error {
	if errors.Is(err, context.DeadlineExceeded) {
		err = &TimeoutError{Op: step, Committed: committedState(committed)}
	}
	return &StepWarning{Step: step, Err: err}
}
