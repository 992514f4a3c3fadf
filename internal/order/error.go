package order

import (
	"errors"
	"strings"

	"go.uber.org/multierr"
)

var (
	// -- Authentication/Authorization --
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrActionNotAllowed = errors.New("action not allowed")

	// -- Validation & Input --
	ErrValidationFailed = errors.New("validation failed")

	// -- Resource State --
	ErrOrderNotFound              = errors.New("order does not exist")
	ErrProductNotInOrder          = errors.New("product is not in order")
	ErrOrderItemNotFound          = errors.New("order item does not exist")
	ErrOrderItemVariationNotFound = errors.New("order item variation does not exist")

	// ErrInvalidCount means a zero line count reached matching. Validated
	// input and persisted rows never carry one, so this is a defect.
	ErrInvalidCount = errors.New("line count must be positive")
)

// ValidationError aggregates every field problem found in one request.
type ValidationError struct {
	err error
}

func newValidationError(err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{err: err}
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0)
	for _, fe := range e.Errors() {
		msgs = append(msgs, fe.Error())
	}
	return ErrValidationFailed.Error() + ": " + strings.Join(msgs, "; ")
}

// Errors returns the individual field errors.
func (e *ValidationError) Errors() []error {
	return multierr.Errors(e.err)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}
