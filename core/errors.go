package core

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidRange = errors.New("invalid date range")
	ErrConflict     = errors.New("conflict")
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// BatchError reports a write job where some sub-batches were rolled back.
// Completed rows are committed; Failed rows were not written at all.
type BatchError struct {
	Completed int
	Failed    int
	Errs      []error
}

func (err *BatchError) Error() string {
	msg := fmt.Sprintf("partial batch failure: %d written, %d rolled back", err.Completed, err.Failed)
	if len(err.Errs) > 0 {
		msg += ": " + err.Errs[0].Error()
		if len(err.Errs) > 1 {
			msg += fmt.Sprintf(" (and %d more)", len(err.Errs)-1)
		}
	}
	return msg
}

// AsBatchError unwraps err down to a *BatchError, if any.
func AsBatchError(err error) (*BatchError, bool) {
	bErr, ok := errors.Cause(err).(*BatchError)
	return bErr, ok
}

func IsNotFound(err error) bool {
	return errors.Cause(err) == ErrNotFound
}
