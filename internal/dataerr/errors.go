// Package dataerr holds the error taxonomy shared by the table, partition,
// window and evaluate packages.
//
// Every typed error matches its sentinel with errors.Is, so callers that only
// care about the category do not need errors.As:
//
//	if errors.Is(err, dataerr.ErrInvalidConfiguration) { ... }
package dataerr

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedInput is matched by every *MalformedInputError.
	ErrMalformedInput = errors.New("malformed input")
	// ErrInvalidConfiguration is matched by every *InvalidConfigurationError.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrShapeMismatch is matched by every *ShapeMismatchError.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrEmptySampleSet is returned by consumers that refuse to train or
	// evaluate on a sample set with zero samples. Producing an empty set is
	// not an error.
	ErrEmptySampleSet = errors.New("sample set is empty")
)

// MalformedInputError reports a table row that breaks the ordering or width
// invariant. Row is -1 when the problem is not tied to a row (e.g. the field set).
type MalformedInputError struct {
	Row    int
	Reason string
}

func (e *MalformedInputError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("malformed input: %s", e.Reason)
	}
	return fmt.Sprintf("malformed input at row %d: %s", e.Row, e.Reason)
}

func (e *MalformedInputError) Is(target error) bool {
	return target == ErrMalformedInput
}

// InvalidConfigurationError names the offending configuration field and value.
type InvalidConfigurationError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s=%v: %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

// ShapeMismatchError reports expected vs actual tensor shapes.
type ShapeMismatchError struct {
	Expected []int
	Actual   []int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch: expected %v, got %v", e.Expected, e.Actual)
}

func (e *ShapeMismatchError) Is(target error) bool {
	return target == ErrShapeMismatch
}

// Malformed is a shorthand constructor for *MalformedInputError.
func Malformed(row int, format string, args ...interface{}) error {
	return &MalformedInputError{Row: row, Reason: fmt.Sprintf(format, args...)}
}

// InvalidConfig is a shorthand constructor for *InvalidConfigurationError.
func InvalidConfig(field string, value interface{}, format string, args ...interface{}) error {
	return &InvalidConfigurationError{Field: field, Value: value, Reason: fmt.Sprintf(format, args...)}
}
