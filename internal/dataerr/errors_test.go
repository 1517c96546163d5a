package dataerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsMatchSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		message  string
	}{
		{
			name:     "malformed_row",
			err:      Malformed(7, "timestamp %s is not after previous", "t"),
			sentinel: ErrMalformedInput,
			message:  "malformed input at row 7: timestamp t is not after previous",
		},
		{
			name:     "malformed_schema",
			err:      Malformed(-1, "empty field set"),
			sentinel: ErrMalformedInput,
			message:  "malformed input: empty field set",
		},
		{
			name:     "invalid_config",
			err:      InvalidConfig("trainFraction", 1.5, "must be in (0,1)"),
			sentinel: ErrInvalidConfiguration,
			message:  "invalid configuration trainFraction=1.5: must be in (0,1)",
		},
		{
			name:     "shape_mismatch",
			err:      &ShapeMismatchError{Expected: []int{2, 12}, Actual: []int{3, 12}},
			sentinel: ErrShapeMismatch,
			message:  "shape mismatch: expected [2 12], got [3 12]",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			wrapped := fmt.Errorf("stage: %w", test.err)
			if !errors.Is(wrapped, test.sentinel) {
				t.Errorf("errors.Is on wrapped error, got: false, expected: true")
			}
			if errors.Is(wrapped, ErrEmptySampleSet) {
				t.Errorf("errors.Is against ErrEmptySampleSet, got: true, expected: false")
			}
			if test.err.Error() != test.message {
				t.Errorf("error message, got: %q, expected: %q", test.err.Error(), test.message)
			}
		})
	}
}

func TestShapeMismatchAs(t *testing.T) {
	err := fmt.Errorf("evaluate: %w", &ShapeMismatchError{Expected: []int{2, 12}, Actual: []int{5, 12}})
	var shapeErr *ShapeMismatchError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("errors.As, got: false, expected: true")
	}
	if shapeErr.Expected[0] != 2 || shapeErr.Actual[0] != 5 {
		t.Errorf("sample counts, got: %d/%d, expected: 2/5", shapeErr.Expected[0], shapeErr.Actual[0])
	}
}
