package hypothesis

import (
	"errors"
	"fmt"
)

var (
	// ErrDegenerate is matched by every DegenerateInputError.
	ErrDegenerate = errors.New("degenerate input")
	// ErrNoConvergence is matched by every ConvergenceError.
	ErrNoConvergence = errors.New("solver did not converge")
)

// DegenerateInputError indicates that a test cannot produce a valid statistic
// for the given data (too few categories, groups or observations).
type DegenerateInputError struct {
	Test   string
	Reason string
}

func (e *DegenerateInputError) Error() string {
	return fmt.Sprintf("%s: degenerate input: %s", e.Test, e.Reason)
}

func (e *DegenerateInputError) Is(target error) bool { return target == ErrDegenerate }

// ConvergenceError indicates that an iterative estimator stopped without a valid fit.
type ConvergenceError struct {
	Test       string
	Iterations int
	Reason     string
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%s: no convergence after %d iterations: %s", e.Test, e.Iterations, e.Reason)
}

func (e *ConvergenceError) Is(target error) bool { return target == ErrNoConvergence }

func degenerate(test, format string, args ...any) error {
	return &DegenerateInputError{Test: test, Reason: fmt.Sprintf(format, args...)}
}
