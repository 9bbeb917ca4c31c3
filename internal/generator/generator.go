// Package generator is the boundary to the external text-generation service
// that supplies sub-scores, content variants and production briefs.
package generator

import (
	"context"
	"errors"

	"architect/internal/domain"
)

// Generator is the capability the core depends on. Implementations return
// validated values or an error wrapping ErrGeneratorFailure.
type Generator interface {
	Evaluate(ctx context.Context, ideaContent, goalDescription string) (domain.CDFScore, error)
	GenerateVariants(ctx context.Context, constraints string) ([]domain.Variant, error)
	GenerateBrief(ctx context.Context, ideaContent string) (domain.ProductionBrief, error)
}

var (
	// ErrGeneratorFailure wraps every failure crossing the generator boundary.
	ErrGeneratorFailure = errors.New("generator failure")
	// ErrMalformedResponse marks a response that does not match the expected shape.
	ErrMalformedResponse = errors.New("malformed generator response")
)

// TransientError represents a temporary error that may succeed on retry.
type TransientError struct {
	err error
}

func (e *TransientError) Error() string {
	return e.err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.err
}

// NewTransientError wraps an error as transient (retryable).
func NewTransientError(err error) error {
	return &TransientError{err: err}
}

// IsTransient returns true if the error is transient and should be retried.
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

// Op names a generator operation in logs and metrics.
type Op string

const (
	OpEvaluate Op = "evaluate"
	OpVariants Op = "variants"
	OpBrief    Op = "brief"
)
