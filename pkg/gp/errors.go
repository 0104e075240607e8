package gp

import (
	"errors"

	"github.com/llm-d-incubation/homgp/pkg/reps"
)

var (
	ErrDimensionMismatch   = reps.ErrDimensionMismatch
	ErrInvalidInput        = reps.ErrInvalidInput
	ErrInvalidBounds       = errors.New("invalid bounds")
	ErrNotPositiveDefinite = errors.New("covariance matrix is not positive definite")
	ErrStaleFactorization  = errors.New("factorization does not match hyperparameters")
	ErrNoFeasiblePoint     = errors.New("no hyperparameter value with a finite likelihood")
	ErrSingular            = errors.New("pseudo-inverse failed")
)
