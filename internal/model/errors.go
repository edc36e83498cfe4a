package model

import "errors"

var (
	// ErrReadOnly indicates a mutation was attempted while the model is in
	// read-only mode.
	ErrReadOnly = errors.New("model: model is read-only")

	// ErrInvalidState indicates the integrated state left the reals
	// (NaN or Inf detected).
	ErrInvalidState = errors.New("model: state is not finite")

	// ErrDimensionMismatch indicates an input vector with the wrong number
	// of components for this model.
	ErrDimensionMismatch = errors.New("model: dimension mismatch")
)
