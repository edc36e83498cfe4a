package sim

import (
	"errors"
	"fmt"
)

// Domain errors for simulator operations.
var (
	// ErrDuplicateModelName indicates an insertion under a name already
	// registered with the simulator.
	ErrDuplicateModelName = errors.New("sim: model is already part of the simulation")

	// ErrModelNotFound indicates a lookup or removal of an unregistered model.
	ErrModelNotFound = errors.New("sim: model is not part of the simulation")

	// ErrInvalidGravityDimension indicates a gravity vector without exactly
	// 3 components.
	ErrInvalidGravityDimension = errors.New("sim: gravity must have exactly 3 components")

	// ErrReadOnly indicates a mutation was attempted while the simulator is
	// in read-only mode.
	ErrReadOnly = errors.New("sim: simulator is read-only")
)

// IntegrationError wraps a failure of one model's integrate operation with
// the step window it occurred in.
type IntegrationError struct {
	Model   string
	T0, TF  float64
	Wrapped error
}

func (e *IntegrationError) Error() string {
	return fmt.Sprintf("sim: integrating model %q over [%g, %g): %v", e.Model, e.T0, e.TF, e.Wrapped)
}

func (e *IntegrationError) Unwrap() error {
	return e.Wrapped
}
