package sim

import "github.com/kvats/rigidsim/internal/model"

// CallbackHandler carries the optional hooks invoked by StepOverHorizon.
// A nil slot is a no-op; a nil handler behaves as plain repeated stepping.
type CallbackHandler struct {
	// Configure runs once before the horizon loop, e.g. to inject scripted
	// inputs into the simulator.
	Configure func(s *Simulator) error

	// PreStep runs before every step and may mutate the simulator.
	PreStep func(s *Simulator) error

	// PostStep runs after every step with that step's per-model StepData.
	// Its output value is collected, in step order, into the slice returned
	// by StepOverHorizon.
	PostStep func(s *Simulator, stepData map[string]model.StepData) (any, error)
}
