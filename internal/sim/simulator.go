// Package sim owns the simulation time base and the model registry, and
// drives per-step integration of every registered model over a shared time
// window.
package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/kvats/rigidsim/internal/descriptions"
	"github.com/kvats/rigidsim/internal/model"
	"github.com/kvats/rigidsim/internal/ode"
	"github.com/kvats/rigidsim/internal/physics"
	"github.com/kvats/rigidsim/internal/spatial"
)

// Config configures a simulator.
type Config struct {
	// StepSize is the integration step size in seconds. It is stored
	// internally as integer nanoseconds; all time bookkeeping is integer
	// arithmetic so that long runs accumulate no floating-point drift.
	StepSize float64

	// StepsPerRun is the number of integration substeps per step.
	// Zero means 1.
	StepsPerRun int

	VelocityRepresentation model.VelRepr
	Integrator             ode.Type

	// Data optionally seeds the simulator state.
	Data *Data
}

// Simulator is the simulation orchestrator.
type Simulator struct {
	stepSizeNS     int64
	stepsPerRun    int
	velRepr        model.VelRepr
	integratorType ode.Type
	data           *Data
	mutability     model.Mutability
}

// New builds a simulator from the given configuration.
func New(cfg Config) (*Simulator, error) {
	if cfg.StepSize <= 0 {
		return nil, fmt.Errorf("sim: step size must be positive, got %g", cfg.StepSize)
	}
	if cfg.StepsPerRun < 0 {
		return nil, fmt.Errorf("sim: steps per run must be positive, got %d", cfg.StepsPerRun)
	}

	stepsPerRun := cfg.StepsPerRun
	if stepsPerRun == 0 {
		stepsPerRun = 1
	}
	data := cfg.Data
	if data == nil {
		data = NewData()
	}

	return &Simulator{
		stepSizeNS:     secondsToNS(cfg.StepSize),
		stepsPerRun:    stepsPerRun,
		velRepr:        cfg.VelocityRepresentation,
		integratorType: cfg.Integrator,
		data:           data,
		mutability:     model.Mutable,
	}, nil
}

func secondsToNS(s float64) int64 {
	return int64(math.Round(s * 1e9))
}

// Time returns the current simulation time in seconds.
func (s *Simulator) Time() float64 { return float64(s.data.TimeNS) / 1e9 }

// TimeNS returns the current simulation time in nanoseconds.
func (s *Simulator) TimeNS() int64 { return s.data.TimeNS }

// Dt returns the time advanced by one Step call, in seconds.
func (s *Simulator) Dt() float64 {
	return float64(s.stepSizeNS*int64(s.stepsPerRun)) / 1e9
}

func (s *Simulator) StepsPerRun() int                          { return s.stepsPerRun }
func (s *Simulator) IntegratorType() ode.Type                  { return s.integratorType }
func (s *Simulator) VelocityRepresentation() model.VelRepr     { return s.velRepr }
func (s *Simulator) Gravity() spatial.Vec3                     { return s.data.Gravity }
func (s *Simulator) Terrain() physics.Terrain                  { return s.data.Terrain }
func (s *Simulator) ContactParams() physics.SoftContactsParams { return s.data.ContactParams }

func (s *Simulator) Mutability() model.Mutability { return s.mutability }

func (s *Simulator) SetMutability(mode model.Mutability) { s.mutability = mode }

// AcquireMutable upgrades the simulator to mutable and returns a guard that
// restores the previous mode.
func (s *Simulator) AcquireMutable() *model.Guard {
	prev := s.mutability
	s.mutability = model.Mutable
	return model.NewGuard(func() { s.mutability = prev })
}

// SetStepSize sets the integration step size in seconds.
func (s *Simulator) SetStepSize(stepSize float64) error {
	if s.mutability != model.Mutable {
		return ErrReadOnly
	}
	if stepSize <= 0 {
		return fmt.Errorf("sim: step size must be positive, got %g", stepSize)
	}
	s.stepSizeNS = secondsToNS(stepSize)
	return nil
}

func (s *Simulator) SetTerrain(t physics.Terrain) error {
	if s.mutability != model.Mutable {
		return ErrReadOnly
	}
	s.data.Terrain = t
	return nil
}

func (s *Simulator) SetContactParams(p physics.SoftContactsParams) error {
	if s.mutability != model.Mutable {
		return ErrReadOnly
	}
	s.data.ContactParams = p
	return nil
}

// SetGravity sets the world gravity and eagerly propagates it to the physics
// model of every currently registered model. Models inserted later read the
// simulator gravity at insertion time.
func (s *Simulator) SetGravity(g []float64) error {
	if s.mutability != model.Mutable {
		return ErrReadOnly
	}
	if len(g) != 3 {
		return fmt.Errorf("%w: got %d", ErrInvalidGravityDimension, len(g))
	}

	gravity := spatial.Vec3{g[0], g[1], g[2]}
	s.data.Gravity = gravity
	for _, m := range s.data.models {
		m.Physics().SetGravity(gravity)
	}
	return nil
}

// ModelNames returns the registered model names in insertion order.
func (s *Simulator) ModelNames() []string { return s.data.modelNames() }

// GetModel returns the model registered under the given name.
func (s *Simulator) GetModel(name string) (*model.Model, error) {
	m, ok := s.data.get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrModelNotFound, name)
	}
	return m, nil
}

// Models returns the registered models in insertion order.
func (s *Simulator) Models() []*model.Model {
	return append([]*model.Model(nil), s.data.models...)
}

// InsertModel registers a model built from the given description, seeded
// with the current simulator gravity. An empty name falls back to the
// description name. The simulator is unchanged on failure.
func (s *Simulator) InsertModel(desc *descriptions.ModelDescription, name string) (*model.Model, error) {
	if s.mutability != model.Mutable {
		return nil, ErrReadOnly
	}
	if name == "" {
		name = desc.Name
	}
	if _, ok := s.data.get(name); ok {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateModelName, name)
	}

	m, err := model.BuildFromDescription(desc, name, s.velRepr, s.data.Gravity)
	if err != nil {
		return nil, err
	}
	if err := s.data.insert(m); err != nil {
		return nil, err
	}
	return m, nil
}

// InsertModelFromSource parses a model-description source payload and
// registers the resulting model. consideredJoints optionally locks every
// movable joint not listed; nil keeps all joints.
func (s *Simulator) InsertModelFromSource(src []byte, name string, consideredJoints []string) (*model.Model, error) {
	desc, err := descriptions.Parse(src)
	if err != nil {
		return nil, err
	}
	return s.InsertModel(desc.ReduceTo(consideredJoints), name)
}

// RemoveModel unregisters the named model.
func (s *Simulator) RemoveModel(name string) error {
	if s.mutability != model.Mutable {
		return ErrReadOnly
	}
	if err := s.data.remove(name); err != nil {
		return fmt.Errorf("%w: %q", err, name)
	}
	return nil
}

// Reset zeroes the simulation time. With removeModels it clears the registry
// entirely; otherwise every model keeps its structure and is reset to its
// rest state.
func (s *Simulator) Reset(removeModels bool) error {
	if s.mutability != model.Mutable {
		return ErrReadOnly
	}

	s.data.TimeNS = 0
	if removeModels {
		s.data.clear()
		return nil
	}
	for _, m := range s.data.models {
		guard := m.AcquireMutable()
		m.Zero()
		guard.Release()
	}
	return nil
}

// Step advances the simulation by one step. Every registered model is
// integrated over the identical window [t0, tf) computed in integer ticks;
// each model is integrated under a scoped mutable acquisition. The commit is
// all-or-nothing: on any model failure every already integrated model is
// rolled back, time does not advance, and the error names the failing model.
func (s *Simulator) Step(clearInputs bool) (map[string]model.StepData, error) {
	if s.mutability != model.Mutable {
		return nil, ErrReadOnly
	}

	t0NS := s.data.TimeNS
	dtNS := s.stepSizeNS * int64(s.stepsPerRun)
	tfNS := t0NS + dtNS

	t0 := float64(t0NS) / 1e9
	tf := float64(tfNS) / 1e9

	type snapshot struct {
		m    *model.Model
		prev model.Data
	}

	stepData := make(map[string]model.StepData, len(s.data.models))
	committed := make([]snapshot, 0, len(s.data.models))

	rollback := func() {
		for _, c := range committed {
			guard := c.m.AcquireMutable()
			_ = c.m.SetData(c.prev)
			guard.Release()
		}
	}

	for _, m := range s.data.models {
		prev := m.Data()

		guard := m.AcquireMutable()
		sd, err := m.Integrate(t0, tf, s.stepsPerRun, s.integratorType, s.data.Terrain, s.data.ContactParams, clearInputs)
		guard.Release()

		if err != nil {
			rollback()
			return nil, &IntegrationError{Model: m.Name(), T0: t0, TF: tf, Wrapped: err}
		}

		committed = append(committed, snapshot{m, prev})
		stepData[m.Name()] = sd
	}

	s.data.TimeNS += dtNS
	return stepData, nil
}

// StepOverHorizon runs Step horizonSteps times. The optional handler's
// Configure hook runs once before the loop; PreStep and PostStep run around
// every step, and PostStep outputs are collected in step order. The
// simulator is made mutable for the loop and its original mutability is
// restored on every exit path. The context is checked once per iteration.
func (s *Simulator) StepOverHorizon(ctx context.Context, horizonSteps int, handler *CallbackHandler, clearInputs bool) ([]any, error) {
	if horizonSteps < 0 {
		return nil, fmt.Errorf("sim: horizon steps must be non-negative, got %d", horizonSteps)
	}

	guard := s.AcquireMutable()
	defer guard.Release()

	if handler != nil && handler.Configure != nil {
		if err := handler.Configure(s); err != nil {
			return nil, err
		}
	}

	var outputs []any
	for i := 0; i < horizonSteps; i++ {
		select {
		case <-ctx.Done():
			return outputs, ctx.Err()
		default:
		}

		// Callbacks observe a fully mutable simulator even if a previous
		// callback flipped the mode.
		s.mutability = model.Mutable

		if handler != nil && handler.PreStep != nil {
			if err := handler.PreStep(s); err != nil {
				return outputs, err
			}
		}

		stepData, err := s.Step(clearInputs)
		if err != nil {
			return outputs, err
		}

		if handler != nil && handler.PostStep != nil {
			out, err := handler.PostStep(s, stepData)
			if err != nil {
				return outputs, err
			}
			outputs = append(outputs, out)
		}
	}

	return outputs, nil
}
