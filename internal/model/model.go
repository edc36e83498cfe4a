// Package model provides the high-level steppable model handle registered
// with the simulator: it pairs a physics model with its per-step dynamic
// state and exposes the integrate operation.
package model

import (
	"fmt"

	"github.com/kvats/rigidsim/internal/descriptions"
	"github.com/kvats/rigidsim/internal/physics"
	"github.com/kvats/rigidsim/internal/spatial"
)

// Data is the dynamic state of a model. Joint vectors are indexed by the
// generalized-coordinate order of the physics model.
type Data struct {
	JointPositions  []float64
	JointVelocities []float64
	JointForces     []float64
	BasePose        spatial.Mat4
	BaseVelocity    spatial.Vec3
}

// Clone returns a deep copy of the dynamic state.
func (d Data) Clone() Data {
	out := d
	out.JointPositions = append([]float64(nil), d.JointPositions...)
	out.JointVelocities = append([]float64(nil), d.JointVelocities...)
	out.JointForces = append([]float64(nil), d.JointForces...)
	return out
}

// Model owns its physics structure and dynamic state.
type Model struct {
	name       string
	physics    *physics.Model
	velRepr    VelRepr
	data       Data
	mutability Mutability
}

// Build wraps an already constructed physics model.
func Build(name string, pm *physics.Model, velRepr VelRepr) *Model {
	m := &Model{
		name:       name,
		physics:    pm,
		velRepr:    velRepr,
		mutability: Mutable,
	}
	m.data = restData(pm)
	return m
}

// BuildFromDescription builds the physics model from a description, seeded
// with the given gravity, and wraps it. An empty name falls back to the
// description name.
func BuildFromDescription(desc *descriptions.ModelDescription, name string, velRepr VelRepr, gravity spatial.Vec3) (*Model, error) {
	pm, err := physics.Build(desc, gravity)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = desc.Name
	}
	return Build(name, pm, velRepr), nil
}

func restData(pm *physics.Model) Data {
	n := pm.DOFs()
	return Data{
		JointPositions:  make([]float64, n),
		JointVelocities: make([]float64, n),
		JointForces:     make([]float64, n),
		BasePose:        pm.RootPose(),
	}
}

func (m *Model) Name() string                    { return m.name }
func (m *Model) Physics() *physics.Model         { return m.physics }
func (m *Model) VelocityRepresentation() VelRepr { return m.velRepr }
func (m *Model) DOFs() int                       { return m.physics.DOFs() }

// Data returns a copy of the dynamic state.
func (m *Model) Data() Data { return m.data.Clone() }

func (m *Model) Mutability() Mutability { return m.mutability }

func (m *Model) SetMutability(mode Mutability) { m.mutability = mode }

// AcquireMutable upgrades the model to mutable and returns a guard that
// restores the previous mode.
func (m *Model) AcquireMutable() *Guard {
	prev := m.mutability
	m.mutability = Mutable
	return NewGuard(func() { m.mutability = prev })
}

// SetJointForces sets the applied generalized forces consumed by the next
// integration window.
func (m *Model) SetJointForces(tau []float64) error {
	if m.mutability != Mutable {
		return ErrReadOnly
	}
	if len(tau) != m.physics.DOFs() {
		return fmt.Errorf("%w: expected %d joint forces, got %d", ErrDimensionMismatch, m.physics.DOFs(), len(tau))
	}
	copy(m.data.JointForces, tau)
	return nil
}

func (m *Model) SetJointPositions(q []float64) error {
	if m.mutability != Mutable {
		return ErrReadOnly
	}
	if len(q) != m.physics.DOFs() {
		return fmt.Errorf("%w: expected %d joint positions, got %d", ErrDimensionMismatch, m.physics.DOFs(), len(q))
	}
	copy(m.data.JointPositions, q)
	return nil
}

func (m *Model) SetJointVelocities(qd []float64) error {
	if m.mutability != Mutable {
		return ErrReadOnly
	}
	if len(qd) != m.physics.DOFs() {
		return fmt.Errorf("%w: expected %d joint velocities, got %d", ErrDimensionMismatch, m.physics.DOFs(), len(qd))
	}
	copy(m.data.JointVelocities, qd)
	return nil
}

// SetData replaces the whole dynamic state, e.g. to restore a snapshot
// taken with Data.
func (m *Model) SetData(d Data) error {
	if m.mutability != Mutable {
		return ErrReadOnly
	}
	n := m.physics.DOFs()
	if len(d.JointPositions) != n || len(d.JointVelocities) != n || len(d.JointForces) != n {
		return fmt.Errorf("%w: expected %d-dof state", ErrDimensionMismatch, n)
	}
	m.data = d.Clone()
	return nil
}

// Zero resets the dynamic state to the model rest state: zero joint state
// and inputs, base pose back at the description root pose, zero base
// velocity. The physics structure is untouched.
func (m *Model) Zero() {
	m.data = restData(m.physics)
}
