package model

import (
	"fmt"
	"math"

	"github.com/kvats/rigidsim/internal/ode"
	"github.com/kvats/rigidsim/internal/physics"
	"github.com/kvats/rigidsim/internal/spatial"
)

// StepData is the per-model record of one integration window: the sampled
// trajectory (initial state plus one sample per substep) and diagnostic
// quantities produced by the integrator.
type StepData struct {
	T0, TF          float64
	Times           []float64
	JointPositions  [][]float64
	JointVelocities [][]float64
	BasePose        spatial.Mat4
	BaseVelocity    spatial.Vec3 // expressed per the model's velocity representation
	Diagnostics     map[string]float64
}

// State vector layout: positions first, matching velocities second, so the
// semi-implicit integrator can pair them up.
//
//	fixed base:    [q(n), qd(n)]
//	floating base: [q(n), basePos(3), qd(n), baseVel(3)]

func (m *Model) packState() []float64 {
	n := m.physics.DOFs()
	x := make([]float64, 2*m.numPositions())
	copy(x, m.data.JointPositions)
	copy(x[m.numPositions():], m.data.JointVelocities)
	if !m.physics.FixedBase() {
		p := m.data.BasePose.Translation()
		copy(x[n:n+3], p[:])
		v := m.data.BaseVelocity
		copy(x[m.numPositions()+n:], v[:])
	}
	return x
}

func (m *Model) unpackState(x []float64) {
	n := m.physics.DOFs()
	copy(m.data.JointPositions, x[:n])
	copy(m.data.JointVelocities, x[m.numPositions():m.numPositions()+n])
	if !m.physics.FixedBase() {
		pos := spatial.Vec3{x[n], x[n+1], x[n+2]}
		m.data.BasePose = spatial.Mat4FromRotationTranslation(m.data.BasePose.Rotation(), pos)
		off := m.numPositions() + n
		m.data.BaseVelocity = spatial.Vec3{x[off], x[off+1], x[off+2]}
	}
}

func (m *Model) numPositions() int {
	if m.physics.FixedBase() {
		return m.physics.DOFs()
	}
	return m.physics.DOFs() + 3
}

func (m *Model) derivative(terrain physics.Terrain, contacts physics.SoftContactsParams) ode.Derivative {
	n := m.physics.DOFs()
	np := m.numPositions()
	baseRot := m.data.BasePose.Rotation()
	tau := append([]float64(nil), m.data.JointForces...)

	return func(t float64, x []float64) ([]float64, error) {
		q := x[:n]
		qd := x[np : np+n]

		basePose := m.data.BasePose
		if !m.physics.FixedBase() {
			basePose = spatial.Mat4FromRotationTranslation(baseRot, spatial.Vec3{x[n], x[n+1], x[n+2]})
		}

		qdd, err := m.physics.JointAccelerations(basePose, q, qd, tau)
		if err != nil {
			return nil, err
		}

		dx := make([]float64, len(x))
		copy(dx[:n], qd)
		copy(dx[np:np+n], qdd)

		if !m.physics.FixedBase() {
			pos := basePose.Translation()
			vel := spatial.Vec3{x[np+n], x[np+n+1], x[np+n+2]}
			accel := m.baseAcceleration(pos, vel, terrain, contacts)

			copy(dx[n:n+3], vel[:])
			copy(dx[np+n:], accel[:])
		}

		return dx, nil
	}
}

// baseAcceleration applies gravity plus the soft-contact reaction of the
// terrain on the base point of a floating-base model.
func (m *Model) baseAcceleration(pos, vel spatial.Vec3, terrain physics.Terrain, contacts physics.SoftContactsParams) spatial.Vec3 {
	accel := m.physics.Gravity()

	normal := terrain.Normal(pos[0], pos[1])
	penetration := terrain.Height(pos[0], pos[1]) - pos[2]
	vn := vel.Dot(normal)

	f := contacts.NormalForce(penetration, vn)
	if f == 0 {
		return accel
	}

	mass := m.physics.TotalMass()
	accel = accel.Add(normal.Scale(f / mass))

	tangential := vel.Sub(normal.Scale(vn))
	if speed := tangential.Norm(); speed > 1e-9 {
		accel = accel.Add(tangential.Scale(-contacts.Mu * f / (mass * speed)))
	}
	return accel
}

// Integrate advances the dynamic state across [t0, tf) with subSteps fixed
// substeps of the selected integrator, under the given terrain and contact
// parameters. The sampled trajectory is returned; clearInputs zeroes the
// applied joint forces after a successful window.
func (m *Model) Integrate(t0, tf float64, subSteps int, typ ode.Type, terrain physics.Terrain, contacts physics.SoftContactsParams, clearInputs bool) (StepData, error) {
	if m.mutability != Mutable {
		return StepData{}, ErrReadOnly
	}
	if subSteps < 1 {
		return StepData{}, fmt.Errorf("model: sub steps must be >= 1, got %d", subSteps)
	}
	if tf <= t0 {
		return StepData{}, fmt.Errorf("model: empty integration window [%g, %g)", t0, tf)
	}

	integ, err := ode.New(typ, m.numPositions())
	if err != nil {
		return StepData{}, err
	}

	n := m.physics.DOFs()
	dot := m.derivative(terrain, contacts)
	dt := (tf - t0) / float64(subSteps)

	x := m.packState()
	out := StepData{
		T0:          t0,
		TF:          tf,
		Times:       make([]float64, 0, subSteps+1),
		Diagnostics: make(map[string]float64),
	}

	sample := func(t float64, x []float64) {
		out.Times = append(out.Times, t)
		out.JointPositions = append(out.JointPositions, append([]float64(nil), x[:n]...))
		out.JointVelocities = append(out.JointVelocities, append([]float64(nil), x[m.numPositions():m.numPositions()+n]...))
	}
	sample(t0, x)

	maxSpeed := 0.0
	for i := 0; i < subSteps; i++ {
		t := t0 + float64(i)*dt
		x, err = integ.Step(dot, x, t, dt)
		if err != nil {
			return StepData{}, err
		}
		if !finite(x) {
			return StepData{}, fmt.Errorf("%w: at t=%g", ErrInvalidState, t+dt)
		}
		sample(t+dt, x)

		for _, qd := range x[m.numPositions() : m.numPositions()+n] {
			if s := math.Abs(qd); s > maxSpeed {
				maxSpeed = s
			}
		}
	}

	m.unpackState(x)
	if clearInputs {
		for i := range m.data.JointForces {
			m.data.JointForces[i] = 0
		}
	}

	out.BasePose = m.data.BasePose
	out.BaseVelocity = m.reportedBaseVelocity()
	out.Diagnostics["max_joint_speed"] = maxSpeed
	if !m.physics.FixedBase() {
		pos := m.data.BasePose.Translation()
		out.Diagnostics["base_height"] = pos[2]
		out.Diagnostics["contact_penetration"] = math.Max(0, terrain.Height(pos[0], pos[1])-pos[2])
	}

	return out, nil
}

// reportedBaseVelocity expresses the base linear velocity in the model's
// velocity representation. Inertial and mixed share the world orientation;
// body rotates the vector into the base frame.
func (m *Model) reportedBaseVelocity() spatial.Vec3 {
	if m.velRepr == VelReprBody {
		return m.data.BasePose.Rotation().Transpose().MulVec(m.data.BaseVelocity)
	}
	return m.data.BaseVelocity
}

func finite(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
