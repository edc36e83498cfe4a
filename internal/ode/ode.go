// Package ode provides the fixed-step integrators used to advance model
// state across one simulation window.
package ode

import "fmt"

// Type enumerates the supported integrators.
type Type int

const (
	EulerForward Type = iota
	EulerSemiImplicit
	RK4
)

func (t Type) String() string {
	switch t {
	case EulerForward:
		return "euler"
	case EulerSemiImplicit:
		return "semi_implicit_euler"
	case RK4:
		return "rk4"
	}
	return "unknown"
}

// ParseType maps a configuration string to an integrator type.
func ParseType(s string) (Type, error) {
	switch s {
	case "euler", "euler_forward":
		return EulerForward, nil
	case "semi_implicit_euler", "euler_semi_implicit":
		return EulerSemiImplicit, nil
	case "rk4":
		return RK4, nil
	}
	return 0, fmt.Errorf("ode: unknown integrator %q", s)
}

// Derivative evaluates dx/dt at (t, x).
type Derivative func(t float64, x []float64) ([]float64, error)

// Integrator advances a state vector by one fixed step.
type Integrator interface {
	Step(dot Derivative, x []float64, t, dt float64) ([]float64, error)
}

// New returns the integrator for the given type. nq is the number of leading
// position coordinates whose velocities occupy the next nq entries; only the
// semi-implicit integrator uses it.
func New(typ Type, nq int) (Integrator, error) {
	switch typ {
	case EulerForward:
		return forwardEuler{}, nil
	case EulerSemiImplicit:
		return semiImplicitEuler{nq: nq}, nil
	case RK4:
		return rungeKutta4{}, nil
	}
	return nil, fmt.Errorf("ode: unknown integrator type %d", typ)
}

type forwardEuler struct{}

func (forwardEuler) Step(dot Derivative, x []float64, t, dt float64) ([]float64, error) {
	dx, err := dot(t, x)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	for i := range x {
		out[i] = x[i] + dt*dx[i]
	}
	return out, nil
}

// semiImplicitEuler updates velocities first and advances the matching
// positions with the updated velocities. State layout: positions in [0, nq),
// their velocities in [nq, 2·nq), any remaining entries forward-Euler.
type semiImplicitEuler struct {
	nq int
}

func (s semiImplicitEuler) Step(dot Derivative, x []float64, t, dt float64) ([]float64, error) {
	dx, err := dot(t, x)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	for i := 2 * s.nq; i < len(x); i++ {
		out[i] = x[i] + dt*dx[i]
	}
	for i := 0; i < s.nq; i++ {
		out[s.nq+i] = x[s.nq+i] + dt*dx[s.nq+i]
		out[i] = x[i] + dt*out[s.nq+i]
	}
	return out, nil
}

type rungeKutta4 struct{}

func (rungeKutta4) Step(dot Derivative, x []float64, t, dt float64) ([]float64, error) {
	n := len(x)
	scratch := make([]float64, n)

	k1, err := dot(t, x)
	if err != nil {
		return nil, err
	}

	for i := 0; i < n; i++ {
		scratch[i] = x[i] + dt*0.5*k1[i]
	}
	k2, err := dot(t+dt*0.5, scratch)
	if err != nil {
		return nil, err
	}

	for i := 0; i < n; i++ {
		scratch[i] = x[i] + dt*0.5*k2[i]
	}
	k3, err := dot(t+dt*0.5, scratch)
	if err != nil {
		return nil, err
	}

	for i := 0; i < n; i++ {
		scratch[i] = x[i] + dt*k3[i]
	}
	k4, err := dot(t+dt, scratch)
	if err != nil {
		return nil, err
	}

	out := make([]float64, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		out[i] = x[i] + dt6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}
	return out, nil
}
