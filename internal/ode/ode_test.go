package ode

import (
	"errors"
	"math"
	"testing"
)

// Harmonic oscillator x'' = -x with state [q, qd].
func oscillator(t float64, x []float64) ([]float64, error) {
	return []float64{x[1], -x[0]}, nil
}

func TestRK4Accuracy(t *testing.T) {
	integ, err := New(RK4, 1)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	x := []float64{1.0, 0.0}
	dt := 0.01
	steps := 100

	for i := 0; i < steps; i++ {
		x, err = integ.Step(oscillator, x, float64(i)*dt, dt)
		if err != nil {
			t.Fatalf("step failed: %v", err)
		}
	}

	expectedQ := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[0]-expectedQ) > 1e-6 {
		t.Errorf("position error too large: got %.8f, expected %.8f", x[0], expectedQ)
	}
	if math.Abs(x[1]-expectedV) > 1e-6 {
		t.Errorf("velocity error too large: got %.8f, expected %.8f", x[1], expectedV)
	}
}

func TestEulerForwardConvergence(t *testing.T) {
	integ, err := New(EulerForward, 1)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	// x' = -x, exact solution e^-t.
	decay := func(t float64, x []float64) ([]float64, error) {
		return []float64{-x[0]}, nil
	}

	x := []float64{1.0}
	dt := 0.001
	for i := 0; i < 1000; i++ {
		x, err = integ.Step(decay, x, float64(i)*dt, dt)
		if err != nil {
			t.Fatalf("step failed: %v", err)
		}
	}

	if math.Abs(x[0]-math.Exp(-1.0)) > 1e-3 {
		t.Errorf("expected ~%.6f, got %.6f", math.Exp(-1.0), x[0])
	}
}

func TestSemiImplicitEulerEnergyBounded(t *testing.T) {
	integ, err := New(EulerSemiImplicit, 1)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	energy := func(x []float64) float64 {
		return 0.5*x[1]*x[1] + 0.5*x[0]*x[0]
	}

	x := []float64{1.0, 0.0}
	e0 := energy(x)
	dt := 0.01

	for i := 0; i < 10000; i++ {
		x, err = integ.Step(oscillator, x, float64(i)*dt, dt)
		if err != nil {
			t.Fatalf("step failed: %v", err)
		}
	}

	// Symplectic Euler keeps the oscillator energy bounded where forward
	// Euler diverges over this many steps.
	if drift := math.Abs(energy(x)-e0) / e0; drift > 0.02 {
		t.Errorf("energy drift too large: %.4f", drift)
	}
}

func TestStepPropagatesError(t *testing.T) {
	boom := errors.New("derivative failed")
	dot := func(t float64, x []float64) ([]float64, error) { return nil, boom }

	for _, typ := range []Type{EulerForward, EulerSemiImplicit, RK4} {
		integ, err := New(typ, 1)
		if err != nil {
			t.Fatalf("new %s failed: %v", typ, err)
		}
		if _, err := integ.Step(dot, []float64{1, 0}, 0, 0.01); !errors.Is(err, boom) {
			t.Errorf("%s: expected derivative error, got %v", typ, err)
		}
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in   string
		want Type
	}{
		{"euler", EulerForward},
		{"euler_forward", EulerForward},
		{"semi_implicit_euler", EulerSemiImplicit},
		{"rk4", RK4},
	}
	for _, tt := range tests {
		got, err := ParseType(tt.in)
		if err != nil {
			t.Errorf("%s: unexpected error %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.in, tt.want, got)
		}
	}

	if _, err := ParseType("leapfrog"); err == nil {
		t.Error("expected error for unknown integrator")
	}
}
