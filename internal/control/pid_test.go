package control

import (
	"context"
	"math"
	"testing"

	"github.com/kvats/rigidsim/internal/config"
	"github.com/kvats/rigidsim/internal/ode"
	"github.com/kvats/rigidsim/internal/sim"
)

func TestPIDProportionalOnFirstSample(t *testing.T) {
	pid := NewPID(2.0, 0.5, 1.0, 1.0)

	u := pid.Compute(0.0, 0.0)
	if math.Abs(u-2.0) > 1e-12 {
		t.Errorf("expected pure proportional output 2.0, got %f", u)
	}
}

func TestPIDIntegralAccumulates(t *testing.T) {
	pid := NewPID(0.0, 1.0, 0.0, 1.0)

	pid.Compute(0.0, 0.0)
	u1 := pid.Compute(0.0, 1.0)
	u2 := pid.Compute(0.0, 2.0)

	if u2 <= u1 {
		t.Errorf("expected integral term to grow under constant error, got %f then %f", u1, u2)
	}
}

func TestPIDDerivativeOpposesApproach(t *testing.T) {
	pid := NewPID(0.0, 0.0, 1.0, 1.0)

	pid.Compute(0.0, 0.0)
	u := pid.Compute(0.5, 1.0)

	// Error shrinking at 0.5/s gives a negative derivative term.
	if math.Abs(u+0.5) > 1e-12 {
		t.Errorf("expected derivative output -0.5, got %f", u)
	}
}

func TestPIDReset(t *testing.T) {
	pid := NewPID(1.0, 1.0, 1.0, 1.0)
	pid.Compute(0.0, 0.0)
	pid.Compute(0.2, 1.0)

	pid.Reset()
	u := pid.Compute(0.0, 5.0)
	if math.Abs(u-1.0) > 1e-12 {
		t.Errorf("expected proportional-only output after reset, got %f", u)
	}
}

func TestJointPositionControllerDrivesCart(t *testing.T) {
	s, err := sim.New(sim.Config{StepSize: 0.001, Integrator: ode.EulerSemiImplicit})
	if err != nil {
		t.Fatalf("new simulator: %v", err)
	}

	if _, err := s.InsertModelFromSource([]byte(config.ModelPresets["cart"]), "", nil); err != nil {
		t.Fatalf("insert cart: %v", err)
	}

	ctrl := NewJointPositionController("cart", 40.0, 0.0, 15.0, []float64{1.0})

	if _, err := s.StepOverHorizon(context.Background(), 3000, ctrl.Handler(), false); err != nil {
		t.Fatalf("horizon: %v", err)
	}

	m, err := s.GetModel("cart")
	if err != nil {
		t.Fatalf("get model: %v", err)
	}
	q := m.Data().JointPositions[0]
	if math.Abs(q-1.0) > 0.05 {
		t.Errorf("expected cart near 1.0 after 3s of control, got %f", q)
	}
}

func TestJointPositionControllerUnknownModel(t *testing.T) {
	s, err := sim.New(sim.Config{StepSize: 0.001})
	if err != nil {
		t.Fatalf("new simulator: %v", err)
	}

	ctrl := NewJointPositionController("ghost", 1, 0, 0, []float64{0})
	if err := ctrl.PreStep(s); err == nil {
		t.Error("expected error for unknown model")
	}
}
