package control

import (
	"github.com/kvats/rigidsim/internal/sim"
)

// JointPositionController regulates the joint positions of one registered
// model toward fixed targets, writing the computed generalized forces before
// every step.
type JointPositionController struct {
	modelName string
	pids      []*PID
}

func NewJointPositionController(modelName string, kp, ki, kd float64, targets []float64) *JointPositionController {
	pids := make([]*PID, len(targets))
	for i, target := range targets {
		pids[i] = NewPID(kp, ki, kd, target)
	}
	return &JointPositionController{modelName: modelName, pids: pids}
}

// PreStep computes and applies the control forces for the upcoming window.
func (c *JointPositionController) PreStep(s *sim.Simulator) error {
	m, err := s.GetModel(c.modelName)
	if err != nil {
		return err
	}

	d := m.Data()
	tau := make([]float64, len(d.JointPositions))
	for i, pid := range c.pids {
		if i >= len(tau) {
			break
		}
		tau[i] = pid.Compute(d.JointPositions[i], s.Time())
	}
	return m.SetJointForces(tau)
}

// Handler wraps the controller as a step-over-horizon callback handler.
func (c *JointPositionController) Handler() *sim.CallbackHandler {
	return &sim.CallbackHandler{PreStep: c.PreStep}
}

func (c *JointPositionController) Reset() {
	for _, pid := range c.pids {
		pid.Reset()
	}
}
