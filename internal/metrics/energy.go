// Package metrics provides per-step run metrics observed on a model while a
// simulation advances.
package metrics

import (
	"math"

	"github.com/kvats/rigidsim/internal/model"
)

// Metric observes the model once per simulator step and reduces the samples
// to a single value.
type Metric interface {
	Name() string
	Observe(m *model.Model, t float64)
	Value() float64
	Reset()
}

func mechanicalEnergy(m *model.Model) (float64, bool) {
	d := m.Data()
	e, err := m.Physics().MechanicalEnergy(d.BasePose, d.JointPositions, d.JointVelocities, d.BaseVelocity)
	if err != nil {
		return 0, false
	}
	return e, true
}

// MeanEnergy averages the mechanical energy over the run.
type MeanEnergy struct {
	name        string
	samples     int
	totalEnergy float64
}

func NewMeanEnergy() *MeanEnergy {
	return &MeanEnergy{name: "mean_energy"}
}

func (e *MeanEnergy) Name() string { return e.name }

func (e *MeanEnergy) Observe(m *model.Model, t float64) {
	energy, ok := mechanicalEnergy(m)
	if !ok {
		return
	}
	e.totalEnergy += energy
	e.samples++
}

func (e *MeanEnergy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *MeanEnergy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

// EnergyDrift tracks the maximum relative deviation of the mechanical energy
// from its first sample. For a conservative system it measures integrator
// quality.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(m *model.Model, t float64) {
	energy, ok := mechanicalEnergy(m)
	if !ok {
		return
	}

	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
