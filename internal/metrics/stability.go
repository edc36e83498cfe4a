package metrics

import (
	"math"

	"github.com/kvats/rigidsim/internal/model"
)

// Stability is the fraction of samples where every joint speed stays below
// the threshold.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(m *model.Model, t float64) {
	s.samples++
	for _, qd := range m.Data().JointVelocities {
		if math.Abs(qd) > s.threshold {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
