package sim_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kvats/rigidsim/internal/descriptions"
	"github.com/kvats/rigidsim/internal/model"
	"github.com/kvats/rigidsim/internal/ode"
	"github.com/kvats/rigidsim/internal/sim"
	"github.com/kvats/rigidsim/internal/spatial"
)

func pendulumDescription(name string) *descriptions.ModelDescription {
	return &descriptions.ModelDescription{
		Name:      name,
		FixedBase: true,
		RootPose:  spatial.Mat4Identity(),
		Links: []descriptions.LinkDescription{
			{Name: "base", Mass: 5.0, Inertia: spatial.SpatialInertia(5.0, spatial.Vec3{}, spatial.Mat3{}), Pose: spatial.Mat4Identity()},
			{Name: "arm", Mass: 1.0, Inertia: spatial.SpatialInertia(1.0, spatial.Vec3{0, 0, -0.5}, spatial.Mat3{}), Pose: spatial.Mat4Identity()},
		},
		Joints: []descriptions.JointDescription{
			{Name: "pivot", Parent: "base", Child: "arm", Type: descriptions.JointRevolute,
				Axis: spatial.Vec3{0, 1, 0}, Pose: spatial.Mat4Identity()},
		},
	}
}

const cartYAML = `
name: cart
fixed_base: true
links:
  - name: ground
    mass: 10.0
    inertia: {ixx: 1, iyy: 1, izz: 1}
  - name: slider
    mass: 2.0
    inertia: {ixx: 0.1, iyy: 0.1, izz: 0.1}
joints:
  - name: rail
    type: prismatic
    parent: ground
    child: slider
    axis: [1, 0, 0]
    damping: 0.2
`

func newSimulator(stepSize float64) *sim.Simulator {
	s, err := sim.New(sim.Config{
		StepSize:   stepSize,
		Integrator: ode.EulerSemiImplicit,
	})
	Expect(err).NotTo(HaveOccurred())
	return s
}

var _ = Describe("Simulator", func() {
	Describe("construction", func() {
		It("rejects a non-positive step size", func() {
			_, err := sim.New(sim.Config{StepSize: 0})
			Expect(err).To(HaveOccurred())

			_, err = sim.New(sim.Config{StepSize: -0.001})
			Expect(err).To(HaveOccurred())
		})

		It("defaults steps per run to one", func() {
			s := newSimulator(0.001)
			Expect(s.StepsPerRun()).To(Equal(1))
			Expect(s.Dt()).To(BeNumerically("~", 0.001, 1e-12))
		})

		It("starts mutable at time zero with standard gravity", func() {
			s := newSimulator(0.001)
			Expect(s.TimeNS()).To(BeZero())
			Expect(s.Mutability()).To(Equal(model.Mutable))
			Expect(s.Gravity()[2]).To(BeNumerically("<", 0))
		})
	})

	Describe("time base", func() {
		It("accumulates no floating-point drift over many steps", func() {
			s := newSimulator(0.001)

			for i := 0; i < 10000; i++ {
				_, err := s.Step(false)
				Expect(err).NotTo(HaveOccurred())
			}

			// Integer ticks: exactly 10 seconds, not 10±accumulated error.
			Expect(s.TimeNS()).To(Equal(int64(10_000_000_000)))
			Expect(s.Time()).To(Equal(10.0))
		})

		It("advances by stepSize times stepsPerRun", func() {
			s, err := sim.New(sim.Config{StepSize: 0.002, StepsPerRun: 5})
			Expect(err).NotTo(HaveOccurred())

			_, err = s.Step(false)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.TimeNS()).To(Equal(int64(10_000_000)))
		})

		It("does not advance time on insert or remove", func() {
			s := newSimulator(0.001)
			_, err := s.InsertModel(pendulumDescription("p0"), "")
			Expect(err).NotTo(HaveOccurred())
			Expect(s.TimeNS()).To(BeZero())

			Expect(s.RemoveModel("p0")).To(Succeed())
			Expect(s.TimeNS()).To(BeZero())
		})
	})

	Describe("model registry", func() {
		It("rejects duplicate model names", func() {
			s := newSimulator(0.001)

			_, err := s.InsertModel(pendulumDescription("robot"), "")
			Expect(err).NotTo(HaveOccurred())

			_, err = s.InsertModel(pendulumDescription("robot"), "")
			Expect(err).To(MatchError(sim.ErrDuplicateModelName))
		})

		It("fails to remove or fetch an absent model", func() {
			s := newSimulator(0.001)
			Expect(s.RemoveModel("ghost")).To(MatchError(sim.ErrModelNotFound))

			_, err := s.GetModel("ghost")
			Expect(err).To(MatchError(sim.ErrModelNotFound))
		})

		It("keeps names in insertion order", func() {
			s := newSimulator(0.001)
			for _, name := range []string{"c", "a", "b"} {
				_, err := s.InsertModel(pendulumDescription(name), "")
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(s.ModelNames()).To(Equal([]string{"c", "a", "b"}))

			Expect(s.RemoveModel("a")).To(Succeed())
			Expect(s.ModelNames()).To(Equal([]string{"c", "b"}))
		})

		It("inserts from a source payload and surfaces parse failures", func() {
			s := newSimulator(0.001)

			m, err := s.InsertModelFromSource([]byte(cartYAML), "", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Name()).To(Equal("cart"))
			Expect(m.DOFs()).To(Equal(1))

			_, err = s.InsertModelFromSource([]byte("links: [nope"), "", nil)
			Expect(err).To(MatchError(descriptions.ErrMalformedDescription))
		})

		It("locks joints outside the considered list", func() {
			s := newSimulator(0.001)

			m, err := s.InsertModelFromSource([]byte(cartYAML), "locked", []string{})
			Expect(err).NotTo(HaveOccurred())
			Expect(m.DOFs()).To(BeZero())
		})
	})

	Describe("gravity", func() {
		It("rejects vectors without exactly 3 components", func() {
			s := newSimulator(0.001)
			Expect(s.SetGravity([]float64{0, -9.81})).To(MatchError(sim.ErrInvalidGravityDimension))
			Expect(s.SetGravity([]float64{0, 0, -9.81, 0})).To(MatchError(sim.ErrInvalidGravityDimension))
		})

		It("propagates eagerly to registered models and at insertion to new ones", func() {
			s := newSimulator(0.001)

			m1, err := s.InsertModel(pendulumDescription("m1"), "")
			Expect(err).NotTo(HaveOccurred())
			m2, err := s.InsertModel(pendulumDescription("m2"), "")
			Expect(err).NotTo(HaveOccurred())

			Expect(s.SetGravity([]float64{0, 0, -5})).To(Succeed())
			Expect(m1.Physics().Gravity()).To(Equal(spatial.Vec3{0, 0, -5}))
			Expect(m2.Physics().Gravity()).To(Equal(spatial.Vec3{0, 0, -5}))

			m3, err := s.InsertModel(pendulumDescription("m3"), "")
			Expect(err).NotTo(HaveOccurred())
			Expect(m3.Physics().Gravity()).To(Equal(spatial.Vec3{0, 0, -5}))
		})
	})

	Describe("stepping", func() {
		It("integrates every model over the identical window", func() {
			s, err := sim.New(sim.Config{StepSize: 0.001, StepsPerRun: 2, Integrator: ode.RK4})
			Expect(err).NotTo(HaveOccurred())

			for _, name := range []string{"a", "b"} {
				m, err := s.InsertModel(pendulumDescription(name), "")
				Expect(err).NotTo(HaveOccurred())
				Expect(m.SetJointPositions([]float64{0.3})).To(Succeed())
			}

			stepData, err := s.Step(false)
			Expect(err).NotTo(HaveOccurred())
			Expect(stepData).To(HaveLen(2))
			Expect(stepData["a"].T0).To(Equal(stepData["b"].T0))
			Expect(stepData["a"].TF).To(Equal(stepData["b"].TF))
			Expect(stepData["a"].Times).To(HaveLen(3)) // initial sample + 2 substeps
		})

		It("commits all models or none", func() {
			s := newSimulator(0.001)

			good, err := s.InsertModel(pendulumDescription("good"), "")
			Expect(err).NotTo(HaveOccurred())
			Expect(good.SetJointPositions([]float64{0.5})).To(Succeed())

			bad, err := s.InsertModel(pendulumDescription("bad"), "")
			Expect(err).NotTo(HaveOccurred())
			Expect(bad.SetJointVelocities([]float64{math.Inf(1)})).To(Succeed())

			before := good.Data()
			_, err = s.Step(false)

			var ie *sim.IntegrationError
			Expect(errors.As(err, &ie)).To(BeTrue())
			Expect(ie.Model).To(Equal("bad"))
			Expect(err).To(MatchError(model.ErrInvalidState))

			// No time advance and the good model rolled back.
			Expect(s.TimeNS()).To(BeZero())
			Expect(good.Data().JointPositions).To(Equal(before.JointPositions))
			Expect(good.Data().JointVelocities).To(Equal(before.JointVelocities))
		})

		It("clears model inputs when asked", func() {
			s := newSimulator(0.001)
			m, err := s.InsertModel(pendulumDescription("p"), "")
			Expect(err).NotTo(HaveOccurred())
			Expect(m.SetJointForces([]float64{1.5})).To(Succeed())

			_, err = s.Step(true)
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Data().JointForces[0]).To(BeZero())
		})
	})

	Describe("reset", func() {
		It("removes models and zeroes time", func() {
			s := newSimulator(0.001)
			_, err := s.InsertModel(pendulumDescription("p"), "")
			Expect(err).NotTo(HaveOccurred())

			_, err = s.Step(false)
			Expect(err).NotTo(HaveOccurred())

			Expect(s.Reset(true)).To(Succeed())
			Expect(s.ModelNames()).To(BeEmpty())
			Expect(s.TimeNS()).To(BeZero())
		})

		It("keeps model structure but zeroes state and time", func() {
			s := newSimulator(0.001)
			m, err := s.InsertModel(pendulumDescription("p"), "")
			Expect(err).NotTo(HaveOccurred())
			Expect(m.SetJointPositions([]float64{1.2})).To(Succeed())

			_, err = s.Step(false)
			Expect(err).NotTo(HaveOccurred())

			Expect(s.Reset(false)).To(Succeed())
			Expect(s.ModelNames()).To(Equal([]string{"p"}))
			Expect(s.TimeNS()).To(BeZero())
			Expect(m.Data().JointPositions[0]).To(BeZero())
		})
	})

	Describe("mutability", func() {
		It("rejects mutations in read-only mode", func() {
			s := newSimulator(0.001)
			s.SetMutability(model.ReadOnly)

			_, err := s.Step(false)
			Expect(err).To(MatchError(sim.ErrReadOnly))

			_, err = s.InsertModel(pendulumDescription("p"), "")
			Expect(err).To(MatchError(sim.ErrReadOnly))

			Expect(s.SetGravity([]float64{0, 0, -1})).To(MatchError(sim.ErrReadOnly))
			Expect(s.Reset(true)).To(MatchError(sim.ErrReadOnly))
		})

		It("restores the previous mode when the guard is released", func() {
			s := newSimulator(0.001)
			s.SetMutability(model.ReadOnly)

			guard := s.AcquireMutable()
			_, err := s.Step(false)
			Expect(err).NotTo(HaveOccurred())

			guard.Release()
			Expect(s.Mutability()).To(Equal(model.ReadOnly))
		})
	})

	Describe("horizon stepping", func() {
		It("collects one post-step output per iteration", func() {
			s := newSimulator(0.001)
			_, err := s.InsertModel(pendulumDescription("p"), "")
			Expect(err).NotTo(HaveOccurred())

			counter := 0
			handler := &sim.CallbackHandler{
				PostStep: func(s *sim.Simulator, stepData map[string]model.StepData) (any, error) {
					counter++
					Expect(stepData).To(HaveKey("p"))
					return counter, nil
				},
			}

			outputs, err := s.StepOverHorizon(context.Background(), 10, handler, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(outputs).To(HaveLen(10))
			Expect(outputs[0]).To(Equal(1))
			Expect(outputs[9]).To(Equal(10))
			Expect(s.Time()).To(BeNumerically("~", 10*s.Dt(), 1e-12))
		})

		It("runs configure once and pre-step every iteration", func() {
			s := newSimulator(0.001)

			configures, preSteps := 0, 0
			handler := &sim.CallbackHandler{
				Configure: func(s *sim.Simulator) error { configures++; return nil },
				PreStep:   func(s *sim.Simulator) error { preSteps++; return nil },
			}

			outputs, err := s.StepOverHorizon(context.Background(), 5, handler, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(outputs).To(BeNil())
			Expect(configures).To(Equal(1))
			Expect(preSteps).To(Equal(5))
		})

		It("behaves as plain repeated stepping without a handler", func() {
			s := newSimulator(0.001)
			outputs, err := s.StepOverHorizon(context.Background(), 3, nil, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(outputs).To(BeNil())
			Expect(s.TimeNS()).To(Equal(int64(3_000_000)))
		})

		It("restores the original mutability even when a callback flips it", func() {
			s := newSimulator(0.001)
			s.SetMutability(model.ReadOnly)

			handler := &sim.CallbackHandler{
				PreStep: func(s *sim.Simulator) error {
					s.SetMutability(model.ReadOnly)
					return nil
				},
			}

			// The loop re-upgrades before every iteration, so stepping works.
			_, err := s.StepOverHorizon(context.Background(), 2, handler, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Mutability()).To(Equal(model.ReadOnly))
		})

		It("stops when the context is cancelled", func() {
			s := newSimulator(0.001)

			ctx, cancel := context.WithCancel(context.Background())
			steps := 0
			handler := &sim.CallbackHandler{
				PostStep: func(s *sim.Simulator, _ map[string]model.StepData) (any, error) {
					steps++
					if steps == 3 {
						cancel()
					}
					return steps, nil
				},
			}

			outputs, err := s.StepOverHorizon(ctx, 100, handler, false)
			Expect(err).To(MatchError(context.Canceled))
			Expect(outputs).To(HaveLen(3))
			Expect(s.TimeNS()).To(Equal(int64(3_000_000)))
		})
	})
})
