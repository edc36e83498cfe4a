// Package physics builds the low-level physics structure of an articulated
// model from its description and evaluates kinematics and the joint-space
// force terms used during integration.
package physics

import (
	"fmt"
	"math"

	"github.com/kvats/rigidsim/internal/descriptions"
	"github.com/kvats/rigidsim/internal/spatial"
)

// Link is a rigid body of the kinematic tree, stored in traversal order
// (root first).
type Link struct {
	Name    string
	Mass    float64
	Inertia spatial.Mat6
	Pose    spatial.Mat4
	Parent  int // index of the parent link, -1 for the root
	Joint   int // index of the inbound joint, -1 for the root
}

// Joint connects a parent link to the child link it moves.
type Joint struct {
	Name            string
	Type            descriptions.JointType
	Axis            spatial.Vec3
	Pose            spatial.Mat4 // joint frame relative to the parent link frame
	PositionLimit   [2]float64
	Friction        float64
	Damping         float64
	SpringStiffness float64
	SpringReference float64
	Child           int // link index moved by this joint
	DOF             int // index into the generalized coordinates, -1 for fixed
}

// Model is the physics structure built once from a ModelDescription. It owns
// the tree topology, the spatial inertias and the gravity vector seeding
// every dynamics evaluation.
type Model struct {
	fixedBase bool
	rootPose  spatial.Mat4
	links     []Link
	joints    []Joint
	gravity   spatial.Vec3
	dofs      int
}

// Build constructs the physics model from a validated description and the
// simulator gravity current at insertion time.
func Build(desc *descriptions.ModelDescription, gravity spatial.Vec3) (*Model, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	linkIndex := make(map[string]int, len(desc.Links))
	for i, l := range desc.Links {
		linkIndex[l.Name] = i
	}

	outbound := make(map[string][]descriptions.JointDescription)
	for _, j := range desc.Joints {
		outbound[j.Parent] = append(outbound[j.Parent], j)
	}

	m := &Model{
		fixedBase: desc.FixedBase,
		rootPose:  desc.RootPose,
		gravity:   gravity,
	}

	// Breadth-first traversal from the root link fixes the storage order.
	root := desc.RootLink()
	newIndex := make(map[string]int, len(desc.Links))

	rootLink := desc.Links[linkIndex[root]]
	m.links = append(m.links, Link{
		Name:    rootLink.Name,
		Mass:    rootLink.Mass,
		Inertia: rootLink.Inertia,
		Pose:    rootLink.Pose,
		Parent:  -1,
		Joint:   -1,
	})
	newIndex[root] = 0

	queue := []string{root}
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]

		for _, jd := range outbound[parent] {
			child := desc.Links[linkIndex[jd.Child]]
			childIdx := len(m.links)

			dof := -1
			if jd.Type != descriptions.JointFixed {
				dof = m.dofs
				m.dofs++
			}

			m.joints = append(m.joints, Joint{
				Name:            jd.Name,
				Type:            jd.Type,
				Axis:            jd.Axis,
				Pose:            jd.Pose,
				PositionLimit:   jd.PositionLimit,
				Friction:        jd.Friction,
				Damping:         jd.Damping,
				SpringStiffness: jd.SpringStiffness,
				SpringReference: jd.SpringReference,
				Child:           childIdx,
				DOF:             dof,
			})
			m.links = append(m.links, Link{
				Name:    child.Name,
				Mass:    child.Mass,
				Inertia: child.Inertia,
				Pose:    child.Pose,
				Parent:  newIndex[parent],
				Joint:   len(m.joints) - 1,
			})
			newIndex[child.Name] = childIdx
			queue = append(queue, child.Name)
		}
	}

	if len(m.links) != len(desc.Links) {
		return nil, fmt.Errorf("%w: disconnected kinematic tree in model %q",
			descriptions.ErrMalformedDescription, desc.Name)
	}

	return m, nil
}

func (m *Model) DOFs() int                 { return m.dofs }
func (m *Model) FixedBase() bool           { return m.fixedBase }
func (m *Model) RootPose() spatial.Mat4    { return m.rootPose }
func (m *Model) Gravity() spatial.Vec3     { return m.gravity }
func (m *Model) SetGravity(g spatial.Vec3) { m.gravity = g }
func (m *Model) Links() []Link             { return m.links }
func (m *Model) Joints() []Joint           { return m.joints }

func (m *Model) TotalMass() float64 {
	total := 0.0
	for _, l := range m.links {
		total += l.Mass
	}
	return total
}

// MovableJointNames returns the names of the joints carrying a degree of
// freedom, in generalized-coordinate order.
func (m *Model) MovableJointNames() []string {
	names := make([]string, m.dofs)
	for _, j := range m.joints {
		if j.DOF >= 0 {
			names[j.DOF] = j.Name
		}
	}
	return names
}

func jointMotion(j Joint, q float64) spatial.Mat4 {
	switch j.Type {
	case descriptions.JointRevolute:
		return spatial.Mat4FromRotationTranslation(spatial.RotationAxisAngle(j.Axis, q), spatial.Vec3{})
	case descriptions.JointPrismatic:
		return spatial.Mat4FromRotationTranslation(spatial.Mat3Identity(), j.Axis.Scale(q))
	}
	return spatial.Mat4Identity()
}

// ForwardKinematics returns the world pose of every link, in storage order,
// for the given generalized positions and base pose. The base pose replaces
// the description root pose for floating-base models; pass RootPose() for a
// fixed base.
func (m *Model) ForwardKinematics(basePose spatial.Mat4, q []float64) ([]spatial.Mat4, error) {
	if len(q) != m.dofs {
		return nil, fmt.Errorf("physics: expected %d joint positions, got %d", m.dofs, len(q))
	}

	world := make([]spatial.Mat4, len(m.links))
	world[0] = basePose.Mul(m.links[0].Pose)

	for i := 1; i < len(m.links); i++ {
		link := m.links[i]
		joint := m.joints[link.Joint]

		motion := spatial.Mat4Identity()
		if joint.DOF >= 0 {
			motion = jointMotion(joint, q[joint.DOF])
		}
		world[i] = world[link.Parent].Mul(joint.Pose).Mul(motion).Mul(link.Pose)
	}

	return world, nil
}

// comLocal reads the link-frame center of mass back out of the spatial
// inertia (upper-right block is mass·skew(com)).
func comLocal(l Link) spatial.Vec3 {
	return spatial.Vee(l.Inertia.Block(0, 3)).Scale(1 / l.Mass)
}

// JointAccelerations evaluates the generalized accelerations for the given
// positions, velocities and applied joint forces. Each degree of freedom sees
// its applied force plus gravity projected on the joint axis, minus viscous
// damping, Coulomb friction and the joint spring, divided by the apparent
// inertia reflected at the joint.
func (m *Model) JointAccelerations(basePose spatial.Mat4, q, qd, tau []float64) ([]float64, error) {
	if len(q) != m.dofs || len(qd) != m.dofs || len(tau) != m.dofs {
		return nil, fmt.Errorf("physics: expected %d-dimensional q/qd/tau, got %d/%d/%d",
			m.dofs, len(q), len(qd), len(tau))
	}

	world, err := m.ForwardKinematics(basePose, q)
	if err != nil {
		return nil, err
	}

	qdd := make([]float64, m.dofs)
	for i := 1; i < len(m.links); i++ {
		link := m.links[i]
		joint := m.joints[link.Joint]
		if joint.DOF < 0 {
			continue
		}
		d := joint.DOF

		jointFrame := world[link.Parent].Mul(joint.Pose)
		axisWorld := jointFrame.Rotation().MulVec(joint.Axis)
		origin := jointFrame.Translation()

		com := world[i].ApplyPoint(comLocal(link))
		arm := com.Sub(origin)
		weight := m.gravity.Scale(link.Mass)

		var gravityForce float64
		switch joint.Type {
		case descriptions.JointRevolute:
			gravityForce = arm.Cross(weight).Dot(axisWorld)
		case descriptions.JointPrismatic:
			gravityForce = weight.Dot(axisWorld)
		}
		inertia := apparentInertia(link, joint, arm)

		force := tau[d] + gravityForce
		force -= joint.Damping * qd[d]
		if qd[d] != 0 {
			force -= math.Copysign(joint.Friction, qd[d])
		}
		if joint.SpringStiffness != 0 {
			force -= joint.SpringStiffness * (q[d] - joint.SpringReference)
		}

		qdd[d] = force / inertia
	}

	return qdd, nil
}

// apparentInertia is the inertia the child link reflects onto its joint:
// rotational inertia about the axis plus the parallel-axis term for a
// revolute joint, plain mass for a prismatic one.
func apparentInertia(link Link, joint Joint, arm spatial.Vec3) float64 {
	var inertia float64
	switch joint.Type {
	case descriptions.JointRevolute:
		ic := link.Inertia.Block(0, 0)
		inertia = joint.Axis.Dot(ic.MulVec(joint.Axis)) + link.Mass*arm.Dot(arm)
	case descriptions.JointPrismatic:
		inertia = link.Mass
	}
	if inertia < 1e-9 {
		inertia = 1e-9
	}
	return inertia
}

// MechanicalEnergy evaluates the total mechanical energy of the model in the
// given state: gravitational potential of every link center of mass, joint
// kinetic energy through the apparent inertias, and the base translational
// kinetic energy for floating-base models.
func (m *Model) MechanicalEnergy(basePose spatial.Mat4, q, qd []float64, baseVel spatial.Vec3) (float64, error) {
	if len(qd) != m.dofs {
		return 0, fmt.Errorf("physics: expected %d joint velocities, got %d", m.dofs, len(qd))
	}

	world, err := m.ForwardKinematics(basePose, q)
	if err != nil {
		return 0, err
	}

	energy := 0.0
	for i, link := range m.links {
		com := world[i].ApplyPoint(comLocal(link))
		energy -= link.Mass * m.gravity.Dot(com)
	}

	if !m.fixedBase {
		energy += 0.5 * m.TotalMass() * baseVel.Dot(baseVel)
	}

	for i := 1; i < len(m.links); i++ {
		link := m.links[i]
		joint := m.joints[link.Joint]
		if joint.DOF < 0 {
			continue
		}

		jointFrame := world[link.Parent].Mul(joint.Pose)
		com := world[i].ApplyPoint(comLocal(link))
		arm := com.Sub(jointFrame.Translation())

		v := qd[joint.DOF]
		energy += 0.5 * apparentInertia(link, joint, arm) * v * v
	}

	return energy, nil
}
