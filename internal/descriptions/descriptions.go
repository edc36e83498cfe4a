// Package descriptions holds the normalized kinematic-tree description of an
// articulated model: links, joints, collision primitives, root pose. It is the
// output format of the model-description parser and the input format of the
// physics layer.
package descriptions

import "github.com/kvats/rigidsim/internal/spatial"

type JointType int

const (
	JointFixed JointType = iota
	JointRevolute
	JointPrismatic
)

func (t JointType) String() string {
	switch t {
	case JointFixed:
		return "fixed"
	case JointRevolute:
		return "revolute"
	case JointPrismatic:
		return "prismatic"
	}
	return "unknown"
}

// LinkDescription describes a single rigid body of the tree.
type LinkDescription struct {
	Name    string
	Mass    float64
	Inertia spatial.Mat6 // 6×6 spatial inertia in the link frame
	Pose    spatial.Mat4 // link frame relative to its parent joint frame
}

// JointDescription connects a parent link to a child link.
type JointDescription struct {
	Name            string
	Parent          string
	Child           string
	Type            JointType
	Axis            spatial.Vec3
	Pose            spatial.Mat4 // joint frame relative to the parent link frame
	PositionLimit   [2]float64
	Friction        float64
	Damping         float64
	SpringStiffness float64
	SpringReference float64
}

type CollisionShape string

const (
	ShapeSphere CollisionShape = "sphere"
	ShapeBox    CollisionShape = "box"
	ShapePlane  CollisionShape = "plane"
)

// CollisionDescription attaches a collision primitive to a link.
type CollisionDescription struct {
	Link   string
	Shape  CollisionShape
	Radius float64
	Size   spatial.Vec3
	Pose   spatial.Mat4
}

// ModelDescription is the full normalized description of one model.
// It is produced once by the parser and owned by the model built from it.
type ModelDescription struct {
	Name       string
	FixedBase  bool
	RootPose   spatial.Mat4
	Links      []LinkDescription
	Joints     []JointDescription
	Collisions []CollisionDescription
}

// RootLink returns the name of the unique link that is not a child of any
// joint. Validate guarantees there is exactly one.
func (d *ModelDescription) RootLink() string {
	children := make(map[string]bool, len(d.Joints))
	for _, j := range d.Joints {
		children[j.Child] = true
	}
	for _, l := range d.Links {
		if !children[l.Name] {
			return l.Name
		}
	}
	return ""
}

// ReduceTo returns a copy of the description in which every movable joint not
// listed in consideredJoints is converted to a fixed joint. A nil list keeps
// all joints as described.
func (d *ModelDescription) ReduceTo(consideredJoints []string) *ModelDescription {
	if consideredJoints == nil {
		return d
	}

	considered := make(map[string]bool, len(consideredJoints))
	for _, name := range consideredJoints {
		considered[name] = true
	}

	out := *d
	out.Joints = make([]JointDescription, len(d.Joints))
	copy(out.Joints, d.Joints)
	for i := range out.Joints {
		if !considered[out.Joints[i].Name] {
			out.Joints[i].Type = JointFixed
		}
	}
	return &out
}
