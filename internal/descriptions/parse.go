package descriptions

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/kvats/rigidsim/internal/spatial"
)

// Source payload schema. Inertia is entered SDF-style (six moments about the
// center of mass) and assembled into the 6×6 spatial inertia on conversion.

type poseSpec struct {
	XYZ [3]float64 `yaml:"xyz"`
	RPY [3]float64 `yaml:"rpy"`
}

func (p poseSpec) mat4() spatial.Mat4 {
	return spatial.Mat4FromRotationTranslation(
		rotationRPY(p.RPY[0], p.RPY[1], p.RPY[2]),
		spatial.Vec3(p.XYZ),
	)
}

func rotationRPY(roll, pitch, yaw float64) spatial.Mat3 {
	rx := spatial.RotationAxisAngle(spatial.Vec3{1, 0, 0}, roll)
	ry := spatial.RotationAxisAngle(spatial.Vec3{0, 1, 0}, pitch)
	rz := spatial.RotationAxisAngle(spatial.Vec3{0, 0, 1}, yaw)
	return rz.Mul(ry).Mul(rx)
}

type inertiaSpec struct {
	Ixx float64 `yaml:"ixx"`
	Iyy float64 `yaml:"iyy"`
	Izz float64 `yaml:"izz"`
	Ixy float64 `yaml:"ixy"`
	Ixz float64 `yaml:"ixz"`
	Iyz float64 `yaml:"iyz"`
}

func (i inertiaSpec) mat3() spatial.Mat3 {
	return spatial.Mat3{
		i.Ixx, i.Ixy, i.Ixz,
		i.Ixy, i.Iyy, i.Iyz,
		i.Ixz, i.Iyz, i.Izz,
	}
}

type linkSpec struct {
	Name    string      `yaml:"name"`
	Mass    float64     `yaml:"mass"`
	COM     [3]float64  `yaml:"com"`
	Inertia inertiaSpec `yaml:"inertia"`
	Pose    poseSpec    `yaml:"pose"`
}

type jointSpec struct {
	Name            string     `yaml:"name"`
	Type            string     `yaml:"type"`
	Parent          string     `yaml:"parent"`
	Child           string     `yaml:"child"`
	Axis            [3]float64 `yaml:"axis"`
	Pose            poseSpec   `yaml:"pose"`
	Limits          [2]float64 `yaml:"limits"`
	Friction        float64    `yaml:"friction"`
	Damping         float64    `yaml:"damping"`
	SpringStiffness float64    `yaml:"spring_stiffness"`
	SpringReference float64    `yaml:"spring_reference"`
}

type collisionSpec struct {
	Link   string     `yaml:"link"`
	Shape  string     `yaml:"shape"`
	Radius float64    `yaml:"radius"`
	Size   [3]float64 `yaml:"size"`
	Pose   poseSpec   `yaml:"pose"`
}

type modelSpec struct {
	Name       string          `yaml:"name"`
	FixedBase  bool            `yaml:"fixed_base"`
	RootPose   poseSpec        `yaml:"root_pose"`
	Links      []linkSpec      `yaml:"links"`
	Joints     []jointSpec     `yaml:"joints"`
	Collisions []collisionSpec `yaml:"collisions"`
}

// Parse decodes a yaml model-description payload into a validated
// ModelDescription.
func Parse(data []byte) (*ModelDescription, error) {
	var spec modelSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDescription, err)
	}

	desc := &ModelDescription{
		Name:      spec.Name,
		FixedBase: spec.FixedBase,
		RootPose:  spec.RootPose.mat4(),
	}

	for _, l := range spec.Links {
		desc.Links = append(desc.Links, LinkDescription{
			Name:    l.Name,
			Mass:    l.Mass,
			Inertia: spatial.SpatialInertia(l.Mass, spatial.Vec3(l.COM), l.Inertia.mat3()),
			Pose:    l.Pose.mat4(),
		})
	}

	for _, j := range spec.Joints {
		jt, err := parseJointType(j.Type)
		if err != nil {
			return nil, err
		}
		desc.Joints = append(desc.Joints, JointDescription{
			Name:            j.Name,
			Parent:          j.Parent,
			Child:           j.Child,
			Type:            jt,
			Axis:            spatial.Vec3(j.Axis),
			Pose:            j.Pose.mat4(),
			PositionLimit:   j.Limits,
			Friction:        j.Friction,
			Damping:         j.Damping,
			SpringStiffness: j.SpringStiffness,
			SpringReference: j.SpringReference,
		})
	}

	for _, c := range spec.Collisions {
		desc.Collisions = append(desc.Collisions, CollisionDescription{
			Link:   c.Link,
			Shape:  CollisionShape(c.Shape),
			Radius: c.Radius,
			Size:   spatial.Vec3(c.Size),
			Pose:   c.Pose.mat4(),
		})
	}

	if err := desc.Validate(); err != nil {
		return nil, err
	}
	return desc, nil
}

func parseJointType(s string) (JointType, error) {
	switch s {
	case "fixed":
		return JointFixed, nil
	case "revolute", "continuous":
		return JointRevolute, nil
	case "prismatic":
		return JointPrismatic, nil
	}
	return 0, fmt.Errorf("%w: unknown joint type %q", ErrMalformedDescription, s)
}
