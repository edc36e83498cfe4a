package descriptions

import (
	"errors"
	"math"
	"strings"
	"testing"
)

const pendulumYAML = `
name: pendulum
fixed_base: true
root_pose:
  xyz: [0, 0, 1]
links:
  - name: base
    mass: 5.0
    inertia: {ixx: 0.1, iyy: 0.1, izz: 0.1}
  - name: arm
    mass: 1.0
    com: [0, 0, -0.5]
    inertia: {ixx: 0.08, iyy: 0.08, izz: 0.001}
    pose: {xyz: [0, 0, 0]}
joints:
  - name: pivot
    type: revolute
    parent: base
    child: arm
    axis: [0, 1, 0]
    limits: [-3.14, 3.14]
    damping: 0.1
collisions:
  - link: arm
    shape: sphere
    radius: 0.05
    pose: {xyz: [0, 0, -1]}
`

func TestParsePendulum(t *testing.T) {
	desc, err := Parse([]byte(pendulumYAML))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if desc.Name != "pendulum" {
		t.Errorf("expected name pendulum, got %s", desc.Name)
	}
	if !desc.FixedBase {
		t.Error("expected fixed base")
	}
	if len(desc.Links) != 2 || len(desc.Joints) != 1 || len(desc.Collisions) != 1 {
		t.Fatalf("unexpected counts: %d links, %d joints, %d collisions",
			len(desc.Links), len(desc.Joints), len(desc.Collisions))
	}

	if desc.RootLink() != "base" {
		t.Errorf("expected root link base, got %s", desc.RootLink())
	}

	if got := desc.RootPose.Translation(); math.Abs(got[2]-1.0) > 1e-12 {
		t.Errorf("expected root z offset 1.0, got %f", got[2])
	}

	j := desc.Joints[0]
	if j.Type != JointRevolute {
		t.Errorf("expected revolute joint, got %s", j.Type)
	}
	if j.Damping != 0.1 {
		t.Errorf("expected damping 0.1, got %f", j.Damping)
	}

	// Spatial inertia of the arm: lower-right block is mass·identity.
	arm := desc.Links[1]
	if got := arm.Inertia[3*6+3]; math.Abs(got-arm.Mass) > 1e-12 {
		t.Errorf("expected mass %f in spatial inertia, got %f", arm.Mass, got)
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name    string
		mangle  func(string) string
	}{
		{"not yaml", func(s string) string { return "{{{" }},
		{"unknown joint type", func(s string) string { return strings.Replace(s, "type: revolute", "type: spherical", 1) }},
		{"duplicate link", func(s string) string { return strings.Replace(s, "name: arm", "name: base", 1) }},
		{"unknown parent", func(s string) string { return strings.Replace(s, "parent: base", "parent: missing", 1) }},
		{"zero mass", func(s string) string { return strings.Replace(s, "mass: 1.0", "mass: 0.0", 1) }},
		{"bad axis", func(s string) string { return strings.Replace(s, "axis: [0, 1, 0]", "axis: [0, 2, 0]", 1) }},
		{"self loop", func(s string) string { return strings.Replace(s, "child: arm", "child: base", 1) }},
		{"bad collision link", func(s string) string { return strings.Replace(s, "link: arm", "link: missing", 1) }},
		{"bad collision shape", func(s string) string { return strings.Replace(s, "shape: sphere", "shape: torus", 1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.mangle(pendulumYAML)))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrMalformedDescription) {
				t.Errorf("expected ErrMalformedDescription, got %v", err)
			}
		})
	}
}

func TestValidateRequiresSingleRoot(t *testing.T) {
	desc, err := Parse([]byte(pendulumYAML))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	desc.Links = append(desc.Links, LinkDescription{Name: "orphan", Mass: 1.0})
	if err := desc.Validate(); !errors.Is(err, ErrMalformedDescription) {
		t.Errorf("expected ErrMalformedDescription for two roots, got %v", err)
	}
}

func TestReduceTo(t *testing.T) {
	desc, err := Parse([]byte(pendulumYAML))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	reduced := desc.ReduceTo([]string{})
	if reduced.Joints[0].Type != JointFixed {
		t.Error("expected pivot locked when not in considered joints")
	}
	if desc.Joints[0].Type != JointRevolute {
		t.Error("original description must not be mutated")
	}

	kept := desc.ReduceTo([]string{"pivot"})
	if kept.Joints[0].Type != JointRevolute {
		t.Error("expected considered joint to stay revolute")
	}

	all := desc.ReduceTo(nil)
	if all.Joints[0].Type != JointRevolute {
		t.Error("expected nil list to keep all joints")
	}
}
