package config

import "sort"

// ModelPresets are the built-in model descriptions, keyed by name. They use
// the same yaml schema as description files loaded from disk.
var ModelPresets = map[string]string{
	"pendulum": `
name: pendulum
fixed_base: true
root_pose: {xyz: [0, 0, 1]}
links:
  - name: base
    mass: 5.0
    inertia: {ixx: 0.1, iyy: 0.1, izz: 0.1}
  - name: arm
    mass: 1.0
    com: [0, 0, -0.5]
    inertia: {ixx: 0.02, iyy: 0.02, izz: 0.001}
joints:
  - name: pivot
    type: revolute
    parent: base
    child: arm
    axis: [0, 1, 0]
    damping: 0.05
`,
	"double_pendulum": `
name: double_pendulum
fixed_base: true
root_pose: {xyz: [0, 0, 2]}
links:
  - name: base
    mass: 5.0
    inertia: {ixx: 0.1, iyy: 0.1, izz: 0.1}
  - name: upper
    mass: 1.0
    com: [0, 0, -0.5]
    inertia: {ixx: 0.02, iyy: 0.02, izz: 0.001}
  - name: lower
    mass: 1.0
    com: [0, 0, -0.5]
    inertia: {ixx: 0.02, iyy: 0.02, izz: 0.001}
joints:
  - name: shoulder
    type: revolute
    parent: base
    child: upper
    axis: [0, 1, 0]
    damping: 0.05
  - name: elbow
    type: revolute
    parent: upper
    child: lower
    axis: [0, 1, 0]
    pose: {xyz: [0, 0, -1]}
    damping: 0.05
`,
	"cart": `
name: cart
fixed_base: true
links:
  - name: ground
    mass: 50.0
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
    friction: 0.1
`,
	"ball": `
name: ball
fixed_base: false
root_pose: {xyz: [0, 0, 1]}
links:
  - name: body
    mass: 0.5
    inertia: {ixx: 0.002, iyy: 0.002, izz: 0.002}
collisions:
  - link: body
    shape: sphere
    radius: 0.1
`,
}

// Presets are ready-made run configurations.
var Presets = map[string]*Config{
	"pendulum_swing": {
		StepSize: 0.001, Duration: 10.0, Integrator: "rk4",
		Models: []ModelConfig{{Model: "pendulum", JointPositions: []float64{2.5}}},
	},
	"double_pendulum_chaos": {
		StepSize: 0.0005, Duration: 20.0, Integrator: "rk4",
		Models: []ModelConfig{{Model: "double_pendulum", JointPositions: []float64{3.0, 0.1}}},
	},
	"cart_push": {
		StepSize: 0.001, Duration: 5.0, Integrator: "semi_implicit_euler",
		Models: []ModelConfig{{Model: "cart", JointVelocities: []float64{2.0}}},
	},
	"ball_drop": {
		StepSize: 0.0001, Duration: 2.0, Integrator: "semi_implicit_euler",
		Models: []ModelConfig{{Model: "ball"}},
	},
}

func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	out := *cfg
	filled := DefaultConfig()
	if out.Gravity == ([3]float64{}) {
		out.Gravity = filled.Gravity
	}
	if out.Contacts == (ContactConfig{}) {
		out.Contacts = filled.Contacts
	}
	if out.OutputDir == "" {
		out.OutputDir = filled.OutputDir
	}
	return &out
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
