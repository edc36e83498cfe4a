package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultStepSize  = 0.001
	DefaultDuration  = 5.0
	DefaultStiffness = 1e6
	DefaultDamping   = 2000.0
	DefaultFriction  = 0.5
	DefaultOutputDir = "runs"
)

// Config describes one simulation run: the time base, the world, and the
// models to register before stepping.
type Config struct {
	StepSize               float64       `yaml:"step_size"`
	StepsPerRun            int           `yaml:"steps_per_run"`
	Duration               float64       `yaml:"duration"`
	Integrator             string        `yaml:"integrator"`
	VelocityRepresentation string        `yaml:"velocity_representation"`
	Gravity                [3]float64    `yaml:"gravity"`
	TerrainHeight          float64       `yaml:"terrain_height"`
	Contacts               ContactConfig `yaml:"contacts"`
	Models                 []ModelConfig `yaml:"models"`
	OutputDir              string        `yaml:"output_dir"`
}

type ContactConfig struct {
	Stiffness float64 `yaml:"stiffness"`
	Damping   float64 `yaml:"damping"`
	Friction  float64 `yaml:"friction"`
}

// ModelConfig registers one model. Exactly one of Path (a description file)
// or Model (a built-in description name) selects the source.
type ModelConfig struct {
	Name             string    `yaml:"name"`
	Path             string    `yaml:"path"`
	Model            string    `yaml:"model"`
	ConsideredJoints []string  `yaml:"considered_joints"`
	JointPositions   []float64 `yaml:"joint_positions"`
	JointVelocities  []float64 `yaml:"joint_velocities"`
}

func DefaultConfig() *Config {
	return &Config{
		StepSize:   DefaultStepSize,
		Duration:   DefaultDuration,
		Integrator: "semi_implicit_euler",
		Gravity:    [3]float64{0, 0, -9.80665},
		Contacts: ContactConfig{
			Stiffness: DefaultStiffness,
			Damping:   DefaultDamping,
			Friction:  DefaultFriction,
		},
		Models: []ModelConfig{
			{Model: "pendulum", JointPositions: []float64{1.0}},
		},
		OutputDir: DefaultOutputDir,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.StepSize <= 0 {
		return fmt.Errorf("config: step_size must be positive, got %g", c.StepSize)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("config: duration must be positive, got %g", c.Duration)
	}
	for i, m := range c.Models {
		if m.Path == "" && m.Model == "" {
			return fmt.Errorf("config: models[%d] needs either path or model", i)
		}
		if m.Path != "" && m.Model != "" {
			return fmt.Errorf("config: models[%d] has both path and model", i)
		}
	}
	return nil
}

// Steps returns the number of simulator steps covering the configured
// duration.
func (c *Config) Steps() int {
	perRun := c.StepsPerRun
	if perRun < 1 {
		perRun = 1
	}
	steps := int(c.Duration/(c.StepSize*float64(perRun)) + 0.5)
	if steps < 1 {
		steps = 1
	}
	return steps
}

// Source resolves the description payload of one model entry.
func (m ModelConfig) Source() ([]byte, error) {
	if m.Path != "" {
		return os.ReadFile(m.Path)
	}
	src, ok := ModelPresets[m.Model]
	if !ok {
		return nil, fmt.Errorf("config: unknown built-in model %q", m.Model)
	}
	return []byte(src), nil
}
