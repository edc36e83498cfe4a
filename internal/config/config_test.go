package config

import (
	"path/filepath"
	"testing"

	"github.com/kvats/rigidsim/internal/descriptions"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.StepSize <= 0 {
		t.Error("step size should be positive")
	}
	if cfg.Duration <= 0 {
		t.Error("duration should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mangle func(*Config)
	}{
		{"zero step size", func(c *Config) { c.StepSize = 0 }},
		{"negative duration", func(c *Config) { c.Duration = -1 }},
		{"model without source", func(c *Config) { c.Models = []ModelConfig{{Name: "x"}} }},
		{"model with two sources", func(c *Config) {
			c.Models = []ModelConfig{{Path: "a.yaml", Model: "pendulum"}}
		}},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mangle(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}

func TestSteps(t *testing.T) {
	cfg := &Config{StepSize: 0.001, Duration: 10.0}
	if got := cfg.Steps(); got != 10000 {
		t.Errorf("expected 10000 steps, got %d", got)
	}

	cfg.StepsPerRun = 10
	if got := cfg.Steps(); got != 1000 {
		t.Errorf("expected 1000 steps, got %d", got)
	}
}

func TestModelPresetsParse(t *testing.T) {
	for name, src := range ModelPresets {
		if _, err := descriptions.Parse([]byte(src)); err != nil {
			t.Errorf("built-in model %s should parse: %v", name, err)
		}
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("pendulum_swing")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Models[0].JointPositions[0] != 2.5 {
		t.Errorf("expected joint position 2.5, got %f", cfg.Models[0].JointPositions[0])
	}
	if cfg.Gravity[2] >= 0 {
		t.Error("preset should be filled with default gravity")
	}
	if cfg.OutputDir == "" {
		t.Error("preset should be filled with default output dir")
	}

	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets()
	if len(presets) == 0 {
		t.Fatal("expected presets")
	}
	for i := 1; i < len(presets); i++ {
		if presets[i-1] >= presets[i] {
			t.Errorf("presets not sorted: %s before %s", presets[i-1], presets[i])
		}
	}
}

func TestModelConfigSource(t *testing.T) {
	src, err := ModelConfig{Model: "cart"}.Source()
	if err != nil {
		t.Fatalf("built-in source: %v", err)
	}
	if len(src) == 0 {
		t.Error("expected non-empty source")
	}

	if _, err := (ModelConfig{Model: "nonexistent"}).Source(); err == nil {
		t.Error("expected error for unknown built-in model")
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")

	cfg := DefaultConfig()
	cfg.Duration = 3.5
	cfg.Models = []ModelConfig{{Model: "ball", Name: "dropper"}}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Duration != 3.5 {
		t.Errorf("expected duration 3.5, got %f", loaded.Duration)
	}
	if loaded.Models[0].Name != "dropper" {
		t.Errorf("expected model name dropper, got %s", loaded.Models[0].Name)
	}
}
