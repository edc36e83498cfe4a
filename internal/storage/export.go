package storage

import (
	"encoding/json"
	"io"
	"os"
)

type ExportData struct {
	ID              string             `json:"id"`
	Model           string             `json:"model"`
	Integrator      string             `json:"integrator"`
	StepSize        float64            `json:"step_size"`
	Duration        float64            `json:"duration"`
	Steps           int                `json:"steps"`
	Times           []float64          `json:"times"`
	JointPositions  [][]float64        `json:"joint_positions"`
	JointVelocities [][]float64        `json:"joint_velocities"`
	BaseHeights     []float64          `json:"base_heights"`
	Diagnostics     map[string]float64 `json:"diagnostics"`
}

func exportData(meta *RunMetadata, modelName string, tr *Trajectory) ExportData {
	return ExportData{
		ID:              meta.ID,
		Model:           modelName,
		Integrator:      meta.Integrator,
		StepSize:        meta.StepSize,
		Duration:        meta.Duration,
		Steps:           len(tr.Times),
		Times:           tr.Times,
		JointPositions:  tr.JointPositions,
		JointVelocities: tr.JointVelocities,
		BaseHeights:     tr.BaseHeights,
		Diagnostics:     meta.Diagnostics,
	}
}

func encodeExport(w io.Writer, data ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportJSON writes one model's trace of a stored run as indented json.
func (s *Store) ExportJSON(path, runID, modelName string) error {
	meta, tr, err := s.loadForExport(runID, modelName)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return encodeExport(file, exportData(meta, modelName, tr))
}

// ExportJSONStdout writes one model's trace of a stored run to stdout.
func (s *Store) ExportJSONStdout(runID, modelName string) error {
	meta, tr, err := s.loadForExport(runID, modelName)
	if err != nil {
		return err
	}
	return encodeExport(os.Stdout, exportData(meta, modelName, tr))
}

func (s *Store) loadForExport(runID, modelName string) (*RunMetadata, *Trajectory, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	tr, err := s.LoadTrajectory(runID, modelName)
	if err != nil {
		return nil, nil, err
	}
	return meta, tr, nil
}
