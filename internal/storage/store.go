package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/kvats/rigidsim/internal/model"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Timestamp   time.Time          `json:"timestamp"`
	StepSize    float64            `json:"step_size"`
	Duration    float64            `json:"duration"`
	Integrator  string             `json:"integrator"`
	Models      []string           `json:"models"`
	Diagnostics map[string]float64 `json:"diagnostics"`
}

// Trajectory is the recorded per-model trace of a run: one row per simulator
// step, sampled at the end of each integration window.
type Trajectory struct {
	Times           []float64
	JointPositions  [][]float64
	JointVelocities [][]float64
	BaseHeights     []float64
}

// Append records the final sample of one integration window.
func (tr *Trajectory) Append(sd model.StepData) {
	last := len(sd.Times) - 1
	if last < 0 {
		return
	}
	tr.Times = append(tr.Times, sd.Times[last])
	tr.JointPositions = append(tr.JointPositions, append([]float64(nil), sd.JointPositions[last]...))
	tr.JointVelocities = append(tr.JointVelocities, append([]float64(nil), sd.JointVelocities[last]...))
	tr.BaseHeights = append(tr.BaseHeights, sd.BasePose.Translation()[2])
}

// Save writes a run directory holding metadata.json and one csv per model.
// The run id and timestamp are filled in; label prefixes the id.
func (s *Store) Save(label string, meta RunMetadata, trajectories map[string]*Trajectory) (string, error) {
	runID := fmt.Sprintf("%s_%d", label, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = time.Now()

	metaPath := filepath.Join(runDir, "metadata.json")
	metaFile, err := os.Create(metaPath)
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	for name, tr := range trajectories {
		if err := writeTrajectory(filepath.Join(runDir, name+".csv"), tr); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func writeTrajectory(path string, tr *Trajectory) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if len(tr.Times) == 0 {
		return nil
	}

	dofs := len(tr.JointPositions[0])
	header := []string{"time"}
	for i := 0; i < dofs; i++ {
		header = append(header, fmt.Sprintf("q%d", i))
	}
	for i := 0; i < dofs; i++ {
		header = append(header, fmt.Sprintf("qd%d", i))
	}
	header = append(header, "base_z")

	if err := w.Write(header); err != nil {
		return err
	}

	for i := range tr.Times {
		row := []string{strconv.FormatFloat(tr.Times[i], 'f', 6, 64)}
		for _, val := range tr.JointPositions[i] {
			row = append(row, strconv.FormatFloat(val, 'f', 6, 64))
		}
		for _, val := range tr.JointVelocities[i] {
			row = append(row, strconv.FormatFloat(val, 'f', 6, 64))
		}
		row = append(row, strconv.FormatFloat(tr.BaseHeights[i], 'f', 6, 64))

		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		metaPath := filepath.Join(s.baseDir, entry.Name(), "metadata.json")
		data, err := os.ReadFile(metaPath)
		if err != nil {
			continue
		}

		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}

		runs = append(runs, meta)
	}

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadTrajectory reads back the csv trace of one model of a run.
func (s *Store) LoadTrajectory(runID, modelName string) (*Trajectory, error) {
	csvPath := filepath.Join(s.baseDir, runID, modelName+".csv")
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	tr := &Trajectory{}
	if len(records) < 2 {
		return tr, nil
	}

	// header: time, q0..q{n-1}, qd0..qd{n-1}, base_z
	dofs := (len(records[0]) - 2) / 2

	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) != 2*dofs+2 {
			continue
		}

		vals := make([]float64, len(record))
		ok := true
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				ok = false
				break
			}
			vals[j] = v
		}
		if !ok {
			continue
		}

		tr.Times = append(tr.Times, vals[0])
		tr.JointPositions = append(tr.JointPositions, vals[1:1+dofs])
		tr.JointVelocities = append(tr.JointVelocities, vals[1+dofs:1+2*dofs])
		tr.BaseHeights = append(tr.BaseHeights, vals[len(vals)-1])
	}

	return tr, nil
}
