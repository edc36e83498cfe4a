package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/kvats/rigidsim/internal/config"
	"github.com/kvats/rigidsim/internal/descriptions"
	"github.com/kvats/rigidsim/internal/export"
	"github.com/kvats/rigidsim/internal/metrics"
	"github.com/kvats/rigidsim/internal/model"
	"github.com/kvats/rigidsim/internal/ode"
	"github.com/kvats/rigidsim/internal/physics"
	"github.com/kvats/rigidsim/internal/sim"
	"github.com/kvats/rigidsim/internal/storage"
	"github.com/kvats/rigidsim/internal/tui"
)

var (
	dataDir    string
	configFile string
	preset     string
	stepSize   float64
	duration   float64
	integrator string
	svgOut     string
	svgSignal  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rigidsim",
		Short: "rigid-body dynamics simulator",
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.RunInteractive(config.ListPresets(), buildFromPreset)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultOutputDir, "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation headless and store the result",
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a simulation with live terminal visualization",
		RunE:  runLive,
	}
	addRunFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id] [model]",
		Short: "plot a stored run in the terminal",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  plotRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id] [model]",
		Short: "export a stored run as json",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  exportJSON,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id] [model]",
		Short: "export a stored run as csv",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  exportCSV,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id] [model]",
		Short: "render one signal of a stored run as svg",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVar(&svgOut, "out", "plot.svg", "output file")
	exportSVGCmd.Flags().StringVar(&svgSignal, "signal", "q0", "signal to plot (q<i>, qd<i>, base_z)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available run presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range config.ListPresets() {
				fmt.Println(p)
			}
			return nil
		},
	}

	benchCmd := &cobra.Command{
		Use:   "bench [preset]",
		Short: "benchmark a preset across step sizes",
		Args:  cobra.ExactArgs(1),
		RunE:  benchPreset,
	}

	validateCmd := &cobra.Command{
		Use:   "validate [description.yaml]",
		Short: "validate a model description file",
		Args:  cobra.ExactArgs(1),
		RunE:  validateDescription,
	}

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd,
		exportJSONCmd, exportCSVCmd, exportSVGCmd, presetsCmd, benchCmd, validateCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "run configuration file (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use a preset configuration")
	cmd.Flags().Float64Var(&stepSize, "dt", config.DefaultStepSize, "step size in seconds")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration in seconds")
	cmd.Flags().StringVar(&integrator, "integrator", "", "integrator (euler, semi_implicit_euler, rk4)")
}

// resolveConfig layers preset, config file and explicit flags, in that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("dt") {
		cfg.StepSize = stepSize
	}
	if cmd.Flags().Changed("time") {
		cfg.Duration = duration
	}
	if cmd.Flags().Changed("integrator") {
		cfg.Integrator = integrator
	}

	return cfg, cfg.Validate()
}

func buildSimulator(cfg *config.Config) (*sim.Simulator, error) {
	integName := cfg.Integrator
	if integName == "" {
		integName = "semi_implicit_euler"
	}
	integType, err := ode.ParseType(integName)
	if err != nil {
		return nil, err
	}

	velRepr := model.VelReprMixed
	if cfg.VelocityRepresentation != "" {
		velRepr, err = model.ParseVelRepr(cfg.VelocityRepresentation)
		if err != nil {
			return nil, err
		}
	}

	s, err := sim.New(sim.Config{
		StepSize:               cfg.StepSize,
		StepsPerRun:            cfg.StepsPerRun,
		VelocityRepresentation: velRepr,
		Integrator:             integType,
	})
	if err != nil {
		return nil, err
	}

	if err := s.SetGravity(cfg.Gravity[:]); err != nil {
		return nil, err
	}
	if err := s.SetTerrain(physics.FlatTerrain{Z: cfg.TerrainHeight}); err != nil {
		return nil, err
	}
	if err := s.SetContactParams(physics.SoftContactsParams{
		K:  cfg.Contacts.Stiffness,
		D:  cfg.Contacts.Damping,
		Mu: cfg.Contacts.Friction,
	}); err != nil {
		return nil, err
	}

	for _, mc := range cfg.Models {
		src, err := mc.Source()
		if err != nil {
			return nil, err
		}
		m, err := s.InsertModelFromSource(src, mc.Name, mc.ConsideredJoints)
		if err != nil {
			return nil, err
		}
		if err := seedState(m, mc); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func seedState(m *model.Model, mc config.ModelConfig) error {
	n := m.DOFs()
	if len(mc.JointPositions) > 0 {
		q := make([]float64, n)
		copy(q, mc.JointPositions)
		if err := m.SetJointPositions(q); err != nil {
			return err
		}
	}
	if len(mc.JointVelocities) > 0 {
		qd := make([]float64, n)
		copy(qd, mc.JointVelocities)
		if err := m.SetJointVelocities(qd); err != nil {
			return err
		}
	}
	return nil
}

func buildFromPreset(name string) (*sim.Simulator, float64, error) {
	cfg := config.GetPreset(name)
	if cfg == nil {
		return nil, 0, fmt.Errorf("unknown preset: %s", name)
	}
	s, err := buildSimulator(cfg)
	if err != nil {
		return nil, 0, err
	}
	return s, cfg.Duration, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	s, err := buildSimulator(cfg)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	trajectories := make(map[string]*storage.Trajectory)
	runMetrics := make(map[string][]metrics.Metric)
	for _, name := range s.ModelNames() {
		trajectories[name] = &storage.Trajectory{}
		runMetrics[name] = []metrics.Metric{
			metrics.NewMeanEnergy(),
			metrics.NewEnergyDrift(),
			metrics.NewStability(50.0),
		}
	}
	lastStep := make(map[string]model.StepData)

	handler := &sim.CallbackHandler{
		PostStep: func(s *sim.Simulator, stepData map[string]model.StepData) (any, error) {
			for name, sd := range stepData {
				trajectories[name].Append(sd)
				lastStep[name] = sd

				m, err := s.GetModel(name)
				if err != nil {
					return nil, err
				}
				for _, metric := range runMetrics[name] {
					metric.Observe(m, s.Time())
				}
			}
			return nil, nil
		},
	}

	steps := cfg.Steps()
	fmt.Printf("running %d steps over %d models...\n", steps, len(trajectories))
	start := time.Now()

	if _, err := s.StepOverHorizon(context.Background(), steps, handler, false); err != nil {
		return err
	}
	elapsed := time.Since(start)

	diagnostics := make(map[string]float64)
	for name, sd := range lastStep {
		for k, v := range sd.Diagnostics {
			diagnostics[name+"/"+k] = v
		}
		for _, metric := range runMetrics[name] {
			diagnostics[name+"/"+metric.Name()] = metric.Value()
		}
	}

	label := "run"
	if names := s.ModelNames(); len(names) > 0 {
		label = names[0]
	}

	meta := storage.RunMetadata{
		StepSize:    cfg.StepSize,
		Duration:    cfg.Duration,
		Integrator:  s.IntegratorType().String(),
		Models:      s.ModelNames(),
		Diagnostics: diagnostics,
	}

	runID, err := st.Save(label, meta, trajectories)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("simulated time: %.3fs\n", s.Time())
	if len(diagnostics) > 0 {
		fmt.Println("\ndiagnostics:")
		for name, val := range diagnostics {
			fmt.Printf("  %s: %.6f\n", name, val)
		}
	}

	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	s, err := buildSimulator(cfg)
	if err != nil {
		return err
	}
	return tui.RunLive(s, cfg.Duration)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tDURATION\tDT\tINTEG\tMODELS")

	for _, run := range runs {
		models := ""
		for i, m := range run.Models {
			if i > 0 {
				models += ","
			}
			models += m
		}
		fmt.Fprintf(w, "%s\t%s\t%.2fs\t%.4fs\t%s\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.StepSize,
			run.Integrator,
			models,
		)
	}

	return w.Flush()
}

func loadRun(args []string) (*storage.Store, *storage.RunMetadata, string, *storage.Trajectory, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return nil, nil, "", nil, err
	}

	modelName := ""
	if len(args) > 1 {
		modelName = args[1]
	} else if len(meta.Models) > 0 {
		modelName = meta.Models[0]
	}
	if modelName == "" {
		return nil, nil, "", nil, fmt.Errorf("run %s has no models", meta.ID)
	}

	tr, err := st.LoadTrajectory(meta.ID, modelName)
	if err != nil {
		return nil, nil, "", nil, err
	}
	return st, meta, modelName, tr, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	_, meta, modelName, tr, err := loadRun(args)
	if err != nil {
		return err
	}
	if len(tr.Times) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s\n", modelName)
	fmt.Printf("samples: %d\n\n", len(tr.Times))

	dofs := len(tr.JointPositions[0])
	maxPlots := 4
	if dofs > maxPlots {
		dofs = maxPlots
	}

	for i := 0; i < dofs; i++ {
		data := make([]float64, len(tr.Times))
		for j := range tr.Times {
			data[j] = tr.JointPositions[j][i]
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("q%d vs time", i)),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	graph := asciigraph.Plot(tr.BaseHeights,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("base height vs time"),
	)
	fmt.Println(graph)

	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st, meta, modelName, _, err := loadRun(args)
	if err != nil {
		return err
	}
	return st.ExportJSONStdout(meta.ID, modelName)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, meta, modelName, _, err := loadRun(args)
	if err != nil {
		return err
	}

	file, err := os.Open(filepath.Join(dataDir, meta.ID, modelName+".csv"))
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = io.Copy(os.Stdout, file)
	return err
}

func exportSVG(cmd *cobra.Command, args []string) error {
	_, _, _, tr, err := loadRun(args)
	if err != nil {
		return err
	}
	if len(tr.Times) == 0 {
		return fmt.Errorf("no data to plot")
	}

	values, err := selectSignal(tr, svgSignal)
	if err != nil {
		return err
	}

	svg := export.SeriesToSVG(tr.Times, values, 800, 400, "#00ff88")
	if svg == "" {
		return fmt.Errorf("not enough samples to plot")
	}
	if err := os.WriteFile(svgOut, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", svgOut)
	return nil
}

func selectSignal(tr *storage.Trajectory, signal string) ([]float64, error) {
	if signal == "base_z" {
		return tr.BaseHeights, nil
	}

	var kind string
	var idx int
	if _, err := fmt.Sscanf(signal, "qd%d", &idx); err == nil {
		kind = "qd"
	} else if _, err := fmt.Sscanf(signal, "q%d", &idx); err == nil {
		kind = "q"
	} else {
		return nil, fmt.Errorf("unknown signal %q", signal)
	}

	if idx < 0 || len(tr.JointPositions) == 0 || idx >= len(tr.JointPositions[0]) {
		return nil, fmt.Errorf("signal %q out of range", signal)
	}

	values := make([]float64, len(tr.Times))
	for i := range tr.Times {
		if kind == "q" {
			values[i] = tr.JointPositions[i][idx]
		} else {
			values[i] = tr.JointVelocities[i][idx]
		}
	}
	return values, nil
}

func benchPreset(cmd *cobra.Command, args []string) error {
	cfg := config.GetPreset(args[0])
	if cfg == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
	}

	durations := []float64{1.0, 5.0}
	stepSizes := []float64{0.0005, 0.001, 0.01}

	fmt.Printf("benchmarking %s\n\n", args[0])
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DURATION\tDT\tSTEPS\tTIME\tSTEPS/SEC")

	for _, dur := range durations {
		for _, dt := range stepSizes {
			run := *cfg
			run.StepSize = dt
			run.Duration = dur

			s, err := buildSimulator(&run)
			if err != nil {
				return err
			}

			steps := run.Steps()
			start := time.Now()
			if _, err := s.StepOverHorizon(context.Background(), steps, nil, false); err != nil {
				return err
			}
			elapsed := time.Since(start)

			fmt.Fprintf(w, "%.1fs\t%.4fs\t%d\t%v\t%.0f\n",
				dur, dt, steps, elapsed, float64(steps)/elapsed.Seconds())
		}
	}

	return w.Flush()
}

func validateDescription(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	desc, err := descriptions.Parse(data)
	if err != nil {
		return err
	}

	pm, err := physics.Build(desc, physics.DefaultGravity())
	if err != nil {
		return err
	}

	fmt.Printf("%s: ok\n", desc.Name)
	fmt.Printf("  links: %d\n", len(desc.Links))
	fmt.Printf("  joints: %d\n", len(desc.Joints))
	fmt.Printf("  dofs: %d\n", pm.DOFs())
	fmt.Printf("  fixed base: %v\n", pm.FixedBase())
	fmt.Printf("  total mass: %.3f kg\n", pm.TotalMass())
	return nil
}
