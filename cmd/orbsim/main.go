package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/orbsim/internal/config"
	"github.com/san-kum/orbsim/internal/logging"
	"github.com/san-kum/orbsim/internal/physics"
	"github.com/san-kum/orbsim/internal/storage"
	"github.com/san-kum/orbsim/internal/viz"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	dataDir   string
	logLevel  string
	logFormat string
	logger    *slog.Logger

	// run / bench
	configFile string
	g          float64
	t0         float64
	tEnd       float64
	step       float64
	tolerance  float64
	upperBound float64
	lowerBound float64
	maxSteps   int
	restore    bool
	validate   bool
	benchRuns  int

	// plot / orbit
	component int
	width     int
	height    int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "orbsim",
		Short:         "adaptive n-body gravity integrator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewLogger(logLevel, logFormat, os.Stderr)
			slog.SetDefault(logger)
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".orbsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "integrate a preset or config file and store the run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addIntegrationFlags(runCmd)

	benchCmd := &cobra.Command{
		Use:   "bench [preset]",
		Short: "time repeated integrations without storing them",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchPreset,
	}
	addIntegrationFlags(benchCmd)
	benchCmd.Flags().IntVar(&benchRuns, "runs", 5, "number of integrations")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot energy (or one state component) against time",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&component, "component", -1, "state index to plot instead of energy")
	plotCmd.Flags().IntVar(&width, "width", 80, "plot width")
	plotCmd.Flags().IntVar(&height, "height", 12, "plot height")

	orbitCmd := &cobra.Command{
		Use:   "orbit [run_id]",
		Short: "draw the x-y paths of every body",
		Args:  cobra.ExactArgs(1),
		RunE:  orbitRun,
	}
	orbitCmd.Flags().IntVar(&width, "width", 60, "canvas width in cells")
	orbitCmd.Flags().IntVar(&height, "height", 24, "canvas height in cells")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "write the stored states as CSV to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportCSV(os.Stdout, args[0])
		},
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "write metadata and states as JSON to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportJSON(os.Stdout, args[0])
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [name]",
		Short: "list presets, or print one as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showPresets,
	}

	replayCmd := &cobra.Command{
		Use:   "replay [run_id]",
		Short: "play a stored run back in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  replayRun,
	}

	rootCmd.AddCommand(runCmd, benchCmd, listCmd, plotCmd, orbitCmd, exportCSVCmd, exportJSONCmd, presetsCmd, replayCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addIntegrationFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.Float64Var(&g, "g", config.DefaultG, "gravitational constant")
	f.Float64Var(&t0, "t0", 0, "start time")
	f.Float64Var(&tEnd, "t-end", 1, "end time")
	f.Float64Var(&step, "step", config.DefaultStep, "initial step size")
	f.Float64Var(&tolerance, "tol", config.DefaultTolerance, "local error tolerance")
	f.Float64Var(&upperBound, "upper", config.DefaultUpperBound, "largest step as a multiple of the initial step")
	f.Float64Var(&lowerBound, "lower", config.DefaultLowerBound, "smallest step as a multiple of the initial step")
	f.IntVar(&maxSteps, "max-steps", 0, "stop after this many iterations (0 = unbounded)")
	f.BoolVar(&restore, "restore-on-reject", false, "retry rejected steps from the previous state")
	f.BoolVar(&validate, "validate", false, "fail on non-finite state values")
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tBODIES\tT_END\tPOINTS\tREJECTED\tENERGY_DRIFT")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%g\t%d\t%d\t%s\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			len(run.Masses),
			run.Config.TEnd,
			run.Points,
			run.Stats.Rejected,
			metricCell(run.Metrics, "energy_drift"),
		)
	}
	return w.Flush()
}

// metricCell formats a stored metric, or "-" when the run has none.
func metricCell(values map[string]float64, name string) string {
	v, ok := values[name]
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.3e", v)
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	res, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}
	if res.Len() == 0 {
		return fmt.Errorf("run %s has no data to plot", meta.ID)
	}

	data := make([]float64, res.Len())
	caption := "total energy vs time"
	if component >= 0 {
		if component >= len(res.States[0]) {
			return fmt.Errorf("component %d out of range (state has %d)", component, len(res.States[0]))
		}
		caption = fmt.Sprintf("x%d vs time", component)
		for i, x := range res.States {
			data[i] = x[component]
		}
	} else {
		ff, err := physics.NewForceField(meta.Masses, meta.G)
		if err != nil {
			return err
		}
		for i, x := range res.States {
			data[i] = ff.Energy(x)
		}
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("points: %d  t: [%g, %g]\n\n", res.Len(), res.Times[0], res.Times[res.Len()-1])
	fmt.Println(asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	))
	return nil
}

func orbitRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	res, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s (%d bodies, x-y plane)\n\n", meta.ID, len(meta.Masses))
	fmt.Print(viz.RenderOrbits(res.States, len(meta.Masses), width, height))
	return nil
}

func showPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		cfg := config.GetPreset(args[0])
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
		}
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tBODIES\tG\tT_END\tSTEP\tTOL")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%g\t%g\t%g\t%g\n", name, len(cfg.Bodies), cfg.G, cfg.TEnd, cfg.Step, cfg.Tolerance)
	}
	return w.Flush()
}

func replayRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	res, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}
	ff, err := physics.NewForceField(meta.Masses, meta.G)
	if err != nil {
		return err
	}

	p := tea.NewProgram(viz.NewReplay(meta.Name, res, meta.Bodies, ff), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
