package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/orbsim/internal/config"
	"github.com/san-kum/orbsim/internal/dynamo"
	"github.com/san-kum/orbsim/internal/integrators"
	"github.com/san-kum/orbsim/internal/metrics"
	"github.com/san-kum/orbsim/internal/storage"
	"github.com/spf13/cobra"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(16)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
)

// resolveConfig starts from the named preset, the --config file or the
// binary preset, then applies any integration flags set on the command line.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case len(args) == 1 && configFile != "":
		return nil, fmt.Errorf("give either a preset or --config, not both")
	case len(args) == 1:
		cfg = config.GetPreset(args[0])
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
		}
	case configFile != "":
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	default:
		cfg = config.GetPreset("binary")
	}

	flags := cmd.Flags()
	if flags.Changed("g") {
		cfg.G = g
	}
	if flags.Changed("t0") {
		cfg.T0 = t0
	}
	if flags.Changed("t-end") {
		cfg.TEnd = tEnd
	}
	if flags.Changed("step") {
		cfg.Step = step
	}
	if flags.Changed("tol") {
		cfg.Tolerance = tolerance
	}
	if flags.Changed("upper") {
		cfg.UpperBound = upperBound
	}
	if flags.Changed("lower") {
		cfg.LowerBound = lowerBound
	}
	if flags.Changed("max-steps") {
		cfg.MaxSteps = maxSteps
	}
	if flags.Changed("restore-on-reject") {
		cfg.RestoreOnReject = restore
	}
	if flags.Changed("validate") {
		cfg.ValidateState = validate
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	ff, err := cfg.ForceField()
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("integrating", "name", cfg.Name, "bodies", ff.NumBodies(), "t0", cfg.T0, "t_end", cfg.TEnd, "tol", cfg.Tolerance)
	var integ dynamo.Integrator = integrators.NewFehlberg().WithLogger(logger)
	start := time.Now()
	res, runErr := integ.Integrate(ctx, ff, cfg.InitialState(), cfg.IntegratorConfig())
	elapsed := time.Since(start)

	// Runs cut short keep their partial trajectory.
	var simErr *dynamo.SimulationError
	if runErr != nil && (res == nil || !errors.As(runErr, &simErr)) {
		return runErr
	}

	values := metrics.Evaluate(res, metrics.Default(ff)...)
	runID, err := st.Save(storage.RunMetadata{
		Name:    cfg.Name,
		Bodies:  cfg.BodyNames(),
		Masses:  cfg.Masses(),
		G:       cfg.G,
		Config:  cfg.IntegratorConfig(),
		Stats:   res.Stats,
		Metrics: values,
	}, res)
	if err != nil {
		return err
	}

	printSummary(cfg, runID, res, values, elapsed)
	if runErr != nil {
		fmt.Println(warnStyle.Render("stopped early: " + runErr.Error()))
		return runErr
	}
	return nil
}

func printSummary(cfg *config.Config, runID string, res *dynamo.Result, values map[string]float64, elapsed time.Duration) {
	row := func(label, format string, a ...any) {
		fmt.Println(labelStyle.Render(label) + fmt.Sprintf(format, a...))
	}

	fmt.Println(titleStyle.Render(strings.ToUpper(cfg.Name)))
	row("run id", "%s", runID)
	row("elapsed", "%v", elapsed)
	row("points", "%d", res.Len())
	if t, _ := res.Final(); res.Len() > 0 {
		row("last time", "%.9g", t)
	}
	s := res.Stats
	row("iterations", "%d (%d rejected, %d clamped)", s.Iterations, s.Rejected, s.Clamped)
	row("evaluations", "%d", s.Evaluations)
	if s.Iterations > 0 {
		row("step range", "[%.4g, %.4g]", s.MinStep, s.MaxStep)
	}

	fmt.Println()
	fmt.Println(titleStyle.Render("METRICS"))
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		row(name, "%.6e", values[name])
	}
}

func benchPreset(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	ff, err := cfg.ForceField()
	if err != nil {
		return err
	}
	if benchRuns < 1 {
		return fmt.Errorf("--runs must be positive")
	}

	x0, icfg := cfg.InitialState(), cfg.IntegratorConfig()
	var integ dynamo.Integrator = integrators.NewFehlberg().WithLogger(logger)

	var (
		total, best time.Duration
		res         *dynamo.Result
	)
	for i := 0; i < benchRuns; i++ {
		start := time.Now()
		res, err = integ.Integrate(cmd.Context(), ff, x0, icfg)
		d := time.Since(start)
		if err != nil && res == nil {
			return err
		}
		total += d
		if i == 0 || d < best {
			best = d
		}
		logger.Debug("bench run", "run", i, "elapsed", d, "points", res.Len())
	}

	mean := total / time.Duration(benchRuns)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "preset\t%s\n", cfg.Name)
	fmt.Fprintf(w, "bodies\t%d\n", ff.NumBodies())
	fmt.Fprintf(w, "runs\t%d\n", benchRuns)
	fmt.Fprintf(w, "mean\t%v\n", mean)
	fmt.Fprintf(w, "best\t%v\n", best)
	fmt.Fprintf(w, "iterations\t%d\n", res.Stats.Iterations)
	fmt.Fprintf(w, "evaluations\t%d\n", res.Stats.Evaluations)
	if mean > 0 {
		fmt.Fprintf(w, "evals/sec\t%.0f\n", float64(res.Stats.Evaluations)/mean.Seconds())
	}
	if err != nil {
		fmt.Fprintf(w, "stopped\t%v\n", err)
	}
	return w.Flush()
}
