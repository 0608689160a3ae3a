package integrators

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/orbsim/internal/dynamo"
	"github.com/san-kum/orbsim/internal/logging"
	"github.com/san-kum/orbsim/internal/physics"
)

const stages = 6

// Runge-Kutta-Fehlberg 4(5) tableau.
var (
	nodes = [stages]float64{0, 2.0 / 9.0, 1.0 / 3.0, 3.0 / 4.0, 1.0, 5.0 / 6.0}

	coupling = [stages][stages - 1]float64{
		{},
		{2.0 / 9.0},
		{1.0 / 12.0, 1.0 / 4.0},
		{69.0 / 128.0, -243.0 / 128.0, 135.0 / 64.0},
		{-17.0 / 12.0, 27.0 / 4.0, -27.0 / 5.0, 16.0 / 15.0},
		{65.0 / 432.0, -5.0 / 16.0, 13.0 / 16.0, 4.0 / 27.0, 5.0 / 144.0},
	}

	// 5th-order solution weights.
	weights = [stages]float64{47.0 / 450.0, 0, 12.0 / 25.0, 32.0 / 225.0, 1.0 / 30.0, 6.0 / 25.0}

	// Difference between the 4th- and 5th-order weights.
	errWeights = [stages]float64{1.0 / 150.0, 0, -3.0 / 100.0, 16.0 / 75.0, 1.0 / 20.0, -6.0 / 25.0}
)

const (
	safety     = 0.9
	growthExpo = 0.2
)

// StepObserver is called once per iteration with the step size that was
// used, the resized step, and whether time advanced.
type StepObserver func(t, usedStep, nextStep float64, accepted bool)

var _ dynamo.Integrator = (*Fehlberg)(nil)

type Fehlberg struct {
	logger   *slog.Logger
	observer StepObserver
}

func NewFehlberg() *Fehlberg {
	return &Fehlberg{
		logger: logging.Discard(),
	}
}

// WithLogger sets the logger used for per-step debug output.
func (r *Fehlberg) WithLogger(l *slog.Logger) *Fehlberg {
	if l != nil {
		r.logger = l
	}
	return r
}

// WithObserver installs a per-iteration callback.
func (r *Fehlberg) WithObserver(o StepObserver) *Fehlberg {
	r.observer = o
	return r
}

// Integrate is the positional entry point: it builds a force field from
// masses and g and integrates y0 from t0 until t exceeds tEnd.
func Integrate(y0 dynamo.State, masses []float64, t0, tEnd, h0, g, tol, upperFrac, lowerFrac float64) (*dynamo.Result, error) {
	ff, err := physics.NewForceField(masses, g)
	if err != nil {
		return nil, err
	}
	cfg := dynamo.Config{
		T0:         t0,
		TEnd:       tEnd,
		Step:       h0,
		Tolerance:  tol,
		UpperBound: upperFrac,
		LowerBound: lowerFrac,
	}
	return NewFehlberg().Integrate(context.Background(), ff, y0, cfg)
}

// Integrate runs the adaptive loop. A step whose error exceeds the tolerance
// is not recorded and does not advance t, but unless cfg.RestoreOnReject is
// set the state has already been advanced by it. Hitting either step-size
// bound forces the step to count as accepted. Bounds are fractions of
// cfg.Step.
//
// On cancellation or when cfg.MaxSteps is exhausted, the partial result is
// returned together with the error.
func (r *Fehlberg) Integrate(ctx context.Context, sys dynamo.System, y0 dynamo.State, cfg dynamo.Config) (*dynamo.Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sys.StateDim() == 0 {
		return nil, fmt.Errorf("%w: at least one body is required", dynamo.ErrDimensionMismatch)
	}
	if len(y0) != sys.StateDim() {
		return nil, fmt.Errorf("%w: initial state has %d entries, system needs %d",
			dynamo.ErrDimensionMismatch, len(y0), sys.StateDim())
	}

	n := len(y0)
	lower := cfg.LowerBound * cfg.Step
	upper := cfg.UpperBound * cfg.Step

	res := &dynamo.Result{
		Times:  make([]float64, 0, 64),
		States: make([]dynamo.State, 0, 64),
		Stats:  dynamo.Stats{MinStep: math.Inf(1), MaxStep: math.Inf(-1)},
	}

	var k [stages][]float64
	for s := range k {
		k[s] = make([]float64, n)
	}
	tmp := make(dynamo.State, n)
	var prev dynamo.State
	if cfg.RestoreOnReject {
		prev = make(dynamo.State, n)
	}

	t := cfg.T0
	y := y0.Clone()
	h := cfg.Step
	record := true

	for t <= cfg.TEnd {
		select {
		case <-ctx.Done():
			return res, &dynamo.SimulationError{
				Step:    res.Stats.Iterations,
				Time:    t,
				State:   y.Clone(),
				Wrapped: fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err()),
			}
		default:
		}

		if record {
			res.Times = append(res.Times, t)
			res.States = append(res.States, y.Clone())
		}
		record = true

		if cfg.MaxSteps > 0 && res.Stats.Iterations >= cfg.MaxSteps {
			return res, &dynamo.SimulationError{Step: res.Stats.Iterations, Time: t, State: y.Clone(), Wrapped: dynamo.ErrMaxSteps}
		}
		res.Stats.Iterations++

		r.evalStages(sys, &k, tmp, y, t, h)
		res.Stats.Evaluations += stages

		if prev != nil {
			copy(prev, y)
		}

		// Explicit float64 conversions block FMA contraction.
		for i := 0; i < n; i++ {
			for j := 0; j < stages; j++ {
				y[i] += float64(weights[j] * k[j][i])
			}
		}

		truncErr := 0.0
		for i := 0; i < n; i++ {
			e := 0.0
			for j := 0; j < stages; j++ {
				e += float64(errWeights[j] * k[j][i])
			}
			truncErr += float64(e * e)
		}
		truncErr = math.Sqrt(truncErr)

		oldH := h
		if truncErr > cfg.Tolerance {
			record = false
		}
		h *= safety * pow(cfg.Tolerance/truncErr, growthExpo)

		clamped := false
		if h < lower {
			h = lower
			clamped = true
		} else if h > upper {
			h = upper
			clamped = true
		}
		if clamped {
			record = true
			res.Stats.Clamped++
		}

		if record {
			t += oldH
			res.Stats.Accepted++
		} else {
			res.Stats.Rejected++
			if prev != nil {
				copy(y, prev)
			}
			r.logger.Debug("step rejected", "t", t, "h", oldH, "err", truncErr, "next_h", h)
		}
		if clamped {
			r.logger.Debug("step clamped", "t", t, "h", h, "err", truncErr)
		}

		res.Stats.MinStep = math.Min(res.Stats.MinStep, h)
		res.Stats.MaxStep = math.Max(res.Stats.MaxStep, h)
		res.Stats.LastStep = h

		if cfg.ValidateState && !y.IsValid() {
			return res, &dynamo.SimulationError{Step: res.Stats.Iterations, Time: t, State: y.Clone(), Wrapped: dynamo.ErrInvalidState}
		}

		if r.observer != nil {
			r.observer(t, oldH, h, record)
		}
	}

	r.logger.Debug("integration finished",
		"points", len(res.Times),
		"iterations", res.Stats.Iterations,
		"accepted", res.Stats.Accepted,
		"rejected", res.Stats.Rejected,
		"clamped", res.Stats.Clamped,
	)

	return res, nil
}

// evalStages fills k[s] = h * f(t + c_s h, y + sum_j a_sj k[j]).
func (r *Fehlberg) evalStages(sys dynamo.System, k *[stages][]float64, tmp, y dynamo.State, t, h float64) {
	n := len(y)

	f := sys.Derive(y, t)
	for i := 0; i < n; i++ {
		k[0][i] = h * f[i]
	}

	for s := 1; s < stages; s++ {
		for i := 0; i < n; i++ {
			tmp[i] = y[i]
			for j := 0; j < s; j++ {
				tmp[i] += float64(coupling[s][j] * k[j][i])
			}
		}
		f = sys.Derive(tmp, t+float64(nodes[s]*h))
		for i := 0; i < n; i++ {
			k[s][i] = h * f[i]
		}
	}
}
