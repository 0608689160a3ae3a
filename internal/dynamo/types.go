package dynamo

import (
	"context"
	"fmt"
	"math"
)

// State is a flat vector of 6N values: N velocity triples followed by N
// position triples, body-major.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Bodies returns the number of bodies encoded in s.
func (s State) Bodies() int { return len(s) / 6 }

type System interface {
	Derive(x State, t float64) State
	StateDim() int
}

type Hamiltonian interface {
	Energy(x State) float64
}

type Integrator interface {
	Integrate(ctx context.Context, sys System, x0 State, cfg Config) (*Result, error)
}

// Config describes one integration run. Step bounds are fractions of the
// initial Step, not of the current step size.
type Config struct {
	T0         float64
	TEnd       float64
	Step       float64
	Tolerance  float64
	UpperBound float64
	LowerBound float64

	// MaxSteps caps loop iterations; 0 means unbounded.
	MaxSteps int
	// RestoreOnReject rolls y back when a step exceeds tolerance.
	RestoreOnReject bool
	// ValidateState fails fast on NaN/Inf instead of propagating them.
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		T0:         0,
		TEnd:       1,
		Step:       0.01,
		Tolerance:  1e-8,
		UpperBound: 4,
		LowerBound: 0.1,
	}
}

// Validate checks the caller contract for a run.
func (c Config) Validate() error {
	if !(c.Step > 0) || math.IsInf(c.Step, 0) {
		return fmt.Errorf("%w: step must be positive and finite, got %g", ErrParameterBounds, c.Step)
	}
	if !finite(c.T0) || !finite(c.TEnd) || c.T0 > c.TEnd {
		return fmt.Errorf("%w: need t0 <= t_end, got t0=%g t_end=%g", ErrParameterBounds, c.T0, c.TEnd)
	}
	if !(c.Tolerance > 0) || math.IsInf(c.Tolerance, 0) {
		return fmt.Errorf("%w: tolerance must be positive and finite, got %g", ErrParameterBounds, c.Tolerance)
	}
	if !(c.LowerBound > 0) || !(c.LowerBound <= c.UpperBound) || math.IsInf(c.UpperBound, 0) {
		return fmt.Errorf("%w: need 0 < lower_bound <= upper_bound < Inf, got lower=%g upper=%g",
			ErrParameterBounds, c.LowerBound, c.UpperBound)
	}
	if c.MaxSteps < 0 {
		return fmt.Errorf("%w: max_steps must be non-negative, got %d", ErrParameterBounds, c.MaxSteps)
	}
	return nil
}

// Stats summarises what the step-size controller did during a run.
type Stats struct {
	Iterations  int
	Accepted    int
	Rejected    int
	Clamped     int
	Evaluations int
	MinStep     float64
	MaxStep     float64
	LastStep    float64
}

type Result struct {
	Times  []float64
	States []State
	Stats  Stats
}

// Len returns the number of recorded points.
func (r *Result) Len() int { return len(r.Times) }

// Final returns the last recorded time and state.
func (r *Result) Final() (float64, State) {
	if len(r.Times) == 0 {
		return 0, nil
	}
	return r.Times[len(r.Times)-1], r.States[len(r.States)-1]
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
