package metrics

import (
	"math"

	"github.com/san-kum/orbsim/internal/dynamo"
	"github.com/san-kum/orbsim/internal/physics"
	"gonum.org/v1/gonum/spatial/r3"
)

// MomentumDrift is the largest |P(t) - P(t0)| seen.
type MomentumDrift struct {
	name     string
	ff       *physics.ForceField
	initial  r3.Vec
	maxDrift float64
	samples  int
}

func NewMomentumDrift(ff *physics.ForceField) *MomentumDrift {
	return &MomentumDrift{name: "momentum_drift", ff: ff}
}

func (m *MomentumDrift) Name() string { return m.name }

func (m *MomentumDrift) Observe(x dynamo.State, t float64) {
	p := m.ff.Momentum(x)
	if m.samples == 0 {
		m.initial = p
	}
	m.samples++
	m.maxDrift = math.Max(m.maxDrift, r3.Norm(r3.Sub(p, m.initial)))
}

func (m *MomentumDrift) Value() float64 { return m.maxDrift }

func (m *MomentumDrift) Reset() {
	m.initial = r3.Vec{}
	m.maxDrift = 0
	m.samples = 0
}

// AngularMomentumDrift is the largest |L(t) - L(t0)|, L taken about the
// origin.
type AngularMomentumDrift struct {
	ff       *physics.ForceField
	initial  r3.Vec
	maxDrift float64
	samples  int
}

func NewAngularMomentumDrift(ff *physics.ForceField) *AngularMomentumDrift {
	return &AngularMomentumDrift{ff: ff}
}

func (m *AngularMomentumDrift) Name() string { return "angular_momentum_drift" }

func (m *AngularMomentumDrift) Observe(x dynamo.State, t float64) {
	l := m.ff.AngularMomentum(x)
	if m.samples == 0 {
		m.initial = l
	}
	m.samples++
	m.maxDrift = math.Max(m.maxDrift, r3.Norm(r3.Sub(l, m.initial)))
}

func (m *AngularMomentumDrift) Value() float64 { return m.maxDrift }

func (m *AngularMomentumDrift) Reset() {
	m.initial = r3.Vec{}
	m.maxDrift = 0
	m.samples = 0
}

// Separation records the closest approach between any two bodies.
type Separation struct {
	name    string
	closest float64
}

func NewSeparation() *Separation {
	return &Separation{name: "min_separation", closest: math.Inf(1)}
}

func (s *Separation) Name() string { return s.name }

func (s *Separation) Observe(x dynamo.State, t float64) {
	s.closest = math.Min(s.closest, physics.MinSeparation(x))
}

func (s *Separation) Value() float64 { return s.closest }

func (s *Separation) Reset() { s.closest = math.Inf(1) }

// Default returns the metrics recorded for every stored run.
func Default(ff *physics.ForceField) []Metric {
	return []Metric{
		NewEnergyDrift(ff),
		NewMomentumDrift(ff),
		NewAngularMomentumDrift(ff),
		NewSeparation(),
	}
}
