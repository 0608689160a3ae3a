package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/orbsim/internal/dynamo"
)

// ForceField is the Newtonian point-mass right-hand side. State layout is
// [v_0 .. v_{N-1}, p_0 .. p_{N-1}], three components each.
type ForceField struct {
	Masses []float64
	G      float64
}

// NewForceField validates masses and returns a field for len(masses) bodies.
func NewForceField(masses []float64, g float64) (*ForceField, error) {
	if len(masses) == 0 {
		return nil, fmt.Errorf("%w: at least one body is required", dynamo.ErrDimensionMismatch)
	}
	for i, m := range masses {
		if !(m > 0) || math.IsInf(m, 0) {
			return nil, fmt.Errorf("%w: mass %d must be positive and finite, got %g", dynamo.ErrParameterBounds, i, m)
		}
	}
	if math.IsNaN(g) || math.IsInf(g, 0) {
		return nil, fmt.Errorf("%w: gravitational constant must be finite, got %g", dynamo.ErrParameterBounds, g)
	}
	ms := make([]float64, len(masses))
	copy(ms, masses)
	return &ForceField{Masses: ms, G: g}, nil
}

func (f *ForceField) NumBodies() int { return len(f.Masses) }
func (f *ForceField) StateDim() int  { return 6 * len(f.Masses) }

// Derive returns accelerations followed by a copy of the input velocities.
// t is unused; the system is autonomous.
func (f *ForceField) Derive(x dynamo.State, t float64) dynamo.State {
	return evaluate(x, f.Masses, f.G)
}

// Derivative checks the layout contract and evaluates the field once.
func Derivative(t float64, x dynamo.State, masses []float64, g float64) (dynamo.State, error) {
	if len(x) != 6*len(masses) {
		return nil, fmt.Errorf("%w: state has %d entries, %d masses need %d",
			dynamo.ErrDimensionMismatch, len(x), len(masses), 6*len(masses))
	}
	return evaluate(x, masses, g), nil
}

// evaluate sums pairwise accelerations with no softening. Coincident bodies
// yield Inf/NaN, which are returned as-is.
func evaluate(x dynamo.State, masses []float64, g float64) dynamo.State {
	n := len(masses)
	off := 3 * n
	dx := make(dynamo.State, len(x))

	// dist[i*n+j] mirrors dist[j*n+i]; zero means not yet computed.
	dist := make([]float64, n*n)

	for i := 0; i < n; i++ {
		pi := x[off+3*i : off+3*i+3]
		var ax, ay, az float64

		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			pj := x[off+3*j : off+3*j+3]

			if dist[i*n+j] == 0 {
				r2 := 0.0
				for k := 0; k < 3; k++ {
					d := pj[k] - pi[k]
					r2 += float64(d * d)
				}
				r := math.Sqrt(r2)
				dist[i*n+j] = r
				dist[j*n+i] = r
			}

			r := dist[i*n+j]
			r3 := r * r * r
			gm := g * masses[j]
			ax += float64(gm*(pj[0]-pi[0])) / r3
			ay += float64(gm*(pj[1]-pi[1])) / r3
			az += float64(gm*(pj[2]-pi[2])) / r3
		}

		dx[3*i] = ax
		dx[3*i+1] = ay
		dx[3*i+2] = az
	}

	copy(dx[off:], x[:off])
	return dx
}
