package physics

import (
	"math"

	"github.com/san-kum/orbsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// Body is one point mass in Cartesian coordinates.
type Body struct {
	Mass     float64
	Position r3.Vec
	Velocity r3.Vec
}

// Pack lays bodies out as velocities followed by positions.
func Pack(bodies []Body) (dynamo.State, []float64) {
	n := len(bodies)
	x := make(dynamo.State, 6*n)
	masses := make([]float64, n)
	for i, b := range bodies {
		masses[i] = b.Mass
		x[3*i], x[3*i+1], x[3*i+2] = b.Velocity.X, b.Velocity.Y, b.Velocity.Z
		o := 3*n + 3*i
		x[o], x[o+1], x[o+2] = b.Position.X, b.Position.Y, b.Position.Z
	}
	return x, masses
}

// Position returns body i's position from x.
func Position(x dynamo.State, i int) r3.Vec {
	o := 3*x.Bodies() + 3*i
	return r3.Vec{X: x[o], Y: x[o+1], Z: x[o+2]}
}

// Velocity returns body i's velocity from x.
func Velocity(x dynamo.State, i int) r3.Vec {
	return r3.Vec{X: x[3*i], Y: x[3*i+1], Z: x[3*i+2]}
}

// Energy is kinetic plus pairwise potential energy.
func (f *ForceField) Energy(x dynamo.State) float64 {
	n := f.NumBodies()
	ke, pe := 0.0, 0.0
	for i := 0; i < n; i++ {
		v := Velocity(x, i)
		ke += 0.5 * f.Masses[i] * r3.Norm2(v)

		pi := Position(x, i)
		for j := i + 1; j < n; j++ {
			r := r3.Norm(r3.Sub(Position(x, j), pi))
			pe -= f.G * f.Masses[i] * f.Masses[j] / r
		}
	}
	return ke + pe
}

func (f *ForceField) Momentum(x dynamo.State) r3.Vec {
	var p r3.Vec
	for i, m := range f.Masses {
		p = r3.Add(p, r3.Scale(m, Velocity(x, i)))
	}
	return p
}

// AngularMomentum is taken about the origin.
func (f *ForceField) AngularMomentum(x dynamo.State) r3.Vec {
	var l r3.Vec
	for i, m := range f.Masses {
		l = r3.Add(l, r3.Scale(m, r3.Cross(Position(x, i), Velocity(x, i))))
	}
	return l
}

func (f *ForceField) CenterOfMass(x dynamo.State) r3.Vec {
	var c r3.Vec
	total := 0.0
	for i, m := range f.Masses {
		c = r3.Add(c, r3.Scale(m, Position(x, i)))
		total += m
	}
	return r3.Scale(1/total, c)
}

// MinSeparation returns the smallest pairwise distance, or +Inf for one body.
func MinSeparation(x dynamo.State) float64 {
	n := x.Bodies()
	best := math.Inf(1)
	for i := 0; i < n; i++ {
		pi := Position(x, i)
		for j := i + 1; j < n; j++ {
			if d := r3.Norm(r3.Sub(Position(x, j), pi)); d < best {
				best = d
			}
		}
	}
	return best
}
