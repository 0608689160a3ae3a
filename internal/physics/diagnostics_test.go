package physics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func circularBinary() []Body {
	v := math.Sqrt(0.5)
	return []Body{
		{Mass: 1, Position: r3.Vec{X: -0.5}, Velocity: r3.Vec{Y: -v}},
		{Mass: 1, Position: r3.Vec{X: 0.5}, Velocity: r3.Vec{Y: v}},
	}
}

func TestPackLayout(t *testing.T) {
	x, masses := Pack([]Body{
		{Mass: 1, Position: r3.Vec{X: 1, Y: 2, Z: 3}, Velocity: r3.Vec{X: 4, Y: 5, Z: 6}},
		{Mass: 2, Position: r3.Vec{X: 7, Y: 8, Z: 9}, Velocity: r3.Vec{X: 10, Y: 11, Z: 12}},
	})

	want := []float64{4, 5, 6, 10, 11, 12, 1, 2, 3, 7, 8, 9}
	for i := range want {
		if x[i] != want[i] {
			t.Fatalf("x[%d] = %g, want %g", i, x[i], want[i])
		}
	}
	if masses[1] != 2 {
		t.Errorf("masses = %v", masses)
	}
	if p := Position(x, 1); p != (r3.Vec{X: 7, Y: 8, Z: 9}) {
		t.Errorf("Position(1) = %v", p)
	}
	if v := Velocity(x, 0); v != (r3.Vec{X: 4, Y: 5, Z: 6}) {
		t.Errorf("Velocity(0) = %v", v)
	}
}

func TestCircularBinaryInvariants(t *testing.T) {
	x, masses := Pack(circularBinary())
	ff, _ := NewForceField(masses, 1)

	// KE = 2 * 0.5 * 0.5 = 0.5, PE = -1.
	if e := ff.Energy(x); math.Abs(e+0.5) > 1e-12 {
		t.Errorf("Energy = %g, want -0.5", e)
	}
	if p := r3.Norm(ff.Momentum(x)); p > 1e-15 {
		t.Errorf("|P| = %g, want 0", p)
	}
	// L_z = 2 * 0.5 * sqrt(0.5)
	if l := ff.AngularMomentum(x); math.Abs(l.Z-math.Sqrt(0.5)) > 1e-12 || l.X != 0 || l.Y != 0 {
		t.Errorf("L = %v", l)
	}
	if c := ff.CenterOfMass(x); r3.Norm(c) > 1e-15 {
		t.Errorf("CoM = %v", c)
	}
	if d := MinSeparation(x); math.Abs(d-1) > 1e-15 {
		t.Errorf("MinSeparation = %g, want 1", d)
	}
}

func TestMinSeparationSingleBody(t *testing.T) {
	x, _ := Pack([]Body{{Mass: 1}})
	if d := MinSeparation(x); !math.IsInf(d, 1) {
		t.Errorf("MinSeparation = %g, want +Inf", d)
	}
}
