// Package physics provides the gravitational right-hand side for N-body
// integration.
//
// [ForceField] implements [dynamo.System] and [dynamo.Hamiltonian]. It
// evaluates Newton's law by direct pairwise summation (O(N^2), no
// softening), so coincident bodies produce non-finite accelerations that
// flow on into the integrator untouched.
//
// State vectors hold all velocities first and all positions second:
//
//	[vx0 vy0 vz0 ... vx(N-1) vy(N-1) vz(N-1) | x0 y0 z0 ... x(N-1) y(N-1) z(N-1)]
//
// The derivative has the same layout: accelerations, then the input
// velocities.
//
// # Conserved Quantities
//
// Energy, linear momentum and angular momentum are available for drift
// monitoring:
//
//	ff, _ := physics.NewForceField(masses, g)
//	e0 := ff.Energy(x0)
package physics
