// Package dynamo provides core simulation primitives for gravitational
// N-body integration.
//
// The package defines the fundamental types shared by the force evaluator
// and the integrator:
//
//   - [State]: flat vector of velocities followed by positions
//   - [System]: interface for right-hand sides (dX/dt = f(X, t))
//   - [Integrator]: drives a System from t0 to tEnd
//   - [Config]: step size, tolerance and step-size bounds for one run
//   - [Result]: recorded (time, state) series plus run statistics
//
// # Example
//
//	ff, _ := physics.NewForceField(masses, 1.0)
//	integ := integrators.NewFehlberg()
//	result, err := integ.Integrate(ctx, ff, x0, cfg)
//
// # Thread Safety
//
// None of the types in this package hold shared mutable state. A System or
// Integrator value may be reused across sequential runs; concurrent runs
// should use separate Integrator values.
package dynamo
