//go:build !libm || !cgo

package integrators

import "math"

// pow is Go's math.Pow. It can differ from the C library in the last bit
// for some inputs; build with -tags libm to resize steps with libm pow.
func pow(x, y float64) float64 { return math.Pow(x, y) }
