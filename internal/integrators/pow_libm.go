//go:build libm && cgo

package integrators

/*
#cgo LDFLAGS: -lm
#include <math.h>
*/
import "C"

// pow calls the C library so step resizing rounds exactly like other libm
// based implementations.
func pow(x, y float64) float64 {
	return float64(C.pow(C.double(x), C.double(y)))
}
