package viz

import (
	"math"

	"github.com/san-kum/orbsim/internal/dynamo"
	"github.com/san-kum/orbsim/internal/physics"
)

// Bounds is the x-y box covered by every body over a trajectory. Non-finite
// positions are skipped; ok is false when nothing finite was seen.
func Bounds(states []dynamo.State, n int) (minX, maxX, minY, maxY float64, ok bool) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, x := range states {
		if len(x) < 6*n {
			continue
		}
		for i := 0; i < n; i++ {
			p := physics.Position(x, i)
			if !finite(p.X) || !finite(p.Y) {
				continue
			}
			minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
			minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
			ok = true
		}
	}
	return minX, maxX, minY, maxY, ok
}

// DrawOrbits traces each of the n bodies through states[:upto+1] onto c
// and marks its position at states[upto].
func DrawOrbits(c *Canvas, f Frame, states []dynamo.State, n, upto int) {
	if upto >= len(states) {
		upto = len(states) - 1
	}
	for i := 0; i < n; i++ {
		var (
			px, py int
			have   bool
		)
		for k := 0; k <= upto; k++ {
			if len(states[k]) < 6*n {
				have = false
				continue
			}
			p := physics.Position(states[k], i)
			if !finite(p.X) || !finite(p.Y) {
				have = false
				continue
			}
			x, y := f.Project(p.X, p.Y)
			if have {
				c.Line(px, py, x, y)
			} else {
				c.Set(x, y)
			}
			px, py, have = x, y, true
		}
		if have {
			c.Disc(px, py, 1)
		}
	}
}

// RenderOrbits draws the x-y projection of every body's path on a w x h
// braille canvas.
func RenderOrbits(states []dynamo.State, n, w, h int) string {
	c := NewCanvas(w, h)
	minX, maxX, minY, maxY, ok := Bounds(states, n)
	if !ok {
		return c.String()
	}
	f := FitFrame(c, minX, maxX, minY, maxY, 2)
	DrawOrbits(c, f, states, n, len(states)-1)
	return c.String()
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
