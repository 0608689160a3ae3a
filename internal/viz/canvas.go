package viz

import (
	"math"
	"strings"
)

// Braille cells hold 2x4 dots:
// 1 4
// 2 5
// 3 6
// 7 8
const blank = 0x2800

var dotBits = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a grid of braille cells addressed in dot coordinates. A canvas
// of Width x Height cells has (2*Width) x (4*Height) dots.
type Canvas struct {
	Width, Height int
	cells         [][]rune
}

func NewCanvas(w, h int) *Canvas {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	c := &Canvas{Width: w, Height: h, cells: make([][]rune, h)}
	for i := range c.cells {
		c.cells[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Dots returns the canvas size in dots.
func (c *Canvas) Dots() (int, int) { return 2 * c.Width, 4 * c.Height }

func (c *Canvas) cell(x, y int) (*rune, rune, bool) {
	if x < 0 || y < 0 {
		return nil, 0, false
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return nil, 0, false
	}
	return &c.cells[row][col], dotBits[y%4][x%2], true
}

// Set turns on the dot at (x, y). Out-of-range dots are ignored.
func (c *Canvas) Set(x, y int) {
	if p, bit, ok := c.cell(x, y); ok {
		*p |= bit
	}
}

// IsSet reports whether the dot at (x, y) is on.
func (c *Canvas) IsSet(x, y int) bool {
	p, bit, ok := c.cell(x, y)
	return ok && *p&bit != 0
}

func (c *Canvas) Clear() {
	for _, row := range c.cells {
		for j := range row {
			row[j] = blank
		}
	}
}

// Line draws from (x0, y0) to (x1, y1) with Bresenham's algorithm.
func (c *Canvas) Line(x0, y0, x1, y1 int) {
	dx, dy := absInt(x1-x0), absInt(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx - dy
	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 > -dy {
			e -= dy
			x0 += sx
		}
		if e2 < dx {
			e += dx
			y0 += sy
		}
	}
}

// Disc fills a square of side 2r+1 centred on (x, y).
func (c *Canvas) Disc(x, y, r int) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			c.Set(x+dx, y+dy)
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	b.Grow(c.Height * (c.Width*3 + 1))
	for _, row := range c.cells {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

// Frame maps world x-y coordinates onto canvas dots with a uniform scale,
// y pointing up.
type Frame struct {
	minX, minY float64
	scale      float64
	offX, offY float64
	dotsW      int
	dotsH      int
}

// FitFrame returns the frame that fits the box [minX,maxX]x[minY,maxY]
// into a canvas, keeping aspect and leaving a margin of pad dots.
func FitFrame(c *Canvas, minX, maxX, minY, maxY float64, pad int) Frame {
	w, h := c.Dots()
	f := Frame{minX: minX, minY: minY, dotsW: w, dotsH: h}
	usableW, usableH := float64(w-1-2*pad), float64(h-1-2*pad)
	if usableW < 1 {
		usableW = 1
	}
	if usableH < 1 {
		usableH = 1
	}

	spanX, spanY := maxX-minX, maxY-minY
	switch {
	case spanX <= 0 && spanY <= 0:
		f.scale = 1
	case spanX <= 0:
		f.scale = usableH / spanY
	case spanY <= 0:
		f.scale = usableW / spanX
	default:
		f.scale = math.Min(usableW/spanX, usableH/spanY)
	}

	f.offX = float64(pad) + (usableW-spanX*f.scale)/2
	f.offY = float64(pad) + (usableH-spanY*f.scale)/2
	return f
}

// Project returns the dot for world point (x, y).
func (f Frame) Project(x, y float64) (int, int) {
	px := f.offX + (x-f.minX)*f.scale
	py := float64(f.dotsH-1) - (f.offY + (y-f.minY)*f.scale)
	return int(math.Round(px)), int(math.Round(py))
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
