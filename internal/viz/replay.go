package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/orbsim/internal/dynamo"
	"github.com/san-kum/orbsim/internal/physics"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	canvasWidth  = 60
	canvasHeight = 22
	chartWindow  = 120
	maxSpeed     = 64
	frameRate    = time.Second / 30
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Replay plays back a stored trajectory. It implements tea.Model.
type Replay struct {
	name     string
	bodies   []string
	res      *dynamo.Result
	n        int
	ff       *physics.ForceField
	energy   []float64
	canvas   *Canvas
	frame    Frame
	head     int
	speed    int
	running  bool
	theme    int
	st       styles
	showHelp bool
}

// NewReplay prepares playback of res. ff, when non-nil, supplies the
// energy history and conserved quantities shown beside the orbits.
func NewReplay(name string, res *dynamo.Result, bodies []string, ff *physics.ForceField) Replay {
	n := len(bodies)
	if n == 0 && res.Len() > 0 {
		n = res.States[0].Bodies()
	}

	r := Replay{
		name:    name,
		bodies:  bodies,
		res:     res,
		n:       n,
		ff:      ff,
		canvas:  NewCanvas(canvasWidth, canvasHeight),
		speed:   1,
		running: true,
		st:      newStyles(Themes[0]),
	}
	if minX, maxX, minY, maxY, ok := Bounds(res.States, n); ok {
		r.frame = FitFrame(r.canvas, minX, maxX, minY, maxY, 2)
	}
	if ff != nil && n == ff.NumBodies() {
		r.energy = make([]float64, res.Len())
		for i, x := range res.States {
			r.energy[i] = ff.Energy(x)
		}
	} else {
		r.ff = nil
	}
	return r
}

func (r Replay) Init() tea.Cmd { return tick() }

func (r Replay) last() int { return r.res.Len() - 1 }

// Update handles key presses and advances playback on every tick.
func (r Replay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return r, tea.Quit
		case " ":
			if !r.running && r.head >= r.last() {
				r.head = 0
			}
			r.running = !r.running
		case "right", "l", "]":
			r.running = false
			r.seek(r.head + 1)
		case "left", "h", "[":
			r.running = false
			r.seek(r.head - 1)
		case "home", "g":
			r.seek(0)
		case "end", "G":
			r.seek(r.last())
		case "+", "=":
			r.speed = min(r.speed*2, maxSpeed)
		case "-", "_":
			r.speed = max(r.speed/2, 1)
		case "r":
			r.seek(0)
			r.running = true
		case "t":
			r.theme = (r.theme + 1) % len(Themes)
			r.st = newStyles(Themes[r.theme])
		case "?":
			r.showHelp = !r.showHelp
		}
	case TickMsg:
		if r.running {
			r.seek(r.head + r.speed)
			if r.head >= r.last() {
				r.running = false
			}
		}
		return r, tick()
	}
	return r, nil
}

func (r *Replay) seek(i int) {
	r.head = max(0, min(i, r.last()))
}

func (r Replay) View() string {
	if r.res.Len() == 0 {
		return r.st.header.Render(strings.ToUpper(r.name)) + "\nno recorded points\n"
	}

	r.canvas.Clear()
	DrawOrbits(r.canvas, r.frame, r.res.States, r.n, r.head)
	canvasView := r.st.canvas.Render(r.canvas.String())

	status := "PLAYING"
	switch {
	case r.head >= r.last():
		status = "END"
	case !r.running:
		status = "PAUSED"
	}

	var s strings.Builder
	s.WriteString(r.st.header.Render(strings.ToUpper(r.name)) + "\n")
	s.WriteString(r.st.status.Render(status) + "\n")
	frac := 1.0
	if r.last() > 0 {
		frac = float64(r.head) / float64(r.last())
	}
	s.WriteString(ProgressBar(frac, 30) + "\n\n")

	s.WriteString(r.row("Time", fmt.Sprintf("%.6g", r.res.Times[r.head])))
	s.WriteString(r.row("Point", fmt.Sprintf("%d/%d", r.head+1, r.res.Len())))
	s.WriteString(r.row("Speed", fmt.Sprintf("x%d", r.speed)))
	if r.energy != nil {
		e, e0 := r.energy[r.head], r.energy[0]
		s.WriteString(r.row("Energy", fmt.Sprintf("%.8g", e)))
		if e0 != 0 {
			s.WriteString(r.row("Drift", fmt.Sprintf("%.3e", math.Abs(e-e0)/math.Abs(e0))))
		}
		x := r.res.States[r.head]
		com := r.ff.CenterOfMass(x)
		s.WriteString(r.row("CoM", fmt.Sprintf("(%.3g, %.3g, %.3g)", com.X, com.Y, com.Z)))
		s.WriteString(r.row("|L|", fmt.Sprintf("%.8g", r3.Norm(r.ff.AngularMomentum(x)))))
		if chart := r.energyChart(); chart != "" {
			s.WriteString(r.st.graph.Render(chart) + "\n")
		}
	}

	for i := 0; i < r.n && i < len(r.bodies); i++ {
		x := r.res.States[r.head]
		if len(x) < 6*r.n {
			break
		}
		off := 3*r.n + 3*i
		s.WriteString(r.row(r.bodies[i], fmt.Sprintf("(%.3g, %.3g)", x[off], x[off+1])))
	}

	s.WriteString(r.st.help.Render("SPC:Play/Pause ←→:Step +-:Speed\nR:Restart T:Theme ?:Help Q:Quit"))

	view := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, r.st.panel.Render(s.String()))
	if r.showHelp {
		return helpText + "\n" + view
	}
	return view
}

func (r Replay) row(label, value string) string {
	return r.st.label.Render(label) + r.st.value.Render(value) + "\n"
}

// energyChart plots the finite energies in the window ending at the head.
func (r Replay) energyChart() string {
	lo := max(0, r.head+1-chartWindow)
	data := make([]float64, 0, r.head+1-lo)
	for _, e := range r.energy[lo : r.head+1] {
		if finite(e) {
			data = append(data, e)
		}
	}
	if len(data) < 2 {
		return ""
	}
	return asciigraph.Plot(data, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy"))
}

const helpText = `  Space      play / pause
  ← → [ ]    step one point
  Home End   jump to start / end
  + -        double / halve speed
  R          restart
  T          cycle theme
  Q          quit
`
