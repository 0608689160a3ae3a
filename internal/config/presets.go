package config

import (
	"math"
	"sort"
)

// Figure-eight choreography (Chenciner & Montgomery), G = m = 1.
const (
	fig8X  = 0.97000436
	fig8Y  = 0.24308753
	fig8VX = 0.93240737
	fig8VY = 0.86473146
)

const fig8Period = 6.32591398

var Presets = map[string]func() *Config{
	"binary": binary,
	// The same binary over one full period.
	"binary-period": func() *Config {
		cfg := binary()
		cfg.Name = "binary-period"
		cfg.TEnd = math.Pi * math.Sqrt2
		return cfg
	},
	"figure8": func() *Config {
		return &Config{
			Name: "figure8", G: 1, T0: 0, TEnd: fig8Period,
			Step: 0.01, Tolerance: 1e-9, UpperBound: 5, LowerBound: 0.05,
			Bodies: []BodyConfig{
				{Name: "a", Mass: 1, Position: [3]float64{fig8X, -fig8Y, 0}, Velocity: [3]float64{fig8VX / 2, fig8VY / 2, 0}},
				{Name: "b", Mass: 1, Position: [3]float64{-fig8X, fig8Y, 0}, Velocity: [3]float64{fig8VX / 2, fig8VY / 2, 0}},
				{Name: "c", Mass: 1, Position: [3]float64{0, 0, 0}, Velocity: [3]float64{-fig8VX, -fig8VY, 0}},
			},
		}
	},
	// Three heavy bodies and two light ones in km / kg / s units.
	"cluster": func() *Config {
		return &Config{
			Name: "cluster", G: 6.67259e-20, T0: 0, TEnd: 150000,
			Step: 1, Tolerance: 1e-10, UpperBound: 10, LowerBound: 0.1,
			Bodies: []BodyConfig{
				{Name: "west", Mass: 1e29, Position: [3]float64{-300000, 0, 0}},
				{Name: "center", Mass: 1e29, Velocity: [3]float64{250, 250, 0}},
				{Name: "east", Mass: 1e29, Position: [3]float64{300000, 0, 0}},
				{Name: "rogue", Mass: 1e25, Position: [3]float64{-100000, -300000, 0}, Velocity: [3]float64{300, 300, 0}},
				{Name: "drifter", Mass: 1e25, Position: [3]float64{0, 6000000, 0}, Velocity: [3]float64{50, 0, 0}},
			},
		}
	},
}

// binary places equal unit masses one unit apart on a circular orbit and
// integrates over one time unit.
func binary() *Config {
	v := math.Sqrt(0.5)
	return &Config{
		Name: "binary", G: 1, T0: 0, TEnd: 1,
		Step: 0.01, Tolerance: 1e-8, UpperBound: 4, LowerBound: 0.1,
		Bodies: []BodyConfig{
			{Name: "a", Mass: 1, Position: [3]float64{-0.5, 0, 0}, Velocity: [3]float64{0, -v, 0}},
			{Name: "b", Mass: 1, Position: [3]float64{0.5, 0, 0}, Velocity: [3]float64{0, v, 0}},
		},
	}
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	return fn()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
