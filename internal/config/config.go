package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/san-kum/orbsim/internal/dynamo"
	"github.com/san-kum/orbsim/internal/physics"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

const (
	DefaultStep       = 0.01
	DefaultTolerance  = 1e-8
	DefaultUpperBound = 4.0
	DefaultLowerBound = 0.1
	DefaultG          = 1.0
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Name            string       `yaml:"name"`
	G               float64      `yaml:"g"`
	T0              float64      `yaml:"t0"`
	TEnd            float64      `yaml:"t_end"`
	Step            float64      `yaml:"step"`
	Tolerance       float64      `yaml:"tolerance"`
	UpperBound      float64      `yaml:"upper_bound"`
	LowerBound      float64      `yaml:"lower_bound"`
	MaxSteps        int          `yaml:"max_steps,omitempty"`
	RestoreOnReject bool         `yaml:"restore_on_reject,omitempty"`
	ValidateState   bool         `yaml:"validate_state,omitempty"`
	Bodies          []BodyConfig `yaml:"bodies"`
}

type BodyConfig struct {
	Name     string     `yaml:"name,omitempty"`
	Mass     float64    `yaml:"mass"`
	Position [3]float64 `yaml:"position,flow"`
	Velocity [3]float64 `yaml:"velocity,flow"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:       "custom",
		G:          DefaultG,
		T0:         0,
		TEnd:       1,
		Step:       DefaultStep,
		Tolerance:  DefaultTolerance,
		UpperBound: DefaultUpperBound,
		LowerBound: DefaultLowerBound,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the bodies and the integration parameters.
func (c *Config) Validate() error {
	if len(c.Bodies) == 0 {
		return fmt.Errorf("%w: no bodies", ErrInvalidConfig)
	}
	for i, b := range c.Bodies {
		if !(b.Mass > 0) || math.IsInf(b.Mass, 0) {
			return fmt.Errorf("%w: body %d (%s) has mass %g", ErrInvalidConfig, i, b.Name, b.Mass)
		}
	}
	if err := c.IntegratorConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Masses returns the body masses in order.
func (c *Config) Masses() []float64 {
	m := make([]float64, len(c.Bodies))
	for i, b := range c.Bodies {
		m[i] = b.Mass
	}
	return m
}

// InitialState packs the bodies into the velocities-then-positions layout.
func (c *Config) InitialState() dynamo.State {
	bodies := make([]physics.Body, len(c.Bodies))
	for i, b := range c.Bodies {
		bodies[i] = physics.Body{
			Mass:     b.Mass,
			Position: r3.Vec{X: b.Position[0], Y: b.Position[1], Z: b.Position[2]},
			Velocity: r3.Vec{X: b.Velocity[0], Y: b.Velocity[1], Z: b.Velocity[2]},
		}
	}
	x, _ := physics.Pack(bodies)
	return x
}

func (c *Config) IntegratorConfig() dynamo.Config {
	return dynamo.Config{
		T0:              c.T0,
		TEnd:            c.TEnd,
		Step:            c.Step,
		Tolerance:       c.Tolerance,
		UpperBound:      c.UpperBound,
		LowerBound:      c.LowerBound,
		MaxSteps:        c.MaxSteps,
		RestoreOnReject: c.RestoreOnReject,
		ValidateState:   c.ValidateState,
	}
}

// ForceField builds the gravitational system for the configured bodies.
func (c *Config) ForceField() (*physics.ForceField, error) {
	return physics.NewForceField(c.Masses(), c.G)
}

// BodyNames returns display names, falling back to body<i>.
func (c *Config) BodyNames() []string {
	names := make([]string, len(c.Bodies))
	for i, b := range c.Bodies {
		names[i] = b.Name
		if names[i] == "" {
			names[i] = fmt.Sprintf("body%d", i)
		}
	}
	return names
}
