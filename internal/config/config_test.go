package config

import (
	"math"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/san-kum/orbsim/internal/dynamo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresetsValidate(t *testing.T) {
	for _, name := range ListPresets() {
		t.Run(name, func(t *testing.T) {
			cfg := GetPreset(name)
			require.NotNil(t, cfg)
			require.NoError(t, cfg.Validate())
			assert.Equal(t, name, cfg.Name)
			assert.Len(t, cfg.InitialState(), 6*len(cfg.Bodies))
		})
	}
}

func TestGetPresetReturnsCopy(t *testing.T) {
	a := GetPreset("binary")
	a.Bodies[0].Mass = 42
	b := GetPreset("binary")
	assert.Equal(t, 1.0, b.Bodies[0].Mass)
	assert.Nil(t, GetPreset("nope"))
}

func TestListPresetsSorted(t *testing.T) {
	names := ListPresets()
	assert.True(t, sort.StringsAreSorted(names))
	assert.Contains(t, names, "binary")
	assert.Contains(t, names, "figure8")
	assert.Contains(t, names, "cluster")
}

func TestBinaryInitialState(t *testing.T) {
	cfg := GetPreset("binary")
	v := math.Sqrt(0.5)
	want := dynamo.State{0, -v, 0, 0, v, 0, -0.5, 0, 0, 0.5, 0, 0}
	assert.Equal(t, want, cfg.InitialState())
	assert.Equal(t, []float64{1, 1}, cfg.Masses())
}

func TestIntegratorConfig(t *testing.T) {
	cfg := GetPreset("binary")
	cfg.MaxSteps = 10
	cfg.RestoreOnReject = true

	ic := cfg.IntegratorConfig()
	assert.Equal(t, 0.0, ic.T0)
	assert.Equal(t, 1.0, ic.TEnd)
	assert.Equal(t, 0.01, ic.Step)
	assert.Equal(t, 1e-8, ic.Tolerance)
	assert.Equal(t, 4.0, ic.UpperBound)
	assert.Equal(t, 0.1, ic.LowerBound)
	assert.Equal(t, 10, ic.MaxSteps)
	assert.True(t, ic.RestoreOnReject)
	assert.False(t, ic.ValidateState)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "figure8.yaml")
	orig := GetPreset("figure8")

	require.NoError(t, Save(path, orig))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, orig, loaded)
}

func TestLoadFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "min.yaml")
	doc := `name: pair
bodies:
  - mass: 2
    position: [1, 0, 0]
  - mass: 3
    velocity: [0, 1, 0]
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultG, cfg.G)
	assert.Equal(t, DefaultStep, cfg.Step)
	assert.Equal(t, DefaultTolerance, cfg.Tolerance)
	assert.Equal(t, []string{"body0", "body1"}, cfg.BodyNames())

	ff, err := cfg.ForceField()
	require.NoError(t, err)
	assert.Equal(t, 2, ff.NumBodies())
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("bodies: [oops"), 0644))
	_, err = Load(bad)
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("name: empty\n"), 0644))
	_, err = Load(empty)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		bounds bool
	}{
		{"no bodies", func(c *Config) { c.Bodies = nil }, false},
		{"zero mass", func(c *Config) { c.Bodies[1].Mass = 0 }, false},
		{"negative mass", func(c *Config) { c.Bodies[0].Mass = -1 }, false},
		{"infinite mass", func(c *Config) { c.Bodies[0].Mass = math.Inf(1) }, false},
		{"zero step", func(c *Config) { c.Step = 0 }, true},
		{"reversed interval", func(c *Config) { c.T0, c.TEnd = 2, 1 }, true},
		{"zero tolerance", func(c *Config) { c.Tolerance = 0 }, true},
		{"lower above upper", func(c *Config) { c.LowerBound, c.UpperBound = 2, 1 }, true},
		{"negative max steps", func(c *Config) { c.MaxSteps = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetPreset("binary")
			tt.mutate(cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, ErrInvalidConfig)
			if tt.bounds {
				assert.ErrorIs(t, err, dynamo.ErrParameterBounds)
			}
		})
	}
}
