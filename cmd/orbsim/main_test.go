package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricCell(t *testing.T) {
	values := map[string]float64{"energy_drift": 1.25e-9, "momentum_drift": 0}

	assert.Equal(t, "1.250e-09", metricCell(values, "energy_drift"))
	assert.Equal(t, "0.000e+00", metricCell(values, "momentum_drift"))
	// Metrics dropped as non-finite at save time have no entry.
	assert.Equal(t, "-", metricCell(values, "min_separation"))
	assert.Equal(t, "-", metricCell(nil, "energy_drift"))
}
