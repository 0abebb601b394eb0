package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurveScore(t *testing.T) {
	c := curve{
		points: []curvePoint{
			{x: 0, y: 0},
			{x: 10, y: 50},
			{x: 20, y: 100},
		},
	}

	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{"first breakpoint exact", 0, 0},
		{"middle breakpoint exact", 10, 50},
		{"last breakpoint exact", 20, 100},
		{"interpolated first segment", 5, 25},
		{"interpolated second segment", 15, 75},
		{"below table without tail clamps to edge", -5, 0},
		{"above table without tail clamps to edge", 30, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, c.score(tt.input), 1e-9)
		})
	}
}

func TestCurveTails(t *testing.T) {
	c := curve{
		points: []curvePoint{
			{x: 1, y: 90},
			{x: 2, y: 75},
		},
		below: func(x float64) float64 { return 90 + (1-x)*10 },
		above: func(x float64) float64 { return 75 - (x-2)*5 },
	}

	assert.InDelta(t, 95.0, c.score(0.5), 1e-9)
	assert.InDelta(t, 70.0, c.score(3), 1e-9)
	// Tail functions apply strictly outside the table
	assert.InDelta(t, 90.0, c.score(1), 1e-9)
	assert.InDelta(t, 75.0, c.score(2), 1e-9)
}

func TestCurveDecreasing(t *testing.T) {
	// A decreasing table must interpolate downward between breakpoints
	c := curve{
		points: []curvePoint{
			{x: 1, y: 90},
			{x: 2, y: 75},
		},
	}
	assert.InDelta(t, 82.5, c.score(1.5), 1e-9)
}
