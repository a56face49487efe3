package scope

import (
	"testing"
	"time"

	"github.com/itohio/capmeter/pkg/sample"
	"github.com/stretchr/testify/assert"
)

func TestFormatCapacitance(t *testing.T) {
	tests := []struct {
		farads float64
		want   string
	}{
		{0, "0 F"},
		{100e-12, "100.00 pF"},
		{999e-12, "999.00 pF"},
		{1e-9, "1.00 nF"},
		{47.5e-9, "47.50 nF"},
		{4.7e-6, "4.70 µF"},
		{2.2e-3, "2.20 mF"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCapacitance(tt.farads))
		})
	}
}

func TestFormatSample(t *testing.T) {
	assert.Equal(t, "100.00 pF", FormatSample(sample.Sample{Capacitance: 100e-12}))
	assert.Equal(t, "4.70 µF [L]", FormatSample(sample.Sample{Capacitance: 4.7e-6, Fast: true}))
	assert.Equal(t, "out of range [L]", FormatSample(sample.Sample{Fast: true, OutOfRange: true}))
}

func TestAutoScale(t *testing.T) {
	now := time.Now()
	window := 10 * time.Second

	t.Run("empty", func(t *testing.T) {
		yMin, yMax, xMin, xMax := autoScale(nil, window)
		assert.Equal(t, 0.0, yMin)
		assert.Equal(t, 1e-9, yMax)
		assert.Equal(t, window, xMax.Sub(xMin))
	})

	t.Run("margin and minimum window", func(t *testing.T) {
		samples := []sample.Sample{
			{Timestamp: now, Capacitance: 100e-12},
			{Timestamp: now.Add(time.Second), Capacitance: 200e-12},
			{Timestamp: now.Add(2 * time.Second), OutOfRange: true},
		}
		yMin, yMax, xMin, xMax := autoScale(samples, window)
		assert.InDelta(t, 90e-12, yMin, 1e-18)
		assert.InDelta(t, 210e-12, yMax, 1e-18)
		assert.Equal(t, now, xMin)
		assert.Equal(t, now.Add(window), xMax)
	})

	t.Run("flat trace", func(t *testing.T) {
		samples := []sample.Sample{
			{Timestamp: now, Capacitance: 1e-6},
			{Timestamp: now.Add(20 * time.Second), Capacitance: 1e-6},
		}
		yMin, yMax, _, xMax := autoScale(samples, window)
		assert.InDelta(t, 0.9e-6, yMin, 1e-15)
		assert.InDelta(t, 1.1e-6, yMax, 1e-15)
		assert.Equal(t, now.Add(20*time.Second), xMax)
	})

	t.Run("only overflow", func(t *testing.T) {
		samples := []sample.Sample{{Timestamp: now, OutOfRange: true}}
		yMin, yMax, _, _ := autoScale(samples, window)
		assert.Equal(t, 0.0, yMin)
		assert.InDelta(t, 1.1e-9, yMax, 1e-18)
	})
}

func TestPlotPos(t *testing.T) {
	now := time.Now()
	p := plot{x: 10, y: 20, w: 100, h: 50, yMin: 0, yMax: 1e-9, xMin: now, xMax: now.Add(10 * time.Second)}

	pos := p.pos(now, 0)
	assert.Equal(t, float32(10), pos.X)
	assert.Equal(t, float32(70), pos.Y)

	pos = p.pos(now.Add(5*time.Second), 1e-9)
	assert.InDelta(t, 60, pos.X, 1e-3)
	assert.InDelta(t, 20, pos.Y, 1e-3)
}
