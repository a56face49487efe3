package scope

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/capmeter/pkg/config"
	"github.com/itohio/capmeter/pkg/sample"
)

// ScopeWidget is a custom Fyne widget plotting capacitance over time.
type ScopeWidget struct {
	widget.BaseWidget

	cfg *config.Config

	// Data (protected by mu)
	mu      sync.RWMutex
	samples []sample.Sample

	// Display buffer (reused for downsampling)
	displaySamples []sample.Sample

	// Auto-scaling
	yMin, yMax float64 // Farads
	xMin, xMax time.Time

	// Display settings
	maxDisplayPoints int
}

// New creates a new ScopeWidget instance.
func New(cfg *config.Config) *ScopeWidget {
	s := &ScopeWidget{
		cfg:              cfg,
		samples:          make([]sample.Sample, 0),
		displaySamples:   make([]sample.Sample, 0, 1000),
		maxDisplayPoints: 1000, // Limit points for efficient rendering
	}
	s.ExtendBaseWidget(s)
	// Trigger initial refresh to display empty scope
	s.Refresh()
	return s
}

// UpdateData updates the widget with the current history window.
// This should be called from the history callback using fyne.Do().
func (s *ScopeWidget) UpdateData(samples []sample.Sample) {
	s.mu.Lock()

	s.displaySamples = sample.Downsample(s.displaySamples, samples, s.maxDisplayPoints)
	s.samples = samples

	window := time.Duration(s.cfg.Measurement.WindowSeconds * float64(time.Second))
	s.yMin, s.yMax, s.xMin, s.xMax = autoScale(s.displaySamples, window)

	s.mu.Unlock()

	// Refresh the widget (must be outside lock to avoid potential deadlock)
	s.Refresh()
}

// autoScale calculates the plot range. Out of range samples carry no value
// and are ignored for the Y range.
func autoScale(samples []sample.Sample, window time.Duration) (yMin, yMax float64, xMin, xMax time.Time) {
	if len(samples) == 0 {
		now := time.Now()
		return 0, 1e-9, now, now.Add(window)
	}

	first := true
	for _, s := range samples {
		if s.OutOfRange {
			continue
		}
		if first || s.Capacitance < yMin {
			yMin = s.Capacitance
		}
		if first || s.Capacitance > yMax {
			yMax = s.Capacitance
		}
		first = false
	}
	if first {
		yMin, yMax = 0, 1e-9
	}

	// Add 10% margin
	span := yMax - yMin
	if span == 0 {
		span = yMax
		if span == 0 {
			span = 1e-12
		}
	}
	margin := span * 0.1
	yMin -= margin
	yMax += margin
	if yMin < 0 {
		yMin = 0
	}

	xMin = samples[0].Timestamp
	xMax = samples[len(samples)-1].Timestamp
	// Ensure minimum window
	if xMax.Sub(xMin) < window {
		xMax = xMin.Add(window)
	}
	return yMin, yMax, xMin, xMax
}

// CreateRenderer creates the widget renderer.
func (s *ScopeWidget) CreateRenderer() fyne.WidgetRenderer {
	grid := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255}) // Dark background
	return &scopeRenderer{
		scope:    s,
		grid:     grid,
		objects:  []fyne.CanvasObject{grid},
		lastSize: fyne.Size{Width: 0, Height: 0},
	}
}
