package scope

import (
	"image/color"
	"math"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/itohio/capmeter/pkg/sample"
)

var (
	slowColor  = color.RGBA{R: 255, G: 165, B: 0, A: 255}   // Orange
	fastColor  = color.RGBA{R: 100, G: 200, B: 255, A: 255} // Light blue
	errorColor = color.RGBA{R: 220, G: 40, B: 40, A: 255}
	gridColor  = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	labelColor = color.RGBA{R: 150, G: 150, B: 150, A: 255}
)

// scopeRenderer renders the scope widget.
type scopeRenderer struct {
	scope *ScopeWidget

	// Background
	grid *canvas.Rectangle

	// Latest reading label
	readingLabel *canvas.Text

	// Objects list for Fyne
	objects []fyne.CanvasObject

	// Track last size to detect changes
	lastSize fyne.Size
}

// MinSize returns the minimum size of the widget.
func (r *scopeRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 300)
}

// Layout arranges the widget components.
func (r *scopeRenderer) Layout(size fyne.Size) {
	// Background fills entire widget
	r.grid.Resize(size)

	if r.lastSize.Width != size.Width || r.lastSize.Height != size.Height {
		r.lastSize = size
		r.scope.BaseWidget.Refresh()
	}
}

// Refresh updates the widget display.
func (r *scopeRenderer) Refresh() {
	r.scope.mu.RLock()
	samples := r.scope.displaySamples
	yMin := r.scope.yMin
	yMax := r.scope.yMax
	xMin := r.scope.xMin
	xMax := r.scope.xMax
	r.scope.mu.RUnlock()

	size := r.scope.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	// Clear old objects (but keep grid)
	r.objects = []fyne.CanvasObject{r.grid}
	r.readingLabel = nil

	marginLeft := float32(70.0)
	marginRight := float32(20.0)
	marginTop := float32(20.0)
	marginBottom := float32(40.0)

	p := plot{
		x:    marginLeft,
		y:    marginTop,
		w:    size.Width - marginLeft - marginRight,
		h:    size.Height - marginTop - marginBottom,
		yMin: yMin,
		yMax: yMax,
		xMin: xMin,
		xMax: xMax,
	}

	r.drawGrid(p)
	r.drawSamples(p, samples)

	if len(samples) > 0 {
		r.drawReading(p, samples[len(samples)-1])
	}
}

// plot maps sample space onto the drawing area.
type plot struct {
	x, y, w, h float32
	yMin, yMax float64
	xMin, xMax time.Time
}

func (p plot) pos(t time.Time, farads float64) fyne.Position {
	span := p.xMax.Sub(p.xMin).Seconds()
	fx := float32(0)
	if span > 0 {
		fx = float32(t.Sub(p.xMin).Seconds() / span)
	}
	fy := float32(0)
	if p.yMax > p.yMin {
		fy = float32((farads - p.yMin) / (p.yMax - p.yMin))
	}
	return fyne.NewPos(p.x+fx*p.w, p.y+p.h-fy*p.h)
}

// drawGrid draws the oscilloscope-style grid.
func (r *scopeRenderer) drawGrid(p plot) {
	// Horizontal grid lines (capacitance)
	numHLines := 8
	for i := range numHLines + 1 {
		y := p.y + float32(i)*p.h/float32(numHLines)
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(p.x, y)
		line.Position2 = fyne.NewPos(p.x+p.w, y)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)

		value := p.yMax - float64(i)*(p.yMax-p.yMin)/float64(numHLines)
		text := canvas.NewText(FormatCapacitance(value), labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignTrailing
		text.Move(fyne.NewPos(p.x-5, y-6))
		r.objects = append(r.objects, text)
	}

	// Vertical grid lines (time)
	numVLines := 10
	for i := range numVLines + 1 {
		x := p.x + float32(i)*p.w/float32(numVLines)
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(x, p.y)
		line.Position2 = fyne.NewPos(x, p.y+p.h)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)

		offset := time.Duration(float64(i) * float64(p.xMax.Sub(p.xMin)) / float64(numVLines))
		text := canvas.NewText(formatTime(offset), labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignCenter
		text.Move(fyne.NewPos(x-20, p.y+p.h+5))
		r.objects = append(r.objects, text)
	}
}

// drawSamples draws the capacitance curve. Segments ending in a fast mode
// sample are drawn in blue, overflow records as red vertical markers.
func (r *scopeRenderer) drawSamples(p plot, samples []sample.Sample) {
	var prev *fyne.Position
	for i := range samples {
		s := samples[i]
		if s.OutOfRange {
			top := p.pos(s.Timestamp, p.yMax)
			marker := canvas.NewLine(errorColor)
			marker.Position1 = top
			marker.Position2 = fyne.NewPos(top.X, p.y+p.h)
			marker.StrokeWidth = 1
			r.objects = append(r.objects, marker)
			prev = nil
			continue
		}

		pt := p.pos(s.Timestamp, s.Capacitance)
		if prev != nil {
			c := slowColor
			if s.Fast {
				c = fastColor
			}
			line := canvas.NewLine(c)
			line.Position1 = *prev
			line.Position2 = pt
			line.StrokeWidth = 1.5
			r.objects = append(r.objects, line)
		}
		prev = &pt
	}
}

// drawReading shows the latest reading in the top left corner.
func (r *scopeRenderer) drawReading(p plot, s sample.Sample) {
	text := canvas.NewText(FormatSample(s), color.RGBA{R: 200, G: 200, B: 200, A: 255})
	text.TextSize = 14
	text.TextStyle = fyne.TextStyle{Monospace: true}
	text.Alignment = fyne.TextAlignLeading
	text.Move(fyne.NewPos(p.x+10, p.y+10))
	r.readingLabel = text
	r.objects = append(r.objects, text)
}

// Objects returns all canvas objects for rendering.
func (r *scopeRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *scopeRenderer) Destroy() {
	// Cleanup handled by Fyne
}

// FormatCapacitance renders farads with an SI prefix and two decimals.
func FormatCapacitance(farads float64) string {
	abs := math.Abs(farads)
	switch {
	case abs == 0:
		return "0 F"
	case abs < 1e-9:
		return strconv.FormatFloat(farads*1e12, 'f', 2, 64) + " pF"
	case abs < 1e-6:
		return strconv.FormatFloat(farads*1e9, 'f', 2, 64) + " nF"
	case abs < 1e-3:
		return strconv.FormatFloat(farads*1e6, 'f', 2, 64) + " µF"
	}
	return strconv.FormatFloat(farads*1e3, 'f', 2, 64) + " mF"
}

// FormatSample renders a sample for display, marking fast mode readings.
func FormatSample(s sample.Sample) string {
	text := FormatCapacitance(s.Capacitance)
	if s.OutOfRange {
		text = "out of range"
	}
	if s.Fast {
		text += " [L]"
	}
	return text
}

func formatTime(d time.Duration) string {
	if d < time.Second {
		return strconv.FormatFloat(d.Seconds(), 'f', 2, 64) + "s"
	}
	return strconv.FormatFloat(d.Seconds(), 'f', 1, 64) + "s"
}
