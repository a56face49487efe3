// Package charge drives the RC network through its discharge and charge
// phases and times the charge phase against the comparator.
package charge

import (
	"github.com/itohio/capmeter/pkg/hal"
	"github.com/itohio/capmeter/pkg/mode"
	"github.com/itohio/capmeter/pkg/timebase"
)

// Pins are the two resistor path pins.
type Pins struct {
	Fast hal.Pin // 220 Ω path
	Slow hal.Pin // 1 MΩ path
}

func (p Pins) path(m mode.Mode) (selected, other hal.Pin) {
	if m == mode.Fast {
		return p.Fast, p.Slow
	}
	return p.Slow, p.Fast
}

// Sample is one completed charge phase. DurationUs is raw, not scaled to
// picofarads. A timed out slow cycle carries a zero duration.
type Sample struct {
	DurationUs uint64
	Mode       mode.Mode
	TimedOut   bool
}

// Controller owns the comparator and resistor path pins.
type Controller struct {
	cmp       hal.Comparator
	gpio      hal.GPIO
	clock     timebase.Clock
	pins      Pins
	timeoutMs uint32
}

// New creates a controller. timeoutMs bounds slow charge phases and should be
// the reporting interval.
func New(cmp hal.Comparator, gpio hal.GPIO, clock timebase.Clock, pins Pins, timeoutMs uint32) *Controller {
	return &Controller{
		cmp:       cmp,
		gpio:      gpio,
		clock:     clock,
		pins:      pins,
		timeoutMs: timeoutMs,
	}
}

// Discharge pulls both paths low and waits for the capacitor to reach ground.
// There is no timeout: the discharge path always conducts, so only a very
// large capacitor makes this slow.
func (c *Controller) Discharge() {
	c.cmp.Select(hal.InputCap, hal.InputGnd)

	c.gpio.SetDirection(c.pins.Fast, hal.DirOut)
	c.gpio.SetDirection(c.pins.Slow, hal.DirOut)
	c.gpio.Release(c.pins.Fast)
	c.gpio.Release(c.pins.Slow)

	w := newWait(c.clock, c.clock.Millis(), 0, c.tripped)
	w.run()
}

// Charge charges through the path of m and returns the time until the
// capacitor crossed the reference. Slow phases give up after the timeout.
func (c *Controller) Charge(m mode.Mode) Sample {
	startMs := c.clock.Millis()

	c.cmp.Select(hal.InputRef, hal.InputCap)

	// Hold the other path as input so driving it high leaves it floating.
	selected, other := c.pins.path(m)
	c.gpio.SetDirection(other, hal.DirIn)
	c.gpio.SetDirection(selected, hal.DirOut)
	c.gpio.DriveHigh(c.pins.Fast)
	c.gpio.DriveHigh(c.pins.Slow)

	start := c.clock.Micros()

	var limit uint32
	if m == mode.Slow {
		limit = c.timeoutMs
	}
	w := newWait(c.clock, startMs, limit, c.tripped)
	if w.run() == waitExpired {
		return Sample{Mode: m, TimedOut: true}
	}

	stop := c.clock.Micros()
	return Sample{DurationUs: stop - start, Mode: m}
}

// tripped reports the comparator released: the capacitor fell to ground in
// discharge, or rose past the reference in charge.
func (c *Controller) tripped() bool {
	return !c.cmp.Output()
}
