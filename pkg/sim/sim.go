// Package sim simulates the capacitance meter front end: two resistor paths
// charging a capacitor, a comparator against a reference ladder and the 1 kHz
// tick. Virtual time only advances when the comparator is polled, so a meter
// running on top of it behaves exactly like the busy-waiting firmware.
package sim

import (
	"fmt"
	"sync"
	"time"

	"github.com/chewxy/math32"
	"github.com/itohio/capmeter/pkg/hal"
)

var (
	_ hal.Comparator = (*Circuit)(nil)
	_ hal.GPIO       = (*Circuit)(nil)
	_ hal.TickSource = (*Circuit)(nil)
	_ hal.SubTicker  = (*Circuit)(nil)
)

// Config describes the simulated board.
type Config struct {
	Capacitance float32       // Capacitor under test (F)
	SlowOhms    float32       // Slow path resistor (Ω)
	FastOhms    float32       // Fast path resistor (Ω)
	Supply      float32       // Pin high level (V)
	RefRatio    float32       // Reference node as a fraction of Supply
	GndOffset   float32       // Comparator offset against ground (V)
	PollCost    time.Duration // Virtual time consumed by one comparator poll
	FastPin     hal.Pin
	SlowPin     hal.Pin
}

// DefaultConfig returns the reference board: 1 MΩ and 220 Ω paths and a
// reference at 1-1/e of the supply so that one RC time constant trips the
// comparator, giving 1 µs per pF on the slow path.
func DefaultConfig() Config {
	return Config{
		Capacitance: 100e-12,
		SlowOhms:    1e6,
		FastOhms:    220,
		Supply:      3.3,
		RefRatio:    1 - 1/math32.E,
		GndOffset:   0.005,
		PollCost:    250 * time.Nanosecond,
		FastPin:     2,
		SlowPin:     3,
	}
}

type pinState struct {
	pin  hal.Pin
	ohms float32
	dir  hal.Direction
	high bool
}

// Circuit is the simulated front end. It is safe to change the capacitance
// from another goroutine while a meter polls it.
type Circuit struct {
	mu  sync.Mutex
	cfg Config

	nowNs      uint64
	periodNs   uint64
	nextTickNs uint64
	tick       func()

	paths    [2]pinState
	pos, neg hal.Input

	// Current RC segment: v(t) = target + (v0-target)*exp(-(t-t0)/tau).
	t0Ns   uint64
	v0     float32
	target float32
	tauNs  float32 // zero when no path conducts
}

// New creates a circuit with a discharged capacitor and both paths floating.
func New(cfg Config) *Circuit {
	c := &Circuit{
		cfg: cfg,
		paths: [2]pinState{
			{pin: cfg.FastPin, ohms: cfg.FastOhms},
			{pin: cfg.SlowPin, ohms: cfg.SlowOhms},
		},
	}
	c.resegment()
	return c
}

// Register installs the periodic tick callback.
func (c *Circuit) Register(periodMs uint32, fn func()) error {
	if periodMs == 0 {
		return fmt.Errorf("sim: invalid tick period %d", periodMs)
	}
	if fn == nil {
		return fmt.Errorf("sim: nil tick callback")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.periodNs = uint64(periodMs) * uint64(time.Millisecond)
	c.nextTickNs = c.nowNs + c.periodNs
	c.tick = fn
	return nil
}

// RemainingMicros counts down from the period to zero within one tick.
func (c *Circuit) RemainingMicros() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tick == nil {
		return 1000
	}
	return uint32((c.nextTickNs - c.nowNs) / uint64(time.Microsecond))
}

// Select routes comparator inputs.
func (c *Circuit) Select(pos, neg hal.Input) {
	c.mu.Lock()
	c.pos, c.neg = pos, neg
	c.mu.Unlock()
}

// Output advances virtual time by one poll and compares the selected nodes.
func (c *Circuit) Output() bool {
	c.mu.Lock()
	c.advance(uint64(c.cfg.PollCost))
	out := c.node(c.pos) > c.node(c.neg)
	c.mu.Unlock()
	return out
}

// SetDirection switches a resistor path between driven and floating.
func (c *Circuit) SetDirection(pin hal.Pin, dir hal.Direction) {
	c.update(pin, func(p *pinState) { p.dir = dir })
}

// DriveHigh sets a path's output latch.
func (c *Circuit) DriveHigh(pin hal.Pin) {
	c.update(pin, func(p *pinState) { p.high = true })
}

// Release clears a path's output latch.
func (c *Circuit) Release(pin hal.Pin) {
	c.update(pin, func(p *pinState) { p.high = false })
}

// SetCapacitance swaps the part under test, keeping its current voltage.
func (c *Circuit) SetCapacitance(farads float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cfg.Capacitance = farads
	c.resegment()
}

// Capacitance returns the simulated part value (F).
func (c *Circuit) Capacitance() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.Capacitance
}

// Elapsed returns the virtual time since the circuit was created.
func (c *Circuit) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Duration(c.nowNs)
}

// Voltage returns the capacitor voltage at the current virtual time.
func (c *Circuit) Voltage() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.voltage()
}

func (c *Circuit) update(pin hal.Pin, fn func(p *pinState)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.paths {
		if c.paths[i].pin == pin {
			fn(&c.paths[i])
			c.resegment()
			return
		}
	}
}

func (c *Circuit) advance(d uint64) {
	c.nowNs += d
	for c.tick != nil && c.nowNs >= c.nextTickNs {
		c.nextTickNs += c.periodNs
		c.tick()
	}
}

func (c *Circuit) node(in hal.Input) float32 {
	switch in {
	case hal.InputRef:
		return c.cfg.RefRatio * c.cfg.Supply
	case hal.InputCap:
		return c.voltage()
	}
	return c.cfg.GndOffset
}

func (c *Circuit) voltage() float32 {
	if c.tauNs == 0 {
		return c.v0
	}
	dt := float32(c.nowNs - c.t0Ns)
	return c.target + (c.v0-c.target)*math32.Exp(-dt/c.tauNs)
}

// resegment starts a new RC segment from the present voltage using the
// Thevenin equivalent of every driven path.
func (c *Circuit) resegment() {
	v := c.voltage()

	var g, i float32
	for _, p := range c.paths {
		if p.dir != hal.DirOut || p.ohms <= 0 {
			continue
		}
		g += 1 / p.ohms
		if p.high {
			i += c.cfg.Supply / p.ohms
		}
	}

	c.t0Ns = c.nowNs
	c.v0 = v
	if g == 0 || c.cfg.Capacitance <= 0 {
		c.target = v
		c.tauNs = 0
		return
	}
	c.target = i / g
	c.tauNs = c.cfg.Capacitance / g * 1e9
}
