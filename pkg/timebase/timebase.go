// Package timebase keeps a millisecond counter driven by a 1 kHz tick and
// derives microseconds from the hardware sub-tick counter at query time.
package timebase

import (
	"fmt"
	"sync/atomic"

	"github.com/itohio/capmeter/pkg/hal"
)

// TickPeriodMs is the period the timebase registers its tick at.
const TickPeriodMs = 1

// Clock is the read side of the timebase.
type Clock interface {
	Millis() uint32
	Micros() uint64
}

var _ Clock = (*Timebase)(nil)

// Timebase owns the millisecond counter. Tick is its only writer.
type Timebase struct {
	ms  atomic.Uint32
	sub hal.SubTicker
}

// New creates a timebase reading sub-tick time from sub.
func New(sub hal.SubTicker) *Timebase {
	return &Timebase{sub: sub}
}

// Start installs Tick as the periodic callback of src.
func (t *Timebase) Start(src hal.TickSource) error {
	if err := src.Register(TickPeriodMs, t.Tick); err != nil {
		return fmt.Errorf("failed to register tick: %w", err)
	}
	return nil
}

// Tick advances the counter by one millisecond.
func (t *Timebase) Tick() {
	t.ms.Add(1)
}

// Millis returns the milliseconds elapsed since start. Wraps at 2^32.
func (t *Timebase) Millis() uint32 {
	return t.ms.Load()
}

// Micros combines the millisecond counter with the sub-tick counter.
// A tick landing between the two reads skews the result by one period.
func (t *Timebase) Micros() uint64 {
	ms := uint64(t.ms.Load())
	return ms*1000 + 1000 - uint64(t.sub.RemainingMicros())
}

// Delay spins until the counter advanced by at least ms.
func (t *Timebase) Delay(ms uint32) {
	start := t.Millis()
	for Since(t, start) < ms {
	}
}

// Since returns the wrap-safe milliseconds elapsed on c since start.
func Since(c Clock, start uint32) uint32 {
	return c.Millis() - start
}
