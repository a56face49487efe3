package charge

import (
	"github.com/itohio/capmeter/pkg/hal"
)

// fakeClock is a microsecond counter advanced by the fake comparator.
type fakeClock struct {
	us uint64
}

func (c *fakeClock) Millis() uint32 { return uint32(c.us / 1000) }
func (c *fakeClock) Micros() uint64 { return c.us }

// fakeComparator reports "above" until the clock reaches tripAt. Every poll
// advances the clock by step microseconds.
type fakeComparator struct {
	clock  *fakeClock
	step   uint64
	tripAt uint64
	never  bool
	polls  int
	pos    hal.Input
	neg    hal.Input
}

func (f *fakeComparator) Select(pos, neg hal.Input) {
	f.pos, f.neg = pos, neg
}

func (f *fakeComparator) Output() bool {
	f.polls++
	f.clock.us += f.step
	if f.never {
		return true
	}
	return f.clock.us < f.tripAt
}

type gpioOp struct {
	op  string
	pin hal.Pin
	dir hal.Direction
}

type fakeGPIO struct {
	ops []gpioOp
}

func (g *fakeGPIO) SetDirection(pin hal.Pin, dir hal.Direction) {
	g.ops = append(g.ops, gpioOp{op: "dir", pin: pin, dir: dir})
}

func (g *fakeGPIO) DriveHigh(pin hal.Pin) {
	g.ops = append(g.ops, gpioOp{op: "high", pin: pin})
}

func (g *fakeGPIO) Release(pin hal.Pin) {
	g.ops = append(g.ops, gpioOp{op: "release", pin: pin})
}
