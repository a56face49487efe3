package meter

import (
	"github.com/itohio/capmeter/pkg/charge"
	"github.com/itohio/capmeter/pkg/mode"
)

type fakeClock struct {
	us uint64
}

func (c *fakeClock) Millis() uint32 { return uint32(c.us / 1000) }
func (c *fakeClock) Micros() uint64 { return c.us }

// scriptedCycler replays durations and advances the clock by cycleUs per
// charge. Once the script runs out it repeats the last entry.
type scriptedCycler struct {
	clock      *fakeClock
	cycleUs    uint64
	durations  []uint64
	timeouts   []bool
	modes      []mode.Mode
	discharges int
}

func (c *scriptedCycler) Charge(m mode.Mode) charge.Sample {
	i := len(c.modes)
	c.modes = append(c.modes, m)
	c.clock.us += c.cycleUs

	if i < len(c.timeouts) && c.timeouts[i] {
		return charge.Sample{Mode: m, TimedOut: true}
	}
	d := c.durations[len(c.durations)-1]
	if i < len(c.durations) {
		d = c.durations[i]
	}
	return charge.Sample{DurationUs: d, Mode: m}
}

func (c *scriptedCycler) Discharge() {
	c.discharges++
}

type recordingSender struct {
	sent [][]byte
	err  error
}

func (s *recordingSender) Send(b []byte) error {
	buf := make([]byte, len(b))
	copy(buf, b)
	s.sent = append(s.sent, buf)
	return s.err
}
