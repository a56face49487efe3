// Package meter runs the measurement control loop: charge, accumulate,
// discharge and, once per reporting interval, report and re-evaluate the mode.
package meter

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/itohio/capmeter/pkg/aggregate"
	"github.com/itohio/capmeter/pkg/charge"
	"github.com/itohio/capmeter/pkg/hal"
	"github.com/itohio/capmeter/pkg/mode"
	"github.com/itohio/capmeter/pkg/report"
	"github.com/itohio/capmeter/pkg/timebase"
)

// DefaultIntervalMs is the reporting interval.
const DefaultIntervalMs = 200

// Cycler runs one charge and one discharge phase.
type Cycler interface {
	Charge(m mode.Mode) charge.Sample
	Discharge()
}

var _ Cycler = (*charge.Controller)(nil)

// Config holds the loop constants.
type Config struct {
	IntervalMs uint32
	SamplesMax uint32
}

// DefaultConfig returns a 200 ms interval with the crossover sample ceiling.
func DefaultConfig() Config {
	return Config{
		IntervalMs: DefaultIntervalMs,
		SamplesMax: mode.SamplesMax,
	}
}

// Stats describes one emitted report.
type Stats struct {
	Mean     uint64    // picofarads
	Samples  uint32    // samples in the interval, timeouts included
	Timeouts uint32    // slow cycles aborted at the interval deadline
	Mode     mode.Mode // mode the interval was measured in
	Next     mode.Mode // mode selected for the next interval
	Report   report.Report
}

// Meter owns all loop state. Only the goroutine calling Step or Run may
// touch it; the timebase counter is the only state shared with the tick.
type Meter struct {
	cfg    Config
	cycler Cycler
	clock  timebase.Clock
	out    hal.Sender

	selector     *mode.Selector
	window       aggregate.Window
	lastReportMs uint32

	callbacks []func(Stats)
	cbMu      sync.RWMutex
}

// New creates a meter starting in slow mode. The first interval starts now.
func New(cycler Cycler, clock timebase.Clock, out hal.Sender, cfg Config) *Meter {
	if cfg.IntervalMs == 0 {
		cfg.IntervalMs = DefaultIntervalMs
	}
	return &Meter{
		cfg:          cfg,
		cycler:       cycler,
		clock:        clock,
		out:          out,
		selector:     mode.NewSelector(cfg.SamplesMax),
		lastReportMs: clock.Millis(),
	}
}

// Mode returns the mode of the next charge cycle.
func (m *Meter) Mode() mode.Mode {
	return m.selector.Mode()
}

// OnReport registers a callback invoked after every report.
func (m *Meter) OnReport(fn func(Stats)) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.callbacks = append(m.callbacks, fn)
}

// Run steps the loop until ctx is cancelled. Send failures are logged and the
// loop carries on.
func (m *Meter) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if _, _, err := m.Step(); err != nil {
			log.Printf("meter: %v", err)
		}
	}
}

// Step runs one measurement cycle. It returns the report stats and true when
// the cycle closed a reporting interval.
func (m *Meter) Step() (Stats, bool, error) {
	s := m.cycler.Charge(m.selector.Mode())
	if s.TimedOut {
		m.window.AddTimeout()
	} else {
		m.window.Add(mode.Scale(s.Mode, s.DurationUs))
	}

	m.cycler.Discharge()

	now := m.clock.Millis()
	if !m.due(now) {
		return Stats{}, false, nil
	}
	m.lastReportMs = now

	return m.report()
}

// due reports whether the interval elapsed. A last stamp in the future means
// the counter wrapped; report right away instead of waiting for a sane gap.
func (m *Meter) due(now uint32) bool {
	return now-m.lastReportMs > m.cfg.IntervalMs || m.lastReportMs > now
}

func (m *Meter) report() (Stats, bool, error) {
	st := Stats{
		Samples:  m.window.Count(),
		Timeouts: m.window.Timeouts(),
		Mode:     m.selector.Mode(),
	}

	mean, err := m.window.Drain()
	if err != nil {
		return Stats{}, false, err
	}
	st.Mean = mean
	st.Report = report.Format(mean, m.selector.Fast())

	sendErr := m.out.Send(st.Report.Bytes())

	st.Next = m.selector.Update(st.Samples)
	m.notify(st)

	if sendErr != nil {
		return st, true, fmt.Errorf("failed to send report: %w", sendErr)
	}
	return st, true, nil
}

func (m *Meter) notify(st Stats) {
	m.cbMu.RLock()
	callbacks := m.callbacks
	m.cbMu.RUnlock()

	for _, cb := range callbacks {
		cb(st)
	}
}
