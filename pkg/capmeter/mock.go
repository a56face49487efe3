package capmeter

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/itohio/capmeter/pkg/charge"
	"github.com/itohio/capmeter/pkg/config"
	"github.com/itohio/capmeter/pkg/meter"
	"github.com/itohio/capmeter/pkg/report"
	"github.com/itohio/capmeter/pkg/sim"
	"github.com/itohio/capmeter/pkg/timebase"
)

// Mock runs the measurement loop against a simulated front end. Reports are
// paced so that simulated time does not run ahead of the wall clock.
type Mock struct {
	cfg config.MockConfig

	samples   chan RawSample
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	connected bool

	circuit *sim.Circuit
	meter   *meter.Meter
	start   time.Time
}

// NewMock creates a new mocked device instance.
func NewMock(cfg *config.MockConfig) *Mock {
	if cfg == nil {
		cfg = &config.Default().Mock
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Mock{
		cfg:       *cfg,
		samples:   make(chan RawSample, DefaultBufferSize),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		connected: false,
	}
}

// Connect builds the simulated board and starts the measurement loop.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}
	if m.ctx.Err() != nil {
		return fmt.Errorf("device closed")
	}

	simCfg := circuitConfig(m.cfg)
	m.circuit = sim.New(simCfg)

	tb := timebase.New(m.circuit)
	if err := tb.Start(m.circuit); err != nil {
		return fmt.Errorf("failed to start mock timebase: %w", err)
	}

	ctrl := charge.New(m.circuit, m.circuit, tb,
		charge.Pins{Fast: simCfg.FastPin, Slow: simCfg.SlowPin},
		meter.DefaultIntervalMs)
	m.meter = meter.New(ctrl, tb, senderFunc(m.send), meter.DefaultConfig())

	m.start = time.Now()
	m.connected = true

	go func() {
		defer close(m.done)
		if err := m.meter.Run(m.ctx); err != nil && err != context.Canceled {
			log.Printf("Mock meter stopped: %v", err)
		}
	}()

	return nil
}

// Close stops the measurement loop and closes the samples channel.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil
	}

	m.cancel()
	<-m.done

	m.connected = false
	close(m.samples)

	return nil
}

// Samples returns the channel for reading samples.
func (m *Mock) Samples() <-chan RawSample {
	return m.samples
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// SetCapacitance swaps the simulated part. Takes effect on the next charge
// cycle when connected.
func (m *Mock) SetCapacitance(farads float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cfg.Capacitance = farads
	if m.circuit != nil {
		m.circuit.SetCapacitance(float32(farads))
	}
}

// Capacitance returns the simulated part value (F).
func (m *Mock) Capacitance() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.Capacitance
}

// send is the meter's UART. It is called from the loop goroutine only.
func (m *Mock) send(b []byte) error {
	if err := m.pace(); err != nil {
		return nil
	}

	reading, err := report.Parse(b)
	if err != nil {
		return fmt.Errorf("mock produced bad record %q: %w", b, err)
	}

	select {
	case m.samples <- RawSample{Timestamp: time.Now(), Reading: reading}:
	case <-m.ctx.Done():
	default:
		// Channel full, skip
	}
	return nil
}

// pace sleeps until the wall clock catches up with simulated time.
func (m *Mock) pace() error {
	ahead := m.circuit.Elapsed() - time.Since(m.start)
	if ahead <= 0 {
		return nil
	}

	timer := time.NewTimer(ahead)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-m.ctx.Done():
		return m.ctx.Err()
	}
}

func circuitConfig(cfg config.MockConfig) sim.Config {
	c := sim.DefaultConfig()
	if cfg.Capacitance > 0 {
		c.Capacitance = float32(cfg.Capacitance)
	}
	if cfg.SlowOhms > 0 {
		c.SlowOhms = float32(cfg.SlowOhms)
	}
	if cfg.FastOhms > 0 {
		c.FastOhms = float32(cfg.FastOhms)
	}
	if cfg.Supply > 0 {
		c.Supply = float32(cfg.Supply)
	}
	if cfg.RefRatio > 0 {
		c.RefRatio = float32(cfg.RefRatio)
	}
	if cfg.PollCost > 0 {
		c.PollCost = cfg.PollCost
	}
	return c
}

type senderFunc func(b []byte) error

func (f senderFunc) Send(b []byte) error { return f(b) }
