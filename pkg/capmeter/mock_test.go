package capmeter

import (
	"testing"
	"time"

	"github.com/itohio/capmeter/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nextSample(t *testing.T, samples <-chan RawSample) RawSample {
	t.Helper()
	select {
	case s, ok := <-samples:
		require.True(t, ok, "samples channel closed")
		return s
	case <-time.After(5 * time.Second):
		t.Fatal("no sample within timeout")
	}
	return RawSample{}
}

func TestNewMock(t *testing.T) {
	cfg := config.Default().Mock
	cfg.Capacitance = 4.7e-9

	dev := NewMock(&cfg)
	assert.NotNil(t, dev)
	assert.Equal(t, 4.7e-9, dev.Capacitance())
	assert.NotNil(t, dev.samples)
	assert.False(t, dev.IsConnected())
}

func TestNewMock_NilConfig(t *testing.T) {
	dev := NewMock(nil)
	assert.Equal(t, config.Default().Mock.Capacitance, dev.Capacitance())
}

func TestCircuitConfig(t *testing.T) {
	cfg := config.MockConfig{
		Capacitance: 1e-6,
		FastOhms:    100,
		PollCost:    time.Microsecond,
	}

	c := circuitConfig(cfg)
	assert.Equal(t, float32(1e-6), c.Capacitance)
	assert.Equal(t, float32(100), c.FastOhms)
	assert.Equal(t, float32(1e6), c.SlowOhms) // default
	assert.Equal(t, time.Microsecond, c.PollCost)
}

func TestMock_Samples(t *testing.T) {
	cfg := config.Default().Mock
	cfg.Capacitance = 1e-9

	dev := NewMock(&cfg)
	require.NoError(t, dev.Connect())
	defer dev.Close()

	assert.True(t, dev.IsConnected())
	assert.Error(t, dev.Connect())

	s := nextSample(t, dev.Samples())
	assert.False(t, s.Reading.Fast)
	assert.False(t, s.Reading.OutOfRange)
	assert.InDelta(t, 1000, float64(s.Reading.Picofarads), 20)
	assert.InDelta(t, 1e-9, s.Reading.Farads(), 0.02e-9)
}

func TestMock_SetCapacitance(t *testing.T) {
	cfg := config.Default().Mock
	cfg.Capacitance = 1e-9

	dev := NewMock(&cfg)
	require.NoError(t, dev.Connect())
	defer dev.Close()

	nextSample(t, dev.Samples())

	dev.SetCapacitance(220e-12)
	assert.Equal(t, 220e-12, dev.Capacitance())

	// The interval in flight may mix both parts; the one after it may not.
	nextSample(t, dev.Samples())
	s := nextSample(t, dev.Samples())
	assert.InDelta(t, 220, float64(s.Reading.Picofarads), 5)
}

func TestMock_ReconnectAfterClose(t *testing.T) {
	dev := NewMock(nil)
	require.NoError(t, dev.Connect())
	require.NoError(t, dev.Close())
	assert.Error(t, dev.Connect())
}
