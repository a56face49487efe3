package sample

import (
	"testing"
	"time"

	"github.com/itohio/capmeter/pkg/capmeter"
	"github.com/itohio/capmeter/pkg/report"
	"github.com/stretchr/testify/assert"
)

// TestConverter_GracefulShutdown tests that converter closes output channel
// when input channel is closed.
func TestConverter_GracefulShutdown(t *testing.T) {
	converter := NewConverter(10)
	input := make(chan capmeter.RawSample, 10)
	output := converter(input)

	received := make(chan int, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		count := 0
		for range output {
			count++
		}
		received <- count
	}()

	now := time.Now()
	numSamples := 3
	for i := 0; i < numSamples; i++ {
		input <- capmeter.RawSample{
			Timestamp: now.Add(time.Duration(i) * 200 * time.Millisecond),
			Reading:   report.Reading{Picofarads: 100, Integer: 100, Unit: report.Pico},
		}
	}

	// Close input channel - this should cause converter to close output
	close(input)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Output channel did not close within timeout")
	}

	select {
	case count := <-received:
		assert.Equal(t, numSamples, count, "Should receive all samples before channel closes")
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Did not receive sample count")
	}
}

// TestAveragingConverter_GracefulShutdown tests that averaging converter
// closes output channel when input channel is closed.
func TestAveragingConverter_GracefulShutdown(t *testing.T) {
	converter := NewAveragingConverter(3, 10)
	input := make(chan Sample, 10)
	output := converter(input)

	received := make(chan int, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		count := 0
		for range output {
			count++
		}
		received <- count
	}()

	now := time.Now()
	numSamples := 5
	for i := 0; i < numSamples; i++ {
		input <- Sample{
			Timestamp:   now.Add(time.Duration(i) * 200 * time.Millisecond),
			Capacitance: float64(i) * 1e-9,
		}
	}

	close(input)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Output channel did not close within timeout")
	}

	select {
	case count := <-received:
		assert.Equal(t, numSamples, count, "One averaged sample per input")
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Did not receive sample count")
	}
}

// TestHistory_GracefulShutdown tests that the history stops notifying once
// its input closes.
func TestHistory_GracefulShutdown(t *testing.T) {
	h := NewHistory(time.Minute)

	calls := 0
	h.OnUpdate(func([]Sample) { calls++ })

	input := make(chan Sample, 2)
	input <- Sample{Timestamp: time.Now(), Capacitance: 1e-9}
	close(input)

	h.ProcessSamples(input)
	assert.Equal(t, 1, calls)

	h.Add(Sample{Timestamp: time.Now(), Capacitance: 2e-9})
	assert.Equal(t, 1, calls, "No callbacks after shutdown")
	assert.Len(t, h.Samples(), 2)

	h.ResetShutdown()
	h.Add(Sample{Timestamp: time.Now(), Capacitance: 3e-9})
	assert.Equal(t, 2, calls, "Callbacks resume after reset")
}
