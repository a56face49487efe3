package sample

import (
	"log"
	"time"
)

// NewAveragingConverter creates a stage computing a moving average over the
// last windowSize samples. One sample is emitted per input sample. Out of range
// samples pass through unchanged and restart the window.
func NewAveragingConverter(windowSize int, bufSize int) func(in <-chan Sample) <-chan Sample {
	if windowSize <= 0 {
		windowSize = 1 // No averaging if invalid
	}
	if bufSize <= 0 {
		bufSize = 100
	}

	return func(in <-chan Sample) <-chan Sample {
		out := make(chan Sample, bufSize)

		go func() {
			defer close(out)

			var buffer []Sample
			for s := range in {
				if s.OutOfRange {
					buffer = buffer[:0]
				} else {
					buffer = append(buffer, s)
					if len(buffer) > windowSize {
						buffer = buffer[1:] // Remove oldest
					}
					s = averageSamples(buffer)
				}

				select {
				case out <- s:
				case <-time.After(time.Second):
					log.Printf("Averaging converter output channel full")
				}
			}
		}()

		return out
	}
}

// averageSamples averages a slice of Samples.
// Uses the most recent sample's timestamp and mode.
func averageSamples(samples []Sample) Sample {
	if len(samples) == 0 {
		return Sample{}
	}

	var sum float64
	for _, s := range samples {
		sum += s.Capacitance
	}

	last := samples[len(samples)-1]
	return Sample{
		Timestamp:   last.Timestamp,
		Capacitance: sum / float64(len(samples)),
		Fast:        last.Fast,
	}
}
