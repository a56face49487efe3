package sample

import (
	"log"
	"time"

	"github.com/itohio/capmeter/pkg/capmeter"
)

// Sample represents a processed measurement with physical values.
type Sample struct {
	Timestamp   time.Time
	Capacitance float64 // Farads
	Fast        bool    // Measured through the fast path
	OutOfRange  bool    // Meter reported the overflow record; Capacitance is zero
}

// Converter is a function type that converts RawSample channel to Sample channel.
type Converter func(in <-chan capmeter.RawSample) <-chan Sample

// NewConverter creates a converter function that transforms RawSample to Sample.
func NewConverter(bufSize int) Converter {
	if bufSize <= 0 {
		bufSize = 100
	}

	return func(in <-chan capmeter.RawSample) <-chan Sample {
		out := make(chan Sample, bufSize)

		go func() {
			defer close(out)

			for raw := range in {
				select {
				case out <- convertSample(raw):
				case <-time.After(time.Second):
					log.Printf("Converter output channel full, dropping sample")
				}
			}
		}()

		return out
	}
}

// convertSample converts a RawSample to Sample.
func convertSample(raw capmeter.RawSample) Sample {
	s := Sample{
		Timestamp:  raw.Timestamp,
		Fast:       raw.Reading.Fast,
		OutOfRange: raw.Reading.OutOfRange,
	}
	if !s.OutOfRange {
		s.Capacitance = raw.Reading.Farads()
	}
	return s
}
