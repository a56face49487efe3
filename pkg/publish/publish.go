// Package publish forwards processed samples to external systems.
package publish

import (
	"log"
	"math"
	"time"

	"github.com/itohio/capmeter/pkg/sample"
)

// Sink receives every processed sample.
type Sink interface {
	Publish(s sample.Sample) error
	Close() error
}

// Fanout returns a pipeline stage that hands each sample to every sink and
// passes it on unchanged. Sink errors are logged and never stop the stage.
func Fanout(bufSize int, sinks ...Sink) func(in <-chan sample.Sample) <-chan sample.Sample {
	if bufSize <= 0 {
		bufSize = 100
	}

	return func(in <-chan sample.Sample) <-chan sample.Sample {
		out := make(chan sample.Sample, bufSize)

		go func() {
			defer close(out)

			for s := range in {
				for _, sink := range sinks {
					if err := sink.Publish(s); err != nil {
						log.Printf("Publish failed: %v", err)
					}
				}

				select {
				case out <- s:
				case <-time.After(time.Second):
					log.Printf("Fanout output channel full, dropping sample")
				}
			}
		}()

		return out
	}
}

// CloseAll closes every sink and returns the first error.
func CloseAll(sinks ...Sink) error {
	var first error
	for _, sink := range sinks {
		if err := sink.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// picofarads converts a sample to whole picofarads, saturating at the
// uint64 range.
func picofarads(s sample.Sample) uint64 {
	pf := math.Round(s.Capacitance * 1e12)
	switch {
	case pf <= 0:
		return 0
	case pf >= math.MaxUint64:
		return math.MaxUint64
	}
	return uint64(pf)
}
