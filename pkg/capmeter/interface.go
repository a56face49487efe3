package capmeter

import (
	"time"

	"github.com/itohio/capmeter/pkg/report"
)

// RawSample is one record received from the meter.
type RawSample struct {
	Timestamp time.Time
	Reading   report.Reading
}

// Device defines the interface for capacitance meters (real or mocked).
type Device interface {
	Connect() error
	Close() error
	Samples() <-chan RawSample
	IsConnected() bool
}

var (
	_ Device = (*Serial)(nil)
	_ Device = (*Mock)(nil)
)
