package sample

import (
	"testing"
	"time"

	"github.com/itohio/capmeter/pkg/capmeter"
	"github.com/itohio/capmeter/pkg/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertSample(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		raw  report.Reading
		want Sample
	}{
		{
			name: "picofarads",
			raw:  report.Reading{Picofarads: 100, Integer: 100, Unit: report.Pico},
			want: Sample{Timestamp: now, Capacitance: 100e-12},
		},
		{
			name: "microfarads fast",
			raw:  report.Reading{Picofarads: 4700000, Integer: 4, Fraction: 70, Unit: report.Micro, Fast: true},
			want: Sample{Timestamp: now, Capacitance: 4.7e-6, Fast: true},
		},
		{
			name: "out of range",
			raw:  report.Reading{Unit: report.Micro, Fast: true, OutOfRange: true},
			want: Sample{Timestamp: now, Fast: true, OutOfRange: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := convertSample(capmeter.RawSample{Timestamp: now, Reading: tt.raw})
			assert.Equal(t, tt.want.Timestamp, got.Timestamp)
			assert.InDelta(t, tt.want.Capacitance, got.Capacitance, 1e-18)
			assert.Equal(t, tt.want.Fast, got.Fast)
			assert.Equal(t, tt.want.OutOfRange, got.OutOfRange)
		})
	}
}

func TestNewConverter_ChannelProcessing(t *testing.T) {
	converter := NewConverter(10)
	in := make(chan capmeter.RawSample, 10)
	out := converter(in)

	now := time.Now()
	for _, pf := range []uint64{100, 1000, 12340} {
		r, err := report.Parse(report.Format(pf, false).Bytes())
		require.NoError(t, err)
		in <- capmeter.RawSample{Timestamp: now, Reading: r}
	}
	close(in)

	var got []float64
	for s := range out {
		got = append(got, s.Capacitance)
	}

	require.Len(t, got, 3)
	assert.InDelta(t, 100e-12, got[0], 1e-18)
	assert.InDelta(t, 1000e-12, got[1], 1e-18)
	assert.InDelta(t, 12340e-12, got[2], 1e-18)
}

func TestNewConverter_EmptyChannel(t *testing.T) {
	converter := NewConverter(0)
	in := make(chan capmeter.RawSample)
	out := converter(in)

	close(in)

	_, ok := <-out
	assert.False(t, ok, "Output channel should be closed")
}
