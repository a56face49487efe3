//go:build rp2040

//go:generate tinygo flash -target=pico

package main

import (
	"context"
	"time"

	"github.com/itohio/capmeter/pkg/charge"
	"github.com/itohio/capmeter/pkg/hal"
	"github.com/itohio/capmeter/pkg/meter"
	"github.com/itohio/capmeter/pkg/mode"
	"github.com/itohio/capmeter/pkg/timebase"
)

func main() {
	gpio := pinBank{}
	cmp := newSenseComparator(PIN_SENSE)

	out, err := newUARTSender()
	if err != nil {
		halt("uart: ", err)
	}

	tb := timebase.New(&tick)
	if err := tb.Start(&tick); err != nil {
		halt("timebase: ", err)
	}

	pins := charge.Pins{Fast: hal.Pin(PIN_FAST), Slow: hal.Pin(PIN_SLOW)}
	ctrl := charge.New(cmp, gpio, tb, pins, INTERVAL_MS)

	// Start from an empty capacitor with both paths sinking
	ctrl.Discharge()
	tb.Delay(SETTLE_MS)

	m := meter.New(ctrl, tb, out, meter.Config{
		IntervalMs: INTERVAL_MS,
		SamplesMax: mode.SamplesMax,
	})
	m.Run(context.Background())
}

// halt reports a fatal setup error on the console forever.
func halt(msg string, err error) {
	for {
		println(msg + err.Error())
		time.Sleep(time.Second)
	}
}
