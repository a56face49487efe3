package main

import (
	"log"

	"fyne.io/fyne/v2/widget"
	"github.com/itohio/capmeter/pkg/capmeter"
	"github.com/itohio/capmeter/pkg/scope"
)

// partPresets are the capacitors offered for the simulated meter. They cover
// slow mode, the mode boundary and the fast path up to its overflow.
var partPresets = []float64{
	10e-12,
	100e-12,
	1e-9,
	47e-9,
	100e-9,
	220e-9,
	1e-6,
	100e-6,
	4700e-6,
	22000e-6,
}

// createPartSelect creates the part selector shown when running the mock.
func createPartSelect(state *appState) *widget.Select {
	options := make([]string, len(partPresets))
	values := make(map[string]float64, len(partPresets))
	for i, f := range partPresets {
		options[i] = scope.FormatCapacitance(f)
		values[options[i]] = f
	}

	sel := widget.NewSelect(options, func(selected string) {
		f, ok := values[selected]
		if !ok {
			return
		}
		handlePartChange(state, f)
	})
	sel.SetSelected(scope.FormatCapacitance(state.cfg.Mock.Capacitance))
	return sel
}

// handlePartChange swaps the simulated capacitor. The value is kept in the
// configuration so the next connection starts with it.
func handlePartChange(state *appState, farads float64) {
	state.cfg.Mock.Capacitance = farads

	mock, ok := state.device.(*capmeter.Mock)
	if !ok || !mock.IsConnected() {
		return
	}
	mock.SetCapacitance(farads)
	log.Printf("Simulated part set to %s", scope.FormatCapacitance(farads))
}
