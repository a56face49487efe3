// Package aggregate accumulates picofarad samples over one reporting interval.
package aggregate

import "errors"

// ErrEmpty is returned by Drain when no sample was accumulated.
var ErrEmpty = errors.New("aggregate: no samples")

// Window is the running sum of one reporting interval.
// count == 0 implies sum == 0.
type Window struct {
	sum      uint64
	count    uint32
	timeouts uint32
}

// Add accumulates one sample.
func (w *Window) Add(pf uint64) {
	w.sum += pf
	w.count++
}

// AddTimeout counts an aborted charge cycle as a zero sample.
func (w *Window) AddTimeout() {
	w.count++
	w.timeouts++
}

// Count returns the number of samples in the window.
func (w *Window) Count() uint32 { return w.count }

// Sum returns the accumulated value.
func (w *Window) Sum() uint64 { return w.sum }

// Timeouts returns how many of the samples were timeouts.
func (w *Window) Timeouts() uint32 { return w.timeouts }

// Drain returns the truncated mean and resets the window.
func (w *Window) Drain() (uint64, error) {
	if w.count == 0 {
		return 0, ErrEmpty
	}
	mean := w.sum / uint64(w.count)
	w.Reset()
	return mean, nil
}

// Reset clears the window.
func (w *Window) Reset() {
	*w = Window{}
}
