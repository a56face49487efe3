package sample

import (
	"sync"
	"time"
)

// History keeps the samples of a sliding time window.
// Removal is based on timestamp, not number of samples.
type History struct {
	window  time.Duration
	samples []Sample // FIFO, oldest first

	mu sync.RWMutex

	callbacks []func(samples []Sample)
	cbMu      sync.RWMutex

	// Set when the input channel closes, prevents further callbacks
	shutdown bool
}

// NewHistory creates a history covering window. A zero window keeps
// everything.
func NewHistory(window time.Duration) *History {
	return &History{
		window:  window,
		samples: make([]Sample, 0),
	}
}

// ProcessSamples consumes input until it closes.
func (h *History) ProcessSamples(input <-chan Sample) {
	for s := range input {
		h.Add(s)
	}

	h.mu.Lock()
	h.shutdown = true
	h.mu.Unlock()
}

// Add appends s and drops samples older than the window relative to s.
func (h *History) Add(s Sample) {
	h.mu.Lock()
	h.samples = append(h.samples, s)

	drop := 0
	if h.window > 0 {
		cutoff := s.Timestamp.Add(-h.window)
		for drop < len(h.samples) && !h.samples[drop].Timestamp.After(cutoff) {
			drop++
		}
	}
	if drop > 0 {
		h.samples = append(h.samples[:0], h.samples[drop:]...)
	}

	notify := !h.shutdown
	h.mu.Unlock()

	if notify {
		h.notifyCallbacks()
	}
}

// Samples returns a copy of the window, oldest first.
func (h *History) Samples() []Sample {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Sample, len(h.samples))
	copy(out, h.samples)
	return out
}

// Latest returns the newest sample and false when the history is empty.
func (h *History) Latest() (Sample, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.samples) == 0 {
		return Sample{}, false
	}
	return h.samples[len(h.samples)-1], true
}

// SetWindow changes the window. Takes effect on the next Add.
func (h *History) SetWindow(window time.Duration) {
	h.mu.Lock()
	h.window = window
	h.mu.Unlock()
}

// ResetShutdown re-enables callbacks so the history can consume a new input.
func (h *History) ResetShutdown() {
	h.mu.Lock()
	h.shutdown = false
	h.mu.Unlock()
}

// Clear drops all samples.
func (h *History) Clear() {
	h.mu.Lock()
	h.samples = h.samples[:0]
	h.mu.Unlock()
}

// OnUpdate registers a callback invoked with a snapshot after every sample.
func (h *History) OnUpdate(fn func(samples []Sample)) {
	h.cbMu.Lock()
	defer h.cbMu.Unlock()
	h.callbacks = append(h.callbacks, fn)
}

func (h *History) notifyCallbacks() {
	h.cbMu.RLock()
	callbacks := h.callbacks
	h.cbMu.RUnlock()

	if len(callbacks) == 0 {
		return
	}

	snapshot := h.Samples()
	for _, cb := range callbacks {
		cb(snapshot)
	}
}
