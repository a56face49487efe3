// Package mode selects between the slow (1 MΩ) and fast (220 Ω) charge paths.
package mode

// Mode is the resistor path used for a charge cycle.
type Mode uint8

const (
	Slow Mode = iota // high resistance, 1 µs per pF
	Fast             // low resistance, scaled by ResFRatio
)

func (m Mode) String() string {
	if m == Fast {
		return "fast"
	}
	return "slow"
}

const (
	// ResFRatio converts fast path microseconds to picofarads (1M/220, rounded up).
	ResFRatio = 1000000/220 + 1

	// SamplesMax is the number of fast cycles that fit in one 200 ms interval
	// at the fast/slow crossover (200 nF, 44 µs per cycle).
	SamplesMax = ResFRatio
)

// Scale converts a charge duration measured in m into picofarads.
func Scale(m Mode, us uint64) uint64 {
	if m == Fast {
		return us * ResFRatio
	}
	return us
}

// Selector holds the mode across reporting intervals.
type Selector struct {
	mode Mode
	max  uint32
}

// NewSelector starts in slow mode. max is the sample ceiling above which the
// selector falls back to slow mode; zero means SamplesMax.
func NewSelector(max uint32) *Selector {
	if max == 0 {
		max = SamplesMax
	}
	return &Selector{mode: Slow, max: max}
}

// Mode returns the mode for the next charge cycle.
func (s *Selector) Mode() Mode {
	return s.mode
}

// Fast reports whether the fast path is selected.
func (s *Selector) Fast() bool {
	return s.mode == Fast
}

// Update applies the transition rule to the sample count of the interval that
// just ended. A single sample means the slow path saturated; more than max
// samples means the part is small enough for the slow path.
func (s *Selector) Update(samples uint32) Mode {
	switch {
	case samples == 1:
		s.mode = Fast
	case samples > s.max:
		s.mode = Slow
	}
	return s.mode
}
