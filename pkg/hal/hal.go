// Package hal defines the narrow peripheral capabilities the measurement core
// consumes. Target specific code (firmware adapters, the simulator) implements
// them; the core never touches registers directly.
package hal

// Input identifies a signal that can be routed to a comparator terminal.
type Input uint8

const (
	InputRef Input = iota // reference voltage node
	InputCap              // capacitor under test
	InputGnd              // ground reference
)

func (i Input) String() string {
	switch i {
	case InputRef:
		return "ref"
	case InputCap:
		return "cap"
	case InputGnd:
		return "gnd"
	}
	return "unknown"
}

// Comparator reports whether the positive input is above the negative input.
type Comparator interface {
	// Select routes the two signals to the comparator terminals.
	Select(pos, neg Input)
	// Output returns the current comparator decision.
	Output() bool
}

// Pin identifies a GPIO pin.
type Pin uint8

// Direction is a GPIO drive direction.
type Direction uint8

const (
	DirIn Direction = iota
	DirOut
)

// GPIO controls the resistor path pins.
type GPIO interface {
	SetDirection(pin Pin, dir Direction)
	// DriveHigh sets the output latch. A pin configured as input floats.
	DriveHigh(pin Pin)
	// Release clears the output latch, pulling an output pin low.
	Release(pin Pin)
}

// TickSource delivers a periodic callback. The callback runs in interrupt
// context on hardware and must stay short.
type TickSource interface {
	Register(periodMs uint32, fn func()) error
}

// SubTicker reads the hardware counter behind the tick. The value counts down
// from 1000 to 0 within one tick period.
type SubTicker interface {
	RemainingMicros() uint32
}

// Sender transmits a fixed-length buffer.
type Sender interface {
	Send(b []byte) error
}
