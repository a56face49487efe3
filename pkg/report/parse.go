package report

import (
	"errors"
	"fmt"
)

var (
	// ErrLength is returned for records that are not 12 or 13 bytes long.
	ErrLength = errors.New("report: invalid length")
	// ErrSyntax is returned for records that do not follow the layout.
	ErrSyntax = errors.New("report: invalid syntax")
)

// Reading is a parsed record. Picofarads is quantised to the resolution of the
// record: 1 pF, 10 pF or 10 nF depending on the unit.
type Reading struct {
	Picofarads uint64
	Integer    uint16
	Fraction   uint8
	Unit       Unit
	Fast       bool
	OutOfRange bool
}

// Farads returns the reading in farads.
func (r Reading) Farads() float64 {
	return float64(r.Picofarads) * 1e-12
}

func (r Reading) String() string {
	mode := ""
	if r.Fast {
		mode = " L"
	}
	if r.OutOfRange {
		return fmt.Sprintf("E %cF%s", r.Unit, mode)
	}
	return fmt.Sprintf("%d.%02d %cF%s", r.Integer, r.Fraction, r.Unit, mode)
}

// Parse decodes one record. The trailing carriage return is optional so that
// callers splitting a stream on '\r' can pass the token directly.
func Parse(b []byte) (Reading, error) {
	switch len(b) {
	case Size:
		if b[Size-1] != '\r' {
			return Reading{}, fmt.Errorf("%w: missing terminator", ErrSyntax)
		}
	case Size - 1:
	default:
		return Reading{}, fmt.Errorf("%w: %d bytes", ErrLength, len(b))
	}

	var r Reading

	switch Unit(b[8]) {
	case Pico, Nano, Micro:
		r.Unit = Unit(b[8])
	default:
		return Reading{}, fmt.Errorf("%w: unit %q", ErrSyntax, b[8])
	}
	if b[7] != ' ' || b[9] != 'F' || b[10] != ' ' {
		return Reading{}, fmt.Errorf("%w: unit field %q", ErrSyntax, b[7:11])
	}
	switch b[11] {
	case fastMarker:
		r.Fast = true
	case ' ':
	default:
		return Reading{}, fmt.Errorf("%w: mode marker %q", ErrSyntax, b[11])
	}

	if [7]byte(b[:7]) == outOfRange {
		r.OutOfRange = true
		return r, nil
	}

	if b[4] != '.' {
		return Reading{}, fmt.Errorf("%w: decimal point %q", ErrSyntax, b[4])
	}

	var integer uint64
	leading := true
	for i := range 4 {
		c := b[i]
		switch {
		case c == ' ' && leading && i < 3:
		case c >= '0' && c <= '9':
			leading = false
			integer = integer*10 + uint64(c-'0')
		default:
			return Reading{}, fmt.Errorf("%w: integer digit %q at %d", ErrSyntax, c, i)
		}
	}

	var frac uint64
	for _, c := range b[5:7] {
		if c < '0' || c > '9' {
			return Reading{}, fmt.Errorf("%w: fraction digit %q", ErrSyntax, c)
		}
		frac = frac*10 + uint64(c-'0')
	}

	scale := r.Unit.Scale()
	r.Integer = uint16(integer)
	r.Fraction = uint8(frac)
	r.Picofarads = integer*scale + frac*scale/100
	return r, nil
}
