// Package report builds and parses the fixed-width ASCII record the meter
// sends once per reporting interval:
//
//	[d][d][d][d].[d][d] {u|n|p}F [L| ]\r
//
// The formatter only uses single digit extraction so it stays cheap on the MCU.
package report

// Size is the length of one record including the trailing carriage return.
const Size = 13

// Unit is the SI prefix letter of a record.
type Unit byte

const (
	Pico  Unit = 'p'
	Nano  Unit = 'n'
	Micro Unit = 'u'
)

// Scale returns the number of picofarads in one unit.
func (u Unit) Scale() uint64 {
	switch u {
	case Nano:
		return 1000
	case Micro:
		return 1000000
	}
	return 1
}

const (
	fastMarker = 'L'
	// Integer part above this does not fit the four digit field.
	maxInteger = 9999
)

// outOfRange replaces the seven character value field when the value does not
// fit; the decimal point stays in place.
var outOfRange = [7]byte{' ', 'E', ' ', ' ', '.', '.', '.'}

// Report is one formatted record.
type Report [Size]byte

// Bytes returns the record as a slice.
func (r Report) Bytes() []byte { return r[:] }

func (r Report) String() string { return string(r[:]) }

// UnitOf returns the unit a value in picofarads is reported in.
func UnitOf(pf uint64) Unit {
	switch {
	case pf > 1000000:
		return Micro
	case pf > 1000:
		return Nano
	}
	return Pico
}

// Format renders pf picofarads. Units switch strictly above 1000 pF and
// 1000000 pF, so 1000 pF stays "1000.00 pF".
func Format(pf uint64, fast bool) Report {
	var r Report

	unit := UnitOf(pf)
	var rem uint64
	switch unit {
	case Micro:
		rem = pf % 1000000
		rem /= 1000
		pf /= 1000000
	case Nano:
		rem = pf % 1000
		pf /= 1000
	}

	if pf > maxInteger {
		copy(r[:], outOfRange[:])
		r.suffix(unit, fast)
		return r
	}

	leading := true
	if pf >= 1000 {
		r[0] = digit(pf / 1000)
		leading = false
	} else {
		r[0] = ' '
	}

	pf %= 1000
	if pf >= 100 || !leading {
		r[1] = digit(pf / 100)
		leading = false
	} else {
		r[1] = ' '
	}

	pf %= 100
	if pf >= 10 || !leading {
		r[2] = digit(pf / 10)
	} else {
		r[2] = ' '
	}

	pf %= 10
	r[3] = digit(pf)
	r[4] = '.'

	r[5] = digit(rem / 100)
	rem %= 100
	r[6] = digit(rem / 10)

	r.suffix(unit, fast)
	return r
}

func (r *Report) suffix(unit Unit, fast bool) {
	r[7] = ' '
	r[8] = byte(unit)
	r[9] = 'F'
	r[10] = ' '
	if fast {
		r[11] = fastMarker
	} else {
		r[11] = ' '
	}
	r[12] = '\r'
}

func digit(v uint64) byte {
	return byte(v) + '0'
}
