package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		pf   uint64
		fast bool
		want string
	}{
		{name: "zero", pf: 0, want: "   0.00 pF  \r"},
		{name: "single digit", pf: 5, want: "   5.00 pF  \r"},
		{name: "two digits", pf: 50, want: "  50.00 pF  \r"},
		{name: "three digits", pf: 100, want: " 100.00 pF  \r"},
		{name: "pico boundary stays pico", pf: 1000, want: "1000.00 pF  \r"},
		{name: "first nano", pf: 1001, want: "   1.00 nF  \r"},
		{name: "nano fraction", pf: 123456, want: " 123.45 nF  \r"},
		{name: "nano with inner zeros", pf: 100050, want: " 100.05 nF  \r"},
		{name: "nano boundary stays nano", pf: 1000000, want: "1000.00 nF  \r"},
		{name: "first micro", pf: 1000001, want: "   1.00 uF  \r"},
		{name: "micro fraction", pf: 4_700_000_000, want: "4700.00 uF  \r"},
		{name: "micro two decimals", pf: 2_345_678, want: "   2.34 uF  \r"},
		{name: "largest representable", pf: 9_999_999_999, want: "9999.99 uF  \r"},
		{name: "fast marker", pf: 1_000_120, fast: true, want: "   1.00 uF L\r"},
		{name: "slow marker blank", pf: 220, fast: false, want: " 220.00 pF  \r"},
		{name: "out of range", pf: 10_000_000_000, want: " E  ... uF  \r"},
		{name: "out of range fast", pf: ^uint64(0), fast: true, want: " E  ... uF L\r"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Format(tt.pf, tt.fast)
			assert.Equal(t, tt.want, got.String())
			assert.Len(t, got.Bytes(), Size)
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Reading
		wantErr error
	}{
		{
			name: "pico",
			in:   "  50.00 pF  \r",
			want: Reading{Picofarads: 50, Integer: 50, Unit: Pico},
		},
		{
			name: "nano without terminator",
			in:   " 123.45 nF  ",
			want: Reading{Picofarads: 123450, Integer: 123, Fraction: 45, Unit: Nano},
		},
		{
			name: "micro fast",
			in:   "   1.00 uF L\r",
			want: Reading{Picofarads: 1000000, Integer: 1, Unit: Micro, Fast: true},
		},
		{
			name: "out of range",
			in:   " E  ... uF L\r",
			want: Reading{Unit: Micro, Fast: true, OutOfRange: true},
		},
		{name: "too short", in: "1.00 pF\r", wantErr: ErrLength},
		{name: "too long", in: "   1.00 pF  \r\r", wantErr: ErrLength},
		{name: "bad terminator", in: "   1.00 pF  \n", wantErr: ErrSyntax},
		{name: "bad unit", in: "   1.00 mF  \r", wantErr: ErrSyntax},
		{name: "bad marker", in: "   1.00 pF X\r", wantErr: ErrSyntax},
		{name: "missing point", in: "   1,00 pF  \r", wantErr: ErrSyntax},
		{name: "space after digit", in: "1  1.00 pF  \r", wantErr: ErrSyntax},
		{name: "blank last integer digit", in: "    .00 pF  \r", wantErr: ErrSyntax},
		{name: "bad fraction", in: "   1.0x pF  \r", wantErr: ErrSyntax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.in))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_FormatQuantisation(t *testing.T) {
	tests := []struct {
		pf   uint64
		want uint64
	}{
		{pf: 0, want: 0},
		{pf: 999, want: 999},
		{pf: 1000, want: 1000},
		{pf: 123456, want: 123450},
		{pf: 1000000, want: 1000000},
		{pf: 2_345_678, want: 2_340_000},
		{pf: 9_999_999_999, want: 9_999_990_000},
	}

	for _, tt := range tests {
		for _, fast := range []bool{false, true} {
			got, err := Parse(Format(tt.pf, fast).Bytes())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Picofarads, "pf=%d", tt.pf)
			assert.Equal(t, fast, got.Fast)
			assert.False(t, got.OutOfRange)
		}
	}
}

func TestReading_String(t *testing.T) {
	r, err := Parse([]byte(" 123.45 nF L\r"))
	require.NoError(t, err)
	assert.Equal(t, "123.45 nF L", r.String())
	assert.InDelta(t, 123.45e-9, r.Farads(), 1e-15)

	r, err = Parse([]byte(" E  ... uF  \r"))
	require.NoError(t, err)
	assert.Equal(t, "E uF", r.String())
}

func TestUnitOf(t *testing.T) {
	assert.Equal(t, Pico, UnitOf(0))
	assert.Equal(t, Pico, UnitOf(1000))
	assert.Equal(t, Nano, UnitOf(1001))
	assert.Equal(t, Nano, UnitOf(1000000))
	assert.Equal(t, Micro, UnitOf(1000001))
	assert.Equal(t, Micro, UnitOf(^uint64(0)))
}
