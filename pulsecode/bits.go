package pulsecode

import (
	"fmt"
	"strconv"
)

// Pulse-width ratios of the common fixed-code encoders (PT2262, EV1527
// and clones): a one is 3 units high and 1 low, a zero 1 high and 3 low,
// and the frame ends with a short sync pulse before a long gap.
const (
	bitLongUnits  = 3
	bitShortUnits = 1
	syncGapUnits  = 31
	maxBits       = 64
)

// Bits is the bit-level reading of a pulse-width coded button.
type Bits struct {
	Value  uint64
	Length int
}

// Bits reads the base pattern as high/low pairs measured in units of the
// shortest duration. A trailing unpaired pulse is taken as the sync pulse
// and ignored.
func (c Code) Bits() (Bits, error) {
	if err := c.Validate(); err != nil {
		return Bits{}, err
	}
	unit := c.Durations[0]
	var b Bits
	for i := 0; i+1 < len(c.Pattern); i += 2 {
		high := c.Durations[c.Pattern[i].Symbol]
		low := c.Durations[c.Pattern[i+1].Symbol]
		hp, lp := roundDiv(high, unit), roundDiv(low, unit)
		var bit uint64
		switch {
		case hp == bitLongUnits && lp == bitShortUnits:
			bit = 1
		case hp == bitShortUnits && lp == bitLongUnits:
			bit = 0
		default:
			return Bits{}, fmt.Errorf("%w: %d µs high %d µs low", ErrInvalidPulseLength, high, low)
		}
		if b.Length == maxBits {
			return Bits{}, fmt.Errorf("%w: more than %d bits", ErrInvalidCode, maxBits)
		}
		b.Value = b.Value<<1 | bit
		b.Length++
	}
	return b, nil
}

// roundDiv divides rounding to the nearest integer.
func roundDiv(dividend, divisor uint32) uint32 {
	return (dividend + divisor/2) / divisor
}

// Code builds a transmittable code from the bits using unit as the short
// pulse width. A zero gap selects the usual 31 units.
func (b Bits) Code(unit, gap uint32) (Code, error) {
	if b.Length < 1 || b.Length > maxBits {
		return Code{}, fmt.Errorf("%w: bit length %d", ErrInvalidCode, b.Length)
	}
	if unit == 0 {
		return Code{}, fmt.Errorf("%w: zero unit", ErrInvalidCode)
	}
	const short, long = Symbol(0), Symbol(1)
	symbols := make([]Symbol, 0, 2*b.Length+1)
	for i := b.Length - 1; i >= 0; i-- {
		if b.Value>>uint(i)&1 == 1 {
			symbols = append(symbols, long, short)
		} else {
			symbols = append(symbols, short, long)
		}
	}
	symbols = append(symbols, short)
	code, err := NewCode(symbols, []uint32{unit * bitShortUnits, unit * bitLongUnits}, 1)
	if err != nil {
		return Code{}, err
	}
	if gap == 0 {
		gap = unit * syncGapUnits
	}
	code.Gap = gap
	return code, nil
}

// String returns zero-padded hex, or binary when the length is not a
// multiple of 4.
func (b Bits) String() string {
	if b.Length%4 == 0 {
		return fmt.Sprintf("%0*x", b.Length/4, b.Value)
	}
	return fmt.Sprintf("%0*b", b.Length, b.Value)
}

// MarshalText implements encoding.TextMarshaler. Only lengths that are a
// multiple of 4 have a hex form.
func (b Bits) MarshalText() ([]byte, error) {
	if b.Length%4 != 0 {
		return nil, fmt.Errorf("%w: %d", ErrBitLength, b.Length)
	}
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Bits) UnmarshalText(text []byte) error {
	parsed, err := ParseBits(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// ParseBits reads the hex form; every digit counts for 4 bits.
func ParseBits(s string) (Bits, error) {
	if len(s) == 0 || len(s) > maxBits/4 {
		return Bits{}, fmt.Errorf("bits %q must have 1 to %d hex digits", s, maxBits/4)
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return Bits{}, fmt.Errorf("bits %q: %w", s, err)
	}
	return Bits{Value: v, Length: 4 * len(s)}, nil
}
