package pulsecode_test

import (
	"math"
	"testing"

	"github.com/derktes/rf-signal-collector/pulsecode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shortLong(t *testing.T) pulsecode.Code {
	t.Helper()
	code, err := pulsecode.NewCode([]pulsecode.Symbol{0, 1}, []uint32{500, 1500}, 1)
	require.NoError(t, err)
	return code
}

// TestEncode_NoGaps repeats the pattern back to back.
func TestEncode_NoGaps(t *testing.T) {
	opts := pulsecode.DefaultOptions()
	opts.InsertGaps = false

	train, err := pulsecode.Encode(shortLong(t), 3, opts)
	require.NoError(t, err)
	assert.Equal(t, []uint32{500, 1500, 500, 1500, 500, 1500}, train.Durations())
	assert.NoError(t, train.Validate(), "polarity must alternate starting high")
}

// TestEncode_Gaps inserts the code's gap between repeats only.
func TestEncode_Gaps(t *testing.T) {
	code, err := pulsecode.NewCode([]pulsecode.Symbol{0, 1, 0}, []uint32{500, 1500}, 1)
	require.NoError(t, err)
	code.Gap = 9000

	train, err := pulsecode.Encode(code, 2, pulsecode.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []uint32{500, 1500, 500, 9000, 500, 1500, 500}, train.Durations())
	assert.NoError(t, train.Validate())
}

// TestEncode_DefaultGap derives a gap from the shortest duration.
func TestEncode_DefaultGap(t *testing.T) {
	train, err := pulsecode.Encode(shortLong(t), 2, pulsecode.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []uint32{500, 1500, 5000, 500, 1500}, train.Durations())
	assert.Equal(t, pulsecode.High, train[2].Polarity)
}

// TestEncode_TrailingIdle appends a low pulse only when the train ends high.
func TestEncode_TrailingIdle(t *testing.T) {
	opts := pulsecode.DefaultOptions()
	opts.TrailingIdle = true

	code, err := pulsecode.NewCode([]pulsecode.Symbol{0, 1, 0}, []uint32{500, 1500}, 1)
	require.NoError(t, err)
	code.Gap = 9000
	train, err := pulsecode.Encode(code, 1, opts)
	require.NoError(t, err)
	assert.Equal(t, []uint32{500, 1500, 500, 9000}, train.Durations())
	assert.Equal(t, pulsecode.Low, train[3].Polarity)

	train, err = pulsecode.Encode(shortLong(t), 1, opts)
	require.NoError(t, err)
	assert.Equal(t, []uint32{500, 1500}, train.Durations())
}

// TestEncode_InvalidRepeatCount rejects zero and negative repeat counts.
func TestEncode_InvalidRepeatCount(t *testing.T) {
	for _, n := range []int{0, -1} {
		_, err := pulsecode.Encode(shortLong(t), n, pulsecode.DefaultOptions())
		assert.ErrorIs(t, err, pulsecode.ErrInvalidRepeatCount, "repeats=%d", n)
	}
}

// TestEncode_TooManyRepeats bounds the train length instead of allocating it.
func TestEncode_TooManyRepeats(t *testing.T) {
	for _, n := range []int{math.MaxInt / 2, math.MaxInt, 1 << 20} {
		_, err := pulsecode.Encode(shortLong(t), n, pulsecode.DefaultOptions())
		assert.ErrorIs(t, err, pulsecode.ErrInvalidRepeatCount, "repeats=%d", n)
	}
	train, err := pulsecode.Encode(shortLong(t), 1000, pulsecode.DefaultOptions())
	require.NoError(t, err)
	assert.Len(t, train, 3*1000-1)
}

// TestEncode_Undecodable rejects codes whose train would not decode back to
// the same code.
func TestEncode_Undecodable(t *testing.T) {
	opts := pulsecode.DefaultOptions()

	long, err := pulsecode.NewCode([]pulsecode.Symbol{0, 1, 0, 1}, []uint32{300, 1800}, 1)
	require.NoError(t, err)
	_, err = pulsecode.Encode(long, 2, opts)
	assert.ErrorIs(t, err, pulsecode.ErrInvalidCode, "pulse at the gap threshold")

	shortGap, err := pulsecode.NewCode([]pulsecode.Symbol{0, 1, 0}, []uint32{500, 1500}, 1)
	require.NoError(t, err)
	shortGap.Gap = 2000
	_, err = pulsecode.Encode(shortGap, 3, opts)
	assert.ErrorIs(t, err, pulsecode.ErrInvalidCode, "gap below the threshold")

	closeGap, err := pulsecode.NewCode([]pulsecode.Symbol{0, 1, 0}, []uint32{500, 2400}, 1)
	require.NoError(t, err)
	closeGap.Gap = 2600
	_, err = pulsecode.Encode(closeGap, 2, opts)
	assert.ErrorIs(t, err, pulsecode.ErrInvalidCode, "gap inside the long class")

	// a single repeat without a trailing idle never emits the gap
	train, err := pulsecode.Encode(shortGap, 1, opts)
	require.NoError(t, err)
	assert.Equal(t, []uint32{500, 1500, 500}, train.Durations())
}

// TestEncode_InvalidCode rejects broken codes.
func TestEncode_InvalidCode(t *testing.T) {
	_, err := pulsecode.Encode(pulsecode.Code{}, 1, pulsecode.DefaultOptions())
	assert.ErrorIs(t, err, pulsecode.ErrEmptyPattern)

	bad := pulsecode.Code{
		Pattern:   []pulsecode.Element{{Symbol: 3, Polarity: pulsecode.High}},
		Durations: []uint32{500},
	}
	_, err = pulsecode.Encode(bad, 1, pulsecode.DefaultOptions())
	assert.ErrorIs(t, err, pulsecode.ErrInvalidCode)
}

// TestRoundTrip decodes encoded codes back to equal codes with the
// requested repeat count.
func TestRoundTrip(t *testing.T) {
	opts := pulsecode.DefaultOptions()
	cases := []struct {
		name      string
		symbols   []pulsecode.Symbol
		durations []uint32
	}{
		{"short long", []pulsecode.Symbol{0, 1}, []uint32{500, 1500}},
		{"short long short", []pulsecode.Symbol{0, 1, 0}, []uint32{500, 1500}},
		{"unsorted table", []pulsecode.Symbol{1, 0, 0, 1, 1}, []uint32{1050, 350}},
		{"three classes", []pulsecode.Symbol{0, 2, 1, 0, 2, 1, 0}, []uint32{300, 600, 1200}},
		{"single class", []pulsecode.Symbol{0, 0, 0}, []uint32{400}},
		{"wide ratio", []pulsecode.Symbol{0, 1, 0, 1}, []uint32{300, 1400}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, err := pulsecode.NewCode(tc.symbols, tc.durations, 1)
			require.NoError(t, err)
			for n := 2; n <= 4; n++ {
				train, err := pulsecode.Encode(code, n, opts)
				require.NoError(t, err)
				decoded, err := pulsecode.DecodeTrain(train, opts)
				require.NoError(t, err)
				assert.True(t, code.Equal(decoded, opts), "n=%d: %v != %v", n, code, decoded)
				assert.Equal(t, n, decoded.Repeats)
				assert.Equal(t, code.Durations, decoded.Durations)
			}
		})
	}
}

// TestRoundTrip_ObservedGap keeps a decoded gap through encode and decode.
func TestRoundTrip_ObservedGap(t *testing.T) {
	opts := pulsecode.DefaultOptions()
	code, err := pulsecode.NewCode([]pulsecode.Symbol{0, 1, 0}, []uint32{500, 1500}, 1)
	require.NoError(t, err)
	code.Gap = 2600

	for n := 2; n <= 4; n++ {
		train, err := pulsecode.Encode(code, n, opts)
		require.NoError(t, err)
		decoded, err := pulsecode.DecodeTrain(train, opts)
		require.NoError(t, err)
		assert.True(t, code.Equal(decoded, opts), "n=%d: %v != %v", n, code, decoded)
		assert.Equal(t, n, decoded.Repeats)
		assert.Equal(t, uint32(2600), decoded.Gap)
	}
}

// TestRoundTrip_Bits re-encodes a fixed-code remote from its hex value.
func TestRoundTrip_Bits(t *testing.T) {
	opts := pulsecode.DefaultOptions()
	bits, err := pulsecode.ParseBits("48b2a4")
	require.NoError(t, err)
	code, err := bits.Code(320, 0)
	require.NoError(t, err)

	train, err := pulsecode.Encode(code, 4, opts)
	require.NoError(t, err)
	decoded, err := pulsecode.DecodeTrain(train, opts)
	require.NoError(t, err)
	assert.Equal(t, 4, decoded.Repeats)
	assert.Equal(t, uint32(320*31), decoded.Gap)

	back, err := decoded.Bits()
	require.NoError(t, err)
	assert.Equal(t, bits, back)
}
