package pulsecode

import (
	"fmt"
	"math"
)

// Encode expands code into a pulse train holding repeats copies of the
// base pattern. Durations are exact and the polarity alternates starting
// high. With opts.InsertGaps a gap pulse separates the repeats; with
// opts.TrailingIdle a low pulse returns the line to idle at the end.
func Encode(code Code, repeats int, opts Options) (Train, error) {
	if repeats < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRepeatCount, repeats)
	}
	if err := code.Validate(); err != nil {
		return nil, err
	}
	if repeats > maxTrainPulses/(len(code.Pattern)+1) {
		return nil, fmt.Errorf("%w: %d repeats of %d pulses exceed %d pulses",
			ErrInvalidRepeatCount, repeats, len(code.Pattern), maxTrainPulses)
	}

	gap := code.gapDuration(opts)
	if err := code.checkDecodable(gap, repeats, opts); err != nil {
		return nil, err
	}
	size := repeats * len(code.Pattern)
	if opts.InsertGaps {
		size += repeats - 1
	}
	t := make(Train, 0, size+1)
	level := High
	emit := func(d uint32) {
		t = append(t, Pulse{Duration: d, Polarity: level})
		level = level.Invert()
	}
	for r := 0; r < repeats; r++ {
		if r > 0 && opts.InsertGaps {
			emit(gap)
		}
		for _, e := range code.Pattern {
			emit(code.Durations[e.Symbol])
		}
	}
	// level is the level of the next pulse; Low means the train ends high
	if opts.TrailingIdle && level == Low {
		emit(gap)
	}
	return t, nil
}

// maxTrainPulses bounds the length of an encoded train.
const maxTrainPulses = 1 << 20

// checkDecodable rejects codes whose train would decode to something else:
// a pattern duration long enough to count as a gap, or an emitted gap that
// is too short to count as one or too close to the longest duration to be
// told apart from it.
func (c Code) checkDecodable(gap uint32, repeats int, opts Options) error {
	shortest, longest := c.Durations[0], c.Durations[0]
	for _, d := range c.Durations[1:] {
		if d < shortest {
			shortest = d
		}
		if d > longest {
			longest = d
		}
	}
	threshold := opts.GapMultiplier * float64(shortest)
	if float64(longest) >= threshold {
		return fmt.Errorf("%w: duration %d reaches the gap threshold of %v",
			ErrInvalidCode, longest, threshold)
	}
	emitsGap := opts.TrailingIdle || (opts.InsertGaps && repeats > 1)
	if !emitsGap {
		return nil
	}
	if float64(gap) < threshold {
		return fmt.Errorf("%w: gap %d is below the gap threshold of %v", ErrInvalidCode, gap, threshold)
	}
	if !opts.separable(float64(gap), float64(longest)) {
		return fmt.Errorf("%w: gap %d is too close to duration %d", ErrInvalidCode, gap, longest)
	}
	return nil
}

// gapDuration is the observed gap, or twice the gap threshold above the
// shortest duration when the code carries none.
func (c Code) gapDuration(opts Options) uint32 {
	if c.Gap > 0 {
		return c.Gap
	}
	shortest := c.Durations[0]
	for _, d := range c.Durations[1:] {
		if d < shortest {
			shortest = d
		}
	}
	return uint32(math.Ceil(2 * opts.GapMultiplier * float64(shortest)))
}
