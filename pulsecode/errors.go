package pulsecode

import "errors"

var (
	// ErrClassification indicates a capture that cannot be grouped into
	// duration classes: too short, zero durations, or too noisy.
	ErrClassification = errors.New("classification failed")

	// ErrInconsistentRepeat indicates repeat segments of one capture that
	// disagree with each other.
	ErrInconsistentRepeat = errors.New("inconsistent repeat")

	// ErrEmptyPattern indicates that segmentation left no base pattern.
	ErrEmptyPattern = errors.New("empty base pattern")

	// ErrInvalidRepeatCount indicates an encode request with repeats < 1.
	ErrInvalidRepeatCount = errors.New("invalid repeat count")

	// ErrInvalidCode indicates a structurally broken Code.
	ErrInvalidCode = errors.New("invalid code")

	// ErrInvalidPulseLength indicates a high/low pair that is neither a
	// one nor a zero in the bit view.
	ErrInvalidPulseLength = errors.New("invalid pulse length")

	// ErrBitLength indicates bits that cannot be written as hex.
	ErrBitLength = errors.New("bit length is not a multiple of 4")
)
