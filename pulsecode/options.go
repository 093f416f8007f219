package pulsecode

import "fmt"

// Default option values.
const (
	DefaultTolerance     = 0.25
	DefaultMaxClasses    = 12
	DefaultGapMultiplier = 5.0
)

// Options configures classification, decoding and encoding. It is passed
// by value into every call; the zero value is not usable, start from
// DefaultOptions.
type Options struct {
	// Tolerance is the relative window around a class representative,
	// e.g. 0.25 accepts durations within ±25%.
	Tolerance float64 `yaml:"tolerance" json:"tolerance"`
	// MaxClasses rejects captures that need more duration classes.
	MaxClasses int `yaml:"max_classes" json:"maxClasses"`
	// GapMultiplier marks a pulse as a gap when its class representative
	// is at least this many times the shortest class.
	GapMultiplier float64 `yaml:"gap_multiplier" json:"gapMultiplier"`
	// GapLowOnly restricts gaps to low pulses.
	GapLowOnly bool `yaml:"gap_low_only" json:"gapLowOnly"`
	// TrimEdges drops truncated leading/trailing segments and trims a
	// single padding pulse at the outer end of an edge segment.
	TrimEdges bool `yaml:"trim_edges" json:"trimEdges"`
	// InsertGaps puts a gap pulse between repeats on encode.
	InsertGaps bool `yaml:"insert_gaps" json:"insertGaps"`
	// TrailingIdle appends a low pulse on encode when the train would
	// otherwise end high.
	TrailingIdle bool `yaml:"trailing_idle" json:"trailingIdle"`
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Tolerance:     DefaultTolerance,
		MaxClasses:    DefaultMaxClasses,
		GapMultiplier: DefaultGapMultiplier,
		TrimEdges:     true,
		InsertGaps:    true,
	}
}

// Validate checks that the options are usable.
func (o Options) Validate() error {
	if o.Tolerance <= 0 || o.Tolerance >= 1 {
		return fmt.Errorf("tolerance must be within (0, 1), got %v", o.Tolerance)
	}
	if o.MaxClasses < 1 {
		return fmt.Errorf("max_classes must be at least 1, got %d", o.MaxClasses)
	}
	// a gap must not fall inside the tolerance window of the shortest class
	if o.GapMultiplier <= 1+o.Tolerance {
		return fmt.Errorf("gap_multiplier must exceed 1+tolerance, got %v", o.GapMultiplier)
	}
	return nil
}

// within reports whether d lies inside the tolerance window of rep.
func (o Options) within(d, rep float64) bool {
	diff := d - rep
	if diff < 0 {
		diff = -diff
	}
	return diff <= rep*o.Tolerance
}

// near reports whether a and b agree within tolerance of the smaller one.
// Unlike within it does not depend on the argument order.
func (o Options) near(a, b float64) bool {
	diff, low := a-b, b
	if diff < 0 {
		diff, low = -diff, a
	}
	return diff <= low*o.Tolerance
}

// separable reports whether no single class representative can hold both
// a and b within tolerance.
func (o Options) separable(a, b float64) bool {
	if a < b {
		a, b = b, a
	}
	return a*(1-o.Tolerance) > b*(1+o.Tolerance)
}
