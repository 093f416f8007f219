package pulsecode

import (
	"fmt"
	"sort"
)

// segment is the run of pulses between two gaps. leading and trailing mark
// a segment that touches the start or the end of the capture instead of a
// gap.
type segment struct {
	elems    []Element
	leading  bool
	trailing bool
}

func (s segment) edge() bool {
	return s.leading || s.trailing
}

// DecodeTrain classifies t and decodes the result.
func DecodeTrain(t Train, opts Options) (Code, error) {
	c, err := Classify(t, opts)
	if err != nil {
		return Code{}, err
	}
	return Decode(c, opts)
}

// Decode reduces a classified stream to its base pattern and repeat count.
//
// The stream is split at gap pulses. A single segment is a single press.
// Several segments must agree with each other; with opts.TrimEdges a
// truncated first or last segment is dropped and a single shortest-class
// pulse padding the outer end of an edge segment is trimmed.
func Decode(c Classification, opts Options) (Code, error) {
	if err := opts.Validate(); err != nil {
		return Code{}, err
	}
	if len(c.Stream) == 0 || len(c.Classes) == 0 {
		return Code{}, ErrEmptyPattern
	}

	segs, gap := split(c, opts)
	if len(segs) == 0 {
		return Code{}, fmt.Errorf("%w: capture holds only gaps", ErrEmptyPattern)
	}

	var (
		ref     []Element
		repeats int
		err     error
	)
	if len(segs) == 1 {
		ref, repeats = segs[0].elems, 1
	} else {
		ref, repeats, err = reconcile(segs, opts)
		if err != nil {
			return Code{}, err
		}
	}
	if len(ref) == 0 {
		return Code{}, ErrEmptyPattern
	}

	symbols := make([]Symbol, len(ref))
	used := make(map[Symbol]bool)
	for i, e := range ref {
		symbols[i] = e.Symbol
		used[e.Symbol] = true
	}
	code := project(symbols, used, c.Duration, repeats)
	code.Gap = gap
	return code, nil
}

// isGap reports whether e separates repeats.
func isGap(c Classification, e Element, opts Options) bool {
	if opts.GapLowOnly && e.Polarity != Low {
		return false
	}
	return c.Classes[e.Symbol].Duration >= opts.GapMultiplier*c.Classes[0].Duration
}

// split cuts the stream at gap pulses, dropping empty segments. It also
// returns the rounded duration of the first gap seen, 0 if there is none.
func split(c Classification, opts Options) ([]segment, uint32) {
	var (
		segs []segment
		cur  []Element
		gap  uint32
	)
	atStart := true
	for _, e := range c.Stream {
		if !isGap(c, e, opts) {
			cur = append(cur, e)
			continue
		}
		if gap == 0 {
			gap = c.Duration(e.Symbol)
		}
		if len(cur) > 0 {
			segs = append(segs, segment{elems: cur, leading: atStart})
		}
		cur = nil
		atStart = false
	}
	if len(cur) > 0 {
		segs = append(segs, segment{elems: cur, leading: atStart, trailing: true})
	}
	return segs, gap
}

// reconcile picks the reference segment and counts the segments that
// repeat it.
func reconcile(segs []segment, opts Options) ([]Element, int, error) {
	for _, s := range segs {
		if !s.edge() {
			return checkAgainst(s.elems, segs, opts)
		}
	}

	// Only edge segments: try each of them, longest first, as found and
	// with its padding trimmed.
	var candidates [][]Element
	for _, s := range segs {
		candidates = append(candidates, s.elems)
	}
	if opts.TrimEdges {
		for _, s := range segs {
			if t, ok := trimPadding(s); ok {
				candidates = append(candidates, t)
			}
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool { return len(candidates[i]) > len(candidates[j]) })

	var firstErr error
	for _, ref := range candidates {
		pattern, n, err := checkAgainst(ref, segs, opts)
		if err == nil {
			return pattern, n, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, 0, firstErr
}

// checkAgainst compares every segment with ref. Interior segments must
// match; edge segments may be truncated or padded when trimming is on.
func checkAgainst(ref []Element, segs []segment, opts Options) ([]Element, int, error) {
	n := 0
	for i, s := range segs {
		if sameShape(s.elems, ref) {
			n++
			continue
		}
		if !s.edge() || !opts.TrimEdges {
			return nil, 0, fmt.Errorf("%w: segment %d has %d pulses, expected %d",
				ErrInconsistentRepeat, i, len(s.elems), len(ref))
		}
		if t, ok := trimPadding(s); ok && sameShape(t, ref) {
			n++
			continue
		}
		if truncated(s, ref) {
			continue
		}
		return nil, 0, fmt.Errorf("%w: edge segment %d does not match the repeated pattern",
			ErrInconsistentRepeat, i)
	}
	if n == 0 {
		return nil, 0, fmt.Errorf("%w: no complete repeat", ErrEmptyPattern)
	}
	return ref, n, nil
}

// trimPadding drops a single shortest-class pulse from the outer end of an
// edge segment.
func trimPadding(s segment) ([]Element, bool) {
	if len(s.elems) < 2 {
		return nil, false
	}
	switch {
	case s.leading && s.elems[0].Symbol == 0:
		return s.elems[1:], true
	case s.trailing && s.elems[len(s.elems)-1].Symbol == 0:
		return s.elems[:len(s.elems)-1], true
	}
	return nil, false
}

// truncated reports whether an edge segment is a cut-off piece of ref: the
// tail of ref for the leading segment, its head for the trailing one.
func truncated(s segment, ref []Element) bool {
	if len(s.elems) >= len(ref) {
		return false
	}
	if s.leading && sameSymbols(s.elems, ref[len(ref)-len(s.elems):]) {
		return true
	}
	if s.trailing && sameSymbols(s.elems, ref[:len(s.elems)]) {
		return true
	}
	return false
}

// sameShape compares symbols and the polarity of every element relative to
// the first one, so repeats that land on opposite levels still match.
func sameShape(a, b []Element) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Symbol != b[i].Symbol {
			return false
		}
		if (a[i].Polarity != a[0].Polarity) != (b[i].Polarity != b[0].Polarity) {
			return false
		}
	}
	return true
}

func sameSymbols(a, b []Element) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Symbol != b[i].Symbol {
			return false
		}
	}
	return true
}
