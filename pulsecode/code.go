package pulsecode

import (
	"fmt"
	"sort"
	"strings"
)

// Code is the decoded form of one button press: a base pattern of symbols,
// the duration of each symbol and how often the pattern was repeated.
//
// Symbols index Durations, which is ascending and holds only durations the
// pattern uses. The pattern always starts high and alternates.
type Code struct {
	Pattern   []Element `json:"pattern"`
	Durations []uint32  `json:"durations"`
	Repeats   int       `json:"repeats"`
	// Gap is the observed inter-repeat gap in microseconds, 0 if none.
	Gap uint32 `json:"gap,omitempty"`
}

// NewCode builds a normalized Code from a symbol sequence and a duration
// table in any order. Unused durations are dropped and the symbols are
// renumbered so that the table is ascending.
func NewCode(symbols []Symbol, durations []uint32, repeats int) (Code, error) {
	if len(symbols) == 0 {
		return Code{}, ErrEmptyPattern
	}
	used := make(map[Symbol]bool)
	for i, s := range symbols {
		if s < 0 || int(s) >= len(durations) {
			return Code{}, fmt.Errorf("%w: symbol %d at %d has no duration", ErrInvalidCode, s, i)
		}
		if durations[s] == 0 {
			return Code{}, fmt.Errorf("%w: symbol %d has zero duration", ErrInvalidCode, s)
		}
		used[s] = true
	}
	return project(symbols, used, func(s Symbol) uint32 { return durations[s] }, repeats), nil
}

// project renumbers the used symbols by ascending duration and builds the
// pattern starting high.
func project(symbols []Symbol, used map[Symbol]bool, duration func(Symbol) uint32, repeats int) Code {
	order := make([]Symbol, 0, len(used))
	for s := range used {
		order = append(order, s)
	}
	sort.Slice(order, func(i, j int) bool {
		di, dj := duration(order[i]), duration(order[j])
		if di != dj {
			return di < dj
		}
		return order[i] < order[j]
	})

	remap := make(map[Symbol]Symbol, len(order))
	c := Code{
		Pattern:   make([]Element, len(symbols)),
		Durations: make([]uint32, len(order)),
		Repeats:   repeats,
	}
	for i, s := range order {
		remap[s] = Symbol(i)
		c.Durations[i] = duration(s)
	}
	level := High
	for i, s := range symbols {
		c.Pattern[i] = Element{Symbol: remap[s], Polarity: level}
		level = level.Invert()
	}
	return c
}

// Validate checks the structure of the code.
func (c Code) Validate() error {
	if len(c.Pattern) == 0 {
		return ErrEmptyPattern
	}
	for i, d := range c.Durations {
		if d == 0 {
			return fmt.Errorf("%w: duration %d is zero", ErrInvalidCode, i)
		}
	}
	level := High
	for i, e := range c.Pattern {
		if e.Symbol < 0 || int(e.Symbol) >= len(c.Durations) {
			return fmt.Errorf("%w: symbol %d at %d has no duration", ErrInvalidCode, e.Symbol, i)
		}
		if e.Polarity != level {
			return fmt.Errorf("%w: element %d is %s, expected %s", ErrInvalidCode, i, e.Polarity, level)
		}
		level = level.Invert()
	}
	if c.Repeats < 0 {
		return fmt.Errorf("%w: negative repeat count %d", ErrInvalidCode, c.Repeats)
	}
	return nil
}

// Symbols returns the symbol sequence of the base pattern.
func (c Code) Symbols() []Symbol {
	s := make([]Symbol, len(c.Pattern))
	for i, e := range c.Pattern {
		s[i] = e.Symbol
	}
	return s
}

// Expand returns one repeat of the base pattern as pulses.
func (c Code) Expand() Train {
	t := make(Train, len(c.Pattern))
	for i, e := range c.Pattern {
		t[i] = Pulse{Duration: c.Durations[e.Symbol], Polarity: e.Polarity}
	}
	return t
}

// Equal reports whether both codes describe the same button: the expanded
// base patterns agree pulse by pulse within opts.Tolerance of the shorter
// of the two durations, so the result does not depend on which code is the
// receiver. Repeat count and gap are ignored.
func (c Code) Equal(other Code, opts Options) bool {
	if len(c.Pattern) != len(other.Pattern) {
		return false
	}
	a, b := c.Expand(), other.Expand()
	for i := range a {
		if a[i].Polarity != b[i].Polarity {
			return false
		}
		if !opts.near(float64(a[i].Duration), float64(b[i].Duration)) {
			return false
		}
	}
	return true
}

func (c Code) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%dx [", c.Repeats)
	for i, e := range c.Pattern {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%d", e.Symbol)
	}
	sb.WriteString("] {")
	for i, d := range c.Durations {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%d", d)
	}
	sb.WriteByte('}')
	if c.Gap > 0 {
		fmt.Fprintf(&sb, " gap %d", c.Gap)
	}
	return sb.String()
}
