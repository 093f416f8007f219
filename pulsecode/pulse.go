package pulsecode

import (
	"fmt"
	"strings"
)

// Polarity is the line level of a pulse.
type Polarity uint8

const (
	// Low is the idle level (space).
	Low Polarity = iota
	// High is the carrier-on level (mark).
	High
)

func (p Polarity) String() string {
	if p == High {
		return "high"
	}
	return "low"
}

// Invert returns the opposite polarity.
func (p Polarity) Invert() Polarity {
	if p == High {
		return Low
	}
	return High
}

// MarshalText implements encoding.TextMarshaler.
func (p Polarity) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Polarity) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "high", "h", "1":
		*p = High
	case "low", "l", "0":
		*p = Low
	default:
		return fmt.Errorf("unknown polarity %q", string(text))
	}
	return nil
}

// Pulse is a single timing measurement in microseconds.
type Pulse struct {
	Duration uint32   `json:"duration"`
	Polarity Polarity `json:"polarity"`
}

func (p Pulse) String() string {
	if p.Polarity == High {
		return fmt.Sprintf("+%d", p.Duration)
	}
	return fmt.Sprintf("-%d", p.Duration)
}

// Train is one capture window: pulses with strictly alternating polarity,
// starting high.
type Train []Pulse

// NewTrain builds a train from raw durations, inferring polarity from
// position.
func NewTrain(durations []uint32) Train {
	t := make(Train, len(durations))
	level := High
	for i, d := range durations {
		t[i] = Pulse{Duration: d, Polarity: level}
		level = level.Invert()
	}
	return t
}

// Validate checks alternation, the starting level and that every duration
// is positive.
func (t Train) Validate() error {
	level := High
	for i, p := range t {
		if p.Duration == 0 {
			return fmt.Errorf("pulse %d has zero duration", i)
		}
		if p.Polarity != level {
			return fmt.Errorf("pulse %d is %s, expected %s", i, p.Polarity, level)
		}
		level = level.Invert()
	}
	return nil
}

// Durations returns the raw durations of the train.
func (t Train) Durations() []uint32 {
	d := make([]uint32, len(t))
	for i, p := range t {
		d[i] = p.Duration
	}
	return d
}

// MarkSpace is one high pulse and the low pulse that follows it.
type MarkSpace struct {
	Mark  uint32 `json:"mark"`
	Space uint32 `json:"space"`
}

func (m MarkSpace) String() string {
	return fmt.Sprintf("(%v, %v)", m.Mark, m.Space)
}

// Pairs groups the train into mark/space pairs. A final unpaired mark gets
// a zero space.
func (t Train) Pairs() []MarkSpace {
	pairs := make([]MarkSpace, 0, (len(t)+1)/2)
	for i := 0; i < len(t); i += 2 {
		m := MarkSpace{Mark: t[i].Duration}
		if i+1 < len(t) {
			m.Space = t[i+1].Duration
		}
		pairs = append(pairs, m)
	}
	return pairs
}

func (t Train) String() string {
	var sb strings.Builder
	for i, p := range t {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(p.String())
	}
	return sb.String()
}
