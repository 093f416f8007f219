package pulsecode

import (
	"fmt"
	"sort"
)

// convergeRounds bounds the reassignment passes after the initial scan.
const convergeRounds = 16

// Symbol indexes the duration classes of one classification. Symbols are
// numbered by ascending representative duration.
type Symbol int

// Element is one classified pulse.
type Element struct {
	Symbol   Symbol   `json:"symbol"`
	Polarity Polarity `json:"polarity"`
}

// Class is a group of durations treated as the same timing unit.
type Class struct {
	// Duration is the representative (mean) duration in microseconds.
	Duration float64 `json:"duration"`
	// Count is the number of pulses assigned to the class.
	Count int `json:"count"`
}

// Classification is the classified symbol stream of one train together
// with the classes its symbols refer to.
type Classification struct {
	Classes []Class   `json:"classes"`
	Stream  []Element `json:"stream"`
}

// Classify groups the durations of t into the fewest duration classes
// that keep every pulse within opts.Tolerance of its class representative.
func Classify(t Train, opts Options) (Classification, error) {
	if err := opts.Validate(); err != nil {
		return Classification{}, fmt.Errorf("%w: %v", ErrClassification, err)
	}
	if len(t) == 0 {
		return Classification{}, fmt.Errorf("%w: empty train", ErrClassification)
	}
	if len(t) < 2 {
		return Classification{}, fmt.Errorf("%w: need at least 2 pulses, got %d", ErrClassification, len(t))
	}
	if err := t.Validate(); err != nil {
		return Classification{}, fmt.Errorf("%w: %v", ErrClassification, err)
	}

	durs := make([]float64, len(t))
	for i, p := range t {
		durs[i] = float64(p.Duration)
	}

	reps, ok := converge(durs, scan(durs, opts), opts)
	if !ok {
		return Classification{}, fmt.Errorf("%w: duration classes did not converge", ErrClassification)
	}
	if len(reps) > opts.MaxClasses {
		return Classification{}, fmt.Errorf("%w: %d duration classes exceed the maximum of %d",
			ErrClassification, len(reps), opts.MaxClasses)
	}

	assign := nearest(durs, reps)
	c := Classification{
		Classes: make([]Class, len(reps)),
		Stream:  make([]Element, len(t)),
	}
	for i, r := range reps {
		c.Classes[i].Duration = r
	}
	for i, p := range t {
		c.Classes[assign[i]].Count++
		c.Stream[i] = Element{Symbol: Symbol(assign[i]), Polarity: p.Polarity}
	}
	return c, nil
}

// Duration returns the representative duration of s rounded to a whole
// microsecond.
func (c Classification) Duration(s Symbol) uint32 {
	return uint32(c.Classes[s].Duration + 0.5)
}

// runningClass keeps a running mean.
type runningClass struct {
	sum   float64
	count int
}

func (r runningClass) mean() float64 {
	return r.sum / float64(r.count)
}

// scan is the incremental pass: a duration that fits exactly one class
// joins it, anything else opens a new class in sorted position.
func scan(durs []float64, opts Options) []float64 {
	var classes []runningClass
	for _, d := range durs {
		match, n := -1, 0
		for i, c := range classes {
			if opts.within(d, c.mean()) {
				match = i
				n++
			}
		}
		if n == 1 {
			classes[match].sum += d
			classes[match].count++
			continue
		}
		pos := sort.Search(len(classes), func(i int) bool { return classes[i].mean() > d })
		classes = append(classes, runningClass{})
		copy(classes[pos+1:], classes[pos:])
		classes[pos] = runningClass{sum: d, count: 1}
	}
	reps := make([]float64, len(classes))
	for i, c := range classes {
		reps[i] = c.mean()
	}
	sort.Float64s(reps)
	return reps
}

// converge reassigns every duration to its nearest class until the set of
// representatives stops changing. Durations outside every window seed new
// classes and adjacent classes are merged when their union still fits the
// tolerance. It reports false when the invariant does not hold at the end.
func converge(durs, reps []float64, opts Options) ([]float64, bool) {
	for round := 0; round < convergeRounds; round++ {
		assign := nearest(durs, reps)
		sums := make([]float64, len(reps))
		counts := make([]int, len(reps))
		var outliers []float64
		for i, d := range durs {
			a := assign[i]
			if !opts.within(d, reps[a]) {
				outliers = append(outliers, d)
				continue
			}
			sums[a] += d
			counts[a]++
		}

		next := make([]float64, 0, len(reps)+len(outliers))
		for i := range reps {
			if counts[i] > 0 {
				next = append(next, sums[i]/float64(counts[i]))
			}
		}
		next = append(next, scan(outliers, opts)...)
		sort.Float64s(next)
		next = mergeAdjacent(durs, next, opts)

		if equalFloats(next, reps) {
			break
		}
		reps = next
	}

	assign := nearest(durs, reps)
	for i, d := range durs {
		if !opts.within(d, reps[assign[i]]) {
			return reps, false
		}
	}
	return reps, true
}

// mergeAdjacent joins neighbouring classes whose combined members all stay
// within tolerance of the combined mean. Classes left without members are
// dropped.
func mergeAdjacent(durs, reps []float64, opts Options) []float64 {
	if len(reps) < 2 {
		return reps
	}
	assign := nearest(durs, reps)
	groups := make([][]float64, len(reps))
	for i, d := range durs {
		groups[assign[i]] = append(groups[assign[i]], d)
	}

	out := make([]float64, 0, len(reps))
	var cur []float64
	for _, g := range groups {
		if len(g) == 0 {
			continue
		}
		if cur != nil {
			union := make([]float64, 0, len(cur)+len(g))
			union = append(union, cur...)
			union = append(union, g...)
			if allWithin(union, opts) {
				cur = union
				continue
			}
			out = append(out, mean(cur))
		}
		cur = g
	}
	if cur != nil {
		out = append(out, mean(cur))
	}
	return out
}

// nearest returns, for every duration, the index of the representative
// with the smallest relative distance. Ties go to the shorter class.
func nearest(durs, reps []float64) []int {
	assign := make([]int, len(durs))
	for i, d := range durs {
		best, bestDist := 0, -1.0
		for j, r := range reps {
			dist := (d - r) / r
			if dist < 0 {
				dist = -dist
			}
			if bestDist < 0 || dist < bestDist {
				best, bestDist = j, dist
			}
		}
		assign[i] = best
	}
	return assign
}

func allWithin(vals []float64, opts Options) bool {
	m := mean(vals)
	for _, v := range vals {
		if !opts.within(v, m) {
			return false
		}
	}
	return true
}

func mean(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func equalFloats(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
