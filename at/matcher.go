package at

import "errors"

var (
	// ErrNoTargets is returned when a Matcher is constructed with an
	// empty target list.
	ErrNoTargets = errors.New("at: no targets")

	// ErrEmptyTarget is returned when one of the targets is the empty
	// string. An empty target would match before any byte arrives and
	// indicates a programming error.
	ErrEmptyTarget = errors.New("at: empty target")
)

// Matcher is an incremental multi-pattern byte matcher. It is fed one
// byte at a time and reports the first target that is fully matched
// against the tail of the stream.
//
// Each target keeps a per-target partial match cursor that is advanced
// or backtracked on every byte using a precomputed KMP failure table,
// so overlapping occurrences (including self-overlapping prefixes of a
// single target) are never missed and no byte needs to be re-read.
//
// When several targets complete on the same byte the lowest index wins:
// targets are checked in the order they were supplied.
type Matcher struct {
	targets []string
	fail    [][]int
	partial []int
}

// NewMatcher builds a Matcher for the given targets. The failure table
// of every target is computed up front; Feed then runs in constant
// amortized time per byte.
func NewMatcher(targets ...string) (*Matcher, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	m := &Matcher{
		targets: targets,
		fail:    make([][]int, len(targets)),
		partial: make([]int, len(targets)),
	}
	for i, t := range targets {
		if t == "" {
			return nil, ErrEmptyTarget
		}
		m.fail[i] = failureTable(t)
	}
	return m, nil
}

// Feed advances the matcher by one stream byte. It returns the index of
// the first target completed by this byte, or (-1, false) if no target
// completed yet.
func (m *Matcher) Feed(c byte) (int, bool) {
	for i, t := range m.targets {
		j := m.partial[i]
		// A previously completed target continues at its longest
		// self-overlap, so repeated occurrences are reported too.
		if j == len(t) {
			j = m.fail[i][j-1]
		}
		for j > 0 && t[j] != c {
			j = m.fail[i][j-1]
		}
		if t[j] == c {
			j++
		}
		m.partial[i] = j
		if j == len(t) {
			return i, true
		}
	}
	return -1, false
}

// Reset clears all partial match state, as if no stream bytes had been
// seen.
func (m *Matcher) Reset() {
	for i := range m.partial {
		m.partial[i] = 0
	}
}

// failureTable computes the KMP prefix function of t: fail[k] is the
// length of the longest proper prefix of t[:k+1] that is also a suffix
// of it.
func failureTable(t string) []int {
	fail := make([]int, len(t))
	for k := 1; k < len(t); k++ {
		j := fail[k-1]
		for j > 0 && t[k] != t[j] {
			j = fail[j-1]
		}
		if t[k] == t[j] {
			j++
		}
		fail[k] = j
	}
	return fail
}
