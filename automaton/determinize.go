package automaton

import (
	"sort"
	"strconv"
	"strings"
)

// DefaultMaxStates bounds the powerset construction. Symbolic alphabets stay
// small, so the default is generous.
const DefaultMaxStates = 10000

// Determinize runs the powerset construction over the automaton's symbolic
// alphabet: two edges carry the same symbol iff their labels are identical
// strings. ε-edges are resolved by closure. The result accepts the same
// symbolic language and has no ε-edges; taint information is not carried
// over, so determinisation is only meaningful after Resolve.
//
// maxStates caps the number of subset states; 0 means DefaultMaxStates.
// Exceeding the cap returns a DeterminizeError wrapping ErrTooComplex.
func Determinize(n *NFA, maxStates int) (*NFA, error) {
	if n.Start() == nil {
		return nil, ErrNoStartState
	}
	if maxStates <= 0 {
		maxStates = DefaultMaxStates
	}

	out := New()
	subsets := make(map[string]*State)

	startSet := epsilonClosure([]*State{n.Start()})
	start := out.NewState()
	out.SetStart(start)
	if containsAccepting(startSet) {
		start.accepting = true
	}
	subsets[subsetKey(startSet)] = start

	type workItem struct {
		set   []*State
		state *State
	}
	queue := []workItem{{startSet, start}}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		// Group reachable states by symbol, preserving first-seen symbol
		// order for reproducibility.
		var symbols []string
		targets := make(map[string][]*State)
		for _, s := range item.set {
			for _, e := range s.Edges() {
				if e.IsEpsilon() {
					continue
				}
				if _, seen := targets[e.Label()]; !seen {
					symbols = append(symbols, e.Label())
				}
				targets[e.Label()] = append(targets[e.Label()], e.Target())
			}
		}

		for _, sym := range symbols {
			next := epsilonClosure(targets[sym])
			key := subsetKey(next)
			ds, ok := subsets[key]
			if !ok {
				if len(subsets) >= maxStates {
					return nil, &DeterminizeError{States: len(subsets), Limit: maxStates, Err: ErrTooComplex}
				}
				ds = out.NewState()
				if containsAccepting(next) {
					ds.accepting = true
				}
				subsets[key] = ds
				queue = append(queue, workItem{next, ds})
			}
			out.AddEdge(item.state, ds, sym, nil)
		}
	}

	return out, nil
}

// epsilonClosure returns the ε-closure of the given states, sorted by id.
func epsilonClosure(states []*State) []*State {
	seen := make(map[*State]bool, len(states))
	stack := append([]*State(nil), states...)
	for _, s := range states {
		seen[s] = true
	}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range s.Edges() {
			if e.IsEpsilon() && !seen[e.Target()] {
				seen[e.Target()] = true
				stack = append(stack, e.Target())
			}
		}
	}
	out := make([]*State, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

func containsAccepting(states []*State) bool {
	for _, s := range states {
		if s.accepting {
			return true
		}
	}
	return false
}

func subsetKey(states []*State) string {
	var b strings.Builder
	for i, s := range states {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(s.id))
	}
	return b.String()
}
