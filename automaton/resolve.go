package automaton

// Resolve replays the deferred string operations recorded on the automaton.
//
// Taints must be ordered by introduction: chains grow as construction
// descends the operator tree, so resolving in reverse introduction order
// rewrites the innermost operation first, matching program evaluation order.
// Each operation receives the states carrying its taint; transformers locate
// tainted edges themselves since a scope may consist of boundary edges only.
func Resolve(n *NFA, taints []*Taint) {
	for i := len(taints) - 1; i >= 0; i-- {
		t := taints[i]
		t.Operation().ApplyToAutomaton(n, t, n.StatesWithTaint(t))
	}
}
