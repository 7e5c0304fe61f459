package strapprox

import (
	"github.com/coregx/strapprox/automaton"
	"github.com/coregx/strapprox/grammar"
)

// BuildAutomaton constructs an ε-NFA accepting a superset of the start
// nonterminal's language, following Nederhof's construction for strongly
// regular grammars. Every SCC of the grammar must be LEFT-, RIGHT- or
// NONE-recursive.
//
// Operation productions introduce taints: every edge and state created
// within the scope of an operation records the taint chain leading to it.
// The second result lists all taints in introduction order, ready to be
// replayed with automaton.Resolve.
func BuildAutomaton(g *grammar.Grammar) (*automaton.NFA, []*automaton.Taint, error) {
	if g.Start() == nil {
		return nil, nil, ErrMissingStart
	}

	b := &nfaBuilder{
		g:          g,
		n:          automaton.New(),
		components: grammar.ComponentMap(grammar.SCCs(g)),
	}
	q0 := b.n.NewState()
	q1 := b.n.NewState()
	b.n.SetStart(q0)
	b.n.SetAccept(q1)
	b.build(q0, []grammar.Symbol{g.Start()}, q1, nil)
	return b.n, b.taints, nil
}

type nfaBuilder struct {
	g          *grammar.Grammar
	n          *automaton.NFA
	components map[int]*grammar.Component
	taints     []*automaton.Taint
}

// build adds transitions from q0 to q1 accepting the language of the
// sentential form alpha, threading the ambient taint chain through every
// state and edge it creates.
func (b *nfaBuilder) build(q0 *automaton.State, alpha []grammar.Symbol, q1 *automaton.State, chain []*automaton.Taint) {
	if allEpsilon(alpha) {
		b.n.AddEdge(q0, q1, automaton.Epsilon, chain)
		return
	}

	if len(alpha) > 1 {
		q := b.n.NewTaintedState(chain)
		b.build(q0, alpha[:1], q, chain)
		b.build(q, alpha[1:], q1, chain)
		return
	}

	switch sym := alpha[0].(type) {
	case *grammar.Terminal:
		b.n.AddEdge(q0, q1, terminalLabel(sym), chain)
	case *grammar.Nonterminal:
		b.buildNonterminal(q0, sym, q1, chain)
	}
}

func (b *nfaBuilder) buildNonterminal(q0 *automaton.State, a *grammar.Nonterminal, q1 *automaton.State, chain []*automaton.Taint) {
	comp := b.components[a.ID()]

	if comp.Size() == 1 && !b.selfRecursive(a) {
		for _, p := range a.Productions() {
			b.build(q0, p.RHS(), q1, b.chainFor(p, chain))
		}
		return
	}

	// Component-recursive: one fresh state per member for this expansion.
	states := make(map[int]*automaton.State, comp.Size())
	for _, m := range comp.Members() {
		states[m.ID()] = b.n.NewTaintedState(chain)
	}
	// A pure unit cycle classifies as NONE; it behaves the same under
	// either placement, so only LEFT needs distinguishing.
	left := comp.Recursion() == grammar.RecursionLeft

	for _, c := range comp.Members() {
		qc := states[c.ID()]
		for _, p := range c.Productions() {
			childChain := b.chainFor(p, chain)
			rhs := p.RHS()

			first, last := -1, -1
			memberCount := 0
			for i, sym := range rhs {
				nt, ok := sym.(*grammar.Nonterminal)
				if !ok || !comp.Contains(nt) {
					continue
				}
				memberCount++
				if first < 0 {
					first = i
				}
				last = i
			}

			switch {
			case memberCount == 0:
				// Exit production.
				if left {
					b.build(q0, rhs, qc, childChain)
				} else {
					b.build(qc, rhs, q1, childChain)
				}
			case memberCount == 1 && left && first == 0:
				d := rhs[0].(*grammar.Nonterminal)
				b.build(states[d.ID()], rhs[1:], qc, childChain)
			case memberCount == 1 && !left && last == len(rhs)-1:
				d := rhs[last].(*grammar.Nonterminal)
				b.build(qc, rhs[:last], states[d.ID()], childChain)
			default:
				// Never produced by the regular approximation.
			}
		}
	}

	if left {
		b.n.AddEdge(states[a.ID()], q1, automaton.Epsilon, chain)
	} else {
		b.n.AddEdge(q0, states[a.ID()], automaton.Epsilon, chain)
	}
}

// chainFor extends the taint chain when p is an operation production,
// recording the fresh taint in introduction order.
func (b *nfaBuilder) chainFor(p grammar.Production, chain []*automaton.Taint) []*automaton.Taint {
	op := grammar.OperationOf(p)
	if op == nil {
		return chain
	}
	t := automaton.NewTaint(op)
	b.taints = append(b.taints, t)
	child := make([]*automaton.Taint, 0, len(chain)+1)
	child = append(child, chain...)
	return append(child, t)
}

// selfRecursive reports whether some production of a mentions a on its
// right-hand side.
func (b *nfaBuilder) selfRecursive(a *grammar.Nonterminal) bool {
	for _, p := range a.Productions() {
		for _, sym := range p.RHS() {
			if nt, ok := sym.(*grammar.Nonterminal); ok && nt.ID() == a.ID() {
				return true
			}
		}
	}
	return false
}

func allEpsilon(alpha []grammar.Symbol) bool {
	for _, sym := range alpha {
		t, ok := sym.(*grammar.Terminal)
		if !ok || !t.IsEpsilon() {
			return false
		}
	}
	return true
}

// terminalLabel renders a terminal as an edge label: ε for the empty
// string, \Q…\E quotation for literals, and the raw fragment otherwise.
func terminalLabel(t *grammar.Terminal) string {
	if t.IsEpsilon() {
		return automaton.Epsilon
	}
	if t.IsLiteral() {
		return automaton.QuoteLiteral(t.Value())
	}
	return t.Value()
}
