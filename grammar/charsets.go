package grammar

import (
	"github.com/projectdiscovery/gologger"

	"github.com/coregx/strapprox/charset"
)

// ApproximateCharsets computes, for every nonterminal, an upper bound on the
// characters any derivable string may contain.
//
// Components are processed in reverse topological order, so the sets of a
// component's successors are already stable when its own fix-point runs. The
// worklist is seeded in ascending id order and re-enqueues intra-component
// predecessors on change, which keeps convergence deterministic.
func ApproximateCharsets(g *Grammar) {
	preds := g.AllPredecessors()
	for _, comp := range SCCs(g) {
		approximateComponent(comp, preds)
	}
}

func approximateComponent(comp *Component, preds map[int][]*Nonterminal) {
	members := comp.Members()
	for _, nt := range members {
		nt.SetCharset(charset.Empty())
	}

	queue := append([]*Nonterminal(nil), members...)
	queued := make(map[int]bool, len(members))
	for _, nt := range members {
		queued[nt.ID()] = true
	}

	for len(queue) > 0 {
		nt := queue[0]
		queue = queue[1:]
		queued[nt.ID()] = false

		cs := charset.Empty()
		for _, p := range nt.Productions() {
			cs = cs.Union(productionCharset(p))
		}
		if cs.Equal(nt.Charset()) {
			continue
		}
		nt.SetCharset(cs)
		for _, pred := range preds[nt.ID()] {
			if comp.Contains(pred) && !queued[pred.ID()] {
				queued[pred.ID()] = true
				queue = append(queue, pred)
			}
		}
	}
}

// productionCharset distributes the character-set bound over one production.
func productionCharset(p Production) charset.Set {
	switch p := p.(type) {
	case *TerminalProduction:
		return p.Terminal.Charset()
	case *UnitProduction:
		return p.Target.Charset()
	case *ConcatProduction:
		return p.Left.Charset().Union(p.Right.Charset())
	case *UnaryOpProduction:
		return p.Op.TransformCharset(p.Target.Charset())
	case *BinaryOpProduction:
		return p.Op.TransformCharset(p.Target.Charset(), p.Arg.Charset())
	default:
		return charset.Sigma()
	}
}

// BreakOperationCycles removes every operation production that lies on a
// cycle of the grammar graph.
//
// A cyclic operation production cannot be replayed on the automaton: its
// taint scope would wrap around the recursion. The highest-priority cyclic
// occurrence is replaced by a terminal production over the character set the
// operation produces from its operands, then SCCs are recomputed and the
// search repeats until no cyclic operation production remains. Character
// sets must have been approximated beforehand.
func BreakOperationCycles(g *Grammar) {
	for {
		comps := SCCs(g)
		owner, index := findCyclicOperation(comps)
		if owner == nil {
			return
		}
		p := owner.Productions()[index]
		cs := operationResultCharset(p)
		gologger.Debug().Msgf("breaking operation cycle at %s -> %s", owner, p)
		owner.ReplaceProduction(index, NewTerminalProduction(NewRegexTerminal(cs.ToRegexPattern(), cs)))
	}
}

// findCyclicOperation returns the owner and production index of the
// highest-priority operation production whose operand lies in the owner's
// own component, or (nil, -1). Scan order over components, members and
// productions is deterministic, so priority ties resolve stably.
func findCyclicOperation(comps []*Component) (*Nonterminal, int) {
	var bestOwner *Nonterminal
	bestIndex := -1
	bestPriority := -1
	for _, comp := range comps {
		for _, nt := range comp.Members() {
			for i, p := range nt.Productions() {
				op := OperationOf(p)
				if op == nil || op.Priority() <= bestPriority {
					continue
				}
				for _, target := range p.Targets() {
					if comp.Contains(target) {
						bestOwner, bestIndex, bestPriority = nt, i, op.Priority()
						break
					}
				}
			}
		}
	}
	return bestOwner, bestIndex
}

// operationResultCharset evaluates an operation production's charset
// transformer over its operands.
func operationResultCharset(p Production) charset.Set {
	switch p := p.(type) {
	case *UnaryOpProduction:
		return p.Op.TransformCharset(p.Target.Charset())
	case *BinaryOpProduction:
		return p.Op.TransformCharset(p.Target.Charset(), p.Arg.Charset())
	default:
		return charset.Sigma()
	}
}
