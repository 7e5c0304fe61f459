package grammar

import (
	"github.com/projectdiscovery/gologger"
)

// RegularApproximation applies the Mohri–Nederhof transformation: every
// component whose recursion is BOTH is rewritten into a purely
// right-recursive form using primed nonterminals, so that the grammar as a
// whole becomes strongly regular.
//
// hotspots is the set of nonterminal ids whose primed counterpart must
// derive ε unconditionally: these are the expressions whose language the
// caller observes. Additionally, a nonterminal with a predecessor outside
// its own component gets ε on its primed counterpart, since the component's
// language is observed from the outside there.
func RegularApproximation(g *Grammar, hotspots map[int]struct{}) {
	for _, comp := range SCCs(g) {
		if comp.Recursion() != RecursionBoth {
			continue
		}
		gologger.Debug().Msgf("rewriting BOTH-recursive component %s", comp)
		rewriteComponent(g, comp, hotspots)
	}
}

func rewriteComponent(g *Grammar, comp *Component, hotspots map[int]struct{}) {
	preds := g.AllPredecessors()
	needsEpsilon := func(nt *Nonterminal) bool {
		if _, ok := hotspots[nt.ID()]; ok {
			return true
		}
		for _, pred := range preds[nt.ID()] {
			if !comp.Contains(pred) {
				return true
			}
		}
		return false
	}

	members := comp.Members()
	primed := make(map[int]*Nonterminal, len(members))
	for _, nt := range members {
		p := g.NewNonterminal(nt.String() + "'")
		comp.Add(p)
		primed[nt.ID()] = p
		if needsEpsilon(nt) {
			p.AddProduction(NewTerminalProduction(NewEpsilonTerminal()))
		}
	}

	for _, a := range members {
		ap := primed[a.ID()]
		old := a.Productions()
		a.SetProductions(nil)

		for _, p := range old {
			switch p := p.(type) {
			case *UnitProduction:
				if b := p.Target; comp.Contains(b) {
					a.AddProduction(NewUnitProduction(b))
					primed[b.ID()].AddProduction(NewUnitProduction(ap))
				} else {
					a.AddProduction(NewConcatProduction(b, ap))
				}

			case *ConcatProduction:
				l, r := p.Left, p.Right
				lin, rin := comp.Contains(l), comp.Contains(r)
				switch {
				case lin && rin:
					a.AddProduction(NewUnitProduction(l))
					primed[l.ID()].AddProduction(NewUnitProduction(r))
					primed[r.ID()].AddProduction(NewUnitProduction(ap))
				case lin:
					a.AddProduction(NewUnitProduction(l))
					primed[l.ID()].AddProduction(NewConcatProduction(r, ap))
				case rin:
					a.AddProduction(NewConcatProduction(l, r))
					primed[r.ID()].AddProduction(NewUnitProduction(ap))
				default:
					rest := g.NewNonterminal(a.String() + "~")
					comp.Add(rest)
					a.AddProduction(NewConcatProduction(rest, ap))
					rest.AddProduction(NewConcatProduction(l, r))
				}

			default:
				// Terminal and operation productions sit in a fresh
				// nonterminal; the suffix continues through the primed
				// counterpart.
				rest := g.NewNonterminal(a.String() + "~")
				comp.Add(rest)
				a.AddProduction(NewConcatProduction(rest, ap))
				rest.AddProduction(p)
			}
		}
	}

	comp.SetRecursion(RecursionRight)
}
