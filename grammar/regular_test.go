package grammar

import (
	"testing"
)

func hotspotSet(ids ...int) map[int]struct{} {
	m := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

// TestRegularApproximation_RemovesBoth tests that no BOTH component
// survives the rewrite
func TestRegularApproximation_RemovesBoth(t *testing.T) {
	g := mustParse(t, "S -> T S | a\nT -> S P\nP -> +")
	s := g.Start()

	RegularApproximation(g, hotspotSet(s.ID()))

	for _, comp := range SCCs(g) {
		if comp.Recursion() == RecursionBoth {
			t.Errorf("BOTH component survived: %v", comp)
		}
	}
}

// TestRegularApproximation_PrimedNonterminals tests priming and ε placement
func TestRegularApproximation_PrimedNonterminals(t *testing.T) {
	g := mustParse(t, "S -> T S | a\nT -> S P\nP -> +")
	s := g.Start()
	before := g.Len()

	RegularApproximation(g, hotspotSet(s.ID()))

	// One primed nonterminal per component member: S' and T'.
	if g.Len() != before+2 {
		t.Errorf("Len() = %d, want %d", g.Len(), before+2)
	}

	var sPrime, tPrime *Nonterminal
	for _, nt := range g.Nonterminals() {
		switch nt.Label() {
		case "S'":
			sPrime = nt
		case "T'":
			tPrime = nt
		}
	}
	if sPrime == nil || tPrime == nil {
		t.Fatal("primed nonterminals missing")
	}
	if sPrime.ID() < before || tPrime.ID() < before {
		t.Error("primed nonterminals must use fresh ids")
	}

	// The hotspot's primed counterpart derives ε; T is only observed from
	// inside the component, so T' does not.
	if !hasEpsilonProduction(sPrime) {
		t.Error("S' must derive ε: S is the hotspot")
	}
	if hasEpsilonProduction(tPrime) {
		t.Error("T' must not derive ε: no hotspot, no outside predecessor")
	}
}

// TestRegularApproximation_CrossComponentEpsilon tests the outside
// predecessor criterion
func TestRegularApproximation_CrossComponentEpsilon(t *testing.T) {
	// {A,B} is BOTH-recursive; C sits outside and references A.
	g := mustParse(t, "S -> C c\nC -> A | d\nA -> B A | a\nB -> A b")
	var a, b *Nonterminal
	for _, nt := range g.Nonterminals() {
		switch nt.Label() {
		case "A":
			a = nt
		case "B":
			b = nt
		}
	}

	// Hotspot is S, far outside the rewritten component.
	RegularApproximation(g, hotspotSet(g.Start().ID()))

	var aPrime, bPrime *Nonterminal
	for _, nt := range g.Nonterminals() {
		switch nt.Label() {
		case "A'":
			aPrime = nt
		case "B'":
			bPrime = nt
		}
	}
	if aPrime == nil || bPrime == nil {
		t.Fatalf("primed nonterminals missing for %v/%v", a, b)
	}
	// C -> A crosses into the component, so A' derives ε. B is referenced
	// only from within {A,B}.
	if !hasEpsilonProduction(aPrime) {
		t.Error("A' must derive ε: predecessor C lies in a different SCC")
	}
	if hasEpsilonProduction(bPrime) {
		t.Error("B' must not derive ε")
	}
}

// TestRegularApproximation_KeepsLeftAlone tests that LEFT components are
// not rewritten
func TestRegularApproximation_KeepsLeftAlone(t *testing.T) {
	g := mustParse(t, "S -> A a\nA -> S B | B b\nB -> B c | d")
	before := g.Len()

	RegularApproximation(g, hotspotSet(g.Start().ID()))

	if g.Len() != before {
		t.Errorf("LEFT-recursive grammar gained nonterminals: %d -> %d", before, g.Len())
	}
}

func hasEpsilonProduction(nt *Nonterminal) bool {
	for _, p := range nt.Productions() {
		if tp, ok := p.(*TerminalProduction); ok && tp.Terminal.IsEpsilon() {
			return true
		}
	}
	return false
}
