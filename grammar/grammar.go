// Package grammar provides the context-free grammar model consumed by the
// approximation engine, together with the passes that prepare a grammar for
// automaton construction: SCC computation with recursion classification,
// per-nonterminal character-set approximation, and the Mohri–Nederhof
// regular approximation.
//
// Each nonterminal models one program expression. Nonterminals are
// identified by a stable nonnegative integer id; equality is by id only, and
// ids are never reused within a grammar.
package grammar

import (
	"fmt"
	"sort"
	"strings"

	"github.com/coregx/strapprox/charset"
)

// Nonterminal is a grammar variable with a mutable production set.
type Nonterminal struct {
	id          int
	label       string
	productions []Production

	cs    charset.Set
	hasCS bool
}

// ID returns the nonterminal's stable identifier.
func (nt *Nonterminal) ID() int {
	return nt.id
}

// Label returns the display label.
func (nt *Nonterminal) Label() string {
	return nt.label
}

// SetLabel sets the display label.
func (nt *Nonterminal) SetLabel(label string) {
	nt.label = label
}

// Productions returns the production list in insertion order.
func (nt *Nonterminal) Productions() []Production {
	return nt.productions
}

// AddProduction appends a production.
func (nt *Nonterminal) AddProduction(p Production) {
	nt.productions = append(nt.productions, p)
}

// SetProductions replaces the production list.
func (nt *Nonterminal) SetProductions(ps []Production) {
	nt.productions = ps
}

// ReplaceProduction swaps the production at index i.
func (nt *Nonterminal) ReplaceProduction(i int, p Production) {
	nt.productions[i] = p
}

// Charset returns the approximated character set, or the empty set when the
// character-set pass has not run yet.
func (nt *Nonterminal) Charset() charset.Set {
	if !nt.hasCS {
		return charset.Empty()
	}
	return nt.cs
}

// SetCharset records the approximated character set.
func (nt *Nonterminal) SetCharset(cs charset.Set) {
	nt.cs = cs
	nt.hasCS = true
}

// String returns the nonterminal's label, or a placeholder derived from the
// id when no label is set.
func (nt *Nonterminal) String() string {
	if nt.label == "" {
		return fmt.Sprintf("N%d", nt.id)
	}
	return nt.label
}

func (nt *Nonterminal) isSymbol() {}

// Grammar is a mutable context-free grammar with a designated start
// nonterminal.
type Grammar struct {
	nonterminals map[int]*Nonterminal
	start        *Nonterminal
	maxID        int
}

// New creates an empty grammar.
func New() *Grammar {
	return &Grammar{nonterminals: make(map[int]*Nonterminal)}
}

// AddNonterminal registers nt. Registering an id twice is a programmer
// error; the later registration wins.
func (g *Grammar) AddNonterminal(nt *Nonterminal) {
	g.nonterminals[nt.id] = nt
	if nt.id >= g.maxID {
		g.maxID = nt.id + 1
	}
}

// GetOrCreateNonterminal returns the nonterminal with the given id, creating
// and registering it if absent.
func (g *Grammar) GetOrCreateNonterminal(id int) *Nonterminal {
	if nt, ok := g.nonterminals[id]; ok {
		return nt
	}
	nt := &Nonterminal{id: id}
	g.AddNonterminal(nt)
	return nt
}

// NewNonterminal mints a nonterminal whose id is strictly greater than any
// id previously seen by the grammar, registers it, and returns it.
func (g *Grammar) NewNonterminal(label string) *Nonterminal {
	nt := &Nonterminal{id: g.maxID, label: label}
	g.AddNonterminal(nt)
	return nt
}

// Nonterminal returns the nonterminal with the given id, or nil.
func (g *Grammar) Nonterminal(id int) *Nonterminal {
	return g.nonterminals[id]
}

// Nonterminals returns all nonterminals in ascending id order.
func (g *Grammar) Nonterminals() []*Nonterminal {
	out := make([]*Nonterminal, 0, len(g.nonterminals))
	for _, nt := range g.nonterminals {
		out = append(out, nt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// Len returns the number of nonterminals.
func (g *Grammar) Len() int {
	return len(g.nonterminals)
}

// Start returns the start nonterminal, or nil.
func (g *Grammar) Start() *Nonterminal {
	return g.start
}

// SetStart designates the start nonterminal.
func (g *Grammar) SetStart(nt *Nonterminal) {
	g.start = nt
}

// SuccessorsOf returns the distinct nonterminals referenced by nt's
// productions, in production order. Terminals are dropped.
func (g *Grammar) SuccessorsOf(nt *Nonterminal) []*Nonterminal {
	var out []*Nonterminal
	seen := make(map[int]bool)
	for _, p := range nt.productions {
		for _, target := range p.Targets() {
			if !seen[target.id] {
				seen[target.id] = true
				out = append(out, target)
			}
		}
	}
	return out
}

// AllPredecessors computes, in one pass over all productions, the distinct
// predecessors of every nonterminal, keyed by id.
func (g *Grammar) AllPredecessors() map[int][]*Nonterminal {
	preds := make(map[int][]*Nonterminal, len(g.nonterminals))
	seen := make(map[[2]int]bool)
	for _, nt := range g.Nonterminals() {
		for _, p := range nt.productions {
			for _, target := range p.Targets() {
				key := [2]int{target.id, nt.id}
				if !seen[key] {
					seen[key] = true
					preds[target.id] = append(preds[target.id], nt)
				}
			}
		}
	}
	return preds
}

// String renders the grammar in the textual rule format. Synthetic
// single-character terminal nonterminals are inlined as their character and
// their own rules are omitted.
func (g *Grammar) String() string {
	var b strings.Builder
	for _, nt := range g.Nonterminals() {
		if isSyntheticTerminal(nt) || len(nt.productions) == 0 {
			continue
		}
		b.WriteString(nt.String())
		b.WriteString(" -> ")
		for i, p := range nt.productions {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(renderProduction(p))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// renderProduction renders p with synthetic terminal nonterminals inlined.
func renderProduction(p Production) string {
	switch p := p.(type) {
	case *TerminalProduction:
		return p.Terminal.String()
	case *UnitProduction:
		return renderSymbolRef(p.Target)
	case *ConcatProduction:
		return renderSymbolRef(p.Left) + " " + renderSymbolRef(p.Right)
	case *UnaryOpProduction:
		return fmt.Sprintf("%s(%s)", p.Op, renderSymbolRef(p.Target))
	case *BinaryOpProduction:
		return fmt.Sprintf("%s(%s, %s)", p.Op, renderSymbolRef(p.Target), renderSymbolRef(p.Arg))
	default:
		return p.String()
	}
}

func renderSymbolRef(nt *Nonterminal) string {
	if isSyntheticTerminal(nt) {
		return nt.label[1:]
	}
	return nt.String()
}

// isSyntheticTerminal recognises the nonterminals the parser introduces for
// single terminal characters: label "T<c>" with exactly one literal
// single-character production.
func isSyntheticTerminal(nt *Nonterminal) bool {
	if len(nt.label) < 2 || nt.label[0] != 'T' || len([]rune(nt.label)) != 2 {
		return false
	}
	if len(nt.productions) != 1 {
		return false
	}
	tp, ok := nt.productions[0].(*TerminalProduction)
	return ok && tp.Terminal.IsLiteral() && len([]rune(tp.Terminal.Value())) == 1
}

// ToDot renders the grammar graph in Graphviz DOT format for diagnostics.
// Each production contributes an edge per referenced nonterminal.
func (g *Grammar) ToDot() string {
	var b strings.Builder
	b.WriteString("digraph grammar {\n")
	for _, nt := range g.Nonterminals() {
		shape := "ellipse"
		if g.start == nt {
			shape = "doubleoctagon"
		}
		fmt.Fprintf(&b, "  n%d [label=%q, shape=%s];\n", nt.id, nt.String(), shape)
	}
	for _, nt := range g.Nonterminals() {
		for _, p := range nt.productions {
			label := ""
			if op := OperationOf(p); op != nil {
				label = op.String()
			}
			for _, target := range p.Targets() {
				fmt.Fprintf(&b, "  n%d -> n%d [label=%q];\n", nt.id, target.id, label)
			}
		}
	}
	b.WriteString("}\n")
	return b.String()
}
