package grammar

import (
	"fmt"

	"github.com/coregx/strapprox/automaton"
)

// Symbol is one element of a sentential form: a *Terminal or a *Nonterminal.
type Symbol interface {
	isSymbol()
}

// Production is a single rule attached to a nonterminal. The set of variants
// is closed: TerminalProduction, UnitProduction, ConcatProduction,
// UnaryOpProduction and BinaryOpProduction.
type Production interface {
	// Targets returns the nonterminals referenced on the right-hand side,
	// including operation operands.
	Targets() []*Nonterminal

	// RHS returns the sentential form the production derives. For operation
	// productions this is the subject operand only: the operation itself is
	// replayed on the automaton via taints.
	RHS() []Symbol

	fmt.Stringer

	isProduction()
}

// TerminalProduction derives a single terminal.
type TerminalProduction struct {
	Terminal *Terminal
}

// NewTerminalProduction creates X → t.
func NewTerminalProduction(t *Terminal) *TerminalProduction {
	return &TerminalProduction{Terminal: t}
}

func (p *TerminalProduction) isProduction() {}
func (p *TerminalProduction) Targets() []*Nonterminal { return nil }
func (p *TerminalProduction) RHS() []Symbol           { return []Symbol{p.Terminal} }
func (p *TerminalProduction) String() string          { return p.Terminal.String() }

// UnitProduction derives a single nonterminal.
type UnitProduction struct {
	Target *Nonterminal
}

// NewUnitProduction creates X → A.
func NewUnitProduction(target *Nonterminal) *UnitProduction {
	return &UnitProduction{Target: target}
}

func (p *UnitProduction) isProduction() {}
func (p *UnitProduction) Targets() []*Nonterminal { return []*Nonterminal{p.Target} }
func (p *UnitProduction) RHS() []Symbol           { return []Symbol{p.Target} }
func (p *UnitProduction) String() string          { return p.Target.Label() }

// ConcatProduction derives the concatenation of two nonterminals.
type ConcatProduction struct {
	Left  *Nonterminal
	Right *Nonterminal
}

// NewConcatProduction creates X → A B.
func NewConcatProduction(left, right *Nonterminal) *ConcatProduction {
	return &ConcatProduction{Left: left, Right: right}
}

func (p *ConcatProduction) isProduction() {}

func (p *ConcatProduction) Targets() []*Nonterminal {
	return []*Nonterminal{p.Left, p.Right}
}

func (p *ConcatProduction) RHS() []Symbol {
	return []Symbol{p.Left, p.Right}
}

func (p *ConcatProduction) String() string {
	return p.Left.Label() + " " + p.Right.Label()
}

// UnaryOpProduction derives a string operation applied to one nonterminal.
type UnaryOpProduction struct {
	Op     automaton.Operation
	Target *Nonterminal
}

// NewUnaryOpProduction creates X → op(A).
func NewUnaryOpProduction(op automaton.Operation, target *Nonterminal) *UnaryOpProduction {
	return &UnaryOpProduction{Op: op, Target: target}
}

func (p *UnaryOpProduction) isProduction() {}
func (p *UnaryOpProduction) Targets() []*Nonterminal { return []*Nonterminal{p.Target} }
func (p *UnaryOpProduction) RHS() []Symbol           { return []Symbol{p.Target} }

func (p *UnaryOpProduction) String() string {
	return fmt.Sprintf("%s(%s)", p.Op, p.Target.Label())
}

// BinaryOpProduction derives a string operation applied to a subject
// nonterminal with a second operand supplying a runtime value (such as the
// replacement argument of replace).
type BinaryOpProduction struct {
	Op     automaton.Operation
	Target *Nonterminal
	Arg    *Nonterminal
}

// NewBinaryOpProduction creates X → op(A, B).
func NewBinaryOpProduction(op automaton.Operation, target, arg *Nonterminal) *BinaryOpProduction {
	return &BinaryOpProduction{Op: op, Target: target, Arg: arg}
}

func (p *BinaryOpProduction) isProduction() {}

func (p *BinaryOpProduction) Targets() []*Nonterminal {
	return []*Nonterminal{p.Target, p.Arg}
}

// RHS returns the subject operand only: the language of the production is
// the transformed language of the subject.
func (p *BinaryOpProduction) RHS() []Symbol {
	return []Symbol{p.Target}
}

func (p *BinaryOpProduction) String() string {
	return fmt.Sprintf("%s(%s, %s)", p.Op, p.Target.Label(), p.Arg.Label())
}

// OperationOf returns the operation carried by an operation production, or
// nil for plain productions.
func OperationOf(p Production) automaton.Operation {
	switch p := p.(type) {
	case *UnaryOpProduction:
		return p.Op
	case *BinaryOpProduction:
		return p.Op
	default:
		return nil
	}
}
