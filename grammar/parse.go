package grammar

import (
	"strings"
	"unicode"

	"github.com/coregx/strapprox/automaton"
)

// Parse reads a grammar from the textual rule format:
//
//	A -> symbol_sequence
//	A -> rhs1 | rhs2 | …
//	A -> replace[o,n](B)
//	A -> reverse(B) | trim(B) | toUpperCase(B) | toLowerCase(B)
//
// A single uppercase letter denotes a nonterminal; ε denotes the empty
// string; any other character is a terminal. For each distinct terminal c a
// synthetic nonterminal T<c> holding one literal production is introduced.
// Concatenations are limited to two symbols; longer sequences must be
// flattened upstream. The first nonterminal mentioned becomes the start
// nonterminal.
func Parse(src string) (*Grammar, error) {
	p := &parser{
		g:         New(),
		byLabel:   make(map[string]*Nonterminal),
		terminals: make(map[rune]*Nonterminal),
	}
	for i, line := range strings.Split(src, "\n") {
		if err := p.parseLine(i+1, line); err != nil {
			return nil, err
		}
	}
	return p.g, nil
}

type parser struct {
	g         *Grammar
	byLabel   map[string]*Nonterminal
	terminals map[rune]*Nonterminal
}

func (p *parser) nonterminal(label string) *Nonterminal {
	if nt, ok := p.byLabel[label]; ok {
		return nt
	}
	nt := p.g.NewNonterminal(label)
	p.byLabel[label] = nt
	if p.g.Start() == nil {
		p.g.SetStart(nt)
	}
	return nt
}

func (p *parser) terminal(c rune) *Nonterminal {
	if nt, ok := p.terminals[c]; ok {
		return nt
	}
	nt := p.g.NewNonterminal("T" + string(c))
	nt.AddProduction(NewTerminalProduction(NewLiteralTerminal(string(c))))
	p.terminals[c] = nt
	return nt
}

func (p *parser) parseLine(lineNo int, line string) error {
	text := strings.TrimSpace(line)
	if text == "" {
		return nil
	}
	fail := func(err error) error {
		return &ParseError{Line: lineNo, Text: text, Err: err}
	}

	lhs, rhs, ok := strings.Cut(text, "->")
	if !ok {
		return fail(ErrInvalidProduction)
	}
	label := strings.TrimSpace(lhs)
	runes := []rune(label)
	if len(runes) != 1 || !unicode.IsUpper(runes[0]) {
		return fail(ErrInvalidProduction)
	}
	nt := p.nonterminal(label)

	for _, alt := range splitAlternatives(rhs) {
		prod, err := p.parseAlternative(strings.TrimSpace(alt))
		if err != nil {
			return fail(err)
		}
		nt.AddProduction(prod)
	}
	return nil
}

// splitAlternatives splits on | at the top level, skipping operation
// argument brackets and call parentheses.
func splitAlternatives(rhs string) []string {
	var alts []string
	runes := []rune(rhs)
	start := 0
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '[':
			for i < len(runes) && runes[i] != ']' {
				i++
			}
		case '(':
			// Only a call's parentheses group; a bare ( is a terminal.
			if i > start && isNameRune(runes[i-1]) {
				for i < len(runes) && runes[i] != ')' {
					i++
				}
			}
		case '|':
			alts = append(alts, string(runes[start:i]))
			start = i + 1
		}
	}
	alts = append(alts, string(runes[start:]))
	return alts
}

func isNameRune(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == ']'
}

func (p *parser) parseAlternative(alt string) (Production, error) {
	if alt == "" {
		return NewTerminalProduction(NewEpsilonTerminal()), nil
	}
	if name, args, operand, ok := matchOperationCall(alt); ok {
		return p.parseOperation(name, args, operand)
	}
	return p.parseSequence(alt)
}

// matchOperationCall recognises name[args](X) and name(X) forms.
func matchOperationCall(alt string) (name, args string, operand rune, ok bool) {
	runes := []rune(alt)
	i := 0
	for i < len(runes) && isNameRune(runes[i]) && runes[i] != ']' {
		i++
	}
	if i < 2 {
		// Single letters are grammar symbols, never operation names.
		return "", "", 0, false
	}
	name = string(runes[:i])
	if i < len(runes) && runes[i] == '[' {
		j := i + 1
		for j < len(runes) && runes[j] != ']' {
			j++
		}
		if j == len(runes) {
			return "", "", 0, false
		}
		args = string(runes[i+1 : j])
		i = j + 1
	}
	rest := strings.TrimSpace(string(runes[i:]))
	restRunes := []rune(rest)
	if len(restRunes) < 3 || restRunes[0] != '(' || restRunes[len(restRunes)-1] != ')' {
		return "", "", 0, false
	}
	inner := strings.TrimSpace(string(restRunes[1 : len(restRunes)-1]))
	innerRunes := []rune(inner)
	if len(innerRunes) != 1 || !unicode.IsUpper(innerRunes[0]) {
		return "", "", 0, false
	}
	return name, args, innerRunes[0], true
}

func (p *parser) parseOperation(name, args string, operand rune) (Production, error) {
	target := p.nonterminal(string(operand))
	switch name {
	case "replace":
		parts := strings.Split(args, ",")
		if len(parts) != 2 {
			return nil, ErrInvalidReplaceArity
		}
		oldRunes, newRunes := []rune(parts[0]), []rune(parts[1])
		if len(oldRunes) != 1 || len(newRunes) != 1 {
			return nil, ErrInvalidReplaceArity
		}
		op := automaton.ReplaceBothKnown{Old: oldRunes[0], New: newRunes[0]}
		return NewUnaryOpProduction(op, target), nil
	case "reverse", "trim", "toUpperCase", "toLowerCase":
		if args != "" {
			return nil, ErrInvalidProduction
		}
		var op automaton.Operation
		switch name {
		case "reverse":
			op = automaton.Reverse{}
		case "trim":
			op = automaton.Trim{}
		case "toUpperCase":
			op = automaton.ToUpperCase{}
		case "toLowerCase":
			op = automaton.ToLowerCase{}
		}
		return NewUnaryOpProduction(op, target), nil
	default:
		return nil, ErrUnknownOperation
	}
}

func (p *parser) parseSequence(alt string) (Production, error) {
	var symbols []*Nonterminal
	epsilonOnly := true
	for _, c := range alt {
		if unicode.IsSpace(c) {
			continue
		}
		if c == 'ε' {
			continue
		}
		epsilonOnly = false
		if unicode.IsUpper(c) {
			symbols = append(symbols, p.nonterminal(string(c)))
		} else {
			symbols = append(symbols, p.terminal(c))
		}
	}
	if epsilonOnly && len(symbols) == 0 {
		return NewTerminalProduction(NewEpsilonTerminal()), nil
	}
	switch len(symbols) {
	case 1:
		return NewUnitProduction(symbols[0]), nil
	case 2:
		return NewConcatProduction(symbols[0], symbols[1]), nil
	default:
		return nil, ErrInvalidProduction
	}
}
