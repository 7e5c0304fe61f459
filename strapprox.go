// Package strapprox computes regular over-approximations of the string
// values a program expression may take.
//
// The input is a context-free grammar in which every nonterminal models one
// program expression; string-transforming operations (replace, reverse,
// case conversion, trim) appear as operation productions. The engine runs
// the Christensen/Møller/Schwartzbach pipeline:
//
//  1. approximate a per-nonterminal character set and break cycles through
//     operation productions,
//  2. rewrite the grammar into strongly regular form (Mohri–Nederhof),
//  3. construct an ε-NFA with taint annotations (Nederhof),
//  4. replay the deferred operations on the tainted sub-automata,
//  5. optionally determinise, and extract a regular expression by state
//     elimination.
//
// The result is a superset of the expression's runtime language: a match
// failure proves a string impossible, a match does not prove it possible.
//
// Basic usage:
//
//	res, err := strapprox.ApproximateText("A -> a | B\nB -> A b")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Pattern)     // regular expression over the \Q…\E dialect
//	res.Match("abb")             // true
package strapprox

import (
	"errors"
	"regexp"

	"github.com/projectdiscovery/gologger"

	"github.com/coregx/strapprox/automaton"
	"github.com/coregx/strapprox/grammar"
)

// ErrMissingStart indicates the grammar has no designated start nonterminal
var ErrMissingStart = errors.New("grammar has no start nonterminal")

// Config controls the optional pipeline stages.
type Config struct {
	// Determinize runs the powerset construction on the resolved NFA before
	// extraction. The extractor accepts NFAs, so this is off by default.
	Determinize bool

	// MaxDFAStates caps determinisation; 0 uses automaton.DefaultMaxStates.
	MaxDFAStates int
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		Determinize:  false,
		MaxDFAStates: automaton.DefaultMaxStates,
	}
}

// Result is a computed approximation.
type Result struct {
	// Pattern is the extracted regular expression, over a dialect where
	// \Q…\E quotes literal text and ε denotes the empty-string element.
	Pattern string

	nfa *automaton.NFA

	re    *regexp.Regexp
	reErr error
}

// NFA returns the resolved automaton the pattern was extracted from.
func (r *Result) NFA() *automaton.NFA {
	return r.nfa
}

// Match reports whether s is in the approximated language. The pattern is
// translated to RE2 syntax and anchored on first use.
func (r *Result) Match(s string) bool {
	if r.re == nil && r.reErr == nil {
		r.re, r.reErr = regexp.Compile("^(?:" + automaton.TranslatePattern(r.Pattern) + ")$")
	}
	if r.reErr != nil {
		return false
	}
	return r.re.MatchString(s)
}

// Approximate runs the full pipeline on g with the default configuration.
// hotspots lists the nonterminal ids under observation; when empty, the
// start nonterminal is the hotspot.
func Approximate(g *grammar.Grammar, hotspots ...int) (*Result, error) {
	return ApproximateWithConfig(g, DefaultConfig(), hotspots...)
}

// ApproximateWithConfig runs the full pipeline on g. The grammar is mutated
// in place by the preparation passes.
func ApproximateWithConfig(g *grammar.Grammar, cfg Config, hotspots ...int) (*Result, error) {
	if g.Start() == nil {
		return nil, ErrMissingStart
	}

	hotspotSet := make(map[int]struct{}, len(hotspots)+1)
	for _, id := range hotspots {
		hotspotSet[id] = struct{}{}
	}
	if len(hotspotSet) == 0 {
		hotspotSet[g.Start().ID()] = struct{}{}
	}

	gologger.Verbose().Msgf("approximating grammar with %d nonterminals", g.Len())
	grammar.ApproximateCharsets(g)
	grammar.BreakOperationCycles(g)
	grammar.RegularApproximation(g, hotspotSet)

	nfa, taints, err := BuildAutomaton(g)
	if err != nil {
		return nil, err
	}
	gologger.Verbose().Msgf("constructed automaton with %d states, %d taints", nfa.StateCount(), len(taints))
	automaton.Resolve(nfa, taints)

	if cfg.Determinize {
		nfa, err = automaton.Determinize(nfa, cfg.MaxDFAStates)
		if err != nil {
			return nil, err
		}
	}

	pattern, err := automaton.ToRegex(nfa)
	if err != nil {
		return nil, err
	}
	gologger.Verbose().Msgf("extracted pattern %s", pattern)
	return &Result{Pattern: pattern, nfa: nfa}, nil
}

// ApproximateText parses a grammar in the textual rule format and runs the
// pipeline on it. hotspotLabels name the nonterminals under observation;
// when empty, the start nonterminal is the hotspot.
func ApproximateText(src string, hotspotLabels ...string) (*Result, error) {
	g, err := grammar.Parse(src)
	if err != nil {
		return nil, err
	}
	var hotspots []int
	for _, label := range hotspotLabels {
		for _, nt := range g.Nonterminals() {
			if nt.Label() == label {
				hotspots = append(hotspots, nt.ID())
			}
		}
	}
	return Approximate(g, hotspots...)
}
