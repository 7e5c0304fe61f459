// Package sanitize checks approximation results for leaks of untrusted
// content.
//
// An approximation pattern over-approximates every string an expression may
// produce. The checker scans only the literal fragments of a pattern: a hit
// means a literal spells an untrusted value and flags the hotspot for
// review. Characters contributed by classes, wildcards and escapes are not
// considered, so a pattern without a hit (for example [\s\S]*) may still
// match strings containing the value. Scanning uses an Aho-Corasick
// automaton so large sets of untrusted values are matched in one pass per
// fragment.
package sanitize

import (
	"strings"

	"github.com/coregx/ahocorasick"
)

// Checker scans pattern literals for a fixed set of untrusted values.
type Checker struct {
	automaton *ahocorasick.Automaton
}

// New builds a checker over the given untrusted values.
func New(untrusted []string) (*Checker, error) {
	builder := ahocorasick.NewBuilder()
	for _, v := range untrusted {
		builder.AddPattern([]byte(v))
	}
	automaton, err := builder.Build()
	if err != nil {
		return nil, err
	}
	return &Checker{automaton: automaton}, nil
}

// Leaks returns the distinct untrusted values spelled out by the literal
// fragments of pattern, in order of first occurrence.
func (c *Checker) Leaks(pattern string) []string {
	var leaks []string
	seen := make(map[string]bool)
	for _, frag := range LiteralFragments(pattern) {
		haystack := []byte(frag)
		at := 0
		for at < len(haystack) {
			m := c.automaton.Find(haystack, at)
			if m == nil {
				break
			}
			v := string(haystack[m.Start:m.End])
			if !seen[v] {
				seen[v] = true
				leaks = append(leaks, v)
			}
			at = m.Start + 1
		}
	}
	return leaks
}

// HasLeak reports whether pattern spells out any untrusted value.
func (c *Checker) HasLeak(pattern string) bool {
	return len(c.Leaks(pattern)) > 0
}

// LiteralFragments extracts the literal text of a pattern: the content of
// \Q…\E quotations plus maximal alphanumeric runs outside classes and
// escapes. Adjacent quotations are joined, since extraction concatenates
// literal edges without separators.
func LiteralFragments(pattern string) []string {
	var fragments []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			fragments = append(fragments, current.String())
			current.Reset()
		}
	}

	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case c == '\\' && i+1 < len(runes) && runes[i+1] == 'Q':
			for i += 2; i < len(runes); i++ {
				if runes[i] == '\\' && i+1 < len(runes) && runes[i+1] == 'E' {
					i++
					break
				}
				current.WriteRune(runes[i])
			}
		case c == '\\' && i+1 < len(runes):
			// Escape sequence: not literal text.
			flush()
			i++
		case c == '[':
			flush()
			for i++; i < len(runes) && runes[i] != ']'; i++ {
				if runes[i] == '\\' {
					i++
				}
			}
		case (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9'):
			current.WriteRune(c)
		default:
			flush()
		}
	}
	flush()
	return fragments
}
