package automaton

import (
	"regexp"
	"strings"
)

// NeverMatch is the pattern returned for an automaton accepting the empty
// language.
const NeverMatch = `[^\s\S]`

// ToRegex extracts a regular expression from the automaton by state
// elimination.
//
// The automaton is copied and framed with a fresh initial and terminal
// state; interior states are then eliminated in ascending id order, each
// elimination folding in·loop*·out paths into direct edges. The resulting
// pattern is over the engine dialect: \Q…\E quotes literals, ε denotes the
// empty-string element and is dropped from concatenations.
func ToRegex(n *NFA) (string, error) {
	if n.Start() == nil {
		return "", ErrNoStartState
	}

	work := n.Clone()
	initial := work.NewState()
	terminal := work.NewState()
	work.AddEdge(initial, work.Start(), Epsilon, nil)

	accepting := 0
	for _, s := range work.States() {
		if s == initial || s == terminal {
			continue
		}
		if s.accepting {
			accepting++
			s.accepting = false
			work.AddEdge(s, terminal, Epsilon, nil)
		}
		s.start = false
	}
	if accepting == 0 {
		return "", ErrNoAcceptState
	}
	work.start = initial
	initial.start = true
	work.accept = terminal
	terminal.accepting = true

	// Interior states in ascending id order for reproducible output.
	interior := make([]*State, 0, len(work.States()))
	for _, s := range work.States() {
		if s != initial && s != terminal {
			interior = append(interior, s)
		}
	}

	for _, k := range interior {
		eliminateState(work, k)
	}

	var alternatives []string
	for _, e := range initial.Edges() {
		if e.Target() == terminal {
			alternatives = append(alternatives, e.Label())
		}
	}
	if len(alternatives) == 0 {
		return NeverMatch, nil
	}
	return unionPattern(alternatives), nil
}

// eliminateState removes k, folding every in·loop*·out path through k into
// a direct edge.
func eliminateState(n *NFA, k *State) {
	var loops []string
	var out []*Edge
	for _, e := range k.Edges() {
		if e.Target() == k {
			loops = append(loops, e.Label())
		} else {
			out = append(out, e)
		}
	}
	loop := Epsilon
	if len(loops) > 0 {
		loop = starPattern(unionPattern(loops))
	}

	for _, src := range n.States() {
		if src == k {
			continue
		}
		kept := src.out[:0]
		var incoming []*Edge
		for _, e := range src.out {
			if e.Target() == k {
				incoming = append(incoming, e)
			} else {
				kept = append(kept, e)
			}
		}
		src.out = kept
		for _, in := range incoming {
			for _, o := range out {
				n.AddEdge(src, o.Target(), concatPattern(in.Label(), loop, o.Label()), nil)
			}
		}
	}

	k.out = nil
	for i, s := range n.states {
		if s == k {
			n.states = append(n.states[:i], n.states[i+1:]...)
			break
		}
	}
}

// concatPattern concatenates pattern fragments, dropping ε elements and
// grouping alternations.
func concatPattern(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		if p == Epsilon || p == "" {
			continue
		}
		if hasTopLevelAlternation(p) {
			b.WriteString("(" + p + ")")
		} else {
			b.WriteString(p)
		}
	}
	if b.Len() == 0 {
		return Epsilon
	}
	return b.String()
}

// unionPattern joins alternatives with |, deduplicating repeated branches.
func unionPattern(parts []string) string {
	seen := make(map[string]bool, len(parts))
	uniq := parts[:0:0]
	for _, p := range parts {
		if !seen[p] {
			seen[p] = true
			uniq = append(uniq, p)
		}
	}
	return strings.Join(uniq, "|")
}

// starPattern applies Kleene star to a pattern fragment.
func starPattern(p string) string {
	if p == Epsilon || p == "" {
		return Epsilon
	}
	if strings.HasSuffix(p, "*") && isSingleUnit(strings.TrimSuffix(p, "*")) {
		// (x*)* = x*
		return p
	}
	if isSingleUnit(p) {
		return p + "*"
	}
	return "(" + p + ")*"
}

// isSingleUnit reports whether p is one starrable unit: a single literal
// character (quoted or bare), a complete character class, or a complete
// group.
func isSingleUnit(p string) bool {
	runes := []rune(p)
	if len(runes) == 1 {
		return true
	}
	if len(runes) == 2 && runes[0] == '\\' {
		return true
	}
	if v, ok := LiteralValue(p); ok {
		return len([]rune(v)) == 1
	}
	if strings.HasPrefix(p, "[") && classEnd(runes, 0) == len(runes)-1 {
		return true
	}
	if strings.HasPrefix(p, "(") && groupEnd(runes) == len(runes)-1 {
		return true
	}
	return false
}

// groupEnd returns the index of the ')' closing the group opened at 0, or -1.
func groupEnd(runes []rune) int {
	depth := 0
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '\\':
			i++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// hasTopLevelAlternation reports whether p contains a | outside any group,
// class or quoted literal.
func hasTopLevelAlternation(p string) bool {
	runes := []rune(p)
	depth := 0
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case c == '\\' && i+1 < len(runes):
			if runes[i+1] == 'Q' {
				// Skip quoted literal content.
				for i += 2; i+1 < len(runes); i++ {
					if runes[i] == '\\' && runes[i+1] == 'E' {
						i++
						break
					}
				}
			} else {
				i++
			}
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == '[':
			if j := classEnd(runes, i); j >= 0 {
				i = j
			}
		case c == '|' && depth == 0:
			return true
		}
	}
	return false
}

// TranslatePattern converts a pattern from the engine dialect to RE2 syntax:
// \Q…\E quotation becomes escaped literal text and the ε element becomes an
// empty match.
func TranslatePattern(pattern string) string {
	var b strings.Builder
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if c == '\\' && i+1 < len(runes) && runes[i+1] == 'Q' {
			var lit strings.Builder
			closed := false
			for i += 2; i < len(runes); i++ {
				if runes[i] == '\\' && i+1 < len(runes) && runes[i+1] == 'E' {
					i++
					closed = true
					break
				}
				lit.WriteRune(runes[i])
			}
			quoted := regexp.QuoteMeta(lit.String())
			if quoted == "" {
				quoted = "(?:)"
			}
			b.WriteString(quoted)
			if !closed {
				break
			}
			continue
		}
		if c == 'ε' {
			b.WriteString("(?:)")
			continue
		}
		if c == '\\' && i+1 < len(runes) {
			b.WriteRune(c)
			i++
			b.WriteRune(runes[i])
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}
