package automaton

import (
	"fmt"
	"strings"

	"github.com/coregx/strapprox/charset"
)

// Operation is a string-transforming operation deferred onto the automaton.
//
// The catalogue is a closed sum: Reverse, Trim, ToLowerCase, ToUpperCase and
// the four Replace variants. Each operation carries a priority (higher is
// eliminated first when breaking operation cycles), a character-set
// transformer, and an automaton transformer invoked during taint resolution.
type Operation interface {
	// Priority ranks how eagerly a cyclic occurrence of the operation is
	// eliminated by the character-set pass.
	Priority() int

	// TransformCharset maps the character set of the operand (plus the sets
	// of any further operands for binary operations) to the character set of
	// the operation result.
	TransformCharset(operand charset.Set, args ...charset.Set) charset.Set

	// ApplyToAutomaton rewrites the sub-automaton produced within the scope
	// of one occurrence of the operation. The taint identifies that scope;
	// states is the (possibly empty) set of states carrying it. A transform
	// that leaves tainted edges untouched widens implicitly.
	ApplyToAutomaton(n *NFA, t *Taint, states []*State)

	fmt.Stringer

	isOperation()
}

// sigmaStar is the regex fragment an edge is widened to when the precise
// effect of an operation cannot be tracked.
const sigmaStar = `[\s\S]*`

// Reverse reverses the operand string.
type Reverse struct{}

func (Reverse) isOperation() {}
func (Reverse) Priority() int { return 1 }

// TransformCharset is the identity: reversal does not change the characters.
func (Reverse) TransformCharset(operand charset.Set, _ ...charset.Set) charset.Set {
	return operand
}

// ApplyToAutomaton clones the tainted sub-automaton, reverses every cloned
// edge so that the scope's entry plays the accept role and its exit the
// start role, splices the clone back between the original boundary states,
// and drops the now-unreachable original interior.
func (Reverse) ApplyToAutomaton(n *NFA, t *Taint, _ []*State) {
	tainted := n.EdgesWithTaint(t)
	if len(tainted) == 0 {
		return
	}

	clones := make(map[*State]*State)
	cloneOf := func(s *State) *State {
		if c, ok := clones[s]; ok {
			return c
		}
		c := n.NewTaintedState(s.Taints())
		clones[s] = c
		return c
	}

	var entries, exits []*State
	seenEntry := make(map[*State]bool)
	seenExit := make(map[*State]bool)
	for _, te := range tainted {
		src, dst := te.Source, te.Edge.Target()
		// Reversed edge between the clones: direction flipped, literal
		// content mirrored.
		n.AddEdge(cloneOf(dst), cloneOf(src), reverseLabel(te.Edge.Label()), te.Edge.Taints())
		if !src.HasTaint(t) && !seenEntry[src] {
			seenEntry[src] = true
			entries = append(entries, src)
		}
		if !dst.HasTaint(t) && !seenExit[dst] {
			seenExit[dst] = true
			exits = append(exits, dst)
		}
	}

	// The old exit becomes the start of the reversed scope, the old entry
	// its accept.
	for _, entry := range entries {
		for _, exit := range exits {
			n.AddEdge(entry, cloneOf(exit), Epsilon, nil)
			n.AddEdge(cloneOf(entry), exit, Epsilon, nil)
		}
	}

	for _, te := range tainted {
		n.RemoveEdge(te.Source, te.Edge)
	}
	n.RemoveUnreachable()
}

func (Reverse) String() string { return "reverse" }

// reverseLabel mirrors the content of a quoted literal; ε and raw fragments
// (single-character classes under closure) are direction-symmetric.
func reverseLabel(label string) string {
	v, ok := LiteralValue(label)
	if !ok {
		return label
	}
	runes := []rune(v)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return QuoteLiteral(string(runes))
}

// Trim removes leading and trailing whitespace from the operand string.
type Trim struct{}

func (Trim) isOperation() {}
func (Trim) Priority() int { return 1 }

// TransformCharset is the identity. Trimming only ever removes characters,
// so the operand's set stays an upper bound.
func (Trim) TransformCharset(operand charset.Set, _ ...charset.Set) charset.Set {
	return operand
}

// ApplyToAutomaton leaves the automaton unchanged. The trimmed language is a
// subset of the untrimmed one, so accepting the untrimmed language keeps the
// result an over-approximation.
func (Trim) ApplyToAutomaton(_ *NFA, _ *Taint, _ []*State) {}

func (Trim) String() string { return "trim" }

// ToLowerCase lowercases the operand string.
type ToLowerCase struct{}

func (ToLowerCase) isOperation() {}
func (ToLowerCase) Priority() int { return 2 }

// TransformCharset lowercases every member of a finite set. A Σ-complement
// additionally removes the full uppercase range, since no uppercase
// character survives the operation.
func (ToLowerCase) TransformCharset(operand charset.Set, _ ...charset.Set) charset.Set {
	if operand.IsSigmaComplement() {
		out := operand
		for c := 'A'; c <= 'Z'; c++ {
			out = out.Remove(c)
		}
		return out
	}
	out := charset.Empty()
	for _, c := range operand.Chars() {
		out = out.Add(lowerRune(c))
	}
	return out
}

// ApplyToAutomaton lowercases the content of every tainted literal edge.
func (ToLowerCase) ApplyToAutomaton(n *NFA, t *Taint, _ []*State) {
	for _, te := range n.EdgesWithTaint(t) {
		if v, ok := LiteralValue(te.Edge.Label()); ok {
			te.Edge.SetLabel(QuoteLiteral(strings.ToLower(v)))
		}
	}
}

func (ToLowerCase) String() string { return "toLowerCase" }

// ToUpperCase uppercases the operand string.
type ToUpperCase struct{}

func (ToUpperCase) isOperation() {}
func (ToUpperCase) Priority() int { return 2 }

// TransformCharset uppercases every member of a finite set. A Σ-complement
// additionally removes the full lowercase range.
func (ToUpperCase) TransformCharset(operand charset.Set, _ ...charset.Set) charset.Set {
	if operand.IsSigmaComplement() {
		out := operand
		for c := 'a'; c <= 'z'; c++ {
			out = out.Remove(c)
		}
		return out
	}
	out := charset.Empty()
	for _, c := range operand.Chars() {
		out = out.Add(upperRune(c))
	}
	return out
}

// ApplyToAutomaton uppercases the content of every tainted literal edge.
func (ToUpperCase) ApplyToAutomaton(n *NFA, t *Taint, _ []*State) {
	for _, te := range n.EdgesWithTaint(t) {
		if v, ok := LiteralValue(te.Edge.Label()); ok {
			te.Edge.SetLabel(QuoteLiteral(strings.ToUpper(v)))
		}
	}
}

func (ToUpperCase) String() string { return "toUpperCase" }

func lowerRune(c rune) rune {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

func upperRune(c rune) rune {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}

// ReplaceBothKnown replaces every occurrence of a known character with
// another known character.
type ReplaceBothKnown struct {
	Old rune
	New rune
}

func (ReplaceBothKnown) isOperation() {}
func (ReplaceBothKnown) Priority() int { return 4 }

// TransformCharset swaps Old for New when Old is a member; otherwise the
// set is unchanged.
func (op ReplaceBothKnown) TransformCharset(operand charset.Set, _ ...charset.Set) charset.Set {
	if !operand.Contains(op.Old) {
		return operand
	}
	return operand.Remove(op.Old).Add(op.New)
}

// ApplyToAutomaton rewrites every tainted edge: literal content has Old
// substituted directly; regex fragments have their character classes,
// negated classes and wildcards rewritten conservatively. Ranges inside
// classes are left as they are.
func (op ReplaceBothKnown) ApplyToAutomaton(n *NFA, t *Taint, _ []*State) {
	if op.Old == op.New {
		return
	}
	for _, te := range n.EdgesWithTaint(t) {
		label := te.Edge.Label()
		if label == Epsilon {
			continue
		}
		if v, ok := LiteralValue(label); ok {
			te.Edge.SetLabel(QuoteLiteral(strings.ReplaceAll(v, string(op.Old), string(op.New))))
			continue
		}
		te.Edge.SetLabel(rewriteReplaceFragment(label, op.Old, op.New))
	}
}

func (op ReplaceBothKnown) String() string {
	return fmt.Sprintf("replace[%c,%c]", op.Old, op.New)
}

// ReplaceOldKnown replaces a known character with a value only known at
// runtime. The result set widens to Σ whenever the character can occur.
type ReplaceOldKnown struct {
	Old rune
}

func (ReplaceOldKnown) isOperation() {}
func (ReplaceOldKnown) Priority() int { return 3 }

// TransformCharset widens to Σ when Old is a member; the replacement value
// is unknown and may contribute any character.
func (op ReplaceOldKnown) TransformCharset(operand charset.Set, _ ...charset.Set) charset.Set {
	if operand.Contains(op.Old) {
		return charset.Sigma()
	}
	return operand
}

// ApplyToAutomaton widens every tainted consuming edge to Σ*.
func (op ReplaceOldKnown) ApplyToAutomaton(n *NFA, t *Taint, _ []*State) {
	widenTaintedEdges(n, t)
}

func (op ReplaceOldKnown) String() string {
	return fmt.Sprintf("replace[%c,?]", op.Old)
}

// ReplaceNewKnown replaces a character only known at runtime with a known
// character.
type ReplaceNewKnown struct {
	New rune
}

func (ReplaceNewKnown) isOperation() {}
func (ReplaceNewKnown) Priority() int { return 2 }

// TransformCharset adds New: it may now occur anywhere in the result.
func (op ReplaceNewKnown) TransformCharset(operand charset.Set, _ ...charset.Set) charset.Set {
	return operand.Add(op.New)
}

// ApplyToAutomaton widens every tainted consuming edge to Σ*.
func (op ReplaceNewKnown) ApplyToAutomaton(n *NFA, t *Taint, _ []*State) {
	widenTaintedEdges(n, t)
}

func (op ReplaceNewKnown) String() string {
	return fmt.Sprintf("replace[?,%c]", op.New)
}

// ReplaceNoneKnown replaces one runtime-only value with another.
type ReplaceNoneKnown struct{}

func (ReplaceNoneKnown) isOperation() {}
func (ReplaceNoneKnown) Priority() int { return 5 }

// TransformCharset widens to Σ: nothing is known about either value.
func (ReplaceNoneKnown) TransformCharset(_ charset.Set, _ ...charset.Set) charset.Set {
	return charset.Sigma()
}

// ApplyToAutomaton widens every tainted consuming edge to Σ*.
func (ReplaceNoneKnown) ApplyToAutomaton(n *NFA, t *Taint, _ []*State) {
	widenTaintedEdges(n, t)
}

func (ReplaceNoneKnown) String() string { return "replace[?,?]" }

func widenTaintedEdges(n *NFA, t *Taint) {
	for _, te := range n.EdgesWithTaint(t) {
		if te.Edge.Label() != Epsilon {
			te.Edge.SetLabel(sigmaStar)
		}
	}
}

// rewriteReplaceFragment conservatively rewrites a regex fragment so that
// old can no longer be matched and new can. Bare characters and escapes are
// substituted, \d and the wildcard are expanded, character classes have
// their listed members adjusted. Ranges inside classes are not rewritten.
func rewriteReplaceFragment(frag string, old, new rune) string {
	var b strings.Builder
	runes := []rune(frag)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case c == '\\' && i+1 < len(runes):
			esc := runes[i+1]
			i++
			switch {
			case esc == 'd' && old >= '0' && old <= '9':
				b.WriteString(digitClassWithout(old, new))
			case esc == old:
				b.WriteString(escapeFragmentChar(new))
			default:
				b.WriteByte('\\')
				b.WriteRune(esc)
			}
		case c == '.':
			// The wildcard matches old; narrow it so old is unmatchable.
			b.WriteString("[^" + escapeClassMember(old) + "]")
		case c == '[':
			j := classEnd(runes, i)
			if j < 0 {
				b.WriteRune(c)
				continue
			}
			b.WriteString(rewriteClass(string(runes[i+1:j]), old, new))
			i = j
		case c == old:
			b.WriteString(escapeFragmentChar(new))
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}

// classEnd returns the index of the ']' closing the class opened at i, or -1.
func classEnd(runes []rune, i int) int {
	for j := i + 1; j < len(runes); j++ {
		switch runes[j] {
		case '\\':
			j++
		case ']':
			return j
		}
	}
	return -1
}

// rewriteClass adjusts the listed members of a character class body.
// Positive classes lose old and gain new; negated classes gain old and lose
// new. Range expressions are kept verbatim.
func rewriteClass(body string, old, new rune) string {
	runes := []rune(body)
	negated := len(runes) > 0 && runes[0] == '^'
	if negated {
		runes = runes[1:]
	}

	var members []string
	hasNew, hasOld := false, false
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if i+2 < len(runes) && runes[i+1] == '-' && c != '\\' {
			// Range expression, kept as-is.
			members = append(members, string(runes[i:i+3]))
			i += 2
			continue
		}
		if c == '\\' && i+1 < len(runes) {
			members = append(members, string(runes[i:i+2]))
			if runes[i+1] == old {
				hasOld = true
			}
			if runes[i+1] == new {
				hasNew = true
			}
			i++
			continue
		}
		members = append(members, string(c))
		if c == old {
			hasOld = true
		}
		if c == new {
			hasNew = true
		}
	}

	keep := func(drop rune) []string {
		var out []string
		for _, m := range members {
			r := []rune(m)
			if (len(r) == 1 && r[0] == drop) || (len(r) == 2 && r[0] == '\\' && r[1] == drop) {
				continue
			}
			out = append(out, m)
		}
		return out
	}

	if negated {
		members = keep(new)
		if !hasOld {
			members = append(members, escapeClassMember(old))
		}
		return "[^" + strings.Join(members, "") + "]"
	}
	members = keep(old)
	if !hasNew {
		members = append(members, escapeClassMember(new))
	}
	return "[" + strings.Join(members, "") + "]"
}

// digitClassWithout renders \d with old removed and new added.
func digitClassWithout(old, new rune) string {
	var b strings.Builder
	b.WriteByte('[')
	for c := '0'; c <= '9'; c++ {
		if c != old {
			b.WriteRune(c)
		}
	}
	b.WriteString(escapeClassMember(new))
	b.WriteByte(']')
	return b.String()
}

func escapeClassMember(c rune) string {
	switch c {
	case '\\', ']', '^', '-':
		return "\\" + string(c)
	}
	return string(c)
}

func escapeFragmentChar(c rune) string {
	switch c {
	case '\\', '|', '(', ')', '[', ']', '{', '}', '*', '+', '?', '.', '^', '$':
		return "\\" + string(c)
	}
	return string(c)
}
