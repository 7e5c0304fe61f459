package automaton

import (
	"testing"

	"github.com/coregx/strapprox/charset"
)

// TestOperation_Priorities tests the cycle-elimination ranking
func TestOperation_Priorities(t *testing.T) {
	tests := []struct {
		op   Operation
		want int
	}{
		{Reverse{}, 1},
		{Trim{}, 1},
		{ToLowerCase{}, 2},
		{ToUpperCase{}, 2},
		{ReplaceBothKnown{Old: 'a', New: 'b'}, 4},
		{ReplaceOldKnown{Old: 'a'}, 3},
		{ReplaceNewKnown{New: 'b'}, 2},
		{ReplaceNoneKnown{}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			if got := tt.op.Priority(); got != tt.want {
				t.Errorf("Priority() = %d, want %d", got, tt.want)
			}
		})
	}
}

// TestOperation_TransformCharset tests the charset transformers
func TestOperation_TransformCharset(t *testing.T) {
	tests := []struct {
		name string
		op   Operation
		in   charset.Set
		want charset.Set
	}{
		{"reverse identity", Reverse{}, charset.Of('a', 'b'), charset.Of('a', 'b')},
		{"trim identity", Trim{}, charset.SigmaWithout('x'), charset.SigmaWithout('x')},
		{"lower finite", ToLowerCase{}, charset.Of('A', 'b', '1'), charset.Of('a', 'b', '1')},
		{"lower complement", ToLowerCase{}, charset.SigmaWithout('x'),
			lowerComplement(charset.SigmaWithout('x'))},
		{"upper finite", ToUpperCase{}, charset.Of('a', 'B', '!'), charset.Of('A', 'B', '!')},
		{"replace both hit", ReplaceBothKnown{Old: 'a', New: 'z'}, charset.Of('a', 'b'), charset.Of('z', 'b')},
		{"replace both miss", ReplaceBothKnown{Old: 'q', New: 'z'}, charset.Of('a', 'b'), charset.Of('a', 'b')},
		{"replace old hit", ReplaceOldKnown{Old: 'a'}, charset.Of('a'), charset.Sigma()},
		{"replace old miss", ReplaceOldKnown{Old: 'q'}, charset.Of('a'), charset.Of('a')},
		{"replace new", ReplaceNewKnown{New: 'z'}, charset.Of('a'), charset.Of('a', 'z')},
		{"replace none", ReplaceNoneKnown{}, charset.Of('a'), charset.Sigma()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.op.TransformCharset(tt.in); !got.Equal(tt.want) {
				t.Errorf("TransformCharset(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func lowerComplement(s charset.Set) charset.Set {
	for c := 'A'; c <= 'Z'; c++ {
		s = s.Remove(c)
	}
	return s
}

// TestCaseOperations_RewriteLiteralEdges tests case conversion on tainted
// literal edges
func TestCaseOperations_RewriteLiteralEdges(t *testing.T) {
	n := New()
	q0 := n.NewState()
	q1 := n.NewState()
	n.SetStart(q0)
	n.SetAccept(q1)
	taint := NewTaint(ToLowerCase{})
	n.AddEdge(q0, q1, QuoteLiteral("AbC"), []*Taint{taint})
	n.AddEdge(q0, q1, "[^XY]*", []*Taint{taint})
	n.AddEdge(q0, q1, QuoteLiteral("DEF"), nil) // untainted

	ToLowerCase{}.ApplyToAutomaton(n, taint, nil)

	labels := []string{}
	for _, e := range q0.Edges() {
		labels = append(labels, e.Label())
	}
	want := []string{`\Qabc\E`, "[^XY]*", `\QDEF\E`}
	for i, w := range want {
		if labels[i] != w {
			t.Errorf("edge %d label = %q, want %q", i, labels[i], w)
		}
	}
}

// TestReplaceBothKnown_RewriteEdges tests literal and fragment rewriting
func TestReplaceBothKnown_RewriteEdges(t *testing.T) {
	op := ReplaceBothKnown{Old: 'f', New: 'x'}

	n := New()
	q0 := n.NewState()
	q1 := n.NewState()
	n.SetStart(q0)
	n.SetAccept(q1)
	taint := NewTaint(op)
	n.AddEdge(q0, q1, QuoteLiteral("ff"), []*Taint{taint})
	n.AddEdge(q0, q1, QuoteLiteral("foo"), nil) // untainted

	op.ApplyToAutomaton(n, taint, nil)

	if got := q0.Edges()[0].Label(); got != `\Qxx\E` {
		t.Errorf("tainted literal = %q, want %q", got, `\Qxx\E`)
	}
	if got := q0.Edges()[1].Label(); got != `\Qfoo\E` {
		t.Errorf("untainted literal changed: %q", got)
	}
}

// TestRewriteReplaceFragment tests the conservative fragment rewriter
func TestRewriteReplaceFragment(t *testing.T) {
	tests := []struct {
		frag string
		old  rune
		new  rune
		want string
	}{
		{"(a|f)*", 'f', 'x', "(a|x)*"},
		{"[abf]", 'f', 'x', "[abx]"},
		{"[abx]", 'f', 'x', "[abx]"},
		{"[^ab]", 'f', 'x', "[^abf]"},
		{"[^fx]", 'f', 'x', "[^f]"},
		{".", 'f', 'x', "[^f]"},
		{"a-z", 'z', 'q', "a-q"},
		{`\d`, '3', 'x', "[012456789x]"},
		{`\d`, 'x', 'y', `\d`},
	}

	for _, tt := range tests {
		t.Run(tt.frag, func(t *testing.T) {
			if got := rewriteReplaceFragment(tt.frag, tt.old, tt.new); got != tt.want {
				t.Errorf("rewriteReplaceFragment(%q, %q, %q) = %q, want %q",
					tt.frag, tt.old, tt.new, got, tt.want)
			}
		})
	}
}

// TestWidenReplaceVariants tests that partially known replaces widen to Σ*
func TestWidenReplaceVariants(t *testing.T) {
	ops := []Operation{
		ReplaceOldKnown{Old: 'a'},
		ReplaceNewKnown{New: 'b'},
		ReplaceNoneKnown{},
	}

	for _, op := range ops {
		t.Run(op.String(), func(t *testing.T) {
			n := New()
			q0 := n.NewState()
			q1 := n.NewState()
			n.SetStart(q0)
			n.SetAccept(q1)
			taint := NewTaint(op)
			n.AddEdge(q0, q1, QuoteLiteral("a"), []*Taint{taint})
			n.AddEdge(q0, q1, Epsilon, []*Taint{taint})

			op.ApplyToAutomaton(n, taint, nil)

			if got := q0.Edges()[0].Label(); got != sigmaStar {
				t.Errorf("consuming edge = %q, want %q", got, sigmaStar)
			}
			if got := q0.Edges()[1].Label(); got != Epsilon {
				t.Errorf("ε edge = %q, want ε untouched", got)
			}
		})
	}
}

// TestTrim_NoOp tests that trim leaves the automaton unchanged
func TestTrim_NoOp(t *testing.T) {
	n := New()
	q0 := n.NewState()
	q1 := n.NewState()
	n.SetStart(q0)
	n.SetAccept(q1)
	taint := NewTaint(Trim{})
	n.AddEdge(q0, q1, QuoteLiteral(" a "), []*Taint{taint})

	Trim{}.ApplyToAutomaton(n, taint, n.StatesWithTaint(taint))

	if got := q0.Edges()[0].Label(); got != `\Q a \E` {
		t.Errorf("trim modified the edge: %q", got)
	}
	if n.StateCount() != 2 {
		t.Errorf("trim changed the state count: %d", n.StateCount())
	}
}

// TestReverse_SingleEdge tests reversal of a literal edge scope
func TestReverse_SingleEdge(t *testing.T) {
	n := New()
	q0 := n.NewState()
	q1 := n.NewState()
	n.SetStart(q0)
	n.SetAccept(q1)
	taint := NewTaint(Reverse{})
	n.AddEdge(q0, q1, QuoteLiteral("ab"), []*Taint{taint})

	Reverse{}.ApplyToAutomaton(n, taint, n.StatesWithTaint(taint))

	pattern, err := ToRegex(n)
	if err != nil {
		t.Fatalf("ToRegex: %v", err)
	}
	if pattern != `\Qba\E` {
		t.Errorf("reversed pattern = %q, want %q", pattern, `\Qba\E`)
	}
}

// TestReverse_Path tests reversal of a two-edge scope
func TestReverse_Path(t *testing.T) {
	n := New()
	q0 := n.NewState()
	q1 := n.NewState()
	n.SetStart(q0)
	n.SetAccept(q1)
	taint := NewTaint(Reverse{})
	mid := n.NewTaintedState([]*Taint{taint})
	n.AddEdge(q0, mid, QuoteLiteral("a"), []*Taint{taint})
	n.AddEdge(mid, q1, QuoteLiteral("b"), []*Taint{taint})

	Reverse{}.ApplyToAutomaton(n, taint, n.StatesWithTaint(taint))

	pattern, err := ToRegex(n)
	if err != nil {
		t.Fatalf("ToRegex: %v", err)
	}
	if pattern != `\Qb\E\Qa\E` {
		t.Errorf("reversed pattern = %q, want %q", pattern, `\Qb\E\Qa\E`)
	}
}
