package automaton

import (
	"regexp"
	"testing"
)

// TestToRegex_Shapes tests state elimination on small machines
func TestToRegex_Shapes(t *testing.T) {
	t.Run("single edge", func(t *testing.T) {
		n := New()
		q0 := n.NewState()
		q1 := n.NewState()
		n.SetStart(q0)
		n.SetAccept(q1)
		n.AddEdge(q0, q1, QuoteLiteral("a"), nil)

		pattern, err := ToRegex(n)
		if err != nil {
			t.Fatalf("ToRegex: %v", err)
		}
		if pattern != `\Qa\E` {
			t.Errorf("pattern = %q, want %q", pattern, `\Qa\E`)
		}
	})

	t.Run("loop", func(t *testing.T) {
		n := New()
		q0 := n.NewState()
		q1 := n.NewState()
		n.SetStart(q0)
		n.SetAccept(q1)
		n.AddEdge(q0, q1, QuoteLiteral("a"), nil)
		n.AddEdge(q1, q1, QuoteLiteral("b"), nil)

		pattern, err := ToRegex(n)
		if err != nil {
			t.Fatalf("ToRegex: %v", err)
		}
		if pattern != `\Qa\E\Qb\E*` {
			t.Errorf("pattern = %q, want %q", pattern, `\Qa\E\Qb\E*`)
		}
	})

	t.Run("alternation", func(t *testing.T) {
		n := New()
		q0 := n.NewState()
		q1 := n.NewState()
		n.SetStart(q0)
		n.SetAccept(q1)
		n.AddEdge(q0, q1, QuoteLiteral("a"), nil)
		n.AddEdge(q0, q1, QuoteLiteral("c"), nil)

		pattern, err := ToRegex(n)
		if err != nil {
			t.Fatalf("ToRegex: %v", err)
		}
		if pattern != `\Qa\E|\Qc\E` {
			t.Errorf("pattern = %q, want %q", pattern, `\Qa\E|\Qc\E`)
		}
	})

	t.Run("epsilon only", func(t *testing.T) {
		n := New()
		q0 := n.NewState()
		q1 := n.NewState()
		n.SetStart(q0)
		n.SetAccept(q1)
		n.AddEdge(q0, q1, Epsilon, nil)

		pattern, err := ToRegex(n)
		if err != nil {
			t.Fatalf("ToRegex: %v", err)
		}
		if pattern != Epsilon {
			t.Errorf("pattern = %q, want ε", pattern)
		}
	})

	t.Run("empty language", func(t *testing.T) {
		n := New()
		q0 := n.NewState()
		q1 := n.NewState()
		n.SetStart(q0)
		n.SetAccept(q1)
		// No path from start to accept.

		pattern, err := ToRegex(n)
		if err != nil {
			t.Fatalf("ToRegex: %v", err)
		}
		if pattern != NeverMatch {
			t.Errorf("pattern = %q, want %q", pattern, NeverMatch)
		}
	})

	t.Run("no accept", func(t *testing.T) {
		n := New()
		q0 := n.NewState()
		n.SetStart(q0)

		if _, err := ToRegex(n); err != ErrNoAcceptState {
			t.Errorf("err = %v, want ErrNoAcceptState", err)
		}
	})
}

// TestToRegex_DoesNotMutateInput tests that extraction works on a copy
func TestToRegex_DoesNotMutateInput(t *testing.T) {
	n := New()
	q0 := n.NewState()
	q1 := n.NewState()
	n.SetStart(q0)
	n.SetAccept(q1)
	n.AddEdge(q0, q1, QuoteLiteral("a"), nil)

	if _, err := ToRegex(n); err != nil {
		t.Fatalf("ToRegex: %v", err)
	}
	if n.StateCount() != 2 || n.EdgeCount() != 1 {
		t.Errorf("input mutated: %v", n)
	}
}

// TestPatternHelpers tests the fragment combinators
func TestPatternHelpers(t *testing.T) {
	if got := concatPattern(`\Qa\E`, Epsilon, `\Qb\E`); got != `\Qa\E\Qb\E` {
		t.Errorf("concatPattern = %q", got)
	}
	if got := concatPattern(Epsilon, Epsilon); got != Epsilon {
		t.Errorf("concatPattern(ε, ε) = %q", got)
	}
	if got := concatPattern("a|b", `\Qc\E`); got != `(a|b)\Qc\E` {
		t.Errorf("concatPattern alternation = %q", got)
	}
	if got := unionPattern([]string{"a", "b", "a"}); got != "a|b" {
		t.Errorf("unionPattern = %q", got)
	}
	if got := starPattern(`\Qb\E`); got != `\Qb\E*` {
		t.Errorf("starPattern single literal = %q", got)
	}
	if got := starPattern("[^ab]*"); got != "[^ab]*" {
		t.Errorf("starPattern of starred class = %q", got)
	}
	if got := starPattern(`\Qab\E`); got != `(\Qab\E)*` {
		t.Errorf("starPattern multi literal = %q", got)
	}
	if got := starPattern(Epsilon); got != Epsilon {
		t.Errorf("starPattern(ε) = %q", got)
	}
}

// TestTranslatePattern tests dialect translation to RE2
func TestTranslatePattern(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{`\Qa\E`, "a"},
		{`\Qa\E|\Qa\E\Qb\E\Qb\E*`, "a|abb*"},
		{`\Qa+b\E`, `a\+b`},
		{"ε", "(?:)"},
		{"ε|\\Qa\\E", "(?:)|a"},
		{"[^ab]*", "[^ab]*"},
		{`\Q\E`, "(?:)"},
		{NeverMatch, NeverMatch},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got := TranslatePattern(tt.pattern)
			if got != tt.want {
				t.Errorf("TranslatePattern(%q) = %q, want %q", tt.pattern, got, tt.want)
			}
			if _, err := regexp.Compile(got); err != nil {
				t.Errorf("translated pattern does not compile: %v", err)
			}
		})
	}
}
