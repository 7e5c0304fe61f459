package grammar

import (
	"github.com/coregx/strapprox/charset"
)

// Terminal is a leaf symbol of the grammar: a literal string, the empty
// string, or a regex fragment derived from a source-level type.
type Terminal struct {
	value   string
	literal bool
	epsilon bool
	cs      charset.Set
}

// NewLiteralTerminal creates a terminal matching exactly value.
func NewLiteralTerminal(value string) *Terminal {
	return &Terminal{
		value:   value,
		literal: true,
		cs:      charset.OfString(value),
	}
}

// NewEpsilonTerminal creates a terminal matching the empty string.
func NewEpsilonTerminal() *Terminal {
	return &Terminal{epsilon: true, cs: charset.Empty()}
}

// NewRegexTerminal creates a terminal matching a regex fragment, with the
// character set the fragment draws from.
func NewRegexTerminal(fragment string, cs charset.Set) *Terminal {
	return &Terminal{value: fragment, cs: cs}
}

// typePatterns maps source-level type names to regex fragments and the
// character sets their values draw from.
var typePatterns = map[string]struct {
	fragment string
	cs       func() charset.Set
}{
	"int":     {`0|(-?[1-9][0-9]*)`, intCharset},
	"integer": {`0|(-?[1-9][0-9]*)`, intCharset},
	"long":    {`0|(-?[1-9][0-9]*)`, intCharset},
	"short":   {`0|(-?[1-9][0-9]*)`, intCharset},
	"byte":    {`0|(-?[1-9][0-9]*)`, intCharset},
	"float":   {`-?[0-9]+(\.[0-9]+)?`, floatCharset},
	"double":  {`-?[0-9]+(\.[0-9]+)?`, floatCharset},
	"boolean": {`true|false`, boolCharset},
	"char":    {`[\s\S]`, charset.Sigma},
}

func intCharset() charset.Set {
	return charset.OfRange('0', '9').Add('-')
}

func floatCharset() charset.Set {
	return intCharset().Add('.')
}

func boolCharset() charset.Set {
	return charset.OfString("truefalse")
}

// TerminalForType creates a non-literal terminal for a value of the given
// source-level type. Unknown types (including strings) widen to Σ.
func TerminalForType(typeName string) *Terminal {
	if tp, ok := typePatterns[typeName]; ok {
		return NewRegexTerminal(tp.fragment, tp.cs())
	}
	return NewRegexTerminal(`[\s\S]*`, charset.Sigma())
}

// Value returns the literal string or regex fragment.
func (t *Terminal) Value() string {
	return t.value
}

// IsLiteral reports whether the terminal matches its value verbatim.
func (t *Terminal) IsLiteral() bool {
	return t.literal
}

// IsEpsilon reports whether the terminal matches the empty string.
func (t *Terminal) IsEpsilon() bool {
	return t.epsilon
}

// Charset returns the characters strings matched by this terminal may
// contain.
func (t *Terminal) Charset() charset.Set {
	return t.cs
}

// String returns a human-readable representation of the terminal.
func (t *Terminal) String() string {
	if t.epsilon {
		return "ε"
	}
	if t.literal {
		return t.value
	}
	return "/" + t.value + "/"
}

func (t *Terminal) isSymbol() {}
