package grammar

import (
	"fmt"
	"sort"
)

// Recursion classifies how a component's productions reach its own members
// inside concatenations.
type Recursion uint8

const (
	// RecursionNone: no member occurs in a member's concatenation.
	RecursionNone Recursion = iota

	// RecursionLeft: members occur only leftmost.
	RecursionLeft

	// RecursionRight: members occur only rightmost.
	RecursionRight

	// RecursionBoth: members occur in both positions.
	RecursionBoth
)

// String returns a human-readable representation of the Recursion.
func (r Recursion) String() string {
	switch r {
	case RecursionNone:
		return "NONE"
	case RecursionLeft:
		return "LEFT"
	case RecursionRight:
		return "RIGHT"
	case RecursionBoth:
		return "BOTH"
	default:
		return fmt.Sprintf("Unknown(%d)", r)
	}
}

// Component is a strongly connected component of the grammar graph.
type Component struct {
	members   map[int]*Nonterminal
	recursion Recursion
}

// NewComponent creates a component over the given members.
func NewComponent(members ...*Nonterminal) *Component {
	c := &Component{members: make(map[int]*Nonterminal, len(members))}
	for _, nt := range members {
		c.members[nt.ID()] = nt
	}
	return c
}

// Add inserts a nonterminal into the component.
func (c *Component) Add(nt *Nonterminal) {
	c.members[nt.ID()] = nt
}

// Contains reports whether nt is a member.
func (c *Component) Contains(nt *Nonterminal) bool {
	_, ok := c.members[nt.ID()]
	return ok
}

// Members returns the members in ascending id order.
func (c *Component) Members() []*Nonterminal {
	out := make([]*Nonterminal, 0, len(c.members))
	for _, nt := range c.members {
		out = append(out, nt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Size returns the number of members.
func (c *Component) Size() int {
	return len(c.members)
}

// Recursion returns the component's recursion classification.
func (c *Component) Recursion() Recursion {
	return c.recursion
}

// SetRecursion overrides the classification.
func (c *Component) SetRecursion(r Recursion) {
	c.recursion = r
}

// String returns a human-readable representation of the component.
func (c *Component) String() string {
	var labels []string
	for _, nt := range c.Members() {
		labels = append(labels, nt.String())
	}
	return fmt.Sprintf("Component(%v, %s)", labels, c.recursion)
}

// SCCs computes the strongly connected components of the grammar graph with
// Tarjan's algorithm and classifies each component's recursion. Components
// are returned in reverse topological order: successors before their
// predecessors.
func SCCs(g *Grammar) []*Component {
	t := &tarjan{
		g:       g,
		index:   make(map[int]int),
		lowlink: make(map[int]int),
		onStack: make(map[int]bool),
	}
	for _, nt := range g.Nonterminals() {
		if _, visited := t.index[nt.ID()]; !visited {
			t.strongConnect(nt)
		}
	}
	for _, c := range t.components {
		determineRecursion(c)
	}
	return t.components
}

// ComponentMap indexes components by member nonterminal id.
func ComponentMap(comps []*Component) map[int]*Component {
	m := make(map[int]*Component)
	for _, c := range comps {
		for id := range c.members {
			m[id] = c
		}
	}
	return m
}

type tarjan struct {
	g          *Grammar
	counter    int
	index      map[int]int
	lowlink    map[int]int
	onStack    map[int]bool
	stack      []*Nonterminal
	components []*Component
}

func (t *tarjan) strongConnect(v *Nonterminal) {
	t.index[v.ID()] = t.counter
	t.lowlink[v.ID()] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v.ID()] = true

	for _, w := range t.g.SuccessorsOf(v) {
		if _, visited := t.index[w.ID()]; !visited {
			t.strongConnect(w)
			if t.lowlink[w.ID()] < t.lowlink[v.ID()] {
				t.lowlink[v.ID()] = t.lowlink[w.ID()]
			}
		} else if t.onStack[w.ID()] {
			if t.index[w.ID()] < t.lowlink[v.ID()] {
				t.lowlink[v.ID()] = t.index[w.ID()]
			}
		}
	}

	if t.lowlink[v.ID()] == t.index[v.ID()] {
		c := NewComponent()
		for {
			w := t.stack[len(t.stack)-1]
			t.stack = t.stack[:len(t.stack)-1]
			t.onStack[w.ID()] = false
			c.Add(w)
			if w == v {
				break
			}
		}
		t.components = append(t.components, c)
	}
}

// determineRecursion inspects every concatenation of the component's
// members: a member in the left slot flags LEFT, in the right slot RIGHT,
// and disagreement across productions combines to BOTH.
func determineRecursion(c *Component) {
	left, right := false, false
	for _, nt := range c.Members() {
		for _, p := range nt.Productions() {
			concat, ok := p.(*ConcatProduction)
			if !ok {
				continue
			}
			if c.Contains(concat.Left) {
				left = true
			}
			if c.Contains(concat.Right) {
				right = true
			}
		}
	}
	switch {
	case left && right:
		c.recursion = RecursionBoth
	case left:
		c.recursion = RecursionLeft
	case right:
		c.recursion = RecursionRight
	default:
		c.recursion = RecursionNone
	}
}
