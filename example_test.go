package strapprox_test

import (
	"fmt"

	"github.com/coregx/strapprox"
)

// Approximating a left-recursive grammar produces a pattern for a b*.
func ExampleApproximateText() {
	res, err := strapprox.ApproximateText("A -> a | B\nB -> A b")
	if err != nil {
		panic(err)
	}
	fmt.Println(res.Match("abb"))
	fmt.Println(res.Match("ba"))
	// Output:
	// true
	// false
}

// Operations deferred onto the automaton are replayed per branch: the
// replaced branch loses every f, the plain branch keeps them.
func ExampleApproximateText_replace() {
	res, err := strapprox.ApproximateText("A -> F | replace[f,x](F)\nF -> f F | f")
	if err != nil {
		panic(err)
	}
	fmt.Println(res.Match("xxx"))
	fmt.Println(res.Match("fff"))
	fmt.Println(res.Match("fx"))
	// Output:
	// true
	// true
	// false
}
