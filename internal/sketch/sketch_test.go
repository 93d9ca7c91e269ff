package sketch_test

import (
	"testing"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loom/internal/core"
	"loom/internal/sketch"
)

// testFn is a minimal sketch.Function used to exercise the sketch/step
// machinery without pulling in a full core.ParameterizedFunction.
type testFn struct {
	name  string
	arity []core.FunParam
}

func (f testFn) Arity() []core.FunParam { return f.arity }

func fn(name string, arity ...core.FunParam) testFn {
	return testFn{name: name, arity: arity}
}

func fnEq(a, b testFn) bool { return a.name == b.name }

func args(children ...sketch.Child[testFn]) *orderedmap.OrderedMap[core.FunParam, sketch.Sketch[testFn]] {
	om := orderedmap.New[core.FunParam, sketch.Sketch[testFn]]()
	for _, c := range children {
		om.Set(c.Param, c.Sketch)
	}
	return om
}

func TestSubstituteLeavesUnrelatedHoleUntouched(t *testing.T) {
	e := sketch.AppFrom(fn("f", "p"), sketch.Child[testFn]{Param: "p", Sketch: sketch.Hole[testFn](2)})
	u := sketch.AppFrom(fn("g"))

	got := sketch.Substitute(e, 1, u)

	assert.True(t, sketch.Equal(got, e, fnEq))
}

func TestSubstituteHoleForItselfIsNoop(t *testing.T) {
	e := sketch.AppFrom(fn("f", "p"), sketch.Child[testFn]{Param: "p", Sketch: sketch.Hole[testFn](1)})

	got := sketch.Substitute(e, 1, sketch.Hole[testFn](1))

	assert.True(t, sketch.Equal(got, e, fnEq))
}

func TestSubstituteReplacesEveryOccurrence(t *testing.T) {
	e := sketch.AppFrom(fn("f", "p", "q"),
		sketch.Child[testFn]{Param: "p", Sketch: sketch.Hole[testFn](1)},
		sketch.Child[testFn]{Param: "q", Sketch: sketch.Hole[testFn](1)},
	)
	u := sketch.AppFrom(fn("g"))

	got := sketch.Substitute(e, 1, u)

	want := sketch.AppFrom(fn("f", "p", "q"),
		sketch.Child[testFn]{Param: "p", Sketch: u},
		sketch.Child[testFn]{Param: "q", Sketch: u},
	)
	assert.True(t, sketch.Equal(got, want, fnEq))
	assert.False(t, sketch.HasHole(got, 1))
}

func TestFreshSeqOutrunsEveryExistingHole(t *testing.T) {
	e := sketch.AppFrom(fn("f", "p", "q"),
		sketch.Child[testFn]{Param: "p", Sketch: sketch.Hole[testFn](2)},
		sketch.Child[testFn]{Param: "q", Sketch: sketch.Hole[testFn](5)},
	)

	next := sketch.FreshSeq(e)
	h1 := next()
	h2 := next()

	assert.Greater(t, int(h1), 5)
	assert.False(t, sketch.HasHole(e, h1))
	assert.Greater(t, int(h2), int(h1))
	assert.False(t, sketch.HasHole(e, h2))
}

func TestFreshSeqOnSoleHoleIsOneMoreThanItself(t *testing.T) {
	e := sketch.Hole[testFn](0)
	next := sketch.FreshSeq(e)
	assert.Equal(t, sketch.HoleName(1), next())
}

// TestPatternMatchRoundTrips grows a pattern into a ground sketch via two
// Extend steps, then checks that PatternMatch recovers bindings that, fed
// back through Substitute, reconstruct the same ground sketch.
func TestPatternMatchRoundTrips(t *testing.T) {
	pattern := sketch.AppFrom(fn("f", "p", "q"),
		sketch.Child[testFn]{Param: "p", Sketch: sketch.Hole[testFn](1)},
		sketch.Child[testFn]{Param: "q", Sketch: sketch.Hole[testFn](2)},
	)

	fillP := sketch.Extend[testFn](1, fn("g"), args())
	fillQ := sketch.Extend[testFn](2, fn("h"), args())
	ground, ok := sketch.Apply(sketch.Seq(fillP, fillQ), pattern, fnEq)
	require.True(t, ok)
	require.True(t, ground.Ground())

	bindings, ok := sketch.PatternMatch(pattern, ground, fnEq)
	require.True(t, ok)

	rebuilt := pattern
	for h, v := range bindings {
		rebuilt = sketch.Substitute(rebuilt, h, v)
	}
	assert.True(t, sketch.Equal(rebuilt, ground, fnEq))
}

func TestPatternMatchFailsOnFunctionMismatch(t *testing.T) {
	pattern := sketch.AppFrom(fn("f"))
	ground := sketch.AppFrom(fn("g"))

	_, ok := sketch.PatternMatch(pattern, ground, fnEq)

	assert.False(t, ok)
}

func TestPatternMatchHoleBindsWholeSubterm(t *testing.T) {
	ground := sketch.AppFrom(fn("f", "p"), sketch.Child[testFn]{Param: "p", Sketch: sketch.AppFrom(fn("g"))})

	bindings, ok := sketch.PatternMatch(sketch.Hole[testFn](7), ground, fnEq)

	require.True(t, ok)
	assert.True(t, sketch.Equal(bindings[7], ground, fnEq))
}
