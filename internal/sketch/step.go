package sketch

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"loom/internal/core"
)

// Step is a top-down step: Extend fills one hole with a function
// application (possibly leaving fresh holes for its own arguments), and
// Seq composes two steps in sequence.
type Step[F Function] struct {
	isSeq bool

	// Extend fields.
	hole HoleName
	fn   F
	args *orderedmap.OrderedMap[core.FunParam, Sketch[F]]

	// Seq fields.
	first, second *Step[F]
}

// Extend builds a step that fills hole h with App(f, args), provided the
// step applies (see Apply).
func Extend[F Function](h HoleName, f F, args *orderedmap.OrderedMap[core.FunParam, Sketch[F]]) Step[F] {
	return Step[F]{hole: h, fn: f, args: args}
}

// Seq builds a step that applies s1 then s2.
func Seq[F Function](s1, s2 Step[F]) Step[F] {
	return Step[F]{isSeq: true, first: &s1, second: &s2}
}

// Apply applies the step to e, returning the new sketch, or false if the
// step does not apply: for Extend, that means hole h does not occur in e,
// or the argument map's key set does not match f's arity; for Seq, that
// either sub-step fails to apply. A failed application has no side
// effect, by construction (Sketch is immutable).
func Apply[F Function](step Step[F], e Sketch[F], eq func(F, F) bool) (Sketch[F], bool) {
	if step.isSeq {
		e2, ok := Apply(*step.first, e, eq)
		if !ok {
			return e, false
		}
		return Apply(*step.second, e2, eq)
	}

	if step.args.Len() != len(step.fn.Arity()) {
		return e, false
	}
	if !hasArityKeys(step.fn, step.args) {
		return e, false
	}
	if !HasHole(e, step.hole) {
		return e, false
	}
	return Substitute(e, step.hole, App(step.fn, step.args)), true
}

// Describe exposes an Extend step's hole and function, for front ends
// that need to display a step before applying it. It panics on a Seq
// step: every step a StepProvider offers is a bare Extend, never a
// composed Seq, so a front end never needs to describe one.
func (s Step[F]) Describe() (HoleName, F) {
	if s.isSeq {
		panic("sketch: Describe called on a Seq step")
	}
	return s.hole, s.fn
}

func hasArityKeys[F Function](f F, args *orderedmap.OrderedMap[core.FunParam, Sketch[F]]) bool {
	for _, p := range f.Arity() {
		if _, ok := args.Get(p); !ok {
			return false
		}
	}
	return true
}
