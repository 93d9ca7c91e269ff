// Package sketch implements the top-down sketch substitution state
// machine: partial expressions with typed holes, and the Extend/Seq
// steps that fill them.
package sketch

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"loom/internal/core"
)

// HoleName names a hole in a sketch. Hole names are globally unique
// within a single sketch; fresh holes are minted by taking
// max_hole+1, +2, ....
type HoleName int

// Function is anything that can sit at the head of an App node: it knows
// its own parameter arity. core.ParameterizedFunction implements this.
type Function interface {
	Arity() []core.FunParam
}

type kind int

const (
	holeKind kind = iota
	appKind
)

// Sketch is a partial expression: either a typed Hole or an App of a
// function to a keyed map of argument sketches. It is immutable; every
// operation below returns a new value rather than mutating in place.
type Sketch[F Function] struct {
	kind kind
	hole HoleName
	fn   F
	args *orderedmap.OrderedMap[core.FunParam, Sketch[F]]
}

// Hole builds a hole sketch named h.
func Hole[F Function](h HoleName) Sketch[F] {
	return Sketch[F]{kind: holeKind, hole: h}
}

// App builds a function application sketch. args is consumed directly
// (not copied); callers that need to keep a reference to the original
// map should clone it first.
func App[F Function](f F, args *orderedmap.OrderedMap[core.FunParam, Sketch[F]]) Sketch[F] {
	return Sketch[F]{kind: appKind, fn: f, args: args}
}

// AppFrom builds a function application sketch from an ordered slice of
// (param, child) pairs, in declaration order.
func AppFrom[F Function](f F, children ...Child[F]) Sketch[F] {
	om := orderedmap.New[core.FunParam, Sketch[F]]()
	for _, c := range children {
		om.Set(c.Param, c.Sketch)
	}
	return App(f, om)
}

// Child is a single (param, sketch) pair used by AppFrom.
type Child[F Function] struct {
	Param  core.FunParam
	Sketch Sketch[F]
}

// IsHole reports whether e is a hole, returning its name.
func (e Sketch[F]) IsHole() (HoleName, bool) {
	return e.hole, e.kind == holeKind
}

// IsApp reports whether e is an application, returning its function and
// argument map.
func (e Sketch[F]) IsApp() (F, *orderedmap.OrderedMap[core.FunParam, Sketch[F]], bool) {
	return e.fn, e.args, e.kind == appKind
}

// Ground reports whether no Hole remains anywhere in e.
func (e Sketch[F]) Ground() bool {
	if e.kind == holeKind {
		return false
	}
	for pair := e.args.Oldest(); pair != nil; pair = pair.Next() {
		if !pair.Value.Ground() {
			return false
		}
	}
	return true
}

// Equal performs a structural comparison of two sketches. Functions are
// compared with eq.
func Equal[F Function](a, b Sketch[F], eq func(F, F) bool) bool {
	if a.kind != b.kind {
		return false
	}
	if a.kind == holeKind {
		return a.hole == b.hole
	}
	if !eq(a.fn, b.fn) || a.args.Len() != b.args.Len() {
		return false
	}
	bp := b.args.Oldest()
	for pair := a.args.Oldest(); pair != nil; pair = pair.Next() {
		if bp == nil || bp.Key != pair.Key || !Equal(pair.Value, bp.Value, eq) {
			return false
		}
		bp = bp.Next()
	}
	return true
}

// HasSubterm reports whether e contains sub as a structural subterm,
// checking e itself first.
func HasSubterm[F Function](e, sub Sketch[F], eq func(F, F) bool) bool {
	if Equal(e, sub, eq) {
		return true
	}
	if e.kind == holeKind {
		return false
	}
	for pair := e.args.Oldest(); pair != nil; pair = pair.Next() {
		if HasSubterm(pair.Value, sub, eq) {
			return true
		}
	}
	return false
}

// HasHole reports whether hole h occurs anywhere in e.
func HasHole[F Function](e Sketch[F], h HoleName) bool {
	if e.kind == holeKind {
		return e.hole == h
	}
	for pair := e.args.Oldest(); pair != nil; pair = pair.Next() {
		if HasHole(pair.Value, h) {
			return true
		}
	}
	return false
}

// Substitute returns a copy of e with every Hole(h) replaced by e2. It is
// non-destructive: e is left untouched.
func Substitute[F Function](e Sketch[F], h HoleName, e2 Sketch[F]) Sketch[F] {
	if e.kind == holeKind {
		if e.hole == h {
			return e2
		}
		return e
	}
	newArgs := orderedmap.New[core.FunParam, Sketch[F]]()
	for pair := e.args.Oldest(); pair != nil; pair = pair.Next() {
		newArgs.Set(pair.Key, Substitute(pair.Value, h, e2))
	}
	return App(e.fn, newArgs)
}

// Size returns 1 + the sum of child sizes; a hole has size 1.
func Size[F Function](e Sketch[F]) int {
	if e.kind == holeKind {
		return 1
	}
	total := 1
	for pair := e.args.Oldest(); pair != nil; pair = pair.Next() {
		total += Size(pair.Value)
	}
	return total
}

func maxHole[F Function](e Sketch[F]) HoleName {
	if e.kind == holeKind {
		return e.hole
	}
	max := HoleName(0)
	first := true
	for pair := e.args.Oldest(); pair != nil; pair = pair.Next() {
		m := maxHole(pair.Value)
		if first || m > max {
			max = m
			first = false
		}
	}
	return max
}

// FreshSeq returns a lazy, restartable sequence of hole names starting at
// max_hole(e)+1, by returning a generator function that yields
// successive names on each call. Because it is derived from max_hole
// rather than external counter state, calling FreshSeq again on the same
// (or an extended) sketch restarts deterministically.
func FreshSeq[F Function](e Sketch[F]) func() HoleName {
	next := maxHole(e) + 1
	return func() HoleName {
		h := next
		next++
		return h
	}
}

// Free builds App(f, { p_i -> Hole(h_i) }) where each h_i is fresh with
// respect to context.
func Free[F Function](context Sketch[F], f F) Sketch[F] {
	fresh := FreshSeq(context)
	args := orderedmap.New[core.FunParam, Sketch[F]]()
	for _, p := range f.Arity() {
		args.Set(p, Hole[F](fresh()))
	}
	return App(f, args)
}

// PatternMatch attempts to match a (possibly non-ground) pattern sketch
// self against a ground sketch ground, returning the hole->subterm
// bindings that make them equal, or false if no match exists.
func PatternMatch[F Function](self, ground Sketch[F], eq func(F, F) bool) (map[HoleName]Sketch[F], bool) {
	if h, ok := self.IsHole(); ok {
		return map[HoleName]Sketch[F]{h: ground}, true
	}
	f1, args1, ok1 := self.IsApp()
	f2, args2, ok2 := ground.IsApp()
	if !ok1 || !ok2 || !eq(f1, f2) || args1.Len() != args2.Len() {
		return nil, false
	}
	out := map[HoleName]Sketch[F]{}
	p2 := args2.Oldest()
	for p1 := args1.Oldest(); p1 != nil; p1 = p1.Next() {
		if p2 == nil || p1.Key != p2.Key {
			return nil, false
		}
		sub, ok := PatternMatch(p1.Value, p2.Value, eq)
		if !ok {
			return nil, false
		}
		for h, v := range sub {
			out[h] = v
		}
		p2 = p2.Next()
	}
	return out, true
}
