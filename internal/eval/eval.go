// Package eval implements formula evaluation against a concrete witness:
// given an EvaluationContext binding each function parameter's and the
// return value's metadata, decide whether a formula holds.
package eval

import (
	"fmt"

	"loom/internal/core"
)

// EvalAtom evaluates a FormulaAtom under ctx. Missing keys are a
// programming error: the caller is expected to have already type-checked
// the formula against a function signature that guarantees every
// Param/Ret reference resolves, so a miss here panics rather than
// returning an error.
func EvalAtom(ctx core.EvaluationContext, atom core.FormulaAtom) core.Value {
	if fp, mp, ok := atom.IsParam(); ok {
		args, ok := ctx.Args[fp]
		if !ok {
			panic(fmt.Sprintf("eval: no binding for function parameter %q", fp))
		}
		v, ok := args[mp]
		if !ok {
			panic(fmt.Sprintf("eval: no binding for metadata parameter %q of %q", mp, fp))
		}
		return v
	}
	if mp, ok := atom.IsRet(); ok {
		v, ok := ctx.Ret[mp]
		if !ok {
			panic(fmt.Sprintf("eval: no binding for return metadata parameter %q", mp))
		}
		return v
	}
	lit, _ := atom.IsLit()
	return lit
}

// Sat evaluates whether formula f is satisfied by props (the program's
// ground propositions) and ctx (the current witness).
func Sat(props []core.Fact, ctx core.EvaluationContext, f core.Formula) bool {
	switch v := f.(type) {
	case core.True:
		return true
	case core.Eq:
		return EvalAtom(ctx, v.A) == EvalAtom(ctx, v.B)
	case core.Neq:
		return EvalAtom(ctx, v.A) != EvalAtom(ctx, v.B)
	case core.Lt:
		a, b := EvalAtom(ctx, v.A), EvalAtom(ctx, v.B)
		ai, aok := a.(core.IntValue)
		bi, bok := b.(core.IntValue)
		if !aok || !bok {
			panic(fmt.Sprintf("eval: Lt only supported for ints, got %v and %v", a, b))
		}
		return ai < bi
	case core.AtomicProp:
		return MatchAtomicProp(props, ctx, v)
	case core.And:
		return Sat(props, ctx, v.Left) && Sat(props, ctx, v.Right)
	default:
		panic(fmt.Sprintf("eval: unknown formula variant %T", f))
	}
}

// MatchAtomicProp succeeds iff some prop in props has the same name and
// arity as ap, and every non-wildcard argument of ap evaluates (under
// ctx) to the prop's argument with the same key. This is the direct
// implementation of AtomicProp satisfaction rule,
// including wildcards.
func MatchAtomicProp(props []core.Fact, ctx core.EvaluationContext, ap core.AtomicProp) bool {
	for _, p := range props {
		if p.Name != ap.Prop.Name || p.Args.Len() != ap.Prop.Args.Len() {
			continue
		}
		ok := true
		for pair := ap.Prop.Args.Oldest(); pair != nil; pair = pair.Next() {
			pv, found := p.Args.Get(pair.Key)
			if !found {
				ok = false
				break
			}
			if pair.Value != nil && EvalAtom(ctx, *pair.Value) != pv {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}
