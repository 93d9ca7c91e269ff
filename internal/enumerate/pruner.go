package enumerate

import (
	"loom/internal/core"
	"loom/internal/eval"
)

// ParentInfo describes the App node that owns the hole a candidate is
// being tested for: the function already placed there, its signature,
// the metadata already fixed for sibling arguments that are themselves
// applications, and the types of sibling arguments that are still holes.
type ParentInfo struct {
	Fn        core.ParameterizedFunction
	Sig       core.FunctionSignature
	FixedArgs map[core.FunParam]map[core.MetParam]core.Value
	FreeArgs  map[core.FunParam]core.MetName
}

// Pruner decides whether a candidate metadata assignment at targetFp (one
// of parent.Fn's hole-arguments) is worth keeping in the frontier.
type Pruner interface {
	Accept(types *core.MetLibrary, props []core.Fact, support Support, parent ParentInfo, targetFp core.FunParam, candidate map[core.MetParam]core.Value) bool
}

// NaivePruner accepts every candidate unconditionally.
type NaivePruner struct{}

func (NaivePruner) Accept(*core.MetLibrary, []core.Fact, Support, ParentInfo, core.FunParam, map[core.MetParam]core.Value) bool {
	return true
}

// ExhaustivePruner accepts a candidate iff some Cartesian combination of
// metadata for parent's other hole-arguments makes parent.Sig.Condition
// hold, given props and candidate fixed at targetFp.
type ExhaustivePruner struct{}

type freeColumn struct {
	fp     core.FunParam
	tuples []map[core.MetParam]core.Value
}

func (ExhaustivePruner) Accept(types *core.MetLibrary, props []core.Fact, support Support, parent ParentInfo, targetFp core.FunParam, candidate map[core.MetParam]core.Value) bool {
	ctx := core.EvaluationContext{
		Args: map[core.FunParam]map[core.MetParam]core.Value{},
		Ret:  parent.Fn.Metadata,
	}
	for fp, m := range parent.FixedArgs {
		ctx.Args[fp] = m
	}
	ctx.Args[targetFp] = candidate

	var cols []freeColumn
	for fp, mn := range parent.FreeArgs {
		if fp == targetFp {
			continue
		}
		sig, ok := types.Get(mn)
		if !ok {
			continue
		}
		cols = append(cols, freeColumn{fp: fp, tuples: MetTuples(sig, support)})
	}

	return satisfiesAny(ctx, cols, 0, props, parent.Sig.Condition)
}

func satisfiesAny(ctx core.EvaluationContext, cols []freeColumn, i int, props []core.Fact, cond core.Formula) bool {
	if i == len(cols) {
		return eval.Sat(props, ctx, cond)
	}
	for _, tuple := range cols[i].tuples {
		ctx.Args[cols[i].fp] = tuple
		if satisfiesAny(ctx, cols, i+1, props, cond) {
			return true
		}
	}
	return false
}
