// Package validity implements the evaluator-backed ValidityChecker: given
// a ground sketch, walk every App node, bind its children's metadata into
// an EvaluationContext, and confirm each function's condition is
// satisfied under the program's propositions. The root node must also
// carry the program's goal type and metadata exactly. This is the direct
// counterpart, on concrete witnesses, of what the Datalog oracle checks
// symbolically while a sketch is still partial.
package validity

import (
	"loom/internal/core"
	"loom/internal/eval"
	"loom/internal/sketch"
)

// Checker holds the fixed context a validity check needs: the function
// library (for each App's condition), the program's ground propositions,
// and its goal.
type Checker struct {
	flib  *core.FunctionLibrary
	props []core.Fact
	goal  core.Fact
}

// New builds a Checker from problem.
func New(problem core.Problem) *Checker {
	return &Checker{
		flib:  problem.Library.Functions,
		props: problem.Program.Props,
		goal:  problem.Program.Goal,
	}
}

// Check reports whether sk is ground, every App node's condition is
// satisfied by its children's metadata, and the root matches the goal's
// type and metadata exactly ("Evaluator/Datalog agreement").
func (c *Checker) Check(sk sketch.Sketch[core.ParameterizedFunction]) bool {
	if !sk.Ground() {
		return false
	}
	fn, _, ok := sk.IsApp()
	if !ok {
		return false
	}
	fs, ok := c.flib.Get(fn.Name)
	if !ok {
		return false
	}
	if fs.Ret != c.goal.Name {
		return false
	}
	for pair := c.goal.Args.Oldest(); pair != nil; pair = pair.Next() {
		v, ok := fn.Metadata[pair.Key]
		if !ok || v != pair.Value {
			return false
		}
	}
	return c.checkNode(sk)
}

// checkNode recursively checks one App node: its children's conditions
// (via recursion) and its own condition, evaluated against an
// EvaluationContext built from the children's concrete metadata.
func (c *Checker) checkNode(sk sketch.Sketch[core.ParameterizedFunction]) bool {
	fn, args, ok := sk.IsApp()
	if !ok {
		return false
	}
	fs, ok := c.flib.Get(fn.Name)
	if !ok {
		return false
	}

	ctx := core.EvaluationContext{
		Args: map[core.FunParam]map[core.MetParam]core.Value{},
		Ret:  fn.Metadata,
	}
	for pair := args.Oldest(); pair != nil; pair = pair.Next() {
		child := pair.Value
		childFn, _, ok := child.IsApp()
		if !ok {
			return false
		}
		ctx.Args[pair.Key] = childFn.Metadata
		if !c.checkNode(child) {
			return false
		}
	}

	return eval.Sat(c.props, ctx, fs.Condition)
}
