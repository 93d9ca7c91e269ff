package enumerate

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"loom/internal/core"
	"loom/internal/sketch"
	"loom/internal/synth"
	"loom/internal/timer"
)

// goalFunctionName and goalParamName name the synthetic single-parameter
// function every sketch is wrapped in before its frontier is walked,
// mirroring internal/oracle's wrapper. The two packages
// keep their own copies rather than sharing one: neither needs the other's
// Datalog- or Support-specific machinery, and a shared dependency would
// only exist to carry two string constants.
const (
	goalFunctionName = core.BaseFunction("&goal")
	goalParamName    = core.FunParam("&goalparam")
)

func goalSignature(goal core.Fact) core.FunctionSignature {
	var conds []core.Formula
	for pair := goal.Args.Oldest(); pair != nil; pair = pair.Next() {
		conds = append(conds, core.Eq{A: core.AtomParam(goalParamName, pair.Key), B: core.AtomLit(pair.Value)})
	}
	return core.NewFunctionSignature(goal.Name, core.Conjunct(conds...),
		core.FunParamDecl{Name: goalParamName, Type: goal.Name})
}

// EnumerativeSynthesis implements a Cartesian-product synthesizer: an
// alternative to the Datalog-backed oracle that needs no engine, trading
// soundness-by-construction for exhaustive search over a value support
// drawn from the Problem.
type EnumerativeSynthesis struct {
	problem core.Problem
	flib    *core.FunctionLibrary
	goalSig core.FunctionSignature
	support Support
	pruner  Pruner
}

// New builds an enumerative synthesizer for problem, using pruner to
// decide which frontier candidates survive (NaivePruner for a fast,
// over-approximate frontier; ExhaustivePruner for a slower one that never
// offers a candidate with no completable sibling assignment).
func New(problem core.Problem, pruner Pruner) *EnumerativeSynthesis {
	goalSig := goalSignature(problem.Program.Goal)
	flib := problem.Library.Functions.Clone()
	flib.Set(goalFunctionName, goalSig)
	return &EnumerativeSynthesis{
		problem: problem,
		flib:    flib,
		goalSig: goalSig,
		support: BuildSupport(problem),
		pruner:  pruner,
	}
}

func (e *EnumerativeSynthesis) wrap(sk sketch.Sketch[core.ParameterizedFunction]) sketch.Sketch[core.ParameterizedFunction] {
	goalFn := core.FromSignature(e.goalSig, goalFunctionName, map[core.MetParam]core.Value{})
	return sketch.AppFrom(goalFn, sketch.Child[core.ParameterizedFunction]{Param: goalParamName, Sketch: sk})
}

// frontierPoint is one hole found while walking an application tree, with
// the context a Pruner needs to judge candidates for it.
type frontierPoint struct {
	hole   sketch.HoleName
	mn     core.MetName
	parent ParentInfo
	fp     core.FunParam
}

// frontierPoints walks wrapped (already under the goal wrapper) and
// returns one frontierPoint per Hole found, in a deterministic,
// left-to-right, depth-first order.
func (e *EnumerativeSynthesis) frontierPoints(wrapped sketch.Sketch[core.ParameterizedFunction]) ([]frontierPoint, error) {
	var out []frontierPoint

	var walk func(app sketch.Sketch[core.ParameterizedFunction]) error
	walk = func(app sketch.Sketch[core.ParameterizedFunction]) error {
		fn, args, ok := app.IsApp()
		if !ok {
			return nil
		}
		fs, ok := e.flib.Get(fn.Name)
		if !ok {
			return fmt.Errorf("enumerate: unknown function %s", fn.Name)
		}

		// First pass: split this App's arguments into fixed (already an
		// App, metadata known) and free (still a Hole) sibling groups,
		// so every frontierPoint below can carry the complete sibling
		// context from the moment it is created.
		fixed := map[core.FunParam]map[core.MetParam]core.Value{}
		free := map[core.FunParam]core.MetName{}
		holeOf := map[core.FunParam]sketch.HoleName{}
		for pair := fs.Params.Oldest(); pair != nil; pair = pair.Next() {
			fp, mn := pair.Key, pair.Value
			child, ok := args.Get(fp)
			if !ok {
				return fmt.Errorf("enumerate: missing argument %s of %s", fp, fn.Name)
			}
			if h, isHole := child.IsHole(); isHole {
				free[fp] = mn
				holeOf[fp] = h
				continue
			}
			childFn, _, isApp := child.IsApp()
			if !isApp {
				return fmt.Errorf("enumerate: argument %s of %s is neither a hole nor an application", fp, fn.Name)
			}
			fixed[fp] = childFn.Metadata
		}

		parent := ParentInfo{Fn: fn, Sig: fs, FixedArgs: fixed, FreeArgs: free}
		for pair := fs.Params.Oldest(); pair != nil; pair = pair.Next() {
			fp, mn := pair.Key, pair.Value
			if h, isFree := holeOf[fp]; isFree {
				out = append(out, frontierPoint{hole: h, mn: mn, parent: parent, fp: fp})
			}
		}

		for pair := fs.Params.Oldest(); pair != nil; pair = pair.Next() {
			child, _ := args.Get(pair.Key)
			if _, _, isApp := child.IsApp(); isApp {
				if err := walk(child); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if err := walk(wrapped); err != nil {
		return nil, err
	}
	return out, nil
}

// candidatesFor returns every (hole, function) candidate for one
// frontierPoint, filtered through e.pruner.
func (e *EnumerativeSynthesis) candidatesFor(props []core.Fact, pt frontierPoint) ([]synth.Candidate, error) {
	typeSig, ok := e.problem.Library.Types.Get(pt.mn)
	if !ok {
		return nil, fmt.Errorf("enumerate: unknown type %s", pt.mn)
	}
	tuples := MetTuples(typeSig, e.support)

	var out []synth.Candidate
	for _, name := range e.flib.Names() {
		if name == goalFunctionName {
			continue
		}
		gsig, _ := e.flib.Get(name)
		if gsig.Ret != pt.mn {
			continue
		}
		for _, tuple := range tuples {
			if !e.pruner.Accept(e.problem.Library.Types, props, e.support, pt.parent, pt.fp, tuple) {
				continue
			}
			out = append(out, synth.Candidate{Hole: pt.hole, Fn: core.FromSignature(gsig, name, tuple)})
		}
	}
	return out, nil
}

// frontier returns every candidate for every hole in sk.
func (e *EnumerativeSynthesis) frontier(sk sketch.Sketch[core.ParameterizedFunction]) ([]synth.Candidate, error) {
	points, err := e.frontierPoints(e.wrap(sk))
	if err != nil {
		return nil, err
	}
	var out []synth.Candidate
	for _, pt := range points {
		cands, err := e.candidatesFor(e.problem.Program.Props, pt)
		if err != nil {
			return nil, err
		}
		out = append(out, cands...)
	}
	return out, nil
}

// Expansions satisfies synth.InhabitationOracle: for each frontier
// candidate it tentatively applies the candidate and runs Any on the
// result, keeping only the candidates that still lead somewhere. This is
// the enumerator's own, more expensive, alternative to the
// Datalog-backed internal/oracle — every candidate it keeps is backed by
// an actual witnessed completion, not just local sibling consistency.
func (e *EnumerativeSynthesis) Expansions(sk sketch.Sketch[core.ParameterizedFunction], tm timer.Timer) ([]synth.Candidate, error) {
	cands, err := e.frontier(sk)
	if err != nil {
		return nil, err
	}

	var out []synth.Candidate
	for _, c := range cands {
		if err := tm.Tick(); err != nil {
			return nil, err
		}
		next, ok := applyCandidate(sk, c)
		if !ok {
			continue
		}
		if _, found, err := e.anyFrom(next, tm); err != nil {
			return nil, err
		} else if found {
			out = append(out, c)
		}
	}
	return out, nil
}

// Provide turns the frontier into Extend steps with freshly minted holes,
// making *EnumerativeSynthesis a synth.StepProvider as well.
func (e *EnumerativeSynthesis) Provide(tm timer.Timer, sk sketch.Sketch[core.ParameterizedFunction]) ([]sketch.Step[core.ParameterizedFunction], error) {
	cands, err := e.Expansions(sk, tm)
	if err != nil {
		return nil, err
	}
	fresh := sketch.FreshSeq(sk)
	steps := make([]sketch.Step[core.ParameterizedFunction], 0, len(cands))
	for _, c := range cands {
		args := orderedmap.New[core.FunParam, sketch.Sketch[core.ParameterizedFunction]]()
		for _, fp := range c.Fn.Arity() {
			args.Set(fp, sketch.Hole[core.ParameterizedFunction](fresh()))
		}
		steps = append(steps, sketch.Extend(c.Hole, c.Fn, args))
	}
	return steps, nil
}

func equalPF(a, b core.ParameterizedFunction) bool { return a.Equal(b) }

func applyCandidate(cur sketch.Sketch[core.ParameterizedFunction], c synth.Candidate) (sketch.Sketch[core.ParameterizedFunction], bool) {
	fresh := sketch.FreshSeq(cur)
	args := orderedmap.New[core.FunParam, sketch.Sketch[core.ParameterizedFunction]]()
	for _, fp := range c.Fn.Arity() {
		args.Set(fp, sketch.Hole[core.ParameterizedFunction](fresh()))
	}
	step := sketch.Extend(c.Hole, c.Fn, args)
	return sketch.Apply(step, cur, equalPF)
}

func canonicalKey(sk sketch.Sketch[core.ParameterizedFunction]) string {
	if h, ok := sk.IsHole(); ok {
		return fmt.Sprintf("H%d", h)
	}
	fn, args, _ := sk.IsApp()
	s := fn.String() + "("
	for pair := args.Oldest(); pair != nil; pair = pair.Next() {
		s += string(pair.Key) + ":" + canonicalKey(pair.Value) + ","
	}
	return s + ")"
}

// Any performs a breadth-first worklist search for a
// single ground sketch, starting from the empty hole. A sketch whose
// frontier is empty but which is not yet Ground is a dead end (no further
// candidate can ever complete it) and is simply dropped from the
// worklist, rather than being reported as a solution: treating "frontier
// empty" itself as the completion signal would misclassify such dead ends
// as successes.
func (e *EnumerativeSynthesis) Any(tm timer.Timer) (sketch.Sketch[core.ParameterizedFunction], bool, error) {
	return e.anyFrom(sketch.Hole[core.ParameterizedFunction](0), tm)
}

// anyFrom is Any, starting the worklist from start instead of the empty
// hole; used by Expansions to test whether a tentative candidate
// application still leads to a complete sketch.
func (e *EnumerativeSynthesis) anyFrom(start sketch.Sketch[core.ParameterizedFunction], tm timer.Timer) (sketch.Sketch[core.ParameterizedFunction], bool, error) {
	queue := []sketch.Sketch[core.ParameterizedFunction]{start}

	for len(queue) > 0 {
		if err := tm.Tick(); err != nil {
			return sketch.Sketch[core.ParameterizedFunction]{}, false, err
		}
		cur := queue[0]
		queue = queue[1:]

		if cur.Ground() {
			return cur, true, nil
		}

		cands, err := e.frontier(cur)
		if err != nil {
			return sketch.Sketch[core.ParameterizedFunction]{}, false, err
		}
		for _, c := range cands {
			if next, ok := applyCandidate(cur, c); ok {
				queue = append(queue, next)
			}
		}
	}
	return sketch.Sketch[core.ParameterizedFunction]{}, false, nil
}

// All performs the same worklist search as Any but exhausts it, returning
// every distinct ground sketch reached. Distinctness is tracked by
// canonicalKey rather than sketch.Equal pairwise comparison, since the
// worklist can grow large.
func (e *EnumerativeSynthesis) All(tm timer.Timer) ([]sketch.Sketch[core.ParameterizedFunction], error) {
	root := sketch.Hole[core.ParameterizedFunction](0)
	queue := []sketch.Sketch[core.ParameterizedFunction]{root}
	seen := map[string]bool{}

	var results []sketch.Sketch[core.ParameterizedFunction]
	for len(queue) > 0 {
		if err := tm.Tick(); err != nil {
			return nil, err
		}
		cur := queue[0]
		queue = queue[1:]

		if cur.Ground() {
			key := canonicalKey(cur)
			if !seen[key] {
				seen[key] = true
				results = append(results, cur)
			}
			continue
		}

		cands, err := e.frontier(cur)
		if err != nil {
			return nil, err
		}
		for _, c := range cands {
			if next, ok := applyCandidate(cur, c); ok {
				queue = append(queue, next)
			}
		}
	}
	return results, nil
}
