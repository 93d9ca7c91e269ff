// Package oracle implements the inhabitation oracle: given
// a partially built sketch, it asks "which (hole, function) choices keep
// the sketch potentially completable" by compiling the sketch's
// application tree into per-hole Datalog queries, cutting each one
// against every library function's header rule, and turning the answer
// tuples the engine returns into concrete ParameterizedFunction
// candidates.
package oracle

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"loom/internal/compile"
	"loom/internal/core"
	"loom/internal/datalog"
	"loom/internal/mangleengine"
	"loom/internal/sketch"
	"loom/internal/synth"
	"loom/internal/timer"
)

// goalFunctionName and goalParamName name the synthetic single-parameter
// function the oracle wraps every sketch in: "&goal"'s condition pins its
// one parameter's metadata to the Program's goal.
const (
	goalFunctionName = core.BaseFunction("&goal")
	goalParamName    = core.FunParam("&goalparam")
)

// Oracle holds a loaded engine, the Problem it was built from, an
// extended function library (the Problem's functions plus the synthetic
// goal wrapper), the goal wrapper's own signature, and the header rule
// for every function — all fixed at construction time.
type Oracle struct {
	engine  mangleengine.Engine
	problem core.Problem
	flib    *core.FunctionLibrary
	headers map[core.BaseFunction]datalog.Rule
	goalSig core.FunctionSignature
}

// New builds an oracle for problem, loading its Datalog compilation into
// engine and constructing the goal wrapper.
func New(problem core.Problem, engine mangleengine.Engine) (*Oracle, error) {
	goalSig := goalSignature(problem.Program.Goal)

	flib := problem.Library.Functions.Clone()
	flib.Set(goalFunctionName, goalSig)

	prog, headers, err := compile.Program(problem)
	if err != nil {
		return nil, fmt.Errorf("oracle: compiling problem: %w", err)
	}
	if err := engine.Load(prog); err != nil {
		return nil, fmt.Errorf("oracle: loading engine: %w", err)
	}

	return &Oracle{engine: engine, problem: problem, flib: flib, headers: headers, goalSig: goalSig}, nil
}

// goalSignature builds the synthetic "&goal" signature: one parameter of
// the goal's own type, whose condition pins every metadata parameter to
// the goal's concrete value.
func goalSignature(goal core.Fact) core.FunctionSignature {
	var conds []core.Formula
	for pair := goal.Args.Oldest(); pair != nil; pair = pair.Next() {
		conds = append(conds, core.Eq{A: core.AtomParam(goalParamName, pair.Key), B: core.AtomLit(pair.Value)})
	}
	return core.NewFunctionSignature(goal.Name, core.Conjunct(conds...),
		core.FunParamDecl{Name: goalParamName, Type: goal.Name})
}

// wrap builds the single-application sketch App(&goal, {&goalparam: sk})
// that Expansions walks.
func (o *Oracle) wrap(sk sketch.Sketch[core.ParameterizedFunction]) sketch.Sketch[core.ParameterizedFunction] {
	goalFn := core.FromSignature(o.goalSig, goalFunctionName, map[core.MetParam]core.Value{})
	return sketch.AppFrom(goalFn, sketch.Child[core.ParameterizedFunction]{Param: goalParamName, Sketch: sk})
}

// slot is the free fact the oracle builds for one function parameter: an
// abstract Fact over the parameter's type, named "fp*mp" per metadata
// slot, plus the same variables indexed by metadata parameter for
// convenience when building Query heads and PrimEq links.
type slot struct {
	fp      core.FunParam
	mn      core.MetName
	fact    datalog.Fact
	varsFor map[core.MetParam]datalog.Value
}

func buildSlots(types *core.MetLibrary, fs core.FunctionSignature) ([]slot, error) {
	var slots []slot
	for pair := fs.Params.Oldest(); pair != nil; pair = pair.Next() {
		fp, mn := pair.Key, pair.Value
		paramSig, ok := types.Get(mn)
		if !ok {
			return nil, fmt.Errorf("oracle: unknown type %s", mn)
		}
		varsFor := map[core.MetParam]datalog.Value{}
		args := make([]*datalog.Value, 0, paramSig.Params.Len())
		for p := paramSig.Params.Oldest(); p != nil; p = p.Next() {
			v := datalog.Var(string(fp)+"*"+string(p.Key), p.Value)
			varsFor[p.Key] = v
			args = append(args, &v)
		}
		slots = append(slots, slot{fp: fp, mn: mn, fact: datalog.Fact{Relation: datalog.Relation(mn), Args: args}, varsFor: varsFor})
	}
	return slots, nil
}

func paramTypes(sig core.MetSignature) []core.ValueType {
	out := make([]core.ValueType, 0, sig.Params.Len())
	for p := sig.Params.Oldest(); p != nil; p = p.Next() {
		out = append(out, p.Value)
	}
	return out
}

// Expansions walks sk's application tree (wrapped under the goal
// function) and returns every (hole, function) candidate the engine
// certifies as not dead. tm is ticked once per engine
// call; its error (if any) aborts the walk and is returned directly.
func (o *Oracle) Expansions(sk sketch.Sketch[core.ParameterizedFunction], tm timer.Timer) ([]synth.Candidate, error) {
	var out []synth.Candidate
	counter := 0

	var walk func(app sketch.Sketch[core.ParameterizedFunction]) error
	walk = func(app sketch.Sketch[core.ParameterizedFunction]) error {
		fn, args, ok := app.IsApp()
		if !ok {
			return nil
		}
		fs, ok := o.flib.Get(fn.Name)
		if !ok {
			return fmt.Errorf("oracle: unknown function %s", fn.Name)
		}

		slots, err := buildSlots(o.problem.Library.Types, fs)
		if err != nil {
			return err
		}

		var freeFacts []datalog.Predicate
		for _, s := range slots {
			freeFacts = append(freeFacts, datalog.FactPred{Fact: s.fact})
		}

		var eqs []datalog.Predicate
		var holes []int // index into slots of every Hole argument
		for i, s := range slots {
			child, ok := args.Get(s.fp)
			if !ok {
				return fmt.Errorf("oracle: missing argument %s of %s", s.fp, fn.Name)
			}
			if _, isHole := child.IsHole(); isHole {
				holes = append(holes, i)
				continue
			}
			childFn, _, isApp := child.IsApp()
			if !isApp {
				return fmt.Errorf("oracle: argument %s of %s is neither a hole nor an application", s.fp, fn.Name)
			}
			for mp, v := range s.varsFor {
				val, ok := childFn.Metadata[mp]
				if !ok {
					return fmt.Errorf("oracle: function %s missing metadata %s", childFn.Name, mp)
				}
				eqs = append(eqs, datalog.PrimEq{A: v, B: datalog.FromCore(val)})
			}
		}

		cond, err := compile.CompileFormula(o.problem.Library.Types, fs, fs.Condition)
		if err != nil {
			return err
		}

		for _, i := range holes {
			s := slots[i]
			child, _ := args.Get(s.fp)
			hole, _ := child.IsHole()

			counter++
			queryRel := datalog.Relation(fmt.Sprintf("&Query_%d_%d", counter, hole))
			paramSig, _ := o.problem.Library.Types.Get(s.mn)
			headArgs := make([]*datalog.Value, 0, paramSig.Params.Len())
			for p := paramSig.Params.Oldest(); p != nil; p = p.Next() {
				v := s.varsFor[p.Key]
				headArgs = append(headArgs, &v)
			}
			queryHead := datalog.Fact{Relation: queryRel, Args: headArgs}

			var body []datalog.Predicate
			body = append(body, freeFacts...)
			body = append(body, eqs...)
			body = append(body, cond...)
			queryRule := datalog.Rule{Name: string(queryRel), Head: queryHead, Body: body}
			querySig := datalog.Signature{Relation: queryRel, Kind: datalog.IDB, ParamTypes: paramTypes(paramSig)}

			for rname, hr := range o.headers {
				cutRule, ok := datalog.Cut(queryRule, i, hr)
				if !ok {
					continue
				}
				if err := tm.Tick(); err != nil {
					return err
				}
				tuples, err := o.engine.Query(querySig, cutRule)
				if err != nil {
					return err
				}
				rsig, ok := o.flib.Get(rname)
				if !ok {
					return fmt.Errorf("oracle: unknown header function %s", rname)
				}
				for _, row := range tuples {
					if len(row) != paramSig.Params.Len() {
						return fmt.Errorf("oracle: engine returned %d values, expected %d", len(row), paramSig.Params.Len())
					}
					metadata := map[core.MetParam]core.Value{}
					idx := 0
					for p := paramSig.Params.Oldest(); p != nil; p = p.Next() {
						val, err := compile.DecompileValue(row[idx], p.Value)
						if err != nil {
							return err
						}
						metadata[p.Key] = val
						idx++
					}
					out = append(out, synth.Candidate{Hole: hole, Fn: core.FromSignature(rsig, rname, metadata)})
				}
			}
		}

		// Recurse into every App child (Hole children have no further
		// structure to walk).
		for _, s := range slots {
			child, _ := args.Get(s.fp)
			if _, _, isApp := child.IsApp(); isApp {
				if err := walk(child); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if err := walk(o.wrap(sk)); err != nil {
		return nil, err
	}
	return out, nil
}

// Provide turns the oracle's candidates into Extend steps with freshly
// minted holes for each candidate function's own parameters, making
// *Oracle a synth.StepProvider as well as a synth.InhabitationOracle.
func (o *Oracle) Provide(tm timer.Timer, sk sketch.Sketch[core.ParameterizedFunction]) ([]sketch.Step[core.ParameterizedFunction], error) {
	cands, err := o.Expansions(sk, tm)
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
