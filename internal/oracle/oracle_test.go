package oracle_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loom/internal/core"
	"loom/internal/mangleengine"
	"loom/internal/oracle"
	"loom/internal/sketch"
	"loom/internal/timer"
)

func mustProblem(t *testing.T, lib core.Library, prog core.Program) core.Problem {
	t.Helper()
	p, err := core.NewProblem(lib, prog)
	require.NoError(t, err)
	return p
}

func emptyGoalLibrary() core.Library {
	types := core.NewMetLibrary()
	types.Set("T", core.NewMetSignature(core.Param{Name: "a", Type: core.Int}))

	funcs := core.NewFunctionLibrary()
	funcs.Set("f", core.NewFunctionSignature("T", core.Eq{A: core.AtomRet("a"), B: core.AtomLit(core.IntValue(1))}))

	return core.Library{Props: core.NewMetLibrary(), Types: types, Functions: funcs}
}

func goalFact(typ core.MetName, arg int64) core.Fact {
	return core.NewMet[core.Value](typ, core.Arg[core.Value]{Name: "a", Value: core.IntValue(arg)})
}

func newOracle(t *testing.T, problem core.Problem) *oracle.Oracle {
	t.Helper()
	o, err := oracle.New(problem, mangleengine.NewUncached())
	require.NoError(t, err)
	return o
}

// Scenario 1, "Empty-goal": the root hole admits exactly one candidate,
// f, since f's condition (ret.a = 1) matches the pinned goal.
func TestExpansionsEmptyGoalOffersTheOnlyMatchingFunction(t *testing.T) {
	lib := emptyGoalLibrary()
	problem := mustProblem(t, lib, core.Program{Goal: goalFact("T", 1)})
	o := newOracle(t, problem)

	cands, err := o.Expansions(sketch.Hole[core.ParameterizedFunction](0), timer.Infinite{})
	require.NoError(t, err)

	require.Len(t, cands, 1)
	assert.Equal(t, core.BaseFunction("f"), cands[0].Fn.Name)
	assert.Equal(t, sketch.HoleName(0), cands[0].Hole)
}

// Scenario 2, "No solution": the same library with goal T{a=2} admits no
// candidate at all, since no function's condition can produce a=2.
func TestExpansionsNoSolutionOffersNothing(t *testing.T) {
	lib := emptyGoalLibrary()
	problem := mustProblem(t, lib, core.Program{Goal: goalFact("T", 2)})
	o := newOracle(t, problem)

	cands, err := o.Expansions(sketch.Hole[core.ParameterizedFunction](0), timer.Infinite{})
	require.NoError(t, err)

	assert.Empty(t, cands)
}

func compositionLibrary() core.Library {
	types := core.NewMetLibrary()
	types.Set("U", core.NewMetSignature(core.Param{Name: "x", Type: core.Int}))
	types.Set("T", core.NewMetSignature(core.Param{Name: "a", Type: core.Int}))

	funcs := core.NewFunctionLibrary()
	funcs.Set("g", core.NewFunctionSignature("U", core.Eq{A: core.AtomRet("x"), B: core.AtomLit(core.IntValue(3))}))
	funcs.Set("f", core.NewFunctionSignature("T",
		core.Eq{A: core.AtomRet("a"), B: core.AtomParam("p", "x")},
		core.FunParamDecl{Name: "p", Type: "U"},
	))

	return core.Library{Props: core.NewMetLibrary(), Types: types, Functions: funcs}
}

// Scenario 3, "Composition": the root hole offers f, and f's own argument
// hole (once extended) offers g, since g is the only function whose
// condition derives U{x=3}.
func TestExpansionsCompositionChainsThroughTheArgumentHole(t *testing.T) {
	lib := compositionLibrary()
	problem := mustProblem(t, lib, core.Program{Goal: goalFact("T", 3)})
	o := newOracle(t, problem)

	rootCands, err := o.Expansions(sketch.Hole[core.ParameterizedFunction](0), timer.Infinite{})
	require.NoError(t, err)
	require.Len(t, rootCands, 1)
	require.Equal(t, core.BaseFunction("f"), rootCands[0].Fn.Name)

	steps, err := o.Provide(timer.Infinite{}, sketch.Hole[core.ParameterizedFunction](0))
	require.NoError(t, err)
	require.Len(t, steps, 1)

	next, ok := sketch.Apply(steps[0], sketch.Hole[core.ParameterizedFunction](0), func(a, b core.ParameterizedFunction) bool { return a.Equal(b) })
	require.True(t, ok)

	argCands, err := o.Expansions(next, timer.Infinite{})
	require.NoError(t, err)
	require.Len(t, argCands, 1)
	assert.Equal(t, core.BaseFunction("g"), argCands[0].Fn.Name)
}

func factGuardLibrary() core.Library {
	props := core.NewMetLibrary()
	props.Set("K", core.NewMetSignature(core.Param{Name: "k", Type: core.Int}))

	types := core.NewMetLibrary()
	types.Set("T", core.NewMetSignature(core.Param{Name: "a", Type: core.Int}))

	retA := core.AtomRet("a")
	cond := core.AtomicProp{Prop: core.NewMet[*core.FormulaAtom]("K", core.Arg[*core.FormulaAtom]{Name: "k", Value: &retA})}

	funcs := core.NewFunctionLibrary()
	funcs.Set("f", core.NewFunctionSignature("T", cond))

	return core.Library{Props: props, Types: types, Functions: funcs}
}

func factGuardProps() []core.Fact {
	return []core.Fact{
		core.NewMet[core.Value]("K", core.Arg[core.Value]{Name: "k", Value: core.IntValue(7)}),
		core.NewMet[core.Value]("K", core.Arg[core.Value]{Name: "k", Value: core.IntValue(9)}),
	}
}

// Scenario 4, "Fact guard": f is only offered for a goal value that
// appears among the program's asserted K propositions.
func TestExpansionsFactGuardRespectsAssertedPropositions(t *testing.T) {
	lib := factGuardLibrary()

	matching := mustProblem(t, lib, core.Program{Props: factGuardProps(), Goal: goalFact("T", 9)})
	o := newOracle(t, matching)
	cands, err := o.Expansions(sketch.Hole[core.ParameterizedFunction](0), timer.Infinite{})
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, core.BaseFunction("f"), cands[0].Fn.Name)

	notAsserted := mustProblem(t, lib, core.Program{Props: factGuardProps(), Goal: goalFact("T", 8)})
	o2 := newOracle(t, notAsserted)
	cands2, err := o2.Expansions(sketch.Hole[core.ParameterizedFunction](0), timer.Infinite{})
	require.NoError(t, err)
	assert.Empty(t, cands2)
}

func twoCandidatesLibrary() core.Library {
	types := core.NewMetLibrary()
	types.Set("T", core.NewMetSignature(core.Param{Name: "a", Type: core.Int}))

	funcs := core.NewFunctionLibrary()
	funcs.Set("f1", core.NewFunctionSignature("T", core.Eq{A: core.AtomRet("a"), B: core.AtomLit(core.IntValue(1))}))
	funcs.Set("f2", core.NewFunctionSignature("T", core.Eq{A: core.AtomRet("a"), B: core.AtomLit(core.IntValue(1))}))

	return core.Library{Props: core.NewMetLibrary(), Types: types, Functions: funcs}
}

// Scenario 5, "Two candidates": both f1 and f2 satisfy the same goal, so
// both must appear among the root hole's expansions.
func TestExpansionsTwoCandidatesOffersBothFunctions(t *testing.T) {
	lib := twoCandidatesLibrary()
	problem := mustProblem(t, lib, core.Program{Goal: goalFact("T", 1)})
	o := newOracle(t, problem)

	cands, err := o.Expansions(sketch.Hole[core.ParameterizedFunction](0), timer.Infinite{})
	require.NoError(t, err)

	names := make([]string, len(cands))
	for i, c := range cands {
		names[i] = string(c.Fn.Name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"f1", "f2"}, names)
}

// ruleCutLibrary builds a two-deep composition where fgood's subgoal (a
// U with x=3) is inhabited by g, but fbad's subgoal additionally demands
// x=99 from that same U — a constraint no function can ever satisfy.
// fbad's header rule is satisfiable on its own; its query fails only
// because the loaded engine, saturating g's header rule, derives U with
// x=3 and never U with x=99.
func ruleCutLibrary() core.Library {
	types := core.NewMetLibrary()
	types.Set("U", core.NewMetSignature(core.Param{Name: "x", Type: core.Int}))
	types.Set("T", core.NewMetSignature(core.Param{Name: "a", Type: core.Int}))

	funcs := core.NewFunctionLibrary()
	funcs.Set("g", core.NewFunctionSignature("U", core.Eq{A: core.AtomRet("x"), B: core.AtomLit(core.IntValue(3))}))
	funcs.Set("fgood", core.NewFunctionSignature("T",
		core.Eq{A: core.AtomRet("a"), B: core.AtomParam("p", "x")},
		core.FunParamDecl{Name: "p", Type: "U"},
	))
	funcs.Set("fbad", core.NewFunctionSignature("T",
		core.Conjunct(
			core.Eq{A: core.AtomRet("a"), B: core.AtomParam("p", "x")},
			core.Eq{A: core.AtomParam("p", "x"), B: core.AtomLit(core.IntValue(99))},
		),
		core.FunParamDecl{Name: "p", Type: "U"},
	))

	return core.Library{Props: core.NewMetLibrary(), Types: types, Functions: funcs}
}

// Scenario 6, "Rule-cut": the root hole must offer exactly fgood, not
// fbad, because the query cut against fbad's header needs a U fact with
// x=99, and g's header rule only derives U with x=3.
func TestExpansionsRuleCutExcludesTheUninhabitableCandidate(t *testing.T) {
	lib := ruleCutLibrary()
	problem := mustProblem(t, lib, core.Program{Goal: goalFact("T", 3)})
	o := newOracle(t, problem)

	cands, err := o.Expansions(sketch.Hole[core.ParameterizedFunction](0), timer.Infinite{})
	require.NoError(t, err)

	require.Len(t, cands, 1)
	assert.Equal(t, core.BaseFunction("fgood"), cands[0].Fn.Name)
}
