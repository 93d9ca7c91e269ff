package pbn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loom/internal/core"
	"loom/internal/mangleengine"
	"loom/internal/oracle"
	"loom/internal/pbn"
	"loom/internal/sketch"
	"loom/internal/timer"
	"loom/internal/validity"
)

func eqPF(a, b core.ParameterizedFunction) bool { return a.Equal(b) }

func mustProblem(t *testing.T, lib core.Library, prog core.Program) core.Problem {
	t.Helper()
	p, err := core.NewProblem(lib, prog)
	require.NoError(t, err)
	return p
}

func goalFact(typ core.MetName, arg int64) core.Fact {
	return core.NewMet[core.Value](typ, core.Arg[core.Value]{Name: "a", Value: core.IntValue(arg)})
}

func driveToCompletion(t *testing.T, problem core.Problem) (sketch.Sketch[core.ParameterizedFunction], bool) {
	t.Helper()
	o, err := oracle.New(problem, mangleengine.NewUncached())
	require.NoError(t, err)
	checker := validity.New(problem)

	sk, ok, err := pbn.AnyFromProvider(o, checker, 64, timer.Infinite{})
	require.NoError(t, err)
	return sk, ok
}

func fn(t *testing.T, lib core.Library, name core.BaseFunction, metadata map[core.MetParam]core.Value) core.ParameterizedFunction {
	t.Helper()
	pf, err := core.NewParameterizedFunction(lib.Functions, name, metadata)
	require.NoError(t, err)
	return pf
}

func emptyGoalLibrary() core.Library {
	types := core.NewMetLibrary()
	types.Set("T", core.NewMetSignature(core.Param{Name: "a", Type: core.Int}))

	funcs := core.NewFunctionLibrary()
	funcs.Set("f", core.NewFunctionSignature("T", core.Eq{A: core.AtomRet("a"), B: core.AtomLit(core.IntValue(1))}))

	return core.Library{Props: core.NewMetLibrary(), Types: types, Functions: funcs}
}

// Scenario 1, "Empty-goal": check is true, any returns App(f{a:1}, {}).
func TestAnyFromProviderEmptyGoal(t *testing.T) {
	lib := emptyGoalLibrary()
	problem := mustProblem(t, lib, core.Program{Goal: goalFact("T", 1)})

	checker := validity.New(problem)
	want := sketch.AppFrom(fn(t, lib, "f", map[core.MetParam]core.Value{"a": core.IntValue(1)}))
	assert.True(t, checker.Check(want))

	sk, ok := driveToCompletion(t, problem)
	require.True(t, ok)
	assert.True(t, sketch.Equal(sk, want, eqPF))
}

// Scenario 2, "No solution": the same library with goal T{a=2} yields no
// completion.
func TestAnyFromProviderNoSolution(t *testing.T) {
	lib := emptyGoalLibrary()
	problem := mustProblem(t, lib, core.Program{Goal: goalFact("T", 2)})

	_, ok := driveToCompletion(t, problem)
	assert.False(t, ok)
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

// Scenario 3, "Composition": any returns App(f{a:3}, {p: App(g{x:3}, {})}).
func TestAnyFromProviderComposition(t *testing.T) {
	lib := compositionLibrary()
	problem := mustProblem(t, lib, core.Program{Goal: goalFact("T", 3)})

	want := sketch.AppFrom(
		fn(t, lib, "f", map[core.MetParam]core.Value{"a": core.IntValue(3)}),
		sketch.Child[core.ParameterizedFunction]{
			Param:  "p",
			Sketch: sketch.AppFrom(fn(t, lib, "g", map[core.MetParam]core.Value{"x": core.IntValue(3)})),
		},
	)

	sk, ok := driveToCompletion(t, problem)
	require.True(t, ok)
	assert.True(t, sketch.Equal(sk, want, eqPF))
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

// Scenario 4, "Fact guard": a goal matching an asserted proposition
// succeeds, one that does not match finds no solution.
func TestAnyFromProviderFactGuard(t *testing.T) {
	lib := factGuardLibrary()

	matching := mustProblem(t, lib, core.Program{Props: factGuardProps(), Goal: goalFact("T", 9)})
	want := sketch.AppFrom(fn(t, lib, "f", map[core.MetParam]core.Value{"a": core.IntValue(9)}))
	sk, ok := driveToCompletion(t, matching)
	require.True(t, ok)
	assert.True(t, sketch.Equal(sk, want, eqPF))

	notAsserted := mustProblem(t, lib, core.Program{Props: factGuardProps(), Goal: goalFact("T", 8)})
	_, ok = driveToCompletion(t, notAsserted)
	assert.False(t, ok)
}

func twoCandidatesLibrary() core.Library {
	types := core.NewMetLibrary()
	types.Set("T", core.NewMetSignature(core.Param{Name: "a", Type: core.Int}))

	funcs := core.NewFunctionLibrary()
	funcs.Set("f1", core.NewFunctionSignature("T", core.Eq{A: core.AtomRet("a"), B: core.AtomLit(core.IntValue(1))}))
	funcs.Set("f2", core.NewFunctionSignature("T", core.Eq{A: core.AtomRet("a"), B: core.AtomLit(core.IntValue(1))}))

	return core.Library{Props: core.NewMetLibrary(), Types: types, Functions: funcs}
}

// Scenario 5, "Two candidates": the controller's Provide offers both f1
// and f2 at the root hole, and applying either one completes the sketch.
func TestControllerTwoCandidatesEitherChoiceCompletes(t *testing.T) {
	lib := twoCandidatesLibrary()
	problem := mustProblem(t, lib, core.Program{Goal: goalFact("T", 1)})

	o, err := oracle.New(problem, mangleengine.NewUncached())
	require.NoError(t, err)
	checker := validity.New(problem)

	c := pbn.New(o, checker)
	assert.False(t, c.Done())

	steps, err := c.Provide(timer.Infinite{})
	require.NoError(t, err)
	require.Len(t, steps, 2)

	require.NoError(t, c.Apply(steps[0]))
	assert.True(t, c.Done())
}

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

// Scenario 6, "Rule-cut": driven end-to-end, the controller must settle
// on fgood and never offer fbad, whose subgoal is unreachable once
// chased through g's header via cut.
func TestAnyFromProviderRuleCutSettlesOnTheInhabitableCandidate(t *testing.T) {
	lib := ruleCutLibrary()
	problem := mustProblem(t, lib, core.Program{Goal: goalFact("T", 3)})

	want := sketch.AppFrom(
		fn(t, lib, "fgood", map[core.MetParam]core.Value{"a": core.IntValue(3)}),
		sketch.Child[core.ParameterizedFunction]{
			Param:  "p",
			Sketch: sketch.AppFrom(fn(t, lib, "g", map[core.MetParam]core.Value{"x": core.IntValue(3)})),
		},
	)

	sk, ok := driveToCompletion(t, problem)
	require.True(t, ok)
	assert.True(t, sketch.Equal(sk, want, eqPF))
}
