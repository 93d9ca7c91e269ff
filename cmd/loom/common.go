package main

import (
	"fmt"
	"os"

	"loom/internal/config"
	"loom/internal/core"
	"loom/internal/enumerate"
	"loom/internal/frontend"
	"loom/internal/mangleengine"
	"loom/internal/oracle"
	"loom/internal/sketch"
	"loom/internal/synth"
	"loom/internal/timer"
	"loom/internal/typecheck"
)

// exitError pairs an error with the exit code assigns it:
// 0 success, 1 "not possible"/NoSolution, 2 parse/type error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func newExitError(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// exitCodeFor recovers the exit code an exitError carries, defaulting to
// 1 for any other error (cobra usage errors, I/O failures, and the like).
func exitCodeFor(err error) int {
	var ee *exitError
	if as(err, &ee) {
		return ee.code
	}
	return 1
}

func as(err error, target **exitError) bool {
	for err != nil {
		if ee, ok := err.(*exitError); ok {
			*target = ee
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// loadProblem reads and parses a library and a program file, then
// type-checks them into a core.Problem. Parse and type errors are wrapped
// as exit code 2, per "interact" convention, reused by every
// subcommand that loads a problem.
func loadProblem(libraryPath, programPath string) (core.Problem, error) {
	libData, err := os.ReadFile(libraryPath)
	if err != nil {
		return core.Problem{}, newExitError(2, fmt.Errorf("reading library %s: %w", libraryPath, err))
	}
	lib, err := frontend.ParseLibrary(libData)
	if err != nil {
		return core.Problem{}, newExitError(2, err)
	}

	progData, err := os.ReadFile(programPath)
	if err != nil {
		return core.Problem{}, newExitError(2, fmt.Errorf("reading program %s: %w", programPath, err))
	}
	prog, err := frontend.ParseProgram(progData)
	if err != nil {
		return core.Problem{}, newExitError(2, err)
	}

	problem, err := typecheck.CheckProblem(lib, prog)
	if err != nil {
		return core.Problem{}, newExitError(2, err)
	}
	return problem, nil
}

// buildOracle constructs the Datalog-backed oracle for problem, selecting
// its engine strategy from cfg.
func buildOracle(problem core.Problem, cfg config.Config) (*oracle.Oracle, error) {
	var engine mangleengine.Engine
	switch cfg.Engine {
	case config.StrategyUncached:
		engine = mangleengine.NewUncached()
	default:
		engine = mangleengine.NewCached()
	}
	return oracle.New(problem, engine)
}

// buildProviderSet resolves the --algorithm flag ("oracle", the default, or
// "enumerate") to a synth.StepProvider and, where available, an
// AnySynthesizer/AllSynthesizer pairing.
type providerSet struct {
	provider synth.StepProvider
	any      synth.AnySynthesizer
	all      synth.AllSynthesizer
}

func buildProviderSet(algorithm string, problem core.Problem, cfg config.Config) (providerSet, error) {
	switch algorithm {
	case "", "oracle":
		o, err := buildOracle(problem, cfg)
		if err != nil {
			return providerSet{}, err
		}
		return providerSet{provider: o}, nil
	case "enumerate":
		e := enumerate.New(problem, enumerate.ExhaustivePruner{})
		return providerSet{provider: e, any: e, all: e}, nil
	default:
		return providerSet{}, fmt.Errorf("unknown algorithm %q (want \"oracle\" or \"enumerate\")", algorithm)
	}
}

// loadConfig loads a config.Config from path, or returns built-in
// defaults if path is empty.
func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// timerFor builds the timer.Timer a synthesis run is bounded by: Infinite
// if cfg.QueryTimeout is zero, otherwise a Finite deadline of that
// duration.
func timerFor(cfg config.Config) timer.Timer {
	if cfg.QueryTimeout <= 0 {
		return timer.Infinite{}
	}
	return timer.NewFinite(cfg.QueryTimeout, timer.ErrCutoff)
}

// emitResult prints sk's textual form to stdout and, if jsonPath is
// non-empty, writes its Expression JSON serialization to that path.
func emitResult(sk sketch.Sketch[core.ParameterizedFunction], jsonPath string) error {
	fmt.Println(sketchText(sk))
	if jsonPath == "" {
		return nil
	}
	data, err := frontend.MarshalExpression(sk)
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", jsonPath, err)
	}
	return nil
}

// sketchText renders a ground sketch as "name{mp=v,...}(fp=child, ...)",
// the CLI's plain-text rendering of a synthesized expression.
func sketchText(sk sketch.Sketch[core.ParameterizedFunction]) string {
	if h, ok := sk.IsHole(); ok {
		return fmt.Sprintf("?%d", h)
	}
	fn, args, _ := sk.IsApp()
	s := fn.String() + "("
	first := true
	for pair := args.Oldest(); pair != nil; pair = pair.Next() {
		if !first {
			s += ", "
		}
		first = false
		s += string(pair.Key) + "=" + sketchText(pair.Value)
	}
	return s + ")"
}
