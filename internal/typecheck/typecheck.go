// Package typecheck provides the public well-formedness and inference
// entry points for loom problems. The structural recursion itself lives
// alongside the types it checks, in package core's Check methods; callers
// (the CLI, the TOML front end) go through this package instead so that
// errors carry a breadcrumb trail identifying where in the library or
// program the violation occurred.
package typecheck

import (
	"errors"
	"fmt"
	"strings"

	"loom/internal/core"
)

// Error wraps an underlying well-formedness violation with a breadcrumb
// trail identifying where, structurally, the violation was found.
type Error struct {
	Breadcrumbs []string
	Err         error
}

func (e *Error) Error() string {
	if len(e.Breadcrumbs) == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", strings.Join(e.Breadcrumbs, " > "), e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func wrap(err error, breadcrumbs ...string) error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		return &Error{Breadcrumbs: append(breadcrumbs, te.Breadcrumbs...), Err: te.Err}
	}
	return &Error{Breadcrumbs: breadcrumbs, Err: err}
}

// CheckLibrary verifies library-level well-formedness: disjoint prop/type
// name sets, and that every function signature's condition is well-typed.
func CheckLibrary(lib core.Library) error {
	var outer error
	lib.Functions.Entries(func(name core.BaseFunction, fs core.FunctionSignature) bool {
		if err := fs.Check(lib.Types); err != nil {
			outer = wrap(err, "Function."+string(name))
			return false
		}
		return true
	})
	if outer != nil {
		return outer
	}
	if err := lib.Check(); err != nil {
		return wrap(err, "Library")
	}
	return nil
}

// CheckProgram verifies that every proposition and the goal match their
// declared signatures.
func CheckProgram(lib core.Library, prog core.Program) error {
	for i, prop := range prog.Props {
		if _, err := core.InferFact(lib.Props, prop); err != nil {
			return wrap(err, fmt.Sprintf("Prop[%d]", i))
		}
	}
	if _, err := core.InferFact(lib.Types, prog.Goal); err != nil {
		return wrap(err, "Goal")
	}
	return nil
}

// CheckProblem runs CheckLibrary then CheckProgram and, if both succeed,
// constructs a core.Problem.
func CheckProblem(lib core.Library, prog core.Program) (core.Problem, error) {
	if err := CheckLibrary(lib); err != nil {
		return core.Problem{}, err
	}
	if err := CheckProgram(lib, prog); err != nil {
		return core.Problem{}, err
	}
	return core.Problem{Library: lib, Program: prog}, nil
}

// InferFormulaAtomType infers the ValueType of a formula atom under a
// function signature. It is the public, breadcrumb-wrapped entry point
// for atom-inference; the recursion itself is FormulaAtom.Infer in
// package core.
func InferFormulaAtomType(mlib *core.MetLibrary, fs core.FunctionSignature, atom core.FormulaAtom) (core.ValueType, error) {
	vt, err := atom.Infer(mlib, fs)
	if err != nil {
		return 0, wrap(err, "FormulaAtom."+atom.String())
	}
	return vt, nil
}
