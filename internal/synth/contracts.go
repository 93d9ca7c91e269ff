// Package synth collects the small set of interface abstractions that
// name the system's plug-in points: StepProvider, ValidityChecker,
// InhabitationOracle, AnySynthesizer and AllSynthesizer. They live in
// their own package, separate from both internal/oracle and
// internal/enumerate (the two concrete providers) and internal/pbn (the
// controller that consumes them), so that all three can depend on the
// contracts without any two of them depending on each other.
package synth

import (
	"loom/internal/core"
	"loom/internal/sketch"
	"loom/internal/timer"
)

// Candidate is one (hole, function) choice a StepProvider or
// InhabitationOracle offers: filling Hole with Fn.
type Candidate struct {
	Hole sketch.HoleName
	Fn   core.ParameterizedFunction
}

// StepProvider offers the PBN controller a set of steps applicable to the
// current sketch.
type StepProvider interface {
	Provide(tm timer.Timer, sk sketch.Sketch[core.ParameterizedFunction]) ([]sketch.Step[core.ParameterizedFunction], error)
}

// ValidityChecker decides whether a ground sketch is an accepted final
// answer.
type ValidityChecker interface {
	Check(sk sketch.Sketch[core.ParameterizedFunction]) bool
}

// InhabitationOracle returns every (hole, function) candidate that keeps
// sk completable.
type InhabitationOracle interface {
	Expansions(sk sketch.Sketch[core.ParameterizedFunction], tm timer.Timer) ([]Candidate, error)
}

// AnySynthesizer returns a single complete, well-typed sketch, or reports
// that none exists.
type AnySynthesizer interface {
	Any(tm timer.Timer) (sketch.Sketch[core.ParameterizedFunction], bool, error)
}

// AllSynthesizer returns every complete, well-typed sketch.
type AllSynthesizer interface {
	All(tm timer.Timer) ([]sketch.Sketch[core.ParameterizedFunction], error)
}
