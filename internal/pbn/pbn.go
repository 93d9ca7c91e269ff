// Package pbn implements the Programming-By-Navigation controller: a
// small state machine that holds a sketch, a synth.StepProvider, and a
// synth.ValidityChecker, and drives the user-facing navigation loop one
// step at a time. It also offers AnyFromProvider, a standalone wrapper
// that runs the same cycle automatically — always taking the first
// offered step — to turn any synth.StepProvider into a
// synth.AnySynthesizer.
package pbn

import (
	"errors"
	"fmt"

	"loom/internal/core"
	"loom/internal/sketch"
	"loom/internal/synth"
	"loom/internal/timer"
)

// ErrNoSteps is returned by Controller.Provide when the provider offers
// no steps for the current sketch. AnyFromProvider does not propagate it;
// it reports that case as a dead end with a nil error.
var ErrNoSteps = errors.New("pbn: no steps available")

// ErrStepDidNotApply is the fatal condition of step 3: the
// caller chose a step that does not apply to the current sketch (wrong
// hole, wrong arity). It should never happen for a step the controller
// itself just offered via Provide, since Provide only returns steps that
// already apply; it can happen if a caller hand-builds a step instead.
var ErrStepDidNotApply = errors.New("pbn: chosen step did not apply to the current sketch")

func equalPF(a, b core.ParameterizedFunction) bool { return a.Equal(b) }

// Controller holds the PBN loop's state: the sketch under construction,
// the step provider and validity checker driving it, and a history stack
// of applied steps for undo and inspection by a front end.
type Controller struct {
	sk       sketch.Sketch[core.ParameterizedFunction]
	provider synth.StepProvider
	checker  synth.ValidityChecker
	history  []sketch.Step[core.ParameterizedFunction]
}

// New starts a controller from the empty sketch Hole(0).
func New(provider synth.StepProvider, checker synth.ValidityChecker) *Controller {
	return &Controller{
		sk:       sketch.Hole[core.ParameterizedFunction](0),
		provider: provider,
		checker:  checker,
	}
}

// Sketch returns the controller's current sketch.
func (c *Controller) Sketch() sketch.Sketch[core.ParameterizedFunction] {
	return c.sk
}

// Done reports whether the current sketch is ground and accepted by the
// validity checker.
func (c *Controller) Done() bool {
	return c.sk.Ground() && c.checker.Check(c.sk)
}

// Provide asks the step provider for every applicable step from the
// current sketch. An empty, error-free result is reported as ErrNoSteps
// so callers need not special-case len(steps)==0 themselves.
func (c *Controller) Provide(tm timer.Timer) ([]sketch.Step[core.ParameterizedFunction], error) {
	steps, err := c.provider.Provide(tm, c.sk)
	if err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return nil, ErrNoSteps
	}
	return steps, nil
}

// Apply applies step to the controller's current sketch, recording it in
// the history stack on success.
func (c *Controller) Apply(step sketch.Step[core.ParameterizedFunction]) error {
	next, ok := sketch.Apply(step, c.sk, equalPF)
	if !ok {
		return ErrStepDidNotApply
	}
	c.sk = next
	c.history = append(c.history, step)
	return nil
}

// History returns every step applied so far, oldest first.
func (c *Controller) History() []sketch.Step[core.ParameterizedFunction] {
	out := make([]sketch.Step[core.ParameterizedFunction], len(c.history))
	copy(out, c.history)
	return out
}

// Undo reverts the most recently applied step by rebuilding the sketch
// from Hole(0) and replaying every step but the last. It panics if there
// is no history to undo, since a front end should never offer Undo with
// an empty history.
func (c *Controller) Undo() {
	if len(c.history) == 0 {
		panic("pbn: Undo called with empty history")
	}
	remaining := c.history[:len(c.history)-1]
	c.history = nil
	c.sk = sketch.Hole[core.ParameterizedFunction](0)
	for _, step := range remaining {
		if err := c.Apply(step); err != nil {
			panic(fmt.Sprintf("pbn: replaying history during Undo: %v", err))
		}
	}
}

// AnyFromProvider turns a synth.StepProvider into a synth.AnySynthesizer:
// it runs the controller's cycle automatically, always taking the first
// offered step, bounded by maxSize (sketch.Size) and by tm. It reports a
// zero-value sketch with false and a nil error when the provider runs dry with a non-ground
// sketch (a dead end, not an error), and propagates any provider or
// timer error directly.
func AnyFromProvider(provider synth.StepProvider, checker synth.ValidityChecker, maxSize int, tm timer.Timer) (sketch.Sketch[core.ParameterizedFunction], bool, error) {
	c := New(provider, checker)
	for {
		if err := tm.Tick(); err != nil {
			return sketch.Sketch[core.ParameterizedFunction]{}, false, err
		}
		if c.Done() {
			return c.Sketch(), true, nil
		}
		if sketch.Size(c.Sketch()) >= maxSize {
			return sketch.Sketch[core.ParameterizedFunction]{}, false, timer.ErrOutOfMemory
		}

		steps, err := c.Provide(tm)
		if errors.Is(err, ErrNoSteps) {
			return sketch.Sketch[core.ParameterizedFunction]{}, false, nil
		}
		if err != nil {
			return sketch.Sketch[core.ParameterizedFunction]{}, false, err
		}
		if err := c.Apply(steps[0]); err != nil {
			return sketch.Sketch[core.ParameterizedFunction]{}, false, err
		}
	}
}
