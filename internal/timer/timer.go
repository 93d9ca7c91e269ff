// Package timer implements the single suspension point used throughout
// synthesis loops: a Timer that either never expires or
// expires at a fixed deadline, checked only at explicit Tick calls.
package timer

import (
	"errors"
	"time"
)

// ErrCutoff is returned by Finite.Tick once its deadline has passed.
var ErrCutoff = errors.New("early cutoff: timer expired")

// ErrOutOfMemory is used by callers (the PBN controller's AnyFromProvider
// and the CLI's interact loop) to signal that a sketch exceeded its configured maximum
// size, a sibling cutoff condition alongside timer expiration.
var ErrOutOfMemory = errors.New("early cutoff: sketch exceeded maximum size")

// Timer is ticked at every loop iteration of a synthesis procedure. It
// never blocks; Tick is a cheap deadline check.
type Timer interface {
	Tick() error
}

// Infinite never expires.
type Infinite struct{}

func (Infinite) Tick() error { return nil }

// Finite expires once its deadline has passed, returning err from then on.
type Finite struct {
	deadline time.Time
	err      error
}

// NewFinite builds a Finite timer that expires after d, returning err
// once expired.
func NewFinite(d time.Duration, err error) *Finite {
	if err == nil {
		err = ErrCutoff
	}
	return &Finite{deadline: time.Now().Add(d), err: err}
}

func (t *Finite) Tick() error {
	if time.Now().After(t.deadline) {
		return t.err
	}
	return nil
}
