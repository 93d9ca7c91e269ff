package core

import (
	"errors"
	"fmt"
)

// ErrAmbiguousName is returned when a Library's props and types share a
// name.
var ErrAmbiguousName = errors.New("ambiguous prop/type name")

func errUnknownMetName(n MetName) error {
	return fmt.Errorf("unknown metadata name %q", n)
}

func errUnknownMetParam(p MetParam) error {
	return fmt.Errorf("unknown metadata parameter %q", p)
}

func errUnknownFunParam(p FunParam) error {
	return fmt.Errorf("unknown function parameter %q", p)
}

func errUnknownBaseFunction(f BaseFunction) error {
	return fmt.Errorf("unknown base function %q", f)
}

func errArgCount(got, expected int) error {
	return fmt.Errorf("got %d args, expected %d", got, expected)
}
