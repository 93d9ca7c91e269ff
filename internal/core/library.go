package core

import "fmt"

// Library bundles the proposition, type, and function libraries that
// define a Problem's vocabulary. props and types must have disjoint key
// sets.
type Library struct {
	Props     *MetLibrary
	Types     *MetLibrary
	Functions *FunctionLibrary
}

// Check verifies library-level well-formedness: disjoint prop/type names,
// and that every function signature checks against Types.
func (l Library) Check() error {
	var ambiguous []MetName
	l.Props.Entries(func(name MetName, _ MetSignature) bool {
		if l.Types.Has(name) {
			ambiguous = append(ambiguous, name)
		}
		return true
	})
	if len(ambiguous) > 0 {
		return fmt.Errorf("%w: %v", ErrAmbiguousName, ambiguous)
	}

	var checkErr error
	l.Functions.Entries(func(_ BaseFunction, fs FunctionSignature) bool {
		if err := fs.Check(l.Types); err != nil {
			checkErr = err
			return false
		}
		return true
	})
	return checkErr
}
