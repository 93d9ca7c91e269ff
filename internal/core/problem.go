package core

// Problem bundles a Library and a Program such that the library is
// well-formed and every proposition's and the goal's value-types match
// their signatures.
type Problem struct {
	Library Library
	Program Program
}

// NewProblem constructs and checks a Problem.
func NewProblem(lib Library, prog Program) (Problem, error) {
	p := Problem{Library: lib, Program: prog}
	if err := p.check(); err != nil {
		return Problem{}, err
	}
	return p, nil
}

func (p Problem) check() error {
	if err := p.Library.Check(); err != nil {
		return err
	}
	return p.Program.Check(p.Library)
}

// Vals returns every value that appears anywhere relevant to this
// problem: in any function's condition, in any proposition, or in the
// goal. Used to build the finite domain for both the Datalog compiler and
// the enumerative synthesizer's supports.
func (p Problem) Vals() []Value {
	var vals []Value
	p.Library.Functions.Entries(func(_ BaseFunction, fs FunctionSignature) bool {
		vals = append(vals, fs.Vals()...)
		return true
	})
	for _, prop := range p.Program.Props {
		for pair := prop.Args.Oldest(); pair != nil; pair = pair.Next() {
			vals = append(vals, pair.Value)
		}
	}
	for pair := p.Program.Goal.Args.Oldest(); pair != nil; pair = pair.Next() {
		vals = append(vals, pair.Value)
	}
	return vals
}
