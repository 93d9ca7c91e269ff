// Package compile translates a core.Problem (and, transitively, the
// application tree of a sketch being grown against it) into the Datalog
// IR (internal/datalog) that internal/mangleengine can load and query:
// relation signatures, one header rule per library function, and the
// condition-to-predicate compilation shared by the inhabitation oracle's
// per-hole queries.
package compile

import (
	"fmt"

	"loom/internal/core"
	"loom/internal/datalog"
)

// ErrNegationUnsupported is returned when a function's condition contains
// Neq: the Datalog backend this system generates rules for is
// negation-free, and general negation of formulas is out of scope for
// the Formula language itself, so Neq conditions cannot be compiled,
// only type-checked and evaluated as a witness (package eval).
var ErrNegationUnsupported = fmt.Errorf("compile: Neq conditions cannot be compiled to Datalog")

// Signatures builds one datalog.Signature per declared MetName: types
// become IDB relations (they are derived by the rules the compiler
// emits), props become EDB relations (they are asserted as ground
// facts), in each library's declaration order.
func Signatures(lib core.Library) map[datalog.Relation]datalog.Signature {
	sigs := map[datalog.Relation]datalog.Signature{}
	addFrom(sigs, lib.Types, datalog.IDB)
	addFrom(sigs, lib.Props, datalog.EDB)
	return sigs
}

func addFrom(sigs map[datalog.Relation]datalog.Signature, mlib *core.MetLibrary, kind datalog.RelationKind) {
	for _, name := range mlib.Names() {
		sig, _ := mlib.Get(name)
		paramTypes := make([]core.ValueType, 0, sig.Params.Len())
		for pair := sig.Params.Oldest(); pair != nil; pair = pair.Next() {
			paramTypes = append(paramTypes, pair.Value)
		}
		rel := datalog.Relation(name)
		sigs[rel] = datalog.Signature{Relation: rel, Kind: kind, ParamTypes: paramTypes}
	}
}

// CompileAtom compiles a single FormulaAtom to a Datalog Value. fs is
// the function signature the atom is checked against, used to resolve a
// Param atom's metadata type.
func CompileAtom(mlib *core.MetLibrary, fs core.FunctionSignature, atom core.FormulaAtom) (datalog.Value, error) {
	if fp, mp, ok := atom.IsParam(); ok {
		typ, err := atom.Infer(mlib, fs)
		if err != nil {
			return datalog.Value{}, err
		}
		return datalog.Var(fmt.Sprintf("%s*%s", fp, mp), typ), nil
	}
	if mp, ok := atom.IsRet(); ok {
		typ, err := atom.Infer(mlib, fs)
		if err != nil {
			return datalog.Value{}, err
		}
		return datalog.Var(fmt.Sprintf("&ret*%s", mp), typ), nil
	}
	lit, _ := atom.IsLit()
	return datalog.FromCore(lit), nil
}

// CompileFormula compiles a condition formula to the sequence of body
// predicates it expands to. True expands to none; Eq/Lt
// expand to one primitive each; AtomicProp expands to one Fact, with
// wildcard arguments left as None slots; And concatenates its operands'
// expansions. Neq is rejected: see ErrNegationUnsupported.
func CompileFormula(mlib *core.MetLibrary, fs core.FunctionSignature, f core.Formula) ([]datalog.Predicate, error) {
	switch v := f.(type) {
	case core.True:
		return nil, nil
	case core.Eq:
		a, err := CompileAtom(mlib, fs, v.A)
		if err != nil {
			return nil, err
		}
		b, err := CompileAtom(mlib, fs, v.B)
		if err != nil {
			return nil, err
		}
		return []datalog.Predicate{datalog.PrimEq{A: a, B: b}}, nil
	case core.Neq:
		return nil, ErrNegationUnsupported
	case core.Lt:
		a, err := CompileAtom(mlib, fs, v.A)
		if err != nil {
			return nil, err
		}
		b, err := CompileAtom(mlib, fs, v.B)
		if err != nil {
			return nil, err
		}
		return []datalog.Predicate{datalog.PrimLt{A: a, B: b}}, nil
	case core.AtomicProp:
		sig, ok := mlib.Get(v.Prop.Name)
		if !ok {
			return nil, fmt.Errorf("compile: unknown proposition %s", v.Prop.Name)
		}
		args := make([]*datalog.Value, 0, sig.Params.Len())
		for pair := sig.Params.Oldest(); pair != nil; pair = pair.Next() {
			fa, ok := v.Prop.Args.Get(pair.Key)
			if !ok || fa == nil {
				args = append(args, nil)
				continue
			}
			val, err := CompileAtom(mlib, fs, *fa)
			if err != nil {
				return nil, err
			}
			args = append(args, &val)
		}
		fact := datalog.Fact{Relation: datalog.Relation(v.Prop.Name), Args: args}
		return []datalog.Predicate{datalog.FactPred{Fact: fact}}, nil
	case core.And:
		left, err := CompileFormula(mlib, fs, v.Left)
		if err != nil {
			return nil, err
		}
		right, err := CompileFormula(mlib, fs, v.Right)
		if err != nil {
			return nil, err
		}
		return append(left, right...), nil
	default:
		return nil, fmt.Errorf("compile: unknown formula variant %T", f)
	}
}

// HeaderRule builds the header rule for a single library function f: its
// head is an abstract fact of its return type with slot variables named
// "&ret*mp", and its body is, for each parameter, an abstract fact of
// that parameter's type with slot variables named "fp*mp", followed by
// the compiled condition.
func HeaderRule(mlib *core.MetLibrary, name core.BaseFunction, fs core.FunctionSignature) (datalog.Rule, error) {
	retSig, ok := mlib.Get(fs.Ret)
	if !ok {
		return datalog.Rule{}, fmt.Errorf("compile: unknown return type %s", fs.Ret)
	}
	head := headFact(datalog.Relation(fs.Ret), retSig, "&ret*")

	var body []datalog.Predicate
	for pair := fs.Params.Oldest(); pair != nil; pair = pair.Next() {
		fp, mn := pair.Key, pair.Value
		paramSig, ok := mlib.Get(mn)
		if !ok {
			return datalog.Rule{}, fmt.Errorf("compile: unknown parameter type %s", mn)
		}
		body = append(body, datalog.FactPred{Fact: headFact(datalog.Relation(mn), paramSig, string(fp)+"*")})
	}

	cond, err := CompileFormula(mlib, fs, fs.Condition)
	if err != nil {
		return datalog.Rule{}, fmt.Errorf("compile: function %s: %w", name, err)
	}
	body = append(body, cond...)

	return datalog.Rule{Name: string(name), Head: head, Body: body}, nil
}

// headFact builds an abstract fact of relation rel, one variable slot per
// parameter of sig, each named prefix+mp.
func headFact(rel datalog.Relation, sig core.MetSignature, prefix string) datalog.Fact {
	args := make([]*datalog.Value, 0, sig.Params.Len())
	for pair := sig.Params.Oldest(); pair != nil; pair = pair.Next() {
		v := datalog.Var(prefix+string(pair.Key), pair.Value)
		args = append(args, &v)
	}
	return datalog.Fact{Relation: rel, Args: args}
}

// HeaderRules builds the header rule for every function in lib.Functions,
// keyed by function name.
func HeaderRules(lib core.Library) (map[core.BaseFunction]datalog.Rule, error) {
	rules := map[core.BaseFunction]datalog.Rule{}
	var outerErr error
	lib.Functions.Entries(func(name core.BaseFunction, fs core.FunctionSignature) bool {
		r, err := HeaderRule(lib.Types, name, fs)
		if err != nil {
			outerErr = err
			return false
		}
		rules[name] = r
		return true
	})
	if outerErr != nil {
		return nil, outerErr
	}
	return rules, nil
}

// GroundFact compiles a ground core.Fact (a proposition) to a ground
// datalog.Fact over an EDB relation, taking the arguments in fact.Args
// order.
func GroundFact(fact core.Fact) datalog.Fact {
	args := make([]*datalog.Value, 0, fact.Args.Len())
	for pair := fact.Args.Oldest(); pair != nil; pair = pair.Next() {
		v := datalog.FromCore(pair.Value)
		args = append(args, &v)
	}
	return datalog.Fact{Relation: datalog.Relation(fact.Name), Args: args}
}

// Domain builds the finite domain dom = {compile(v) | v in V} where V is
// every value mentioned by the problem plus any extra values the caller
// passes. internal/oracle, the only caller (through Program), passes
// none.
func Domain(problem core.Problem, extra ...core.Value) []datalog.Value {
	vals := problem.Vals()
	vals = append(vals, extra...)
	seen := map[datalog.Value]bool{}
	var dom []datalog.Value
	for _, v := range vals {
		d := datalog.FromCore(v)
		if !seen[d] {
			seen[d] = true
			dom = append(dom, d)
		}
	}
	return dom
}

// Program assembles the full Datalog program for a problem: signatures,
// header rules, ground facts (the program's propositions), and a domain
// extended with any extra values the caller passes.
// It returns the checked datalog.Program alongside the header-rule map,
// which the oracle needs for cutting.
func Program(problem core.Problem, extra ...core.Value) (*datalog.Program, map[core.BaseFunction]datalog.Rule, error) {
	sigs := Signatures(problem.Library)
	headers, err := HeaderRules(problem.Library)
	if err != nil {
		return nil, nil, err
	}

	// A proposition's arguments are emitted in its signature's parameter
	// order, which fixes the relation's argument positions; the fact's own
	// Args order (alphabetical from the front end) need not match it.
	var groundFacts []datalog.Fact
	for _, prop := range problem.Program.Props {
		ordered := prop
		if sig, ok := problem.Library.Props.Get(prop.Name); ok {
			ordered = core.NewMet[core.Value](prop.Name)
			for pair := sig.Params.Oldest(); pair != nil; pair = pair.Next() {
				v, _ := prop.Args.Get(pair.Key)
				ordered.Args.Set(pair.Key, v)
			}
		}
		groundFacts = append(groundFacts, GroundFact(ordered))
	}

	// Iterate in the library's declaration order rather than ranging over
	// the headers map directly, so generated rule order is reproducible
	// across runs.
	rules := make([]datalog.Rule, 0, len(headers))
	for _, name := range problem.Library.Functions.Names() {
		rules = append(rules, headers[name])
	}

	dom := Domain(problem, extra...)

	prog, err := datalog.NewProgram(sigs, dom, rules, groundFacts)
	if err != nil {
		return nil, nil, err
	}
	return prog, headers, nil
}

// DecompileValue converts a ground Datalog value back to a core.Value
// under its declared type, reversing datalog.FromCore. A Bool type is
// reconstructed from the Str("true")/Str("false") encoding compile uses
// for booleans, since the Datalog IR itself has no Bool variant.
func DecompileValue(v datalog.Value, typ core.ValueType) (core.Value, error) {
	switch typ {
	case core.Int:
		i, ok := v.IsInt()
		if !ok {
			return nil, fmt.Errorf("decompile: expected Int, got %s", v)
		}
		return core.IntValue(i), nil
	case core.Str:
		s, ok := v.IsStr()
		if !ok {
			return nil, fmt.Errorf("decompile: expected Str, got %s", v)
		}
		return core.StrValue(s), nil
	case core.Bool:
		s, ok := v.IsStr()
		if !ok {
			return nil, fmt.Errorf("decompile: expected Bool-encoded Str, got %s", v)
		}
		switch s {
		case "true":
			return core.BoolValue(true), nil
		case "false":
			return core.BoolValue(false), nil
		default:
			return nil, fmt.Errorf("decompile: %q is not a valid Bool encoding", s)
		}
	default:
		return nil, fmt.Errorf("decompile: unknown value type %s", typ)
	}
}
