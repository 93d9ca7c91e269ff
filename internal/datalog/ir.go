// Package datalog implements the intermediate representation the
// compiler (internal/compile) emits and the engine adapter
// (internal/mangleengine) consumes: ground and abstract facts, rules over
// them, and the rule-cut operation that drives the inhabitation oracle.
package datalog

import (
	"fmt"

	"loom/internal/core"
)

type valueKind int

const (
	intKind valueKind = iota
	strKind
	varKind
)

// Value is a Datalog-level value: a ground Int, a ground Str, or an
// abstract Var carrying its declared type. Unlike core.Value there is no
// Bool variant — booleans are compiled to Str("true")/Str("false") by
// internal/compile, since nothing downstream of the IR distinguishes a
// boolean constant from any other two-element enumeration (see DESIGN.md).
type Value struct {
	kind valueKind
	i    int64
	s    string
	typ  core.ValueType
}

// Int builds a ground integer value.
func Int(i int64) Value { return Value{kind: intKind, i: i} }

// Str builds a ground string value.
func Str(s string) Value { return Value{kind: strKind, s: s} }

// Var builds an abstract variable of the given name and declared type.
// name doubles as the variable's identity for equality and prefixing.
func Var(name string, typ core.ValueType) Value { return Value{kind: varKind, s: name, typ: typ} }

// IsVar, IsInt and IsStr report this value's kind and unwrap its payload.
func (v Value) IsVar() (name string, typ core.ValueType, ok bool) {
	return v.s, v.typ, v.kind == varKind
}
func (v Value) IsInt() (int64, bool) { return v.i, v.kind == intKind }
func (v Value) IsStr() (string, bool) { return v.s, v.kind == strKind }

// Ground reports whether v is a concrete Int or Str (not an abstract Var).
func (v Value) Ground() bool { return v.kind != varKind }

func (v Value) String() string {
	switch v.kind {
	case intKind:
		return fmt.Sprintf("%d", v.i)
	case strKind:
		return fmt.Sprintf("%q", v.s)
	default:
		return v.s
	}
}

// prefixed returns v with its variable name prefixed, or v unchanged if it
// is not a variable. Used by Cut to rename the caller's and callee's
// variables into disjoint namespaces before splicing their bodies.
func (v Value) prefixed(prefix string) Value {
	if v.kind != varKind {
		return v
	}
	return Value{kind: varKind, s: prefix + v.s, typ: v.typ}
}

// FromCore compiles a ground core.Value into a ground datalog Value.
func FromCore(v core.Value) Value {
	switch c := v.(type) {
	case core.IntValue:
		return Int(int64(c))
	case core.StrValue:
		return Str(string(c))
	case core.BoolValue:
		if c {
			return Str("true")
		}
		return Str("false")
	default:
		panic(fmt.Sprintf("datalog: cannot compile value of type %T", v))
	}
}

// Relation names a Datalog predicate: a type or proposition name from the
// library, or a synthetic name minted by the compiler (the goal wrapper,
// a per-hole query, a rule-cut result).
type Relation string

// RelationKind classifies a relation as intensional (defined by rules) or
// extensional (populated directly from ground facts).
type RelationKind int

const (
	IDB RelationKind = iota
	EDB
)

// Signature declares a relation's argument types and its IDB/EDB kind.
type Signature struct {
	Relation   Relation
	Kind       RelationKind
	ParamTypes []core.ValueType
}

// Fact is a (possibly abstract) tuple over a relation. A nil slot ("None")
// denotes an anonymous don't-care and is only valid in rule heads.
type Fact struct {
	Relation Relation
	Args     []*Value
}

// Ground reports whether every slot of f holds a concrete, non-nil value.
func (f Fact) Ground() bool {
	for _, a := range f.Args {
		if a == nil || !a.Ground() {
			return false
		}
	}
	return true
}

// Abstract reports whether every slot of f holds a non-nil variable.
func (f Fact) Abstract() bool {
	for _, a := range f.Args {
		if a == nil {
			return false
		}
		if _, _, ok := a.IsVar(); !ok {
			return false
		}
	}
	return true
}

func (f Fact) prefixed(prefix string) Fact {
	args := make([]*Value, len(f.Args))
	for i, a := range f.Args {
		if a == nil {
			continue
		}
		v := a.prefixed(prefix)
		args[i] = &v
	}
	return Fact{Relation: f.Relation, Args: args}
}

func (f Fact) String() string {
	s := string(f.Relation) + "("
	for i, a := range f.Args {
		if i > 0 {
			s += ", "
		}
		if a == nil {
			s += "_"
		} else {
			s += a.String()
		}
	}
	return s + ")"
}

// Predicate is a single body literal: a (non-primitive) Fact, or a
// primitive equality/inequality test between two values.
type Predicate interface {
	isPredicate()
	prefixed(prefix string) Predicate
	String() string
}

// FactPred wraps a Fact as a body literal.
type FactPred struct{ Fact Fact }

func (FactPred) isPredicate()      {}
func (p FactPred) String() string  { return p.Fact.String() }
func (p FactPred) prefixed(prefix string) Predicate {
	return FactPred{Fact: p.Fact.prefixed(prefix)}
}

// PrimEq is the primitive equality test between two values.
type PrimEq struct{ A, B Value }

func (PrimEq) isPredicate()     {}
func (p PrimEq) String() string { return fmt.Sprintf("%s = %s", p.A, p.B) }
func (p PrimEq) prefixed(prefix string) Predicate {
	return PrimEq{A: p.A.prefixed(prefix), B: p.B.prefixed(prefix)}
}

// PrimLt is the primitive less-than test between two values.
type PrimLt struct{ A, B Value }

func (PrimLt) isPredicate()     {}
func (p PrimLt) String() string { return fmt.Sprintf("%s < %s", p.A, p.B) }
func (p PrimLt) prefixed(prefix string) Predicate {
	return PrimLt{A: p.A.prefixed(prefix), B: p.B.prefixed(prefix)}
}

// Rule is a single Datalog rule: head :- body.
type Rule struct {
	Name string
	Head Fact
	Body []Predicate
}

func (r Rule) String() string {
	s := r.Head.String() + " :- "
	for i, p := range r.Body {
		if i > 0 {
			s += ", "
		}
		s += p.String()
	}
	return s
}

// check verifies r's invariants against sigs: the head is abstract, its
// relation is declared IDB, and every slot's declared type matches.
func (r Rule) check(sigs map[Relation]Signature) error {
	if !r.Head.Abstract() {
		return fmt.Errorf("rule %s: head %s is not abstract", r.Name, r.Head)
	}
	sig, ok := sigs[r.Head.Relation]
	if !ok {
		return fmt.Errorf("rule %s: relation %s is not declared", r.Name, r.Head.Relation)
	}
	if sig.Kind != IDB {
		return fmt.Errorf("rule %s: relation %s is not IDB, cannot be a rule head", r.Name, r.Head.Relation)
	}
	if err := checkFactTypes(r.Head, sig); err != nil {
		return fmt.Errorf("rule %s: %w", r.Name, err)
	}
	for _, p := range r.Body {
		fp, ok := p.(FactPred)
		if !ok {
			continue
		}
		bsig, ok := sigs[fp.Fact.Relation]
		if !ok {
			return fmt.Errorf("rule %s: body relation %s is not declared", r.Name, fp.Fact.Relation)
		}
		if err := checkFactTypes(fp.Fact, bsig); err != nil {
			return fmt.Errorf("rule %s: %w", r.Name, err)
		}
	}
	return nil
}

func checkFactTypes(f Fact, sig Signature) error {
	if len(f.Args) != len(sig.ParamTypes) {
		return fmt.Errorf("fact %s has %d args, relation %s declares %d", f, len(f.Args), sig.Relation, len(sig.ParamTypes))
	}
	for i, a := range f.Args {
		if a == nil {
			continue
		}
		if _, typ, ok := a.IsVar(); ok {
			if typ != sig.ParamTypes[i] {
				return fmt.Errorf("fact %s arg %d has type %s, relation %s expects %s", f, i, typ, sig.Relation, sig.ParamTypes[i])
			}
		}
	}
	return nil
}

// Program is a fully checked Datalog program: its relation signatures, a
// finite ground domain, its rules, and its ground (EDB) facts.
type Program struct {
	Sigs        map[Relation]Signature
	Dom         []Value
	Rules       []Rule
	GroundFacts []Fact
}

// NewProgram is the checking constructor: dom must be
// entirely ground, every rule head must be an abstract IDB fact with
// correctly typed slots, and every ground fact must be a ground EDB fact.
func NewProgram(sigs map[Relation]Signature, dom []Value, rules []Rule, groundFacts []Fact) (*Program, error) {
	for _, v := range dom {
		if !v.Ground() {
			return nil, fmt.Errorf("domain value %s is not ground", v)
		}
	}
	for _, r := range rules {
		if err := r.check(sigs); err != nil {
			return nil, err
		}
	}
	for _, f := range groundFacts {
		sig, ok := sigs[f.Relation]
		if !ok {
			return nil, fmt.Errorf("ground fact %s: relation is not declared", f)
		}
		if sig.Kind != EDB {
			return nil, fmt.Errorf("ground fact %s: relation %s is not EDB", f, f.Relation)
		}
		if !f.Ground() {
			return nil, fmt.Errorf("fact %s is not ground", f)
		}
	}
	return &Program{Sigs: sigs, Dom: dom, Rules: rules, GroundFacts: groundFacts}, nil
}

// Cut is the critical operation behind the inhabitation oracle: given
// that r1.Body[j] is a non-primitive Fact whose relation
// matches r2's head, build the rule that results from substituting r2's
// definition for that body literal, unifying r2's head slots with r1's
// j-th fact's argument variables via fresh primitive equalities.
//
// Cut returns false if body[j] is not a Fact, or its relation does not
// match r2's head relation.
func Cut(r1 Rule, j int, r2 Rule) (Rule, bool) {
	if j < 0 || j >= len(r1.Body) {
		return Rule{}, false
	}
	fact, ok := r1.Body[j].(FactPred)
	if !ok {
		return Rule{}, false
	}
	if fact.Fact.Relation != r2.Head.Relation {
		return Rule{}, false
	}

	head := r1.Head.prefixed("&y_")

	var body []Predicate
	for i, p := range r1.Body {
		if i == j {
			continue
		}
		body = append(body, p.prefixed("&y_"))
	}
	for _, p := range r2.Body {
		body = append(body, p.prefixed("&x_"))
	}
	for idx, oy := range fact.Fact.Args {
		if oy == nil {
			continue
		}
		ox := r2.Head.Args[idx]
		y := oy.prefixed("&y_")
		x := ox.prefixed("&x_")
		body = append(body, PrimEq{A: y, B: x})
	}

	return Rule{
		Name: fmt.Sprintf("&cut_%s/%s", r2.Name, r1.Name),
		Head: head,
		Body: body,
	}, true
}
