package core

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// MetSignature is the signature for a metadata-indexed tuple: an ordered
// mapping from parameter name to value type, plus opaque user info carried
// through unchanged (e.g. source-location metadata from a front end).
type MetSignature struct {
	Params *orderedmap.OrderedMap[MetParam, ValueType]
	Info   any
}

// NewMetSignature builds a signature from an ordered list of (param, type)
// pairs, preserving the given order.
func NewMetSignature(params ...Param) MetSignature {
	om := orderedmap.New[MetParam, ValueType]()
	for _, p := range params {
		om.Set(p.Name, p.Type)
	}
	return MetSignature{Params: om}
}

// Param is a single (name, type) pair, used to build a MetSignature in
// declaration order.
type Param struct {
	Name MetParam
	Type ValueType
}

// MetLibrary is an ordered mapping from MetName to MetSignature.
type MetLibrary struct {
	entries *orderedmap.OrderedMap[MetName, MetSignature]
}

// NewMetLibrary builds an empty MetLibrary.
func NewMetLibrary() *MetLibrary {
	return &MetLibrary{entries: orderedmap.New[MetName, MetSignature]()}
}

// Set inserts or overwrites the signature for name, preserving first-insert
// order for new keys.
func (l *MetLibrary) Set(name MetName, sig MetSignature) {
	l.entries.Set(name, sig)
}

// Get looks up the signature for name.
func (l *MetLibrary) Get(name MetName) (MetSignature, bool) {
	return l.entries.Get(name)
}

// Has reports whether name is declared in this library.
func (l *MetLibrary) Has(name MetName) bool {
	_, ok := l.entries.Get(name)
	return ok
}

// Names returns the declared names in declaration order.
func (l *MetLibrary) Names() []MetName {
	names := make([]MetName, 0, l.entries.Len())
	for pair := l.entries.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Len reports the number of declared names.
func (l *MetLibrary) Len() int {
	return l.entries.Len()
}

// Met is a named, argument-keyed tuple: a MetName plus an ordered mapping
// from MetParam to T. Specialized as Met[Value] (an atomic fact, used for
// propositions and goals) and Met[*FormulaAtom] (a pattern used inside
// formulas, where a nil argument denotes a wildcard "_").
type Met[T any] struct {
	Name MetName
	Args *orderedmap.OrderedMap[MetParam, T]
}

// NewMet builds a Met from an ordered list of (param, value) pairs.
func NewMet[T any](name MetName, args ...Arg[T]) Met[T] {
	om := orderedmap.New[MetParam, T]()
	for _, a := range args {
		om.Set(a.Name, a.Value)
	}
	return Met[T]{Name: name, Args: om}
}

// Arg is a single (param, value) pair used to build a Met in declaration
// order.
type Arg[T any] struct {
	Name  MetParam
	Value T
}

func (m Met[T]) String() string {
	s := string(m.Name) + "{"
	first := true
	for pair := m.Args.Oldest(); pair != nil; pair = pair.Next() {
		if !first {
			s += ", "
		}
		first = false
		s += fmt.Sprintf("%s=%v", pair.Key, pair.Value)
	}
	return s + "}"
}

// Fact is a ground Met: an atomic proposition or a goal.
type Fact = Met[Value]

// InferFact looks up fact's signature in mlib and checks that every
// argument's inferred value type matches, returning the matched signature.
//
// Go methods cannot be specialized per type-parameter instantiation, so
// this (along with FactsEqual below) is a free function over Met[Value]
// rather than a method on Met[T].
func InferFact(mlib *MetLibrary, fact Fact) (MetSignature, error) {
	sig, ok := mlib.Get(fact.Name)
	if !ok {
		return MetSignature{}, errUnknownMetName(fact.Name)
	}
	if fact.Args.Len() != sig.Params.Len() {
		return MetSignature{}, errArgCount(fact.Args.Len(), sig.Params.Len())
	}
	for pair := fact.Args.Oldest(); pair != nil; pair = pair.Next() {
		mp, v := pair.Key, pair.Value
		expected, ok := sig.Params.Get(mp)
		if !ok {
			return MetSignature{}, errUnknownMetParam(mp)
		}
		got := v.Infer()
		if got != expected {
			return MetSignature{}, fmt.Errorf("argument %s of %s is type %s but expected %s", mp, fact.Name, got, expected)
		}
	}
	return sig, nil
}

// FactsEqual reports whether two ground Mets denote the same fact: same
// name, same arity, and pointwise-equal argument values in the same key
// order.
func FactsEqual(a, b Fact) bool {
	if a.Name != b.Name || a.Args.Len() != b.Args.Len() {
		return false
	}
	bp := b.Args.Oldest()
	for pair := a.Args.Oldest(); pair != nil; pair = pair.Next() {
		if bp == nil || bp.Key != pair.Key || bp.Value != pair.Value {
			return false
		}
		bp = bp.Next()
	}
	return true
}
