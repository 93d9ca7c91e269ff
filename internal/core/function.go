package core

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// FunctionSignature is the signature of a parameterized function: an
// ordered mapping from function parameter to the MetName of its type, a
// return MetName, a condition formula referring to parameter/return
// metadata, and opaque user info. Equality (where needed) ignores Info.
type FunctionSignature struct {
	Params    *orderedmap.OrderedMap[FunParam, MetName]
	Ret       MetName
	Condition Formula
	Info      any
}

// NewFunctionSignature builds a signature from an ordered list of
// (param, type-name) pairs.
func NewFunctionSignature(ret MetName, condition Formula, params ...FunParamDecl) FunctionSignature {
	om := orderedmap.New[FunParam, MetName]()
	for _, p := range params {
		om.Set(p.Name, p.Type)
	}
	return FunctionSignature{Params: om, Ret: ret, Condition: condition}
}

// FunParamDecl is a single (param, type-name) pair, used to build a
// FunctionSignature in declaration order.
type FunParamDecl struct {
	Name FunParam
	Type MetName
}

// Check verifies that every parameter type and the return type are
// declared in mlib, and that the condition is well-formed under them.
func (fs FunctionSignature) Check(mlib *MetLibrary) error {
	for pair := fs.Params.Oldest(); pair != nil; pair = pair.Next() {
		if !mlib.Has(pair.Value) {
			return errUnknownMetName(pair.Value)
		}
	}
	if !mlib.Has(fs.Ret) {
		return errUnknownMetName(fs.Ret)
	}
	return fs.Condition.Check(mlib, fs)
}

// Vals returns every literal value mentioned in this signature's
// condition.
func (fs FunctionSignature) Vals() []Value {
	return fs.Condition.Vals()
}

// Arity returns this signature's function parameters in declaration
// order.
func (fs FunctionSignature) Arity() []FunParam {
	out := make([]FunParam, 0, fs.Params.Len())
	for pair := fs.Params.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// FunctionLibrary is an ordered mapping from BaseFunction to
// FunctionSignature.
type FunctionLibrary struct {
	entries *orderedmap.OrderedMap[BaseFunction, FunctionSignature]
}

// NewFunctionLibrary builds an empty FunctionLibrary.
func NewFunctionLibrary() *FunctionLibrary {
	return &FunctionLibrary{entries: orderedmap.New[BaseFunction, FunctionSignature]()}
}

func (l *FunctionLibrary) Set(name BaseFunction, sig FunctionSignature) {
	l.entries.Set(name, sig)
}

func (l *FunctionLibrary) Get(name BaseFunction) (FunctionSignature, bool) {
	return l.entries.Get(name)
}

func (l *FunctionLibrary) Has(name BaseFunction) bool {
	_, ok := l.entries.Get(name)
	return ok
}

func (l *FunctionLibrary) Len() int {
	return l.entries.Len()
}

// Names returns the declared function names in declaration order.
func (l *FunctionLibrary) Names() []BaseFunction {
	out := make([]BaseFunction, 0, l.entries.Len())
	for pair := l.entries.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// Entries iterates the library in declaration order, calling fn with each
// (name, signature) pair. Iteration stops early if fn returns false.
func (l *FunctionLibrary) Entries(fn func(BaseFunction, FunctionSignature) bool) {
	for pair := l.entries.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}

// Clone returns a shallow copy of l whose entries can be mutated (e.g. to
// add a synthetic goal function) without affecting l.
func (l *FunctionLibrary) Clone() *FunctionLibrary {
	out := NewFunctionLibrary()
	for pair := l.entries.Oldest(); pair != nil; pair = pair.Next() {
		out.Set(pair.Key, pair.Value)
	}
	return out
}

// Entries iterates a MetLibrary in declaration order.
func (l *MetLibrary) Entries(fn func(MetName, MetSignature) bool) {
	for pair := l.entries.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}
