package core

import "sort"

// ParameterizedFunction is a function chosen from a FunctionLibrary
// together with concrete metadata for its return value. The arity is
// cached from the signature at construction time so that callers can use
// a ParameterizedFunction (in particular, ask for its Arity, to satisfy
// sketch.Function) without holding a reference to the defining library.
type ParameterizedFunction struct {
	Name     BaseFunction
	Metadata map[MetParam]Value
	arity    []FunParam
}

// NewParameterizedFunction looks up name in flib and pairs it with
// metadata, caching the signature's parameter arity.
func NewParameterizedFunction(flib *FunctionLibrary, name BaseFunction, metadata map[MetParam]Value) (ParameterizedFunction, error) {
	sig, ok := flib.Get(name)
	if !ok {
		return ParameterizedFunction{}, errUnknownBaseFunction(name)
	}
	return FromSignature(sig, name, metadata), nil
}

// FromSignature builds a ParameterizedFunction directly from an
// already-known signature, without a library lookup. Used by the oracle
// and enumerator, which hold signatures already.
func FromSignature(sig FunctionSignature, name BaseFunction, metadata map[MetParam]Value) ParameterizedFunction {
	return ParameterizedFunction{
		Name:     name,
		Metadata: metadata,
		arity:    sig.Arity(),
	}
}

// Arity returns the cached parameter names for this function, in
// declaration order. This makes ParameterizedFunction satisfy
// sketch.Function without needing to import the sketch package.
func (f ParameterizedFunction) Arity() []FunParam {
	out := make([]FunParam, len(f.arity))
	copy(out, f.arity)
	return out
}

// Equal reports whether two parameterized functions have the same base
// name and the same metadata values.
func (f ParameterizedFunction) Equal(other ParameterizedFunction) bool {
	if f.Name != other.Name || len(f.Metadata) != len(other.Metadata) {
		return false
	}
	for k, v := range f.Metadata {
		ov, ok := other.Metadata[k]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

func (f ParameterizedFunction) String() string {
	keys := make([]string, 0, len(f.Metadata))
	for k := range f.Metadata {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	s := string(f.Name) + "{"
	for i, k := range keys {
		if i > 0 {
			s += ", "
		}
		s += k + "=" + f.Metadata[MetParam(k)].String()
	}
	return s + "}"
}
