// Package enumerate implements the enumerative synthesizer: a
// Cartesian-product alternative to the Datalog-backed
// inhabitation oracle (internal/oracle), usable as an any/all solver or
// as a (slower, exhaustively-pruned) oracle in its own right.
package enumerate

import "loom/internal/core"

// Support is the finite value universe the enumerator draws concrete
// metadata from: Ints and Strs are every distinct Int/Str value that
// appears anywhere in the Problem (V); Bools are always
// {true, false} regardless of what appears in the problem, since a
// boolean metadata slot is inhabited either way.
type Support struct {
	Ints []core.Value
	Strs []core.Value
}

// BuildSupport derives a Support from every value mentioned anywhere in
// problem.
func BuildSupport(problem core.Problem) Support {
	seen := map[core.Value]bool{}
	var s Support
	for _, v := range problem.Vals() {
		if seen[v] {
			continue
		}
		seen[v] = true
		switch v.(type) {
		case core.IntValue:
			s.Ints = append(s.Ints, v)
		case core.StrValue:
			s.Strs = append(s.Strs, v)
		}
	}
	return s
}

// For returns the concrete values a slot of the given type may take.
func (s Support) For(t core.ValueType) []core.Value {
	switch t {
	case core.Bool:
		return []core.Value{core.BoolValue(true), core.BoolValue(false)}
	case core.Int:
		return s.Ints
	case core.Str:
		return s.Strs
	default:
		return nil
	}
}

// MetTuples is met_signature from : the Cartesian product
// over sig's parameters, each ranging over its type's support, yielding
// every concrete metadata assignment sig admits.
func MetTuples(sig core.MetSignature, support Support) []map[core.MetParam]core.Value {
	type column struct {
		mp   core.MetParam
		vals []core.Value
	}
	var cols []column
	for pair := sig.Params.Oldest(); pair != nil; pair = pair.Next() {
		cols = append(cols, column{mp: pair.Key, vals: support.For(pair.Value)})
	}

	tuples := []map[core.MetParam]core.Value{{}}
	for _, c := range cols {
		var next []map[core.MetParam]core.Value
		for _, t := range tuples {
			for _, v := range c.vals {
				nt := make(map[core.MetParam]core.Value, len(t)+1)
				for k, vv := range t {
					nt[k] = vv
				}
				nt[c.mp] = v
				next = append(next, nt)
			}
		}
		tuples = next
	}
	return tuples
}
