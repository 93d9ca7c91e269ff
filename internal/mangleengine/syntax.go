package mangleengine

import (
	"fmt"
	"strconv"
	"strings"

	"loom/internal/core"
	"loom/internal/datalog"
)

// This file turns datalog IR values into Mangle source text: programs are
// rendered to a single source unit and handed to parse.Unit, the same
// parse-from-text entry point Mangle itself expects for schema loading.
// The IR's variable and relation names are free-form strings seeded with
// "&" and "*" (e.g. "&ret*mp", "&cut_f.0/&Query_2_5"); Mangle identifiers
// must start with a letter and contain only letters, digits and
// underscores, so every name is run through a deterministic sanitizer
// before emission.

func sanitize(s string, upperFirst bool) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := b.String()
	if out == "" {
		out = "_"
	}
	first := out[0]
	isLetter := (first >= 'a' && first <= 'z') || (first >= 'A' && first <= 'Z')
	if !isLetter {
		if upperFirst {
			out = "V" + out
		} else {
			out = "p" + out
		}
	}
	if upperFirst {
		out = strings.ToUpper(out[:1]) + out[1:]
	} else {
		out = strings.ToLower(out[:1]) + out[1:]
	}
	return out
}

// varName maps an IR variable name to a valid (upper-case-initial) Mangle
// variable identifier.
func varName(name string) string { return sanitize(name, true) }

// relName maps an IR relation name to a valid (lower-case-initial) Mangle
// predicate identifier.
func relName(rel datalog.Relation) string { return sanitize(string(rel), false) }

func boundName(t core.ValueType) string {
	switch t {
	case core.Int:
		return "/number"
	case core.Str:
		return "/string"
	default:
		return "/string"
	}
}

func valueText(v datalog.Value) string {
	if name, _, ok := v.IsVar(); ok {
		return varName(name)
	}
	if i, ok := v.IsInt(); ok {
		return strconv.FormatInt(i, 10)
	}
	s, _ := v.IsStr()
	return strconv.Quote(s)
}

func slotText(v *datalog.Value) string {
	if v == nil {
		return "_"
	}
	return valueText(*v)
}

func factText(f datalog.Fact) string {
	parts := make([]string, len(f.Args))
	for i, a := range f.Args {
		parts[i] = slotText(a)
	}
	return fmt.Sprintf("%s(%s)", relName(f.Relation), strings.Join(parts, ", "))
}

func predicateText(p datalog.Predicate) string {
	switch v := p.(type) {
	case datalog.FactPred:
		return factText(v.Fact)
	case datalog.PrimEq:
		return fmt.Sprintf("%s = %s", valueText(v.A), valueText(v.B))
	case datalog.PrimLt:
		return fmt.Sprintf(":lt(%s, %s)", valueText(v.A), valueText(v.B))
	default:
		panic(fmt.Sprintf("mangleengine: unknown predicate type %T", p))
	}
}

// declText emits a Decl line declaring sig's arity and per-argument type
// bounds, so analysis can typecheck rules that reference it before any
// fact is present.
func declText(sig datalog.Signature) string {
	vars := make([]string, len(sig.ParamTypes))
	bounds := make([]string, len(sig.ParamTypes))
	for i, t := range sig.ParamTypes {
		vars[i] = fmt.Sprintf("X%d", i)
		bounds[i] = boundName(t)
	}
	return fmt.Sprintf("Decl %s(%s)\n  bound [%s].",
		relName(sig.Relation), strings.Join(vars, ", "), strings.Join(bounds, ", "))
}

// ruleText renders a single rule as "head :- body." (or "head." for a
// fact-only rule with no body).
func ruleText(r datalog.Rule) string {
	head := factText(r.Head)
	if len(r.Body) == 0 {
		return head + "."
	}
	parts := make([]string, len(r.Body))
	for i, p := range r.Body {
		parts[i] = predicateText(p)
	}
	return fmt.Sprintf("%s :- %s.", head, strings.Join(parts, ", "))
}

// groundFactText renders a ground EDB fact as "relation(v1, v2, ...)."
func groundFactText(f datalog.Fact) string {
	return factText(f) + "."
}
