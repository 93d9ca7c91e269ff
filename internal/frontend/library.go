// Package frontend parses loom's TOML library and program files, its
// condition-formula line grammar, and the JSON form used to serialize
// synthesized expressions. Modeled on the TOML-decoding idiom the pack
// uses (github.com/BurntSushi/toml), with declaration order recovered
// from the decoder's key metadata rather than trusted to Go map
// iteration, since every ordered mapping downstream (MetSignature,
// FunctionSignature) needs a stable order.
package frontend

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"loom/internal/core"
)

type rawValueMap struct {
	Params map[string]string `toml:"params"`
}

type rawFunction struct {
	Params    map[string]string `toml:"params"`
	Ret       string            `toml:"ret"`
	Condition []string          `toml:"condition"`
}

type rawLibrary struct {
	Prop     map[string]rawValueMap `toml:"Prop"`
	Type     map[string]rawValueMap `toml:"Type"`
	Function map[string]rawFunction `toml:"Function"`
}

// keyOrder recovers, from a toml.MetaData, the file order in which each
// [Table.Name] header and its params.<mp> keys first appeared.
type keyOrder struct {
	tables map[string][]string
	tseen  map[string]map[string]bool
	params map[string][]string
	pseen  map[string]map[string]bool
}

func newKeyOrder(md toml.MetaData) *keyOrder {
	ko := &keyOrder{
		tables: map[string][]string{},
		tseen:  map[string]map[string]bool{},
		params: map[string][]string{},
		pseen:  map[string]map[string]bool{},
	}
	for _, k := range md.Keys() {
		parts := []string(k)
		if len(parts) < 2 {
			continue
		}
		table, name := parts[0], parts[1]
		if ko.tseen[table] == nil {
			ko.tseen[table] = map[string]bool{}
		}
		if !ko.tseen[table][name] {
			ko.tseen[table][name] = true
			ko.tables[table] = append(ko.tables[table], name)
		}
		if len(parts) >= 4 && parts[2] == "params" {
			pk := table + "." + name
			param := parts[3]
			if ko.pseen[pk] == nil {
				ko.pseen[pk] = map[string]bool{}
			}
			if !ko.pseen[pk][param] {
				ko.pseen[pk][param] = true
				ko.params[pk] = append(ko.params[pk], param)
			}
		}
	}
	return ko
}

func (ko *keyOrder) names(table string) []string { return ko.tables[table] }

func (ko *keyOrder) paramsFor(table, name string) []string {
	return ko.params[table+"."+name]
}

// ParseLibrary decodes a TOML library document into a core.Library: a
// Prop table, a Type table, and a Function table of nested declarations,
// each carrying params.<name> = "Bool"|"Int"|"Str" entries and, for
// functions, a ret type name and a condition made of conjuncted formula
// lines.
func ParseLibrary(data []byte) (core.Library, error) {
	var raw rawLibrary
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return core.Library{}, fmt.Errorf("frontend: parsing library: %w", err)
	}
	order := newKeyOrder(md)

	props := core.NewMetLibrary()
	for _, name := range order.names("Prop") {
		sig, err := buildMetSignature(raw.Prop[name], order, "Prop", name)
		if err != nil {
			return core.Library{}, fmt.Errorf("frontend: Prop.%s: %w", name, err)
		}
		props.Set(core.MetName(name), sig)
	}

	types := core.NewMetLibrary()
	for _, name := range order.names("Type") {
		sig, err := buildMetSignature(raw.Type[name], order, "Type", name)
		if err != nil {
			return core.Library{}, fmt.Errorf("frontend: Type.%s: %w", name, err)
		}
		types.Set(core.MetName(name), sig)
	}

	functions := core.NewFunctionLibrary()
	for _, name := range order.names("Function") {
		sig, err := buildFunctionSignature(raw.Function[name], order, name)
		if err != nil {
			return core.Library{}, fmt.Errorf("frontend: Function.%s: %w", name, err)
		}
		functions.Set(core.BaseFunction(name), sig)
	}

	return core.Library{Props: props, Types: types, Functions: functions}, nil
}

func buildMetSignature(raw rawValueMap, order *keyOrder, table, name string) (core.MetSignature, error) {
	var params []core.Param
	for _, p := range order.paramsFor(table, name) {
		vtStr, ok := raw.Params[p]
		if !ok {
			continue
		}
		vt, err := parseValueType(vtStr)
		if err != nil {
			return core.MetSignature{}, fmt.Errorf("params.%s: %w", p, err)
		}
		params = append(params, core.Param{Name: core.MetParam(p), Type: vt})
	}
	return core.NewMetSignature(params...), nil
}

func buildFunctionSignature(raw rawFunction, order *keyOrder, name string) (core.FunctionSignature, error) {
	var params []core.FunParamDecl
	for _, p := range order.paramsFor("Function", name) {
		typeName, ok := raw.Params[p]
		if !ok {
			continue
		}
		params = append(params, core.FunParamDecl{Name: core.FunParam(p), Type: core.MetName(typeName)})
	}
	cond, err := ParseConjunction(raw.Condition)
	if err != nil {
		return core.FunctionSignature{}, fmt.Errorf("condition: %w", err)
	}
	return core.NewFunctionSignature(core.MetName(raw.Ret), cond, params...), nil
}

func parseValueType(s string) (core.ValueType, error) {
	switch s {
	case "Bool":
		return core.Bool, nil
	case "Int":
		return core.Int, nil
	case "Str":
		return core.Str, nil
	default:
		return 0, fmt.Errorf("unknown value type %q", s)
	}
}
