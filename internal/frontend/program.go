package frontend

import (
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"

	"loom/internal/core"
)

type rawFact struct {
	Name string         `toml:"name"`
	Args map[string]any `toml:"args"`
}

type rawProgram struct {
	Prop []rawFact `toml:"Prop"`
	Goal rawFact   `toml:"Goal"`
}

// ParseProgram decodes a TOML program document: zero or more [[Prop]]
// ground propositions, plus a single [Goal]. Argument keys within a fact
// are sorted alphabetically rather than trusted to TOML's inline-table
// map decoding, which does not preserve source order; a Fact's Args are
// looked up by key, so this only affects String() output, not semantics.
func ParseProgram(data []byte) (core.Program, error) {
	var raw rawProgram
	if err := toml.Unmarshal(data, &raw); err != nil {
		return core.Program{}, fmt.Errorf("frontend: parsing program: %w", err)
	}

	props := make([]core.Fact, 0, len(raw.Prop))
	for _, rf := range raw.Prop {
		f, err := buildFact(rf)
		if err != nil {
			return core.Program{}, fmt.Errorf("frontend: Prop %q: %w", rf.Name, err)
		}
		props = append(props, f)
	}

	goal, err := buildFact(raw.Goal)
	if err != nil {
		return core.Program{}, fmt.Errorf("frontend: Goal: %w", err)
	}

	return core.Program{Props: props, Goal: goal}, nil
}

func buildFact(rf rawFact) (core.Fact, error) {
	keys := make([]string, 0, len(rf.Args))
	for k := range rf.Args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]core.Arg[core.Value], 0, len(keys))
	for _, k := range keys {
		v, err := tomlToValue(rf.Args[k])
		if err != nil {
			return core.Fact{}, fmt.Errorf("args.%s: %w", k, err)
		}
		args = append(args, core.Arg[core.Value]{Name: core.MetParam(k), Value: v})
	}
	return core.NewMet[core.Value](core.MetName(rf.Name), args...), nil
}

func tomlToValue(v any) (core.Value, error) {
	switch x := v.(type) {
	case bool:
		return core.BoolValue(x), nil
	case int64:
		return core.IntValue(x), nil
	case string:
		return core.StrValue(x), nil
	default:
		return nil, fmt.Errorf("unsupported value %v (%T)", v, v)
	}
}
