package frontend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"loom/internal/core"
	"loom/internal/sketch"
)

// appHead is the first element of an App's two-element JSON array:
// the function's base name, its metadata, and its parameter arity
// (arity is carried for readability; decoding recomputes it from the
// function library instead of trusting it).
type appHead struct {
	Name     string         `json:"name"`
	Metadata map[string]any `json:"metadata"`
	Arity    []string       `json:"arity"`
}

// MarshalExpression serializes sk as {Hole:h} or
// {App:[{name,metadata,arity}, {fp:<exp>, ...}]}.
func MarshalExpression(sk sketch.Sketch[core.ParameterizedFunction]) ([]byte, error) {
	return marshalSketch(sk)
}

func marshalSketch(sk sketch.Sketch[core.ParameterizedFunction]) ([]byte, error) {
	if h, ok := sk.IsHole(); ok {
		return json.Marshal(struct {
			Hole int `json:"Hole"`
		}{Hole: int(h)})
	}

	fn, args, _ := sk.IsApp()
	arity := fn.Arity()
	arityNames := make([]string, len(arity))
	for i, fp := range arity {
		arityNames[i] = string(fp)
	}
	metadata := make(map[string]any, len(fn.Metadata))
	for k, v := range fn.Metadata {
		metadata[string(k)] = nativeValue(v)
	}
	headJSON, err := json.Marshal(appHead{Name: string(fn.Name), Metadata: metadata, Arity: arityNames})
	if err != nil {
		return nil, err
	}

	childrenJSON, err := marshalChildren(args)
	if err != nil {
		return nil, err
	}

	return json.Marshal(struct {
		App []json.RawMessage `json:"App"`
	}{App: []json.RawMessage{headJSON, childrenJSON}})
}

func marshalChildren(args *orderedmap.OrderedMap[core.FunParam, sketch.Sketch[core.ParameterizedFunction]]) (json.RawMessage, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for pair := args.Oldest(); pair != nil; pair = pair.Next() {
		if !first {
			buf.WriteByte(',')
		}
		first = false

		keyJSON, err := json.Marshal(string(pair.Key))
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')

		childJSON, err := marshalSketch(pair.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(childJSON)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func nativeValue(v core.Value) any {
	switch x := v.(type) {
	case core.BoolValue:
		return bool(x)
	case core.IntValue:
		return int64(x)
	case core.StrValue:
		return string(x)
	default:
		return v.String()
	}
}

// UnmarshalExpression parses an Expression JSON document, resolving each
// App's function and parameter arity against flib.
func UnmarshalExpression(data []byte, flib *core.FunctionLibrary) (sketch.Sketch[core.ParameterizedFunction], error) {
	return unmarshalSketch(data, flib)
}

func unmarshalSketch(data []byte, flib *core.FunctionLibrary) (sketch.Sketch[core.ParameterizedFunction], error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return sketch.Sketch[core.ParameterizedFunction]{}, fmt.Errorf("frontend: parsing expression: %w", err)
	}

	if holeRaw, ok := probe["Hole"]; ok {
		var h int
		if err := json.Unmarshal(holeRaw, &h); err != nil {
			return sketch.Sketch[core.ParameterizedFunction]{}, fmt.Errorf("frontend: parsing hole: %w", err)
		}
		return sketch.Hole[core.ParameterizedFunction](sketch.HoleName(h)), nil
	}

	appRaw, ok := probe["App"]
	if !ok {
		return sketch.Sketch[core.ParameterizedFunction]{}, fmt.Errorf("frontend: expression has neither Hole nor App")
	}
	var parts []json.RawMessage
	if err := json.Unmarshal(appRaw, &parts); err != nil {
		return sketch.Sketch[core.ParameterizedFunction]{}, fmt.Errorf("frontend: parsing App: %w", err)
	}
	if len(parts) != 2 {
		return sketch.Sketch[core.ParameterizedFunction]{}, fmt.Errorf("frontend: App expects exactly 2 elements, got %d", len(parts))
	}

	var head appHead
	if err := json.Unmarshal(parts[0], &head); err != nil {
		return sketch.Sketch[core.ParameterizedFunction]{}, fmt.Errorf("frontend: parsing App head: %w", err)
	}
	metadata := make(map[core.MetParam]core.Value, len(head.Metadata))
	for k, v := range head.Metadata {
		val, err := jsonToValue(v)
		if err != nil {
			return sketch.Sketch[core.ParameterizedFunction]{}, fmt.Errorf("frontend: App %q metadata.%s: %w", head.Name, k, err)
		}
		metadata[core.MetParam(k)] = val
	}
	pf, err := core.NewParameterizedFunction(flib, core.BaseFunction(head.Name), metadata)
	if err != nil {
		return sketch.Sketch[core.ParameterizedFunction]{}, fmt.Errorf("frontend: App %q: %w", head.Name, err)
	}

	var children map[string]json.RawMessage
	if err := json.Unmarshal(parts[1], &children); err != nil {
		return sketch.Sketch[core.ParameterizedFunction]{}, fmt.Errorf("frontend: parsing App children: %w", err)
	}

	args := orderedmap.New[core.FunParam, sketch.Sketch[core.ParameterizedFunction]]()
	for _, fp := range pf.Arity() {
		raw, ok := children[string(fp)]
		if !ok {
			return sketch.Sketch[core.ParameterizedFunction]{}, fmt.Errorf("frontend: App %q missing argument %q", head.Name, fp)
		}
		child, err := unmarshalSketch(raw, flib)
		if err != nil {
			return sketch.Sketch[core.ParameterizedFunction]{}, err
		}
		args.Set(fp, child)
	}

	return sketch.App(pf, args), nil
}

// TranslateExpression renders an Expression JSON document as a target-code
// string: an App node as "name(fp=child, ...)", in the head's own
// recorded arity order, and a Hole node as "?h". Unlike
// UnmarshalExpression this does not resolve names against a
// FunctionLibrary — translate has no --library flag, so the head's own
// arity field is the only source of argument order available.
func TranslateExpression(data []byte) (string, error) {
	return translateRaw(data)
}

// ExpressionSize counts the nodes (App and Hole alike) in an Expression
// JSON document, matching sketch.Size's definition.
func ExpressionSize(data []byte) (int, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return 0, fmt.Errorf("frontend: parsing expression: %w", err)
	}
	if _, ok := probe["Hole"]; ok {
		return 1, nil
	}
	appRaw, ok := probe["App"]
	if !ok {
		return 0, fmt.Errorf("frontend: expression has neither Hole nor App")
	}
	var parts []json.RawMessage
	if err := json.Unmarshal(appRaw, &parts); err != nil {
		return 0, fmt.Errorf("frontend: parsing App: %w", err)
	}
	if len(parts) != 2 {
		return 0, fmt.Errorf("frontend: App expects exactly 2 elements, got %d", len(parts))
	}
	var children map[string]json.RawMessage
	if err := json.Unmarshal(parts[1], &children); err != nil {
		return 0, fmt.Errorf("frontend: parsing App children: %w", err)
	}
	total := 1
	for _, raw := range children {
		n, err := ExpressionSize(raw)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func translateRaw(data []byte) (string, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return "", fmt.Errorf("frontend: parsing expression: %w", err)
	}
	if holeRaw, ok := probe["Hole"]; ok {
		var h int
		if err := json.Unmarshal(holeRaw, &h); err != nil {
			return "", fmt.Errorf("frontend: parsing hole: %w", err)
		}
		return fmt.Sprintf("?%d", h), nil
	}

	appRaw, ok := probe["App"]
	if !ok {
		return "", fmt.Errorf("frontend: expression has neither Hole nor App")
	}
	var parts []json.RawMessage
	if err := json.Unmarshal(appRaw, &parts); err != nil {
		return "", fmt.Errorf("frontend: parsing App: %w", err)
	}
	if len(parts) != 2 {
		return "", fmt.Errorf("frontend: App expects exactly 2 elements, got %d", len(parts))
	}

	var head appHead
	if err := json.Unmarshal(parts[0], &head); err != nil {
		return "", fmt.Errorf("frontend: parsing App head: %w", err)
	}
	var children map[string]json.RawMessage
	if err := json.Unmarshal(parts[1], &children); err != nil {
		return "", fmt.Errorf("frontend: parsing App children: %w", err)
	}

	args := make([]string, 0, len(head.Arity))
	for _, fp := range head.Arity {
		raw, ok := children[fp]
		if !ok {
			return "", fmt.Errorf("frontend: App %q missing argument %q", head.Name, fp)
		}
		s, err := translateRaw(raw)
		if err != nil {
			return "", err
		}
		args = append(args, fp+"="+s)
	}
	return head.Name + "(" + strings.Join(args, ", ") + ")", nil
}

func jsonToValue(v any) (core.Value, error) {
	switch x := v.(type) {
	case bool:
		return core.BoolValue(x), nil
	case float64:
		return core.IntValue(int64(x)), nil
	case string:
		return core.StrValue(x), nil
	default:
		return nil, fmt.Errorf("unsupported metadata value %v (%T)", v, v)
	}
}
