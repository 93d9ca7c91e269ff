package frontend

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"loom/internal/core"
)

var (
	reRet        = regexp.MustCompile(`^ret\.([a-zA-Z_][a-zA-Z0-9_]*)$`)
	reParam      = regexp.MustCompile(`^([a-zA-Z_][a-zA-Z0-9_]*)\.([a-zA-Z_][a-zA-Z0-9_]*)$`)
	reAtomicProp = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\{(.*)\}$`)
	reInt        = regexp.MustCompile(`^-?[0-9]+$`)
	reQuoted     = regexp.MustCompile(`^"(.*)"$`)
)

// ParseConjunction parses each line with ParseFormulaLine and conjuncts
// the results in order, returning True for an empty list.
func ParseConjunction(lines []string) (core.Formula, error) {
	formulas := make([]core.Formula, 0, len(lines))
	for _, line := range lines {
		f, err := ParseFormulaLine(line)
		if err != nil {
			return nil, err
		}
		formulas = append(formulas, f)
	}
	return core.Conjunct(formulas...), nil
}

// ParseFormulaLine parses one condition line: either "atom op atom" (op
// is "=" or "<") or an atomic-proposition pattern
// "PropName{mp=atom, mp2=_, ...}", where "_" marks a wildcard slot.
func ParseFormulaLine(line string) (core.Formula, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, fmt.Errorf("frontend: empty formula line")
	}

	if m := reAtomicProp.FindStringSubmatch(line); m != nil {
		return parseAtomicProp(m[1], m[2])
	}

	pos, op, ok := findTopLevelOp(line)
	if !ok {
		return nil, fmt.Errorf("frontend: malformed formula line %q", line)
	}
	left, err := parseAtom(strings.TrimSpace(line[:pos]))
	if err != nil {
		return nil, fmt.Errorf("frontend: formula line %q: %w", line, err)
	}
	right, err := parseAtom(strings.TrimSpace(line[pos+1:]))
	if err != nil {
		return nil, fmt.Errorf("frontend: formula line %q: %w", line, err)
	}

	switch op {
	case "=":
		return core.Eq{A: left, B: right}, nil
	case "<":
		return core.Lt{A: left, B: right}, nil
	default:
		return nil, fmt.Errorf("frontend: unknown operator %q in %q", op, line)
	}
}

func parseAtomicProp(name, inner string) (core.Formula, error) {
	inner = strings.TrimSpace(inner)
	var args []core.Arg[*core.FormulaAtom]
	if inner != "" {
		for _, part := range splitTopLevel(inner, ',') {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			eq := strings.IndexByte(part, '=')
			if eq < 0 {
				return nil, fmt.Errorf("frontend: malformed atomic proposition argument %q in %s{%s}", part, name, inner)
			}
			mp := strings.TrimSpace(part[:eq])
			valStr := strings.TrimSpace(part[eq+1:])

			var atomPtr *core.FormulaAtom
			if valStr != "_" {
				atom, err := parseAtom(valStr)
				if err != nil {
					return nil, fmt.Errorf("frontend: %s{%s}: %w", name, inner, err)
				}
				atomPtr = &atom
			}
			args = append(args, core.Arg[*core.FormulaAtom]{Name: core.MetParam(mp), Value: atomPtr})
		}
	}
	return core.AtomicProp{Prop: core.NewMet[*core.FormulaAtom](core.MetName(name), args...)}, nil
}

func parseAtom(s string) (core.FormulaAtom, error) {
	if m := reRet.FindStringSubmatch(s); m != nil {
		return core.AtomRet(core.MetParam(m[1])), nil
	}
	if m := reParam.FindStringSubmatch(s); m != nil {
		return core.AtomParam(core.FunParam(m[1]), core.MetParam(m[2])), nil
	}
	v, err := parseLiteral(s)
	if err != nil {
		return core.FormulaAtom{}, fmt.Errorf("cannot parse atom %q: %w", s, err)
	}
	return core.AtomLit(v), nil
}

func parseLiteral(s string) (core.Value, error) {
	switch s {
	case "true":
		return core.BoolValue(true), nil
	case "false":
		return core.BoolValue(false), nil
	}
	if m := reQuoted.FindStringSubmatch(s); m != nil {
		return core.StrValue(m[1]), nil
	}
	if reInt.MatchString(s) {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, err
		}
		return core.IntValue(n), nil
	}
	return nil, fmt.Errorf("not a literal value")
}

// findTopLevelOp finds the first "=" or "<" outside a quoted string.
func findTopLevelOp(s string) (int, string, bool) {
	inQuote := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' {
			inQuote = !inQuote
			continue
		}
		if inQuote {
			continue
		}
		if c == '=' || c == '<' {
			return i, string(c), true
		}
	}
	return 0, "", false
}

// splitTopLevel splits s on sep, skipping occurrences inside quotes.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	inQuote := false
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' {
			inQuote = !inQuote
			continue
		}
		if inQuote {
			continue
		}
		if c == sep {
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	return parts
}
