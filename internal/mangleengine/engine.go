// Package mangleengine adapts loom's Datalog IR (internal/datalog) to
// google/mangle, the concrete Datalog engine behind the inhabitation
// oracle: a load/parse/analyze/evaluate pipeline generalized from a
// single mutable knowledge graph to the bracketed load-then-query
// contract the oracle needs.
package mangleengine

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	_ "github.com/google/mangle/builtin"
	mengine "github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	_ "github.com/google/mangle/packages"
	"github.com/google/mangle/parse"

	"loom/internal/datalog"
)

// Engine is the contract asks of a Datalog backend: install a
// program once, then run bracketed queries against it without leaking
// state between calls.
type Engine interface {
	// Load installs program's signatures, rules and ground facts.
	Load(program *datalog.Program) error
	// Query installs sig and rule on top of the loaded program, saturates,
	// and returns every tuple materialized under rule.Head.Relation.
	Query(sig datalog.Signature, rule datalog.Rule) ([][]datalog.Value, error)
}

// source is the rendered text of one loaded program, kept so both engine
// strategies can re-derive a combined source unit per query without
// re-deriving it from the IR each time.
type source struct {
	decls  []string
	facts  []string
	rules  []string
	sigs   map[datalog.Relation]datalog.Signature
}

func renderSource(program *datalog.Program) source {
	src := source{sigs: program.Sigs}
	for _, sig := range program.Sigs {
		src.decls = append(src.decls, declText(sig))
	}
	for _, f := range program.GroundFacts {
		src.facts = append(src.facts, groundFactText(f))
	}
	for _, r := range program.Rules {
		src.rules = append(src.rules, ruleText(r))
	}
	return src
}

func (s source) text() string {
	var b strings.Builder
	for _, d := range s.decls {
		b.WriteString(d)
		b.WriteString("\n")
	}
	for _, f := range s.facts {
		b.WriteString(f)
		b.WriteString("\n")
	}
	for _, r := range s.rules {
		b.WriteString(r)
		b.WriteString("\n")
	}
	return b.String()
}

// analyze parses text (one or more Mangle source units concatenated) and
// runs it through analysis, returning the resulting ProgramInfo.
func analyze(text string) (*analysis.ProgramInfo, error) {
	unit, err := parse.Unit(bytes.NewReader([]byte(text)))
	if err != nil {
		return nil, fmt.Errorf("mangleengine: parse: %w", err)
	}
	info, err := analysis.AnalyzeOneUnit(unit, nil)
	if err != nil {
		return nil, fmt.Errorf("mangleengine: analyze: %w", err)
	}
	return info, nil
}

func collectTuples(store factstore.FactStore, sig datalog.Signature) ([][]datalog.Value, error) {
	sym := ast.PredicateSym{Symbol: relName(sig.Relation), Arity: len(sig.ParamTypes)}
	var tuples [][]datalog.Value
	err := store.GetFacts(ast.NewQuery(sym), func(atom ast.Atom) error {
		row := make([]datalog.Value, len(atom.Args))
		for i, term := range atom.Args {
			v, err := decodeTerm(term)
			if err != nil {
				return err
			}
			row[i] = v
		}
		tuples = append(tuples, row)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("mangleengine: collect %s: %w", sig.Relation, err)
	}
	return tuples, nil
}

func decodeTerm(term ast.BaseTerm) (datalog.Value, error) {
	c, ok := term.(ast.Constant)
	if !ok {
		return datalog.Value{}, fmt.Errorf("mangleengine: expected a constant, got %T", term)
	}
	switch c.Type {
	case ast.NumberType:
		return datalog.Int(c.NumValue), nil
	default:
		return datalog.Str(c.Symbol), nil
	}
}

// Cached keeps the engine's fact store alive between queries: each Query
// call pushes a savepoint (a snapshot of the store's current predicates),
// installs the extra signature and rule, saturates, reads the answer, and
// pops the savepoint by discarding every fact added since.
type Cached struct {
	base  source
	store factstore.FactStoreWithRemove
}

// NewCached builds an empty, unloaded Cached engine.
func NewCached() *Cached { return &Cached{} }

func (e *Cached) Load(program *datalog.Program) error {
	e.base = renderSource(program)
	e.store = factstore.NewSimpleInMemoryStore()
	info, err := analyze(e.base.text())
	if err != nil {
		return err
	}
	if _, err := mengine.EvalProgramWithStats(info, e.store); err != nil {
		return fmt.Errorf("mangleengine: initial evaluation: %w", err)
	}
	return nil
}

func (e *Cached) Query(sig datalog.Signature, rule datalog.Rule) ([][]datalog.Value, error) {
	if e.store == nil {
		return nil, fmt.Errorf("mangleengine: Query called before Load")
	}

	// Push: snapshot every currently-stored atom so they can be restored
	// after this query's derived facts are discarded.
	snapshot := map[string][]ast.Atom{}
	for _, sym := range e.store.ListPredicates() {
		_ = e.store.GetFacts(ast.NewQuery(sym), func(a ast.Atom) error {
			snapshot[sym.Symbol] = append(snapshot[sym.Symbol], a)
			return nil
		})
	}

	query := source{sigs: map[datalog.Relation]datalog.Signature{sig.Relation: sig}}
	query.decls = append(query.decls, declText(sig))
	query.rules = append(query.rules, ruleText(rule))

	full := e.base.text() + "\n" + query.text()
	info, err := analyze(full)
	if err != nil {
		return nil, err
	}
	if _, err := mengine.EvalProgramWithStats(info, e.store); err != nil {
		return nil, fmt.Errorf("mangleengine: query evaluation: %w", err)
	}

	answer, err := collectTuples(e.store, sig)

	// Pop: rebuild a fresh store from the snapshot, discarding anything
	// evaluation derived for this query.
	fresh := factstore.NewSimpleInMemoryStore()
	for _, atoms := range snapshot {
		for _, a := range atoms {
			fresh.Add(a)
		}
	}
	e.store = fresh

	return answer, err
}

// Uncached never retains state between calls: each Query concatenates the
// loaded program's source with the query's signature and rule, and
// analyzes and evaluates the whole thing from scratch against a brand new
// store.
type Uncached struct {
	base source
}

// NewUncached builds an empty, unloaded Uncached engine.
func NewUncached() *Uncached { return &Uncached{} }

func (e *Uncached) Load(program *datalog.Program) error {
	e.base = renderSource(program)
	// Validate eagerly so load-time errors surface at load time rather
	// than on the first query.
	if _, err := analyze(e.base.text()); err != nil {
		return err
	}
	return nil
}

func (e *Uncached) Query(sig datalog.Signature, rule datalog.Rule) ([][]datalog.Value, error) {
	query := source{}
	query.decls = append(query.decls, declText(sig))
	query.rules = append(query.rules, ruleText(rule))

	full := e.base.text() + "\n" + query.text()
	info, err := analyze(full)
	if err != nil {
		return nil, err
	}
	store := factstore.NewSimpleInMemoryStore()
	if _, err := mengine.EvalProgramWithStats(info, store); err != nil {
		return nil, fmt.Errorf("mangleengine: query evaluation: %w", err)
	}
	return collectTuples(store, sig)
}
