package datalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loom/internal/core"
	"loom/internal/datalog"
)

// A callee rule T(&ret*a) :- &ret*a = 1, and a caller rule querying for a
// T fact bound to its own parameter variable.
func cutFixture() (caller, callee datalog.Rule) {
	retA := datalog.Var("&ret*a", core.Int)
	callee = datalog.Rule{
		Name: "f",
		Head: datalog.Fact{Relation: "T", Args: []*datalog.Value{&retA}},
		Body: []datalog.Predicate{datalog.PrimEq{A: retA, B: datalog.Int(1)}},
	}

	paramA := datalog.Var("p*a", core.Int)
	caller = datalog.Rule{
		Name: "Query_1_0",
		Head: datalog.Fact{Relation: "Query_1_0", Args: []*datalog.Value{&paramA}},
		Body: []datalog.Predicate{
			datalog.FactPred{Fact: datalog.Fact{Relation: "T", Args: []*datalog.Value{&paramA}}},
		},
	}
	return caller, callee
}

func TestCutSplicesCalleeBodyAndUnifiesArgs(t *testing.T) {
	caller, callee := cutFixture()

	got, ok := datalog.Cut(caller, 0, callee)
	require.True(t, ok)

	assert.Equal(t, "&cut_f/Query_1_0", got.Name)

	wantHead := datalog.Fact{Relation: "Query_1_0", Args: []*datalog.Value{ptr(datalog.Var("&y_p*a", core.Int))}}
	assert.Equal(t, wantHead, got.Head)

	want := []datalog.Predicate{
		datalog.PrimEq{A: datalog.Var("&x_&ret*a", core.Int), B: datalog.Int(1)},
		datalog.PrimEq{A: datalog.Var("&y_p*a", core.Int), B: datalog.Var("&x_&ret*a", core.Int)},
	}
	assert.Equal(t, want, got.Body)
}

func TestCutDropsTheCutLiteralFromTheCallersRemainingBody(t *testing.T) {
	callerVar := datalog.Var("p*a", core.Int)
	otherVar := datalog.Var("p*b", core.Int)
	callee := datalog.Rule{
		Name: "f",
		Head: datalog.Fact{Relation: "T", Args: []*datalog.Value{ptr(datalog.Var("&ret*a", core.Int))}},
	}
	caller := datalog.Rule{
		Name: "Query_1_0",
		Head: datalog.Fact{Relation: "Query_1_0", Args: []*datalog.Value{&callerVar}},
		Body: []datalog.Predicate{
			datalog.FactPred{Fact: datalog.Fact{Relation: "T", Args: []*datalog.Value{&callerVar}}},
			datalog.PrimEq{A: otherVar, B: datalog.Int(5)},
		},
	}

	got, ok := datalog.Cut(caller, 0, callee)
	require.True(t, ok)

	assert.Contains(t, got.Body, datalog.PrimEq{A: datalog.Var("&y_p*b", core.Int), B: datalog.Int(5)})
	assert.NotContains(t, got.Body, datalog.FactPred{Fact: datalog.Fact{Relation: "T", Args: []*datalog.Value{ptr(datalog.Var("&y_p*a", core.Int))}}})
}

func TestCutFailsWhenIndexOutOfRange(t *testing.T) {
	caller, callee := cutFixture()

	_, ok := datalog.Cut(caller, 5, callee)

	assert.False(t, ok)
}

func TestCutFailsWhenBodyLiteralIsNotAFact(t *testing.T) {
	_, callee := cutFixture()
	caller := datalog.Rule{
		Name: "Query_1_0",
		Head: datalog.Fact{Relation: "Query_1_0", Args: []*datalog.Value{ptr(datalog.Var("p*a", core.Int))}},
		Body: []datalog.Predicate{datalog.PrimEq{A: datalog.Int(1), B: datalog.Int(1)}},
	}

	_, ok := datalog.Cut(caller, 0, callee)

	assert.False(t, ok)
}

func TestCutFailsWhenRelationDoesNotMatch(t *testing.T) {
	caller, callee := cutFixture()
	callee.Head.Relation = "U"

	_, ok := datalog.Cut(caller, 0, callee)

	assert.False(t, ok)
}

func ptr(v datalog.Value) *datalog.Value { return &v }
