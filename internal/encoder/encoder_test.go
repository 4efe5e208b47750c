package encoder

import (
	"testing"

	"github.com/stretchr/testify/require"

	"hdcmind/internal/algebra"
	"hdcmind/internal/ast"
	"hdcmind/internal/position"
	"hdcmind/internal/vocabulary"
)

func newEncoder(t *testing.T, d int) *Encoder {
	t.Helper()
	vocab := vocabulary.New(d)
	positions, err := position.NewCache(0)
	require.NoError(t, err)
	return New(vocab, positions, d)
}

func TestEncodeStatementMetadataOrder(t *testing.T) {
	e := newEncoder(t, 256)
	stmt := ast.Statement{Operator: "isA", Arguments: []ast.Term{
		ast.Identifier{Name: "Rex"}, ast.Identifier{Name: "Dog"},
	}}
	_, meta, err := e.EncodeStatement(stmt, NewScope())
	require.NoError(t, err)
	require.Equal(t, "isA", meta.Operator)
	require.Equal(t, []string{"Rex", "Dog"}, meta.Args)
}

func TestEncodeStatementDeterministic(t *testing.T) {
	e1 := newEncoder(t, 256)
	e2 := newEncoder(t, 256)
	stmt := ast.Statement{Operator: "isA", Arguments: []ast.Term{
		ast.Identifier{Name: "Rex"}, ast.Identifier{Name: "Dog"},
	}}
	v1, _, err := e1.EncodeStatement(stmt, NewScope())
	require.NoError(t, err)
	v2, _, err := e2.EncodeStatement(stmt, NewScope())
	require.NoError(t, err)
	require.True(t, v1.Equal(v2))
}

func TestEncodeStatementPositionMattersForOrder(t *testing.T) {
	e := newEncoder(t, 256)
	forward := ast.Statement{Operator: "loves", Arguments: []ast.Term{
		ast.Identifier{Name: "John"}, ast.Identifier{Name: "Mary"},
	}}
	backward := ast.Statement{Operator: "loves", Arguments: []ast.Term{
		ast.Identifier{Name: "Mary"}, ast.Identifier{Name: "John"},
	}}
	v1, _, err := e.EncodeStatement(forward, NewScope())
	require.NoError(t, err)
	v2, _, err := e.EncodeStatement(backward, NewScope())
	require.NoError(t, err)
	require.False(t, v1.Equal(v2))
}

func TestEncodeTermUndefinedReference(t *testing.T) {
	e := newEncoder(t, 256)
	_, _, err := e.EncodeTerm(ast.Reference{Alias: "missing"}, NewScope())
	require.Error(t, err)
	var undef *UndefinedReferenceError
	require.ErrorAs(t, err, &undef)
}

func TestEncodeTermEmptyList(t *testing.T) {
	e := newEncoder(t, 256)
	v, text, err := e.EncodeTerm(ast.List{}, NewScope())
	require.NoError(t, err)
	require.Equal(t, "[]", text)
	expect, err := e.Vocab.GetOrCreate(vocabularyEmptyListName())
	require.NoError(t, err)
	require.True(t, v.Equal(expect))
}

func vocabularyEmptyListName() string {
	return "__EMPTY_LIST__"
}

func TestBuildRuleAtomicCondition(t *testing.T) {
	e := newEncoder(t, 256)
	scope := NewScope()

	condStmt := ast.Statement{Operator: "isA", Arguments: []ast.Term{ast.Hole{Name: "x"}, ast.Identifier{Name: "Human"}}}
	condVec, _, err := e.EncodeStatement(condStmt, scope)
	require.NoError(t, err)
	scope.Bind("cond", condVec, condStmt)

	conclStmt := ast.Statement{Operator: "isA", Arguments: []ast.Term{ast.Hole{Name: "x"}, ast.Identifier{Name: "Mortal"}}}
	conclVec, _, err := e.EncodeStatement(conclStmt, scope)
	require.NoError(t, err)
	scope.Bind("conc", conclVec, conclStmt)

	implies := ast.Statement{Operator: "Implies", Arguments: []ast.Term{
		ast.Reference{Alias: "cond"}, ast.Reference{Alias: "conc"},
	}}
	rule, err := e.BuildRule(implies, "r", "", scope)
	require.NoError(t, err)
	require.True(t, rule.HasVariables)
	require.Equal(t, []string{"x"}, rule.ConditionVariables)
	require.Nil(t, rule.ConditionParts)
}

func TestBuildRuleCompoundAnd(t *testing.T) {
	e := newEncoder(t, 256)
	scope := NewScope()

	c1 := ast.Statement{Operator: "has", Arguments: []ast.Term{ast.Hole{Name: "x"}, ast.Identifier{Name: "Motive"}}}
	v1, _, _ := e.EncodeStatement(c1, scope)
	scope.Bind("c1", v1, c1)

	c2 := ast.Statement{Operator: "has", Arguments: []ast.Term{ast.Hole{Name: "x"}, ast.Identifier{Name: "Opportunity"}}}
	v2, _, _ := e.EncodeStatement(c2, scope)
	scope.Bind("c2", v2, c2)

	and := ast.Statement{Operator: "And", Arguments: []ast.Term{ast.Reference{Alias: "c1"}, ast.Reference{Alias: "c2"}}}
	vand, _, _ := e.EncodeStatement(and, scope)
	scope.Bind("a1", vand, and)

	concl := ast.Statement{Operator: "isGuilty", Arguments: []ast.Term{ast.Hole{Name: "x"}}}
	vconcl, _, _ := e.EncodeStatement(concl, scope)
	scope.Bind("conc", vconcl, concl)

	implies := ast.Statement{Operator: "Implies", Arguments: []ast.Term{
		ast.Reference{Alias: "a1"}, ast.Reference{Alias: "conc"},
	}}
	rule, err := e.BuildRule(implies, "r", "", scope)
	require.NoError(t, err)
	require.NotNil(t, rule.ConditionParts)
	require.Equal(t, 2, len(rule.ConditionParts.Parts))
}

func TestTopKIntegration(t *testing.T) {
	e := newEncoder(t, 2048)
	_, err := e.Vocab.GetOrCreate("Dog")
	require.NoError(t, err)
	_, err = e.Vocab.GetOrCreate("Cat")
	require.NoError(t, err)
	dog, _ := e.Vocab.GetOrCreate("Dog")
	top, err := algebra.TopK(dog, e.Vocab.Snapshot(), 1)
	require.NoError(t, err)
	require.Equal(t, "Dog", top[0].Name)
}
