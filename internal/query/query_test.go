package query

import (
	"testing"

	"github.com/stretchr/testify/require"

	"hdcmind/internal/ast"
	"hdcmind/internal/encoder"
	"hdcmind/internal/knowledge"
	"hdcmind/internal/position"
	"hdcmind/internal/vocabulary"
)

func newEngine(t *testing.T, d int) (*Engine, *encoder.Encoder) {
	t.Helper()
	vocab := vocabulary.New(d)
	positions, err := position.NewCache(0)
	require.NoError(t, err)
	enc := encoder.New(vocab, positions, d)
	return New(enc), enc
}

func TestQueryEmptyKB(t *testing.T) {
	eng, _ := newEngine(t, 2048)
	kb := knowledge.New(2048)
	res, err := eng.Query(ast.Statement{Operator: "love"}, encoder.NewScope(), kb)
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, "Empty knowledge base", res.Reason)
}

func TestQuerySingleHole(t *testing.T) {
	eng, enc := newEngine(t, 2048)
	kb := knowledge.New(2048)

	fact := ast.Statement{Operator: "love", Arguments: []ast.Term{
		ast.Identifier{Name: "John"}, ast.Identifier{Name: "Mary"},
	}}
	vec, meta, err := enc.EncodeStatement(fact, encoder.NewScope())
	require.NoError(t, err)
	require.NoError(t, kb.Append(knowledge.Fact{Vector: vec, Metadata: meta}))

	query := ast.Statement{Operator: "love", Arguments: []ast.Term{
		ast.Identifier{Name: "John"}, ast.Hole{Name: "who"},
	}}
	res, err := eng.Query(query, encoder.NewScope(), kb)
	require.NoError(t, err)
	require.True(t, res.Success)
	binding, ok := res.Bindings["who"]
	require.True(t, ok)
	require.NotNil(t, binding.Answer)
	require.Equal(t, "Mary", *binding.Answer)
	require.Greater(t, binding.Similarity, 0.7)
}

func TestQueryNoHolesDirectMatch(t *testing.T) {
	eng, enc := newEngine(t, 2048)
	kb := knowledge.New(2048)

	fact := ast.Statement{Operator: "isA", Arguments: []ast.Term{
		ast.Identifier{Name: "Rex"}, ast.Identifier{Name: "Dog"},
	}}
	vec, meta, _ := enc.EncodeStatement(fact, encoder.NewScope())
	require.NoError(t, kb.Append(knowledge.Fact{Vector: vec, Metadata: meta}))

	res, err := eng.Query(fact, encoder.NewScope(), kb)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Greater(t, res.Confidence, 0.7)
}

func TestQueryTooManyHoles(t *testing.T) {
	eng, _ := newEngine(t, 2048)
	kb := knowledge.New(2048)
	_ = kb.Append(knowledge.Fact{})

	args := make([]ast.Term, 6)
	for i := range args {
		args[i] = ast.Hole{Name: "h"}
	}
	res, err := eng.Query(ast.Statement{Operator: "op", Arguments: args}, encoder.NewScope(), kb)
	require.NoError(t, err)
	require.False(t, res.Success)
}
