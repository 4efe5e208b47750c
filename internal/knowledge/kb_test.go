package knowledge

import (
	"testing"

	"github.com/stretchr/testify/require"

	"hdcmind/internal/bitvector"
)

func fact(op string, args []string, bit int) Fact {
	v, _ := bitvector.New(64)
	v = v.SetBit(bit, true)
	return Fact{Vector: v, Metadata: Metadata{Operator: op, Args: args}}
}

func TestAppendGrowsLenAndAggregate(t *testing.T) {
	kb := New(64)
	require.NoError(t, kb.Append(fact("isA", []string{"Rex", "Dog"}, 0)))
	require.Equal(t, 1, kb.Len())
	agg, ok := kb.Aggregate()
	require.True(t, ok)
	require.Equal(t, 1, agg.Popcount())
}

func TestMatchExact(t *testing.T) {
	kb := New(64)
	_ = kb.Append(fact("isA", []string{"Rex", "Dog"}, 0))
	_ = kb.Append(fact("isA", []string{"Dog", "Mammal"}, 1))

	matches := kb.MatchExact("isA", []string{"Rex", "Dog"})
	require.Len(t, matches, 1)

	none := kb.MatchExact("isA", []string{"Rex", "Cat"})
	require.Empty(t, none)
}

func TestContradictionMutuallyExclusive(t *testing.T) {
	kb := New(64)
	closed := fact("hasState", []string{"Box", "Closed"}, 0)
	require.NoError(t, kb.Append(closed))

	open := fact("hasState", []string{"Box", "Open"}, 1)
	warnings := CheckContradictions(kb, open, nil)
	require.NoError(t, kb.Append(open))

	require.Contains(t, warnings, "Warning: contradiction - Box is both Open and Closed")
}

func TestContradictionDirect(t *testing.T) {
	kb := New(64)
	target := fact("isA", []string{"Rex", "Dog"}, 0)
	require.NoError(t, kb.Append(target))

	notFact := fact("Not", []string{"$cond"}, 1)
	tv := target.Vector
	warnings := CheckContradictions(kb, notFact, &tv)
	require.Contains(t, warnings, "Warning: direct contradiction detected")
}

func TestContradictionTemporal(t *testing.T) {
	kb := New(64)
	before := fact("before", []string{"A", "B"}, 0)
	require.NoError(t, kb.Append(before))

	after := fact("after", []string{"A", "B"}, 1)
	warnings := CheckContradictions(kb, after, nil)
	require.Contains(t, warnings, "Warning: temporal contradiction")
}

func TestNoContradictionForUnrelatedFacts(t *testing.T) {
	kb := New(64)
	require.NoError(t, kb.Append(fact("isA", []string{"Rex", "Dog"}, 0)))
	warnings := CheckContradictions(kb, fact("isA", []string{"Fido", "Dog"}, 1), nil)
	require.Empty(t, warnings)
}
