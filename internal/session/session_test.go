package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"hdcmind/internal/config"
)

func newSession(t *testing.T) *Session {
	t.Helper()
	s, err := New(config.Default(), nil)
	require.NoError(t, err)
	return s
}

func TestLearnGrowsKBByFactCount(t *testing.T) {
	s := newSession(t)
	res := s.Learn("isA Rex Dog\nisA Dog Mammal\n")
	require.True(t, res.Success)
	require.Equal(t, 2, res.Facts)
	require.Equal(t, 2, s.KB.Len())
}

func TestLearnBindingOnlyDoesNotPersist(t *testing.T) {
	s := newSession(t)
	res := s.Learn("@a isA Rex Dog\n")
	require.True(t, res.Success)
	require.Equal(t, 0, res.Facts)
	require.Equal(t, 0, s.KB.Len())
	_, ok := s.Scope.Lookup("a")
	require.True(t, ok)
}

func TestLearnBindingWithPersistence(t *testing.T) {
	s := newSession(t)
	res := s.Learn("@a:rex isA Rex Dog\n")
	require.True(t, res.Success)
	require.Equal(t, 1, res.Facts)
	f, ok := s.KB.FactByName("rex")
	require.True(t, ok)
	require.Equal(t, "isA", f.Metadata.Operator)
}

func TestLearnParseErrorHaltsBatch(t *testing.T) {
	s := newSession(t)
	res := s.Learn("isA Rex Dog\nlove \"unterminated\nisA Dog Mammal\n")
	require.False(t, res.Success)
	require.Len(t, res.Errors, 1)
	require.Contains(t, res.Errors[0], "line 2")
	// Statements before the error persisted; the one after did not.
	require.Equal(t, 1, s.KB.Len())
}

func TestLearnUndefinedReferenceContinues(t *testing.T) {
	s := newSession(t)
	res := s.Learn("isA Rex Dog\nImplies $nope $also\nisA Dog Mammal\n")
	require.False(t, res.Success)
	require.NotEmpty(t, res.Errors)
	require.Equal(t, 2, s.KB.Len())
}

// A single-hole query decodes the missing argument exactly.
func TestQuerySingleHole(t *testing.T) {
	s := newSession(t)
	require.True(t, s.Learn("love John Mary\n").Success)

	res, err := s.Query("love John ?who")
	require.NoError(t, err)
	require.True(t, res.Success)

	b, ok := res.Bindings["who"]
	require.True(t, ok)
	require.NotNil(t, b.Answer)
	require.Equal(t, "Mary", *b.Answer)
	require.Greater(t, b.Similarity, 0.7)
}

func TestQueryNoHolesDirectMatch(t *testing.T) {
	s := newSession(t)
	require.True(t, s.Learn("love John Mary\n").Success)

	res, err := s.Query("love John Mary")
	require.NoError(t, err)
	require.True(t, res.Success)
	require.GreaterOrEqual(t, res.Confidence, 0.7)
}

func TestQueryEmptyKB(t *testing.T) {
	s := newSession(t)
	res, err := s.Query("love John ?who")
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, "Empty knowledge base", res.Reason)
}

// A three-fact isA chain proves transitively, steps in chain order.
func TestProveTransitiveChain(t *testing.T) {
	s := newSession(t)
	require.True(t, s.Learn("isA Rex Dog\nisA Dog Mammal\nisA Mammal Animal\n").Success)

	res, err := s.Prove("@goal isA Rex Animal", nil)
	require.NoError(t, err)
	require.True(t, res.Valid)
	require.Equal(t, "transitive_chain", res.Method)

	var facts []string
	for _, st := range res.Steps {
		facts = append(facts, st.Fact)
	}
	require.Equal(t, []string{"isA Rex Dog", "isA Dog Mammal", "isA Mammal Animal"}, facts)
}

// A quantified rule unifies its conclusion against a ground goal.
func TestProveBackwardChainUnified(t *testing.T) {
	s := newSession(t)
	require.True(t, s.Learn(`
@cond isA ?x Human
@conc isA ?x Mortal
@r Implies $cond $conc
isA Socrates Human
`).Success)

	res, err := s.Prove("@goal isA Socrates Mortal", nil)
	require.NoError(t, err)
	require.True(t, res.Valid)
	require.Equal(t, "backward_chain_unified", res.Method)
	require.Equal(t, "Socrates", res.Bindings["x"])
}

// A nested And condition binds ?x consistently across all parts.
func TestProveConjunctiveRule(t *testing.T) {
	s := newSession(t)
	require.True(t, s.Learn(`
has Alice Motive
has Alice Opportunity
has Alice Means
@c1 has ?x Motive
@c2 has ?x Opportunity
@c3 has ?x Means
@a1 And $c1 $c2
@a2 And $a1 $c3
@conc isGuilty ?x
@r Implies $a2 $conc
`).Success)

	res, err := s.Prove("@goal isGuilty Alice", nil)
	require.NoError(t, err)
	require.True(t, res.Valid)
	require.Equal(t, "Alice", res.Bindings["x"])
}

// A locatedIn goal into a disjoint continent is proven false.
func TestProveDisjointRefutation(t *testing.T) {
	s := newSession(t)
	require.True(t, s.Learn(`
locatedIn Tokyo Japan
locatedIn Japan Asia
isA Asia Continent
isA Europe Continent
mutuallyDisjoint Continent
`).Success)

	res, err := s.Prove("@goal locatedIn Tokyo Europe", nil)
	require.NoError(t, err)
	require.True(t, res.Valid)
	require.Equal(t, "disjoint_proof", res.Method)
	require.NotNil(t, res.ResultValue)
	require.False(t, *res.ResultValue)
}

// Contradictory states warn but both facts still persist.
func TestLearnContradictionWarning(t *testing.T) {
	s := newSession(t)
	res := s.Learn("hasState Box Closed\nhasState Box Open\n")
	require.True(t, res.Success)
	require.Equal(t, 2, res.Facts)
	require.Contains(t, res.Warnings, "Warning: contradiction - Box is both Open and Closed")
	require.Contains(t, s.Warnings(), "Warning: contradiction - Box is both Open and Closed")
}

func TestLoadAndUnload(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "animals.hdc"),
		[]byte("isA Rex Dog\nisA Dog Mammal\n"), 0644))

	cfg := config.Default()
	cfg.BaseDir = dir
	s, err := New(cfg, nil)
	require.NoError(t, err)

	res := s.Learn("Load \"animals.hdc\"\n")
	require.True(t, res.Success)
	require.Equal(t, 2, res.Facts)

	// A second Load is idempotent.
	res = s.Learn("Load \"animals.hdc\"\n")
	require.True(t, res.Success)
	require.Equal(t, 0, res.Facts)

	// Unload makes the path eligible again; facts are never retracted.
	res = s.Learn("Unload \"animals.hdc\"\nLoad \"animals.hdc\"\n")
	require.True(t, res.Success)
	require.Equal(t, 2, res.Facts)
	require.Equal(t, 4, s.KB.Len())
}

func TestRulesLoadedFromTheoryRegister(t *testing.T) {
	dir := t.TempDir()
	theory := `
@cond isA ?x Human
@conc isA ?x Mortal
@r Implies $cond $conc
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mortal.hdc"), []byte(theory), 0644))

	cfg := config.Default()
	cfg.BaseDir = dir
	s, err := New(cfg, nil)
	require.NoError(t, err)

	require.True(t, s.Learn("Load \"mortal.hdc\"\nisA Socrates Human\n").Success)
	require.Len(t, s.KB.Rules, 1)

	res, err := s.Prove("isA Socrates Mortal", nil)
	require.NoError(t, err)
	require.True(t, res.Valid)
}

// Decode is exact only when subtracting the operator stamp leaves a
// single P1-bound argument, so the round-trip test uses a one-argument
// fact (multi-argument decode is inherently approximate: every other
// argument contributes ~half-density noise to each position's residue).
func TestDecodeRoundTrip(t *testing.T) {
	s := newSession(t)
	require.True(t, s.Learn("mutuallyDisjoint Continent\n").Success)

	decoded, err := s.Decode(s.KB.Facts[0].Vector)
	require.NoError(t, err)
	require.Equal(t, "mutuallyDisjoint", decoded.Operator)
	require.Len(t, decoded.Args, 1)
	require.Equal(t, "Continent", decoded.Args[0].Value)
	require.Greater(t, decoded.Args[0].Similarity, 0.99)
}

func TestSummarize(t *testing.T) {
	s := newSession(t)
	require.True(t, s.Learn("mutuallyDisjoint Continent\n").Success)

	text, err := s.Summarize(s.KB.Facts[0].Vector)
	require.NoError(t, err)
	require.Equal(t, "Continent members are mutually exclusive", text)
}

func TestElaborate(t *testing.T) {
	s := newSession(t)
	require.True(t, s.Learn("isA Rex Dog\nisA Dog Mammal\n").Success)

	res, err := s.Prove("isA Rex Mammal", nil)
	require.NoError(t, err)
	require.True(t, res.Valid)
	require.NotEmpty(t, s.Elaborate(res.Steps))
}

func TestReasoningStats(t *testing.T) {
	s := newSession(t)
	require.True(t, s.Learn("isA Rex Dog\nisA Dog Mammal\n").Success)

	_, err := s.Query("isA Rex ?what")
	require.NoError(t, err)
	res, err := s.Prove("isA Rex Mammal", nil)
	require.NoError(t, err)
	require.True(t, res.Valid)

	snap := s.GetReasoningStats(true)
	require.Equal(t, 1, snap.Queries)
	require.Equal(t, 1, snap.Proofs)
	require.Greater(t, snap.SimilarityChecks, 0)
	require.Equal(t, 1, snap.MethodHistogram[res.Method])
	require.Greater(t, snap.AvgProofLength, 0.0)

	// Reset zeroed everything.
	snap = s.GetReasoningStats(false)
	require.Equal(t, 0, snap.Queries)
	require.Equal(t, 0, snap.Proofs)
}

// Adding unrelated facts never makes a previously-provable goal
// unprovable.
func TestMonotonicity(t *testing.T) {
	s := newSession(t)
	require.True(t, s.Learn("isA Rex Dog\nisA Dog Mammal\n").Success)

	res, err := s.Prove("isA Rex Mammal", nil)
	require.NoError(t, err)
	require.True(t, res.Valid)

	require.True(t, s.Learn("isA Whiskers Cat\nlocatedIn Tokyo Japan\nhas Alice Motive\n").Success)

	res, err = s.Prove("isA Rex Mammal", nil)
	require.NoError(t, err)
	require.True(t, res.Valid)
}

func TestDump(t *testing.T) {
	s := newSession(t)
	require.True(t, s.Learn(`
isA Rex Dog
@cond isA ?x Dog
@conc isA ?x Animal
@r Implies $cond $conc
`).Success)

	// A proof first, so the snapshot row carries non-zero counters.
	res, err := s.Prove("isA Rex Dog", nil)
	require.NoError(t, err)
	require.True(t, res.Valid)

	path := filepath.Join(t.TempDir(), "session.db")
	require.NoError(t, s.Dump(context.Background(), path))
	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestClearScope(t *testing.T) {
	s := newSession(t)
	require.True(t, s.Learn("@a isA Rex Dog\n").Success)
	_, ok := s.Scope.Lookup("a")
	require.True(t, ok)

	s.ClearScope()
	_, ok = s.Scope.Lookup("a")
	require.False(t, ok)
}
