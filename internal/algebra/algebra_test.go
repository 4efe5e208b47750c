package algebra

import (
	"testing"

	"github.com/stretchr/testify/require"

	"hdcmind/internal/bitvector"
	"hdcmind/internal/stamp"
)

func mustStamp(t *testing.T, name string, d int) bitvector.BitVector {
	t.Helper()
	v, err := stamp.Stamp(name, d)
	require.NoError(t, err)
	return v
}

func TestBindCommutative(t *testing.T) {
	a := mustStamp(t, "a", 256)
	b := mustStamp(t, "b", 256)
	ab, err := Bind(a, b)
	require.NoError(t, err)
	ba, err := Bind(b, a)
	require.NoError(t, err)
	require.True(t, ab.Equal(ba))
}

func TestBindAssociative(t *testing.T) {
	a := mustStamp(t, "a", 256)
	b := mustStamp(t, "b", 256)
	c := mustStamp(t, "c", 256)

	ab, _ := Bind(a, b)
	abc1, _ := Bind(ab, c)

	bc, _ := Bind(b, c)
	abc2, _ := Bind(a, bc)

	require.True(t, abc1.Equal(abc2))
}

func TestBindSelfInverse(t *testing.T) {
	a := mustStamp(t, "a", 256)
	b := mustStamp(t, "b", 256)
	ab, _ := Bind(a, b)
	back, _ := Bind(ab, b)
	require.True(t, back.Equal(a))
}

func TestUnbindRoundTrip(t *testing.T) {
	a := mustStamp(t, "a", 256)
	b := mustStamp(t, "b", 256)
	bound, _ := Bind(a, b)
	unbound, _ := Unbind(bound, b)
	require.True(t, unbound.Equal(a))
}

func TestSimilaritySelfIsOne(t *testing.T) {
	a := mustStamp(t, "a", 256)
	sim, err := Similarity(a, a)
	require.NoError(t, err)
	require.InDelta(t, 1.0, sim, 1e-9)
}

func TestSimilarityIndependentNamesNearHalf(t *testing.T) {
	a := mustStamp(t, "alpha", 2048)
	b := mustStamp(t, "beta", 2048)
	sim, err := Similarity(a, b)
	require.NoError(t, err)
	require.InDelta(t, 0.5, sim, 0.05)
}

func TestBundleSingleReturnsClone(t *testing.T) {
	a := mustStamp(t, "a", 256)
	b, err := Bundle([]bitvector.BitVector{a}, nil)
	require.NoError(t, err)
	require.True(t, a.Equal(b))
}

func TestBundleOfRepeatedVectorMatchesOriginal(t *testing.T) {
	a := mustStamp(t, "a", 256)
	bundled, err := Bundle([]bitvector.BitVector{a, a, a}, nil)
	require.NoError(t, err)
	sim, err := Similarity(a, bundled)
	require.NoError(t, err)
	require.Greater(t, sim, 0.99)
}

func TestBundleEmptyFails(t *testing.T) {
	_, err := Bundle(nil, nil)
	require.ErrorIs(t, err, ErrEmptyBundle)
}

func TestBundleMajorityWins(t *testing.T) {
	d := 64
	zero, _ := bitvector.New(d)
	ones, _ := bitvector.Ones(d)

	bundled, err := Bundle([]bitvector.BitVector{ones, ones, zero}, nil)
	require.NoError(t, err)
	require.True(t, bundled.Equal(ones))
}

func TestBundleTieUsesTieBreaker(t *testing.T) {
	d := 32
	zero, _ := bitvector.New(d)
	ones, _ := bitvector.Ones(d)

	bundled, err := Bundle([]bitvector.BitVector{ones, zero}, &ones)
	require.NoError(t, err)
	require.True(t, bundled.Equal(ones))

	bundled, err = Bundle([]bitvector.BitVector{ones, zero}, &zero)
	require.NoError(t, err)
	require.True(t, bundled.Equal(zero))
}

func TestTopKOrdersBySimilarityDescending(t *testing.T) {
	query := mustStamp(t, "Dog", 2048)
	candidates := map[string]bitvector.BitVector{
		"Dog":   mustStamp(t, "Dog", 2048),
		"Cat":   mustStamp(t, "Cat", 2048),
		"Plant": mustStamp(t, "Plant", 2048),
	}
	top, err := TopK(query, candidates, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	require.Equal(t, "Dog", top[0].Name)
	require.InDelta(t, 1.0, top[0].Similarity, 1e-9)
}
