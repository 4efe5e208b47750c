package bitvector

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRejectsInvalidGeometry(t *testing.T) {
	_, err := New(0)
	require.Error(t, err)

	_, err = New(33)
	require.Error(t, err)

	v, err := New(64)
	require.NoError(t, err)
	require.Equal(t, 64, v.D())
}

func TestXorCountsDifferingBits(t *testing.T) {
	a, _ := Ones(64)
	b := a.SetBit(0, false)

	xored, err := a.Xor(b)
	require.NoError(t, err)
	require.Equal(t, 1, xored.Popcount())
}

func TestGeometryMismatch(t *testing.T) {
	a, _ := New(32)
	b, _ := New(64)
	_, err := a.Xor(b)
	require.Error(t, err)
	var mismatch *GeometryMismatchError
	require.ErrorAs(t, err, &mismatch)
}

func TestPopcount(t *testing.T) {
	v, _ := New(64)
	v = v.SetBit(0, true).SetBit(1, true).SetBit(63, true)
	require.Equal(t, 3, v.Popcount())
}

func TestEqualAndClone(t *testing.T) {
	a, _ := Ones(32)
	b := a.Clone()
	require.True(t, a.Equal(b))

	b = b.SetBit(5, false)
	require.False(t, a.Equal(b))
}

func TestNotComplements(t *testing.T) {
	v, _ := New(32)
	v = v.SetBit(0, true)
	n := v.Not()
	require.Equal(t, 31, n.Popcount())
}
