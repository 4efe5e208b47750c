package stamp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStampDeterministic(t *testing.T) {
	a, err := Stamp("Dog", 2048)
	require.NoError(t, err)
	b, err := Stamp("Dog", 2048)
	require.NoError(t, err)
	require.True(t, a.Equal(b))
}

func TestStampDistinguishesNames(t *testing.T) {
	a, _ := Stamp("Dog", 2048)
	b, _ := Stamp("Cat", 2048)
	require.False(t, a.Equal(b))
}

func TestStampDensityNearHalf(t *testing.T) {
	v, err := Stamp("Mammal", 2048)
	require.NoError(t, err)
	density := float64(v.Popcount()) / float64(v.D())
	require.InDelta(t, 0.5, density, 0.08)
}

func TestStampInvalidGeometry(t *testing.T) {
	_, err := Stamp("x", 33)
	require.Error(t, err)
}
