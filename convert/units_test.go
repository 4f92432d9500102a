package convert

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUnitSystem(t *testing.T) {
	u, err := ParseUnitSystem("Mpc")
	require.NoError(t, err)
	assert.Equal(t, Mpc, u)

	u, err = ParseUnitSystem("Kpc")
	require.NoError(t, err)
	assert.Equal(t, Kpc, u)

	for _, s := range []string{"", "mpc", "KPC", "Gpc", "Mpc ", "cm"} {
		_, err := ParseUnitSystem(s)
		unitErr := &UnsupportedUnitSystemError{}
		if assert.True(t, errors.As(err, &unitErr), "unit system %q", s) {
			assert.Equal(t, s, unitErr.Name)
		}
	}
}

func TestUnitConstants(t *testing.T) {
	units, err := UnitConstants(Mpc)
	require.NoError(t, err)
	assert.Equal(t, 3.085678e24, units.UnitLengthInCm)
	assert.Equal(t, 1.989e43, units.UnitMassInG)
	assert.Equal(t, 1e5, units.UnitVelocityInCmPerS)

	units, err = UnitConstants(Kpc)
	require.NoError(t, err)
	assert.Equal(t, 3.085678e21, units.UnitLengthInCm)

	for _, u := range []UnitSystem{-1, EndUnitSystem, 17} {
		_, err := UnitConstants(u)
		unitErr := &UnsupportedUnitSystemError{}
		assert.True(t, errors.As(err, &unitErr), "unit system %d", u)
	}
}

func TestToPeculiarVelocity(t *testing.T) {
	v := [][3]float32{{1, -2, 3}, {0, 0, 0}, {1e3, 2.5e-3, -7}}
	orig := append([][3]float32{}, v...)

	for _, a := range []float64{1, 0.5, 0.01, 1e-4} {
		out, err := ToPeculiarVelocity(v, a)
		require.NoError(t, err)
		require.Len(t, out, len(v))
		assert.Equal(t, orig, v, "input was modified for a = %g", a)

		rootA := math.Sqrt(a)
		for i := range out {
			for k := 0; k < 3; k++ {
				assert.InDelta(t, float64(v[i][k]), float64(out[i][k])/rootA,
					1e-5*math.Max(1, math.Abs(float64(v[i][k]))))
			}
		}
	}

	out, err := ToPeculiarVelocity(nil, 0.5)
	require.NoError(t, err)
	assert.Len(t, out, 0)
}

func TestToPeculiarVelocityFailure(t *testing.T) {
	v := [][3]float32{{1, 2, 3}}
	for _, a := range []float64{0, -0.5, math.NaN(), math.Inf(1)} {
		_, err := ToPeculiarVelocity(v, a)
		scaleErr := &InvalidScaleFactorError{}
		assert.True(t, errors.As(err, &scaleErr), "a = %g", a)
	}
}
