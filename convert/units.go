package convert

import (
	"math"
	"strings"
)

// UnitSystem is the length unit of a snapshot.
type UnitSystem int

const (
	Mpc UnitSystem = iota
	Kpc
	EndUnitSystem
)

const (
	UnitVelocityInCmPerS = 1e5
	UnitMassInG          = 1.989e43
	mpcInCm              = 3.085678e24
	kpcInCm              = 3.085678e21
)

var unitSystemStrings = []string{"Mpc", "Kpc"}

func (u UnitSystem) String() string {
	if u < 0 || u >= EndUnitSystem { return "UnitSystem(?)" }
	return unitSystemStrings[u]
}

func unitSystemNames() string {
	return "[ " + strings.Join(unitSystemStrings, " | ") + " ]"
}

// Units are the cgs unit constants written to the catalog.
type Units struct {
	UnitLengthInCm, UnitMassInG, UnitVelocityInCmPerS float64
}

// ParseUnitSystem returns the unit system with the given name. Names are
// case-sensitive.
func ParseUnitSystem(s string) (UnitSystem, error) {
	for u := Mpc; u < EndUnitSystem; u++ {
		if u.String() == s { return u, nil }
	}
	return 0, &UnsupportedUnitSystemError{s}
}

// UnitConstants returns the unit constants of a unit system.
func UnitConstants(u UnitSystem) (Units, error) {
	units := Units{
		UnitMassInG: UnitMassInG, UnitVelocityInCmPerS: UnitVelocityInCmPerS,
	}
	switch u {
	case Mpc:
		units.UnitLengthInCm = mpcInCm
	case Kpc:
		units.UnitLengthInCm = kpcInCm
	default:
		return Units{}, &UnsupportedUnitSystemError{u.String()}
	}
	return units, nil
}

// ToPeculiarVelocity converts Gadget velocities, u = v / sqrt(a), to
// peculiar velocities. v isn't modified.
func ToPeculiarVelocity(v [][3]float32, a float64) ([][3]float32, error) {
	if !(a > 0) || math.IsInf(a, 0) {
		return nil, &InvalidScaleFactorError{a}
	}

	rootA := float32(math.Sqrt(a))
	out := make([][3]float32, len(v))
	for i := range v {
		for k := 0; k < 3; k++ { out[i][k] = v[i][k] * rootA }
	}
	return out, nil
}
