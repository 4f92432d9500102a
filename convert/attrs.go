package convert

import (
	"github.com/phil-mansfield/gadget2big/bigfile"
)

// ICTimeAttributes are written in the first phase, before any particles.
type ICTimeAttributes struct {
	AX, AV float64
	M0     float64
}

// FullAttributes are the attributes of the finished catalog.
type FullAttributes struct {
	MassTable                  [6]float64
	TotNumPart, TotNumPartInit [6]int64
	BoxSize, Time, TimeIC      float64
	Units                      Units
	UsePeculiarVelocity        bool
}

// MapICTime maps a header onto the IC-time attributes.
func MapICTime(hd SourceHeader) ICTimeAttributes {
	return ICTimeAttributes{AX: hd.Time, AV: hd.Time, M0: hd.MassTable[Species]}
}

// MapFull maps a header onto the full attribute set. timeIC must already be
// resolved by the caller. An unknown unit system returns an
// *UnsupportedUnitSystemError.
func MapFull(
	hd SourceHeader, timeIC float64, u UnitSystem,
) (FullAttributes, error) {
	units, err := UnitConstants(u)
	if err != nil { return FullAttributes{}, err }

	n := hd.Count()
	return FullAttributes{
		MassTable:           hd.MassTable,
		TotNumPart:          n,
		TotNumPartInit:      n,
		BoxSize:             hd.BoxSize,
		Time:                hd.Time,
		TimeIC:              timeIC,
		Units:               units,
		UsePeculiarVelocity: true,
	}, nil
}

// Attrs returns the attributes in the order they're written to attr-v2.
func (ic ICTimeAttributes) Attrs() bigfile.Attrs {
	return bigfile.Attrs{
		{Name: "a.x", Value: ic.AX},
		{Name: "a.v", Value: ic.AV},
		{Name: "M0", Value: ic.M0},
	}
}

// Attrs returns the attributes in the order they're written to attr-v2.
func (full FullAttributes) Attrs() bigfile.Attrs {
	mass := full.MassTable
	n, nInit := full.TotNumPart, full.TotNumPartInit
	return bigfile.Attrs{
		{Name: "MassTable", Value: mass[:]},
		{Name: "TotNumPart", Value: n[:]},
		{Name: "TotNumPartInit", Value: nInit[:]},
		{Name: "BoxSize", Value: full.BoxSize},
		{Name: "Time", Value: full.Time},
		{Name: "TimeIC", Value: full.TimeIC},
		{Name: "UnitVelocity_in_cm_per_s", Value: full.Units.UnitVelocityInCmPerS},
		{Name: "UnitLength_in_cm", Value: full.Units.UnitLengthInCm},
		{Name: "UnitMass_in_g", Value: full.Units.UnitMassInG},
		{Name: "UsePeculiarVelocity", Value: full.UsePeculiarVelocity},
	}
}
