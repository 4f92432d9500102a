/*package convert turns Gadget-1 snapshots into FastPM bigfile catalogs.

The conversion reads the species-1 particles of a snapshot, maps its header
onto the attributes FastPM expects, converts Gadget velocities to peculiar
velocities and writes everything in two phases: an attribute placeholder
holding the IC-time scale factors, followed by the full catalog.
*/
package convert

import (
	"fmt"
)

// Species is the Gadget particle type that's converted.
const Species = 1

// Snapshot is a source of particles and header attributes. Attribute names
// follow nbodykit's Gadget1Catalog (Nall, NallHW, Massarr, Time, BoxSize, ...).
type Snapshot interface {
	Attrs() map[string]interface{}
	ReadPositions() ([][3]float32, error)
	ReadVelocities() ([][3]float32, error)
	ReadIDs() (interface{}, error)
}

// SourceHeader contains the header fields used by the conversion.
type SourceHeader struct {
	ParticleCountLow, ParticleCountHigh [6]uint32
	MassTable                           [6]float64
	Time, BoxSize                       float64
}

// Count returns the 64-bit particle count of each species.
func (hd *SourceHeader) Count() [6]int64 {
	return combine(hd.ParticleCountLow, hd.ParticleCountHigh)
}

// combine joins the low and high words of the per-species particle counts.
func combine(low, high [6]uint32) [6]int64 {
	out := [6]int64{}
	for i := range out { out[i] = int64(low[i]) + int64(high[i])<<32 }
	return out
}

// ExtractHeader reads the fields of SourceHeader from a snapshot's
// attributes. The first absent or mistyped field is reported as a
// *HeaderMissingError.
func ExtractHeader(snap Snapshot) (SourceHeader, error) {
	attrs := snap.Attrs()
	hd := SourceHeader{}
	var err error

	if hd.ParticleCountLow, err = counts(attrs, "Nall"); err != nil {
		return hd, err
	}
	if hd.ParticleCountHigh, err = counts(attrs, "NallHW"); err != nil {
		return hd, err
	}
	if hd.MassTable, err = masses(attrs, "Massarr"); err != nil {
		return hd, err
	}
	if hd.Time, err = scalar(attrs, "Time"); err != nil { return hd, err }
	if hd.BoxSize, err = scalar(attrs, "BoxSize"); err != nil {
		return hd, err
	}

	return hd, nil
}

func lookup(attrs map[string]interface{}, name string) (interface{}, error) {
	x, ok := attrs[name]
	if !ok || x == nil {
		return nil, &HeaderMissingError{name, "is missing"}
	}
	return x, nil
}

func wrongType(name string, x interface{}) error {
	return &HeaderMissingError{
		name, fmt.Sprintf("has unexpected type %T", x),
	}
}

func wrongLength(name string) error {
	return &HeaderMissingError{name, "does not have one entry per species"}
}

func counts(attrs map[string]interface{}, name string) ([6]uint32, error) {
	out := [6]uint32{}
	x, err := lookup(attrs, name)
	if err != nil { return out, err }

	switch xx := x.(type) {
	case [6]uint32:
		return xx, nil
	case []uint32:
		if len(xx) != 6 { return out, wrongLength(name) }
		copy(out[:], xx)
	case []int32:
		if len(xx) != 6 { return out, wrongLength(name) }
		for i := range out {
			if xx[i] < 0 {
				return out, &HeaderMissingError{name, "has negative entries"}
			}
			out[i] = uint32(xx[i])
		}
	default:
		return out, wrongType(name, x)
	}
	return out, nil
}

func masses(attrs map[string]interface{}, name string) ([6]float64, error) {
	out := [6]float64{}
	x, err := lookup(attrs, name)
	if err != nil { return out, err }

	switch xx := x.(type) {
	case [6]float64:
		return xx, nil
	case []float64:
		if len(xx) != 6 { return out, wrongLength(name) }
		copy(out[:], xx)
	case []float32:
		if len(xx) != 6 { return out, wrongLength(name) }
		for i := range out { out[i] = float64(xx[i]) }
	default:
		return out, wrongType(name, x)
	}
	return out, nil
}

func scalar(attrs map[string]interface{}, name string) (float64, error) {
	x, err := lookup(attrs, name)
	if err != nil { return 0, err }

	switch xx := x.(type) {
	case float64: return xx, nil
	case float32: return float64(xx), nil
	}
	return 0, wrongType(name, x)
}
