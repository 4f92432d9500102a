package convert

import (
	"fmt"
	"math"

	"github.com/phil-mansfield/gadget2big/internal/logging"
)

// Options control a single conversion.
type Options struct {
	UnitSystem UnitSystem
	// TimeIC overrides the snapshot's Time when positive.
	TimeIC float64
	// Subsample is the stride passed to Subsample. Zero means no
	// subsampling.
	Subsample int
	// Dataset and HeaderGroup default to "1" and "Header".
	Dataset, HeaderGroup string
}

func (opt *Options) dataset() string {
	if opt.Dataset == "" { return "1" }
	return opt.Dataset
}

func (opt *Options) headerGroup() string {
	if opt.HeaderGroup == "" { return "Header" }
	return opt.HeaderGroup
}

// Result describes a finished conversion.
type Result struct {
	Header SourceHeader
	ICTime ICTimeAttributes
	Full   FullAttributes
	// GadgetVelocity holds the velocities read from the snapshot. Columns
	// holds what was written.
	GadgetVelocity [][3]float32
	Columns        Columns
}

// Run converts snap into the store rooted at root. Options are validated
// before anything is read or written.
func Run(snap Snapshot, store Store, root string, opt Options) (*Result, error) {
	if _, err := UnitConstants(opt.UnitSystem); err != nil { return nil, err }
	stride := opt.Subsample
	if stride == 0 { stride = 1 }
	if stride < 1 { return nil, ErrInvalidStride }
	if math.IsNaN(opt.TimeIC) || math.IsInf(opt.TimeIC, 0) {
		return nil, &InvalidScaleFactorError{opt.TimeIC}
	}

	hd, err := ExtractHeader(snap)
	if err != nil { return nil, err }
	if !(hd.Time > 0) || math.IsInf(hd.Time, 0) {
		return nil, &InvalidScaleFactorError{hd.Time}
	}

	timeIC := hd.Time
	if opt.TimeIC > 0 { timeIC = opt.TimeIC }

	full, err := MapFull(hd, timeIC, opt.UnitSystem)
	if err != nil { return nil, err }
	res := &Result{Header: hd, ICTime: MapICTime(hd), Full: full}
	n := hd.Count()[Species]
	logging.Infof("Converting %d particles at a = %g (TimeIC = %g, %s).",
		n, hd.Time, timeIC, opt.UnitSystem)

	cols, err := readColumns(snap)
	if err != nil { return nil, err }
	res.GadgetVelocity = cols.Velocity
	if int64(len(cols.Position)) != n {
		logging.Warnf("The header lists %d particles, but %d were read.",
			n, len(cols.Position))
	}

	orch := NewOrchestrator(store, root, opt.dataset(), opt.headerGroup())
	if err = orch.WriteHeaderPlaceholder(res.ICTime); err != nil {
		return nil, err
	}
	logging.Infof("Wrote the IC-time attributes to %s/%s.",
		root, opt.dataset())

	if cols.Velocity, err = ToPeculiarVelocity(cols.Velocity, hd.Time); err != nil {
		return nil, err
	}
	if cols, err = Subsample(cols, stride); err != nil { return nil, err }
	if stride > 1 {
		logging.Infof("Subsampled to %d particles with stride %d.",
			len(cols.Position), stride)
	}

	if err = orch.WriteFull(res.Full, cols); err != nil { return nil, err }
	logging.Infof("Wrote %d particles to %s.", len(cols.Position), root)

	res.Columns = cols
	return res, nil
}

func readColumns(snap Snapshot) (Columns, error) {
	x, err := snap.ReadPositions()
	if err != nil {
		return Columns{}, fmt.Errorf("Could not read positions: %w", err)
	}
	v, err := snap.ReadVelocities()
	if err != nil {
		return Columns{}, fmt.Errorf("Could not read velocities: %w", err)
	}
	id, err := snap.ReadIDs()
	if err != nil {
		return Columns{}, fmt.Errorf("Could not read IDs: %w", err)
	}

	cols := Columns{Position: x, Velocity: v, ID: id}
	if _, err = cols.Len(); err != nil { return Columns{}, err }
	return cols, nil
}
