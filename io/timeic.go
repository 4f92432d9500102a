package io

import (
	"fmt"
	"math"

	"github.com/phil-mansfield/table"
)

// TimeICTable maps iteration indices to the scale factor of the initial
// conditions used by that snapshot.
type TimeICTable map[int]float64

// ReadTimeICTable reads a whitespace-separated text file whose first column
// is an iteration index and whose second column is TimeIC.
func ReadTimeICTable(fname string) (TimeICTable, error) {
	cols, err := table.ReadTable(fname, []int{0, 1}, nil)
	if err != nil { return nil, err }

	idxs, times := cols[0], cols[1]
	tab := TimeICTable{}
	for i := range idxs {
		idx := int(idxs[i])
		switch {
		case float64(idx) != idxs[i] || idx < 0:
			return nil, fmt.Errorf("Row %d of %s has the index %g, which "+
				"isn't a non-negative integer.", i, fname, idxs[i])
		case !(times[i] > 0) || math.IsInf(times[i], 0):
			return nil, fmt.Errorf("Row %d of %s has the TimeIC %g, which "+
				"isn't a positive scale factor.", i, fname, times[i])
		}
		if _, ok := tab[idx]; ok {
			return nil, fmt.Errorf("The index %d appears more than once "+
				"in %s.", idx, fname)
		}
		tab[idx] = times[i]
	}
	return tab, nil
}

// Lookup returns the TimeIC of iteration idx, if the table has one.
func (tab TimeICTable) Lookup(idx int) (float64, bool) {
	t, ok := tab[idx]
	return t, ok
}
