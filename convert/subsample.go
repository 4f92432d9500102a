package convert

import (
	"fmt"
)

// Columns are the particle columns of a catalog. ID is a []uint32 or a
// []uint64.
type Columns struct {
	Position, Velocity [][3]float32
	ID                 interface{}
}

// Len returns the number of rows in the catalog, or an error if the columns
// have different lengths.
func (cols Columns) Len() (int, error) {
	nID, err := idLen(cols.ID)
	if err != nil { return 0, err }

	n := len(cols.Position)
	if len(cols.Velocity) != n || nID != n {
		return 0, fmt.Errorf("Columns have mismatched lengths: %d "+
			"positions, %d velocities and %d IDs.", n, len(cols.Velocity), nID)
	}
	return n, nil
}

func idLen(id interface{}) (int, error) {
	switch x := id.(type) {
	case []uint32: return len(x), nil
	case []uint64: return len(x), nil
	}
	return 0, fmt.Errorf("IDs of type %T are not supported.", id)
}

// Subsample keeps rows 0, stride, 2*stride, ... of every column. A stride of
// one returns cols unchanged.
func Subsample(cols Columns, stride int) (Columns, error) {
	if stride < 1 { return Columns{}, ErrInvalidStride }
	n, err := cols.Len()
	if err != nil { return Columns{}, err }
	if stride == 1 { return cols, nil }

	m := (n + stride - 1) / stride
	out := Columns{
		Position: make([][3]float32, m),
		Velocity: make([][3]float32, m),
	}
	for i := 0; i < m; i++ {
		out.Position[i] = cols.Position[i*stride]
		out.Velocity[i] = cols.Velocity[i*stride]
	}

	switch id := cols.ID.(type) {
	case []uint32:
		sub := make([]uint32, m)
		for i := range sub { sub[i] = id[i*stride] }
		out.ID = sub
	case []uint64:
		sub := make([]uint64, m)
		for i := range sub { sub[i] = id[i*stride] }
		out.ID = sub
	}

	return out, nil
}
