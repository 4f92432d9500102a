package convert

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memSnapshot is an in-memory Snapshot.
type memSnapshot struct {
	attrs map[string]interface{}
	x, v  [][3]float32
	id    interface{}
	err   error
}

func (snap *memSnapshot) Attrs() map[string]interface{} { return snap.attrs }

func (snap *memSnapshot) ReadPositions() ([][3]float32, error) {
	return snap.x, snap.err
}

func (snap *memSnapshot) ReadVelocities() ([][3]float32, error) {
	return snap.v, snap.err
}

func (snap *memSnapshot) ReadIDs() (interface{}, error) {
	return snap.id, snap.err
}

// newMemSnapshot returns a snapshot with n species-1 particles, mass 1.5,
// time 0.5 and box size 1000. Particle i is at (i, 0, 0), moves with
// velocity (i, -i, 1) and has ID 1000+i.
func newMemSnapshot(n int) *memSnapshot {
	snap := &memSnapshot{
		attrs: map[string]interface{}{
			"Npart":   []uint32{0, uint32(n), 0, 0, 0, 0},
			"Nall":    []uint32{0, uint32(n), 0, 0, 0, 0},
			"NallHW":  []uint32{0, 0, 0, 0, 0, 0},
			"Massarr": []float64{0, 1.5, 0, 0, 0, 0},
			"Time":    0.5,
			"BoxSize": 1000.0,
		},
		x: make([][3]float32, n),
		v: make([][3]float32, n),
	}
	id := make([]uint64, n)
	for i := 0; i < n; i++ {
		f := float32(i)
		snap.x[i] = [3]float32{f, 0, 0}
		snap.v[i] = [3]float32{f, -f, 1}
		id[i] = uint64(1000 + i)
	}
	snap.id = id
	return snap
}

func TestCombine(t *testing.T) {
	lows := []uint32{0, 1, 100, 1 << 31, 0xffffffff}
	highs := []uint32{0, 1, 7, 1 << 20, 0x7fffffff}

	for _, low := range lows {
		for _, high := range highs {
			n := combine([6]uint32{0, low}, [6]uint32{0, high})[1]
			assert.Equal(t, low, uint32(n%(1<<32)), "low %d high %d", low, high)
			assert.Equal(t, int64(high), n>>32, "low %d high %d", low, high)
		}
	}
}

func TestExtractHeader(t *testing.T) {
	snap := newMemSnapshot(10)
	snap.attrs["NallHW"] = []uint32{0, 2, 0, 0, 0, 0}

	hd, err := ExtractHeader(snap)
	require.NoError(t, err)
	assert.Equal(t, [6]uint32{0, 10, 0, 0, 0, 0}, hd.ParticleCountLow)
	assert.Equal(t, [6]uint32{0, 2, 0, 0, 0, 0}, hd.ParticleCountHigh)
	assert.Equal(t, [6]float64{0, 1.5, 0, 0, 0, 0}, hd.MassTable)
	assert.Equal(t, 0.5, hd.Time)
	assert.Equal(t, 1000.0, hd.BoxSize)
	assert.Equal(t, int64(10)+2<<32, hd.Count()[1])
}

func TestExtractHeaderOtherTypes(t *testing.T) {
	snap := newMemSnapshot(3)
	snap.attrs["Nall"] = []int32{0, 3, 0, 0, 0, 0}
	snap.attrs["NallHW"] = [6]uint32{}
	snap.attrs["Massarr"] = []float32{0, 1.5, 0, 0, 0, 0}
	snap.attrs["Time"] = float32(0.5)

	hd, err := ExtractHeader(snap)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), hd.ParticleCountLow[1])
	assert.Equal(t, 1.5, hd.MassTable[1])
	assert.Equal(t, 0.5, hd.Time)
}

func TestExtractHeaderFailure(t *testing.T) {
	tests := []struct {
		field string
		value interface{}
	}{
		{"Nall", nil},
		{"NallHW", nil},
		{"Massarr", nil},
		{"Time", nil},
		{"BoxSize", nil},
		{"Nall", []uint32{0, 1}},
		{"Nall", []int32{0, -1, 0, 0, 0, 0}},
		{"Nall", []float64{0, 1, 0, 0, 0, 0}},
		{"Massarr", []float64{1.5}},
		{"Massarr", "heavy"},
		{"Time", int32(1)},
		{"BoxSize", []float64{1000}},
	}

	for i, test := range tests {
		snap := newMemSnapshot(3)
		if test.value == nil {
			delete(snap.attrs, test.field)
		} else {
			snap.attrs[test.field] = test.value
		}

		_, err := ExtractHeader(snap)
		hdErr := &HeaderMissingError{}
		if assert.True(t, errors.As(err, &hdErr), "%d) %v", i, err) {
			assert.Equal(t, test.field, hdErr.Field, "%d)", i)
		}
	}
}

func TestExtractHeaderFirstMissing(t *testing.T) {
	snap := newMemSnapshot(3)
	delete(snap.attrs, "Time")
	delete(snap.attrs, "NallHW")

	_, err := ExtractHeader(snap)
	hdErr := &HeaderMissingError{}
	require.True(t, errors.As(err, &hdErr))
	assert.Equal(t, "NallHW", hdErr.Field)
}
