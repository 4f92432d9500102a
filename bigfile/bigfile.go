/*package bigfile reads and writes the directory-based columnar layout used by
FastPM and nbodykit.

A bigfile is a directory tree. Every block is a directory containing:

    header   - text description of the block's type and its data files:
                   DTYPE: <f4
                   NMEMB: 3
                   NFILE: 1
                   000000: 1024 : 3105740 : 25786
               where each file line gives the number of rows, the byte sum
               of the file and its System V checksum.
    attr-v2  - one attribute per line: "name dtype nmemb HEXBYTES".
    000000   - raw little-endian row data (one file per line in header).

Blocks can be nested: the columns of a dataset "1" live in "1/Position",
"1/Velocity", etc.
*/
package bigfile

import (
	"encoding/binary"
	"fmt"
)

const (
	HeaderFile = "header"
	AttrFile   = "attr-v2"

	// EmptyDType is the type given to blocks which only carry attributes.
	EmptyDType = "|i1"
)

var order = binary.LittleEndian

// DType describes a bigfile element type, e.g. "<f8". The first character is
// the byte order ('<', '>', or '|' when it doesn't matter), the second is the
// kind ('f', 'i', 'u', 'b', 'S') and the rest is the width in bytes.
type DType string

func (dt DType) valid() bool {
	if len(dt) < 3 { return false }
	switch dt[0] {
	case '<', '>', '|':
	default:
		return false
	}
	_, ok := dtypeSizes[string(dt[1:])]
	return ok
}

// Size returns the width of the type in bytes.
func (dt DType) Size() int {
	if !dt.valid() { return -1 }
	return dtypeSizes[string(dt[1:])]
}

func (dt DType) kind() string { return string(dt[1:]) }

var dtypeSizes = map[string]int{
	"f4": 4, "f8": 8,
	"i1": 1, "i4": 4, "i8": 8,
	"u1": 1, "u4": 4, "u8": 8,
	"b1": 1, "S1": 1,
}

// Column is a named array which will be written as its own block. Data must
// be one of []float32, []float64, []int32, []int64, []uint32, []uint64,
// [][3]float32, or [][3]float64.
type Column struct {
	Name string
	Data interface{}
}

// columnType returns the dtype, number of members per row and the number of
// rows of a column's data.
func columnType(data interface{}) (dt DType, nmemb, rows int, err error) {
	switch x := data.(type) {
	case []float32: return "<f4", 1, len(x), nil
	case []float64: return "<f8", 1, len(x), nil
	case []int32: return "<i4", 1, len(x), nil
	case []int64: return "<i8", 1, len(x), nil
	case []uint32: return "<u4", 1, len(x), nil
	case []uint64: return "<u8", 1, len(x), nil
	case [][3]float32: return "<f4", 3, len(x), nil
	case [][3]float64: return "<f8", 3, len(x), nil
	}
	return "", 0, 0, fmt.Errorf("bigfile columns cannot have type %T.", data)
}

// Rows returns the number of rows in a column. It panics if the column's
// Data has an unsupported type.
func (c Column) Rows() int {
	_, _, rows, err := columnType(c.Data)
	if err != nil { panic(err.Error()) }
	return rows
}

// sysvSum converts a running byte sum into a System V checksum, as printed by
// `sum -s`.
func sysvSum(sum uint32) uint32 {
	r := (sum & 0xffff) + (sum >> 16)
	return (r & 0xffff) + (r >> 16)
}
