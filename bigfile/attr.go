package bigfile

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/batchatco/go-thrower"
)

// Attr is a single named attribute. Value must be a bool, string, float32,
// float64, int32, int64, uint32, uint64, or a slice of one of those
// (other than string).
type Attr struct {
	Name  string
	Value interface{}
}

// Attrs is an ordered attribute set. Order is preserved when writing so that
// attr-v2 files are reproducible.
type Attrs []Attr

// Get returns the value of the named attribute.
func (as Attrs) Get(name string) (interface{}, bool) {
	for i := range as {
		if as[i].Name == name { return as[i].Value, true }
	}
	return nil, false
}

// Names returns the attribute names in order.
func (as Attrs) Names() []string {
	names := make([]string, len(as))
	for i := range as { names[i] = as[i].Name }
	return names
}

// Merge returns as with the attributes of other added to the end. Attributes
// already in as are replaced in place.
func (as Attrs) Merge(other Attrs) Attrs {
	out := append(Attrs{}, as...)
	for _, a := range other {
		replaced := false
		for i := range out {
			if out[i].Name == a.Name {
				out[i], replaced = a, true
				break
			}
		}
		if !replaced { out = append(out, a) }
	}
	return out
}

// EncodeAttrs converts an attribute set to the contents of an attr-v2 file.
func EncodeAttrs(as Attrs) (b []byte, err error) {
	defer thrower.RecoverError(&err)

	buf := &bytes.Buffer{}
	seen := map[string]bool{}
	for _, a := range as {
		if a.Name == "" || strings.ContainsAny(a.Name, " \t\n") {
			thrower.Throw(fmt.Errorf(
				"'%s' is not a valid attribute name.", a.Name,
			))
		} else if seen[a.Name] {
			thrower.Throw(fmt.Errorf(
				"The attribute '%s' is set more than once.", a.Name,
			))
		}
		seen[a.Name] = true
		encodeAttr(buf, a)
	}
	return buf.Bytes(), nil
}

// encodeAttr writes a single attr-v2 line to buf.
func encodeAttr(buf *bytes.Buffer, a Attr) {
	dt, nmemb, raw := attrBytes(a.Name, a.Value)
	_, err := fmt.Fprintf(buf, "%s %s %d %s\n", a.Name, dt, nmemb,
		strings.ToUpper(hex.EncodeToString(raw)))
	thrower.ThrowIfError(err)
}

// attrBytes returns the dtype, the member count and the raw little-endian
// bytes of an attribute value.
func attrBytes(name string, value interface{}) (DType, int, []byte) {
	var dt DType
	nmemb := 1
	switch x := value.(type) {
	case string:
		return "|S1", len(x), []byte(x)
	case bool:
		dt = "|b1"
	case []bool:
		dt, nmemb = "|b1", len(x)
	case float32:
		dt = "<f4"
	case []float32:
		dt, nmemb = "<f4", len(x)
	case float64:
		dt = "<f8"
	case []float64:
		dt, nmemb = "<f8", len(x)
	case int32:
		dt = "<i4"
	case []int32:
		dt, nmemb = "<i4", len(x)
	case int64:
		dt = "<i8"
	case []int64:
		dt, nmemb = "<i8", len(x)
	case uint32:
		dt = "<u4"
	case []uint32:
		dt, nmemb = "<u4", len(x)
	case uint64:
		dt = "<u8"
	case []uint64:
		dt, nmemb = "<u8", len(x)
	default:
		thrower.Throw(fmt.Errorf(
			"The attribute '%s' has type %T, which cannot be stored in "+
				"a bigfile.", name, value,
		))
	}

	buf := &bytes.Buffer{}
	thrower.ThrowIfError(binary.Write(buf, order, value))
	return dt, nmemb, buf.Bytes()
}

// DecodeAttrs parses the contents of an attr-v2 file. Single-member values
// are returned as scalars, everything else as slices. "|S1" values are
// returned as strings.
func DecodeAttrs(rd io.Reader) (as Attrs, err error) {
	defer thrower.RecoverError(&err)

	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 1<<16), 1<<26)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" { continue }
		as = append(as, decodeAttr(text, line))
	}
	thrower.ThrowIfError(scanner.Err())
	return as, nil
}

func decodeAttr(text string, line int) Attr {
	fields := strings.Fields(text)
	if len(fields) == 3 {
		// Zero-length values have no hex field.
		fields = append(fields, "")
	}
	if len(fields) != 4 {
		thrower.Throw(fmt.Errorf(
			"Line %d of the attribute file has %d fields instead of 4.",
			line, len(fields),
		))
	}

	name, dt := fields[0], DType(fields[1])
	nmemb, err := strconv.Atoi(fields[2])
	thrower.ThrowIfError(err)
	raw, err := hex.DecodeString(fields[3])
	thrower.ThrowIfError(err)

	if !dt.valid() {
		thrower.Throw(fmt.Errorf(
			"The attribute '%s' has unrecognized dtype '%s'.", name, dt,
		))
	} else if nmemb*dt.Size() != len(raw) {
		thrower.Throw(fmt.Errorf(
			"The attribute '%s' should have %d bytes of data, but has %d.",
			name, nmemb*dt.Size(), len(raw),
		))
	}

	return Attr{name, decodeValue(dt, nmemb, raw)}
}

func decodeValue(dt DType, nmemb int, raw []byte) interface{} {
	var bo binary.ByteOrder = binary.LittleEndian
	if dt[0] == '>' { bo = binary.BigEndian }
	rd := bytes.NewReader(raw)

	var x interface{}
	switch dt.kind() {
	case "S1":
		return string(raw)
	case "b1":
		x = make([]bool, nmemb)
	case "f4":
		x = make([]float32, nmemb)
	case "f8":
		x = make([]float64, nmemb)
	case "i1":
		x = make([]int8, nmemb)
	case "i4":
		x = make([]int32, nmemb)
	case "i8":
		x = make([]int64, nmemb)
	case "u1":
		x = make([]uint8, nmemb)
	case "u4":
		x = make([]uint32, nmemb)
	case "u8":
		x = make([]uint64, nmemb)
	}
	thrower.ThrowIfError(binary.Read(rd, bo, x))

	if nmemb != 1 { return x }
	switch xx := x.(type) {
	case []bool: return xx[0]
	case []float32: return xx[0]
	case []float64: return xx[0]
	case []int8: return xx[0]
	case []int32: return xx[0]
	case []int64: return xx[0]
	case []uint8: return xx[0]
	case []uint32: return xx[0]
	case []uint64: return xx[0]
	}
	panic("(Supposedly) impossible type configuration.")
}
