package bigfile

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/batchatco/go-thrower"
)

// BlockHeader is the parsed contents of a block's header file.
type BlockHeader struct {
	DType DType
	NMemb int
	Files []FileInfo
}

// FileInfo describes one of the data files in a block.
type FileInfo struct {
	Rows         int64
	Checksum     uint32
	SysvChecksum uint32
}

// Rows returns the total number of rows in the block.
func (hd *BlockHeader) Rows() int64 {
	n := int64(0)
	for _, f := range hd.Files { n += f.Rows }
	return n
}

func (hd *BlockHeader) encode() []byte {
	buf := &bytes.Buffer{}
	fmt.Fprintf(buf, "DTYPE: %s\n", hd.DType)
	fmt.Fprintf(buf, "NMEMB: %d\n", hd.NMemb)
	fmt.Fprintf(buf, "NFILE: %d\n", len(hd.Files))
	for i, f := range hd.Files {
		fmt.Fprintf(buf, "%06X: %d : %d : %d\n",
			i, f.Rows, f.Checksum, f.SysvChecksum)
	}
	return buf.Bytes()
}

// ReadBlockHeader reads the header file of the block in dir.
func ReadBlockHeader(dir string) (hd *BlockHeader, err error) {
	defer thrower.RecoverError(&err)

	f, err := os.Open(filepath.Join(dir, HeaderFile))
	if err != nil { return nil, err }
	defer f.Close()

	hd = &BlockHeader{}
	nFile := -1
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" { continue }

		key, val, ok := strings.Cut(line, ":")
		if !ok {
			thrower.Throw(fmt.Errorf(
				"The header of block %s has the malformed line '%s'.",
				dir, line,
			))
		}
		val = strings.TrimSpace(val)

		switch key {
		case "DTYPE":
			hd.DType = DType(val)
		case "NMEMB":
			hd.NMemb = mustAtoi(val)
		case "NFILE":
			nFile = mustAtoi(val)
		default:
			hd.Files = append(hd.Files, parseFileLine(dir, val))
		}
	}
	thrower.ThrowIfError(scanner.Err())

	if !hd.DType.valid() {
		return nil, fmt.Errorf("The block %s has unrecognized dtype '%s'.",
			dir, hd.DType)
	} else if nFile != len(hd.Files) {
		return nil, fmt.Errorf("The header of block %s lists %d files, "+
			"but NFILE is %d.", dir, len(hd.Files), nFile)
	}

	return hd, nil
}

func parseFileLine(dir, val string) FileInfo {
	parts := strings.Split(val, ":")
	if len(parts) != 3 {
		thrower.Throw(fmt.Errorf(
			"The header of block %s has the malformed file entry '%s'.",
			dir, val,
		))
	}

	rows, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	thrower.ThrowIfError(err)
	sum, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 32)
	thrower.ThrowIfError(err)
	sysv, err := strconv.ParseUint(strings.TrimSpace(parts[2]), 10, 32)
	thrower.ThrowIfError(err)

	return FileInfo{rows, uint32(sum), uint32(sysv)}
}

func mustAtoi(s string) int {
	n, err := strconv.Atoi(s)
	thrower.ThrowIfError(err)
	return n
}

// dataFileName returns the name of the i-th data file in a block.
func dataFileName(i int) string { return fmt.Sprintf("%06X", i) }

// checksumWriter keeps a running byte sum of everything written through it.
type checksumWriter struct {
	w   io.Writer
	sum uint32
}

func (cw *checksumWriter) Write(p []byte) (int, error) {
	for _, b := range p { cw.sum += uint32(b) }
	return cw.w.Write(p)
}

// writeData writes a column's rows to a single data file and returns its
// entry for the block header.
func writeData(fname string, data interface{}, rows int) (info FileInfo, err error) {
	defer thrower.RecoverError(&err)

	f, err := os.Create(fname)
	if err != nil { return info, err }
	defer f.Close()

	bw := bufio.NewWriter(f)
	cw := &checksumWriter{w: bw}
	thrower.ThrowIfError(binary.Write(cw, order, data))
	thrower.ThrowIfError(bw.Flush())
	thrower.ThrowIfError(f.Close())

	return FileInfo{int64(rows), cw.sum, sysvSum(cw.sum)}, nil
}

// ReadColumn reads all the rows of the block in dir. The type of the
// returned slice follows the same rules as Column.Data. Checksums are
// verified.
func ReadColumn(dir string) (interface{}, error) {
	hd, err := ReadBlockHeader(dir)
	if err != nil { return nil, err }

	raw := []byte{}
	for i, info := range hd.Files {
		fname := filepath.Join(dir, dataFileName(i))
		b, err := os.ReadFile(fname)
		if err != nil { return nil, err }

		sum := uint32(0)
		for _, c := range b { sum += uint32(c) }
		if sum != info.Checksum {
			return nil, fmt.Errorf("The data file %s has checksum %d, but "+
				"its header says it should be %d.", fname, sum, info.Checksum)
		}
		raw = append(raw, b...)
	}

	rows := hd.Rows()
	if int64(len(raw)) != rows*int64(hd.NMemb*hd.DType.Size()) {
		return nil, fmt.Errorf("The block %s has %d bytes of data, but "+
			"its header implies %d.", dir, len(raw),
			rows*int64(hd.NMemb*hd.DType.Size()))
	}

	var x interface{}
	switch {
	case hd.DType == "<f4" && hd.NMemb == 3: x = make([][3]float32, rows)
	case hd.DType == "<f8" && hd.NMemb == 3: x = make([][3]float64, rows)
	case hd.DType == "<f4" && hd.NMemb == 1: x = make([]float32, rows)
	case hd.DType == "<f8" && hd.NMemb == 1: x = make([]float64, rows)
	case hd.DType == "<i4" && hd.NMemb == 1: x = make([]int32, rows)
	case hd.DType == "<i8" && hd.NMemb == 1: x = make([]int64, rows)
	case hd.DType == "<u4" && hd.NMemb == 1: x = make([]uint32, rows)
	case hd.DType == "<u8" && hd.NMemb == 1: x = make([]uint64, rows)
	default:
		return nil, fmt.Errorf("Blocks with dtype '%s' and %d members "+
			"per row cannot be read as a column.", hd.DType, hd.NMemb)
	}

	if err := binary.Read(bytes.NewReader(raw), order, x); err != nil {
		return nil, err
	}
	return x, nil
}

// ReadAttrs reads the attributes of the block in dir. A block without an
// attribute file has no attributes.
func ReadAttrs(dir string) (Attrs, error) {
	f, err := os.Open(filepath.Join(dir, AttrFile))
	if os.IsNotExist(err) {
		return Attrs{}, nil
	} else if err != nil {
		return nil, err
	}
	defer f.Close()

	return DecodeAttrs(f)
}
