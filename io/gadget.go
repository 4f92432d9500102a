package io

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/phil-mansfield/gadget2big/convert"
)

const (
	gadgetHeaderSize = 256

	// Gadget blocks are ordered POS, VEL, ID, MASS, ...
	posBlock = 0
	velBlock = 1
	idBlock  = 2
)

// GadgetHeader is the raw 256-byte header of a Gadget-1 snapshot file.
type GadgetHeader struct {
	NPart                                     [6]uint32
	Massarr                                   [6]float64
	Time, Redshift                            float64
	FlagSfr, FlagFeedback                     int32
	Nall                                      [6]uint32
	FlagCooling, NumFiles                     int32
	BoxSize, Omega0, OmegaLambda, HubbleParam float64
	FlagAge, FlagMetals                       int32
	NallHW                                    [6]uint32
	FlagEntropyICs                            int32

	Padding [60]byte
}

// fileCount returns the number of particles of all species stored in this
// file.
func (hd *GadgetHeader) fileCount() int64 {
	n := int64(0)
	for _, np := range hd.NPart { n += int64(np) }
	return n
}

// GadgetSnapshot is a (possibly multi-file) Gadget-1 snapshot. Only the
// species in convert.Species is read.
type GadgetSnapshot struct {
	files  []string
	order  binary.ByteOrder
	hds    []GadgetHeader
	idSize int
	cache  fileCache
}

// fileCache holds the decompressed contents of .zst files so that each one
// is only decompressed once.
type fileCache map[string][]byte

// OpenGadget opens the Gadget-1 snapshot at path. path may be a single file,
// the first file of a snapshot.0, snapshot.1, ... family, the family's base
// name, or a directory containing all the files of one snapshot. Files ending
// in .zst are decompressed into memory once and kept there for the lifetime of
// the snapshot. If order is nil, the byte order is detected from the first
// record.
func OpenGadget(path string, order binary.ByteOrder) (*GadgetSnapshot, error) {
	files, err := gadgetFiles(path)
	if err != nil { return nil, err }

	cache := fileCache{}
	hd, order, err := readGadgetHeader(files[0], order, cache)
	if err != nil { return nil, err }
	snap := &GadgetSnapshot{order: order, cache: cache}

	files, err = expandFamily(path, files, int(hd.NumFiles))
	if err != nil { return nil, err }
	snap.files = files

	snap.hds = make([]GadgetHeader, len(files))
	snap.hds[0] = *hd
	for i := 1; i < len(files); i++ {
		hdi, _, err := readGadgetHeader(files[i], snap.order, snap.cache)
		if err != nil { return nil, err }
		snap.hds[i] = *hdi
	}

	if err = snap.checkIDSize(); err != nil { return nil, err }

	return snap, nil
}

// Header returns the header of the first file.
func (snap *GadgetSnapshot) Header() *GadgetHeader { return &snap.hds[0] }

// Files returns the names of the files in the snapshot.
func (snap *GadgetSnapshot) Files() []string { return snap.files }

func (snap *GadgetSnapshot) ByteOrder() binary.ByteOrder { return snap.order }

// IDSize returns the width of the snapshot's IDs in bytes.
func (snap *GadgetSnapshot) IDSize() int { return snap.idSize }

// Count returns the number of converted particles across all files.
func (snap *GadgetSnapshot) Count() int64 {
	n := int64(0)
	for i := range snap.hds { n += int64(snap.hds[i].NPart[convert.Species]) }
	return n
}

// Attrs returns the header fields under the names nbodykit's Gadget1Catalog
// uses. Global fields come from the first file, and Npart is summed over all
// files.
func (snap *GadgetSnapshot) Attrs() map[string]interface{} {
	hd := snap.hds[0]

	npart := make([]uint32, 6)
	for i := range snap.hds {
		for j := range npart { npart[j] += snap.hds[i].NPart[j] }
	}

	return map[string]interface{}{
		"Npart":         npart,
		"Massarr":       hd.Massarr[:],
		"Time":          hd.Time,
		"Redshift":      hd.Redshift,
		"FlagSfr":       hd.FlagSfr,
		"FlagFeedback":  hd.FlagFeedback,
		"Nall":          hd.Nall[:],
		"FlagCooling":   hd.FlagCooling,
		"Nfiles":        hd.NumFiles,
		"BoxSize":       hd.BoxSize,
		"Omega0":        hd.Omega0,
		"OmegaLambda":   hd.OmegaLambda,
		"HubbleParam":   hd.HubbleParam,
		"FlagAge":       hd.FlagAge,
		"FlagMetals":    hd.FlagMetals,
		"NallHW":        hd.NallHW[:],
		"flag_entr_ics": hd.FlagEntropyICs,
	}
}

// ReadPositions reads the converted species' positions of every file.
func (snap *GadgetSnapshot) ReadPositions() ([][3]float32, error) {
	return snap.readVectors(posBlock)
}

// ReadVelocities reads the converted species' velocities of every file. These are
// Gadget's internal velocities, u = v_pec / sqrt(a).
func (snap *GadgetSnapshot) ReadVelocities() ([][3]float32, error) {
	return snap.readVectors(velBlock)
}

// ReadIDs reads the converted species' IDs of every file. The result is a []uint32 or
// a []uint64, depending on the ID width of the snapshot.
func (snap *GadgetSnapshot) ReadIDs() (interface{}, error) {
	n := snap.Count()
	var out interface{}
	if snap.idSize == 4 {
		out = make([]uint32, n)
	} else {
		out = make([]uint64, n)
	}

	start := int64(0)
	for i := range snap.files {
		end := start + int64(snap.hds[i].NPart[convert.Species])
		var buf interface{}
		switch x := out.(type) {
		case []uint32: buf = x[start:end]
		case []uint64: buf = x[start:end]
		}

		if err := snap.readSpecies(i, idBlock, buf); err != nil {
			return nil, err
		}
		start = end
	}
	return out, nil
}

func (snap *GadgetSnapshot) readVectors(block int) ([][3]float32, error) {
	out := make([][3]float32, snap.Count())

	start := int64(0)
	for i := range snap.files {
		end := start + int64(snap.hds[i].NPart[convert.Species])
		err := snap.readSpecies(i, block, out[start:end])
		if err != nil { return nil, err }
		start = end
	}
	return out, nil
}

// rowSize returns the number of bytes per particle in a block.
func (snap *GadgetSnapshot) rowSize(block int) int64 {
	if block == idBlock { return int64(snap.idSize) }
	return 12
}

// blockOffset returns the offset of the leading record marker of the given
// block in file i.
func (snap *GadgetSnapshot) blockOffset(i, block int) int64 {
	offset := int64(8 + gadgetHeaderSize)
	n := snap.hds[i].fileCount()
	for b := 0; b < block; b++ {
		offset += 8 + n*snap.rowSize(b)
	}
	return offset
}

// readSpecies reads the converted species' rows of a block in file i into
// buf.
func (snap *GadgetSnapshot) readSpecies(i, block int, buf interface{}) error {
	hd := &snap.hds[i]
	rd, closer, err := openGadgetFile(snap.files[i], snap.cache)
	if err != nil { return err }
	defer closer()

	offset := snap.blockOffset(i, block)
	size := hd.fileCount() * snap.rowSize(block)
	if err = checkRecord(rd, snap.order, offset, size); err != nil {
		return fmt.Errorf("Block %d of the Gadget file %s is corrupted: %w",
			block, snap.files[i], err)
	}

	skip := int64(0)
	for j := 0; j < convert.Species; j++ {
		skip += int64(hd.NPart[j]) * snap.rowSize(block)
	}
	if _, err = rd.Seek(offset+4+skip, io.SeekStart); err != nil {
		return err
	}
	return binary.Read(rd, snap.order, buf)
}

// checkIDSize finds the width of the ID block in every file and checks that
// it's 4 or 8 bytes and the same everywhere.
func (snap *GadgetSnapshot) checkIDSize() error {
	snap.idSize = 0
	for i := range snap.files {
		n := snap.hds[i].fileCount()
		if n == 0 { continue }

		rd, closer, err := openGadgetFile(snap.files[i], snap.cache)
		if err != nil { return err }

		// rowSize() doesn't depend on idSize for the blocks before the IDs.
		offset := snap.blockOffset(i, idBlock)
		_, err = rd.Seek(offset, io.SeekStart)
		if err == nil {
			size := uint32(0)
			err = binary.Read(rd, snap.order, &size)
			if err == nil && int64(size) % n != 0 {
				err = fmt.Errorf("the ID block has %d bytes, which isn't "+
					"a multiple of the %d particles in the file", size, n)
			} else if err == nil {
				err = snap.setIDSize(int(int64(size) / n))
			}
		}
		closer()

		if err != nil {
			return fmt.Errorf("Could not read the IDs of Gadget file %s: %w",
				snap.files[i], err)
		}
	}

	if snap.idSize == 0 { snap.idSize = 8 }
	return nil
}

func (snap *GadgetSnapshot) setIDSize(size int) error {
	if size != 4 && size != 8 {
		return fmt.Errorf("IDs are %d bytes wide, but only 4- and 8-byte "+
			"IDs are supported", size)
	} else if snap.idSize != 0 && snap.idSize != size {
		return fmt.Errorf("IDs are %d bytes wide, but earlier files used "+
			"%d-byte IDs", size, snap.idSize)
	}
	snap.idSize = size
	return nil
}

// checkRecord checks that the Fortran record starting at offset has leading
// and trailing markers equal to size.
func checkRecord(
	rd io.ReadSeeker, order binary.ByteOrder, offset, size int64,
) error {
	head, tail := uint32(0), uint32(0)

	if _, err := rd.Seek(offset, io.SeekStart); err != nil { return err }
	if err := binary.Read(rd, order, &head); err != nil { return err }
	if int64(head) != size {
		return fmt.Errorf("the record should have %d bytes, but its "+
			"marker says %d", size, head)
	}

	if _, err := rd.Seek(offset+4+size, io.SeekStart); err != nil {
		return err
	}
	if err := binary.Read(rd, order, &tail); err != nil { return err }
	if head != tail {
		return fmt.Errorf("the record's leading marker, %d, and trailing "+
			"marker, %d, don't match", head, tail)
	}
	return nil
}

// readGadgetHeader reads the header of a single file. If order is nil, it's
// detected from the leading record marker, which must be 256.
func readGadgetHeader(
	fname string, order binary.ByteOrder, cache fileCache,
) (*GadgetHeader, binary.ByteOrder, error) {
	rd, closer, err := openGadgetFile(fname, cache)
	if err != nil { return nil, nil, err }
	defer closer()

	marker := make([]byte, 4)
	if _, err = io.ReadFull(rd, marker); err != nil {
		return nil, nil, fmt.Errorf("%s is too small to be a Gadget file.",
			fname)
	}

	if order == nil {
		switch {
		case binary.LittleEndian.Uint32(marker) == gadgetHeaderSize:
			order = binary.LittleEndian
		case binary.BigEndian.Uint32(marker) == gadgetHeaderSize:
			order = binary.BigEndian
		default:
			return nil, nil, fmt.Errorf("%s is not a valid Gadget file: "+
				"the first record isn't a %d-byte header in either byte "+
				"order.", fname, gadgetHeaderSize)
		}
	}

	if err = checkRecord(rd, order, 0, gadgetHeaderSize); err != nil {
		return nil, nil, fmt.Errorf("%s is not a valid Gadget file: %w",
			fname, err)
	}

	hd := &GadgetHeader{}
	if _, err = rd.Seek(4, io.SeekStart); err != nil { return nil, nil, err }
	if err = binary.Read(rd, order, hd); err != nil {
		return nil, nil, err
	}
	return hd, order, nil
}

// openGadgetFile opens a snapshot file for random access. Compressed files
// are decompressed into cache the first time they're opened.
func openGadgetFile(
	fname string, cache fileCache,
) (io.ReadSeeker, func() error, error) {
	noop := func() error { return nil }
	if b, ok := cache[fname]; ok { return bytes.NewReader(b), noop, nil }

	f, err := os.Open(fname)
	if err != nil { return nil, nil, err }
	if !strings.HasSuffix(fname, ".zst") { return f, f.Close, nil }
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil { return nil, nil, err }
	defer dec.Close()

	b, err := io.ReadAll(dec)
	if err != nil {
		return nil, nil, fmt.Errorf("Could not decompress %s: %w", fname, err)
	}
	cache[fname] = b
	return bytes.NewReader(b), noop, nil
}

// gadgetFiles returns the files named by a snapshot path before the header
// has been read.
func gadgetFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		for _, suffix := range []string{".0", ".0.zst"} {
			if _, err := os.Stat(path + suffix); err == nil {
				return []string{path + suffix}, nil
			}
		}
		return nil, fmt.Errorf("The snapshot %s does not exist.", path)
	} else if err != nil {
		return nil, err
	} else if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil { return nil, err }
	files := []string{}
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") { continue }
		files = append(files, filepath.Join(path, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("The directory %s contains no files.", path)
	}
	sortGadgetFiles(files)
	return files, nil
}

// expandFamily turns a single file named like "snapshot.0" into the whole
// "snapshot.0", ..., "snapshot.N-1" family. Directory listings are only
// checked against numFiles.
func expandFamily(path string, files []string, numFiles int) ([]string, error) {
	if numFiles <= 1 { return files, nil }

	if len(files) > 1 {
		if len(files) != numFiles {
			return nil, fmt.Errorf("The directory %s contains %d files, "+
				"but its Gadget header says the snapshot has %d.",
				path, len(files), numFiles)
		}
		return files, nil
	}

	name, ext := files[0], ""
	if strings.HasSuffix(name, ".zst") {
		name, ext = strings.TrimSuffix(name, ".zst"), ".zst"
	}
	if !strings.HasSuffix(name, ".0") {
		// A single file of a multi-file snapshot: read just that file.
		return files, nil
	}

	base := strings.TrimSuffix(name, ".0")
	out := make([]string, numFiles)
	for i := range out {
		out[i] = fmt.Sprintf("%s.%d%s", base, i, ext)
		if _, err := os.Stat(out[i]); err != nil {
			return nil, fmt.Errorf("The Gadget header of %s says the "+
				"snapshot has %d files, but %s is missing.",
				files[0], numFiles, out[i])
		}
	}
	return out, nil
}

// sortGadgetFiles sorts file names so that numeric suffixes are in numeric
// order, i.e. snapshot.2 comes before snapshot.10.
func sortGadgetFiles(files []string) {
	sort.Slice(files, func(i, j int) bool {
		bi, ni, oki := splitIndex(files[i])
		bj, nj, okj := splitIndex(files[j])
		if oki && okj && bi == bj { return ni < nj }
		return files[i] < files[j]
	})
}

func splitIndex(fname string) (string, int, bool) {
	fname = strings.TrimSuffix(fname, ".zst")
	dot := strings.LastIndex(fname, ".")
	if dot == -1 { return fname, 0, false }
	n, err := strconv.Atoi(fname[dot+1:])
	if err != nil { return fname, 0, false }
	return fname[:dot], n, true
}

// WriteGadget writes a single-file Gadget-1 snapshot. x, v, and id hold the
// rows of every species in order, so their lengths must equal the sum of
// hd.NPart. id must be a []uint32 or a []uint64.
func WriteGadget(
	fname string, order binary.ByteOrder,
	hd *GadgetHeader, x, v [][3]float32, id interface{},
) error {
	n := int(hd.fileCount())
	idSize, idLen := 0, 0
	switch ids := id.(type) {
	case []uint32: idSize, idLen = 4, len(ids)
	case []uint64: idSize, idLen = 8, len(ids)
	default:
		return fmt.Errorf("IDs of type %T cannot be written to a Gadget "+
			"file.", id)
	}
	if len(x) != n || len(v) != n || idLen != n {
		return fmt.Errorf("The header describes %d particles, but %d "+
			"positions, %d velocities, and %d IDs were given.",
			n, len(x), len(v), idLen)
	}

	buf := &bytes.Buffer{}
	records := []struct {
		size uint32
		data interface{}
	}{
		{gadgetHeaderSize, hd},
		{uint32(12 * n), x},
		{uint32(12 * n), v},
		{uint32(idSize * n), id},
	}
	for _, rec := range records {
		if err := writeRecord(buf, order, rec.size, rec.data); err != nil {
			return fmt.Errorf("Could not write %s: %w", fname, err)
		}
	}

	var out []byte = buf.Bytes()
	if strings.HasSuffix(fname, ".zst") {
		enc, err := zstd.NewWriter(nil)
		if err != nil { return err }
		out = enc.EncodeAll(out, nil)
		enc.Close()
	}

	return os.WriteFile(fname, out, 0666)
}

// writeRecord writes data as a Fortran record whose markers hold size.
func writeRecord(
	w io.Writer, order binary.ByteOrder, size uint32, data interface{},
) error {
	if err := binary.Write(w, order, size); err != nil { return err }
	if err := binary.Write(w, order, data); err != nil { return err }
	return binary.Write(w, order, size)
}
