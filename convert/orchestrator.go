package convert

import (
	"io"
	"os"
	"path/filepath"

	"github.com/phil-mansfield/gadget2big/bigfile"
)

// Store writes catalogs the way bigfile.File.Save does: columns become
// blocks under dataset and attrs are attached to the header block.
type Store interface {
	Save(columns []bigfile.Column, attrs bigfile.Attrs, dataset, header string) error
}

type phase int

const (
	phaseStart phase = iota
	phasePlaceholder
	phaseFull
	phaseFailed
)

// Orchestrator writes a catalog in two strictly ordered phases. Each phase
// can be called once, and a failed phase ends the run.
type Orchestrator struct {
	store                 Store
	root, dataset, header string
	phase                 phase
}

// NewOrchestrator creates an Orchestrator writing to the store rooted at
// root. dataset is the particle dataset ("1") and header is the header block
// ("Header").
func NewOrchestrator(store Store, root, dataset, header string) *Orchestrator {
	return &Orchestrator{
		store: store, root: root, dataset: dataset, header: header,
	}
}

func (o *Orchestrator) path(block, file string) string {
	return filepath.Join(o.root, filepath.FromSlash(block), file)
}

// WriteHeaderPlaceholder writes the IC-time attributes to the header block
// without any columns and moves the resulting attr-v2 file into the dataset.
func (o *Orchestrator) WriteHeaderPlaceholder(ic ICTimeAttributes) error {
	if o.phase != phaseStart { return ErrPhaseOrder }
	o.phase = phaseFailed

	if err := o.store.Save(nil, ic.Attrs(), o.dataset, o.header); err != nil {
		return &WriteFailure{1, err}
	}

	from := o.path(o.header, bigfile.AttrFile)
	to := o.path(o.dataset, bigfile.AttrFile)
	if err := os.MkdirAll(filepath.Dir(to), 0777); err != nil {
		return &RelocationFailure{"move", from, to, err}
	}
	if _, err := os.Stat(from); err != nil {
		return &RelocationFailure{"move", from, to, err}
	}
	if err := os.Rename(from, to); err != nil {
		return &RelocationFailure{"move", from, to, err}
	}

	o.phase = phasePlaceholder
	return nil
}

// WriteFull writes the particles and the full attributes, then copies the
// header block's header file into the dataset. Finally the header block's
// attr-v2 file is merged into the dataset's, so that the dataset's attr-v2
// file is the only attribute file left behind.
func (o *Orchestrator) WriteFull(full FullAttributes, cols Columns) error {
	if o.phase != phasePlaceholder { return ErrPhaseOrder }
	o.phase = phaseFailed

	if _, err := cols.Len(); err != nil { return &WriteFailure{2, err} }

	columns := []bigfile.Column{
		{Name: "Position", Data: cols.Position},
		{Name: "Velocity", Data: cols.Velocity},
		{Name: "ID", Data: cols.ID},
	}
	err := o.store.Save(columns, full.Attrs(), o.dataset, o.header)
	if err != nil { return &WriteFailure{2, err} }

	from := o.path(o.header, bigfile.HeaderFile)
	to := o.path(o.dataset, bigfile.HeaderFile)
	if err := copyFile(from, to); err != nil {
		return &RelocationFailure{"copy", from, to, err}
	}

	from = o.path(o.header, bigfile.AttrFile)
	to = o.path(o.dataset, bigfile.AttrFile)
	if err := mergeAttrs(from, to); err != nil {
		return &RelocationFailure{"merge", from, to, err}
	}

	o.phase = phaseFull
	return nil
}

// mergeAttrs appends the attributes in the attr-v2 file from to the ones in
// to and removes from.
func mergeAttrs(from, to string) error {
	if _, err := os.Stat(from); err != nil { return err }
	extra, err := bigfile.ReadAttrs(filepath.Dir(from))
	if err != nil { return err }
	as, err := bigfile.ReadAttrs(filepath.Dir(to))
	if err != nil { return err }

	b, err := bigfile.EncodeAttrs(as.Merge(extra))
	if err != nil { return err }
	if err = os.WriteFile(to, b, 0666); err != nil { return err }
	return os.Remove(from)
}

func copyFile(from, to string) error {
	src, err := os.Open(from)
	if err != nil { return err }
	defer src.Close()

	dst, err := os.Create(to)
	if err != nil { return err }
	if _, err = io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}
