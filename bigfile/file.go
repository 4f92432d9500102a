package bigfile

import (
	"fmt"
	"os"
	"path/filepath"
)

// File is a bigfile rooted at a directory.
type File struct {
	Root string
}

// Create returns a File rooted at root, creating the directory if needed.
func Create(root string) (*File, error) {
	if err := os.MkdirAll(root, 0777); err != nil { return nil, err }
	return &File{root}, nil
}

// Path returns the on-disk location of the named block.
func (f *File) Path(block string) string {
	return filepath.Join(f.Root, filepath.FromSlash(block))
}

// WriteColumn writes a column as the named block, which receives an empty
// attribute set.
func (f *File) WriteColumn(block string, c Column) error {
	dt, nmemb, rows, err := columnType(c.Data)
	if err != nil { return err }

	dir := f.Path(block)
	if err = os.MkdirAll(dir, 0777); err != nil { return err }

	info, err := writeData(filepath.Join(dir, dataFileName(0)), c.Data, rows)
	if err != nil { return err }

	hd := &BlockHeader{DType: dt, NMemb: nmemb, Files: []FileInfo{info}}
	if err = writeBlockFile(dir, HeaderFile, hd.encode()); err != nil {
		return err
	}
	return f.WriteAttrs(block, nil)
}

// WriteEmptyBlock creates a block without any data. These blocks are used to
// carry attributes.
func (f *File) WriteEmptyBlock(block string, attrs Attrs) error {
	dir := f.Path(block)
	if err := os.MkdirAll(dir, 0777); err != nil { return err }

	hd := &BlockHeader{DType: EmptyDType, NMemb: 1}
	if err := writeBlockFile(dir, HeaderFile, hd.encode()); err != nil {
		return err
	}
	return f.WriteAttrs(block, attrs)
}

// WriteAttrs replaces the attribute set of an existing block.
func (f *File) WriteAttrs(block string, attrs Attrs) error {
	b, err := EncodeAttrs(attrs)
	if err != nil { return err }
	return writeBlockFile(f.Path(block), AttrFile, b)
}

// Save writes a catalog the way nbodykit's CatalogSource.save does: every
// column becomes the block dataset/<name> and the attributes are attached to
// an empty block named header. An empty header skips the attribute block.
func (f *File) Save(
	columns []Column, attrs Attrs, dataset, header string,
) error {
	if header != "" {
		if err := f.WriteEmptyBlock(header, attrs); err != nil {
			return fmt.Errorf("Could not write the '%s' block: %w",
				header, err)
		}
	}

	for _, c := range columns {
		block := c.Name
		if dataset != "" { block = dataset + "/" + c.Name }
		if err := f.WriteColumn(block, c); err != nil {
			return fmt.Errorf("Could not write the '%s' block: %w",
				block, err)
		}
	}

	return nil
}

func writeBlockFile(dir, name string, b []byte) error {
	return os.WriteFile(filepath.Join(dir, name), b, 0666)
}
