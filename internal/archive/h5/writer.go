// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// HDF5 backed archive writer.
package h5

import (
	"errors"
	"fmt"

	"github.com/evolution-gaming/av2hdf5/internal/archive"
	"github.com/evolution-gaming/av2hdf5/internal/logging"
	"gonum.org/v1/hdf5"
)

// MaxDeflateLevel is the strongest gzip compression level.
const MaxDeflateLevel = 9

// Options tune dataset creation.
type Options struct {
	// DeflateLevel enables chunked gzip compression of datasets when in
	// range 1..9, zero means datasets are stored contiguous and uncompressed.
	DeflateLevel int
}

// Validate checks option ranges.
func (o Options) Validate() error {
	if o.DeflateLevel < 0 || o.DeflateLevel > MaxDeflateLevel {
		return fmt.Errorf("deflate level %d out of range 0..%d", o.DeflateLevel, MaxDeflateLevel)
	}
	return nil
}

// Writer stores every record as a uint8 dataset in root group of an HDF5
// file, record attributes become scalar dataset attributes.
type Writer struct {
	path  string
	opts  Options
	file  *hdf5.File
	names map[string]struct{}
}

// Make sure Writer implements archive.Writer interface.
var _ archive.Writer = (*Writer)(nil)

// Create creates (or truncates) HDF5 file at path.
func Create(path string, opts Options) (*Writer, error) {
	if err := opts.Validate(); err != nil {
		return nil, &archive.WriteError{Path: path, Err: err}
	}
	f, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	if err != nil {
		return nil, &archive.WriteError{Path: path, Err: err}
	}
	logging.Debugf("Created HDF5 archive %s (deflate level %d)", path, opts.DeflateLevel)
	return &Writer{path: path, opts: opts, file: f, names: make(map[string]struct{})}, nil
}

// Path returns file path of archive.
func (w *Writer) Path() string {
	return w.path
}

// Write implements archive.Writer.
func (w *Writer) Write(r archive.Record) error {
	if err := w.write(r); err != nil {
		return &archive.WriteError{Path: w.path, Record: r.Name, Err: err}
	}
	return nil
}

func (w *Writer) write(r archive.Record) (err error) {
	if w.file == nil {
		return archive.ErrClosed
	}
	if _, exists := w.names[r.Name]; exists {
		return archive.ErrDuplicateRecord
	}
	if err := checkShape(r); err != nil {
		return err
	}

	space, err := hdf5.CreateSimpleDataspace(r.Shape, nil)
	if err != nil {
		return fmt.Errorf("dataspace: %w", err)
	}
	defer closeInto(&err, space.Close)

	dcpl, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		return fmt.Errorf("dataset properties: %w", err)
	}
	defer closeInto(&err, dcpl.Close)
	if w.opts.DeflateLevel > 0 {
		// Whole record is one chunk, records are always read in full.
		if err := dcpl.SetChunk(r.Shape); err != nil {
			return fmt.Errorf("chunking: %w", err)
		}
		if err := dcpl.SetDeflate(w.opts.DeflateLevel); err != nil {
			return fmt.Errorf("deflate: %w", err)
		}
	}

	dset, err := w.file.CreateDatasetWith(r.Name, hdf5.T_NATIVE_UINT8, space, dcpl)
	if err != nil {
		return fmt.Errorf("create dataset: %w", err)
	}
	defer closeInto(&err, dset.Close)
	w.names[r.Name] = struct{}{}

	data := r.Data
	if err := dset.Write(&data); err != nil {
		return fmt.Errorf("write data: %w", err)
	}
	return writeAttributes(dset, r.Attrs)
}

// Close implements archive.Writer.
func (w *Writer) Close() error {
	if w.file == nil {
		return nil
	}
	f := w.file
	w.file = nil
	if err := f.Close(); err != nil {
		return &archive.WriteError{Path: w.path, Err: err}
	}
	logging.Debugf("Closed HDF5 archive %s with %d records", w.path, len(w.names))
	return nil
}

// checkShape verifies that record data fills its shape exactly.
func checkShape(r archive.Record) error {
	if len(r.Shape) == 0 {
		return errors.New("empty shape")
	}
	n := uint(1)
	for _, d := range r.Shape {
		n *= d
	}
	if n == 0 {
		return fmt.Errorf("zero sized shape %v", r.Shape)
	}
	if n != uint(len(r.Data)) {
		return fmt.Errorf("shape %v needs %d bytes, got %d", r.Shape, n, len(r.Data))
	}
	return nil
}

func writeAttributes(dset *hdf5.Dataset, a archive.Attributes) error {
	if err := writeScalarAttr(dset, archive.AttrOriginalIdx, hdf5.T_NATIVE_INT64, &a.OriginalIdx); err != nil {
		return err
	}
	strAttrs := []struct {
		name  string
		value string
	}{
		{archive.AttrEncoding, a.Encoding},
		{archive.AttrContentID, a.ContentID},
		{archive.AttrEncodedID, a.EncodedID},
	}
	for _, sa := range strAttrs {
		v := sa.value
		if err := writeScalarAttr(dset, sa.name, hdf5.T_GO_STRING, &v); err != nil {
			return err
		}
	}
	return nil
}

func writeScalarAttr(dset *hdf5.Dataset, name string, dtype *hdf5.Datatype, v interface{}) (err error) {
	space, err := hdf5.CreateDataspace(hdf5.S_SCALAR)
	if err != nil {
		return fmt.Errorf("attribute %s dataspace: %w", name, err)
	}
	defer closeInto(&err, space.Close)

	attr, err := dset.CreateAttribute(name, dtype, space)
	if err != nil {
		return fmt.Errorf("create attribute %s: %w", name, err)
	}
	defer closeInto(&err, attr.Close)

	if err := attr.Write(v, dtype); err != nil {
		return fmt.Errorf("write attribute %s: %w", name, err)
	}
	return nil
}

// closeInto calls closer and keeps its error unless *err is already set.
func closeInto(err *error, closer func() error) {
	if cerr := closer(); cerr != nil && *err == nil {
		*err = cerr
	}
}
