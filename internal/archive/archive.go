// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Archive of named binary records with attributes.
package archive

import (
	"errors"
	"fmt"
)

// Attribute names as stored in archive.
const (
	AttrOriginalIdx = "original_idx"
	AttrEncoding    = "encoding"
	AttrContentID   = "content_id"
	AttrEncodedID   = "encoded_id"
)

// ErrClosed is returned when writing to a closed archive.
var ErrClosed = errors.New("archive closed")

// Attributes annotate a frame record.
type Attributes struct {
	// OriginalIdx is the frame index in source stream.
	OriginalIdx int64
	// Encoding is one of "raw", "jpeg" or "png".
	Encoding string
	// ContentID is digest of decoded pixels.
	ContentID string
	// EncodedID is digest of stored payload.
	EncodedID string
}

// Record is a single named dataset. Records are written once and never
// updated.
type Record struct {
	Name  string
	Shape []uint
	Data  []byte
	Attrs Attributes
}

// Size returns number of data bytes in record.
func (r Record) Size() int {
	return len(r.Data)
}

// Writer is a sink of records.
type Writer interface {
	// Write persists record. Record names are unique within archive.
	Write(Record) error
	// Close flushes and releases archive. Close is idempotent.
	Close() error
}

// RecordName returns record name of frame idx: "frame" followed by index
// zero padded to five digits. Larger indexes keep all their digits.
func RecordName(idx uint64) string {
	return fmt.Sprintf("frame%05d", idx)
}

// WriteError is returned when archive can not be created or record can not
// be written.
type WriteError struct {
	Path string
	// Record is the name of failed record, empty when archive itself failed.
	Record string
	Err    error
}

func (e *WriteError) Error() string {
	if e.Record == "" {
		return fmt.Sprintf("archive %s: %s", e.Path, e.Err)
	}
	return fmt.Sprintf("archive %s: record %s: %s", e.Path, e.Record, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
