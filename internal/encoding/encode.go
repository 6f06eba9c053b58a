// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package encoding

import (
	"bytes"
	"errors"
	"fmt"
	"image/jpeg"
	"image/png"

	"github.com/evolution-gaming/av2hdf5/internal/video"
)

// JPEGQuality is the quality used for JPEG mode.
const JPEGQuality = 100

// EncodedFrame is a frame payload ready for storing.
type EncodedFrame struct {
	// Index of the source frame in the stream.
	Index   uint64
	Mode    Mode
	Payload []byte
	// Shape of the stored dataset: [H, W, 3] for raw, [len(Payload)] otherwise.
	Shape []uint
}

// Error is returned when frame can not be encoded.
type Error struct {
	Mode  Mode
	Index uint64
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("encoding frame %d as %s: %s", e.Index, e.Mode, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Encode produces payload for frame f in mode m.
//
// Encoding is deterministic: same pixels and mode always give same payload.
func Encode(f video.Frame, m Mode) (EncodedFrame, error) {
	ef := EncodedFrame{Index: f.Index, Mode: m}
	if err := f.Validate(); err != nil {
		return ef, &Error{Mode: m, Index: f.Index, Err: err}
	}

	var buf bytes.Buffer
	switch m {
	case Raw:
		ef.Payload = f.Pix
		ef.Shape = []uint{uint(f.Height), uint(f.Width), 3}
		return ef, nil
	case JPEG:
		if err := jpeg.Encode(&buf, f.RGBA(), &jpeg.Options{Quality: JPEGQuality}); err != nil {
			return ef, &Error{Mode: m, Index: f.Index, Err: err}
		}
	case PNG:
		if err := png.Encode(&buf, f.RGBA()); err != nil {
			return ef, &Error{Mode: m, Index: f.Index, Err: err}
		}
	default:
		return ef, &Error{Mode: m, Index: f.Index, Err: errors.New("unsupported mode")}
	}

	ef.Payload = buf.Bytes()
	ef.Shape = []uint{uint(len(ef.Payload))}
	return ef, nil
}
