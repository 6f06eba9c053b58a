// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Decoded frame abstractions.

package video

import (
	"fmt"
	"image"
)

// Frame is a single decoded video frame in packed RGB24 layout.
//
// Pix holds Height rows of Width*3 bytes. A Frame must not be modified once
// handed out by Source.
type Frame struct {
	// Index is zero based position of frame in the video stream.
	Index  uint64
	Width  int
	Height int
	Pix    []byte
}

// Validate checks that Pix agrees with frame geometry.
func (f Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("invalid frame size %dx%d", f.Width, f.Height)
	}
	if want := f.Width * f.Height * 3; len(f.Pix) != want {
		return fmt.Errorf("pixel buffer has %d bytes, want %d for %dx%d RGB24", len(f.Pix), want, f.Width, f.Height)
	}
	return nil
}

// RGBA converts frame into an opaque *image.RGBA suitable for image codecs.
func (f Frame) RGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	src, dst := f.Pix, img.Pix
	for i, j := 0, 0; i+2 < len(src) && j+3 < len(dst); i, j = i+3, j+4 {
		dst[j] = src[i]
		dst[j+1] = src[i+1]
		dst[j+2] = src[i+2]
		dst[j+3] = 0xff
	}
	return img
}
