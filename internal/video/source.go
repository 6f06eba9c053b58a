// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Lazy, single pass frame source on top of a Decoder.

package video

import (
	"errors"
	"fmt"
	"io"
)

// Decoder produces consecutive RGB24 frames of a single video stream.
type Decoder interface {
	// Seek asks decoder to start at frame n. It is advisory: implementation
	// reports the index of the next frame it will produce, which is at most n.
	// Seek is called at most once and before first ReadFrame.
	Seek(n uint64) (uint64, error)
	// ReadFrame fills pix with next frame's pixels. It returns io.EOF when
	// stream is exhausted.
	ReadFrame(pix []byte) error
	// Close releases decoding session. It is safe to call before the stream
	// is exhausted.
	Close() error
}

// Window selects contiguous range of frames.
type Window struct {
	// Start is the index of first frame to yield.
	Start uint64
	// Duration limits number of yielded frames, nil means no limit.
	Duration *uint64
}

// Exhausted reports whether n yielded frames fill the window.
func (w Window) Exhausted(n uint64) bool {
	return w.Duration != nil && n >= *w.Duration
}

// Source yields frames of a Window in stream order.
//
// Source is not restartable. Decoder is released when frames run out, when an
// error occurs or when Close is called, whichever comes first.
type Source struct {
	dec  Decoder
	meta Metadata
	win  Window

	// Index of next frame the decoder will produce.
	pos     uint64
	yielded uint64
	started bool
	done    bool
	err     error
}

// NewSource creates Source reading frames of given geometry from dec.
func NewSource(dec Decoder, meta Metadata, win Window) *Source {
	return &Source{dec: dec, meta: meta, win: win}
}

// Metadata returns metadata of underlying video stream.
func (s *Source) Metadata() Metadata {
	return s.meta
}

// Yielded returns number of frames handed out so far.
func (s *Source) Yielded() uint64 {
	return s.yielded
}

// Next returns next frame of the window or io.EOF when there are no more.
func (s *Source) Next() (Frame, error) {
	if s.done {
		if s.err != nil {
			return Frame{}, s.err
		}
		return Frame{}, io.EOF
	}
	if s.win.Exhausted(s.yielded) {
		return Frame{}, s.finish(nil)
	}
	if s.meta.FrameSize() <= 0 {
		return Frame{}, s.finish(&DecodeError{Index: s.pos, Err: fmt.Errorf("invalid frame size %dx%d", s.meta.Width, s.meta.Height)})
	}

	if !s.started {
		s.started = true
		if s.win.Start > 0 {
			landed, err := s.dec.Seek(s.win.Start)
			if err != nil {
				return Frame{}, s.finish(&DecodeError{Index: s.win.Start, Err: fmt.Errorf("seek: %w", err)})
			}
			if landed > s.win.Start {
				return Frame{}, s.finish(&DecodeError{
					Index: s.win.Start,
					Err:   fmt.Errorf("seek overshot: landed on frame %d", landed),
				})
			}
			s.pos = landed
		}
	}

	pix := make([]byte, s.meta.FrameSize())
	for {
		err := s.dec.ReadFrame(pix)
		if errors.Is(err, io.EOF) {
			return Frame{}, s.finish(nil)
		}
		if err != nil {
			return Frame{}, s.finish(&DecodeError{Index: s.pos, Err: err})
		}
		idx := s.pos
		s.pos++
		// Seek may land before the window, skip frames until we catch up.
		if idx < s.win.Start {
			continue
		}
		s.yielded++
		return Frame{Index: idx, Width: s.meta.Width, Height: s.meta.Height, Pix: pix}, nil
	}
}

// Close releases decoding session. It is safe to call multiple times.
func (s *Source) Close() error {
	if s.done {
		return nil
	}
	s.done = true
	return s.dec.Close()
}

// finish releases decoder and remembers terminal error. A nil err means
// stream ended normally, in which case a failure to close decoder becomes the
// terminal error.
func (s *Source) finish(err error) error {
	s.done = true
	if cerr := s.dec.Close(); cerr != nil && err == nil {
		err = &DecodeError{Index: s.pos, Err: cerr}
	}
	s.err = err
	if err == nil {
		return io.EOF
	}
	return err
}
