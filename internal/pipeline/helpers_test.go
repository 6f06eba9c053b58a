// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Reusable helpers and fixtures for tests.
package pipeline

import (
	"context"
	"errors"
	"io"

	"github.com/evolution-gaming/av2hdf5/internal/archive"
	"github.com/evolution-gaming/av2hdf5/internal/video"
)

var fakeMeta = video.Metadata{Width: 8, Height: 4}

// fakeDecoder produces count synthetic frames, pixels depend on frame index.
type fakeDecoder struct {
	count  uint64
	next   uint64
	failAt int64
	closed int
}

func newFakeDecoder(count uint64) *fakeDecoder {
	return &fakeDecoder{count: count, failAt: -1}
}

func (d *fakeDecoder) Seek(n uint64) (uint64, error) {
	if n > d.count {
		n = d.count
	}
	d.next = n
	return n, nil
}

func (d *fakeDecoder) ReadFrame(pix []byte) error {
	if d.failAt >= 0 && d.next == uint64(d.failAt) {
		return errors.New("corrupt packet")
	}
	if d.next >= d.count {
		return io.EOF
	}
	for i := range pix {
		pix[i] = byte(i*7 + int(d.next)*31)
	}
	d.next++
	return nil
}

func (d *fakeDecoder) Close() error {
	d.closed++
	return nil
}

// fixSource fixture creates video.Source over count fake frames.
func fixSource(count uint64, cfg Config) (*video.Source, *fakeDecoder) {
	dec := newFakeDecoder(count)
	return video.NewSource(dec, fakeMeta, cfg.Window()), dec
}

// sliceSource yields given frames as is.
type sliceSource struct {
	frames []video.Frame
	closed int
}

func (s *sliceSource) Next() (video.Frame, error) {
	if len(s.frames) == 0 {
		return video.Frame{}, io.EOF
	}
	f := s.frames[0]
	s.frames = s.frames[1:]
	return f, nil
}

func (s *sliceSource) Close() error {
	s.closed++
	return nil
}

// cancellingSource yields frames from 3 on and cancels its context when
// asked for frame at, failing the way a killed decoder does.
type cancellingSource struct {
	ctx    context.Context
	cancel context.CancelFunc
	at     uint64
	next   uint64
}

func (s *cancellingSource) Next() (video.Frame, error) {
	if s.next == 0 {
		s.next = 3
	}
	if s.next == s.at {
		s.cancel()
		return video.Frame{}, &video.DecodeError{Index: s.next, Err: s.ctx.Err()}
	}
	f := video.Frame{Index: s.next, Width: 1, Height: 1, Pix: []byte{1, 2, 3}}
	s.next++
	return f, nil
}

func (s *cancellingSource) Close() error { return nil }

// failingWriter fails writes after ok successful ones.
type failingWriter struct {
	*archive.MemStore
	ok       int
	closeErr error
}

func (w *failingWriter) Write(r archive.Record) error {
	if w.Len() >= w.ok {
		return &archive.WriteError{Path: "memory", Record: r.Name, Err: errors.New("disk full")}
	}
	return w.MemStore.Write(r)
}

func (w *failingWriter) Close() error {
	_ = w.MemStore.Close()
	return w.closeErr
}

// recordingObserver remembers notifications.
type recordingObserver struct {
	started  int
	frames   []FrameEvent
	progress []uint64
	done     []uint64
	doneErr  error
	onFrame  func(FrameEvent)
}

func (o *recordingObserver) OnStart(Config) { o.started++ }

func (o *recordingObserver) OnFrame(e FrameEvent) {
	o.frames = append(o.frames, e)
	if o.onFrame != nil {
		o.onFrame(e)
	}
}

func (o *recordingObserver) OnProgress(n uint64) { o.progress = append(o.progress, n) }

func (o *recordingObserver) OnDone(n uint64, err error) {
	o.done = append(o.done, n)
	o.doneErr = err
}

func ptr(v uint64) *uint64 { return &v }

// indexes returns original_idx attribute of every record.
func indexes(records []archive.Record) []int64 {
	var idx []int64
	for _, r := range records {
		idx = append(idx, r.Attrs.OriginalIdx)
	}
	return idx
}
