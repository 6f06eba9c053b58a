// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// A bounded io.Writer that remembers only the most recent bytes written.
//
// Child processes like ffmpeg report the interesting part of a failure at the
// end of their stderr, so keeping the tail gives useful diagnostics while
// protecting us from a runaway process flooding memory.
package lw

import (
	"io"
	"sync"
)

// TailWriter keeps at most N last bytes written to it. Writes never fail.
type TailWriter struct {
	mu        sync.Mutex
	buf       []byte
	n         int
	truncated bool
}

// NewTailWriter creates TailWriter holding up to n bytes.
func NewTailWriter(n int) *TailWriter {
	if n < 0 {
		n = 0
	}
	return &TailWriter{n: n}
}

// Write implements io.Writer for *TailWriter.
func (w *TailWriter) Write(b []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(b) >= w.n {
		w.truncated = w.truncated || len(b) > w.n || len(w.buf) > 0
		w.buf = append(w.buf[:0], b[len(b)-w.n:]...)
		return len(b), nil
	}
	if drop := len(w.buf) + len(b) - w.n; drop > 0 {
		w.truncated = true
		w.buf = append(w.buf[:0], w.buf[drop:]...)
	}
	w.buf = append(w.buf, b...)
	return len(b), nil
}

// Bytes returns a copy of retained bytes.
func (w *TailWriter) Bytes() []byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]byte(nil), w.buf...)
}

// String returns retained bytes, prefixed with "..." if older output was dropped.
func (w *TailWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.truncated {
		return "..." + string(w.buf)
	}
	return string(w.buf)
}

// Truncated reports whether any written bytes were dropped.
func (w *TailWriter) Truncated() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.truncated
}

var _ io.Writer = (*TailWriter)(nil)
