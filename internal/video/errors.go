// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package video

import (
	"errors"
	"fmt"
)

// ErrNoVideoStream is returned when container has no video stream.
var ErrNoVideoStream = errors.New("no video stream")

// OpenError is returned when video file cannot be opened or demultiplexed.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("cannot open video %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error {
	return e.Err
}

// DecodeError is returned when decoding fails. Index is the position of the
// frame that was being decoded.
type DecodeError struct {
	Index uint64
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding frame %d: %v", e.Index, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
