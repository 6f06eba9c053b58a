// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"time"

	"github.com/evolution-gaming/av2hdf5/internal/encoding"
)

// FrameEvent describes a record that has been written.
type FrameEvent struct {
	Index       uint64
	Name        string
	Mode        encoding.Mode
	ContentID   string
	EncodedID   string
	PayloadSize int
	// EncodeTime covers encoding and identifier computation.
	EncodeTime time.Duration
}

// Observer receives run notifications. Methods are called synchronously from
// the goroutine executing Run.
type Observer interface {
	OnStart(Config)
	OnFrame(FrameEvent)
	// OnProgress is called every Config.ProgressInterval written frames.
	OnProgress(written uint64)
	// OnDone is called once with final count and run error.
	OnDone(written uint64, err error)
}

// NopObserver ignores all notifications.
type NopObserver struct{}

func (NopObserver) OnStart(Config) {}
func (NopObserver) OnFrame(FrameEvent) {}
func (NopObserver) OnProgress(uint64) {}
func (NopObserver) OnDone(uint64, error) {}
