// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Run progress reporting for the command line.

package main

import (
	"io"
	"strconv"

	"github.com/evolution-gaming/av2hdf5/internal/logging"
	"github.com/evolution-gaming/av2hdf5/internal/metric"
	"github.com/evolution-gaming/av2hdf5/internal/pipeline"
	"github.com/evolution-gaming/av2hdf5/internal/video"
	"github.com/schollz/progressbar/v3"
)

// cliObserver logs run progress, summarises payload sizes and optionally
// keeps per frame metrics and drives a progress bar.
type cliObserver struct {
	acc metric.Accumulator
	// store is nil when no per frame artifacts are requested.
	store *metric.Store
	// bar is nil when progress bar is disabled.
	bar *progressbar.ProgressBar
}

// Make sure cliObserver implements pipeline.Observer interface.
var _ pipeline.Observer = (*cliObserver)(nil)

// newCLIObserver creates observer, a nil store disables per frame metrics.
func newCLIObserver(store *metric.Store) *cliObserver {
	return &cliObserver{store: store}
}

func (o *cliObserver) OnStart(cfg pipeline.Config) {
	duration := "all"
	if cfg.Duration != nil {
		duration = strconv.FormatUint(*cfg.Duration, 10)
	}
	logging.Infof("Extracting frames: start=%d duration=%s encoding=%s id=%s",
		cfg.Window().Start, duration, cfg.Mode, cfg.IDAlgorithm)
}

func (o *cliObserver) OnFrame(e pipeline.FrameEvent) {
	o.acc.Add(e.PayloadSize, e.EncodeTime)
	if o.store != nil {
		o.store.Insert(metric.Record{
			Name:        e.Name,
			OriginalIdx: e.Index,
			Encoding:    e.Mode.String(),
			ContentID:   e.ContentID,
			EncodedID:   e.EncodedID,
			PayloadSize: e.PayloadSize,
			EncodeTime:  e.EncodeTime,
		})
	}
	logging.Debugf("%s original_idx=%d content_id=%s encoded_id=%s bytes=%d",
		e.Name, e.Index, e.ContentID, e.EncodedID, e.PayloadSize)
	if o.bar != nil {
		_ = o.bar.Add(1)
	}
}

func (o *cliObserver) OnProgress(n uint64) {
	// Progress bar already tells the story.
	if o.bar == nil {
		logging.Infof("Read %d frames", n)
	}
}

func (o *cliObserver) OnDone(n uint64, err error) {
	if o.bar != nil {
		if err == nil {
			_ = o.bar.Finish()
		} else {
			_ = o.bar.Clear()
		}
	}
	logging.Infof("Read %d frame(s) in total", n)
	if sum := o.acc.Summary(); sum.Frames > 0 {
		logging.Infof("Payload summary: %s", sum)
	}
}

// newProgressBar creates progress bar writing to w, negative total means
// unknown frame count.
func newProgressBar(w io.Writer, total int64) *progressbar.ProgressBar {
	return progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Extracting"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("frames"),
		progressbar.OptionOnCompletion(func() { _, _ = io.WriteString(w, "\n") }),
	)
}

// expectedFrames estimates number of frames a window yields from container
// declared frame count. Returns -1 when it can not be known.
func expectedFrames(meta video.Metadata, win video.Window) int64 {
	if meta.FrameCount == 0 {
		if win.Duration != nil {
			return int64(*win.Duration)
		}
		return -1
	}
	var n uint64
	if meta.FrameCount > win.Start {
		n = meta.FrameCount - win.Start
	}
	if win.Duration != nil && *win.Duration < n {
		n = *win.Duration
	}
	return int64(n)
}
