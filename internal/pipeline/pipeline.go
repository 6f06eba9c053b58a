// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Streaming frame extraction: decode, encode, identify and archive one frame
// at a time.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/evolution-gaming/av2hdf5/internal/archive"
	"github.com/evolution-gaming/av2hdf5/internal/encoding"
	"github.com/evolution-gaming/av2hdf5/internal/hashid"
	"github.com/evolution-gaming/av2hdf5/internal/video"
)

// ErrAlreadyRun is returned when Run is called on a used Pipeline.
var ErrAlreadyRun = errors.New("pipeline already run")

// State of a Pipeline.
type State int32

const (
	Idle State = iota
	Streaming
	Complete
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Streaming:
		return "streaming"
	case Complete:
		return "complete"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Stage names the step a run failed in.
type Stage string

const (
	StageDecode Stage = "decode"
	StageEncode Stage = "encode"
	StageWrite  Stage = "write"
	StageCancel Stage = "cancel"
)

// RunError is returned when run aborts. Records written before the failure
// stay in archive.
type RunError struct {
	Stage Stage
	// Index of the frame in progress.
	Index uint64
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s failed at frame %d: %s", e.Stage, e.Index, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// Source yields frames in strictly increasing index order and io.EOF at the
// end. video.Source is the production implementation.
type Source interface {
	Next() (video.Frame, error)
	Close() error
}

// Pipeline moves frames from Source to archive.Writer. A Pipeline runs once.
type Pipeline struct {
	cfg    Config
	hasher hashid.Hasher
	obs    Observer
	state  atomic.Int32
}

// New validates cfg and creates Pipeline. A nil obs means NopObserver.
func New(cfg Config, obs Observer) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	h, err := hashid.New(cfg.IDAlgorithm)
	if err != nil {
		return nil, err
	}
	cfg.IDAlgorithm = h.Algorithm()
	if obs == nil {
		obs = NopObserver{}
	}
	return &Pipeline{cfg: cfg, hasher: h, obs: obs}, nil
}

// Config returns effective configuration with defaults applied.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// State returns current state, it is safe to call concurrently with Run.
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

// Run streams all frames of src into sink and returns number of written
// records. Context is checked between frames. Run closes neither src nor
// sink.
func (p *Pipeline) Run(ctx context.Context, src Source, sink archive.Writer) (uint64, error) {
	if !p.state.CompareAndSwap(int32(Idle), int32(Streaming)) {
		return 0, ErrAlreadyRun
	}
	p.obs.OnStart(p.cfg)

	n, err := p.stream(ctx, src, sink)
	if err != nil {
		p.state.Store(int32(Failed))
	} else {
		p.state.Store(int32(Complete))
	}
	p.obs.OnDone(n, err)
	return n, err
}

func (p *Pipeline) stream(ctx context.Context, src Source, sink archive.Writer) (uint64, error) {
	var (
		written  uint64
		last     uint64
		interval = p.cfg.progressInterval()
		next     = p.cfg.Window().Start
	)
	for {
		if err := ctx.Err(); err != nil {
			return written, &RunError{Stage: StageCancel, Index: next, Err: err}
		}

		f, err := src.Next()
		if errors.Is(err, io.EOF) {
			return written, nil
		}
		if err != nil {
			idx := next
			// Decoder killed by cancellation reports the context error.
			if cerr := ctx.Err(); cerr != nil && errors.Is(err, cerr) {
				return written, &RunError{Stage: StageCancel, Index: idx, Err: err}
			}
			var decErr *video.DecodeError
			if errors.As(err, &decErr) {
				idx = decErr.Index
			}
			return written, &RunError{Stage: StageDecode, Index: idx, Err: err}
		}
		if written > 0 && f.Index <= last {
			return written, &RunError{
				Stage: StageDecode,
				Index: f.Index,
				Err:   fmt.Errorf("frame index %d does not follow %d", f.Index, last),
			}
		}

		begin := time.Now()
		ef, err := encoding.Encode(f, p.cfg.Mode)
		if err != nil {
			return written, &RunError{Stage: StageEncode, Index: f.Index, Err: err}
		}
		contentID := p.hasher.Digest(f.Pix)
		encodedID := contentID
		if ef.Mode != encoding.Raw {
			encodedID = p.hasher.Digest(ef.Payload)
		}
		rec := archive.Record{
			Name:  archive.RecordName(f.Index),
			Shape: ef.Shape,
			Data:  ef.Payload,
			Attrs: archive.Attributes{
				OriginalIdx: int64(f.Index),
				Encoding:    ef.Mode.String(),
				ContentID:   contentID,
				EncodedID:   encodedID,
			},
		}
		encodeTime := time.Since(begin)

		if err := sink.Write(rec); err != nil {
			return written, &RunError{Stage: StageWrite, Index: f.Index, Err: err}
		}
		written++
		last = f.Index
		next = f.Index + 1

		p.obs.OnFrame(FrameEvent{
			Index:       f.Index,
			Name:        rec.Name,
			Mode:        ef.Mode,
			ContentID:   contentID,
			EncodedID:   encodedID,
			PayloadSize: len(ef.Payload),
			EncodeTime:  encodeTime,
		})
		if written%interval == 0 {
			p.obs.OnProgress(written)
		}
	}
}

// Opener opens frame source of videoPath restricted to window.
type Opener func(ctx context.Context, videoPath string, win video.Window) (Source, error)

// Creator creates archive at outputPath.
type Creator func(outputPath string) (archive.Writer, error)

// Convert performs a complete run: input is opened first so that open errors
// surface before output exists, then output is created and frames streamed.
// Both ends are closed on every path, a close failure is reported when run
// itself succeeded.
func Convert(
	ctx context.Context,
	open Opener,
	create Creator,
	videoPath, outputPath string,
	cfg Config,
	obs Observer,
) (n uint64, err error) {
	p, err := New(cfg, obs)
	if err != nil {
		return 0, err
	}

	src, err := open(ctx, videoPath, p.cfg.Window())
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := src.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	sink, err := create(outputPath)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return p.Run(ctx, src, sink)
}
