// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// av2hdf5 command implementation.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/evolution-gaming/av2hdf5/internal/analysis"
	"github.com/evolution-gaming/av2hdf5/internal/archive"
	"github.com/evolution-gaming/av2hdf5/internal/archive/h5"
	"github.com/evolution-gaming/av2hdf5/internal/encoding"
	"github.com/evolution-gaming/av2hdf5/internal/hashid"
	"github.com/evolution-gaming/av2hdf5/internal/logging"
	"github.com/evolution-gaming/av2hdf5/internal/metric"
	"github.com/evolution-gaming/av2hdf5/internal/pipeline"
	"github.com/evolution-gaming/av2hdf5/internal/tools"
	"github.com/evolution-gaming/av2hdf5/internal/video"
)

const usageText = `av2hdf5 - extract frames from video into HDF5 formatted files

Usage:

    av2hdf5 [options] <video> <output>
    av2hdf5 -h|--help

The <video> argument specifies a file containing an ffmpeg compatible video to
extract frames from. The <output> argument specifies an HDF5 file to write
output to. If <output> already exists, it will be overwritten.

Every frame is stored as dataset "frameNNNNN" with attributes original_idx,
encoding, content_id and encoded_id. Options may be given before or after
positional arguments.

Options:
`

// CreateApp will create instance of App writing regular output to stdout and
// diagnostics to stderr.
func CreateApp(stdout, stderr io.Writer) *App {
	app := &App{
		fs:     flag.NewFlagSet("av2hdf5", flag.ContinueOnError),
		gf:     globalFlags{},
		stdout: stdout,
		stderr: stderr,
		mStore: metric.NewStore(),
	}
	app.gf.Register(app.fs)
	app.fs.Var(&app.flStart, "start", "Index of first frame to extract (optional, default 0)")
	app.fs.Var(&app.flDuration, "duration", "Maximum number of frames to extract (optional, default all)")
	app.fs.BoolVar(&app.flRaw, "raw", false, "Store raw RGB24 pixels (default)")
	app.fs.BoolVar(&app.flJPEG, "jpeg", false, "Store frames JPEG compressed")
	app.fs.BoolVar(&app.flPNG, "png", false, "Store frames PNG compressed")
	app.fs.StringVar(&app.flReport, "report", "", "Write per frame CSV report to file (optional)")
	app.fs.StringVar(&app.flSizePlot, "size-plot", "", "Write payload size plot PNG to file (optional)")
	app.fs.BoolVar(&app.flProgress, "progress", false, "Show progress bar (optional)")
	app.fs.SetOutput(stderr)
	// Usage is printed explicitly to the right stream.
	app.fs.Usage = func() {}

	return app
}

// App is application context of av2hdf5 command.
type App struct {
	// FlagSet instance
	fs *flag.FlagSet
	// Global flags
	gf globalFlags

	stdout io.Writer
	stderr io.Writer

	flStart    optionalUint64
	flDuration optionalUint64
	flRaw      bool
	flJPEG     bool
	flPNG      bool
	flReport   string
	flSizePlot string
	flProgress bool

	// Per frame metric store, filled only for -report and -size-plot
	mStore *metric.Store
}

// printUsage writes usage text and flag defaults to w.
func (a *App) printUsage(w io.Writer) {
	fmt.Fprint(w, usageText)
	a.fs.SetOutput(w)
	a.fs.PrintDefaults()
	a.fs.SetOutput(a.stderr)
}

// mode resolves mutually exclusive encoding flags.
func (a *App) mode() (encoding.Mode, error) {
	var modes []encoding.Mode
	if a.flRaw {
		modes = append(modes, encoding.Raw)
	}
	if a.flJPEG {
		modes = append(modes, encoding.JPEG)
	}
	if a.flPNG {
		modes = append(modes, encoding.PNG)
	}
	switch len(modes) {
	case 0:
		return encoding.Raw, nil
	case 1:
		return modes[0], nil
	default:
		return encoding.Raw, errors.New("options -raw, -jpeg and -png are mutually exclusive")
	}
}

// Run is main entry point into App execution.
func (a *App) Run(ctx context.Context, args []string) error {
	positional, err := parseInterspersed(a.fs, args)
	if errors.Is(err, flag.ErrHelp) {
		a.printUsage(a.stdout)
		return nil
	}
	if err != nil {
		a.printUsage(a.stderr)
		return &AppError{exitCode: 2, msg: fmt.Sprintf("usage error: %s", err)}
	}

	if a.gf.Verbose {
		logging.EnableDebugLogger()
	}
	if a.gf.Version {
		printVersion(a.stdout)
		return nil
	}
	if a.gf.DumpConf {
		return a.dumpConf()
	}

	if len(positional) != 2 {
		a.printUsage(a.stderr)
		return &AppError{
			exitCode: 2,
			msg:      fmt.Sprintf("usage error: expected <video> and <output> arguments, got %d", len(positional)),
		}
	}
	mode, err := a.mode()
	if err != nil {
		a.printUsage(a.stderr)
		return &AppError{exitCode: 2, msg: fmt.Sprintf("usage error: %s", err)}
	}

	logging.Infof("av2hdf5 version: %s", vInfo)
	cfg, err := LoadConfig(a.gf.ConfFile)
	if err != nil {
		return &AppError{exitCode: 1, msg: err.Error()}
	}
	if logging.DebugEnabled() {
		if b, err := json.Marshal(cfg); err == nil {
			logging.Debugf("Application configuration: %s", b)
		}
	}
	if err := cfg.Verify(); err != nil {
		return &AppError{exitCode: 1, msg: fmt.Sprintf("configuration validation: %s", err)}
	}

	alg, err := hashid.ParseAlgorithm(cfg.IDAlgorithm.Value())
	if err != nil {
		return &AppError{exitCode: 1, msg: err.Error()}
	}
	pcfg := pipeline.Config{
		Start:            a.flStart.Value(),
		Duration:         a.flDuration.Value(),
		Mode:             mode,
		IDAlgorithm:      alg,
		ProgressInterval: cfg.ProgressInterval.Value(),
	}

	return a.convert(ctx, &cfg, pcfg, positional[0], positional[1])
}

// convert runs extraction and writes optional report artifacts.
func (a *App) convert(ctx context.Context, cfg *Config, pcfg pipeline.Config, videoPath, outputPath string) error {
	var store *metric.Store
	if a.flReport != "" || a.flSizePlot != "" {
		store = a.mStore
	}
	obs := newCLIObserver(store)

	open := func(ctx context.Context, videoPath string, win video.Window) (pipeline.Source, error) {
		logging.Infof("Opening input: %s", videoPath)
		src, err := tools.OpenVideo(ctx, cfg.decoderConfig(), videoPath, win)
		if err != nil {
			return nil, err
		}
		meta := src.Metadata()
		logging.Infof("Video stream: codec=%s size=%dx%d rate=%s", meta.CodecName, meta.Width, meta.Height, meta.FrameRate)
		if a.flProgress {
			obs.bar = newProgressBar(a.stderr, expectedFrames(meta, win))
		}
		return src, nil
	}
	create := func(outputPath string) (archive.Writer, error) {
		logging.Infof("Opening output: %s", outputPath)
		w, err := h5.Create(outputPath, h5.Options{DeflateLevel: cfg.DeflateLevel.Value()})
		if err != nil {
			return nil, err
		}
		return w, nil
	}

	n, runErr := pipeline.Convert(ctx, open, create, videoPath, outputPath, pcfg, obs)
	artifactErr := a.saveArtifacts(videoPath)

	if runErr != nil {
		return runAppError(runErr)
	}
	if artifactErr != nil {
		return &AppError{exitCode: 1, msg: artifactErr.Error()}
	}
	logging.Infof("Wrote %d record(s) to %s", n, outputPath)
	return nil
}

// saveArtifacts writes report and plot files if requested. Records collected
// before a failure are still reported.
func (a *App) saveArtifacts(videoPath string) error {
	var errs []error
	if a.flReport != "" {
		if err := a.saveReport(); err != nil {
			errs = append(errs, err)
		} else {
			logging.Infof("Report written: %s", a.flReport)
		}
	}
	if a.flSizePlot != "" {
		if err := a.savePlot(videoPath); err != nil {
			errs = append(errs, err)
		} else {
			logging.Infof("Payload size plot done: %s", a.flSizePlot)
		}
	}
	return errors.Join(errs...)
}

// saveReport writes recorded metrics to report file.
func (a *App) saveReport() (err error) {
	reportOut, err := os.Create(a.flReport)
	if err != nil {
		return fmt.Errorf("creating CSV report file: %w", err)
	}
	defer func() {
		if cerr := reportOut.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing CSV report file: %w", cerr)
		}
	}()

	if err := a.mStore.WriteCSV(reportOut); err != nil {
		return fmt.Errorf("writing CSV report: %w", err)
	}
	return nil
}

// savePlot renders payload size plot of recorded frames.
func (a *App) savePlot(videoPath string) error {
	records := a.mStore.Records()
	if len(records) == 0 {
		logging.Info("No frames written, skipping payload size plot")
		return nil
	}
	sizes := make([]analysis.FrameSize, len(records))
	for i, r := range records {
		sizes[i] = analysis.FrameSize{Index: r.OriginalIdx, Bytes: r.PayloadSize}
	}
	title := fmt.Sprintf("%s (%s)", filepath.Base(videoPath), records[0].Encoding)
	if err := analysis.MultiPlotFrameSize(sizes, title, a.flSizePlot); err != nil {
		return fmt.Errorf("creating payload size plot: %w", err)
	}
	return nil
}

// dumpConf prints actual application configuration as JSON.
func (a *App) dumpConf() error {
	cfg, err := LoadConfig(a.gf.ConfFile)
	if err != nil {
		return &AppError{exitCode: 1, msg: err.Error()}
	}

	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cfg); err != nil {
		return &AppError{exitCode: 1, msg: err.Error()}
	}

	// Also, report if configuration is valid.
	if err := cfg.Verify(); err != nil {
		return &AppError{exitCode: 1, msg: fmt.Sprintf("configuration validation: %s", err)}
	}
	return nil
}

// runAppError converts extraction failure into AppError.
func runAppError(err error) *AppError {
	if errors.Is(err, context.Canceled) {
		return &AppError{exitCode: 130, msg: fmt.Sprintf("interrupted: %s", err)}
	}

	kind := "extraction failed"
	var (
		openErr   *video.OpenError
		decodeErr *video.DecodeError
		encErr    *encoding.Error
		writeErr  *archive.WriteError
	)
	switch {
	case errors.As(err, &openErr), errors.Is(err, video.ErrNoVideoStream):
		kind = "input error"
	case errors.As(err, &decodeErr):
		kind = "decode error"
	case errors.As(err, &encErr):
		kind = "encoding error"
	case errors.As(err, &writeErr):
		kind = "output error"
	}
	return &AppError{exitCode: 1, msg: fmt.Sprintf("%s: %s", kind, err)}
}
