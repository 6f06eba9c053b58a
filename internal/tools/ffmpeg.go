// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Ffmpeg family related tools.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strings"

	"github.com/evolution-gaming/av2hdf5/internal/logging"
	"github.com/evolution-gaming/av2hdf5/internal/video"
)

var (
	ffprobeCmd = "ffprobe"
	ffmpegCmd  = "ffmpeg"
)

// FfmpegPath will return path to ffmpeg binary and error if path is not found.
func FfmpegPath() (string, error) {
	// Look for executable in $PATH.
	p, err := exec.LookPath(ffmpegCmd)
	if err != nil {
		return "", fmt.Errorf("ffmpeg not found: %w", err)
	}
	return p, nil
}

// FfprobePath will return path to ffprobe binary and error if path is not found.
func FfprobePath() (string, error) {
	p, err := exec.LookPath(ffprobeCmd)
	if err != nil {
		return "", fmt.Errorf("ffprobe not found: %w", err)
	}
	return p, nil
}

// ProbeVideo will query metadata of the first video stream in videoFile via ffprobe.
//
// Failure to open or demultiplex the file results in *video.OpenError, a file
// without video stream results in error wrapping video.ErrNoVideoStream.
func ProbeVideo(ctx context.Context, ffprobePath, videoFile string) (video.Metadata, error) {
	var vmeta video.Metadata

	if _, err := os.Stat(videoFile); err != nil {
		return vmeta, &video.OpenError{Path: videoFile, Err: err}
	}

	ffprobeArgs := []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-of", "json",
		"-show_format",
		"-show_streams",
		videoFile,
	}
	cmd := exec.CommandContext(ctx, ffprobePath, ffprobeArgs...)
	logging.Debugf("Running: %s", cmd)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			err = fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return vmeta, &video.OpenError{Path: videoFile, Err: err}
	}

	// Unmarshal metadata from both "streams" and "format" JSON objects.
	meta := &struct {
		Streams []video.Metadata
		Format  video.Metadata
	}{}
	if err := json.Unmarshal(out, &meta); err != nil {
		return vmeta, &video.OpenError{Path: videoFile, Err: fmt.Errorf("parsing ffprobe output: %w", err)}
	}
	if len(meta.Streams) == 0 {
		return vmeta, fmt.Errorf("%s: %w", videoFile, video.ErrNoVideoStream)
	}

	vmeta = meta.Streams[0]
	// For mkv container Streams does not contain duration, so we have to look into Format.
	vmeta.Duration = math.Max(vmeta.Duration, meta.Format.Duration)
	if vmeta.Width <= 0 || vmeta.Height <= 0 {
		return vmeta, &video.OpenError{
			Path: videoFile,
			Err:  fmt.Errorf("video stream has invalid frame size %dx%d", vmeta.Width, vmeta.Height),
		}
	}
	logging.Debugf("%s %+v", videoFile, vmeta)

	return vmeta, nil
}
