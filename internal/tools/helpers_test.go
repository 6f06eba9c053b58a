// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Reusable helpers and fixtures for tests.
package tools

import (
	"fmt"
	"os"
	"os/exec"
	"path"
	"testing"
)

// fixTestClipFrames is number of frames in clip made by fixTestClip.
const fixTestClipFrames = 10

// fixFfmpegTools fixture returns ffmpeg and ffprobe paths or skips the test.
func fixFfmpegTools(t *testing.T) (ffmpeg, ffprobe string) {
	t.Helper()
	ffmpeg, err := FfmpegPath()
	if err != nil {
		t.Skipf("ffmpeg not available: %v", err)
	}
	ffprobe, err = FfprobePath()
	if err != nil {
		t.Skipf("ffprobe not available: %v", err)
	}
	return ffmpeg, ffprobe
}

// fixTestClip fixture creates a short lossless clip from ffmpeg's testsrc.
func fixTestClip(t *testing.T) string {
	t.Helper()
	ffmpeg, _ := fixFfmpegTools(t)
	clip := path.Join(t.TempDir(), "testsrc 01.mkv")
	cmd := exec.Command(ffmpeg,
		"-hide_banner", "-loglevel", "error",
		"-f", "lavfi", "-i", "testsrc=size=64x48:rate=10",
		"-frames:v", "10",
		"-c:v", "ffv1",
		"-y", clip,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("Unable to create test clip: %v\n%s", err, out)
	}
	return clip
}

// fixFailingFfmpeg fixture creates fake ffmpeg that complains on stderr and fails.
func fixFailingFfmpeg(t *testing.T) string {
	t.Helper()
	fake := path.Join(t.TempDir(), "ffmpeg")
	script := []byte("#!/bin/sh\necho 'Invalid data found when processing input' >&2\nexit 1\n")
	if err := os.WriteFile(fake, script, 0o755); err != nil {
		t.Fatalf("Unable to create fake ffmpeg: %v", err)
	}
	return fake
}

// runTool runs external tool and includes its output in returned error.
func runTool(name string, args ...string) error {
	out, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w\n%s", name, err, out)
	}
	return nil
}
