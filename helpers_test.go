// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Reusable helpers and fixtures for tests.
package main

import (
	"io/fs"
	"os"
	"os/exec"
	"path"
	"testing"

	"github.com/evolution-gaming/av2hdf5/internal/tools"
)

func ptr(v uint64) *uint64 { return &v }

// fixFfmpegTools fixture skips the test when ffmpeg or ffprobe is missing.
func fixFfmpegTools(t *testing.T) (ffmpeg string) {
	t.Helper()
	ffmpeg, err := tools.FfmpegPath()
	if err != nil {
		t.Skipf("ffmpeg not available: %v", err)
	}
	if _, err := tools.FfprobePath(); err != nil {
		t.Skipf("ffprobe not available: %v", err)
	}
	return ffmpeg
}

// fixTestClip fixture creates a 10 frame lossless clip from ffmpeg's testsrc.
func fixTestClip(t *testing.T) string {
	t.Helper()
	ffmpeg := fixFfmpegTools(t)
	clip := path.Join(t.TempDir(), "testsrc01.mkv")
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

// fixConfFile fixture writes configuration file with given name and contents.
func fixConfFile(t *testing.T, name, payload string) (fPath string) {
	t.Helper()
	fPath = path.Join(t.TempDir(), name)
	if err := os.WriteFile(fPath, []byte(payload), fs.FileMode(0o644)); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	return fPath
}

// fixCreateFakeFfmpegAndPutItOnPath fixture creates fake and failing ffmpeg
// and ffprobe on PATH.
func fixCreateFakeFfmpegAndPutItOnPath(t *testing.T) {
	t.Helper()
	fakePath := t.TempDir()
	t.Setenv("PATH", fakePath+":"+os.Getenv("PATH"))

	script := []byte("#!/bin/sh\necho \"$@\" >&2\nexit 1\n")
	for _, name := range []string{"ffmpeg", "ffprobe"} {
		if err := os.WriteFile(path.Join(fakePath, name), script, 0o755); err != nil {
			t.Fatalf("Unable to create fake %s: %v", name, err)
		}
	}
}
