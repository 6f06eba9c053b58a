// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Application Config related tests.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/evolution-gaming/av2hdf5/internal/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_loadDefaultConfig(t *testing.T) {
	fixFfmpegTools(t)
	c := loadDefaultConfig()

	assert.NoError(t, c.Verify(), "DefaultConfig should be valid")
	assert.Equal(t, "sha1", c.IDAlgorithm.Value())
	assert.Equal(t, uint64(100), c.ProgressInterval.Value())
	assert.Equal(t, tools.DefaultFfmpegDecodeTemplate, c.FfmpegDecodeTemplate.Value())
}

func Test_loadDefaultConfig_ToolsNotOnPath(t *testing.T) {
	// Messing up PATH should result in failure detecting ffmpeg and ffprobe which
	// leaves tool paths empty and configuration invalid.
	t.Setenv("PATH", "")
	c := loadDefaultConfig()
	assert.Empty(t, c.FfmpegPath.Value())
	assert.Empty(t, c.FfprobePath.Value())

	err := c.Verify()
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorContains(t, err, "invalid ffmpeg path")
	assert.ErrorContains(t, err, "invalid ffprobe path")
}

func Test_LoadConfig_ToolsFromFileWhenNotOnPath(t *testing.T) {
	ffmpeg := fixFfmpegTools(t)
	ffprobe, err := tools.FfprobePath()
	require.NoError(t, err)
	confFile := fixConfFile(t, "config.yaml",
		"ffmpeg_path: "+ffmpeg+"\nffprobe_path: "+ffprobe+"\n")
	t.Setenv("PATH", "")

	c, err := LoadConfig(confFile)
	require.NoError(t, err)
	assert.Equal(t, ffmpeg, c.FfmpegPath.Value())
	assert.Equal(t, ffprobe, c.FfprobePath.Value())
	assert.NoError(t, c.Verify())
}

func Test_loadConfigFile(t *testing.T) {
	// For this case we do not strictly need config that is valid as per Config.Verify(),
	// just verify that loading configuration from file works.
	tests := map[string]struct {
		want     Config
		fileName string
		given    string
	}{
		"Full JSON": {
			fileName: "config.json",
			given: `{
				"ffmpeg_path": "test_ffmpeg",
				"ffprobe_path": "test_ffprobe",
				"ffmpeg_decode_template": "test template",
				"id_algorithm": "sha256",
				"progress_interval": 10,
				"deflate_level": 4
			}`,
			want: Config{
				FfmpegPath:           NewConfigVal("test_ffmpeg"),
				FfprobePath:          NewConfigVal("test_ffprobe"),
				FfmpegDecodeTemplate: NewConfigVal("test template"),
				IDAlgorithm:          NewConfigVal("sha256"),
				ProgressInterval:     NewConfigVal(uint64(10)),
				DeflateLevel:         NewConfigVal(4),
			},
		},
		"Partial JSON": {
			fileName: "config.json",
			given:    `{"ffmpeg_path": "test_ffmpeg", "deflate_level": 0}`,
			want: Config{
				FfmpegPath:   NewConfigVal("test_ffmpeg"),
				DeflateLevel: NewConfigVal(0),
			},
		},
		"Empty JSON": {
			fileName: "config.json",
			given:    `{}`,
			want:     Config{},
		},
		"Full YAML": {
			fileName: "config.yaml",
			given: "ffmpeg_path: test_ffmpeg\n" +
				"ffprobe_path: test_ffprobe\n" +
				"ffmpeg_decode_template: test template\n" +
				"id_algorithm: sha256\n" +
				"progress_interval: 10\n" +
				"deflate_level: 4\n",
			want: Config{
				FfmpegPath:           NewConfigVal("test_ffmpeg"),
				FfprobePath:          NewConfigVal("test_ffprobe"),
				FfmpegDecodeTemplate: NewConfigVal("test template"),
				IDAlgorithm:          NewConfigVal("sha256"),
				ProgressInterval:     NewConfigVal(uint64(10)),
				DeflateLevel:         NewConfigVal(4),
			},
		},
		"Partial YML": {
			fileName: "config.yml",
			given:    "id_algorithm: sha256\n",
			want: Config{
				IDAlgorithm: NewConfigVal("sha256"),
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			confFile := fixConfFile(t, tt.fileName, tt.given)

			// Load config and assert contents are as expected.
			got, err := loadConfigFromFile(confFile)
			assert.NoError(t, err, "Should be no error loading configuration from file")

			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_loadConfigFile_Negative(t *testing.T) {
	tests := map[string]struct {
		fileName string
		given    string
		wantErr  string
	}{
		"Unknown extension": {fileName: "config.toml", given: "a = 1", wantErr: "unknown config format"},
		"Empty JSON file":   {fileName: "config.json", given: "", wantErr: "JSON file is empty"},
		"Empty YAML file":   {fileName: "config.yaml", given: "", wantErr: "YAML file is empty"},
		"Malformed JSON":    {fileName: "config.json", given: "{", wantErr: "config from JSON document"},
		"Malformed YAML":    {fileName: "config.yaml", given: "id_algorithm: [", wantErr: "config from YAML document"},
		"Wrong value type":  {fileName: "config.json", given: `{"progress_interval": "x"}`, wantErr: "config from JSON document"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			confFile := fixConfFile(t, tt.fileName, tt.given)
			_, err := loadConfigFromFile(confFile)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func Test_Config_OverrideFrom(t *testing.T) {
	fixBaseConf := func() Config {
		return Config{
			FfmpegPath:           NewConfigVal("base_ffmpeg"),
			FfprobePath:          NewConfigVal("base_ffprobe"),
			FfmpegDecodeTemplate: NewConfigVal("base template"),
			IDAlgorithm:          NewConfigVal("sha1"),
			ProgressInterval:     NewConfigVal(uint64(100)),
			DeflateLevel:         NewConfigVal(0),
		}
	}

	tests := map[string]struct {
		want        Config
		overrideSrc Config
	}{
		"Full config overrides all fields": {
			overrideSrc: Config{
				FfmpegPath:           NewConfigVal("test_ffmpeg"),
				FfprobePath:          NewConfigVal("test_ffprobe"),
				FfmpegDecodeTemplate: NewConfigVal("test template"),
				IDAlgorithm:          NewConfigVal("sha256"),
				ProgressInterval:     NewConfigVal(uint64(1)),
				DeflateLevel:         NewConfigVal(9),
			},
			want: Config{
				FfmpegPath:           NewConfigVal("test_ffmpeg"),
				FfprobePath:          NewConfigVal("test_ffprobe"),
				FfmpegDecodeTemplate: NewConfigVal("test template"),
				IDAlgorithm:          NewConfigVal("sha256"),
				ProgressInterval:     NewConfigVal(uint64(1)),
				DeflateLevel:         NewConfigVal(9),
			},
		},
		"Partial config overrides partial fields": {
			overrideSrc: Config{
				FfmpegPath:   NewConfigVal("test_ffmpeg"),
				DeflateLevel: NewConfigVal(6),
			},
			want: Config{
				// Overridden fields.
				FfmpegPath:   NewConfigVal("test_ffmpeg"),
				DeflateLevel: NewConfigVal(6),
				// Unmodified fields.
				FfprobePath:          NewConfigVal("base_ffprobe"),
				FfmpegDecodeTemplate: NewConfigVal("base template"),
				IDAlgorithm:          NewConfigVal("sha1"),
				ProgressInterval:     NewConfigVal(uint64(100)),
			},
		},
		"Empty config does not override any fields": {
			overrideSrc: Config{},
			want:        fixBaseConf(),
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			// Create a base Config object. This is the Config that we shall attempt to
			// override.
			given := fixBaseConf()

			// Attempt to override config from overrideSrc.
			given.OverrideFrom(tt.overrideSrc)

			assert.Equal(t, tt.want, given)
		})
	}
}

func Test_Config_Verify_Negative(t *testing.T) {
	fixFfmpegTools(t)

	tests := map[string]struct {
		override Config
		wantErr  string
	}{
		"Missing ffmpeg": {
			override: Config{FfmpegPath: NewConfigVal("/nonexistent/ffmpeg")},
			wantErr:  "invalid ffmpeg path",
		},
		"Missing ffprobe": {
			override: Config{FfprobePath: NewConfigVal("/nonexistent/ffprobe")},
			wantErr:  "invalid ffprobe path",
		},
		"Broken template": {
			override: Config{FfmpegDecodeTemplate: NewConfigVal("{{.Input")},
			wantErr:  "invalid ffmpeg decode template",
		},
		"Unknown algorithm": {
			override: Config{IDAlgorithm: NewConfigVal("md5")},
			wantErr:  "md5",
		},
		"Zero progress interval": {
			override: Config{ProgressInterval: NewConfigVal(uint64(0))},
			wantErr:  "progress interval should be positive",
		},
		"Deflate level out of range": {
			override: Config{DeflateLevel: NewConfigVal(10)},
			wantErr:  "deflate",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := loadDefaultConfig()
			cfg.OverrideFrom(tt.override)

			err := cfg.Verify()
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func Test_ConfigVal_ExplicitZero(t *testing.T) {
	var got Config
	require.NoError(t, json.Unmarshal([]byte(`{"deflate_level": 0}`), &got))
	assert.False(t, got.DeflateLevel.IsNil(), "explicit zero should be kept")
	assert.True(t, got.IDAlgorithm.IsNil())
}

func Test_DumpConf(t *testing.T) {
	fixFfmpegTools(t)
	stdout := &bytes.Buffer{}
	// This is one option we try to make sure is in dumped config file.
	want := `"id_algorithm": "sha256"`
	confFile := fixConfFile(t, "config.json", "{"+want+"}")

	app := CreateApp(stdout, &bytes.Buffer{})
	err := app.Run(context.Background(), []string{"-dump-conf", "-conf", confFile})
	assert.NoError(t, err, "Unexpected error dumping configuration")
	// Check that config dump contains options we specified in config file.
	assert.Contains(t, stdout.String(), want)
	assert.Contains(t, stdout.String(), `"progress_interval": 100`)
}

func Test_DumpConf_Invalid(t *testing.T) {
	fixFfmpegTools(t)
	stdout := &bytes.Buffer{}
	confFile := fixConfFile(t, "config.yaml", "progress_interval: 0\n")

	err := CreateApp(stdout, &bytes.Buffer{}).Run(context.Background(), []string{"-dump-conf", "-conf", confFile})

	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 1, appErr.ExitCode())
	assert.Contains(t, stdout.String(), `"progress_interval": 0`, "config should still be printed")
}
