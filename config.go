// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Application configuration structures.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/evolution-gaming/av2hdf5/internal/archive/h5"
	"github.com/evolution-gaming/av2hdf5/internal/hashid"
	"github.com/evolution-gaming/av2hdf5/internal/logging"
	"github.com/evolution-gaming/av2hdf5/internal/pipeline"
	"github.com/evolution-gaming/av2hdf5/internal/tools"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config represent application configuration.
type Config struct {
	FfmpegPath           ConfigVal[string] `json:"ffmpeg_path,omitempty" yaml:"ffmpeg_path"`
	FfprobePath          ConfigVal[string] `json:"ffprobe_path,omitempty" yaml:"ffprobe_path"`
	FfmpegDecodeTemplate ConfigVal[string] `json:"ffmpeg_decode_template,omitempty" yaml:"ffmpeg_decode_template"`
	IDAlgorithm          ConfigVal[string] `json:"id_algorithm,omitempty" yaml:"id_algorithm"`
	ProgressInterval     ConfigVal[uint64] `json:"progress_interval,omitempty" yaml:"progress_interval"`
	DeflateLevel         ConfigVal[int]    `json:"deflate_level,omitempty" yaml:"deflate_level"`
}

// Verify will check that configuration is valid.
//
// Will check that configuration option values are sensible.
func (c *Config) Verify() error {
	msgs := []string{}
	// Check that ffmpeg exists.
	if !fileExists(c.FfmpegPath.Value()) {
		msgs = append(msgs, "invalid ffmpeg path")
	}
	// Check that ffprobe exists.
	if !fileExists(c.FfprobePath.Value()) {
		msgs = append(msgs, "invalid ffprobe path")
	}
	if err := tools.ParseDecodeTemplate(c.FfmpegDecodeTemplate.Value()); err != nil {
		msgs = append(msgs, fmt.Sprintf("invalid ffmpeg decode template: %s", err))
	}
	if _, err := hashid.ParseAlgorithm(c.IDAlgorithm.Value()); err != nil {
		msgs = append(msgs, err.Error())
	}
	if c.ProgressInterval.Value() == 0 {
		msgs = append(msgs, "progress interval should be positive")
	}
	if err := (h5.Options{DeflateLevel: c.DeflateLevel.Value()}).Validate(); err != nil {
		msgs = append(msgs, err.Error())
	}

	if len(msgs) != 0 {
		return fmt.Errorf("%s: %w", strings.Join(msgs, ", "), ErrInvalidConfig)
	}
	return nil
}

// OverrideFrom will overwrite fields from given Config object.
//
// Only fields that are "not-nil" (as per IsNil() method) in src Config object will be
// overwritten.
func (c *Config) OverrideFrom(src Config) {
	if !src.FfmpegPath.IsNil() {
		c.FfmpegPath = src.FfmpegPath
	}
	if !src.FfprobePath.IsNil() {
		c.FfprobePath = src.FfprobePath
	}
	if !src.FfmpegDecodeTemplate.IsNil() {
		c.FfmpegDecodeTemplate = src.FfmpegDecodeTemplate
	}
	if !src.IDAlgorithm.IsNil() {
		c.IDAlgorithm = src.IDAlgorithm
	}
	if !src.ProgressInterval.IsNil() {
		c.ProgressInterval = src.ProgressInterval
	}
	if !src.DeflateLevel.IsNil() {
		c.DeflateLevel = src.DeflateLevel
	}
}

// decoderConfig returns ffmpeg decoder configuration.
func (c *Config) decoderConfig() tools.DecoderConfig {
	return tools.DecoderConfig{
		FfmpegPath:           c.FfmpegPath.Value(),
		FfprobePath:          c.FfprobePath.Value(),
		FfmpegDecodeTemplate: c.FfmpegDecodeTemplate.Value(),
	}
}

// loadDefaultConfig will create a default configuration.
//
// For some configuration options a default value will be specified, for others an
// auto-detection mechanism will populate option values. Tools missing from $PATH are
// left empty, they may still come from configuration file and Verify reports them
// otherwise.
func loadDefaultConfig() Config {
	// For default configuration attempt to locate ffmpeg binary.
	ffmpeg, err := tools.FfmpegPath()
	if err != nil {
		logging.Debugf("DefaultConfig: %s", err)
	}

	// For default configuration attempt to locate ffprobe binary.
	ffprobe, err := tools.FfprobePath()
	if err != nil {
		logging.Debugf("DefaultConfig: %s", err)
	}

	return Config{
		FfmpegPath:           NewConfigVal(ffmpeg),
		FfprobePath:          NewConfigVal(ffprobe),
		FfmpegDecodeTemplate: NewConfigVal(tools.DefaultFfmpegDecodeTemplate),
		IDAlgorithm:          NewConfigVal(string(hashid.DefaultAlgorithm)),
		ProgressInterval:     NewConfigVal(uint64(pipeline.DefaultProgressInterval)),
		DeflateLevel:         NewConfigVal(0),
	}
}

// loadConfigFromFile will load configuration from file.
//
// JSON and YAML are supported, format is selected by file extension.
func loadConfigFromFile(f string) (cfg Config, err error) {
	fileExt := strings.ToLower(filepath.Ext(f))
	switch fileExt {
	case ".json":
		return loadJSON(f)
	case ".yaml", ".yml":
		return loadYAML(f)
	default:
		return cfg, fmt.Errorf("unknown config format: %s", fileExt)
	}
}

// LoadConfig will return merged default config and config from file. This is main
// function to use for config loading. Configuration file is optional e.g. can be "".
func LoadConfig(configFile string) (cfg Config, err error) {
	// Initialize default configuration.
	cfg = loadDefaultConfig()

	// Load configuration from file and override default configuration options.
	if configFile != "" {
		c, err := loadConfigFromFile(configFile)
		if err != nil {
			return cfg, err
		}
		// Configuration file can specify full set or partial set of configuration
		// options. So we only want to override those options that have been specified in
		// config file, rest will remain as per default config.
		cfg.OverrideFrom(c)
	}

	return cfg, nil
}

func loadJSON(f string) (cfg Config, err error) {
	b, err := os.ReadFile(f)
	if err != nil {
		return cfg, fmt.Errorf("config from JSON file: %w", err)
	}

	if len(b) == 0 {
		return cfg, fmt.Errorf("JSON file is empty: %w", ErrInvalidConfig)
	}

	if err = json.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("config from JSON document: %w", err)
	}

	return cfg, nil
}

func loadYAML(f string) (cfg Config, err error) {
	b, err := os.ReadFile(f)
	if err != nil {
		return cfg, fmt.Errorf("config from YAML file: %w", err)
	}

	if len(b) == 0 {
		return cfg, fmt.Errorf("YAML file is empty: %w", ErrInvalidConfig)
	}

	if err = yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("config from YAML document: %w", err)
	}

	return cfg, nil
}

// fileExists reports whether path names an existing regular file.
func fileExists(path string) bool {
	fi, err := os.Stat(path)
	if err != nil {
		return false
	}
	return fi.Mode().IsRegular()
}

// In order to support Config overriding we have to implement wrapper type for Config
// fields. Otherwise it is hard to distinguish skipped fields, for instance when loading
// partial configuration from file: in that case it would be impossible to  distinguish
// between say string fields zero value and empty string values as explicitly specified in
// configuration file.

// NewConfigVal is constructor for ConfigVal. It will wrap its argument into ConfigVal.
func NewConfigVal[T any](v T) ConfigVal[T] {
	return ConfigVal[T]{v: &v}
}

// ConfigVal is a wrapper for Config field value.
type ConfigVal[T any] struct {
	// Store wrapped value as pointer in order to have ability to distinguish between
	// unspecified ConfigVal and a value that is the same as zero value for wrapped type.
	v *T
}

// Value will return wrapped value.
//
// In case field has not been defined e.g. is zero value, then appropriate zero value of
// wrapped type will be returned.
func (o *ConfigVal[T]) Value() T {
	if o.IsNil() {
		var v T
		return v
	}
	return *o.v
}

// IsNil check if wrapped value is nil.
func (o *ConfigVal[T]) IsNil() bool {
	return o.v == nil
}

// UnmarshalJSON implements json.Unmarshaler interface for ConfigVal.
func (o *ConfigVal[T]) UnmarshalJSON(b []byte) error {
	var val T
	err := json.Unmarshal(b, &val)
	if err != nil {
		return err
	}
	o.v = &val
	return nil
}

// MarshalJSON implements json.Marshaler interface for ConfigVal.
func (o ConfigVal[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Value())
}

// UnmarshalYAML implements yaml.Unmarshaler interface for ConfigVal.
func (o *ConfigVal[T]) UnmarshalYAML(value *yaml.Node) error {
	var val T
	if err := value.Decode(&val); err != nil {
		return err
	}
	o.v = &val
	return nil
}
