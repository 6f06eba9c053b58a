// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"fmt"
	"strings"

	"github.com/evolution-gaming/av2hdf5/internal/encoding"
	"github.com/evolution-gaming/av2hdf5/internal/hashid"
	"github.com/evolution-gaming/av2hdf5/internal/video"
)

// DefaultProgressInterval is number of frames between progress reports.
const DefaultProgressInterval = 100

// ConfigError error type defines Config validation failures.
type ConfigError struct {
	msg     string
	reasons []string
}

func (e *ConfigError) Error() string {
	if len(e.reasons) > 0 {
		return fmt.Sprintf("%s with reasons:\n%s", e.msg, strings.Join(e.reasons, "\n"))
	}
	return e.msg
}

func (e *ConfigError) Reasons() []string {
	return e.reasons
}

func (e *ConfigError) addReason(reason string) {
	e.reasons = append(e.reasons, reason)
}

// Config holds parameters of a single extraction run.
type Config struct {
	// Start is index of first frame to extract, nil means 0.
	Start *uint64
	// Duration is maximum number of frames to extract, nil means all.
	Duration *uint64
	Mode     encoding.Mode
	// IDAlgorithm used for content_id and encoded_id, empty means hashid.DefaultAlgorithm.
	IDAlgorithm hashid.Algorithm
	// ProgressInterval is number of frames between progress reports, zero
	// means DefaultProgressInterval.
	ProgressInterval uint64
}

// Validate checks Config, returned error is *ConfigError listing all problems.
func (c Config) Validate() error {
	errConfig := &ConfigError{msg: "pipeline configuration error"}

	if !c.Mode.Valid() {
		errConfig.addReason(fmt.Sprintf("unsupported encoding mode %s", c.Mode))
	}
	if _, err := hashid.New(c.IDAlgorithm); err != nil {
		errConfig.addReason(err.Error())
	}

	if len(errConfig.reasons) != 0 {
		return errConfig
	}
	return nil
}

// Window returns frame window selected by Start and Duration.
func (c Config) Window() video.Window {
	var w video.Window
	if c.Start != nil {
		w.Start = *c.Start
	}
	w.Duration = c.Duration
	return w
}

func (c Config) progressInterval() uint64 {
	if c.ProgressInterval == 0 {
		return DefaultProgressInterval
	}
	return c.ProgressInterval
}
