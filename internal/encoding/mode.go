// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Frame encoding modes.
package encoding

import (
	"fmt"
	"strings"
)

// Mode selects how frame pixels are stored in archive.
type Mode int

const (
	// Raw stores pixel bytes as is.
	Raw Mode = iota
	// JPEG stores baseline JPEG at maximum quality.
	JPEG
	// PNG stores lossless PNG.
	PNG
)

var modeNames = map[Mode]string{
	Raw:  "raw",
	JPEG: "jpeg",
	PNG:  "png",
}

// Modes lists all supported modes.
var Modes = []Mode{Raw, JPEG, PNG}

// String returns the name recorded in "encoding" attribute.
func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Valid reports whether m is one of the supported modes.
func (m Mode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

// ParseMode converts mode name (case insensitive) to Mode.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if strings.EqualFold(s, name) {
			return m, nil
		}
	}
	return Raw, fmt.Errorf("unknown encoding mode %q", s)
}
