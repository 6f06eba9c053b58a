// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Poor man's logging. Implements 2-level loggers for Info and Debug on top of
// standard library's "log" package. Both levels are silent until enabled.
package logging

import (
	"fmt"
	"io"
	"log"
	"sync/atomic"
)

var (
	defaultOutput io.Writer = log.Default().Writer()
	debugFlags              = log.Ldate | log.Ltime | log.Lshortfile
	infoFlags               = log.Ldate | log.Ltime
	// Each log-level logger should be explicitly enabled via call to Enable*Logger().
	DebugLogger = log.New(io.Discard, debugPrefix, debugFlags)
	InfoLogger  = log.New(io.Discard, infoPrefix, infoFlags)

	debugOn atomic.Bool
)

const (
	debugPrefix = "DEBUG: "
	infoPrefix  = "INFO: "
	calldepth   = 2
)

// SetOutput changes where enabled loggers write to. Loggers that have not been
// enabled stay silent.
func SetOutput(w io.Writer) {
	defaultOutput = w
	if InfoLogger.Writer() != io.Discard {
		InfoLogger.SetOutput(w)
	}
	if debugOn.Load() {
		DebugLogger.SetOutput(w)
	}
}

// EnableInfoLogger helper function to explicitly enable InfoLogger.
func EnableInfoLogger() {
	InfoLogger.SetOutput(defaultOutput)
}

// EnableDebugLogger helper function to explicitly enable DebugLogger.
func EnableDebugLogger() {
	debugOn.Store(true)
	DebugLogger.SetOutput(defaultOutput)
}

// DebugEnabled reports whether debug messages are written anywhere. Useful to
// skip building expensive messages on hot paths.
func DebugEnabled() bool {
	return debugOn.Load()
}

func Info(v ...interface{}) {
	InfoLogger.Output(calldepth, fmt.Sprint(v...))
}

func Infof(format string, v ...interface{}) {
	InfoLogger.Output(calldepth, fmt.Sprintf(format, v...))
}

func Debug(v ...interface{}) {
	DebugLogger.Output(calldepth, fmt.Sprint(v...))
}

func Debugf(format string, v ...interface{}) {
	DebugLogger.Output(calldepth, fmt.Sprintf(format, v...))
}
