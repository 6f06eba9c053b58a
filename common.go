// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Reusable parts of av2hdf5 application.
package main

import (
	"flag"
	"fmt"
	"strconv"
)

// AppError a custom error returned from CLI application.
//
// AppError is handy error type envisioned to be used in CLI's main.
// ExitCode() should be used as argument for os.Exit().
type AppError struct {
	msg      string
	exitCode int
}

// Error implements error interface for AppError.
func (e *AppError) Error() string {
	return e.msg
}

// ExitCode returns CLI application's exit code.
func (e *AppError) ExitCode() int {
	return e.exitCode
}

// optionalUint64 is flag.Value for unsigned integer options where absence
// must be distinguishable from zero.
type optionalUint64 struct {
	v *uint64
}

func (o *optionalUint64) String() string {
	if o == nil || o.v == nil {
		return ""
	}
	return strconv.FormatUint(*o.v, 10)
}

func (o *optionalUint64) Set(s string) error {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("expected non-negative integer: %w", err)
	}
	o.v = &v
	return nil
}

// Value returns parsed value or nil if flag was not given.
func (o *optionalUint64) Value() *uint64 {
	return o.v
}

// parseInterspersed parses flags that may appear before, between and after
// positional arguments and returns positional arguments. Arguments following
// "--" are positional.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		if consumed := len(args) - len(rest); consumed > 0 && args[consumed-1] == "--" {
			return append(positional, rest...), nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}
