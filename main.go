// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Main entrypoint for av2hdf5 application

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/evolution-gaming/av2hdf5/internal/logging"
)

func main() {
	// Enable info logger by default and early enough.
	logging.EnableInfoLogger()

	// Interrupt stops extraction between frames, output stays consistent.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := CreateApp(os.Stdout, os.Stderr).Run(ctx, os.Args[1:])
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		var appErr *AppError
		if errors.As(err, &appErr) {
			os.Exit(appErr.ExitCode())
		}
		os.Exit(1)
	}
	os.Exit(0)
}
