// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import "flag"

type globalFlags struct {
	ConfFile string
	Verbose  bool
	DumpConf bool
	Version  bool
}

func (g *globalFlags) Register(fs *flag.FlagSet) {
	fs.BoolVar(&g.Verbose, "verbose", false, "Enable debug logging (optional)")
	fs.StringVar(&g.ConfFile, "conf", "", "Application configuration file path, JSON or YAML (optional)")
	fs.BoolVar(&g.DumpConf, "dump-conf", false, "Print actual application configuration and exit")
	fs.BoolVar(&g.Version, "version", false, "Print version and exit")
}
