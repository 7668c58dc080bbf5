// Copyright (c) 2021 Canonical Ltd
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License version 3 as
// published by the Free Software Foundation.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"fmt"
	"os"

	"github.com/dumb-init/dumb-init/internal/buildinfo"
	"github.com/dumb-init/dumb-init/internal/config"
	"github.com/dumb-init/dumb-init/internal/launcher"
	"github.com/dumb-init/dumb-init/internal/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	opts, err := config.Parse(os.Args[1:])
	if err != nil {
		if config.IsExitCleanly(err) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "%s: %v\n", buildinfo.ProgramName, err)
		if config.IsUsageError(err) {
			fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] COMMAND [ARG...]\n", buildinfo.ProgramName)
		}
		return 1
	}

	log := logger.New(os.Stderr, fmt.Sprintf("[%s] ", buildinfo.ProgramName), opts.Debug)
	logger.SetLogger(log)

	if !buildinfo.InitProcess() {
		logger.Debugf("Not running as PID 1; signal semantics may differ from the container's perspective.")
	}

	table := config.BuildTable(opts)
	groupMode := !opts.SingleChild

	launched, err := launcher.Launch(table, groupMode, opts.Command)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", buildinfo.ProgramName, err)
		if _, ok := err.(*launcher.ExecError); ok {
			return 2
		}
		return 1
	}

	return launched.Run()
}
