// Copyright (c) 2014-2020 Canonical Ltd
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

// Package buildinfo holds the handful of facts about the running binary and
// its environment that don't belong to any one component: its name, its
// build-time version, and whether it's actually running as PID 1.
package buildinfo

import "os"

var (
	// Version is "unknown" unless overwritten at build time, for example
	// with -ldflags "-X github.com/dumb-init/dumb-init/internal/buildinfo.Version=...".
	Version = "unknown"

	// ProgramName is the fixed prefix used on diagnostic output.
	ProgramName = "dumb-init"

	selfPid = os.Getpid()
)

// InitProcess returns true if this process is PID 1, i.e. the kernel itself
// started it rather than another process forking it.
func InitProcess() bool {
	return selfPid == 1
}
