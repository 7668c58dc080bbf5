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

// Package observer runs the fire-and-forget external program configured for
// a given signal. It is best-effort: the supervisor never waits on it and
// its failure never perturbs signal forwarding.
package observer

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/dumb-init/dumb-init/internal/logger"
	"github.com/dumb-init/dumb-init/internal/reaper"
)

// Run execs path with no arguments, passing through the current
// environment plus DUMB_INIT_SIGNUM (the original signal) and
// DUMB_INIT_REPLACEMENT_SIGNUM (the translated signal). The child runs
// detached; its exit status is collected later by the generic reap loop,
// not by this function. Any failure to start it is logged and discarded.
func Run(path string, original, translated int) {
	cmd := exec.Command(path)
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("DUMB_INIT_SIGNUM=%d", original),
		fmt.Sprintf("DUMB_INIT_REPLACEMENT_SIGNUM=%d", translated),
	)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := reaper.StartCommand(cmd); err != nil {
		logger.Noticef("Unable to start observer %q: %v", path, err)
	}
}
