// Copyright (c) 2022 Canonical Ltd
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

// Package reaper collects the exit status of terminated child processes so
// they don't linger as zombies. It is deliberately stateless: the caller
// (the supervisor) decides what a given PID means; this package only knows
// how to drain the kernel's wait queue without blocking.
package reaper

import (
	"fmt"
	"os/exec"

	"golang.org/x/sys/unix"
)

// Result is one reaped child's outcome.
type Result struct {
	Pid int
	// ExitCode is the child's own exit code if it exited normally, or
	// 128+signal if it was killed by a signal, following the same
	// convention a POSIX shell uses for $?.
	ExitCode int
}

// SetSubreaper marks the current process as a "child subreaper" (Linux
// 3.4+), so that orphaned descendants reparent to it instead of drifting to
// whatever else occupies PID 1's role. It returns false (with a nil error)
// if subreaping isn't available on this kernel.
//
// See https://unix.stackexchange.com/a/250156/73491 for the rationale;
// it's harmless and cheap to set even when the caller is already PID 1.
func SetSubreaper() (bool, error) {
	err := unix.Prctl(unix.PR_SET_CHILD_SUBREAPER, 1, 0, 0, 0)
	if err == unix.EINVAL {
		return false, nil
	}
	return err == nil, err
}

// StartCommand starts cmd and returns immediately without waiting for it,
// the same fire-and-forget half of the teacher's StartCommand/WaitCommand
// split: it starts cmd and simply never calls a matching WaitCommand. The
// started process is left running as a direct child of this one, and its
// exit status is collected generically the next time ReapAvailable runs,
// same as any orphaned descendant.
func StartCommand(cmd *exec.Cmd) error {
	return cmd.Start()
}

// ReapAvailable waits (without blocking) for every child process that has
// already terminated and returns their results, draining the wait queue
// completely. The caller should call it once per SIGCHLD and trust that no
// further terminated children remain once it returns with a nil error.
func ReapAvailable() ([]Result, error) {
	var results []Result
	for {
		var status unix.WaitStatus
		pid, err := unix.Wait4(-1, &status, unix.WNOHANG, nil)
		switch err {
		case nil:
			if pid <= 0 {
				return results, nil
			}
			exitCode := status.ExitStatus()
			if status.Signaled() {
				exitCode = 128 + int(status.Signal())
			}
			results = append(results, Result{Pid: pid, ExitCode: exitCode})

		case unix.ECHILD:
			return results, nil

		default:
			// Transient waiter error: treat as "nothing reapable right
			// now" and let the next SIGCHLD retry.
			return results, fmt.Errorf("cannot wait for child process: %w", err)
		}
	}
}
