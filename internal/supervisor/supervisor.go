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

// Package supervisor implements the signal-classification and reaping state
// machine that is the core of the process: a single cooperative loop that
// waits for any signal, classifies it, and dispatches it either to the
// reaper or to the forwarder.
package supervisor

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/dumb-init/dumb-init/internal/logger"
	"github.com/dumb-init/dumb-init/internal/observer"
	"github.com/dumb-init/dumb-init/internal/reaper"
	"github.com/dumb-init/dumb-init/internal/sigtable"
	"github.com/dumb-init/dumb-init/internal/signame"
)

// Supervisor owns the process-global state described in the data model:
// the primary child's PID, the chosen delivery-target mode, and the signal
// table it forwards through. It must only ever be driven from a single
// goroutine; Run is not safe to call concurrently with itself, and nothing
// else mutates the table once the launcher hands it over except the
// skip-once bits Run clears on its own.
type Supervisor struct {
	table     *sigtable.Table
	groupMode bool

	childPID int
}

// New returns a Supervisor bound to table in the given delivery-target
// mode. The caller must call SetChildPID exactly once, after a successful
// fork, before calling Run.
func New(table *sigtable.Table, groupMode bool) *Supervisor {
	return &Supervisor{table: table, groupMode: groupMode, childPID: -1}
}

// SetChildPID records the primary child's PID. It must be called exactly
// once.
func (s *Supervisor) SetChildPID(pid int) {
	s.childPID = pid
}

// target returns the PID (or, in group mode, the negative PID denoting the
// whole process group) that forwarded signals are delivered to.
func (s *Supervisor) target() int {
	if s.groupMode {
		return -s.childPID
	}
	return s.childPID
}

// Run blocks, waiting for and dispatching signals delivered on sigCh, until
// the primary child has been reaped, then returns the exit code the
// process itself should exit with. sigCh must have been registered (via
// launcher's explicit signal.Notify list) before Run is called, so that
// every standard signal this program forwards is observable here rather
// than acted on by its kernel default disposition.
func (s *Supervisor) Run(sigCh <-chan os.Signal) int {
	for {
		sig := <-sigCh
		sysSig, ok := sig.(syscall.Signal)
		if !ok {
			continue
		}
		signum := int(sysSig)
		if signum < signame.MinSignal || signum > signame.MaxSignal {
			// Real-time signals are out of scope; ignore silently.
			continue
		}
		logger.Debugf("Received signal %s.", signame.Name(signum))

		if s.table.ConsumeSkipOnce(signum) {
			logger.Debugf("Ignoring pre-armed signal %s.", signame.Name(signum))
			continue
		}

		if signum == int(unix.SIGCHLD) {
			if done, exitCode := s.reapOnce(); done {
				return exitCode
			}
			continue
		}

		s.forward(signum)

		switch signum {
		case int(unix.SIGTSTP), int(unix.SIGTTOU), int(unix.SIGTTIN):
			logger.Debugf("Suspending self due to %s.", signame.Name(signum))
			if err := unix.Kill(os.Getpid(), unix.SIGSTOP); err != nil {
				logger.Noticef("Unable to stop self: %v", err)
			}
		}
	}
}

// forward implements the Forward routine: translate, fire the observer (if
// any) and deliver the translated signal to the configured target.
func (s *Supervisor) forward(signum int) {
	translated := s.table.Translate(signum)

	if path := s.table.Observer(signum); path != "" {
		observer.Run(path, signum, translated)
	}

	if translated == 0 {
		logger.Debugf("Not forwarding signal %s (rewritten to 0).", signame.Name(signum))
		return
	}

	if s.childPID <= 0 {
		return
	}

	logger.Debugf("Forwarding signal %s to %s %d.", signame.Name(translated), targetKind(s.groupMode), s.target())
	if err := unix.Kill(s.target(), unix.Signal(translated)); err != nil {
		// The target may have already disappeared between translate and
		// send; the next reap will surface that.
		logger.Debugf("Unable to forward signal: %v", err)
	}
}

func targetKind(groupMode bool) string {
	if groupMode {
		return "process group"
	}
	return "child"
}

// reapOnce drains every immediately-reapable child. It returns done=true
// and the process's own exit code once the primary child has been
// observed among them.
func (s *Supervisor) reapOnce() (done bool, exitCode int) {
	results, err := reaper.ReapAvailable()
	if err != nil {
		// Children reaped before the error are still in results.
		logger.Noticef("%v", err)
	}

	for _, r := range results {
		logger.Debugf("Reaped PID %d which exited with code %d.", r.Pid, r.ExitCode)
		if r.Pid == s.childPID {
			logger.Debugf("Child exited with status %d, goodbye.", r.ExitCode)
			// Signal any remaining descendants; only meaningful in group
			// mode, harmless otherwise.
			s.forward(int(unix.SIGTERM))
			return true, r.ExitCode
		}
	}
	return false, 0
}
