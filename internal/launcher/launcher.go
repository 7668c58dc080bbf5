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

// Package launcher is the one-shot bootstrap that prepares the signal mask,
// optionally detaches from the controlling terminal, forks the child, and
// hands a ready-to-run Supervisor back to the caller. It never runs more
// than once per process.
package launcher

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/dumb-init/dumb-init/internal/logger"
	"github.com/dumb-init/dumb-init/internal/reaper"
	"github.com/dumb-init/dumb-init/internal/sigtable"
	"github.com/dumb-init/dumb-init/internal/signame"
	"github.com/dumb-init/dumb-init/internal/supervisor"
	"github.com/dumb-init/dumb-init/internal/tty"
)

// watchedSignals lists every standard signal Notify should watch for,
// built the same way the teacher's own signal.Notify call sites do it:
// explicitly, never bare. SIGURG is left out: since Go 1.14 the runtime
// sends itself SIGURG for asynchronous goroutine preemption, and asking
// Notify for it would relay that internal traffic to sigCh as if it were
// a real external delivery.
func watchedSignals() []os.Signal {
	sigs := make([]os.Signal, 0, signame.MaxSignal-signame.MinSignal)
	for n := signame.MinSignal; n <= signame.MaxSignal; n++ {
		if n == int(unix.SIGURG) {
			continue
		}
		sigs = append(sigs, syscall.Signal(n))
	}
	return sigs
}

// StartupError is returned when a bare command name could not be resolved
// on PATH, so no fork was attempted. The caller should exit 1. A failure of
// the fork/exec call itself is reported as an ExecError, not as this.
type StartupError struct {
	Err error
}

func (e *StartupError) Error() string { return fmt.Sprintf("unable to start child: %v", e.Err) }
func (e *StartupError) Unwrap() error { return e.Err }

// ExecError is returned when the os.StartProcess call that forks and execs
// the command fails: the exec failed (for example, a command path that does
// not exist), or the fork itself did; the two are not told apart. The
// caller should exit 2, distinct from a startup failure.
type ExecError struct {
	Err error
}

func (e *ExecError) Error() string { return fmt.Sprintf("exec failed: %v", e.Err) }
func (e *ExecError) Unwrap() error { return e.Err }

// Launched is what a successful Launch hands back to main: a Supervisor
// ready to run, bound to the signal channel Launch registered.
type Launched struct {
	sv    *supervisor.Supervisor
	sigCh chan os.Signal
}

// Run delegates to the underlying Supervisor, consuming the channel Launch
// set up for it.
func (l *Launched) Run() int {
	return l.sv.Run(l.sigCh)
}

// Launch runs the full bootstrap sequence described by the core design: it
// blocks and observes every standard signal, optionally detaches from the
// controlling terminal and pre-arms the HUP/CONT skip-once bits, starts
// command, and on success returns a Supervisor already bound to the child's
// PID. On failure it returns a *StartupError or *ExecError, and the caller
// must exit without ever entering the supervisor loop.
func Launch(table *sigtable.Table, groupMode bool, command []string) (*Launched, error) {
	sigCh := make(chan os.Signal, 64)
	// Deliberately explicit, the same way every signal.Notify call in the
	// teacher's own codebase is: nothing is dequeued except through this
	// channel, for exactly the signals this program is prepared to treat
	// as external deliveries.
	signal.Notify(sigCh, watchedSignals()...)

	if ok, err := reaper.SetSubreaper(); err != nil {
		logger.Debugf("Unable to set child-subreaper: %v", err)
	} else if !ok {
		logger.Debugf("Child-subreaper not available on this kernel.")
	}

	if groupMode {
		wasSessionLeader := isSessionLeader()
		detachControllingTerminal()
		if wasSessionLeader {
			table.ArmSkipOnce(int(unix.SIGHUP))
			table.ArmSkipOnce(int(unix.SIGCONT))
		}
		sigtable.ApplyGroupModeDefaults(table)
	}

	cmd := exec.Command(command[0], command[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{}

	if groupMode {
		cmd.SysProcAttr.Setsid = true
		if fd, ok := tty.Ctty(); ok {
			cmd.SysProcAttr.Setctty = true
			cmd.SysProcAttr.Ctty = fd
		}
	}

	if err := cmd.Start(); err != nil {
		return nil, classifyStartError(err)
	}

	logger.Debugf("Child spawned with PID %d.", cmd.Process.Pid)

	sv := supervisor.New(table, groupMode)
	sv.SetChildPID(cmd.Process.Pid)

	return &Launched{sv: sv, sigCh: sigCh}, nil
}

// classifyStartError splits a Cmd.Start failure into the exit-1 and exit-2
// cases. An *exec.Error comes from the PATH lookup exec.Command does for a
// bare command name before ever forking, so it is a configuration problem.
// Anything else comes back from the underlying os.StartProcess call that
// performs the fork and exec together; that includes a command path
// containing a slash that does not exist, since no lookup is done for such
// paths. All of these are reported as the exec half failing.
func classifyStartError(err error) error {
	var lookErr *exec.Error
	if errors.As(err, &lookErr) {
		return &StartupError{Err: err}
	}
	return &ExecError{Err: err}
}

// isSessionLeader reports whether the calling process is the leader of its
// own session, i.e. its SID equals its PID.
func isSessionLeader() bool {
	sid, err := unix.Getsid(0)
	if err != nil {
		return false
	}
	return sid == unix.Getpid()
}

// detachControllingTerminal relinquishes the controlling terminal via
// TIOCNOTTY on stdin. Failure (there may be no controlling terminal at all)
// is logged at debug and otherwise ignored, per the error taxonomy.
func detachControllingTerminal() {
	if err := unix.IoctlSetInt(unix.Stdin, unix.TIOCNOTTY, 0); err != nil {
		logger.Debugf("Unable to detach from controlling terminal: %v", err)
	}
}
