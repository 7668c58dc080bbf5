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

package supervisor_test

import (
	"os"
	"os/exec"
	"os/signal"
	"testing"
	"time"

	. "gopkg.in/check.v1"
	"golang.org/x/sys/unix"

	"github.com/dumb-init/dumb-init/internal/sigtable"
	"github.com/dumb-init/dumb-init/internal/supervisor"
)

func Test(t *testing.T) { TestingT(t) }

var _ = Suite(&SupervisorSuite{})

type SupervisorSuite struct{}

// startChild starts a shell that exits 42 when it receives the signal named
// by trap, or exits 99 if it's still running after 5 seconds. The sleep runs
// in the background so the trap fires as soon as the signal arrives. done is
// closed once the child has terminated; the child is left for the
// supervisor to reap.
func startChild(c *C, trap string) (*exec.Cmd, chan struct{}) {
	script := "trap 'exit 42' " + trap + "; sleep 5 & wait; exit 99"
	cmd := exec.Command("/bin/sh", "-c", script)
	err := cmd.Start()
	c.Assert(err, IsNil)

	done := make(chan struct{})
	go func() {
		// WNOWAIT observes the exit without reaping the child.
		var info unix.Siginfo
		unix.Waitid(unix.P_PID, cmd.Process.Pid, &info, unix.WEXITED|unix.WNOWAIT, nil)
		close(done)
	}()
	return cmd, done
}

func (s *SupervisorSuite) TestForwardsUnrewrittenSignal(c *C) {
	cmd, done := startChild(c, "TERM")
	defer cmd.Process.Release()

	table := sigtable.New()
	sv := supervisor.New(table, false)
	sv.SetChildPID(cmd.Process.Pid)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh)
	defer signal.Stop(sigCh)

	go func() {
		time.Sleep(50 * time.Millisecond)
		unix.Kill(os.Getpid(), unix.SIGTERM)
	}()

	resultCh := make(chan int, 1)
	go func() { resultCh <- sv.Run(sigCh) }()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		c.Fatal("child did not exit")
	}

	select {
	case code := <-resultCh:
		c.Check(code, Equals, 42)
	case <-time.After(3 * time.Second):
		c.Fatal("supervisor did not exit")
	}
}

func (s *SupervisorSuite) TestDropsRewrittenToZero(c *C) {
	// Child has no INT trap and exits 42 on TERM; if INT were forwarded,
	// its default action would kill the shell (exit 130 via signal)
	// before our TERM trap could run.
	script := "trap 'exit 42' TERM; sleep 5 & wait; exit 99"
	cmd := exec.Command("/bin/sh", "-c", script)
	err := cmd.Start()
	c.Assert(err, IsNil)
	defer cmd.Process.Release()

	table := sigtable.New()
	table.SetRewrite(int(unix.SIGINT), 0)
	sv := supervisor.New(table, false)
	sv.SetChildPID(cmd.Process.Pid)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh)
	defer signal.Stop(sigCh)

	go func() {
		time.Sleep(50 * time.Millisecond)
		unix.Kill(os.Getpid(), unix.SIGINT)
		time.Sleep(50 * time.Millisecond)
		unix.Kill(os.Getpid(), unix.SIGTERM)
	}()

	resultCh := make(chan int, 1)
	go func() { resultCh <- sv.Run(sigCh) }()

	select {
	case code := <-resultCh:
		c.Check(code, Equals, 42)
	case <-time.After(3 * time.Second):
		c.Fatal("supervisor did not exit")
	}
}

func (s *SupervisorSuite) TestSkipOnceConsumesPreArmedDelivery(c *C) {
	script := "trap 'exit 1' HUP; trap 'exit 42' TERM; sleep 5 & wait; exit 99"
	cmd := exec.Command("/bin/sh", "-c", script)
	err := cmd.Start()
	c.Assert(err, IsNil)
	defer cmd.Process.Release()

	table := sigtable.New()
	table.ArmSkipOnce(int(unix.SIGHUP))
	sv := supervisor.New(table, false)
	sv.SetChildPID(cmd.Process.Pid)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh)
	defer signal.Stop(sigCh)

	go func() {
		time.Sleep(50 * time.Millisecond)
		unix.Kill(os.Getpid(), unix.SIGHUP) // consumed, not forwarded
		time.Sleep(50 * time.Millisecond)
		unix.Kill(os.Getpid(), unix.SIGTERM)
	}()

	resultCh := make(chan int, 1)
	go func() { resultCh <- sv.Run(sigCh) }()

	select {
	case code := <-resultCh:
		c.Check(code, Equals, 42)
	case <-time.After(3 * time.Second):
		c.Fatal("supervisor did not exit")
	}
}
