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

// Package signame resolves between the standard (non-real-time) POSIX signal
// numbers 1..31 and their symbolic names, with or without the leading "SIG"
// prefix, the way a shell's kill(1) builtin does.
package signame

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// MinSignal and MaxSignal bound the standard, non-real-time signal range
// this package (and the rest of the supervisor) operates on.
const (
	MinSignal = 1
	MaxSignal = 31
)

var numToName = map[int]string{
	int(unix.SIGHUP):    "HUP",
	int(unix.SIGINT):    "INT",
	int(unix.SIGQUIT):   "QUIT",
	int(unix.SIGILL):    "ILL",
	int(unix.SIGTRAP):   "TRAP",
	int(unix.SIGABRT):   "ABRT",
	int(unix.SIGBUS):    "BUS",
	int(unix.SIGFPE):    "FPE",
	int(unix.SIGKILL):   "KILL",
	int(unix.SIGUSR1):   "USR1",
	int(unix.SIGSEGV):   "SEGV",
	int(unix.SIGUSR2):   "USR2",
	int(unix.SIGPIPE):   "PIPE",
	int(unix.SIGALRM):   "ALRM",
	int(unix.SIGTERM):   "TERM",
	int(unix.SIGSTKFLT): "STKFLT",
	int(unix.SIGCHLD):   "CHLD",
	int(unix.SIGCONT):   "CONT",
	int(unix.SIGSTOP):   "STOP",
	int(unix.SIGTSTP):   "TSTP",
	int(unix.SIGTTIN):   "TTIN",
	int(unix.SIGTTOU):   "TTOU",
	int(unix.SIGURG):    "URG",
	int(unix.SIGXCPU):   "XCPU",
	int(unix.SIGXFSZ):   "XFSZ",
	int(unix.SIGVTALRM): "VTALRM",
	int(unix.SIGPROF):   "PROF",
	int(unix.SIGWINCH):  "WINCH",
	int(unix.SIGIO):     "IO",
	int(unix.SIGPWR):    "PWR",
	int(unix.SIGSYS):    "SYS",
}

var nameToNum map[string]int

func init() {
	nameToNum = make(map[string]int, len(numToName))
	for n, name := range numToName {
		nameToNum[name] = n
	}
}

// Name returns the bare symbolic name (no "SIG" prefix) for signum, or its
// decimal representation if it isn't one of the known standard signals.
func Name(signum int) string {
	if name, ok := numToName[signum]; ok {
		return name
	}
	return strconv.Itoa(signum)
}

// Parse resolves s, which may be a decimal number or a symbolic name with
// or without the leading "SIG" prefix (e.g. "15", "TERM", "SIGTERM"), to a
// signal number in the standard range 1..31.
func Parse(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < MinSignal || n > MaxSignal {
			return 0, fmt.Errorf("signal number %d out of range %d..%d", n, MinSignal, MaxSignal)
		}
		return n, nil
	}
	upper := strings.ToUpper(s)
	upper = strings.TrimPrefix(upper, "SIG")
	if n, ok := nameToNum[upper]; ok {
		return n, nil
	}
	return 0, fmt.Errorf("unknown signal name %q", s)
}
