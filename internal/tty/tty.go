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

// Package tty answers the one question the launcher needs about its
// controlling terminal: whether it has one at all, which decides whether
// acquiring it for the child is even possible.
package tty

import (
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Ctty returns the file descriptor of the controlling terminal to pass to
// SysProcAttr.Ctty, and whether the process has one at all. dumb-init only
// ever considers stdin's terminal.
func Ctty() (fd int, ok bool) {
	if !term.IsTerminal(unix.Stdin) {
		return 0, false
	}
	return unix.Stdin, true
}
