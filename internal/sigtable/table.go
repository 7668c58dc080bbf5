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

// Package sigtable holds the process-wide, fixed-size record of per-signal
// rewrite, observer and skip-once state described by the supervisor's data
// model. It is populated once at startup and is read-only afterwards, except
// for the one-shot skip-once bits, which only the supervisor's single thread
// of control ever mutates.
package sigtable

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/dumb-init/dumb-init/internal/signame"
)

// Unset marks a rewrite slot that has never been explicitly configured, as
// distinct from a rewrite to 0 (drop the signal).
const Unset = -1

// entry holds the per-signal configuration described in the data model.
type entry struct {
	rewrite  int // Unset, 0 (drop), or 1..31
	observer string
	skipOnce bool
}

// Table is the fixed-size, 1-indexed (index 0 unused) array of per-signal
// entries for the standard signal range.
type Table struct {
	entries [signame.MaxSignal + 1]entry
}

// New returns an empty table with every rewrite slot Unset.
func New() *Table {
	t := &Table{}
	for i := range t.entries {
		t.entries[i].rewrite = Unset
	}
	return t
}

func (t *Table) checkRange(signum int) {
	if signum < signame.MinSignal || signum > signame.MaxSignal {
		panic(fmt.Sprintf("internal error: signal %d out of range %d..%d", signum, signame.MinSignal, signame.MaxSignal))
	}
}

// SetRewrite records that signum should be delivered as r instead (r may be
// 0, meaning "drop"). r must be Unset, 0, or in the standard range.
func (t *Table) SetRewrite(signum, r int) {
	t.checkRange(signum)
	if r != Unset && r != 0 {
		t.checkRange(r)
	}
	t.entries[signum].rewrite = r
}

// Rewrite returns the configured rewrite target for signum and whether one
// was ever set.
func (t *Table) Rewrite(signum int) (r int, ok bool) {
	t.checkRange(signum)
	e := t.entries[signum]
	return e.rewrite, e.rewrite != Unset
}

// SetObserver records the executable path to invoke whenever signum is
// received.
func (t *Table) SetObserver(signum int, path string) {
	t.checkRange(signum)
	t.entries[signum].observer = path
}

// Observer returns the observer path configured for signum, if any.
func (t *Table) Observer(signum int) string {
	t.checkRange(signum)
	return t.entries[signum].observer
}

// ArmSkipOnce sets the one-shot "consume the next delivery" bit for signum.
func (t *Table) ArmSkipOnce(signum int) {
	t.checkRange(signum)
	t.entries[signum].skipOnce = true
}

// ConsumeSkipOnce clears and returns the skip-once bit for signum. It
// returns true (and clears the bit) exactly once per arming.
func (t *Table) ConsumeSkipOnce(signum int) bool {
	t.checkRange(signum)
	if !t.entries[signum].skipOnce {
		return false
	}
	t.entries[signum].skipOnce = false
	return true
}

// Translate returns the effective signal number to deliver for an incoming
// signum: unchanged if signum is outside the standard range or never
// rewritten, otherwise the configured rewrite (which may be 0, meaning
// "drop").
func (t *Table) Translate(signum int) int {
	if signum < signame.MinSignal || signum > signame.MaxSignal {
		return signum
	}
	e := t.entries[signum]
	if e.rewrite == Unset {
		return signum
	}
	return e.rewrite
}

// ApplyGroupModeDefaults implements the job-control defaulting rule: in
// group mode, TSTP, TTOU and TTIN are rewritten to STOP unless the user
// already set an explicit rewrite (including to 0) for that signal. It must
// be called once, after all user-supplied rewrites have been applied and
// before the supervisor loop starts.
func ApplyGroupModeDefaults(t *Table) {
	for _, s := range []int{int(unix.SIGTSTP), int(unix.SIGTTOU), int(unix.SIGTTIN)} {
		if _, ok := t.Rewrite(s); !ok {
			t.SetRewrite(s, int(unix.SIGSTOP))
		}
	}
}
