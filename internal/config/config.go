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

// Package config is the external argument-parsing collaborator described by
// the core's design: it turns argv and the environment into a parsed
// configuration record, and otherwise knows nothing about signal
// forwarding or reaping.
package config

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/canonical/go-flags"

	"github.com/dumb-init/dumb-init/internal/buildinfo"
	"github.com/dumb-init/dumb-init/internal/sigtable"
	"github.com/dumb-init/dumb-init/internal/signame"
)

// RewriteRule is one parsed "-r S:R[:OBS]" argument.
type RewriteRule struct {
	Signal      int
	Replacement int
	Observer    string // empty if no observer was given
}

// Options is the parsed configuration record the core consumes. It owns
// nothing about signal handling itself; Table is built from Rewrites by
// BuildTable so the core only ever deals with a ready-made sigtable.Table.
type Options struct {
	SingleChild bool
	Debug       bool
	Rewrites    []RewriteRule
	Command     []string
}

// rawOptions is the go-flags binding; Parse converts it into an Options.
type rawOptions struct {
	SingleChild bool     `short:"c" long:"single-child" description:"Run in single-child mode: don't create a new session, and forward signals directly to the child rather than its process group"`
	Rewrite     []string `short:"r" long:"rewrite" description:"A signal rewrite, in the form SIGNAL:REPLACEMENT[:OBSERVER]" value-name:"SPEC"`
	Verbose     bool     `short:"v" long:"verbose" description:"Print debugging information to stderr"`
	Version     func()   `short:"V" long:"version" description:"Print the version and exit"`

	Positional struct {
		Command []string `positional-arg-name:"COMMAND" description:"The command to run"`
	} `positional-args:"yes"`
}

// usageError is returned for problems with argv itself; the core's only
// obligation on seeing one is to exit 1 after a usage line, per the error
// taxonomy.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

// IsUsageError reports whether err came from a malformed command line,
// including a -r argument whose observer cannot be resolved.
func IsUsageError(err error) bool {
	_, ok := err.(*usageError)
	return ok
}

// exitCleanly is returned by Parse when -h/--help or -V/--version was
// given: there is nothing left to run, and the process should exit 0.
type exitCleanly struct{}

func (exitCleanly) Error() string { return "exit cleanly" }

// IsExitCleanly reports whether err indicates -h/--help or -V/--version
// was handled and the process should simply exit 0.
func IsExitCleanly(err error) bool {
	_, ok := err.(exitCleanly)
	return ok
}

// Parse parses argv (not including the program name, i.e. os.Args[1:])
// and applies the DUMB_INIT_DEBUG and DUMB_INIT_SETSID environment
// variable overrides described in the external interfaces.
func Parse(argv []string) (*Options, error) {
	var raw rawOptions
	printedVersion := false
	raw.Version = func() { printedVersion = true }

	parser := flags.NewParser(&raw, flags.HelpFlag|flags.PassDoubleDash|flags.PassAfterNonOption)
	parser.Usage = "[OPTIONS] COMMAND [ARG...]"

	_, err := parser.ParseArgs(argv)
	if printedVersion {
		fmt.Fprintf(os.Stdout, "%s %s\n", buildinfo.ProgramName, buildinfo.Version)
		return nil, exitCleanly{}
	}
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, err)
			return nil, exitCleanly{}
		}
		return nil, &usageError{msg: err.Error()}
	}

	if len(raw.Positional.Command) == 0 {
		return nil, &usageError{msg: "no command given"}
	}

	opts := &Options{
		SingleChild: raw.SingleChild,
		Debug:       raw.Verbose,
		Command:     raw.Positional.Command,
	}

	for _, spec := range raw.Rewrite {
		rule, err := parseRewriteSpec(spec)
		if err != nil {
			return nil, &usageError{msg: fmt.Sprintf("invalid -r/--rewrite argument %q: %v", spec, err)}
		}
		opts.Rewrites = append(opts.Rewrites, rule)
	}

	if os.Getenv("DUMB_INIT_DEBUG") == "1" {
		opts.Debug = true
	}
	if os.Getenv("DUMB_INIT_SETSID") == "0" {
		opts.SingleChild = true
	}

	return opts, nil
}

// parseRewriteSpec parses "SIGNAL:REPLACEMENT[:OBSERVER]". REPLACEMENT may
// be "0", meaning "drop this signal", which signame.Parse rejects (it's
// outside the standard range), so it's special-cased here.
func parseRewriteSpec(spec string) (RewriteRule, error) {
	parts := strings.SplitN(spec, ":", 3)
	if len(parts) < 2 {
		return RewriteRule{}, fmt.Errorf("expected SIGNAL:REPLACEMENT[:OBSERVER]")
	}

	signum, err := signame.Parse(parts[0])
	if err != nil {
		return RewriteRule{}, err
	}

	replacement, err := parseReplacement(parts[1])
	if err != nil {
		return RewriteRule{}, err
	}

	rule := RewriteRule{Signal: signum, Replacement: replacement}
	if len(parts) == 3 && parts[2] != "" {
		observerPath, err := resolveObserver(parts[2])
		if err != nil {
			return RewriteRule{}, err
		}
		rule.Observer = observerPath
	}
	return rule, nil
}

func parseReplacement(s string) (int, error) {
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && n == 0 {
		return 0, nil
	}
	return signame.Parse(s)
}

// resolveObserver resolves path to an executable, searching PATH if it
// contains no slash, and fails (a configuration error) if it can't be
// found. This is the "misconfigured observer" half of the open question
// in the error handling design: unresolvable at startup is fatal, but a
// runtime-missing observer is merely noise.
func resolveObserver(path string) (string, error) {
	if strings.Contains(path, "/") {
		info, err := os.Stat(path)
		if err != nil {
			return "", fmt.Errorf("observer %q is not executable: %w", path, err)
		}
		if info.Mode()&0111 == 0 {
			return "", fmt.Errorf("observer %q is not executable", path)
		}
		return path, nil
	}
	resolved, err := exec.LookPath(path)
	if err != nil {
		return "", fmt.Errorf("observer %q not found on PATH: %w", path, err)
	}
	return resolved, nil
}

// BuildTable constructs the sigtable.Table implied by opts.Rewrites,
// including observers, but does not yet apply the group-mode job-control
// defaulting rule (the launcher does that once group mode is known to be
// actually in effect).
func BuildTable(opts *Options) *sigtable.Table {
	t := sigtable.New()
	for _, r := range opts.Rewrites {
		t.SetRewrite(r.Signal, r.Replacement)
		if r.Observer != "" {
			t.SetObserver(r.Signal, r.Observer)
		}
	}
	return t
}
