// Package runner is the execution-side consumer of the build-graph engine's
// scheduler contract: it drains core.Context's ready queue, runs each
// target's compiled recipe through a shell, and reports completion back so
// the engine can promote newly-unblocked targets from waiting to ready.
//
// Matching the engine's own single-threaded design, recipes run one at a
// time in scheduling order; nothing here introduces concurrency.
package runner

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/alessio/shellescape"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/op/go-logging.v1"

	"github.com/yamake/yamake/core"
)

var log = logging.MustGetLogger("runner")

// Options controls how Run behaves, surfacing the three flags the original
// tool's command line exposed (SPEC_FULL.md §4).
type Options struct {
	// DryRun prints each command instead of executing it.
	DryRun bool
	// KeepGoing continues building independent branches after a failure
	// instead of stopping at the first one.
	KeepGoing bool
	// Silent suppresses echoing commands before they run, regardless of
	// whether the recipe line itself was prefixed with '@'.
	Silent bool
}

// Shell is the interpreter each ExecCmd.Cmd is handed to. Resolved once at
// package init so a missing shell fails fast rather than per-command.
var Shell = "/bin/sh"

func init() {
	if path, err := exec.LookPath("sh"); err == nil {
		Shell = path
	}
}

// Run drains ctx's ready queue to completion: for every target, it runs (or,
// in dry-run mode, prints) each compiled command in order, then reports the
// target complete so the engine can move its dependents from waiting to
// ready. Returns the first failure under normal operation, or every failure
// aggregated via multierror under KeepGoing.
func Run(ctx *core.Context, opts Options) error {
	var errs *multierror.Error

	for len(ctx.TargetsReady) > 0 {
		target := ctx.TargetsReady[0]
		ctx.TargetsReady = ctx.TargetsReady[1:]

		if err := runTarget(target, opts); err != nil {
			errs = multierror.Append(errs, err)
			if !opts.KeepGoing {
				return errs.ErrorOrNil()
			}
			// Under -k a failed target is marked executed but not
			// completed, so its dependents stay waiting while the rest of
			// the graph that doesn't depend on it keeps moving.
			target.Executed = true
			continue
		}
		ctx.CompleteTarget(target)
	}

	return errs.ErrorOrNil()
}

// runTarget executes (or prints) every ExecCmd compiled for target, honoring
// DisplayCmd/IgnoreErrors per command and stopping at the first command that
// fails and isn't marked to ignore errors.
func runTarget(target *core.Target, opts Options) error {
	for _, cmd := range target.ExecCmds {
		display := cmd.DisplayCmd && !opts.Silent

		if display {
			log.Noticef("%s", QuoteForDisplay(strings.Fields(cmd.Cmd)))
		}

		if opts.DryRun {
			continue
		}

		if err := runShellLine(cmd.Cmd); err != nil {
			if cmd.IgnoreErrors {
				log.Warningf("%s: %s (ignored)", target.Key, err)
				continue
			}
			return fmt.Errorf("building %s: %w", target.Key, err)
		}
	}
	return nil
}

func runShellLine(line string) error {
	cmd := exec.Command(Shell, "-c", line)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// QuoteForDisplay shell-quotes each element of args and joins them with
// spaces. runTarget passes it a command's whitespace-split fields, so each
// echoed word is quoted on its own: a path containing a space is shown as
// two words, not as one quoted argument. The unquoted line is still what's
// handed to sh -c for execution; this quoting only affects what's echoed.
func QuoteForDisplay(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = shellescape.Quote(a)
	}
	return strings.Join(quoted, " ")
}
