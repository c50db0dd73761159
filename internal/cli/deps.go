package cli

import (
	"time"

	"github.com/ksyq12/converge/internal/executor"
	"github.com/ksyq12/converge/internal/input"
	"github.com/ksyq12/converge/internal/output"
	"github.com/ksyq12/converge/internal/reconcile"
)

// Dependencies aggregates all CLI external dependencies for testability
type Dependencies struct {
	Executor    executor.CommandExecutor
	StdinReader input.Reader
}

// Package-level dependencies (can be overridden for testing)
var deps = &Dependencies{
	Executor:    executor.NewSystemExecutor(),
	StdinReader: input.NewStdinReader(),
}

// SetDeps replaces the package dependencies (for testing)
func SetDeps(d *Dependencies) {
	deps = d
}

// GetDeps returns the current dependencies (for testing)
func GetDeps() *Dependencies {
	return deps
}

// resetDeps restores the default dependencies (for testing)
func resetDeps() {
	deps = &Dependencies{
		Executor:    executor.NewSystemExecutor(),
		StdinReader: input.NewStdinReader(),
	}
}

// confirmRemoval prompts for confirmation unless skip is set.
// Returns false when the user declined.
func confirmRemoval(resource string, skip bool) bool {
	if skip {
		return true
	}
	output.Print("Are you sure you want to remove %s? [y/N]: ", resource)
	if !input.Confirm(deps.StdinReader) {
		output.Info("Removal cancelled")
		return false
	}
	return true
}

// reconcileOptions builds the per-call options shared by all commands.
func reconcileOptions(dryRun bool, timeout time.Duration) reconcile.Options {
	return reconcile.Options{
		DryRun:  dryRun,
		Timeout: timeout,
	}
}

// reportResult renders one reconciliation result as JSON or colored text.
func reportResult(res reconcile.Result) error {
	if jsonOutput {
		return output.JSON(res)
	}
	prefix := ""
	if res.DryRun {
		prefix = "(dry-run) "
	}
	if res.Changed {
		output.Changed("%s%s: %s (%s)", prefix, res.Resource, res.Action, res.Message)
	} else {
		output.Success("%s%s: up to date (%s)", prefix, res.Resource, res.Message)
	}
	return nil
}
