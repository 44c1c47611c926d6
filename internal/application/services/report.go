package services

import (
	"fmt"

	"github.com/google/uuid"
)

// ActionKind names one kind of mutating step a reconciliation performs.
type ActionKind string

const (
	ActionInstall ActionKind = "install"
	ActionUpdate  ActionKind = "update"
	ActionRemove  ActionKind = "remove"
	ActionLoad    ActionKind = "load"
	ActionUnload  ActionKind = "unload"
)

// Action is one applied (or, in dry-run, intended) mutation.
type Action struct {
	Kind   ActionKind
	Tier   string
	Target string // desktop basename or profile filename
}

// Report collects everything one reconciliation did and everything that went
// wrong, without any single failure aborting the run.
type Report struct {
	RunID    string
	DryRun   bool
	Actions  []Action
	Warnings []string
	Errors   []error
}

// NewReport starts a report for one run.
func NewReport(dryRun bool) *Report {
	return &Report{
		RunID:  uuid.NewString(),
		DryRun: dryRun,
	}
}

// AddAction records a mutation.
func (r *Report) AddAction(kind ActionKind, tier, target string) {
	r.Actions = append(r.Actions, Action{Kind: kind, Tier: tier, Target: target})
}

// AddWarning records a non-fatal condition, like an app left unconfined
// because its profile would not load.
func (r *Report) AddWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// AddError records a per-bundle or per-artifact failure.
func (r *Report) AddError(err error) {
	r.Errors = append(r.Errors, err)
}

// Failed reports whether anything in the run went wrong.
func (r *Report) Failed() bool {
	return len(r.Errors) > 0
}

// Summary is a one-line account for logs and the one-shot CLI.
func (r *Report) Summary() string {
	mode := "sync"
	if r.DryRun {
		mode = "dry-run"
	}
	return fmt.Sprintf("%s %s: %d actions, %d warnings, %d errors",
		mode, r.RunID, len(r.Actions), len(r.Warnings), len(r.Errors))
}
