// Package services holds the reconciler: the one operation that makes the
// host's managed artifacts match the observed set of bundles.
package services

import (
	"bytes"
	"context"
	"log/slog"
	"sort"
	"strings"

	apperrors "github.com/dotlnx-dev/dotlnx/internal/application/errors"
	"github.com/dotlnx-dev/dotlnx/internal/application/ports"
	"github.com/dotlnx-dev/dotlnx/internal/apparmor"
	"github.com/dotlnx-dev/dotlnx/internal/bundle"
	"github.com/dotlnx-dev/dotlnx/internal/config"
	"github.com/dotlnx-dev/dotlnx/internal/desktop"
	"github.com/dotlnx-dev/dotlnx/internal/domain/entities"
)

// Reconciler drives one full pass: discover bundles across tiers, validate
// them, render artifacts, and diff against what the host reports as
// installed. Each run rebuilds all state from disk; nothing is shared
// between runs.
type Reconciler struct {
	host     ports.Host
	tiers    func() ([]entities.Tier, error)
	discover func(entities.Tier) ([]entities.Bundle, error)
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithTierSource overrides tier enumeration (tests).
func WithTierSource(f func() ([]entities.Tier, error)) Option {
	return func(r *Reconciler) { r.tiers = f }
}

// NewReconciler wires a reconciler against a host adapter.
func NewReconciler(host ports.Host, opts ...Option) *Reconciler {
	r := &Reconciler{
		host:     host,
		tiers:    bundle.Tiers,
		discover: bundle.Discover,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Sync runs one reconciliation. Per-bundle and per-artifact failures are
// recorded in the report and never abort the run; only a failure to acquire
// the advisory lock or to enumerate tiers is fatal. With dryRun the host is
// only read and the report lists intended actions.
func (r *Reconciler) Sync(ctx context.Context, dryRun bool) (*Report, error) {
	release, err := r.host.Lock()
	if err != nil {
		return nil, err
	}
	defer release()

	tiers, err := r.tiers()
	if err != nil {
		return nil, err
	}

	report := NewReport(dryRun)
	confining := r.host.HaveAppArmor() && r.host.IsRoot()

	// User-tier prefixes shadow the shorter system prefix, so the system
	// tier must not claim their profiles during its diff.
	var userPrefixes []string
	for _, t := range tiers {
		if t.Kind == entities.TierUser {
			userPrefixes = append(userPrefixes, t.ProfilePrefix())
		}
	}

	for _, tier := range tiers {
		apps := r.resolveTier(tier, report)
		r.syncDesktop(tier, apps, confining, dryRun, report)
		if confining {
			r.syncProfiles(ctx, tier, apps, userPrefixes, dryRun, report)
		}
	}

	slog.Info("reconciliation finished", "run", report.RunID, "summary", report.Summary())
	return report, nil
}

// resolveTier discovers, parses and validates the tier's bundles, dropping
// duplicates in path order.
func (r *Reconciler) resolveTier(tier entities.Tier, report *Report) []config.Resolved {
	bundles, err := r.discover(tier)
	if err != nil {
		slog.Warn("skipping root", "tier", tier.String(), "error", err)
		report.AddError(err)
		return nil
	}

	var apps []config.Resolved
	owner := make(map[string]string) // name -> bundle path that owns it
	for _, b := range bundles {
		cfg, err := config.Load(b.Path)
		if err != nil {
			slog.Warn("skipping bundle", "bundle", b.Path, "error", err)
			report.AddError(err)
			continue
		}
		if err := config.Validate(cfg, b.Path); err != nil {
			slog.Warn("skipping invalid bundle", "bundle", b.Path, "error", err)
			report.AddError(err)
			continue
		}
		if kept, dup := owner[cfg.Name]; dup {
			report.AddError(apperrors.NewDuplicateNameError(cfg.Name, b.Path, kept))
			continue
		}
		owner[cfg.Name] = b.Path
		apps = append(apps, config.NewResolved(cfg, b))
	}
	return apps
}

// syncDesktop diffs desired menu entries against the installed managed set.
func (r *Reconciler) syncDesktop(tier entities.Tier, apps []config.Resolved, confining, dryRun bool, report *Report) {
	desired := make(map[string][]byte, len(apps))
	for _, app := range apps {
		desired[app.DesktopBasename()] = desktop.Render(app, confining && app.Confined())
	}

	installed, err := r.host.ListDesktop(tier)
	if err != nil {
		report.AddError(err)
		return
	}
	installedSet := make(map[string]bool, len(installed))
	for _, name := range installed {
		installedSet[name] = true
	}

	for _, name := range sortedKeys(desired) {
		data := desired[name]
		kind := ActionInstall
		if installedSet[name] {
			current, err := r.host.ReadDesktop(tier, name)
			if err == nil && bytes.Equal(current, data) {
				continue
			}
			kind = ActionUpdate
		}
		if !dryRun {
			if err := r.host.WriteDesktop(tier, name, data); err != nil {
				report.AddError(err)
				continue
			}
		}
		report.AddAction(kind, tier.String(), name)
	}

	for _, name := range installed {
		if _, ok := desired[name]; ok {
			continue
		}
		if !dryRun {
			if err := r.host.RemoveDesktop(tier, name); err != nil {
				report.AddError(err)
				continue
			}
		}
		report.AddAction(ActionRemove, tier.String(), name)
	}
}

// syncProfiles diffs desired confinement profiles against the installed set
// of the tier's namespace. Write happens before load; unload before remove.
func (r *Reconciler) syncProfiles(ctx context.Context, tier entities.Tier, apps []config.Resolved, userPrefixes []string, dryRun bool, report *Report) {
	desired := make(map[string][]byte)
	for _, app := range apps {
		if app.Confined() {
			desired[app.ProfileFilename()] = apparmor.Render(app)
		}
	}

	installed, err := r.host.ListProfiles(tier.ProfilePrefix())
	if err != nil {
		report.AddError(err)
		return
	}
	if tier.Kind == entities.TierSystem {
		installed = withoutUserProfiles(installed, userPrefixes)
	}
	installedSet := make(map[string]bool, len(installed))
	for _, name := range installed {
		installedSet[name] = true
	}

	for _, name := range sortedKeys(desired) {
		data := desired[name]
		changed := true
		if installedSet[name] {
			if current, err := r.host.ReadProfile(name); err == nil && bytes.Equal(current, data) {
				changed = false
			}
		}
		if !changed {
			continue
		}
		kind := ActionInstall
		if installedSet[name] {
			kind = ActionUpdate
		}
		if !dryRun {
			if err := r.host.WriteProfile(name, data); err != nil {
				report.AddError(err)
				continue
			}
		}
		report.AddAction(kind, tier.String(), name)
		if !dryRun {
			if err := r.host.LoadProfile(ctx, name); err != nil {
				report.AddError(err)
				report.AddWarning("profile %s not loaded; app runs unconfined", name)
				continue
			}
		}
		report.AddAction(ActionLoad, tier.String(), name)
	}

	for _, name := range installed {
		if _, ok := desired[name]; ok {
			continue
		}
		if !dryRun {
			if err := r.host.UnloadProfile(ctx, name); err != nil {
				report.AddError(err)
			}
			if err := r.host.RemoveProfile(name); err != nil {
				report.AddError(err)
				continue
			}
		}
		report.AddAction(ActionUnload, tier.String(), name)
		report.AddAction(ActionRemove, tier.String(), name)
	}
}

// withoutUserProfiles drops names that belong to a user-tier namespace from
// a system-tier listing; the bare "dotlnx-" prefix matches both.
func withoutUserProfiles(names, userPrefixes []string) []string {
	out := names[:0]
	for _, name := range names {
		owned := false
		for _, p := range userPrefixes {
			if strings.HasPrefix(name, p) {
				owned = true
				break
			}
		}
		if !owned {
			out = append(out, name)
		}
	}
	return out
}

func sortedKeys(m map[string][]byte) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
