package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dotlnx-dev/dotlnx/internal/application/services"
	"github.com/dotlnx-dev/dotlnx/internal/infrastructure/host"
)

var syncDryRun bool

// syncCmd runs one reconciliation. The watcher invokes the same operation;
// this command exists for scripts, CI, and package hooks.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile bundles with menu entries and profiles once",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSync(cmd.Context(), syncDryRun)
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "only print what would be done")
}

// runSync executes one reconciliation and reports per-bundle outcomes. A
// non-nil return means at least one operation failed (exit code 1).
func runSync(ctx context.Context, dryRun bool) error {
	rec := services.NewReconciler(host.NewLocal())

	report, err := rec.Sync(ctx, dryRun)
	if err != nil {
		return err
	}

	for _, a := range report.Actions {
		slog.Info("action", "kind", string(a.Kind), "tier", a.Tier, "target", a.Target)
	}
	for _, w := range report.Warnings {
		slog.Warn(w)
	}
	for _, e := range report.Errors {
		slog.Error(e.Error())
	}
	slog.Info(report.Summary())

	if report.Failed() {
		return fmt.Errorf("%d operations failed", len(report.Errors))
	}
	return nil
}
