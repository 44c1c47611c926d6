package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dotlnx-dev/dotlnx/internal/application/services"
	"github.com/dotlnx-dev/dotlnx/internal/bundle"
	"github.com/dotlnx-dev/dotlnx/internal/infrastructure/host"
	"github.com/dotlnx-dev/dotlnx/internal/watcher"
)

var watchOnce bool

// watchCmd is the long-running mode the systemd unit starts: watch the
// Applications roots and reconcile on change.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch Applications directories and reconcile on change",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runWatch(cmd.Context(), watchOnce)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "run one full sync then exit")
}

func runWatch(ctx context.Context, once bool) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rec := services.NewReconciler(host.NewLocal())

	syncFn := func(ctx context.Context) error {
		report, err := rec.Sync(ctx, false)
		if err != nil {
			return err
		}
		for _, w := range report.Warnings {
			slog.Warn(w)
		}
		for _, e := range report.Errors {
			slog.Error(e.Error())
		}
		return nil
	}

	roots := func() ([]string, error) {
		tiers, err := bundle.Tiers()
		if err != nil {
			return nil, err
		}
		return bundle.WatchRoots(tiers), nil
	}

	return watcher.New(syncFn, roots).Run(ctx, once)
}
