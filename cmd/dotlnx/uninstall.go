package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dotlnx-dev/dotlnx/internal/bundle"
	"github.com/dotlnx-dev/dotlnx/internal/domain/values"
	"github.com/dotlnx-dev/dotlnx/internal/infrastructure/host"
)

// uninstallCmd removes managed artifacts for an app by name. The bundle
// directory itself is left alone; normally removing the bundle is enough and
// the watcher cleans up, this command covers hosts without the watcher.
var uninstallCmd = &cobra.Command{
	Use:   "uninstall <name>",
	Short: "Remove menu entry and profile for an app (keeps the bundle)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUninstall(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(uninstallCmd)
}

func runUninstall(ctx context.Context, name string) error {
	appName, err := values.NewAppName(name)
	if err != nil {
		return err
	}

	tiers, err := bundle.Tiers()
	if err != nil {
		return err
	}

	h := host.NewLocal()
	canUnload := h.HaveAppArmor() && h.IsRoot()

	for _, tier := range tiers {
		profileName := tier.ProfilePrefix() + appName.ProfileSegment()
		basename := profileName + ".desktop"

		// Only touch the entry if it is in the managed set.
		installed, err := h.ListDesktop(tier)
		if err != nil {
			return err
		}
		for _, have := range installed {
			if have != basename {
				continue
			}
			if err := h.RemoveDesktop(tier, basename); err != nil {
				return err
			}
			slog.Info("removed menu entry", "tier", tier.String(), "desktop", basename)
		}

		if !h.IsRoot() {
			continue
		}
		if canUnload {
			if err := h.UnloadProfile(ctx, profileName); err != nil {
				slog.Warn("could not unload profile", "profile", profileName, "error", err)
			}
		}
		if err := h.RemoveProfile(profileName); err != nil {
			return err
		}
	}
	return nil
}
