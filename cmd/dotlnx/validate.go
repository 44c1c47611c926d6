package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dotlnx-dev/dotlnx/internal/bundle"
	"github.com/dotlnx-dev/dotlnx/internal/config"
	"github.com/dotlnx-dev/dotlnx/internal/domain/entities"
)

// validateCmd checks bundles without touching the host, so authors can
// verify a bundle before distributing it.
var validateCmd = &cobra.Command{
	Use:   "validate <path>",
	Short: "Validate a .lnx bundle or a directory of bundles",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return runValidate(args[0])
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(path string) error {
	var roots []string
	if bundle.IsBundle(path) {
		roots = []string{path}
	} else {
		// Treat the path as a directory of bundles.
		found, err := bundle.Discover(entities.Tier{ApplicationsDir: path})
		if err != nil {
			return err
		}
		for _, b := range found {
			roots = append(roots, b.Path)
		}
	}
	if len(roots) == 0 {
		return fmt.Errorf("no .lnx bundles found at %s", path)
	}

	failed := 0
	for _, root := range roots {
		cfg, err := config.Load(root)
		if err == nil {
			err = config.Validate(cfg, root)
		}
		if err != nil {
			failed++
			slog.Error("invalid bundle", "bundle", root, "error", err)
			continue
		}
		slog.Info("bundle ok", "bundle", root, "name", cfg.Name)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d bundles invalid", failed, len(roots))
	}
	return nil
}
