package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var verbose bool

// rootCmd is the application entry point.
var rootCmd = &cobra.Command{
	Use:   "dotlnx",
	Short: "Application-bundle manager for .lnx directories",
	Long: `dotlnx reconciles self-contained .lnx application bundles dropped into
the Applications directories with the host: each valid bundle gets a menu
entry and, where the host supports it, an AppArmor confinement profile.
Remove the bundle and the artifacts disappear again.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		setupLogging()
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Root overrides (DOTLNX_APPLICATIONS and friends) come straight from
	// the environment.
	viper.AutomaticEnv()

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

func setupLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	// Using TextHandler for CLI friendliness
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}
