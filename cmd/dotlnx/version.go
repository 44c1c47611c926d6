package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dotlnx-dev/dotlnx/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		info := version.Get()
		fmt.Printf("dotlnx %s (%s, built %s, %s, %s)\n",
			info.Version, info.Commit, info.BuildDate, info.GoVersion, info.Platform)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
