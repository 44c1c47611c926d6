package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/dotlnx-dev/dotlnx/internal/bundle"
	"github.com/dotlnx-dev/dotlnx/internal/domain/values"
)

var (
	createName          string
	createScript        string
	createAppImage      string
	createOutput        string
	createNoInteractive bool
)

// createCmd scaffolds a new bundle from an existing script, binary, or
// AppImage. With flags omitted it asks interactively.
var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Scaffold a .lnx bundle from a script or AppImage",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return runCreate()
	},
}

func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().StringVar(&createName, "name", "", "app name (menu display name)")
	createCmd.Flags().StringVar(&createScript, "script", "", "path to an executable script or binary")
	createCmd.Flags().StringVar(&createAppImage, "appimage", "", "path to an AppImage")
	createCmd.Flags().StringVarP(&createOutput, "output", "o", "", "directory to create the bundle in (default: your Applications directory)")
	createCmd.Flags().BoolVar(&createNoInteractive, "no-interactive", false, "fail instead of prompting for missing values")
}

func runCreate() error {
	opts := scaffoldOptions{
		Name:      createName,
		Script:    createScript,
		AppImage:  createAppImage,
		OutputDir: createOutput,
	}

	if !createNoInteractive {
		if opts.Name == "" {
			if err := huh.NewInput().
				Title("App name").
				Description("Shown in the menu; also names the confinement profile").
				Value(&opts.Name).
				Run(); err != nil {
				return err
			}
		}

		if opts.Script == "" && opts.AppImage == "" {
			var kind string
			if err := huh.NewSelect[string]().
				Title("What are you bundling?").
				Options(
					huh.NewOption("A script or binary", "script"),
					huh.NewOption("An AppImage", "appimage"),
				).
				Value(&kind).
				Run(); err != nil {
				return err
			}

			var path string
			if err := huh.NewInput().
				Title("Path to the file").
				Value(&path).
				Run(); err != nil {
				return err
			}
			if kind == "appimage" {
				opts.AppImage = path
			} else {
				opts.Script = path
			}
		}
	}

	if _, err := values.NewAppName(opts.Name); err != nil {
		return err
	}
	if opts.OutputDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		if override := bundle.UserAppsOverride(); override != "" {
			opts.OutputDir = override
		} else {
			opts.OutputDir = home + "/Applications"
		}
	}

	root, err := scaffold(opts)
	if err != nil {
		return err
	}
	fmt.Printf("created %s\n", root)
	fmt.Println("run `dotlnx sync` (or let the watcher pick it up) to install it")
	return nil
}
