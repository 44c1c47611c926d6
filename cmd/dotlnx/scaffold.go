package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// scaffoldOptions describes the bundle to generate.
type scaffoldOptions struct {
	Name      string
	Script    string // path to an executable script or binary
	AppImage  string // path to an AppImage
	OutputDir string
}

// slugify reduces an app name to a directory-friendly slug: lowercase
// alphanumerics with single hyphens.
func slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteByte('-')
		}
	}
	parts := strings.FieldsFunc(b.String(), func(r rune) bool { return r == '-' })
	slug := strings.Join(parts, "-")
	if slug == "" {
		return "app"
	}
	return slug
}

// appImagePattern derives a glob from an AppImage filename so the run script
// picks the newest of several versions: "Tool-1.2.0-x86_64.appimage" becomes
// "Tool-*-x86_64.appimage".
func appImagePattern(path string) string {
	name := filepath.Base(path)
	lower := strings.ToLower(name)
	if !strings.HasSuffix(lower, ".appimage") {
		return "*.appimage"
	}
	base := name[:len(name)-len(".appimage")]
	ext := name[len(base):]

	start := -1
	for i, r := range base {
		versionRune := (r >= '0' && r <= '9') || r == '.'
		if versionRune && start < 0 {
			start = i
			continue
		}
		if !versionRune && start >= 0 {
			return base[:start] + "*" + base[i:] + ext
		}
	}
	if start >= 0 {
		return base[:start] + "*" + ext
	}
	return "*.appimage"
}

// scaffold creates a ready-to-drop .lnx bundle and returns its path.
func scaffold(opts scaffoldOptions) (string, error) {
	if opts.Name == "" {
		return "", fmt.Errorf("a name is required")
	}
	if (opts.Script == "") == (opts.AppImage == "") {
		return "", fmt.Errorf("exactly one of a script or an AppImage is required")
	}

	root := filepath.Join(opts.OutputDir, slugify(opts.Name)+".lnx")
	if _, err := os.Stat(root); err == nil {
		return "", fmt.Errorf("bundle already exists: %s", root)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", err
	}

	var executable string
	if opts.Script != "" {
		executable = "bin/" + filepath.Base(opts.Script)
		if err := os.MkdirAll(filepath.Join(root, "bin"), 0o755); err != nil {
			return "", err
		}
		if err := copyExecutable(opts.Script, filepath.Join(root, executable)); err != nil {
			return "", err
		}
	} else {
		if err := copyExecutable(opts.AppImage, filepath.Join(root, filepath.Base(opts.AppImage))); err != nil {
			return "", err
		}
		executable = "run.sh"
		if err := writeRunScript(filepath.Join(root, executable), appImagePattern(opts.AppImage)); err != nil {
			return "", err
		}
	}

	cfg := fmt.Sprintf("name = %q\nexecutable = %q\n", opts.Name, executable)
	if err := os.WriteFile(filepath.Join(root, "config.toml"), []byte(cfg), 0o644); err != nil {
		return "", err
	}
	return root, nil
}

// writeRunScript emits a launcher that runs the newest AppImage matching the
// pattern, so dropping a newer version into the bundle needs no config edit.
func writeRunScript(path, pattern string) error {
	script := fmt.Sprintf(`#!/bin/sh
set -eu
cd "$(dirname "$0")"
img=$(ls -1 %s 2>/dev/null | sort -V | tail -n 1)
[ -n "$img" ] || { echo "no AppImage matching %s" >&2; exit 1; }
exec "./$img" "$@"
`, pattern, pattern)
	return os.WriteFile(path, []byte(script), 0o755)
}

func copyExecutable(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
