package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/dotlnx-dev/dotlnx/internal/application/errors"
	"github.com/dotlnx-dev/dotlnx/internal/domain/values"
)

// Validate applies the identity and path rules to a parsed bundle config and
// verifies the executable resolves inside the bundle root to an existing
// regular file with the executable bit set. The first violated rule is
// returned as a typed error; nil means the bundle is installable.
func Validate(b *Bundle, bundleRoot string) error {
	cfgPath := filepath.Join(bundleRoot, FileName)

	if b.Name == "" {
		return apperrors.NewConfigInvalidError(cfgPath, apperrors.KindMissingField, "name", "name is required")
	}
	if _, err := values.NewAppName(b.Name); err != nil {
		return apperrors.NewConfigInvalidError(cfgPath, apperrors.KindInvalidName, "name", err.Error())
	}

	if b.Executable == "" {
		return apperrors.NewConfigInvalidError(cfgPath, apperrors.KindMissingField, "executable", "executable is required")
	}
	if _, err := values.NewRelPath(b.Executable); err != nil {
		return apperrors.NewConfigInvalidError(cfgPath, apperrors.KindInvalidRelativePath, "executable", err.Error())
	}

	if b.WorkingDir != "" {
		if _, err := values.NewRelPath(b.WorkingDir); err != nil {
			return apperrors.NewConfigInvalidError(cfgPath, apperrors.KindInvalidRelativePath, "working_dir", err.Error())
		}
	}

	for i, entry := range b.Env {
		if _, err := values.NewEnvEntry(entry); err != nil {
			return apperrors.NewConfigInvalidError(cfgPath, apperrors.KindInvalidEnv, fmt.Sprintf("env[%d]", i), err.Error())
		}
	}

	for field, s := range map[string]string{"icon": b.Icon, "comment": b.Comment} {
		if err := checkDesktopString(s); err != nil {
			return apperrors.NewConfigInvalidError(cfgPath, apperrors.KindInvalidValue, field, err.Error())
		}
	}
	for i, c := range b.Categories {
		if err := checkDesktopString(c); err != nil {
			return apperrors.NewConfigInvalidError(cfgPath, apperrors.KindInvalidValue, fmt.Sprintf("categories[%d]", i), err.Error())
		}
	}

	if b.Security != nil {
		for i, p := range b.Security.ReadPaths {
			if _, err := values.NewHostPath(p); err != nil {
				return apperrors.NewConfigInvalidError(cfgPath, apperrors.KindInvalidAbsolutePath, fmt.Sprintf("security.read_paths[%d]", i), err.Error())
			}
		}
		for i, p := range b.Security.WritePaths {
			if _, err := values.NewHostPath(p); err != nil {
				return apperrors.NewConfigInvalidError(cfgPath, apperrors.KindInvalidAbsolutePath, fmt.Sprintf("security.write_paths[%d]", i), err.Error())
			}
		}
	}

	return validateExecutable(b, bundleRoot, cfgPath)
}

// validateExecutable checks the declared executable on disk: it must exist
// under the bundle root (after resolving symlinks), be a regular file, and be
// marked executable.
func validateExecutable(b *Bundle, bundleRoot, cfgPath string) error {
	execPath := filepath.Join(bundleRoot, b.Executable)

	info, err := os.Stat(execPath)
	if err != nil {
		return apperrors.NewConfigInvalidError(cfgPath, apperrors.KindExecutableNotFound, "executable",
			fmt.Sprintf("executable not found: %s", execPath))
	}
	if !info.Mode().IsRegular() {
		return apperrors.NewConfigInvalidError(cfgPath, apperrors.KindExecutableNotFound, "executable",
			fmt.Sprintf("executable is not a regular file: %s", execPath))
	}
	if info.Mode().Perm()&0o111 == 0 {
		return apperrors.NewConfigInvalidError(cfgPath, apperrors.KindExecutableNotFound, "executable",
			fmt.Sprintf("executable bit not set: %s", execPath))
	}

	if err := pathUnderRoot(execPath, bundleRoot); err != nil {
		return apperrors.NewConfigInvalidError(cfgPath, apperrors.KindInvalidRelativePath, "executable", err.Error())
	}
	return nil
}

// pathUnderRoot resolves symlinks on both sides and verifies the target is
// still inside the root.
func pathUnderRoot(target, root string) error {
	rootReal, err := filepath.EvalSymlinks(root)
	if err != nil {
		return fmt.Errorf("resolve bundle root: %w", err)
	}
	targetReal, err := filepath.EvalSymlinks(target)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", target, err)
	}
	if targetReal != rootReal && !strings.HasPrefix(targetReal, rootReal+string(filepath.Separator)) {
		return fmt.Errorf("%s resolves outside the bundle root", target)
	}
	return nil
}

// checkDesktopString rejects control characters in free-text desktop values.
// The generator would escape them, but a control character in an icon name or
// category is always an authoring mistake.
func checkDesktopString(s string) error {
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("must not contain control characters")
		}
	}
	return nil
}
