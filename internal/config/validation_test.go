package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/dotlnx-dev/dotlnx/internal/application/errors"
)

// makeBundle creates a bundle directory with an executable at the given
// relative path and returns the bundle root.
func makeBundle(t *testing.T, executable string) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "myapp.lnx")
	require.NoError(t, os.MkdirAll(filepath.Join(root, filepath.Dir(executable)), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, executable), []byte("#!/bin/sh\nexit 0\n"), 0o755))
	return root
}

func validConfig() *Bundle {
	return &Bundle{Name: "myapp", Executable: "bin/myapp"}
}

func Test_Validate_OK(t *testing.T) {
	root := makeBundle(t, "bin/myapp")

	assert.NoError(t, Validate(validConfig(), root))
}

func Test_Validate_Rules(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Bundle)
		wantKind apperrors.InvalidKind
	}{
		{"missing name", func(b *Bundle) { b.Name = "" }, apperrors.KindMissingField},
		{"name with slash", func(b *Bundle) { b.Name = "a/b" }, apperrors.KindInvalidName},
		{"name with semicolon", func(b *Bundle) { b.Name = "a;b" }, apperrors.KindInvalidName},
		{"name with dotdot", func(b *Bundle) { b.Name = "a..b" }, apperrors.KindInvalidName},
		{"name with newline", func(b *Bundle) { b.Name = "a\nb" }, apperrors.KindInvalidName},
		{"missing executable", func(b *Bundle) { b.Executable = "" }, apperrors.KindMissingField},
		{"absolute executable", func(b *Bundle) { b.Executable = "/bin/sh" }, apperrors.KindInvalidRelativePath},
		{"executable escapes bundle", func(b *Bundle) { b.Executable = "../myapp" }, apperrors.KindInvalidRelativePath},
		{"working_dir escapes bundle", func(b *Bundle) { b.WorkingDir = "../elsewhere" }, apperrors.KindInvalidRelativePath},
		{"bad env entry", func(b *Bundle) { b.Env = []string{"NO_EQUALS"} }, apperrors.KindInvalidEnv},
		{"bad env key", func(b *Bundle) { b.Env = []string{"1X=y"} }, apperrors.KindInvalidEnv},
		{"icon with control char", func(b *Bundle) { b.Icon = "ic\x01on" }, apperrors.KindInvalidValue},
		{"category with control char", func(b *Bundle) { b.Categories = []string{"Uti\tlity"} }, apperrors.KindInvalidValue},
		{"relative read path", func(b *Bundle) {
			b.Security = &Security{ReadPaths: []string{"tmp/x"}}
		}, apperrors.KindInvalidAbsolutePath},
		{"read path with hash", func(b *Bundle) {
			b.Security = &Security{ReadPaths: []string{"/tmp/#x"}}
		}, apperrors.KindInvalidAbsolutePath},
		{"write path with dotdot", func(b *Bundle) {
			b.Security = &Security{WritePaths: []string{"/tmp/../etc"}}
		}, apperrors.KindInvalidAbsolutePath},
		{"write path with newline", func(b *Bundle) {
			b.Security = &Security{WritePaths: []string{"/tmp/a\nb"}}
		}, apperrors.KindInvalidAbsolutePath},
		{"empty write path", func(b *Bundle) {
			b.Security = &Security{WritePaths: []string{""}}
		}, apperrors.KindInvalidAbsolutePath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := makeBundle(t, "bin/myapp")
			cfg := validConfig()
			tt.mutate(cfg)

			err := Validate(cfg, root)

			var invalid *apperrors.ConfigInvalidError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.wantKind, invalid.Kind)
		})
	}
}

func Test_Validate_ExecutableMissing(t *testing.T) {
	root := makeBundle(t, "bin/myapp")
	cfg := validConfig()
	cfg.Executable = "bin/other"

	err := Validate(cfg, root)

	var invalid *apperrors.ConfigInvalidError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, apperrors.KindExecutableNotFound, invalid.Kind)
}

func Test_Validate_ExecutableNotExecutable(t *testing.T) {
	root := makeBundle(t, "bin/myapp")
	require.NoError(t, os.Chmod(filepath.Join(root, "bin/myapp"), 0o644))

	err := Validate(validConfig(), root)

	var invalid *apperrors.ConfigInvalidError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, apperrors.KindExecutableNotFound, invalid.Kind)
}

func Test_Validate_ExecutableIsDirectory(t *testing.T) {
	root := makeBundle(t, "bin/myapp")
	cfg := validConfig()
	cfg.Executable = "bin"

	err := Validate(cfg, root)

	var invalid *apperrors.ConfigInvalidError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, apperrors.KindExecutableNotFound, invalid.Kind)
}

func Test_Validate_SymlinkOutsideBundle(t *testing.T) {
	outside := filepath.Join(t.TempDir(), "victim")
	require.NoError(t, os.WriteFile(outside, []byte("#!/bin/sh\n"), 0o755))

	root := filepath.Join(t.TempDir(), "myapp.lnx")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "bin"), 0o755))
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "bin", "myapp")))

	err := Validate(validConfig(), root)

	var invalid *apperrors.ConfigInvalidError
	require.ErrorAs(t, err, &invalid)
}
