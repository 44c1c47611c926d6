package desktop

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotlnx-dev/dotlnx/internal/config"
	"github.com/dotlnx-dev/dotlnx/internal/domain/entities"
)

func resolvedApp(t *testing.T, cfg *config.Bundle) config.Resolved {
	t.Helper()
	tier := entities.NewUserTier("alice", 1000, 1000, "/home/alice", "")
	bundle := entities.Bundle{Path: "/home/alice/Applications/myapp.lnx", Tier: tier}
	return config.NewResolved(cfg, bundle)
}

func line(t *testing.T, data []byte, key string) string {
	t.Helper()
	for _, l := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(l, key+"=") {
			return strings.TrimPrefix(l, key+"=")
		}
	}
	t.Fatalf("key %s not found in:\n%s", key, data)
	return ""
}

func Test_Render_Minimal(t *testing.T) {
	app := resolvedApp(t, &config.Bundle{Name: "myapp", Executable: "bin/myapp"})

	out := Render(app, false)

	assert.True(t, strings.HasPrefix(string(out), "[Desktop Entry]\n"))
	assert.Equal(t, "Application", line(t, out, "Type"))
	assert.Equal(t, "myapp", line(t, out, "Name"))
	assert.Equal(t, "/home/alice/Applications/myapp.lnx/bin/myapp %u", line(t, out, "Exec"))
	assert.Equal(t, "false", line(t, out, "Terminal"))
	assert.Equal(t, "true", line(t, out, KeyManaged))
	assert.Equal(t, "/home/alice/Applications/myapp.lnx", line(t, out, KeyBundle))
	assert.NotContains(t, string(out), "Icon=")
	assert.NotContains(t, string(out), "Comment=")
	assert.NotContains(t, string(out), "Path=")
}

func Test_Render_Confined_UsesAaExec(t *testing.T) {
	app := resolvedApp(t, &config.Bundle{Name: "myapp", Executable: "bin/myapp"})

	out := Render(app, true)

	assert.Equal(t,
		"aa-exec -p dotlnx-alice-myapp -- /home/alice/Applications/myapp.lnx/bin/myapp %u",
		line(t, out, "Exec"))
}

func Test_Render_EnvAndArgs(t *testing.T) {
	app := resolvedApp(t, &config.Bundle{
		Name:       "myapp",
		Executable: "bin/myapp",
		Args:       []string{"--flag", "value with space"},
		Env:        []string{"FOO=bar"},
	})

	out := Render(app, false)

	assert.Equal(t,
		`env FOO=bar /home/alice/Applications/myapp.lnx/bin/myapp --flag "value with space" %u`,
		line(t, out, "Exec"))
}

func Test_Render_ExecQuoting(t *testing.T) {
	app := resolvedApp(t, &config.Bundle{
		Name:       "myapp",
		Executable: "bin/myapp",
		Args:       []string{`a"b`, "c$d"},
	})

	out := Render(app, false)
	exec := line(t, out, "Exec")

	// The quoting backslash is itself escaped by the string-value escaping
	// that applies to every key, so the file holds two backslashes.
	assert.Contains(t, exec, `"a\\"b"`)
	assert.Contains(t, exec, `"c\\$d"`)
}

func Test_Render_OptionalKeys(t *testing.T) {
	app := resolvedApp(t, &config.Bundle{
		Name:       "myapp",
		Executable: "bin/myapp",
		WorkingDir: "data",
		Icon:       "theme-icon",
		Comment:    "A test app",
		Categories: []string{"Utility", "Development"},
		Terminal:   true,
	})

	out := Render(app, false)

	assert.Equal(t, "/home/alice/Applications/myapp.lnx/data", line(t, out, "Path"))
	assert.Equal(t, "theme-icon", line(t, out, "Icon"))
	assert.Equal(t, "A test app", line(t, out, "Comment"))
	assert.Equal(t, "Utility;Development;", line(t, out, "Categories"))
	assert.Equal(t, "true", line(t, out, "Terminal"))
}

func Test_Render_KeyOrderStable(t *testing.T) {
	app := resolvedApp(t, &config.Bundle{
		Name:       "myapp",
		Executable: "bin/myapp",
		Icon:       "i",
		Comment:    "c",
		Categories: []string{"Utility"},
	})

	out := string(Render(app, true))
	keys := []string{"Type=", "Name=", "Exec=", "Icon=", "Comment=", "Categories=", "Terminal=", KeyManaged + "=", KeyBundle + "="}

	last := -1
	for _, k := range keys {
		idx := strings.Index(out, k)
		require.GreaterOrEqual(t, idx, 0, "missing key %s", k)
		assert.Greater(t, idx, last, "key %s out of order", k)
		last = idx
	}
}

func Test_Render_Deterministic(t *testing.T) {
	app := resolvedApp(t, &config.Bundle{
		Name:       "myapp",
		Executable: "bin/myapp",
		Args:       []string{"--x"},
		Env:        []string{"A=1", "B=2"},
		Categories: []string{"Utility"},
	})

	assert.Equal(t, Render(app, true), Render(app, true))
	assert.Equal(t, Render(app, false), Render(app, false))
}

func Test_Render_EscapesValues(t *testing.T) {
	app := resolvedApp(t, &config.Bundle{
		Name:       "myapp",
		Executable: "bin/myapp",
		Comment:    `back\slash`,
	})

	out := Render(app, false)

	assert.Equal(t, `back\\slash`, line(t, out, "Comment"))
}

func Test_Render_ResolvesBundleIcon(t *testing.T) {
	root := filepath.Join(t.TempDir(), "myapp.lnx")
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "icon.png"), []byte("png"), 0o644))

	tier := entities.NewUserTier("alice", 1000, 1000, "/home/alice", "")
	app := config.NewResolved(
		&config.Bundle{Name: "myapp", Executable: "run.sh", Icon: "icon.png"},
		entities.Bundle{Path: root, Tier: tier},
	)

	out := Render(app, false)

	assert.Equal(t, filepath.Join(root, "icon.png"), line(t, out, "Icon"))
}

func Test_IsManaged(t *testing.T) {
	app := resolvedApp(t, &config.Bundle{Name: "myapp", Executable: "bin/myapp"})

	assert.True(t, IsManaged(Render(app, false)))
	assert.False(t, IsManaged([]byte("[Desktop Entry]\nType=Application\nName=other\n")))
}
