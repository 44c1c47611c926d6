package apparmor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dotlnx-dev/dotlnx/internal/config"
	"github.com/dotlnx-dev/dotlnx/internal/domain/entities"
)

func resolvedApp(cfg *config.Bundle, path string) config.Resolved {
	tier := entities.NewUserTier("alice", 1000, 1000, "/home/alice", "")
	return config.NewResolved(cfg, entities.Bundle{Path: path, Tier: tier})
}

func Test_Render_Minimal(t *testing.T) {
	app := resolvedApp(&config.Bundle{Name: "myapp", Executable: "bin/myapp"},
		"/home/alice/Applications/myapp.lnx")

	out := string(Render(app))

	assert.Contains(t, out, "# dotlnx managed profile for myapp\n")
	assert.Contains(t, out, "include <tunables/global>\n")
	assert.Contains(t, out,
		"profile dotlnx-alice-myapp /home/alice/Applications/myapp.lnx/bin/myapp {\n")
	assert.Contains(t, out, "include <abstractions/base>\n")
	assert.Contains(t, out, "/home/alice/Applications/myapp.lnx/ r,\n")
	assert.Contains(t, out, "/home/alice/Applications/myapp.lnx/** r,\n")
	assert.Contains(t, out, "/home/alice/Applications/myapp.lnx/bin/myapp rix,\n")
	assert.Contains(t, out, "deny /home/alice/Applications/myapp.lnx/** w,\n")
	assert.NotContains(t, out, "network")
	assert.True(t, strings.HasSuffix(out, "}\n"))
}

func Test_Render_ReadWritePaths(t *testing.T) {
	app := resolvedApp(&config.Bundle{
		Name:       "myapp",
		Executable: "bin/myapp",
		Security: &config.Security{
			ReadPaths:  []string{"/usr/share/themes/", "/etc/myapp.conf"},
			WritePaths: []string{"/var/cache/myapp/", "/tmp/myapp.sock"},
		},
	}, "/Applications/myapp.lnx")

	out := string(Render(app))

	assert.Contains(t, out, "  /usr/share/themes/ r,\n")
	assert.Contains(t, out, "  /usr/share/themes/** r,\n")
	assert.Contains(t, out, "  /etc/myapp.conf r,\n")
	assert.NotContains(t, out, "/etc/myapp.conf** ")
	assert.Contains(t, out, "  /var/cache/myapp/ rw,\n")
	assert.Contains(t, out, "  /var/cache/myapp/** rw,\n")
	assert.Contains(t, out, "  /tmp/myapp.sock rw,\n")
}

func Test_Render_Network(t *testing.T) {
	app := resolvedApp(&config.Bundle{
		Name:       "myapp",
		Executable: "bin/myapp",
		Security:   &config.Security{Network: true},
	}, "/Applications/myapp.lnx")

	out := string(Render(app))

	assert.Contains(t, out, "network inet stream,\n")
	assert.Contains(t, out, "network inet6 stream,\n")
}

func Test_Render_CapabilitiesSuppressed(t *testing.T) {
	app := resolvedApp(&config.Bundle{
		Name:       "myapp",
		Executable: "bin/myapp",
		Security:   &config.Security{Capabilities: []string{"net_bind_service"}},
	}, "/Applications/myapp.lnx")

	out := string(Render(app))

	assert.NotContains(t, out, "capability")
	assert.NotContains(t, out, "net_bind_service")
}

func Test_Render_EscapesMetacharacters(t *testing.T) {
	app := resolvedApp(&config.Bundle{Name: "My App", Executable: "run.sh"},
		"/home/alice/Applications/My App.lnx")

	out := string(Render(app))

	assert.Contains(t, out, `/home/alice/Applications/My\ App.lnx/ r,`)
	assert.Contains(t, out, "profile dotlnx-alice-My_App ")
}

func Test_Render_EscapesPatternChars(t *testing.T) {
	app := resolvedApp(&config.Bundle{
		Name:       "myapp",
		Executable: "bin/myapp",
		Security:   &config.Security{ReadPaths: []string{"/data/[set]/{a}/x^y"}},
	}, "/Applications/myapp.lnx")

	out := string(Render(app))

	assert.Contains(t, out, `/data/\[set\]/\{a\}/x\^y r,`)
}

func Test_Render_Deterministic(t *testing.T) {
	app := resolvedApp(&config.Bundle{
		Name:       "myapp",
		Executable: "bin/myapp",
		Security: &config.Security{
			ReadPaths:  []string{"/a", "/b/"},
			WritePaths: []string{"/c"},
			Network:    true,
		},
	}, "/Applications/myapp.lnx")

	assert.Equal(t, Render(app), Render(app))
}
