// Package desktop renders freedesktop menu entries for resolved bundles.
// Output is byte-deterministic: fixed key order, fixed quoting. Ownership of
// a generated file is marked with the X-DotLnx-Managed key so the reconciler
// never touches entries written by anything else.
package desktop

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/dotlnx-dev/dotlnx/internal/config"
)

// Ownership marker keys.
const (
	KeyManaged = "X-DotLnx-Managed"
	KeyBundle  = "X-DotLnx-Bundle"
)

// Render produces the desktop entry for an app. confined selects the
// aa-exec launch form and must only be true when the reconciler is actually
// loading the profile, otherwise the menu entry would point at a profile
// that does not exist.
func Render(app config.Resolved, confined bool) []byte {
	var buf bytes.Buffer

	buf.WriteString("[Desktop Entry]\n")
	writeKey(&buf, "Type", "Application")
	writeKey(&buf, "Name", app.Config.Name)
	writeKey(&buf, "Exec", execLine(app, confined))
	if app.Config.WorkingDir != "" {
		writeKey(&buf, "Path", app.WorkingDirAbs())
	}
	if app.Config.Icon != "" {
		writeKey(&buf, "Icon", resolveIcon(app.Config.Icon, app.Path))
	}
	if app.Config.Comment != "" {
		writeKey(&buf, "Comment", app.Config.Comment)
	}
	if len(app.Config.Categories) > 0 {
		writeKey(&buf, "Categories", strings.Join(app.Config.Categories, ";")+";")
	}
	if app.Config.Terminal {
		writeKey(&buf, "Terminal", "true")
	} else {
		writeKey(&buf, "Terminal", "false")
	}
	writeKey(&buf, KeyManaged, "true")
	writeKey(&buf, KeyBundle, app.Path)

	return buf.Bytes()
}

// IsManaged reports whether desktop-entry content carries the ownership
// marker.
func IsManaged(data []byte) bool {
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == KeyManaged+"=true" {
			return true
		}
	}
	return false
}

// execLine builds the Exec value: an optional inline env invocation, the
// aa-exec transition when confined, the absolute executable, the configured
// args, and a %u field code so launchers can hand over URLs.
func execLine(app config.Resolved, confined bool) string {
	var parts []string

	if len(app.Config.Env) > 0 {
		parts = append(parts, "env")
		for _, e := range app.Config.Env {
			parts = append(parts, quoteExecArg(e))
		}
	}
	if confined {
		parts = append(parts, "aa-exec", "-p", quoteExecArg(app.ProfileName()), "--")
	}
	parts = append(parts, quoteExecArg(app.ExecutableAbs()))
	for _, a := range app.Config.Args {
		parts = append(parts, quoteExecArg(a))
	}
	parts = append(parts, "%u")

	return strings.Join(parts, " ")
}

// quoteExecArg formats one Exec argument per the Desktop Entry spec: when
// the argument contains a reserved character it is wrapped in double quotes
// with `\`, `"`, "`" and `$` backslash-escaped.
func quoteExecArg(s string) string {
	if !strings.ContainsAny(s, " \t\"'\\`$<>~|&;*?#()") && s != "" {
		return s
	}
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\', '"', '`', '$':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}

// writeKey emits one Key=Value line with value escaping.
func writeKey(buf *bytes.Buffer, key, value string) {
	buf.WriteString(key)
	buf.WriteByte('=')
	buf.WriteString(escapeValue(value))
	buf.WriteByte('\n')
}

// escapeValue escapes a desktop-entry value: backslash, newline, tab and
// carriage return get their spec escapes, leading spaces become \s, and any
// other control character is replaced with a space so it can never inject a
// key.
func escapeValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	leading := true
	for _, r := range s {
		if r == ' ' && leading {
			b.WriteString(`\s`)
			continue
		}
		leading = false
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\r':
			b.WriteString(`\r`)
		case r < 0x20 || r == 0x7f:
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// resolveIcon turns a bundle-relative icon path into an absolute one when it
// points at an existing file, so the menu can load it. Theme names and
// absolute paths pass through untouched.
func resolveIcon(icon, bundleRoot string) string {
	if strings.HasPrefix(icon, "/") {
		return icon
	}
	resolved := filepath.Join(bundleRoot, icon)
	if info, err := os.Stat(resolved); err == nil && info.Mode().IsRegular() {
		return resolved
	}
	return icon
}
