// Package apparmor renders confinement profiles for resolved bundles. The
// validator guarantees emitted path literals contain no "#", "..", or
// newlines; this package additionally escapes pattern metacharacters so a
// path can never widen its own rule.
package apparmor

import (
	"bytes"
	"strings"

	"github.com/dotlnx-dev/dotlnx/internal/config"
)

// Render produces the profile text for a confined app. The profile is
// attached to the absolute executable path and named after the app's managed
// profile name. The executable file itself is rix: aa-exec transitions the
// process to the profile before execve, so the profile must permit executing
// itself. No other file in the bundle gets an execute rule; the rest of the
// bundle tree is read-only.
func Render(app config.Resolved) []byte {
	bundleRoot := strings.TrimSuffix(app.Path, "/")
	execPath := app.ExecutableAbs()

	var buf bytes.Buffer
	buf.WriteString("# dotlnx managed profile for " + app.Config.Name + "\n")
	buf.WriteString("include <tunables/global>\n")
	buf.WriteString("profile " + app.ProfileName() + " " + escapePath(execPath) + " {\n")
	buf.WriteString("  include <abstractions/base>\n\n")

	// The bundle is readable, the executable runnable, nothing writable.
	buf.WriteString("  " + escapePath(bundleRoot) + "/ r,\n")
	buf.WriteString("  " + escapePath(bundleRoot) + "/** r,\n")
	buf.WriteString("  " + escapePath(execPath) + " rix,\n")
	buf.WriteString("  deny " + escapePath(bundleRoot) + "/** w,\n")

	if sec := app.Config.Security; sec != nil {
		if len(sec.ReadPaths) > 0 || len(sec.WritePaths) > 0 {
			buf.WriteByte('\n')
		}
		for _, p := range sec.ReadPaths {
			buf.WriteString("  " + escapePath(p) + " r,\n")
			if strings.HasSuffix(p, "/") {
				buf.WriteString("  " + escapePath(p) + "** r,\n")
			}
		}
		for _, p := range sec.WritePaths {
			buf.WriteString("  " + escapePath(p) + " rw,\n")
			if strings.HasSuffix(p, "/") {
				buf.WriteString("  " + escapePath(p) + "** rw,\n")
			}
		}
	}

	if app.Config.NetworkAllowed() {
		buf.WriteString("\n  network inet stream,\n")
		buf.WriteString("  network inet6 stream,\n")
	}

	// capability rules are reserved; accepted in config but not emitted.

	buf.WriteString("}\n")
	return buf.Bytes()
}

// escapePath backslash-escapes globbing and quoting metacharacters plus
// spaces in a path literal.
func escapePath(p string) string {
	var b strings.Builder
	b.Grow(len(p))
	for _, r := range p {
		switch r {
		case '[', ']', '{', '}', '^', '"', ' ':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
