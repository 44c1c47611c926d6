// Package values defines validated value objects for bundle identity and
// path rules. Every constructor rejects input that would break the generated
// desktop entry, the AppArmor profile grammar, or escape the bundle root.
package values

import (
	"fmt"
	"strings"
)

// AppName is a validated application name. It doubles as the menu display
// name and the suffix of the managed profile name.
type AppName struct {
	value string
}

// NewAppName creates an AppName with validation.
// Names must not contain path separators, "..", ";", or control characters.
func NewAppName(name string) (AppName, error) {
	if name == "" {
		return AppName{}, fmt.Errorf("app name must not be empty")
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return AppName{}, fmt.Errorf("app name %q must not contain path separators or ..", name)
	}
	if strings.Contains(name, ";") {
		return AppName{}, fmt.Errorf("app name %q must not contain ;", name)
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return AppName{}, fmt.Errorf("app name must not contain control characters")
		}
	}
	return AppName{value: name}, nil
}

// MustNewAppName creates an AppName or panics (for tests/constants).
func MustNewAppName(name string) AppName {
	n, err := NewAppName(name)
	if err != nil {
		panic(err)
	}
	return n
}

// String returns the raw name.
func (n AppName) String() string {
	return n.value
}

// IsEmpty returns true if this is the zero value.
func (n AppName) IsEmpty() bool {
	return n.value == ""
}

// Equals checks if two AppNames are equal.
func (n AppName) Equals(other AppName) bool {
	return n.value == other.value
}

// ProfileSegment returns the name reduced to characters safe inside an
// AppArmor profile name: alphanumerics, "-" and "_" are kept, everything
// else becomes "_".
func (n AppName) ProfileSegment() string {
	return ProfileSegment(n.value)
}

// ProfileSegment sanitizes an arbitrary string for use as one segment of a
// profile name. Shared by AppName and the per-user tier prefix.
func ProfileSegment(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
