package values

import (
	"fmt"
	"strings"
)

// RelPath is a validated path relative to a bundle root. It can never be
// absolute and can never climb out of the bundle with "..".
type RelPath struct {
	value string
}

// NewRelPath creates a RelPath with validation.
func NewRelPath(p string) (RelPath, error) {
	if p == "" {
		return RelPath{}, fmt.Errorf("path must not be empty")
	}
	if strings.HasPrefix(p, "/") {
		return RelPath{}, fmt.Errorf("path %q must be relative to the bundle (no leading /)", p)
	}
	for _, part := range strings.Split(p, "/") {
		if part == ".." {
			return RelPath{}, fmt.Errorf("path %q must not contain ..", p)
		}
	}
	return RelPath{value: p}, nil
}

// MustNewRelPath creates a RelPath or panics (for tests/constants).
func MustNewRelPath(p string) RelPath {
	rp, err := NewRelPath(p)
	if err != nil {
		panic(err)
	}
	return rp
}

// String returns the relative path.
func (p RelPath) String() string {
	return p.value
}

// IsEmpty returns true if this is the zero value.
func (p RelPath) IsEmpty() bool {
	return p.value == ""
}

// Equals checks if two RelPaths are equal.
func (p RelPath) Equals(other RelPath) bool {
	return p.value == other.value
}
