// Package ports defines the interfaces the application layer consumes.
// Adapters in internal/infrastructure implement them; tests substitute
// fakes so the whole suite runs without root and without AppArmor.
package ports

import (
	"context"

	"github.com/dotlnx-dev/dotlnx/internal/domain/entities"
)

// Host encapsulates every side effect of a reconciliation: the tier menu
// directories, the managed profile directory, and the profile loader tool.
//
// Write operations are atomic replaces: after a successful return either the
// previous content or the new content is fully present, never a partial
// write. List operations only ever report artifacts inside the managed
// namespace (prefix plus, for desktop entries, the ownership marker);
// everything else on the host is invisible through this interface.
type Host interface {
	// ListDesktop returns the managed desktop basenames in the tier's menu
	// directory.
	ListDesktop(tier entities.Tier) ([]string, error)
	// ReadDesktop returns the current content of a managed desktop entry.
	ReadDesktop(tier entities.Tier, basename string) ([]byte, error)
	// WriteDesktop atomically replaces a managed desktop entry.
	WriteDesktop(tier entities.Tier, basename string, data []byte) error
	// RemoveDesktop deletes a managed desktop entry.
	RemoveDesktop(tier entities.Tier, basename string) error

	// ListProfiles returns profile filenames in the managed profile
	// directory that carry the given tier prefix.
	ListProfiles(prefix string) ([]string, error)
	// ReadProfile returns the current content of a managed profile file.
	ReadProfile(filename string) ([]byte, error)
	// WriteProfile atomically replaces a managed profile file.
	WriteProfile(filename string, data []byte) error
	// RemoveProfile deletes a managed profile file.
	RemoveProfile(filename string) error
	// LoadProfile replaces the kernel profile from its file
	// (apparmor_parser -r).
	LoadProfile(ctx context.Context, filename string) error
	// UnloadProfile removes the kernel profile (apparmor_parser -R).
	UnloadProfile(ctx context.Context, profileName string) error

	// HaveAppArmor reports whether the host can load profiles at all.
	HaveAppArmor() bool
	// IsRoot reports whether the process runs with root authority.
	IsRoot() bool

	// Lock acquires the host-wide advisory sync lock. The returned release
	// must be called when the run finishes.
	Lock() (release func(), err error)
}
