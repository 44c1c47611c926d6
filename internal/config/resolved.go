package config

import (
	"path/filepath"

	"github.com/dotlnx-dev/dotlnx/internal/domain/entities"
	"github.com/dotlnx-dev/dotlnx/internal/domain/values"
)

// Resolved is a validated bundle config paired with its on-disk location and
// tier. It exists only for the duration of one reconciliation; the derived
// names below are the identity of every artifact the bundle owns.
type Resolved struct {
	Config *Bundle
	Path   string // absolute bundle root
	Tier   entities.Tier
}

// NewResolved pairs a validated config with its discovered bundle.
func NewResolved(cfg *Bundle, bundle entities.Bundle) Resolved {
	return Resolved{Config: cfg, Path: bundle.Path, Tier: bundle.Tier}
}

// ExecutableAbs is the bundle root joined with the executable path.
func (r Resolved) ExecutableAbs() string {
	return filepath.Join(r.Path, r.Config.Executable)
}

// WorkingDirAbs is the launch working directory; the bundle root when
// working_dir is unset.
func (r Resolved) WorkingDirAbs() string {
	if r.Config.WorkingDir == "" {
		return r.Path
	}
	return filepath.Join(r.Path, r.Config.WorkingDir)
}

// ProfileName is the tier prefix followed by the sanitized app name. It
// names the AppArmor profile and stems every managed filename.
func (r Resolved) ProfileName() string {
	return r.Tier.ProfilePrefix() + values.ProfileSegment(r.Config.Name)
}

// DesktopBasename is the managed menu entry filename.
func (r Resolved) DesktopBasename() string {
	return r.ProfileName() + ".desktop"
}

// ProfileFilename is the profile file name under the managed profile
// directory (no extension).
func (r Resolved) ProfileFilename() string {
	return r.ProfileName()
}

// Confined reports whether this app wants a profile.
func (r Resolved) Confined() bool {
	return r.Config.Confined()
}
