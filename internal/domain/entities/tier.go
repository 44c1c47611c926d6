// Package entities defines the core domain entities: installation tiers and
// discovered bundles.
package entities

import (
	"path/filepath"

	"github.com/dotlnx-dev/dotlnx/internal/domain/values"
)

// TierKind distinguishes per-user installations from host-wide ones.
type TierKind int

const (
	// TierUser installs into a single user's menu and profile namespace.
	TierUser TierKind = iota
	// TierSystem installs host-wide.
	TierSystem
)

// String returns the kind name.
func (k TierKind) String() string {
	if k == TierSystem {
		return "system"
	}
	return "user"
}

// Tier is the scope a bundle is installed at. It carries everything the
// reconciler needs to place artifacts: where bundles live, where menu entries
// go, and which profile namespace the tier owns.
type Tier struct {
	Kind            TierKind
	Username        string // empty for the system tier
	UID             int    // -1 for the system tier
	GID             int    // -1 for the system tier
	Home            string // empty for the system tier
	ApplicationsDir string
	MenuDir         string
}

// NewUserTier builds a user tier rooted at the given home directory.
// appsDir overrides the default <home>/Applications when non-empty.
func NewUserTier(username string, uid, gid int, home, appsDir string) Tier {
	if appsDir == "" {
		appsDir = filepath.Join(home, "Applications")
	}
	return Tier{
		Kind:            TierUser,
		Username:        username,
		UID:             uid,
		GID:             gid,
		Home:            home,
		ApplicationsDir: appsDir,
		MenuDir:         filepath.Join(home, ".local", "share", "applications"),
	}
}

// NewSystemTier builds the host-wide tier. appsDir overrides the default
// /Applications when non-empty.
func NewSystemTier(appsDir string) Tier {
	if appsDir == "" {
		appsDir = "/Applications"
	}
	return Tier{
		Kind:            TierSystem,
		UID:             -1,
		GID:             -1,
		ApplicationsDir: appsDir,
		MenuDir:         "/usr/share/applications",
	}
}

// ProfilePrefix is the managed profile namespace of this tier:
// "dotlnx-<username>-" for user tiers, "dotlnx-" for the system tier.
// The username is sanitized the same way app names are, so a prefix can
// never contain profile-grammar metacharacters.
func (t Tier) ProfilePrefix() string {
	if t.Kind == TierSystem {
		return "dotlnx-"
	}
	return "dotlnx-" + values.ProfileSegment(t.Username) + "-"
}

// String names the tier for logs.
func (t Tier) String() string {
	if t.Kind == TierSystem {
		return "system"
	}
	return "user:" + t.Username
}

// Bundle is a discovered application bundle: an absolute .lnx directory path
// paired with the tier it was found under. Its configuration has not been
// parsed yet.
type Bundle struct {
	Path string
	Tier Tier
}

// Name returns the final path component of the bundle directory.
func (b Bundle) Name() string {
	return filepath.Base(b.Path)
}
