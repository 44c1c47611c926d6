package bundle

import (
	"os"
	"os/user"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"

	"github.com/dotlnx-dev/dotlnx/internal/domain/entities"
)

// Environment keys recognized for overriding the Applications roots.
const (
	EnvUserApplications   = "DOTLNX_APPLICATIONS"
	EnvSystemApplications = "DOTLNX_SYSTEM_APPLICATIONS"
	EnvSudoUser           = "SUDO_USER"
)

func init() {
	// Overrides are plain environment variables; no config file is involved.
	viper.AutomaticEnv()
}

// UserAppsOverride returns $DOTLNX_APPLICATIONS, or "" for the default.
func UserAppsOverride() string {
	return viper.GetString(EnvUserApplications)
}

// SystemAppsOverride returns $DOTLNX_SYSTEM_APPLICATIONS, or "" for the
// default.
func SystemAppsOverride() string {
	return viper.GetString(EnvSystemApplications)
}

// Tiers resolves the set of tiers this invocation reconciles, user tiers
// first:
//   - non-root: the current user only;
//   - root with SUDO_USER: that user, plus the system tier;
//   - root without SUDO_USER (daemon): every home under /home with an
//     Applications directory, /root, plus the system tier.
func Tiers() ([]entities.Tier, error) {
	if os.Geteuid() != 0 {
		u, err := user.Current()
		if err != nil {
			return nil, err
		}
		return []entities.Tier{userTier(u, UserAppsOverride())}, nil
	}

	var tiers []entities.Tier
	if sudoUser := viper.GetString(EnvSudoUser); sudoUser != "" {
		u, err := user.Lookup(sudoUser)
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, userTier(u, UserAppsOverride()))
	} else {
		tiers = append(tiers, daemonUserTiers()...)
	}
	tiers = append(tiers, entities.NewSystemTier(SystemAppsOverride()))
	return tiers, nil
}

// daemonUserTiers enumerates user tiers for the root watcher: /root plus
// every directory under /home whose Applications directory exists.
func daemonUserTiers() []entities.Tier {
	var tiers []entities.Tier

	if root, err := user.Lookup("root"); err == nil {
		tiers = append(tiers, userTier(root, ""))
	} else {
		tiers = append(tiers, entities.NewUserTier("root", 0, 0, "/root", ""))
	}

	dirents, err := os.ReadDir("/home")
	if err != nil {
		return tiers
	}
	for _, d := range dirents {
		if !d.IsDir() {
			continue
		}
		home := filepath.Join("/home", d.Name())
		if _, err := os.Stat(filepath.Join(home, "Applications")); err != nil {
			continue
		}
		if u, err := user.Lookup(d.Name()); err == nil {
			tiers = append(tiers, userTier(u, ""))
		} else {
			tiers = append(tiers, entities.NewUserTier(d.Name(), -1, -1, home, ""))
		}
	}
	return tiers
}

func userTier(u *user.User, appsDir string) entities.Tier {
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		uid = -1
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		gid = -1
	}
	return entities.NewUserTier(u.Username, uid, gid, u.HomeDir, appsDir)
}

// WatchRoots returns the directories the watcher registers: every tier's
// Applications directory, plus /home when running as root without
// SUDO_USER, so the appearance of a new user's Applications directory is
// noticed without a restart. In the other modes no parent directory is
// added; only the tier directories themselves are returned.
func WatchRoots(tiers []entities.Tier) []string {
	roots := make([]string, 0, len(tiers)+1)
	for _, t := range tiers {
		roots = append(roots, t.ApplicationsDir)
	}
	if os.Geteuid() == 0 && viper.GetString(EnvSudoUser) == "" {
		roots = append(roots, "/home")
	}
	return roots
}
