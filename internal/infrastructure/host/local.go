// Package host implements the Host port against the local filesystem and
// the AppArmor userspace tools.
package host

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	apperrors "github.com/dotlnx-dev/dotlnx/internal/application/errors"
	"github.com/dotlnx-dev/dotlnx/internal/application/ports"
	"github.com/dotlnx-dev/dotlnx/internal/desktop"
	"github.com/dotlnx-dev/dotlnx/internal/domain/entities"
)

// DefaultProfileDir is the managed profile namespace on disk. Everything
// outside it is never read or written.
const DefaultProfileDir = "/etc/apparmor.d/dotlnx.d"

const parserBin = "apparmor_parser"

// Ensure Local implements the port at compile time.
var _ ports.Host = (*Local)(nil)

// Local is the production host adapter.
type Local struct {
	profileDir    string
	lockPath      string
	parserPath    string
	parserTimeout time.Duration
}

// Option configures a Local adapter.
type Option func(*Local)

// WithProfileDir overrides the managed profile directory (tests).
func WithProfileDir(dir string) Option {
	return func(l *Local) { l.profileDir = dir }
}

// WithLockPath overrides the advisory lock location (tests).
func WithLockPath(path string) Option {
	return func(l *Local) { l.lockPath = path }
}

// WithParserPath overrides the apparmor_parser binary (tests).
func WithParserPath(path string) Option {
	return func(l *Local) { l.parserPath = path }
}

// NewLocal creates the production adapter.
func NewLocal(opts ...Option) *Local {
	l := &Local{
		profileDir:    DefaultProfileDir,
		parserPath:    parserBin,
		parserTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ListDesktop returns managed desktop basenames: prefix match on the tier's
// profile namespace plus the ownership marker inside the file. Files without
// the marker belong to someone else and stay invisible.
func (l *Local) ListDesktop(tier entities.Tier) ([]string, error) {
	dirents, err := os.ReadDir(tier.MenuDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperrors.NewIoError("list", tier.MenuDir, err)
	}

	var out []string
	for _, d := range dirents {
		name := d.Name()
		if d.IsDir() || !strings.HasPrefix(name, tier.ProfilePrefix()) || !strings.HasSuffix(name, ".desktop") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(tier.MenuDir, name))
		if err != nil {
			continue
		}
		if desktop.IsManaged(data) {
			out = append(out, name)
		}
	}
	return out, nil
}

// ReadDesktop returns the current bytes of a desktop entry.
func (l *Local) ReadDesktop(tier entities.Tier, basename string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(tier.MenuDir, basename))
	if err != nil {
		return nil, apperrors.NewIoError("read", filepath.Join(tier.MenuDir, basename), err)
	}
	return data, nil
}

// WriteDesktop atomically replaces a managed desktop entry. An existing file
// at the target that does not carry the ownership marker is never replaced.
// When running as root into a user tier, the file (and a freshly created
// menu directory) are handed to the user.
func (l *Local) WriteDesktop(tier entities.Tier, basename string, data []byte) error {
	target := filepath.Join(tier.MenuDir, basename)

	if existing, err := os.ReadFile(target); err == nil && !desktop.IsManaged(existing) {
		return apperrors.NewPermissionError(target, "refusing to replace a desktop entry without the managed marker")
	}

	created := false
	if _, err := os.Stat(tier.MenuDir); os.IsNotExist(err) {
		created = true
	}
	if err := os.MkdirAll(tier.MenuDir, 0o755); err != nil {
		return apperrors.NewIoError("write", tier.MenuDir, err)
	}
	if created {
		l.chownToTier(tier.MenuDir, tier)
	}

	if err := atomicWrite(target, data); err != nil {
		return err
	}
	l.chownToTier(target, tier)
	return nil
}

// RemoveDesktop deletes a managed desktop entry. A missing file is fine: the
// desired state is already true.
func (l *Local) RemoveDesktop(tier entities.Tier, basename string) error {
	target := filepath.Join(tier.MenuDir, basename)
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return apperrors.NewIoError("remove", target, err)
	}
	return nil
}

// ListProfiles returns profile filenames under the managed profile directory
// carrying the given tier prefix.
func (l *Local) ListProfiles(prefix string) ([]string, error) {
	dirents, err := os.ReadDir(l.profileDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperrors.NewIoError("list", l.profileDir, err)
	}

	var out []string
	for _, d := range dirents {
		if d.IsDir() || !strings.HasPrefix(d.Name(), prefix) {
			continue
		}
		out = append(out, d.Name())
	}
	return out, nil
}

// ReadProfile returns the current bytes of a profile file.
func (l *Local) ReadProfile(filename string) ([]byte, error) {
	path := filepath.Join(l.profileDir, filename)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewIoError("read", path, err)
	}
	return data, nil
}

// WriteProfile atomically replaces a profile file, creating the managed
// directory on first use.
func (l *Local) WriteProfile(filename string, data []byte) error {
	if err := os.MkdirAll(l.profileDir, 0o755); err != nil {
		return apperrors.NewIoError("write", l.profileDir, err)
	}
	return atomicWrite(filepath.Join(l.profileDir, filename), data)
}

// RemoveProfile deletes a profile file; missing is fine.
func (l *Local) RemoveProfile(filename string) error {
	path := filepath.Join(l.profileDir, filename)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return apperrors.NewIoError("remove", path, err)
	}
	return nil
}

// LoadProfile replaces the kernel profile from its file.
func (l *Local) LoadProfile(ctx context.Context, filename string) error {
	return l.runParser(ctx, filename, "-r")
}

// UnloadProfile removes the kernel profile. The profile file itself is left
// for RemoveProfile; a file already gone means there is nothing to unload.
func (l *Local) UnloadProfile(ctx context.Context, profileName string) error {
	if _, err := os.Stat(filepath.Join(l.profileDir, profileName)); os.IsNotExist(err) {
		return nil
	}
	return l.runParser(ctx, profileName, "-R")
}

// runParser invokes apparmor_parser on a profile file with a hard
// per-invocation timeout.
func (l *Local) runParser(ctx context.Context, filename, flag string) error {
	ctx, cancel := context.WithTimeout(ctx, l.parserTimeout)
	defer cancel()

	path := filepath.Join(l.profileDir, filename)
	out, err := exec.CommandContext(ctx, l.parserPath, flag, path).CombinedOutput()
	if err != nil {
		return apperrors.NewProfileToolError(filename, strings.TrimSpace(string(out)), err)
	}
	return nil
}

// HaveAppArmor reports whether profiles can be loaded: the parser exists and
// the kernel exposes the AppArmor securityfs interface.
func (l *Local) HaveAppArmor() bool {
	if _, err := exec.LookPath(l.parserPath); err != nil {
		return false
	}
	_, err := os.Stat("/sys/kernel/security/apparmor")
	return err == nil
}

// IsRoot reports whether the process runs with effective uid 0.
func (l *Local) IsRoot() bool {
	return os.Geteuid() == 0
}

// Lock takes the host-wide advisory sync lock. Concurrent reconcilers on the
// same host are unsupported; a held lock fails the run.
func (l *Local) Lock() (func(), error) {
	path := l.lockPath
	if path == "" {
		path = defaultLockPath()
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, apperrors.NewIoError("lock", path, err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, apperrors.NewIoError("lock", path, err)
	}
	return func() {
		unix.Flock(int(f.Fd()), unix.LOCK_UN)
		f.Close()
	}, nil
}

func defaultLockPath() string {
	if os.Geteuid() == 0 {
		return "/run/dotlnx.lock"
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "dotlnx.lock")
	}
	return filepath.Join(os.TempDir(), "dotlnx.lock")
}

// chownToTier hands a path to the tier's user when running as root. Best
// effort: a failure leaves a root-owned file that is still readable.
func (l *Local) chownToTier(path string, tier entities.Tier) {
	if !l.IsRoot() || tier.Kind != entities.TierUser || tier.UID < 0 {
		return
	}
	_ = os.Chown(path, tier.UID, tier.GID)
}

// atomicWrite replaces target via a sibling temp file and rename, mode 0644.
func atomicWrite(target string, data []byte) error {
	dir := filepath.Dir(target)
	tmp, err := os.CreateTemp(dir, filepath.Base(target)+".tmp-*")
	if err != nil {
		return apperrors.NewIoError("write", target, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return apperrors.NewIoError("write", target, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return apperrors.NewIoError("write", target, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return apperrors.NewIoError("write", target, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return apperrors.NewIoError("write", target, err)
	}
	return nil
}
