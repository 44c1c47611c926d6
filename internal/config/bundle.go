// Package config parses and validates the declarative per-bundle
// configuration (config.toml at the bundle root).
package config

// Bundle is the parsed config.toml of one application bundle.
type Bundle struct {
	// Name is the menu display name and the profile-name suffix.
	Name string `toml:"name"`
	// Executable is the path of the program, relative to the bundle root.
	Executable string `toml:"executable"`
	// Args are passed to the executable in order.
	Args []string `toml:"args"`
	// Env holds KEY=VALUE assignments applied at launch.
	Env []string `toml:"env"`
	// WorkingDir is relative to the bundle root; empty means the root.
	WorkingDir string `toml:"working_dir"`
	Icon       string `toml:"icon"`
	Comment    string `toml:"comment"`
	// Categories are freedesktop menu category tokens.
	Categories []string `toml:"categories"`
	// Terminal marks the app as needing a terminal emulator.
	Terminal bool `toml:"terminal"`
	// Security configures confinement; absent means confined with defaults.
	Security *Security `toml:"security"`
}

// Security is the optional [security] section.
type Security struct {
	// Confine defaults to true even when the section is present without it,
	// hence the pointer.
	Confine    *bool    `toml:"confine"`
	ReadPaths  []string `toml:"read_paths"`
	WritePaths []string `toml:"write_paths"`
	Network    bool     `toml:"network"`
	// Capabilities is accepted but not interpreted (reserved).
	Capabilities []string `toml:"capabilities"`
}

// Confined reports whether the app should run under a generated profile.
// True unless [security] confine = false.
func (b *Bundle) Confined() bool {
	if b.Security == nil || b.Security.Confine == nil {
		return true
	}
	return *b.Security.Confine
}

// NetworkAllowed reports whether the profile should grant network access.
func (b *Bundle) NetworkAllowed() bool {
	return b.Security != nil && b.Security.Network
}
