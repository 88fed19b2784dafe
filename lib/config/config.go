// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

// Package config holds the per-profile build configuration of a
// workspace: where the spaces live, how the devel space is laid out,
// whether packages are installed, and which extra arguments are passed
// to cmake and make.
//
// Configuration is loaded from the profile's config.yaml under the
// workspace metadata directory, on top of defaults. Verbs overlay
// their command-line flags on the loaded value; only the config verb
// (and build --save-config) persists changes back.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Intermodalics/catkin-tools/lib/workspace"
)

// Verb is the metadata file name ("config.yaml") this package owns.
const Verb = "config"

// DevelLayout selects how per-package devel products are combined.
type DevelLayout string

const (
	// DevelLinked builds each package into a private devel space and
	// symlinks the products into the shared one. Cleaning a single
	// package stays possible because the links are recorded per
	// package.
	DevelLinked DevelLayout = "linked"

	// DevelMerged builds every package directly into the shared devel
	// space.
	DevelMerged DevelLayout = "merged"

	// DevelIsolated gives each package its own devel space and never
	// merges them.
	DevelIsolated DevelLayout = "isolated"
)

// ParseDevelLayout validates a layout name.
func ParseDevelLayout(name string) (DevelLayout, error) {
	switch DevelLayout(name) {
	case DevelLinked, DevelMerged, DevelIsolated:
		return DevelLayout(name), nil
	}
	return "", fmt.Errorf("invalid devel layout %q (want linked, merged, or isolated)", name)
}

// Config is the persisted shape of a profile's config.yaml. Space
// paths may be relative (resolved against the workspace root) or
// absolute.
type Config struct {
	SourceSpace  string `yaml:"source_space"`
	BuildSpace   string `yaml:"build_space"`
	DevelSpace   string `yaml:"devel_space"`
	InstallSpace string `yaml:"install_space"`
	LogSpace     string `yaml:"log_space"`

	DevelLayout DevelLayout `yaml:"devel_layout"`

	// Install runs each package's install stage into the install
	// space. IsolateInstall gives each package its own subdirectory
	// there instead of merging.
	Install        bool `yaml:"install"`
	IsolateInstall bool `yaml:"isolate_install"`

	// ExtendPath is the result space (devel or install) of another
	// workspace whose environment this one builds on top of. Empty
	// means no explicit parent.
	ExtendPath string `yaml:"extend_path,omitempty"`

	CMakeArgs      []string `yaml:"cmake_args"`
	MakeArgs       []string `yaml:"make_args"`
	CatkinMakeArgs []string `yaml:"catkin_make_args"`

	// Buildlist restricts building to the named packages when
	// non-empty; Skiplist excludes the named packages.
	Buildlist []string `yaml:"buildlist"`
	Skiplist  []string `yaml:"skiplist"`
}

// Default returns the configuration of a freshly initialized profile.
func Default() *Config {
	return &Config{
		SourceSpace:  "src",
		BuildSpace:   "build",
		DevelSpace:   "devel",
		InstallSpace: "install",
		LogSpace:     "logs",
		DevelLayout:  DevelLinked,
	}
}

// Load reads the profile's config.yaml on top of defaults. A profile
// with no config.yaml yields the defaults.
func Load(workspacePath, profileName string) (*Config, error) {
	cfg := Default()
	if _, err := workspace.ReadVerbMetadata(workspacePath, profileName, Verb, cfg); err != nil {
		return nil, err
	}
	if _, err := ParseDevelLayout(string(cfg.DevelLayout)); err != nil {
		return nil, fmt.Errorf("profile %q: %w", profileName, err)
	}
	return cfg, nil
}

// Save persists the configuration into the profile's config.yaml.
func (c *Config) Save(workspacePath, profileName string) error {
	return workspace.WriteVerbMetadata(workspacePath, profileName, Verb, c)
}

// AppendArgs merges extra into args, skipping values already present.
func AppendArgs(args, extra []string) []string {
	for _, value := range extra {
		if !slices.Contains(args, value) {
			args = append(args, value)
		}
	}
	return args
}

// RemoveArgs deletes every occurrence of the given values from args.
func RemoveArgs(args, remove []string) []string {
	var kept []string
	for _, value := range args {
		if !slices.Contains(remove, value) {
			kept = append(kept, value)
		}
	}
	return kept
}

// Context binds a configuration to a concrete workspace and profile
// and answers all path questions for it.
type Context struct {
	Workspace string
	Profile   string
	Config    *Config
}

// NewContext loads the profile configuration of a workspace.
func NewContext(workspacePath, profileName string) (*Context, error) {
	cfg, err := Load(workspacePath, profileName)
	if err != nil {
		return nil, err
	}
	return &Context{Workspace: workspacePath, Profile: profileName, Config: cfg}, nil
}

// resolve makes a space path absolute against the workspace root.
func (c *Context) resolve(space string) string {
	if filepath.IsAbs(space) {
		return space
	}
	return filepath.Join(c.Workspace, space)
}

// SourceSpace returns the absolute source space path.
func (c *Context) SourceSpace() string { return c.resolve(c.Config.SourceSpace) }

// BuildSpace returns the absolute build space path.
func (c *Context) BuildSpace() string { return c.resolve(c.Config.BuildSpace) }

// DevelSpace returns the absolute devel space path.
func (c *Context) DevelSpace() string { return c.resolve(c.Config.DevelSpace) }

// InstallSpace returns the absolute install space path.
func (c *Context) InstallSpace() string { return c.resolve(c.Config.InstallSpace) }

// LogSpace returns the absolute log space path.
func (c *Context) LogSpace() string { return c.resolve(c.Config.LogSpace) }

// SpacePath returns the absolute path of a space by name (source,
// build, devel, install, or logs).
func (c *Context) SpacePath(space string) (string, error) {
	switch space {
	case "source", "src":
		return c.SourceSpace(), nil
	case "build":
		return c.BuildSpace(), nil
	case "devel":
		return c.DevelSpace(), nil
	case "install":
		return c.InstallSpace(), nil
	case "logs", "log":
		return c.LogSpace(), nil
	}
	return "", fmt.Errorf("unknown space %q", space)
}

// PackageBuildSpace returns the build directory for one package.
func (c *Context) PackageBuildSpace(packageName string) string {
	return filepath.Join(c.BuildSpace(), packageName)
}

// PackageDevelSpace returns the devel directory a package builds into.
// In the merged layout every package shares the devel space; in the
// isolated layout each package owns a subdirectory; in the linked
// layout each package builds into a private directory that is then
// linked into the shared space.
func (c *Context) PackageDevelSpace(packageName string) string {
	switch c.Config.DevelLayout {
	case DevelMerged:
		return c.DevelSpace()
	case DevelIsolated:
		return filepath.Join(c.DevelSpace(), packageName)
	default:
		return c.PackagePrivateDevelSpace(packageName)
	}
}

// PackagePrivateDevelSpace returns the hidden per-package devel
// directory used by the linked layout.
func (c *Context) PackagePrivateDevelSpace(packageName string) string {
	return filepath.Join(c.DevelSpace(), ".private", packageName)
}

// PackageInstallSpace returns the install prefix for one package.
func (c *Context) PackageInstallSpace(packageName string) string {
	if c.Config.IsolateInstall {
		return filepath.Join(c.InstallSpace(), packageName)
	}
	return c.InstallSpace()
}

// PackageMetadataPath returns the directory holding catkin's own
// bookkeeping for one package (cached manifest, devel manifest, build
// record).
func (c *Context) PackageMetadataPath(packageName string) string {
	return filepath.Join(workspace.ProfilePath(c.Workspace, c.Profile), "packages", packageName)
}

// MetadataPath returns the profile metadata directory (shared
// bookkeeping such as the devel collision counts).
func (c *Context) MetadataPath() string {
	return workspace.ProfilePath(c.Workspace, c.Profile)
}

// PackageLogPath returns the log directory for one package.
func (c *Context) PackageLogPath(packageName string) string {
	return filepath.Join(c.LogSpace(), packageName)
}

// Validate checks the context for configuration errors: the spaces
// must be distinct, must not sit inside one another (except inside the
// workspace root itself), and the extend path, when set, must exist.
func (c *Context) Validate() error {
	spaces := map[string]string{
		"source":  c.SourceSpace(),
		"build":   c.BuildSpace(),
		"devel":   c.DevelSpace(),
		"install": c.InstallSpace(),
		"logs":    c.LogSpace(),
	}

	for name, path := range spaces {
		for otherName, otherPath := range spaces {
			if name == otherName {
				continue
			}
			if path == otherPath {
				return fmt.Errorf("%s space and %s space are both %s", name, otherName, path)
			}
			if strings.HasPrefix(otherPath, path+string(filepath.Separator)) {
				return fmt.Errorf("%s space %s contains the %s space %s", name, path, otherName, otherPath)
			}
		}
	}

	if c.Config.ExtendPath != "" {
		if _, err := os.Stat(c.Config.ExtendPath); err != nil {
			return fmt.Errorf("extend path %s: %w", c.Config.ExtendPath, err)
		}
	}

	return nil
}

// RequireSourceSpace returns an error when the source space does not
// exist. Build and list refuse to run without one; config does not.
func (c *Context) RequireSourceSpace() error {
	info, err := os.Stat(c.SourceSpace())
	if err != nil {
		return fmt.Errorf("source space %s does not exist", c.SourceSpace())
	}
	if !info.IsDir() {
		return fmt.Errorf("source space %s is not a directory", c.SourceSpace())
	}
	return nil
}

// Summary renders the human-readable configuration listing printed by
// the config verb and at the start of a build.
func (c *Context) Summary() string {
	var b strings.Builder
	section := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	extendStatus := "[env] or none"
	if c.Config.ExtendPath != "" {
		extendStatus = c.Config.ExtendPath
	}

	installSpaceStatus := c.InstallSpace()
	if !c.Config.Install {
		installSpaceStatus += " (disabled)"
	}

	section("Profile:                 %s", c.Profile)
	section("Extending:               %s", extendStatus)
	section("Workspace:               %s", c.Workspace)
	section("Source Space:            %s", c.SourceSpace())
	section("Build Space:             %s", c.BuildSpace())
	section("Devel Space:             %s", c.DevelSpace())
	section("Install Space:           %s", installSpaceStatus)
	section("Log Space:               %s", c.LogSpace())
	section("Devel Space Layout:      %s", c.Config.DevelLayout)
	section("Install Packages:        %v", c.Config.Install)
	section("Isolate Installs:        %v", c.Config.IsolateInstall)
	section("Additional CMake Args:   %s", formatArgs(c.Config.CMakeArgs))
	section("Additional Make Args:    %s", formatArgs(c.Config.MakeArgs))
	section("Catkin Make Args:        %s", formatArgs(c.Config.CatkinMakeArgs))
	section("Buildlisted Packages:    %s", formatArgs(c.Config.Buildlist))
	section("Skiplisted Packages:     %s", formatArgs(c.Config.Skiplist))
	return b.String()
}

func formatArgs(args []string) string {
	if len(args) == 0 {
		return "None"
	}
	return strings.Join(args, " ")
}
