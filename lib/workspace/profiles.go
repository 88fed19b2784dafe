// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultProfileName is the profile used when profiles.yaml names no
// active profile.
const DefaultProfileName = "default"

const profilesFileName = "profiles.yaml"

// profilesFile is the on-disk shape of profiles.yaml.
type profilesFile struct {
	Active string `yaml:"active,omitempty"`
}

// ProfilesRoot returns the directory holding all profile directories.
func ProfilesRoot(workspacePath string) string {
	return filepath.Join(MetadataRoot(workspacePath), "profiles")
}

// ProfilePath returns the metadata directory for a named profile.
func ProfilePath(workspacePath, profileName string) string {
	return filepath.Join(ProfilesRoot(workspacePath), profileName)
}

// ProfileNames lists the profiles present in a workspace, sorted.
// A workspace with no profiles directory has no profiles.
func ProfileNames(workspacePath string) ([]string, error) {
	entries, err := os.ReadDir(ProfilesRoot(workspacePath))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// ActiveProfile returns the active profile name recorded in
// profiles.yaml, or DefaultProfileName when the file is absent or
// names none.
func ActiveProfile(workspacePath string) (string, error) {
	data, err := os.ReadFile(filepath.Join(ProfilesRoot(workspacePath), profilesFileName))
	if os.IsNotExist(err) {
		return DefaultProfileName, nil
	}
	if err != nil {
		return "", fmt.Errorf("reading profiles file: %w", err)
	}

	var file profilesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return "", fmt.Errorf("parsing profiles file: %w", err)
	}
	if file.Active == "" {
		return DefaultProfileName, nil
	}
	return file.Active, nil
}

// SetActiveProfile records profileName as the active profile. The
// profile must exist.
func SetActiveProfile(workspacePath, profileName string) error {
	if !ProfileExists(workspacePath, profileName) {
		return fmt.Errorf("profile %q does not exist in %s", profileName, workspacePath)
	}

	data, err := yaml.Marshal(profilesFile{Active: profileName})
	if err != nil {
		return fmt.Errorf("encoding profiles file: %w", err)
	}
	if err := os.WriteFile(filepath.Join(ProfilesRoot(workspacePath), profilesFileName), data, 0o644); err != nil {
		return fmt.Errorf("writing profiles file: %w", err)
	}
	return nil
}

// ProfileExists reports whether the named profile directory exists.
func ProfileExists(workspacePath, profileName string) bool {
	info, err := os.Stat(ProfilePath(workspacePath, profileName))
	return err == nil && info.IsDir()
}

// InitProfile creates the metadata directory for a profile, creating
// the metadata root first if needed. With reset, existing profile
// metadata is discarded.
func InitProfile(workspacePath, profileName string, reset bool) error {
	if err := Init(workspacePath, false); err != nil {
		return err
	}

	profilePath := ProfilePath(workspacePath, profileName)
	if reset {
		if err := os.RemoveAll(profilePath); err != nil {
			return fmt.Errorf("resetting profile %q: %w", profileName, err)
		}
	}
	if err := os.MkdirAll(profilePath, 0o755); err != nil {
		return fmt.Errorf("creating profile %q: %w", profileName, err)
	}
	return nil
}

// CopyProfile clones the metadata of one profile into a new profile
// directory. The destination must not already exist.
func CopyProfile(workspacePath, sourceName, destinationName string) error {
	if !ProfileExists(workspacePath, sourceName) {
		return fmt.Errorf("profile %q does not exist in %s", sourceName, workspacePath)
	}
	if ProfileExists(workspacePath, destinationName) {
		return fmt.Errorf("profile %q already exists in %s", destinationName, workspacePath)
	}
	if err := InitProfile(workspacePath, destinationName, false); err != nil {
		return err
	}

	sourcePath := ProfilePath(workspacePath, sourceName)
	destinationPath := ProfilePath(workspacePath, destinationName)
	return filepath.WalkDir(sourcePath, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		relative, err := filepath.Rel(sourcePath, path)
		if err != nil {
			return err
		}
		target := filepath.Join(destinationPath, relative)
		if entry.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("copying profile file %s: %w", relative, err)
		}
		return os.WriteFile(target, data, 0o644)
	})
}

// RemoveProfile deletes a profile's metadata directory. Removing the
// active profile resets the active name to the default profile.
func RemoveProfile(workspacePath, profileName string) error {
	if !ProfileExists(workspacePath, profileName) {
		return fmt.Errorf("profile %q does not exist in %s", profileName, workspacePath)
	}

	active, err := ActiveProfile(workspacePath)
	if err != nil {
		return err
	}

	if err := os.RemoveAll(ProfilePath(workspacePath, profileName)); err != nil {
		return fmt.Errorf("removing profile %q: %w", profileName, err)
	}

	if active == profileName {
		data, err := yaml.Marshal(profilesFile{Active: DefaultProfileName})
		if err != nil {
			return fmt.Errorf("encoding profiles file: %w", err)
		}
		if err := os.WriteFile(filepath.Join(ProfilesRoot(workspacePath), profilesFileName), data, 0o644); err != nil {
			return fmt.Errorf("writing profiles file: %w", err)
		}
	}
	return nil
}

// RenameProfile moves a profile directory to a new name, carrying the
// active marker along when the renamed profile was active.
func RenameProfile(workspacePath, oldName, newName string) error {
	if !ProfileExists(workspacePath, oldName) {
		return fmt.Errorf("profile %q does not exist in %s", oldName, workspacePath)
	}
	if ProfileExists(workspacePath, newName) {
		return fmt.Errorf("profile %q already exists in %s", newName, workspacePath)
	}

	active, err := ActiveProfile(workspacePath)
	if err != nil {
		return err
	}

	if err := os.Rename(ProfilePath(workspacePath, oldName), ProfilePath(workspacePath, newName)); err != nil {
		return fmt.Errorf("renaming profile %q: %w", oldName, err)
	}

	if active == oldName {
		return SetActiveProfile(workspacePath, newName)
	}
	return nil
}
