// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Intermodalics/catkin-tools/lib/version"
)

// MetadataDirName is the marker directory that identifies a workspace
// root. Its presence is the sole test for "is this a workspace".
const MetadataDirName = ".catkin_tools"

const readmeText = `# Catkin Tools Metadata

This directory was generated by catkin-tools and it contains persistent
configuration information used by the catkin command and its
sub-commands.

Each subdirectory of the profiles directory contains a set of
persistent configuration options for separate profiles. The default
profile is called "default". If another profile is desired, it can be
described in the profiles.yaml file in this directory.

Please see the catkin-tools documentation before editing any files in
this directory. Most actions can be performed with the catkin
command-line program.
`

// ErrNotFound is returned by Find when no enclosing workspace exists.
var ErrNotFound = fmt.Errorf("no catkin workspace found (missing %s directory); run 'catkin init' or pass --workspace", MetadataDirName)

// MetadataRoot returns the path of the metadata directory for a
// workspace root. The directory is not guaranteed to exist.
func MetadataRoot(workspacePath string) string {
	return filepath.Join(workspacePath, MetadataDirName)
}

// Exists reports whether workspacePath is an initialized workspace.
func Exists(workspacePath string) bool {
	info, err := os.Stat(MetadataRoot(workspacePath))
	return err == nil && info.IsDir()
}

// FindAll walks from startPath up to the filesystem root and returns
// every directory on the way that is an initialized workspace, ordered
// innermost first.
func FindAll(startPath string) ([]string, error) {
	absolute, err := filepath.Abs(startPath)
	if err != nil {
		return nil, fmt.Errorf("resolving search start path: %w", err)
	}

	var found []string
	for current := absolute; ; {
		if Exists(current) {
			found = append(found, current)
		}
		parent := filepath.Dir(current)
		if parent == current {
			return found, nil
		}
		current = parent
	}
}

// Find returns the enclosing workspace for startPath. When nested
// workspaces exist, the topmost one (closest to the filesystem root)
// wins, matching how a source tree checked out inside another
// workspace still belongs to the outer one. Returns ErrNotFound when
// no ancestor is a workspace.
func Find(startPath string) (string, error) {
	candidates, err := FindAll(startPath)
	if err != nil {
		return "", err
	}
	if len(candidates) == 0 {
		return "", ErrNotFound
	}
	return candidates[len(candidates)-1], nil
}

// Init creates (or with reset, recreates) the metadata root for a
// workspace. The workspace directory itself must already exist. Init
// is idempotent: re-running it on an initialized workspace only
// refreshes the README and VERSION stamps.
func Init(workspacePath string, reset bool) error {
	info, err := os.Stat(workspacePath)
	if err != nil {
		return fmt.Errorf("cannot initialize workspace in %s: %w", workspacePath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("cannot initialize workspace: %s is not a directory", workspacePath)
	}

	metadataRoot := MetadataRoot(workspacePath)
	if reset {
		if err := os.RemoveAll(metadataRoot); err != nil {
			return fmt.Errorf("resetting metadata directory: %w", err)
		}
	}
	if err := os.MkdirAll(metadataRoot, 0o755); err != nil {
		return fmt.Errorf("creating metadata directory: %w", err)
	}

	if err := os.WriteFile(filepath.Join(metadataRoot, "README"), []byte(readmeText), 0o644); err != nil {
		return fmt.Errorf("writing metadata README: %w", err)
	}
	if err := os.WriteFile(filepath.Join(metadataRoot, "VERSION"), []byte(version.Number()+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing metadata VERSION: %w", err)
	}

	// The ignore marker keeps package discovery from descending into
	// the metadata directory (cached package.xml copies live here).
	ignorePath := filepath.Join(metadataRoot, "CATKIN_IGNORE")
	if _, err := os.Stat(ignorePath); os.IsNotExist(err) {
		if err := os.WriteFile(ignorePath, nil, 0o644); err != nil {
			return fmt.Errorf("writing ignore marker: %w", err)
		}
	}

	return nil
}
