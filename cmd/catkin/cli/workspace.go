// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"os"

	"github.com/spf13/pflag"

	"github.com/Intermodalics/catkin-tools/lib/config"
	"github.com/Intermodalics/catkin-tools/lib/style"
	"github.com/Intermodalics/catkin-tools/lib/workspace"
)

// WorkspaceFlags is the flag pair every workspace verb shares. Embed
// it in a verb's params struct; [BindFlags] binds it via AddFlags.
type WorkspaceFlags struct {
	Workspace string
	Profile   string
}

// AddFlags implements [FlagBinder].
func (w *WorkspaceFlags) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVarP(&w.Workspace, "workspace", "w", "",
		"workspace to use (default: enclosing workspace of the current directory)")
	flagSet.StringVar(&w.Profile, "profile", "",
		"configuration profile to use (default: the active profile)")
}

// Resolve determines the workspace root and profile name: the
// --workspace flag wins over the enclosing workspace of the current
// directory, and --profile wins over the workspace's active profile.
func (w *WorkspaceFlags) Resolve() (workspacePath, profileName string, err error) {
	workspacePath = w.Workspace
	if workspacePath == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", "", Internal("getting working directory: %v", err)
		}
		workspacePath, err = workspace.Find(cwd)
		if errors.Is(err, workspace.ErrNotFound) {
			return "", "", &CommandError{Category: CategoryNotFound, Err: err}
		}
		if err != nil {
			return "", "", err
		}
	} else if !workspace.Exists(workspacePath) {
		return "", "", NotFound("%s is not an initialized catkin workspace", workspacePath)
	}

	profileName = w.Profile
	if profileName == "" {
		profileName, err = workspace.ActiveProfile(workspacePath)
		if err != nil {
			return "", "", err
		}
	}
	return workspacePath, profileName, nil
}

// Context resolves the workspace and profile and loads the profile's
// build configuration.
func (w *WorkspaceFlags) Context() (*config.Context, error) {
	workspacePath, profileName, err := w.Resolve()
	if err != nil {
		return nil, err
	}
	return config.NewContext(workspacePath, profileName)
}

// ColorFlags is the interface flag pair controlling colored output.
type ColorFlags struct {
	Force   bool
	Disable bool
}

// AddFlags implements [FlagBinder].
func (c *ColorFlags) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.BoolVar(&c.Force, "force-color", false, "force colored output even when not writing to a terminal")
	flagSet.BoolVar(&c.Disable, "no-color", false, "never emit colored output")
}

// Mode converts the flags to a style mode. Setting both flags is a
// validation error.
func (c *ColorFlags) Mode() (style.Mode, error) {
	switch {
	case c.Force && c.Disable:
		return style.Auto, Validation("--force-color and --no-color are mutually exclusive")
	case c.Force:
		return style.Forced, nil
	case c.Disable:
		return style.Disabled, nil
	}
	return style.Auto, nil
}
