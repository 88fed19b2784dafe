// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

// Package profile implements the "catkin profile" verb: manage the
// named configuration profiles of a workspace.
package profile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/Intermodalics/catkin-tools/cmd/catkin/cli"
	"github.com/Intermodalics/catkin-tools/lib/workspace"
)

// Command returns the profile verb with its subcommands.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "profile",
		Summary: "Manage configuration profiles",
		Description: `Manages the named configuration profiles of a workspace. Each
profile stores an independent build configuration; one profile is
active at a time.`,
		Subcommands: []*cli.Command{
			listCommand(),
			setCommand(),
			addCommand(),
			renameCommand(),
			removeCommand(),
		},
	}
}

func listCommand() *cli.Command {
	var params struct {
		cli.WorkspaceFlags
	}
	return &cli.Command{
		Name:    "list",
		Summary: "List profiles, marking the active one",
		Usage:   "catkin profile list",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("profile list", &params)
		},
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			workspacePath, _, err := params.WorkspaceFlags.Resolve()
			if err != nil {
				return err
			}
			names, err := workspace.ProfileNames(workspacePath)
			if err != nil {
				return err
			}
			active, err := workspace.ActiveProfile(workspacePath)
			if err != nil {
				return err
			}

			for _, name := range names {
				marker := ""
				if name == active {
					marker = " (active)"
				}
				fmt.Printf("- %s%s\n", name, marker)
			}
			return nil
		},
	}
}

func setCommand() *cli.Command {
	var params struct {
		cli.WorkspaceFlags
	}
	return &cli.Command{
		Name:    "set",
		Summary: "Make a profile the active one",
		Usage:   "catkin profile set <name>",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("profile set", &params)
		},
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("profile set takes exactly one profile name")
			}
			workspacePath, _, err := params.WorkspaceFlags.Resolve()
			if err != nil {
				return err
			}
			if err := workspace.SetActiveProfile(workspacePath, args[0]); err != nil {
				return &cli.CommandError{Category: cli.CategoryNotFound, Err: err}
			}
			logger.Info("active profile changed", "profile", args[0])
			return nil
		},
	}
}

func addCommand() *cli.Command {
	var params struct {
		cli.WorkspaceFlags
		Force      bool   `flag:"force,f" desc:"overwrite the profile if it already exists"`
		Copy       string `flag:"copy" desc:"copy the settings of the named profile"`
		CopyActive bool   `flag:"copy-active" desc:"copy the settings of the active profile"`
	}
	var flagSet *pflag.FlagSet
	return &cli.Command{
		Name:    "add",
		Summary: "Create a new profile",
		Usage:   "catkin profile add [flags] <name>",
		Flags: func() *pflag.FlagSet {
			flagSet = cli.FlagsFromParams("profile add", &params)
			return flagSet
		},
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("profile add takes exactly one profile name")
			}
			if err := cli.MutuallyExclusive(flagSet, "copy", "copy-active"); err != nil {
				return err
			}
			name := args[0]

			workspacePath, _, err := params.WorkspaceFlags.Resolve()
			if err != nil {
				return err
			}
			if workspace.ProfileExists(workspacePath, name) && !params.Force {
				return cli.Conflict("profile %q already exists (use --force to overwrite)", name)
			}

			source := params.Copy
			if params.CopyActive {
				source, err = workspace.ActiveProfile(workspacePath)
				if err != nil {
					return err
				}
			}

			if source != "" {
				if params.Force {
					if err := workspace.InitProfile(workspacePath, name, true); err != nil {
						return err
					}
					// InitProfile left an empty directory; CopyProfile
					// wants the destination absent.
					if err := workspace.RemoveProfile(workspacePath, name); err != nil {
						return err
					}
				}
				if err := workspace.CopyProfile(workspacePath, source, name); err != nil {
					return &cli.CommandError{Category: cli.CategoryConflict, Err: err}
				}
			} else if err := workspace.InitProfile(workspacePath, name, params.Force); err != nil {
				return err
			}

			logger.Info("profile created", "profile", name)
			return nil
		},
	}
}

func renameCommand() *cli.Command {
	var params struct {
		cli.WorkspaceFlags
	}
	return &cli.Command{
		Name:    "rename",
		Summary: "Rename a profile",
		Usage:   "catkin profile rename <old> <new>",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("profile rename", &params)
		},
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 2 {
				return cli.Validation("profile rename takes an old and a new profile name")
			}
			workspacePath, _, err := params.WorkspaceFlags.Resolve()
			if err != nil {
				return err
			}
			if err := workspace.RenameProfile(workspacePath, args[0], args[1]); err != nil {
				return &cli.CommandError{Category: cli.CategoryConflict, Err: err}
			}
			logger.Info("profile renamed", "from", args[0], "to", args[1])
			return nil
		},
	}
}

func removeCommand() *cli.Command {
	var params struct {
		cli.WorkspaceFlags
	}
	return &cli.Command{
		Name:    "remove",
		Summary: "Remove profiles",
		Usage:   "catkin profile remove <name>...",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("profile remove", &params)
		},
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			if len(args) == 0 {
				return cli.Validation("profile remove takes at least one profile name")
			}
			workspacePath, _, err := params.WorkspaceFlags.Resolve()
			if err != nil {
				return err
			}
			for _, name := range args {
				if err := workspace.RemoveProfile(workspacePath, name); err != nil {
					return &cli.CommandError{Category: cli.CategoryNotFound, Err: err}
				}
				logger.Info("profile removed", "profile", name)
			}
			return nil
		},
	}
}
