// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

// Package initcmd implements the "catkin init" verb: mark a directory
// as a workspace by creating its metadata directory.
package initcmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/Intermodalics/catkin-tools/cmd/catkin/cli"
	"github.com/Intermodalics/catkin-tools/lib/workspace"
)

type initParams struct {
	Workspace string `flag:"workspace,w" desc:"directory to initialize (default: current directory)"`
	Reset     bool   `flag:"reset" desc:"discard all existing metadata and profiles"`
}

// Command returns the init verb.
func Command() *cli.Command {
	var params initParams

	return &cli.Command{
		Name:    "init",
		Summary: "Initialize a catkin workspace",
		Description: `Initializes a catkin workspace in the given directory (default: the
current directory) by creating its metadata directory. Initializing
an existing workspace refreshes the metadata stamps; --reset discards
all profiles and starts over.`,
		Usage: "catkin init [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("init", &params)
		},
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("init takes no positional arguments, got %q", args)
			}

			target := params.Workspace
			if target == "" {
				cwd, err := os.Getwd()
				if err != nil {
					return cli.Internal("getting working directory: %v", err)
				}
				target = cwd
			}

			if err := workspace.Init(target, params.Reset); err != nil {
				return err
			}
			if err := workspace.InitProfile(target, workspace.DefaultProfileName, false); err != nil {
				return err
			}
			logger.Info("workspace initialized", "workspace", target)
			return nil
		},
	}
}
