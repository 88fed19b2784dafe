// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the complete catkin CLI command tree.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	buildcmd "github.com/Intermodalics/catkin-tools/cmd/catkin/build"
	cleancmd "github.com/Intermodalics/catkin-tools/cmd/catkin/clean"
	"github.com/Intermodalics/catkin-tools/cmd/catkin/cli"
	configcmd "github.com/Intermodalics/catkin-tools/cmd/catkin/config"
	"github.com/Intermodalics/catkin-tools/cmd/catkin/initcmd"
	listcmd "github.com/Intermodalics/catkin-tools/cmd/catkin/list"
	locatecmd "github.com/Intermodalics/catkin-tools/cmd/catkin/locate"
	profilecmd "github.com/Intermodalics/catkin-tools/cmd/catkin/profile"
	"github.com/Intermodalics/catkin-tools/lib/version"
)

// Root builds and returns the complete catkin CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "catkin",
		Description: `catkin: build tool for workspaces of interdependent packages.

Builds each package in its own isolated build directory, in
dependency order, with per-profile build configurations.`,
		Subcommands: []*cli.Command{
			initcmd.Command(),
			configcmd.Command(),
			profilecmd.Command(),
			listcmd.Command(),
			locatecmd.Command(),
			buildcmd.Command(),
			cleancmd.Command(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					fmt.Printf("catkin %s\n", version.Full())
					return nil
				},
			},
		},
	}
}
