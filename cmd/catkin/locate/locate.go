// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

// Package locate implements the "catkin locate" verb: print the path
// of the workspace, one of its spaces, or a package.
package locate

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/Intermodalics/catkin-tools/cmd/catkin/cli"
	"github.com/Intermodalics/catkin-tools/lib/manifest"
)

type locateParams struct {
	cli.WorkspaceFlags

	ExistingOnly bool `flag:"existing-only,e" desc:"fail when the located path does not exist"`
	Relative     bool `flag:"relative,r" desc:"print the path relative to the current directory"`
	Quiet        bool `flag:"quiet,q" desc:"suppress error messages, keep the exit code"`

	Source  bool `flag:"src,s" desc:"locate the source space"`
	Build   bool `flag:"build,b" desc:"locate the build space"`
	Devel   bool `flag:"devel,d" desc:"locate the devel space"`
	Install bool `flag:"install,i" desc:"locate the install space"`
	Logs    bool `flag:"logs,L" desc:"locate the log space"`
}

// Command returns the locate verb.
func Command() *cli.Command {
	var params locateParams
	var flagSet *pflag.FlagSet

	return &cli.Command{
		Name:    "locate",
		Summary: "Print workspace, space, or package paths",
		Description: `Prints the path of the workspace root, one of its spaces, or a
package's source directory.`,
		Usage: "catkin locate [flags] [package]",
		Examples: []cli.Example{
			{Description: "Locate the workspace root", Command: "catkin locate"},
			{Description: "Locate a package's source directory", Command: "catkin locate roscpp"},
			{Description: "Locate the build space", Command: "catkin locate --build"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet = cli.FlagsFromParams("locate", &params)
			return flagSet
		},
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			if len(args) > 1 {
				return cli.Validation("locate takes at most one package name, got %q", args)
			}
			if err := cli.MutuallyExclusive(flagSet, "src", "build", "devel", "install", "logs"); err != nil {
				return err
			}
			space := cli.ChangedFlag(flagSet, "src", "build", "devel", "install", "logs")
			if space != "" && len(args) > 0 {
				return cli.Validation("a space flag and a package name cannot be combined")
			}
			return run(&params, space, args)
		},
	}
}

func run(params *locateParams, space string, args []string) error {
	ctx, err := params.WorkspaceFlags.Context()
	if err != nil {
		return err
	}

	path := ctx.Workspace
	switch {
	case space != "":
		path, err = ctx.SpacePath(space)
		if err != nil {
			return cli.Internal("%v", err)
		}
	case len(args) == 1:
		packages, err := manifest.FindPackages(ctx.SourceSpace())
		if err != nil {
			return err
		}
		pkg, known := packages[args[0]]
		if !known {
			return fail(params, cli.NotFound("no package %q in %s", args[0], ctx.SourceSpace()))
		}
		path = filepath.Join(ctx.SourceSpace(), pkg.Path)
	}

	if params.ExistingOnly {
		if _, err := os.Stat(path); err != nil {
			return fail(params, cli.NotFound("%s does not exist", path))
		}
	}

	if params.Relative {
		cwd, err := os.Getwd()
		if err != nil {
			return cli.Internal("getting working directory: %v", err)
		}
		relative, err := filepath.Rel(cwd, path)
		if err != nil {
			return cli.Internal("relativizing %s: %v", path, err)
		}
		path = relative
	}

	fmt.Println(path)
	return nil
}

// fail respects --quiet: the exit code survives but the message does
// not.
func fail(params *locateParams, err error) error {
	if params.Quiet {
		return &cli.ExitError{Code: 1}
	}
	return err
}
