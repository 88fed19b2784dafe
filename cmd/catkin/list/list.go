// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

// Package list implements the "catkin list" verb: enumerate the
// packages of the source space, optionally with their dependency
// relations.
package list

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/Intermodalics/catkin-tools/cmd/catkin/cli"
	"github.com/Intermodalics/catkin-tools/lib/graph"
	"github.com/Intermodalics/catkin-tools/lib/manifest"
	"github.com/Intermodalics/catkin-tools/lib/style"
)

type listParams struct {
	cli.WorkspaceFlags
	cli.ColorFlags

	Deps        bool     `flag:"deps" desc:"list the direct dependencies of each package"`
	RDeps       bool     `flag:"rdeps" desc:"list the recursive dependencies of each package"`
	DependsOn   []string `flag:"depends-on" desc:"only list packages that directly depend on these packages"`
	RDependsOn  []string `flag:"rdepends-on" desc:"only list packages that recursively depend on these packages"`
	This        bool     `flag:"this" desc:"only list the package containing the current directory"`
	Directory   string   `flag:"directory" desc:"list packages under this directory instead of the source space"`
	Quiet       bool     `flag:"quiet" desc:"suppress warnings"`
	Unformatted bool     `flag:"unformatted,u" desc:"print plain package names without decoration"`
}

// Command returns the list verb.
func Command() *cli.Command {
	var params listParams
	var flagSet *pflag.FlagSet

	return &cli.Command{
		Name:    "list",
		Summary: "List the packages in the workspace",
		Description: `Lists the packages of the workspace's source space together with
their dependency relations.`,
		Usage: "catkin list [flags]",
		Examples: []cli.Example{
			{Description: "List all packages", Command: "catkin list"},
			{Description: "List packages depending on roscpp", Command: "catkin list --depends-on roscpp"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet = cli.FlagsFromParams("list", &params)
			return flagSet
		},
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("list takes no positional arguments, got %q", args)
			}
			if err := cli.MutuallyExclusive(flagSet, "deps", "rdeps"); err != nil {
				return err
			}
			return run(&params, logger)
		},
	}
}

func run(params *listParams, logger *slog.Logger) error {
	mode, err := params.ColorFlags.Mode()
	if err != nil {
		return err
	}
	styler := style.New(os.Stdout, mode)

	searchRoot := params.Directory
	var packages map[string]*manifest.Package
	if searchRoot != "" {
		packages, err = manifest.FindPackages(searchRoot)
		if err != nil {
			return err
		}
	} else {
		ctx, err := params.WorkspaceFlags.Context()
		if err != nil {
			return err
		}
		if err := ctx.RequireSourceSpace(); err != nil {
			return &cli.CommandError{Category: cli.CategoryNotFound, Err: err}
		}
		packages, err = manifest.FindPackages(ctx.SourceSpace())
		if err != nil {
			return err
		}

		if params.This {
			pkg, err := cli.ThisPackage(ctx, packages)
			if err != nil {
				return err
			}
			packages = map[string]*manifest.Package{pkg.Name: pkg}
		}
	}

	g := graph.New(packages)
	names := selectNames(g, params)

	if len(names) == 0 && !params.Quiet {
		logger.Warn("no packages found")
	}

	for _, name := range names {
		if params.Unformatted {
			fmt.Println(name)
		} else {
			fmt.Printf("- %s\n", styler.Package(name))
		}
		switch {
		case params.Deps:
			printDeps(styler, g.Depends(name), params.Unformatted)
		case params.RDeps:
			printDeps(styler, g.DependsClosure([]string{name}), params.Unformatted)
		}
	}
	return nil
}

// selectNames applies the --depends-on / --rdepends-on filters.
func selectNames(g *graph.Graph, params *listParams) []string {
	names := g.Names()

	if len(params.DependsOn) > 0 {
		var filtered []string
		for _, name := range names {
			for _, target := range params.DependsOn {
				found := false
				for _, dep := range g.Depends(name) {
					if dep == target {
						found = true
						break
					}
				}
				if found {
					filtered = append(filtered, name)
					break
				}
			}
		}
		return filtered
	}

	if len(params.RDependsOn) > 0 {
		dependents := make(map[string]bool)
		for _, name := range g.DependentsClosure(params.RDependsOn) {
			dependents[name] = true
		}
		var filtered []string
		for _, name := range names {
			if dependents[name] {
				filtered = append(filtered, name)
			}
		}
		return filtered
	}

	return names
}

func printDeps(styler *style.Styler, deps []string, unformatted bool) {
	for _, dep := range deps {
		if unformatted {
			fmt.Printf("  %s\n", dep)
		} else {
			fmt.Printf("  - %s\n", styler.Dim(dep))
		}
	}
}
