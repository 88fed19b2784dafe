// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

// Package config implements the "catkin config" verb: view and change
// the active profile's build configuration.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/Intermodalics/catkin-tools/cmd/catkin/cli"
	wscfg "github.com/Intermodalics/catkin-tools/lib/config"
	"github.com/Intermodalics/catkin-tools/lib/workspace"
)

type configParams struct {
	cli.WorkspaceFlags
	cli.ColorFlags

	Init bool `flag:"init" desc:"initialize the workspace and profile if needed"`

	Extend   string `flag:"extend" desc:"extend the result space of another workspace"`
	NoExtend bool   `flag:"no-extend" desc:"stop extending another workspace"`

	SourceSpace  string `flag:"source-space,s" desc:"path to the source space"`
	BuildSpace   string `flag:"build-space,b" desc:"path to the build space"`
	DevelSpace   string `flag:"devel-space,d" desc:"path to the devel space"`
	InstallSpace string `flag:"install-space,i" desc:"path to the install space"`
	LogSpace     string `flag:"log-space,l" desc:"path to the log space"`
	SpaceSuffix  string `flag:"space-suffix,x" desc:"suffix for the build, devel, install, and log spaces"`

	LinkDevel    bool `flag:"link-devel" desc:"build into per-package devel spaces symlinked into a merged one"`
	MergeDevel   bool `flag:"merge-devel" desc:"build every package directly into a shared devel space"`
	IsolateDevel bool `flag:"isolate-devel" desc:"build each package into its own devel space"`

	Install        bool `flag:"install" desc:"install packages into the install space"`
	NoInstall      bool `flag:"no-install" desc:"do not install packages"`
	IsolateInstall bool `flag:"isolate-install" desc:"install each package into its own directory"`
	MergeInstall   bool `flag:"merge-install" desc:"install all packages into a shared prefix"`

	CMakeArgs      []string `flag:"cmake-args" desc:"arguments passed to cmake"`
	NoCMakeArgs    bool     `flag:"no-cmake-args" desc:"clear all cmake arguments"`
	MakeArgs       []string `flag:"make-args" desc:"arguments passed to make"`
	NoMakeArgs     bool     `flag:"no-make-args" desc:"clear all make arguments"`
	CatkinMakeArgs []string `flag:"catkin-make-args" desc:"arguments passed to make for catkin packages only"`

	AppendArgs bool `flag:"append-args,a" desc:"append given arguments instead of replacing"`
	RemoveArgs bool `flag:"remove-args,r" desc:"remove given arguments instead of replacing"`

	Buildlist   []string `flag:"buildlist" desc:"only build these packages"`
	NoBuildlist bool     `flag:"no-buildlist" desc:"clear the buildlist"`
	Skiplist    []string `flag:"skiplist" desc:"never build these packages"`
	NoSkiplist  bool     `flag:"no-skiplist" desc:"clear the skiplist"`
}

// Command returns the config verb.
func Command() *cli.Command {
	var params configParams
	var flagSet *pflag.FlagSet

	return &cli.Command{
		Name:    "config",
		Summary: "View and edit the profile configuration",
		Description: `Shows and changes the build configuration of the active profile:
space locations, devel space layout, install behavior, and extra
build tool arguments. Without flags the current configuration is
printed.`,
		Usage: "catkin config [flags]",
		Examples: []cli.Example{
			{Description: "Show the current configuration", Command: "catkin config"},
			{Description: "Enable installing with an isolated prefix per package", Command: "catkin config --install --isolate-install"},
			{Description: "Append a cmake argument", Command: "catkin config -a --cmake-args -DCMAKE_BUILD_TYPE=Debug"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet = cli.FlagsFromParams("config", &params)
			return flagSet
		},
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("config takes no positional arguments, got %q", args)
			}
			for _, group := range [][]string{
				{"extend", "no-extend"},
				{"link-devel", "merge-devel", "isolate-devel"},
				{"install", "no-install"},
				{"isolate-install", "merge-install"},
				{"cmake-args", "no-cmake-args"},
				{"make-args", "no-make-args"},
				{"buildlist", "no-buildlist"},
				{"skiplist", "no-skiplist"},
				{"append-args", "remove-args"},
			} {
				if err := cli.MutuallyExclusive(flagSet, group...); err != nil {
					return err
				}
			}
			return run(&params, flagSet, logger)
		},
	}
}

func run(params *configParams, flagSet *pflag.FlagSet, logger *slog.Logger) error {
	workspacePath := params.WorkspaceFlags.Workspace
	if params.Init {
		if workspacePath == "" {
			cwd, err := os.Getwd()
			if err != nil {
				return cli.Internal("getting working directory: %v", err)
			}
			workspacePath = cwd
		}
		if err := workspace.Init(workspacePath, false); err != nil {
			return err
		}
		params.WorkspaceFlags.Workspace = workspacePath
	}

	workspacePath, profileName, err := params.WorkspaceFlags.Resolve()
	if err != nil {
		return err
	}
	if params.Init {
		if err := workspace.InitProfile(workspacePath, profileName, false); err != nil {
			return err
		}
	}

	cfg, err := wscfg.Load(workspacePath, profileName)
	if err != nil {
		return err
	}

	changed := applyChanges(cfg, params, flagSet)

	ctx := &wscfg.Context{Workspace: workspacePath, Profile: profileName, Config: cfg}
	if err := ctx.Validate(); err != nil {
		return &cli.CommandError{Category: cli.CategoryValidation, Err: err}
	}

	if changed {
		if err := cfg.Save(workspacePath, profileName); err != nil {
			return err
		}
		logger.Info("configuration saved", "profile", profileName)
	}

	fmt.Print(ctx.Summary())
	return nil
}

// applyChanges overlays the set flags onto the loaded configuration
// and reports whether anything changed.
func applyChanges(cfg *wscfg.Config, params *configParams, flagSet *pflag.FlagSet) bool {
	changed := false
	set := func(name string, apply func()) {
		if flagSet.Changed(name) {
			apply()
			changed = true
		}
	}

	set("extend", func() { cfg.ExtendPath = params.Extend })
	set("no-extend", func() { cfg.ExtendPath = "" })

	set("source-space", func() { cfg.SourceSpace = params.SourceSpace })
	set("build-space", func() { cfg.BuildSpace = params.BuildSpace })
	set("devel-space", func() { cfg.DevelSpace = params.DevelSpace })
	set("install-space", func() { cfg.InstallSpace = params.InstallSpace })
	set("log-space", func() { cfg.LogSpace = params.LogSpace })
	set("space-suffix", func() {
		// The suffix goes on the default space names, so repeating the
		// same suffix leaves the configuration unchanged.
		defaults := wscfg.Default()
		cfg.BuildSpace = defaults.BuildSpace + params.SpaceSuffix
		cfg.DevelSpace = defaults.DevelSpace + params.SpaceSuffix
		cfg.InstallSpace = defaults.InstallSpace + params.SpaceSuffix
		cfg.LogSpace = defaults.LogSpace + params.SpaceSuffix
	})

	set("link-devel", func() { cfg.DevelLayout = wscfg.DevelLinked })
	set("merge-devel", func() { cfg.DevelLayout = wscfg.DevelMerged })
	set("isolate-devel", func() { cfg.DevelLayout = wscfg.DevelIsolated })

	set("install", func() { cfg.Install = true })
	set("no-install", func() { cfg.Install = false })
	set("isolate-install", func() { cfg.IsolateInstall = true })
	set("merge-install", func() { cfg.IsolateInstall = false })

	set("cmake-args", func() { cfg.CMakeArgs = editArgs(cfg.CMakeArgs, params.CMakeArgs, params) })
	set("no-cmake-args", func() { cfg.CMakeArgs = nil })
	set("make-args", func() { cfg.MakeArgs = editArgs(cfg.MakeArgs, params.MakeArgs, params) })
	set("no-make-args", func() { cfg.MakeArgs = nil })
	set("catkin-make-args", func() { cfg.CatkinMakeArgs = editArgs(cfg.CatkinMakeArgs, params.CatkinMakeArgs, params) })

	set("buildlist", func() { cfg.Buildlist = params.Buildlist })
	set("no-buildlist", func() { cfg.Buildlist = nil })
	set("skiplist", func() { cfg.Skiplist = params.Skiplist })
	set("no-skiplist", func() { cfg.Skiplist = nil })

	return changed
}

// editArgs applies the -a/-r modifier to an argument list edit: append
// to, remove from, or replace the current list.
func editArgs(current, given []string, params *configParams) []string {
	switch {
	case params.AppendArgs:
		return wscfg.AppendArgs(current, given)
	case params.RemoveArgs:
		return wscfg.RemoveArgs(current, given)
	}
	return given
}
