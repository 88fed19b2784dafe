// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

// Package clean implements the "catkin clean" verb: remove build
// products, whole spaces, or the workspace metadata itself.
package clean

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/pflag"

	"github.com/Intermodalics/catkin-tools/cmd/catkin/cli"
	"github.com/Intermodalics/catkin-tools/lib/buildjob"
	"github.com/Intermodalics/catkin-tools/lib/buildstate"
	"github.com/Intermodalics/catkin-tools/lib/config"
	"github.com/Intermodalics/catkin-tools/lib/graph"
	"github.com/Intermodalics/catkin-tools/lib/joblog"
	"github.com/Intermodalics/catkin-tools/lib/manifest"
	"github.com/Intermodalics/catkin-tools/lib/scheduler"
	"github.com/Intermodalics/catkin-tools/lib/style"
	"github.com/Intermodalics/catkin-tools/lib/workspace"
)

type cleanParams struct {
	cli.WorkspaceFlags
	cli.ColorFlags

	Build   bool `flag:"build,b" desc:"remove the entire build space"`
	Devel   bool `flag:"devel,d" desc:"remove the entire devel space"`
	Install bool `flag:"install,i" desc:"remove the entire install space"`
	Logs    bool `flag:"logs" desc:"remove the entire log space"`

	This       bool `flag:"this" desc:"clean the package containing the current directory"`
	Dependents bool `flag:"dependents" desc:"also clean all packages depending on the selected ones"`
	Orphans    bool `flag:"orphans" desc:"clean products of packages no longer in the source space"`

	Deinit     bool `flag:"deinit" desc:"deinitialize the workspace, removing all metadata"`
	SetupFiles bool `flag:"setup-files" desc:"remove the generated setup files from the devel space"`

	DryRun      bool `flag:"dry-run" desc:"show what would be removed without removing anything"`
	Yes         bool `flag:"yes,y" desc:"assume yes to all interactive questions"`
	Force       bool `flag:"force" desc:"clean spaces stamped by a different build tool"`
	AllProfiles bool `flag:"all-profiles" desc:"apply the space removal to every profile"`
}

// Command returns the clean verb.
func Command() *cli.Command {
	var params cleanParams
	var flagSet *pflag.FlagSet

	return &cli.Command{
		Name:    "clean",
		Summary: "Remove build products",
		Description: `Removes build products: entire spaces (--build, --devel, --install,
--logs), individual packages' products (by name or --this), or the
workspace metadata (--deinit). Without a selection the build, devel,
and install spaces of the profile are removed.`,
		Usage: "catkin clean [flags] [package...]",
		Examples: []cli.Example{
			{Description: "Remove all build products of the profile", Command: "catkin clean"},
			{Description: "Clean two packages and everything depending on them", Command: "catkin clean --dependents foo bar"},
			{Description: "Remove products of deleted packages", Command: "catkin clean --orphans"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet = cli.FlagsFromParams("clean", &params)
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			return run(ctx, &params, args, logger)
		},
	}
}

func run(ctx context.Context, params *cleanParams, packageArgs []string, logger *slog.Logger) error {
	mode, err := params.ColorFlags.Mode()
	if err != nil {
		return err
	}
	styler := style.New(os.Stdout, mode)

	buildContext, err := params.WorkspaceFlags.Context()
	if err != nil {
		return err
	}

	if params.Deinit {
		return deinit(buildContext, params)
	}

	perPackage := len(packageArgs) > 0 || params.This || params.Orphans
	if perPackage {
		return cleanPackages(ctx, buildContext, params, packageArgs, styler, logger)
	}

	return cleanSpaces(buildContext, params, logger)
}

// cleanSpaces removes whole spaces. Without explicit space flags the
// build, devel, and install spaces go (the logs stay).
func cleanSpaces(buildContext *config.Context, params *cleanParams, logger *slog.Logger) error {
	selected := params.Build || params.Devel || params.Install || params.Logs || params.SetupFiles

	type selectedSpace struct {
		path    string
		stamped bool
	}
	spacesOf := func(ctx *config.Context) []selectedSpace {
		var spaces []selectedSpace
		add := func(enabled bool, path string) {
			if enabled || !selected {
				spaces = append(spaces, selectedSpace{path, true})
			}
		}
		add(params.Build, ctx.BuildSpace())
		add(params.Devel, ctx.DevelSpace())
		add(params.Install, ctx.InstallSpace())
		if params.Logs {
			// The log space is written by the log collector, never by
			// build jobs, so it carries no build tool stamp.
			spaces = append(spaces, selectedSpace{ctx.LogSpace(), false})
		}
		return spaces
	}

	if params.SetupFiles {
		if err := removeSetupFiles(buildContext.DevelSpace(), params.DryRun); err != nil {
			return err
		}
		if params.Build || params.Devel || params.Install || params.Logs {
			// fall through to the space removal below
		} else {
			return nil
		}
	}

	profiles := []string{buildContext.Profile}
	if params.AllProfiles {
		names, err := workspace.ProfileNames(buildContext.Workspace)
		if err != nil {
			return err
		}
		profiles = names
	}

	for _, profileName := range profiles {
		profileContext := buildContext
		if profileName != buildContext.Profile {
			loaded, err := config.NewContext(buildContext.Workspace, profileName)
			if err != nil {
				return err
			}
			profileContext = loaded
		}

		for _, space := range spacesOf(profileContext) {
			if _, err := os.Stat(space.path); err != nil {
				continue
			}
			if space.stamped {
				if err := config.CheckSpaceStamp(space.path, params.Force); err != nil {
					return &cli.CommandError{
						Category: cli.CategoryConflict,
						Err:      fmt.Errorf("%w; pass --force to remove it anyway", err),
					}
				}
			}
			if !confirm(params, fmt.Sprintf("Remove %s?", space.path)) {
				continue
			}
			fmt.Printf("Removing %s\n", space.path)
			if params.DryRun {
				continue
			}
			if err := os.RemoveAll(space.path); err != nil {
				return fmt.Errorf("removing %s: %w", space.path, err)
			}
			logger.Info("space removed", "space", space.path, "profile", profileName)
		}
	}
	return nil
}

// cleanPackages runs per-package clean jobs in reverse dependency
// order (a package is cleaned before the packages it depends on).
func cleanPackages(ctx context.Context, buildContext *config.Context, params *cleanParams, packageArgs []string, styler *style.Styler, logger *slog.Logger) error {
	packages := map[string]*manifest.Package{}
	if err := buildContext.RequireSourceSpace(); err == nil {
		found, err := manifest.FindPackages(buildContext.SourceSpace())
		if err != nil {
			return err
		}
		packages = found
	}
	g := graph.New(packages)

	var selected []string
	for _, name := range packageArgs {
		if _, known := packages[name]; !known {
			return cli.NotFound("no package %q in %s", name, buildContext.SourceSpace())
		}
		selected = append(selected, name)
	}
	if params.This {
		pkg, err := cli.ThisPackage(buildContext, packages)
		if err != nil {
			return err
		}
		selected = append(selected, pkg.Name)
	}
	if params.Dependents {
		selected = append(selected, g.DependentsClosure(selected)...)
	}
	if params.Orphans {
		orphans, err := findOrphans(buildContext, packages)
		if err != nil {
			return err
		}
		if len(orphans) == 0 {
			fmt.Println("No orphaned products found.")
		}
		selected = append(selected, orphans...)
	}

	slices.Sort(selected)
	selected = slices.Compact(selected)
	if len(selected) == 0 {
		return cli.Validation("no packages selected to clean")
	}

	if !confirm(params, fmt.Sprintf("Clean %d package(s): %s?", len(selected), strings.Join(selected, ", "))) {
		return nil
	}

	options := buildjob.CleanOptions{DryRun: params.DryRun, Build: true, Devel: true, Install: true}
	if params.Build || params.Devel || params.Install {
		options.Build = params.Build
		options.Devel = params.Devel
		options.Install = params.Install
	}

	// Cleaning inverts the build order: dependents first. Orphans have
	// no manifest anymore, so they carry no edges.
	var jobs []*scheduler.Job
	for _, name := range selected {
		var dependents []string
		if _, known := packages[name]; known {
			for _, dependent := range g.Dependents(name) {
				if slices.Contains(selected, dependent) {
					dependents = append(dependents, dependent)
				}
			}
		}
		job := buildjob.NewCleanJob(buildContext, name, dependents, options)
		if !params.DryRun {
			log, err := joblog.Open(buildContext.LogSpace(), name)
			if err != nil {
				return err
			}
			job.OpenLog = log.StageWriter
		}
		job.Output = os.Stdout
		jobs = append(jobs, job)
	}

	executor, err := scheduler.New(jobs, scheduler.Options{Workers: 1, Logger: logger})
	if err != nil {
		return err
	}
	reporter := scheduler.NewStatusReporter(os.Stdout, styler, nil, len(jobs), false)
	summary, err := executor.Run(ctx, reporter)
	if err != nil {
		return err
	}
	if !summary.Ok() {
		return &cli.ExitError{Code: 1}
	}
	return nil
}

// findOrphans lists packages with recorded build state whose source
// package no longer exists.
func findOrphans(buildContext *config.Context, packages map[string]*manifest.Package) ([]string, error) {
	recorded, err := buildstate.RecordedPackages(buildContext.MetadataPath())
	if err != nil {
		return nil, err
	}
	var orphans []string
	for _, name := range recorded {
		if _, exists := packages[name]; !exists {
			orphans = append(orphans, name)
		}
	}
	return orphans, nil
}

func deinit(buildContext *config.Context, params *cleanParams) error {
	metadataRoot := workspace.MetadataRoot(buildContext.Workspace)
	if !confirm(params, fmt.Sprintf("Deinitialize workspace %s, removing all metadata?", buildContext.Workspace)) {
		return nil
	}
	fmt.Printf("Removing %s\n", metadataRoot)
	if params.DryRun {
		return nil
	}
	return os.RemoveAll(metadataRoot)
}

// removeSetupFiles deletes the generated environment setup files from
// the devel space, forcing the next build to regenerate them.
func removeSetupFiles(develSpace string, dryRun bool) error {
	setupFiles := []string{
		"setup.bash", "setup.sh", "setup.zsh", "setup.fish",
		"local_setup.bash", "local_setup.sh", "local_setup.zsh", "local_setup.fish",
		"_setup_util.py", "env.sh", ".catkin",
	}
	for _, name := range setupFiles {
		path := filepath.Join(develSpace, name)
		if _, err := os.Lstat(path); err != nil {
			continue
		}
		fmt.Printf("Removing %s\n", path)
		if dryRun {
			continue
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("removing %s: %w", path, err)
		}
	}
	return nil
}

// confirm asks an interactive yes/no question. --yes and --dry-run
// short-circuit to yes.
func confirm(params *cleanParams, question string) bool {
	if params.Yes || params.DryRun {
		return true
	}
	fmt.Printf("%s [yN] ", question)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
