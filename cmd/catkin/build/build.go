// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

// Package build implements the "catkin build" verb: build workspace
// packages in dependency order with bounded parallelism.
package build

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

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
)

type buildParams struct {
	cli.WorkspaceFlags
	cli.ColorFlags

	This    bool `flag:"this" desc:"build the package containing the current directory"`
	Unbuilt bool `flag:"unbuilt" desc:"build only packages with no successful build record"`

	Jobs             int     `flag:"jobs,j" desc:"maximum number of concurrent build commands"`
	ParallelPackages int     `flag:"parallel-packages,p" desc:"maximum number of packages built in parallel"`
	LoadAverage      float64 `flag:"load-average,l" desc:"do not start new packages while the load average exceeds this value"`

	NoDeps            bool   `flag:"no-deps" desc:"build only the selected packages, not their dependencies"`
	StartWith         string `flag:"start-with" desc:"skip all packages ordered before this one"`
	ContinueOnFailure bool   `flag:"continue-on-failure" desc:"keep building independent packages after a failure"`

	ForceCMake bool `flag:"force-cmake" desc:"run cmake even when the build system is already configured"`
	PreClean   bool `flag:"pre-clean" desc:"run 'make clean' before building each package"`
	SaveConfig bool `flag:"save-config" desc:"persist the build argument overrides into the profile"`

	Verbose          bool `flag:"verbose,v" desc:"print stage transitions and all build output"`
	InterleaveOutput bool `flag:"interleave-output" desc:"print build output live with package prefixes"`
	NoStatus         bool `flag:"no-status" desc:"suppress the running status lines"`
	Summarize        bool `flag:"summarize" desc:"print a detailed summary after building"`
	DryRun           bool `flag:"dry-run" desc:"show the build jobs without running them"`

	CMakeArgs      []string `flag:"cmake-args" desc:"override the cmake arguments for this run"`
	NoCMakeArgs    bool     `flag:"no-cmake-args" desc:"ignore the configured cmake arguments"`
	MakeArgs       []string `flag:"make-args" desc:"override the make arguments for this run"`
	NoMakeArgs     bool     `flag:"no-make-args" desc:"ignore the configured make arguments"`
	CatkinMakeArgs []string `flag:"catkin-make-args" desc:"override the catkin make arguments for this run"`

	OverrideBuildToolCheck bool `flag:"override-build-tool-check" desc:"build even into spaces created by a different build tool"`
}

// Command returns the build verb.
func Command() *cli.Command {
	var params buildParams
	var flagSet *pflag.FlagSet

	return &cli.Command{
		Name:    "build",
		Summary: "Build packages",
		Description: `Builds workspace packages in dependency order. Without arguments the
whole workspace is built; with package names only those packages and
their dependencies are.`,
		Usage: "catkin build [flags] [package...]",
		Examples: []cli.Example{
			{Description: "Build the whole workspace", Command: "catkin build"},
			{Description: "Build one package without its dependencies", Command: "catkin build --no-deps roscpp"},
			{Description: "Build with four parallel packages and eight jobs", Command: "catkin build -p 4 -j 8"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet = cli.FlagsFromParams("build", &params)
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			for _, group := range [][]string{
				{"cmake-args", "no-cmake-args"},
				{"make-args", "no-make-args"},
				{"this", "unbuilt"},
				{"interleave-output", "no-status"},
			} {
				if err := cli.MutuallyExclusive(flagSet, group...); err != nil {
					return err
				}
			}
			return run(ctx, &params, flagSet, args, logger)
		},
	}
}

func run(ctx context.Context, params *buildParams, flagSet *pflag.FlagSet, packageArgs []string, logger *slog.Logger) error {
	mode, err := params.ColorFlags.Mode()
	if err != nil {
		return err
	}
	styler := style.New(os.Stdout, mode)

	buildContext, err := params.WorkspaceFlags.Context()
	if err != nil {
		return err
	}
	applyArgOverrides(buildContext.Config, params, flagSet)

	if err := buildContext.Validate(); err != nil {
		return &cli.CommandError{Category: cli.CategoryValidation, Err: err}
	}
	if err := buildContext.RequireSourceSpace(); err != nil {
		return &cli.CommandError{Category: cli.CategoryNotFound, Err: err}
	}

	if params.SaveConfig {
		if err := buildContext.Config.Save(buildContext.Workspace, buildContext.Profile); err != nil {
			return err
		}
		logger.Info("configuration saved", "profile", buildContext.Profile)
	}

	if err := prepareSpaces(buildContext, params); err != nil {
		return err
	}

	packages, err := manifest.FindPackages(buildContext.SourceSpace())
	if err != nil {
		return err
	}
	if len(packages) == 0 {
		fmt.Println("No packages found in the source space.")
		return nil
	}
	g := graph.New(packages)

	selected, err := selectPackages(buildContext, g, packages, params, packageArgs)
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		fmt.Println("No packages to build.")
		return nil
	}

	order, err := g.OrderSubset(selected)
	if err != nil {
		return &cli.CommandError{Category: cli.CategoryValidation, Err: err}
	}

	fmt.Print(buildContext.Summary())
	fmt.Printf("Building %d package(s)\n", len(order))

	jobs, flushers, err := assembleJobs(buildContext, g, packages, params, order)
	if err != nil {
		return err
	}

	executor, err := scheduler.New(jobs, scheduler.Options{
		Workers:           params.ParallelPackages,
		JobTokens:         params.Jobs,
		LoadLimit:         params.LoadAverage,
		ContinueOnFailure: params.ContinueOnFailure,
		Logger:            logger,
	})
	if err != nil {
		return err
	}

	var inner scheduler.Reporter = scheduler.NopReporter{}
	if !params.NoStatus {
		inner = scheduler.NewStatusReporter(os.Stdout, styler, nil, len(jobs), params.Verbose)
	}
	reporter := &recordingReporter{
		inner:    inner,
		context:  buildContext,
		packages: packages,
		flushers: flushers,
		record:   !params.DryRun,
		logger:   logger,
	}

	summary, runErr := executor.Run(ctx, reporter)

	printSummary(styler, summary, params.Summarize || runErr != nil)
	if runErr != nil {
		logger.Error("build failed", "error", runErr)
		return &cli.ExitError{Code: 1}
	}
	return nil
}

// applyArgOverrides overlays per-run argument flags onto the loaded
// configuration.
func applyArgOverrides(cfg *config.Config, params *buildParams, flagSet *pflag.FlagSet) {
	if flagSet.Changed("cmake-args") {
		cfg.CMakeArgs = params.CMakeArgs
	}
	if params.NoCMakeArgs {
		cfg.CMakeArgs = nil
	}
	if flagSet.Changed("make-args") {
		cfg.MakeArgs = params.MakeArgs
	}
	if params.NoMakeArgs {
		cfg.MakeArgs = nil
	}
	if flagSet.Changed("catkin-make-args") {
		cfg.CatkinMakeArgs = params.CatkinMakeArgs
	}
}

// prepareSpaces verifies the build tool stamps and (re)writes them. A
// dry run only inspects.
func prepareSpaces(buildContext *config.Context, params *buildParams) error {
	spaces := []string{buildContext.BuildSpace(), buildContext.DevelSpace()}
	if buildContext.Config.Install {
		spaces = append(spaces, buildContext.InstallSpace())
	}
	for _, space := range spaces {
		if err := config.CheckSpaceStamp(space, params.OverrideBuildToolCheck); err != nil {
			return &cli.CommandError{
				Category: cli.CategoryConflict,
				Err:      fmt.Errorf("%w; clean the space or pass --override-build-tool-check", err),
			}
		}
		if params.DryRun {
			continue
		}
		if err := config.WriteSpaceStamp(space); err != nil {
			return err
		}
	}
	return nil
}

// selectPackages resolves the build selection: named packages, --this,
// --unbuilt, or everything; then the buildlist/skiplist filters, the
// dependency closure (unless --no-deps), and finally --start-with.
func selectPackages(buildContext *config.Context, g *graph.Graph, packages map[string]*manifest.Package, params *buildParams, packageArgs []string) ([]string, error) {
	var selected []string
	switch {
	case params.This:
		pkg, err := cli.ThisPackage(buildContext, packages)
		if err != nil {
			return nil, err
		}
		selected = []string{pkg.Name}
	case params.Unbuilt:
		unbuilt, err := unbuiltPackages(buildContext, packages)
		if err != nil {
			return nil, err
		}
		selected = unbuilt
	case len(packageArgs) > 0:
		for _, name := range packageArgs {
			if _, known := packages[name]; !known {
				return nil, cli.NotFound("no package %q in %s", name, buildContext.SourceSpace())
			}
			selected = append(selected, name)
		}
	default:
		selected = g.Names()
	}

	if len(buildContext.Config.Buildlist) > 0 {
		allowed := make(map[string]bool, len(buildContext.Config.Buildlist))
		for _, name := range buildContext.Config.Buildlist {
			allowed[name] = true
		}
		selected = slices.DeleteFunc(selected, func(name string) bool { return !allowed[name] })
	}
	for _, name := range buildContext.Config.Skiplist {
		selected = slices.DeleteFunc(selected, func(candidate string) bool { return candidate == name })
	}

	if !params.NoDeps {
		selected = append(selected, g.DependsClosure(selected)...)
	}
	slices.Sort(selected)
	selected = slices.Compact(selected)

	if params.StartWith != "" {
		if _, known := packages[params.StartWith]; !known {
			return nil, cli.NotFound("no package %q in %s", params.StartWith, buildContext.SourceSpace())
		}
		order, err := g.OrderSubset(selected)
		if err != nil {
			return nil, err
		}
		index := slices.Index(order, params.StartWith)
		if index < 0 {
			return nil, cli.Validation("--start-with package %q is not in the build selection", params.StartWith)
		}
		selected = order[index:]
	}

	return selected, nil
}

// unbuiltPackages returns the packages without a successful build
// record.
func unbuiltPackages(buildContext *config.Context, packages map[string]*manifest.Package) ([]string, error) {
	var unbuilt []string
	for _, name := range manifest.SortedNames(packages) {
		record, exists, err := buildstate.Load(buildContext.PackageMetadataPath(name))
		if err != nil {
			return nil, err
		}
		if !exists || record.Result != buildstate.Succeeded {
			unbuilt = append(unbuilt, name)
		}
	}
	return unbuilt, nil
}

// assembleJobs builds the scheduler jobs for the ordered selection,
// wiring per-package logs and the chosen output mode. The returned map
// holds the per-job buffers to flush as jobs finish (empty in
// interleaved and dry-run modes).
func assembleJobs(buildContext *config.Context, g *graph.Graph, packages map[string]*manifest.Package, params *buildParams, order []string) ([]*scheduler.Job, map[string]*scheduler.BufferedWriter, error) {
	inSelection := make(map[string]bool, len(order))
	for _, name := range order {
		inSelection[name] = true
	}

	options := buildjob.BuildOptions{
		ForceCMake: params.ForceCMake,
		PreClean:   params.PreClean,
		DryRun:     params.DryRun,
	}

	var outputMu sync.Mutex
	interleave := params.InterleaveOutput || params.Verbose
	flushers := make(map[string]*scheduler.BufferedWriter)

	var jobs []*scheduler.Job
	for _, name := range order {
		var dependencies []string
		for _, dep := range g.Depends(name) {
			if inSelection[dep] {
				dependencies = append(dependencies, dep)
			}
		}

		job := buildjob.NewBuildJob(buildContext, packages[name], dependencies, options)

		if !params.DryRun {
			log, err := joblog.Open(buildContext.LogSpace(), name)
			if err != nil {
				return nil, nil, err
			}
			job.OpenLog = log.StageWriter
		}

		switch {
		case params.DryRun:
			job.Output = os.Stdout
		case interleave:
			job.Output = scheduler.NewPrefixWriter(os.Stdout, &outputMu, name)
		default:
			buffered := scheduler.NewBufferedWriter(os.Stdout, &outputMu)
			flushers[name] = buffered
			job.Output = buffered
		}

		jobs = append(jobs, job)
	}
	return jobs, flushers, nil
}

// recordingReporter wraps the status reporter to flush buffered job
// output and persist the per-package build record as each job ends.
type recordingReporter struct {
	inner    scheduler.Reporter
	context  *config.Context
	packages map[string]*manifest.Package
	flushers map[string]*scheduler.BufferedWriter
	record   bool
	logger   *slog.Logger
}

func (r *recordingReporter) JobStarted(job string) { r.inner.JobStarted(job) }

func (r *recordingReporter) StageStarted(job, stage string) { r.inner.StageStarted(job, stage) }

func (r *recordingReporter) StageFinished(job, stage string, duration time.Duration, err error) {
	r.inner.StageFinished(job, stage, duration, err)
}

func (r *recordingReporter) JobFinished(job string, result scheduler.Result, duration time.Duration, err error) {
	if buffered, exists := r.flushers[job]; exists {
		if flushErr := buffered.Flush(); flushErr != nil {
			r.logger.Warn("flushing job output", "package", job, "error", flushErr)
		}
	}
	r.inner.JobFinished(job, result, duration, err)

	if !r.record || (result != scheduler.JobSucceeded && result != scheduler.JobFailed) {
		return
	}
	outcome := buildstate.Succeeded
	if result == scheduler.JobFailed {
		outcome = buildstate.Failed
	}
	now := time.Now()
	record := buildstate.Record{
		Package:      job,
		Result:       outcome,
		StartedAt:    now.Add(-duration),
		FinishedAt:   now,
		ManifestHash: r.manifestHash(job),
	}
	if saveErr := buildstate.Save(r.context.PackageMetadataPath(job), record); saveErr != nil {
		r.logger.Warn("saving build record", "package", job, "error", saveErr)
	}
}

func (r *recordingReporter) manifestHash(name string) string {
	pkg, exists := r.packages[name]
	if !exists {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(r.context.SourceSpace(), pkg.Path, manifest.FileName))
	if err != nil {
		return ""
	}
	return buildjob.HashBytes(data)
}

// printSummary prints the end-of-run result lines; the detailed form
// also lists the succeeded packages.
func printSummary(styler *style.Styler, summary *scheduler.Summary, detailed bool) {
	fmt.Printf("%s %d package(s) in %s\n",
		styler.Success("Finished."), len(summary.Succeeded), formatRunDuration(summary.Duration))

	report := func(label string, names []string, render func(string) string) {
		if len(names) == 0 {
			return
		}
		fmt.Printf("%s %d package(s): %s\n", render(label), len(names), strings.Join(names, " "))
	}
	report("Failed:", summary.Failed, styler.Failure)
	report("Abandoned:", summary.Skipped, styler.Warning)
	report("Aborted:", summary.Aborted, styler.Warning)

	if detailed {
		report("Succeeded:", summary.Succeeded, styler.Success)
	}
}

func formatRunDuration(d time.Duration) string {
	return fmt.Sprintf("%.1f seconds", d.Seconds())
}
