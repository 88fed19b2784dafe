// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

// Package buildjob turns packages into scheduler jobs: the stage lists
// that build or clean one catkin package, plus the devel-space linking
// bookkeeping the linked layout needs.
package buildjob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Intermodalics/catkin-tools/lib/config"
	"github.com/Intermodalics/catkin-tools/lib/manifest"
	"github.com/Intermodalics/catkin-tools/lib/scheduler"
)

// BuildOptions tune the generated build stages.
type BuildOptions struct {
	// ForceCMake reruns cmake even when a Makefile already exists.
	ForceCMake bool

	// PreClean runs `make clean` before building.
	PreClean bool

	// SkipInstall suppresses the install stages even when the profile
	// configures installing.
	SkipInstall bool

	// DryRun renders every command stage as a print instead of
	// executing it. Function stages with side effects are skipped.
	DryRun bool
}

// NewBuildJob assembles the stage list that builds one package:
// create the build and metadata directories, cache the manifest, run
// cmake (or just revalidate the build system when a Makefile already
// exists), make, link the devel products (linked layout), and install.
func NewBuildJob(ctx *config.Context, pkg *manifest.Package, dependencies []string, opts BuildOptions) *scheduler.Job {
	sourceDir := filepath.Join(ctx.SourceSpace(), pkg.Path)
	buildSpace := ctx.PackageBuildSpace(pkg.Name)
	develSpace := ctx.PackageDevelSpace(pkg.Name)
	installSpace := ctx.PackageInstallSpace(pkg.Name)
	metadataPath := ctx.PackageMetadataPath(pkg.Name)

	var stages []*scheduler.Stage

	stages = append(stages, funcStage("mkdir", opts.DryRun, func(_ context.Context, out io.Writer) error {
		for _, dir := range []string{buildSpace, metadataPath} {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("creating %s: %w", dir, err)
			}
		}
		return nil
	}))

	stages = append(stages, funcStage("cache-manifest", opts.DryRun, func(_ context.Context, out io.Writer) error {
		data, err := os.ReadFile(filepath.Join(sourceDir, manifest.FileName))
		if err != nil {
			return fmt.Errorf("reading package manifest: %w", err)
		}
		return os.WriteFile(filepath.Join(metadataPath, manifest.FileName), data, 0o644)
	}))

	// cmake only runs when there is no Makefile yet or when forced;
	// otherwise a cheap build-system check suffices.
	if opts.ForceCMake || !fileExists(filepath.Join(buildSpace, "Makefile")) {
		cmakeArgs := []string{
			"cmake", sourceDir,
			"--no-warn-unused-cli",
			"-DCATKIN_DEVEL_PREFIX=" + develSpace,
			"-DCMAKE_INSTALL_PREFIX=" + installSpace,
		}
		cmakeArgs = append(cmakeArgs, ctx.Config.CMakeArgs...)
		stages = append(stages, commandStage("cmake", opts.DryRun, cmakeArgs, buildSpace, jobEnv(ctx)))
	} else {
		stages = append(stages, commandStage("check", opts.DryRun,
			[]string{"make", "cmake_check_build_system"}, buildSpace, jobEnv(ctx)))
	}

	makeArgs := append([]string{}, ctx.Config.MakeArgs...)
	makeArgs = append(makeArgs, ctx.Config.CatkinMakeArgs...)

	if opts.PreClean {
		stages = append(stages, commandStage("preclean", opts.DryRun,
			append([]string{"make", "clean"}, makeArgs...), buildSpace, jobEnv(ctx)))
	}

	stages = append(stages, commandStage("make", opts.DryRun,
		append([]string{"make"}, makeArgs...), buildSpace, jobEnv(ctx)))

	if ctx.Config.DevelLayout == config.DevelLinked {
		stages = append(stages, funcStage("symlink", opts.DryRun, func(_ context.Context, out io.Writer) error {
			return LinkDevelProducts(out, sourceDir,
				ctx.PackagePrivateDevelSpace(pkg.Name), ctx.DevelSpace(),
				metadataPath, ctx.MetadataPath())
		}))
	}

	if ctx.Config.Install && !opts.SkipInstall {
		stages = append(stages, commandStage("install", opts.DryRun,
			[]string{"make", "install"}, buildSpace, jobEnv(ctx)))
		stages = append(stages, funcStage("register", opts.DryRun, func(_ context.Context, out io.Writer) error {
			return copyInstallManifest(buildSpace, metadataPath)
		}))
	}

	return &scheduler.Job{
		Name:      pkg.Name,
		DependsOn: dependencies,
		Stages:    stages,
	}
}

// jobEnv builds the environment for package commands: the inherited
// environment with CMAKE_PREFIX_PATH extended by the result spaces
// this build layers on top of (own devel space, then the configured
// extend path).
func jobEnv(ctx *config.Context) []string {
	prefixes := []string{ctx.DevelSpace()}
	if ctx.Config.Install {
		prefixes = append(prefixes, ctx.InstallSpace())
	}
	if ctx.Config.ExtendPath != "" {
		prefixes = append(prefixes, ctx.Config.ExtendPath)
	}

	env := os.Environ()
	for i, entry := range env {
		if value, found := strings.CutPrefix(entry, "CMAKE_PREFIX_PATH="); found {
			if value != "" {
				prefixes = append(prefixes, value)
			}
			env = append(env[:i], env[i+1:]...)
			break
		}
	}
	return append(env, "CMAKE_PREFIX_PATH="+strings.Join(prefixes, string(os.PathListSeparator)))
}

// funcStage wraps an in-process stage; in dry-run mode the stage only
// announces itself.
func funcStage(label string, dryRun bool, fn func(ctx context.Context, out io.Writer) error) *scheduler.Stage {
	if dryRun {
		return &scheduler.Stage{
			Label: label,
			Func: func(_ context.Context, out io.Writer) error {
				fmt.Fprintf(out, "Would run stage %s\n", label)
				return nil
			},
		}
	}
	return &scheduler.Stage{Label: label, Func: fn}
}

// commandStage wraps an external command; in dry-run mode it prints
// the command line instead of executing it.
func commandStage(label string, dryRun bool, argv []string, dir string, env []string) *scheduler.Stage {
	if dryRun {
		return &scheduler.Stage{
			Label: label,
			Func: func(_ context.Context, out io.Writer) error {
				fmt.Fprintf(out, "Would run in %s: %s\n", dir, strings.Join(argv, " "))
				return nil
			},
		}
	}
	return &scheduler.Stage{
		Label:       label,
		Command:     argv,
		Dir:         dir,
		Env:         env,
		OccupiesJob: true,
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
