// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

package buildjob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Intermodalics/catkin-tools/lib/config"
	"github.com/Intermodalics/catkin-tools/lib/scheduler"
)

// InstallManifestFileName is cmake's record of everything `make
// install` placed into the install prefix. The register stage copies
// it into the package metadata directory so cleaning works without a
// build directory.
const InstallManifestFileName = "install_manifest.txt"

// CleanOptions select which products of a package to remove.
type CleanOptions struct {
	// Build removes the package's build directory.
	Build bool
	// Devel removes the package's devel products.
	Devel bool
	// Install removes the package's installed files.
	Install bool

	// DryRun prints what would be removed without removing anything.
	DryRun bool
}

// All reports whether every product class is selected; only then is
// the package's metadata directory removed too.
func (o CleanOptions) All() bool { return o.Build && o.Devel && o.Install }

// NewCleanJob assembles the stage list that removes a package's build
// products. Cleaning respects the devel layout: the merged layout can
// only `make clean`, the linked layout unlinks recorded symlinks and
// removes the private devel directory, the isolated layout removes the
// package's devel directory outright.
func NewCleanJob(ctx *config.Context, packageName string, dependencies []string, opts CleanOptions) *scheduler.Job {
	buildSpace := ctx.PackageBuildSpace(packageName)
	metadataPath := ctx.PackageMetadataPath(packageName)

	var stages []*scheduler.Stage

	if opts.Install {
		stages = append(stages, &scheduler.Stage{
			Label: "cleaninstall",
			Func: func(_ context.Context, out io.Writer) error {
				return cleanInstalledFiles(ctx, packageName, out, opts.DryRun)
			},
		})
	}

	if opts.Devel {
		switch ctx.Config.DevelLayout {
		case config.DevelMerged:
			// Individual products cannot be attributed in a merged
			// devel space; make's own clean target is the best we can
			// do.
			stages = append(stages, commandStage("clean", opts.DryRun,
				[]string{"make", "clean"}, buildSpace, nil))
		case config.DevelLinked:
			stages = append(stages, &scheduler.Stage{
				Label: "unlink",
				Func: func(_ context.Context, out io.Writer) error {
					return UnlinkDevelProducts(out,
						ctx.PackagePrivateDevelSpace(packageName),
						metadataPath, ctx.MetadataPath(), opts.DryRun)
				},
			})
			stages = append(stages, removeStage("rmdevel", ctx.PackagePrivateDevelSpace(packageName), opts.DryRun))
		case config.DevelIsolated:
			stages = append(stages, removeStage("rmdevel", ctx.PackageDevelSpace(packageName), opts.DryRun))
		}
	}

	if opts.Build {
		stages = append(stages, removeStage("rmbuild", buildSpace, opts.DryRun))
	}

	// Metadata only goes once nothing refers to it anymore.
	if opts.All() {
		stages = append(stages, removeStage("rmmetadata", metadataPath, opts.DryRun))
	}

	return &scheduler.Job{
		Name:      packageName,
		DependsOn: dependencies,
		Stages:    stages,
	}
}

// cleanInstalledFiles removes the files the package's install manifest
// recorded. In a merged install space, files living directly in the
// install root (setup files shared by all packages) are kept.
func cleanInstalledFiles(ctx *config.Context, packageName string, out io.Writer, dryRun bool) error {
	installed, err := InstalledFiles(ctx.PackageMetadataPath(packageName))
	if err != nil {
		return err
	}

	installDir := ctx.PackageInstallSpace(packageName)
	var paths []string
	for _, path := range installed {
		if !ctx.Config.IsolateInstall && filepath.Dir(path) == installDir {
			continue
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		fmt.Fprintf(out, "Removing %s\n", path)
		if dryRun {
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("removing %s: %w", path, err)
		}
		removeEmptyParentsBelow(filepath.Dir(path), ctx.InstallSpace())
	}
	return nil
}

// removeStage removes one directory tree.
func removeStage(label, path string, dryRun bool) *scheduler.Stage {
	return &scheduler.Stage{
		Label: label,
		Func: func(_ context.Context, out io.Writer) error {
			if _, err := os.Stat(path); err != nil {
				return nil
			}
			fmt.Fprintf(out, "Removing %s\n", path)
			if dryRun {
				return nil
			}
			return os.RemoveAll(path)
		},
	}
}

// removeEmptyParentsBelow removes empty directories from dir upward,
// stopping at (and never removing) root.
func removeEmptyParentsBelow(dir, root string) {
	for dir != root && strings.HasPrefix(dir, root+string(filepath.Separator)) {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

// copyInstallManifest preserves cmake's install manifest in the
// package metadata directory.
func copyInstallManifest(buildSpace, packageMetadataPath string) error {
	data, err := os.ReadFile(filepath.Join(buildSpace, InstallManifestFileName))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading install manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(packageMetadataPath, InstallManifestFileName), data, 0o644)
}

// InstalledFiles returns the absolute paths recorded in the package's
// cached install manifest. No manifest means nothing was installed.
func InstalledFiles(packageMetadataPath string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(packageMetadataPath, InstallManifestFileName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cached install manifest: %w", err)
	}

	var files []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}
