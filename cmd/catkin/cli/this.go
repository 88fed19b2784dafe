// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/Intermodalics/catkin-tools/lib/config"
	"github.com/Intermodalics/catkin-tools/lib/manifest"
)

// ThisPackage resolves the --this flag: the package whose source
// directory contains the current working directory.
func ThisPackage(ctx *config.Context, packages map[string]*manifest.Package) (*manifest.Package, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, Internal("getting working directory: %v", err)
	}
	return PackageContaining(ctx, packages, cwd)
}

// PackageContaining returns the package whose directory contains dir.
// The deepest matching package wins, so a path inside a nested
// subdirectory still resolves to its package.
func PackageContaining(ctx *config.Context, packages map[string]*manifest.Package, dir string) (*manifest.Package, error) {
	absolute, err := filepath.Abs(dir)
	if err != nil {
		return nil, Internal("resolving %s: %v", dir, err)
	}

	var best *manifest.Package
	bestDepth := -1
	for _, pkg := range packages {
		packageDir := filepath.Join(ctx.SourceSpace(), pkg.Path)
		if absolute != packageDir && !strings.HasPrefix(absolute, packageDir+string(filepath.Separator)) {
			continue
		}
		depth := strings.Count(packageDir, string(filepath.Separator))
		if depth > bestDepth {
			best = pkg
			bestDepth = depth
		}
	}
	if best == nil {
		return nil, NotFound("no package found containing %s", absolute)
	}
	return best, nil
}
