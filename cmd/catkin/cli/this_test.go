// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"path/filepath"
	"testing"

	"github.com/Intermodalics/catkin-tools/lib/config"
	"github.com/Intermodalics/catkin-tools/lib/manifest"
)

func TestPackageContainingPicksDeepestMatch(t *testing.T) {
	ctx := &config.Context{Workspace: "/ws", Profile: "default", Config: config.Default()}
	packages := map[string]*manifest.Package{
		"meta":  {Name: "meta", Path: "stack"},
		"inner": {Name: "inner", Path: filepath.Join("stack", "inner")},
	}

	pkg, err := PackageContaining(ctx, packages, filepath.Join("/ws", "src", "stack", "inner", "src"))
	if err != nil {
		t.Fatalf("PackageContaining: %v", err)
	}
	if pkg.Name != "inner" {
		t.Fatalf("package = %q, want inner", pkg.Name)
	}
}

func TestPackageContainingMatchesPackageRoot(t *testing.T) {
	ctx := &config.Context{Workspace: "/ws", Profile: "default", Config: config.Default()}
	packages := map[string]*manifest.Package{
		"roscpp": {Name: "roscpp", Path: "roscpp"},
	}

	pkg, err := PackageContaining(ctx, packages, filepath.Join("/ws", "src", "roscpp"))
	if err != nil {
		t.Fatal(err)
	}
	if pkg.Name != "roscpp" {
		t.Fatalf("package = %q", pkg.Name)
	}
}

func TestPackageContainingOutsideAnyPackage(t *testing.T) {
	ctx := &config.Context{Workspace: "/ws", Profile: "default", Config: config.Default()}
	packages := map[string]*manifest.Package{
		"roscpp": {Name: "roscpp", Path: "roscpp"},
	}

	if _, err := PackageContaining(ctx, packages, "/elsewhere"); err == nil {
		t.Fatal("expected error for a directory outside every package")
	}
}
