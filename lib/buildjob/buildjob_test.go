// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

package buildjob

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/Intermodalics/catkin-tools/lib/config"
	"github.com/Intermodalics/catkin-tools/lib/manifest"
	"github.com/Intermodalics/catkin-tools/lib/scheduler"
	"github.com/Intermodalics/catkin-tools/lib/testutil"
)

func testContext(t *testing.T) *config.Context {
	t.Helper()
	return &config.Context{
		Workspace: t.TempDir(),
		Profile:   "default",
		Config:    config.Default(),
	}
}

func stageLabels(job *scheduler.Job) []string {
	var labels []string
	for _, stage := range job.Stages {
		labels = append(labels, stage.Label)
	}
	return labels
}

func TestBuildJobStagesLinkedLayout(t *testing.T) {
	ctx := testContext(t)
	pkg := &manifest.Package{Name: "alpha", Path: "alpha"}

	job := NewBuildJob(ctx, pkg, []string{"beta"}, BuildOptions{})
	want := []string{"mkdir", "cache-manifest", "cmake", "make", "symlink"}
	if got := stageLabels(job); !slices.Equal(got, want) {
		t.Errorf("stages = %v, want %v", got, want)
	}
	if !slices.Equal(job.DependsOn, []string{"beta"}) {
		t.Errorf("dependencies = %v, want [beta]", job.DependsOn)
	}
}

func TestBuildJobChecksInsteadOfCMakeWhenMakefileExists(t *testing.T) {
	ctx := testContext(t)
	pkg := &manifest.Package{Name: "alpha", Path: "alpha"}
	testutil.WriteFile(t, ctx.PackageBuildSpace("alpha"), "Makefile", "all:\n")

	job := NewBuildJob(ctx, pkg, nil, BuildOptions{})
	if labels := stageLabels(job); !slices.Contains(labels, "check") || slices.Contains(labels, "cmake") {
		t.Errorf("stages = %v, want check without cmake", labels)
	}

	// --force-cmake brings cmake back.
	job = NewBuildJob(ctx, pkg, nil, BuildOptions{ForceCMake: true})
	if labels := stageLabels(job); !slices.Contains(labels, "cmake") {
		t.Errorf("stages = %v, want cmake when forced", labels)
	}
}

func TestBuildJobInstallAndPreCleanStages(t *testing.T) {
	ctx := testContext(t)
	ctx.Config.Install = true
	pkg := &manifest.Package{Name: "alpha", Path: "alpha"}

	job := NewBuildJob(ctx, pkg, nil, BuildOptions{PreClean: true})
	want := []string{"mkdir", "cache-manifest", "cmake", "preclean", "make", "symlink", "install", "register"}
	if got := stageLabels(job); !slices.Equal(got, want) {
		t.Errorf("stages = %v, want %v", got, want)
	}

	job = NewBuildJob(ctx, pkg, nil, BuildOptions{SkipInstall: true})
	if labels := stageLabels(job); slices.Contains(labels, "install") {
		t.Errorf("stages = %v, install present despite SkipInstall", labels)
	}
}

func TestBuildJobMergedLayoutSkipsSymlink(t *testing.T) {
	ctx := testContext(t)
	ctx.Config.DevelLayout = config.DevelMerged
	job := NewBuildJob(ctx, &manifest.Package{Name: "alpha", Path: "alpha"}, nil, BuildOptions{})
	if labels := stageLabels(job); slices.Contains(labels, "symlink") {
		t.Errorf("stages = %v, symlink present in merged layout", labels)
	}
}

func TestBuildJobCMakeCommandLine(t *testing.T) {
	ctx := testContext(t)
	ctx.Config.CMakeArgs = []string{"-DCMAKE_BUILD_TYPE=Release"}
	job := NewBuildJob(ctx, &manifest.Package{Name: "alpha", Path: "nested/alpha"}, nil, BuildOptions{})

	var cmake *scheduler.Stage
	for _, stage := range job.Stages {
		if stage.Label == "cmake" {
			cmake = stage
		}
	}
	if cmake == nil {
		t.Fatal("no cmake stage")
	}
	cmd := strings.Join(cmake.Command, " ")
	for _, want := range []string{
		filepath.Join(ctx.SourceSpace(), "nested/alpha"),
		"-DCATKIN_DEVEL_PREFIX=" + ctx.PackagePrivateDevelSpace("alpha"),
		"-DCMAKE_INSTALL_PREFIX=" + ctx.InstallSpace(),
		"-DCMAKE_BUILD_TYPE=Release",
	} {
		if !strings.Contains(cmd, want) {
			t.Errorf("cmake command %q missing %q", cmd, want)
		}
	}
	if cmake.Dir != ctx.PackageBuildSpace("alpha") {
		t.Errorf("cmake dir = %s, want %s", cmake.Dir, ctx.PackageBuildSpace("alpha"))
	}
	if !cmake.OccupiesJob {
		t.Error("cmake stage does not occupy a job token")
	}
}

func TestDryRunStagesOnlyPrint(t *testing.T) {
	ctx := testContext(t)
	job := NewBuildJob(ctx, &manifest.Package{Name: "alpha", Path: "alpha"}, nil, BuildOptions{DryRun: true})

	var out strings.Builder
	for _, stage := range job.Stages {
		if stage.Func == nil {
			t.Fatalf("dry-run stage %s still has a command", stage.Label)
		}
		if err := stage.Func(context.Background(), &out); err != nil {
			t.Fatalf("dry-run stage %s: %v", stage.Label, err)
		}
	}
	if !strings.Contains(out.String(), "Would run") {
		t.Errorf("dry-run output:\n%s", out.String())
	}
	if _, err := os.Stat(ctx.PackageBuildSpace("alpha")); err == nil {
		t.Error("dry run created the build space")
	}
}

func TestCleanJobStagesPerLayout(t *testing.T) {
	cases := []struct {
		layout config.DevelLayout
		want   []string
	}{
		{config.DevelLinked, []string{"cleaninstall", "unlink", "rmdevel", "rmbuild", "rmmetadata"}},
		{config.DevelMerged, []string{"cleaninstall", "clean", "rmbuild", "rmmetadata"}},
		{config.DevelIsolated, []string{"cleaninstall", "rmdevel", "rmbuild", "rmmetadata"}},
	}
	for _, tc := range cases {
		ctx := testContext(t)
		ctx.Config.DevelLayout = tc.layout
		job := NewCleanJob(ctx, "alpha", nil, CleanOptions{Build: true, Devel: true, Install: true})
		if got := stageLabels(job); !slices.Equal(got, tc.want) {
			t.Errorf("%s layout: stages = %v, want %v", tc.layout, got, tc.want)
		}
	}
}

func TestCleanJobPartialSelectionKeepsMetadata(t *testing.T) {
	ctx := testContext(t)
	job := NewCleanJob(ctx, "alpha", nil, CleanOptions{Build: true})
	want := []string{"rmbuild"}
	if got := stageLabels(job); !slices.Equal(got, want) {
		t.Errorf("stages = %v, want %v", got, want)
	}
}

func TestCleanInstalledFilesKeepsSharedRootFiles(t *testing.T) {
	ctx := testContext(t)
	installRoot := ctx.InstallSpace()
	shared := testutil.WriteFile(t, installRoot, "setup.bash", "shared")
	owned := testutil.WriteFile(t, installRoot, "share/alpha/data.txt", "owned")

	testutil.WriteFile(t, ctx.PackageMetadataPath("alpha"), InstallManifestFileName,
		shared+"\n"+owned+"\n")

	if err := cleanInstalledFiles(ctx, "alpha", os.Stderr, false); err != nil {
		t.Fatalf("cleanInstalledFiles: %v", err)
	}
	if _, err := os.Stat(shared); err != nil {
		t.Errorf("shared root file removed: %v", err)
	}
	if _, err := os.Stat(owned); err == nil {
		t.Error("owned file survived clean")
	}
	if _, err := os.Stat(filepath.Dir(owned)); err == nil {
		t.Error("empty package install directory survived clean")
	}
}

func TestJobEnvExtendsCMakePrefixPath(t *testing.T) {
	ctx := testContext(t)
	ctx.Config.ExtendPath = "/opt/ros/noetic"
	t.Setenv("CMAKE_PREFIX_PATH", "/existing")

	env := jobEnv(ctx)
	var prefixPath string
	for _, entry := range env {
		if value, found := strings.CutPrefix(entry, "CMAKE_PREFIX_PATH="); found {
			if prefixPath != "" {
				t.Fatal("CMAKE_PREFIX_PATH appears twice")
			}
			prefixPath = value
		}
	}
	for _, want := range []string{ctx.DevelSpace(), "/opt/ros/noetic", "/existing"} {
		if !strings.Contains(prefixPath, want) {
			t.Errorf("CMAKE_PREFIX_PATH %q missing %q", prefixPath, want)
		}
	}
}
