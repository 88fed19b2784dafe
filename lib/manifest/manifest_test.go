// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const roscppManifest = `<?xml version="1.0"?>
<package format="2">
  <name>roscpp</name>
  <version>1.15.9</version>
  <buildtool_depend>catkin</buildtool_depend>
  <build_depend>cpp_common</build_depend>
  <depend>rosconsole</depend>
  <exec_depend>rosgraph_msgs</exec_depend>
  <test_depend>rostest</test_depend>
</package>
`

func TestParseBytesFormat2(t *testing.T) {
	pkg, err := ParseBytes([]byte(roscppManifest), "ros_comm/roscpp")
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}

	if pkg.Name != "roscpp" || pkg.Version != "1.15.9" || pkg.Path != "ros_comm/roscpp" {
		t.Fatalf("parsed header = %+v", pkg)
	}
	wantBuild := []string{"catkin", "cpp_common", "rosconsole"}
	if !reflect.DeepEqual(pkg.BuildDepends, wantBuild) {
		t.Errorf("BuildDepends = %v, want %v", pkg.BuildDepends, wantBuild)
	}
	wantRun := []string{"rosconsole", "rosgraph_msgs"}
	if !reflect.DeepEqual(pkg.RunDepends, wantRun) {
		t.Errorf("RunDepends = %v, want %v", pkg.RunDepends, wantRun)
	}
	if !reflect.DeepEqual(pkg.TestDepends, []string{"rostest"}) {
		t.Errorf("TestDepends = %v", pkg.TestDepends)
	}
}

func TestParseBytesLegacyRunDepend(t *testing.T) {
	data := `<package><name>old_pkg</name><version>0.1.0</version><run_depend>roscpp</run_depend></package>`
	pkg, err := ParseBytes([]byte(data), "old_pkg")
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}
	if !reflect.DeepEqual(pkg.RunDepends, []string{"roscpp"}) {
		t.Fatalf("RunDepends = %v, want [roscpp]", pkg.RunDepends)
	}
}

func TestParseBytesRejectsMissingName(t *testing.T) {
	if _, err := ParseBytes([]byte(`<package><version>1.0.0</version></package>`), "x"); err == nil {
		t.Fatal("expected error for a manifest without a name")
	}
}

func TestParseBytesRejectsMalformedXML(t *testing.T) {
	if _, err := ParseBytes([]byte(`<package><name>broken`), "x"); err == nil {
		t.Fatal("expected error for malformed XML")
	}
}

func writeManifest(t *testing.T, sourceSpace, dir, name string) {
	t.Helper()
	path := filepath.Join(sourceSpace, dir)
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatal(err)
	}
	content := `<package><name>` + name + `</name><version>0.1.0</version></package>`
	if err := os.WriteFile(filepath.Join(path, FileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFindPackagesDiscoversNestedDirectories(t *testing.T) {
	src := t.TempDir()
	writeManifest(t, src, "roscpp", "roscpp")
	writeManifest(t, src, filepath.Join("common", "cpp_common"), "cpp_common")

	packages, err := FindPackages(src)
	if err != nil {
		t.Fatalf("FindPackages: %v", err)
	}
	if len(packages) != 2 {
		t.Fatalf("found %d packages, want 2: %v", len(packages), SortedNames(packages))
	}
	if packages["cpp_common"].Path != filepath.Join("common", "cpp_common") {
		t.Errorf("cpp_common path = %q", packages["cpp_common"].Path)
	}
}

func TestFindPackagesSkipsIgnoredDirectories(t *testing.T) {
	src := t.TempDir()
	writeManifest(t, src, "visible", "visible")
	writeManifest(t, src, filepath.Join("vendor", "hidden"), "hidden")
	if err := os.WriteFile(filepath.Join(src, "vendor", IgnoreFileName), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	packages, err := FindPackages(src)
	if err != nil {
		t.Fatal(err)
	}
	if _, found := packages["hidden"]; found {
		t.Fatal("packages under CATKIN_IGNORE should be invisible")
	}
	if _, found := packages["visible"]; !found {
		t.Fatal("visible package should be discovered")
	}
}

func TestFindPackagesDoesNotDescendIntoPackages(t *testing.T) {
	src := t.TempDir()
	writeManifest(t, src, "outer", "outer")
	writeManifest(t, src, filepath.Join("outer", "inner"), "inner")

	packages, err := FindPackages(src)
	if err != nil {
		t.Fatal(err)
	}
	if _, found := packages["inner"]; found {
		t.Fatal("discovery should stop at the outer package")
	}
}

func TestFindPackagesRejectsDuplicateNames(t *testing.T) {
	src := t.TempDir()
	writeManifest(t, src, "a", "twin")
	writeManifest(t, src, "b", "twin")

	_, err := FindPackages(src)
	if err == nil {
		t.Fatal("expected error for duplicate package names")
	}
	if !strings.Contains(err.Error(), "twin") {
		t.Fatalf("error should name the duplicate package: %v", err)
	}
}

func TestFindPackagesRejectsMissingSourceSpace(t *testing.T) {
	if _, err := FindPackages(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("expected error for a missing source space")
	}
}
