// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

// Package manifest parses package.xml manifests and discovers the
// packages of a source space.
package manifest

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// FileName is the manifest file that marks a package directory.
const FileName = "package.xml"

// IgnoreFileName marks a directory (and everything under it) as
// invisible to package discovery.
const IgnoreFileName = "CATKIN_IGNORE"

// Package is a parsed package manifest together with its location.
type Package struct {
	// Name is the package name from the manifest.
	Name string

	// Path is the package directory relative to the source space.
	Path string

	// Version is the declared package version.
	Version string

	// BuildDepends and RunDepends are the declared dependency names.
	// Format 2 "depend" tags contribute to both; "exec_depend" and the
	// legacy "run_depend" contribute to RunDepends.
	BuildDepends []string
	RunDepends   []string
	TestDepends  []string
}

// xmlManifest mirrors the package.xml schema, covering format 1 and
// format 2 dependency tags.
type xmlManifest struct {
	XMLName         xml.Name `xml:"package"`
	Name            string   `xml:"name"`
	Version         string   `xml:"version"`
	BuildDepends    []string `xml:"build_depend"`
	BuildtoolDeps   []string `xml:"buildtool_depend"`
	RunDepends      []string `xml:"run_depend"`
	ExecDepends     []string `xml:"exec_depend"`
	Depends         []string `xml:"depend"`
	TestDepends     []string `xml:"test_depend"`
	BuildExportDeps []string `xml:"build_export_depend"`
}

// Parse reads and parses a single package.xml file. relativePath is
// recorded as the package's location.
func Parse(manifestPath, relativePath string) (*Package, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return ParseBytes(data, relativePath)
}

// ParseBytes parses manifest content.
func ParseBytes(data []byte, relativePath string) (*Package, error) {
	var parsed xmlManifest
	if err := xml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parsing manifest at %s: %w", relativePath, err)
	}
	if parsed.Name == "" {
		return nil, fmt.Errorf("manifest at %s declares no package name", relativePath)
	}

	pkg := &Package{
		Name:    parsed.Name,
		Path:    relativePath,
		Version: parsed.Version,
	}
	pkg.BuildDepends = dedupe(parsed.BuildDepends, parsed.BuildtoolDeps, parsed.Depends, parsed.BuildExportDeps)
	pkg.RunDepends = dedupe(parsed.RunDepends, parsed.ExecDepends, parsed.Depends)
	pkg.TestDepends = dedupe(parsed.TestDepends)
	return pkg, nil
}

// dedupe merges dependency lists, dropping duplicates and preserving
// sorted order for deterministic output.
func dedupe(lists ...[]string) []string {
	seen := make(map[string]bool)
	var merged []string
	for _, list := range lists {
		for _, name := range list {
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			merged = append(merged, name)
		}
	}
	sort.Strings(merged)
	return merged
}

// FindPackages walks the source space and returns every package found,
// keyed by name. Directories containing a CATKIN_IGNORE file are
// skipped entirely; once a directory contains a package.xml, its
// subdirectories are not searched (nested packages are not a thing).
// Two packages declaring the same name is an error naming both paths.
func FindPackages(sourceSpace string) (map[string]*Package, error) {
	packages := make(map[string]*Package)

	err := filepath.WalkDir(sourceSpace, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}

		if _, statErr := os.Stat(filepath.Join(path, IgnoreFileName)); statErr == nil {
			return filepath.SkipDir
		}

		manifestPath := filepath.Join(path, FileName)
		if _, statErr := os.Stat(manifestPath); statErr != nil {
			return nil
		}

		relative, relErr := filepath.Rel(sourceSpace, path)
		if relErr != nil {
			return relErr
		}

		pkg, parseErr := Parse(manifestPath, relative)
		if parseErr != nil {
			return parseErr
		}
		if existing, duplicate := packages[pkg.Name]; duplicate {
			return fmt.Errorf("duplicate package %q found at %s and %s", pkg.Name, existing.Path, pkg.Path)
		}
		packages[pkg.Name] = pkg

		return filepath.SkipDir
	})
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("source space %s does not exist", sourceSpace)
	}
	if err != nil {
		return nil, err
	}
	return packages, nil
}

// SortedNames returns the package names in sorted order.
func SortedNames(packages map[string]*Package) []string {
	names := make([]string, 0, len(packages))
	for name := range packages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
