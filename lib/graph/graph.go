// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

// Package graph computes the dependency graph of a set of workspace
// packages. Edges are restricted to packages present in the workspace;
// system dependencies (anything not discovered in the source space)
// are invisible here because the build has no job for them.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Intermodalics/catkin-tools/lib/manifest"
)

// Graph is an immutable dependency graph over workspace packages.
type Graph struct {
	packages   map[string]*manifest.Package
	depends    map[string][]string
	dependents map[string][]string
}

// New builds the graph for the given packages. Build and run
// dependencies both produce edges; test dependencies do not (tests
// are not built by default).
func New(packages map[string]*manifest.Package) *Graph {
	g := &Graph{
		packages:   packages,
		depends:    make(map[string][]string, len(packages)),
		dependents: make(map[string][]string, len(packages)),
	}

	for name, pkg := range packages {
		seen := make(map[string]bool)
		for _, dep := range pkg.BuildDepends {
			if _, local := packages[dep]; local && !seen[dep] && dep != name {
				seen[dep] = true
				g.depends[name] = append(g.depends[name], dep)
			}
		}
		for _, dep := range pkg.RunDepends {
			if _, local := packages[dep]; local && !seen[dep] && dep != name {
				seen[dep] = true
				g.depends[name] = append(g.depends[name], dep)
			}
		}
		sort.Strings(g.depends[name])
	}

	for name, deps := range g.depends {
		for _, dep := range deps {
			g.dependents[dep] = append(g.dependents[dep], name)
		}
	}
	for _, list := range g.dependents {
		sort.Strings(list)
	}

	return g
}

// Package returns the manifest of a package, or nil when unknown.
func (g *Graph) Package(name string) *manifest.Package {
	return g.packages[name]
}

// Names returns every package name, sorted.
func (g *Graph) Names() []string {
	return manifest.SortedNames(g.packages)
}

// Depends returns the direct workspace-local dependencies of a package.
func (g *Graph) Depends(name string) []string {
	return g.depends[name]
}

// Dependents returns the packages that directly depend on name.
func (g *Graph) Dependents(name string) []string {
	return g.dependents[name]
}

// DependsClosure returns the transitive dependencies of the given
// packages (excluding the packages themselves), sorted.
func (g *Graph) DependsClosure(names []string) []string {
	return g.closure(names, g.depends)
}

// DependentsClosure returns the transitive dependents of the given
// packages (excluding the packages themselves), sorted.
func (g *Graph) DependentsClosure(names []string) []string {
	return g.closure(names, g.dependents)
}

func (g *Graph) closure(names []string, edges map[string][]string) []string {
	visited := make(map[string]bool)
	queue := append([]string(nil), names...)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range edges[current] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	for _, name := range names {
		delete(visited, name)
	}

	result := make([]string, 0, len(visited))
	for name := range visited {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// TopologicalOrder returns every package in an order where each
// package follows all of its dependencies. Ties are broken by name so
// the order is deterministic. A dependency cycle is reported as an
// error naming the packages on the cycle.
func (g *Graph) TopologicalOrder() ([]string, error) {
	return g.orderSubset(g.Names())
}

// OrderSubset topologically orders only the given packages, using the
// edges between them.
func (g *Graph) OrderSubset(names []string) ([]string, error) {
	return g.orderSubset(names)
}

func (g *Graph) orderSubset(names []string) ([]string, error) {
	inSubset := make(map[string]bool, len(names))
	for _, name := range names {
		inSubset[name] = true
	}

	remaining := make(map[string]int, len(names))
	for _, name := range names {
		count := 0
		for _, dep := range g.depends[name] {
			if inSubset[dep] {
				count++
			}
		}
		remaining[name] = count
	}

	var ready []string
	for _, name := range names {
		if remaining[name] == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	var order []string
	for len(ready) > 0 {
		current := ready[0]
		ready = ready[1:]
		order = append(order, current)

		var unlocked []string
		for _, dependent := range g.dependents[current] {
			if !inSubset[dependent] {
				continue
			}
			remaining[dependent]--
			if remaining[dependent] == 0 {
				unlocked = append(unlocked, dependent)
			}
		}
		sort.Strings(unlocked)
		ready = mergeSorted(ready, unlocked)
	}

	if len(order) != len(names) {
		var stuck []string
		for name, count := range remaining {
			if count > 0 {
				stuck = append(stuck, name)
			}
		}
		sort.Strings(stuck)
		return nil, fmt.Errorf("dependency cycle involving: %s", strings.Join(stuck, ", "))
	}
	return order, nil
}

// mergeSorted merges two sorted string slices into one sorted slice.
func mergeSorted(a, b []string) []string {
	merged := make([]string, 0, len(a)+len(b))
	for len(a) > 0 && len(b) > 0 {
		if a[0] <= b[0] {
			merged = append(merged, a[0])
			a = a[1:]
		} else {
			merged = append(merged, b[0])
			b = b[1:]
		}
	}
	merged = append(merged, a...)
	return append(merged, b...)
}
