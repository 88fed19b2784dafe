// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
)

func TestRootCarriesEveryVerb(t *testing.T) {
	root := Root()
	present := make(map[string]bool, len(root.Subcommands))
	for _, sub := range root.Subcommands {
		present[sub.Name] = true
	}
	for _, verb := range []string{"init", "config", "profile", "list", "locate", "build", "clean", "version"} {
		if !present[verb] {
			t.Errorf("root is missing the %s verb", verb)
		}
	}
}

func TestRootHelpExitsClean(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	if err := Root().Execute(context.Background(), []string{"--help"}, logger); err != nil {
		t.Fatalf("--help: %v", err)
	}
}

func TestVersionRuns(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	if err := Root().Execute(context.Background(), []string{"version"}, logger); err != nil {
		t.Fatalf("version: %v", err)
	}
}
