// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

package locate

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/Intermodalics/catkin-tools/cmd/catkin/cli"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestFlagSurface(t *testing.T) {
	flagSet := Command().Flags()
	for _, name := range []string{
		"existing-only", "relative", "quiet", "src", "build", "devel",
		"install", "logs", "workspace", "profile",
	} {
		if flagSet.Lookup(name) == nil {
			t.Errorf("missing flag --%s", name)
		}
	}
	for shorthand, long := range map[string]string{
		"e": "existing-only", "r": "relative", "q": "quiet",
		"s": "src", "b": "build", "d": "devel", "i": "install", "L": "logs",
	} {
		flag := flagSet.ShorthandLookup(shorthand)
		if flag == nil || flag.Name != long {
			t.Errorf("shorthand -%s should map to --%s", shorthand, long)
		}
	}
}

func TestHelpExitsClean(t *testing.T) {
	if err := Command().Execute(context.Background(), []string{"--help"}, testLogger()); err != nil {
		t.Fatalf("--help: %v", err)
	}
}

func TestSpaceFlagsAreExclusive(t *testing.T) {
	err := Command().Execute(context.Background(), []string{"--build", "--devel"}, testLogger())
	if err == nil {
		t.Fatal("--build --devel should be rejected")
	}
	var commandErr *cli.CommandError
	if !errors.As(err, &commandErr) || commandErr.Category != cli.CategoryValidation {
		t.Fatalf("want validation error, got %v", err)
	}
}

func TestSpaceFlagAndPackageAreExclusive(t *testing.T) {
	if err := Command().Execute(context.Background(), []string{"--build", "roscpp"}, testLogger()); err == nil {
		t.Fatal("a space flag plus a package name should be rejected")
	}
}

func TestRejectsMultiplePackages(t *testing.T) {
	if err := Command().Execute(context.Background(), []string{"a", "b"}, testLogger()); err == nil {
		t.Fatal("expected error for two package names")
	}
}
