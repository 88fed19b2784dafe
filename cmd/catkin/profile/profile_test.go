// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

package profile

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/Intermodalics/catkin-tools/lib/workspace"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	return Command().Execute(context.Background(), args, testLogger())
}

func initializedWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := workspace.InitProfile(dir, "default", false); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestHelpExitsClean(t *testing.T) {
	if err := execute(t, "--help"); err != nil {
		t.Fatalf("--help: %v", err)
	}
}

func TestRequiresSubcommand(t *testing.T) {
	if err := execute(t); err == nil {
		t.Fatal("expected error without a subcommand")
	}
}

func TestAddAndSetProfile(t *testing.T) {
	ws := initializedWorkspace(t)

	if err := execute(t, "add", "-w", ws, "debug"); err != nil {
		t.Fatalf("profile add: %v", err)
	}
	if !workspace.ProfileExists(ws, "debug") {
		t.Fatal("profile debug should exist")
	}

	if err := execute(t, "set", "-w", ws, "debug"); err != nil {
		t.Fatalf("profile set: %v", err)
	}
	active, err := workspace.ActiveProfile(ws)
	if err != nil {
		t.Fatal(err)
	}
	if active != "debug" {
		t.Fatalf("active = %q", active)
	}
}

func TestAddExistingProfileNeedsForce(t *testing.T) {
	ws := initializedWorkspace(t)

	if err := execute(t, "add", "-w", ws, "default"); err == nil {
		t.Fatal("adding an existing profile without --force should fail")
	}
	if err := execute(t, "add", "-w", ws, "-f", "default"); err != nil {
		t.Fatalf("profile add --force: %v", err)
	}
}

func TestAddCopyAndCopyActiveAreExclusive(t *testing.T) {
	ws := initializedWorkspace(t)
	if err := execute(t, "add", "-w", ws, "--copy", "default", "--copy-active", "twin"); err == nil {
		t.Fatal("--copy and --copy-active together should fail")
	}
}

func TestRenameProfile(t *testing.T) {
	ws := initializedWorkspace(t)
	if err := execute(t, "rename", "-w", ws, "default", "primary"); err != nil {
		t.Fatalf("profile rename: %v", err)
	}
	if workspace.ProfileExists(ws, "default") || !workspace.ProfileExists(ws, "primary") {
		t.Fatal("rename did not move the profile directory")
	}
}

func TestRemoveProfile(t *testing.T) {
	ws := initializedWorkspace(t)
	if err := execute(t, "add", "-w", ws, "scratch"); err != nil {
		t.Fatal(err)
	}
	if err := execute(t, "remove", "-w", ws, "scratch"); err != nil {
		t.Fatalf("profile remove: %v", err)
	}
	if workspace.ProfileExists(ws, "scratch") {
		t.Fatal("profile should be removed")
	}
}

func TestRemoveUnknownProfileFails(t *testing.T) {
	ws := initializedWorkspace(t)
	if err := execute(t, "remove", "-w", ws, "ghost"); err == nil {
		t.Fatal("removing an unknown profile should fail")
	}
}

func TestSetWrongArgumentCount(t *testing.T) {
	ws := initializedWorkspace(t)
	if err := execute(t, "set", "-w", ws); err == nil {
		t.Fatal("profile set without a name should fail")
	}
	if err := execute(t, "set", "-w", ws, "a", "b"); err == nil {
		t.Fatal("profile set with two names should fail")
	}
}
