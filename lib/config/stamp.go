// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// BuildToolName is the stamp content this tool writes into the spaces
// it creates.
const BuildToolName = "catkin build"

const stampFileName = ".built_by"

// WriteSpaceStamp marks a build/devel/install space as produced by
// this tool, creating the directory if needed.
func WriteSpaceStamp(spacePath string) error {
	if err := os.MkdirAll(spacePath, 0o755); err != nil {
		return fmt.Errorf("creating space %s: %w", spacePath, err)
	}
	return os.WriteFile(filepath.Join(spacePath, stampFileName), []byte(BuildToolName+"\n"), 0o644)
}

// CheckSpaceStamp verifies that a space was produced by this tool. A
// space that does not exist or carries this tool's stamp passes. A
// space stamped by a different build tool fails unless override is
// set; the error names both tools, and each verb adds its own hint
// about how to override.
func CheckSpaceStamp(spacePath string, override bool) error {
	data, err := os.ReadFile(filepath.Join(spacePath, stampFileName))
	if os.IsNotExist(err) {
		// An unstamped but non-empty space predates this tool or was
		// made by one that leaves no stamp; treat it like a foreign
		// stamp so the user cannot silently mix build systems.
		entries, readErr := os.ReadDir(spacePath)
		if readErr != nil || len(entries) == 0 {
			return nil
		}
		if override {
			return nil
		}
		return fmt.Errorf("space %s exists but was not created by %q", spacePath, BuildToolName)
	}
	if err != nil {
		return fmt.Errorf("reading build tool stamp in %s: %w", spacePath, err)
	}

	stampedBy := strings.TrimSpace(string(data))
	if stampedBy == BuildToolName || override {
		return nil
	}
	return fmt.Errorf("space %s was built by %q, not %q", spacePath, stampedBy, BuildToolName)
}
