// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// VerbMetadataPath returns the YAML file holding a verb's metadata in
// a profile (e.g. profiles/default/config.yaml).
func VerbMetadataPath(workspacePath, profileName, verb string) string {
	return filepath.Join(ProfilePath(workspacePath, profileName), verb+".yaml")
}

// ReadVerbMetadata unmarshals a verb's metadata file into out. A
// missing or empty file leaves out untouched and returns false.
func ReadVerbMetadata(workspacePath, profileName, verb string, out any) (bool, error) {
	data, err := os.ReadFile(VerbMetadataPath(workspacePath, profileName, verb))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %s metadata: %w", verb, err)
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("parsing %s metadata for profile %q: %w", verb, profileName, err)
	}
	return true, nil
}

// WriteVerbMetadata marshals value into a verb's metadata file,
// initializing the profile directory first so a fresh workspace can
// be configured in one step.
func WriteVerbMetadata(workspacePath, profileName, verb string, value any) error {
	if err := InitProfile(workspacePath, profileName, false); err != nil {
		return err
	}

	data, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s metadata: %w", verb, err)
	}
	if err := os.WriteFile(VerbMetadataPath(workspacePath, profileName, verb), data, 0o644); err != nil {
		return fmt.Errorf("writing %s metadata: %w", verb, err)
	}
	return nil
}
