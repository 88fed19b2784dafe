// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

// Package buildstate persists the per-package build record in the
// profile metadata directory. The record answers two questions the
// verbs ask: "which packages have never built successfully"
// (build --unbuilt) and "which records belong to packages that no
// longer exist in the source space" (clean --orphans).
//
// Records are CBOR-encoded: compact, schemaless-safe to extend, and
// not intended for manual editing (the YAML files are the human
// surface; this one is bookkeeping).
package buildstate

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// RecordFileName is the per-package record file inside the package's
// metadata directory.
const RecordFileName = "build_record.cbor"

// Result is the outcome of the last build attempt.
type Result string

const (
	// Succeeded means every stage of the last build attempt passed.
	Succeeded Result = "succeeded"
	// Failed means a stage failed or the job was aborted.
	Failed Result = "failed"
)

// Record describes the last build attempt of one package.
type Record struct {
	Package    string    `cbor:"package"`
	Result     Result    `cbor:"result"`
	StartedAt  time.Time `cbor:"started_at"`
	FinishedAt time.Time `cbor:"finished_at"`

	// ManifestHash is the hex BLAKE3 digest of the package.xml the
	// build saw.
	ManifestHash string `cbor:"manifest_hash"`
}

// Save writes the record into the package metadata directory,
// creating it if needed.
func Save(packageMetadataPath string, record Record) error {
	if err := os.MkdirAll(packageMetadataPath, 0o755); err != nil {
		return fmt.Errorf("creating package metadata directory: %w", err)
	}
	data, err := cbor.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding build record: %w", err)
	}
	if err := os.WriteFile(filepath.Join(packageMetadataPath, RecordFileName), data, 0o644); err != nil {
		return fmt.Errorf("writing build record: %w", err)
	}
	return nil
}

// Load reads a package's record. The second return is false when no
// record exists.
func Load(packageMetadataPath string) (Record, bool, error) {
	data, err := os.ReadFile(filepath.Join(packageMetadataPath, RecordFileName))
	if os.IsNotExist(err) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("reading build record: %w", err)
	}
	var record Record
	if err := cbor.Unmarshal(data, &record); err != nil {
		return Record{}, false, fmt.Errorf("parsing build record in %s: %w", packageMetadataPath, err)
	}
	return record, true, nil
}

// RecordedPackages lists the package names that have metadata
// directories under the profile's packages/ directory, sorted. Not
// every listed package necessarily has a build record (a clean can
// leave a bare directory).
func RecordedPackages(profileMetadataPath string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(profileMetadataPath, "packages"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing package metadata: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
