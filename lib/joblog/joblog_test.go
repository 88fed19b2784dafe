// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

package joblog

import (
	"os"
	"path/filepath"
	"testing"
)

func writeStageLog(t *testing.T, log *PackageLog, stage, content string) {
	t.Helper()
	writer, err := log.StageWriter(stage)
	if err != nil {
		t.Fatalf("StageWriter(%s): %v", stage, err)
	}
	if _, err := writer.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestOpenCreatesPackageDirectory(t *testing.T) {
	logSpace := t.TempDir()
	log, err := Open(logSpace, "roscpp")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if log.Dir() != filepath.Join(logSpace, "roscpp") {
		t.Fatalf("Dir = %q", log.Dir())
	}
	if _, err := os.Stat(log.Dir()); err != nil {
		t.Fatalf("log directory missing: %v", err)
	}
}

func TestStageWriterTruncates(t *testing.T) {
	log, err := Open(t.TempDir(), "pkg")
	if err != nil {
		t.Fatal(err)
	}
	writeStageLog(t, log, "make", "first run with a longer line\n")
	writeStageLog(t, log, "make", "short\n")

	data, err := os.ReadFile(log.StagePath("make"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "short\n" {
		t.Fatalf("stage log = %q, want the second run only", data)
	}
}

func TestReopenRotatesPreviousRun(t *testing.T) {
	logSpace := t.TempDir()
	log, err := Open(logSpace, "pkg")
	if err != nil {
		t.Fatal(err)
	}
	writeStageLog(t, log, "cmake", "configuring\n")
	writeStageLog(t, log, "make", "compiling\n")

	log, err = Open(logSpace, "pkg")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}

	if _, err := os.Stat(log.StagePath("cmake")); !os.IsNotExist(err) {
		t.Fatal("uncompressed log should be gone after rotation")
	}
	history, err := log.HistoryFiles("cmake")
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 {
		t.Fatalf("history = %v, want one entry", history)
	}
	content, err := ReadHistory(history[0])
	if err != nil {
		t.Fatalf("ReadHistory: %v", err)
	}
	if string(content) != "configuring\n" {
		t.Fatalf("rotated content = %q", content)
	}
}

func TestRotationIndicesIncrease(t *testing.T) {
	logSpace := t.TempDir()
	for i := range 3 {
		log, err := Open(logSpace, "pkg")
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		writeStageLog(t, log, "make", "run\n")
	}
	log, err := Open(logSpace, "pkg")
	if err != nil {
		t.Fatal(err)
	}

	history, err := log.HistoryFiles("make")
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 3 {
		t.Fatalf("history = %v, want three entries", history)
	}
	want := []string{"make.000.log.zst", "make.001.log.zst", "make.002.log.zst"}
	for i, path := range history {
		if filepath.Base(path) != want[i] {
			t.Errorf("history[%d] = %s, want %s", i, filepath.Base(path), want[i])
		}
	}
}

func TestHistoryFilesEmptyForNewPackage(t *testing.T) {
	log, err := Open(t.TempDir(), "fresh")
	if err != nil {
		t.Fatal(err)
	}
	history, err := log.HistoryFiles("make")
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 0 {
		t.Fatalf("history = %v, want none", history)
	}
}
