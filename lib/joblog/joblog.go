// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

// Package joblog manages the per-package stage logs in the log space.
//
// Each package owns a directory <logs>/<package> with one file per
// stage (cmake.log, make.log, ...). When a new build of the package
// starts, the previous run's logs are rotated: compressed with zstd
// and renamed to <stage>.<index>.log.zst, so the uncompressed files
// always describe the latest run while history stays cheap to keep.
package joblog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"
)

const compressedSuffix = ".log.zst"

// PackageLog is the log directory of one package for the current run.
type PackageLog struct {
	dir string
}

// Open prepares the log directory for a new run of a package,
// rotating logs left over from the previous run.
func Open(logSpace, packageName string) (*PackageLog, error) {
	dir := filepath.Join(logSpace, packageName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	log := &PackageLog{dir: dir}
	if err := log.rotate(); err != nil {
		return nil, err
	}
	return log, nil
}

// Dir returns the package's log directory.
func (l *PackageLog) Dir() string { return l.dir }

// StagePath returns the log file path for a stage in the current run.
func (l *PackageLog) StagePath(stage string) string {
	return filepath.Join(l.dir, stage+".log")
}

// StageWriter creates (truncating) the log file for a stage.
func (l *PackageLog) StageWriter(stage string) (io.WriteCloser, error) {
	file, err := os.Create(l.StagePath(stage))
	if err != nil {
		return nil, fmt.Errorf("creating stage log: %w", err)
	}
	return file, nil
}

// rotate compresses every uncompressed stage log into a numbered
// history entry and removes the original.
func (l *PackageLog) rotate() error {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return fmt.Errorf("reading log directory: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".log") {
			continue
		}
		stage := strings.TrimSuffix(name, ".log")

		index := l.nextHistoryIndex(entries, stage)
		source := filepath.Join(l.dir, name)
		target := filepath.Join(l.dir, fmt.Sprintf("%s.%03d%s", stage, index, compressedSuffix))
		if err := compressFile(source, target); err != nil {
			return fmt.Errorf("rotating %s: %w", name, err)
		}
		if err := os.Remove(source); err != nil {
			return fmt.Errorf("removing rotated log %s: %w", name, err)
		}
	}
	return nil
}

// nextHistoryIndex returns one past the highest history index already
// present for a stage.
func (l *PackageLog) nextHistoryIndex(entries []os.DirEntry, stage string) int {
	highest := -1
	prefix := stage + "."
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, compressedSuffix) {
			continue
		}
		middle := strings.TrimSuffix(strings.TrimPrefix(name, prefix), compressedSuffix)
		var index int
		if _, err := fmt.Sscanf(middle, "%d", &index); err == nil && index > highest {
			highest = index
		}
	}
	return highest + 1
}

// HistoryFiles returns the compressed history entries for a stage,
// oldest first.
func (l *PackageLog) HistoryFiles(stage string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(l.dir, stage+".*"+compressedSuffix))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// ReadHistory decompresses one rotated log file.
func ReadHistory(path string) ([]byte, error) {
	compressed, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rotated log: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("initializing zstd decoder: %w", err)
	}
	defer decoder.Close()
	data, err := decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompressing rotated log %s: %w", path, err)
	}
	return data, nil
}

func compressFile(source, target string) error {
	data, err := os.ReadFile(source)
	if err != nil {
		return err
	}
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("initializing zstd encoder: %w", err)
	}
	compressed := encoder.EncodeAll(data, nil)
	if err := encoder.Close(); err != nil {
		return err
	}
	return os.WriteFile(target, compressed, 0o644)
}
