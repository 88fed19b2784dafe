// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

// Package scheduler executes build jobs concurrently while honoring
// their dependency edges.
//
// Jobs feed a ready channel consumed by a bounded worker pool; a job
// becomes ready when its last dependency finishes. A failed job marks
// its transitive dependents as skipped. Total command concurrency is
// bounded separately from package concurrency: every command stage
// takes a token from a shared pool, so "-p 4 -j 8" runs at most four
// packages whose stages never occupy more than eight commands at once.
package scheduler

import (
	"context"
	"io"
	"time"
)

// Stage is one sequential step of a job. Exactly one of Command or
// Func is set.
type Stage struct {
	// Label names the stage in logs and status output (e.g. "cmake").
	Label string

	// Command is the argv to execute. Stdout and stderr go to the
	// job's log and output writer.
	Command []string

	// Dir is the working directory for Command.
	Dir string

	// Env is the environment for Command; nil inherits the process
	// environment.
	Env []string

	// Func is an in-process stage. It receives a writer connected to
	// the same log destination as command output.
	Func func(ctx context.Context, out io.Writer) error

	// OccupiesJob makes the stage take a token from the shared command
	// pool. Function stages are cheap and never take one; command
	// stages should.
	OccupiesJob bool
}

// Job is a unit of schedulable work, typically one package.
type Job struct {
	// Name identifies the job; dependency edges refer to these names.
	Name string

	// DependsOn lists jobs that must succeed first. Names not present
	// in the executor's job set are rejected by New.
	DependsOn []string

	// Stages run sequentially; the first failure fails the job.
	Stages []*Stage

	// OpenLog opens the persistent log writer for a stage. Nil
	// discards log output.
	OpenLog func(stage string) (io.WriteCloser, error)

	// Output additionally receives all stage output (interleaved mode
	// wires a prefixing writer here; buffered mode a per-job buffer).
	// Nil discards.
	Output io.Writer
}

// Result is the terminal state of a job.
type Result string

const (
	// JobSucceeded means all stages passed.
	JobSucceeded Result = "succeeded"
	// JobFailed means a stage failed.
	JobFailed Result = "failed"
	// JobSkipped means an upstream dependency failed first.
	JobSkipped Result = "skipped"
	// JobAborted means the run stopped before the job started.
	JobAborted Result = "aborted"
)

// Reporter receives execution events. Implementations must be safe
// for concurrent use; workers call them directly.
type Reporter interface {
	JobStarted(job string)
	StageStarted(job, stage string)
	StageFinished(job, stage string, duration time.Duration, err error)
	JobFinished(job string, result Result, duration time.Duration, err error)
}

// NopReporter discards all events.
type NopReporter struct{}

func (NopReporter) JobStarted(string)                                     {}
func (NopReporter) StageStarted(string, string)                           {}
func (NopReporter) StageFinished(string, string, time.Duration, error)    {}
func (NopReporter) JobFinished(string, Result, time.Duration, error)      {}

// Summary aggregates a finished run.
type Summary struct {
	Succeeded []string
	Failed    []string
	Skipped   []string
	Aborted   []string
	Duration  time.Duration
}

// Ok reports whether every job succeeded.
func (s *Summary) Ok() bool {
	return len(s.Failed) == 0 && len(s.Skipped) == 0 && len(s.Aborted) == 0
}
