// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Intermodalics/catkin-tools/lib/clock"
	"github.com/Intermodalics/catkin-tools/lib/sysinfo"
)

// loadPollInterval is how often a throttled worker re-samples the
// load average.
const loadPollInterval = 500 * time.Millisecond

// Options tune an Executor.
type Options struct {
	// Workers bounds concurrently running jobs (parallel packages).
	// Zero means the CPU count.
	Workers int

	// JobTokens bounds concurrently running command stages across all
	// jobs. Zero means the CPU count.
	JobTokens int

	// LoadLimit defers job dispatch while the 1-minute load average
	// exceeds this value and at least one job is already running.
	// Zero disables throttling.
	LoadLimit float64

	// ContinueOnFailure keeps independent jobs running after a
	// failure; only the failure's dependents are skipped. The default
	// aborts every job that has not started yet.
	ContinueOnFailure bool

	// Clock defaults to clock.Real().
	Clock clock.Clock

	// LoadAverage defaults to sysinfo.LoadAverage. Injectable for
	// tests.
	LoadAverage func() (float64, error)

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Executor runs a fixed set of jobs respecting dependency order.
type Executor struct {
	options Options
	states  map[string]*jobState
	names   []string
	tokens  chan struct{}
	running atomic.Int64
	wg      sync.WaitGroup
}

type jobState struct {
	job        *Job
	remaining  atomic.Int32
	dependents []*jobState

	finished atomic.Bool
	result   Result
	err      error
	duration time.Duration
}

// New validates the job set (unique names, known dependencies, no
// cycles) and prepares an executor for one Run.
func New(jobs []*Job, options Options) (*Executor, error) {
	if options.Workers <= 0 {
		options.Workers = sysinfo.CPUCount()
	}
	if options.JobTokens <= 0 {
		options.JobTokens = sysinfo.CPUCount()
	}
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.LoadAverage == nil {
		options.LoadAverage = sysinfo.LoadAverage
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	e := &Executor{
		options: options,
		states:  make(map[string]*jobState, len(jobs)),
		tokens:  make(chan struct{}, options.JobTokens),
	}
	for range options.JobTokens {
		e.tokens <- struct{}{}
	}

	for _, job := range jobs {
		if _, duplicate := e.states[job.Name]; duplicate {
			return nil, fmt.Errorf("duplicate job %q", job.Name)
		}
		e.states[job.Name] = &jobState{job: job}
		e.names = append(e.names, job.Name)
	}

	for _, job := range jobs {
		state := e.states[job.Name]
		for _, dep := range job.DependsOn {
			depState, known := e.states[dep]
			if !known {
				return nil, fmt.Errorf("job %q depends on unknown job %q", job.Name, dep)
			}
			depState.dependents = append(depState.dependents, state)
			state.remaining.Add(1)
		}
	}

	if err := e.checkAcyclic(); err != nil {
		return nil, err
	}
	return e, nil
}

// checkAcyclic runs a Kahn pass over a scratch copy of the dependency
// counts. The executor would deadlock on a cycle, so reject it up
// front with the stuck jobs named.
func (e *Executor) checkAcyclic() error {
	counts := make(map[string]int, len(e.states))
	var queue []*jobState
	for name, state := range e.states {
		counts[name] = int(state.remaining.Load())
		if counts[name] == 0 {
			queue = append(queue, state)
		}
	}

	processed := 0
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		processed++
		for _, dependent := range current.dependents {
			counts[dependent.job.Name]--
			if counts[dependent.job.Name] == 0 {
				queue = append(queue, dependent)
			}
		}
	}
	if processed != len(e.states) {
		var stuck []string
		for name, count := range counts {
			if count > 0 {
				stuck = append(stuck, name)
			}
		}
		return fmt.Errorf("dependency cycle involving: %s", strings.Join(stuck, ", "))
	}
	return nil
}

// Run executes all jobs and returns the run summary. The returned
// error is the first real failure (skips and aborts are symptoms, not
// causes); a nil error means every job succeeded.
func (e *Executor) Run(ctx context.Context, reporter Reporter) (*Summary, error) {
	if reporter == nil {
		reporter = NopReporter{}
	}
	start := e.options.Clock.Now()

	ready := make(chan *jobState, len(e.states))
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	rootCount := 0
	for _, name := range e.names {
		state := e.states[name]
		if state.remaining.Load() == 0 {
			ready <- state
			rootCount++
		}
	}
	e.options.Logger.Debug("scheduler starting",
		"jobs", len(e.states), "roots", rootCount,
		"workers", e.options.Workers, "job_tokens", e.options.JobTokens)

	e.wg.Add(len(e.states))
	for range e.options.Workers {
		go e.worker(runCtx, ready, cancel, reporter)
	}
	e.wg.Wait()
	close(ready)

	summary := &Summary{Duration: e.options.Clock.Since(start)}
	var firstFailure error
	for _, name := range e.names {
		state := e.states[name]
		switch state.result {
		case JobSucceeded:
			summary.Succeeded = append(summary.Succeeded, name)
		case JobFailed:
			summary.Failed = append(summary.Failed, name)
			if firstFailure == nil {
				firstFailure = fmt.Errorf("%s: %w", name, state.err)
			}
		case JobSkipped:
			summary.Skipped = append(summary.Skipped, name)
		default:
			summary.Aborted = append(summary.Aborted, name)
		}
	}
	return summary, firstFailure
}

// finish moves a job into a terminal state exactly once. Returns
// false when the job already finished (e.g. it was skipped before a
// worker picked it up).
func (e *Executor) finish(state *jobState, result Result, err error, duration time.Duration, reporter Reporter) bool {
	if !state.finished.CompareAndSwap(false, true) {
		return false
	}
	state.result = result
	state.err = err
	state.duration = duration
	reporter.JobFinished(state.job.Name, result, duration, err)
	e.wg.Done()
	return true
}

// cascade marks every transitive dependent of state as result, for
// failure skips and for aborts. Dependents that already finished (or
// were already cascaded through) are left alone.
func (e *Executor) cascade(state *jobState, result Result, reporter Reporter) {
	for _, dependent := range state.dependents {
		err := fmt.Errorf("upstream job %q did not succeed", state.job.Name)
		if e.finish(dependent, result, err, 0, reporter) {
			e.cascade(dependent, result, reporter)
		}
	}
}

func (e *Executor) worker(ctx context.Context, ready chan *jobState, cancel context.CancelFunc, reporter Reporter) {
	for state := range ready {
		if state.finished.Load() {
			// Skipped or aborted before we picked it up.
			continue
		}

		if ctx.Err() != nil {
			if e.finish(state, JobAborted, ctx.Err(), 0, reporter) {
				e.cascade(state, JobAborted, reporter)
			}
			continue
		}

		e.waitForLoad(ctx)

		e.running.Add(1)
		reporter.JobStarted(state.job.Name)
		start := e.options.Clock.Now()
		err := e.runJob(ctx, state.job, reporter)
		duration := e.options.Clock.Since(start)
		e.running.Add(-1)

		if err != nil {
			e.options.Logger.Debug("job failed", "job", state.job.Name, "error", err)
			if e.finish(state, JobFailed, err, duration, reporter) {
				e.cascade(state, JobSkipped, reporter)
			}
			if !e.options.ContinueOnFailure {
				cancel()
			}
			continue
		}

		if e.finish(state, JobSucceeded, nil, duration, reporter) {
			for _, dependent := range state.dependents {
				if dependent.remaining.Add(-1) == 0 && !dependent.finished.Load() {
					ready <- dependent
				}
			}
		}
	}
}

// waitForLoad blocks while the load average exceeds the configured
// limit. Dispatch never starves completely: when nothing is running,
// the next job starts regardless of load, otherwise a loaded machine
// could make no progress at all.
func (e *Executor) waitForLoad(ctx context.Context) {
	if e.options.LoadLimit <= 0 {
		return
	}
	for ctx.Err() == nil {
		load, err := e.options.LoadAverage()
		if err != nil {
			return
		}
		if load < e.options.LoadLimit || e.running.Load() == 0 {
			return
		}
		e.options.Logger.Debug("deferring job for load average",
			"load", load, "limit", e.options.LoadLimit)
		select {
		case <-e.options.Clock.After(loadPollInterval):
		case <-ctx.Done():
			return
		}
	}
}

// runJob executes a job's stages sequentially, stopping at the first
// failure.
func (e *Executor) runJob(ctx context.Context, job *Job, reporter Reporter) error {
	for _, stage := range job.Stages {
		reporter.StageStarted(job.Name, stage.Label)
		start := e.options.Clock.Now()
		err := e.runStage(ctx, job, stage)
		reporter.StageFinished(job.Name, stage.Label, e.options.Clock.Since(start), err)
		if err != nil {
			return fmt.Errorf("stage %q: %w", stage.Label, err)
		}
	}
	return nil
}

func (e *Executor) runStage(ctx context.Context, job *Job, stage *Stage) error {
	var sinks []io.Writer
	if job.OpenLog != nil {
		logWriter, err := job.OpenLog(stage.Label)
		if err != nil {
			return err
		}
		defer logWriter.Close()
		sinks = append(sinks, logWriter)
	}
	if job.Output != nil {
		sinks = append(sinks, job.Output)
	}
	var out io.Writer = io.Discard
	if len(sinks) > 0 {
		out = io.MultiWriter(sinks...)
	}

	if stage.OccupiesJob {
		select {
		case <-e.tokens:
		case <-ctx.Done():
			return ctx.Err()
		}
		defer func() { e.tokens <- struct{}{} }()
	}

	if stage.Func != nil {
		return stage.Func(ctx, out)
	}

	command := exec.CommandContext(ctx, stage.Command[0], stage.Command[1:]...)
	command.Dir = stage.Dir
	command.Env = stage.Env
	command.Stdout = out
	command.Stderr = out
	if err := command.Run(); err != nil {
		return fmt.Errorf("%s: %w", strings.Join(stage.Command, " "), err)
	}
	return nil
}
