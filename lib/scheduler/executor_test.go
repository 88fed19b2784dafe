// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

package scheduler

import (
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Intermodalics/catkin-tools/lib/clock"
)

func funcStage(label string, fn func(ctx context.Context, out io.Writer) error) *Stage {
	return &Stage{Label: label, Func: fn}
}

func noopJob(name string, deps ...string) *Job {
	return &Job{
		Name:      name,
		DependsOn: deps,
		Stages: []*Stage{
			funcStage("work", func(context.Context, io.Writer) error { return nil }),
		},
	}
}

func mustRun(t *testing.T, jobs []*Job, options Options) (*Summary, error) {
	t.Helper()
	executor, err := New(jobs, options)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return executor.Run(context.Background(), nil)
}

func TestRunRespectsDependencyOrder(t *testing.T) {
	var mu sync.Mutex
	var order []string
	record := func(name string) *Job {
		return &Job{
			Name:      name,
			DependsOn: nil,
			Stages: []*Stage{
				funcStage("work", func(context.Context, io.Writer) error {
					mu.Lock()
					order = append(order, name)
					mu.Unlock()
					return nil
				}),
			},
		}
	}

	a := record("a")
	b := record("b")
	b.DependsOn = []string{"a"}
	c := record("c")
	c.DependsOn = []string{"b"}

	summary, err := mustRun(t, []*Job{c, a, b}, Options{Workers: 4})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !summary.Ok() {
		t.Fatalf("summary not ok: %+v", summary)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"a", "b", "c"}
	if !slices.Equal(order, want) {
		t.Errorf("execution order = %v, want %v", order, want)
	}
}

func TestRunBoundsWorkerConcurrency(t *testing.T) {
	var current, peak atomic.Int64
	var jobs []*Job
	for _, name := range []string{"p1", "p2", "p3", "p4", "p5"} {
		jobs = append(jobs, &Job{
			Name: name,
			Stages: []*Stage{
				funcStage("work", func(context.Context, io.Writer) error {
					n := current.Add(1)
					for {
						p := peak.Load()
						if n <= p || peak.CompareAndSwap(p, n) {
							break
						}
					}
					time.Sleep(5 * time.Millisecond)
					current.Add(-1)
					return nil
				}),
			},
		})
	}

	summary, err := mustRun(t, jobs, Options{Workers: 2})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := len(summary.Succeeded); got != 5 {
		t.Fatalf("succeeded = %d, want 5", got)
	}
	if p := peak.Load(); p > 2 {
		t.Errorf("peak concurrency = %d, want at most 2", p)
	}
}

func TestRunBoundsJobTokens(t *testing.T) {
	var current, peak atomic.Int64
	tracked := func(name string) *Job {
		return &Job{
			Name: name,
			Stages: []*Stage{
				{
					Label:       "work",
					OccupiesJob: true,
					Func: func(context.Context, io.Writer) error {
						n := current.Add(1)
						for {
							p := peak.Load()
							if n <= p || peak.CompareAndSwap(p, n) {
								break
							}
						}
						time.Sleep(5 * time.Millisecond)
						current.Add(-1)
						return nil
					},
				},
			},
		}
	}

	jobs := []*Job{tracked("p1"), tracked("p2"), tracked("p3")}
	summary, err := mustRun(t, jobs, Options{Workers: 3, JobTokens: 1})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !summary.Ok() {
		t.Fatalf("summary not ok: %+v", summary)
	}
	if p := peak.Load(); p > 1 {
		t.Errorf("peak token occupancy = %d, want at most 1", p)
	}
}

func TestFailureSkipsTransitiveDependents(t *testing.T) {
	boom := errors.New("boom")
	a := &Job{
		Name: "a",
		Stages: []*Stage{
			funcStage("work", func(context.Context, io.Writer) error { return boom }),
		},
	}
	b := noopJob("b", "a")
	c := noopJob("c", "b")
	d := noopJob("d")

	summary, err := mustRun(t, []*Job{a, b, c, d}, Options{
		Workers:           1,
		ContinueOnFailure: true,
	})
	if err == nil || !strings.Contains(err.Error(), "a:") {
		t.Fatalf("Run error = %v, want failure attributed to a", err)
	}
	if !slices.Equal(summary.Failed, []string{"a"}) {
		t.Errorf("failed = %v, want [a]", summary.Failed)
	}
	if !slices.Equal(summary.Skipped, []string{"b", "c"}) {
		t.Errorf("skipped = %v, want [b c]", summary.Skipped)
	}
	if !slices.Equal(summary.Succeeded, []string{"d"}) {
		t.Errorf("succeeded = %v, want [d]", summary.Succeeded)
	}
}

func TestStageFailureStopsRemainingStages(t *testing.T) {
	var secondRan atomic.Bool
	job := &Job{
		Name: "pkg",
		Stages: []*Stage{
			funcStage("first", func(context.Context, io.Writer) error {
				return errors.New("no good")
			}),
			funcStage("second", func(context.Context, io.Writer) error {
				secondRan.Store(true)
				return nil
			}),
		},
	}

	summary, err := mustRun(t, []*Job{job}, Options{Workers: 1})
	if err == nil || !strings.Contains(err.Error(), `stage "first"`) {
		t.Fatalf("Run error = %v, want stage failure", err)
	}
	if secondRan.Load() {
		t.Error("second stage ran after first failed")
	}
	if !slices.Equal(summary.Failed, []string{"pkg"}) {
		t.Errorf("failed = %v, want [pkg]", summary.Failed)
	}
}

func TestCommandStageWritesOutput(t *testing.T) {
	var mu sync.Mutex
	var out strings.Builder
	job := &Job{
		Name: "pkg",
		Stages: []*Stage{
			{
				Label:       "echo",
				Command:     []string{"sh", "-c", "echo hello"},
				OccupiesJob: true,
			},
		},
		Output: NewPrefixWriter(&out, &mu, "pkg"),
	}

	summary, err := mustRun(t, []*Job{job}, Options{Workers: 1, JobTokens: 1})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !summary.Ok() {
		t.Fatalf("summary not ok: %+v", summary)
	}
	if got := out.String(); got != "[pkg] hello\n" {
		t.Errorf("output = %q, want %q", got, "[pkg] hello\n")
	}
}

func TestNewRejectsUnknownDependency(t *testing.T) {
	_, err := New([]*Job{noopJob("a", "ghost")}, Options{})
	if err == nil || !strings.Contains(err.Error(), `unknown job "ghost"`) {
		t.Fatalf("New error = %v, want unknown dependency", err)
	}
}

func TestNewRejectsDuplicateJob(t *testing.T) {
	_, err := New([]*Job{noopJob("a"), noopJob("a")}, Options{})
	if err == nil || !strings.Contains(err.Error(), `duplicate job "a"`) {
		t.Fatalf("New error = %v, want duplicate job", err)
	}
}

func TestNewRejectsCycle(t *testing.T) {
	_, err := New([]*Job{noopJob("a", "b"), noopJob("b", "a")}, Options{})
	if err == nil || !strings.Contains(err.Error(), "dependency cycle") {
		t.Fatalf("New error = %v, want cycle error", err)
	}
}

func TestLoadLimitNeverStarvesIdleRun(t *testing.T) {
	// Load is far over the limit, but with nothing running the next
	// job must start anyway.
	summary, err := mustRun(t, []*Job{noopJob("a")}, Options{
		Workers:     1,
		LoadLimit:   1,
		LoadAverage: func() (float64, error) { return 999, nil },
		Clock:       clock.Fake(time.Unix(0, 0)),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !slices.Equal(summary.Succeeded, []string{"a"}) {
		t.Fatalf("succeeded = %v, want [a]", summary.Succeeded)
	}
}

func TestWaitForLoadDefersWhileBusy(t *testing.T) {
	fake := clock.Fake(time.Unix(0, 0))
	var load atomic.Int64
	load.Store(999)

	executor, err := New([]*Job{noopJob("a")}, Options{
		Workers:   1,
		LoadLimit: 1,
		LoadAverage: func() (float64, error) {
			return float64(load.Load()), nil
		},
		Clock: fake,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	executor.running.Store(1)

	done := make(chan struct{})
	go func() {
		executor.waitForLoad(context.Background())
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("waitForLoad returned while load was over the limit")
	case <-time.After(20 * time.Millisecond):
	}

	load.Store(0)
	fake.Advance(loadPollInterval)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("waitForLoad did not return after load dropped")
	}
}
