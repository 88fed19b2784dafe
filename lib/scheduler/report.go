// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

package scheduler

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Intermodalics/catkin-tools/lib/clock"
	"github.com/Intermodalics/catkin-tools/lib/style"
)

// activeLineInterval rate-limits the "still building" status line.
const activeLineInterval = 2 * time.Second

// StatusReporter prints one line per job event in the classic build
// format:
//
//	Starting  >>> roscpp
//	Finished  <<< roscpp            [ 12.4 seconds ]
//	Failed    <<< rosbag            [ stage "make" failed ]
//	Abandoned <<< rviz              [ upstream job "rosbag" did not succeed ]
//
// It is safe for concurrent use by executor workers.
type StatusReporter struct {
	mu      sync.Mutex
	out     io.Writer
	styler  *style.Styler
	clock   clock.Clock
	verbose bool

	total      int
	done       int
	active     map[string]bool
	lastActive time.Time
}

// NewStatusReporter builds a reporter writing to out. total is the
// number of jobs in the run, used for the [n/total] progress counter.
// With verbose set, stage transitions are printed too.
func NewStatusReporter(out io.Writer, styler *style.Styler, clk clock.Clock, total int, verbose bool) *StatusReporter {
	if clk == nil {
		clk = clock.Real()
	}
	return &StatusReporter{
		out:     out,
		styler:  styler,
		clock:   clk,
		verbose: verbose,
		total:   total,
		active:  make(map[string]bool),
	}
}

func (r *StatusReporter) JobStarted(job string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active[job] = true
	fmt.Fprintf(r.out, "Starting  >>> %s\n", r.styler.Package(job))
}

func (r *StatusReporter) StageStarted(job, stage string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.verbose {
		fmt.Fprintf(r.out, "Running   ... %s:%s\n", r.styler.Package(job), r.styler.Stage(stage))
	}
	r.maybePrintActive()
}

func (r *StatusReporter) StageFinished(job, stage string, duration time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		fmt.Fprintf(r.out, "%s <<< %s:%s [ %v ]\n",
			r.styler.Failure("Errors   "), r.styler.Package(job), r.styler.Stage(stage), err)
		return
	}
	if r.verbose {
		fmt.Fprintf(r.out, "Done      ... %s:%s [ %s ]\n",
			r.styler.Package(job), r.styler.Stage(stage), formatDuration(duration))
	}
}

func (r *StatusReporter) JobFinished(job string, result Result, duration time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, job)
	r.done++
	progress := r.styler.Dim(fmt.Sprintf("[%d/%d]", r.done, r.total))

	switch result {
	case JobSucceeded:
		fmt.Fprintf(r.out, "%s <<< %s [ %s ] %s\n",
			r.styler.Success("Finished "), r.styler.Package(job), formatDuration(duration), progress)
	case JobFailed:
		fmt.Fprintf(r.out, "%s <<< %s [ %v ] %s\n",
			r.styler.Failure("Failed   "), r.styler.Package(job), err, progress)
	default:
		fmt.Fprintf(r.out, "%s <<< %s [ %v ] %s\n",
			r.styler.Warning("Abandoned"), r.styler.Package(job), err, progress)
	}
}

// maybePrintActive prints the set of in-flight jobs, rate-limited so a
// busy run with chatty stages does not flood the terminal. Callers
// hold r.mu.
func (r *StatusReporter) maybePrintActive() {
	if len(r.active) == 0 || r.clock.Since(r.lastActive) < activeLineInterval {
		return
	}
	r.lastActive = r.clock.Now()
	names := make([]string, 0, len(r.active))
	for name := range r.active {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintf(r.out, "%s\n", r.styler.Dim(fmt.Sprintf("[%d/%d active: %s]",
		r.done, r.total, strings.Join(names, ", "))))
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1f seconds", d.Seconds())
}

// PrefixWriter prefixes every output line with a job tag so the
// interleaved output of concurrent jobs stays attributable. Partial
// lines are buffered until their newline arrives; Close flushes any
// remainder.
type PrefixWriter struct {
	mu     *sync.Mutex
	out    io.Writer
	prefix string
	buf    bytes.Buffer
}

// NewPrefixWriter tags lines with prefix. All writers sharing mu emit
// whole lines atomically with respect to each other.
func NewPrefixWriter(out io.Writer, mu *sync.Mutex, prefix string) *PrefixWriter {
	return &PrefixWriter{mu: mu, out: out, prefix: prefix}
}

func (w *PrefixWriter) Write(p []byte) (int, error) {
	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// Partial line, keep it buffered.
			w.buf.WriteString(line)
			break
		}
		if err := w.emit(line); err != nil {
			return len(p), err
		}
	}
	return len(p), nil
}

// Close flushes a trailing partial line.
func (w *PrefixWriter) Close() error {
	if w.buf.Len() == 0 {
		return nil
	}
	line := w.buf.String() + "\n"
	w.buf.Reset()
	return w.emit(line)
}

func (w *PrefixWriter) emit(line string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := fmt.Fprintf(w.out, "[%s] %s", w.prefix, line)
	return err
}

// BufferedWriter collects a job's output in memory and releases it as
// one block when Flush is called, keeping each job's output contiguous
// at the cost of liveness.
type BufferedWriter struct {
	mu  *sync.Mutex
	out io.Writer
	buf bytes.Buffer
}

// NewBufferedWriter collects output for one job. mu serializes Flush
// against other jobs' flushes and the reporter's status lines.
func NewBufferedWriter(out io.Writer, mu *sync.Mutex) *BufferedWriter {
	return &BufferedWriter{mu: mu, out: out}
}

func (w *BufferedWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

// Flush writes everything collected so far and resets the buffer.
func (w *BufferedWriter) Flush() error {
	if w.buf.Len() == 0 {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := w.out.Write(w.buf.Bytes())
	w.buf.Reset()
	return err
}
