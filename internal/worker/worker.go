// Package worker spawns and supervises the external worker process that
// performs one phase (implement or spec-check) for one task. The worker
// is a black box invoked by command line; its verdict is communicated
// through files it writes into its worker-local state directory and
// through its exit code.
package worker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/ariel-frischer/waveorc/internal/state"
)

// OutcomeStatus is the closed set of results a worker run can have.
type OutcomeStatus string

const (
	StatusPassed   OutcomeStatus = "passed"
	StatusFailed   OutcomeStatus = "failed"
	StatusTimedOut OutcomeStatus = "timed_out"
)

// Spec describes one worker invocation, built by the wave engine from a
// sandbox and the spec.md §6.2 spawn contract.
type Spec struct {
	TaskID      string
	RunnerBin   string
	Workflow    string
	Phase       state.WavePhase
	Provider    string
	WorkflowsDir string
	PromptsDir  string
	StateDir    string // worker-local state dir
	WorkDir     string // worker-local working dir (sandbox checkout)
}

// Args builds the positional argument list per spec.md §6.2.
func (s Spec) Args() []string {
	return []string{
		"run-phase",
		"--workflow", s.Workflow,
		"--phase", string(s.Phase),
		"--provider", s.Provider,
		"--workflows-dir", s.WorkflowsDir,
		"--prompts-dir", s.PromptsDir,
		"--state-dir", s.StateDir,
		"--work-dir", s.WorkDir,
	}
}

// Outcome is the result of one worker invocation, as consumed by the
// wave engine to decide the task's post-wave status.
type Outcome struct {
	TaskID     string
	ExitCode   int
	Status     OutcomeStatus
	TaskPassed bool
	TaskFailed bool
	Err        error
}

// LogSink receives one line of worker output, already prefixed with
// "[WORKER <taskId>][<stream>]" by the supervisor.
type LogSink func(line string)

// Handle is a live, running worker. The timeout monitor may read LastActivity
// and call Kill, but must never mutate Outcome directly — only the owning
// goroutine that waits on the process may do that (spec.md DESIGN NOTES:
// documented ownership over shared mutable state).
type Handle struct {
	TaskID string

	mu           sync.Mutex
	cmd          *exec.Cmd
	lastActivity time.Time
	exited       bool
	timedOut     bool
	streamWG     *sync.WaitGroup
}

func newHandle(taskID string, cmd *exec.Cmd) *Handle {
	return &Handle{TaskID: taskID, cmd: cmd, lastActivity: time.Now()}
}

// NewTestHandle returns a Handle with no backing process, for use by
// fakes in other packages' tests that need a worker.Handle value
// without spawning a real one.
func NewTestHandle(taskID string) *Handle {
	return newHandle(taskID, nil)
}

// LastActivity returns the timestamp of the most recently observed byte
// of output (or spawn time, if none yet).
func (h *Handle) LastActivity() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastActivity
}

func (h *Handle) touch() {
	h.mu.Lock()
	h.lastActivity = time.Now()
	h.mu.Unlock()
}

// Exited reports whether the process has already terminated.
func (h *Handle) Exited() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exited
}

func (h *Handle) markExited() {
	h.mu.Lock()
	h.exited = true
	h.mu.Unlock()
}

// MarkTimedOut records that the timeout monitor fired for this worker.
// Safe to call concurrently with the waiting goroutine.
func (h *Handle) MarkTimedOut() {
	h.mu.Lock()
	h.timedOut = true
	h.mu.Unlock()
}

func (h *Handle) wasTimedOut() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.timedOut
}

// Signal sends sig to the worker's process, if it is still alive. A
// worker with no live process (already exited) is a no-op.
func (h *Handle) Signal(sig syscall.Signal) error {
	h.mu.Lock()
	cmd := h.cmd
	exited := h.exited
	h.mu.Unlock()

	if exited || cmd == nil || cmd.Process == nil {
		return nil
	}
	return cmd.Process.Signal(sig)
}

// Kill sends SIGKILL (timeout cancellation path).
func (h *Handle) Kill() error { return h.Signal(syscall.SIGKILL) }

// Terminate sends SIGTERM (manual stop cancellation path).
func (h *Handle) Terminate() error { return h.Signal(syscall.SIGTERM) }

// Supervisor spawns worker processes and maps their termination to an
// Outcome. LoadLocalFlags is swappable in tests; production code reads
// the worker-local issue.json written by the worker.
type Supervisor struct {
	LoadLocalFlags func(workerStateDir string) (taskPassed, taskFailed bool, err error)
}

// New returns a Supervisor wired to read worker-local outcome flags from
// the standard worker state directory layout.
func New() *Supervisor {
	return &Supervisor{LoadLocalFlags: loadLocalFlagsFromDisk}
}

func loadLocalFlagsFromDisk(workerStateDir string) (bool, bool, error) {
	rec, err := state.ReadIssue(workerStateDir)
	if err != nil {
		if err == state.ErrNotExist {
			return false, false, nil
		}
		return false, false, err
	}
	return rec.Status.TaskPassed, rec.Status.TaskFailed, nil
}

// Completed synthesizes the Outcome for a task whose phase completion
// marker (implement.done / spec_check.done) already exists on disk,
// without respawning its worker. Used when a wave is resumed after a
// crash and some tasks already finished their phase (spec.md §4.6 step
// 2 / §4.7.2): their worker-local status flags are read directly
// instead of spawning a new process, so the original exit code is not
// observable on this path; a completed-and-passed task reports 0, any
// other outcome reports 1.
func (s *Supervisor) Completed(taskID string, workerStateDir string) Outcome {
	taskPassed, taskFailed, loadErr := s.LoadLocalFlags(workerStateDir)

	out := Outcome{
		TaskID:     taskID,
		TaskPassed: taskPassed,
		TaskFailed: taskFailed,
		Err:        loadErr,
	}
	if taskPassed && !taskFailed {
		out.Status = StatusPassed
	} else {
		out.Status = StatusFailed
		out.ExitCode = 1
	}
	return out
}

// Spawn starts the worker process described by spec, closes its stdin
// immediately, and forwards every decoded stdout/stderr line to sink
// with a "[WORKER <taskId>][<stream>]" prefix. It returns a live Handle;
// the caller must call Wait to obtain the final Outcome.
func (s *Supervisor) Spawn(ctx context.Context, spec Spec, sink LogSink) (*Handle, error) {
	cmd := exec.CommandContext(ctx, spec.RunnerBin, spec.Args()...)

	stdinPipe, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("spawning worker %s: %w", spec.TaskID, err)
	}

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("spawning worker %s: %w", spec.TaskID, err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("spawning worker %s: %w", spec.TaskID, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("spawning worker %s: %w", spec.TaskID, err)
	}
	stdinPipe.Close()

	h := newHandle(spec.TaskID, cmd)

	var wg sync.WaitGroup
	wg.Add(2)
	go streamLines(&wg, h, stdoutPipe, spec.TaskID, "stdout", sink)
	go streamLines(&wg, h, stderrPipe, spec.TaskID, "stderr", sink)
	h.streamWG = &wg

	return h, nil
}

func streamLines(wg *sync.WaitGroup, h *Handle, r io.Reader, taskID, stream string, sink LogSink) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		h.touch()
		if sink != nil {
			sink(fmt.Sprintf("[WORKER %s][%s] %s", taskID, stream, scanner.Text()))
		}
	}
}

// Wait blocks until the worker process exits, then resolves the final
// Outcome from its exit code/signal and its worker-local status flags.
// phase selects pass/fail semantics: for PhaseImplement, passed iff
// exitCode == 0; for PhaseSpecCheck, passed iff the worker-local
// taskPassed flag is true and taskFailed is false.
func (s *Supervisor) Wait(h *Handle, phase state.WavePhase, workerStateDir string) Outcome {
	err := h.cmd.Wait()
	if h.streamWG != nil {
		h.streamWG.Wait()
	}
	h.markExited()

	exitCode := normalizeExitCode(err)

	taskPassed, taskFailed, loadErr := s.LoadLocalFlags(workerStateDir)

	out := Outcome{
		TaskID:     h.TaskID,
		ExitCode:   exitCode,
		TaskPassed: taskPassed,
		TaskFailed: taskFailed,
		Err:        loadErr,
	}

	switch {
	case h.wasTimedOut():
		out.Status = StatusTimedOut
	case phase == state.PhaseImplement:
		if exitCode == 0 {
			out.Status = StatusPassed
		} else {
			out.Status = StatusFailed
		}
	default: // spec-check
		if taskPassed && !taskFailed {
			out.Status = StatusPassed
		} else {
			out.Status = StatusFailed
		}
	}

	return out
}

// normalizeExitCode maps a *exec.Cmd Wait error to spec.md §4.11's
// exit-code normalisation: the numeric exit code, 128+signal if
// signalled, or 0 if neither was observable.
func normalizeExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if ok := asExitError(err, &exitErr); ok {
		status, ok := exitErr.Sys().(syscall.WaitStatus)
		if ok && status.Signaled() {
			return 128 + int(status.Signal())
		}
		return exitErr.ExitCode()
	}
	return 0
}

func asExitError(err error, target **exec.ExitError) bool {
	if ee, ok := err.(*exec.ExitError); ok {
		*target = ee
		return true
	}
	return false
}
