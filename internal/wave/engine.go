package wave

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/ariel-frischer/waveorc/internal/merge"
	"github.com/ariel-frischer/waveorc/internal/sandbox"
	"github.com/ariel-frischer/waveorc/internal/state"
	"github.com/ariel-frischer/waveorc/internal/timeoutmon"
	"github.com/ariel-frischer/waveorc/internal/worker"
	"golang.org/x/sync/errgroup"
)

const (
	implementDoneMarker = "implement.done"
	specCheckDoneMarker = "spec_check.done"
)

// SandboxManager is the subset of sandbox.Manager the engine drives.
type SandboxManager interface {
	Create(issueNumber, runID, taskID string, canon sandbox.CanonicalFiles) (*sandbox.Sandbox, error)
	Cleanup(sb *sandbox.Sandbox, force bool) error
}

// WorkerSupervisor is the subset of worker.Supervisor the engine drives.
type WorkerSupervisor interface {
	Spawn(ctx context.Context, spec worker.Spec, sink worker.LogSink) (*worker.Handle, error)
	Wait(h *worker.Handle, phase state.WavePhase, workerStateDir string) worker.Outcome
	Completed(taskID, workerStateDir string) worker.Outcome
}

// Config carries everything the engine needs to build worker specs and
// locate the repository, independent of any particular task.
type Config struct {
	StateDir     string
	RepoRoot     string
	RunnerBin    string
	Workflow     string
	Provider     string
	WorkflowsDir string
	PromptsDir   string
	MaxDuration  time.Duration
	Inactivity   time.Duration
	LogSink      worker.LogSink
}

// Engine drives one wave (implement or spec-check) end to end: select,
// reserve, spawn, wait, and (for spec-check) merge.
type Engine struct {
	Cfg       Config
	Sandboxes SandboxManager
	Workers   WorkerSupervisor
	Monitor   *timeoutmon.Monitor
	Merger    *merge.Integrator
}

// NewEngine wires an Engine from production collaborators.
func NewEngine(cfg Config, sandboxes SandboxManager, workers WorkerSupervisor, merger *merge.Integrator) *Engine {
	return &Engine{
		Cfg:       cfg,
		Sandboxes: sandboxes,
		Workers:   workers,
		Monitor:   timeoutmon.New(),
		Merger:    merger,
	}
}

type runningWorker struct {
	taskID         string
	sandbox        *sandbox.Sandbox
	handle         *worker.Handle // nil when the task's phase marker already existed (resumed, not respawned)
	workerStateDir string
	resumed        bool
}

// RunImplementWave executes spec.md §4.4: select, reserve, spawn, wait.
// It never updates canonical task statuses; those remain in_progress
// until spec-check resolves them. It returns the Result; tf is mutated
// in place (reservation, or its rollback) and the caller must persist it.
func (e *Engine) RunImplementWave(ctx context.Context, runID, waveID string, tf *state.TasksFile, maxParallel int) (*Result, error) {
	selected := Select(tf, ClampMaxParallelTasks(maxParallel))
	if len(selected) == 0 {
		return nil, nil
	}

	startedAt := state.Now()

	rec, err := Reserve(tf, runID, waveID, state.PhaseImplement, selected)
	if err != nil {
		return nil, fmt.Errorf("implement wave %s: %w", waveID, err)
	}

	if err := state.WriteTasks(e.Cfg.StateDir, tf); err != nil {
		Rollback(tf, rec)
		return nil, fmt.Errorf("implement wave %s: persisting reservation: %w", waveID, err)
	}

	issue, err := state.ReadIssue(e.Cfg.StateDir)
	if err != nil && err != state.ErrNotExist {
		Rollback(tf, rec)
		return nil, fmt.Errorf("implement wave %s: reading issue record: %w", waveID, err)
	}
	if issue == nil {
		issue = &state.IssueRecord{}
	}
	issue.Status.Parallel = rec
	if err := state.WriteIssue(e.Cfg.StateDir, issue); err != nil {
		Rollback(tf, rec)
		_ = state.WriteTasks(e.Cfg.StateDir, tf)
		return nil, fmt.Errorf("implement wave %s: persisting active wave record: %w", waveID, err)
	}

	running, partial, setupErr := e.spawnAll(ctx, issue.IssueNumber, runID, waveID, state.PhaseImplement, selected, createSandboxes)
	if setupErr != nil {
		e.killAll(running)
		Rollback(tf, rec)
		_ = state.WriteTasks(e.Cfg.StateDir, tf)
		issue.Status.Parallel = nil
		_ = state.WriteIssue(e.Cfg.StateDir, issue)
		return &Result{
			Tag: ResultSetupFailed, RunID: runID, WaveID: waveID, Phase: state.PhaseImplement, TaskIDs: selected,
			StartedAt: startedAt, EndedAt: state.Now(),
			Err: setupErr, ErrorStack: string(debug.Stack()), PartialSetup: partial,
		}, nil
	}

	outcomes, timedOut := e.waitAll(ctx, running, state.PhaseImplement)

	for _, rw := range running {
		if rw.resumed {
			continue
		}
		markerPath := filepath.Join(rw.workerStateDir, implementDoneMarker)
		_ = os.MkdirAll(rw.workerStateDir, 0o755)
		_ = os.WriteFile(markerPath, nil, 0o644)
	}

	result := &Result{
		RunID: runID, WaveID: waveID, Phase: state.PhaseImplement, TaskIDs: selected,
		StartedAt: startedAt, EndedAt: state.Now(),
		TaskOutcomes: outcomesToStatus(outcomes),
		Outcomes:     outcomes,
		Branches:     branchesByTask(running),
	}
	if timedOut {
		result.Tag = ResultTimedOut
		e.writeTimeoutFeedback(running, outcomes)
	} else {
		result.Tag = ResultOK
	}
	return result, nil
}

// ResumeImplementWave re-enters an in-progress implement wave after a
// crash, per spec.md §4.7.2's resume_implement action: the active-wave
// record is trusted as-is (no new selection or reservation), and
// spawnAll's marker check decides, per task, whether to respawn or
// synthesize a completed outcome from worker-local state.
func (e *Engine) ResumeImplementWave(ctx context.Context, rec *state.ActiveWaveRecord) (*Result, error) {
	startedAt := state.Now()

	issue, err := state.ReadIssue(e.Cfg.StateDir)
	if err != nil && err != state.ErrNotExist {
		return nil, fmt.Errorf("resume implement wave %s: reading issue record: %w", rec.ActiveWaveID, err)
	}
	issueNumber := ""
	if issue != nil {
		issueNumber = issue.IssueNumber
	}

	running, partial, setupErr := e.spawnAll(ctx, issueNumber, rec.RunID, rec.ActiveWaveID, state.PhaseImplement, rec.ActiveWaveTaskIDs, createSandboxes)
	if setupErr != nil {
		e.killAll(running)
		return &Result{
			Tag: ResultSetupFailed, RunID: rec.RunID, WaveID: rec.ActiveWaveID, Phase: state.PhaseImplement, TaskIDs: rec.ActiveWaveTaskIDs,
			StartedAt: startedAt, EndedAt: state.Now(),
			Err: setupErr, ErrorStack: string(debug.Stack()), PartialSetup: partial,
		}, nil
	}

	outcomes, timedOut := e.waitAll(ctx, running, state.PhaseImplement)

	for _, rw := range running {
		if rw.resumed {
			continue
		}
		markerPath := filepath.Join(rw.workerStateDir, implementDoneMarker)
		_ = os.MkdirAll(rw.workerStateDir, 0o755)
		_ = os.WriteFile(markerPath, nil, 0o644)
	}

	result := &Result{
		RunID: rec.RunID, WaveID: rec.ActiveWaveID, Phase: state.PhaseImplement, TaskIDs: rec.ActiveWaveTaskIDs,
		StartedAt: startedAt, EndedAt: state.Now(),
		TaskOutcomes: outcomesToStatus(outcomes),
		Outcomes:     outcomes,
		Branches:     branchesByTask(running),
	}
	if timedOut {
		result.Tag = ResultTimedOut
		e.writeTimeoutFeedback(running, outcomes)
	} else {
		result.Tag = ResultOK
	}
	return result, nil
}

// RunSpecCheckWave executes spec.md §4.6: reuse sandboxes, spawn
// spec-check workers, wait, update canonical statuses, then invoke the
// merge integrator for every task that passed.
func (e *Engine) RunSpecCheckWave(ctx context.Context, tf *state.TasksFile, rec *state.ActiveWaveRecord) (*Result, error) {
	startedAt := state.Now()

	running, partial, setupErr := e.spawnAll(ctx, "", rec.RunID, rec.ActiveWaveID, state.PhaseSpecCheck, rec.ActiveWaveTaskIDs, reuseSandboxes)
	if setupErr != nil {
		e.killAll(running)
		return &Result{
			Tag: ResultSetupFailed, RunID: rec.RunID, WaveID: rec.ActiveWaveID, Phase: state.PhaseSpecCheck, TaskIDs: rec.ActiveWaveTaskIDs,
			StartedAt: startedAt, EndedAt: state.Now(),
			Err: setupErr, ErrorStack: string(debug.Stack()), PartialSetup: partial,
		}, nil
	}

	outcomes, timedOut := e.waitAll(ctx, running, state.PhaseSpecCheck)

	final := make(map[string]state.TaskStatus, len(outcomes))
	for id, out := range outcomes {
		if out.Status == worker.StatusPassed {
			final[id] = state.TaskPassed
		} else {
			final[id] = state.TaskFailed
		}
	}
	for _, id := range rec.ActiveWaveTaskIDs {
		if task := tf.Get(id); task != nil {
			task.Status = final[id]
		}
	}

	for _, rw := range running {
		if rw.resumed {
			continue
		}
		markerPath := filepath.Join(rw.workerStateDir, specCheckDoneMarker)
		_ = os.MkdirAll(rw.workerStateDir, 0o755)
		_ = os.WriteFile(markerPath, nil, 0o644)
	}

	e.copyFailureFeedback(running, final)

	result := &Result{
		RunID: rec.RunID, WaveID: rec.ActiveWaveID, Phase: state.PhaseSpecCheck,
		TaskIDs: rec.ActiveWaveTaskIDs, TaskOutcomes: final,
		StartedAt: startedAt, Outcomes: outcomes, Branches: branchesByTask(running),
	}

	if timedOut {
		for _, id := range rec.ActiveWaveTaskIDs {
			if task := tf.Get(id); task != nil {
				task.Status = state.TaskFailed
			}
			final[id] = state.TaskFailed
		}
		e.writeTimeoutFeedback(running, outcomes)
		result.EndedAt = state.Now()
		result.Tag = ResultTimedOut
		signals := TimeoutSignals()
		result.Signals = &signals
		return result, nil
	}

	var toMerge []merge.TaskMerge
	for _, id := range SortLexicographic(passingIDs(final)) {
		sb := sandboxesByTask(running)[id]
		branch := id
		if sb != nil {
			branch = sb.Branch
		}
		toMerge = append(toMerge, merge.TaskMerge{TaskID: id, Branch: branch})
	}

	if len(toMerge) > 0 && e.Merger != nil {
		mergeRes := e.Merger.Run(toMerge)
		result.MergeOrder = mergeRes.SucceededIDs
		for _, failedID := range mergeRes.FailedIDs {
			if task := tf.Get(failedID); task != nil {
				task.Status = state.TaskFailed
			}
			final[failedID] = state.TaskFailed
		}
		if mergeRes.HasConflict {
			result.EndedAt = state.Now()
			result.Tag = ResultMergeConflict
			result.ConflictedAt = mergeRes.ConflictedAt
			signals := Signals(tf, final)
			result.Signals = &signals
			return result, nil
		}
	}

	result.EndedAt = state.Now()
	result.Tag = ResultOK
	signals := Signals(tf, final)
	result.Signals = &signals
	return result, nil
}

type sandboxMode int

const (
	createSandboxes sandboxMode = iota
	reuseSandboxes
)

func markerFileName(phase state.WavePhase) string {
	if phase == state.PhaseSpecCheck {
		return specCheckDoneMarker
	}
	return implementDoneMarker
}

// spawnAll implements the two-phase create-then-spawn sequence spec.md
// §8 scenario 6 requires: every selected task's sandbox is created (or,
// on the spec-check path, located) before ANY worker is spawned, so a
// sandbox failure on a later task never leaves an earlier task's worker
// running. Tasks whose phase completion marker already exists on disk
// (a resumed wave, spec.md §4.6 step 2 / §4.7.2) are never respawned;
// their outcome is read back from worker-local state instead.
func (e *Engine) spawnAll(ctx context.Context, issueNumber, runID, waveID string, phase state.WavePhase, ids []string, mode sandboxMode) ([]runningWorker, *PartialSetup, error) {
	type prepared struct {
		taskID         string
		sandbox        *sandbox.Sandbox
		workerStateDir string
		alreadyDone    bool
	}

	marker := markerFileName(phase)
	var createdSandboxes []string
	preps := make([]prepared, 0, len(ids))

	for _, id := range ids {
		workerStateDir := filepath.Join(e.Cfg.StateDir, ".runs", runID, "workers", id)

		var sb *sandbox.Sandbox
		var err error
		if mode == createSandboxes {
			canon := sandbox.CanonicalFiles{
				IssueJSON:      filepath.Join(e.Cfg.StateDir, "issue.json"),
				TasksJSON:      filepath.Join(e.Cfg.StateDir, "tasks.json"),
				TaskFeedbackMD: filepath.Join(e.Cfg.StateDir, "task-feedback", id+".md"),
				WorkerStateDir: workerStateDir,
			}
			sb, err = e.Sandboxes.Create(issueNumber, runID, id, canon)
		} else {
			sb = &sandbox.Sandbox{TaskID: id, Path: filepath.Join(e.Cfg.StateDir, ".sandboxes", runID, id)}
		}
		if err != nil {
			return nil, &PartialSetup{CreatedSandboxes: createdSandboxes, StartedWorkers: nil}, fmt.Errorf("creating sandbox for task %s: %w", id, err)
		}
		createdSandboxes = append(createdSandboxes, id)

		preps = append(preps, prepared{
			taskID:         id,
			sandbox:        sb,
			workerStateDir: workerStateDir,
			alreadyDone:    markerExists(workerStateDir, marker),
		})
	}

	var running []runningWorker
	var startedWorkers []string

	for _, p := range preps {
		if p.alreadyDone {
			running = append(running, runningWorker{taskID: p.taskID, sandbox: p.sandbox, workerStateDir: p.workerStateDir, resumed: true})
			continue
		}

		spec := worker.Spec{
			TaskID:       p.taskID,
			RunnerBin:    e.Cfg.RunnerBin,
			Workflow:     e.Cfg.Workflow,
			Phase:        phase,
			Provider:     e.Cfg.Provider,
			WorkflowsDir: e.Cfg.WorkflowsDir,
			PromptsDir:   e.Cfg.PromptsDir,
			StateDir:     p.workerStateDir,
			WorkDir:      p.sandbox.Path,
		}

		h, err := e.Workers.Spawn(ctx, spec, e.Cfg.LogSink)
		if err != nil {
			return running, &PartialSetup{CreatedSandboxes: createdSandboxes, StartedWorkers: startedWorkers}, fmt.Errorf("spawning worker for task %s: %w", p.taskID, err)
		}
		startedWorkers = append(startedWorkers, p.taskID)
		running = append(running, runningWorker{taskID: p.taskID, sandbox: p.sandbox, handle: h, workerStateDir: p.workerStateDir})
	}

	return running, nil, nil
}

func markerExists(workerStateDir, marker string) bool {
	_, err := os.Stat(filepath.Join(workerStateDir, marker))
	return err == nil
}

func (e *Engine) killAll(running []runningWorker) {
	for _, rw := range running {
		if rw.handle == nil {
			continue
		}
		_ = rw.handle.Signal(syscall.SIGKILL)
	}
}

// waitAll waits for every freshly spawned worker concurrently (errgroup
// caps nothing further here: the wave's worker count is already bounded
// by ClampMaxParallelTasks), while the timeout monitor races against
// them. Resumed tasks (already phase-complete on disk) are resolved
// immediately via Completed without joining the wait/timeout race.
func (e *Engine) waitAll(ctx context.Context, running []runningWorker, phase state.WavePhase) (map[string]worker.Outcome, bool) {
	outcomes := make(map[string]worker.Outcome, len(running))

	var live []runningWorker
	for _, rw := range running {
		if rw.resumed {
			outcomes[rw.taskID] = e.Workers.Completed(rw.taskID, rw.workerStateDir)
			continue
		}
		live = append(live, rw)
	}
	if len(live) == 0 {
		return outcomes, false
	}

	monitorCtx, cancelMonitor := context.WithCancel(ctx)
	defer cancelMonitor()

	fired := make(chan timeoutmon.Reason, 1)
	go func() {
		workers := func() []timeoutmon.Worker {
			out := make([]timeoutmon.Worker, len(live))
			for i, rw := range live {
				out[i] = rw.handle
			}
			return out
		}
		reason := e.Monitor.Watch(monitorCtx, timeoutmon.Deadline{
			StartedAt:         state.Now(),
			MaxDuration:       e.Cfg.MaxDuration,
			InactivityTimeout: e.Cfg.Inactivity,
		}, workers)
		if reason != "" {
			fired <- reason
		}
	}()

	var g errgroup.Group
	results := make([]worker.Outcome, len(live))
	for i, rw := range live {
		i, rw := i, rw
		g.Go(func() error {
			results[i] = e.Workers.Wait(rw.handle, phase, rw.workerStateDir)
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	timedOut := false
	select {
	case <-fired:
		timedOut = true
		e.killAll(live)
		<-done
	case <-done:
	}
	cancelMonitor()

	for i, rw := range live {
		out := results[i]
		if timedOut && out.Status != worker.StatusPassed && out.Status != worker.StatusFailed {
			out.Status = worker.StatusTimedOut
		}
		outcomes[rw.taskID] = out
	}

	return outcomes, timedOut
}

// copyFailureFeedback implements spec.md §4.6 step 5: for every task
// that failed spec-check, copy its worker-local task-feedback.md (if the
// worker wrote one) into the canonical per-task feedback file.
func (e *Engine) copyFailureFeedback(running []runningWorker, final map[string]state.TaskStatus) {
	dirs := make(map[string]string, len(running))
	for _, rw := range running {
		dirs[rw.taskID] = rw.workerStateDir
	}
	for id, status := range final {
		if status != state.TaskFailed {
			continue
		}
		dir, ok := dirs[id]
		if !ok {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, "task-feedback.md"))
		if err != nil {
			continue
		}
		_ = state.WriteFeedback(e.Cfg.StateDir, id, string(data))
	}
}

// writeTimeoutFeedback implements spec.md §4.10 step 2: every task still
// running (or never reaching a terminal status) when the timeout fired
// gets a synthetic canonical feedback file explaining why.
func (e *Engine) writeTimeoutFeedback(running []runningWorker, outcomes map[string]worker.Outcome) {
	for _, rw := range running {
		out, ok := outcomes[rw.taskID]
		if !ok || out.Status != worker.StatusTimedOut {
			continue
		}
		message := fmt.Sprintf(
			"Task %s was terminated by the wave timeout monitor before reaching a terminal status "+
				"and has been marked failed. Its sandbox working directory was: %s",
			rw.taskID, rw.sandbox.Path)
		_ = state.WriteFeedback(e.Cfg.StateDir, rw.taskID, message)
	}
}

func sandboxesByTask(running []runningWorker) map[string]*sandbox.Sandbox {
	out := make(map[string]*sandbox.Sandbox, len(running))
	for _, rw := range running {
		out[rw.taskID] = rw.sandbox
	}
	return out
}

func branchesByTask(running []runningWorker) map[string]string {
	out := make(map[string]string, len(running))
	for _, rw := range running {
		if rw.sandbox != nil {
			out[rw.taskID] = rw.sandbox.Branch
		}
	}
	return out
}

func outcomesToStatus(outcomes map[string]worker.Outcome) map[string]state.TaskStatus {
	out := make(map[string]state.TaskStatus, len(outcomes))
	for id, o := range outcomes {
		switch o.Status {
		case worker.StatusPassed:
			out[id] = state.TaskPassed
		default:
			out[id] = state.TaskFailed
		}
	}
	return out
}

func passingIDs(final map[string]state.TaskStatus) []string {
	var ids []string
	for id, status := range final {
		if status == state.TaskPassed {
			ids = append(ids, id)
		}
	}
	return ids
}
