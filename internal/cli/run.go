package cli

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariel-frischer/waveorc/internal/config"
	apperrors "github.com/ariel-frischer/waveorc/internal/errors"
	"github.com/ariel-frischer/waveorc/internal/health"
	"github.com/ariel-frischer/waveorc/internal/merge"
	"github.com/ariel-frischer/waveorc/internal/notify"
	"github.com/ariel-frischer/waveorc/internal/progress"
	"github.com/ariel-frischer/waveorc/internal/recovery"
	"github.com/ariel-frischer/waveorc/internal/sandbox"
	"github.com/ariel-frischer/waveorc/internal/state"
	"github.com/ariel-frischer/waveorc/internal/wave"
	"github.com/ariel-frischer/waveorc/internal/worker"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:     "run",
	Short:   "Run waves until the issue reaches a terminal state",
	GroupID: GroupCore,
	Long: `run drives one issue's decomposed tasks through implement and
spec-check waves until every task has passed, a merge conflicts, a wave
times out, or no more tasks can be selected (spec.md §2, §4.4-§4.10).

On startup it repairs orphaned in_progress tasks (spec.md §4.7.1) and, if
an active wave record already exists from a prior crash, resumes it
(spec.md §4.7.2) using the recorded run id and task ids rather than
reselecting.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().Int("max-parallel", 0, "Override max_parallel_tasks from config (0 = use config)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadCLIConfig(cmd)
	if err != nil {
		return apperrors.Wrap(err, apperrors.Configuration)
	}

	report := health.RunHealthChecks()
	if !report.Passed {
		fmt.Fprint(out, health.FormatReport(report))
		return apperrors.NewPrerequisiteError("health checks failed",
			"run 'waveorc doctor' for details")
	}

	maxParallel := cfg.MaxParallelTasks
	if v, _ := cmd.Flags().GetInt("max-parallel"); v > 0 {
		maxParallel = v
	}

	tf, err := state.ReadTasks(cfg.StateDir)
	if err != nil {
		return apperrors.WrapWithMessage(err, apperrors.Runtime, "reading tasks.json from "+cfg.StateDir)
	}
	issue, err := state.ReadIssue(cfg.StateDir)
	if err != nil && err != state.ErrNotExist {
		return apperrors.WrapWithMessage(err, apperrors.Runtime, "reading issue.json from "+cfg.StateDir)
	}
	if issue == nil {
		issue = &state.IssueRecord{}
	}

	runID := runIDFor(issue.Status.Parallel)

	workerStateDirFn := func(runID, taskID string) string {
		dir, _ := state.WorkerStateDir(cfg.StateDir, runID, taskID)
		return dir
	}
	orphans := recovery.RepairOrphans(cfg.StateDir, tf, issue.Status.Parallel, runID, workerStateDirFn)
	if len(orphans) > 0 {
		if err := state.WriteTasks(cfg.StateDir, tf); err != nil {
			return apperrors.Wrap(err, apperrors.Runtime)
		}
		for _, o := range orphans {
			fmt.Fprintf(out, "orphan recovery: marked %s failed (%s)\n", o.TaskID, o.WorkerStateDir)
		}
	}

	sandboxes := sandbox.New(cfg.RepoRoot, stateSubdir(cfg.StateDir, ".sandboxes"), cfg.SandboxBranchPrefix)
	workers := worker.New()
	merger := merge.New(cfg.RepoRoot, cfg.StateDir)
	logSink := lineLogSink(out)

	engine := wave.NewEngine(wave.Config{
		StateDir:     cfg.StateDir,
		RepoRoot:     cfg.RepoRoot,
		RunnerBin:    cfg.RunnerBin,
		Workflow:     cfg.Workflow,
		Provider:     cfg.Provider,
		WorkflowsDir: cfg.WorkflowsDir,
		PromptsDir:   cfg.PromptsDir,
		MaxDuration:  time.Duration(cfg.MaxDurationSeconds) * time.Second,
		Inactivity:   time.Duration(cfg.InactivityTimeoutSeconds) * time.Second,
		LogSink:      logSink,
	}, sandboxes, workers, merger)

	notifier := notify.NewHandler(cfg.Notifications)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	display := progress.NewProgressDisplay(progress.DetectTerminalCapabilities())

	waveNum := 0
	for {
		waveNum++

		decision := recovery.Resume(phaseFor(issue.Status.Parallel), issue.Status.Parallel)

		var res *wave.Result
		var waveErr error
		stage := progress.StageInfo{Name: fmt.Sprintf("wave-%d", waveNum), Number: waveNum, TotalStages: waveNum}

		switch decision.Action {
		case recovery.ResumeImplement:
			if decision.PhaseMismatchWarning != "" {
				_ = state.AppendProgress(cfg.StateDir, decision.PhaseMismatchWarning)
			}
			_ = display.StartStage(stage)
			res, waveErr = engine.ResumeImplementWave(ctx, issue.Status.Parallel)
		case recovery.ResumeSpecCheck:
			if decision.PhaseMismatchWarning != "" {
				_ = state.AppendProgress(cfg.StateDir, decision.PhaseMismatchWarning)
			}
			_ = display.StartStage(stage)
			res, waveErr = engine.RunSpecCheckWave(ctx, tf, issue.Status.Parallel)
		default:
			_ = display.StartStage(stage)
			res, waveErr = engine.RunImplementWave(ctx, runID, fmt.Sprintf("wave-%d", waveNum), tf, maxParallel)
		}

		if ctx.Err() != nil {
			_ = display.FailStage(stage, ctx.Err())
			return handleStop(cfg, issue, tf, out)
		}
		if waveErr != nil {
			_ = display.FailStage(stage, waveErr)
			return apperrors.Wrap(waveErr, apperrors.Runtime)
		}
		if res == nil {
			_ = display.CompleteStage(stage)
			break // no tasks selectable: nothing left to do
		}

		_ = state.WriteWaveSummary(cfg.StateDir, res.RunID, res.WaveID, res.ToSummary())
		notifier.OnWaveComplete(res.WaveID, res.Tag == wave.ResultOK)

		switch res.Phase {
		case state.PhaseImplement:
			waveErr = handleImplementResult(cfg, issue, tf, res, display, stage)
		case state.PhaseSpecCheck:
			waveErr = handleSpecCheckResult(cfg, issue, tf, res, display, stage)
		}
		if waveErr != nil {
			notifier.OnError(runID, waveErr)
			return apperrors.Wrap(waveErr, apperrors.Runtime)
		}

		if res.Tag == wave.ResultMergeConflict || res.Tag == wave.ResultTimedOut {
			notifier.OnMergeConflict(res.WaveID, res.ConflictedAt)
			return apperrors.NewRuntimeError(
				fmt.Sprintf("wave %s stopped: %s", res.WaveID, res.Tag),
				"resolve the issue reported above, then re-run 'waveorc run' to resume")
		}

		if tf.AllPassed() {
			break
		}
	}

	display.StopSpinner()
	notifier.OnRunComplete(runID, tf.AllPassed(), 0)
	fmt.Fprintln(out, "run complete: all tasks passed")
	return nil
}

// handleImplementResult persists the implement wave's result and, on
// success, advances the active-wave record to task_spec_check so the
// next loop iteration enters spec-check for the same run/wave/tasks
// (spec.md §4.6 step 1 reuses the implement wave's sandboxes).
func handleImplementResult(cfg *config.Configuration, issue *state.IssueRecord, tf *state.TasksFile, res *wave.Result, display *progress.ProgressDisplay, stage progress.StageInfo) error {
	if res.Tag != wave.ResultOK {
		_ = display.FailStage(stage, res.Err)
		return nil
	}
	_ = display.CompleteStage(stage)

	if issue.Status.Parallel == nil {
		issue.Status.Parallel = &state.ActiveWaveRecord{RunID: res.RunID, ActiveWaveID: res.WaveID, ActiveWaveTaskIDs: res.TaskIDs}
	}
	issue.Status.Parallel.ActiveWavePhase = state.PhaseSpecCheck
	return state.WriteIssue(cfg.StateDir, issue)
}

// handleSpecCheckResult persists spec-check's canonical task status
// updates and, once the wave has fully resolved (pass, fail, conflict,
// or timeout), clears the active-wave record so the next loop iteration
// selects a fresh wave (spec.md §4.6 steps 3-6).
func handleSpecCheckResult(cfg *config.Configuration, issue *state.IssueRecord, tf *state.TasksFile, res *wave.Result, display *progress.ProgressDisplay, stage progress.StageInfo) error {
	if res.Tag == wave.ResultOK {
		_ = display.CompleteStage(stage)
	} else {
		_ = display.FailStage(stage, res.Err)
	}

	if err := state.WriteTasks(cfg.StateDir, tf); err != nil {
		return err
	}
	if res.Signals != nil {
		issue.Status.WorkflowSignalFlags = *res.Signals
	}
	issue.Status.Parallel = nil
	return state.WriteIssue(cfg.StateDir, issue)
}

// handleStop implements spec.md §4.7.3: on SIGINT/SIGTERM mid-wave, every
// reserved task is restored to its pre-wave status rather than left
// in_progress or marked failed, and the active-wave record is cleared so
// the next invocation selects a fresh wave. Stopping is not a failure.
func handleStop(cfg *config.Configuration, issue *state.IssueRecord, tf *state.TasksFile, out io.Writer) error {
	restored := recovery.Stop(issue.Status.Parallel)
	for id, status := range restored {
		if t := tf.Get(id); t != nil {
			t.Status = status
		}
	}
	if err := state.WriteTasks(cfg.StateDir, tf); err != nil {
		return apperrors.Wrap(err, apperrors.Runtime)
	}
	issue.Status.Parallel = nil
	if err := state.WriteIssue(cfg.StateDir, issue); err != nil {
		return apperrors.Wrap(err, apperrors.Runtime)
	}
	fmt.Fprintln(out, "run stopped: reserved tasks restored to their prior status")
	return nil
}

func stateSubdir(stateDir, name string) string {
	return stateDir + string(os.PathSeparator) + name
}

func lineLogSink(w io.Writer) worker.LogSink {
	return func(line string) {
		fmt.Fprintln(w, line)
	}
}

func newRunID() string {
	b := make([]byte, 6)
	_, _ = rand.Read(b)
	return "run-" + hex.EncodeToString(b)
}

// runIDFor reuses the recorded run id of an in-flight wave so resumed
// sandbox paths match what the prior process created (spec.md §4.7.2);
// with no active wave it mints a fresh one for this invocation's run.
func runIDFor(rec *state.ActiveWaveRecord) string {
	if rec != nil && rec.RunID != "" {
		return rec.RunID
	}
	return newRunID()
}

// phaseFor reports the active-wave record's own phase as the "canonical
// phase" recovery.Resume compares against. A standalone waveorc run
// invocation has no separate external workflow engine to disagree with
// the record, so this never produces a phase-mismatch correction.
func phaseFor(rec *state.ActiveWaveRecord) string {
	if rec == nil {
		return ""
	}
	return string(rec.ActiveWavePhase)
}
