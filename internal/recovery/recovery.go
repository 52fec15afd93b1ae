// Package recovery implements the wave engine's crash-recovery protocol:
// start-of-run orphan repair, resumption of an active wave, and
// phase-mismatch reconciliation. It loads canonical state, repairs it in
// memory, and saves it back — the same load-reconcile-save shape the
// rest of this codebase uses for its persistent state stores.
package recovery

import (
	"fmt"

	"github.com/ariel-frischer/waveorc/internal/state"
)

// OrphanReport describes one task repaired by start-of-run recovery.
type OrphanReport struct {
	TaskID          string
	WorkerStateDir  string
	FeedbackMessage string
}

// RepairOrphans enforces invariant I1: no task may remain in_progress
// without a corresponding active-wave record that names it. Any task
// violating I1 is marked failed and gets a synthetic canonical feedback
// file explaining why, written to stateDir's task-feedback directory
// (spec.md §4.7.1, §7's "every failed task has a feedback file"
// contract). A non-nil write error for a given task is recorded on its
// report rather than aborting the rest of the repair pass.
func RepairOrphans(stateDir string, tf *state.TasksFile, rec *state.ActiveWaveRecord, runID string, workerStateDir func(runID, taskID string) string) []OrphanReport {
	inWave := make(map[string]bool)
	if rec != nil {
		for _, id := range rec.ActiveWaveTaskIDs {
			inWave[id] = true
		}
	}

	var reports []OrphanReport
	for i := range tf.Tasks {
		task := &tf.Tasks[i]
		if task.Status != state.TaskInProgress {
			continue
		}
		if inWave[task.ID] {
			continue
		}

		dir := ""
		if workerStateDir != nil {
			dir = workerStateDir(runID, task.ID)
		}
		task.Status = state.TaskFailed
		message := fmt.Sprintf(
			"Task %s was left in_progress with no matching active wave record and has been "+
				"marked failed by orphan recovery. Its worker state directory (if any) was: %s",
			task.ID, dir)

		report := OrphanReport{TaskID: task.ID, WorkerStateDir: dir, FeedbackMessage: message}
		if stateDir != "" {
			if err := state.WriteFeedback(stateDir, task.ID, message); err != nil {
				report.FeedbackMessage = fmt.Sprintf("%s (failed to persist feedback file: %s)", message, err)
			}
		}
		reports = append(reports, report)
	}
	return reports
}

// ResumeAction tells the wave engine what to do on re-entry to a phase
// while an active-wave record exists.
type ResumeAction string

const (
	// ResumeNone: no active wave record, proceed to normal selection.
	ResumeNone ResumeAction = "none"
	// ResumeImplement: re-enter the implement wave for the recorded ids.
	ResumeImplement ResumeAction = "resume_implement"
	// ResumeSpecCheck: re-enter the spec-check wave for the recorded ids.
	ResumeSpecCheck ResumeAction = "resume_spec_check"
)

// PhaseMismatchWarning is non-empty when §4.7.2's phase-mismatch
// correction fired; the caller must append it to the progress log.
type ResumeDecision struct {
	Action               ResumeAction
	Record               *state.ActiveWaveRecord
	PhaseMismatchWarning string
}

// Resume implements spec.md §4.7.2: given the canonical phase the
// workflow engine just entered and the (possibly absent) active-wave
// record, decide what the wave engine must do. A phase mismatch between
// the record and the canonical phase is corrected in place rather than
// treated as a resume of the wrong kind.
func Resume(canonicalPhase string, rec *state.ActiveWaveRecord) ResumeDecision {
	if rec == nil {
		return ResumeDecision{Action: ResumeNone}
	}

	recordPhase := string(rec.ActiveWavePhase)
	if recordPhase != canonicalPhase {
		warning := fmt.Sprintf(
			"Parallel State Corruption Warning: active wave record phase %q disagreed with "+
				"canonical phase %q; record has been corrected to match canonical phase.",
			recordPhase, canonicalPhase)
		rec.ActiveWavePhase = state.WavePhase(canonicalPhase)
		return ResumeDecision{
			Action:               resumeActionFor(rec.ActiveWavePhase),
			Record:               rec,
			PhaseMismatchWarning: warning,
		}
	}

	return ResumeDecision{Action: resumeActionFor(rec.ActiveWavePhase), Record: rec}
}

func resumeActionFor(phase state.WavePhase) ResumeAction {
	if phase == state.PhaseSpecCheck {
		return ResumeSpecCheck
	}
	return ResumeImplement
}

// Stop implements spec.md §4.7.3: on a manual stop mid-wave, every
// reserved task's prior status is restored and the workflow signal flags
// are left untouched (stop is not failure). Stop does not modify rec: it
// returns the statuses to apply to the tasks file, and the caller clears
// status.parallel.
func Stop(rec *state.ActiveWaveRecord) map[string]state.TaskStatus {
	if rec == nil {
		return nil
	}
	restored := make(map[string]state.TaskStatus, len(rec.ReservedStatusByTaskID))
	for id, prior := range rec.ReservedStatusByTaskID {
		restored[id] = prior
	}
	return restored
}
