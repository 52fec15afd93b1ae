package wave

import (
	"fmt"

	"github.com/ariel-frischer/waveorc/internal/state"
)

// Reserve performs spec.md §4.4 step 2: for each selected task id, it
// captures the task's current status into reservedStatusByTaskId, flips
// the task's status to in_progress in the in-memory tasks file, and
// returns the ActiveWaveRecord to be persisted.
//
// The caller is responsible for the two-write ordering the invariant
// requires: WriteTasks(tf) must land before WriteIssue(record) so a
// crash between the two writes can never leave a task in_progress
// without a corresponding active-wave record (spec.md invariant I1).
func Reserve(tf *state.TasksFile, runID, waveID string, phase state.WavePhase, selected []string) (*state.ActiveWaveRecord, error) {
	if len(selected) == 0 {
		return nil, fmt.Errorf("reserve: no tasks selected for wave %s", waveID)
	}

	reserved := make(map[string]state.TaskStatus, len(selected))
	for _, id := range selected {
		task := tf.Get(id)
		if task == nil {
			return nil, fmt.Errorf("reserve: task %s not found in tasks file", id)
		}
		reserved[id] = task.Status
		task.Status = state.TaskInProgress
	}

	rec := &state.ActiveWaveRecord{
		RunID:                  runID,
		ActiveWaveID:           waveID,
		ActiveWavePhase:        phase,
		ActiveWaveTaskIDs:      append([]string(nil), selected...),
		ReservedStatusByTaskID: reserved,
		ReservedAt:             state.Now(),
	}
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("reserve: built an invalid active-wave record: %w", err)
	}
	return rec, nil
}

// Rollback reverts a reservation that failed to persist completely: it
// restores every reserved task's prior status in tf. Used when the
// tasks-file write succeeded but the subsequent active-wave-record write
// failed, so the in-memory tasks file (about to be retried or discarded)
// reflects the pre-reservation state.
func Rollback(tf *state.TasksFile, rec *state.ActiveWaveRecord) {
	if rec == nil {
		return
	}
	for id, prior := range rec.ReservedStatusByTaskID {
		if task := tf.Get(id); task != nil {
			task.Status = prior
		}
	}
}

// Release resolves the record's reserved tasks into their final
// per-task status once every one of them has reached a terminal status
// (passed or failed). It does not modify rec; it returns the statuses to
// apply to the tasks file, keyed by task id, or an error if any task's
// outcome is missing or non-terminal.
func Release(rec *state.ActiveWaveRecord, outcomes map[string]state.TaskStatus) (map[string]state.TaskStatus, error) {
	if rec == nil {
		return nil, fmt.Errorf("release: no active wave record")
	}
	final := make(map[string]state.TaskStatus, len(rec.ActiveWaveTaskIDs))
	for _, id := range rec.ActiveWaveTaskIDs {
		status, ok := outcomes[id]
		if !ok {
			return nil, fmt.Errorf("release: missing outcome for task %s", id)
		}
		if status != state.TaskPassed && status != state.TaskFailed {
			return nil, fmt.Errorf("release: task %s has non-terminal status %q", id, status)
		}
		final[id] = status
	}
	return final, nil
}
