// Package state provides the canonical, crash-safe on-disk representation
// of one issue's tasks and workflow status: atomic read/write of the
// canonical JSON files, an append-only progress log, and per-wave JSON
// summaries. It owns no business logic — that lives in internal/wave,
// internal/recovery and internal/merge — it only guarantees that a reader
// never observes a half-written file.
package state

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ariel-frischer/waveorc/internal/pathsafe"
)

// TaskStatus is the closed set of states a task can occupy.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskPassed     TaskStatus = "passed"
	TaskFailed     TaskStatus = "failed"
)

// Valid reports whether s is one of the four defined statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskPassed, TaskFailed:
		return true
	default:
		return false
	}
}

// WavePhase is the closed set of phases a wave can be executing.
type WavePhase string

const (
	PhaseImplement WavePhase = "implement_task"
	PhaseSpecCheck WavePhase = "task_spec_check"
)

// Valid reports whether p is a known phase.
func (p WavePhase) Valid() bool {
	return p == PhaseImplement || p == PhaseSpecCheck
}

// Task is the unit of work the wave engine schedules.
type Task struct {
	ID          string          `json:"id"`
	Status      TaskStatus      `json:"status"`
	DependsOn   []string        `json:"dependsOn,omitempty"`
	Description json.RawMessage `json:"description,omitempty"`
}

// TasksFile is the ordered sequence of tasks for one issue. Iteration
// order is the tie-break used by task selection (spec.md §4.3).
type TasksFile struct {
	Tasks []Task `json:"tasks"`
}

// IndexOf returns the position of the task with the given id, or -1.
func (tf *TasksFile) IndexOf(id string) int {
	for i := range tf.Tasks {
		if tf.Tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// Get returns a pointer to the task with the given id, or nil.
func (tf *TasksFile) Get(id string) *Task {
	if i := tf.IndexOf(id); i >= 0 {
		return &tf.Tasks[i]
	}
	return nil
}

// AllPassed reports whether every task in the file is in the Passed state.
func (tf *TasksFile) AllPassed() bool {
	for _, t := range tf.Tasks {
		if t.Status != TaskPassed {
			return false
		}
	}
	return len(tf.Tasks) > 0
}

// ActiveWaveRecord is the non-empty marker that a wave is in flight,
// stored at issue.json's status.parallel key.
type ActiveWaveRecord struct {
	RunID                   string            `json:"runId"`
	ActiveWaveID            string            `json:"activeWaveId"`
	ActiveWavePhase         WavePhase         `json:"activeWavePhase"`
	ActiveWaveTaskIDs       []string          `json:"activeWaveTaskIds"`
	ReservedStatusByTaskID  map[string]TaskStatus `json:"reservedStatusByTaskId"`
	ReservedAt              time.Time         `json:"reservedAt"`
}

// Validate enforces invariant I3: runId/activeWaveId are path-safe, every
// reserved-status key is path-safe, and the key set equals
// ActiveWaveTaskIDs exactly.
func (r *ActiveWaveRecord) Validate() error {
	if r == nil {
		return nil
	}
	if err := pathsafe.Validate("runId", r.RunID); err != nil {
		return err
	}
	if err := pathsafe.Validate("activeWaveId", r.ActiveWaveID); err != nil {
		return err
	}
	if !r.ActiveWavePhase.Valid() {
		return fmt.Errorf("active wave record: invalid phase %q", r.ActiveWavePhase)
	}
	if len(r.ActiveWaveTaskIDs) == 0 {
		return fmt.Errorf("active wave record: activeWaveTaskIds is empty")
	}
	if err := pathsafe.ValidateAll("taskId", r.ActiveWaveTaskIDs); err != nil {
		return err
	}
	if len(r.ReservedStatusByTaskID) != len(r.ActiveWaveTaskIDs) {
		return fmt.Errorf("active wave record: reservedStatusByTaskId has %d entries, want %d",
			len(r.ReservedStatusByTaskID), len(r.ActiveWaveTaskIDs))
	}
	seen := make(map[string]bool, len(r.ActiveWaveTaskIDs))
	for _, id := range r.ActiveWaveTaskIDs {
		seen[id] = true
	}
	for id, status := range r.ReservedStatusByTaskID {
		if err := pathsafe.Validate("taskId", id); err != nil {
			return err
		}
		if !seen[id] {
			return fmt.Errorf("active wave record: reservedStatusByTaskId key %q not in activeWaveTaskIds", id)
		}
		if status != TaskPending && status != TaskFailed {
			return fmt.Errorf("active wave record: reserved status for %q must be pending or failed, got %q", id, status)
		}
	}
	return nil
}

// TaskExecutionSettings configures concurrency for a run.
type TaskExecutionSettings struct {
	Mode             string `json:"mode"`
	MaxParallelTasks int    `json:"maxParallelTasks"`
}

// Settings is the subset of canonical config the wave engine consumes.
type Settings struct {
	TaskExecution TaskExecutionSettings `json:"taskExecution"`
}

// WorkflowSignalFlags is the contract surface the external workflow engine
// reads to decide the next phase transition.
type WorkflowSignalFlags struct {
	TaskPassed       bool `json:"taskPassed"`
	TaskFailed       bool `json:"taskFailed"`
	HasMoreTasks     bool `json:"hasMoreTasks"`
	AllTasksComplete bool `json:"allTasksComplete"`
}

// Status wraps the workflow signal flags plus the optional active-wave
// record.
type Status struct {
	WorkflowSignalFlags
	Parallel *ActiveWaveRecord `json:"parallel,omitempty"`
}

// IssueRecord is the canonical issue document.
type IssueRecord struct {
	IssueNumber string   `json:"issueNumber,omitempty"`
	Phase       string   `json:"phase"`
	Settings    Settings `json:"settings"`
	Status      Status   `json:"status"`
}
