package wave

import (
	"time"

	"github.com/ariel-frischer/waveorc/internal/state"
	"github.com/ariel-frischer/waveorc/internal/worker"
)

// PartialSetup records what a wave had already built before setup
// failed, per spec.md §4.4 step 3 / §6.4: sandboxes created so far
// (regardless of phase) and, separately, workers that had actually been
// started. The two lists are tracked independently because sandbox
// creation for every selected task completes (§4.4's "create a
// sandbox") before worker spawning begins for any of them — a sandbox
// failure on the k-th task can therefore leave CreatedSandboxes
// non-empty while StartedWorkers is still empty (spec.md §8 scenario 6).
type PartialSetup struct {
	CreatedSandboxes []string `json:"createdSandboxes"`
	StartedWorkers   []string `json:"startedWorkers"`
}

// Result is the tagged outcome of a single wave (spec.md §9 DESIGN
// NOTES). Exactly one terminal tag applies; Err carries the underlying
// cause for the non-ok tags that have one.
type Result struct {
	Tag       ResultTag
	RunID     string
	WaveID    string
	Phase     state.WavePhase
	TaskIDs   []string
	StartedAt time.Time
	EndedAt   time.Time

	// TaskOutcomes is the simple per-task terminal status, used for the
	// human-readable progress entry.
	TaskOutcomes map[string]state.TaskStatus
	// Outcomes is the full per-worker result (exit code, taskPassed/
	// taskFailed) that feeds the wave summary's taskVerdicts.
	Outcomes map[string]worker.Outcome
	// Branches maps task id to the sandbox branch that was merged (or
	// would have been merged) for it.
	Branches map[string]string

	MergeOrder   []string
	ConflictedAt string
	Signals      *state.WorkflowSignalFlags

	Err          error
	ErrorStack   string
	PartialSetup *PartialSetup
}

// ResultTag is the closed set of ways a wave can end.
type ResultTag string

const (
	// ResultOK: every task in the wave reached a terminal status and,
	// for spec-check waves, every passing task's branch merged cleanly.
	ResultOK ResultTag = "ok"
	// ResultSetupFailed: the wave could not be started at all (sandbox
	// creation or worker spawn failed before any task made progress). A
	// failed reservation write is returned as an error, not as this tag.
	ResultSetupFailed ResultTag = "setup_failed"
	// ResultTimedOut: the timeout monitor fired for at least one task
	// before it reached a terminal status.
	ResultTimedOut ResultTag = "timed_out"
	// ResultStopped: the wave was cancelled by an external signal
	// (context cancellation) before completion.
	ResultStopped ResultTag = "stopped"
	// ResultMergeConflict: the serial merge of the passing tasks'
	// branches stopped at the first conflicting branch.
	ResultMergeConflict ResultTag = "merge_conflict"
)

// TaskVerdict is the per-task entry of a wave summary's taskVerdicts map
// (spec.md §6.4).
type TaskVerdict struct {
	Status     worker.OutcomeStatus `json:"status"`
	ExitCode   int                  `json:"exitCode"`
	Branch     string               `json:"branch,omitempty"`
	TaskPassed bool                 `json:"taskPassed"`
	TaskFailed bool                 `json:"taskFailed"`
}

// Summary is the JSON shape persisted to .runs/<runId>/waves/<waveId>.json
// (spec.md §3's per-wave summary file, required keys listed in §6.4).
type Summary struct {
	WaveID    string          `json:"waveId"`
	Phase     state.WavePhase `json:"phase"`
	Tag       ResultTag       `json:"tag"`
	TaskIDs   []string        `json:"taskIds"`
	StartedAt time.Time       `json:"startedAt"`
	EndedAt   time.Time       `json:"endedAt"`
	Workers   []string        `json:"workers"`

	AllPassed    bool                   `json:"allPassed"`
	AnyFailed    bool                   `json:"anyFailed"`
	TaskVerdicts map[string]TaskVerdict `json:"taskVerdicts,omitempty"`

	TaskOutcomes map[string]state.TaskStatus `json:"taskOutcomes,omitempty"`
	MergeOrder   []string                    `json:"mergeOrder,omitempty"`
	ConflictedAt string                      `json:"conflictedAt,omitempty"`

	Error        string        `json:"error,omitempty"`
	ErrorStack   string        `json:"errorStack,omitempty"`
	PartialSetup *PartialSetup `json:"partialSetup,omitempty"`
}

// ToSummary projects a Result into its persisted form, computing the
// spec.md §6.4 required keys (allPassed, anyFailed, taskVerdicts) from
// the richer per-worker Outcomes collected during the wave.
func (r Result) ToSummary() Summary {
	s := Summary{
		WaveID:       r.WaveID,
		Phase:        r.Phase,
		Tag:          r.Tag,
		TaskIDs:      r.TaskIDs,
		StartedAt:    r.StartedAt,
		EndedAt:      r.EndedAt,
		TaskOutcomes: r.TaskOutcomes,
		MergeOrder:   r.MergeOrder,
		ConflictedAt: r.ConflictedAt,
		ErrorStack:   r.ErrorStack,
		PartialSetup: r.PartialSetup,
	}
	if r.Err != nil {
		s.Error = r.Err.Error()
	}

	if len(r.Outcomes) > 0 {
		s.AllPassed = true
		s.TaskVerdicts = make(map[string]TaskVerdict, len(r.Outcomes))
		for id, o := range r.Outcomes {
			s.Workers = append(s.Workers, id)
			v := TaskVerdict{
				Status:     o.Status,
				ExitCode:   o.ExitCode,
				Branch:     r.Branches[id],
				TaskPassed: o.TaskPassed,
				TaskFailed: o.TaskFailed,
			}
			s.TaskVerdicts[id] = v
			if o.TaskFailed || o.Status != worker.StatusPassed {
				s.AllPassed = false
				s.AnyFailed = true
			}
		}
	}
	return s
}
