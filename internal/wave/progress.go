package wave

import (
	"fmt"
	"strings"

	"github.com/ariel-frischer/waveorc/internal/state"
)

// AppendCombinedEntry writes the one combined human-readable progress
// entry a successful wave produces (implement + spec-check + merge),
// per spec.md §4.6 step 9.
func AppendCombinedEntry(stateDir string, r *Result) error {
	var b strings.Builder
	fmt.Fprintf(&b, "=== Wave %s (%s) ===\n", r.WaveID, r.Phase)
	for _, id := range r.TaskIDs {
		fmt.Fprintf(&b, "  %s: %s\n", id, r.TaskOutcomes[id])
	}
	if len(r.MergeOrder) > 0 {
		fmt.Fprintf(&b, "  merged: %s\n", strings.Join(r.MergeOrder, ", "))
	}
	if r.Tag == ResultMergeConflict {
		fmt.Fprintf(&b, "  merge conflict at: %s\n", r.ConflictedAt)
	}
	return state.AppendProgress(stateDir, b.String())
}

// AppendSetupFailureEntry writes the dedicated "Parallel Wave Setup
// Failure" progress entry spec.md §4.4 step 3 requires.
func AppendSetupFailureEntry(stateDir string, r *Result) error {
	var b strings.Builder
	fmt.Fprintf(&b, "=== Parallel Wave Setup Failure: wave %s (%s) ===\n", r.WaveID, r.Phase)
	fmt.Fprintf(&b, "  tasks: %s\n", strings.Join(r.TaskIDs, ", "))
	if r.Err != nil {
		fmt.Fprintf(&b, "  error: %s\n", r.Err.Error())
	}
	return state.AppendProgress(stateDir, b.String())
}

// AppendTimeoutEntry writes the dedicated "Parallel Wave Timeout"
// progress entry spec.md §4.10 step 5 requires.
func AppendTimeoutEntry(stateDir string, r *Result) error {
	var b strings.Builder
	fmt.Fprintf(&b, "=== Parallel Wave Timeout: wave %s (%s) ===\n", r.WaveID, r.Phase)
	for _, id := range r.TaskIDs {
		fmt.Fprintf(&b, "  %s: %s\n", id, r.TaskOutcomes[id])
	}
	return state.AppendProgress(stateDir, b.String())
}

// AppendEntry picks the right progress entry shape for r.Tag and writes
// it.
func AppendEntry(stateDir string, r *Result) error {
	switch r.Tag {
	case ResultSetupFailed:
		return AppendSetupFailureEntry(stateDir, r)
	case ResultTimedOut:
		return AppendTimeoutEntry(stateDir, r)
	default:
		return AppendCombinedEntry(stateDir, r)
	}
}

// WriteSummary persists r's wave-summary JSON artifact.
func WriteSummary(stateDir string, r *Result) error {
	return state.WriteWaveSummary(stateDir, r.RunID, r.WaveID, r.ToSummary())
}
