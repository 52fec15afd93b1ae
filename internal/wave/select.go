// Package wave implements the wave engine: task selection, reservation,
// the implement and spec-check waves, and the workflow signal flags that
// result from them. It is the core orchestration component — state.Store,
// sandbox.Manager, worker.Supervisor, timeoutmon.Monitor and merge.Integrator
// are its collaborators, each a small interface it drives.
package wave

import (
	"sort"

	"github.com/ariel-frischer/waveorc/internal/state"
)

// Select returns up to maxParallel task ids eligible for the next wave.
// Eligibility and ordering follow spec.md §4.3:
//
//  1. A task is eligible iff its status is pending or failed and every
//     dependency has status passed.
//  2. Failed tasks sort before pending tasks; within a group, tasks keep
//     the order they appear in the tasks file.
//  3. The first min(len, maxParallel) ids are returned.
//
// Select is a pure function of its inputs: calling it repeatedly on the
// same tasks file returns identical results.
func Select(tf *state.TasksFile, maxParallel int) []string {
	if maxParallel <= 0 {
		return nil
	}

	passed := make(map[string]bool, len(tf.Tasks))
	for _, t := range tf.Tasks {
		if t.Status == state.TaskPassed {
			passed[t.ID] = true
		}
	}

	var failedGroup, pendingGroup []string
	for _, t := range tf.Tasks {
		if t.Status != state.TaskPending && t.Status != state.TaskFailed {
			continue
		}
		if !dependenciesSatisfied(t.DependsOn, passed) {
			continue
		}
		if t.Status == state.TaskFailed {
			failedGroup = append(failedGroup, t.ID)
		} else {
			pendingGroup = append(pendingGroup, t.ID)
		}
	}

	ordered := append(failedGroup, pendingGroup...)
	if len(ordered) > maxParallel {
		ordered = ordered[:maxParallel]
	}
	return ordered
}

func dependenciesSatisfied(dependsOn []string, passed map[string]bool) bool {
	for _, dep := range dependsOn {
		if !passed[dep] {
			return false
		}
	}
	return true
}

// ClampMaxParallelTasks normalizes a configured concurrency bound to
// [1, 8]. Values below 1 fall back to 1 and values above the hard cap
// are clamped to 8, unifying the two fallback behaviors the source
// implemented inconsistently (spec.md §9 open question).
func ClampMaxParallelTasks(value int) int {
	const hardCap = 8
	if value < 1 {
		return 1
	}
	if value > hardCap {
		return hardCap
	}
	return value
}

// SortLexicographic returns a new, ascending, lexicographically-sorted
// copy of ids. Used by the merge integrator (spec.md §4.8) as the single
// tie-breaker for merge order.
func SortLexicographic(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	sort.Strings(out)
	return out
}
