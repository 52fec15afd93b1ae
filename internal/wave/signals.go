package wave

import "github.com/ariel-frischer/waveorc/internal/state"

// Signals computes the canonical workflow signal flags per spec.md
// §4.9's table. waveOutcomes is this wave's per-task terminal status
// (post spec-check and merge); tf is the full tasks file after those
// outcomes have been applied to it.
func Signals(tf *state.TasksFile, waveOutcomes map[string]state.TaskStatus) state.WorkflowSignalFlags {
	anyWaveTaskFailed := false
	for _, status := range waveOutcomes {
		if status == state.TaskFailed {
			anyWaveTaskFailed = true
			break
		}
	}

	if anyWaveTaskFailed {
		return state.WorkflowSignalFlags{TaskPassed: false, TaskFailed: true, HasMoreTasks: true, AllTasksComplete: false}
	}

	if tf.AllPassed() {
		return state.WorkflowSignalFlags{TaskPassed: true, TaskFailed: false, HasMoreTasks: false, AllTasksComplete: true}
	}
	return state.WorkflowSignalFlags{TaskPassed: true, TaskFailed: false, HasMoreTasks: true, AllTasksComplete: false}
}

// TimeoutSignals implements spec.md §4.10 step 4: after timeout
// cleanup, flags are set exactly as "any failed," unconditionally.
func TimeoutSignals() state.WorkflowSignalFlags {
	return state.WorkflowSignalFlags{TaskPassed: false, TaskFailed: true, HasMoreTasks: true, AllTasksComplete: false}
}
