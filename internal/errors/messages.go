package errors

import "fmt"

// MissingStateDir is raised when a command needs --state-dir (or its
// config equivalent) but none was provided.
func MissingStateDir() *CLIError {
	return NewArgumentErrorWithUsage(
		"no state directory specified",
		"waveorc run --state-dir <path>",
		"pass --state-dir explicitly, or set state_dir in .waveorc/config.yml",
	)
}

// MissingTasksFile is raised when the run's tasks.json is absent.
func MissingTasksFile(path string) *CLIError {
	return NewPrerequisiteError(
		fmt.Sprintf("tasks file not found: %s", path),
		"run the task-generation step before starting the wave orchestrator",
	)
}

// MissingIssueFile is raised when the run's issue.json is absent.
func MissingIssueFile(path string) *CLIError {
	return NewPrerequisiteError(
		fmt.Sprintf("issue file not found: %s", path),
	)
}

// RunNotDetected is raised when a command expects an existing run
// directory under the state dir and finds none.
func RunNotDetected() *CLIError {
	return NewPrerequisiteError(
		"no active run found in the state directory",
		"start a run with 'waveorc run' before using this command",
	)
}

// InvalidTaskIDFormat is raised when a task id fails path-safety or
// format validation.
func InvalidTaskIDFormat(id string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("invalid task id %q", id),
		"task ids may only contain letters, digits, '-', and '_'",
	)
}

// RunnerNotFound is raised when the configured worker runner binary
// cannot be located on PATH.
func RunnerNotFound() *CLIError {
	return NewPrerequisiteError(
		"worker runner binary not found",
		"install the configured runner and ensure it is on PATH",
		"or set runner_bin in .waveorc/config.yml to its full path",
	)
}

// RunnerError wraps a runner process failure as a Runtime error.
func RunnerError(err error) *CLIError {
	return Wrap(err, Runtime, "check the worker logs for the failing task")
}

// ConfigFileNotFound is raised when an explicitly specified config
// file path does not exist.
func ConfigFileNotFound(path string) *CLIError {
	return NewConfigError(
		fmt.Sprintf("config file not found: %s", path),
		"create .waveorc/config.yml, or pass --config with a valid path",
	)
}

// ConfigParseError wraps a config file parse failure.
func ConfigParseError(path string, cause error) *CLIError {
	return NewConfigError(
		fmt.Sprintf("failed to parse config file %s: %s", path, cause.Error()),
		"check the file for valid YAML syntax",
	)
}

// InvalidFlagCombination is raised when two or more flags were passed
// together that cannot be combined.
func InvalidFlagCombination(flags, reason string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("invalid flag combination %s: %s", flags, reason),
	)
}

// WaveTimeoutError is raised when a wave's iteration or inactivity
// timeout elapses.
func WaveTimeoutError(duration, waveID string) *CLIError {
	return NewRuntimeError(
		fmt.Sprintf("wave %s timed out after %s", waveID, duration),
		"increase max_duration_seconds or inactivity_timeout_seconds in .waveorc/config.yml",
		"or investigate the worker logs for a stuck task",
	)
}

// DirectoryNotFound is raised when a required directory (repo root,
// workflows dir, prompts dir) is missing.
func DirectoryNotFound(path string) *CLIError {
	return NewPrerequisiteError(
		fmt.Sprintf("directory not found: %s", path),
	)
}

// SandboxCreationFailed wraps a git worktree creation failure.
func SandboxCreationFailed(taskID string, cause error) *CLIError {
	return Wrap(cause, Runtime,
		fmt.Sprintf("could not create sandbox for task %s", taskID),
		"ensure the repository has no conflicting worktree or branch of the same name",
	)
}

// MergeConflictDetected is raised when the serial merge step stops at
// a conflicting task branch.
func MergeConflictDetected(taskID string) *CLIError {
	return NewRuntimeError(
		fmt.Sprintf("merge conflict on task %s", taskID),
		"resolve the conflict manually in the sandbox branch and re-run spec-check",
	)
}

// NoTasksPending is raised when a wave is requested but no task is
// eligible for selection.
func NoTasksPending() *CLIError {
	return NewPrerequisiteError(
		"no pending or failed tasks remain",
	)
}

// TaskNotFound is raised when a referenced task id does not exist in
// the tasks file.
func TaskNotFound(id string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("task not found: %s", id),
	)
}

// InvalidTaskStatus is raised when a task status string does not match
// any known TaskStatus value.
func InvalidTaskStatus(status string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("invalid task status: %s", status),
		"valid statuses are pending, in_progress, passed, failed",
	)
}

// GitNotRepository is raised when the configured repo root is not
// inside a git working tree.
func GitNotRepository() *CLIError {
	return NewPrerequisiteError(
		"repo root is not a git repository",
		"run waveorc from inside a git working tree, or set repo_root in .waveorc/config.yml",
	)
}

// InvalidMaxParallelTasks is raised when max_parallel_tasks falls
// outside the supported [1,8] range.
func InvalidMaxParallelTasks(value int) *CLIError {
	return NewConfigError(
		fmt.Sprintf("max_parallel_tasks must be between 1 and 8, got %d", value),
	)
}

// FileNotWritable is raised when the orchestrator cannot write to a
// required state file.
func FileNotWritable(path string) *CLIError {
	return NewRuntimeError(
		fmt.Sprintf("cannot write to file: %s", path),
		"check file permissions and available disk space",
	)
}
