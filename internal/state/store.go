package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ariel-frischer/waveorc/internal/pathsafe"
)

const (
	issueFileName    = "issue.json"
	tasksFileName    = "tasks.json"
	progressFileName = "progress.txt"
	runsDirName      = ".runs"
	wavesDirName     = "waves"
)

// ErrNotExist is returned by Read* when the requested file is absent.
var ErrNotExist = errors.New("state: file does not exist")

// ReadIssue loads the canonical issue record. Returns ErrNotExist if the
// file has never been written.
func ReadIssue(stateDir string) (*IssueRecord, error) {
	var rec IssueRecord
	if err := readJSON(filepath.Join(stateDir, issueFileName), &rec); err != nil {
		return nil, err
	}
	if err := rec.Status.Parallel.Validate(); err != nil {
		return nil, fmt.Errorf("reading issue record: %w", err)
	}
	return &rec, nil
}

// WriteIssue atomically replaces the canonical issue record.
func WriteIssue(stateDir string, rec *IssueRecord) error {
	if err := rec.Status.Parallel.Validate(); err != nil {
		return fmt.Errorf("writing issue record: %w", err)
	}
	return writeJSON(stateDir, issueFileName, rec)
}

// ReadTasks loads the canonical tasks file.
func ReadTasks(stateDir string) (*TasksFile, error) {
	var tf TasksFile
	if err := readJSON(filepath.Join(stateDir, tasksFileName), &tf); err != nil {
		return nil, err
	}
	return &tf, nil
}

// WriteTasks atomically replaces the canonical tasks file.
func WriteTasks(stateDir string, tf *TasksFile) error {
	return writeJSON(stateDir, tasksFileName, tf)
}

// AppendProgress appends a block of text to progress.txt, creating the
// file on first write. Each call's text is separated from the previous
// entry by a blank line.
func AppendProgress(stateDir, text string) error {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return fmt.Errorf("appending progress: creating state dir: %w", err)
	}
	path := filepath.Join(stateDir, progressFileName)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("appending progress: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(text); err != nil {
		return fmt.Errorf("appending progress: %w", err)
	}
	if len(text) == 0 || text[len(text)-1] != '\n' {
		if _, err := f.WriteString("\n"); err != nil {
			return fmt.Errorf("appending progress: %w", err)
		}
	}
	if _, err := f.WriteString("\n"); err != nil {
		return fmt.Errorf("appending progress: %w", err)
	}
	return nil
}

// WriteWaveSummary writes a wave summary under
// .runs/<runId>/waves/<waveId>.json.
func WriteWaveSummary(stateDir, runID, waveID string, summary interface{}) error {
	if err := pathsafe.Validate("runId", runID); err != nil {
		return err
	}
	if err := pathsafe.Validate("waveId", waveID); err != nil {
		return err
	}
	dir := filepath.Join(stateDir, runsDirName, runID, wavesDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("writing wave summary: %w", err)
	}
	return writeJSONAbs(filepath.Join(dir, waveID+".json"), summary)
}

// WorkerStateDir returns the worker-local state directory for (runId,
// taskId), validating both identifiers first.
func WorkerStateDir(stateDir, runID, taskID string) (string, error) {
	if err := pathsafe.Validate("runId", runID); err != nil {
		return "", err
	}
	if err := pathsafe.Validate("taskId", taskID); err != nil {
		return "", err
	}
	return filepath.Join(stateDir, runsDirName, runID, "workers", taskID), nil
}

// FeedbackPath returns the canonical per-task feedback path, rejecting
// unsafe task ids before constructing it.
func FeedbackPath(stateDir, taskID string) (string, error) {
	if err := pathsafe.Validate("taskId", taskID); err != nil {
		return "", err
	}
	return filepath.Join(stateDir, "task-feedback", taskID+".md"), nil
}

// WriteFeedback atomically writes a canonical per-task feedback file.
func WriteFeedback(stateDir, taskID, content string) error {
	path, err := FeedbackPath(stateDir, taskID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("writing feedback for %s: %w", taskID, err)
	}
	return writeAtomic(path, []byte(content))
}

// readJSON reads and decodes a JSON file. A missing file yields
// ErrNotExist so callers can distinguish "never written" from corruption.
func readJSON(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotExist
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

func writeJSON(stateDir, name string, value interface{}) error {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return fmt.Errorf("writing %s: creating state dir: %w", name, err)
	}
	return writeJSONAbs(filepath.Join(stateDir, name), value)
}

func writeJSONAbs(path string, value interface{}) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}
	return writeAtomic(path, data)
}

// writeAtomic writes data to a temp file in the same directory as path
// and renames it into place, so a reader never observes a partial write.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("writing %s: creating temp file: %w", path, err)
	}
	tmpPath := tmp.Name()
	cleanup := true
	defer func() {
		if cleanup {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: closing temp file: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("writing %s: renaming temp file: %w", path, err)
	}
	cleanup = false
	return nil
}

// Now exists so tests can stub time without depending on the real clock.
var Now = time.Now
