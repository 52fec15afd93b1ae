// Package sandbox gives each task in a wave its own isolated git
// worktree and branch, so N workers can run concurrently against the
// same repository without stepping on each other's working tree.
package sandbox

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ariel-frischer/waveorc/internal/pathsafe"
)

// GitOps is the subset of git worktree operations the sandbox manager
// needs. Mirrors the teacher's worktree.GitOperations seam so tests can
// substitute a fake.
type GitOps interface {
	WorktreeAdd(repoRoot, path, branch string) error
	WorktreeRemove(repoRoot, path string, force bool) error
}

// execGitOps shells out to the real git binary.
type execGitOps struct{}

func (execGitOps) WorktreeAdd(repoRoot, path, branch string) error {
	cmd := exec.Command("git", "worktree", "add", "-b", branch, path)
	cmd.Dir = repoRoot
	out, err := cmd.CombinedOutput()
	if err != nil {
		if strings.Contains(string(out), "already exists") {
			cmd = exec.Command("git", "worktree", "add", path, branch)
			cmd.Dir = repoRoot
			out, err = cmd.CombinedOutput()
			if err != nil {
				return fmt.Errorf("git worktree add (existing branch): %w: %s", err, strings.TrimSpace(string(out)))
			}
			return nil
		}
		return fmt.Errorf("git worktree add: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (execGitOps) WorktreeRemove(repoRoot, path string, force bool) error {
	args := []string{"worktree", "remove", path}
	if force {
		args = append(args, "--force")
	}
	cmd := exec.Command("git", args...)
	cmd.Dir = repoRoot
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git worktree remove: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Sandbox is one task's isolated checkout.
type Sandbox struct {
	TaskID string
	Branch string
	Path   string
}

// Manager creates and tears down per-task sandboxes under a shared
// sandboxes root inside the state directory.
type Manager struct {
	RepoRoot     string
	SandboxesDir string
	BranchPrefix string
	Git          GitOps
}

// New returns a Manager backed by the real git CLI.
func New(repoRoot, sandboxesDir, branchPrefix string) *Manager {
	return &Manager{
		RepoRoot:     repoRoot,
		SandboxesDir: sandboxesDir,
		BranchPrefix: branchPrefix,
		Git:          execGitOps{},
	}
}

// branchName builds the deterministic per-task branch name
// "issue/<issueNumber>-<taskId>-<runId>" (spec §6.6), so concurrent runs
// never collide. issueNumber falls back to "0" when the canonical issue
// record carries none, so callers that haven't wired an issue number
// through yet still get a valid, deterministic branch.
func (m *Manager) branchName(issueNumber, runID, taskID string) string {
	if issueNumber == "" {
		issueNumber = "0"
	}
	return fmt.Sprintf("%sissue/%s-%s-%s", m.BranchPrefix, issueNumber, taskID, runID)
}

// CanonicalFiles is the set of canonical state files Create copies into
// a freshly created worker state directory, per spec.md §4.2: the
// worker reads these instead of the canonical state directory so it
// never races the orchestrator over the same files.
type CanonicalFiles struct {
	IssueJSON       string // path to the canonical issue.json, if any
	TasksJSON       string // path to the canonical tasks.json, if any
	TaskFeedbackMD  string // path to this task's canonical task-feedback/<taskId>.md, if any
	WorkerStateDir  string // destination worker state dir to populate
}

// Create validates the identifiers, then materializes a fresh git
// worktree and branch for (runId, taskId), and populates the worker's
// state directory with copies of the canonical issue/tasks/feedback
// files the spawned worker needs to read (spec.md §4.2).
func (m *Manager) Create(issueNumber, runID, taskID string, canon CanonicalFiles) (*Sandbox, error) {
	if err := pathsafe.Validate("runId", runID); err != nil {
		return nil, err
	}
	if err := pathsafe.Validate("taskId", taskID); err != nil {
		return nil, err
	}

	branch := m.branchName(issueNumber, runID, taskID)
	path := filepath.Join(m.SandboxesDir, runID, taskID)

	if err := m.Git.WorktreeAdd(m.RepoRoot, path, branch); err != nil {
		return nil, fmt.Errorf("creating sandbox for task %s: %w", taskID, err)
	}

	if canon.WorkerStateDir != "" {
		if err := populateWorkerStateDir(canon); err != nil {
			return nil, fmt.Errorf("populating worker state dir for task %s: %w", taskID, err)
		}
	}

	return &Sandbox{TaskID: taskID, Branch: branch, Path: path}, nil
}

// populateWorkerStateDir creates the worker state directory and copies
// in whichever canonical files exist, so the spawned worker starts with
// its own copy of the issue, tasks, and any prior feedback for its task.
func populateWorkerStateDir(canon CanonicalFiles) error {
	if err := os.MkdirAll(canon.WorkerStateDir, 0o755); err != nil {
		return err
	}
	copies := map[string]string{
		canon.IssueJSON:      filepath.Join(canon.WorkerStateDir, "issue.json"),
		canon.TasksJSON:      filepath.Join(canon.WorkerStateDir, "tasks.json"),
		canon.TaskFeedbackMD: filepath.Join(canon.WorkerStateDir, "task-feedback.md"),
	}
	for src, dst := range copies {
		if src == "" {
			continue
		}
		if err := copyFile(src, dst); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

// Cleanup removes the sandbox's worktree. force is used on the
// crash-recovery path, where uncommitted residue from a killed worker
// must not block cleanup.
func (m *Manager) Cleanup(sb *Sandbox, force bool) error {
	if sb == nil {
		return nil
	}
	if err := m.Git.WorktreeRemove(m.RepoRoot, sb.Path, force); err != nil {
		return fmt.Errorf("cleaning up sandbox for task %s: %w", sb.TaskID, err)
	}
	return nil
}
