// Package merge implements the serial branch-merge integrator that runs
// after a successful spec-check wave: each passing task's sandbox branch
// is merged into the canonical branch, in lexicographic order, stopping
// at the first conflict.
package merge

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/ariel-frischer/waveorc/internal/state"
)

// GitOps is the subset of git plumbing the integrator needs, wrapping
// the canonical working directory's repository.
type GitOps interface {
	// Merge performs a non-fast-forward merge of branch into the
	// current HEAD of repoPath and returns the resulting commit SHA.
	// A conflicting merge returns isConflict=true and a non-nil error.
	Merge(repoPath, branch, message string) (sha string, isConflict bool, err error)
	// AbortMerge cleans up a conflicted merge so the working directory
	// is ready for the next merge attempt.
	AbortMerge(repoPath string) error
}

type execGitOps struct{}

func (execGitOps) Merge(repoPath, branch, message string) (string, bool, error) {
	cmd := exec.Command("git", "merge", "--no-ff", "-m", message, branch)
	cmd.Dir = repoPath
	out, err := cmd.CombinedOutput()
	if err != nil {
		output := string(out)
		isConflict := strings.Contains(output, "CONFLICT") || strings.Contains(output, "Automatic merge failed")
		return "", isConflict, fmt.Errorf("git merge %s: %w: %s", branch, err, strings.TrimSpace(output))
	}

	shaCmd := exec.Command("git", "rev-parse", "HEAD")
	shaCmd.Dir = repoPath
	shaOut, err := shaCmd.Output()
	if err != nil {
		return "", false, fmt.Errorf("resolving merge commit sha: %w", err)
	}
	return strings.TrimSpace(string(shaOut)), false, nil
}

func (execGitOps) AbortMerge(repoPath string) error {
	cmd := exec.Command("git", "merge", "--abort")
	cmd.Dir = repoPath
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git merge --abort: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// TaskMerge describes one task's position in the merge order.
type TaskMerge struct {
	TaskID string
	Branch string
}

// Outcome is the per-task merge result.
type Outcome struct {
	TaskID   string
	Success  bool
	Conflict bool
	CommitSHA string
	Err      error
}

// Result is the aggregate merge result (spec.md §4.8 step 5).
type Result struct {
	Ordered      []Outcome
	SucceededIDs []string
	FailedIDs    []string
	HasConflict  bool
	ConflictedAt string
}

// Integrator drives the merge procedure against the canonical working
// directory. StateDir, when non-empty, is the canonical state directory
// Run writes conflict-resolution feedback into (spec.md §4.8 step 3).
type Integrator struct {
	CanonicalRepoPath string
	StateDir          string
	Git               GitOps
}

// New returns an Integrator backed by the real git CLI.
func New(canonicalRepoPath, stateDir string) *Integrator {
	return &Integrator{CanonicalRepoPath: canonicalRepoPath, StateDir: stateDir, Git: execGitOps{}}
}

// Run merges tasks, already sorted lexicographic ascending by the
// caller (wave.SortLexicographic), into the canonical branch. On the
// first conflict it aborts that merge, writes a canonical feedback file
// with resolution guidance, and stops processing the rest; a
// non-conflict failure is recorded and processing continues.
func (in *Integrator) Run(tasks []TaskMerge) Result {
	var res Result

	for _, t := range tasks {
		if res.HasConflict {
			break
		}

		sha, isConflict, err := in.Git.Merge(in.CanonicalRepoPath, t.Branch, fmt.Sprintf("merge: %s", t.TaskID))
		out := Outcome{TaskID: t.TaskID, CommitSHA: sha, Err: err}

		switch {
		case err == nil:
			out.Success = true
			res.SucceededIDs = append(res.SucceededIDs, t.TaskID)
		case isConflict:
			out.Conflict = true
			if abortErr := in.Git.AbortMerge(in.CanonicalRepoPath); abortErr != nil {
				out.Err = fmt.Errorf("%w (and merge --abort failed: %v)", err, abortErr)
			}
			res.HasConflict = true
			res.ConflictedAt = t.TaskID
			res.FailedIDs = append(res.FailedIDs, t.TaskID)
			in.writeConflictFeedback(t, out)
		default:
			res.FailedIDs = append(res.FailedIDs, t.TaskID)
		}

		res.Ordered = append(res.Ordered, out)
	}

	return res
}

// writeConflictFeedback persists the canonical feedback file a
// conflicted merge requires, naming the branch that failed to merge and
// the working directory a human (or a subsequent worker) needs to
// inspect to resolve it.
func (in *Integrator) writeConflictFeedback(t TaskMerge, out Outcome) {
	if in.StateDir == "" {
		return
	}
	errText := ""
	if out.Err != nil {
		errText = out.Err.Error()
	}
	message := fmt.Sprintf(
		"Merging branch %q for task %s into the canonical branch conflicted and was aborted.\n\n"+
			"Resolve the conflict manually: check out %q, rebase or merge it against the canonical "+
			"branch at %s, fix the conflicting hunks, and re-run the merge step.\n\nGit output:\n%s\n",
		t.Branch, t.TaskID, t.Branch, in.CanonicalRepoPath, errText)
	_ = state.WriteFeedback(in.StateDir, t.TaskID, message)
}
