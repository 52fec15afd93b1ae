package cli

import (
	"fmt"

	apperrors "github.com/ariel-frischer/waveorc/internal/errors"
	"github.com/ariel-frischer/waveorc/internal/state"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show the current phase and per-task statuses",
	GroupID: GroupCore,
	Long: `status reads the canonical issue and tasks files and reports the
current phase, the active-wave record (if a wave is in flight), and
every task's status. It never mutates state.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadCLIConfig(cmd)
	if err != nil {
		return apperrors.Wrap(err, apperrors.Configuration)
	}

	issue, err := state.ReadIssue(cfg.StateDir)
	if err == state.ErrNotExist {
		fmt.Fprintln(out, "No issue.json found at", cfg.StateDir)
		return nil
	}
	if err != nil {
		return apperrors.Wrap(err, apperrors.Runtime)
	}

	tf, err := state.ReadTasks(cfg.StateDir)
	if err == state.ErrNotExist {
		tf = &state.TasksFile{}
	} else if err != nil {
		return apperrors.Wrap(err, apperrors.Runtime)
	}

	fmt.Fprintf(out, "Issue:  %s\n", displayOr(issue.IssueNumber, "(none)"))
	fmt.Fprintf(out, "Phase:  %s\n", displayOr(issue.Phase, "(none)"))

	if rec := issue.Status.Parallel; rec != nil {
		fmt.Fprintf(out, "\nActive wave:\n")
		fmt.Fprintf(out, "  run id:    %s\n", rec.RunID)
		fmt.Fprintf(out, "  wave id:   %s\n", rec.ActiveWaveID)
		fmt.Fprintf(out, "  wave phase: %s\n", rec.ActiveWavePhase)
		fmt.Fprintf(out, "  tasks:     %v\n", rec.ActiveWaveTaskIDs)
	} else {
		fmt.Fprintln(out, "\nNo active wave.")
	}

	fmt.Fprintf(out, "\nTasks (%d):\n", len(tf.Tasks))
	for _, t := range tf.Tasks {
		deps := ""
		if len(t.DependsOn) > 0 {
			deps = fmt.Sprintf(" (depends on %v)", t.DependsOn)
		}
		fmt.Fprintf(out, "  %-24s %-12s%s\n", t.ID, t.Status, deps)
	}

	fmt.Fprintf(out, "\nSignals: taskPassed=%t taskFailed=%t hasMoreTasks=%t allTasksComplete=%t\n",
		issue.Status.TaskPassed, issue.Status.TaskFailed, issue.Status.HasMoreTasks, issue.Status.AllTasksComplete)

	return nil
}

func displayOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
