package cli

import (
	"fmt"

	"github.com/ariel-frischer/waveorc/internal/config"
	apperrors "github.com/ariel-frischer/waveorc/internal/errors"
	"github.com/ariel-frischer/waveorc/internal/health"
	"github.com/ariel-frischer/waveorc/internal/recovery"
	"github.com/ariel-frischer/waveorc/internal/state"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:     "doctor",
	Short:   "Validate the local environment and repair orphaned tasks",
	GroupID: GroupCore,
	Long: `doctor runs the same health checks the run command performs on
startup (CLI agent availability, Claude settings, git) plus start-of-run
orphan repair (spec.md §4.7.1): any task left in_progress with no
matching active wave record is marked failed and given a canonical
feedback file. No wave is started.`,
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().Bool("dry-run", false, "Report what orphan repair would do without writing state")
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	report := health.RunHealthChecks()
	fmt.Fprint(out, health.FormatReport(report))

	cfg, err := loadCLIConfig(cmd)
	if err != nil {
		return apperrors.Wrap(err, apperrors.Configuration)
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")

	tf, err := state.ReadTasks(cfg.StateDir)
	if err == state.ErrNotExist {
		fmt.Fprintln(out, "\nNo tasks.json found at", cfg.StateDir, "- nothing to repair.")
		return nil
	}
	if err != nil {
		return apperrors.Wrap(err, apperrors.Runtime)
	}

	issue, err := state.ReadIssue(cfg.StateDir)
	if err != nil && err != state.ErrNotExist {
		return apperrors.Wrap(err, apperrors.Runtime)
	}
	var rec *state.ActiveWaveRecord
	var runID string
	if issue != nil {
		rec = issue.Status.Parallel
		if rec != nil {
			runID = rec.RunID
		}
	}

	workerStateDir := func(runID, taskID string) string {
		dir, _ := state.WorkerStateDir(cfg.StateDir, runID, taskID)
		return dir
	}

	var reports []recovery.OrphanReport
	if dryRun {
		reports = recovery.RepairOrphans("", tf, rec, runID, workerStateDir)
	} else {
		reports = recovery.RepairOrphans(cfg.StateDir, tf, rec, runID, workerStateDir)
		if len(reports) > 0 {
			if err := state.WriteTasks(cfg.StateDir, tf); err != nil {
				return apperrors.Wrap(err, apperrors.Runtime)
			}
		}
	}

	fmt.Fprintf(out, "\nOrphan repair (%s):\n", cfg.StateDir)
	if len(reports) == 0 {
		fmt.Fprintln(out, "  no orphaned in_progress tasks found")
		return nil
	}
	for _, r := range reports {
		verb := "marked failed"
		if dryRun {
			verb = "would be marked failed"
		}
		fmt.Fprintf(out, "  - %s: %s\n", r.TaskID, verb)
	}

	if !report.Passed || !report.AgentsPassed {
		return apperrors.NewPrerequisiteError("one or more health checks failed",
			"resolve the issues above before running waveorc run")
	}
	return nil
}

// loadCLIConfig loads the orchestrator configuration, applying the
// --config and --state-dir persistent flag overrides.
func loadCLIConfig(cmd *cobra.Command) (*config.Configuration, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	if stateDir, _ := cmd.Flags().GetString("state-dir"); stateDir != "" {
		cfg.StateDir = stateDir
	}
	return cfg, nil
}
