// waveorc - parallel wave orchestrator for automated issue resolution
// Author: Ariel Frischer
// Source: https://github.com/ariel-frischer/waveorc

// Package cli provides Cobra-based CLI commands for the waveorc wave
// orchestrator. It defines the user-facing commands that drive an
// issue's decomposed tasks through implement and spec-check waves
// (run), report state without mutating it (status), and validate the
// local environment (doctor), plus the usual version/completion
// utility commands.
package cli

import (
	"github.com/spf13/cobra"
)

// Command group IDs for organizing help output.
const (
	GroupCore          = "core"
	GroupConfiguration = "configuration"
)

var rootCmd = &cobra.Command{
	Use:   "waveorc",
	Short: "Parallel wave orchestrator for automated issue resolution",
	Long: `waveorc drives one issue's decomposed tasks through implement and
spec-check waves concurrently, with crash-safe state, deterministic
resumption, bounded concurrency, timeouts, and serial branch integration.

Source: https://github.com/ariel-frischer/waveorc`,
	Example: `  # Run waves until the issue reaches a terminal state
  waveorc run --state-dir .waveorc/state

  # Inspect the current phase and per-task statuses
  waveorc status --state-dir .waveorc/state

  # Validate the local environment without starting a wave
  waveorc doctor`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddGroup(&cobra.Group{ID: GroupCore, Title: "Core Commands:"})
	rootCmd.AddGroup(&cobra.Group{ID: GroupConfiguration, Title: "Configuration:"})

	rootCmd.SetHelpCommandGroupID(GroupConfiguration)
	rootCmd.SetCompletionCommandGroupID(GroupConfiguration)

	rootCmd.PersistentFlags().StringP("config", "c", ".waveorc/config.yml", "Path to config file")
	rootCmd.PersistentFlags().String("state-dir", "", "Directory holding issue.json/tasks.json/run state (overrides config)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
}
