// waveorc - parallel wave orchestrator for automated issue resolution
// Author: Ariel Frischer
// Source: https://github.com/ariel-frischer/waveorc

// Package config provides hierarchical configuration management for waveorc using koanf.
// Configuration is loaded with priority: environment variables > project config (.waveorc/config.yml)
// > user config (~/.config/waveorc/config.yml) > defaults.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ariel-frischer/waveorc/internal/notify"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Configuration represents the waveorc orchestrator configuration.
type Configuration struct {
	// StateDir is the root directory holding all run state: tasks.json,
	// issue.json, progress.txt, and the per-run .runs/ and .sandboxes/
	// subtrees. Can be set via WAVEORC_STATE_DIR.
	StateDir string `koanf:"state_dir"`

	// RepoRoot is the canonical git repository the orchestrator merges
	// finished task branches into. Can be set via WAVEORC_REPO_ROOT.
	RepoRoot string `koanf:"repo_root"`

	// RunnerBin is the worker process binary invoked once per task per
	// phase. Can be set via WAVEORC_RUNNER_BIN.
	RunnerBin string `koanf:"runner_bin"`

	// Provider selects the backing agent/model provider passed through
	// to the runner binary (e.g. "claude", "codex").
	Provider string `koanf:"provider"`

	// Workflow names the workflow definition the runner should execute
	// for each task.
	Workflow string `koanf:"workflow"`

	// WorkflowsDir and PromptsDir locate the workflow and prompt
	// templates the runner binary reads from.
	WorkflowsDir string `koanf:"workflows_dir"`
	PromptsDir   string `koanf:"prompts_dir"`

	// MaxParallelTasks bounds how many tasks a single wave runs
	// concurrently. Values outside [1,8] are rejected at validation
	// time. Can be set via
	// WAVEORC_MAX_PARALLEL_TASKS.
	MaxParallelTasks int `koanf:"max_parallel_tasks"`

	// MaxDurationSeconds is the per-wave iteration timeout; a wave still
	// running past this many seconds from its start is declared timed
	// out. Can be set via WAVEORC_MAX_DURATION_SECONDS.
	MaxDurationSeconds int `koanf:"max_duration_seconds"`

	// InactivityTimeoutSeconds is the per-worker inactivity timeout: if
	// every live worker in a wave has produced no output for this long,
	// the wave is declared timed out. 0 disables inactivity timeout.
	InactivityTimeoutSeconds int `koanf:"inactivity_timeout_seconds"`

	// SandboxBranchPrefix prefixes every task branch name created for a
	// wave's git worktree sandboxes.
	SandboxBranchPrefix string `koanf:"sandbox_branch_prefix"`

	// SkipConfirmations skips interactive confirmation prompts (can
	// also be set via WAVEORC_YES).
	SkipConfirmations bool `koanf:"skip_confirmations"`

	// Notifications configures notification preferences for wave and
	// run completion, merge conflicts, and timeouts.
	Notifications notify.NotificationConfig `koanf:"notifications"`
}

// LoadOptions configures how configuration is loaded.
type LoadOptions struct {
	// ProjectConfigPath overrides the project config path (default: .waveorc/config.yml)
	ProjectConfigPath string
	// UserConfigPath overrides the user config path (default: ~/.config/waveorc/config.yml)
	UserConfigPath string
	// WarningWriter is not read by LoadWithOptions; no warnings are emitted.
	WarningWriter io.Writer
	// SkipWarnings is not read by LoadWithOptions; no warnings are emitted.
	SkipWarnings bool
}

// Load loads configuration from user, project, and environment sources.
// Priority: Environment variables > Project config > User config > Defaults.
func Load(projectConfigPath string) (*Configuration, error) {
	return LoadWithOptions(LoadOptions{ProjectConfigPath: projectConfigPath})
}

// LoadWithOptions loads configuration with custom options.
func LoadWithOptions(opts LoadOptions) (*Configuration, error) {
	k := koanf.New(".")

	loadDefaults(k)

	if err := loadUserConfig(k, opts.UserConfigPath); err != nil {
		return nil, err
	}

	if err := loadProjectConfig(k, opts.ProjectConfigPath); err != nil {
		return nil, err
	}

	if err := loadEnvironmentConfig(k); err != nil {
		return nil, err
	}

	return finalizeConfig(k)
}

// loadDefaults applies default configuration values.
func loadDefaults(k *koanf.Koanf) {
	defaults := GetDefaults()
	for key, value := range defaults {
		k.Set(key, value)
	}
}

// loadUserConfig loads the user-level YAML config, if present.
func loadUserConfig(k *koanf.Koanf, customPath string) error {
	path := customPath
	if path == "" {
		path, _ = UserConfigPath()
	}
	if !fileExists(path) {
		return nil
	}
	if err := loadYAMLConfig(k, path, "user"); err != nil {
		return fmt.Errorf("loading user config: %w", err)
	}
	return nil
}

// loadProjectConfig loads the project-level YAML config, if present.
func loadProjectConfig(k *koanf.Koanf, customPath string) error {
	path := customPath
	if path == "" {
		path = ProjectConfigPath()
	}
	if !fileExists(path) {
		return nil
	}
	if err := loadYAMLConfig(k, path, "project"); err != nil {
		return fmt.Errorf("loading project config: %w", err)
	}
	return nil
}

// loadYAMLConfig validates and loads a YAML config file.
func loadYAMLConfig(k *koanf.Koanf, path, configType string) error {
	if err := ValidateYAMLSyntax(path); err != nil {
		return fmt.Errorf("validating YAML syntax for %s config: %w", configType, err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to load %s config %s: %w", configType, path, err)
	}
	return nil
}

// loadEnvironmentConfig loads environment variable overrides.
func loadEnvironmentConfig(k *koanf.Koanf) error {
	if err := k.Load(env.Provider("WAVEORC_", ".", envTransform), nil); err != nil {
		return fmt.Errorf("failed to load environment config: %w", err)
	}
	return nil
}

// finalizeConfig unmarshals, validates, and applies final transformations.
func finalizeConfig(k *koanf.Koanf) (*Configuration, error) {
	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := ValidateConfigValues(&cfg, "config"); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg.StateDir = expandHomePath(cfg.StateDir)
	cfg.RepoRoot = expandHomePath(cfg.RepoRoot)

	if os.Getenv("WAVEORC_YES") != "" {
		cfg.SkipConfirmations = true
	}

	return &cfg, nil
}

// fileExists returns true if the file exists and is readable.
func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// envTransform converts environment variable names to config keys.
// Example: WAVEORC_MAX_PARALLEL_TASKS -> max_parallel_tasks
// Nested notification keys use an underscore after the section name,
// translated to the dotted path koanf expects: WAVEORC_NOTIFICATIONS_TYPE -> notifications.type
func envTransform(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, "WAVEORC_"))
	if rest, ok := strings.CutPrefix(key, "notifications_"); ok {
		return "notifications." + rest
	}
	return key
}

// expandHomePath expands ~ to the user's home directory.
func expandHomePath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, path[2:])
		}
	}
	return path
}
