package config

// GetDefaults returns the default configuration values.
func GetDefaults() map[string]interface{} {
	return map[string]interface{}{
		"state_dir":                  "~/.waveorc/state",
		"repo_root":                  ".",
		"runner_bin":                 "waveorc-worker",
		"provider":                   "claude",
		"workflow":                   "default",
		"workflows_dir":              "./workflows",
		"prompts_dir":                "./prompts",
		"max_parallel_tasks":         4,
		"max_duration_seconds":       3600,
		"inactivity_timeout_seconds": 600,
		"sandbox_branch_prefix":      "waveorc/",
		"skip_confirmations":         false,
		"notifications": map[string]interface{}{
			"enabled":                false,
			"type":                   "both",
			"sound_file":             "",
			"on_run_complete":        true,
			"on_wave_complete":       false,
			"on_error":               true,
			"on_merge_conflict":      true,
			"on_timeout":             true,
			"on_long_running":        false,
			"long_running_threshold": "2m",
		},
	}
}

// GetDefaultConfigTemplate returns a commented YAML template suitable for
// scaffolding a new project or user config file.
func GetDefaultConfigTemplate() string {
	return `# waveorc configuration
# Run settings
state_dir: ~/.waveorc/state
repo_root: .
runner_bin: waveorc-worker
provider: claude
workflow: default
workflows_dir: ./workflows
prompts_dir: ./prompts

# Wave settings
max_parallel_tasks: 4
max_duration_seconds: 3600
inactivity_timeout_seconds: 600
sandbox_branch_prefix: waveorc/
skip_confirmations: false

# Notifications
notifications:
  enabled: false
  type: both
  sound_file: ""
  on_run_complete: true
  on_wave_complete: false
  on_error: true
  on_merge_conflict: true
  on_timeout: true
  on_long_running: false
  long_running_threshold: 2m
`
}
