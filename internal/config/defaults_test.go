// Package config_test tests default configuration values and template generation.
// Related: internal/config/defaults.go
// Tags: config, defaults, configuration, template, notifications
package config

import (
	"strings"
	"testing"
)

func TestGetDefaultConfigTemplate(t *testing.T) {
	t.Parallel()

	template := GetDefaultConfigTemplate()

	if template == "" {
		t.Error("GetDefaultConfigTemplate() returned empty string")
	}

	expectedSections := []string{
		"Run settings",
		"state_dir:",
		"repo_root:",
		"runner_bin:",
		"Wave settings",
		"max_parallel_tasks:",
		"max_duration_seconds:",
		"inactivity_timeout_seconds:",
		"sandbox_branch_prefix:",
		"skip_confirmations:",
		"Notifications",
		"notifications:",
		"enabled:",
		"type:",
		"sound_file:",
		"on_run_complete:",
		"on_wave_complete:",
		"on_error:",
		"on_merge_conflict:",
		"on_timeout:",
		"long_running_threshold:",
	}

	for _, section := range expectedSections {
		if !strings.Contains(template, section) {
			t.Errorf("GetDefaultConfigTemplate() missing section: %s", section)
		}
	}
}

func TestGetDefaults(t *testing.T) {
	t.Parallel()

	defaults := GetDefaults()

	requiredKeys := []string{
		"state_dir",
		"repo_root",
		"runner_bin",
		"provider",
		"workflow",
		"workflows_dir",
		"prompts_dir",
		"max_parallel_tasks",
		"max_duration_seconds",
		"inactivity_timeout_seconds",
		"sandbox_branch_prefix",
		"skip_confirmations",
		"notifications",
	}

	for _, key := range requiredKeys {
		if _, ok := defaults[key]; !ok {
			t.Errorf("GetDefaults() missing required key: %s", key)
		}
	}

	if defaults["max_parallel_tasks"] != 4 {
		t.Errorf("max_parallel_tasks default = %v, want 4", defaults["max_parallel_tasks"])
	}

	if defaults["max_duration_seconds"] != 3600 {
		t.Errorf("max_duration_seconds default = %v, want 3600", defaults["max_duration_seconds"])
	}

	if defaults["runner_bin"] != "waveorc-worker" {
		t.Errorf("runner_bin default = %v, want waveorc-worker", defaults["runner_bin"])
	}

	notifications, ok := defaults["notifications"].(map[string]interface{})
	if !ok {
		t.Fatal("notifications should be a map")
	}

	if notifications["enabled"] != false {
		t.Errorf("notifications.enabled default = %v, want false", notifications["enabled"])
	}

	if notifications["type"] != "both" {
		t.Errorf("notifications.type default = %v, want 'both'", notifications["type"])
	}

	if notifications["on_run_complete"] != true {
		t.Errorf("notifications.on_run_complete default = %v, want true", notifications["on_run_complete"])
	}

	if notifications["on_error"] != true {
		t.Errorf("notifications.on_error default = %v, want true", notifications["on_error"])
	}
}
