package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ariel-frischer/waveorc/internal/notify"
	"gopkg.in/yaml.v3"
)

// ValidationError represents a configuration validation error with context.
type ValidationError struct {
	FilePath string
	Line     int
	Column   int
	Message  string
	Field    string
}

func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.FilePath, e.Line, e.Column, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: field '%s': %s", e.FilePath, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.FilePath, e.Message)
}

// ValidateYAMLSyntax checks if the YAML file has valid syntax.
// Returns nil if valid, or a ValidationError with line/column information if invalid.
func ValidateYAMLSyntax(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // Missing file is not an error - will use defaults
		}
		if os.IsPermission(err) {
			return &ValidationError{FilePath: filePath, Message: "permission denied"}
		}
		return &ValidationError{FilePath: filePath, Message: err.Error()}
	}
	return ValidateYAMLSyntaxFromBytes(data, filePath)
}

// ValidateYAMLSyntaxFromBytes checks if YAML data has valid syntax.
// Returns nil if valid, or a ValidationError if invalid.
func ValidateYAMLSyntaxFromBytes(data []byte, filePath string) error {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		var typeError *yaml.TypeError
		if errors.As(err, &typeError) {
			return &ValidationError{FilePath: filePath, Message: strings.Join(typeError.Errors, "; ")}
		}
		line, column := extractLineColumn(err.Error())
		return &ValidationError{FilePath: filePath, Line: line, Column: column, Message: cleanYAMLError(err.Error())}
	}
	return nil
}

// ValidateConfigValues validates configuration values against expected types and constraints.
// Returns nil if valid, or a ValidationError with field information if invalid.
func ValidateConfigValues(cfg *Configuration, filePath string) error {
	if cfg.StateDir == "" {
		return &ValidationError{FilePath: filePath, Field: "state_dir", Message: "is required"}
	}
	if cfg.RepoRoot == "" {
		return &ValidationError{FilePath: filePath, Field: "repo_root", Message: "is required"}
	}
	if cfg.RunnerBin == "" {
		return &ValidationError{FilePath: filePath, Field: "runner_bin", Message: "is required"}
	}

	if cfg.MaxParallelTasks < 1 || cfg.MaxParallelTasks > 8 {
		return &ValidationError{FilePath: filePath, Field: "max_parallel_tasks", Message: "must be between 1 and 8"}
	}

	if cfg.MaxDurationSeconds <= 0 {
		return &ValidationError{FilePath: filePath, Field: "max_duration_seconds", Message: "must be greater than 0"}
	}

	if cfg.InactivityTimeoutSeconds < 0 {
		return &ValidationError{FilePath: filePath, Field: "inactivity_timeout_seconds", Message: "must not be negative"}
	}

	if err := validateNotificationConfig(&cfg.Notifications, filePath); err != nil {
		return err
	}

	return nil
}

// validateNotificationConfig validates notification configuration values.
// Returns nil if valid, or a ValidationError with field information if invalid.
func validateNotificationConfig(nc *notify.NotificationConfig, filePath string) error {
	if nc.Type != "" && !notify.ValidOutputType(string(nc.Type)) {
		return &ValidationError{FilePath: filePath, Field: "notifications.type", Message: "must be one of: sound, visual, both"}
	}

	if nc.SoundFile != "" {
		if _, err := os.Stat(nc.SoundFile); err != nil {
			if os.IsNotExist(err) {
				return &ValidationError{FilePath: filePath, Field: "notifications.sound_file", Message: fmt.Sprintf("file does not exist: %s", nc.SoundFile)}
			}
			return &ValidationError{FilePath: filePath, Field: "notifications.sound_file", Message: fmt.Sprintf("cannot access file: %s", err)}
		}
	}

	return nil
}

// extractLineColumn attempts to extract line and column numbers from a YAML error message.
// Returns 0, 0 if unable to extract.
func extractLineColumn(errMsg string) (line, column int) {
	var l, c int
	if n, _ := fmt.Sscanf(errMsg, "yaml: line %d: column %d:", &l, &c); n == 2 {
		return l, c
	}
	if n, _ := fmt.Sscanf(errMsg, "yaml: line %d:", &l); n == 1 {
		return l, 1
	}
	return 0, 0
}

// cleanYAMLError removes the "yaml: line X:" prefix from error messages for cleaner output.
func cleanYAMLError(errMsg string) string {
	if idx := strings.LastIndex(errMsg, ": "); idx > 0 {
		if strings.HasPrefix(errMsg, "yaml:") {
			return errMsg[idx+2:]
		}
	}
	return errMsg
}
