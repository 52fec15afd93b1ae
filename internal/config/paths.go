package config

import (
	"os"
	"path/filepath"
)

// UserConfigDir returns the XDG-compliant user config directory:
// $XDG_CONFIG_HOME/waveorc, falling back to ~/.config/waveorc.
func UserConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "waveorc"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "waveorc"), nil
}

// UserConfigPath returns the XDG-compliant user config path:
// $XDG_CONFIG_HOME/waveorc/config.yml, falling back to
// ~/.config/waveorc/config.yml.
func UserConfigPath() (string, error) {
	dir, err := UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yml"), nil
}

// ProjectConfigDir is the project-local config directory, .waveorc
// under the current working directory.
func ProjectConfigDir() string {
	return ".waveorc"
}

// ProjectConfigPath returns the project-local config path,
// .waveorc/config.yml under the current working directory.
func ProjectConfigPath() string {
	return filepath.Join(ProjectConfigDir(), "config.yml")
}
