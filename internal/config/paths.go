package config

import (
	"path/filepath"
)

// ProjectConfigPath returns the path to the project-level config file.
// This is always .qbs/config.yml relative to the current directory.
func ProjectConfigPath() string {
	return filepath.Join(ProjectConfigDir(), "config.yml")
}

// ProjectConfigDir returns the path to the project-level config directory.
func ProjectConfigDir() string {
	return ".qbs"
}
