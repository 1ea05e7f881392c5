package config

// GetDefaultConfigTemplate returns a fully commented config template
// that helps users understand all available options
func GetDefaultConfigTemplate() string {
	return `# qbs settings tool configuration
# See 'qbs config -h' for commands

# Settings store location and encoding
settings_dir: ""                      # Empty = platform user config dir (~/.config on Linux)
format: ini                           # ini (QSettings .conf) | yaml | json

# Store identity
organization: QtProject
application: qbs

# Legacy store, imported once into an empty store
legacy_organization: Nokia
legacy_format: ini                    # Older releases always wrote .conf files
skip_migration: false

# System-wide settings directories (empty = $XDG_CONFIG_DIRS or /etc/xdg)
system_dirs: []

log_level: warning                    # trace | debug | info | warning | error | critical
`
}

// GetDefaults returns the default configuration values
func GetDefaults() map[string]interface{} {
	return map[string]interface{}{
		"settings_dir": "",
		// format: QSettings writes INI files on Linux and macOS user scopes;
		// keeping that layout lets older tools read the same file.
		"format":              "ini",
		"organization":        "QtProject",
		"application":         "qbs",
		"legacy_organization": "Nokia",
		"legacy_format":       "ini",
		"skip_migration":      false,
		"system_dirs":         []string{},
		"log_level":           "warning",
	}
}
