// Package config provides the configuration of the qbs settings tool itself:
// where the settings store lives, which identity it uses and how it is
// encoded. Configuration is loaded with koanf, with priority:
// CLI overrides > environment variables (QBS_*) > project config
// (.qbs/config.yml) > defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/qbs-tools/qbs/internal/kvstore"
	"github.com/qbs-tools/qbs/internal/settings"
)

// envPrefix is the prefix of environment overrides, e.g. QBS_SETTINGS_DIR.
const envPrefix = "QBS_"

// Configuration represents the qbs settings tool configuration
type Configuration struct {
	// SettingsDir is the directory holding <organization>/<application> files.
	// Empty means the platform user config directory.
	// Can be set via QBS_SETTINGS_DIR env var.
	SettingsDir string `koanf:"settings_dir"`

	// Format selects the settings file encoding: ini (QSettings .conf), yaml, json.
	Format string `koanf:"format" validate:"oneof=ini yaml json"`

	Organization       string `koanf:"organization" validate:"required"`
	Application        string `koanf:"application" validate:"required"`
	LegacyOrganization string `koanf:"legacy_organization" validate:"required"`
	// LegacyFormat is the encoding of the legacy store; older releases
	// always wrote QSettings .conf files.
	LegacyFormat  string `koanf:"legacy_format" validate:"oneof=ini yaml json"`
	SkipMigration bool   `koanf:"skip_migration"`

	// SystemDirs are searched by tools that open the store with fallbacks.
	SystemDirs []string `koanf:"system_dirs"`

	LogLevel string `koanf:"log_level" validate:"oneof=trace debug info warning error critical"`
}

// LoadOptions configures how configuration is loaded
type LoadOptions struct {
	// ProjectConfigPath overrides the project config path (default: .qbs/config.yml)
	ProjectConfigPath string
	// Overrides are applied last, typically from command-line flags.
	Overrides map[string]interface{}
}

// Load loads configuration from defaults, the project file and the environment.
func Load(projectConfigPath string) (*Configuration, error) {
	return LoadWithOptions(LoadOptions{ProjectConfigPath: projectConfigPath})
}

// LoadWithOptions loads configuration with custom options
func LoadWithOptions(opts LoadOptions) (*Configuration, error) {
	k := koanf.New(".")

	loadDefaults(k)

	if err := loadProjectConfig(k, opts.ProjectConfigPath); err != nil {
		return nil, err
	}

	if err := loadEnvironmentConfig(k); err != nil {
		return nil, err
	}

	for key, value := range opts.Overrides {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("applying override %s: %w", key, err)
		}
	}

	return finalizeConfig(k)
}

// loadDefaults applies default configuration values
func loadDefaults(k *koanf.Koanf) {
	for key, value := range GetDefaults() {
		_ = k.Set(key, value)
	}
}

// loadProjectConfig loads the project-level YAML config if it exists.
func loadProjectConfig(k *koanf.Koanf, customPath string) error {
	path := ProjectConfigPath()
	if customPath != "" {
		path = customPath
	}
	if !fileExists(path) {
		return nil
	}
	if err := ValidateYAMLSyntax(path); err != nil {
		return fmt.Errorf("validating YAML syntax for project config: %w", err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to load project config %s: %w", path, err)
	}
	return nil
}

// loadEnvironmentConfig loads environment variable overrides
func loadEnvironmentConfig(k *koanf.Koanf) error {
	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return fmt.Errorf("failed to load environment config: %w", err)
	}
	return nil
}

// finalizeConfig unmarshals, validates, and applies final transformations
func finalizeConfig(k *koanf.Koanf) (*Configuration, error) {
	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Format = strings.ToLower(cfg.Format)
	cfg.LegacyFormat = strings.ToLower(cfg.LegacyFormat)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := ValidateConfigValues(&cfg, "config"); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg.SettingsDir = expandHomePath(cfg.SettingsDir)
	for i, dir := range cfg.SystemDirs {
		cfg.SystemDirs[i] = expandHomePath(dir)
	}

	return &cfg, nil
}

// fileExists returns true if the file exists and is readable
func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// envTransform converts environment variable names to config keys
// Example: QBS_SETTINGS_DIR -> settings_dir
func envTransform(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, envPrefix))
}

// expandHomePath expands ~ to the user's home directory
func expandHomePath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, path[2:])
		}
	}
	return path
}

// Backend returns the file backend holding the current settings store.
func (c *Configuration) Backend() (*kvstore.FileBackend, error) {
	return c.fileBackend(c.Format)
}

// LegacyBackend returns the file backend holding the legacy settings store.
func (c *Configuration) LegacyBackend() (*kvstore.FileBackend, error) {
	return c.fileBackend(c.LegacyFormat)
}

func (c *Configuration) fileBackend(name string) (*kvstore.FileBackend, error) {
	format, err := kvstore.ParseFormat(name)
	if err != nil {
		return nil, err
	}
	backend := &kvstore.FileBackend{Dir: c.SettingsDir, Format: format}
	if len(c.SystemDirs) > 0 {
		backend.SystemDirs = c.SystemDirs
	}
	return backend, nil
}

// StoreOptions returns the identity used to open the settings store. The
// legacy backend is only set when the legacy store uses a different format.
func (c *Configuration) StoreOptions() (settings.Options, error) {
	opts := settings.Options{
		Organization:       c.Organization,
		Application:        c.Application,
		LegacyOrganization: c.LegacyOrganization,
		SkipMigration:      c.SkipMigration,
	}
	if c.LegacyFormat != c.Format {
		legacy, err := c.LegacyBackend()
		if err != nil {
			return settings.Options{}, err
		}
		opts.LegacyBackend = legacy
	}
	return opts, nil
}
