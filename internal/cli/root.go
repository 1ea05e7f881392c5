// Package cli implements the qbs command tree.
package cli

import (
	"fmt"
	"strings"

	"github.com/juju/loggo/v2"
	"github.com/spf13/cobra"

	"github.com/qbs-tools/qbs/internal/config"
	clierrors "github.com/qbs-tools/qbs/internal/errors"
	"github.com/qbs-tools/qbs/internal/kvstore"
	"github.com/qbs-tools/qbs/internal/settings"
)

var logger = loggo.GetLogger("qbs.cli")

// Command groups shown in help output.
const (
	GroupSettings = "settings"
	GroupSetup    = "setup"
)

var rootCmd = &cobra.Command{
	Use:   "qbs",
	Short: "Inspect and edit qbs settings",
	Long: `qbs keeps its preferences (profiles, toolchain paths, the default
profile) in a per-user settings store. This tool reads and edits that store.

Settings keys are dot-separated, e.g. profiles.gcc.cpp.toolchainInstallPath.
On first use, settings written by older releases under the "Nokia"
organization are imported automatically.`,
	Example: `  # List every setting
  qbs config list

  # Show the profiles group as YAML
  qbs config list profiles --yaml

  # Choose the default profile
  qbs config set profile gcc`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: GroupSettings, Title: "Settings Commands:"},
		&cobra.Group{ID: GroupSetup, Title: "Setup Commands:"},
	)

	rootCmd.PersistentFlags().String("config", "", "Tool configuration file (default: .qbs/config.yml)")
	rootCmd.PersistentFlags().String("settings-dir", "", "Directory holding <organization>/<application> settings files")
	rootCmd.PersistentFlags().String("format", "", "Settings file format: ini, yaml, json")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: trace, debug, info, warning, error, critical")
	rootCmd.PersistentFlags().Bool("ephemeral", false, "Use an in-memory store; nothing is read from or written to disk")
}

// Execute runs the root command. Errors are returned unprinted; see ExitCode.
func Execute() error {
	return rootCmd.Execute()
}

// flagOverrides maps explicitly set global flags to configuration keys.
func flagOverrides(cmd *cobra.Command) map[string]interface{} {
	overrides := make(map[string]interface{})
	for flag, key := range map[string]string{
		"settings-dir": "settings_dir",
		"format":       "format",
		"log-level":    "log_level",
	} {
		if cmd.Flags().Changed(flag) {
			v, _ := cmd.Flags().GetString(flag)
			overrides[key] = v
		}
	}
	return overrides
}

// loadConfig loads the tool configuration and applies its log level.
func loadConfig(cmd *cobra.Command) (*config.Configuration, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadWithOptions(config.LoadOptions{
		ProjectConfigPath: path,
		Overrides:         flagOverrides(cmd),
	})
	if err != nil {
		return nil, clierrors.ConfigLoadError(err)
	}

	if err := loggo.ConfigureLoggers(fmt.Sprintf("<root>=%s", strings.ToUpper(cfg.LogLevel))); err != nil {
		return nil, clierrors.ConfigLoadError(err)
	}
	logger.Debugf("settings: dir=%q format=%s identity=%s/%s", cfg.SettingsDir, cfg.Format, cfg.Organization, cfg.Application)
	return cfg, nil
}

// openStore opens the settings store the global flags select. The caller
// must Close it.
func openStore(cmd *cobra.Command) (*settings.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	opts, err := cfg.StoreOptions()
	if err != nil {
		return nil, clierrors.ConfigLoadError(err)
	}

	var backend kvstore.Backend
	if ephemeral, _ := cmd.Flags().GetBool("ephemeral"); ephemeral {
		backend = kvstore.NewMemoryBackend()
		opts.LegacyBackend = nil
	} else {
		fileBackend, err := cfg.Backend()
		if err != nil {
			return nil, clierrors.ConfigLoadError(err)
		}
		backend = fileBackend
	}

	store, err := settings.New(backend, opts)
	if err != nil {
		return nil, clierrors.FromSettingsError(err)
	}
	return store, nil
}

// closeStore closes store, keeping the first error.
func closeStore(store *settings.Store, err *error) {
	if cerr := store.Close(); cerr != nil && *err == nil {
		*err = clierrors.FromSettingsError(cerr)
	}
}
