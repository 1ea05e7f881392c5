package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/knadh/koanf/parsers/json"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	clierrors "github.com/qbs-tools/qbs/internal/errors"
	"github.com/qbs-tools/qbs/internal/settings"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read and edit qbs settings",
	Long: `Read and edit the qbs settings store.

The store location is resolved with the following priority (highest to lowest):
  1. Command-line flags (--settings-dir, --format)
  2. Environment variables (QBS_*)
  3. Project config (.qbs/config.yml)
  4. Built-in defaults (platform user config directory, INI format)`,
	Example: `  # Show all settings
  qbs config list

  # Set a toolchain path
  qbs config set profiles.gcc.cpp.toolchainInstallPath /usr/bin

  # Remove a profile with everything under it
  qbs config unset profiles.gcc`,
}

var configListCmd = &cobra.Command{
	Use:   "list [group...]",
	Short: "List settings, optionally restricted to groups",
	Example: `  qbs config list
  qbs config list profiles.gcc --json`,
	RunE: runConfigList,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the value of a setting",
	Args:  exactArgs(1, "qbs config get <key>"),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a setting",
	Long: `Set a setting. The value is parsed as YAML, so numbers, booleans and
lists ([a, b]) keep their type in formats that can express it.`,
	Example: `  qbs config set profile gcc
  qbs config set profiles.gcc.qbs.architectures "[x86_64, arm64]"`,
	Args: exactArgs(2, "qbs config set <key> <value>"),
	RunE: runConfigSet,
}

var configUnsetCmd = &cobra.Command{
	Use:     "unset <key>",
	Aliases: []string{"rm"},
	Short:   "Remove a setting and everything nested under it",
	Args:    exactArgs(1, "qbs config unset <key>"),
	RunE:    runConfigUnset,
}

var configProfileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Print the default profile",
	Args:  cobra.NoArgs,
	RunE:  runConfigProfile,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the location of the settings store",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	configCmd.GroupID = GroupSettings
	rootCmd.AddCommand(configCmd)

	configListCmd.Flags().Bool("json", false, "Output as a JSON object")
	configListCmd.Flags().Bool("yaml", false, "Output as a YAML mapping")

	configCmd.AddCommand(configListCmd, configGetCmd, configSetCmd, configUnsetCmd, configProfileCmd, configPathCmd)
}

// exactArgs is cobra.ExactArgs with a usage hint in the error.
func exactArgs(n int, usage string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return clierrors.NewArgumentErrorWithUsage(
				fmt.Sprintf("accepts %d arg(s), received %d", n, len(args)),
				usage,
			)
		}
		return nil
	}
}

func runConfigList(cmd *cobra.Command, args []string) (err error) {
	asJSON, _ := cmd.Flags().GetBool("json")
	asYAML, _ := cmd.Flags().GetBool("yaml")
	if asJSON && asYAML {
		return clierrors.InvalidFlagCombination("--json --yaml", "Choose one output format")
	}
	for _, group := range args {
		if verr := settings.ValidateKey(group); verr != nil {
			return clierrors.FromSettingsError(verr)
		}
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(store, &err)

	keys := listKeys(store, args)
	out := cmd.OutOrStdout()
	switch {
	case asJSON:
		values := make(map[string]interface{}, len(keys))
		for _, key := range keys {
			values[key] = store.Value(key, nil)
		}
		b, err := json.Parser().Marshal(values)
		if err != nil {
			return fmt.Errorf("encoding settings: %w", err)
		}
		fmt.Fprintln(out, string(b))
	case asYAML:
		if len(keys) == 0 {
			fmt.Fprintln(out, "{}")
			return nil
		}
		return store.ExportKeys(out, keys)
	default:
		printSettings(out, store, keys)
	}
	return nil
}

// listKeys returns the keys under the given groups, or every key.
func listKeys(store *settings.Store, groups []string) []string {
	if len(groups) == 0 {
		return store.AllKeys()
	}
	seen := make(map[string]struct{})
	var keys []string
	for _, group := range groups {
		for _, key := range store.AllKeysWithPrefix(group) {
			if _, dup := seen[key]; !dup {
				seen[key] = struct{}{}
				keys = append(keys, key)
			}
		}
	}
	sort.SliceStable(keys, func(i, j int) bool {
		return settings.InternalKey(keys[i]) < settings.InternalKey(keys[j])
	})
	return keys
}

func printSettings(out io.Writer, store *settings.Store, keys []string) {
	keyFmt := color.New(color.FgCyan).SprintFunc()
	for _, key := range keys {
		fmt.Fprintf(out, "%s: %s\n", keyFmt(key), formatValue(store.Value(key, nil)))
	}
}

// formatValue renders a setting the way it is written to INI files.
func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = formatValue(item)
		}
		return strings.Join(parts, ", ")
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	return fmt.Sprint(v)
}

// parseValue interprets a command-line value as a YAML scalar or list.
// Anything that is not valid YAML, or parses to a mapping, is kept verbatim.
// So are floats: "1.10" is more likely a version than a number.
func parseValue(raw string) any {
	if strings.TrimSpace(raw) == "" {
		return raw
	}
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	switch v.(type) {
	case nil, float64, map[string]any:
		return raw
	}
	return v
}

func runConfigGet(cmd *cobra.Command, args []string) (err error) {
	key := args[0]
	if verr := settings.ValidateKey(key); verr != nil {
		return clierrors.FromSettingsError(verr)
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(store, &err)

	v := store.Value(key, nil)
	if v == nil {
		return clierrors.KeyNotFound(key)
	}
	fmt.Fprintln(cmd.OutOrStdout(), formatValue(v))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) (err error) {
	key, raw := args[0], args[1]
	if verr := settings.ValidateKey(key); verr != nil {
		return clierrors.FromSettingsError(verr)
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(store, &err)

	value := parseValue(raw)
	if serr := store.SetValue(key, value); serr != nil {
		return clierrors.FromSettingsError(serr)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, formatValue(value))
	return nil
}

func runConfigUnset(cmd *cobra.Command, args []string) (err error) {
	key := args[0]
	if verr := settings.ValidateKey(key); verr != nil {
		return clierrors.FromSettingsError(verr)
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(store, &err)

	if rerr := store.Remove(key); rerr != nil {
		return clierrors.FromSettingsError(rerr)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", key)
	return nil
}

func runConfigProfile(cmd *cobra.Command, args []string) (err error) {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(store, &err)

	if profile := store.DefaultProfile(); profile != "" {
		fmt.Fprintln(cmd.OutOrStdout(), profile)
	} else {
		fmt.Fprintln(cmd.ErrOrStderr(), "No default profile set.")
	}
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) (err error) {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(store, &err)

	fmt.Fprintln(cmd.OutOrStdout(), store.FileName())
	return nil
}
