package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/qbs-tools/qbs/internal/config"
	clierrors "github.com/qbs-tools/qbs/internal/errors"
	"github.com/qbs-tools/qbs/internal/kvstore"
)

var configConvertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Copy the settings file into another format",
	Long: `Copy the current settings file into a file of another format in the
same directory. An existing target file is never overwritten.

Afterwards, set 'format' in .qbs/config.yml (or QBS_FORMAT) so qbs reads
the new file.`,
	Example: `  # Preview the conversion
  qbs config convert --to yaml --dry-run

  # Convert and move the old file to qbs.conf.bak
  qbs config convert --to yaml --backup`,
	Args: cobra.NoArgs,
	RunE: runConfigConvert,
}

func init() {
	configConvertCmd.Flags().String("to", "", "Target format: ini, yaml, json (required)")
	configConvertCmd.Flags().Bool("dry-run", false, "Show what would be converted without writing")
	configConvertCmd.Flags().Bool("backup", false, "Rename the source file to .bak after converting")
	_ = configConvertCmd.MarkFlagRequired("to")
	configCmd.AddCommand(configConvertCmd)
}

func runConfigConvert(cmd *cobra.Command, args []string) error {
	if ephemeral, _ := cmd.Flags().GetBool("ephemeral"); ephemeral {
		return clierrors.InvalidFlagCombination("convert --ephemeral", "Conversion works on settings files only")
	}
	toName, _ := cmd.Flags().GetString("to")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	backup, _ := cmd.Flags().GetBool("backup")

	to, err := kvstore.ParseFormat(toName)
	if err != nil {
		return clierrors.Wrap(err, clierrors.Argument)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	result, err := config.MigrateFormat(cfg, to, dryRun)
	if err != nil {
		return clierrors.WrapWithMessage(err, clierrors.Storage, "converting settings")
	}

	out := cmd.OutOrStdout()
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	if !result.Success {
		fmt.Fprintf(out, "%s %s\n", yellow("⚠"), result.Message)
		return nil
	}
	fmt.Fprintf(out, "%s %s\n", green("✓"), result.Message)

	if backup {
		if err := config.BackupSettingsFile(result.SourcePath, dryRun); err != nil {
			return clierrors.Wrap(err, clierrors.Runtime)
		}
		if !dryRun {
			fmt.Fprintf(out, "%s Moved %s to %s.bak\n", green("✓"), result.SourcePath, result.SourcePath)
		}
	}
	return nil
}
