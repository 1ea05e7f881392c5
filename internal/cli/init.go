package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/google/renameio"
	"github.com/spf13/cobra"

	"github.com/qbs-tools/qbs/internal/config"
	clierrors "github.com/qbs-tools/qbs/internal/errors"
)

var (
	cGreen = color.New(color.FgGreen).SprintFunc()
	cDim   = color.New(color.Faint).SprintFunc()
	cBold  = color.New(color.Bold).SprintFunc()
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Create a commented .qbs/config.yml",
	Long: `Create a project configuration file listing every option with its default.

If the file already exists, it is left unchanged (use --force to overwrite).

Path argument:
  If provided, the file is created under that directory instead of the
  current one. Relative paths and ~ are resolved; missing directories are
  created.`,
	Example: `  qbs init
  qbs init ~/projects/app
  qbs init --force`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.GroupID = GroupSetup
	initCmd.Flags().BoolP("force", "f", false, "Overwrite an existing config with defaults")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")

	rawPath := ""
	if len(args) > 0 {
		rawPath = args[0]
	}
	targetDir, err := ResolvePath(rawPath)
	if err != nil {
		return clierrors.Wrap(err, clierrors.Argument)
	}
	if err := EnsureDirectory(targetDir); err != nil {
		return clierrors.Wrap(err, clierrors.Runtime)
	}

	configPath := filepath.Join(targetDir, config.ProjectConfigPath())
	_, err = initializeConfig(cmd.OutOrStdout(), configPath, force)
	return err
}

// initializeConfig writes the default template to configPath. It reports
// whether a file was written.
func initializeConfig(out io.Writer, configPath string, force bool) (bool, error) {
	_, statErr := os.Stat(configPath)
	configExists := statErr == nil

	if configExists && !force {
		fmt.Fprintf(out, "%s %s: exists at %s\n", cGreen("✓"), cBold("Config"), cDim(configPath))
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return false, clierrors.FileNotWritable(configPath, err)
	}
	if err := renameio.WriteFile(configPath, []byte(config.GetDefaultConfigTemplate()), 0o644); err != nil {
		return false, clierrors.FileNotWritable(configPath, err)
	}

	if configExists {
		fmt.Fprintf(out, "%s %s: overwritten at %s\n", cGreen("✓"), cBold("Config"), cDim(configPath))
	} else {
		fmt.Fprintf(out, "%s %s: created at %s\n", cGreen("✓"), cBold("Config"), cDim(configPath))
	}
	return true, nil
}
