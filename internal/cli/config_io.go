package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/google/renameio"
	"github.com/spf13/cobra"

	clierrors "github.com/qbs-tools/qbs/internal/errors"
)

var configExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write all settings to a YAML file (- for stdout)",
	Example: `  qbs config export settings.yml
  qbs config export - | less`,
	Args: exactArgs(1, "qbs config export <file>"),
	RunE: runConfigExport,
}

var configImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Set every key of a YAML file written by export (- for stdin)",
	Long: `Set every key of a YAML file written by 'qbs config export'.

Keys already in the store but missing from the file are kept. All keys are
checked before anything is written.`,
	Args: exactArgs(1, "qbs config import <file>"),
	RunE: runConfigImport,
}

func init() {
	configCmd.AddCommand(configExportCmd, configImportCmd)
}

func runConfigExport(cmd *cobra.Command, args []string) (err error) {
	path := args[0]

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(store, &err)

	if path == "-" {
		return store.Export(cmd.OutOrStdout())
	}

	var buf bytes.Buffer
	if err := store.Export(&buf); err != nil {
		return err
	}
	if err := renameio.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return clierrors.FileNotWritable(path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d settings to %s\n", len(store.AllKeys()), path)
	return nil
}

func runConfigImport(cmd *cobra.Command, args []string) (err error) {
	path := args[0]

	var in io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return clierrors.ImportFileError(path, err)
		}
		defer f.Close()
		in = f
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(store, &err)

	if ierr := store.Import(in); ierr != nil {
		if cliErr := clierrors.FromSettingsError(ierr); cliErr.Category != clierrors.Runtime {
			return cliErr
		}
		return clierrors.ImportFileError(path, ierr)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported settings from %s\n", path)
	return nil
}
