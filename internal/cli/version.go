package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qbs-tools/qbs/internal/build"
)

var versionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"v"},
	Short:   "Display version information",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), build.Info())
	},
}

func init() {
	versionCmd.GroupID = GroupSetup
	rootCmd.AddCommand(versionCmd)
}
