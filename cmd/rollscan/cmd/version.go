package cmd

import (
	"fmt"

	"github.com/electora/rollscan/internal/version"
	"github.com/spf13/cobra"
)

// versionCmd prints build information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		ver, commit, date := version.Info()
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "rollscan version %s\n", ver)
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Commit: %s\n", commit)
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Built: %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
