package cmd

import (
	"github.com/spf13/cobra"

	"sandboxctl/internal/constants"
	"sandboxctl/internal/output"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the CLI version",
	Run: func(_ *cobra.Command, _ []string) {
		output.Println(constants.GetVersion())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
