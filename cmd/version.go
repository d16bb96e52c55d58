package cmd

import (
	"github.com/spf13/cobra"

	"github.com/praetorian-inc/rolecall/internal/message"
	"github.com/praetorian-inc/rolecall/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of Rolecall",
	Run: func(cmd *cobra.Command, args []string) {
		message.Info("%s", version.FullVersion())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
