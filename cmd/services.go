package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/rolecall/internal/registry"
	"github.com/praetorian-inc/rolecall/pkg/types"
)

var servicesCmd = &cobra.Command{
	Use:   "services",
	Short: "List the service passes this build can audit",
	Run: func(cmd *cobra.Command, args []string) {
		table := types.MarkdownTable{
			Headers: []string{"Service", "Collection", "Description"},
		}
		for _, entry := range registry.ListPasses() {
			table.Rows = append(table.Rows, []string{
				string(entry.Service), entry.Category, entry.Description,
			})
		}
		fmt.Print(table.ToString())
	},
}

func init() {
	rootCmd.AddCommand(servicesCmd)
}
