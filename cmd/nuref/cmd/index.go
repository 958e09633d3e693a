package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"nuref/internal/application/commands"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Scan the workspace for project files",
	Long: `Scan the workspace for project files and store the result in the
catalog, so "nuref find" answers without walking the tree.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := commands.NewIndexCommand(GetWorkspace()).Execute(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Println(result.Message)
		if !result.Persisted {
			fmt.Println("Catalog disabled; the snapshot was not stored.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
