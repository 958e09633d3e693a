package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"nuref/internal/application"
	"nuref/internal/application/commands"
)

var findCmd = &cobra.Command{
	Use:   "find <project-name>",
	Short: "Find a project file by name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := commands.NewFindCommand(GetWorkspace(), args[0]).Execute(cmd.Context())
		if err != nil {
			return err
		}
		if !result.Found {
			return fmt.Errorf("%w: project %s", application.ErrNotFound, args[0])
		}

		fmt.Printf("%s\t%s\n", result.Path, result.Source)
		return nil
	},
}

var resolveFrom string

var resolveCmd = &cobra.Command{
	Use:   "resolve <package-id>",
	Short: "Show which project would replace a package",
	Long: `Run the resolution chain for a package id without changing anything:
the mapping file, then the project index, then a filesystem search.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := commands.NewResolveCommand(GetWorkspace(), args[0], resolveFrom).Execute(cmd.Context())
		if err != nil {
			return err
		}
		if !result.Found {
			fmt.Printf("%s\tunresolved\t%s\n", result.PackageID, result.Source)
			return nil
		}

		fmt.Printf("%s\t%s\t%s\n", result.PackageID, result.Path, result.Source)
		return nil
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveFrom, "from", "", "directory of the consuming project (default: the root)")
	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(resolveCmd)
}
