package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"nuref/internal/application/commands"
)

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Inspect and edit the package to project mapping",
	Long: `Inspect and edit NuGetToProjectReferenceMap.json.

Examples:
  nuref map list --unresolved
  nuref map set Contoso.Core src/Core/Contoso.Core.csproj
  nuref map clear Contoso.Legacy
  nuref map unset Contoso.Core`,
}

var unresolvedOnly bool

var mapListCmd = &cobra.Command{
	Use:   "list",
	Short: "List mappings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := commands.NewMapListCommand(GetWorkspace(), unresolvedOnly).Execute()
		if err != nil {
			return err
		}

		for _, e := range result.Entries {
			if !e.Resolved() {
				fmt.Printf("%s\t(unresolved)\n", e.PackageID)
				continue
			}
			fmt.Printf("%s\t%s\n", e.PackageID, e.ProjectPath)
		}
		fmt.Printf("%d mapped, %d unresolved\n", result.Resolved, result.Unresolved)
		return nil
	},
}

var mapSetCmd = &cobra.Command{
	Use:   "set <package-id> <project-path>",
	Short: "Map a package id to a project file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := commands.NewMapSetCommand(GetWorkspace(), args[0], args[1]).Execute()
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

var mapUnsetCmd = &cobra.Command{
	Use:   "unset <package-id>",
	Short: "Forget a package id so the next run searches again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := commands.NewMapUnsetCommand(GetWorkspace(), args[0]).Execute()
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

var mapClearCmd = &cobra.Command{
	Use:   "clear <package-id>",
	Short: "Record that a package id has no project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := commands.NewMapClearCommand(GetWorkspace(), args[0]).Execute()
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

func init() {
	mapListCmd.Flags().BoolVarP(&unresolvedOnly, "unresolved", "u", false, "only list unresolved package ids")

	mapCmd.AddCommand(mapListCmd)
	mapCmd.AddCommand(mapSetCmd)
	mapCmd.AddCommand(mapUnsetCmd)
	mapCmd.AddCommand(mapClearCmd)
	rootCmd.AddCommand(mapCmd)
}
