package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"nuref/internal/application/commands"
	"nuref/internal/domain"
)

var (
	dryRun          bool
	retryUnresolved bool
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Replace package references with project references",
	Long: `Convert every project of the workspace. Package references whose id
names a project in the tree become project references; the referenced
projects are converted in turn and added to the solution.

Examples:
  nuref convert
  nuref convert --dry-run
  nuref convert --retry-unresolved`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := GetWorkspace()
		retry := w.Config.Convert.RetryUnresolved
		if cmd.Flags().Changed("retry-unresolved") {
			retry = retryUnresolved
		}

		result, err := commands.NewConvertCommand(w, dryRun, retry).Execute(cmd.Context())
		if result != nil && result.Report != nil {
			printReport(result.Report)
		}
		if err != nil {
			return err
		}

		fmt.Println(result.Message)
		return nil
	},
}

func printReport(r *domain.RunReport) {
	for _, change := range r.Changes {
		if r.DryRun {
			fmt.Print(change.Diff)
			continue
		}
		fmt.Println(change.Path)
		for _, conv := range change.Conversions {
			fmt.Printf("  %s -> %s  (%s)\n", conv.PackageID, conv.Include, conv.Source)
		}
	}
	if len(r.Unresolved) > 0 {
		fmt.Printf("Unresolved: %s\n", strings.Join(r.Unresolved, ", "))
	}
}

func init() {
	convertCmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "print diffs instead of writing files")
	convertCmd.Flags().BoolVar(&retryUnresolved, "retry-unresolved", false, "search again for ids recorded as unresolved")
	rootCmd.AddCommand(convertCmd)
}
