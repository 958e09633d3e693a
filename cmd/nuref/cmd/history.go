package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"nuref/internal/application/commands"
)

var (
	historyLimit int
	historyRun   string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past conversion runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := commands.NewHistoryCommand(GetWorkspace(), historyLimit, historyRun).Execute()
		if err != nil {
			return err
		}

		for _, r := range result.Runs {
			mode := ""
			if r.DryRun {
				mode = "\tdry-run"
			}
			fmt.Printf("%s\t%s\t%s\tprojects=%d converted=%d unresolved=%d%s\n",
				r.StartedAt.Format(time.DateTime), r.RunID, r.Duration.Round(time.Millisecond),
				r.ProjectsProcessed, r.PackagesConverted, r.PackagesUnresolved, mode)
		}
		for _, change := range result.Changes {
			fmt.Println(change.Path)
			for _, conv := range change.Conversions {
				fmt.Printf("  %s -> %s  (%s)\n", conv.PackageID, conv.ProjectPath, conv.Source)
			}
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 0, "number of runs to list (default 20)")
	historyCmd.Flags().StringVar(&historyRun, "run", "", "show the conversions of one run")
	rootCmd.AddCommand(historyCmd)
}
