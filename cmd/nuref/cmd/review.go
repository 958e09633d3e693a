package cmd

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"nuref/internal/adapters/editor"
	"nuref/internal/adapters/tui"
	"nuref/internal/application"
)

var editorCommand string

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Curate the mapping file interactively",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return fmt.Errorf("review requires a TTY; use \"nuref map\" instead")
		}

		w := GetWorkspace()
		if err := w.LoadMappings(); err != nil {
			return err
		}

		resolve := func(input string) (string, error) {
			abs, err := w.Paths.ToAbsolute(w.Root, input)
			if err != nil {
				return "", err
			}
			if err := application.ValidateProjectFile("projectPath", abs, w.Config.Index.Extensions); err != nil {
				return "", err
			}
			return abs, nil
		}

		app := tui.NewApp(w.Mappings, w.Root, resolve, editor.NewOpener(editorCommand))
		if _, err := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run(); err != nil {
			return err
		}
		if app.Dirty() {
			fmt.Fprintln(os.Stderr, "Unsaved changes were discarded.")
		}
		return nil
	},
}

func init() {
	reviewCmd.Flags().StringVar(&editorCommand, "editor", "", "editor command for opening projects (default $VISUAL, then $EDITOR)")
	rootCmd.AddCommand(reviewCmd)
}
