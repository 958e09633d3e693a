package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"nuref/internal/adapters/tui/views"
	"nuref/internal/ports"
)

// ViewState represents the current view
type ViewState int

const (
	ViewReview ViewState = iota
	ViewHelp
)

// App is the main TUI application model
type App struct {
	editor ports.EditorOpener

	state  ViewState
	review *views.ReviewModel
	help   *views.HelpModel

	width  int
	height int
}

// NewApp creates the mapping review application. resolve validates paths
// typed by the user; ed may be nil.
func NewApp(store ports.MappingStore, root string, resolve views.PathResolver, ed ports.EditorOpener) *App {
	return &App{
		editor: ed,
		state:  ViewReview,
		review: views.NewReviewModel(store, root, resolve),
		help:   views.NewHelpModel(),
	}
}

// Init initializes the application
func (a *App) Init() tea.Cmd {
	return a.review.Init()
}

// Update handles messages for the application
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.review.SetSize(msg.Width, msg.Height)
		a.help.SetSize(msg.Width, msg.Height)
		return a, nil

	case views.SwitchToHelpMsg:
		a.state = ViewHelp
		return a, nil

	case views.SwitchToReviewMsg:
		a.state = ViewReview
		return a, nil

	case views.OpenEditorMsg:
		return a, a.openEditor(msg.Path)

	case editorFinishedMsg:
		if msg.err != nil {
			a.review.SetMessage("Editor: "+msg.err.Error(), true)
		}
		return a, nil
	}

	var cmd tea.Cmd
	if _, ok := msg.(tea.KeyMsg); !ok {
		_, cmd = a.review.Update(msg)
		return a, cmd
	}
	switch a.state {
	case ViewReview:
		_, cmd = a.review.Update(msg)
	case ViewHelp:
		_, cmd = a.help.Update(msg)
	}

	return a, cmd
}

type editorFinishedMsg struct{ err error }

func (a *App) openEditor(path string) tea.Cmd {
	if a.editor == nil {
		return nil
	}

	cmd, err := a.editor.Command(path)
	if err != nil {
		return func() tea.Msg {
			return editorFinishedMsg{err: err}
		}
	}

	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return editorFinishedMsg{err: err}
	})
}

// Dirty reports whether the user quit with unsaved edits
func (a *App) Dirty() bool {
	return a.review.Dirty()
}

// View renders the current view
func (a *App) View() string {
	if a.state == ViewHelp {
		return a.help.View()
	}
	return a.review.View()
}
