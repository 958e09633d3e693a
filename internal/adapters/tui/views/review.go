package views

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"nuref/internal/adapters/tui/styles"
	"nuref/internal/domain"
	"nuref/internal/ports"
)

// ReviewKeyMap defines key bindings for the mapping review view
type ReviewKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Filter key.Binding
	Edit   key.Binding
	Clear  key.Binding
	Unset  key.Binding
	Copy   key.Binding
	Open   key.Binding
	Save   key.Binding
	Help   key.Binding
	Quit   key.Binding
	Submit key.Binding
	Cancel key.Binding
}

var ReviewKeys = ReviewKeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Filter: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "unresolved only"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e", "enter"),
		key.WithHelp("e", "edit path"),
	),
	Clear: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "mark unresolved"),
	),
	Unset: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "forget"),
	),
	Copy: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "copy path"),
	),
	Open: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "open project"),
	),
	Save: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "save"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "apply"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
}

// PathResolver turns user input into an absolute project path, or explains
// why it cannot be used
type PathResolver func(input string) (string, error)

type savedMsg struct{ err error }

// OpenEditorMsg asks the app to open a project file in the editor
type OpenEditorMsg struct {
	Path string
}

// ReviewModel lists the mapping file and edits it in memory until saved
type ReviewModel struct {
	ViewState
	store   ports.MappingStore
	resolve PathResolver
	copy    func(string) error
	root    string

	entries        []domain.MappingEntry
	cursor         int
	offset         int
	unresolvedOnly bool
	dirty          bool
	confirmQuit    bool

	editing bool
	input   textinput.Model
}

// NewReviewModel creates a review over store. Paths are shown relative to
// root when possible.
func NewReviewModel(store ports.MappingStore, root string, resolve PathResolver) *ReviewModel {
	input := textinput.New()
	input.Placeholder = "path/to/Project.csproj"
	input.CharLimit = 512

	m := &ReviewModel{
		store:   store,
		resolve: resolve,
		copy:    clipboard.WriteAll,
		root:    root,
		input:   input,
	}
	m.reload()
	return m
}

func (m *ReviewModel) Init() tea.Cmd {
	return nil
}

// Dirty reports whether edits are waiting to be saved
func (m *ReviewModel) Dirty() bool { return m.dirty }

// Entries returns the rows currently listed
func (m *ReviewModel) Entries() []domain.MappingEntry { return m.entries }

// Selected returns the entry under the cursor
func (m *ReviewModel) Selected() (domain.MappingEntry, bool) {
	if m.cursor < 0 || m.cursor >= len(m.entries) {
		return domain.MappingEntry{}, false
	}
	return m.entries[m.cursor], true
}

func (m *ReviewModel) reload() {
	all := m.store.Entries()
	m.entries = make([]domain.MappingEntry, 0, len(all))
	for _, e := range all {
		if m.unresolvedOnly && e.Resolved() {
			continue
		}
		m.entries = append(m.entries, e)
	}
	if m.cursor >= len(m.entries) {
		m.cursor = len(m.entries) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.scroll()
}

// pageSize is the number of rows that fit between the header and footer
func (m *ReviewModel) pageSize() int {
	if m.Height <= 0 {
		return 20
	}
	return max(m.Height-10, 3)
}

func (m *ReviewModel) scroll() {
	size := m.pageSize()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+size {
		m.offset = m.cursor - size + 1
	}
}

// Update handles messages for the review view
func (m *ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		m.scroll()
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.SetMessage(fmt.Sprintf("Save failed: %v", msg.err), true)
			return m, nil
		}
		m.dirty = false
		m.SetMessage("Saved "+m.store.Path(), false)
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		return m.updateBrowsing(msg)
	}

	return m, nil
}

func (m *ReviewModel) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !key.Matches(msg, ReviewKeys.Quit) {
		m.confirmQuit = false
	}

	switch {
	case key.Matches(msg, ReviewKeys.Quit):
		if m.dirty && !m.confirmQuit && msg.String() != "ctrl+c" {
			m.confirmQuit = true
			m.SetMessage("Unsaved changes: s to save, q again to discard", true)
			return m, nil
		}
		return m, tea.Quit

	case key.Matches(msg, ReviewKeys.Up):
		if m.cursor > 0 {
			m.cursor--
			m.scroll()
		}

	case key.Matches(msg, ReviewKeys.Down):
		if m.cursor < len(m.entries)-1 {
			m.cursor++
			m.scroll()
		}

	case key.Matches(msg, ReviewKeys.Filter):
		m.unresolvedOnly = !m.unresolvedOnly
		m.cursor, m.offset = 0, 0
		m.reload()

	case key.Matches(msg, ReviewKeys.Edit):
		e, ok := m.Selected()
		if !ok {
			return m, nil
		}
		m.editing = true
		m.input.SetValue(m.display(e.ProjectPath))
		m.input.CursorEnd()
		m.ClearMessage()
		return m, m.input.Focus()

	case key.Matches(msg, ReviewKeys.Clear):
		if e, ok := m.Selected(); ok {
			m.store.Put(e.PackageID, "")
			m.changed(fmt.Sprintf("%s marked unresolved", e.PackageID))
		}

	case key.Matches(msg, ReviewKeys.Unset):
		if e, ok := m.Selected(); ok {
			m.store.Delete(e.PackageID)
			m.changed(fmt.Sprintf("%s forgotten", e.PackageID))
		}

	case key.Matches(msg, ReviewKeys.Copy):
		e, ok := m.Selected()
		if !ok || !e.Resolved() {
			m.SetMessage("Nothing to copy", true)
			return m, nil
		}
		if err := m.copy(e.ProjectPath); err != nil {
			m.SetMessage(fmt.Sprintf("Copy failed: %v", err), true)
			return m, nil
		}
		m.SetMessage("Copied "+e.ProjectPath, false)

	case key.Matches(msg, ReviewKeys.Open):
		e, ok := m.Selected()
		if !ok || !e.Resolved() {
			m.SetMessage("No project to open", true)
			return m, nil
		}
		return m, func() tea.Msg { return OpenEditorMsg{Path: e.ProjectPath} }

	case key.Matches(msg, ReviewKeys.Save):
		return m, m.save

	case key.Matches(msg, ReviewKeys.Help):
		return m, func() tea.Msg { return SwitchToHelpMsg{} }
	}

	return m, nil
}

func (m *ReviewModel) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, ReviewKeys.Cancel):
		m.stopEditing()
		return m, nil

	case key.Matches(msg, ReviewKeys.Submit):
		e, ok := m.Selected()
		if !ok {
			m.stopEditing()
			return m, nil
		}
		value := strings.TrimSpace(m.input.Value())
		if value == "" {
			m.store.Put(e.PackageID, "")
			m.stopEditing()
			m.changed(fmt.Sprintf("%s marked unresolved", e.PackageID))
			return m, nil
		}
		abs, err := m.resolve(value)
		if err != nil {
			m.SetMessage(err.Error(), true)
			return m, nil
		}
		m.store.Put(e.PackageID, abs)
		m.stopEditing()
		m.changed(fmt.Sprintf("%s mapped to %s", e.PackageID, m.display(abs)))
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *ReviewModel) stopEditing() {
	m.editing = false
	m.input.Blur()
	m.input.SetValue("")
}

func (m *ReviewModel) changed(message string) {
	m.dirty = true
	m.reload()
	m.SetMessage(message, false)
}

func (m *ReviewModel) save() tea.Msg {
	return savedMsg{err: m.store.Save()}
}

func (m *ReviewModel) display(path string) string {
	if path == "" || m.root == "" {
		return path
	}
	if rel, ok := strings.CutPrefix(path, m.root); ok {
		return strings.TrimLeft(rel, `/\`)
	}
	return path
}

// View renders the review view
func (m *ReviewModel) View() string {
	var b strings.Builder

	title := "Package mappings"
	if m.dirty {
		title += " " + styles.Modified.String()
	}
	b.WriteString(styles.Title.Render(title))
	b.WriteString("\n")

	resolved := 0
	for _, e := range m.store.Entries() {
		if e.Resolved() {
			resolved++
		}
	}
	subtitle := fmt.Sprintf("%s  %d mapped, %d unresolved", m.store.Path(), resolved, len(m.store.Entries())-resolved)
	if m.unresolvedOnly {
		subtitle += "  (unresolved only)"
	}
	b.WriteString(styles.Subtitle.Render(subtitle))
	b.WriteString("\n\n")

	if len(m.entries) == 0 {
		b.WriteString(styles.MutedText.Render("No mappings."))
		b.WriteString("\n")
	}

	end := min(m.offset+m.pageSize(), len(m.entries))
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderRow(i))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.editing {
		b.WriteString(styles.InputLabel.Render("Project path"))
		b.WriteString("\n")
		b.WriteString(styles.InputFocused.Render(m.input.View()))
		b.WriteString("\n")
		b.WriteString(renderHelpLine(ReviewKeys.Submit, ReviewKeys.Cancel))
	} else {
		b.WriteString(renderHelpLine(ReviewKeys.Edit, ReviewKeys.Clear, ReviewKeys.Unset, ReviewKeys.Filter, ReviewKeys.Save, ReviewKeys.Help, ReviewKeys.Quit))
	}

	if msg := m.renderMessage(); msg != "" {
		b.WriteString("\n\n")
		b.WriteString(msg)
	}

	return styles.App.Render(b.String())
}

func (m *ReviewModel) renderRow(i int) string {
	e := m.entries[i]
	target := styles.Unresolved.Render("unresolved")
	if e.Resolved() {
		target = styles.ProjectPath.Render(m.display(e.ProjectPath))
	}

	if i == m.cursor {
		plain := e.PackageID + "  " + "unresolved"
		if e.Resolved() {
			plain = e.PackageID + "  " + m.display(e.ProjectPath)
		}
		return styles.RowSelected.Render("> " + plain)
	}
	return "  " + styles.PackageID.Render(e.PackageID) + "  " + target
}
