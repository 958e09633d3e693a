package views

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"nuref/internal/adapters/filesystem"
)

func setupReview(t *testing.T) (*ReviewModel, *filesystem.MapFile, string) {
	t.Helper()
	root := t.TempDir()
	for _, rel := range []string{"Libs/Core/Core.csproj", "Libs/Data/Data.csproj"} {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("<Project />"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	store := filesystem.NewMapFile(filepath.Join(root, "map.json"), root, nil)
	store.Put("Core", filepath.Join(root, "Libs", "Core", "Core.csproj"))
	store.Put("Data", "")
	store.Put("Newtonsoft.Json", "")

	resolve := func(input string) (string, error) {
		path := filepath.Join(root, filepath.FromSlash(input))
		if !filesystem.FileExists(path) {
			return "", errors.New("no such project: " + input)
		}
		return path, nil
	}

	m := NewReviewModel(store, root, resolve)
	return m, store, root
}

func press(m *ReviewModel, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "ctrl+u":
			msg = tea.KeyMsg{Type: tea.KeyCtrlU}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		_, cmd = m.Update(msg)
	}
	return cmd
}

func TestReview_FilterUnresolved(t *testing.T) {
	m, _, _ := setupReview(t)

	if got := len(m.Entries()); got != 3 {
		t.Fatalf("expected 3 entries, got %d", got)
	}

	press(m, "u")
	for _, e := range m.Entries() {
		if e.Resolved() {
			t.Errorf("filter kept resolved entry %s", e.PackageID)
		}
	}
	if got := len(m.Entries()); got != 2 {
		t.Errorf("expected 2 unresolved entries, got %d", got)
	}

	press(m, "u")
	if got := len(m.Entries()); got != 3 {
		t.Errorf("expected filter to toggle off, got %d entries", got)
	}
}

func TestReview_EditPath(t *testing.T) {
	m, store, root := setupReview(t)

	press(m, "j") // Data
	press(m, "e", "ctrl+u", "Libs/Data/Data.csproj", "enter")

	path, ok := store.Get("Data")
	if !ok || path != filepath.Join(root, "Libs", "Data", "Data.csproj") {
		t.Errorf("Data mapped to %q", path)
	}
	if !m.Dirty() {
		t.Error("edit should mark the review dirty")
	}
	if m.editing {
		t.Error("editing should end after a valid path")
	}
}

func TestReview_EditRejectsMissingProject(t *testing.T) {
	m, store, _ := setupReview(t)

	press(m, "j", "e", "ctrl+u", "Libs/Gone.csproj", "enter")

	if !m.editing {
		t.Error("invalid path should keep the editor open")
	}
	if !m.MessageErr || !strings.Contains(m.Message, "no such project") {
		t.Errorf("unexpected message %q", m.Message)
	}
	if path, _ := store.Get("Data"); path != "" {
		t.Errorf("Data should stay unresolved, got %q", path)
	}

	press(m, "esc")
	if m.editing {
		t.Error("esc should cancel editing")
	}
}

func TestReview_ClearAndUnset(t *testing.T) {
	m, store, _ := setupReview(t)

	press(m, "c") // Core
	if path, ok := store.Get("Core"); !ok || path != "" {
		t.Errorf("Core should be a negative entry, got %q, %v", path, ok)
	}

	press(m, "d")
	if _, ok := store.Get("Core"); ok {
		t.Error("Core should be forgotten")
	}
	if got := len(m.Entries()); got != 2 {
		t.Errorf("expected 2 entries after unset, got %d", got)
	}
}

func TestReview_Copy(t *testing.T) {
	m, _, root := setupReview(t)
	var copied string
	m.copy = func(s string) error {
		copied = s
		return nil
	}

	press(m, "y")
	if copied != filepath.Join(root, "Libs", "Core", "Core.csproj") {
		t.Errorf("copied %q", copied)
	}

	copied = ""
	press(m, "j", "y")
	if copied != "" || !m.MessageErr {
		t.Error("copying an unresolved entry should fail")
	}
}

func TestReview_SaveAndQuit(t *testing.T) {
	m, store, _ := setupReview(t)

	press(m, "c")
	if cmd := press(m, "q"); cmd != nil {
		t.Error("first quit with unsaved changes should only warn")
	}

	cmd := press(m, "s")
	if cmd == nil {
		t.Fatal("save should return a command")
	}
	m.Update(cmd())
	if m.Dirty() {
		t.Error("save should clear the dirty flag")
	}
	if _, err := os.Stat(store.Path()); err != nil {
		t.Errorf("mapping file not written: %v", err)
	}

	if cmd := press(m, "q"); cmd == nil {
		t.Error("quit after save should return tea.Quit")
	}
}

func TestReview_View(t *testing.T) {
	m, _, _ := setupReview(t)

	view := m.View()
	for _, want := range []string{"Package mappings", "1 mapped, 2 unresolved", "Newtonsoft.Json"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestReview_OpenProject(t *testing.T) {
	m, _, root := setupReview(t)

	cmd := press(m, "o")
	if cmd == nil {
		t.Fatal("open should return a command")
	}
	msg, ok := cmd().(OpenEditorMsg)
	if !ok || msg.Path != filepath.Join(root, "Libs", "Core", "Core.csproj") {
		t.Errorf("unexpected message %#v", msg)
	}

	if cmd := press(m, "j", "o"); cmd != nil {
		t.Error("opening an unresolved entry should not return a command")
	}
}
