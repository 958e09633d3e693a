package ports

import "nuref/internal/domain"

// ProjectModel loads build-project files for editing
type ProjectModel interface {
	Load(path string) (ProjectHandle, error)
}

// ProjectHandle is an open, editable project file.
// Edits stay in memory until Save is called.
type ProjectHandle interface {
	// Path returns the absolute path of the project file
	Path() string

	// Items lists the dependency items of the given kind in document order
	Items(kind domain.ItemKind) []domain.ProjectItem

	// Remove deletes an item previously returned by Items or Add
	Remove(item domain.ProjectItem) error

	// Add appends a dependency item and returns it
	Add(kind domain.ItemKind, include string) (domain.ProjectItem, error)

	// Modified reports whether there are unsaved edits
	Modified() bool

	Save() error
}

// Differ is implemented by handles that can render their unsaved edits
type Differ interface {
	Diff() (string, error)
}

// ProjectEnumerator lists the projects that make up a workspace
type ProjectEnumerator interface {
	Enumerate() ([]domain.ProjectRecord, error)
}

// FolderOrganizer groups projects pulled in by conversion into a dedicated
// workspace folder
type FolderOrganizer interface {
	// Register adds the project to the folder. It returns false when the
	// project was already registered and fails with domain.ErrFileNotFound
	// when the file does not exist.
	Register(path string) (bool, error)

	// Checkpoint marks the current pending registrations
	Checkpoint() int

	// Rollback discards registrations made since checkpoint
	Rollback(checkpoint int)

	// Save persists pending registrations
	Save() error
}
