package ports

import (
	"context"

	"nuref/internal/domain"
)

// PathResolver converts between absolute and base-relative paths
type PathResolver interface {
	ToAbsolute(base, relative string) (string, error)
	ToRelative(base, target string) (string, error)
}

// ProjectFinder answers name lookups against a built project index
type ProjectFinder interface {
	FindProject(name string) (string, bool)
}

// ProjectIndex is a name to path lookup built by scanning a directory tree
type ProjectIndex interface {
	ProjectFinder
	BuildIndex(ctx context.Context, root string) error
	IsBuilt() bool
	ClearIndex()
	GetStats() domain.IndexStats
	Projects() []domain.ProjectRecord
}

// ProjectLocator is the fallback search for projects the index missed
type ProjectLocator interface {
	// Locate searches the current project directory, the workspace root and
	// a bounded number of its ancestors for a project named name
	Locate(ctx context.Context, name, currentDir string) (string, bool)
	Stats() domain.LocatorStats
}

// MappingStore persists package id to project path associations.
// An empty path records a known miss.
type MappingStore interface {
	LoadOrCreate() error
	Load() error
	Save() error
	Get(packageID string) (string, bool)
	Put(packageID, projectPath string)
	Delete(packageID string) bool
	Entries() []domain.MappingEntry
	Path() string
}
