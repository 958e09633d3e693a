package domain

import (
	"path/filepath"
	"strings"
)

// ItemKind is the MSBuild item type of a dependency entry
type ItemKind string

const (
	PackageReference ItemKind = "PackageReference"
	ProjectReference ItemKind = "ProjectReference"
)

// DefaultProjectExtensions are the project file types indexed when no
// configuration overrides them
var DefaultProjectExtensions = []string{".csproj", ".fsproj", ".vbproj"}

// ProjectRecord is a project known by its short name and file location.
// Names are not unique across a tree.
type ProjectRecord struct {
	Name string // File stem, e.g. "Core" for Core.csproj
	Path string // Absolute path to the project file
}

// NewProjectRecord builds a record from a project file path
func NewProjectRecord(path string) ProjectRecord {
	return ProjectRecord{Name: ProjectName(path), Path: path}
}

// ProjectItem is a dependency item inside a project file
type ProjectItem struct {
	ID      int // Handle-local identity, assigned by the project model
	Kind    ItemKind
	Include string
	Version string // Only set for package references that carry one
}

// ProjectName returns the stem of a project file path.
// Both separator styles are accepted so MSBuild includes work on any OS.
func ProjectName(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	base := path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		base = path[i+1:]
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// NameKey returns the case-insensitive lookup key for a project name
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// IsProjectFile reports whether name has one of the given extensions
func IsProjectFile(name string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return false
	}
	for _, e := range extensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}
