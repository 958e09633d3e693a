package domain

// MappingEntry is one package-id association from the mapping file.
// An empty ProjectPath is a negative entry: the id was seen but no
// project is known for it.
type MappingEntry struct {
	PackageID   string
	ProjectPath string
}

// Resolved reports whether the entry points at a project
func (e MappingEntry) Resolved() bool {
	return e.ProjectPath != ""
}

// ResolutionSource names the strategy that produced a project path
type ResolutionSource int

const (
	SourceNone ResolutionSource = iota
	SourceMapping
	SourceNegativeCache
	SourceIndex
	SourceFileSystem
	SourceAbsolute
	SourceProjectRelative
	SourceRootRelative
	SourceWorkspace
)

// String returns the string representation of a ResolutionSource
func (s ResolutionSource) String() string {
	switch s {
	case SourceMapping:
		return "mapping"
	case SourceNegativeCache:
		return "negative-cache"
	case SourceIndex:
		return "index"
	case SourceFileSystem:
		return "filesystem"
	case SourceAbsolute:
		return "absolute"
	case SourceProjectRelative:
		return "project-relative"
	case SourceRootRelative:
		return "root-relative"
	case SourceWorkspace:
		return "workspace"
	default:
		return "none"
	}
}

// ParseResolutionSource is the inverse of ResolutionSource.String
func ParseResolutionSource(s string) ResolutionSource {
	for src := SourceMapping; src <= SourceWorkspace; src++ {
		if src.String() == s {
			return src
		}
	}
	return SourceNone
}

// Resolution is the outcome of resolving a package id or include string
type Resolution struct {
	Path   string
	Source ResolutionSource
	Found  bool
}
