// Package solution reads Visual Studio solution files and groups projects
// pulled in by conversion into a solution folder.
package solution

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"

	"nuref/internal/adapters/filesystem"
	"nuref/internal/domain"
)

// Project type GUIDs
const (
	FolderTypeGUID = "{2150E333-8FDC-42A3-9474-1A3956D46DE8}"
	CSharpTypeGUID = "{FAE04EC0-301F-11D3-BF4B-00C04F79EFBC}"
	FSharpTypeGUID = "{F2A71F9B-5D33-465A-A702-920D77279786}"
	VBTypeGUID     = "{F184B08F-C81C-45F6-A57F-5ABD9991F28F}"

	DefaultFolderName = "!ReplacedProjects"
)

var (
	projectRe   = regexp.MustCompile(`(?m)^Project\("(\{[^}]+\})"\)\s*=\s*"([^"]+)",\s*"([^"]+)",\s*"(\{[^}]+\})"`)
	nestedRe    = regexp.MustCompile(`(?m)^\s*(\{[^}]+\})\s*=\s*(\{[^}]+\})\s*$`)
	nestedOpen  = regexp.MustCompile(`(?m)^\s*GlobalSection\(NestedProjects\)[^\n]*\n`)
	sectionEnd  = regexp.MustCompile(`(?m)^\s*EndGlobalSection`)
	globalOpen  = regexp.MustCompile(`(?m)^Global\s*$`)
	globalClose = regexp.MustCompile(`(?m)^EndGlobal\s*$`)
)

// Options configures how a solution is read and organized
type Options struct {
	Extensions []string
	FolderName string
}

type entry struct {
	typeGUID string
	name     string
	path     string // As written in the solution, relative to its directory
	guid     string
}

func (e entry) isFolder() bool {
	return strings.EqualFold(e.typeGUID, FolderTypeGUID)
}

// Solution implements ports.ProjectEnumerator and ports.FolderOrganizer
// over a .sln file
type Solution struct {
	path string
	dir  string
	opts Options
	text string
	eol  string

	entries []entry
	nested  map[string]string // child guid -> parent guid, upper-cased

	added       []entry
	addedNested [][2]string
}

// Open parses the solution at path
func Open(path string, opts Options) (*Solution, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &domain.FileNotFoundError{Path: path}
		}
		return nil, fmt.Errorf("failed to read solution: %w", err)
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = domain.DefaultProjectExtensions
	}
	if opts.FolderName == "" {
		opts.FolderName = DefaultFolderName
	}

	s := &Solution{
		path:   path,
		dir:    filepath.Dir(path),
		opts:   opts,
		text:   string(data),
		eol:    "\n",
		nested: make(map[string]string),
	}
	if strings.Contains(s.text, "\r\n") {
		s.eol = "\r\n"
	}

	for _, m := range projectRe.FindAllStringSubmatch(s.text, -1) {
		s.entries = append(s.entries, entry{typeGUID: m[1], name: m[2], path: m[3], guid: m[4]})
	}
	if loc := nestedOpen.FindStringIndex(s.text); loc != nil {
		section := s.text[loc[1]:]
		if end := sectionEnd.FindStringIndex(section); end != nil {
			section = section[:end[0]]
		}
		for _, m := range nestedRe.FindAllStringSubmatch(section, -1) {
			s.nested[strings.ToUpper(m[1])] = strings.ToUpper(m[2])
		}
	}

	return s, nil
}

// Find returns the solution file in root. An empty result with a nil error
// means root holds no solution.
func Find(root string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(root, "*.sln"))
	if err != nil {
		return "", err
	}
	switch len(matches) {
	case 0:
		return "", nil
	case 1:
		return matches[0], nil
	default:
		sort.Strings(matches)
		return "", fmt.Errorf("%w: %d solution files in %s, set workspace.solution", domain.ErrInvalidArgument, len(matches), root)
	}
}

func (s *Solution) Path() string { return s.path }

// Enumerate lists every project in the solution, solution folders flattened
func (s *Solution) Enumerate() ([]domain.ProjectRecord, error) {
	var records []domain.ProjectRecord
	for _, e := range s.entries {
		if e.isFolder() || !domain.IsProjectFile(filesystem.Normalize(e.path), s.opts.Extensions) {
			continue
		}
		records = append(records, domain.NewProjectRecord(s.abs(e)))
	}
	return records, nil
}

// Register adds the project to the organizer folder, creating the folder
// when needed. Projects already in the folder by name, or anywhere in the
// solution by path, are left alone.
func (s *Solution) Register(path string) (bool, error) {
	path = filesystem.Normalize(path)
	if !filesystem.FileExists(path) {
		return false, &domain.FileNotFoundError{Path: path}
	}
	name := domain.ProjectName(path)

	folderGUID := ""
	if f := s.folder(); f != nil {
		folderGUID = strings.ToUpper(f.guid)
	}
	for _, e := range s.entries {
		if e.isFolder() {
			continue
		}
		if strings.EqualFold(s.abs(e), path) {
			return false, nil
		}
		if folderGUID != "" && s.nested[strings.ToUpper(e.guid)] == folderGUID &&
			strings.EqualFold(domain.ProjectName(e.path), name) {
			return false, nil
		}
	}

	if folderGUID == "" {
		f := entry{
			typeGUID: FolderTypeGUID,
			name:     s.opts.FolderName,
			path:     s.opts.FolderName,
			guid:     newGUID(),
		}
		s.entries = append(s.entries, f)
		s.added = append(s.added, f)
		folderGUID = f.guid
	}

	rel, err := filepath.Rel(s.dir, path)
	if err != nil {
		rel = path
	}
	e := entry{
		typeGUID: typeGUIDFor(path),
		name:     name,
		path:     strings.ReplaceAll(rel, "/", `\`),
		guid:     newGUID(),
	}
	s.entries = append(s.entries, e)
	s.added = append(s.added, e)
	s.nested[strings.ToUpper(e.guid)] = strings.ToUpper(folderGUID)
	s.addedNested = append(s.addedNested, [2]string{e.guid, folderGUID})
	return true, nil
}

func (s *Solution) Checkpoint() int { return len(s.added) }

// Rollback drops the entries added since checkpoint, including a folder
// created by them
func (s *Solution) Rollback(checkpoint int) {
	if checkpoint < 0 || checkpoint >= len(s.added) {
		return
	}
	dropped := make(map[string]bool)
	for _, e := range s.added[checkpoint:] {
		dropped[strings.ToUpper(e.guid)] = true
		delete(s.nested, strings.ToUpper(e.guid))
	}
	s.added = s.added[:checkpoint]

	entries := s.entries[:0]
	for _, e := range s.entries {
		if !dropped[strings.ToUpper(e.guid)] {
			entries = append(entries, e)
		}
	}
	s.entries = entries

	nested := s.addedNested[:0]
	for _, n := range s.addedNested {
		if !dropped[strings.ToUpper(n[0])] {
			nested = append(nested, n)
		}
	}
	s.addedNested = nested
}

// Modified reports whether registrations are waiting to be saved
func (s *Solution) Modified() bool {
	return len(s.added) > 0
}

// Save writes pending registrations to the solution file
func (s *Solution) Save() error {
	if !s.Modified() {
		return nil
	}
	text := s.render()
	if err := filesystem.WriteFileAtomic(s.path, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to save solution: %w", err)
	}
	s.text = text
	s.added = nil
	s.addedNested = nil
	return nil
}

func (s *Solution) render() string {
	text := s.text
	eol := s.eol

	var projects strings.Builder
	for _, e := range s.added {
		fmt.Fprintf(&projects, `Project("%s") = "%s", "%s", "%s"%sEndProject%s`, e.typeGUID, e.name, e.path, e.guid, eol, eol)
	}
	if loc := globalOpen.FindStringIndex(text); loc != nil {
		text = text[:loc[0]] + projects.String() + text[loc[0]:]
	} else {
		if text != "" && !strings.HasSuffix(text, "\n") {
			text += eol
		}
		text += projects.String() + "Global" + eol + "EndGlobal" + eol
	}

	if len(s.addedNested) == 0 {
		return text
	}
	var lines strings.Builder
	for _, n := range s.addedNested {
		fmt.Fprintf(&lines, "\t\t%s = %s%s", n[0], n[1], eol)
	}

	if loc := nestedOpen.FindStringIndex(text); loc != nil {
		if end := sectionEnd.FindStringIndex(text[loc[1]:]); end != nil {
			at := loc[1] + end[0]
			return text[:at] + lines.String() + text[at:]
		}
	}
	section := "\tGlobalSection(NestedProjects) = preSolution" + eol + lines.String() + "\tEndGlobalSection" + eol
	if loc := globalClose.FindStringIndex(text); loc != nil {
		return text[:loc[0]] + section + text[loc[0]:]
	}
	return text + section
}

func (s *Solution) folder() *entry {
	for i := range s.entries {
		e := &s.entries[i]
		if e.isFolder() && e.name == s.opts.FolderName {
			return e
		}
	}
	return nil
}

func (s *Solution) abs(e entry) string {
	p := filesystem.Normalize(e.path)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.dir, p)
}

func typeGUIDFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".fsproj":
		return FSharpTypeGUID
	case ".vbproj":
		return VBTypeGUID
	default:
		return CSharpTypeGUID
	}
}

func newGUID() string {
	return "{" + strings.ToUpper(uuid.NewString()) + "}"
}
