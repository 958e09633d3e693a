package filesystem

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"nuref/internal/domain"
)

// MapFile implements ports.MappingStore as an indented JSON object of
// package id to root-relative project path, null marking a known miss
type MapFile struct {
	path     string
	root     string
	resolver *PathResolver

	mu      sync.RWMutex
	entries map[string]string // "" is a negative entry
}

// NewMapFile creates a store backed by path, with relative paths resolved
// against root
func NewMapFile(path, root string, resolver *PathResolver) *MapFile {
	if resolver == nil {
		resolver = NewPathResolver(false)
	}
	return &MapFile{
		path:     path,
		root:     root,
		resolver: resolver,
		entries:  make(map[string]string),
	}
}

func (m *MapFile) Path() string { return m.path }

// LoadOrCreate loads the file, or writes an empty one when it is missing
func (m *MapFile) LoadOrCreate() error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", m.path, err)
	}

	if _, err := os.Stat(m.path); err == nil {
		return m.Load()
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to stat %s: %w", m.path, err)
	}

	m.mu.Lock()
	m.entries = make(map[string]string)
	m.mu.Unlock()
	return m.Save()
}

// Load replaces the in-memory entries with the file contents. A missing
// file leaves the store empty.
func (m *MapFile) Load() error {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			m.mu.Lock()
			m.entries = make(map[string]string)
			m.mu.Unlock()
			return fmt.Errorf("%w: %s", domain.ErrFileNotFound, m.path)
		}
		return fmt.Errorf("failed to read mapping file: %w", err)
	}

	var raw map[string]*string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse mapping file %s: %w", m.path, err)
	}

	entries := make(map[string]string, len(raw))
	for id, value := range raw {
		if value == nil || *value == "" {
			entries[id] = ""
			continue
		}
		abs, err := m.resolver.ToAbsolute(m.root, *value)
		if err != nil {
			return fmt.Errorf("failed to resolve mapping for %s: %w", id, err)
		}
		entries[id] = abs
	}

	m.mu.Lock()
	m.entries = entries
	m.mu.Unlock()
	return nil
}

// Save writes all entries with sorted keys and root-relative, forward-slash
// paths
func (m *MapFile) Save() error {
	m.mu.RLock()
	raw := make(map[string]*string, len(m.entries))
	for id, abs := range m.entries {
		if abs == "" {
			raw[id] = nil
			continue
		}
		rel, err := m.resolver.ToRelative(m.root, abs)
		if err != nil {
			m.mu.RUnlock()
			return fmt.Errorf("failed to relativize mapping for %s: %w", id, err)
		}
		rel = filepath.ToSlash(rel)
		raw[id] = &rel
	}
	m.mu.RUnlock()

	return writeFileAtomic(m.path, 0644, func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(raw); err != nil {
			return fmt.Errorf("failed to encode mapping file: %w", err)
		}
		return nil
	})
}

// Get returns the mapped path. A negative entry is found with an empty path.
func (m *MapFile) Get(packageID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	path, ok := m.entries[packageID]
	return path, ok
}

// Put records a mapping; an empty path records a negative entry
func (m *MapFile) Put(packageID, projectPath string) {
	if projectPath != "" {
		projectPath = Normalize(projectPath)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[packageID] = projectPath
}

// Delete removes the entry so the id is resolved afresh next time
func (m *MapFile) Delete(packageID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[packageID]
	delete(m.entries, packageID)
	return ok
}

// Entries returns all mappings sorted by package id
func (m *MapFile) Entries() []domain.MappingEntry {
	m.mu.RLock()
	out := make([]domain.MappingEntry, 0, len(m.entries))
	for id, path := range m.entries {
		out = append(out, domain.MappingEntry{PackageID: id, ProjectPath: path})
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].PackageID < out[j].PackageID })
	return out
}
