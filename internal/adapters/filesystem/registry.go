package filesystem

import (
	"sort"
	"sync"

	"nuref/internal/domain"
)

// Registry implements ports.FolderOrganizer for workspaces without a
// solution file. It only tracks which projects conversion pulled in.
type Registry struct {
	mu      sync.Mutex
	byName  map[string]string
	ordered []string
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]string)}
}

// Register records the project, idempotent by name
func (r *Registry) Register(path string) (bool, error) {
	path = Normalize(path)
	if !FileExists(path) {
		return false, &domain.FileNotFoundError{Path: path}
	}

	key := domain.NameKey(domain.ProjectName(path))
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[key]; ok {
		return false, nil
	}
	r.byName[key] = path
	r.ordered = append(r.ordered, path)
	return true, nil
}

func (r *Registry) Checkpoint() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ordered)
}

// Rollback forgets the projects registered since checkpoint
func (r *Registry) Rollback(checkpoint int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if checkpoint < 0 || checkpoint >= len(r.ordered) {
		return
	}
	for _, path := range r.ordered[checkpoint:] {
		delete(r.byName, domain.NameKey(domain.ProjectName(path)))
	}
	r.ordered = r.ordered[:checkpoint]
}

func (r *Registry) Save() error { return nil }

// Registered returns the registered project paths, sorted
func (r *Registry) Registered() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]string(nil), r.ordered...)
	sort.Strings(out)
	return out
}
