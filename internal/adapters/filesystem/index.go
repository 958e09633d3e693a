package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"nuref/internal/domain"
	"nuref/internal/logging"
)

// IndexOptions selects which files are projects and which directories are
// never scanned
type IndexOptions struct {
	Extensions []string
	SkipDirs   []string
}

// ProjectIndex implements ports.ProjectIndex over a directory walk
type ProjectIndex struct {
	opts   IndexOptions
	logger *logging.Logger

	buildMu sync.Mutex // serializes builds

	mu      sync.RWMutex
	byName  map[string]string
	records []domain.ProjectRecord
	built   bool
	stats   domain.IndexStats
}

// NewProjectIndex creates an empty index
func NewProjectIndex(opts IndexOptions, logger *logging.Logger) *ProjectIndex {
	if len(opts.Extensions) == 0 {
		opts.Extensions = domain.DefaultProjectExtensions
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &ProjectIndex{
		opts:   opts,
		logger: logger.Named("index"),
		byName: make(map[string]string),
	}
}

// BuildIndex scans root and replaces the index contents. On failure the
// index is left empty.
func (x *ProjectIndex) BuildIndex(ctx context.Context, root string) error {
	if strings.TrimSpace(root) == "" {
		return domain.InvalidArgument("rootDir", "is required")
	}

	x.buildMu.Lock()
	defer x.buildMu.Unlock()

	absRoot, err := filepath.Abs(root)
	if err != nil {
		x.ClearIndex()
		return fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	if err := requireDir(absRoot); err != nil {
		x.ClearIndex()
		return err
	}

	start := time.Now()
	skip := make(map[string]bool, len(x.opts.SkipDirs))
	for _, d := range x.opts.SkipDirs {
		skip[strings.ToLower(d)] = true
	}

	byName := make(map[string]string)
	dirs := make(map[string]struct{})
	var records []domain.ProjectRecord
	duplicates := 0

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if path != absRoot && skip[strings.ToLower(d.Name())] {
				return filepath.SkipDir
			}
			return nil
		}
		if !domain.IsProjectFile(d.Name(), x.opts.Extensions) {
			return nil
		}

		name := domain.ProjectName(path)
		key := domain.NameKey(name)
		dirs[filepath.Dir(path)] = struct{}{}

		if existing, ok := byName[key]; ok {
			duplicates++
			x.logger.Warn(ctx, "duplicate project name, keeping first",
				zap.String("name", name),
				zap.String("kept", existing),
				zap.String("ignored", path))
			return nil
		}
		byName[key] = path
		records = append(records, domain.ProjectRecord{Name: name, Path: path})
		return nil
	})
	if err != nil {
		x.ClearIndex()
		return fmt.Errorf("failed to index %s: %w", absRoot, err)
	}

	stats := domain.IndexStats{
		TotalProjects:      len(byName),
		Duplicates:         duplicates,
		IndexedDirectories: len(dirs),
		BuildDuration:      time.Since(start),
		RootDir:            absRoot,
	}

	x.mu.Lock()
	x.byName = byName
	x.records = records
	x.stats = stats
	x.built = true
	x.mu.Unlock()

	x.logger.Info(ctx, "project index built",
		zap.String("root", absRoot),
		zap.Int("projects", stats.TotalProjects),
		zap.Int("duplicates", stats.Duplicates),
		zap.Int("directories", stats.IndexedDirectories),
		zap.Duration("duration", stats.BuildDuration))

	return nil
}

// FindProject looks up a project by case-insensitive name. An unbuilt
// index finds nothing.
func (x *ProjectIndex) FindProject(name string) (string, bool) {
	if strings.TrimSpace(name) == "" {
		return "", false
	}
	x.mu.RLock()
	defer x.mu.RUnlock()
	path, ok := x.byName[domain.NameKey(name)]
	return path, ok
}

func (x *ProjectIndex) IsBuilt() bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.built
}

// ClearIndex resets the index to its unbuilt state
func (x *ProjectIndex) ClearIndex() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.byName = make(map[string]string)
	x.records = nil
	x.stats = domain.IndexStats{}
	x.built = false
}

func (x *ProjectIndex) GetStats() domain.IndexStats {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.stats
}

// Projects returns the indexed projects in scan order
func (x *ProjectIndex) Projects() []domain.ProjectRecord {
	x.mu.RLock()
	defer x.mu.RUnlock()
	out := make([]domain.ProjectRecord, len(x.records))
	copy(out, x.records)
	return out
}

// Enumerate lists the indexed projects, so a directory tree without a
// solution file can be converted
func (x *ProjectIndex) Enumerate() ([]domain.ProjectRecord, error) {
	if !x.IsBuilt() {
		return nil, fmt.Errorf("project index has not been built")
	}
	return x.Projects(), nil
}
