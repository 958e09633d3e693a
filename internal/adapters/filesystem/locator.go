package filesystem

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"nuref/internal/domain"
	"nuref/internal/logging"
)

// LocatorOptions configures the fallback project search
type LocatorOptions struct {
	IndexOptions
	MaxParentLevels int // Ancestors of the root searched after the root itself
}

// ProjectLocator searches the filesystem for projects the index did not
// know about, caching hits by name
type ProjectLocator struct {
	root   string
	opts   LocatorOptions
	logger *logging.Logger

	mu    sync.Mutex
	cache map[string]string
	stats domain.LocatorStats
}

// NewProjectLocator creates a locator rooted at the workspace root
func NewProjectLocator(root string, opts LocatorOptions, logger *logging.Logger) *ProjectLocator {
	if len(opts.Extensions) == 0 {
		opts.Extensions = domain.DefaultProjectExtensions
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &ProjectLocator{
		root:   filepath.Clean(root),
		opts:   opts,
		logger: logger.Named("locator"),
		cache:  make(map[string]string),
	}
}

// Locate finds a project file named name. The cache is consulted first;
// a cached path whose file has disappeared is evicted and searched again.
func (l *ProjectLocator) Locate(ctx context.Context, name, currentDir string) (string, bool) {
	if strings.TrimSpace(name) == "" {
		return "", false
	}
	key := domain.NameKey(name)

	l.mu.Lock()
	if cached, ok := l.cache[key]; ok {
		if FileExists(cached) {
			l.stats.CacheHits++
			l.mu.Unlock()
			return cached, true
		}
		delete(l.cache, key)
		l.stats.CacheEvictions++
		l.logger.Debug(ctx, "evicted stale cache entry", zap.String("name", name), zap.String("path", cached))
	}
	l.mu.Unlock()

	for _, dir := range l.searchDirs(currentDir) {
		if ctx.Err() != nil {
			break
		}
		l.mu.Lock()
		l.stats.Searches++
		l.mu.Unlock()

		if path, ok := l.searchDir(ctx, dir, key); ok {
			l.mu.Lock()
			l.cache[key] = path
			l.stats.Found++
			l.mu.Unlock()
			l.logger.Debug(ctx, "located project", zap.String("name", name), zap.String("path", path))
			return path, true
		}
	}

	l.mu.Lock()
	l.stats.Missed++
	l.mu.Unlock()
	return "", false
}

// Stats returns a snapshot of the search counters
func (l *ProjectLocator) Stats() domain.LocatorStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

// searchDirs lists, without duplicates, the current project directory,
// the root and up to MaxParentLevels ancestors of the root
func (l *ProjectLocator) searchDirs(currentDir string) []string {
	var dirs []string
	seen := make(map[string]bool)
	add := func(dir string) {
		if dir == "" {
			return
		}
		dir = filepath.Clean(dir)
		if seen[dir] || !DirExists(dir) {
			return
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}

	add(currentDir)
	add(l.root)

	dir := l.root
	for i := 0; i < l.opts.MaxParentLevels; i++ {
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		add(parent)
		dir = parent
	}
	return dirs
}

func (l *ProjectLocator) searchDir(ctx context.Context, dir, key string) (string, bool) {
	skip := make(map[string]bool, len(l.opts.SkipDirs))
	for _, d := range l.opts.SkipDirs {
		skip[strings.ToLower(d)] = true
	}

	var found string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped, not fatal
			if d != nil && d.IsDir() && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if path != dir && skip[strings.ToLower(d.Name())] {
				return filepath.SkipDir
			}
			return nil
		}
		if domain.IsProjectFile(d.Name(), l.opts.Extensions) && domain.NameKey(domain.ProjectName(d.Name())) == key {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		l.logger.Debug(ctx, "search failed", zap.String("dir", dir), zap.Error(err))
	}
	return found, found != ""
}
