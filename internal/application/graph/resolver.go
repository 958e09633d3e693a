package graph

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"nuref/internal/domain"
	"nuref/internal/logging"
	"nuref/internal/ports"
)

// Resolver maps package ids and raw include strings to project files.
// It never writes to the mapping store; callers record outcomes.
type Resolver struct {
	root            string
	paths           ports.PathResolver
	mappings        ports.MappingStore
	index           ports.ProjectFinder
	locator         ports.ProjectLocator
	logger          *logging.Logger
	retryUnresolved bool

	workspace map[string]string
}

// ResolverConfig wires a Resolver. Index and Locator are optional.
type ResolverConfig struct {
	Root            string
	Paths           ports.PathResolver
	Mappings        ports.MappingStore
	Index           ports.ProjectFinder
	Locator         ports.ProjectLocator
	Logger          *logging.Logger
	RetryUnresolved bool
}

func NewResolver(cfg ResolverConfig) *Resolver {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &Resolver{
		root:            cfg.Root,
		paths:           cfg.Paths,
		mappings:        cfg.Mappings,
		index:           cfg.Index,
		locator:         cfg.Locator,
		logger:          logger.Named("resolver"),
		retryUnresolved: cfg.RetryUnresolved,
		workspace:       make(map[string]string),
	}
}

// SetWorkspace makes the enumerated projects available to include
// resolution by name
func (r *Resolver) SetWorkspace(projects []domain.ProjectRecord) {
	r.workspace = make(map[string]string, len(projects))
	for _, p := range projects {
		key := domain.NameKey(p.Name)
		if _, ok := r.workspace[key]; !ok {
			r.workspace[key] = p.Path
		}
	}
}

// ResolvePackage runs the package resolution chain: mapping, index, then
// the filesystem locator. A negative mapping ends the chain unless retries
// are enabled; a mapping whose file is gone falls through.
func (r *Resolver) ResolvePackage(ctx context.Context, packageID, projectDir string) domain.Resolution {
	if strings.TrimSpace(packageID) == "" {
		return domain.Resolution{}
	}

	if path, ok := r.mappings.Get(packageID); ok {
		switch {
		case path == "" && !r.retryUnresolved:
			return domain.Resolution{Source: domain.SourceNegativeCache}
		case path != "" && fileExists(path):
			return domain.Resolution{Path: path, Source: domain.SourceMapping, Found: true}
		case path != "":
			r.logger.Warn(ctx, "mapped project no longer exists",
				zap.String("package", packageID), zap.String("path", path))
		}
	}

	return r.byName(ctx, packageID, projectDir, false)
}

// ResolveInclude resolves a ProjectReference include found in projectDir.
// A miss returns the project-relative guess with Found unset.
func (r *Resolver) ResolveInclude(ctx context.Context, include, projectDir string) domain.Resolution {
	if strings.TrimSpace(include) == "" {
		return domain.Resolution{}
	}

	guess, err := r.paths.ToAbsolute(projectDir, include)
	if err != nil {
		guess = include
	}
	rooted := filepath.IsAbs(filepath.FromSlash(strings.ReplaceAll(include, `\`, "/")))
	if rooted {
		if fileExists(guess) {
			return domain.Resolution{Path: guess, Source: domain.SourceAbsolute, Found: true}
		}
	} else {
		if fileExists(guess) {
			return domain.Resolution{Path: guess, Source: domain.SourceProjectRelative, Found: true}
		}
		if abs, err := r.paths.ToAbsolute(r.root, include); err == nil && fileExists(abs) {
			return domain.Resolution{Path: abs, Source: domain.SourceRootRelative, Found: true}
		}
	}

	name := domain.ProjectName(include)
	if path, ok := r.mappings.Get(name); ok && path != "" && fileExists(path) {
		return domain.Resolution{Path: path, Source: domain.SourceMapping, Found: true}
	}
	if res := r.byName(ctx, name, projectDir, true); res.Found {
		return res
	}
	return domain.Resolution{Path: guess, Source: domain.SourceNone}
}

func (r *Resolver) byName(ctx context.Context, name, projectDir string, useWorkspace bool) domain.Resolution {
	if r.index != nil {
		if path, ok := r.index.FindProject(name); ok && fileExists(path) {
			return domain.Resolution{Path: path, Source: domain.SourceIndex, Found: true}
		}
	}
	if useWorkspace {
		if path, ok := r.workspace[domain.NameKey(name)]; ok && fileExists(path) {
			return domain.Resolution{Path: path, Source: domain.SourceWorkspace, Found: true}
		}
	}
	if r.locator != nil {
		if path, ok := r.locator.Locate(ctx, name, projectDir); ok {
			return domain.Resolution{Path: path, Source: domain.SourceFileSystem, Found: true}
		}
	}
	return domain.Resolution{}
}

// canonical returns the visited-set key for a project path
func canonical(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	path = filepath.Clean(path)
	if runtime.GOOS == "windows" {
		path = strings.ToLower(path)
	}
	return path
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
