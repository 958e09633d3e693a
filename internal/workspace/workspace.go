// Package workspace wires the adapters for one workspace root from its
// configuration.
package workspace

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"nuref/internal/adapters/filesystem"
	"nuref/internal/adapters/msbuild"
	"nuref/internal/adapters/solution"
	"nuref/internal/adapters/sqlite"
	"nuref/internal/application/graph"
	"nuref/internal/config"
	"nuref/internal/domain"
	"nuref/internal/logging"
	"nuref/internal/ports"
)

// Context holds the resolved configuration and adapters for a workspace.
type Context struct {
	Config   *config.Config
	Root     string
	Logger   *logging.Logger
	Paths    *filesystem.PathResolver
	Index    *filesystem.ProjectIndex
	Locator  *filesystem.ProjectLocator
	Mappings *filesystem.MapFile
	Model    *msbuild.Model
	Catalog  ports.Catalog // nil when the catalog is disabled
}

// Layout is how the workspace lists its projects and records new ones:
// a solution file, or the project index plus an in-memory registry when
// there is none.
type Layout struct {
	Solution   string // Empty in directory mode
	Enumerator ports.ProjectEnumerator
	Organizer  ports.FolderOrganizer
}

// Open builds the adapters for cfg. The mapping file is not read here.
func Open(cfg *config.Config, logger *logging.Logger) (*Context, error) {
	if logger == nil {
		logger = logging.Nop()
	}

	root := filesystem.Normalize(filesystem.ExpandHome(cfg.Workspace.Root))
	if !filesystem.DirExists(root) {
		return nil, fmt.Errorf("workspace root %s: %w", root, domain.ErrDirectoryNotFound)
	}

	paths := filesystem.NewPathResolver(cfg.Paths.VerifyBase)
	indexOpts := filesystem.IndexOptions{
		Extensions: cfg.Index.Extensions,
		SkipDirs:   cfg.Index.SkipDirs,
	}

	c := &Context{
		Config:  cfg,
		Root:    root,
		Logger:  logger,
		Paths:   paths,
		Index:   filesystem.NewProjectIndex(indexOpts, logger),
		Locator: filesystem.NewProjectLocator(root, filesystem.LocatorOptions{IndexOptions: indexOpts, MaxParentLevels: cfg.Index.MaxParentLevels}, logger),
		Model:   msbuild.NewModel(),
	}
	c.Mappings = filesystem.NewMapFile(cfg.MapFilePath(), root, paths)

	if cfg.Catalog.Enabled {
		path := cfg.Catalog.Path
		if path == "" {
			path = sqlite.DefaultPath(root)
		}
		catalog := sqlite.NewCatalog()
		if err := catalog.Open(filesystem.ExpandHome(path)); err != nil {
			return nil, fmt.Errorf("failed to open catalog: %w", err)
		}
		c.Catalog = catalog
	}

	return c, nil
}

// Close releases the catalog and flushes the logger
func (c *Context) Close() error {
	var errs []error
	if c.Catalog != nil {
		errs = append(errs, c.Catalog.Close())
	}
	errs = append(errs, c.Logger.Sync())
	return errors.Join(errs...)
}

// LoadMappings reads the mapping file, treating a missing file as empty
func (c *Context) LoadMappings() error {
	err := c.Mappings.Load()
	if errors.Is(err, domain.ErrFileNotFound) {
		return nil
	}
	return err
}

// BuildIndex rebuilds the project index and, when enabled, replaces the
// catalog snapshot with it.
func (c *Context) BuildIndex(ctx context.Context) (domain.IndexStats, error) {
	if err := c.Index.BuildIndex(ctx, c.Root); err != nil {
		return domain.IndexStats{}, err
	}
	stats := c.Index.GetStats()

	if c.Catalog != nil {
		if err := c.Catalog.ReplaceProjects(c.Root, c.Index.Projects()); err != nil {
			c.Logger.Warn(ctx, "failed to persist project snapshot", zap.Error(err))
		}
	}
	return stats, nil
}

// OpenLayout selects solution mode or directory mode. Directory mode
// enumerates the index, which must already be built.
func (c *Context) OpenLayout() (*Layout, error) {
	slnPath := c.Config.Workspace.Solution
	if slnPath == "" {
		found, err := solution.Find(c.Root)
		if err != nil {
			return nil, err
		}
		slnPath = found
	}

	if slnPath == "" {
		return &Layout{Enumerator: c.Index, Organizer: filesystem.NewRegistry()}, nil
	}

	sln, err := solution.Open(slnPath, solution.Options{
		Extensions: c.Config.Index.Extensions,
		FolderName: c.Config.Workspace.FolderName,
	})
	if err != nil {
		return nil, err
	}
	return &Layout{Solution: slnPath, Enumerator: sln, Organizer: sln}, nil
}

// Resolver returns a resolver over this workspace's caches. The index is
// left out when it has not been built.
func (c *Context) Resolver(retryUnresolved bool) *graph.Resolver {
	cfg := graph.ResolverConfig{
		Root:            c.Root,
		Paths:           c.Paths,
		Mappings:        c.Mappings,
		Locator:         c.Locator,
		Logger:          c.Logger,
		RetryUnresolved: retryUnresolved,
	}
	if c.Index.IsBuilt() {
		cfg.Index = c.Index
	}
	return graph.NewResolver(cfg)
}

// Walker wires a conversion run over layout
func (c *Context) Walker(layout *Layout, resolver *graph.Resolver, dryRun bool) *graph.Walker {
	return graph.NewWalker(graph.Deps{
		Model:      c.Model,
		Enumerator: layout.Enumerator,
		Organizer:  layout.Organizer,
		Mappings:   c.Mappings,
		Paths:      c.Paths,
		Resolver:   resolver,
		Logger:     c.Logger,
	}, graph.Options{Root: c.Root, DryRun: dryRun})
}
