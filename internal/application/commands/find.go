package commands

import (
	"context"
	"fmt"

	"nuref/internal/adapters/filesystem"
	"nuref/internal/application"
	"nuref/internal/domain"
	"nuref/internal/workspace"
)

// FindResult contains the result of a project lookup
type FindResult struct {
	Name   string
	Path   string
	Found  bool
	Source string // catalog, index, filesystem or empty when not found
}

// FindCommand locates a project file by name
type FindCommand struct {
	ws   *workspace.Context
	Name string
}

// NewFindCommand creates a new FindCommand
func NewFindCommand(ws *workspace.Context, name string) *FindCommand {
	return &FindCommand{ws: ws, Name: name}
}

// Validate checks if the lookup is valid
func (c *FindCommand) Validate() error {
	return application.ValidateRequired("projectName", c.Name)
}

// Execute tries the catalog snapshot, then a fresh index, then a
// filesystem search around the workspace root. Catalog entries whose
// file is gone are ignored.
func (c *FindCommand) Execute(ctx context.Context) (*FindResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	ws := c.ws
	result := &FindResult{Name: c.Name}

	if ws.Catalog != nil {
		path, ok, err := ws.Catalog.FindProject(ws.Root, c.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to query catalog: %w", err)
		}
		if ok && filesystem.FileExists(path) {
			return c.found(result, path, "catalog"), nil
		}
	}

	if !ws.Index.IsBuilt() {
		if _, err := ws.BuildIndex(ctx); err != nil {
			return nil, err
		}
	}
	if path, ok := ws.Index.FindProject(c.Name); ok {
		return c.found(result, path, "index"), nil
	}

	if path, ok := ws.Locator.Locate(ctx, c.Name, ws.Root); ok {
		return c.found(result, path, domain.SourceFileSystem.String()), nil
	}

	return result, nil
}

func (c *FindCommand) found(r *FindResult, path, source string) *FindResult {
	r.Path = path
	r.Found = true
	r.Source = source
	return r
}
