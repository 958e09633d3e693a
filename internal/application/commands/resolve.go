package commands

import (
	"context"
	"fmt"

	"nuref/internal/application"
	"nuref/internal/domain"
	"nuref/internal/workspace"
)

// ResolveResult contains the outcome of resolving one package id
type ResolveResult struct {
	PackageID string
	Path      string
	Found     bool
	Source    domain.ResolutionSource
}

// ResolveCommand previews how a package id would be resolved, without
// touching the mapping file
type ResolveCommand struct {
	ws        *workspace.Context
	PackageID string
	From      string // Directory of the consuming project; defaults to the root
}

// NewResolveCommand creates a new ResolveCommand
func NewResolveCommand(ws *workspace.Context, packageID, from string) *ResolveCommand {
	return &ResolveCommand{ws: ws, PackageID: packageID, From: from}
}

func (c *ResolveCommand) Validate() error {
	return application.ValidatePackageID("packageID", c.PackageID)
}

// Execute runs the resolution chain
func (c *ResolveCommand) Execute(ctx context.Context) (*ResolveResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	ws := c.ws

	if err := ws.LoadMappings(); err != nil {
		return nil, fmt.Errorf("failed to load mappings: %w", err)
	}
	if !ws.Index.IsBuilt() {
		if _, err := ws.BuildIndex(ctx); err != nil {
			return nil, err
		}
	}

	from := ws.Root
	if c.From != "" {
		abs, err := ws.Paths.ToAbsolute(ws.Root, c.From)
		if err != nil {
			return nil, err
		}
		from = abs
	}

	res := ws.Resolver(false).ResolvePackage(ctx, c.PackageID, from)
	return &ResolveResult{
		PackageID: c.PackageID,
		Path:      res.Path,
		Found:     res.Found,
		Source:    res.Source,
	}, nil
}
