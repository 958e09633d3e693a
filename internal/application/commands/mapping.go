package commands

import (
	"fmt"
	"path/filepath"

	"nuref/internal/application"
	"nuref/internal/domain"
	"nuref/internal/workspace"
)

// MappingListResult contains the mapping entries of the workspace
type MappingListResult struct {
	Path       string
	Entries    []domain.MappingEntry
	Resolved   int
	Unresolved int
}

// MapListCommand lists the mapping file
type MapListCommand struct {
	ws             *workspace.Context
	UnresolvedOnly bool
}

// NewMapListCommand creates a new MapListCommand
func NewMapListCommand(ws *workspace.Context, unresolvedOnly bool) *MapListCommand {
	return &MapListCommand{ws: ws, UnresolvedOnly: unresolvedOnly}
}

// Execute reads the mapping file. A missing file lists nothing.
func (c *MapListCommand) Execute() (*MappingListResult, error) {
	if err := c.ws.LoadMappings(); err != nil {
		return nil, fmt.Errorf("failed to load mappings: %w", err)
	}

	result := &MappingListResult{Path: c.ws.Mappings.Path()}
	for _, e := range c.ws.Mappings.Entries() {
		if e.Resolved() {
			result.Resolved++
		} else {
			result.Unresolved++
		}
		if c.UnresolvedOnly && e.Resolved() {
			continue
		}
		result.Entries = append(result.Entries, e)
	}
	return result, nil
}

// MappingChangeResult contains the result of a mapping edit
type MappingChangeResult struct {
	PackageID   string
	ProjectPath string
	Message     string
}

// MapSetCommand points a package id at a project file
type MapSetCommand struct {
	ws          *workspace.Context
	PackageID   string
	ProjectPath string
}

// NewMapSetCommand creates a new MapSetCommand
func NewMapSetCommand(ws *workspace.Context, packageID, projectPath string) *MapSetCommand {
	return &MapSetCommand{ws: ws, PackageID: packageID, ProjectPath: projectPath}
}

// Validate checks the package id and that the project file exists.
// Relative paths are taken from the workspace root.
func (c *MapSetCommand) Validate() error {
	if err := application.ValidatePackageID("packageID", c.PackageID); err != nil {
		return err
	}
	return application.ValidateProjectFile("projectPath", c.absPath(), c.ws.Config.Index.Extensions)
}

func (c *MapSetCommand) absPath() string {
	if c.ProjectPath == "" {
		return ""
	}
	abs, err := c.ws.Paths.ToAbsolute(c.ws.Root, c.ProjectPath)
	if err != nil {
		return c.ProjectPath
	}
	return abs
}

// Execute records the mapping and saves the file
func (c *MapSetCommand) Execute() (*MappingChangeResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := c.ws.Mappings.LoadOrCreate(); err != nil {
		return nil, fmt.Errorf("failed to load mappings: %w", err)
	}

	abs := c.absPath()
	c.ws.Mappings.Put(c.PackageID, abs)
	if err := c.ws.Mappings.Save(); err != nil {
		return nil, fmt.Errorf("failed to save mappings: %w", err)
	}

	return &MappingChangeResult{
		PackageID:   c.PackageID,
		ProjectPath: abs,
		Message:     fmt.Sprintf("Mapped %s to %s", c.PackageID, c.relative(abs)),
	}, nil
}

func (c *MapSetCommand) relative(abs string) string {
	rel, err := c.ws.Paths.ToRelative(c.ws.Root, abs)
	if err != nil || rel == "" {
		return abs
	}
	return filepath.ToSlash(rel)
}

// MapUnsetCommand removes a package id so the next run resolves it afresh
type MapUnsetCommand struct {
	ws        *workspace.Context
	PackageID string
}

// NewMapUnsetCommand creates a new MapUnsetCommand
func NewMapUnsetCommand(ws *workspace.Context, packageID string) *MapUnsetCommand {
	return &MapUnsetCommand{ws: ws, PackageID: packageID}
}

func (c *MapUnsetCommand) Validate() error {
	return application.ValidateRequired("packageID", c.PackageID)
}

// Execute removes the entry. Removing an unknown id is ErrNotFound.
func (c *MapUnsetCommand) Execute() (*MappingChangeResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := c.ws.LoadMappings(); err != nil {
		return nil, fmt.Errorf("failed to load mappings: %w", err)
	}
	if !c.ws.Mappings.Delete(c.PackageID) {
		return nil, fmt.Errorf("%w: no mapping for %s", application.ErrNotFound, c.PackageID)
	}
	if err := c.ws.Mappings.Save(); err != nil {
		return nil, fmt.Errorf("failed to save mappings: %w", err)
	}
	return &MappingChangeResult{
		PackageID: c.PackageID,
		Message:   fmt.Sprintf("Removed mapping for %s", c.PackageID),
	}, nil
}

// MapClearCommand records a package id as having no project, so runs
// leave it as a package reference
type MapClearCommand struct {
	ws        *workspace.Context
	PackageID string
}

// NewMapClearCommand creates a new MapClearCommand
func NewMapClearCommand(ws *workspace.Context, packageID string) *MapClearCommand {
	return &MapClearCommand{ws: ws, PackageID: packageID}
}

func (c *MapClearCommand) Validate() error {
	return application.ValidatePackageID("packageID", c.PackageID)
}

// Execute writes a null entry for the package id
func (c *MapClearCommand) Execute() (*MappingChangeResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := c.ws.Mappings.LoadOrCreate(); err != nil {
		return nil, fmt.Errorf("failed to load mappings: %w", err)
	}
	c.ws.Mappings.Put(c.PackageID, "")
	if err := c.ws.Mappings.Save(); err != nil {
		return nil, fmt.Errorf("failed to save mappings: %w", err)
	}
	return &MappingChangeResult{
		PackageID: c.PackageID,
		Message:   fmt.Sprintf("Marked %s as unresolved", c.PackageID),
	}, nil
}
