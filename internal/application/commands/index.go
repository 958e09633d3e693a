package commands

import (
	"context"
	"fmt"
	"time"

	"nuref/internal/domain"
	"nuref/internal/workspace"
)

// IndexResult contains the result of an index build
type IndexResult struct {
	Stats     domain.IndexStats
	Persisted bool
	Message   string
}

// IndexCommand scans the workspace for project files and stores the
// snapshot in the catalog
type IndexCommand struct {
	ws *workspace.Context
}

// NewIndexCommand creates a new IndexCommand
func NewIndexCommand(ws *workspace.Context) *IndexCommand {
	return &IndexCommand{ws: ws}
}

// Execute builds the index
func (c *IndexCommand) Execute(ctx context.Context) (*IndexResult, error) {
	if c.ws == nil {
		return nil, fmt.Errorf("%w: no workspace", domain.ErrInvalidArgument)
	}

	stats, err := c.ws.BuildIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build index: %w", err)
	}

	return &IndexResult{
		Stats:     stats,
		Persisted: c.ws.Catalog != nil,
		Message: fmt.Sprintf("Indexed %d project(s) in %d director(ies) (%d duplicate name(s)) in %s",
			stats.TotalProjects, stats.IndexedDirectories, stats.Duplicates, stats.BuildDuration.Round(time.Millisecond)),
	}, nil
}
