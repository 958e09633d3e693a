package commands

import (
	"fmt"

	"nuref/internal/application"
	"nuref/internal/domain"
	"nuref/internal/workspace"
)

const defaultHistoryLimit = 20

// HistoryResult contains recorded conversion runs
type HistoryResult struct {
	Runs    []domain.RunSummary
	Changes []domain.ProjectChange // Only set when a single run is requested
}

// HistoryCommand lists past conversion runs from the catalog
type HistoryCommand struct {
	ws    *workspace.Context
	Limit int
	RunID string
}

// NewHistoryCommand creates a new HistoryCommand
func NewHistoryCommand(ws *workspace.Context, limit int, runID string) *HistoryCommand {
	return &HistoryCommand{ws: ws, Limit: limit, RunID: runID}
}

func (c *HistoryCommand) Validate() error {
	if c.ws.Catalog == nil {
		return fmt.Errorf("%w: the catalog is disabled (catalog.enabled)", application.ErrInvalidOperation)
	}
	if c.Limit < 0 {
		return &application.ValidationError{Field: "limit", Message: "limit must not be negative"}
	}
	return nil
}

// Execute reads the catalog. With a RunID, it returns that run and the
// conversions it applied.
func (c *HistoryCommand) Execute() (*HistoryResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	if c.RunID == "" {
		limit := c.Limit
		if limit == 0 {
			limit = defaultHistoryLimit
		}
		runs, err := c.ws.Catalog.ListRuns(c.ws.Root, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to list runs: %w", err)
		}
		return &HistoryResult{Runs: runs}, nil
	}

	runs, err := c.ws.Catalog.ListRuns(c.ws.Root, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	for _, run := range runs {
		if run.RunID != c.RunID {
			continue
		}
		changes, err := c.ws.Catalog.RunConversions(c.RunID)
		if err != nil {
			return nil, fmt.Errorf("failed to read run %s: %w", c.RunID, err)
		}
		return &HistoryResult{Runs: []domain.RunSummary{run}, Changes: changes}, nil
	}
	return nil, fmt.Errorf("%w: run %s", application.ErrNotFound, c.RunID)
}
