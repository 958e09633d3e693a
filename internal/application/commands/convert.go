package commands

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"nuref/internal/domain"
	"nuref/internal/workspace"
)

// ConvertResult contains the result of a conversion run
type ConvertResult struct {
	Report     *domain.RunReport
	IndexStats domain.IndexStats
	Locator    domain.LocatorStats
	Solution   string // Empty in directory mode
	Message    string
}

// ConvertCommand replaces package references with project references
// across the workspace
type ConvertCommand struct {
	ws              *workspace.Context
	DryRun          bool
	RetryUnresolved bool
}

// NewConvertCommand creates a new ConvertCommand
func NewConvertCommand(ws *workspace.Context, dryRun, retryUnresolved bool) *ConvertCommand {
	return &ConvertCommand{
		ws:              ws,
		DryRun:          dryRun,
		RetryUnresolved: retryUnresolved,
	}
}

// Validate checks if the conversion can run
func (c *ConvertCommand) Validate() error {
	if c.ws == nil {
		return fmt.Errorf("%w: no workspace", domain.ErrInvalidArgument)
	}
	return nil
}

// Execute runs the conversion. When the walker aborts, the result still
// carries the partial report alongside the error.
func (c *ConvertCommand) Execute(ctx context.Context) (*ConvertResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	ws := c.ws
	result := &ConvertResult{}

	stats, indexErr := ws.BuildIndex(ctx)
	if indexErr != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		ws.Logger.Warn(ctx, "project index unavailable, using filesystem search only", zap.Error(indexErr))
	}
	result.IndexStats = stats

	loadMappings := ws.Mappings.LoadOrCreate
	if c.DryRun {
		loadMappings = ws.LoadMappings
	}
	if err := loadMappings(); err != nil {
		return nil, fmt.Errorf("failed to load mappings: %w", err)
	}

	layout, err := ws.OpenLayout()
	if err != nil {
		return nil, fmt.Errorf("failed to open workspace layout: %w", err)
	}
	if layout.Solution == "" && indexErr != nil {
		return nil, fmt.Errorf("no solution file and no project index: %w", indexErr)
	}
	result.Solution = layout.Solution

	report, runErr := ws.Walker(layout, ws.Resolver(c.RetryUnresolved), c.DryRun).Run(ctx)
	result.Report = report
	result.Locator = ws.Locator.Stats()

	if c.DryRun {
		// drop the entries the walker learned in memory
		if err := ws.LoadMappings(); err != nil {
			ws.Logger.Warn(ctx, "failed to reload mappings after dry run", zap.Error(err))
		}
	}

	if ws.Catalog != nil && report != nil {
		if err := ws.Catalog.RecordRun(report); err != nil {
			ws.Logger.Warn(ctx, "failed to record run", zap.Error(err))
		}
	}

	if runErr != nil {
		return result, runErr
	}
	result.Message = summarize(report)
	return result, nil
}

func summarize(r *domain.RunReport) string {
	verb := "Converted"
	if r.DryRun {
		verb = "Would convert"
	}
	msg := fmt.Sprintf("%s %d package reference(s) in %d project(s)", verb, r.PackagesConverted, len(r.Changes))
	if r.ProjectsRegistered > 0 {
		msg += fmt.Sprintf(", registered %d project(s)", r.ProjectsRegistered)
	}
	if n := len(r.Unresolved); n > 0 {
		msg += fmt.Sprintf(", %d package(s) unresolved", n)
	}
	return msg
}
