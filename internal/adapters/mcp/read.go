package mcp

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"nuref/internal/application/commands"
	"nuref/internal/domain"
	"nuref/internal/workspace"
)

// tools serializes calls against one workspace; the mapping file and
// project files are not safe for concurrent runs
type tools struct {
	ws *workspace.Context
	mu sync.Mutex
}

// Register adds the read and write tools for ws to the MCP server.
func Register(s *server.MCPServer, ws *workspace.Context) {
	t := &tools{ws: ws}
	registerReadTools(s, t)
	registerWriteTools(s, t)
}

func registerReadTools(s *server.MCPServer, t *tools) {
	s.AddTool(findProjectTool(), t.findProjectHandler)
	s.AddTool(resolvePackageTool(), t.resolvePackageHandler)
	s.AddTool(listMappingsTool(), t.listMappingsHandler)
	s.AddTool(historyTool(), t.historyHandler)
}

// --- find_project ---

func findProjectTool() mcp.Tool {
	return mcp.NewTool("find_project",
		mcp.WithDescription("Find a project file in the workspace by project name (case-insensitive, without extension)."),
		mcp.WithString("name",
			mcp.Description("Project name, e.g. Contoso.Core"),
			mcp.Required(),
		),
	)
}

func (t *tools) findProjectHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	result, err := commands.NewFindCommand(t.ws, req.GetString("name", "")).Execute(ctx)
	if err != nil {
		return toolError(err)
	}
	if !result.Found {
		return mcp.NewToolResultText(fmt.Sprintf("No project named %s.", result.Name)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s  (%s)", result.Path, result.Source)), nil
}

// --- resolve_package ---

func resolvePackageTool() mcp.Tool {
	return mcp.NewTool("resolve_package",
		mcp.WithDescription("Show which project a NuGet package id would be replaced with. Does not modify anything."),
		mcp.WithString("package_id",
			mcp.Description("NuGet package id"),
			mcp.Required(),
		),
		mcp.WithString("from",
			mcp.Description("Directory of the consuming project, relative to the workspace root. Defaults to the root."),
		),
	)
}

func (t *tools) resolvePackageHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cmd := commands.NewResolveCommand(t.ws, req.GetString("package_id", ""), req.GetString("from", ""))
	result, err := cmd.Execute(ctx)
	if err != nil {
		return toolError(err)
	}
	if !result.Found {
		return mcp.NewToolResultText(fmt.Sprintf("%s: unresolved (%s)", result.PackageID, result.Source)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s: %s  (%s)", result.PackageID, result.Path, result.Source)), nil
}

// --- list_mappings ---

func listMappingsTool() mcp.Tool {
	return mcp.NewTool("list_mappings",
		mcp.WithDescription("List the package id to project mappings recorded for the workspace."),
		mcp.WithBoolean("unresolved_only",
			mcp.Description("Only list package ids recorded as having no project"),
		),
	)
}

func (t *tools) listMappingsHandler(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	result, err := commands.NewMapListCommand(t.ws, req.GetBool("unresolved_only", false)).Execute()
	if err != nil {
		return toolError(err)
	}
	return formatEntities(result.Entries, formatMapping)
}

// --- history ---

func historyTool() mcp.Tool {
	return mcp.NewTool("history",
		mcp.WithDescription("List recent conversion runs, newest first."),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of runs (default 20)"),
		),
	)
}

func (t *tools) historyHandler(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	result, err := commands.NewHistoryCommand(t.ws, req.GetInt("limit", 0), "").Execute()
	if err != nil {
		return toolError(err)
	}
	return formatEntities(result.Runs, formatRun)
}

// --- helpers ---

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

func formatEntities[T any](entities []T, format func(T) string) (*mcp.CallToolResult, error) {
	if len(entities) == 0 {
		return mcp.NewToolResultText("No results."), nil
	}
	var sb strings.Builder
	for _, e := range entities {
		sb.WriteString(format(e))
		sb.WriteByte('\n')
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func formatMapping(e domain.MappingEntry) string {
	if !e.Resolved() {
		return fmt.Sprintf("%s  (unresolved)", e.PackageID)
	}
	return fmt.Sprintf("%s  %s", e.PackageID, e.ProjectPath)
}

func formatRun(r domain.RunSummary) string {
	mode := ""
	if r.DryRun {
		mode = "  dry-run"
	}
	return fmt.Sprintf("%s  %s  converted=%d unresolved=%d%s",
		r.StartedAt.Format("2006-01-02 15:04:05"), r.RunID, r.PackagesConverted, r.PackagesUnresolved, mode)
}
