package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"nuref/internal/application/commands"
)

func registerWriteTools(s *server.MCPServer, t *tools) {
	s.AddTool(setMappingTool(), t.setMappingHandler)
	s.AddTool(clearMappingTool(), t.clearMappingHandler)
	s.AddTool(unsetMappingTool(), t.unsetMappingHandler)
	s.AddTool(convertTool(), t.convertHandler)
}

// --- set_mapping ---

func setMappingTool() mcp.Tool {
	return mcp.NewTool("set_mapping",
		mcp.WithDescription("Map a NuGet package id to a project file. The next conversion uses this project."),
		mcp.WithString("package_id",
			mcp.Description("NuGet package id"),
			mcp.Required(),
		),
		mcp.WithString("project_path",
			mcp.Description("Project file, absolute or relative to the workspace root"),
			mcp.Required(),
		),
	)
}

func (t *tools) setMappingHandler(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cmd := commands.NewMapSetCommand(t.ws, req.GetString("package_id", ""), req.GetString("project_path", ""))
	result, err := cmd.Execute()
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(result.Message), nil
}

// --- clear_mapping ---

func clearMappingTool() mcp.Tool {
	return mcp.NewTool("clear_mapping",
		mcp.WithDescription("Record that a package id has no project, so conversions keep it as a package reference."),
		mcp.WithString("package_id",
			mcp.Description("NuGet package id"),
			mcp.Required(),
		),
	)
}

func (t *tools) clearMappingHandler(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	result, err := commands.NewMapClearCommand(t.ws, req.GetString("package_id", "")).Execute()
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(result.Message), nil
}

// --- unset_mapping ---

func unsetMappingTool() mcp.Tool {
	return mcp.NewTool("unset_mapping",
		mcp.WithDescription("Forget a package id so the next conversion searches for it again."),
		mcp.WithString("package_id",
			mcp.Description("NuGet package id"),
			mcp.Required(),
		),
	)
}

func (t *tools) unsetMappingHandler(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	result, err := commands.NewMapUnsetCommand(t.ws, req.GetString("package_id", "")).Execute()
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(result.Message), nil
}

// --- convert ---

func convertTool() mcp.Tool {
	return mcp.NewTool("convert",
		mcp.WithDescription("Replace NuGet package references with project references across the workspace. Use dry_run to preview diffs."),
		mcp.WithBoolean("dry_run",
			mcp.Description("Print unified diffs instead of writing files"),
		),
		mcp.WithBoolean("retry_unresolved",
			mcp.Description("Search again for package ids previously recorded as unresolved"),
		),
	)
}

func (t *tools) convertHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	dryRun := req.GetBool("dry_run", false)
	retry := req.GetBool("retry_unresolved", t.ws.Config.Convert.RetryUnresolved)

	result, err := commands.NewConvertCommand(t.ws, dryRun, retry).Execute(ctx)
	if err != nil {
		return toolError(err)
	}

	var sb strings.Builder
	sb.WriteString(result.Message)
	sb.WriteByte('\n')
	for _, change := range result.Report.Changes {
		if dryRun {
			sb.WriteString(change.Diff)
			continue
		}
		for _, conv := range change.Conversions {
			fmt.Fprintf(&sb, "%s: %s -> %s\n", change.Path, conv.PackageID, conv.Include)
		}
	}
	if len(result.Report.Unresolved) > 0 {
		fmt.Fprintf(&sb, "Unresolved: %s\n", strings.Join(result.Report.Unresolved, ", "))
	}
	return mcp.NewToolResultText(sb.String()), nil
}
