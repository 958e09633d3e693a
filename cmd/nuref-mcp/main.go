package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	mcpadapter "nuref/internal/adapters/mcp"
	"nuref/internal/config"
	"nuref/internal/logging"
	"nuref/internal/workspace"
)

func main() {
	rootFlag := flag.String("root", config.WorkspacePath(), "workspace root")
	configFlag := flag.String("config", "", "config file (default <root>/"+config.FileName+")")
	flag.Parse()

	if err := run(*rootFlag, *configFlag); err != nil {
		fmt.Fprintf(os.Stderr, "nuref-mcp: %v\n", err)
		os.Exit(1)
	}
}

func run(root, configPath string) error {
	cfg, err := config.Load(root, configPath)
	if err != nil {
		return err
	}
	// stdout carries the protocol; logs go to stderr as JSON
	cfg.Log.Format = "json"

	logger, err := logging.NewLogger(cfg.Logging())
	if err != nil {
		return err
	}
	ws, err := workspace.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer ws.Close()

	mcpServer := server.NewMCPServer(
		"nuref-mcp",
		"0.1.0",
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(
		mcp.NewTool("ping",
			mcp.WithDescription("Health check, returns pong"),
		),
		func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("pong"), nil
		},
	)

	mcpadapter.Register(mcpServer, ws)

	logger.Info(context.Background(), "serving MCP on stdio")
	return server.ServeStdio(mcpServer)
}
